package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"docforge/internal/pkg/textextract"
	"docforge/internal/template"
)

func newUploadRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewTemplateHandler(template.NewService(nil, nil, nil), textextract.New())
	r := gin.New()
	r.POST("/templates/upload", h.Upload)
	return r
}

// multipartUpload builds a request whose file part carries an arbitrary,
// possibly hostile, filename. multipart.Writer.CreateFormFile escapes
// quotes, so the raw header is written directly.
func multipartUpload(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(header)
	if err != nil {
		t.Fatalf("create part failed: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part failed: %v", err)
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, "/templates/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadTraversalFilenameStaysInTempDir(t *testing.T) {
	r := newUploadRouter(t)

	escaped := filepath.Join(os.TempDir(), "..", "escape-fb71c2.docx")
	req := multipartUpload(t, "../escape-fb71c2.docx", []byte("not a real docx"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// Garbage bytes extract to nothing, so the handler rejects the upload.
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if _, err := os.Stat(escaped); !os.IsNotExist(err) {
		os.Remove(escaped)
		t.Fatalf("upload wrote outside the temp dir: %s", escaped)
	}
}

func TestUploadRejectsUnknownExtension(t *testing.T) {
	r := newUploadRouter(t)

	req := multipartUpload(t, "payload.exe", []byte("binary"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
