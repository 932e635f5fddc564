package handler

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docforge/internal/pkg/textextract"
	"docforge/internal/template"
	"docforge/internal/transport/http/middleware"
	"docforge/internal/transport/http/response"
)

type TemplateHandler struct {
	templateService *template.Service
	extractor       *textextract.Extractor
}

func NewTemplateHandler(templateService *template.Service, extractor *textextract.Extractor) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, extractor: extractor}
}

type CreateTemplateRequest struct {
	Markdown string `json:"markdown" binding:"required"`
}

type FindTemplateRequest struct {
	Query string `json:"query" binding:"required"`
}

type FillTemplateRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	Variables  map[string]string `json:"variables"`
}

type PrefillRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
	Query      string `json:"query" binding:"required"`
}

type QuestionsRequest struct {
	TemplateID string            `json:"template_id" binding:"required"`
	Filled     map[string]string `json:"filled"`
}

func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templateService.List(middleware.OrgID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list templates failed")
		return
	}
	response.OK(c, templates)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, err := h.templateService.Get(c.Param("id"), middleware.OrgID(c))
	if err != nil {
		h.respondError(c, err, "get template failed")
		return
	}
	response.OK(c, tpl)
}

func (h *TemplateHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tpl, err := h.templateService.SaveFromMarkdown(middleware.OrgID(c), req.Markdown)
	if err != nil {
		h.respondError(c, err, "save template failed")
		return
	}
	response.OK(c, tpl)
}

// Upload templatizes an uploaded source document and returns the markdown
// without persisting it, so the caller can review before saving.
func (h *TemplateHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	var text string
	switch ext {
	case ".txt", ".md":
		text = string(content)
	case ".pdf", ".docx", ".png", ".jpg", ".jpeg":
		// The client filename never touches the path. The extension is safe
		// as a suffix because the switch already validated it.
		tmp, err := os.CreateTemp("", "template-upload-*"+ext)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "templatize failed")
			return
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "templatize failed")
			return
		}
		tmp.Close()
		text = h.extractor.Extract(tmp.Name(), ext)
	default:
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unsupported template source format")
		return
	}
	if textextract.TooShort(text) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "uploaded text is too short to templatize")
		return
	}

	markdown, err := h.templateService.Templatize(c.Request.Context(), text)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "templatize failed")
		return
	}
	response.OK(c, gin.H{"markdown": markdown})
}

func (h *TemplateHandler) Find(c *gin.Context) {
	var req FindTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	tpl, err := h.templateService.Find(c.Request.Context(), middleware.OrgID(c), req.Query)
	if err != nil {
		h.respondError(c, err, "find template failed")
		return
	}
	response.OK(c, tpl)
}

func (h *TemplateHandler) Fill(c *gin.Context) {
	var req FillTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	body, err := h.templateService.Fill(req.TemplateID, middleware.OrgID(c), req.Variables)
	if err != nil {
		h.respondError(c, err, "fill template failed")
		return
	}
	response.OK(c, gin.H{"body": body})
}

func (h *TemplateHandler) Prefill(c *gin.Context) {
	var req PrefillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	values, err := h.templateService.Prefill(c.Request.Context(), req.TemplateID, middleware.OrgID(c), req.Query)
	if err != nil {
		h.respondError(c, err, "prefill failed")
		return
	}
	response.OK(c, gin.H{"variables": values})
}

func (h *TemplateHandler) Questions(c *gin.Context) {
	var req QuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	questions, err := h.templateService.GenerateQuestions(c.Request.Context(), req.TemplateID, middleware.OrgID(c), req.Filled)
	if err != nil {
		h.respondError(c, err, "generate questions failed")
		return
	}
	response.OK(c, gin.H{"questions": questions})
}

func (h *TemplateHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, template.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, template.ErrNoExemplar):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
