// Package textextract converts uploaded files of unknown quality into plain
// text. Extraction never propagates errors: every failure path degrades to an
// empty string and callers treat near-empty output as failure.
package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MinTextLength is the threshold below which extracted text counts as an
// extraction failure.
const MinTextLength = 20

const (
	tesseractBinary = "tesseract"
	pdftoppmBinary  = "pdftoppm"
)

// Extractor extracts plain text from PDF, DOCX, TXT and image files.
// Scanned PDFs and images are handled by shelling out to tesseract (and
// pdftoppm for page rendering), mirroring how the original deployment runs
// OCR as an external engine.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of the file at path. The returned string is
// empty for unsupported extensions and for any extraction error; callers must
// check TooShort before trusting the result.
func (e *Extractor) Extract(path, ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		text := extractPDFText(path)
		if strings.TrimSpace(text) == "" {
			log.Printf("no text layer in %s, falling back to OCR", filepath.Base(path))
			return e.ocrPDF(path)
		}
		return text
	case ".docx":
		return extractDOCXText(path)
	case ".txt":
		b, err := os.ReadFile(path)
		if err != nil {
			log.Printf("read txt %s failed: %v", filepath.Base(path), err)
			return ""
		}
		return string(b)
	case ".png", ".jpg", ".jpeg":
		return e.ocrImage(path)
	default:
		log.Printf("unsupported extension for extraction: %s", ext)
		return ""
	}
}

// TooShort reports whether extracted text is below the usable threshold.
func TooShort(text string) bool {
	return len(strings.TrimSpace(text)) < MinTextLength
}

func extractPDFText(path string) string {
	f, err := os.Open(path)
	if err != nil {
		log.Printf("open pdf %s failed: %v", filepath.Base(path), err)
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ""
	}
	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		log.Printf("parse pdf %s failed: %v", filepath.Base(path), err)
		return ""
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		log.Printf("extract pdf text %s failed: %v", filepath.Base(path), err)
		return ""
	}
	out, err := io.ReadAll(plain)
	if err != nil {
		return ""
	}
	return string(out)
}

// ocrPDF renders each page to an image and OCRs them in page order.
func (e *Extractor) ocrPDF(path string) string {
	tmpDir, err := os.MkdirTemp("", "docforge-ocr-*")
	if err != nil {
		log.Printf("create ocr temp dir failed: %v", err)
		return ""
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	if out, err := exec.Command(pdftoppmBinary, "-png", "-r", "200", path, prefix).CombinedOutput(); err != nil {
		log.Printf("render pdf pages failed: %v (%s)", err, strings.TrimSpace(string(out)))
		return ""
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil || len(pages) == 0 {
		return ""
	}
	sort.Strings(pages) // pdftoppm zero-pads page numbers

	var b strings.Builder
	for _, page := range pages {
		b.WriteString(e.ocrImage(page))
	}
	return b.String()
}

func (e *Extractor) ocrImage(path string) string {
	// "-" sends the recognized text to stdout.
	out, err := exec.Command(tesseractBinary, path, "-").Output()
	if err != nil {
		log.Printf("ocr %s failed: %v", filepath.Base(path), err)
		return ""
	}
	return string(out)
}

// docx is a zip archive; the paragraphs live in word/document.xml.
type docxDocument struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Texts []string `xml:"t"`
	} `xml:"r"`
}

func extractDOCXText(path string) string {
	reader, err := zip.OpenReader(path)
	if err != nil {
		log.Printf("open docx %s failed: %v", filepath.Base(path), err)
		return ""
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return ""
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return ""
		}
		return parseDocxXML(content)
	}
	return ""
}

// parseDocxXML concatenates paragraph texts in document order, one per line.
func parseDocxXML(content []byte) string {
	var doc docxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		log.Printf("parse docx xml failed: %v", err)
		return ""
	}
	var lines []string
	for _, p := range doc.Body.Paragraphs {
		var line bytes.Buffer
		for _, r := range p.Runs {
			for _, t := range r.Texts {
				line.WriteString(t)
			}
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
