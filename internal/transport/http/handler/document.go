package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"docforge/internal/app"
	"docforge/internal/model"
	"docforge/internal/transport/http/middleware"
	"docforge/internal/transport/http/response"
)

type DocumentHandler struct {
	documentService *app.DocumentService
}

func NewDocumentHandler(documentService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

type UpdateFieldRequest struct {
	Name  string `json:"name" binding:"required,max=128"`
	Value string `json:"value"`
}

type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

type CreateVariableRequest struct {
	Name       string   `json:"name" binding:"required,max=128"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence"`
}

type UpdateVariableRequest struct {
	Value string `json:"value"`
}

func (h *DocumentHandler) Upload(c *gin.Context) {
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

	doc, err := h.documentService.Upload(c.Request.Context(), middleware.OrgID(c), fileHeader.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnsupportedFormat), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, gin.H{
		"document_id": doc.ID,
		"status":      doc.Status,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documentService.List(middleware.OrgID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}

	items := make([]gin.H, 0, len(docs))
	for i := range docs {
		items = append(items, documentView(&docs[i]))
	}
	response.OK(c, items)
}

func documentView(doc *model.Document) gin.H {
	return gin.H{
		"id":            doc.ID,
		"status":        doc.Status,
		"document_type": doc.DocumentType,
		"metadata":      doc.MetadataMap(),
		"insights":      doc.InsightsMap(),
		"created_at":    doc.CreatedAt,
		"updated_at":    doc.UpdatedAt,
	}
}

func (h *DocumentHandler) Status(c *gin.Context) {
	status, err := h.documentService.Status(c.Param("id"), middleware.OrgID(c))
	if err != nil {
		h.respondError(c, err, "get status failed")
		return
	}
	response.OK(c, gin.H{"document_id": c.Param("id"), "status": status})
}

func (h *DocumentHandler) Insights(c *gin.Context) {
	insights, err := h.documentService.Insights(c.Request.Context(), c.Param("id"), middleware.OrgID(c))
	if err != nil {
		h.respondError(c, err, "get insights failed")
		return
	}
	response.OK(c, insights)
}

func (h *DocumentHandler) Fields(c *gin.Context) {
	fields, err := h.documentService.Fields(c.Param("id"), middleware.OrgID(c))
	if err != nil {
		h.respondError(c, err, "list fields failed")
		return
	}
	response.OK(c, fields)
}

func (h *DocumentHandler) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.documentService.UpdateFieldByName(c.Param("id"), middleware.OrgID(c), req.Name, req.Value); err != nil {
		h.respondError(c, err, "update field failed")
		return
	}
	response.OK(c, gin.H{"name": req.Name, "value": req.Value})
}

func (h *DocumentHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.documentService.Query(c.Request.Context(), c.Param("id"), middleware.OrgID(c), req.Question)
	if err != nil {
		h.respondError(c, err, "query failed")
		return
	}
	response.OK(c, gin.H{"answer": answer})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), c.Param("id"), middleware.OrgID(c)); err != nil {
		h.respondError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_document_id": c.Param("id")})
}

func (h *DocumentHandler) ListVariables(c *gin.Context) {
	variables, err := h.documentService.Fields(c.Param("id"), middleware.OrgID(c))
	if err != nil {
		h.respondError(c, err, "list variables failed")
		return
	}
	response.OK(c, variables)
}

func (h *DocumentHandler) CreateVariable(c *gin.Context) {
	var req CreateVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	variable := &model.DocumentVariable{
		Name:       req.Name,
		Value:      req.Value,
		Confidence: req.Confidence,
		Editable:   true,
	}
	if err := h.documentService.CreateVariable(c.Param("id"), middleware.OrgID(c), variable); err != nil {
		h.respondError(c, err, "create variable failed")
		return
	}
	response.OK(c, variable)
}

func (h *DocumentHandler) UpdateVariable(c *gin.Context) {
	var req UpdateVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.documentService.UpdateVariable(c.Param("id"), middleware.OrgID(c), c.Param("variableId"), req.Value); err != nil {
		h.respondError(c, err, "update variable failed")
		return
	}
	response.OK(c, gin.H{"variable_id": c.Param("variableId"), "value": req.Value})
}

func (h *DocumentHandler) DeleteVariable(c *gin.Context) {
	if err := h.documentService.DeleteVariable(c.Param("id"), middleware.OrgID(c), c.Param("variableId")); err != nil {
		h.respondError(c, err, "delete variable failed")
		return
	}
	response.OK(c, gin.H{"deleted_variable_id": c.Param("variableId")})
}

func (h *DocumentHandler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrNotReady):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
