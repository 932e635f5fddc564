package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"docforge/internal/model"
	"docforge/internal/repository"
	"docforge/internal/transport/http/middleware"
	"docforge/internal/transport/http/response"
)

type DocTypeHandler struct {
	typeRepo *repository.DocumentTypeRepository
}

func NewDocTypeHandler(typeRepo *repository.DocumentTypeRepository) *DocTypeHandler {
	return &DocTypeHandler{typeRepo: typeRepo}
}

type CreateDocTypeRequest struct {
	Name        string           `json:"name" binding:"required,max=128"`
	Category    string           `json:"category" binding:"max=64"`
	Description string           `json:"description"`
	Fields      []map[string]any `json:"fields"`
}

type UpdateDocTypeFieldsRequest struct {
	Fields []map[string]any `json:"fields" binding:"required"`
}

func (h *DocTypeHandler) List(c *gin.Context) {
	types, err := h.typeRepo.ListByOrgID(middleware.OrgID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list document types failed")
		return
	}

	items := make([]gin.H, 0, len(types))
	for i := range types {
		items = append(items, docTypeView(&types[i]))
	}
	response.OK(c, items)
}

func (h *DocTypeHandler) Create(c *gin.Context) {
	var req CreateDocTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	orgID := middleware.OrgID(c)
	existing, err := h.typeRepo.GetByNameAndOrgID(req.Name, orgID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create document type failed")
		return
	}
	if existing != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "document type already exists")
		return
	}

	fieldsJSON, _ := json.Marshal(req.Fields)
	docType := &model.DocumentType{
		OrgID:       orgID,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Fields:      string(fieldsJSON),
	}
	if err := h.typeRepo.Create(docType); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create document type failed")
		return
	}
	response.OK(c, docTypeView(docType))
}

func (h *DocTypeHandler) UpdateFields(c *gin.Context) {
	var req UpdateDocTypeFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	docType, err := h.typeRepo.GetByIDAndOrgID(c.Param("id"), middleware.OrgID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update fields failed")
		return
	}
	if docType == nil {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "document type not found")
		return
	}

	fieldsJSON, _ := json.Marshal(req.Fields)
	if err := h.typeRepo.UpdateFields(docType.ID, string(fieldsJSON)); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update fields failed")
		return
	}
	docType.Fields = string(fieldsJSON)
	response.OK(c, docTypeView(docType))
}

func docTypeView(t *model.DocumentType) gin.H {
	var fields []map[string]any
	_ = json.Unmarshal([]byte(t.Fields), &fields)
	var metadata map[string]any
	_ = json.Unmarshal([]byte(t.Metadata), &metadata)
	return gin.H{
		"id":          t.ID,
		"name":        t.Name,
		"category":    t.Category,
		"description": t.Description,
		"fields":      fields,
		"metadata":    metadata,
		"created_at":  t.CreatedAt,
	}
}
