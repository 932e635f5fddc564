package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docforge/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// GetByIDAndOrgID returns nil, nil when the document does not exist or
// belongs to another org; callers treat both identically.
func (r *DocumentRepository) GetByIDAndOrgID(id, orgID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND org_id = ?", id, orgID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOrgID(orgID string) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Where("org_id = ?", orgID).Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// UpdateStatus transitions the processing state. The pipeline is the sole
// writer for a document's lifetime, so no locking is needed here.
func (r *DocumentRepository) UpdateStatus(id, status string) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

// CompletionUpdate carries the terminal write of a successful pipeline run.
type CompletionUpdate struct {
	FullText     string
	DocumentType string
	Metadata     string
	Insights     string
}

func (r *DocumentRepository) MarkCompleted(id string, update CompletionUpdate) error {
	values := map[string]any{
		"status":        model.StatusCompleted,
		"full_text":     update.FullText,
		"document_type": update.DocumentType,
		"insights":      update.Insights,
	}
	if update.Metadata != "" {
		values["metadata"] = update.Metadata
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(values).Error; err != nil {
		return fmt.Errorf("mark document completed failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndOrgID(id, orgID string) error {
	if err := r.db.Where("id = ? AND org_id = ?", id, orgID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
