package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docforge/internal/model"
)

type DocumentTypeRepository struct {
	db *gorm.DB
}

func NewDocumentTypeRepository(db *gorm.DB) *DocumentTypeRepository {
	return &DocumentTypeRepository{db: db}
}

func (r *DocumentTypeRepository) Create(docType *model.DocumentType) error {
	if err := r.db.Create(docType).Error; err != nil {
		return fmt.Errorf("create document type failed: %w", err)
	}
	return nil
}

func (r *DocumentTypeRepository) GetByNameAndOrgID(name, orgID string) (*model.DocumentType, error) {
	var docType model.DocumentType
	if err := r.db.Where("name = ? AND org_id = ?", name, orgID).First(&docType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document type failed: %w", err)
	}
	return &docType, nil
}

func (r *DocumentTypeRepository) GetByIDAndOrgID(id, orgID string) (*model.DocumentType, error) {
	var docType model.DocumentType
	if err := r.db.Where("id = ? AND org_id = ?", id, orgID).First(&docType).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document type failed: %w", err)
	}
	return &docType, nil
}

func (r *DocumentTypeRepository) ListByOrgID(orgID string) ([]model.DocumentType, error) {
	var docTypes []model.DocumentType
	if err := r.db.Where("org_id = ?", orgID).Order("created_at DESC").Find(&docTypes).Error; err != nil {
		return nil, fmt.Errorf("list document types failed: %w", err)
	}
	return docTypes, nil
}

func (r *DocumentTypeRepository) UpdateFields(id, fieldsJSON string) error {
	if err := r.db.Model(&model.DocumentType{}).Where("id = ?", id).Update("fields", fieldsJSON).Error; err != nil {
		return fmt.Errorf("update document type fields failed: %w", err)
	}
	return nil
}
