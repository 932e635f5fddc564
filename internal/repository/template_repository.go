package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docforge/internal/model"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Create persists the template and its owned variables atomically.
func (r *TemplateRepository) Create(template *model.Template) error {
	if err := r.db.Create(template).Error; err != nil {
		return fmt.Errorf("create template failed: %w", err)
	}
	return nil
}

func (r *TemplateRepository) GetByIDAndOrgID(id, orgID string) (*model.Template, error) {
	var template model.Template
	if err := r.db.Preload("Variables").Where("id = ? AND org_id = ?", id, orgID).First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template failed: %w", err)
	}
	return &template, nil
}

func (r *TemplateRepository) ListByOrgID(orgID string) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.Preload("Variables").Where("org_id = ?", orgID).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}
	return templates, nil
}
