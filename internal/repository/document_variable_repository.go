package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docforge/internal/model"
)

type DocumentVariableRepository struct {
	db *gorm.DB
}

func NewDocumentVariableRepository(db *gorm.DB) *DocumentVariableRepository {
	return &DocumentVariableRepository{db: db}
}

func (r *DocumentVariableRepository) Create(variable *model.DocumentVariable) error {
	if err := r.db.Create(variable).Error; err != nil {
		return fmt.Errorf("create document variable failed: %w", err)
	}
	return nil
}

// CreateBatch bulk-inserts variables. Duplicate names are allowed; no
// uniqueness is enforced.
func (r *DocumentVariableRepository) CreateBatch(variables []model.DocumentVariable) error {
	if len(variables) == 0 {
		return nil
	}
	if err := r.db.Create(&variables).Error; err != nil {
		return fmt.Errorf("bulk create document variables failed: %w", err)
	}
	return nil
}

func (r *DocumentVariableRepository) ListByDocumentID(documentID string) ([]model.DocumentVariable, error) {
	var variables []model.DocumentVariable
	if err := r.db.Where("document_id = ?", documentID).Order("created_at DESC").Find(&variables).Error; err != nil {
		return nil, fmt.Errorf("list document variables failed: %w", err)
	}
	return variables, nil
}

func (r *DocumentVariableRepository) GetByID(id string) (*model.DocumentVariable, error) {
	var variable model.DocumentVariable
	if err := r.db.Where("id = ?", id).First(&variable).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document variable failed: %w", err)
	}
	return &variable, nil
}

func (r *DocumentVariableRepository) UpdateValue(id, value string) error {
	if err := r.db.Model(&model.DocumentVariable{}).Where("id = ?", id).Update("value", value).Error; err != nil {
		return fmt.Errorf("update document variable failed: %w", err)
	}
	return nil
}

// UpdateValueByName updates every variable with the given name; duplicates
// all receive the new value.
func (r *DocumentVariableRepository) UpdateValueByName(documentID, name, value string) error {
	if err := r.db.Model(&model.DocumentVariable{}).
		Where("document_id = ? AND name = ?", documentID, name).
		Update("value", value).Error; err != nil {
		return fmt.Errorf("update document variables by name failed: %w", err)
	}
	return nil
}

func (r *DocumentVariableRepository) DeleteByID(id string) error {
	if err := r.db.Where("id = ?", id).Delete(&model.DocumentVariable{}).Error; err != nil {
		return fmt.Errorf("delete document variable failed: %w", err)
	}
	return nil
}

// DeleteByDocumentID removes all variables of a document (cascade delete).
func (r *DocumentVariableRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.DocumentVariable{}).Error; err != nil {
		return fmt.Errorf("delete document variables failed: %w", err)
	}
	return nil
}
