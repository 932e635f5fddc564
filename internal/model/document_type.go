package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentType is a registry entry for an auto-detected or user-created
// document category. Fields and Metadata hold serialized JSON; low-confidence
// auto detections are never materialized here.
type DocumentType struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	OrgID       string    `gorm:"size:64;not null;index" json:"org_id"`
	Name        string    `gorm:"size:128;not null;index" json:"name"`
	Category    string    `gorm:"size:64" json:"category"`
	Description string    `gorm:"type:text" json:"description"`
	Fields      string    `gorm:"type:text" json:"-"` // JSON array of field definitions
	Metadata    string    `gorm:"type:text" json:"-"` // JSON: confidence, key identifiers
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *DocumentType) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
