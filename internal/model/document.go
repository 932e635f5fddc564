package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document processing states. Completed and failed are terminal; a failed
// document requires re-upload.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Document struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	OrgID        string    `gorm:"size:64;not null;index" json:"org_id"`
	Status       string    `gorm:"size:16;not null;index" json:"status"`
	FilePath     string    `gorm:"size:512;not null" json:"file_path"`
	FullText     string    `gorm:"type:longtext" json:"full_text,omitempty"`
	DocumentType string    `gorm:"size:128" json:"document_type,omitempty"`
	Metadata     string    `gorm:"type:text" json:"-"` // JSON, at minimum {"title": ...}
	Insights     string    `gorm:"type:text" json:"-"` // JSON analysis bundle
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// MetadataMap returns the parsed metadata column; nil when empty or invalid.
func (d *Document) MetadataMap() map[string]any {
	return decodeJSONColumn(d.Metadata)
}

// InsightsMap returns the parsed insights column; nil when empty or invalid.
func (d *Document) InsightsMap() map[string]any {
	return decodeJSONColumn(d.Insights)
}

func decodeJSONColumn(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

// DocumentVariable is one extracted field belonging to a document. Duplicate
// names may coexist; bulk insert does not dedupe and update-by-name affects
// all matches.
type DocumentVariable struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string    `gorm:"size:36;not null;index" json:"document_id"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	Value      string    `gorm:"type:text" json:"value"`
	Confidence *float64  `json:"confidence,omitempty"`
	Editable   bool      `gorm:"default:true" json:"editable"`
	CreatedAt  time.Time `json:"created_at"`
}

func (v *DocumentVariable) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
