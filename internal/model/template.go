package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a reusable parameterized document: a markdown body with
// {{key}} placeholders plus the variable schema that fills them.
type Template struct {
	ID                 string             `gorm:"primaryKey;size:36" json:"id"`
	OrgID              string             `gorm:"size:64;not null;index" json:"org_id"`
	Title              string             `gorm:"size:256;not null" json:"title"`
	FileDescription    string             `gorm:"type:text" json:"file_description"`
	Jurisdiction       string             `gorm:"size:64" json:"jurisdiction"`
	DocType            string             `gorm:"size:128" json:"doc_type"`
	SimilarityTags     string             `gorm:"type:text" json:"-"` // JSON array of strings
	BodyMd             string             `gorm:"type:longtext;not null" json:"body_md"`
	OriginalDocumentID string             `gorm:"size:36" json:"original_document_id,omitempty"`
	Variables          []TemplateVariable `gorm:"foreignKey:TemplateID" json:"variables"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func (t *Template) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Tags returns the parsed similarity tag list; nil when empty or invalid.
func (t *Template) Tags() []string {
	if t.SimilarityTags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(t.SimilarityTags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags stores the tag list as JSON.
func (t *Template) SetTags(tags []string) {
	if len(tags) == 0 {
		t.SimilarityTags = "[]"
		return
	}
	b, _ := json.Marshal(tags)
	t.SimilarityTags = string(b)
}

// TemplateVariable is one parameter of a template. Keys are snake_case by
// convention; uniqueness within a template is not enforced.
type TemplateVariable struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	TemplateID  string    `gorm:"size:36;not null;index" json:"template_id"`
	Key         string    `gorm:"size:128;not null" json:"key"`
	Label       string    `gorm:"size:256" json:"label"`
	Description string    `gorm:"type:text" json:"description"`
	Example     string    `gorm:"size:512" json:"example"`
	Required    bool      `gorm:"default:true" json:"required"`
	Type        string    `gorm:"size:16;default:string" json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (v *TemplateVariable) BeforeCreate(_ *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
