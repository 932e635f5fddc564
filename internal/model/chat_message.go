package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is one turn of the document Q&A loop. Append-only; cleared in
// bulk per org.
type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	OrgID      string    `gorm:"size:64;not null;index" json:"org_id"`
	DocumentID string    `gorm:"size:36;index" json:"document_id,omitempty"`
	Role       string    `gorm:"size:16;not null" json:"role"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (m *ChatMessage) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
