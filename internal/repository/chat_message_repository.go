package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docforge/internal/model"
)

type ChatMessageRepository struct {
	db *gorm.DB
}

func NewChatMessageRepository(db *gorm.DB) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) Create(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

func (r *ChatMessageRepository) ListByOrgID(orgID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var messages []model.ChatMessage
	if err := r.db.Where("org_id = ?", orgID).Order("created_at ASC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}

// DeleteByOrgID clears the org's entire chat history.
func (r *ChatMessageRepository) DeleteByOrgID(orgID string) error {
	if err := r.db.Where("org_id = ?", orgID).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("delete chat messages failed: %w", err)
	}
	return nil
}
