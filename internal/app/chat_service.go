package app

import (
	"context"
	"strings"

	"docforge/internal/agent"
	"docforge/internal/model"
	"docforge/internal/repository"
)

// HistoryCache keeps recent chat history out of the hot read path.
type HistoryCache interface {
	GetHistory(ctx context.Context, orgID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, orgID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, orgID string) error
	MarkDirty(ctx context.Context, orgID string) error
	IsDirty(ctx context.Context, orgID string) (bool, error)
}

type ChatService struct {
	messageRepo  *repository.ChatMessageRepository
	docRepo      *repository.DocumentRepository
	agents       *agent.Agents
	historyCache HistoryCache
}

func NewChatService(
	messageRepo *repository.ChatMessageRepository,
	docRepo *repository.DocumentRepository,
	agents *agent.Agents,
	historyCache HistoryCache,
) *ChatService {
	return &ChatService{
		messageRepo:  messageRepo,
		docRepo:      docRepo,
		agents:       agents,
		historyCache: historyCache,
	}
}

type SendMessageInput struct {
	OrgID      string
	DocumentID string
	Content    string
}

// SendMessage answers the user's question, grounded on a document's text
// when one is referenced, and appends both turns to the org's history.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) ([]model.ChatMessage, error) {
	if input.OrgID == "" {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrInvalidInput
	}

	docText := ""
	if input.DocumentID != "" {
		doc, err := s.docRepo.GetByIDAndOrgID(input.DocumentID, input.OrgID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrNotFound
		}
		if doc.Status != model.StatusCompleted || doc.FullText == "" {
			return nil, ErrNotReady
		}
		docText = doc.FullText
	}

	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, input.OrgID)
		_ = s.historyCache.DeleteHistory(ctx, input.OrgID)
	}

	userMessage := &model.ChatMessage{
		OrgID:      input.OrgID,
		DocumentID: input.DocumentID,
		Role:       "user",
		Content:    content,
	}
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, err
	}

	answer, err := s.agents.Answer(ctx, docText, content)
	if err != nil {
		return nil, err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = "The model returned an empty response."
	}

	assistantMessage := &model.ChatMessage{
		OrgID:      input.OrgID,
		DocumentID: input.DocumentID,
		Role:       "assistant",
		Content:    answer,
	}
	if err := s.messageRepo.Create(assistantMessage); err != nil {
		return nil, err
	}

	return []model.ChatMessage{*userMessage, *assistantMessage}, nil
}

func (s *ChatService) History(ctx context.Context, orgID string, limit int) ([]model.ChatMessage, error) {
	if orgID == "" {
		return nil, ErrInvalidInput
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, orgID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, orgID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListByOrgID(orgID, limit)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, orgID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, orgID, messages)
		}
	}
	return messages, nil
}

func (s *ChatService) ClearHistory(ctx context.Context, orgID string) error {
	if orgID == "" {
		return ErrInvalidInput
	}
	if err := s.messageRepo.DeleteByOrgID(orgID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, orgID)
	}
	return nil
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
