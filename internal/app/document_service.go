package app

import (
	"context"
	"encoding/json"
	"log"
	"path/filepath"
	"strings"

	"docforge/internal/agent"
	"docforge/internal/model"
	"docforge/internal/pipeline"
	"docforge/internal/storage"
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// JobPublisher enqueues the background processing task for one upload.
type JobPublisher interface {
	Publish(ctx context.Context, job pipeline.IngestJob) error
}

// DocumentStore is the document persistence slice the service drives.
type DocumentStore interface {
	Create(doc *model.Document) error
	GetByIDAndOrgID(id, orgID string) (*model.Document, error)
	ListByOrgID(orgID string) ([]model.Document, error)
	UpdateStatus(id, status string) error
	DeleteByIDAndOrgID(id, orgID string) error
}

// VariableStore is the extracted-field persistence slice.
type VariableStore interface {
	Create(variable *model.DocumentVariable) error
	ListByDocumentID(documentID string) ([]model.DocumentVariable, error)
	GetByID(id string) (*model.DocumentVariable, error)
	UpdateValue(id, value string) error
	UpdateValueByName(documentID, name, value string) error
	DeleteByID(id string) error
	DeleteByDocumentID(documentID string) error
}

// InsightsCache fronts the insights column for completed documents.
type InsightsCache interface {
	Get(ctx context.Context, documentID string) (string, bool, error)
	Set(ctx context.Context, documentID, insights string) error
	Invalidate(ctx context.Context, documentID string) error
}

type DocumentService struct {
	docRepo   DocumentStore
	varRepo   VariableStore
	files     *storage.FileStore
	publisher JobPublisher
	agents    *agent.Agents
	insights  InsightsCache
}

func NewDocumentService(
	docRepo DocumentStore,
	varRepo VariableStore,
	files *storage.FileStore,
	publisher JobPublisher,
	agents *agent.Agents,
	insights InsightsCache,
) *DocumentService {
	return &DocumentService{
		docRepo:   docRepo,
		varRepo:   varRepo,
		files:     files,
		publisher: publisher,
		agents:    agents,
		insights:  insights,
	}
}

// Upload stores the blob, creates the document record and fires the ingest
// job. Processing happens in the background; callers poll status.
func (s *DocumentService) Upload(ctx context.Context, orgID, fileName string, content []byte) (*model.Document, error) {
	if orgID == "" || fileName == "" || len(content) == 0 {
		return nil, ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFormat
	}

	path, err := s.files.Put(content, fileName)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		OrgID:    orgID,
		Status:   model.StatusUploaded,
		FilePath: path,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	job := pipeline.IngestJob{
		DocumentID: doc.ID,
		OrgID:      orgID,
		FilePath:   path,
		Extension:  ext,
	}
	if err := s.publisher.Publish(ctx, job); err != nil {
		log.Printf("[%s] enqueue ingest job failed: %v", doc.ID, err)
		if markErr := s.docRepo.UpdateStatus(doc.ID, model.StatusFailed); markErr != nil {
			log.Printf("[%s] mark failed failed: %v", doc.ID, markErr)
		}
		return nil, ErrJobEnqueue
	}
	return doc, nil
}

func (s *DocumentService) List(orgID string) ([]model.Document, error) {
	if orgID == "" {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByOrgID(orgID)
}

func (s *DocumentService) Status(id, orgID string) (string, error) {
	doc, err := s.get(id, orgID)
	if err != nil {
		return "", err
	}
	return doc.Status, nil
}

// Insights returns the structured analysis bundle of a completed document.
// The org-scoped lookup always runs first; the cache is keyed by document id
// alone, so it must never be consulted before tenancy is established.
func (s *DocumentService) Insights(ctx context.Context, id, orgID string) (map[string]any, error) {
	doc, err := s.get(id, orgID)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusCompleted {
		return nil, ErrNotReady
	}

	if s.insights != nil {
		if raw, hit, err := s.insights.Get(ctx, id); err == nil && hit {
			var bundle map[string]any
			if err := json.Unmarshal([]byte(raw), &bundle); err == nil {
				return bundle, nil
			}
		}
	}
	bundle := doc.InsightsMap()
	if bundle == nil {
		return nil, ErrNotReady
	}
	if s.insights != nil {
		if err := s.insights.Set(ctx, id, doc.Insights); err != nil {
			log.Printf("[%s] cache insights failed: %v", id, err)
		}
	}
	return bundle, nil
}

func (s *DocumentService) Fields(id, orgID string) ([]model.DocumentVariable, error) {
	if _, err := s.get(id, orgID); err != nil {
		return nil, err
	}
	return s.varRepo.ListByDocumentID(id)
}

// UpdateFieldByName changes the value of every variable with the given name.
// Duplicate names coexist and all matches are updated.
func (s *DocumentService) UpdateFieldByName(id, orgID, name, value string) error {
	if name == "" {
		return ErrInvalidInput
	}
	if _, err := s.get(id, orgID); err != nil {
		return err
	}
	return s.varRepo.UpdateValueByName(id, name, value)
}

func (s *DocumentService) CreateVariable(id, orgID string, variable *model.DocumentVariable) error {
	if variable == nil || variable.Name == "" {
		return ErrInvalidInput
	}
	if _, err := s.get(id, orgID); err != nil {
		return err
	}
	variable.DocumentID = id
	return s.varRepo.Create(variable)
}

func (s *DocumentService) UpdateVariable(docID, orgID, variableID, value string) error {
	if _, err := s.get(docID, orgID); err != nil {
		return err
	}
	variable, err := s.varRepo.GetByID(variableID)
	if err != nil {
		return err
	}
	if variable == nil || variable.DocumentID != docID {
		return ErrNotFound
	}
	return s.varRepo.UpdateValue(variableID, value)
}

func (s *DocumentService) DeleteVariable(docID, orgID, variableID string) error {
	if _, err := s.get(docID, orgID); err != nil {
		return err
	}
	variable, err := s.varRepo.GetByID(variableID)
	if err != nil {
		return err
	}
	if variable == nil || variable.DocumentID != docID {
		return ErrNotFound
	}
	return s.varRepo.DeleteByID(variableID)
}

// Query answers a free-text question against the document's extracted text.
func (s *DocumentService) Query(ctx context.Context, id, orgID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrInvalidInput
	}
	doc, err := s.get(id, orgID)
	if err != nil {
		return "", err
	}
	if doc.Status != model.StatusCompleted || doc.FullText == "" {
		return "", ErrNotReady
	}
	return s.agents.Answer(ctx, doc.FullText, question)
}

// Delete removes the document, its variables and its blob. Blob removal is
// best-effort once the database rows are gone.
func (s *DocumentService) Delete(ctx context.Context, id, orgID string) error {
	doc, err := s.get(id, orgID)
	if err != nil {
		return err
	}
	if err := s.varRepo.DeleteByDocumentID(id); err != nil {
		return err
	}
	if err := s.docRepo.DeleteByIDAndOrgID(id, orgID); err != nil {
		return err
	}
	if err := s.files.Delete(doc.FilePath); err != nil {
		log.Printf("[%s] delete blob failed: %v", id, err)
	}
	if s.insights != nil {
		if err := s.insights.Invalidate(ctx, id); err != nil {
			log.Printf("[%s] invalidate insights failed: %v", id, err)
		}
	}
	return nil
}

// get treats cross-org access identically to non-existence.
func (s *DocumentService) get(id, orgID string) (*model.Document, error) {
	if id == "" || orgID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndOrgID(id, orgID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}
