package app

import (
	"context"
	"errors"
	"testing"

	"docforge/internal/model"
)

type fakeDocumentStore struct {
	docs []model.Document
}

func (f *fakeDocumentStore) Create(doc *model.Document) error {
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeDocumentStore) GetByIDAndOrgID(id, orgID string) (*model.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id && f.docs[i].OrgID == orgID {
			return &f.docs[i], nil
		}
	}
	return nil, nil
}

func (f *fakeDocumentStore) ListByOrgID(orgID string) ([]model.Document, error) {
	return f.docs, nil
}

func (f *fakeDocumentStore) UpdateStatus(id, status string) error { return nil }

func (f *fakeDocumentStore) DeleteByIDAndOrgID(id, orgID string) error { return nil }

type fakeVariableStore struct{}

func (f *fakeVariableStore) Create(variable *model.DocumentVariable) error { return nil }
func (f *fakeVariableStore) ListByDocumentID(documentID string) ([]model.DocumentVariable, error) {
	return nil, nil
}
func (f *fakeVariableStore) GetByID(id string) (*model.DocumentVariable, error) {
	return nil, nil
}

func (f *fakeVariableStore) UpdateValue(id, value string) error { return nil }

func (f *fakeVariableStore) UpdateValueByName(documentID, name, value string) error {
	return nil
}

func (f *fakeVariableStore) DeleteByID(id string) error { return nil }

func (f *fakeVariableStore) DeleteByDocumentID(documentID string) error { return nil }

type fakeInsightsCache struct {
	entries map[string]string
	gets    int
}

func (f *fakeInsightsCache) Get(ctx context.Context, documentID string) (string, bool, error) {
	f.gets++
	raw, ok := f.entries[documentID]
	return raw, ok, nil
}

func (f *fakeInsightsCache) Set(ctx context.Context, documentID, insights string) error {
	if f.entries == nil {
		f.entries = map[string]string{}
	}
	f.entries[documentID] = insights
	return nil
}

func (f *fakeInsightsCache) Invalidate(ctx context.Context, documentID string) error {
	delete(f.entries, documentID)
	return nil
}

func newInsightsFixture(insightsCache InsightsCache) (*DocumentService, *fakeDocumentStore) {
	docs := &fakeDocumentStore{docs: []model.Document{{
		ID:       "doc-1",
		OrgID:    "org-a",
		Status:   model.StatusCompleted,
		Insights: `{"summary": {"text": "org-a confidential analysis"}}`,
	}}}
	return NewDocumentService(docs, &fakeVariableStore{}, nil, nil, nil, insightsCache), docs
}

func TestInsightsCrossOrgIsNotFoundEvenWithWarmCache(t *testing.T) {
	insightsCache := &fakeInsightsCache{}
	svc, _ := newInsightsFixture(insightsCache)
	ctx := context.Background()

	// org-a reads its own document, warming the cache.
	bundle, err := svc.Insights(ctx, "doc-1", "org-a")
	if err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, ok := bundle["summary"]; !ok {
		t.Fatalf("bundle = %v, want summary", bundle)
	}
	if _, warmed := insightsCache.entries["doc-1"]; !warmed {
		t.Fatal("expected owner read to warm the cache")
	}

	// Another org holding the id must get nothing, warm cache or not.
	insightsCache.gets = 0
	if _, err := svc.Insights(ctx, "doc-1", "org-b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-org err = %v, want ErrNotFound", err)
	}
	if insightsCache.gets != 0 {
		t.Error("cache consulted before org scoping was established")
	}
}

func TestInsightsServedFromCacheForOwner(t *testing.T) {
	insightsCache := &fakeInsightsCache{entries: map[string]string{
		"doc-1": `{"summary": {"text": "cached"}}`,
	}}
	svc, _ := newInsightsFixture(insightsCache)

	bundle, err := svc.Insights(context.Background(), "doc-1", "org-a")
	if err != nil {
		t.Fatalf("insights failed: %v", err)
	}
	summary := bundle["summary"].(map[string]any)
	if summary["text"] != "cached" {
		t.Errorf("summary = %v, want cached copy", summary)
	}
	if insightsCache.gets != 1 {
		t.Errorf("cache gets = %d, want 1", insightsCache.gets)
	}
}

func TestInsightsNotReadyBeforeCompletion(t *testing.T) {
	docs := &fakeDocumentStore{docs: []model.Document{{
		ID:     "doc-2",
		OrgID:  "org-a",
		Status: model.StatusProcessing,
	}}}
	svc := NewDocumentService(docs, &fakeVariableStore{}, nil, nil, nil, &fakeInsightsCache{})

	if _, err := svc.Insights(context.Background(), "doc-2", "org-a"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}
