package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docforge/internal/agent"
	"docforge/internal/model"
	"docforge/internal/repository"
)

type fakeDocumentStore struct {
	statuses   []string
	completion *repository.CompletionUpdate
	statusErr  error
	markErr    error
}

func (f *fakeDocumentStore) UpdateStatus(id, status string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeDocumentStore) MarkCompleted(id string, update repository.CompletionUpdate) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.completion = &update
	f.statuses = append(f.statuses, model.StatusCompleted)
	return nil
}

type fakeVariableStore struct {
	inserted []model.DocumentVariable
	err      error
}

func (f *fakeVariableStore) CreateBatch(variables []model.DocumentVariable) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, variables...)
	return nil
}

type fakeTypeRegistry struct {
	existing map[string]*model.DocumentType
	created  []*model.DocumentType
}

func (f *fakeTypeRegistry) GetByNameAndOrgID(name, orgID string) (*model.DocumentType, error) {
	if f.existing == nil {
		return nil, nil
	}
	return f.existing[name], nil
}

func (f *fakeTypeRegistry) Create(docType *model.DocumentType) error {
	f.created = append(f.created, docType)
	return nil
}

type fakeAnalyzer struct {
	classification string
	classifyErr    error
	summary        string
	summaryErr     error
	entitiesRaw    string
	entitiesErr    error
	analysis       *agent.DocumentAnalysis
	analysisErr    error
	typeAnalysis   *agent.TypeAnalysis
	typeErr        error
	typePanic      string
}

func (f *fakeAnalyzer) Classify(ctx context.Context, text string) (string, error) {
	return f.classification, f.classifyErr
}

func (f *fakeAnalyzer) Summarize(ctx context.Context, text string) (string, error) {
	return f.summary, f.summaryErr
}

func (f *fakeAnalyzer) ExtractEntities(ctx context.Context, text string) (string, error) {
	return f.entitiesRaw, f.entitiesErr
}

func (f *fakeAnalyzer) AnalyzeDocument(ctx context.Context, text string) (*agent.DocumentAnalysis, error) {
	return f.analysis, f.analysisErr
}

func (f *fakeAnalyzer) AnalyzeType(ctx context.Context, content string) (*agent.TypeAnalysis, error) {
	if f.typePanic != "" {
		panic(f.typePanic)
	}
	if f.typeErr != nil {
		return nil, f.typeErr
	}
	if f.typeAnalysis != nil {
		return f.typeAnalysis, nil
	}
	return &agent.TypeAnalysis{DocumentType: "Generic Document", Category: "Unknown"}, nil
}

type fakeExtractor struct {
	text string
}

func (f *fakeExtractor) Extract(path, ext string) string { return f.text }

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func newProcessor(docs *fakeDocumentStore, vars *fakeVariableStore, types *fakeTypeRegistry, agents *fakeAnalyzer, ex *fakeExtractor) *Processor {
	return NewProcessor(docs, vars, types, agents, ex, nil)
}

func TestProcessInvoiceCompletes(t *testing.T) {
	invoiceText := "Invoice #42. Total amount due: $1,200.00 payable within 30 days."
	path := writeTempFile(t, "invoice.txt", invoiceText)

	docs := &fakeDocumentStore{}
	vars := &fakeVariableStore{}
	types := &fakeTypeRegistry{}
	agents := &fakeAnalyzer{
		classification: "invoice",
		summary:        "An invoice for $1,200 due in 30 days.",
		entitiesRaw:    `{"parties": ["Acme Corp"], "dates": ["2026-08-31"]}`,
		analysis: &agent.DocumentAnalysis{
			Title:        "Invoice 42",
			DocumentType: "invoice",
			Fields: []agent.Field{
				{Name: "total_amount", Label: "Total Amount", Value: "$1,200.00", Editable: true},
			},
		},
	}

	p := newProcessor(docs, vars, types, agents, &fakeExtractor{text: invoiceText})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-1", OrgID: "org-1", FilePath: path, Extension: ".txt"})

	wantStatuses := []string{model.StatusProcessing, model.StatusCompleted}
	if len(docs.statuses) != len(wantStatuses) {
		t.Fatalf("statuses = %v, want %v", docs.statuses, wantStatuses)
	}
	for i, s := range wantStatuses {
		if docs.statuses[i] != s {
			t.Fatalf("statuses = %v, want %v", docs.statuses, wantStatuses)
		}
	}

	if docs.completion == nil {
		t.Fatal("expected a completion update")
	}
	if docs.completion.DocumentType != "invoice" {
		t.Errorf("document type = %q, want invoice", docs.completion.DocumentType)
	}
	if docs.completion.FullText != invoiceText {
		t.Errorf("full text not persisted")
	}

	var insights map[string]any
	if err := json.Unmarshal([]byte(docs.completion.Insights), &insights); err != nil {
		t.Fatalf("insights are not valid JSON: %v", err)
	}
	analysis, ok := insights["analysis"].(map[string]any)
	if !ok {
		t.Fatal("insights missing analysis section")
	}
	tags, _ := analysis["insight_tags"].([]any)
	found := false
	for _, tag := range tags {
		if tag == "finance" {
			found = true
		}
	}
	if !found {
		t.Errorf("insight_tags = %v, want to contain finance", tags)
	}
	if analysis["confidence_level"] != "medium" {
		t.Errorf("confidence_level = %v, want medium", analysis["confidence_level"])
	}

	if len(vars.inserted) != 1 || vars.inserted[0].Name != "total_amount" {
		t.Errorf("variables = %+v, want one total_amount row", vars.inserted)
	}
}

func TestProcessNearEmptyTextFails(t *testing.T) {
	docs := &fakeDocumentStore{}
	vars := &fakeVariableStore{}
	agents := &fakeAnalyzer{classification: "invoice"}

	p := newProcessor(docs, vars, &fakeTypeRegistry{}, agents, &fakeExtractor{text: "   \n\t  "})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-2", OrgID: "org-1", FilePath: "missing.txt", Extension: ".txt"})

	want := []string{model.StatusProcessing, model.StatusFailed}
	if len(docs.statuses) != 2 || docs.statuses[0] != want[0] || docs.statuses[1] != want[1] {
		t.Fatalf("statuses = %v, want %v", docs.statuses, want)
	}
	if docs.completion != nil {
		t.Error("failed document must not receive insights")
	}
	if len(vars.inserted) != 0 {
		t.Error("failed document must not receive variables")
	}
}

func TestProcessBranchesDegradeIndependently(t *testing.T) {
	docs := &fakeDocumentStore{}
	agents := &fakeAnalyzer{
		classification: "report",
		summaryErr:     errors.New("oracle timeout"),
		entitiesRaw:    `{"topics": ["quarterly results"]}`,
	}

	text := "Quarterly report covering revenue and operating costs for Q2."
	p := newProcessor(docs, &fakeVariableStore{}, &fakeTypeRegistry{}, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-3", OrgID: "org-1", FilePath: "report.txt", Extension: ".txt"})

	if docs.completion == nil {
		t.Fatal("document should still complete when one branch fails")
	}
	var insights map[string]any
	if err := json.Unmarshal([]byte(docs.completion.Insights), &insights); err != nil {
		t.Fatalf("insights are not valid JSON: %v", err)
	}
	summary := insights["summary"].(map[string]any)
	if summary["text"] != "Failed to generate summary" {
		t.Errorf("summary text = %v, want degraded placeholder", summary["text"])
	}
	entities := insights["entities"].(map[string]any)
	if _, ok := entities["topics"]; !ok {
		t.Errorf("entities = %v, want topics preserved", entities)
	}
}

func TestProcessSentinelEntitiesBecomeEmpty(t *testing.T) {
	docs := &fakeDocumentStore{}
	agents := &fakeAnalyzer{
		classification: "letter",
		summary:        "A letter.",
		entitiesRaw:    "I could not find any entities in this document, sorry!",
	}

	text := "Dear recipient, this letter confirms our earlier conversation."
	p := newProcessor(docs, &fakeVariableStore{}, &fakeTypeRegistry{}, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-4", OrgID: "org-1", FilePath: "letter.txt", Extension: ".txt"})

	if docs.completion == nil {
		t.Fatal("expected completion")
	}
	var insights map[string]any
	if err := json.Unmarshal([]byte(docs.completion.Insights), &insights); err != nil {
		t.Fatalf("insights are not valid JSON: %v", err)
	}
	entities := insights["entities"].(map[string]any)
	if len(entities) != 0 {
		t.Errorf("entities = %v, want empty map for unparseable output", entities)
	}
	analysis := insights["analysis"].(map[string]any)
	if analysis["confidence_level"] != "low" {
		t.Errorf("confidence_level = %v, want low without entities", analysis["confidence_level"])
	}
}

func TestProcessVariableInsertFailureKeepsCompleted(t *testing.T) {
	docs := &fakeDocumentStore{}
	vars := &fakeVariableStore{err: errors.New("db write refused")}
	agents := &fakeAnalyzer{
		classification: "invoice",
		summary:        "Summary.",
		entitiesRaw:    `{}`,
		analysis: &agent.DocumentAnalysis{
			Title:  "Doc",
			Fields: []agent.Field{{Name: "total", Value: "10"}},
		},
	}

	text := "Invoice with an amount that is long enough to process."
	p := newProcessor(docs, vars, &fakeTypeRegistry{}, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-5", OrgID: "org-1", FilePath: "x.txt", Extension: ".txt"})

	last := docs.statuses[len(docs.statuses)-1]
	if last != model.StatusCompleted {
		t.Errorf("final status = %q, variable insert failure must not revert completion", last)
	}
}

func TestProcessClassificationFailureDegradesToUnknown(t *testing.T) {
	docs := &fakeDocumentStore{}
	agents := &fakeAnalyzer{
		classifyErr: errors.New("model unavailable"),
		summary:     "Summary.",
		entitiesRaw: `{}`,
	}

	text := "Some document content long enough to clear the extraction gate."
	p := newProcessor(docs, &fakeVariableStore{}, &fakeTypeRegistry{}, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-6", OrgID: "org-1", FilePath: "y.txt", Extension: ".txt"})

	if docs.completion == nil {
		t.Fatal("expected completion despite classification failure")
	}
	if docs.completion.DocumentType != "unknown" {
		t.Errorf("document type = %q, want unknown", docs.completion.DocumentType)
	}
}

func TestProcessRegistersConfidentDocumentType(t *testing.T) {
	docs := &fakeDocumentStore{}
	types := &fakeTypeRegistry{}
	agents := &fakeAnalyzer{
		classification: "invoice",
		summary:        "Summary.",
		entitiesRaw:    `{}`,
		typeAnalysis: &agent.TypeAnalysis{
			DocumentType: "Commercial Invoice",
			Confidence:   0.82,
			Category:     "Finance",
		},
	}

	text := "Commercial invoice issued by the supplier, long enough to process."
	p := newProcessor(docs, &fakeVariableStore{}, types, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-7", OrgID: "org-9", FilePath: "z.txt", Extension: ".txt"})

	if len(types.created) != 1 {
		t.Fatalf("created types = %d, want 1", len(types.created))
	}
	created := types.created[0]
	if created.Name != "Commercial Invoice" || created.OrgID != "org-9" {
		t.Errorf("created type = %+v", created)
	}
}

func TestProcessSkipsLowConfidenceType(t *testing.T) {
	types := &fakeTypeRegistry{}
	agents := &fakeAnalyzer{
		classification: "invoice",
		summary:        "Summary.",
		entitiesRaw:    `{}`,
		typeAnalysis:   &agent.TypeAnalysis{DocumentType: "Maybe Invoice", Confidence: 0.1},
	}

	text := "Low confidence content that is still long enough to process."
	p := newProcessor(&fakeDocumentStore{}, &fakeVariableStore{}, types, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-8", OrgID: "org-1", FilePath: "w.txt", Extension: ".txt"})

	if len(types.created) != 0 {
		t.Errorf("created types = %v, want none below the confidence gate", types.created)
	}
}

func TestProcessPanicAfterCompletionKeepsCompleted(t *testing.T) {
	docs := &fakeDocumentStore{}
	agents := &fakeAnalyzer{
		classification: "invoice",
		summary:        "Summary.",
		entitiesRaw:    `{}`,
		typePanic:      "registry exploded",
	}

	text := "Invoice content long enough to complete before type analysis runs."
	p := newProcessor(docs, &fakeVariableStore{}, &fakeTypeRegistry{}, agents, &fakeExtractor{text: text})
	p.Process(context.Background(), IngestJob{DocumentID: "doc-9", OrgID: "org-1", FilePath: "v.txt", Extension: ".txt"})

	last := docs.statuses[len(docs.statuses)-1]
	if last != model.StatusCompleted {
		t.Errorf("final status = %q, a panic after completion must not revert it", last)
	}
	for _, s := range docs.statuses {
		if s == model.StatusFailed {
			t.Errorf("statuses = %v, completed document must never be marked failed", docs.statuses)
		}
	}
}

func TestInsightTags(t *testing.T) {
	tags := InsightTags(
		"This Agreement sets out the terms between the parties. Invoice amount: $5.",
		map[string]any{"Counterparty": "Acme", "a_very_long_entity_key_over_limit": "x"},
	)
	want := map[string]bool{"finance": true, "legal": true, "counterparty": true}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want keys %v", tags, want)
	}
	for _, tag := range tags {
		if !want[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
	}
}
