// Package pipeline runs the background processing of one uploaded document:
// text extraction with OCR fallback, classification, concurrent AI analysis,
// tolerant decoding, and idempotent persistence of the results. The pipeline
// is the sole writer of a document's state for the lifetime of its job.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"docforge/internal/agent"
	"docforge/internal/model"
	"docforge/internal/pkg/jsonx"
	"docforge/internal/pkg/textextract"
	"docforge/internal/repository"
)

// IngestJob is the queue payload describing one document to process.
type IngestJob struct {
	DocumentID string `json:"document_id"`
	OrgID      string `json:"org_id"`
	FilePath   string `json:"file_path"`
	Extension  string `json:"extension"`
}

// DocumentStore is the slice of the record store the pipeline writes to.
type DocumentStore interface {
	UpdateStatus(id, status string) error
	MarkCompleted(id string, update repository.CompletionUpdate) error
}

// VariableStore persists extracted fields; bulk insert does not dedupe.
type VariableStore interface {
	CreateBatch(variables []model.DocumentVariable) error
}

// TypeRegistry materializes confidently detected document types.
type TypeRegistry interface {
	GetByNameAndOrgID(name, orgID string) (*model.DocumentType, error)
	Create(docType *model.DocumentType) error
}

// Analyzer is the subset of the agent set the pipeline drives.
type Analyzer interface {
	Classify(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	ExtractEntities(ctx context.Context, text string) (string, error)
	AnalyzeDocument(ctx context.Context, text string) (*agent.DocumentAnalysis, error)
	AnalyzeType(ctx context.Context, content string) (*agent.TypeAnalysis, error)
}

// Extractor converts a stored file into plain text, degrading to "".
type Extractor interface {
	Extract(path, ext string) string
}

// InsightsInvalidator drops any cached insights once a document reaches a
// terminal state. Optional.
type InsightsInvalidator interface {
	Invalidate(ctx context.Context, documentID string) error
}

type Processor struct {
	documents DocumentStore
	variables VariableStore
	types     TypeRegistry
	agents    Analyzer
	extractor Extractor
	cache     InsightsInvalidator
}

func NewProcessor(
	documents DocumentStore,
	variables VariableStore,
	types TypeRegistry,
	agents Analyzer,
	extractor Extractor,
	cache InsightsInvalidator,
) *Processor {
	return &Processor{
		documents: documents,
		variables: variables,
		types:     types,
		agents:    agents,
		extractor: extractor,
		cache:     cache,
	}
}

// Process drives one document through the status state machine
// uploaded -> processing -> {completed | failed}. Both end states are
// terminal; failure detail goes to the log, never to the stored record.
func (p *Processor) Process(ctx context.Context, job IngestJob) {
	// completed guards the recovery path: once MarkCompleted has succeeded,
	// a panic in the best-effort follow-up steps must not revert the
	// terminal state.
	completed := false
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] panic during processing: %v", job.DocumentID, r)
			if !completed {
				p.fail(ctx, job.DocumentID)
			}
		}
	}()

	if err := p.documents.UpdateStatus(job.DocumentID, model.StatusProcessing); err != nil {
		log.Printf("[%s] mark processing failed: %v", job.DocumentID, err)
		return
	}
	log.Printf("[%s] processing started", job.DocumentID)

	text := p.extractor.Extract(job.FilePath, job.Extension)
	if textextract.TooShort(text) {
		log.Printf("[%s] text extraction failed or empty", job.DocumentID)
		p.fail(ctx, job.DocumentID)
		return
	}

	// Classification failure is non-fatal; the document degrades to an
	// unknown type and processing continues.
	docType, err := p.agents.Classify(ctx, text)
	if err != nil {
		log.Printf("[%s] classification failed: %v", job.DocumentID, err)
		docType = "unknown"
	}

	summary, entities := p.analyzeConcurrently(ctx, job.DocumentID, text)

	analysis := p.analyzeFields(ctx, job.DocumentID, text)

	insights := buildInsights(job, docType, summary, entities, text)
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		log.Printf("[%s] marshal insights failed: %v", job.DocumentID, err)
		p.fail(ctx, job.DocumentID)
		return
	}

	update := repository.CompletionUpdate{
		FullText:     text,
		DocumentType: docType,
		Insights:     string(insightsJSON),
	}
	if analysis != nil {
		meta, _ := json.Marshal(map[string]string{"title": analysis.Title})
		update.Metadata = string(meta)
	}
	if err := p.documents.MarkCompleted(job.DocumentID, update); err != nil {
		log.Printf("[%s] final update failed: %v", job.DocumentID, err)
		p.fail(ctx, job.DocumentID)
		return
	}
	completed = true
	p.invalidate(ctx, job.DocumentID)
	log.Printf("[%s] processing completed", job.DocumentID)

	// Variable persistence is best-effort and decoupled from the terminal
	// state: a failed insert never reverts a completed document.
	if analysis != nil {
		p.persistVariables(job.DocumentID, analysis.Fields)
	}
	p.registerDocumentType(ctx, job, text)
}

// analyzeConcurrently dispatches the summarizer and entity extractor in
// parallel and waits for both. Either branch degrades independently.
func (p *Processor) analyzeConcurrently(ctx context.Context, documentID, text string) (string, map[string]any) {
	type summaryResult struct {
		text string
		err  error
	}
	type entitiesResult struct {
		raw string
		err error
	}

	summaryCh := make(chan summaryResult, 1)
	entitiesCh := make(chan entitiesResult, 1)
	go func() {
		s, err := p.agents.Summarize(ctx, text)
		summaryCh <- summaryResult{text: s, err: err}
	}()
	go func() {
		raw, err := p.agents.ExtractEntities(ctx, text)
		entitiesCh <- entitiesResult{raw: raw, err: err}
	}()

	sres := <-summaryCh
	eres := <-entitiesCh

	summary := sres.text
	if sres.err != nil {
		log.Printf("[%s] summary generation failed: %v", documentID, sres.err)
		summary = "Failed to generate summary"
	}

	entities := map[string]any{}
	if eres.err != nil {
		log.Printf("[%s] entity extraction failed: %v", documentID, eres.err)
	} else if decoded, ok := jsonx.DecodeObject(eres.raw); ok {
		entities = decoded
	} else {
		log.Printf("[%s] entity output was not valid JSON", documentID)
	}
	return summary, entities
}

func (p *Processor) analyzeFields(ctx context.Context, documentID, text string) *agent.DocumentAnalysis {
	analysis, err := p.agents.AnalyzeDocument(ctx, text)
	if err != nil {
		log.Printf("[%s] field analysis failed: %v", documentID, err)
		return nil
	}
	return analysis
}

func (p *Processor) persistVariables(documentID string, fields []agent.Field) {
	if len(fields) == 0 {
		log.Printf("[%s] no variables found to save", documentID)
		return
	}
	variables := make([]model.DocumentVariable, 0, len(fields))
	for _, f := range fields {
		variables = append(variables, model.DocumentVariable{
			DocumentID: documentID,
			Name:       f.Name,
			Value:      f.Value,
			Confidence: f.Confidence,
			Editable:   f.Editable,
		})
	}
	if err := p.variables.CreateBatch(variables); err != nil {
		log.Printf("[%s] save variables failed: %v", documentID, err)
		return
	}
	log.Printf("[%s] saved %d variables", documentID, len(variables))
}

// registerDocumentType materializes an auto-detected type, gated on the
// analyzer's confidence so low-confidence guesses never pollute the registry.
func (p *Processor) registerDocumentType(ctx context.Context, job IngestJob, text string) {
	analysis, err := p.agents.AnalyzeType(ctx, text)
	if err != nil {
		log.Printf("[%s] type analysis failed: %v", job.DocumentID, err)
		return
	}
	if !analysis.Registrable() {
		return
	}

	existing, err := p.types.GetByNameAndOrgID(analysis.DocumentType, job.OrgID)
	if err != nil {
		log.Printf("[%s] type lookup failed: %v", job.DocumentID, err)
		return
	}
	if existing != nil {
		return
	}

	fieldsJSON, _ := json.Marshal(analysis.Fields)
	metaJSON, _ := json.Marshal(map[string]any{
		"confidence":      analysis.Confidence,
		"key_identifiers": analysis.KeyIdentifiers,
		"auto_detected":   true,
	})
	docType := &model.DocumentType{
		OrgID:       job.OrgID,
		Name:        analysis.DocumentType,
		Category:    analysis.Category,
		Description: fmt.Sprintf("Auto-detected document type (confidence %.2f)", analysis.Confidence),
		Fields:      string(fieldsJSON),
		Metadata:    string(metaJSON),
	}
	if err := p.types.Create(docType); err != nil {
		log.Printf("[%s] save document type failed: %v", job.DocumentID, err)
	}
}

func (p *Processor) fail(ctx context.Context, documentID string) {
	if err := p.documents.UpdateStatus(documentID, model.StatusFailed); err != nil {
		log.Printf("[%s] mark failed failed: %v", documentID, err)
	}
	p.invalidate(ctx, documentID)
}

func (p *Processor) invalidate(ctx context.Context, documentID string) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, documentID); err != nil {
		log.Printf("[%s] cache invalidation failed: %v", documentID, err)
	}
}

func buildInsights(job IngestJob, docType, summary string, entities map[string]any, text string) map[string]any {
	confidence := "low"
	if len(entities) > 0 {
		confidence = "medium"
	}
	return map[string]any{
		"document_metadata": map[string]any{
			"id":            job.DocumentID,
			"file_name":     filepath.Base(job.FilePath),
			"file_type":     job.Extension,
			"document_type": docType,
			"page_count":    nil,
		},
		"summary": map[string]any{
			"text":   summaryOrPlaceholder(summary),
			"length": len(summary),
		},
		"entities": entities,
		"analysis": map[string]any{
			"confidence_level": confidence,
			"insight_tags":     InsightTags(text, entities),
		},
	}
}

func summaryOrPlaceholder(summary string) string {
	if summary == "" {
		return "No summary available."
	}
	return summary
}

// InsightTags keyword-sniffs the raw text for domain hints and unions the
// result with short entity keys. A heuristic label set, not authoritative
// classification.
func InsightTags(text string, entities map[string]any) []string {
	tags := make(map[string]bool)

	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "invoice") || strings.Contains(lowered, "amount") {
		tags["finance"] = true
	}
	if strings.Contains(lowered, "agreement") || strings.Contains(lowered, "terms") {
		tags["legal"] = true
	}
	if strings.Contains(lowered, "resume") || strings.Contains(lowered, "curriculum vitae") {
		tags["hr"] = true
	}
	if strings.Contains(lowered, "report") {
		tags["report"] = true
	}

	for key := range entities {
		if len(key) < 25 {
			tags[strings.ToLower(key)] = true
		}
	}

	out := make([]string, 0, len(tags))
	for tag := range tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
