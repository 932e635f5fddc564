package template

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"unicode"

	"docforge/internal/agent"
	"docforge/internal/model"
	"docforge/internal/search"
)

var (
	// ErrNotFound means the requested template does not exist for the org.
	ErrNotFound = errors.New("template not found")
	// ErrNoExemplar means bootstrap search produced no usable candidate text.
	ErrNoExemplar = errors.New("no usable exemplar document found")
)

// minExemplarLength gates bootstrap candidates: shorter search results are
// boilerplate or link stubs, not real documents.
const minExemplarLength = 100

// Store is the persistence slice the service needs.
type Store interface {
	Create(template *model.Template) error
	GetByIDAndOrgID(id, orgID string) (*model.Template, error)
	ListByOrgID(orgID string) ([]model.Template, error)
}

// Oracle is the set of agent calls the template flows drive.
type Oracle interface {
	Templatize(ctx context.Context, text string) (string, error)
	ExtractVariables(ctx context.Context, text string) ([]agent.VariableSpec, error)
	Prefill(ctx context.Context, query string, vars []agent.VariableRef) (map[string]string, error)
	GenerateQuestion(ctx context.Context, label, description string) (string, error)
}

type Service struct {
	store    Store
	oracle   Oracle
	searcher search.Searcher
}

func NewService(store Store, oracle Oracle, searcher search.Searcher) *Service {
	return &Service{store: store, oracle: oracle, searcher: searcher}
}

// SaveFromMarkdown parses user-authored template markdown and persists it.
func (s *Service) SaveFromMarkdown(orgID, markdown string) (*model.Template, error) {
	doc, err := Parse(markdown)
	if err != nil {
		return nil, err
	}
	return s.save(orgID, "", doc)
}

// Templatize converts arbitrary source text into template markdown.
func (s *Service) Templatize(ctx context.Context, text string) (string, error) {
	markdown, err := s.oracle.Templatize(ctx, text)
	if err != nil {
		return "", fmt.Errorf("templatize failed: %w", err)
	}
	return markdown, nil
}

// Get returns one org-scoped template.
func (s *Service) Get(id, orgID string) (*model.Template, error) {
	t, err := s.store.GetByIDAndOrgID(id, orgID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// List returns all templates for the org.
func (s *Service) List(orgID string) ([]model.Template, error) {
	return s.store.ListByOrgID(orgID)
}

// Find scores the org's stored templates against the query and returns the
// best local match. With no local match it bootstraps a new template from a
// web exemplar.
func (s *Service) Find(ctx context.Context, orgID, query string) (*model.Template, error) {
	existing, err := s.store.ListByOrgID(orgID)
	if err != nil {
		return nil, err
	}
	if best := bestMatch(existing, query); best != nil {
		return best, nil
	}
	return s.Bootstrap(ctx, orgID, query)
}

// Bootstrap fetches exemplar documents from the search oracle, templatizes
// the first usable one, and persists the result. The returned template always
// has display fields and at least a best-effort variable list.
func (s *Service) Bootstrap(ctx context.Context, orgID, query string) (*model.Template, error) {
	enhanced := query + " legal document template sample format"
	results, err := s.searcher.Search(ctx, enhanced, 3)
	if err != nil {
		return nil, fmt.Errorf("exemplar search failed: %w", err)
	}

	exemplar := pickExemplar(results)
	if exemplar == nil {
		return nil, ErrNoExemplar
	}
	log.Printf("bootstrap: templatizing exemplar %q", exemplar.URL)

	markdown, err := s.oracle.Templatize(ctx, exemplar.Text)
	if err != nil {
		return nil, fmt.Errorf("templatize exemplar failed: %w", err)
	}
	doc, err := Parse(markdown)
	if err != nil {
		return nil, err
	}

	// The templatizing prompt sometimes omits the variables section even
	// when instructed, so a narrower single-purpose extraction is the net.
	if len(doc.Variables) == 0 {
		specs, err := s.oracle.ExtractVariables(ctx, exemplar.Text)
		if err != nil {
			log.Printf("bootstrap: fallback variable extraction failed: %v", err)
		}
		for _, spec := range specs {
			doc.Variables = append(doc.Variables, VariableDef{
				Key:         spec.Key,
				Label:       spec.Label,
				Description: spec.Description,
				Example:     spec.Example,
				Required:    spec.Required,
				Type:        spec.Type,
			})
		}
	}

	applyDefaults(doc, query)
	return s.save(orgID, "", doc)
}

// pickExemplar applies the candidate rule: the first result with enough text,
// falling back to the second, otherwise nothing.
func pickExemplar(results []search.Result) *search.Result {
	for i := range results {
		if i > 1 {
			break
		}
		if len(strings.TrimSpace(results[i].Text)) >= minExemplarLength {
			return &results[i]
		}
	}
	return nil
}

func (s *Service) save(orgID, originalDocumentID string, doc *Doc) (*model.Template, error) {
	title := doc.Title
	if title == "" {
		title = "Untitled Template"
	}
	t := &model.Template{
		OrgID:              orgID,
		Title:              title,
		FileDescription:    doc.FileDescription,
		Jurisdiction:       doc.Jurisdiction,
		DocType:            doc.DocType,
		BodyMd:             doc.Body,
		OriginalDocumentID: originalDocumentID,
	}
	t.SetTags(doc.SimilarityTags)
	for _, v := range doc.Variables {
		varType := v.Type
		if varType == "" {
			varType = "string"
		}
		t.Variables = append(t.Variables, model.TemplateVariable{
			Key:         v.Key,
			Label:       v.Label,
			Description: v.Description,
			Example:     v.Example,
			Required:    v.Required,
			Type:        varType,
		})
	}
	if err := s.store.Create(t); err != nil {
		return nil, fmt.Errorf("save template failed: %w", err)
	}
	return t, nil
}

// Fill substitutes supplied values into the template body. Placeholders with
// no supplied value stay verbatim so the caller can see what is missing.
func (s *Service) Fill(id, orgID string, values map[string]string) (string, error) {
	t, err := s.Get(id, orgID)
	if err != nil {
		return "", err
	}
	body := t.BodyMd
	for key, value := range values {
		body = strings.ReplaceAll(body, "{{"+key+"}}", value)
		body = strings.ReplaceAll(body, "{{ "+key+" }}", value)
	}
	return body, nil
}

// Prefill guesses variable values for a template from a free-text query.
// Keys the model could not detect are absent from the result, not empty.
func (s *Service) Prefill(ctx context.Context, id, orgID, query string) (map[string]string, error) {
	t, err := s.Get(id, orgID)
	if err != nil {
		return nil, err
	}
	refs := make([]agent.VariableRef, 0, len(t.Variables))
	for _, v := range t.Variables {
		refs = append(refs, agent.VariableRef{Key: v.Key, Label: v.Label, Description: v.Description})
	}
	return s.oracle.Prefill(ctx, query, refs)
}

// Question is one follow-up prompt for an unfilled required variable.
type Question struct {
	Key      string `json:"key"`
	Question string `json:"question"`
	Example  string `json:"example,omitempty"`
}

// GenerateQuestions produces one question per required variable missing from
// the filled set. Generation fans out concurrently; the returned slice
// follows the template's variable declaration order regardless of which
// oracle call finishes first.
func (s *Service) GenerateQuestions(ctx context.Context, id, orgID string, filled map[string]string) ([]Question, error) {
	t, err := s.Get(id, orgID)
	if err != nil {
		return nil, err
	}

	var missing []model.TemplateVariable
	for _, v := range t.Variables {
		if !v.Required {
			continue
		}
		if _, ok := filled[v.Key]; ok {
			continue
		}
		missing = append(missing, v)
	}
	if len(missing) == 0 {
		return []Question{}, nil
	}

	questions := make([]Question, len(missing))
	var wg sync.WaitGroup
	for i, v := range missing {
		wg.Add(1)
		go func(i int, v model.TemplateVariable) {
			defer wg.Done()
			q, err := s.oracle.GenerateQuestion(ctx, v.Label, v.Description)
			if err != nil {
				log.Printf("question generation for %q failed: %v", v.Key, err)
				q = fmt.Sprintf("What is the %s?", strings.ToLower(v.Label))
			}
			questions[i] = Question{Key: v.Key, Question: q, Example: v.Example}
		}(i, v)
	}
	wg.Wait()
	return questions, nil
}

// bestMatch scores stored templates by query-keyword overlap with their
// display fields and returns the highest scorer, nil when nothing overlaps.
func bestMatch(templates []model.Template, query string) *model.Template {
	keywords := queryKeywords(query)
	if len(keywords) == 0 {
		return nil
	}

	bestScore := 0
	var best *model.Template
	for i := range templates {
		t := &templates[i]
		haystack := strings.ToLower(strings.Join(append([]string{
			t.Title, t.FileDescription, t.DocType,
		}, t.Tags()...), " "))
		score := 0
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	return best
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "for": true, "of": true, "to": true,
	"in": true, "and": true, "or": true, "with": true, "i": true, "need": true,
	"want": true, "template": true, "sample": true, "document": true,
}

func queryKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopWords[f] {
			continue
		}
		keywords = append(keywords, f)
	}
	return keywords
}

// applyDefaults guarantees bootstrap output always carries display fields,
// inferring them from the user's query when the prompt omitted them.
func applyDefaults(doc *Doc, query string) {
	if doc.Title == "" {
		doc.Title = titleFromQuery(query)
	}
	if doc.FileDescription == "" {
		doc.FileDescription = fmt.Sprintf("Template generated from a web exemplar for: %s", query)
	}
	if doc.DocType == "" {
		doc.DocType = inferDocType(query)
	}
	if len(doc.SimilarityTags) == 0 {
		doc.SimilarityTags = generateTags(query)
	}
}

func titleFromQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	title := strings.TrimSpace(strings.Join(words, " "))
	if title == "" {
		return "Untitled Template"
	}
	return title + " Template"
}

func inferDocType(query string) string {
	lowered := strings.ToLower(query)
	switch {
	case strings.Contains(lowered, "nda") || strings.Contains(lowered, "non-disclosure"):
		return "nda"
	case strings.Contains(lowered, "lease") || strings.Contains(lowered, "rental"):
		return "lease"
	case strings.Contains(lowered, "invoice"):
		return "invoice"
	case strings.Contains(lowered, "employment") || strings.Contains(lowered, "offer letter"):
		return "employment"
	case strings.Contains(lowered, "contract") || strings.Contains(lowered, "agreement"):
		return "contract"
	default:
		return "document"
	}
}

func generateTags(query string) []string {
	keywords := queryKeywords(query)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return keywords
}
