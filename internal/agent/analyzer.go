package agent

import (
	"context"
	"fmt"
	"strings"

	"docforge/internal/ai"
	"docforge/internal/pkg/jsonx"
)

// Field is one structured field extracted by the document analyzer.
type Field struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Value      string   `json:"value"`
	Type       string   `json:"type"`
	Confidence *float64 `json:"confidence,omitempty"`
	Editable   bool     `json:"editable"`
}

// DocumentAnalysis is the analyzer's structured view of one document.
type DocumentAnalysis struct {
	Title        string  `json:"title"`
	DocumentType string  `json:"document_type"`
	Fields       []Field `json:"fields"`
}

// minAnalyzerFields is the contractual lower bound on extracted fields; when
// the model finds fewer, generic fields are synthesized from the raw text.
const minAnalyzerFields = 5

// AnalyzeDocument extracts a title, document type and at least five
// structured fields from the document text.
func (a *Agents) AnalyzeDocument(ctx context.Context, text string) (*DocumentAnalysis, error) {
	out, err := a.call(ctx, "DocumentAnalyzer", []ai.ChatMessage{
		{Role: "system", Content: documentAnalyzerPrompt},
		{Role: "user", Content: "Analyze the following document text and extract all key structured information.\n\nDocument Text:\n" + text},
	}, ai.CallOptions{ResponseFormat: ai.FormatJSON})
	if err != nil {
		return nil, err
	}

	parsed, ok := jsonx.DecodeObject(out)
	if !ok {
		return nil, fmt.Errorf("document analyzer returned unparseable output")
	}

	analysis := &DocumentAnalysis{
		Title:        stringField(parsed, "title", "Untitled Document"),
		DocumentType: stringField(parsed, "document_type", "unknown"),
		Fields:       decodeFields(parsed["fields"]),
	}
	analysis.Fields = ensureMinimumFields(analysis.Fields, text)
	return analysis, nil
}

func decodeFields(raw any) []Field {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	fields := make([]Field, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := Field{
			Name:     stringField(m, "name", ""),
			Label:    stringField(m, "label", ""),
			Value:    stringField(m, "value", ""),
			Type:     stringField(m, "type", "string"),
			Editable: boolField(m, "editable", true),
		}
		if f.Name == "" {
			continue
		}
		if c, ok := m["confidence"].(float64); ok {
			f.Confidence = &c
		}
		fields = append(fields, f)
	}
	return fields
}

// ensureMinimumFields pads the field list with generic fields synthesized
// from the raw text so unstructured input still yields a usable record.
func ensureMinimumFields(fields []Field, text string) []Field {
	if len(fields) >= minAnalyzerFields {
		return fields
	}
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Name] = true
	}
	for _, g := range genericFields(text) {
		if len(fields) >= minAnalyzerFields {
			break
		}
		if seen[g.Name] {
			continue
		}
		fields = append(fields, g)
		seen[g.Name] = true
	}
	return fields
}

func genericFields(text string) []Field {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > 200 {
		runes = runes[:200]
	}
	excerpt := string(runes)
	low := 0.2
	return []Field{
		{Name: "summary", Label: "Summary", Type: "string", Editable: true, Confidence: &low},
		{Name: "primary_entity", Label: "Primary Entity", Type: "string", Editable: true, Confidence: &low},
		{Name: "important_dates", Label: "Important Dates", Type: "date", Editable: true, Confidence: &low},
		{Name: "reference_numbers", Label: "Reference Numbers", Type: "string", Editable: true, Confidence: &low},
		{Name: "detected_keywords", Label: "Detected Keywords", Type: "string", Editable: true, Confidence: &low},
		{Name: "raw_excerpt", Label: "Raw Excerpt", Type: "string", Value: excerpt, Editable: true, Confidence: &low},
	}
}

func stringField(m map[string]any, key, fallback string) string {
	switch v := m[key].(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%v", v)
	default:
		return fallback
	}
}

func boolField(m map[string]any, key string, fallback bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return fallback
}
