package agent

import (
	"context"
	"fmt"
	"log"

	"docforge/internal/ai"
	"docforge/internal/pkg/jsonx"
)

// TypeField is one field definition produced by the type analyzer.
type TypeField struct {
	Name        string  `json:"name"`
	Value       *string `json:"value"`
	Required    bool    `json:"required"`
	Description string  `json:"description"`
}

// TypeAnalysis is the result of the two-stage document type analysis.
type TypeAnalysis struct {
	DocumentType   string      `json:"document_type"`
	Confidence     float64     `json:"confidence"`
	Category       string      `json:"category"`
	KeyIdentifiers []string    `json:"key_identifiers"`
	Fields         []TypeField `json:"fields"`
}

// MinRegistryConfidence gates materialization of auto-detected types; lower
// confidence classifications must not pollute the type registry.
const MinRegistryConfidence = 0.3

// Registrable reports whether this analysis is trustworthy enough to create
// a DocumentType record.
func (t *TypeAnalysis) Registrable() bool {
	return t.Confidence >= MinRegistryConfidence &&
		t.DocumentType != "Unknown" &&
		t.DocumentType != "Generic Document"
}

func defaultTypeAnalysis() *TypeAnalysis {
	return &TypeAnalysis{
		DocumentType:   "Generic Document",
		Confidence:     0.0,
		Category:       "Unknown",
		KeyIdentifiers: []string{},
		Fields:         []TypeField{},
	}
}

// AnalyzeType classifies the document type, then extracts field definitions
// for that type. Either stage degrades to defaults on decode failure rather
// than failing the caller.
func (a *Agents) AnalyzeType(ctx context.Context, content string) (*TypeAnalysis, error) {
	analysis := defaultTypeAnalysis()

	head := []rune(content)
	if len(head) > 2000 {
		head = head[:2000]
	}

	typeOut, err := a.call(ctx, "DocumentTypeAnalyzer", []ai.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(typeClassifierPrompt, string(head))},
	}, ai.CallOptions{Temperature: 0.1, ResponseFormat: ai.FormatJSON})
	if err != nil {
		return nil, err
	}
	if typeData, ok := jsonx.DecodeObject(typeOut); ok {
		analysis.DocumentType = stringField(typeData, "document_type", "Unknown")
		analysis.Category = stringField(typeData, "category", "Unknown")
		if c, ok := typeData["confidence"].(float64); ok {
			analysis.Confidence = c
		}
		analysis.KeyIdentifiers = stringList(typeData["key_identifiers"])
	} else {
		log.Printf("type classification returned unparseable output, keeping defaults")
	}

	fieldsOut, err := a.call(ctx, "DocumentTypeAnalyzer", []ai.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(typeFieldsPrompt, analysis.DocumentType)},
	}, ai.CallOptions{Temperature: 0.1, ResponseFormat: ai.FormatJSON})
	if err != nil {
		return nil, err
	}
	if fieldsData, ok := jsonx.DecodeObject(fieldsOut); ok {
		analysis.Fields = decodeTypeFields(fieldsData["fields"])
	} else {
		log.Printf("type field extraction returned unparseable output, keeping defaults")
	}

	return analysis, nil
}

func decodeTypeFields(raw any) []TypeField {
	items, ok := raw.([]any)
	if !ok {
		return []TypeField{}
	}
	fields := make([]TypeField, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := TypeField{
			Name:        stringField(m, "name", ""),
			Required:    boolField(m, "required", false),
			Description: stringField(m, "description", ""),
		}
		if f.Name == "" {
			continue
		}
		if v, ok := m["value"].(string); ok {
			f.Value = &v
		}
		fields = append(fields, f)
	}
	return fields
}

func stringList(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
