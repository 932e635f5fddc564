package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docforge/internal/ai"
	"docforge/internal/pkg/jsonx"
)

// VariableSpec is one template parameter definition as produced by the
// templatizing agents.
type VariableSpec struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Example     string `json:"example"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
}

// VariableRef is the value-free view of a template variable handed to the
// prefiller; values are deliberately excluded from the prompt.
type VariableRef struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Templatize turns raw document text into markdown with a YAML front-matter
// block and {{key}} placeholders. The output is returned verbatim for the
// template service to parse.
func (a *Agents) Templatize(ctx context.Context, text string) (string, error) {
	out, err := a.call(ctx, "Templatizer", []ai.ChatMessage{
		{Role: "system", Content: templatizerPrompt},
		{Role: "user", Content: "Document Text to Templatize:\n" + text + "\n\nPlease analyze this document and generate a complete Markdown template with YAML front-matter following the format specified in your instructions."},
	}, ai.CallOptions{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// aggressiveExtractionWindow bounds the source text sent to the fallback
// variable extractor.
const aggressiveExtractionWindow = 3000

// ExtractVariables is the single-purpose safety net used when the templatizer
// omits the variables section. It runs a narrower prompt against the head of
// the source text and demands pure JSON.
func (a *Agents) ExtractVariables(ctx context.Context, text string) ([]VariableSpec, error) {
	head := []rune(text)
	if len(head) > aggressiveExtractionWindow {
		head = head[:aggressiveExtractionWindow]
	}

	out, err := a.call(ctx, "VariableExtractor", []ai.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(variableExtractorPrompt, string(head))},
	}, ai.CallOptions{Temperature: 0.1, ResponseFormat: ai.FormatJSON})
	if err != nil {
		return nil, err
	}

	parsed, ok := jsonx.DecodeObject(out)
	if !ok {
		return nil, fmt.Errorf("variable extractor returned unparseable output")
	}
	items, ok := parsed["variables"].([]any)
	if !ok {
		return nil, fmt.Errorf("variable extractor output missing variables list")
	}

	specs := make([]VariableSpec, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		spec := VariableSpec{
			Key:         stringField(m, "key", ""),
			Label:       stringField(m, "label", ""),
			Description: stringField(m, "description", ""),
			Example:     stringField(m, "example", ""),
			Required:    boolField(m, "required", true),
			Type:        stringField(m, "type", "string"),
		}
		if spec.Key == "" {
			continue
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Prefill detects variable values present in the user's query. Keys the model
// could not find are absent from the result, never null or empty.
func (a *Agents) Prefill(ctx context.Context, query string, vars []VariableRef) (map[string]string, error) {
	varsJSON, err := json.MarshalIndent(vars, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal variable schema failed: %w", err)
	}

	out, err := a.call(ctx, "Prefiller", []ai.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(prefillerPrompt, query, string(varsJSON))},
	}, ai.CallOptions{Temperature: 0.1, ResponseFormat: ai.FormatJSON})
	if err != nil {
		return nil, err
	}

	parsed, ok := jsonx.DecodeObject(out)
	if !ok {
		return nil, fmt.Errorf("prefiller returned unparseable output")
	}

	detected := make(map[string]string, len(parsed))
	for key, value := range parsed {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		detected[key] = s
	}
	return detected, nil
}

// GenerateQuestion turns a variable's label and description into one
// natural-language question, with wrapping quotes stripped.
func (a *Agents) GenerateQuestion(ctx context.Context, label, description string) (string, error) {
	out, err := a.call(ctx, "QuestionGenerator", []ai.ChatMessage{
		{Role: "user", Content: fmt.Sprintf(questionGeneratorPrompt, label, description)},
	}, ai.CallOptions{Temperature: 0.2})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"'`), nil
}
