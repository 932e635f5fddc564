// Package agent pairs fixed instruction prompts with the completion oracle.
// The agents form a small closed set; each is a typed method on Agents built
// on one shared call helper, so tests can swap the oracle for a fake.
package agent

import (
	"context"
	"strings"

	"docforge/internal/ai"
)

// Completer is the completion oracle contract. *ai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, opts ai.CallOptions) (string, error)
}

type Agents struct {
	oracle Completer
	cfg    ai.ChatConfig
}

func New(oracle Completer, cfg ai.ChatConfig) *Agents {
	return &Agents{oracle: oracle, cfg: cfg}
}

// call runs one completion and wraps failures with the calling agent's name.
func (a *Agents) call(ctx context.Context, agentName string, messages []ai.ChatMessage, opts ai.CallOptions) (string, error) {
	out, err := a.oracle.Complete(ctx, a.cfg, messages, opts)
	if err != nil {
		return "", &ai.OracleError{Agent: agentName, Err: err}
	}
	return out, nil
}

// Classify returns a single lower-cased domain label for the document.
func (a *Agents) Classify(ctx context.Context, text string) (string, error) {
	out, err := a.call(ctx, "DocumentClassifier", []ai.ChatMessage{
		{Role: "system", Content: classifierPrompt},
		{Role: "user", Content: text},
	}, ai.CallOptions{})
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

// Summarize returns a concise neutral summary of the document text.
func (a *Agents) Summarize(ctx context.Context, text string) (string, error) {
	out, err := a.call(ctx, "Summarizer", []ai.ChatMessage{
		{Role: "system", Content: summarizerPrompt},
		{Role: "user", Content: text},
	}, ai.CallOptions{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ExtractEntities returns the raw JSON-mode output of the entity extractor.
// Callers decode it with the tolerant decoder; JSON mode is best-effort.
func (a *Agents) ExtractEntities(ctx context.Context, text string) (string, error) {
	return a.call(ctx, "EntityExtractor", []ai.ChatMessage{
		{Role: "system", Content: entityExtractorPrompt},
		{Role: "user", Content: text},
	}, ai.CallOptions{ResponseFormat: ai.FormatJSON})
}

// Answer responds to a question using only the supplied document text.
func (a *Agents) Answer(ctx context.Context, docText, question string) (string, error) {
	out, err := a.call(ctx, "QuestionAnswering", []ai.ChatMessage{
		{Role: "system", Content: qaPrompt},
		{Role: "user", Content: "Context:\n" + docText + "\n\nQuestion: " + question},
	}, ai.CallOptions{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
