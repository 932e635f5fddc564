package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Response formats for Complete. JSON requests a provider-level syntactic
// constraint; enforcement is best-effort, so callers must still run the
// output through the tolerant decoder.
const (
	FormatText = "text"
	FormatJSON = "json"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	// FoldSystemMessages merges system content into the next user turn for
	// providers that only accept alternating user/assistant messages.
	FoldSystemMessages bool
}

// CallOptions tune an individual completion call.
type CallOptions struct {
	Temperature    float64
	ResponseFormat string // FormatText or FormatJSON
}

// TokenUsage mirrors the provider's usage block; fields stay zero when the
// provider does not report them.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OracleError wraps a failed completion call with the calling agent's name
// for traceability. No retry happens at this layer.
type OracleError struct {
	Agent string
	Err   error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle call failed for %s: %v", e.Agent, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// Client calls an OpenAI-compatible chat completion endpoint and tracks
// last-call latency plus cumulative token usage for observability.
type Client struct {
	httpClient *http.Client

	mu          sync.Mutex
	lastLatency time.Duration
	usage       TokenUsage
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// LastLatency returns the wall time of the most recent call.
func (c *Client) LastLatency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLatency
}

// Usage returns cumulative token usage across calls.
func (c *Client) Usage() TokenUsage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

func (c *Client) Complete(ctx context.Context, cfg ChatConfig, messages []ChatMessage, opts CallOptions) (string, error) {
	if cfg.FoldSystemMessages {
		messages = foldSystemMessages(messages)
	}

	reqBody := map[string]any{
		"model":    cfg.Model,
		"messages": messages,
		"stream":   false,
	}
	if opts.Temperature > 0 {
		reqBody["temperature"] = opts.Temperature
	}
	if opts.ResponseFormat == FormatJSON {
		reqBody["response_format"] = map[string]string{"type": "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal llm request failed: %w", err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build llm request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordLatency(time.Since(start))
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read llm response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("llm response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage TokenUsage `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse llm json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty llm choices")
	}

	c.recordUsage(parsed.Usage)
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) recordLatency(d time.Duration) {
	c.mu.Lock()
	c.lastLatency = d
	c.mu.Unlock()
}

func (c *Client) recordUsage(u TokenUsage) {
	c.mu.Lock()
	c.usage.PromptTokens += u.PromptTokens
	c.usage.CompletionTokens += u.CompletionTokens
	c.usage.TotalTokens += u.TotalTokens
	c.mu.Unlock()
}

// foldSystemMessages prepends accumulated system content to the next user
// message and clears it, producing an alternating user/assistant sequence.
func foldSystemMessages(messages []ChatMessage) []ChatMessage {
	var pendingSystem strings.Builder
	out := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			pendingSystem.WriteString(msg.Content)
			pendingSystem.WriteString("\n")
		case "user":
			content := msg.Content
			if pendingSystem.Len() > 0 {
				content = pendingSystem.String() + content
				pendingSystem.Reset()
			}
			out = append(out, ChatMessage{Role: "user", Content: content})
		default:
			out = append(out, msg)
		}
	}
	// Trailing system content with no user turn to attach to becomes its own
	// user message rather than being dropped.
	if pendingSystem.Len() > 0 {
		out = append(out, ChatMessage{Role: "user", Content: strings.TrimSpace(pendingSystem.String())})
	}
	return out
}
