// Package search wraps a semantic web-search API used to fetch exemplar
// documents for template bootstrapping.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is one search hit with full text content.
type Result struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// Searcher is the search oracle contract consumed by the bootstrap pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) ([]Result, error)
}

type Config struct {
	BaseURL string
	APIKey  string
}

// Client calls an exa-style neural search endpoint, requesting full document
// text rather than snippets.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, query string, numResults int) ([]Result, error) {
	if numResults <= 0 {
		numResults = 3
	}
	reqBody := map[string]any{
		"query":         query,
		"numResults":    numResults,
		"type":          "neural",
		"useAutoprompt": true,
		"contents":      map[string]any{"text": true},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build search request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Text    string `json:"text"`
			Content string `json:"content"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse search json failed: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		text := item.Text
		if text == "" {
			text = item.Content
		}
		if text == "" {
			text = item.Snippet
		}
		if text == "" {
			continue
		}
		title := item.Title
		if title == "" {
			title = "Untitled"
		}
		results = append(results, Result{Title: title, URL: item.URL, Text: text})
	}
	return results, nil
}
