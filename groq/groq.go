// Package groq is a minimal client for the Groq OpenAI-compatible chat
// completion API. It implements synthesis.Completer.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// DefaultBaseURL is the Groq OpenAI-compatible endpoint root.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the completion model used unless overridden.
	DefaultModel = "llama-3.3-70b-versatile"
)

// Client talks to a Groq-style chat completion endpoint. The zero value is
// not usable; construct with New.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint root. Useful for
// tests and for any OpenAI-compatible backend.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithModel overrides the completion model.
func WithModel(m string) Option {
	return func(c *Client) { c.model = m }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client. The HTTP client carries no timeout: completion
// latency is unbounded on large prompts, so deadlines belong to the caller's
// context.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		http:    &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request in JSON mode and returns the
// response text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0.7,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("groq: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("groq: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("groq: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("groq: response carries no choices")
	}
	content := cr.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("groq: empty completion content")
	}
	return content, nil
}
