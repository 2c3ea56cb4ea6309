// Package summarize is an OpenAI-compatible chat-completions client that
// condenses document text.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fsdrift/internal/drift"
)

// maxErrorBody bounds how much of a failed response body is kept in a StatusError.
const maxErrorBody = 4096

// Options configures a Client.
type Options struct {
	Endpoint  string // full chat-completions URL
	Model     string
	MaxTokens int
	Timeout   time.Duration
	Prompt    string // prepended to the document text
}

// Client implements drift.Summarizer.
type Client struct {
	http   *http.Client
	apiKey string
	opts   Options
	logger drift.Logger
}

var _ drift.Summarizer = (*Client)(nil)

// NewClient creates a client. apiKey is loaded once by the caller; an empty key
// makes every Summarize call fail with drift.ErrMissingCredential.
func NewClient(apiKey string, opts Options, logger drift.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: opts.Timeout},
		apiKey: apiKey,
		opts:   opts,
		logger: logger,
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Summarize sends text to the chat-completions endpoint and returns the first choice.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	if c.apiKey == "" {
		return "", drift.ErrMissingCredential
	}

	reqJSON, err := json.Marshal(chatRequest{
		Model:     c.opts.Model,
		Messages:  []chatMessage{{Role: "user", Content: c.opts.Prompt + text}},
		MaxTokens: c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(reqJSON))
	if err != nil {
		return "", fmt.Errorf("%w: create http request: %w", drift.ErrSummarizerNetwork, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug("sending summarization request", "endpoint", c.opts.Endpoint, "model", c.opts.Model, "payload_size", len(reqJSON))

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", drift.ErrSummarizerNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", drift.ErrSummarizerNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("summarization request rejected", "status", resp.StatusCode, "duration", time.Since(start))
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return "", &drift.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: %w", drift.ErrMalformedResponse, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", drift.ErrEmptyResult
	}

	summary := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if summary == "" {
		return "", drift.ErrEmptyResult
	}

	c.logger.Debug("summarization response received",
		"duration", time.Since(start),
		"tokens", chatResp.Usage.TotalTokens,
		"finish_reason", chatResp.Choices[0].FinishReason)
	return summary, nil
}

// MaskKey shows the first 8 characters of key followed by "...".
func MaskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	r := []rune(key)
	if len(r) <= 8 {
		return string(r) + "..."
	}
	return string(r[:8]) + "..."
}
