// Package llm talks to the text-generation service that produces problems,
// hints and feedback.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/interview-coach/internal/metrics"
)

// DefaultEndpoint is the Gemini generateContent URL
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// Generator turns a prompt into free text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderError is returned for every transport or API failure
type ProviderError struct {
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return "llm provider error: " + e.Message
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is or wraps a *ProviderError
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Option configures a GeminiClient
type Option func(*GeminiClient)

// WithEndpoint overrides the generateContent URL
func WithEndpoint(url string) Option {
	return func(c *GeminiClient) { c.endpoint = url }
}

// WithHTTPTimeout sets the HTTP client timeout
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *GeminiClient) { c.http.Timeout = d }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *GeminiClient) { c.http = h }
}

// GeminiClient implements Generator on the Gemini REST API
type GeminiClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewGeminiClient creates a client authenticated with apiKey
func NewGeminiClient(apiKey string, opts ...Option) *GeminiClient {
	c := &GeminiClient{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Generate sends one prompt and returns the first candidate's text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt)
	metrics.RecordLLMRequest(metrics.Outcome(err), time.Since(start))
	if err != nil {
		slog.Warn("llm request failed", "error", err, "duration", time.Since(start))
		return "", err
	}
	slog.Debug("llm reply", "chars", len(text), "duration", time.Since(start))
	return text, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", &ProviderError{Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &ProviderError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &ProviderError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "failed to decode response", Err: err}
	}

	if result.Error != nil {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: result.Error.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "no response received"}
	}
	text := result.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", &ProviderError{StatusCode: resp.StatusCode, Message: "no response received"}
	}
	return text, nil
}
