package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terra-clan/interview-coach/internal/events"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/rounds"
)

// Client is a Go SDK for the interview-coach API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-coach client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported by the service
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsConfirmationRequired reports whether StartRound was refused because
// another round is active. The message is the question to show the user.
func IsConfirmationRequired(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == "confirmation_required" {
		return apiErr.Message, true
	}
	return "", false
}

// Session describes a candidate session
type Session struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	LastSeen        time.Time          `json:"last_seen"`
	CurrentRound    models.RoundType   `json:"current_round,omitempty"`
	CompletedRounds []models.RoundType `json:"completed_rounds"`
	AllCompleted    bool               `json:"all_completed"`
}

type textResult struct {
	Text string `json:"text"`
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// ListRounds returns the round table
func (c *Client) ListRounds(ctx context.Context) ([]*rounds.Config, error) {
	var out struct {
		Rounds []*rounds.Config `json:"rounds"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/rounds", nil, &out); err != nil {
		return nil, err
	}
	return out.Rounds, nil
}

// CreateSession starts a new interview
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSession retrieves a session
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var out Session
	if err := c.call(ctx, http.MethodGet, sessionPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession wipes a session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, sessionPath(id, ""), nil, nil)
}

// View returns what the candidate currently sees
func (c *Client) View(ctx context.Context, id string) (*events.View, error) {
	var out events.View
	if err := c.call(ctx, http.MethodGet, sessionPath(id, "/view"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartRound starts round. When another round is active the call fails
// unless confirmSwitch is set; see IsConfirmationRequired.
func (c *Client) StartRound(ctx context.Context, id string, round models.RoundType, d models.Difficulty, confirmSwitch bool) (*events.View, error) {
	body := map[string]interface{}{"difficulty": d, "confirm_switch": confirmSwitch}
	var out events.View
	if err := c.call(ctx, http.MethodPost, sessionPath(id, "/rounds/"+string(round)+"/start"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EndRound completes the active round
func (c *Client) EndRound(ctx context.Context, id string) (*events.View, error) {
	var out events.View
	if err := c.call(ctx, http.MethodPost, sessionPath(id, "/rounds/end"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitAction sends input for one of the round's actions
func (c *Client) SubmitAction(ctx context.Context, id string, a models.Action, input string) (string, error) {
	return c.text(ctx, http.MethodPost, sessionPath(id, "/actions"), map[string]string{"action": string(a), "input": input})
}

// Hint asks the interviewer for a hint
func (c *Client) Hint(ctx context.Context, id, question string) (string, error) {
	return c.text(ctx, http.MethodPost, sessionPath(id, "/hint"), map[string]string{"question": question})
}

// RefreshProblem replaces the active round's problem
func (c *Client) RefreshProblem(ctx context.Context, id string, d models.Difficulty) (string, error) {
	return c.text(ctx, http.MethodPost, sessionPath(id, "/refresh"), map[string]string{"difficulty": string(d)})
}

// SubmitDiagram saves and evaluates a draw.io diagram
func (c *Client) SubmitDiagram(ctx context.Context, id string, round models.RoundType, xml string) (string, error) {
	return c.text(ctx, http.MethodPost, sessionPath(id, "/diagrams"), map[string]string{"round": string(round), "xml": xml})
}

// OverallFeedback returns the end-of-interview summary
func (c *Client) OverallFeedback(ctx context.Context, id string) (string, error) {
	return c.text(ctx, http.MethodGet, sessionPath(id, "/feedback/overall"), nil)
}

// RunCode runs code against the active round's test cases
func (c *Client) RunCode(ctx context.Context, id, code, language string) (*models.TestRunResult, error) {
	var out models.TestRunResult
	body := map[string]string{"code": code, "language": language}
	if err := c.call(ctx, http.MethodPost, sessionPath(id, "/code/run"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset wipes the interview progress of a session
func (c *Client) Reset(ctx context.Context, id string) (*events.View, error) {
	var out events.View
	if err := c.call(ctx, http.MethodPost, sessionPath(id, "/reset"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + id + suffix
}

func (c *Client) text(ctx context.Context, method, path string, body interface{}) (string, error) {
	var out textResult
	if err := c.call(ctx, method, path, body, &out); err != nil {
		return "", err
	}
	return out.Text, nil
}

// call performs a request and decodes the response envelope into out
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if !result.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
