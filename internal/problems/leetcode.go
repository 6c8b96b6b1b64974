// Package problems fetches algorithmic problems from a LeetCode mirror and
// extracts their example test cases.
package problems

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/interview-coach/internal/models"
)

// DefaultBaseURL is the public alfa-leetcode-api deployment
const DefaultBaseURL = "https://alfa-leetcode-api.onrender.com"

// ErrNoProblems is returned when the source lists no problems for a difficulty
var ErrNoProblems = errors.New("no problems available")

// Source supplies random problems
type Source interface {
	RandomProblem(ctx context.Context, d models.Difficulty) (*models.ProblemPayload, error)
}

type problemList struct {
	ProblemsetQuestionList []struct {
		TitleSlug string `json:"titleSlug"`
		Title     string `json:"title"`
	} `json:"problemsetQuestionList"`
}

// Option configures a LeetCodeClient
type Option func(*LeetCodeClient)

// WithBaseURL points the client at another deployment
func WithBaseURL(u string) Option {
	return func(c *LeetCodeClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *LeetCodeClient) { c.http = h }
}

// LeetCodeClient implements Source
type LeetCodeClient struct {
	baseURL string
	http    *http.Client
	pick    func(n int) int
}

// NewLeetCodeClient creates a client for the default deployment
func NewLeetCodeClient(opts ...Option) *LeetCodeClient {
	c := &LeetCodeClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		pick:    rand.IntN,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RandomProblem lists the problems of difficulty d, picks one at random and
// returns its details
func (c *LeetCodeClient) RandomProblem(ctx context.Context, d models.Difficulty) (*models.ProblemPayload, error) {
	var list problemList
	q := url.Values{"difficulty": {d.Upper()}}
	if err := c.getJSON(ctx, "/problems?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("failed to list problems: %w", err)
	}
	if len(list.ProblemsetQuestionList) == 0 {
		return nil, ErrNoProblems
	}

	slug := list.ProblemsetQuestionList[c.pick(len(list.ProblemsetQuestionList))].TitleSlug
	slog.Debug("problem selected", "slug", slug, "difficulty", d, "candidates", len(list.ProblemsetQuestionList))

	var p models.ProblemPayload
	q = url.Values{"titleSlug": {slug}}
	if err := c.getJSON(ctx, "/select?"+q.Encode(), &p); err != nil {
		return nil, fmt.Errorf("failed to fetch problem %s: %w", slug, err)
	}
	if p.TitleSlug == "" {
		p.TitleSlug = slug
	}
	return &p, nil
}

func (c *LeetCodeClient) getJSON(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
