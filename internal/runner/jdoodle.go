package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/terra-clan/interview-coach/internal/models"
)

// DefaultJDoodleEndpoint is the JDoodle execute API
const DefaultJDoodleEndpoint = "https://api.jdoodle.com/v1/execute"

// jdoodleLanguages maps editor languages to JDoodle language codes and version indexes
var jdoodleLanguages = map[string]struct {
	code    string
	version int
}{
	"scala":      {"scala", 5},
	"javascript": {"nodejs", 0},
	"python":     {"python3", 5},
	"java":       {"java", 5},
	"cpp":        {"cpp17", 2},
}

type jdoodleRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	Script       string `json:"script"`
	Stdin        string `json:"stdin"`
	Language     string `json:"language"`
	VersionIndex string `json:"versionIndex"`
	CompileOnly  bool   `json:"compileOnly"`
}

// flexNumber accepts both JSON numbers and numeric strings
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = flexNumber(f)
	return nil
}

type jdoodleResponse struct {
	Output     string     `json:"output"`
	Error      string     `json:"error"`
	StatusCode int        `json:"statusCode"`
	Memory     flexNumber `json:"memory"`
	CPUTime    flexNumber `json:"cpuTime"`
}

// JDoodleOption configures a JDoodleClient
type JDoodleOption func(*JDoodleClient)

// WithJDoodleEndpoint overrides the execute URL
func WithJDoodleEndpoint(u string) JDoodleOption {
	return func(c *JDoodleClient) { c.endpoint = u }
}

// WithRateLimit caps outgoing executions per second
func WithRateLimit(perSecond float64, burst int) JDoodleOption {
	return func(c *JDoodleClient) { c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

// JDoodleClient implements Executor on the JDoodle API
type JDoodleClient struct {
	endpoint     string
	clientID     string
	clientSecret string
	http         *http.Client
	limiter      *rate.Limiter
}

// NewJDoodleClient creates a client with the given credentials
func NewJDoodleClient(clientID, clientSecret string, opts ...JDoodleOption) *JDoodleClient {
	c := &JDoodleClient{
		endpoint:     DefaultJDoodleEndpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 30 * time.Second},
		limiter:      rate.NewLimiter(rate.Limit(2), 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *JDoodleClient) Name() string { return BackendJDoodle }

// Execute runs code on JDoodle. Unknown languages run as Scala.
func (c *JDoodleClient) Execute(ctx context.Context, code, language, stdin string) (*models.ExecutionResult, error) {
	lang, ok := jdoodleLanguages[language]
	if !ok {
		lang = jdoodleLanguages["scala"]
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("jdoodle: rate limit wait: %w", err)
	}

	body, err := json.Marshal(jdoodleRequest{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Script:       code,
		Stdin:        stdin,
		Language:     lang.code,
		VersionIndex: strconv.Itoa(lang.version),
	})
	if err != nil {
		return nil, fmt.Errorf("jdoodle: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jdoodle: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jdoodle: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("jdoodle: read response: %w", err)
	}

	var result jdoodleResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("jdoodle: API %s", resp.Status)
		}
		return nil, fmt.Errorf("jdoodle: unmarshal response: %w", err)
	}

	slog.Debug("jdoodle execution finished",
		"language", lang.code,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if result.Error != "" {
		return &models.ExecutionResult{Error: result.Error}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return &models.ExecutionResult{Error: fmt.Sprintf("execution service returned %s", resp.Status)}, nil
	}

	output := result.Output
	if output == "" {
		output = "No output"
	}
	return &models.ExecutionResult{
		Output:     output,
		MemoryKB:   int64(result.Memory),
		CPUTimeSec: float64(result.CPUTime),
	}, nil
}
