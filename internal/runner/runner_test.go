package runner

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-coach/internal/models"
)

type fakeExecutor struct {
	stdin  string
	result *models.ExecutionResult
	err    error
}

func (f *fakeExecutor) Name() string { return "fake" }

func (f *fakeExecutor) Execute(_ context.Context, _, _, stdin string) (*models.ExecutionResult, error) {
	f.stdin = stdin
	return f.result, f.err
}

func TestOutputsMatch(t *testing.T) {
	tests := []struct {
		actual, expected string
		want             bool
	}{
		{"[0,1]", "[0,1]", true},
		{"3.0", "3", true},
		{"1e2", "100", true},
		{"3.5", "3", false},
		{"True", "true", true},
		{"HELLO", "hello", true},
		{"hello", "world", false},
		{"[SIMULATION] 42", "42", true},
		{"[DEMO MODE]ok", "OK", true},
		{"  7 ", "7", true},
		{"", "", true},
		{"nan", "NaN", true},
		{"inf", "Infinity", false},
		{"-Inf", "-inf", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputsMatch(tt.actual, tt.expected), "%q vs %q", tt.actual, tt.expected)
	}
}

func TestRunTests(t *testing.T) {
	exec := &fakeExecutor{result: &models.ExecutionResult{Output: "10\n20\n", MemoryKB: 1024, CPUTimeSec: 0.05}}
	cases := []models.TestCase{
		{Input: "5", Output: "10"},
		{Input: "10", Output: " 21 "},
		{Input: "1", Output: "2"},
	}

	res, err := RunTests(context.Background(), exec, "print(x*2)", "python", cases)
	require.NoError(t, err)

	assert.Equal(t, "3\n5\n10\n1", exec.stdin)
	require.Len(t, res.TestResults, 3)
	assert.True(t, res.TestResults[0].Passed)
	assert.False(t, res.TestResults[1].Passed)
	assert.Equal(t, "21", res.TestResults[1].Expected)
	assert.Equal(t, "", res.TestResults[2].Actual)
	assert.False(t, res.TestResults[2].Passed)
	assert.Equal(t, 1, res.PassedCount())
	assert.Equal(t, int64(1024), res.MemoryKB)
}

func TestRunTestsErrors(t *testing.T) {
	_, err := RunTests(context.Background(), &fakeExecutor{}, "  \n", "python", nil)
	assert.ErrorIs(t, err, ErrEmptyCode)

	res, err := RunTests(context.Background(),
		&fakeExecutor{result: &models.ExecutionResult{Error: "SyntaxError: invalid syntax"}},
		"def", "python", models.FallbackTestCases())
	require.NoError(t, err)
	assert.Equal(t, "SyntaxError: invalid syntax", res.Error)
	assert.Empty(t, res.TestResults)

	res, err = RunTests(context.Background(), &fakeExecutor{err: errors.New("connection refused")}, "x", "python", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Error, "connection refused")
}

func TestJDoodleExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jdoodleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "id", req.ClientID)
		assert.Equal(t, "secret", req.ClientSecret)
		assert.Equal(t, "python3", req.Language)
		assert.Equal(t, "5", req.VersionIndex)
		assert.Equal(t, "1\n5", req.Stdin)
		assert.False(t, req.CompileOnly)

		_, _ = w.Write([]byte(`{"output":"10\n","statusCode":200,"memory":"7428","cpuTime":"0.02"}`))
	}))
	defer srv.Close()

	c := NewJDoodleClient("id", "secret", WithJDoodleEndpoint(srv.URL), WithRateLimit(100, 10))
	res, err := c.Execute(context.Background(), "print(10)", "python", "1\n5")
	require.NoError(t, err)
	assert.Equal(t, "10\n", res.Output)
	assert.Equal(t, int64(7428), res.MemoryKB)
	assert.InDelta(t, 0.02, res.CPUTimeSec, 1e-9)
	assert.Empty(t, res.Error)
}

func TestJDoodleLanguageMapping(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jdoodleRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = append(got, req.Language+"/"+req.VersionIndex)
		_, _ = w.Write([]byte(`{"output":"","memory":null,"cpuTime":1.5}`))
	}))
	defer srv.Close()

	c := NewJDoodleClient("id", "secret", WithJDoodleEndpoint(srv.URL), WithRateLimit(100, 10))
	for _, lang := range []string{"scala", "javascript", "python", "java", "cpp", "cobol"} {
		res, err := c.Execute(context.Background(), "x", lang, "")
		require.NoError(t, err)
		assert.Equal(t, "No output", res.Output)
	}
	assert.Equal(t, []string{"scala/5", "nodejs/0", "python3/5", "java/5", "cpp17/2", "scala/5"}, got)
}

func TestJDoodleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized Request","statusCode":401}`))
	}))
	defer srv.Close()

	c := NewJDoodleClient("id", "bad", WithJDoodleEndpoint(srv.URL), WithRateLimit(100, 10))
	res, err := c.Execute(context.Background(), "x", "java", "")
	require.NoError(t, err)
	assert.Equal(t, "Unauthorized Request", res.Error)
}

func TestJDoodleTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewJDoodleClient("id", "secret", WithJDoodleEndpoint(url), WithRateLimit(100, 10))
	_, err := c.Execute(context.Background(), "x", "java", "")
	assert.Error(t, err)
}

func TestRunScriptAndEnv(t *testing.T) {
	script := runScript(DefaultToolchains["python"])
	assert.Contains(t, script, "/tmp/src/main.py")
	assert.Contains(t, script, "(python3 /tmp/src/main.py) < /tmp/src/stdin")
	assert.Contains(t, script, `printf '%s' "$RUN_CODE"`)

	env := runEnv("print('hi')", "3\n1\n2\n3")
	require.Len(t, env, 2)
	code, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(env[0], "RUN_CODE="))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(code))
	stdin, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(env[1], "RUN_STDIN="))
	require.NoError(t, err)
	assert.Equal(t, "3\n1\n2\n3", string(stdin))
}

func TestDefaultToolchainsCoverEditorLanguages(t *testing.T) {
	for _, lang := range []string{"scala", "javascript", "python", "java", "cpp"} {
		tc, ok := DefaultToolchains[lang]
		require.True(t, ok, lang)
		assert.NotEmpty(t, tc.Image)
		assert.NotEmpty(t, tc.File)
	}
}
