// Package runner executes candidate code on a remote or containerised
// backend and checks it against test cases.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/terra-clan/interview-coach/internal/metrics"
	"github.com/terra-clan/interview-coach/internal/models"
)

// Backend names
const (
	BackendJDoodle = "jdoodle"
	BackendDocker  = "docker"
)

// ErrEmptyCode is returned when there is nothing to run
var ErrEmptyCode = errors.New("please write some code first")

// ErrUnsupportedLanguage is returned for languages the backend cannot run
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Executor runs a program with the given stdin. Failures reported by the
// program or the backend (compile errors, limits) are returned in
// Result.Error; a non-nil error means the backend could not be reached.
type Executor interface {
	Execute(ctx context.Context, code, language, stdin string) (*models.ExecutionResult, error)
	Name() string
}

// RunTests runs code once with every test input batched on stdin: the case
// count on the first line, then one input per line. Output lines are paired
// with cases by position.
func RunTests(ctx context.Context, exec Executor, code, language string, cases []models.TestCase) (*models.TestRunResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrEmptyCode
	}

	stdin := ""
	if len(cases) > 0 {
		inputs := make([]string, len(cases))
		for i, tc := range cases {
			inputs[i] = tc.Input
		}
		stdin = fmt.Sprintf("%d\n%s", len(cases), strings.Join(inputs, "\n"))
	}

	res, err := exec.Execute(ctx, code, language, stdin)
	if err == nil && res.Error != "" {
		err = errors.New(res.Error)
	}
	metrics.RecordCodeRun(exec.Name(), metrics.Outcome(err))
	if err != nil {
		return &models.TestRunResult{Error: err.Error(), TestResults: []models.TestResult{}}, nil
	}

	lines := strings.Split(strings.TrimSpace(res.Output), "\n")
	results := make([]models.TestResult, len(cases))
	for i, tc := range cases {
		actual := ""
		if i < len(lines) {
			actual = strings.TrimSpace(lines[i])
		}
		expected := strings.TrimSpace(tc.Output)
		results[i] = models.TestResult{
			Input:    tc.Input,
			Expected: expected,
			Actual:   actual,
			Passed:   OutputsMatch(actual, expected),
		}
	}

	return &models.TestRunResult{
		Output:      res.Output,
		TestResults: results,
		MemoryKB:    res.MemoryKB,
		CPUTimeSec:  res.CPUTimeSec,
	}, nil
}

var outputMarkers = []string{"[SIMULATION]", "[DEMO MODE]"}

// OutputsMatch compares an actual output line with an expected one: exact,
// then numerically when both are numbers, then case-insensitively
func OutputsMatch(actual, expected string) bool {
	actual = cleanOutput(actual)
	expected = cleanOutput(expected)

	if actual == expected {
		return true
	}

	a, errA := strconv.ParseFloat(actual, 64)
	e, errE := strconv.ParseFloat(expected, 64)
	if errA == nil && errE == nil && isFinite(a) && isFinite(e) {
		return a == e
	}

	return strings.EqualFold(actual, expected)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func cleanOutput(s string) string {
	for _, m := range outputMarkers {
		s = strings.ReplaceAll(s, m, "")
	}
	return strings.TrimSpace(s)
}
