package problems

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-coach/internal/models"
)

const twoSumQuestion = `<p>Given an array of integers&nbsp;<code>nums</code>&nbsp;and an integer&nbsp;<code>target</code>, return indices.</p>
<pre>
<strong>Input:</strong> nums = [2,7,11,15], target = 9
<strong>Output:</strong> [0,1]
<strong>Explanation:</strong> Because nums[0] + nums[1] == 9.
</pre>
<pre>
<strong>Input:</strong> nums = [3,2,4], target = 6
<strong>Output:</strong> [1,2]
</pre>`

func twoSum() *models.ProblemPayload {
	return &models.ProblemPayload{
		QuestionID:       "1",
		QuestionTitle:    "Two Sum",
		TitleSlug:        "two-sum",
		Difficulty:       "Easy",
		Question:         twoSumQuestion,
		ExampleTestcases: "[2,7,11,15]\n9\n[3,2,4]\n6",
	}
}

func TestRandomProblem(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/problems", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MEDIUM", r.URL.Query().Get("difficulty"))
		_, _ = w.Write([]byte(`{"totalQuestions":2,"problemsetQuestionList":[{"titleSlug":"add-two-numbers"},{"titleSlug":"two-sum"}]}`))
	})
	mux.HandleFunc("/select", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "two-sum", r.URL.Query().Get("titleSlug"))
		_, _ = w.Write([]byte(`{"questionId":"1","questionTitle":"Two Sum","difficulty":"Easy","question":"<p>x</p>","exampleTestcases":"1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewLeetCodeClient(WithBaseURL(srv.URL + "/"))
	c.pick = func(n int) int { return n - 1 }

	p, err := c.RandomProblem(context.Background(), models.DifficultyMedium)
	require.NoError(t, err)
	assert.Equal(t, "Two Sum", p.QuestionTitle)
	assert.Equal(t, "two-sum", p.TitleSlug)
}

func TestRandomProblemEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"problemsetQuestionList":[]}`))
	}))
	defer srv.Close()

	_, err := NewLeetCodeClient(WithBaseURL(srv.URL)).RandomProblem(context.Background(), models.DifficultyEasy)
	assert.ErrorIs(t, err, ErrNoProblems)
}

func TestRandomProblemUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewLeetCodeClient(WithBaseURL(srv.URL)).RandomProblem(context.Background(), models.DifficultyEasy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFormatForDisplay(t *testing.T) {
	assert.Equal(t, "Failed to load problem", FormatForDisplay(nil))

	text := FormatForDisplay(twoSum())
	assert.Contains(t, text, "Two Sum\n\nDifficulty: Easy\n\n")
	assert.Contains(t, text, "Given an array of integers nums and an integer target")
	assert.NotContains(t, text, "<code>")
	assert.NotContains(t, text, "&nbsp;")
	assert.Contains(t, text, "Example Test Cases:\nInput 1: [2,7,11,15]\nInput 2: 9\n")
}

func TestStripHTMLDecodesEntities(t *testing.T) {
	assert.Equal(t, "a < b && c > d", StripHTML("<p>a &lt; b &amp;&amp; c &gt; d</p>"))
}

func TestExtractTestCases(t *testing.T) {
	cases := ExtractTestCases(twoSum())
	assert.Equal(t, []models.TestCase{
		{Input: "[2,7,11,15]", Output: "[0,1]"},
		{Input: "9", Output: "[1,2]"},
		{Input: "[3,2,4]", Output: "[3,2,4]"},
		{Input: "6", Output: "6"},
	}, cases)
}

func TestExtractTestCasesFallback(t *testing.T) {
	assert.Equal(t, models.FallbackTestCases(), ExtractTestCases(nil))
	assert.Equal(t, models.FallbackTestCases(), ExtractTestCases(&models.ProblemPayload{Question: "<p>x</p>"}))
	assert.Equal(t, models.FallbackTestCases(), ExtractTestCases(&models.ProblemPayload{ExampleTestcases: "\n \n"}))
}

func TestExtractTestCasesFromText(t *testing.T) {
	text := `Problem: reverse a string.
Input: ignored Output: ignored

Test Cases:
1. Input: "abc" Output: "cba"
2. Input: "a"   Output: "a"
3. input: "" output: ""
4. Input: "xy" Output:`

	cases := ExtractTestCasesFromText(text)
	assert.Equal(t, []models.TestCase{
		{Input: `"abc"`, Output: `"cba"`},
		{Input: `"a"`, Output: `"a"`},
	}, cases)

	assert.Equal(t, models.FallbackTestCases(), ExtractTestCasesFromText("Design a logger"))
}
