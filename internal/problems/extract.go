package problems

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/terra-clan/interview-coach/internal/models"
)

// FormatForDisplay renders a payload as plain text
func FormatForDisplay(p *models.ProblemPayload) string {
	if p == nil {
		return "Failed to load problem"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", p.QuestionTitle)
	fmt.Fprintf(&b, "Difficulty: %s\n\n", p.Difficulty)
	fmt.Fprintf(&b, "%s\n\n", StripHTML(p.Question))

	if p.ExampleTestcases != "" {
		b.WriteString("Example Test Cases:\n")
		for i, line := range strings.Split(p.ExampleTestcases, "\n") {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(&b, "Input %d: %s\n", i+1, line)
			}
		}
	}
	return b.String()
}

// StripHTML returns the text content of an HTML fragment with entities decoded
func StripHTML(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return s
			}
			return strings.ReplaceAll(b.String(), "\u00a0", " ")
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// outputs returns the text following each <strong>Output:</strong> label
func outputs(question string) []string {
	var (
		out      []string
		inStrong bool
		label    strings.Builder
		want     bool
	)

	z := html.NewTokenizer(strings.NewReader(question))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return out
		case html.StartTagToken:
			want = false
			if name, _ := z.TagName(); string(name) == "strong" {
				inStrong = true
				label.Reset()
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "strong" && inStrong {
				inStrong = false
				want = strings.TrimSpace(label.String()) == "Output:"
			} else {
				want = false
			}
		case html.TextToken:
			if inStrong {
				label.Write(z.Text())
				continue
			}
			if want {
				want = false
				out = append(out, strings.TrimSpace(string(z.Text())))
			}
		default:
			want = false
		}
	}
}

// ExtractTestCases pairs the example inputs of a payload with the outputs
// shown in its statement, by position. An input without an output is its
// own expected output. Without examples the fallback cases are returned.
func ExtractTestCases(p *models.ProblemPayload) []models.TestCase {
	if p == nil || p.ExampleTestcases == "" {
		return models.FallbackTestCases()
	}

	outs := outputs(p.Question)

	var cases []models.TestCase
	for _, line := range strings.Split(p.ExampleTestcases, "\n") {
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		output := input
		if i := len(cases); i < len(outs) && outs[i] != "" {
			output = outs[i]
		}
		cases = append(cases, models.TestCase{Input: input, Output: output})
	}

	if len(cases) == 0 {
		return models.FallbackTestCases()
	}
	return cases
}

var (
	inputRe  = regexp.MustCompile(`(?i)Input:\s*(.+?)\s*Output:`)
	outputRe = regexp.MustCompile(`(?i)Output:\s*(.+?)$`)
)

// ExtractTestCasesFromText parses "Input: ... Output: ..." lines that follow
// a test case header in generated problem text
func ExtractTestCasesFromText(text string) []models.TestCase {
	var cases []models.TestCase
	inSection := false

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "Test Case") {
			inSection = true
			continue
		}
		if !inSection || !strings.Contains(line, "Input:") || !strings.Contains(line, "Output:") {
			continue
		}

		in := inputRe.FindStringSubmatch(line)
		out := outputRe.FindStringSubmatch(line)
		if in == nil || out == nil {
			continue
		}
		cases = append(cases, models.TestCase{
			Input:  strings.TrimSpace(in[1]),
			Output: strings.TrimSpace(out[1]),
		})
	}

	if len(cases) == 0 {
		return models.FallbackTestCases()
	}
	return cases
}
