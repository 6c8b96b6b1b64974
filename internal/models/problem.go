package models

import "encoding/json"

// TestCase is an input/expected-output pair. Order is significant: cases are
// paired with execution output lines by position.
type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// FallbackTestCases are used when no test cases can be extracted from a problem
func FallbackTestCases() []TestCase {
	return []TestCase{
		{Input: "5", Output: "5"},
		{Input: "10", Output: "10"},
		{Input: "1", Output: "1"},
	}
}

// ProblemPayload is the structured problem returned by the problem source
type ProblemPayload struct {
	QuestionID       string `json:"questionId,omitempty"`
	QuestionTitle    string `json:"questionTitle"`
	TitleSlug        string `json:"titleSlug,omitempty"`
	Difficulty       string `json:"difficulty"`
	Question         string `json:"question"`
	ExampleTestcases string `json:"exampleTestcases"`
}

// Raw encodes the payload for the problem data cache
func (p *ProblemPayload) Raw() (json.RawMessage, error) {
	return json.Marshal(p)
}

// DecodeProblemPayload decodes a cached payload
func DecodeProblemPayload(raw json.RawMessage) (*ProblemPayload, error) {
	var p ProblemPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
