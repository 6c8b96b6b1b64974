package models

// ExecutionResult is the outcome of a single code execution
type ExecutionResult struct {
	Output     string  `json:"output"`
	Error      string  `json:"error,omitempty"`
	MemoryKB   int64   `json:"memory_kb"`
	CPUTimeSec float64 `json:"cpu_time_sec"`
}

// TestResult is the verdict for one test case of a batched run
type TestResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Passed   bool   `json:"passed"`
}

// TestRunResult is the outcome of running code against an ordered set of test cases
type TestRunResult struct {
	Output      string       `json:"output,omitempty"`
	Error       string       `json:"error,omitempty"`
	TestResults []TestResult `json:"test_results"`
	MemoryKB    int64        `json:"memory_kb"`
	CPUTimeSec  float64      `json:"cpu_time_sec"`
}

// PassedCount returns the number of passing test cases
func (r *TestRunResult) PassedCount() int {
	n := 0
	for _, tr := range r.TestResults {
		if tr.Passed {
			n++
		}
	}
	return n
}
