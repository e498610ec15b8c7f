package code

import (
	"context"

	"github.com/gsarma/judgekit/internal/language"
)

// JobTypeExecute is the job type for queued executions in the jobs table.
const JobTypeExecute = "code.execute"

// TestCase is one stdin / expected-stdout pair.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// Request is a single execution or grading request.
type Request struct {
	Language  string     `json:"language"`
	Code      string     `json:"code"`
	Stdin     string     `json:"stdin,omitempty"`
	TestCases []TestCase `json:"test_cases,omitempty"`
}

// TestCaseResult is the graded outcome of one TestCase.
type TestCaseResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
	ExecutionTime  *int64 `json:"execution_time,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Result is the normalized outcome of an execution. ExecutionTime is in
// milliseconds and Memory in kilobytes; both are nil when the backend does
// not report them.
type Result struct {
	Success       bool             `json:"success"`
	Output        string           `json:"output"`
	Error         string           `json:"error,omitempty"`
	ExecutionTime *int64           `json:"execution_time,omitempty"`
	Memory        *int64           `json:"memory,omitempty"`
	TestResults   []TestCaseResult `json:"test_results,omitempty"`
}

// Backend is a remote execution provider. Implementations return a classified
// *Error for every failure and never panic on malformed provider output.
type Backend interface {
	Name() string
	Run(ctx context.Context, lang language.Entry, sourceCode, stdin string) (*Result, error)
}
