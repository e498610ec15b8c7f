package judgekit

import "time"

// --- Tenant ---

// CreateTenantResponse is returned when a new tenant is provisioned.
type CreateTenantResponse struct {
	TenantID string `json:"tenant_id"`
	APIKey   string `json:"api_key"`
	Note     string `json:"note"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
}

// --- Languages ---

type Language struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// LanguageList is returned by GET /languages.
type LanguageList struct {
	Backend   string     `json:"backend"`
	Languages []Language `json:"languages"`
}

type languageSupport struct {
	Language  string `json:"language"`
	Supported bool   `json:"supported"`
}

// --- Executions ---

// TestCase is one stdin / expected-stdout pair. Outputs are compared after
// trimming surrounding whitespace.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// ExecuteRequest runs Code once with Stdin, or once per test case when
// TestCases is non-empty.
type ExecuteRequest struct {
	Language  string     `json:"language"`
	Code      string     `json:"code"`
	Stdin     string     `json:"stdin,omitempty"`
	TestCases []TestCase `json:"test_cases,omitempty"`
}

type TestCaseResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	Passed         bool   `json:"passed"`
	ExecutionTime  *int64 `json:"execution_time,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Result is the outcome of an execution. ExecutionTime is in milliseconds
// and Memory in kilobytes; both are nil when the backend does not report them.
type Result struct {
	Success       bool             `json:"success"`
	Output        string           `json:"output"`
	Error         string           `json:"error,omitempty"`
	ExecutionTime *int64           `json:"execution_time,omitempty"`
	Memory        *int64           `json:"memory,omitempty"`
	TestResults   []TestCaseResult `json:"test_results,omitempty"`
}

// QueuedExecution is returned by POST /executions without ?sync=true.
type QueuedExecution struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Execution is the stored result of a completed job.
type Execution struct {
	JobID     string    `json:"job_id"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	Result    Result    `json:"result"`
}

// --- Jobs ---

// Job is the status record for a background job.
type Job struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	JobType     string     `json:"job_type"`
	Status      string     `json:"status"`
	Attempt     int        `json:"attempt"`
	MaxAttempts int        `json:"max_attempts"`
	Error       *string    `json:"error"`
	RunAt       time.Time  `json:"run_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
