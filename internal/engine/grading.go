package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/metrics"
)

// ExecuteWithTestCases runs req once per test case, sequentially and in
// order, and grades each trimmed stdout against the trimmed expectation.
// Every case runs even after a failure. Without test cases it is Execute.
func (e *Engine) ExecuteWithTestCases(ctx context.Context, req code.Request) code.Result {
	if len(req.TestCases) == 0 {
		return e.Execute(ctx, req)
	}

	results := make([]code.TestCaseResult, 0, len(req.TestCases))
	outputs := make([]string, 0, len(req.TestCases))
	failed := 0

	label := req.Language
	if !e.registry.IsSupported(label) {
		label = "unsupported"
	}

	var (
		totalTime  int64
		timed      bool
		peakMemory *int64
	)

	for _, tc := range req.TestCases {
		run := e.Execute(ctx, code.Request{
			Language: req.Language,
			Code:     req.Code,
			Stdin:    tc.Input,
		})

		actual := strings.TrimSpace(run.Output)
		expected := strings.TrimSpace(tc.ExpectedOutput)
		passed := actual == expected

		results = append(results, code.TestCaseResult{
			Input:          tc.Input,
			ExpectedOutput: expected,
			ActualOutput:   actual,
			Passed:         passed,
			ExecutionTime:  run.ExecutionTime,
			Error:          run.Error,
		})
		outputs = append(outputs, actual)

		if passed {
			metrics.TestCasesTotal.WithLabelValues(label, "passed").Inc()
		} else {
			failed++
			metrics.TestCasesTotal.WithLabelValues(label, "failed").Inc()
		}
		if run.ExecutionTime != nil {
			totalTime += *run.ExecutionTime
			timed = true
		}
		if run.Memory != nil && (peakMemory == nil || *run.Memory > *peakMemory) {
			m := *run.Memory
			peakMemory = &m
		}
	}

	report := code.Result{
		Success:     failed == 0,
		Output:      strings.Join(outputs, "\n"),
		Memory:      peakMemory,
		TestResults: results,
	}
	if timed {
		report.ExecutionTime = &totalTime
	}
	if failed > 0 {
		report.Error = fmt.Sprintf("%d of %d test cases failed", failed, len(results))
	}

	e.log.Debug().
		Str("language", req.Language).
		Int("cases", len(results)).
		Int("failed", failed).
		Msg("grading finished")
	return report
}
