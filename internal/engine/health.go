package engine

import (
	"context"

	"github.com/gsarma/judgekit/internal/code"
)

const (
	probeLanguage = "python"
	probeCode     = `print("Hello, World!")`
	probeOutput   = "Hello, World!"
)

// TestConnection runs a canned snippet through Execute and reports whether
// the backend produced the expected output. It is meant for readiness checks.
func (e *Engine) TestConnection(ctx context.Context) bool {
	res := e.Execute(ctx, code.Request{Language: probeLanguage, Code: probeCode})
	if !res.Success || res.Output != probeOutput {
		e.log.Warn().
			Bool("success", res.Success).
			Str("output", res.Output).
			Str("error", res.Error).
			Msg("backend health probe failed")
		return false
	}
	return true
}
