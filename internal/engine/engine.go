// Package engine validates execution requests, dispatches them to the
// configured backend, grades test cases, and probes backend health.
//
// Every exported method returns a well-formed code.Result: failures of any
// kind are reported through Result.Success and Result.Error, never as Go
// errors or panics.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/language"
	"github.com/gsarma/judgekit/internal/metrics"
)

// MaxCodeLength is the largest accepted source, in characters.
const MaxCodeLength = 50000

// Options tunes an Engine. The zero value means unbounded concurrency and no logging.
type Options struct {
	// MaxConcurrent caps simultaneous backend calls across all callers.
	// Zero or negative disables admission control.
	MaxConcurrent int
	Logger        zerolog.Logger
}

// Engine is safe for concurrent use. The backend is fixed at construction.
type Engine struct {
	registry *language.Registry
	backend  code.Backend
	slots    *semaphore.Weighted
	log      zerolog.Logger
}

func New(registry *language.Registry, backend code.Backend, opts Options) *Engine {
	e := &Engine{
		registry: registry,
		backend:  backend,
		log:      opts.Logger.With().Str("backend", backend.Name()).Logger(),
	}
	if opts.MaxConcurrent > 0 {
		e.slots = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return e
}

// Backend returns the name of the active backend.
func (e *Engine) Backend() string { return e.backend.Name() }

// SupportedLanguages returns the registry keys in table order.
func (e *Engine) SupportedLanguages() []string { return e.registry.List() }

// Languages returns the full registry entries in table order.
func (e *Engine) Languages() []language.Entry { return e.registry.Entries() }

func (e *Engine) IsLanguageSupported(lang string) bool { return e.registry.IsSupported(lang) }

// Execute runs req.Code once with req.Stdin. TestCases are ignored.
func (e *Engine) Execute(ctx context.Context, req code.Request) code.Result {
	entry, err := e.registry.Resolve(req.Language)
	if err != nil {
		return e.reject("unsupported", &code.Error{Kind: code.UnsupportedLanguage, Err: err},
			fmt.Sprintf("Language '%s' is not supported", req.Language))
	}
	if n := utf8.RuneCountInString(req.Code); n > MaxCodeLength {
		return e.reject(entry.Key, &code.Error{Kind: code.CodeTooLarge, Err: fmt.Errorf("%d characters, limit %d", n, MaxCodeLength)},
			"Code is too long (max 50KB)")
	}
	return e.run(ctx, entry, req.Code, req.Stdin)
}

// reject records a request refused before reaching the backend. msg is the
// caller-facing text; err carries the kind for metrics and logs.
func (e *Engine) reject(label string, err *code.Error, msg string) code.Result {
	backend := e.backend.Name()
	metrics.ExecutionsTotal.WithLabelValues(label, backend, "rejected").Inc()
	metrics.BackendErrors.WithLabelValues(backend, err.Kind.String()).Inc()
	e.log.Info().Err(err).Str("language", label).Str("kind", err.Kind.String()).Msg("execution rejected")
	return failure(msg)
}

func (e *Engine) run(ctx context.Context, entry language.Entry, source, stdin string) (res code.Result) {
	backend := e.backend.Name()

	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			metrics.ExecutionsTotal.WithLabelValues(entry.Key, backend, "rejected").Inc()
			return failure(fmt.Sprintf("no execution slot available: %v", err))
		}
		defer e.slots.Release(1)
	}

	metrics.InFlightExecutions.Inc()
	start := time.Now()
	outcome := "error"
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("language", entry.Key).Interface("panic", r).Msg("backend panicked")
			res = failure(fmt.Sprintf("%s: unexpected failure: %v", backend, r))
			outcome = "error"
		}
		elapsed := time.Since(start)
		metrics.InFlightExecutions.Dec()
		metrics.ExecutionDuration.WithLabelValues(entry.Key, backend).Observe(float64(elapsed.Milliseconds()))
		metrics.ExecutionsTotal.WithLabelValues(entry.Key, backend, outcome).Inc()
		e.log.Debug().
			Str("language", entry.Key).
			Str("outcome", outcome).
			Dur("elapsed", elapsed).
			Msg("execution finished")
	}()

	out, err := e.backend.Run(ctx, entry, source, stdin)
	if err != nil {
		kind := code.KindOf(err)
		metrics.BackendErrors.WithLabelValues(backend, kind.String()).Inc()
		e.log.Warn().Err(err).Str("language", entry.Key).Str("kind", kind.String()).Msg("backend call failed")
		return failure(err.Error())
	}
	if out == nil {
		return failure(backend + ": backend returned no result")
	}

	res = *out
	res.Output = strings.TrimSpace(res.Output)
	res.TestResults = nil
	if res.Success {
		outcome = "success"
	} else {
		outcome = "failure"
	}
	return res
}

func failure(msg string) code.Result {
	return code.Result{Success: false, Error: msg}
}
