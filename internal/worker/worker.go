package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/metrics"
	"github.com/gsarma/judgekit/internal/store"
)

const pollInterval = 500 * time.Millisecond

// JobExecutor executes a single job by type and payload.
type JobExecutor interface {
	ExecuteJob(ctx context.Context, jobID uuid.UUID, tenantID uuid.UUID, jobType string, payload json.RawMessage) error
}

// Worker polls the database for pending jobs and executes them concurrently.
type Worker struct {
	store       store.Querier
	executor    JobExecutor
	concurrency int
	log         zerolog.Logger
}

func New(q store.Querier, executor JobExecutor, concurrency int, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		store:       q,
		executor:    executor,
		concurrency: concurrency,
		log:         log.With().Str("component", "worker").Logger(),
	}
}

// Start spawns concurrency goroutines that each poll for jobs every 500ms.
// It blocks until ctx is cancelled and every in-flight job has finished.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info().Int("concurrency", w.concurrency).Msg("worker started")
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}
	wg.Wait()
	w.log.Info().Msg("worker stopped")
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processNext(ctx)
		}
	}
}

func (w *Worker) processNext(ctx context.Context) {
	job, err := w.store.ClaimNextJob(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || ctx.Err() != nil {
			return
		}
		w.log.Error().Err(err).Msg("claim failed")
		return
	}

	log := w.log.With().Stringer("job_id", job.ID).Str("job_type", job.JobType).Int32("attempt", job.Attempt).Logger()
	log.Debug().Msg("job claimed")

	execErr := w.executor.ExecuteJob(ctx, job.ID, job.TenantID, job.JobType, json.RawMessage(job.Payload))

	now := time.Now()
	params := store.UpdateJobStatusParams{ID: job.ID, RunAt: job.RunAt}
	switch {
	case execErr == nil:
		params.Status = "completed"
		params.CompletedAt = &now
	case job.Attempt < job.MaxAttempts:
		backoff := time.Duration(int64(1)<<uint(job.Attempt)) * 10 * time.Second
		params.Status = "pending"
		params.Error = pgtype.Text{String: execErr.Error(), Valid: true}
		params.RunAt = now.Add(backoff)
		log.Warn().Err(execErr).Dur("backoff", backoff).Msg("job failed, will retry")
	default:
		params.Status = "failed"
		params.Error = pgtype.Text{String: execErr.Error(), Valid: true}
		log.Error().Err(execErr).Msg("job failed permanently")
	}

	// The outcome must be recorded even when shutdown cancelled ctx mid-job.
	if _, err := w.store.UpdateJobStatus(context.WithoutCancel(ctx), params); err != nil {
		log.Error().Err(err).Str("status", params.Status).Msg("update job status failed")
		return
	}
	metrics.JobsProcessed.WithLabelValues(params.Status).Inc()
}
