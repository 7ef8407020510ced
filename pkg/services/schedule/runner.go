package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

type AccountAuditor interface {
	AuditAccount(ctx context.Context, payload domain.InvocationPayload) (domain.AuditSummary, error)
}

type RunnerConfig struct {
	// Interval between the start of two passes
	Interval time.Duration
}

type RunnerProgress struct {
	Passes    int
	LastRunAt time.Time
	Summary   domain.AuditSummary
	Err       error
}

// Runner audits one account repeatedly until its context is cancelled.
type Runner struct {
	auditor AccountAuditor
	payload domain.InvocationPayload
	config  RunnerConfig
	done    chan struct{}

	mu   sync.Mutex
	last RunnerProgress
}

func NewRunner(auditor AccountAuditor, payload domain.InvocationPayload, config RunnerConfig) *Runner {
	return &Runner{
		auditor: auditor,
		payload: payload,
		config:  config,
		done:    make(chan struct{}),
	}
}

func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Last reports the most recent finished pass.
func (r *Runner) Last() RunnerProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Runner) Run(ctx context.Context) {
	logger := zerolog.Ctx(ctx).With().Str("account_id", r.payload.AccountID).Logger()
	defer close(r.done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	passes := 0
	for {
		summary, err := r.auditor.AuditAccount(ctx, r.payload)
		passes++
		if err != nil {
			logger.Error().Err(err).Msg("scheduled pass failed")
		}

		p := RunnerProgress{Passes: passes, LastRunAt: time.Now(), Summary: summary, Err: err}
		r.mu.Lock()
		r.last = p
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			logger.Info().Msg("scheduled audit stopped")
			return
		case <-ticker.C:
		}
	}
}
