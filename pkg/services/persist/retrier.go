package persist

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/models/store"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
	"github.com/rs/zerolog"
)

// internalRetryWarnRatio is the share of the client's own retry ceiling that,
// once consumed on a successful write, means the table is near capacity.
const internalRetryWarnRatio = 0.75

type Writer interface {
	Put(ctx context.Context, record store.ComplianceRecord) (records.WriteResult, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type AttemptState int

const (
	AttemptSuccess AttemptState = iota
	AttemptRetryable
	AttemptFatal
)

func (s AttemptState) String() string {
	switch s {
	case AttemptSuccess:
		return "success"
	case AttemptRetryable:
		return "retryable"
	default:
		return "fatal"
	}
}

func Classify(res records.WriteResult, err error) AttemptState {
	switch {
	case err == nil && (res.StatusCode == 0 || res.StatusCode == http.StatusOK):
		return AttemptSuccess
	case errors.Is(err, records.ErrThrottled):
		return AttemptRetryable
	default:
		return AttemptFatal
	}
}

type WriteOutcome struct {
	Success      bool
	AttemptsUsed int
	// Exhausted is set when throttling outlasted the retry budget.
	Exhausted bool
}

type Settings struct {
	// MaxAttempts is the number of retries after the first write (default: 20)
	MaxAttempts int
	// Interval is the fixed wait between retries (default: 10s)
	Interval time.Duration
	// InternalRetryCeiling is the retry limit configured on the store client itself (default: 20)
	InternalRetryCeiling int
	// Target names the table or file in operator warnings
	Target string
}

func DefaultSettings() Settings {
	return Settings{
		MaxAttempts:          20,
		Interval:             10 * time.Second,
		InternalRetryCeiling: 20,
	}
}

// Retrier persists records, retrying only on throttling. It never returns an
// error: every terminal path is logged and reported in the outcome.
type Retrier struct {
	writer   Writer
	sleep    Sleeper
	settings Settings
}

func NewRetrier(writer Writer, settings Settings, sleep Sleeper) *Retrier {
	if sleep == nil {
		sleep = ContextSleep
	}
	return &Retrier{writer: writer, sleep: sleep, settings: settings}
}

func (r *Retrier) Persist(ctx context.Context, rec domain.PersistedRecord) WriteOutcome {
	return r.PersistWithRetry(ctx, rec, r.settings.MaxAttempts, r.settings.Interval)
}

// PersistWithRetry makes one write plus at most maxAttempts retries.
func (r *Retrier) PersistWithRetry(
	ctx context.Context,
	rec domain.PersistedRecord,
	maxAttempts int,
	interval time.Duration,
) WriteOutcome {
	logger := zerolog.Ctx(ctx).With().
		Str("resource_arn", rec.ResourceArn).
		Str("finding_id", rec.FindingID).
		Logger()
	item := adapters.MapDomainRecordToStore(rec)

	attempts := 0
	for {
		attempts++
		res, err := r.writer.Put(ctx, item)

		switch Classify(res, err) {
		case AttemptSuccess:
			r.checkInternalRetries(&logger, rec, res)
			return WriteOutcome{Success: true, AttemptsUsed: attempts}

		case AttemptFatal:
			if err != nil {
				logger.Error().
					Err(err).
					Interface("record", item).
					Msgf("unhandled error writing record for resource %s", rec.ResourceArn)
			} else {
				r.checkInternalRetries(&logger, rec, res)
				logger.Error().
					Int("status_code", res.StatusCode).
					Interface("record", item).
					Msgf("error (status %d) writing record for resource %s", res.StatusCode, rec.ResourceArn)
			}
			return WriteOutcome{AttemptsUsed: attempts}

		case AttemptRetryable:
			retries := attempts - 1
			if retries >= maxAttempts {
				logger.Warn().
					Int("attempts", attempts).
					Msgf("exceeded %d retries writing record for resource %s; increase the retry limit or the provisioned capacity of %s",
						maxAttempts, rec.ResourceArn, r.target())
				return WriteOutcome{AttemptsUsed: attempts, Exhausted: true}
			}

			logger.Warn().
				Err(err).
				Int("retry", retries+1).
				Int("max_retries", maxAttempts).
				Dur("wait", interval).
				Msg("write throttled, waiting before retry")

			if err := r.sleep(ctx, interval); err != nil {
				logger.Error().Err(err).Msg("retry wait interrupted")
				return WriteOutcome{AttemptsUsed: attempts}
			}
		}
	}
}

func (r *Retrier) checkInternalRetries(logger *zerolog.Logger, rec domain.PersistedRecord, res records.WriteResult) {
	ceiling := r.settings.InternalRetryCeiling
	if ceiling <= 0 {
		return
	}
	if float64(res.InternalRetries)/float64(ceiling) >= internalRetryWarnRatio {
		logger.Warn().
			Int("internal_retries", res.InternalRetries).
			Int("ceiling", ceiling).
			Msgf("client retries reached %d of %d for %s; the table is near its capacity limit",
				res.InternalRetries, ceiling, rec.ResourceArn)
	}
}

func (r *Retrier) target() string {
	if r.settings.Target == "" {
		return "the state table"
	}
	return r.settings.Target
}
