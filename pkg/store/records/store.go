package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
)

// ErrThrottled marks a write the backend refused for lack of capacity. It is
// the only retryable write failure.
var ErrThrottled = errors.New("state store throughput exceeded")

// WriteResult reports response metadata of a write that did not error.
type WriteResult struct {
	// StatusCode is the transport status of the write; 0 when the backend has none.
	StatusCode int
	// InternalRetries is how many retries the backend client performed on its own.
	InternalRetries int
}

// Store persists one compliance record per (account, resource).
// Writes are full overwrites keyed by resource id.
type Store interface {
	ListByAccount(ctx context.Context, accountID string) ([]store.ComplianceRecord, error)
	Put(ctx context.Context, record store.ComplianceRecord) (WriteResult, error)
}

// IncompleteQueryError is returned when a query reports fewer items than it
// scanned, meaning some records may be missing from the result.
type IncompleteQueryError struct {
	Stats store.QueryStats
}

func (e *IncompleteQueryError) Error() string {
	return fmt.Sprintf(
		"query count (%d) and scanned count (%d) do not match, some records may be missing",
		e.Stats.Count, e.Stats.ScannedCount,
	)
}
