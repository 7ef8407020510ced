package domain

import "time"

// RetentionWindow is how long a persisted record is kept before the store may evict it.
const RetentionWindow = 7_776_000 * time.Second // 90 days

// PersistedRecord is the durable state kept for one resource in one account.
// It is overwritten in place on every reconciliation.
type PersistedRecord struct {
	ResourceArn      string
	ResourceID       string
	AccountID        string
	AccountName      string
	PrimaryContact   string
	SecondaryContact string
	ComplianceStatus Verdict
	FindingID        string
	Expiry           int64 // epoch seconds
}

// ExpiryAt returns the advisory eviction time for a record written at writeTime.
func ExpiryAt(writeTime time.Time) int64 {
	return writeTime.Unix() + int64(RetentionWindow/time.Second)
}

// Usable reports whether the record carries enough to drive reconciliation.
func (r *PersistedRecord) Usable() bool {
	return r != nil && r.FindingID != "" && r.ComplianceStatus.Valid()
}

type ActionKind string

const (
	ActionNew     ActionKind = "new"
	ActionUpdate  ActionKind = "update"
	ActionArchive ActionKind = "archive"
)

// FindingAction addresses one finding document. Verdict is the compliance
// status the document carries: an archive keeps the verdict it was raised with.
type FindingAction struct {
	Kind      ActionKind
	FindingID string
	Verdict   Verdict
}

// ReconciliationPlan lists finding actions in submission order and the record
// to persist once they have been submitted.
type ReconciliationPlan struct {
	Actions []FindingAction
	Record  PersistedRecord
}
