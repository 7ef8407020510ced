package domain

import "fmt"

// Verdict is the compliance outcome of a single resource for the audited rule.
type Verdict string

const (
	VerdictPassed       Verdict = "PASSED"
	VerdictFailed       Verdict = "FAILED"
	VerdictNotAvailable Verdict = "NOT_AVAILABLE"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictPassed, VerdictFailed, VerdictNotAvailable:
		return true
	default:
		return false
	}
}

func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown compliance status %q", s)
	}
	return v, nil
}

// Cluster identifies one audited EMR cluster as listed by the account.
type Cluster struct {
	ID   string
	Arn  string
	Name string
}

// ResourceConfig is the observed configuration of a cluster relevant to the rule.
type ResourceConfig struct {
	BootstrapScripts []string
}

type Contacts struct {
	Primary   string
	Secondary string
}

// ResourceObservation is produced once per resource per audit pass.
type ResourceObservation struct {
	ResourceArn string
	ResourceID  string
	AccountID   string
	Verdict     Verdict
	Contacts    Contacts
	Tags        Tags
}

// AuditSummary aggregates the outcome of one account pass.
type AuditSummary struct {
	AccountID       string
	AccountName     string
	Region          string
	Resources       int
	Created         int
	Updated         int
	Archived        int
	ExportFailures  int
	PersistFailures int
	Verdicts        map[Verdict]int
	Skipped         bool
}

func NewAuditSummary(acct AccountContext) AuditSummary {
	return AuditSummary{
		AccountID:   acct.ID,
		AccountName: acct.Name,
		Region:      acct.Region,
		Verdicts:    make(map[Verdict]int),
	}
}
