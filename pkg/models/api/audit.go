package api

import "time"

type ComplianceRecord struct {
	ResourceArn      string    `json:"resource_arn"`
	ResourceID       string    `json:"resource_id"`
	AccountID        string    `json:"account_id"`
	AccountName      string    `json:"account_name"`
	PrimaryContact   string    `json:"primary_contact"`
	SecondaryContact string    `json:"secondary_contact"`
	ComplianceStatus string    `json:"compliance_status"`
	FindingID        string    `json:"finding_id"`
	ExpiresAt        time.Time `json:"expires_at"`
}

type AuditSummary struct {
	AccountID       string         `json:"account_id"`
	AccountName     string         `json:"account_name"`
	Region          string         `json:"region"`
	Resources       int            `json:"resources"`
	Created         int            `json:"created"`
	Updated         int            `json:"updated"`
	Archived        int            `json:"archived"`
	ExportFailures  int            `json:"export_failures"`
	PersistFailures int            `json:"persist_failures"`
	Verdicts        map[string]int `json:"verdicts"`
	Skipped         bool           `json:"skipped"`
}

type AuditRun struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Accounts   []AuditSummary `json:"accounts"`
}

type Error struct {
	Message string `json:"message"`
}

type ScheduleStatus struct {
	AccountID   string        `json:"account_id"`
	AccountName string        `json:"account_name"`
	Interval    string        `json:"interval"`
	Passes      int           `json:"passes"`
	LastRunAt   *time.Time    `json:"last_run_at,omitempty"`
	LastError   string        `json:"last_error,omitempty"`
	LastSummary *AuditSummary `json:"last_summary,omitempty"`
}
