package adapters

import (
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/api"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/schedule"
)

func MapRecordDomainToApi(r domain.PersistedRecord) api.ComplianceRecord {
	return api.ComplianceRecord{
		ResourceArn:      r.ResourceArn,
		ResourceID:       r.ResourceID,
		AccountID:        r.AccountID,
		AccountName:      r.AccountName,
		PrimaryContact:   r.PrimaryContact,
		SecondaryContact: r.SecondaryContact,
		ComplianceStatus: string(r.ComplianceStatus),
		FindingID:        r.FindingID,
		ExpiresAt:        time.Unix(r.Expiry, 0).UTC(),
	}
}

func MapAuditSummaryDomainToApi(s domain.AuditSummary) api.AuditSummary {
	res := api.AuditSummary{
		AccountID:       s.AccountID,
		AccountName:     s.AccountName,
		Region:          s.Region,
		Resources:       s.Resources,
		Created:         s.Created,
		Updated:         s.Updated,
		Archived:        s.Archived,
		ExportFailures:  s.ExportFailures,
		PersistFailures: s.PersistFailures,
		Verdicts:        map[string]int{},
		Skipped:         s.Skipped,
	}
	for k, v := range s.Verdicts {
		res.Verdicts[string(k)] = v
	}
	return res
}

func MapAuditRunDomainToApi(started, finished time.Time, summaries []domain.AuditSummary) api.AuditRun {
	run := api.AuditRun{
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
		Accounts:   make([]api.AuditSummary, 0, len(summaries)),
	}
	for _, s := range summaries {
		run.Accounts = append(run.Accounts, MapAuditSummaryDomainToApi(s))
	}
	return run
}

func MapScheduleStatusToApi(s schedule.Status) api.ScheduleStatus {
	res := api.ScheduleStatus{
		AccountID:   s.AccountID,
		AccountName: s.AccountName,
		Interval:    s.Interval.String(),
		Passes:      s.Last.Passes,
	}
	if s.Last.Passes == 0 {
		return res
	}

	at := s.Last.LastRunAt.UTC()
	res.LastRunAt = &at
	if s.Last.Err != nil {
		res.LastError = s.Last.Err.Error()
		return res
	}
	summary := MapAuditSummaryDomainToApi(s.Last.Summary)
	res.LastSummary = &summary
	return res
}
