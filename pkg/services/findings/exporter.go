package findings

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
)

const (
	SchemaVersion = "2018-10-08"
	ResourceType  = "Other"
)

// Sink accepts batches of finding documents. A nil error with failures in the
// result means the batch was accepted but individual documents were rejected.
type Sink interface {
	BatchImport(ctx context.Context, findings []domain.Finding) (domain.ImportResult, error)
}

type ExportOutcome struct {
	Finding  domain.Finding
	Accepted bool
	// Err is set when the sink could not be reached at all.
	Err      error
	Failures []domain.ImportFailure
}

// Exporter renders finding actions into documents and submits them one per call.
// Export failures are logged and reported in the outcome, never returned.
type Exporter struct {
	sink     Sink
	settings ExporterSettings
	now      func() time.Time
}

func NewExporter(sink Sink, settings ExporterSettings) *Exporter {
	return &Exporter{
		sink:     sink,
		settings: settings,
		now:      time.Now,
	}
}

// FindingDocumentID addresses the downstream record for a finding id. The same
// inputs always yield the same document id.
func FindingDocumentID(region, accountID, ruleVersion, ruleID, findingID string) string {
	return fmt.Sprintf("securityhub/%s/%s/custom/v/%s/%s/finding/%s", region, accountID, ruleVersion, ruleID, findingID)
}

func (e *Exporter) Render(
	action domain.FindingAction,
	obs domain.ResourceObservation,
	acct domain.AccountContext,
) domain.Finding {
	s := e.settings
	ts := e.now().UTC().Format(time.RFC3339Nano)
	id := FindingDocumentID(acct.Region, acct.ID, s.RuleVersion, s.RuleID, action.FindingID)

	severity := domain.SeverityInformational
	workflow := domain.WorkflowStatusNew
	switch action.Verdict {
	case domain.VerdictFailed:
		severity = s.FailedSeverity
	case domain.VerdictPassed:
		// The sink does not resolve the workflow on its own when compliance passes.
		workflow = domain.WorkflowStatusResolved
	}

	state := domain.RecordStateActive
	if action.Kind == domain.ActionArchive {
		state = domain.RecordStateArchived
	}

	var tags map[string]string
	if len(obs.Tags) > 0 {
		tags = make(map[string]string, len(obs.Tags))
		for k, v := range obs.Tags {
			tags[k] = v
		}
	}

	return domain.Finding{
		SchemaVersion: SchemaVersion,
		ID:            id,
		ProductArn:    fmt.Sprintf("arn:%s:securityhub:%s:%s:product/%s/default", acct.Partition, acct.Region, acct.ID, acct.ID),
		GeneratorID:   fmt.Sprintf("%s/%s", s.RuleID, s.ProductName),
		AccountID:     acct.ID,
		Compliance:    domain.FindingCompliance{Status: action.Verdict},
		CreatedAt:     ts,
		UpdatedAt:     ts,
		Severity:      domain.FindingSeverity{Label: severity, Original: string(severity)},
		Types:         []string{s.FindingType},
		Title:         s.Title,
		Description:   s.Description,
		Remediation: domain.Remediation{
			Recommendation: domain.Recommendation{Text: s.RecommendationText, URL: s.RecommendationURL},
		},
		ProductFields: map[string]string{
			s.CompanyName + "/custom/account-name":              acct.Name,
			s.CompanyName + "/custom/rule-version":              s.RuleVersion,
			s.CompanyName + "/custom/rule-id":                   s.RuleID,
			s.CompanyName + "/custom/emr-bootstrap-compliance": string(action.Verdict),
			"aws/securityhub/ProductName":                       s.ProductName,
			"aws/securityhub/CompanyName":                       s.CompanyName,
			"aws/securityhub/FindingId":                         id,
		},
		Resources: []domain.FindingResource{{
			Type:      ResourceType,
			ID:        obs.ResourceArn,
			Partition: acct.Partition,
			Region:    acct.Region,
			Tags:      tags,
			Details: map[string]map[string]string{
				ResourceType: {
					"ClusterId":   obs.ResourceArn,
					"ClusterName": obs.ResourceID,
				},
			},
		}},
		Workflow:    domain.FindingWorkflow{Status: workflow},
		RecordState: state,
	}
}

func (e *Exporter) Export(
	ctx context.Context,
	action domain.FindingAction,
	obs domain.ResourceObservation,
	acct domain.AccountContext,
) ExportOutcome {
	logger := zerolog.Ctx(ctx).With().
		Str("resource_arn", obs.ResourceArn).
		Str("finding_id", action.FindingID).
		Str("action", string(action.Kind)).
		Logger()

	finding := e.Render(action, obs, acct)
	outcome := ExportOutcome{Finding: finding}

	switch action.Kind {
	case domain.ActionNew:
		logger.Info().Msgf("Creating %s finding for resource %s", action.Verdict, obs.ResourceArn)
	case domain.ActionArchive:
		logger.Info().Msgf("Archiving %s finding for resource %s", action.Verdict, obs.ResourceArn)
	case domain.ActionUpdate:
		logger.Info().Msgf("No status change for %s finding for resource %s", action.Verdict, obs.ResourceArn)
	}

	result, err := e.sink.BatchImport(ctx, []domain.Finding{finding})
	if err != nil {
		outcome.Err = err
		logger.Error().
			Err(err).
			Str("account_id", acct.ID).
			Interface("finding", finding).
			Msg("failed to import finding")
		return outcome
	}

	if len(result.Failures) > 0 {
		outcome.Failures = result.Failures
		for _, f := range result.Failures {
			logger.Error().
				Str("account_id", acct.ID).
				Str("failed_id", f.FindingID).
				Str("error_code", f.ErrorCode).
				Str("error_message", f.ErrorMessage).
				Interface("finding", finding).
				Msg("finding rejected by sink")
		}
		return outcome
	}

	outcome.Accepted = true
	return outcome
}
