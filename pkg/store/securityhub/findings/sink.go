package findings

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/securityhub"
	"github.com/aws/aws-sdk-go-v2/service/securityhub/types"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	exporter "github.com/de-tools/compliance-atlas/pkg/services/findings"
)

// MaxBatchSize is the largest number of findings BatchImportFindings accepts.
const MaxBatchSize = 100

type API interface {
	BatchImportFindings(ctx context.Context, params *securityhub.BatchImportFindingsInput, optFns ...func(*securityhub.Options)) (*securityhub.BatchImportFindingsOutput, error)
}

type hubSink struct {
	client API
}

func NewSink(client API) (exporter.Sink, error) {
	if client == nil {
		return nil, errors.New("security hub client is required")
	}
	return &hubSink{client: client}, nil
}

func (s *hubSink) BatchImport(ctx context.Context, findings []domain.Finding) (domain.ImportResult, error) {
	if len(findings) > MaxBatchSize {
		return domain.ImportResult{}, fmt.Errorf("batch of %d findings exceeds the limit of %d", len(findings), MaxBatchSize)
	}

	docs := make([]types.AwsSecurityFinding, 0, len(findings))
	for _, f := range findings {
		docs = append(docs, MapFinding(f))
	}

	out, err := s.client.BatchImportFindings(ctx, &securityhub.BatchImportFindingsInput{Findings: docs})
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("failed to import findings: %w", err)
	}

	result := domain.ImportResult{SuccessCount: int(aws.ToInt32(out.SuccessCount))}
	for _, failed := range out.FailedFindings {
		result.Failures = append(result.Failures, domain.ImportFailure{
			FindingID:    aws.ToString(failed.Id),
			ErrorCode:    aws.ToString(failed.ErrorCode),
			ErrorMessage: aws.ToString(failed.ErrorMessage),
		})
	}
	if n := int(aws.ToInt32(out.FailedCount)); n > len(result.Failures) {
		for i := len(result.Failures); i < n; i++ {
			result.Failures = append(result.Failures, domain.ImportFailure{ErrorCode: "Unknown"})
		}
	}

	return result, nil
}

// MapFinding converts a rendered finding into the ASFF shape of the SDK.
func MapFinding(f domain.Finding) types.AwsSecurityFinding {
	resources := make([]types.Resource, 0, len(f.Resources))
	for _, r := range f.Resources {
		res := types.Resource{
			Type:      aws.String(r.Type),
			Id:        aws.String(r.ID),
			Partition: types.Partition(r.Partition),
			Region:    aws.String(r.Region),
		}
		if len(r.Tags) > 0 {
			res.Tags = r.Tags
		}
		if other, ok := r.Details["Other"]; ok {
			res.Details = &types.ResourceDetails{Other: other}
		}
		resources = append(resources, res)
	}

	return types.AwsSecurityFinding{
		SchemaVersion: aws.String(f.SchemaVersion),
		Id:            aws.String(f.ID),
		ProductArn:    aws.String(f.ProductArn),
		GeneratorId:   aws.String(f.GeneratorID),
		AwsAccountId:  aws.String(f.AccountID),
		Compliance:    &types.Compliance{Status: types.ComplianceStatus(f.Compliance.Status)},
		CreatedAt:     aws.String(f.CreatedAt),
		UpdatedAt:     aws.String(f.UpdatedAt),
		Severity: &types.Severity{
			Label:    types.SeverityLabel(f.Severity.Label),
			Original: aws.String(f.Severity.Original),
		},
		Types:       f.Types,
		Title:       aws.String(f.Title),
		Description: aws.String(f.Description),
		Remediation: &types.Remediation{Recommendation: &types.Recommendation{
			Text: aws.String(f.Remediation.Recommendation.Text),
			Url:  aws.String(f.Remediation.Recommendation.URL),
		}},
		ProductFields: f.ProductFields,
		Resources:     resources,
		Workflow:      &types.Workflow{Status: types.WorkflowStatus(f.Workflow.Status)},
		RecordState:   types.RecordState(f.RecordState),
	}
}
