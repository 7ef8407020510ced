package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/aws/ratelimit"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/models/store"
	staterecords "github.com/de-tools/compliance-atlas/pkg/store/records"
)

const (
	defaultAccountIndex = "accountId-index"
	accountAttribute    = "accountId"
)

// API is the subset of the DynamoDB client used by the store.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// NewClient builds the DynamoDB client of the state store. Its retryer makes
// up to maxAttempts attempts per call and has no client-side retry quota, so
// sustained throttling keeps surfacing as a capacity error.
func NewClient(cfg aws.Config, maxAttempts int, optFns ...func(*retry.StandardOptions)) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.Retryer = NewRetryer(maxAttempts, optFns...)
	})
}

func NewRetryer(maxAttempts int, optFns ...func(*retry.StandardOptions)) aws.Retryer {
	return retry.NewStandard(func(o *retry.StandardOptions) {
		if maxAttempts > 0 {
			o.MaxAttempts = maxAttempts
		}
		o.RateLimiter = ratelimit.None
		for _, fn := range optFns {
			fn(o)
		}
	})
}

type Settings struct {
	Table string
	// AccountIndex is a global secondary index keyed by accountId.
	AccountIndex string
}

type recordStore struct {
	client   API
	settings Settings
}

func NewStore(client API, settings Settings) (staterecords.Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is nil")
	}
	if settings.Table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if settings.AccountIndex == "" {
		settings.AccountIndex = defaultAccountIndex
	}
	return &recordStore{client: client, settings: settings}, nil
}

func (s *recordStore) ListByAccount(ctx context.Context, accountID string) ([]store.ComplianceRecord, error) {
	logger := zerolog.Ctx(ctx)

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.settings.Table),
		IndexName:              aws.String(s.settings.AccountIndex),
		Select:                 types.SelectAllAttributes,
		KeyConditionExpression: aws.String("#acct = :acct"),
		ExpressionAttributeNames: map[string]string{
			"#acct": accountAttribute,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":acct": &types.AttributeValueMemberS{Value: accountID},
		},
	}

	var result []store.ComplianceRecord
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query records for account %s: %w", accountID, err)
		}

		if page.Count != page.ScannedCount {
			return nil, &staterecords.IncompleteQueryError{
				Stats: store.QueryStats{Count: page.Count, ScannedCount: page.ScannedCount},
			}
		}

		for _, item := range page.Items {
			var rec store.ComplianceRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				logger.Warn().Err(err).Str("account_id", accountID).Msg("skipping unreadable record")
				continue
			}
			result = append(result, rec)
		}
	}

	return result, nil
}

func (s *recordStore) Put(ctx context.Context, rec store.ComplianceRecord) (staterecords.WriteResult, error) {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return staterecords.WriteResult{}, fmt.Errorf("failed to marshal record %s: %w", rec.ResourceID, err)
	}

	out, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:              aws.String(s.settings.Table),
		Item:                   item,
		ReturnConsumedCapacity: types.ReturnConsumedCapacityTotal,
	})
	if err != nil {
		if IsThrottle(err) {
			return staterecords.WriteResult{}, fmt.Errorf("%w: %w", staterecords.ErrThrottled, err)
		}
		return staterecords.WriteResult{}, fmt.Errorf("failed to put record %s: %w", rec.ResourceID, err)
	}

	return staterecords.WriteResult{
		StatusCode:      statusCode(out.ResultMetadata),
		InternalRetries: internalRetries(out.ResultMetadata),
	}, nil
}

// IsThrottle reports whether err is a capacity error from DynamoDB. An
// exhausted SDK retry quota counts too: it only runs dry on repeated
// retryable errors and hides the service error that caused them.
func IsThrottle(err error) bool {
	var quota ratelimit.QuotaExceededError
	if errors.As(err, &quota) {
		return true
	}
	var pte *types.ProvisionedThroughputExceededException
	if errors.As(err, &pte) {
		return true
	}
	var rle *types.RequestLimitExceeded
	if errors.As(err, &rle) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ProvisionedThroughputExceededException", "RequestLimitExceeded":
			return true
		}
	}
	return false
}

func internalRetries(md middleware.Metadata) int {
	results, ok := retry.GetAttemptResults(md)
	if !ok || len(results.Results) == 0 {
		return 0
	}
	return len(results.Results) - 1
}

func statusCode(md middleware.Metadata) int {
	if resp, ok := awsmiddleware.GetRawResponse(md).(*smithyhttp.Response); ok && resp != nil {
		return resp.StatusCode
	}
	return 0
}
