package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/de-tools/compliance-atlas/pkg/models/api"
)

type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Settings struct {
	Bucket string
	// Prefix is prepended to every object key (default: audit-runs/)
	Prefix string
}

// Uploader stores the summary of a finished run as a JSON object.
type Uploader interface {
	Upload(ctx context.Context, run api.AuditRun) (string, error)
}

type s3Uploader struct {
	client   API
	settings Settings
}

func NewUploader(client API, settings Settings) (Uploader, error) {
	if client == nil {
		return nil, errors.New("s3 client is required")
	}
	if settings.Bucket == "" {
		return nil, errors.New("report bucket is required")
	}
	return &s3Uploader{client: client, settings: settings}, nil
}

// ObjectKey derives a key sortable by run start time.
func ObjectKey(prefix string, run api.AuditRun) string {
	return path.Join(prefix, run.StartedAt.UTC().Format("2006/01/02/20060102T150405Z")+".json")
}

func (u *s3Uploader) Upload(ctx context.Context, run api.AuditRun) (string, error) {
	body, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}

	key := ObjectKey(u.settings.Prefix, run)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.settings.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload run report to s3://%s/%s: %w", u.settings.Bucket, key, err)
	}
	return key, nil
}
