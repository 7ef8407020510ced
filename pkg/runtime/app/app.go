package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/account"
	"github.com/de-tools/compliance-atlas/pkg/services/audit"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/services/evaluator"
	"github.com/de-tools/compliance-atlas/pkg/services/findings"
	"github.com/de-tools/compliance-atlas/pkg/services/inventory"
	"github.com/de-tools/compliance-atlas/pkg/services/persist"
	"github.com/de-tools/compliance-atlas/pkg/services/reconcile"
	dynamorecords "github.com/de-tools/compliance-atlas/pkg/store/dynamodb/records"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
	"github.com/de-tools/compliance-atlas/pkg/store/s3/report"
	"github.com/de-tools/compliance-atlas/pkg/store/sqlite"
	sqliterecords "github.com/de-tools/compliance-atlas/pkg/store/sqlite/records"
	"github.com/de-tools/compliance-atlas/pkg/telemetry"
)

// App holds the wired components shared by the CLI and the web server.
type App struct {
	Settings *config.Settings
	Auditor  *audit.Auditor
	Store    records.Store
	Metrics  *telemetry.Metrics
	// Reports is nil when no report bucket is configured.
	Reports report.Uploader

	db *sql.DB
}

// NewStore opens the configured state store. For the dynamodb backend cfg
// must carry credentials for the hub account; the client makes up to
// retry.MaxAttempts attempts per call.
func NewStore(ctx context.Context, cfg aws.Config, s config.StoreSettings, retry config.RetrySettings) (records.Store, *sql.DB, error) {
	switch s.Backend {
	case config.BackendDynamoDB:
		st, err := dynamorecords.NewStore(dynamorecords.NewClient(cfg, retry.MaxAttempts), dynamorecords.Settings{
			Table:        s.Table,
			AccountIndex: s.Index,
		})
		return st, nil, err
	case config.BackendSQLite:
		db, err := sqlite.NewDB(ctx, sqlite.Settings{DbPath: s.SqlitePath, BusyTimeoutMs: 5000})
		if err != nil {
			return nil, nil, err
		}
		st, err := sqliterecords.NewStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return st, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", s.Backend)
	}
}

func ExporterSettings(s config.FindingsSettings) findings.ExporterSettings {
	out := findings.DefaultExporterSettings()
	if s.RuleID != "" {
		out.RuleID = s.RuleID
	}
	if s.RuleVersion != "" {
		out.RuleVersion = s.RuleVersion
	}
	if s.CompanyName != "" {
		out.CompanyName = s.CompanyName
	}
	if s.ProductName != "" {
		out.ProductName = s.ProductName
	}
	if label := domain.SeverityLabel(s.Severity); label.Valid() {
		out.FailedSeverity = label
	}
	return out
}

func storeTarget(s config.StoreSettings) string {
	if s.Backend == config.BackendSQLite {
		return s.SqlitePath
	}
	return s.Table
}

func New(ctx context.Context, s *config.Settings) (*App, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.LoadAWSConfig(ctx, s.AWS)
	if err != nil {
		return nil, err
	}

	hubAccount, err := inventory.CallerAccount(ctx, sts.NewFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hub account: %w", err)
	}
	logger.Info().Str("hub_account", hubAccount).Msg("resolved hub account")

	st, db, err := NewStore(ctx, cfg, s.Store, s.Retry)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewMetrics(s.Metrics.Enabled)

	retrier := persist.NewRetrier(st, persist.Settings{
		MaxAttempts:          s.Retry.MaxAttempts,
		Interval:             s.Retry.Interval,
		InternalRetryCeiling: s.Retry.MaxAttempts,
		Target:               storeTarget(s.Store),
	}, persist.ContextSleep)

	auditor := audit.NewAuditor(audit.Dependencies{
		Sessions: account.NewSessionFactory(cfg, account.Settings{
			HubAccountID: hubAccount,
			Role:         s.Audit.Role,
		}),
		Store:     st,
		Evaluator: evaluator.New(s.Audit.ApprovedPrefix),
		Engine:    reconcile.NewEngine(reconcile.NewFindingID),
		Retrier:   retrier,
		Findings:  ExporterSettings(s.Findings),
		Metrics:   metrics,
	}, audit.Settings{
		Region:           cfg.Region,
		Partition:        s.AWS.Partition,
		Regions:          s.Audit.Regions,
		ExcludedAccounts: s.Audit.ExcludedAccounts,
	})

	a := &App{
		Settings: s,
		Auditor:  auditor,
		Store:    st,
		Metrics:  metrics,
		db:       db,
	}

	if s.Report.Bucket != "" {
		a.Reports, err = report.NewUploader(s3.NewFromConfig(cfg), report.Settings{
			Bucket: s.Report.Bucket,
			Prefix: s.Report.Prefix,
		})
		if err != nil {
			return nil, errors.Join(err, a.Close())
		}
	}

	return a, nil
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
