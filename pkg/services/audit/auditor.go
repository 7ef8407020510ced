package audit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/account"
	"github.com/de-tools/compliance-atlas/pkg/services/evaluator"
	"github.com/de-tools/compliance-atlas/pkg/services/findings"
	"github.com/de-tools/compliance-atlas/pkg/services/inventory"
	"github.com/de-tools/compliance-atlas/pkg/services/persist"
	"github.com/de-tools/compliance-atlas/pkg/services/reconcile"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
	"github.com/de-tools/compliance-atlas/pkg/telemetry"
)

var (
	// ErrOrchestrationInvocation is returned for a payload that names no
	// account. Fanning out to accounts is done by the caller.
	ErrOrchestrationInvocation = errors.New("invocation carries no account id")
	ErrIdentityMismatch        = errors.New("session identity does not match the requested account")
)

// AllRegions in Settings.Regions audits every region enabled for the account.
const AllRegions = "all"

type Settings struct {
	// Region is the default region of a pass
	Region string
	// Partition of every ARN built by the audit (default: aws)
	Partition string
	// Regions audited by RunAccounts; empty means Region only
	Regions []string
	// ExcludedAccounts are skipped; membership is exact
	ExcludedAccounts []string
}

type Dependencies struct {
	Sessions  account.SessionFactory
	Store     records.Store
	Evaluator *evaluator.Evaluator
	Engine    *reconcile.Engine
	Retrier   *persist.Retrier
	Findings  findings.ExporterSettings
	Metrics   *telemetry.Metrics
}

// Auditor runs account passes. Within a pass resources are handled one at a
// time; nothing that goes wrong with one resource stops the next. Cancellation
// is observed between resources only.
type Auditor struct {
	deps     Dependencies
	settings Settings
	now      func() time.Time
}

func NewAuditor(deps Dependencies, settings Settings) *Auditor {
	if settings.Partition == "" {
		settings.Partition = "aws"
	}
	return &Auditor{deps: deps, settings: settings, now: time.Now}
}

func (a *Auditor) Excluded(accountID string) bool {
	return slices.Contains(a.settings.ExcludedAccounts, accountID)
}

// AuditAccount runs one pass over the account in the default region.
func (a *Auditor) AuditAccount(ctx context.Context, payload domain.InvocationPayload) (domain.AuditSummary, error) {
	return a.AuditAccountInRegion(ctx, payload, a.settings.Region)
}

func (a *Auditor) AuditAccountInRegion(
	ctx context.Context,
	payload domain.InvocationPayload,
	region string,
) (domain.AuditSummary, error) {
	if payload.AccountID == "" {
		return domain.AuditSummary{}, ErrOrchestrationInvocation
	}

	acct := domain.AccountContext{
		ID:        payload.AccountID,
		Name:      payload.AccountName,
		Region:    region,
		Partition: a.settings.Partition,
	}
	summary := domain.NewAuditSummary(acct)

	logger := zerolog.Ctx(ctx).With().
		Str("account_id", acct.ID).
		Str("account_name", acct.Name).
		Str("region", acct.Region).
		Logger()
	ctx = logger.WithContext(ctx)

	if a.Excluded(acct.ID) {
		logger.Info().Msg("account is excluded from the audit")
		summary.Skipped = true
		return summary, nil
	}

	started := a.now()
	err := a.audit(ctx, acct, &summary)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	a.deps.Metrics.RecordAccount(outcome, a.now().Sub(started))

	return summary, err
}

func (a *Auditor) audit(ctx context.Context, acct domain.AccountContext, summary *domain.AuditSummary) error {
	logger := zerolog.Ctx(ctx)

	clients, err := a.deps.Sessions.Open(ctx, acct)
	if err != nil {
		return fmt.Errorf("failed to open session for account %s: %w", acct.ID, err)
	}

	caller, err := inventory.CallerAccount(ctx, clients.Identity)
	if err != nil {
		return err
	}
	if caller != acct.ID {
		logger.Error().
			Str("caller_account", caller).
			Msg("session identity does not match the requested account, aborting")
		return fmt.Errorf("%w: requested %s, session is in %s", ErrIdentityMismatch, acct.ID, caller)
	}

	priors, err := a.loadPriors(ctx, acct.ID)
	if err != nil {
		return err
	}

	clusters, err := clients.Inventory.ListClusters(ctx)
	if err != nil {
		return err
	}
	logger.Info().Msgf("Begin processing %d clusters in the %s/%s account", len(clusters), acct.Name, acct.ID)

	exporter := findings.NewExporter(clients.Sink, a.deps.Findings)
	for i, cluster := range clusters {
		if err := ctx.Err(); err != nil {
			logger.Warn().
				Err(err).
				Int("remaining", len(clusters)-i).
				Msg("pass interrupted between resources")
			return fmt.Errorf("pass over account %s interrupted: %w", acct.ID, err)
		}
		a.auditCluster(ctx, acct, cluster, clients.Inventory, exporter, priors[cluster.ID], summary)
	}

	logger.Info().
		Int("resources", summary.Resources).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("archived", summary.Archived).
		Int("export_failures", summary.ExportFailures).
		Int("persist_failures", summary.PersistFailures).
		Msg("account pass finished")

	return nil
}

// loadPriors reads every record of the account keyed by resource id. Records
// that cannot be interpreted are left out so their resources start over.
func (a *Auditor) loadPriors(ctx context.Context, accountID string) (map[string]*domain.PersistedRecord, error) {
	logger := zerolog.Ctx(ctx)

	items, err := a.deps.Store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for account %s: %w", accountID, err)
	}

	priors := make(map[string]*domain.PersistedRecord, len(items))
	for i := range items {
		rec, err := adapters.MapStoreRecordToDomain(&items[i])
		if err != nil {
			logger.Warn().
				Err(err).
				Str("resource_id", items[i].ResourceID).
				Msg("ignoring unreadable record")
			continue
		}
		priors[rec.ResourceID] = rec
	}
	return priors, nil
}

func (a *Auditor) auditCluster(
	ctx context.Context,
	acct domain.AccountContext,
	cluster domain.Cluster,
	inv inventory.Explorer,
	exporter *findings.Exporter,
	prior *domain.PersistedRecord,
	summary *domain.AuditSummary,
) {
	// A started resource runs to completion: a write cut short after an
	// export would leave the new finding active with no record pointing at it.
	ctx = context.WithoutCancel(ctx)
	logger := zerolog.Ctx(ctx).With().Str("resource_arn", cluster.Arn).Logger()
	ctx = logger.WithContext(ctx)

	cfg, err := inv.ClusterConfig(ctx, cluster.ID)
	if err != nil {
		logger.Warn().Err(err).Msg("bootstrap configuration unavailable")
		cfg = nil
	}
	verdict := a.deps.Evaluator.Evaluate(cfg)

	tagList, err := inv.ClusterTags(ctx, cluster.ID)
	if err != nil {
		logger.Info().Err(err).Msg("No tags present")
		tagList = nil
	}
	tags := domain.NewTags(tagList)

	obs := domain.ResourceObservation{
		ResourceArn: cluster.Arn,
		ResourceID:  cluster.ID,
		AccountID:   acct.ID,
		Verdict:     verdict,
		Contacts:    tags.Contacts(),
		Tags:        tags,
	}

	summary.Resources++
	summary.Verdicts[verdict]++
	a.deps.Metrics.RecordVerdict(string(verdict))

	plan := a.deps.Engine.Reconcile(obs, prior, acct, a.now())

	for _, action := range plan.Actions {
		outcome := exporter.Export(ctx, action, obs, acct)
		a.deps.Metrics.RecordAction(string(action.Kind))
		switch action.Kind {
		case domain.ActionNew:
			summary.Created++
		case domain.ActionUpdate:
			summary.Updated++
		case domain.ActionArchive:
			summary.Archived++
		}
		switch {
		case outcome.Err != nil:
			summary.ExportFailures++
			a.deps.Metrics.RecordExportFailure("transport")
		case len(outcome.Failures) > 0:
			summary.ExportFailures++
			a.deps.Metrics.RecordExportFailure("rejected")
		}
	}

	written := a.deps.Retrier.Persist(ctx, plan.Record)
	switch {
	case written.Success:
		a.deps.Metrics.RecordWrite("success", written.AttemptsUsed)
	case written.Exhausted:
		summary.PersistFailures++
		a.deps.Metrics.RecordWrite("exhausted", written.AttemptsUsed)
	default:
		summary.PersistFailures++
		a.deps.Metrics.RecordWrite("failed", written.AttemptsUsed)
	}
}
