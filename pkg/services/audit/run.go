package audit

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/inventory"
)

const DefaultConcurrency = 4

// RunAccounts audits many accounts in parallel, each one sequentially inside.
// A failing account is logged and left out of the result; it never stops the
// others. Summaries are returned in payload order.
func (a *Auditor) RunAccounts(
	ctx context.Context,
	payloads []domain.InvocationPayload,
	concurrency int,
) []domain.AuditSummary {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	logger := zerolog.Ctx(ctx)

	results := make([][]domain.AuditSummary, len(payloads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, payload := range payloads {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.auditRegions(gctx, payload)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("audit run interrupted")
	}

	var out []domain.AuditSummary
	for _, summaries := range results {
		out = append(out, summaries...)
	}
	return out
}

func (a *Auditor) auditRegions(ctx context.Context, payload domain.InvocationPayload) []domain.AuditSummary {
	logger := zerolog.Ctx(ctx).With().
		Str("account_id", payload.AccountID).
		Str("account_name", payload.AccountName).
		Logger()

	regions, err := a.regionsFor(ctx, payload)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve regions")
		return nil
	}

	var summaries []domain.AuditSummary
	for _, region := range regions {
		summary, err := a.AuditAccountInRegion(ctx, payload, region)
		if err != nil {
			logger.Error().Err(err).Str("region", region).Msg("account pass failed")
			continue
		}
		summaries = append(summaries, summary)
		if summary.Skipped {
			break
		}
	}
	return summaries
}

func (a *Auditor) regionsFor(ctx context.Context, payload domain.InvocationPayload) ([]string, error) {
	switch {
	case len(a.settings.Regions) == 0:
		return []string{a.settings.Region}, nil
	case len(a.settings.Regions) == 1 && a.settings.Regions[0] == AllRegions:
	default:
		return a.settings.Regions, nil
	}

	if payload.AccountID == "" {
		return nil, ErrOrchestrationInvocation
	}
	if a.Excluded(payload.AccountID) {
		return []string{a.settings.Region}, nil
	}

	clients, err := a.deps.Sessions.Open(ctx, domain.AccountContext{
		ID:        payload.AccountID,
		Name:      payload.AccountName,
		Region:    a.settings.Region,
		Partition: a.settings.Partition,
	})
	if err != nil {
		return nil, err
	}
	return inventory.EnabledRegions(ctx, clients.Regions)
}
