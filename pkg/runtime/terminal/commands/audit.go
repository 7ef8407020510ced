package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/domain"
	"github.com/de-tools/compliance-atlas/pkg/services/audit"
)

type AuditCmd struct {
	env         *Env
	accounts    []string
	payloads    []string
	concurrency int
}

func NewAuditCmd(env *Env) *cobra.Command {
	ac := &AuditCmd{env: env}
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit EMR clusters of one or more accounts",
		RunE:  ac.run,
	}

	cmd.Flags().StringArrayVar(&ac.accounts, "account", nil, "Account to audit as id or id=name (repeatable)")
	cmd.Flags().StringArrayVar(&ac.payloads, "payload", nil, `Invocation payload, e.g. {"accountId":"111122223333","accountName":"sbx"} (repeatable)`)
	cmd.Flags().IntVar(&ac.concurrency, "concurrency", 0, "Accounts audited in parallel (default from settings)")

	return cmd
}

// ParsePayloads accepts "id" or "id=name" account flags and raw JSON payloads.
func ParsePayloads(accounts, raw []string) ([]domain.InvocationPayload, error) {
	var payloads []domain.InvocationPayload
	for _, a := range accounts {
		payloads = append(payloads, domain.ParseAccountRef(a))
	}
	for _, r := range raw {
		var p domain.InvocationPayload
		if err := json.Unmarshal([]byte(r), &p); err != nil {
			return nil, fmt.Errorf("invalid payload %q: %w", r, err)
		}
		payloads = append(payloads, p)
	}

	if len(payloads) == 0 {
		return nil, fmt.Errorf("at least one --account or --payload is required")
	}
	for _, p := range payloads {
		if p.AccountID == "" {
			return nil, fmt.Errorf("account discovery is not supported: %w", audit.ErrOrchestrationInvocation)
		}
	}
	return payloads, nil
}

func (ac *AuditCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	payloads, err := ParsePayloads(ac.accounts, ac.payloads)
	if err != nil {
		return err
	}

	concurrency := ac.concurrency
	if concurrency <= 0 {
		concurrency = ac.env.Settings.Audit.Concurrency
	}

	a, err := ac.env.NewApp(ctx, ac.env.Settings)
	if err != nil {
		return fmt.Errorf("failed to initialize auditor: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close state store")
		}
	}()

	started := time.Now()
	summaries := a.Auditor.RunAccounts(ctx, payloads, concurrency)
	run := adapters.MapAuditRunDomainToApi(started, time.Now(), summaries)

	if err := ac.env.Reporter.Handle(&run); err != nil {
		return err
	}

	if a.Reports != nil {
		key, err := a.Reports.Upload(ctx, run)
		if err != nil {
			logger.Error().Err(err).Msg("failed to upload run report")
		} else {
			logger.Info().Str("key", key).Msg("run report uploaded")
		}
	}

	return nil
}
