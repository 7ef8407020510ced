package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/adapters"
	"github.com/de-tools/compliance-atlas/pkg/models/api"
)

type RecordsCmd struct {
	env       *Env
	accountID string
}

func NewRecordsCmd(env *Env) *cobra.Command {
	rc := &RecordsCmd{env: env}
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List the persisted compliance records of an account",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.accountID, "account", "", "Account id")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func (rc *RecordsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	st, release, err := rc.env.OpenStore(ctx, rc.env.Settings)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warn().Err(err).Msg("failed to close state store")
		}
	}()

	items, err := st.ListByAccount(ctx, rc.accountID)
	if err != nil {
		return err
	}

	out := make([]api.ComplianceRecord, 0, len(items))
	for i := range items {
		rec, err := adapters.MapStoreRecordToDomain(&items[i])
		if err != nil {
			logger.Warn().Err(err).Str("resource_id", items[i].ResourceID).Msg("skipping unreadable record")
			continue
		}
		out = append(out, adapters.MapRecordDomainToApi(*rec))
	}

	return rc.env.Reporter.HandleRecords(rc.accountID, out)
}
