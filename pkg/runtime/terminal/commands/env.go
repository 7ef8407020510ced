package commands

import (
	"context"

	"github.com/de-tools/compliance-atlas/pkg/runtime/app"
	"github.com/de-tools/compliance-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/compliance-atlas/pkg/services/config"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
)

// Env is shared by all commands. Settings is filled in before any command runs.
type Env struct {
	Settings *config.Settings
	Reporter *export.Reporter
	// NewApp wires the full audit application.
	NewApp func(ctx context.Context, s *config.Settings) (*app.App, error)
	// OpenStore opens the state store alone; the returned func releases it.
	OpenStore func(ctx context.Context, s *config.Settings) (records.Store, func() error, error)
}
