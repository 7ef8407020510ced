package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/de-tools/compliance-atlas/pkg/services/config"
)

type ProfilesCmd struct {
	path string
}

func NewProfilesCmd() *cobra.Command {
	pc := &ProfilesCmd{}
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the profiles of the AWS shared config file",
		RunE:  pc.run,
	}

	cmd.Flags().StringVar(&pc.path, "file", config.DefaultAWSConfigPath(), "Path to the AWS shared config file")

	return cmd
}

func (pc *ProfilesCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	registry, err := config.NewRegistry(pc.path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", pc.path, err)
	}

	profiles, err := registry.GetProfiles(ctx)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No profiles found in %s\n", pc.path)
		return nil
	}

	for _, p := range profiles {
		region := p.Region
		if region == "" {
			region = "-"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Name: `%s`, Type: `%s`, Region: `%s`\n", p.Name, p.Type, region)
	}
	return nil
}
