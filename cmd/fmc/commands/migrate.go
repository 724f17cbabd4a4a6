package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/fivetwenty-io/fmc-client/pkg/fmcclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// MigrateOptions holds the destination server of a migration.
type MigrateOptions struct {
	Destination ServerSettings
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	var opts MigrateOptions

	cmd := &cobra.Command{
		Use:   "migrate [TYPE...]",
		Short: "Copy policy objects to another FMC server",
		Long: `Copy policy objects from the configured server to the server given by
--to-url. Group members are copied before their groups. Objects whose name
already exists on the destination are kept as they are. Without TYPE every
type that can be a group member is copied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Destination.URL, "to-url", "", "destination FMC URL")
	cmd.Flags().StringVar(&opts.Destination.Username, "to-username", "", "destination username (defaults to --username)")
	cmd.Flags().StringVar(&opts.Destination.Password, "to-password", "", "destination password")
	cmd.Flags().StringVar(&opts.Destination.Domain, "to-domain", "", "destination domain UUID")
	cmd.Flags().BoolVar(&opts.Destination.Insecure, "to-insecure", false, "skip TLS verification on the destination")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string, opts MigrateOptions) error {
	if opts.Destination.URL == "" {
		return constants.ErrDestinationNeeded
	}

	types, err := parseObjectTypes(args)
	if err != nil {
		return err
	}

	if opts.Destination.Username == "" {
		opts.Destination.Username = configuredServer().Username
	}

	return withClient(cmd, func(ctx context.Context, src fmc.Client) error {
		dst, err := connect(ctx, cmd, opts.Destination)
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}

		defer func() {
			_ = dst.Logout(ctx)
		}()

		report, migrateErr := fmcclient.Migrate(ctx, src, dst, types...)
		if report != nil {
			err = renderMigrationReport(cmd, report)
			if err != nil {
				return err
			}
		}

		return migrateErr
	})
}

func renderMigrationReport(cmd *cobra.Command, report *fmc.MigrationReport) error {
	return render(cmd.OutOrStdout(), report, func(table *tablewriter.Table) {
		table.Header("Result", "Count", "Objects")
		_ = table.Append("Created", fmt.Sprintf("%d", len(report.Created)), strings.Join(report.Created, "\n"))
		_ = table.Append("Adopted", fmt.Sprintf("%d", len(report.Adopted)), strings.Join(report.Adopted, "\n"))
		_ = table.Append("Failed", fmt.Sprintf("%d", len(report.Failed)), strings.Join(report.Failed, "\n"))
	})
}
