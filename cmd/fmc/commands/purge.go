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

// NewPurgeCommand creates the purge command.
func NewPurgeCommand() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "purge TYPE",
		Short: "Delete every object of a type",
		Long: `Delete every object of a type. Groups are deleted before their members.
Objects still referenced by a policy are kept and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := parseObjectType(args[0])
			if err != nil {
				return err
			}

			if !confirmed {
				return constants.ErrPurgeNotConfirmed
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				report, purgeErr := fmcclient.Purge(ctx, client, objType)
				if report != nil {
					err := render(cmd.OutOrStdout(), report, func(table *tablewriter.Table) {
						table.Header("Result", "Count", "Objects")
						_ = table.Append("Deleted", fmt.Sprintf("%d", len(report.Deleted)), strings.Join(report.Deleted, "\n"))
						_ = table.Append("Kept", fmt.Sprintf("%d", len(report.Kept)), strings.Join(report.Kept, "\n"))
					})
					if err != nil {
						return err
					}
				}

				return purgeErr
			})
		},
	}

	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm the deletion")

	return cmd
}
