package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/spf13/cobra"
)

// NewAuditCommand creates the audit command group.
func NewAuditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		Aliases: []string{"audit-records"},
		Short:   "Read the audit log",
	}

	var limit int

	list := &cobra.Command{
		Use:   "list",
		Short: "List audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				pages := client.AuditRecords().List(ctx)

				records := make([]*fmc.Record, 0)

				for limit <= 0 || len(records) < limit {
					rec, err := pages.Next(ctx)
					if errors.Is(err, fmc.ErrNoMoreItems) {
						break
					}

					if err != nil {
						return fmt.Errorf("failed to list audit records: %w", err)
					}

					records = append(records, rec)
				}

				return renderRecords(cmd.OutOrStdout(), records)
			})
		},
	}

	list.Flags().IntVar(&limit, "limit", 50, "maximum number of records, 0 for all")

	cmd.AddCommand(list)

	return cmd
}
