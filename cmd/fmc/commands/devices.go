package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/spf13/cobra"
)

// NewDevicesCommand creates the devices command group.
func NewDevicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "devices",
		Aliases: []string{"device", "dev"},
		Short:   "Show managed devices",
		Long:    "List and inspect the devices registered with the FMC server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				devices, err := client.Devices().List(ctx)
				if err != nil {
					return fmt.Errorf("failed to list devices: %w", err)
				}

				return renderRecords(cmd.OutOrStdout(), devices)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show one device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				device, err := client.Devices().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get device %s: %w", args[0], err)
				}

				return renderRecord(cmd.OutOrStdout(), device)
			})
		},
	})

	return cmd
}
