package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/spf13/cobra"
)

// NewTasksCommand creates the tasks command group.
func NewTasksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "jobs"},
		Short:   "Inspect asynchronous tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get ID",
		Short: "Show the status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				task, err := client.TaskStatuses().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get task %s: %w", args[0], err)
				}

				return renderRecord(cmd.OutOrStdout(), task)
			})
		},
	})

	return cmd
}
