package commands

import (
	"context"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// ServerInfo describes the server a session is connected to.
type ServerInfo struct {
	URL     string `json:"url"     yaml:"url"`
	Version string `json:"version" yaml:"version"`
}

// NewInfoCommand creates the info command
func NewInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Display FMC server information",
		Long:  "Log in to the configured FMC server and display its version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ context.Context, client fmc.Client) error {
				info := ServerInfo{
					URL:     client.URL(),
					Version: client.ServerVersion(),
				}

				return render(cmd.OutOrStdout(), info, func(table *tablewriter.Table) {
					table.Header("Property", "Value")
					_ = table.Append("URL", info.URL)
					_ = table.Append("Version", info.Version)
				})
			})
		},
	}
}
