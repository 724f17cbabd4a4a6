package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/fivetwenty-io/fmc-client/pkg/fmcclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// StoreOptions selects the snapshot backend.
type StoreOptions struct {
	Type    string
	NATSURL string
	Bucket  string
	TTL     time.Duration
}

// Config converts the options to a store configuration.
func (o StoreOptions) Config() *fmc.TableStoreConfig {
	config := &fmc.TableStoreConfig{Type: fmc.StoreType(o.Type)}

	if config.Type == fmc.StoreTypeNATS {
		config.NATS = &fmc.NATSKVConfig{
			URL:    o.NATSURL,
			Bucket: o.Bucket,
			TTL:    o.TTL,
		}
	}

	return config
}

// NewTablesCommand creates the tables command group.
func NewTablesCommand() *cobra.Command {
	var opts StoreOptions

	cmd := &cobra.Command{
		Use:     "tables",
		Aliases: []string{"table"},
		Short:   "Save and inspect object name tables",
		Long: `Object tables map object names to identifiers. They can be saved to a
NATS key-value bucket so later runs and other tools can resolve names
without listing every object again.`,
	}

	cmd.PersistentFlags().StringVar(&opts.Type, "store", string(fmc.StoreTypeNATS), "snapshot store (nats, memory, none)")
	cmd.PersistentFlags().StringVar(&opts.NATSURL, "nats-url", "", "NATS server URL (default nats://127.0.0.1:4222)")
	cmd.PersistentFlags().StringVar(&opts.Bucket, "bucket", constants.DefaultSnapshotBucket, "NATS key-value bucket")
	cmd.PersistentFlags().DurationVar(&opts.TTL, "ttl", 0, "snapshot lifetime, 0 keeps snapshots forever")

	cmd.AddCommand(newTablesSaveCommand(&opts))
	cmd.AddCommand(newTablesShowCommand(&opts))

	return cmd
}

func newTablesSaveCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save [TYPE...]",
		Short: "Build object tables and save them",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := parseObjectTypes(args)
			if err != nil {
				return err
			}

			if len(types) == 0 {
				types = fmc.ObjectTypes()
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				store, err := fmc.NewTableStoreFromConfig(ctx, opts.Config())
				if err != nil {
					return err
				}

				defer func() {
					_ = store.Close()
				}()

				for _, objType := range types {
					table, err := client.ObjectTable(objType)
					if err != nil {
						return err
					}

					err = table.Build(ctx)
					if err != nil {
						return fmt.Errorf("failed to build %s table: %w", objType, err)
					}
				}

				err = client.SnapshotTables(ctx, store)
				if err != nil {
					return err
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tables for %s\n", len(types), client.URL())

				return nil
			})
		},
	}
}

func newTablesShowCommand(opts *StoreOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show TYPE",
		Short: "Show a saved object table",
		Long:  "Show a saved object table of the configured server. No login is needed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := parseObjectType(args[0])
			if err != nil {
				return err
			}

			server := configuredServer()
			if server.URL == "" {
				return constants.ErrNoServerConfigured
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			store, err := fmc.NewTableStoreFromConfig(ctx, opts.Config())
			if err != nil {
				return err
			}

			defer func() {
				_ = store.Close()
			}()

			snapshot, err := store.Load(ctx, fmcclient.ServerKey(server.URL), objType)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), snapshot, func(table *tablewriter.Table) {
				table.Header("Name", "ID")

				for _, entry := range snapshot.Entries {
					_ = table.Append(entry.Name, entry.ID)
				}
			})
		},
	}
}
