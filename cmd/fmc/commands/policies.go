package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// NewPoliciesCommand creates the policies command group.
func NewPoliciesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policies",
		Aliases: []string{"policy", "acp"},
		Short:   "Manage access policies",
		Long:    "List, show and create FMC access control policies",
	}

	cmd.AddCommand(newPoliciesListCommand())
	cmd.AddCommand(newPoliciesGetCommand())
	cmd.AddCommand(newPoliciesCreateCommand())
	cmd.AddCommand(newPoliciesRulesCommand())

	return cmd
}

func newPoliciesListCommand() *cobra.Command {
	var policyType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				var (
					policies []*fmc.Record
					err      error
				)

				if fmc.ObjectType(policyType) == fmc.TypeAccessPolicies {
					policies, err = client.AccessPolicies().List(ctx)
				} else {
					var pages fmc.Paginator

					pages, err = client.ListPolicies(ctx, fmc.ObjectType(policyType))
					if err == nil {
						policies, err = pages.All(ctx)
					}
				}

				if err != nil {
					return fmt.Errorf("failed to list %s: %w", policyType, err)
				}

				return renderRecords(cmd.OutOrStdout(), policies)
			})
		},
	}

	cmd.Flags().StringVar(&policyType, "type", string(fmc.TypeAccessPolicies), "policy type (accesspolicies, filepolicies, intrusionpolicies, ...)")

	return cmd
}

func newPoliciesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one access policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				policy, err := client.AccessPolicies().Get(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get access policy %s: %w", args[0], err)
				}

				return renderRecord(cmd.OutOrStdout(), policy)
			})
		},
	}
}

func newPoliciesCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an access policy from a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return constants.ErrPayloadRequired
			}

			data, err := readPayload(file)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				policy, err := client.AccessPolicies().Create(ctx, data)
				if err != nil {
					return fmt.Errorf("failed to create access policy %s: %w", data.Name, err)
				}

				return renderRecord(cmd.OutOrStdout(), policy)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "policy definition file (JSON or YAML)")

	return cmd
}

func newPoliciesRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules ID",
		Short: "List the rules of an access policy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				pages, err := client.AccessPolicies().Rules(ctx, args[0])
				if err != nil {
					return err
				}

				rules, err := pages.All(ctx)
				if err != nil {
					return fmt.Errorf("failed to list rules of %s: %w", args[0], err)
				}

				if rules == nil {
					rules = make([]*fmc.Record, 0)
				}

				return render(cmd.OutOrStdout(), rules, func(t *tablewriter.Table) {
					t.Header("Name", "ID", "Action", "Enabled")

					for _, rule := range rules {
						_ = t.Append(rule.Name, rule.ID, ruleField(rule, "action"), ruleField(rule, "enabled"))
					}
				})
			})
		},
	}
}

func ruleField(rule *fmc.Record, key string) string {
	raw, ok := rule.Extra[key]
	if !ok {
		return constants.NotAvailable
	}

	return gjson.ParseBytes(raw).String()
}
