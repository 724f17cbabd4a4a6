package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewObjectsCommand creates the objects command group.
func NewObjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "objects",
		Aliases: []string{"object", "obj"},
		Short:   "Manage policy objects",
		Long:    "List, create, rename, delete and nest FMC policy objects such as hosts, networks and groups",
	}

	cmd.AddCommand(newObjectsTypesCommand())
	cmd.AddCommand(newObjectsListCommand())
	cmd.AddCommand(newObjectsGetCommand())
	cmd.AddCommand(newObjectsCreateCommand())
	cmd.AddCommand(newObjectsRenameCommand())
	cmd.AddCommand(newObjectsDeleteCommand())
	cmd.AddCommand(newObjectsAddChildrenCommand())
	cmd.AddCommand(newObjectsRemoveChildCommand())
	cmd.AddCommand(newObjectsAddToParentCommand())
	cmd.AddCommand(newObjectsRemoveFromParentCommand())

	return cmd
}

func newObjectsTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List policy object types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := fmc.ObjectTypes()

			rows := make([]map[string]interface{}, 0, len(types))
			for _, t := range types {
				rows = append(rows, map[string]interface{}{
					"type":     t,
					"group":    fmc.IsGroupType(t),
					"children": fmc.ChildTypes(t),
				})
			}

			return render(cmd.OutOrStdout(), rows, func(table *tablewriter.Table) {
				table.Header("Type", "Group", "Members")

				for _, t := range types {
					members := constants.NotAvailable
					if fmc.IsGroupType(t) {
						members = joinTypes(fmc.ChildTypes(t))
					}

					_ = table.Append(string(t), fmt.Sprintf("%t", fmc.IsGroupType(t)), members)
				}
			})
		},
	}
}

func newObjectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list TYPE",
		Short: "List objects of a type",
		Long:  "List every object of a type. Group members are listed before the groups containing them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := parseObjectType(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				table, err := client.ObjectTable(objType)
				if err != nil {
					return err
				}

				records := make([]*fmc.Record, 0)

				err = table.Objects(ctx, func(obj fmc.Object) error {
					records = append(records, obj.Record())

					return nil
				})
				if err != nil {
					return fmt.Errorf("failed to list %s: %w", objType, err)
				}

				return renderRecords(cmd.OutOrStdout(), records)
			})
		},
	}
}

func newObjectsGetCommand() *cobra.Command {
	var byID bool

	cmd := &cobra.Command{
		Use:   "get TYPE NAME",
		Short: "Show one object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			objType, err := parseObjectType(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				var obj fmc.Object

				if byID {
					obj, err = client.GetObject(ctx, objType, args[1])
				} else {
					err = buildTables(ctx, client, objType)
					if err != nil {
						return err
					}

					obj, err = client.GetObjectByName(ctx, objType, args[1])
				}

				if err != nil {
					return fmt.Errorf("failed to get %s %s: %w", objType, args[1], err)
				}

				return renderRecord(cmd.OutOrStdout(), obj.Record())
			})
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "treat NAME as an object id")

	return cmd
}

func newObjectsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an object from a JSON or YAML file",
		Long: `Create an object from a JSON or YAML definition. The definition must carry
a name and an FMC type such as Host or NetworkGroup. If an object with the
same name already exists it is returned unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return constants.ErrPayloadRequired
			}

			data, err := readPayload(file)
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
				if objType := fmc.TypeForKind(data.Type); fmc.IsObjectType(objType) {
					err := buildTables(ctx, client, objType)
					if err != nil {
						return err
					}
				}

				obj, err := client.CreateObject(ctx, data)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", data.Name, err)
				}

				return renderRecord(cmd.OutOrStdout(), obj.Record())
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "object definition file (JSON or YAML)")

	return cmd
}

func newObjectsRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename TYPE NAME NEW_NAME",
		Short: "Rename an object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.Rename(ctx, args[2])
				if err != nil {
					return fmt.Errorf("failed to rename %s: %w", args[1], err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s %s to %s\n", obj.Type(), args[1], obj.Name())

				return nil
			})
		},
	}
}

func newObjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete TYPE NAME",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.Delete(ctx)
				if err != nil {
					return fmt.Errorf("failed to delete %s: %w", args[1], err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", obj.Type(), args[1])

				return nil
			})
		},
	}
}

func newObjectsAddChildrenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-children TYPE GROUP CHILD...",
		Short: "Add members to a group",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.AddChildren(ctx, args[2:]...)
				if err != nil {
					return fmt.Errorf("failed to add members to %s: %w", args[1], err)
				}

				return renderRecord(cmd.OutOrStdout(), obj.Record())
			})
		},
	}
}

func newObjectsRemoveChildCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-child TYPE GROUP CHILD",
		Short: "Remove a member from a group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.RemoveChild(ctx, args[2])
				if err != nil {
					return fmt.Errorf("failed to remove %s from %s: %w", args[2], args[1], err)
				}

				return renderRecord(cmd.OutOrStdout(), obj.Record())
			})
		},
	}
}

func newObjectsAddToParentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add-to-parent TYPE NAME PARENT",
		Short: "Add an object to a group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.AddToParent(ctx, args[2])
				if err != nil {
					return fmt.Errorf("failed to add %s to %s: %w", args[1], args[2], err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", args[1], args[2])

				return nil
			})
		},
	}
}

func newObjectsRemoveFromParentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-from-parent TYPE NAME PARENT",
		Short: "Remove an object from a group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withObject(cmd, args[0], args[1], func(ctx context.Context, obj fmc.Object) error {
				err := obj.RemoveFromParent(ctx, args[2])
				if err != nil {
					return fmt.Errorf("failed to remove %s from %s: %w", args[1], args[2], err)
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from %s\n", args[1], args[2])

				return nil
			})
		},
	}
}

// withObject resolves the named object on the configured server and runs fn.
func withObject(cmd *cobra.Command, typeArg, name string, fn func(ctx context.Context, obj fmc.Object) error) error {
	objType, err := parseObjectType(typeArg)
	if err != nil {
		return err
	}

	return withClient(cmd, func(ctx context.Context, client fmc.Client) error {
		err := buildTables(ctx, client, objType)
		if err != nil {
			return err
		}

		obj, err := client.GetObjectByName(ctx, objType, name)
		if err != nil {
			return fmt.Errorf("failed to get %s %s: %w", objType, name, err)
		}

		return fn(ctx, obj)
	})
}

// buildTables builds the name table of objType and of every type its names
// may be resolved against: group members and the parent group type.
func buildTables(ctx context.Context, client fmc.Client, objType fmc.ObjectType) error {
	types := append([]fmc.ObjectType{objType}, fmc.ChildTypes(objType)...)
	if parent, ok := fmc.ParentType(objType); ok {
		types = append(types, parent)
	}

	built := make(map[fmc.ObjectType]bool, len(types))

	for _, t := range types {
		if built[t] {
			continue
		}

		built[t] = true

		table, err := client.ObjectTable(t)
		if err != nil {
			return err
		}

		err = table.Build(ctx)
		if err != nil {
			return fmt.Errorf("failed to build %s table: %w", t, err)
		}
	}

	return nil
}

func joinTypes(types []fmc.ObjectType) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	return strings.Join(names, ", ")
}
