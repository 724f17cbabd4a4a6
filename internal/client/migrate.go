package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/hashicorp/go-multierror"
)

// nestableTypes lists every type that may appear in a group, groups included.
func nestableTypes() []fmc.ObjectType {
	seen := make(map[fmc.ObjectType]bool)
	out := make([]fmc.ObjectType, 0, 16)

	for _, group := range fmc.GroupTypes() {
		for _, t := range fmc.ChildTypes(group) {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	return out
}

func qualified(objType fmc.ObjectType, name string) string {
	return string(objType) + "/" + name
}

// Migrate copies objects of types from src into c. With no types every
// nestable type is copied. Per-object failures are collected and returned
// together with the report.
func (c *Client) Migrate(ctx context.Context, src fmc.ObjectsClient, types ...fmc.ObjectType) (*fmc.MigrationReport, error) {
	if len(types) == 0 {
		types = nestableTypes()
	}

	for _, t := range types {
		if !fmc.IsObjectType(t) {
			return nil, fmt.Errorf("%w: %q", fmc.ErrInvalidObjectType, t)
		}
	}

	order := fmc.MigrationOrder(types)

	c.logger.Info("Migrating objects", map[string]interface{}{
		"types":       order,
		"destination": c.baseURL,
	})

	err := c.buildDestinationTables(ctx, order)
	if err != nil {
		return nil, err
	}

	report := &fmc.MigrationReport{}

	var result *multierror.Error

	for _, objType := range order {
		err := c.migrateType(ctx, src, objType, report)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}

	c.logger.Info("Migration finished", map[string]interface{}{
		"created": len(report.Created),
		"adopted": len(report.Adopted),
		"failed":  len(report.Failed),
	})

	return report, result.ErrorOrNil()
}

// buildDestinationTables builds the tables of the migrated types and of every
// type their members may have.
func (c *Client) buildDestinationTables(ctx context.Context, order []fmc.ObjectType) error {
	built := make(map[fmc.ObjectType]bool)

	for _, objType := range order {
		for _, t := range append([]fmc.ObjectType{objType}, fmc.ChildTypes(objType)...) {
			if built[t] {
				continue
			}

			built[t] = true

			table, err := c.table(t)
			if err != nil {
				return err
			}

			err = table.Build(ctx)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (c *Client) migrateType(ctx context.Context, src fmc.ObjectsClient, objType fmc.ObjectType, report *fmc.MigrationReport) error {
	srcTable, err := src.ObjectTable(objType)
	if err != nil {
		return err
	}

	err = srcTable.Build(ctx)
	if err != nil {
		return err
	}

	dstTable, err := c.table(objType)
	if err != nil {
		return err
	}

	var result *multierror.Error

	for _, entry := range srcTable.Entries() {
		_, existed := dstTable.Lookup(entry.Name)

		source, err := src.GetObject(ctx, objType, entry.ID)
		if err == nil {
			_, err = c.DuplicateObject(ctx, source)
		}

		switch {
		case err != nil:
			c.logger.Error("Failed to migrate object", map[string]interface{}{
				"type":  objType,
				"name":  entry.Name,
				"error": err.Error(),
			})

			report.Failed = append(report.Failed, qualified(objType, entry.Name))
			result = multierror.Append(result, fmt.Errorf("%s %q: %w", objType, entry.Name, err))
		case existed:
			report.Adopted = append(report.Adopted, qualified(objType, entry.Name))
		default:
			report.Created = append(report.Created, qualified(objType, entry.Name))
		}
	}

	return result.ErrorOrNil()
}

// Purge deletes every object of objType, walking the child-first table
// backwards so groups go before their members. Objects FMC refuses to delete
// are kept and reported.
func (c *Client) Purge(ctx context.Context, objType fmc.ObjectType) (*fmc.PurgeReport, error) {
	table, err := c.table(objType)
	if err != nil {
		return nil, err
	}

	err = table.Build(ctx)
	if err != nil {
		return nil, err
	}

	entries := table.Entries()
	report := &fmc.PurgeReport{}

	c.logger.Warn("Purging objects", map[string]interface{}{
		"type":    objType,
		"objects": len(entries),
	})

	var result *multierror.Error

	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]

		err := c.purgeOne(ctx, objType, entry.ID)

		switch {
		case err == nil:
			report.Deleted = append(report.Deleted, entry.Name)
		case errors.Is(err, fmc.ErrNotDeletable):
			c.logger.Warn("Object is in use, keeping it", map[string]interface{}{
				"type": objType,
				"name": entry.Name,
			})

			report.Kept = append(report.Kept, entry.Name)
		case fmc.IsNotFound(err):
			table.remove(entry.Name)
		default:
			result = multierror.Append(result, fmt.Errorf("%s %q: %w", objType, entry.Name, err))
		}
	}

	return report, result.ErrorOrNil()
}

func (c *Client) purgeOne(ctx context.Context, objType fmc.ObjectType, id string) error {
	obj, err := c.GetObject(ctx, objType, id)
	if err != nil {
		return err
	}

	return obj.Delete(ctx)
}
