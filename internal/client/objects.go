package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// table returns the client's table of a policy object type.
func (c *Client) table(objType fmc.ObjectType) (*ObjectTable, error) {
	err := fmc.ValidateResourceType(fmc.ResourceObject, objType)
	if err != nil {
		return nil, err
	}

	c.tablesMu.Lock()
	defer c.tablesMu.Unlock()

	table, ok := c.tables[objType]
	if !ok {
		table = newObjectTable(c, objType)
		c.tables[objType] = table
	}

	return table, nil
}

// ObjectTable implements fmc.ObjectsClient.ObjectTable.
func (c *Client) ObjectTable(objType fmc.ObjectType) (fmc.ObjectTable, error) {
	table, err := c.table(objType)
	if err != nil {
		return nil, err
	}

	return table, nil
}

// NewObject implements fmc.ObjectsClient.NewObject.
func (c *Client) NewObject(ctx context.Context, objType fmc.ObjectType, spec fmc.ObjectSpec) (fmc.Object, error) {
	obj, err := newObject(ctx, c, objType, spec)
	if err != nil {
		return nil, err
	}

	return obj, nil
}

// GetObject implements fmc.ObjectsClient.GetObject.
func (c *Client) GetObject(ctx context.Context, objType fmc.ObjectType, id string) (fmc.Object, error) {
	if id == "" {
		return nil, fmc.ErrInvalidObjectSpec
	}

	return c.NewObject(ctx, objType, fmc.ObjectSpec{ID: id})
}

// GetObjectByName implements fmc.ObjectsClient.GetObjectByName. The table of
// objType must have been built or populated by earlier calls.
func (c *Client) GetObjectByName(ctx context.Context, objType fmc.ObjectType, name string) (fmc.Object, error) {
	if name == "" {
		return nil, fmc.ErrEmptyName
	}

	return c.NewObject(ctx, objType, fmc.ObjectSpec{Name: name})
}

// CreateObject implements fmc.ObjectsClient.CreateObject. The table type is
// derived from the record's kind, e.g. "Host" creates in "hosts".
func (c *Client) CreateObject(ctx context.Context, data *fmc.Record) (fmc.Object, error) {
	if data == nil {
		return nil, fmc.ErrInvalidObjectSpec
	}

	objType := fmc.TypeForKind(data.Type)
	if !fmc.IsObjectType(objType) {
		return nil, fmt.Errorf("%w: kind %q", fmc.ErrInvalidObjectType, data.Type)
	}

	return c.NewObject(ctx, objType, fmc.ObjectSpec{Data: data})
}

// DuplicateObject implements fmc.ObjectsClient.DuplicateObject.
func (c *Client) DuplicateObject(ctx context.Context, source fmc.Object) (fmc.Object, error) {
	if source == nil {
		return nil, fmc.ErrInvalidObjectSpec
	}

	return c.NewObject(ctx, source.Type(), fmc.ObjectSpec{Source: source})
}
