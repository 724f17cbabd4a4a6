package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// Object implements fmc.Object. Every successful mutation is mirrored into the
// client's table of the object's type.
type Object struct {
	client  *Client
	objType fmc.ObjectType

	mu     sync.Mutex
	record *fmc.Record
	state  fmc.ObjectState
}

// bindRecord wraps a fetched record and records its name in the table.
func bindRecord(c *Client, objType fmc.ObjectType, rec *fmc.Record) *Object {
	obj := &Object{client: c, objType: objType}
	obj.bind(rec)

	return obj
}

func (o *Object) bind(rec *fmc.Record) {
	o.mu.Lock()
	o.record = rec
	o.state = fmc.StateBound
	o.mu.Unlock()

	if table, err := o.client.table(o.objType); err == nil {
		table.set(rec.Name, rec.ID)
	}
}

func specSources(spec fmc.ObjectSpec) int {
	n := 0

	for _, set := range []bool{
		spec.ID != "",
		spec.URL != "",
		spec.Name != "",
		spec.Data != nil,
		spec.Record != nil,
		spec.Source != nil,
	} {
		if set {
			n++
		}
	}

	return n
}

// newObject obtains an object from exactly one source of spec.
func newObject(ctx context.Context, c *Client, objType fmc.ObjectType, spec fmc.ObjectSpec) (*Object, error) {
	table, err := c.table(objType)
	if err != nil {
		return nil, err
	}

	if specSources(spec) != 1 {
		return nil, fmc.ErrInvalidObjectSpec
	}

	switch {
	case spec.ID != "":
		return c.fetchObject(ctx, objType, target{resource: fmc.ResourceObject, objType: objType, id: spec.ID})
	case spec.URL != "":
		return c.fetchObject(ctx, objType, target{url: spec.URL})
	case spec.Name != "":
		id, ok := table.Lookup(spec.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", fmc.ErrNameNotFound, objType, spec.Name)
		}

		return c.fetchObject(ctx, objType, target{resource: fmc.ResourceObject, objType: objType, id: id})
	case spec.Record != nil:
		return bindRecord(c, objType, spec.Record.Clone()), nil
	case spec.Data != nil:
		return c.createOrAdopt(ctx, objType, table, spec.Data)
	default:
		return c.duplicate(ctx, objType, table, spec.Source)
	}
}

func (c *Client) fetchObject(ctx context.Context, objType fmc.ObjectType, t target) (*Object, error) {
	rec, err := c.requestJSON(ctx, http.MethodGet, t, nil)
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", objType, err)
	}

	return bindRecord(c, objType, rec), nil
}

// createOrAdopt POSTs data unless its name is already known, in which case the
// existing object is fetched instead.
func (c *Client) createOrAdopt(ctx context.Context, objType fmc.ObjectType, table *ObjectTable, data *fmc.Record) (*Object, error) {
	if data.Name == "" {
		return nil, fmc.ErrEmptyName
	}

	if id, ok := table.Lookup(data.Name); ok {
		c.logger.Warn("Object name already exists", map[string]interface{}{
			"type": objType,
			"name": data.Name,
			"id":   id,
		})

		return c.fetchObject(ctx, objType, target{resource: fmc.ResourceObject, objType: objType, id: id})
	}

	c.logger.Info("Creating new object", map[string]interface{}{
		"type": objType,
		"name": data.Name,
	})

	rec, err := c.requestJSON(ctx, http.MethodPost, target{resource: fmc.ResourceObject, objType: objType}, data.CreatePayload())
	if err != nil {
		return nil, fmt.Errorf("creating %s %q: %w", objType, data.Name, err)
	}

	return bindRecord(c, objType, rec), nil
}

// duplicate copies source into this client. Child references are remapped by
// name through the tables of their types.
func (c *Client) duplicate(ctx context.Context, objType fmc.ObjectType, table *ObjectTable, source fmc.Object) (*Object, error) {
	src := source.Record()
	if src == nil || source.State() != fmc.StateBound {
		return nil, fmt.Errorf("duplicating %s %q: %w", objType, source.Name(), fmc.ErrObjectUnbound)
	}

	if _, ok := table.Lookup(src.Name); ok {
		return c.createOrAdopt(ctx, objType, table, src)
	}

	payload := src.CreatePayload()

	for i, ref := range payload.Objects {
		childTable, err := c.table(ref.ObjectType())
		if err != nil {
			return nil, fmt.Errorf("duplicating %s %q: child %q: %w", objType, src.Name, ref.Name, err)
		}

		id, ok := childTable.Lookup(ref.Name)
		if !ok {
			return nil, fmt.Errorf("duplicating %s %q: %w: %s %q", objType, src.Name, fmc.ErrNameNotFound, ref.ObjectType(), ref.Name)
		}

		payload.Objects[i].ID = id
	}

	return c.createOrAdopt(ctx, objType, table, payload)
}

// Type implements fmc.Object.Type.
func (o *Object) Type() fmc.ObjectType {
	return o.objType
}

// Name implements fmc.Object.Name.
func (o *Object) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.record == nil {
		return ""
	}

	return o.record.Name
}

// ID implements fmc.Object.ID.
func (o *Object) ID() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.record == nil {
		return ""
	}

	return o.record.ID
}

// URL implements fmc.Object.URL.
func (o *Object) URL() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.record.SelfURL()
}

// State implements fmc.Object.State.
func (o *Object) State() fmc.ObjectState {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Record implements fmc.Object.Record.
func (o *Object) Record() *fmc.Record {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.record.Clone()
}

// current returns a copy of the held record if the object is usable.
func (o *Object) current() (*fmc.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state {
	case fmc.StateDeleted:
		return nil, fmt.Errorf("%s %q: %w", o.objType, o.record.Name, fmc.ErrAlreadyDeleted)
	case fmc.StateUnbound:
		return nil, fmc.ErrObjectUnbound
	}

	return o.record.Clone(), nil
}

func (o *Object) self(rec *fmc.Record) target {
	return target{resource: fmc.ResourceObject, objType: o.objType, id: rec.ID}
}

func (o *Object) replace(rec *fmc.Record) {
	o.mu.Lock()
	o.record = rec
	o.mu.Unlock()
}

// Refresh implements fmc.Object.Refresh.
func (o *Object) Refresh(ctx context.Context) error {
	rec, err := o.current()
	if err != nil {
		return err
	}

	fresh, err := o.client.requestJSON(ctx, http.MethodGet, o.self(rec), nil)
	if err != nil {
		return fmt.Errorf("refreshing %s %q: %w", o.objType, rec.Name, err)
	}

	o.replace(fresh)

	return nil
}

// put writes payload to the object and returns what FMC stored.
func (o *Object) put(ctx context.Context, rec, payload *fmc.Record) (*fmc.Record, error) {
	payload.ID = rec.ID

	updated, err := o.client.requestJSON(ctx, http.MethodPut, o.self(rec), payload)
	if err != nil {
		return nil, fmt.Errorf("updating %s %q: %w", o.objType, rec.Name, err)
	}

	return updated, nil
}

// Update implements fmc.Object.Update.
func (o *Object) Update(ctx context.Context, data *fmc.Record) (*fmc.Record, error) {
	rec, err := o.current()
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, fmc.ErrInvalidObjectSpec
	}

	o.client.logger.Warn("Updating object", map[string]interface{}{
		"type": o.objType,
		"name": rec.Name,
		"id":   rec.ID,
	})

	updated, err := o.put(ctx, rec, data.WritePayload())
	if err != nil {
		return nil, err
	}

	o.replace(updated)
	o.renameInTable(rec.Name, updated)

	return updated.Clone(), nil
}

func (o *Object) renameInTable(oldName string, updated *fmc.Record) {
	if updated.Name == oldName {
		return
	}

	if table, err := o.client.table(o.objType); err == nil {
		table.rename(oldName, updated.Name, updated.ID)
	}
}

// Rename implements fmc.Object.Rename. The table changes only once FMC
// returns the new name.
func (o *Object) Rename(ctx context.Context, newName string) error {
	if newName == "" {
		return fmc.ErrEmptyName
	}

	rec, err := o.current()
	if err != nil {
		return err
	}

	o.client.logger.Info("Renaming object", map[string]interface{}{
		"type": o.objType,
		"from": rec.Name,
		"to":   newName,
	})

	payload := rec.WritePayload()
	payload.Name = newName

	updated, err := o.put(ctx, rec, payload)
	if err != nil {
		return err
	}

	o.replace(updated)

	if updated.Name != newName {
		return fmt.Errorf("%w: %s %q is still named %q", fmc.ErrRenameRejected, o.objType, newName, updated.Name)
	}

	o.renameInTable(rec.Name, updated)

	return nil
}

// Delete implements fmc.Object.Delete.
func (o *Object) Delete(ctx context.Context) error {
	rec, err := o.current()
	if err != nil {
		return err
	}

	o.client.logger.Info("Deleting object", map[string]interface{}{
		"type": o.objType,
		"name": rec.Name,
		"id":   rec.ID,
	})

	_, err = o.client.requestJSON(ctx, http.MethodDelete, o.self(rec), nil)
	if err != nil && !errors.Is(err, fmc.ErrEmptyResponse) {
		if fmc.IsConflict(err) {
			return fmt.Errorf("%w: %s %q: %w", fmc.ErrNotDeletable, o.objType, rec.Name, err)
		}

		return fmt.Errorf("deleting %s %q: %w", o.objType, rec.Name, err)
	}

	if table, tableErr := o.client.table(o.objType); tableErr == nil {
		table.remove(rec.Name)
	}

	o.mu.Lock()
	o.state = fmc.StateDeleted
	o.mu.Unlock()

	return nil
}

// resolveChild finds name in the tables of the types this group may contain.
func (o *Object) resolveChild(name string) (fmc.ObjectType, string, error) {
	for _, childType := range fmc.ChildTypes(o.objType) {
		table, err := o.client.table(childType)
		if err != nil {
			continue
		}

		if id, ok := table.Lookup(name); ok {
			return childType, id, nil
		}
	}

	return "", "", fmt.Errorf("%w: child %q of %s", fmc.ErrNameNotFound, name, o.objType)
}

// AddChildren implements fmc.Object.AddChildren. Every name is resolved
// before the single write.
func (o *Object) AddChildren(ctx context.Context, names ...string) error {
	if !fmc.IsGroupType(o.objType) {
		return fmt.Errorf("%w: %s", fmc.ErrNotGroupType, o.objType)
	}

	type resolved struct {
		objType fmc.ObjectType
		id      string
	}

	children := make([]resolved, 0, len(names))

	for _, name := range names {
		childType, id, err := o.resolveChild(name)
		if err != nil {
			return err
		}

		children = append(children, resolved{objType: childType, id: id})
	}

	refs := make([]fmc.ChildRef, 0, len(children))

	for _, child := range children {
		rec, err := o.client.requestJSON(ctx, http.MethodGet, target{
			resource: fmc.ResourceObject,
			objType:  child.objType,
			id:       child.id,
		}, nil)
		if err != nil {
			return fmt.Errorf("getting child %s %s: %w", child.objType, child.id, err)
		}

		refs = append(refs, rec.ChildRef())
	}

	return o.appendChildren(ctx, refs)
}

// appendChildren refreshes the group and writes refs not yet present.
func (o *Object) appendChildren(ctx context.Context, refs []fmc.ChildRef) error {
	err := o.Refresh(ctx)
	if err != nil {
		return err
	}

	rec, err := o.current()
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(rec.Objects))
	for _, ref := range rec.Objects {
		present[ref.ID] = true
	}

	payload := rec.WritePayload()
	added := make([]string, 0, len(refs))

	for _, ref := range refs {
		if present[ref.ID] {
			continue
		}

		present[ref.ID] = true
		payload.Objects = append(payload.Objects, ref)
		added = append(added, ref.Name)
	}

	if len(added) == 0 {
		return nil
	}

	o.client.logger.Info("Adding children", map[string]interface{}{
		"type":     o.objType,
		"name":     rec.Name,
		"children": added,
	})

	updated, err := o.put(ctx, rec, payload)
	if err != nil {
		return err
	}

	o.replace(updated)

	return nil
}

// RemoveChild implements fmc.Object.RemoveChild.
func (o *Object) RemoveChild(ctx context.Context, name string) error {
	if !fmc.IsGroupType(o.objType) {
		return fmt.Errorf("%w: %s", fmc.ErrNotGroupType, o.objType)
	}

	return o.removeChildren(ctx, name, func(ref fmc.ChildRef) bool { return ref.Name == name })
}

func (o *Object) removeChildren(ctx context.Context, name string, match func(fmc.ChildRef) bool) error {
	err := o.Refresh(ctx)
	if err != nil {
		return err
	}

	rec, err := o.current()
	if err != nil {
		return err
	}

	payload := rec.WritePayload()
	payload.Objects = payload.Objects[:0]

	for _, ref := range rec.Objects {
		if !match(ref) {
			payload.Objects = append(payload.Objects, ref)
		}
	}

	if len(payload.Objects) == len(rec.Objects) {
		return fmt.Errorf("%w: %q is not a child of %s %q", fmc.ErrNameNotFound, name, o.objType, rec.Name)
	}

	o.client.logger.Info("Removing child", map[string]interface{}{
		"type":  o.objType,
		"name":  rec.Name,
		"child": name,
	})

	updated, err := o.put(ctx, rec, payload)
	if err != nil {
		return err
	}

	o.replace(updated)

	return nil
}

// parent fetches the group named parentName that may hold this object.
func (o *Object) parent(ctx context.Context, parentName string) (*Object, error) {
	parentType, ok := fmc.ParentType(o.objType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", fmc.ErrNoParentType, o.objType)
	}

	table, err := o.client.table(parentType)
	if err != nil {
		return nil, err
	}

	id, ok := table.Lookup(parentName)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", fmc.ErrNameNotFound, parentType, parentName)
	}

	return o.client.fetchObject(ctx, parentType, target{resource: fmc.ResourceObject, objType: parentType, id: id})
}

// AddToParent implements fmc.Object.AddToParent.
func (o *Object) AddToParent(ctx context.Context, parentName string) error {
	rec, err := o.current()
	if err != nil {
		return err
	}

	parent, err := o.parent(ctx, parentName)
	if err != nil {
		return err
	}

	return parent.appendChildren(ctx, []fmc.ChildRef{rec.ChildRef()})
}

// RemoveFromParent implements fmc.Object.RemoveFromParent.
func (o *Object) RemoveFromParent(ctx context.Context, parentName string) error {
	rec, err := o.current()
	if err != nil {
		return err
	}

	parent, err := o.parent(ctx, parentName)
	if err != nil {
		return err
	}

	return parent.removeChildren(ctx, rec.Name, func(ref fmc.ChildRef) bool { return ref.ID == rec.ID })
}

var _ fmc.Object = (*Object)(nil)
