package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ResourceTable implements fmc.ResourceTable. Entries keep insertion order.
type ResourceTable struct {
	client   *Client
	resource fmc.Resource
	objType  fmc.ObjectType

	mu    sync.RWMutex
	names *orderedmap.OrderedMap[string, string]
}

func newResourceTable(c *Client, resource fmc.Resource, objType fmc.ObjectType) *ResourceTable {
	return &ResourceTable{
		client:   c,
		resource: resource,
		objType:  objType,
		names:    orderedmap.New[string, string](),
	}
}

// Resource implements fmc.ResourceTable.Resource.
func (t *ResourceTable) Resource() fmc.Resource {
	return t.resource
}

// Type implements fmc.ResourceTable.Type.
func (t *ResourceTable) Type() fmc.ObjectType {
	return t.objType
}

// Iterate implements fmc.ResourceTable.Iterate.
func (t *ResourceTable) Iterate(ctx context.Context) fmc.Paginator {
	// The pair was validated when the table was created.
	path, _ := t.client.collectionPath(t.resource, t.objType)

	return newPaginator(t.client, path)
}

// Build drains the listing and records every name. Existing entries win.
func (t *ResourceTable) Build(ctx context.Context) error {
	t.client.logger.Info("Building names table", map[string]interface{}{
		"resource": t.resource,
		"type":     t.objType,
	})

	err := t.Iterate(ctx).ForEach(ctx, func(rec *fmc.Record) error {
		t.setIfAbsent(rec.Name, rec.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("building %s %s table: %w", t.resource, t.objType, err)
	}

	t.client.logger.Debug("Built names table", map[string]interface{}{
		"type":    t.objType,
		"entries": t.Len(),
	})

	return nil
}

// Lookup implements fmc.ResourceTable.Lookup.
func (t *ResourceTable) Lookup(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.names.Get(name)
}

// Entries implements fmc.ResourceTable.Entries.
func (t *ResourceTable) Entries() []fmc.CacheEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]fmc.CacheEntry, 0, t.names.Len())
	for pair := t.names.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, fmc.CacheEntry{Name: pair.Key, ID: pair.Value})
	}

	return out
}

// Len implements fmc.ResourceTable.Len.
func (t *ResourceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.names.Len()
}

// Reset implements fmc.ResourceTable.Reset.
func (t *ResourceTable) Reset() {
	t.mu.Lock()
	t.names = orderedmap.New[string, string]()
	t.mu.Unlock()
}

// set records name→id. An existing name keeps its position.
func (t *ResourceTable) set(name, id string) {
	t.mu.Lock()
	t.names.Set(name, id)
	t.mu.Unlock()
}

func (t *ResourceTable) setIfAbsent(name, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.names.Get(name); ok {
		return false
	}

	t.names.Set(name, id)

	return true
}

func (t *ResourceTable) remove(name string) {
	t.mu.Lock()
	t.names.Delete(name)
	t.mu.Unlock()
}

// rename replaces oldName with newName at the same position.
func (t *ResourceTable) rename(oldName, newName, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.names.Get(oldName); !ok {
		t.names.Set(newName, id)

		return
	}

	renamed := orderedmap.New[string, string](t.names.Len())

	for pair := t.names.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case oldName:
			renamed.Set(newName, id)
		case newName:
			// replaced by the renamed entry
		default:
			renamed.Set(pair.Key, pair.Value)
		}
	}

	t.names = renamed
}

// ObjectTable implements fmc.ObjectTable: a table of policy objects built so
// that nested members precede the groups containing them.
type ObjectTable struct {
	*ResourceTable
}

func newObjectTable(c *Client, objType fmc.ObjectType) *ObjectTable {
	return &ObjectTable{ResourceTable: newResourceTable(c, fmc.ResourceObject, objType)}
}

// buildState tracks records of one build: in progress and finished.
type buildState struct {
	visiting map[string]bool
	done     map[string]bool
}

// Build walks the expanded listing and inserts each record after its nested
// members of the same type. Existing entries win.
func (t *ObjectTable) Build(ctx context.Context) error {
	t.client.logger.Info("Building objects table", map[string]interface{}{
		"type": t.objType,
	})

	state := &buildState{visiting: make(map[string]bool), done: make(map[string]bool)}

	err := t.Iterate(ctx).ForEach(ctx, func(rec *fmc.Record) error {
		return t.addChildFirst(ctx, rec, state)
	})
	if err != nil {
		return fmt.Errorf("building %s table: %w", t.objType, err)
	}

	t.client.logger.Debug("Built objects table", map[string]interface{}{
		"type":    t.objType,
		"entries": t.Len(),
	})

	return nil
}

func (t *ObjectTable) addChildFirst(ctx context.Context, rec *fmc.Record, state *buildState) error {
	if state.done[rec.ID] {
		return nil
	}

	state.visiting[rec.ID] = true

	for _, ref := range rec.Objects {
		if ref.ObjectType() != t.objType || state.done[ref.ID] {
			continue
		}

		if state.visiting[ref.ID] {
			return fmt.Errorf("%w: %s %q contains %q", fmc.ErrCyclicReference, t.objType, rec.Name, ref.Name)
		}

		t.client.logger.Debug("Found nested child", map[string]interface{}{
			"type":   t.objType,
			"parent": rec.Name,
			"child":  ref.Name,
		})

		child, err := t.client.requestJSON(ctx, http.MethodGet, target{
			resource: fmc.ResourceObject,
			objType:  t.objType,
			id:       ref.ID,
		}, nil)
		if err != nil {
			return fmt.Errorf("fetching nested %s %q of %q: %w", t.objType, ref.Name, rec.Name, err)
		}

		err = t.addChildFirst(ctx, child, state)
		if err != nil {
			return err
		}
	}

	delete(state.visiting, rec.ID)
	state.done[rec.ID] = true
	t.setIfAbsent(rec.Name, rec.ID)

	return nil
}

// Objects implements fmc.ObjectTable.Objects.
func (t *ObjectTable) Objects(ctx context.Context, fn func(fmc.Object) error) error {
	return t.Iterate(ctx).ForEach(ctx, func(rec *fmc.Record) error {
		return fn(bindRecord(t.client, t.objType, rec))
	})
}

// Restore implements fmc.ObjectTable.Restore.
func (t *ObjectTable) Restore(entries []fmc.CacheEntry) {
	names := orderedmap.New[string, string](len(entries))
	for _, entry := range entries {
		names.Set(entry.Name, entry.ID)
	}

	t.mu.Lock()
	t.names = names
	t.mu.Unlock()
}

var (
	_ fmc.ResourceTable = (*ResourceTable)(nil)
	_ fmc.ObjectTable   = (*ObjectTable)(nil)
)
