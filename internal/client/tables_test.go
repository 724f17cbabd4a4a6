package client_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceTable_Build(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t, fmctest.WithPageSize(2))
	c := newTestClient(t, srv)
	ctx := context.Background()

	first := srv.Seed(fmc.ResourcePolicy, fmc.TypeAccessPolicies, &fmc.Record{Name: "base", Type: "AccessPolicy"})
	srv.Seed(fmc.ResourcePolicy, fmc.TypeAccessPolicies, &fmc.Record{Name: "edge", Type: "AccessPolicy"})
	srv.Seed(fmc.ResourcePolicy, fmc.TypeAccessPolicies, &fmc.Record{Name: "core", Type: "AccessPolicy"})

	table, err := c.NewResourceTable(fmc.ResourcePolicy, fmc.TypeAccessPolicies)
	require.NoError(t, err)
	require.NoError(t, table.Build(ctx))

	assert.Equal(t, []string{"base", "edge", "core"}, entryNames(table.Entries()))

	id, ok := table.Lookup("base")
	require.True(t, ok)
	assert.Equal(t, first.ID, id)

	_, ok = table.Lookup("missing")
	assert.False(t, ok)

	table.Reset()
	assert.Equal(t, 0, table.Len())
}

func TestResourceTable_FirstWriteWins(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	first := srv.SeedObject(fmc.TypeHosts, host("dup", "10.0.0.1"))
	srv.SeedObject(fmc.TypeHosts, host("dup", "10.0.0.2"))

	table := buildTable(t, c, fmc.TypeHosts)

	require.Equal(t, 1, table.Len())

	id, _ := table.Lookup("dup")
	assert.Equal(t, first.ID, id)
}

func TestResourceTable_InvalidPair(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	_, err := c.NewResourceTable("bogus", fmc.TypeHosts)
	require.ErrorIs(t, err, fmc.ErrInvalidResourceType)

	_, err = c.NewResourceTable(fmc.ResourceDevices, fmc.TypeHosts)
	require.ErrorIs(t, err, fmc.ErrInvalidObjectType)
}

func TestResourceTable_Iterate(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	srv.Seed(fmc.ResourceDevices, fmc.TypeDeviceRecords, &fmc.Record{Name: "ftd-1", Type: "Device"})

	table, err := c.NewResourceTable(fmc.ResourceDevices, fmc.TypeDeviceRecords)
	require.NoError(t, err)

	items, err := table.Iterate(ctx).All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ftd-1", items[0].Name)

	assert.Equal(t, 0, table.Len(), "iterating does not fill the table")
}

func TestObjectTable_ChildFirst(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	web := srv.SeedObject(fmc.TypeHosts, host("web", "10.0.0.1"))
	inner := &fmc.Record{ID: "inner-id", Name: "inner", Type: "NetworkGroup", Objects: []fmc.ChildRef{fmctest.Ref(web)}}

	// The outer group is listed before the group it contains.
	srv.SeedObject(fmc.TypeNetworkGroups, networkGroup("outer", inner))
	srv.SeedObject(fmc.TypeNetworkGroups, inner)
	srv.SeedObject(fmc.TypeNetworkGroups, networkGroup("flat", web))

	table := buildTable(t, c, fmc.TypeNetworkGroups)

	assert.Equal(t, []string{"inner", "outer", "flat"}, entryNames(table.Entries()))
	assert.Equal(t, 1, srv.RequestCount("GET", "/networkgroups/inner-id"))
	assert.Equal(t, 0, srv.RequestCount("GET", "/hosts/"), "members of other types are not fetched")
}

func TestObjectTable_DeepNestingWithSharedChild(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	web := srv.SeedObject(fmc.TypeHosts, host("web", "10.0.0.1"))
	d := &fmc.Record{ID: "d-id", Name: "d", Type: "NetworkGroup", Objects: []fmc.ChildRef{fmctest.Ref(web)}}
	cGroup := &fmc.Record{ID: "c-id", Name: "c", Type: "NetworkGroup", Objects: []fmc.ChildRef{fmctest.Ref(d)}}
	b := &fmc.Record{ID: "b-id", Name: "b", Type: "NetworkGroup", Objects: []fmc.ChildRef{fmctest.Ref(cGroup)}}
	a := &fmc.Record{ID: "a-id", Name: "a", Type: "NetworkGroup", Objects: []fmc.ChildRef{fmctest.Ref(b)}}

	for _, rec := range []*fmc.Record{a, b, cGroup, d, networkGroup("p2", d)} {
		srv.SeedObject(fmc.TypeNetworkGroups, rec)
	}

	table := buildTable(t, c, fmc.TypeNetworkGroups)

	assert.Equal(t, []string{"d", "c", "b", "a", "p2"}, entryNames(table.Entries()))
	assert.Equal(t, 1, srv.RequestCount("GET", "/networkgroups/d-id"), "a shared child is fetched once")
	assert.Equal(t, 1, srv.RequestCount("GET", "/networkgroups/c-id"))
	assert.Equal(t, 1, srv.RequestCount("GET", "/networkgroups/b-id"))
	assert.Equal(t, 0, srv.RequestCount("GET", "/networkgroups/a-id"))

	first := table.Entries()

	require.NoError(t, table.Build(context.Background()))
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, first, table.Entries())
}

func TestObjectTable_CyclicReference(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	a := &fmc.Record{ID: "a-id", Name: "a", Type: "NetworkGroup"}
	b := &fmc.Record{ID: "b-id", Name: "b", Type: "NetworkGroup"}
	a.Objects = []fmc.ChildRef{fmctest.Ref(b)}
	b.Objects = []fmc.ChildRef{fmctest.Ref(a)}

	srv.SeedObject(fmc.TypeNetworkGroups, a)
	srv.SeedObject(fmc.TypeNetworkGroups, b)

	table, err := c.ObjectTable(fmc.TypeNetworkGroups)
	require.NoError(t, err)

	err = table.Build(context.Background())
	require.ErrorIs(t, err, fmc.ErrCyclicReference)
}

func TestObjectTable_NestedFetchFailure(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	missing := &fmc.Record{ID: "missing-id", Name: "missing", Type: "NetworkGroup"}
	srv.SeedObject(fmc.TypeNetworkGroups, networkGroup("outer", missing))

	table, err := c.ObjectTable(fmc.TypeNetworkGroups)
	require.NoError(t, err)

	err = table.Build(context.Background())
	require.Error(t, err)
	assert.True(t, fmc.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing")
}

func TestObjectTable_Objects(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	srv.SeedObject(fmc.TypeHosts, host("a", "10.0.0.1"))
	srv.SeedObject(fmc.TypeHosts, host("b", "10.0.0.2"))

	table, err := c.ObjectTable(fmc.TypeHosts)
	require.NoError(t, err)

	var names []string

	err = table.Objects(context.Background(), func(obj fmc.Object) error {
		assert.Equal(t, fmc.StateBound, obj.State())
		assert.Equal(t, fmc.TypeHosts, obj.Type())
		names = append(names, obj.Name())

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, table.Len(), "bound objects are recorded")
}

func TestObjectTable_Restore(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	table, err := c.ObjectTable(fmc.TypeURLs)
	require.NoError(t, err)

	entries := []fmc.CacheEntry{{Name: "z", ID: "1"}, {Name: "a", ID: "2"}}
	table.Restore(entries)

	assert.Equal(t, entries, table.Entries())

	table.Restore(nil)
	assert.Equal(t, 0, table.Len())
}
