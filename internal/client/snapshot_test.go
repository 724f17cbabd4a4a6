package client_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotTables(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	ctx := context.Background()
	store := fmc.NewMemoryTableStore()

	srv.SeedObject(fmc.TypeHosts, host("web", "10.0.0.1"))
	srv.SeedObject(fmc.TypeHosts, host("db", "10.0.0.2"))

	first := newTestClient(t, srv)
	built := buildTable(t, first, fmc.TypeHosts)

	require.NoError(t, first.SnapshotTables(ctx, store))

	saved, err := store.Load(ctx, srv.URL, fmc.TypeHosts)
	require.NoError(t, err)
	assert.Equal(t, built.Entries(), saved.Entries)
	assert.False(t, saved.SavedAt.IsZero())

	_, err = store.Load(ctx, srv.URL, fmc.TypeNetworks)
	require.ErrorIs(t, err, fmc.ErrSnapshotNotFound)

	second := newTestClient(t, srv)
	srv.ResetRequests()

	require.NoError(t, second.RestoreTables(ctx, store))

	obj, err := second.GetObjectByName(ctx, fmc.TypeHosts, "db")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2", obj.Record().Value)
	assert.Equal(t, 0, srv.RequestCount("GET", "/object/hosts?"), "restored table needs no listing")
}

func TestRestoreTables_DisabledStore(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)

	require.NoError(t, c.RestoreTables(context.Background(), fmc.NewNoOpTableStore()))
	require.NoError(t, c.SnapshotTables(context.Background(), fmc.NewNoOpTableStore()))
}

func TestSnapshotTables_AfterLogout(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Logout(ctx))
	require.ErrorIs(t, c.SnapshotTables(ctx, fmc.NewMemoryTableStore()), fmc.ErrLoggedOut)
	require.ErrorIs(t, c.RestoreTables(ctx, fmc.NewMemoryTableStore()), fmc.ErrLoggedOut)
}
