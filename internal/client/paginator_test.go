package client_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingRequests(srv *fmctest.Server, fragment string) []string {
	var out []string

	for _, req := range srv.Requests() {
		if strings.HasPrefix(req, "GET ") && strings.Contains(req, fragment) {
			out = append(out, req)
		}
	}

	return out
}

func TestPaginator_FollowsPagesWithExpanded(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t, fmctest.WithPageSize(2))
	c := newTestClient(t, srv)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		srv.SeedObject(fmc.TypeHosts, host(fmt.Sprintf("web-%d", i), fmt.Sprintf("10.0.0.%d", i)))
	}

	pages, err := c.ListResources(ctx, fmc.ResourceObject, fmc.TypeHosts)
	require.NoError(t, err)

	items, err := pages.All(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)

	for i, item := range items {
		assert.Equal(t, fmt.Sprintf("web-%d", i+1), item.Name)
		assert.Equal(t, fmt.Sprintf("10.0.0.%d", i+1), item.Value, "listing must be expanded")
	}

	requests := listingRequests(srv, "/object/hosts")
	require.Len(t, requests, 3)

	for _, req := range requests {
		assert.Contains(t, req, "expanded=true")
	}
}

func TestPaginator_EmptyListing(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	pages, err := c.ListResources(ctx, fmc.ResourceObject, fmc.TypeNetworks)
	require.NoError(t, err)

	items, err := pages.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = pages.Next(ctx)
	require.ErrorIs(t, err, fmc.ErrNoMoreItems)

	assert.Len(t, listingRequests(srv, "/object/networks"), 1)
}

func TestPaginator_StopsAfterLastPage(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t, fmctest.WithPageSize(10))
	c := newTestClient(t, srv)
	ctx := context.Background()

	srv.SeedObject(fmc.TypeHosts, host("only", "10.0.0.1"))

	pages, err := c.ListResources(ctx, fmc.ResourceObject, fmc.TypeHosts)
	require.NoError(t, err)

	item, err := pages.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "only", item.Name)

	for i := 0; i < 3; i++ {
		_, err = pages.Next(ctx)
		require.ErrorIs(t, err, fmc.ErrNoMoreItems)
	}

	assert.Len(t, listingRequests(srv, "/object/hosts"), 1)
}

func TestPaginator_ForEachStopsOnError(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t, fmctest.WithPageSize(1))
	c := newTestClient(t, srv)
	ctx := context.Background()

	srv.SeedObject(fmc.TypeHosts, host("a", "10.0.0.1"))
	srv.SeedObject(fmc.TypeHosts, host("b", "10.0.0.2"))

	pages, err := c.ListResources(ctx, fmc.ResourceObject, fmc.TypeHosts)
	require.NoError(t, err)

	seen := 0
	err = pages.ForEach(ctx, func(*fmc.Record) error {
		seen++

		return fmc.ErrEmptyName
	})
	require.ErrorIs(t, err, fmc.ErrEmptyName)
	assert.Equal(t, 1, seen)
	assert.Len(t, listingRequests(srv, "/object/hosts"), 1)
}

func TestPaginator_PageError(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	srv.FailNext("GET", "/object/hosts", 404, `{"error":{"messages":[{"description":"gone"}]}}`)

	pages, err := c.ListResources(ctx, fmc.ResourceObject, fmc.TypeHosts)
	require.NoError(t, err)

	_, err = pages.All(ctx)
	require.Error(t, err)
	assert.True(t, fmc.IsNotFound(err))

	_, err = pages.Next(ctx)
	require.ErrorIs(t, err, fmc.ErrNoMoreItems)
}

func TestListResources_Validation(t *testing.T) {
	t.Parallel()

	srv := fmctest.New(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	_, err := c.ListResources(ctx, "bogus", fmc.TypeHosts)
	require.ErrorIs(t, err, fmc.ErrInvalidResourceType)

	_, err = c.ListResources(ctx, fmc.ResourcePolicy, fmc.TypeHosts)
	require.ErrorIs(t, err, fmc.ErrInvalidObjectType)

	_, err = c.ListPolicies(ctx, fmc.TypeNetworks)
	require.ErrorIs(t, err, fmc.ErrInvalidObjectType)

	assert.Empty(t, listingRequests(srv, "/domain/"))
}
