package client_test

import (
	"context"
	"testing"

	"github.com/fivetwenty-io/fmc-client/internal/client"
	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *fmctest.Server) *client.Client {
	t.Helper()

	c, err := client.New(context.Background(), &fmc.Config{
		URL:      srv.URL,
		Username: fmctest.Username,
		Password: fmctest.Password,
	})
	require.NoError(t, err)

	return c
}

func host(name, value string) *fmc.Record {
	return &fmc.Record{Name: name, Type: "Host", Value: value}
}

func network(name, value string) *fmc.Record {
	return &fmc.Record{Name: name, Type: "Network", Value: value}
}

func networkGroup(name string, members ...*fmc.Record) *fmc.Record {
	group := &fmc.Record{Name: name, Type: "NetworkGroup"}
	for _, m := range members {
		group.Objects = append(group.Objects, fmctest.Ref(m))
	}

	return group
}

func buildTable(t *testing.T, c *client.Client, objType fmc.ObjectType) fmc.ObjectTable {
	t.Helper()

	table, err := c.ObjectTable(objType)
	require.NoError(t, err)
	require.NoError(t, table.Build(context.Background()))

	return table
}

func entryNames(entries []fmc.CacheEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}

	return out
}
