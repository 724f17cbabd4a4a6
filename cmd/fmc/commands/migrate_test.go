package commands_test

import (
	"encoding/json"
	"testing"

	"github.com/fivetwenty-io/fmc-client/cmd/fmc/commands"
	"github.com/fivetwenty-io/fmc-client/internal/constants"
	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:paralleltest // the commands read the global viper configuration
func TestMigrateCommand(t *testing.T) {
	t.Run("copies objects", func(t *testing.T) {
		src := fmctest.New(t)
		dst := fmctest.New(t)
		useServer(t, src)
		viper.Set("output", "json")

		hosts := seedHosts(src, "web", "db")
		src.SeedObject(fmc.TypeNetworkGroups, &fmc.Record{
			Name:    "servers",
			Type:    "NetworkGroup",
			Objects: []fmc.ChildRef{fmctest.Ref(hosts[0]), fmctest.Ref(hosts[1])},
		})
		seedHosts(dst, "web")

		out, err := execute(commands.NewMigrateCommand(),
			"networkgroups", "hosts",
			"--to-url", dst.URL,
			"--to-password", fmctest.Password,
		)
		require.NoError(t, err)

		var report fmc.MigrationReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		assert.ElementsMatch(t, []string{"hosts/db", "networkgroups/servers"}, report.Created)
		assert.Equal(t, []string{"hosts/web"}, report.Adopted)
		assert.Empty(t, report.Failed)

		assert.Equal(t, []string{"web", "db"}, dst.Names(fmc.TypeHosts))
		require.NotNil(t, dst.ObjectByName(fmc.TypeNetworkGroups, "servers"))
		assert.Equal(t, 1, src.RequestCount("POST", "/auth/revokeaccess"))
		assert.Equal(t, 1, dst.RequestCount("POST", "/auth/revokeaccess"))
	})

	t.Run("destination required", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)

		_, err := execute(commands.NewMigrateCommand(), "hosts")
		require.ErrorIs(t, err, constants.ErrDestinationNeeded)
	})

	t.Run("unknown type", func(t *testing.T) {
		viper.Reset()
		t.Cleanup(viper.Reset)

		_, err := execute(commands.NewMigrateCommand(), "widgets", "--to-url", "https://fmc.example.com")
		require.ErrorIs(t, err, constants.ErrUnknownObjectType)
	})

	t.Run("destination login failure", func(t *testing.T) {
		src := fmctest.New(t)
		dst := fmctest.New(t)
		useServer(t, src)

		_, err := execute(commands.NewMigrateCommand(), "hosts", "--to-url", dst.URL, "--to-password", "wrong")
		require.Error(t, err)
		assert.True(t, fmc.IsUnauthorized(err))
		assert.Equal(t, 1, src.RequestCount("POST", "/auth/revokeaccess"))
	})
}

//nolint:paralleltest // the commands read the global viper configuration
func TestPurgeCommand(t *testing.T) {
	t.Run("requires confirmation", func(t *testing.T) {
		srv := fmctest.New(t)
		useServer(t, srv)
		seedHosts(srv, "web")

		_, err := execute(commands.NewPurgeCommand(), "hosts")
		require.ErrorIs(t, err, constants.ErrPurgeNotConfirmed)
		assert.Equal(t, []string{"web"}, srv.Names(fmc.TypeHosts))
	})

	t.Run("keeps referenced objects", func(t *testing.T) {
		srv := fmctest.New(t)
		useServer(t, srv)
		viper.Set("output", "yaml")

		hosts := seedHosts(srv, "web", "db")
		srv.SeedObject(fmc.TypeNetworkGroups, &fmc.Record{
			Name:    "servers",
			Type:    "NetworkGroup",
			Objects: []fmc.ChildRef{fmctest.Ref(hosts[0])},
		})

		out, err := execute(commands.NewPurgeCommand(), "hosts", "--yes")
		require.NoError(t, err)
		assert.Contains(t, out, "- db")
		assert.Contains(t, out, "- web")
		assert.Equal(t, []string{"web"}, srv.Names(fmc.TypeHosts))
	})
}

//nolint:paralleltest // the commands read the global viper configuration
func TestTablesCommand(t *testing.T) {
	srv := fmctest.New(t)
	useServer(t, srv)
	seedHosts(srv, "web")

	out, err := execute(commands.NewTablesCommand(), "save", "hosts", "--store", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved 1 tables")

	// A memory store does not outlive the command.
	_, err = execute(commands.NewTablesCommand(), "show", "hosts", "--store", "memory")
	require.ErrorIs(t, err, fmc.ErrSnapshotNotFound)

	_, err = execute(commands.NewTablesCommand(), "show", "hosts", "--store", "none")
	require.ErrorIs(t, err, fmc.ErrStoreDisabled)

	_, err = execute(commands.NewTablesCommand(), "show", "hosts", "--store", "redis")
	require.ErrorIs(t, err, fmc.ErrUnsupportedStoreType)

	viper.Reset()

	_, err = execute(commands.NewTablesCommand(), "show", "hosts", "--store", "memory")
	require.ErrorIs(t, err, constants.ErrNoServerConfigured)
}

func TestStoreOptionsConfig(t *testing.T) {
	t.Parallel()

	config := commands.StoreOptions{Type: "nats", NATSURL: "nats://nats:4222", Bucket: "b"}.Config()
	assert.Equal(t, fmc.StoreTypeNATS, config.Type)
	require.NotNil(t, config.NATS)
	assert.Equal(t, "nats://nats:4222", config.NATS.URL)
	assert.Equal(t, "b", config.NATS.Bucket)

	config = commands.StoreOptions{Type: "memory"}.Config()
	assert.Equal(t, fmc.StoreTypeMemory, config.Type)
	assert.Nil(t, config.NATS)
}
