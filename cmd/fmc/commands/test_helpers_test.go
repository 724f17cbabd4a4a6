package commands_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/fmc-client/internal/fmctest"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// useServer points the global configuration at srv for the duration of t.
func useServer(t *testing.T, srv *fmctest.Server) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("url", srv.URL)
	viper.Set("username", fmctest.Username)
	viper.Set("password", fmctest.Password)
	viper.Set("output", "table")
}

// execute runs cmd with args and returns what it printed.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}
