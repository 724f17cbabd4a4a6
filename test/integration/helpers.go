//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
	"github.com/fivetwenty-io/fmc-client/pkg/fmcclient"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	URL      string
	Username string
	Password string
	Insecure bool

	// Second server for migration tests, optional.
	DestURL      string
	DestUsername string
	DestPassword string
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	insecure, _ := strconv.ParseBool(os.Getenv("FMC_INSECURE"))

	return &TestConfig{
		URL:          os.Getenv("FMC_URL"),
		Username:     os.Getenv("FMC_USERNAME"),
		Password:     os.Getenv("FMC_PASSWORD"),
		Insecure:     insecure,
		DestURL:      os.Getenv("FMC_DEST_URL"),
		DestUsername: os.Getenv("FMC_DEST_USERNAME"),
		DestPassword: os.Getenv("FMC_DEST_PASSWORD"),
	}
}

// SkipIfMissingConfig skips the test when no FMC server is configured
func (c *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if c.URL == "" || c.Username == "" || c.Password == "" {
		t.Skip("FMC_URL, FMC_USERNAME and FMC_PASSWORD are required for integration tests")
	}
}

// Connect logs in to the configured server and logs out when t ends
func (c *TestConfig) Connect(t *testing.T) fmc.Client {
	t.Helper()

	return connect(t, c.URL, c.Username, c.Password, c.Insecure)
}

// ConnectDestination logs in to the migration destination or skips t
func (c *TestConfig) ConnectDestination(t *testing.T) fmc.Client {
	t.Helper()

	if c.DestURL == "" || c.DestUsername == "" || c.DestPassword == "" {
		t.Skip("FMC_DEST_URL, FMC_DEST_USERNAME and FMC_DEST_PASSWORD are required for migration tests")
	}

	return connect(t, c.DestURL, c.DestUsername, c.DestPassword, c.Insecure)
}

func connect(t *testing.T, url, username, password string, insecure bool) fmc.Client {
	t.Helper()

	client, err := fmcclient.New(context.Background(), &fmc.Config{
		URL:                url,
		Username:           username,
		Password:           password,
		InsecureSkipVerify: insecure,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Logout(context.Background())
	})

	return client
}

// GenerateTestName generates a unique name for test objects
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("it-%s-%d", prefix, time.Now().UnixNano())
}

// DeleteByName removes an object if it still exists
func DeleteByName(client fmc.Client, objType fmc.ObjectType, name string) {
	ctx := context.Background()

	table, err := client.ObjectTable(objType)
	if err != nil {
		return
	}

	if _, ok := table.Lookup(name); !ok {
		return
	}

	obj, err := client.GetObjectByName(ctx, objType, name)
	if err != nil {
		return
	}

	_ = obj.Delete(ctx)
}
