// Package fmcclient provides the main entry point for creating FMC API clients
package fmcclient

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fivetwenty-io/fmc-client/internal/client"
	"github.com/fivetwenty-io/fmc-client/pkg/fmc"
)

// Environment variables read by NewFromEnv.
const (
	EnvURL      = "FMC_URL"
	EnvUsername = "FMC_USERNAME"
	EnvPassword = "FMC_PASSWORD"
	EnvDomain   = "FMC_DOMAIN"
	EnvInsecure = "FMC_INSECURE"
)

// New logs in to the FMC server described by config and returns a client
// ready for use. Call Logout on the client when done.
func New(ctx context.Context, config *fmc.Config) (fmc.Client, error) {
	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithPassword creates a new client using username/password authentication.
func NewWithPassword(ctx context.Context, url, username, password string) (fmc.Client, error) {
	return New(ctx, &fmc.Config{
		URL:      url,
		Username: username,
		Password: password,
	})
}

// NewFromEnv creates a client from FMC_URL, FMC_USERNAME, FMC_PASSWORD and
// the optional FMC_DOMAIN and FMC_INSECURE.
func NewFromEnv(ctx context.Context) (fmc.Client, error) {
	insecure, _ := strconv.ParseBool(os.Getenv(EnvInsecure))

	return New(ctx, &fmc.Config{
		URL:                os.Getenv(EnvURL),
		Username:           os.Getenv(EnvUsername),
		Password:           os.Getenv(EnvPassword),
		Domain:             os.Getenv(EnvDomain),
		InsecureSkipVerify: insecure,
	})
}

// Migrate copies every object of types from src to dst, members before the
// groups containing them.
func Migrate(ctx context.Context, src, dst fmc.Client, types ...fmc.ObjectType) (*fmc.MigrationReport, error) {
	return dst.Migrate(ctx, src, types...)
}

// Purge deletes every object of objType on c.
func Purge(ctx context.Context, c fmc.Client, objType fmc.ObjectType) (*fmc.PurgeReport, error) {
	return c.Purge(ctx, objType)
}

// ServerKey returns the form of url a client uses to key its table snapshots.
func ServerKey(url string) string {
	return client.NormalizeURL(url)
}
