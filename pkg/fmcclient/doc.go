// Package fmcclient provides the primary entry point for constructing a
// Firepower Management Center API client that implements the fmc.Client
// interface.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/fmc-client/pkg/fmc"
//	  "github.com/fivetwenty-io/fmc-client/pkg/fmcclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := fmcclient.New(ctx, &fmc.Config{
//	    URL:                "https://fmc.example.com",
//	    Username:           "api",
//	    Password:           "secret",
//	    InsecureSkipVerify: true,
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Logout(ctx)
//
//	  hosts, err := cli.ObjectTable(fmc.TypeHosts)
//	  if err != nil { log.Fatal(err) }
//	  if err := hosts.Build(ctx); err != nil { log.Fatal(err) }
//
//	  web, err := cli.GetObjectByName(ctx, fmc.TypeHosts, "web")
//	  if err != nil { log.Fatal(err) }
//	  _ = web.Rename(ctx, "web-01")
//	}
//
// # Migrating between servers
//
// Migrate copies objects from one server to another. Leaf types are copied
// before group types and nested groups after their members, so every child
// reference can be remapped by name on the destination:
//
//	report, err := fmcclient.Migrate(ctx, source, destination,
//	  fmc.TypeHosts, fmc.TypeNetworks, fmc.TypeNetworkGroups)
//
// Objects whose name already exists on the destination are adopted, not
// recreated.
//
// # Helpers
//
// NewWithPassword and NewFromEnv are shorthands for common configurations.
package fmcclient
