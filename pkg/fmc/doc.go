// Package fmc provides types, interfaces, and helpers for working with the
// Firepower Management Center (FMC) REST API.
//
// # Overview
//
// The fmc package defines the record types, the resource taxonomy, the error
// kinds and the client interfaces. The concrete implementation lives behind
// the fmcclient package, which performs login, reads the server version and
// wires transport, rate limiting and the per-type object tables.
//
// Getting a client
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
//	  cli, err := fmcclient.New(ctx, &fmc.Config{
//	    URL:      "https://fmc.example.com",
//	    Username: "api",
//	    Password: "secret",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Logout(ctx)
//
//	  host, err := cli.CreateObject(ctx, &fmc.Record{Name: "web1", Type: "Host", Value: "10.0.0.1"})
//	  if err != nil { log.Fatal(err) }
//
//	  group, err := cli.GetObjectByName(ctx, fmc.TypeNetworkGroups, "web")
//	  if err != nil { log.Fatal(err) }
//	  _ = group.AddChildren(ctx, host.Name())
//	}
//
// # Object tables
//
// Every object type has an ObjectTable: an ordered name to identifier cache.
// Build walks the expanded listing and inserts nested members of the same
// type before the group that contains them, so iterating the table yields a
// safe creation order. Object mutations keep the table current.
//
// # Errors
//
// Validation and lookup failures are sentinel errors (ErrInvalidObjectType,
// ErrNameNotFound, ...) meant for errors.Is. Non-2xx responses are returned as
// *StatusError; IsNotFound, IsUnauthorized and IsConflict classify them.
//
// # Rate limiting
//
// FMC accepts at most 120 requests per minute. Clients count requests and
// sleep until the window has passed instead of failing.
package fmc
