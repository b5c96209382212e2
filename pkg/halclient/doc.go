// Package halclient provides the primary entry point for constructing a
// HAL API client that implements the hal.Client interface.
//
// It layers configuration, the retrying HTTP transport, and the
// per-particle finder registry on top of the types defined in the hal
// package. Most applications should import halclient to build a client,
// then call Model() on the returned hal.Client to obtain a finder for
// each collection they work with.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/hal-client/pkg/hal"
//	  "github.com/fivetwenty-io/hal-client/pkg/halclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Minimal: just an API endpoint.
//	  cli, err := halclient.New(ctx, &hal.Config{Endpoint: "https://api.example.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Or with static headers for APIs behind a gateway:
//	  cli, err = halclient.New(ctx, &hal.Config{
//	    Endpoint: "https://api.example.com",
//	    Headers:  map[string]string{"Authorization": "Bearer eyJhbGciOi..."},
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  // Work with a collection through its finder.
//	  books := cli.Model("books")
//	  page, err := books.Find(ctx, hal.KindAll, hal.NewParams().WithCount(20))
//	  if err != nil { log.Fatal(err) }
//	  _ = page
//	}
//
// # Endpoint normalization
//
// New trims a trailing slash from the endpoint and prepends "https://"
// when no scheme is given, so "api.example.com/" and
// "https://api.example.com" configure the same client.
//
// # Caching
//
// Every finder memoizes successful query results for its lifetime (see
// the hal package docs). The backend is chosen by Config.Cache: nil
// selects an unbounded in-memory cache per finder; a NATS JetStream
// key-value bucket can be configured for processes that should share
// entries.
//
// # Helpers
//
// The package also provides convenience constructors NewWithEndpoint and
// NewWithToken that wrap New with the appropriate configuration.
package halclient
