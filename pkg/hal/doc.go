// Package hal provides types, interfaces, and helpers for working with
// REST APIs that follow the HAL (Hypertext Application Language)
// conventions: _embedded collections, _links relations, and
// application/problem+json error documents.
//
// # Overview
//
// The hal package defines the schemaless domain types (Record, Result,
// RawResponse) and the Finder interface for resource-oriented access to
// any collection ("particle") the remote API exposes. A concrete
// implementation of Finder is provided by the internal model registry,
// wired together by the halclient package, which layers configuration,
// HTTP transport, and caching on top of the primitives defined here.
// Most consumers should import halclient to construct a client and then
// interact with the Finder interface exposed here.
//
// Getting a client
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
//	  cli, err := halclient.New(ctx, &hal.Config{Endpoint: "https://api.example.com"})
//	  if err != nil { log.Fatal(err) }
//
//	  // Fetch the first matching book
//	  books := cli.Model("books")
//	  result, err := books.Find(ctx, hal.KindFirst, hal.NewParams().WithFilter("author", "Melville"))
//	  if err != nil { log.Fatal(err) }
//	  _ = result.Record
//	}
//
// # Queries and caching
//
// Use Params to express query options (count, page, embed, filters).
// Parameters canonicalize to a deterministic form, so two queries that
// differ only in construction order share one cache entry. Successful
// query results are cached per finder and never invalidated for the
// lifetime of the client; failures are never cached.
//
// # Pagination and bulk fetching
//
// After a collection query, a finder can walk the collection's link
// relations:
//
//	result, err := books.Find(ctx, hal.KindAll, hal.NewParams().WithCount(25))
//	next, err := books.FindNext(ctx)       // nil result when no next page
//	total, ok := books.FindCount(ctx)      // false when no count is known
//
// FindAll accumulates every page into a single result, bounded by a hard
// page-turn ceiling. The package also provides CollectAll, StreamPages,
// and RecordIterator for explicit control over page walking.
//
// # Errors
//
// Remote failures are represented by DataError (carrying the HTTP status
// code) and rejected input by ValidationError. Helpers such as
// IsDataError, IsValidationError, and IsNotFound make it easy to branch
// on common cases. Transport-level failures are recorded against the
// finder's state rather than raised, so a dropped connection reads as an
// empty result.
//
// # Interceptors and batches
//
// The package includes request/response interceptors (for logging,
// header injection, and metrics) and a BatchExecutor that runs
// operations grouped by particle. The halclient package composes these
// pieces for a sensible default client; applications with advanced needs
// can also use these primitives directly.
package hal
