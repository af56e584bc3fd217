// Package core provides the business logic for bulk catalog imports.
//
// This package contains all domain logic independent of any transport. It is
// used by the web handlers, the importctl CLI and tests without modification.
//
// # Pipeline
//
// One import call flows through these stages:
//
//  1. [Decode] turns the uploaded bytes into ordered [RawRow] values, choosing
//     CSV or spreadsheet parsing from the filename suffix. Spreadsheets are
//     read as BIFF8 or OOXML depending on their content.
//  2. [Normalize] maps raw headers to canonical names through the endpoint's
//     [HeaderMap] and rejects names outside the endpoint's field set.
//  3. [Coerce] converts each value according to its [FieldSpec].
//  4. [Assemble] enforces required fields and yields a [RowOutcome].
//  5. The [Store] upserts each surviving record by its natural key.
//  6. [Aggregator] collects counts and ordered row errors into an [ImportResult].
//
// Stages 2 to 5 run once per row. A failing row never stops the batch: its
// errors are recorded and the next row is processed.
//
// # Endpoints
//
// An [Endpoint] bundles the HeaderMap, the FieldSpec list, the target
// collection and the natural key. Endpoints are plain values collected into a
// [Registry] at start-up:
//
//	reg := core.MustRegistry(endpoints.Reports(), endpoints.Blogs())
//	svc := core.NewService(store, reg, core.Options{Workers: 4})
//	result, err := svc.Import(ctx, "reports", "reports.csv", data)
//
// # Invalid values
//
// Each FieldSpec chooses what happens to a value that fails coercion:
// [DropWithError] removes the field and records a row error, [DropSilently]
// removes it without a message. Invalid required references skip the row.
//
// # Error Handling
//
// Request-level errors ([ErrUnsupportedFormat], [ErrParse],
// [ErrUnknownEndpoint], [ErrTooManyImports]) are returned from
// [Service.Import]. [MapError] turns them into user-facing messages with a
// support code.
package core
