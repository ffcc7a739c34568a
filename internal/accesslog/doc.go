// Package accesslog records one line per API request in a flat, append-only
// text file and parses that same file back into typed records.
//
// # File Layout
//
// The file starts with a header block whose lines all begin with "=",
// followed by a blank line. Every other non-blank line is a data line:
//
//	[2026-10-19T08:15:00.000Z] POST /archivos/escribir 127.0.0.1
//
// The file is the only source of truth. Statistics, filtering, search,
// export and retention pruning all re-read and re-parse it; nothing is cached
// between calls. Data lines that do not match the grammar are skipped by
// every query (and kept by pruning).
//
// # Concurrency
//
// Append and PruneOlderThan are serialized by the engine's write lock, so a
// prune never discards an append that lands between its read and its
// rewrite. Queries take the read lock and see a consistent snapshot.
//
// # Failure Reporting
//
// Append never returns an error: a request must not fail because its audit
// line could not be written. Failures are delivered to the registered
// Observers and to the process logger instead.
package accesslog
