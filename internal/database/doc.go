// Package database provides the SQLite-backed run ledger for offlinify.
//
// The ledger records every processed document:
//   - One row per document run with its counters and the full JSON report
//   - One row per localized resource with its source URL, digest and flags
//
// Re-running a batch deletes and rebuilds the output directories, so the
// ledger is the only place where earlier runs of a stem remain visible.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because
// the database is a single file and the CGO-free driver keeps the
// binary easy to cross-compile. WAL mode lets `history` read while a batch writes.
package database
