// Package database provides the PostgreSQL connection pool and the
// idempotent schema bootstrap for the collector's persisted state:
// cursors, run leases, stream blocks, and the per-stream record
// tables with their natural-key uniqueness constraints.
package database
