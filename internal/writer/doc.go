// Package writer implements the deduplicating sink.
//
// Records are upserted in batches keyed by each stream's natural key
// (vendor trade id, headline+published_at composite, signal id) with
// ON CONFLICT DO NOTHING, giving idempotent at-least-once semantics:
// re-ingesting a page across a retry or crash boundary produces
// conflicts, not duplicates.
package writer
