// Package cursor persists the last-confirmed watermark per
// (stream, symbol) pair, plus the per-stream authorization blocks.
//
// Advance is a conditional upsert: a watermark older than the stored
// one is ignored and logged as an anomaly, so the stored value is
// always the running maximum regardless of call order.
package cursor
