// Package api provides the REST client for the upstream market-data vendor.
//
// Endpoints:
//   - GET /api/darkpool/{symbol}   dark-pool trade prints (max page 200)
//   - GET /api/news/headlines      news headlines (max page 100)
//   - GET /api/flow/alerts         option-flow signals (max page 200)
//
// All endpoints accept limit plus either newer_than (incremental walks)
// or older_than/page (backfill walks), and are paginated without a
// server-side cursor token: a page shorter than the requested limit
// means the stream is exhausted.
//
// Every request waits on a shared token-bucket limiter sized to the
// vendor's published budget (120 requests/min by default).
package api
