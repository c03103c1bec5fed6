// Package collect runs collection cycles.
//
// A coordinator drives one stream through the cycle state machine
//
//	Idle -> Acquiring -> Running -> {Completed, Failed, TimedOut} -> Idle
//
// under a TTL/heartbeat lease, pulling pages from the paginator,
// persisting them through the deduplicating sink, and advancing the
// cursor only after the corresponding page is durably written. No
// error path advances the cursor past unpersisted data, which is what
// makes restart-then-resume safe.
package collect
