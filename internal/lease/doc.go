// Package lease implements the time-bounded exclusivity token that
// keeps at most one collection cycle running per stream.
//
// Acquire fails fast with ErrHeld when a non-expired lease exists: the
// triggering invocation simply exits, with no queuing and no retry
// storm. An expired lease is stolen atomically, so a crashed holder is
// reclaimed by the next scheduled trigger without operator action.
package lease
