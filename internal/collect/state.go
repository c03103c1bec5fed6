package collect

// State is a collection cycle's lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateAcquiring State = "acquiring"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)
