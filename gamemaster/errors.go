package gamemaster

import "fmt"

// Failure sentinels for agent calls. Proxies wrap these so the scheduler can
// classify a failed move request with errors.Is.
var (
	// ErrTimeout means the agent did not answer within the move deadline.
	// Recovered locally up to the timeout maximum.
	ErrTimeout = fmt.Errorf("agent timed out")
	// ErrMoveRejected means the agent answered with an illegal move.
	// Recovered on the same path as ErrTimeout.
	ErrMoveRejected = fmt.Errorf("agent move rejected")
	// ErrDisconnected means the agent's transport failed. Fatal for that
	// team, no recovery.
	ErrDisconnected = fmt.Errorf("agent disconnected")
	// ErrMatchAborted is returned by Play when the context is cancelled.
	ErrMatchAborted = fmt.Errorf("match aborted")
)

// ConfigError is raised by Start when the registered teams do not match the
// universe. It is fatal: the match never begins.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "gamemaster config: " + e.Reason
}
