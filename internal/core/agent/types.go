package agent

import "errors"

// Status represents the lifecycle state of an agent
type Status string

const (
	// StatusCreated indicates the agent has been created but not started
	StatusCreated Status = "created"
	// StatusStarting indicates tasks are being launched
	StatusStarting Status = "starting"
	// StatusRunning indicates the inbox and state handler tasks are running
	StatusRunning Status = "running"
	// StatusFailed indicates a state handler failed
	StatusFailed Status = "failed"
	// StatusStopped indicates the agent's context was cancelled
	StatusStopped Status = "stopped"
	// StatusCompleted indicates every task returned without error
	StatusCompleted Status = "completed"
)

// ErrAlreadyStarted is returned by Start and the Register methods once
// the agent has been started. Agents cannot be restarted.
var ErrAlreadyStarted = errors.New("agent already started")
