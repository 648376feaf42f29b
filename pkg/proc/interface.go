package proc

// Process represents the target of the debugger.
type Process interface {
	// Pid returns the process ID of the target.
	Pid() int
	// State returns the last observed run state of the target.
	State() ProcessState
	// Resume continues the target without injecting a signal.
	Resume() error
	// Wait blocks until the target stops, exits or is killed by a signal.
	Wait() (StopReason, error)
	// Close releases the target, detaching from it or killing it.
	Close() error
}
