package proc

import (
	sys "golang.org/x/sys/unix"
)

// ProcessState is the last observed run state of a target process.
type ProcessState uint8

const (
	Stopped ProcessState = iota
	Running
	Exited
	Terminated
)

func (s ProcessState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// Terminal returns true if no process is left to resume or wait on.
func (s ProcessState) Terminal() bool {
	return s == Exited || s == Terminated
}

// StopReason describes why a wait on the target returned.
//
// Info is the exit status when Reason is Exited, the number of the
// terminating signal when Reason is Terminated and the number of the
// stopping signal when Reason is Stopped.
type StopReason struct {
	Reason ProcessState
	Info   uint8
}

// NewStopReason decodes a wait status returned by wait4(2).
// Statuses that are neither an exit, a death by signal nor a signal-stop
// (a WIFCONTINUED status, for example) are returned as an
// *UnknownWaitStatusError.
func NewStopReason(status sys.WaitStatus) (StopReason, error) {
	switch {
	case status.Exited():
		return StopReason{Reason: Exited, Info: uint8(status.ExitStatus())}, nil
	case status.Signaled():
		return StopReason{Reason: Terminated, Info: uint8(status.Signal())}, nil
	case status.Stopped():
		return StopReason{Reason: Stopped, Info: uint8(status.StopSignal())}, nil
	}
	return StopReason{}, &UnknownWaitStatusError{Status: status}
}

// Signal returns the signal carried by a Terminated or Stopped reason.
func (sr StopReason) Signal() sys.Signal {
	if sr.Reason == Exited {
		return 0
	}
	return sys.Signal(sr.Info)
}
