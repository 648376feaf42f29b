package proc

import (
	"errors"
	"fmt"

	sys "golang.org/x/sys/unix"
)

var (
	// ErrInvalidPid is returned when attaching to a process ID that can
	// not name a process. No system call is made in that case.
	ErrInvalidPid = errors.New("Invalid pid")

	// ErrNoProcess is returned by operations on a handle that does not
	// manage a process.
	ErrNoProcess = errors.New("no process is being debugged")

	// ErrNativeBackendDisabled is returned when the native backend is not
	// available for the current operating system.
	ErrNativeBackendDisabled = errors.New("native backend disabled")
)

// OSError is returned when a system call made while controlling the target
// fails. This includes failures reported by a child process that could not
// be started.
type OSError struct {
	// Op describes the operation that failed.
	Op string
	// Err is the underlying error, usually a syscall.Errno.
	Err error
}

func (e *OSError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OSError) Unwrap() error { return e.Err }

// UnknownWaitStatusError is returned when a wait status does not describe
// an exit, a death by signal or a signal-stop.
type UnknownWaitStatusError struct {
	Status sys.WaitStatus
}

func (e *UnknownWaitStatusError) Error() string {
	return fmt.Sprintf("unknown wait status %#x", uint32(e.Status))
}
