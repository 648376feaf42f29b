//go:build !linux

package native

import "github.com/go-sdb/sdb/pkg/proc"

// Launch returns proc.ErrNativeBackendDisabled.
func Launch(_ []string, _ proc.LaunchConfig) (*Process, error) {
	return nil, proc.ErrNativeBackendDisabled
}

// Attach returns proc.ErrNativeBackendDisabled.
func Attach(_ int) (*Process, error) {
	return nil, proc.ErrNativeBackendDisabled
}

func (dbp *Process) Resume() error {
	return proc.ErrNativeBackendDisabled
}

func (dbp *Process) Wait() (proc.StopReason, error) {
	return proc.StopReason{}, proc.ErrNativeBackendDisabled
}

func (dbp *Process) Close() error {
	return nil
}
