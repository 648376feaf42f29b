package native

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/go-sdb/sdb/pkg/logflags"
	"github.com/go-sdb/sdb/pkg/proc"
)

const (
	personalityGetPersonality = 0xffffffff // argument to pass to personality syscall to get the current personality
	_ADDR_NO_RANDOMIZE        = 0x0040000  // ADDR_NO_RANDOMIZE linux constant
)

// Launch creates a new process running the program cmd[0] with the
// arguments cmd[1:]. If conf.Trace is set the process is placed under
// ptrace control before it executes the program and the returned handle
// reports it stopped at the program's entry.
//
// The returned handle owns the process: closing it kills the process.
//
// A child that fails to enable tracing or to execute the program reports
// its errno to us through the close-on-exec pipe set up by the fork/exec
// path of package syscall, and is reaped before the error is returned.
func Launch(cmd []string, conf proc.LaunchConfig) (*Process, error) {
	if len(cmd) == 0 {
		return nil, errors.New("no program specified")
	}

	var (
		process *exec.Cmd
		ctty    *os.File
		err     error
	)

	pt := newPtraceThread()
	pt.exec(func() {
		if conf.Flags&proc.LaunchDisableASLR != 0 {
			oldPersonality, _, err := syscall.Syscall(sys.SYS_PERSONALITY, personalityGetPersonality, 0, 0)
			if err == syscall.Errno(0) {
				newPersonality := oldPersonality | _ADDR_NO_RANDOMIZE
				syscall.Syscall(sys.SYS_PERSONALITY, newPersonality, 0, 0)
				defer syscall.Syscall(sys.SYS_PERSONALITY, oldPersonality, 0, 0)
			}
		}

		process = exec.Command(cmd[0], cmd[1:]...)
		process.Stdin = os.Stdin
		process.Stdout = os.Stdout
		process.Stderr = os.Stderr
		process.SysProcAttr = &syscall.SysProcAttr{
			Ptrace:  conf.Trace,
			Setpgid: true,
		}
		if conf.TTY != "" {
			ctty, err = attachProcessToTTY(process, conf.TTY)
			if err != nil {
				return
			}
		}
		if conf.WorkingDir != "" {
			process.Dir = conf.WorkingDir
		}
		err = process.Start()
	})
	if err != nil {
		pt.release()
		if ctty != nil {
			ctty.Close()
		}
		return nil, launchError(err)
	}

	dbp := newProcess(process.Process.Pid, pt, true, conf.Trace)
	dbp.ctty = ctty
	// The process is reaped with wait4 from now on, os.Process must not
	// hold on to it.
	process.Process.Release()

	log := logflags.DebuggerLogger().WithField("pid", dbp.pid)
	log.Debugf("launched %q (trace=%v)", cmd, conf.Trace)

	if conf.Trace {
		if _, err := dbp.Wait(); err != nil {
			dbp.Close()
			return nil, err
		}
	}
	return dbp, nil
}

// launchError converts an error returned by exec.Cmd.Start into the error
// reported by Launch. Failures of the child between fork and exec are
// returned by the syscall package as a *os.PathError with the errno sent
// by the child.
func launchError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && pathErr.Op == "fork/exec" {
		return &proc.OSError{Op: "exec failed", Err: pathErr.Err}
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return &proc.OSError{Op: "exec failed", Err: execErr}
	}
	return err
}

// Attach places the existing process pid under ptrace control. The
// returned handle reports the process stopped; closing it detaches from
// the process and lets it run.
func Attach(pid int) (*Process, error) {
	if pid <= 0 {
		return nil, proc.ErrInvalidPid
	}

	pt := newPtraceThread()
	var err error
	pt.exec(func() { err = ptraceAttach(pid) })
	if err != nil {
		pt.release()
		return nil, &proc.OSError{Op: "Could not attach process", Err: err}
	}

	dbp := newProcess(pid, pt, false, true)
	logflags.DebuggerLogger().WithField("pid", pid).Debugf("attached")
	if _, err := dbp.Wait(); err != nil {
		dbp.Close()
		return nil, err
	}
	return dbp, nil
}

// Resume continues the process without delivering a signal to it.
func (dbp *Process) Resume() error {
	if !dbp.valid() {
		return proc.ErrNoProcess
	}
	var err error
	dbp.execPtraceFunc(func() { err = ptraceCont(dbp.pid, 0) })
	if err != nil {
		return &proc.OSError{Op: "resume failed", Err: err}
	}
	dbp.state = proc.Running
	return nil
}

// Wait blocks until the process stops, exits or is killed by a signal and
// returns the reason.
func (dbp *Process) Wait() (proc.StopReason, error) {
	if !dbp.valid() {
		return proc.StopReason{}, proc.ErrNoProcess
	}
	status, err := dbp.wait()
	if err != nil {
		return proc.StopReason{}, &proc.OSError{Op: "wait_on_signal failed", Err: err}
	}
	sr, err := proc.NewStopReason(status)
	if err != nil {
		return proc.StopReason{}, err
	}
	dbp.state = sr.Reason
	logflags.DebuggerLogger().WithField("pid", dbp.pid).Debugf("%s (%d)", sr.Reason, sr.Info)
	return sr, nil
}

func (dbp *Process) wait() (sys.WaitStatus, error) {
	var s sys.WaitStatus
	for {
		_, err := sys.Wait4(dbp.pid, &s, sys.WALL, nil)
		if err == sys.EINTR {
			continue
		}
		if err == nil && logflags.Ptrace() {
			logflags.PtraceLogger().Debugf("wait4 %d: %#x", dbp.pid, uint32(s))
		}
		return s, err
	}
}

// Close ends the debug session with the process. Processes created by
// Launch are killed and reaped, processes that were attached to are
// detached from and left running. Close is a no-op after the first call
// and for processes that already exited.
func (dbp *Process) Close() error {
	if dbp.closed {
		return nil
	}
	defer func() {
		dbp.closed = true
		dbp.ptrace.release()
		if dbp.ctty != nil {
			dbp.ctty.Close()
		}
	}()
	if dbp.pid == 0 || dbp.state.Terminal() {
		return nil
	}
	return dbp.teardown()
}

// teardown releases the process. A tracee must be stopped before it can
// be detached from, so a running tracee is stopped first. Owned processes
// are killed while still attached instead of being detached, resumed and
// then killed.
func (dbp *Process) teardown() error {
	log := logflags.DebuggerLogger().WithField("pid", dbp.pid)
	var errs []error

	if dbp.traceAttached && dbp.state == proc.Running {
		log.Debugf("stopping running tracee")
		if err := sys.Kill(dbp.pid, sys.SIGSTOP); err != nil {
			errs = append(errs, &proc.OSError{Op: "stop failed", Err: err})
		} else if _, err := dbp.Wait(); err != nil {
			errs = append(errs, err)
		}
		if dbp.state.Terminal() {
			return errors.Join(errs...)
		}
	}

	if dbp.traceAttached && !dbp.terminateOnEnd {
		log.Debugf("detaching")
		var err error
		dbp.execPtraceFunc(func() { err = ptraceDetach(dbp.pid, 0) })
		if err != nil {
			errs = append(errs, &proc.OSError{Op: "detach failed", Err: err})
		}
		if err := sys.Kill(dbp.pid, sys.SIGCONT); err != nil {
			errs = append(errs, &proc.OSError{Op: "continue failed", Err: err})
		}
	}

	if dbp.terminateOnEnd {
		log.Debugf("killing")
		if err := dbp.kill(); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Errorf("teardown: %v", err)
	}
	return err
}

// kill sends SIGKILL to the process and reaps it.
func (dbp *Process) kill() error {
	if err := sys.Kill(dbp.pid, sys.SIGKILL); err != nil {
		return &proc.OSError{Op: "kill failed", Err: err}
	}
	for {
		sr, err := dbp.Wait()
		if err != nil {
			return err
		}
		if sr.Reason.Terminal() {
			return nil
		}
	}
}
