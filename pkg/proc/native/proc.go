package native

import (
	"os"
	"runtime"

	"github.com/go-sdb/sdb/pkg/proc"
)

// Process is the handle the debugger holds on a single operating system
// process. It owns the process ID exclusively: handles are only created by
// Launch and Attach and must be released with Close once the debug session
// ends.
type Process struct {
	pid int // Process Pid, 0 if no process is managed

	// terminateOnEnd is set for processes created by Launch, their lifetime
	// ends with the handle.
	terminateOnEnd bool
	// traceAttached is set when the process is traced by this handle.
	traceAttached bool

	state proc.ProcessState

	ptrace *ptraceThread
	ctty   *os.File // controlling terminal of the target, if we opened one
	closed bool
}

var _ proc.Process = (*Process)(nil)

func newProcess(pid int, ptrace *ptraceThread, terminateOnEnd, traceAttached bool) *Process {
	dbp := &Process{
		pid:            pid,
		terminateOnEnd: terminateOnEnd,
		traceAttached:  traceAttached,
		state:          proc.Stopped,
		ptrace:         ptrace,
	}
	if !traceAttached {
		// Nothing will ever stop an untraced process on our behalf.
		dbp.state = proc.Running
	}
	return dbp
}

// Pid returns the process ID.
func (dbp *Process) Pid() int {
	return dbp.pid
}

// State returns the last observed run state of the process.
func (dbp *Process) State() proc.ProcessState {
	return dbp.state
}

// Traced returns true if the process is under ptrace control of this handle.
func (dbp *Process) Traced() bool {
	return dbp.traceAttached
}

// Owned returns true if closing the handle kills the process.
func (dbp *Process) Owned() bool {
	return dbp.terminateOnEnd
}

func (dbp *Process) valid() bool {
	return dbp.pid != 0 && !dbp.closed
}

func (dbp *Process) execPtraceFunc(fn func()) {
	dbp.ptrace.exec(fn)
}

// ptraceThread runs functions on a goroutine locked to a single OS thread.
// ptrace(2) expects all requests after PTRACE_ATTACH, or after the fork of
// a PTRACE_TRACEME child, to come from the tracing thread.
type ptraceThread struct {
	ptraceChan     chan func()
	ptraceDoneChan chan struct{}
}

func newPtraceThread() *ptraceThread {
	pt := &ptraceThread{
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan struct{}),
	}
	go pt.handlePtraceFuncs()
	return pt
}

func (pt *ptraceThread) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread during
	// while invoking the ptrace(2) syscall. This is due to the fact that ptrace(2) expects
	// all commands after PTRACE_ATTACH to come from the same thread.
	runtime.LockOSThread()

	for fn := range pt.ptraceChan {
		fn()
		pt.ptraceDoneChan <- struct{}{}
	}
	// Leave the thread locked so that the runtime discards it when the
	// goroutine exits, any leftover tracer state goes with it.
}

func (pt *ptraceThread) exec(fn func()) {
	pt.ptraceChan <- fn
	<-pt.ptraceDoneChan
}

func (pt *ptraceThread) release() {
	close(pt.ptraceChan)
}
