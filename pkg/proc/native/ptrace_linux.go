package native

import (
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/go-sdb/sdb/pkg/logflags"
)

// ptraceAttach executes the sys.PtraceAttach call.
func ptraceAttach(pid int) error {
	logPtrace("PTRACE_ATTACH", pid)
	return sys.PtraceAttach(pid)
}

// ptraceDetach calls ptrace(PTRACE_DETACH).
func ptraceDetach(tid, sig int) error {
	logPtrace("PTRACE_DETACH", tid)
	_, _, err := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_DETACH, uintptr(tid), 1, uintptr(sig), 0, 0)
	if err != syscall.Errno(0) {
		return err
	}
	return nil
}

// ptraceCont executes ptrace PTRACE_CONT
func ptraceCont(tid, sig int) error {
	logPtrace("PTRACE_CONT", tid)
	return sys.PtraceCont(tid, sig)
}

func logPtrace(request string, pid int) {
	if logflags.Ptrace() {
		logflags.PtraceLogger().Debugf("%s %d", request, pid)
	}
}
