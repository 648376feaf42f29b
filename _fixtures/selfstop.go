package main

import (
	"os"
	"runtime"
	"syscall"
)

func init() {
	// Keep main on the initial thread, the only one a tracer attached
	// by PTRACE_TRACEME sees.
	runtime.LockOSThread()
}

func main() {
	syscall.Tgkill(os.Getpid(), syscall.Gettid(), syscall.SIGSTOP)
	os.Exit(0)
}
