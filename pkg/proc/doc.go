// Package proc is a low-level package that describes the process we are
// debugging: its run state, the reason it last stopped, and the errors
// returned while controlling it.
//
// The operating system specific backend lives in proc/native, which
// implements:
// * creating / attaching to a process
// * resuming it and waiting for its next state change
// * detaching from or killing it when the debug session ends
//
package proc
