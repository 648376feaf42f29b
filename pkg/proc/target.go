package proc

// LaunchFlags modify how a new target is started.
type LaunchFlags uint8

const (
	// LaunchDisableASLR starts the target with address space layout
	// randomization turned off.
	LaunchDisableASLR LaunchFlags = 1 << iota
)

// LaunchConfig describes a target to start.
type LaunchConfig struct {
	// Trace places the new process under ptrace control before it
	// executes the target program.
	Trace bool
	// WorkingDir is the working directory of the new process. The
	// debugger's working directory is used if empty.
	WorkingDir string
	// TTY is the path of a terminal to use as the controlling terminal and
	// standard streams of the new process.
	TTY string
	// Flags holds additional launch options.
	Flags LaunchFlags
}
