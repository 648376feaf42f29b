package cmds

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/go-sdb/sdb/cmd/sdb/cmds/helphelpers"
	"github.com/go-sdb/sdb/pkg/config"
	"github.com/go-sdb/sdb/pkg/logflags"
	"github.com/go-sdb/sdb/pkg/proc"
	"github.com/go-sdb/sdb/pkg/proc/native"
	"github.com/go-sdb/sdb/pkg/terminal"
	"github.com/go-sdb/sdb/pkg/version"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// logDest is the file path or file descriptor where logs should go.
	logDest string
	// attachPid is the pid of the process to attach to.
	attachPid int
	// initFile is the path to initialization file.
	initFile string
	// workingDir is the working directory for running the program.
	workingDir string
	// tty is used to provide an alternate TTY for the program you wish to debug.
	tty string
	// disableASLR is whether to launch the program with address space randomization disabled.
	disableASLR bool

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	conf *config.Config
)

var errNoArgument = errors.New("No argument provided")

const sdbCommandLongDesc = `sdb is a debugger for native Linux programs.

sdb either launches a program and stops it before it executes its first
instruction, or attaches to a process that is already running. The process
is then controlled from an interactive prompt.

Pass flags to the program you are debugging using ` + "`--`" + `, for example:

` + "`sdb ./hello -- --config conf/config.toml`"

// New returns an initialized command tree.
func New(docCall bool) *cobra.Command {
	// Config setup and load.
	var err error
	conf, err = config.LoadConfig()
	if err != nil && !docCall {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	// Main sdb root command.
	rootCommand = &cobra.Command{
		Use:   "sdb [flags] <program> [-- args...]",
		Short: "sdb is a debugger for native Linux programs.",
		Long:  sdbCommandLongDesc,
		Args: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("pid") && len(args) == 0 {
				return errNoArgument
			}
			if cmd.Flags().Changed("pid") && len(args) > 0 {
				return errors.New("a program can not be launched when attaching to a process")
			}
			return nil
		},
		SilenceUsage: true,
		Run:          rootCmd,
	}

	addLogFlags(rootCommand.PersistentFlags())
	rootCommand.Flags().IntVarP(&attachPid, "pid", "p", 0, "Pid of the process to attach to.")
	rootCommand.Flags().StringVar(&initFile, "init", "", "Init file, executed by the terminal client.")
	rootCommand.Flags().StringVar(&workingDir, "wd", "", "Working directory for running the program.")
	rootCommand.Flags().StringVar(&tty, "tty", "", "TTY to use for the target program.")
	rootCommand.Flags().BoolVar(&disableASLR, "disable-aslr", false, "Disables address space randomization.")
	// Everything after the program name belongs to the program.
	rootCommand.Flags().SetInterspersed(false)

	defaultHelp := rootCommand.HelpFunc()
	rootCommand.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helphelpers.Prepare(cmd, cmd.Flags().Changed("pid"))
		defaultHelp(cmd, args)
	})

	// 'version' subcommand.
	var versionVerbose = false
	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sdb Debugger\n%s\n", version.SdbVersion)
			if versionVerbose {
				fmt.Fprintf(cmd.OutOrStdout(), "Build Details: %s\n", version.BuildInfo())
			}
		},
	}
	versionCommand.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "print verbose version info")
	rootCommand.AddCommand(versionCommand)

	rootCommand.AddCommand(&cobra.Command{
		Use:   "log",
		Short: "Help about logging flags.",
		Long: `Logging can be enabled by specifying the --log flag and using the
--log-output flag to select which components should produce logs.

The argument of --log-output must be a comma separated list of component
names selected from this list:


	debugger	Log process launch, attach, stops and teardown
	ptrace		Log every ptrace request and wait status
	terminal	Log commands executed by the terminal

Additionally --log-dest can be used to specify where the logs should be
written.
If the argument is a number it will be interpreted as a file descriptor,
otherwise as a file path.

`,
	})

	rootCommand.DisableAutoGenTag = true

	return rootCommand
}

// addLogFlags registers the logging flags shared by every command on fs.
func addLogFlags(fs *pflag.FlagSet) {
	fs.BoolVarP(&log, "log", "", false, "Enable debugger logging.")
	fs.StringVarP(&logOutput, "log-output", "", "", `Comma separated list of components that should produce debug output (see 'sdb help log')`)
	fs.StringVarP(&logDest, "log-dest", "", "", "Writes logs to the specified file or file descriptor (see 'sdb help log').")
}

func rootCmd(cmd *cobra.Command, args []string) {
	os.Exit(execute(attachPid, cmd.Flags().Changed("pid"), programArgs(args)))
}

// programArgs returns the program followed by its arguments. A "--"
// between the program and its arguments is dropped.
func programArgs(args []string) []string {
	if len(args) > 1 && args[1] == "--" {
		return append([]string{args[0]}, args[2:]...)
	}
	return args
}

func execute(pid int, attach bool, processArgs []string) int {
	if err := logflags.Setup(log, logOutput, logDest); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer logflags.Close()

	if !attach && len(processArgs) == 0 {
		fmt.Fprintln(os.Stderr, errNoArgument)
		return 1
	}

	p, err := openTarget(pid, attach, processArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer p.Close()

	term := terminal.New(p, conf)
	term.InitFile = initFile
	status, err := term.Run()
	if err != nil {
		fmt.Println(err)
	}
	return status
}

func openTarget(pid int, attach bool, processArgs []string) (*native.Process, error) {
	if attach {
		if workingDir != "" || tty != "" || disableASLR {
			fmt.Fprint(os.Stderr, "Warning: --wd, --tty and --disable-aslr are ignored when attaching\n")
		}
		return native.Attach(pid)
	}
	var flags proc.LaunchFlags
	if disableASLR || (conf != nil && conf.DisableASLR) {
		flags |= proc.LaunchDisableASLR
	}
	return native.Launch(processArgs, proc.LaunchConfig{
		Trace:      true,
		WorkingDir: workingDir,
		TTY:        tty,
		Flags:      flags,
	})
}
