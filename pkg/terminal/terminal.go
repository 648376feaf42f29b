package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/go-delve/liner"
	sys "golang.org/x/sys/unix"

	"github.com/go-sdb/sdb/pkg/config"
	"github.com/go-sdb/sdb/pkg/logflags"
	"github.com/go-sdb/sdb/pkg/proc"
)

const historyFile string = ".sdb_history"

// Term represents the terminal running sdb.
type Term struct {
	target   proc.Process
	conf     *config.Config
	prompt   string
	line     *liner.State
	cmds     *Commands
	colors   bool
	stdout   io.Writer
	log      logflags.Logger
	InitFile string

	runningMutex sync.Mutex
	running      bool
}

// New returns a new Term controlling target.
func New(target proc.Process, conf *config.Config) *Term {
	cmds := DebugCommands()
	if conf != nil && conf.Aliases != nil {
		cmds.Merge(conf.Aliases)
	}

	if conf == nil {
		conf = &config.Config{}
	}

	return &Term{
		target: target,
		conf:   conf,
		prompt: "sdb> ",
		line:   liner.NewLiner(),
		cmds:   cmds,
		colors: colorsEnabled(os.Stdout),
		stdout: getColorableWriter(),
		log:    logflags.TerminalLogger(),
	}
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	t.line.Close()
}

func (t *Term) setRunning(running bool) {
	t.runningMutex.Lock()
	t.running = running
	t.runningMutex.Unlock()
}

func (t *Term) isRunning() bool {
	t.runningMutex.Lock()
	defer t.runningMutex.Unlock()
	return t.running
}

// sigintGuard stops the target when the user presses ctrl-C while it is
// running. The target is in its own process group and never sees the
// SIGINT itself.
func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		if !t.isRunning() {
			fmt.Fprintln(t.stdout, "received SIGINT, type 'exit' to quit")
			continue
		}
		fmt.Fprintln(t.stdout, "received SIGINT, stopping process (will not forward signal)")
		if err := sys.Kill(t.target.Pid(), sys.SIGSTOP); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

// Run begins running sdb in the terminal.
func (t *Term) Run() (int, error) {
	defer t.Close()

	// Stop the target on SIGINT
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	defer signal.Stop(ch)
	go t.sigintGuard(ch)

	t.line.SetCompleter(t.cmds.complete)

	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
	}

	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
		}
	}
	if f != nil {
		t.line.ReadHistory(f)
		f.Close()
	}
	fmt.Fprintln(t.stdout, "Type 'help' for list of commands.")

	if t.InitFile != "" {
		err := t.cmds.executeFile(t, t.InitFile)
		if err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}
			fmt.Fprintf(os.Stderr, "Error executing init file: %s\n", err)
		}
	}

	for {
		cmdstr, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				return t.handleExit()
			}
			return 1, errors.New("Prompt for input failed.")
		}

		if exit, err := t.execute(cmdstr); exit {
			return t.handleExit()
		} else if err != nil {
			fmt.Fprintf(os.Stderr, "Command failed: %s\n", err)
		}
	}
}

// execute runs a single command line. It returns true if the user asked
// to leave the debugger.
func (t *Term) execute(cmdstr string) (bool, error) {
	if err := t.cmds.Call(cmdstr, t); err != nil {
		if _, ok := err.(ExitRequestError); ok {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// Println prints a line to the terminal, highlighted with the given ANSI
// color when colors are enabled.
func (t *Term) Println(color int, str string) {
	if t.colors && color != 0 {
		str = fmt.Sprintf(terminalHighlightEscapeCode+"%s"+terminalResetEscapeCode, color, str)
	}
	fmt.Fprintln(t.stdout, str)
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func (t *Term) handleExit() (int, error) {
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
	} else {
		if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR|os.O_TRUNC, 0666); err == nil {
			_, err = t.line.WriteHistory(f)
			if err != nil {
				fmt.Println("readline history error:", err)
			}
			f.Close()
		}
	}

	if err := t.target.Close(); err != nil {
		return 1, err
	}
	return 0, nil
}
