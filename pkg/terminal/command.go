// Package terminal implements functions for responding to user
// input and dispatching to appropriate backend commands.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cosiner/argv"
	"github.com/derekparker/trie"
	sys "golang.org/x/sys/unix"

	"github.com/go-sdb/sdb/pkg/proc"
)

type cmdfunc func(t *Term, args string) error

type command struct {
	aliases        []string
	builtinAliases []string
	group          commandGroup
	helpMsg        string
	cmdFn          cmdfunc
}

// Returns true if the command string matches one of the aliases for this command
func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

// Commands represents the commands for the sdb terminal.
type Commands struct {
	cmds    []command
	lastCmd string

	// index maps every alias to the position of its command in cmds.
	index *trie.Trie
}

// byFirstAlias will sort by the first
// alias of a command.
type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// DebugCommands returns a Commands struct with default commands defined.
func DebugCommands() *Commands {
	c := &Commands{}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{aliases: []string{"continue", "c"}, group: runCmds, cmdFn: cont, helpMsg: `Run until the process stops, exits or is killed.

	continue

When the process stops again the reason is printed, for example:

	Process 1234 stopped with signal TRAP
	Process 1234 exited with status 0
	Process 1234 terminated with signal KILL`},
		{aliases: []string{"config"}, cmdFn: configureCmd, helpMsg: `Changes configuration parameters.

	config -list

Show all configuration parameters.

	config -save

Saves the configuration file to disk, overwriting the current configuration file.

	config <parameter> <value>

Changes the value of a configuration parameter.

	config alias <command> <alias>
	config alias <alias>

Defines <alias> as an alias to <command> or removes an alias.`},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: `Exit the debugger.

	exit

A launched process is killed, a process that was attached to is detached from and left running.`},
		{aliases: []string{"source"}, cmdFn: c.sourceCommand, helpMsg: `Executes a file containing a list of sdb commands.

	source <path>

Empty lines and lines starting with # are ignored.`},
	}

	sort.Sort(byFirstAlias(c.cmds))
	c.buildIndex()
	return c
}

func (c *Commands) buildIndex() {
	c.index = trie.New()
	for i, cmd := range c.cmds {
		for _, alias := range cmd.aliases {
			c.index.Add(alias, i)
		}
	}
}

// Find will look up the command function for the given command input.
// A command is found by one of its aliases or by any prefix of an alias
// that only belongs to one command.
func (c *Commands) Find(cmdstr string) (cmdfunc, error) {
	if cmdstr == "" {
		return nullCommand, nil
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v.cmdFn, nil
		}
	}

	keys := c.index.PrefixSearch(cmdstr)
	found := c.commandsIn(keys)
	switch len(found) {
	case 0:
		return nil, noCmdError
	case 1:
		for i := range found {
			return c.cmds[i].cmdFn, nil
		}
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("ambiguous command %q: could be %s", cmdstr, strings.Join(keys, ", "))
}

// commandsIn returns the positions of the commands owning keys.
func (c *Commands) commandsIn(keys []string) map[int]struct{} {
	r := make(map[int]struct{})
	for _, key := range keys {
		if node, ok := c.index.Find(key); ok {
			r[node.Meta().(int)] = struct{}{}
		}
	}
	return r
}

// Call takes a command to execute. An empty command string repeats the
// previous command.
func (c *Commands) Call(cmdstr string, t *Term) error {
	cmdstr = strings.TrimSpace(cmdstr)
	if cmdstr == "" {
		cmdstr = c.lastCmd
	} else {
		c.lastCmd = cmdstr
	}

	vals := strings.SplitN(cmdstr, " ", 2)
	cmdname := vals[0]
	var args string
	if len(vals) > 1 {
		args = strings.TrimSpace(vals[1])
	}

	fn, err := c.Find(cmdname)
	if err != nil {
		return err
	}
	if cmdname != "" {
		t.log.Debugf("command %q args %q", cmdname, args)
	}
	return fn(t, args)
}

// Merge takes aliases defined in the config struct and merges them with the default aliases.
func (c *Commands) Merge(allAliases map[string][]string) {
	for i := range c.cmds {
		if c.cmds[i].builtinAliases != nil {
			c.cmds[i].aliases = append(c.cmds[i].aliases[:0], c.cmds[i].builtinAliases...)
		}
	}
	for i := range c.cmds {
		if aliases, ok := allAliases[c.cmds[i].aliases[0]]; ok {
			if c.cmds[i].builtinAliases == nil {
				c.cmds[i].builtinAliases = make([]string, len(c.cmds[i].aliases))
				copy(c.cmds[i].builtinAliases, c.cmds[i].aliases)
			}
			c.cmds[i].aliases = append(c.cmds[i].aliases, aliases...)
		}
	}
	c.buildIndex()
}

// complete returns the aliases starting with line, for tab completion.
func (c *Commands) complete(line string) []string {
	r := c.index.PrefixSearch(strings.ToLower(line))
	sort.Strings(r)
	return r
}

var noCmdError = errors.New("command not available")

func nullCommand(t *Term, args string) error {
	return nil
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		for _, cmd := range c.cmds {
			for _, alias := range cmd.aliases {
				if alias == args {
					fmt.Fprintln(t.stdout, cmd.helpMsg)
					return nil
				}
			}
		}
		return noCmdError
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")

	for _, cgd := range commandGroupDescriptions {
		fmt.Fprintf(t.stdout, "\n%s:\n", cgd.description)
		w := new(tabwriter.Writer)
		w.Init(t.stdout, 0, 8, 0, '-', 0)
		for _, cmd := range c.cmds {
			if cmd.group != cgd.group {
				continue
			}
			h := cmd.helpMsg
			if idx := strings.Index(h, "\n"); idx >= 0 {
				h = h[:idx]
			}
			if len(cmd.aliases) > 1 {
				fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
			} else {
				fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

func cont(t *Term, args string) error {
	if args != "" {
		return fmt.Errorf("continue does not take arguments")
	}
	if err := t.target.Resume(); err != nil {
		return err
	}
	t.setRunning(true)
	sr, err := t.target.Wait()
	t.setRunning(false)
	if err != nil {
		return err
	}
	t.Println(stopReasonColor(sr.Reason), stopReasonString(t.target.Pid(), sr))
	return nil
}

// stopReasonString describes sr the way it is reported after continue.
func stopReasonString(pid int, sr proc.StopReason) string {
	switch sr.Reason {
	case proc.Exited:
		return fmt.Sprintf("Process %d exited with status %d", pid, sr.Info)
	case proc.Terminated:
		return fmt.Sprintf("Process %d terminated with signal %s", pid, signalName(sr.Signal()))
	case proc.Stopped:
		return fmt.Sprintf("Process %d stopped with signal %s", pid, signalName(sr.Signal()))
	}
	return fmt.Sprintf("Process %d %s", pid, sr.Reason)
}

func stopReasonColor(state proc.ProcessState) int {
	switch state {
	case proc.Exited:
		return ansiGreen
	case proc.Terminated:
		return ansiRed
	case proc.Stopped:
		return ansiYellow
	}
	return 0
}

// signalName returns the abbreviated name of sig, TRAP for SIGTRAP.
func signalName(sig sys.Signal) string {
	if name := sys.SignalName(sig); name != "" {
		return strings.TrimPrefix(name, "SIG")
	}
	return fmt.Sprintf("%d", int(sig))
}

// ExitRequestError is returned when the user
// exits the debugger.
type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exitCommand(t *Term, args string) error {
	return ExitRequestError{}
}

func (c *Commands) sourceCommand(t *Term, args string) error {
	w, err := parseArgs(args)
	if err != nil {
		return err
	}
	if len(w) != 1 {
		return fmt.Errorf("wrong number of arguments: source <filename>")
	}
	return c.executeFile(t, w[0])
}

// parseArgs splits args into words, honouring shell quoting.
func parseArgs(args string) ([]string, error) {
	if args == "" {
		return nil, nil
	}
	v, err := argv.Argv(args,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	if len(v) != 1 {
		return nil, fmt.Errorf("illegal commandline '%s'", args)
	}
	return v[0], nil
}

func (c *Commands) executeFile(t *Term, name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()
	return c.executeScript(t, name, fh)
}

func (c *Commands) executeScript(t *Term, name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineno++

		if line == "" || line[0] == '#' {
			continue
		}

		if err := c.Call(line, t); err != nil {
			if _, isExitRequest := err.(ExitRequestError); isExitRequest {
				return err
			}
			fmt.Fprintf(t.stdout, "%s:%d: %v\n", name, lineno, err)
		}
	}

	return scanner.Err()
}
