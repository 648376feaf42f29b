package terminal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	sys "golang.org/x/sys/unix"

	"github.com/go-sdb/sdb/pkg/config"
	"github.com/go-sdb/sdb/pkg/logflags"
	"github.com/go-sdb/sdb/pkg/proc"
)

type fakeProcess struct {
	pid       int
	state     proc.ProcessState
	stops     []proc.StopReason
	resumeErr error
	resumed   int
	closed    int
}

func (p *fakeProcess) Pid() int                 { return p.pid }
func (p *fakeProcess) State() proc.ProcessState { return p.state }

func (p *fakeProcess) Resume() error {
	if p.resumeErr != nil {
		return p.resumeErr
	}
	p.resumed++
	p.state = proc.Running
	return nil
}

func (p *fakeProcess) Wait() (proc.StopReason, error) {
	if len(p.stops) == 0 {
		return proc.StopReason{}, &proc.OSError{Op: "wait_on_signal failed", Err: sys.ECHILD}
	}
	sr := p.stops[0]
	p.stops = p.stops[1:]
	p.state = sr.Reason
	return sr, nil
}

func (p *fakeProcess) Close() error {
	p.closed++
	return nil
}

func newTestTerm(p proc.Process) (*Term, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Term{
		target: p,
		conf:   &config.Config{},
		cmds:   DebugCommands(),
		stdout: &buf,
		log:    logflags.TerminalLogger(),
	}, &buf
}

func TestStopReasonString(t *testing.T) {
	tests := []struct {
		sr   proc.StopReason
		want string
	}{
		{proc.StopReason{Reason: proc.Exited, Info: 0}, "Process 42 exited with status 0"},
		{proc.StopReason{Reason: proc.Exited, Info: 255}, "Process 42 exited with status 255"},
		{proc.StopReason{Reason: proc.Terminated, Info: uint8(sys.SIGKILL)}, "Process 42 terminated with signal KILL"},
		{proc.StopReason{Reason: proc.Terminated, Info: uint8(sys.SIGSEGV)}, "Process 42 terminated with signal SEGV"},
		{proc.StopReason{Reason: proc.Stopped, Info: uint8(sys.SIGTRAP)}, "Process 42 stopped with signal TRAP"},
		{proc.StopReason{Reason: proc.Stopped, Info: uint8(sys.SIGSTOP)}, "Process 42 stopped with signal STOP"},
	}
	for _, tc := range tests {
		if got := stopReasonString(42, tc.sr); got != tc.want {
			t.Errorf("stopReasonString(%v) = %q, want %q", tc.sr, got, tc.want)
		}
	}
}

func TestSignalNameUnknown(t *testing.T) {
	if got := signalName(sys.Signal(200)); got != "200" {
		t.Fatalf("signalName(200) = %q", got)
	}
}

func TestContinue(t *testing.T) {
	p := &fakeProcess{pid: 42, state: proc.Stopped, stops: []proc.StopReason{{Reason: proc.Exited, Info: 7}}}
	term, out := newTestTerm(p)
	if exit, err := term.execute("continue"); exit || err != nil {
		t.Fatalf("continue: %v %v", exit, err)
	}
	if p.resumed != 1 {
		t.Fatalf("resumed %d times", p.resumed)
	}
	if got := out.String(); got != "Process 42 exited with status 7\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if term.isRunning() {
		t.Fatal("terminal still thinks the process is running")
	}
}

func TestContinuePrefixes(t *testing.T) {
	for _, cmdstr := range []string{"c", "cont", "conti", "continu", "continue"} {
		p := &fakeProcess{pid: 1, state: proc.Stopped, stops: []proc.StopReason{{Reason: proc.Stopped, Info: uint8(sys.SIGTRAP)}}}
		term, out := newTestTerm(p)
		if _, err := term.execute(cmdstr); err != nil {
			t.Fatalf("%q: %v", cmdstr, err)
		}
		if p.resumed != 1 || out.String() != "Process 1 stopped with signal TRAP\n" {
			t.Fatalf("%q: resumed %d, output %q", cmdstr, p.resumed, out.String())
		}
	}
}

func TestContinueArguments(t *testing.T) {
	p := &fakeProcess{pid: 1, state: proc.Stopped}
	term, _ := newTestTerm(p)
	if _, err := term.execute("continue main.main"); err == nil {
		t.Fatal("expected an error")
	}
	if p.resumed != 0 {
		t.Fatal("process resumed")
	}
}

func TestContinueResumeError(t *testing.T) {
	resumeErr := &proc.OSError{Op: "resume failed", Err: sys.ESRCH}
	p := &fakeProcess{pid: 1, state: proc.Exited, resumeErr: resumeErr}
	term, out := newTestTerm(p)
	_, err := term.execute("c")
	if !errors.Is(err, sys.ESRCH) {
		t.Fatalf("unexpected error %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestEmptyLineRepeatsLastCommand(t *testing.T) {
	p := &fakeProcess{pid: 5, state: proc.Stopped, stops: []proc.StopReason{
		{Reason: proc.Stopped, Info: uint8(sys.SIGTRAP)},
		{Reason: proc.Exited, Info: 0},
	}}
	term, out := newTestTerm(p)
	for _, cmdstr := range []string{"cont", "   "} {
		if _, err := term.execute(cmdstr); err != nil {
			t.Fatalf("%q: %v", cmdstr, err)
		}
	}
	if p.resumed != 2 {
		t.Fatalf("resumed %d times", p.resumed)
	}
	want := "Process 5 stopped with signal TRAP\nProcess 5 exited with status 0\n"
	if out.String() != want {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestEmptyLineWithoutHistory(t *testing.T) {
	p := &fakeProcess{pid: 5, state: proc.Stopped}
	term, out := newTestTerm(p)
	if exit, err := term.execute(""); exit || err != nil {
		t.Fatalf("empty line: %v %v", exit, err)
	}
	if out.Len() != 0 || p.resumed != 0 {
		t.Fatalf("empty line did something: %q %d", out.String(), p.resumed)
	}
}

func TestUnknownCommand(t *testing.T) {
	term, _ := newTestTerm(&fakeProcess{pid: 1})
	for _, cmdstr := range []string{"frobnicate", "cx", "continuee"} {
		if _, err := term.execute(cmdstr); err != noCmdError {
			t.Errorf("%q: unexpected error %v", cmdstr, err)
		}
	}
}

func TestAmbiguousPrefix(t *testing.T) {
	p := &fakeProcess{pid: 1, state: proc.Stopped}
	term, _ := newTestTerm(p)
	term.cmds.Merge(map[string][]string{"continue": {"sx"}})
	_, err := term.execute("s")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "ambiguous") || !strings.Contains(err.Error(), "source, sx") {
		t.Fatalf("unexpected error %q", err)
	}
	if p.resumed != 0 {
		t.Fatal("process resumed")
	}
}

func TestAmbiguousBuiltinPrefix(t *testing.T) {
	term, _ := newTestTerm(&fakeProcess{pid: 1})
	_, err := term.execute("co")
	if err == nil || !strings.Contains(err.Error(), "config, continue") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestExitCommands(t *testing.T) {
	for _, cmdstr := range []string{"exit", "quit", "q", "ex", "qu"} {
		term, _ := newTestTerm(&fakeProcess{pid: 1})
		exit, err := term.execute(cmdstr)
		if !exit || err != nil {
			t.Errorf("%q: %v %v", cmdstr, exit, err)
		}
	}
}

func TestMergeAliases(t *testing.T) {
	p := &fakeProcess{pid: 3, state: proc.Stopped, stops: []proc.StopReason{{Reason: proc.Exited}}}
	term, _ := newTestTerm(p)
	term.cmds.Merge(map[string][]string{"continue": {"go"}})
	if _, err := term.execute("go"); err != nil {
		t.Fatal(err)
	}
	if p.resumed != 1 {
		t.Fatal("alias did not run continue")
	}

	term.cmds.Merge(map[string][]string{})
	if _, err := term.execute("go"); err != noCmdError {
		t.Fatalf("alias survived merge: %v", err)
	}
	if _, err := term.execute("c"); err == noCmdError {
		t.Fatal("builtin alias lost")
	}
}

func TestHelp(t *testing.T) {
	term, out := newTestTerm(&fakeProcess{pid: 1})
	if _, err := term.execute("help"); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Running the program:", "continue (alias: c)", "exit (alias: quit | q)", "source"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("help output does not contain %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	if _, err := term.execute("help c"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "Run until the process stops") {
		t.Fatalf("unexpected help for continue %q", out.String())
	}

	if _, err := term.execute("help frobnicate"); err != noCmdError {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSourceCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "init commands.txt")
	script := "# comment\n\ncontinue\nbogus\n  continue  \n"
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}

	p := &fakeProcess{pid: 9, state: proc.Stopped, stops: []proc.StopReason{
		{Reason: proc.Stopped, Info: uint8(sys.SIGTRAP)},
		{Reason: proc.Terminated, Info: uint8(sys.SIGKILL)},
	}}
	term, out := newTestTerm(p)
	if _, err := term.execute(fmt.Sprintf("source %q", path)); err != nil {
		t.Fatal(err)
	}
	want := "Process 9 stopped with signal TRAP\n" +
		path + ":4: command not available\n" +
		"Process 9 terminated with signal KILL\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestSourceExit(t *testing.T) {
	p := &fakeProcess{pid: 9, state: proc.Stopped}
	term, _ := newTestTerm(p)
	err := term.cmds.executeScript(term, "script", strings.NewReader("exit\ncontinue\n"))
	if _, ok := err.(ExitRequestError); !ok {
		t.Fatalf("unexpected error %v", err)
	}
	if p.resumed != 0 {
		t.Fatal("commands after exit were executed")
	}
}

func TestSourceArguments(t *testing.T) {
	term, _ := newTestTerm(&fakeProcess{pid: 1})
	for _, cmdstr := range []string{"source", "source a b", "source `ls`", "source a | b"} {
		if _, err := term.execute(cmdstr); err == nil {
			t.Errorf("%q: expected an error", cmdstr)
		}
	}
	if _, err := term.execute("source " + filepath.Join(t.TempDir(), "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{`"a b" c`, []string{"a b", "c"}},
	}
	for _, tc := range tests {
		got, err := parseArgs(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseArgs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestComplete(t *testing.T) {
	c := DebugCommands()
	if got := c.complete("co"); !reflect.DeepEqual(got, []string{"config", "continue"}) {
		t.Fatalf("complete(co) = %q", got)
	}
	if got := c.complete("cont"); !reflect.DeepEqual(got, []string{"continue"}) {
		t.Fatalf("complete(cont) = %q", got)
	}
	if got := c.complete("Q"); !reflect.DeepEqual(got, []string{"q", "quit"}) {
		t.Fatalf("complete(Q) = %q", got)
	}
	if got := c.complete("z"); len(got) != 0 {
		t.Fatalf("complete(z) = %q", got)
	}
}

func TestPrintlnColors(t *testing.T) {
	term, out := newTestTerm(&fakeProcess{pid: 1})
	term.Println(ansiGreen, "plain")
	term.colors = true
	term.Println(ansiGreen, "green")
	term.Println(0, "nocolor")
	want := "plain\n\033[32mgreen\033[0m\nnocolor\n"
	if out.String() != want {
		t.Fatalf("got %q want %q", out.String(), want)
	}
}

func TestColorsEnabled(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if colorsEnabled(f) {
		t.Fatal("colors enabled for a regular file")
	}
	t.Setenv("TERM", "dumb")
	if colorsEnabled(os.Stdout) {
		t.Fatal("colors enabled for TERM=dumb")
	}
}
