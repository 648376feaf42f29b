package cmds

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func newTestRoot(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := New(false)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}
	root.SetArgs(args)
	return &out, root.Execute()
}

func TestProgramArgs(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"./prog"}, []string{"./prog"}},
		{[]string{"./prog", "a", "b"}, []string{"./prog", "a", "b"}},
		{[]string{"./prog", "--", "-v", "b"}, []string{"./prog", "-v", "b"}},
		{[]string{"./prog", "a", "--"}, []string{"./prog", "a", "--"}},
	}
	for _, tc := range tests {
		if got := programArgs(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("programArgs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNoArgument(t *testing.T) {
	out, err := newTestRoot(t)
	if err != errNoArgument {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(out.String(), "No argument provided") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestPidAndProgram(t *testing.T) {
	if _, err := newTestRoot(t, "-p", "1234", "./prog"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestVersion(t *testing.T) {
	out, err := newTestRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "sdb Debugger\nVersion: ") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if strings.Contains(out.String(), "Build Details") {
		t.Fatal("build details printed without --verbose")
	}
}

func TestLogHelp(t *testing.T) {
	out, err := newTestRoot(t, "help", "log")
	if err != nil {
		t.Fatal(err)
	}
	for _, layer := range []string{"debugger", "ptrace", "terminal"} {
		if !strings.Contains(out.String(), layer) {
			t.Errorf("log help does not mention %q", layer)
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	New(false)

	if status := execute(0, false, nil); status != 1 {
		t.Errorf("no program: status %d", status)
	}
	if status := execute(0, true, nil); status != 1 {
		t.Errorf("attach to pid 0: status %d", status)
	}
	if status := execute(0, false, []string{"/nonexistent/program"}); status != 1 {
		t.Errorf("nonexistent program: status %d", status)
	}

	logOutput = "debugger"
	defer func() { logOutput = "" }()
	if status := execute(0, false, []string{"/nonexistent/program"}); status != 1 {
		t.Errorf("--log-output without --log: status %d", status)
	}
}
