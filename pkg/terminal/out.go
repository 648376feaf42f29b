package terminal

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"
)

const (
	ansiRed    = 31
	ansiGreen  = 32
	ansiYellow = 33
)

// getColorableWriter returns a writer for stdout that translates ANSI
// escape sequences where the console does not understand them.
func getColorableWriter() io.Writer {
	return colorable.NewColorableStdout()
}

// colorsEnabled reports whether escape codes should be written to f.
func colorsEnabled(f *os.File) bool {
	if strings.ToLower(os.Getenv("TERM")) == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
