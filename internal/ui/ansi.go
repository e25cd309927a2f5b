package ui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"

	fgGray   = "\033[90m"
	fgGreen  = "\033[32m"
	fgYellow = "\033[33m"
	fgBlue   = "\033[34m"
	fgRed    = "\033[31m"
)

var disableColor bool

// SetColorDisabled turns colors off regardless of the terminal.
func SetColorDisabled(disable bool) {
	disableColor = disable
}

// colorEnabled follows NO_COLOR, CLICOLOR_FORCE and whether stdout is a TTY.
func colorEnabled() bool {
	return !disableColor && termenv.EnvColorProfile() != termenv.Ascii
}

// C wraps s in an ANSI color when colors are on.
func C(color, s string) string {
	if color == "" || !colorEnabled() {
		return s
	}
	return color + s + reset
}

// Dim renders s faint.
func Dim(s string) string { return C(dim, s) }

func OK(w io.Writer, msg string)   { fmt.Fprintln(w, C(current.Success, current.SymDone+" "+msg)) }
func Fail(w io.Writer, msg string) { fmt.Fprintln(w, C(current.Error, current.SymFail+" "+msg)) }
