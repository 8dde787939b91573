// Package terminal is the interactive front end: the main menu, the
// comparison prompt and the paged rankings table.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rivo/uniseg"
)

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colBlue   = "\033[34m"
)

// lineWidth is the width every rule and table is laid out to. Keep it even.
const lineWidth = 96

// Console reads lines from the user and writes formatted output.
type Console struct {
	in    *bufio.Reader
	out   io.Writer
	color bool
}

// Option applies a configuration option to the Console.
type Option func(*Console)

// WithColor turns ANSI colors on or off.
func WithColor(enabled bool) Option {
	return func(c *Console) {
		c.color = enabled
	}
}

// NewConsole wraps in and out. Colors are off unless WithColor enables them.
func NewConsole(in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{in: bufio.NewReader(in), out: out}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ColorEnabled reports whether f should get colors: it must be a terminal
// and neither NO_COLOR nor USE_COLOR=0 may be set.
func ColorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || strings.TrimSpace(os.Getenv("USE_COLOR")) == "0" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) paint(code, s string) string {
	if !c.color {
		return s
	}
	return code + s + colReset
}

// ReadLine returns the next input line without its line ending. A final line
// without a newline is returned before io.EOF.
func (c *Console) ReadLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) ask(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	return c.ReadLine()
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Warn prints a highlighted warning line.
func (c *Console) Warn(msg string) {
	c.println(c.paint(colBold+colRed, " ⚠️ "+msg))
}

// Success prints a confirmation line.
func (c *Console) Success(msg string) {
	c.println(" " + c.paint(colYellow, ">") + " ✓ " + c.paint(colGreen, msg))
}

// rule prints " TITLE ------" in code, padded to lineWidth.
func (c *Console) rule(code, title string) {
	dashes := max(0, lineWidth-uniseg.StringWidth(title)-2)
	c.println(c.paint(colBold+code, " "+title+" "+strings.Repeat("–", dashes)))
}

// centered prints title inside a rule of dashes.
func (c *Console) centered(code, title string) {
	side := max(0, (lineWidth-uniseg.StringWidth(title)-2)/2)
	c.println(c.paint(colBold+code, strings.Repeat("–", side)+" "+title+" "+strings.Repeat("–", side)))
}

func indent(n int) string {
	return strings.Repeat(" ", max(0, n))
}
