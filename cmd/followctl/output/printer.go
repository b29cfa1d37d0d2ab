// Package output formats followctl results for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer writes status lines, optionally colored.
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

// ColorsEnabled reports whether colored output should be used when the
// user did not ask for plain output.
func ColorsEnabled(noColor bool) bool {
	if noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb" && !color.NoColor
}

func (p *Printer) Info(format string, args ...any) {
	p.print(color.FgCyan, "", format, args...)
}

func (p *Printer) Success(format string, args ...any) {
	p.print(color.FgGreen, "[OK] ", format, args...)
}

func (p *Printer) Warning(format string, args ...any) {
	p.print(color.FgYellow, "[WARN] ", format, args...)
}

func (p *Printer) Error(format string, args ...any) {
	p.print(color.FgRed, "[ERROR] ", format, args...)
}

// Bold returns s in bold when colors are on.
func (p *Printer) Bold(s string) string {
	if !p.useColors {
		return s
	}
	c := color.New(color.Bold)
	c.EnableColor()
	return c.Sprint(s)
}

func (p *Printer) print(attr color.Attribute, prefix, format string, args ...any) {
	if !p.useColors {
		fmt.Fprintf(p.out, prefix+format+"\n", args...)
		return
	}
	c := color.New(attr)
	c.EnableColor()
	c.Fprintf(p.out, prefix+format+"\n", args...)
}
