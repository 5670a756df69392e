package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const banner = `
   ┌─┐┬  ┬┌─┐┬  ┌─┐┬ ┬┌─┐┌─┐┌─┐
   ├┤ └┐┌┘├─┤│  └─┐│││├┤ ├┤ ├─┘
   └─┘ └┘ ┴ ┴┴─┘└─┘└┴┘└─┘└─┘┴   `

var (
	cyan    = lipgloss.Color("#00FFFF")
	magenta = lipgloss.Color("#FF00FF")
	green   = lipgloss.Color("#39FF14")
	yellow  = lipgloss.Color("#FFFF00")
	orange  = lipgloss.Color("#FF6700")
	red     = lipgloss.Color("#FF0000")
	dim     = lipgloss.Color("#B0B0B0")

	bannerStyle    = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	labelStyle     = lipgloss.NewStyle().Foreground(cyan).Bold(true)
	valueStyle     = lipgloss.NewStyle().Foreground(yellow)
	successStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle   = lipgloss.NewStyle().Foreground(orange).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(magenta)
	dimStyle       = lipgloss.NewStyle().Foreground(dim).Faint(true)
)

var (
	out          io.Writer = os.Stdout
	colorEnabled           = term.IsTerminal(int(os.Stdout.Fd()))
	quiet        bool
)

// SetOutput redirects terminal output. Color is disabled for anything that
// is not os.Stdout attached to a terminal.
func SetOutput(w io.Writer) {
	out = w
	if f, ok := w.(*os.File); ok {
		colorEnabled = term.IsTerminal(int(f.Fd()))
	} else {
		colorEnabled = false
	}
}

// SetNoColor disables styled output
func SetNoColor(noColor bool) {
	if noColor {
		colorEnabled = false
	}
}

// SetQuietMode suppresses everything except warnings and errors
func SetQuietMode(q bool) {
	quiet = q
}

// IsQuiet reports whether quiet mode is on
func IsQuiet() bool {
	return quiet
}

func render(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

func withArg(msg string, args []interface{}) string {
	if len(args) > 0 {
		return msg + ": " + fmt.Sprintf("%v", args[0])
	}
	return msg
}

// PrintBanner prints the program banner and version
func PrintBanner(version string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, render(bannerStyle, banner))
	fmt.Fprintln(out, render(dimStyle, "   checkpoint sweep driver "+version))
	fmt.Fprintln(out)
}

// PrintError prints an error message
func PrintError(msg string, args ...interface{}) {
	fmt.Fprintln(out, render(errorStyle, withArg(msg, args)))
}

// PrintWarning prints a warning message
func PrintWarning(msg string, args ...interface{}) {
	fmt.Fprintln(out, render(warningStyle, withArg(msg, args)))
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, render(successStyle, msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", render(labelStyle, label), render(valueStyle, value))
}

// PrintHighlight prints a highlighted message
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, render(highlightStyle, msg))
}

// PrintDim prints a de-emphasised line
func PrintDim(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, render(dimStyle, msg))
}

// FormatArgv joins an argument vector for display, quoting arguments that
// contain whitespace.
func FormatArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			parts[i] = fmt.Sprintf("%q", a)
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}
