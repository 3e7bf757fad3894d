// Package logger provides verbose logging for wfsget.
// When verbose mode is enabled via the --verbose flag, debug and info
// messages are printed to stderr so users can follow negotiation and paging.
// Warnings and errors are always printed.
//
// Messages about one acquisition go through an Entry, which prefixes every
// line with the source ID ("[groningen] fetching page 3"). On a terminal the
// tag is coloured by level.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// mu also serialises writes so concurrent acquisitions never interleave lines.
var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	styles            = newStyles(os.Stderr)
)

type levelStyles struct {
	colour bool
	info   lipgloss.Style
	warn   lipgloss.Style
	err    lipgloss.Style
}

func newStyles(w io.Writer) levelStyles {
	r := lipgloss.NewRenderer(w)
	return levelStyles{
		colour: isTerminal(w),
		info:   r.NewStyle().Foreground(lipgloss.Color("6")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		err:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Colour is only used when w is a terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	styles = newStyles(w)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "[DEBUG] "+format+"\n", args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "[INFO] "+format+"\n", args...)
	}
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
}

// Entry logs on behalf of one source.
type Entry struct {
	tag string
}

// For returns an Entry tagged with sourceID. An empty ID gives untagged lines.
func For(sourceID string) *Entry {
	return &Entry{tag: sourceID}
}

// Tag returns the source ID of the entry.
func (e *Entry) Tag() string {
	return e.tag
}

func (e *Entry) print(style func(levelStyles) lipgloss.Style, level, format string, args []any) {
	prefix := "[" + level + "]"
	if e.tag != "" {
		prefix = "[" + e.tag + "]"
		if level == "WARN" || level == "ERROR" {
			prefix += " " + level
		}
	}
	if styles.colour {
		prefix = style(styles).Render(prefix)
	}
	fmt.Fprintf(output, prefix+" "+format+"\n", args...)
}

// Debug prints a tagged message if verbose mode is enabled.
func (e *Entry) Debug(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		e.print(func(s levelStyles) lipgloss.Style { return s.info.Faint(true) }, "DEBUG", format, args)
	}
}

// Info prints a tagged message if verbose mode is enabled.
func (e *Entry) Info(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		e.print(func(s levelStyles) lipgloss.Style { return s.info }, "INFO", format, args)
	}
}

// Warn prints a tagged warning.
func (e *Entry) Warn(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	e.print(func(s levelStyles) lipgloss.Style { return s.warn }, "WARN", format, args)
}

// Error prints a tagged error.
func (e *Entry) Error(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	e.print(func(s levelStyles) lipgloss.Style { return s.err }, "ERROR", format, args)
}
