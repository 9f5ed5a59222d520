// Package ui renders CLI output: phase progress lines and result
// summaries.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// ProgressPrinter prints one line per phase transition and rewrites the
// current line for per-item progress inside a phase.
type ProgressPrinter struct {
	writer  io.Writer
	noColor bool

	mu        sync.Mutex
	lastPhase string
}

// ProgressOptions configures the printer.
type ProgressOptions struct {
	NoColor bool
}

// NewProgressPrinter creates a printer writing to w.
func NewProgressPrinter(w io.Writer, opts ProgressOptions) *ProgressPrinter {
	return &ProgressPrinter{writer: w, noColor: opts.NoColor}
}

// Step reports one progress event. Repeated events for the same phase
// overwrite the current line; a phase change starts a new line.
func (p *ProgressPrinter) Step(phase string, current, total int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cyan := color.New(color.FgCyan)
	if p.noColor {
		cyan.DisableColor()
	}

	if p.lastPhase != "" && p.lastPhase != phase {
		fmt.Fprintln(p.writer)
	}
	p.lastPhase = phase

	counter := ""
	if total > 1 {
		counter = fmt.Sprintf(" (%d/%d)", current, total)
	}
	fmt.Fprintf(p.writer, "\r\033[K%s %s%s", cyan.Sprintf("▸ %s", phase), message, counter)
}

// Done finishes the progress display with a success line.
func (p *ProgressPrinter) Done(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastPhase != "" {
		fmt.Fprintln(p.writer)
	}
	p.lastPhase = ""

	green := color.New(color.FgGreen, color.Bold)
	if p.noColor {
		green.DisableColor()
	}
	green.Fprintf(p.writer, "✓ %s\n", message)
}

// Fail finishes the progress display with an error line.
func (p *ProgressPrinter) Fail(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastPhase != "" {
		fmt.Fprintln(p.writer)
	}
	p.lastPhase = ""

	red := color.New(color.FgRed, color.Bold)
	if p.noColor {
		red.DisableColor()
	}
	red.Fprintf(p.writer, "✗ %s\n", message)
}
