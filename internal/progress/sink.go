package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r\x1b[2K"

// countsPadding is the room reserved next to the bar for "completed/total".
const countsPadding = 24

// Sink receives render notifications from a Handle.
type Sink interface {
	Render(completed, total int)
}

// Finisher is implemented by sinks that need to finalize the display when a
// handle is closed.
type Finisher interface {
	Finish(completed, total int)
}

// SinkFunc adapts a plain callback to a Sink.
type SinkFunc func(completed, total int)

// Render calls f(completed, total).
func (f SinkFunc) Render(completed, total int) {
	f(completed, total)
}

// NopSink discards every render.
type NopSink struct{}

// Render does nothing.
func (NopSink) Render(int, int) {}

// DefaultSink returns a TerminalSink on stderr when stderr is a terminal, and
// a NopSink otherwise so redirected output is not littered with control
// sequences.
func DefaultSink() Sink {
	if IsTerminal(os.Stderr) {
		return NewTerminalSink(os.Stderr, TerminalWidth(os.Stderr, DefaultWidth))
	}
	return NopSink{}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns a bar width that fits the terminal behind w, or
// fallback when the size is unknown.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= countsPadding {
		return fallback
	}
	return min(cols-countsPadding, fallback*2)
}

// TerminalSink draws a progress bar on a single line, erasing the previous
// rendering each time.
type TerminalSink struct {
	mu      sync.Mutex
	out     io.Writer
	bar     bubblesprogress.Model
	printer *message.Printer
}

// NewTerminalSink creates a sink that writes a bar of the given width to out.
func NewTerminalSink(out io.Writer, width int) *TerminalSink {
	if width <= 0 {
		width = DefaultWidth
	}
	return &TerminalSink{
		out:     out,
		bar:     bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(width)),
		printer: message.NewPrinter(language.English),
	}
}

// Render overwrites the current line with the bar and counts.
func (s *TerminalSink) Render(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(completed, total)
}

// Finish draws the final state and moves the cursor past the bar.
func (s *TerminalSink) Finish(completed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(completed, total)
	_, _ = fmt.Fprintln(s.out)
}

func (s *TerminalSink) write(completed, total int) {
	var fraction float64
	if total > 0 {
		fraction = float64(completed) / float64(total)
	}
	_, _ = fmt.Fprintf(s.out, "%s%s %s", clearLine, s.bar.ViewAs(fraction),
		s.printer.Sprintf("%d/%d", completed, total))
}
