package tui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// Sink drives a ProgressModel from a batch run. It implements progress.Sink
// and progress.Finisher.
type Sink struct {
	program *tea.Program
	done    chan error
}

// StartSink launches the progress TUI on out and returns a sink feeding it.
// Call Wait after the run to let the program restore the terminal.
func StartSink(out io.Writer, title string, width int, onInterrupt func(), opts ...tea.ProgramOption) *Sink {
	opts = append([]tea.ProgramOption{tea.WithOutput(out)}, opts...)
	s := &Sink{
		program: tea.NewProgram(NewProgressModel(title, width, onInterrupt), opts...),
		done:    make(chan error, 1),
	}
	go func() {
		_, err := s.program.Run()
		s.done <- err
	}()
	return s
}

// Render forwards the run's state to the TUI.
func (s *Sink) Render(completed, total int) {
	s.program.Send(progressMsg{completed: completed, total: total})
}

// Finish shows the final state and stops the TUI.
func (s *Sink) Finish(completed, total int) {
	s.program.Send(finishMsg{completed: completed, total: total})
}

// Wait blocks until the TUI has exited.
func (s *Sink) Wait() error {
	return <-s.done
}

// Stop asks the TUI to exit, even if the run never attached a progress
// handle, and waits for it.
func (s *Sink) Stop() error {
	s.program.Quit()
	return s.Wait()
}
