package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProgressModel(t *testing.T) {
	m := NewProgressModel("importing", 0, nil)
	assert.Equal(t, ProgressStateRunning, m.State())
	assert.Equal(t, progressDefaultWidth, m.bar.Width)
	assert.InDelta(t, 0.0, m.Fraction(), 0)
	assert.Nil(t, m.Init())
}

func TestProgressModel_Update(t *testing.T) {
	t.Run("progress message updates counts", func(t *testing.T) {
		m := NewProgressModel("", 20, nil)
		next, cmd := m.Update(progressMsg{completed: 250, total: 1000})
		assert.Nil(t, cmd)

		pm := next.(ProgressModel)
		assert.InDelta(t, 0.25, pm.Fraction(), 1e-9)
		assert.Contains(t, pm.View(), "250/1,000")
		assert.Contains(t, pm.View(), "press q to stop")
	})

	t.Run("finish quits", func(t *testing.T) {
		m := NewProgressModel("", 20, nil)
		next, cmd := m.Update(finishMsg{completed: 10, total: 10})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())

		pm := next.(ProgressModel)
		assert.Equal(t, ProgressStateDone, pm.State())
		assert.NotContains(t, pm.View(), "press q")
	})

	t.Run("ctrl+c interrupts once", func(t *testing.T) {
		calls := 0
		m := NewProgressModel("", 20, func() { calls++ })
		m1, _ := m.Update(progressMsg{completed: 3, total: 10})

		next, cmd := m1.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		require.NotNil(t, cmd)
		pm := next.(ProgressModel)
		assert.Equal(t, ProgressStateInterrupted, pm.State())
		assert.Equal(t, 1, calls)
		assert.Contains(t, pm.View(), "interrupted after 3 items")

		next, _ = pm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		assert.Equal(t, 1, calls)

		// A finish after interruption keeps the interrupted state.
		next, _ = next.Update(finishMsg{completed: 4, total: 10})
		assert.Equal(t, ProgressStateInterrupted, next.(ProgressModel).State())
	})

	t.Run("window resize adjusts bar", func(t *testing.T) {
		m := NewProgressModel("", 20, nil)
		next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
		assert.Equal(t, 56, next.(ProgressModel).bar.Width)

		next, _ = m.Update(tea.WindowSizeMsg{Width: 500, Height: 20})
		assert.Equal(t, progressMaxWidth, next.(ProgressModel).bar.Width)
	})

	t.Run("other keys ignored", func(t *testing.T) {
		m := NewProgressModel("", 20, nil)
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
		assert.Nil(t, cmd)
		assert.Equal(t, ProgressStateRunning, next.(ProgressModel).State())
	})
}

func TestProgressModel_ViewTitle(t *testing.T) {
	m := NewProgressModel("loading rows", 20, nil)
	assert.Contains(t, m.View(), "loading rows")
}

func TestSink_RunsToCompletion(t *testing.T) {
	var out bytes.Buffer
	sink := StartSink(&out, "test", 20, nil, tea.WithInput(nil), tea.WithoutRenderer())

	sink.Render(1, 2)
	sink.Finish(2, 2)

	done := make(chan error, 1)
	go func() { done <- sink.Wait() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tui sink did not exit")
	}
}

func TestSink_StopWithoutFinish(t *testing.T) {
	sink := StartSink(&bytes.Buffer{}, "empty", 20, nil, tea.WithInput(nil), tea.WithoutRenderer())

	done := make(chan error, 1)
	go func() { done <- sink.Stop() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tui sink did not stop")
	}
}
