package tui

import (
	"time"

	"github.com/sadopc/taskonaut/internal/engine"
)

// timerModel mirrors the engine state for display and runs the idle
// detector. It never changes the engine itself.
type timerModel struct {
	state engine.State
	now   time.Time

	// Idle detection
	lastActivity time.Time
	idleAfter    time.Duration
	isIdle       bool
}

func newTimerModel(st engine.State, now time.Time, idleAfter time.Duration) timerModel {
	return timerModel{
		state:        st,
		now:          now,
		lastActivity: now,
		idleAfter:    idleAfter,
	}
}

// sync adopts a fresh engine snapshot.
func (t *timerModel) sync(st engine.State, now time.Time) {
	t.state = st
	t.now = now
	if st.Phase != engine.Paused {
		t.isIdle = false
	}
}

// tick advances the display clock. It reports true once per idle period
// when the running session should be paused.
func (t *timerModel) tick(now time.Time) bool {
	t.now = now
	if t.state.Phase != engine.Running || t.idleAfter <= 0 || t.isIdle {
		return false
	}
	if now.Sub(t.lastActivity) >= t.idleAfter {
		t.isIdle = true
		return true
	}
	return false
}

func (t *timerModel) recordActivity(now time.Time) {
	t.lastActivity = now
}

func (t timerModel) running() bool {
	return t.state.Phase == engine.Running
}

func (t timerModel) paused() bool {
	return t.state.Phase == engine.Paused
}

// currentElapsed is the open session's age while running and the pause
// length while paused.
func (t timerModel) currentElapsed() time.Duration {
	switch t.state.Phase {
	case engine.Running:
		return t.state.Elapsed(t.now)
	case engine.Paused:
		return t.state.PauseElapsed(t.now)
	}
	return 0
}
