package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/store"
)

var errLocked = errors.New("file is locked by another process")

// memSessions is an in-memory SessionStore whose writes can be made to fail.
type memSessions struct {
	mu       sync.Mutex
	sessions []store.Session
	failNext int
	writes   int
}

func (m *memSessions) LoadSessions(ctx context.Context, f store.Filter) ([]store.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Session
	for _, s := range m.sessions {
		if f.Match(s) {
			out = append(out, s.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memSessions) AppendOrUpdateSession(ctx context.Context, s store.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext > 0 {
		m.failNext--
		return errLocked
	}
	m.writes++
	for i := range m.sessions {
		if m.sessions[i].ID == s.ID {
			m.sessions[i] = s.Clone()
			return nil
		}
	}
	m.sessions = append(m.sessions, s.Clone())
	return nil
}

func (m *memSessions) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext > 0 {
		m.failNext--
		return errLocked
	}
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memSessions) fail(n int) {
	m.mu.Lock()
	m.failNext = n
	m.mu.Unlock()
}

func (m *memSessions) all() []store.Session {
	out, _ := m.LoadSessions(context.Background(), store.Filter{})
	return out
}

type memRegistry struct {
	reg   store.Registry
	saves int
}

func (m *memRegistry) LoadProjectRegistry(ctx context.Context) (store.Registry, error) {
	return m.reg.Clone(), nil
}

func (m *memRegistry) SaveProjectRegistry(ctx context.Context, r store.Registry) error {
	m.saves++
	m.reg = r.Clone()
	return nil
}

type fixedSettings struct {
	threshold time.Duration
	target    int64
}

func (s *fixedSettings) AutoSplitThreshold() time.Duration { return s.threshold }
func (s *fixedSettings) TargetSeconds(time.Time) int64     { return s.target }

type harness struct {
	engine   *Engine
	clock    *clock.Fake
	sessions *memSessions
	registry *memRegistry
	settings *fixedSettings
	seq      int
}

const testDate = "2024-03-04"

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 4, hh, mm, 0, 0, time.Local)
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func testRegistry() store.Registry {
	reg := store.DefaultRegistry()
	reg.AddProject("Acme", "API", "Docs")
	reg.AddProject("Home", "Chores")
	return reg
}

// newHarness builds an engine over preloaded sessions with the clock at start.
func newHarness(t *testing.T, start time.Time, preload ...store.Session) *harness {
	t.Helper()
	h := &harness{
		clock:    clock.NewFake(start),
		sessions: &memSessions{},
		registry: &memRegistry{reg: testRegistry()},
		settings: &fixedSettings{threshold: 5 * time.Minute, target: 8 * 3600},
	}
	for _, s := range preload {
		h.sessions.sessions = append(h.sessions.sessions, s.Clone())
	}
	h.reopen(t)
	return h
}

// reopen replaces the engine with a fresh one over the same stores, as a
// restart of the program would.
func (h *harness) reopen(t *testing.T) {
	t.Helper()
	e, err := New(context.Background(), Options{
		Clock:    h.clock,
		Sessions: h.sessions,
		Registry: h.registry,
		Settings: h.settings,
		Logger:   quietLogger(),
		IDs: func() string {
			h.seq++
			return fmt.Sprintf("s%d", h.seq)
		},
		Retry: RetryPolicy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond, Timeout: time.Second},
	})
	require.NoError(t, err)
	h.engine = e
}

func (h *harness) at(hh, mm int) *harness {
	h.clock.Set(at(hh, mm))
	return h
}

func (h *harness) day(t *testing.T) []store.Session {
	t.Helper()
	sessions, err := h.engine.Sessions(context.Background(), testDate)
	require.NoError(t, err)
	return sessions
}

func closedAt(id string, from, to time.Time, project, task string) store.Session {
	end := to
	return store.Session{ID: id, Date: store.DateOf(from), Start: from, End: &end, Project: project, Task: task}
}
