// Package engine is the session tracking state machine. It owns the open
// session, decides between in-place rewrites and auto-splits on project
// switches, and writes every accepted change through to the session store.
//
// An Engine has a single logical writer and does no locking; callers must not
// invoke its methods concurrently.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/logging"
	"github.com/sadopc/taskonaut/internal/store"
)

const manualBreakTask = "Manual Break"

type Options struct {
	Clock    clock.Clock
	Sessions SessionStore
	Registry RegistryStore
	Settings Settings
	Logger   *logrus.Entry
	// IDs generates session identifiers. Defaults to random UUIDs.
	IDs   func() string
	Retry RetryPolicy
}

type Engine struct {
	clock         clock.Clock
	sessions      SessionStore
	registryStore RegistryStore
	settings      Settings
	log           *logrus.Entry
	newID         func() string
	retry         RetryPolicy

	state         State
	registry      store.Registry
	queue         []write
	registryDirty bool
	warnings      []aggregate.Warning
}

// New builds an engine and reconstructs its state from the stores. If the
// latest work session of today is open the engine resumes Running with it.
func New(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Sessions == nil || opts.Registry == nil || opts.Settings == nil {
		return nil, fmt.Errorf("engine: sessions, registry and settings are required")
	}
	e := &Engine{
		clock:         opts.Clock,
		sessions:      opts.Sessions,
		registryStore: opts.Registry,
		settings:      opts.Settings,
		log:           opts.Logger,
		newID:         opts.IDs,
		retry:         opts.Retry,
	}
	if e.clock == nil {
		e.clock = clock.System{}
	}
	if e.log == nil {
		e.log = logging.NewLogger("engine")
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.retry == (RetryPolicy{}) {
		e.retry = DefaultRetryPolicy()
	}

	reg, err := e.registryStore.LoadProjectRegistry(ctx)
	if err != nil {
		return nil, fmt.Errorf("load project registry: %w", err)
	}
	reg.Normalize()
	e.registry = reg
	e.state = State{Phase: Stopped, ActiveProject: reg.ActiveProject, ActiveTask: reg.ActiveTask}

	if err := e.restore(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) restore(ctx context.Context) error {
	all, err := e.sessions.LoadSessions(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	today := store.DateOf(e.now())

	var latest *store.Session
	for i := range all {
		s := all[i]
		if s.IsBreak() {
			continue
		}
		if s.Date == today && (latest == nil || !s.Start.Before(latest.Start)) {
			latest = &all[i]
		}
	}
	if latest != nil && latest.IsOpen() {
		current := latest.Clone()
		e.state.Phase = Running
		e.state.Current = &current
		e.log.WithFields(logrus.Fields{"session": current.ID, "project": current.Project, "task": current.Task}).
			Info("resumed open session")
	}

	for _, s := range all {
		if !s.IsOpen() || (e.state.Current != nil && s.ID == e.state.Current.ID) {
			continue
		}
		w := aggregate.Warning{
			Kind:       aggregate.OpenSessionPastDay,
			SessionIDs: []string{s.ID},
			Message:    fmt.Sprintf("session %s from %s was never closed", s.ID, s.Date),
		}
		if s.Date >= today {
			w.Kind = aggregate.StrayOpenSession
			w.Message = fmt.Sprintf("session %s on %s is open but not the latest session", s.ID, s.Date)
		}
		e.warnings = append(e.warnings, w)
		e.log.WithField("session", s.ID).Warn(w.Message)
	}
	return nil
}

// now is the clock truncated to whole seconds so stored timestamps round-trip.
func (e *Engine) now() time.Time {
	return e.clock.Now().Truncate(time.Second)
}

func (e *Engine) invalid(op string) error {
	err := apperrors.InvalidTransition(op, e.state.Phase.String())
	e.log.WithField("phase", e.state.Phase.String()).Warnf("invalid transition: %s", op)
	return err
}

// closeCurrent ends the open session at now and queues the write.
func (e *Engine) closeCurrent(now time.Time) store.Session {
	s := e.state.Current.Clone()
	end := now
	if end.Before(s.Start) {
		end = s.Start
	}
	s.End = &end
	e.enqueue(opUpsert, s)
	e.state.Current = nil
	return s
}

// StartWork opens a session with the active project and task.
func (e *Engine) StartWork(ctx context.Context) (State, error) {
	if e.state.Phase == Running {
		return e.CurrentState(), e.invalid("start work")
	}

	now := e.now()
	today, err := e.load(ctx, store.Filter{Date: store.DateOf(now)})
	if err != nil {
		return e.CurrentState(), err
	}
	for _, s := range today {
		if s.IsOpen() {
			e.log.WithField("session", s.ID).Warn("refusing to start: an open session already exists")
			return e.CurrentState(), apperrors.InvalidTransition("start work", "an open session exists").
				WithDetail("session", s.ID)
		}
	}

	s := store.Session{
		ID:      e.newID(),
		Date:    store.DateOf(now),
		Start:   now,
		Project: e.state.ActiveProject,
		Task:    e.state.ActiveTask,
	}
	from := e.state.Phase
	e.enqueue(opUpsert, s)
	e.state.Phase = Running
	e.state.Current = &s
	e.state.PauseStartedAt = nil
	e.log.WithFields(logrus.Fields{"from": from.String(), "session": s.ID, "project": s.Project, "task": s.Task}).
		Debug("work started")

	return e.CurrentState(), e.flush(ctx)
}

// StopOrPause closes the open session and starts a pause.
func (e *Engine) StopOrPause(ctx context.Context) (State, error) {
	switch e.state.Phase {
	case Stopped:
		return e.CurrentState(), apperrors.NoActiveSession("pause")
	case Paused:
		return e.CurrentState(), e.invalid("pause")
	}

	now := e.now()
	closed := e.closeCurrent(now)
	e.state.Phase = Paused
	e.state.PauseStartedAt = &now
	e.log.WithFields(logrus.Fields{"session": closed.ID, "duration": closed.Duration().String()}).Debug("paused")

	return e.CurrentState(), e.flush(ctx)
}

// EndDay closes the open session, or ends a pause, and marks today finalized.
// The time after it is not attributed to the day.
func (e *Engine) EndDay(ctx context.Context) (State, error) {
	if e.state.Phase == Stopped {
		return e.CurrentState(), apperrors.NoActiveSession("end the day")
	}

	now := e.now()
	if e.state.Phase == Running {
		closed := e.closeCurrent(now)
		e.log.WithField("session", closed.ID).Debug("closed session at end of day")
	}
	e.state.Phase = Stopped
	e.state.PauseStartedAt = nil
	if e.registry.Finalize(store.DateOf(now)) {
		e.registryDirty = true
	}
	e.log.WithField("date", store.DateOf(now)).Info("day ended")

	return e.CurrentState(), e.flush(ctx)
}

// SwitchProject changes the active project and task. An open session younger
// than the auto-split threshold is relabelled; an older one is closed and a
// new one opens at the same instant.
func (e *Engine) SwitchProject(ctx context.Context, req SwitchRequest) (State, error) {
	req = req.normalize()
	if err := req.Validate(e.registry); err != nil {
		return e.CurrentState(), err
	}

	now := e.now()
	fields := logrus.Fields{"project": req.Project, "task": req.Task}

	if cur := e.state.Current; cur != nil {
		elapsed := now.Sub(cur.Start)
		threshold := e.settings.AutoSplitThreshold()
		fields["elapsed"] = elapsed.String()
		fields["threshold"] = threshold.String()

		switch {
		case cur.Project == req.Project && cur.Task == req.Task:
			e.log.WithFields(fields).Debug("switch to current pair, nothing to split")
		case elapsed < threshold:
			cur.Project, cur.Task = req.Project, req.Task
			e.enqueue(opUpsert, *cur)
			e.log.WithFields(fields).Info("switched in place")
		default:
			closed := e.closeCurrent(now)
			next := store.Session{
				ID:      e.newID(),
				Date:    store.DateOf(now),
				Start:   *closed.End,
				Project: req.Project,
				Task:    req.Task,
			}
			e.enqueue(opUpsert, next)
			e.state.Current = &next
			fields["closed"] = closed.ID
			fields["opened"] = next.ID
			e.log.WithFields(fields).Info("auto-split session")
		}
	} else {
		e.log.WithFields(fields).Debug("switched selection with no open session")
	}

	e.state.ActiveProject, e.state.ActiveTask = req.Project, req.Task
	e.registry.ActiveProject, e.registry.ActiveTask = req.Project, req.Task
	e.registry.Touch(req.combination())
	e.registryDirty = true

	return e.CurrentState(), e.flush(ctx)
}

// AddManualBreak records a closed BREAK session. It never touches the open
// session.
func (e *Engine) AddManualBreak(ctx context.Context, start, end time.Time, note string) (store.Session, error) {
	s, err := e.insertClosed(ctx, "break", start, end, store.BreakProject, manualBreakTask, note)
	if err != nil {
		return store.Session{}, err
	}
	e.log.WithFields(logrus.Fields{"session": s.ID, "start": s.Start.Format("15:04"), "end": s.End.Format("15:04")}).
		Info("manual break added")
	return s, e.flush(ctx)
}

// AddSession records a closed work session after the fact, for time that was
// worked but not tracked.
func (e *Engine) AddSession(ctx context.Context, start, end time.Time, project, task, note string) (store.Session, error) {
	req := SwitchRequest{Project: project, Task: task}.normalize()
	if err := req.Validate(e.registry); err != nil {
		return store.Session{}, err
	}
	s, err := e.insertClosed(ctx, "session", start, end, req.Project, req.Task, note)
	if err != nil {
		return store.Session{}, err
	}
	e.log.WithFields(logrus.Fields{"session": s.ID, "project": s.Project, "task": s.Task,
		"start": s.Start.Format("15:04"), "end": s.End.Format("15:04")}).Info("session added")
	return s, e.flush(ctx)
}

// insertClosed queues a closed session on a single day that overlaps nothing
// stored. The caller flushes.
func (e *Engine) insertClosed(ctx context.Context, kind string, start, end time.Time, project, task, note string) (store.Session, error) {
	start, end = start.Truncate(time.Second), end.Truncate(time.Second)
	if !end.After(start) {
		return store.Session{}, apperrors.InvalidRange(kind + " end must be after its start")
	}
	date := store.DateOf(start)
	if store.DateOf(end) != date {
		return store.Session{}, apperrors.InvalidRange("a " + kind + " must start and end on the same day")
	}

	sessions, err := e.load(ctx, store.Filter{Date: date})
	if err != nil {
		return store.Session{}, err
	}
	if other, ok := overlapping(sessions, start, end, ""); ok {
		return store.Session{}, apperrors.InvalidRange(fmt.Sprintf("%s overlaps session %s", kind, other.ID)).
			WithDetail("session", other.ID)
	}

	s := store.Session{
		ID:      e.newID(),
		Date:    date,
		Start:   start,
		End:     &end,
		Project: project,
		Task:    task,
		Note:    strings.TrimSpace(note),
	}
	e.enqueue(opUpsert, s)
	return s.Clone(), nil
}

// EditNote replaces the note of a closed session.
func (e *Engine) EditNote(ctx context.Context, id, note string) (store.Session, error) {
	s, err := e.find(ctx, id)
	if err != nil {
		return store.Session{}, err
	}
	if s.IsOpen() {
		return store.Session{}, apperrors.SessionStillOpen(id)
	}
	s.Note = strings.TrimSpace(note)
	e.enqueue(opUpsert, s)
	e.log.WithField("session", id).Debug("note edited")
	return s.Clone(), e.flush(ctx)
}

// CloseSession sets the end of an open session that the engine does not
// track, such as one left open on a past day.
func (e *Engine) CloseSession(ctx context.Context, id string, end time.Time) (store.Session, error) {
	if e.state.Current != nil && e.state.Current.ID == id {
		return store.Session{}, e.invalid("close the running session")
	}
	s, err := e.find(ctx, id)
	if err != nil {
		return store.Session{}, err
	}
	if !s.IsOpen() {
		return store.Session{}, apperrors.InvalidTransition("close session", "already closed").WithDetail("session", id)
	}
	end = end.Truncate(time.Second)
	if !end.After(s.Start) {
		return store.Session{}, apperrors.InvalidRange("end must be after the session start")
	}
	if store.DateOf(end) != s.Date {
		return store.Session{}, apperrors.InvalidRange("end must be on the session's own day")
	}
	day, err := e.load(ctx, store.Filter{Date: s.Date})
	if err != nil {
		return store.Session{}, err
	}
	if other, ok := overlapping(day, s.Start, end, id); ok {
		return store.Session{}, apperrors.InvalidRange(fmt.Sprintf("closing at %s would overlap session %s", end.Format("15:04"), other.ID)).
			WithDetail("session", other.ID)
	}

	s.End = &end
	e.enqueue(opUpsert, s)
	e.dropWarnings(id)
	e.log.WithFields(logrus.Fields{"session": id, "end": end.Format(time.RFC3339)}).Info("stale session closed")
	return s.Clone(), e.flush(ctx)
}

// DeleteSession removes a closed session.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	s, err := e.find(ctx, id)
	if err != nil {
		return err
	}
	if s.IsOpen() {
		return apperrors.SessionStillOpen(id)
	}
	e.enqueue(opDelete, s)
	e.log.WithField("session", id).Info("session deleted")
	return e.flush(ctx)
}

// AddProject registers a project with optional tasks. Existing entries are
// left alone.
func (e *Engine) AddProject(ctx context.Context, name string, tasks ...string) error {
	name = strings.TrimSpace(name)
	if err := validName("project", name); err != nil {
		return err
	}
	clean := make([]string, 0, len(tasks))
	for _, t := range tasks {
		t = strings.TrimSpace(t)
		if err := validName("task", t); err != nil {
			return err
		}
		clean = append(clean, t)
	}
	if e.registry.AddProject(name, clean...) {
		e.registryDirty = true
		e.log.WithField("project", name).Info("project added")
	}
	return e.flush(ctx)
}

// AddTask adds task to an existing project.
func (e *Engine) AddTask(ctx context.Context, project, task string) error {
	project, task = strings.TrimSpace(project), strings.TrimSpace(task)
	if err := validName("task", task); err != nil {
		return err
	}
	if !e.registry.HasProject(project) {
		return apperrors.InvalidInput("unknown project " + project).WithDetail("project", project)
	}
	if e.registry.AddTask(project, task) {
		e.registryDirty = true
		e.log.WithFields(logrus.Fields{"project": project, "task": task}).Info("task added")
	}
	return e.flush(ctx)
}

// Flush retries every queued write. Call it before shutting down.
func (e *Engine) Flush(ctx context.Context) error {
	return e.flush(ctx)
}

func validName(kind, name string) error {
	if name == "" {
		return apperrors.InvalidInput(kind + " name must not be empty")
	}
	if name == store.BreakProject {
		return apperrors.InvalidInput("BREAK is reserved for manual breaks")
	}
	if kind == "project" && strings.Contains(name, " - ") {
		return apperrors.InvalidInput(`project name must not contain " - "`).WithDetail("project", name)
	}
	return nil
}

// overlapping finds a session in sessions intersecting [start, end). Open
// sessions have no end yet and cover everything after their start.
func overlapping(sessions []store.Session, start, end time.Time, skipID string) (store.Session, bool) {
	for _, s := range sessions {
		if s.ID == skipID {
			continue
		}
		if s.End == nil {
			if s.Start.Before(end) {
				return s, true
			}
			continue
		}
		sEnd := *s.End
		if sEnd.Before(s.Start) {
			sEnd = s.Start
		}
		if start.Before(sEnd) && s.Start.Before(end) {
			return s, true
		}
	}
	return store.Session{}, false
}

func (e *Engine) dropWarnings(id string) {
	kept := e.warnings[:0]
	for _, w := range e.warnings {
		mentions := false
		for _, sid := range w.SessionIDs {
			if sid == id {
				mentions = true
			}
		}
		if !mentions {
			kept = append(kept, w)
		}
	}
	e.warnings = kept
}
