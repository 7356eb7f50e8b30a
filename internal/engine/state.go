package engine

import (
	"strings"
	"time"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/store"
)

// Phase is the engine's position in the work/pause state machine.
type Phase int

const (
	Stopped Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// State is a read-only snapshot of the engine.
type State struct {
	Phase          Phase
	Current        *store.Session // open session while Running
	PauseStartedAt *time.Time     // set while Paused
	ActiveProject  string
	ActiveTask     string
}

func (s State) clone() State {
	if s.Current != nil {
		c := s.Current.Clone()
		s.Current = &c
	}
	if s.PauseStartedAt != nil {
		p := *s.PauseStartedAt
		s.PauseStartedAt = &p
	}
	return s
}

// Elapsed is the running time of the open session at now.
func (s State) Elapsed(now time.Time) time.Duration {
	if s.Current == nil || now.Before(s.Current.Start) {
		return 0
	}
	return now.Sub(s.Current.Start)
}

// PauseElapsed is the length of the current pause at now.
func (s State) PauseElapsed(now time.Time) time.Duration {
	if s.PauseStartedAt == nil || now.Before(*s.PauseStartedAt) {
		return 0
	}
	return now.Sub(*s.PauseStartedAt)
}

// SwitchRequest selects a project and task from the registry.
type SwitchRequest struct {
	Project string
	Task    string
}

func (r SwitchRequest) normalize() SwitchRequest {
	return SwitchRequest{Project: strings.TrimSpace(r.Project), Task: strings.TrimSpace(r.Task)}
}

// Validate checks the request against reg.
func (r SwitchRequest) Validate(reg store.Registry) error {
	switch {
	case r.Project == "" || r.Task == "":
		return apperrors.InvalidInput("project and task are required")
	case r.Project == store.BreakProject:
		return apperrors.InvalidInput("BREAK is reserved for manual breaks")
	case !reg.HasProject(r.Project):
		return apperrors.InvalidInput("unknown project " + r.Project).WithDetail("project", r.Project)
	case !reg.HasTask(r.Project, r.Task):
		return apperrors.InvalidInput("unknown task " + r.Task + " for project " + r.Project).
			WithDetail("project", r.Project).
			WithDetail("task", r.Task)
	}
	return nil
}

func (r SwitchRequest) combination() store.Combination {
	return store.Combination{Project: r.Project, Task: r.Task}
}
