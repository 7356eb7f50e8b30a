package store

import (
	"time"
)

// BreakProject is the reserved project name of manual break sessions.
const BreakProject = "BREAK"

// DateLayout is the layout of Session.Date and Filter.Date.
const DateLayout = "2006-01-02"

// Session is one contiguous interval of work, or a manual break when
// Project is BreakProject.
type Session struct {
	ID      string
	Date    string
	Start   time.Time
	End     *time.Time // nil while the session is open
	Project string
	Task    string
	Note    string
}

func (s Session) IsOpen() bool  { return s.End == nil }
func (s Session) IsBreak() bool { return s.Project == BreakProject }

// Duration is End-Start for a closed session and zero while open.
func (s Session) Duration() time.Duration {
	if s.End == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Clone returns a copy that shares no pointers with s.
func (s Session) Clone() Session {
	if s.End != nil {
		end := *s.End
		s.End = &end
	}
	return s
}

// Filter selects sessions in LoadSessions. An empty Date matches every day.
type Filter struct {
	Date string
}

// Match reports whether s passes the filter.
func (f Filter) Match(s Session) bool {
	return f.Date == "" || s.Date == f.Date
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
