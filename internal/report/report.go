// Package report maps sessions and day aggregates onto the rows consumed by
// report writers. It formats values; it never aggregates.
package report

import (
	"math"
	"time"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/store"
)

const (
	LabelNoWork        = "No work"
	LabelTargetReached = "Target reached"
	LabelBelowTarget   = "Below target"
)

const (
	KindWork  = "work"
	KindBreak = "break"
)

type SessionRow struct {
	ID              string  `json:"id" yaml:"id"`
	Date            string  `json:"date" yaml:"date"`
	Start           string  `json:"start" yaml:"start"`
	End             string  `json:"end" yaml:"end"`
	DurationHours   float64 `json:"duration_hours" yaml:"duration_hours"`
	DurationSeconds int64   `json:"duration_seconds" yaml:"duration_seconds"`
	Project         string  `json:"project" yaml:"project"`
	Task            string  `json:"task" yaml:"task"`
	Note            string  `json:"note,omitempty" yaml:"note,omitempty"`
	Kind            string  `json:"kind" yaml:"kind"`
}

type SummaryRow struct {
	Date            string  `json:"date" yaml:"date"`
	Weekday         string  `json:"weekday" yaml:"weekday"`
	WorkHours       float64 `json:"work_hours" yaml:"work_hours"`
	BreakHours      float64 `json:"break_hours" yaml:"break_hours"`
	TotalHours      float64 `json:"total_hours" yaml:"total_hours"`
	TargetHours     float64 `json:"target_hours" yaml:"target_hours"`
	DifferenceHours float64 `json:"difference_hours" yaml:"difference_hours"`
	Status          string  `json:"status" yaml:"status"`
	Finalized       bool    `json:"finalized" yaml:"finalized"`

	WorkSeconds       int64 `json:"work_seconds" yaml:"work_seconds"`
	BreakSeconds      int64 `json:"break_seconds" yaml:"break_seconds"`
	DifferenceSeconds int64 `json:"difference_seconds" yaml:"difference_seconds"`
}

type ProjectRow struct {
	Month    string  `json:"month" yaml:"month"`
	Project  string  `json:"project" yaml:"project"`
	Task     string  `json:"task" yaml:"task"`
	Hours    float64 `json:"hours" yaml:"hours"`
	Seconds  int64   `json:"seconds" yaml:"seconds"`
	Sessions int     `json:"sessions" yaml:"sessions"`
}

// Day pairs one summary row with the session rows of the same date.
type Day struct {
	Summary  SummaryRow   `json:"summary" yaml:"summary"`
	Sessions []SessionRow `json:"sessions" yaml:"sessions"`
}

type Report struct {
	Days     []Day        `json:"days" yaml:"days"`
	Projects []ProjectRow `json:"projects,omitempty" yaml:"projects,omitempty"`
}

// Hours converts seconds to decimal hours rounded to two places.
func Hours(seconds int64) float64 {
	return math.Round(float64(seconds)/36) / 100
}

// Session maps one session. Open sessions get an empty End and zero hours.
func Session(s store.Session) SessionRow {
	row := SessionRow{
		ID:      s.ID,
		Date:    s.Date,
		Start:   s.Start.Format("15:04:05"),
		Project: s.Project,
		Task:    s.Task,
		Note:    s.Note,
		Kind:    KindWork,
	}
	if s.IsBreak() {
		row.Kind = KindBreak
	}
	if s.End != nil {
		row.End = s.End.Format("15:04:05")
		row.DurationSeconds = int64(s.Duration() / time.Second)
		row.DurationHours = Hours(row.DurationSeconds)
	}
	return row
}

func Sessions(sessions []store.Session) []SessionRow {
	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, Session(s))
	}
	return rows
}

func Summary(rec aggregate.DayRecord) SummaryRow {
	row := SummaryRow{
		Date:              rec.Date,
		WorkHours:         Hours(rec.WorkSeconds),
		BreakHours:        Hours(rec.BreakSeconds),
		TotalHours:        Hours(rec.TotalSeconds),
		TargetHours:       Hours(rec.TargetSeconds),
		DifferenceHours:   signedHours(rec.DifferenceSeconds),
		Status:            StatusLabel(rec),
		Finalized:         rec.Finalized,
		WorkSeconds:       rec.WorkSeconds,
		BreakSeconds:      rec.BreakSeconds,
		DifferenceSeconds: rec.DifferenceSeconds,
	}
	if d, err := time.Parse(store.DateLayout, rec.Date); err == nil {
		row.Weekday = d.Weekday().String()
	}
	return row
}

func StatusLabel(rec aggregate.DayRecord) string {
	switch {
	case rec.WorkSeconds == 0:
		return LabelNoWork
	case rec.Status == aggregate.StatusReached:
		return LabelTargetReached
	default:
		return LabelBelowTarget
	}
}

func signedHours(seconds int64) float64 {
	if seconds < 0 {
		return -Hours(-seconds)
	}
	return Hours(seconds)
}

func Projects(totals []aggregate.ProjectTotal) []ProjectRow {
	rows := make([]ProjectRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, ProjectRow{
			Month:    t.Month,
			Project:  t.Project,
			Task:     t.Task,
			Hours:    Hours(t.Seconds),
			Seconds:  t.Seconds,
			Sessions: t.Sessions,
		})
	}
	return rows
}

// Build pairs every day with its sessions in date order. Sessions of dates
// without a DayRecord are left out.
func Build(days []aggregate.DayRecord, sessions []store.Session, projects []aggregate.ProjectTotal) Report {
	byDate := make(map[string][]store.Session)
	for _, s := range sessions {
		byDate[s.Date] = append(byDate[s.Date], s)
	}

	r := Report{Days: make([]Day, 0, len(days)), Projects: Projects(projects)}
	for _, rec := range days {
		r.Days = append(r.Days, Day{
			Summary:  Summary(rec),
			Sessions: Sessions(byDate[rec.Date]),
		})
	}
	return r
}

// SessionRows flattens the session rows of every day.
func (r Report) SessionRows() []SessionRow {
	var rows []SessionRow
	for _, d := range r.Days {
		rows = append(rows, d.Sessions...)
	}
	return rows
}

func (r Report) SummaryRows() []SummaryRow {
	rows := make([]SummaryRow, 0, len(r.Days))
	for _, d := range r.Days {
		rows = append(rows, d.Summary)
	}
	return rows
}
