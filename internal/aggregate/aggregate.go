// Package aggregate derives daily work and break totals from raw sessions.
// Every function here is pure: the same sessions and options always give the
// same result.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/store"
)

type Status string

const (
	StatusReached Status = "reached"
	StatusBelow   Status = "below"
)

type WarningKind string

const (
	OpenSessionPastDay  WarningKind = "open_session_past_day"
	OverlappingSessions WarningKind = "overlapping_sessions"
	// StrayOpenSession is an open session that is not the latest of its day.
	StrayOpenSession WarningKind = "stray_open_session"
)

// Warning is a data consistency finding. Aggregation never repairs data; it
// clamps the affected value and reports it here.
type Warning struct {
	Kind       WarningKind `json:"kind"`
	SessionIDs []string    `json:"session_ids"`
	Message    string      `json:"message"`
}

func (w Warning) Error() string { return w.Message }

// Err converts w into a coded DATA_CONSISTENCY error.
func (w Warning) Err() error {
	return apperrors.DataConsistency(w.Message).
		WithDetail("kind", string(w.Kind)).
		WithDetail("sessions", w.SessionIDs)
}

// DayRecord is the derived aggregate of one calendar day.
type DayRecord struct {
	Date              string     `json:"date"`
	WorkSeconds       int64      `json:"work_seconds"`
	BreakSeconds      int64      `json:"break_seconds"`
	TotalSeconds      int64      `json:"total_seconds"`
	TargetSeconds     int64      `json:"target_seconds"`
	DifferenceSeconds int64      `json:"difference_seconds"`
	Status            Status     `json:"status"`
	SessionCount      int        `json:"session_count"`
	FirstStart        *time.Time `json:"first_start,omitempty"`
	LastEnd           *time.Time `json:"last_end,omitempty"`
	Finalized         bool       `json:"finalized"`
	Warnings          []Warning  `json:"warnings,omitempty"`
}

type Options struct {
	// Now is only consulted for an open session on Now's own date.
	Now           time.Time
	TargetSeconds int64
}

type interval struct {
	start, end time.Time
}

// Day aggregates the sessions dated date.
func Day(date string, sessions []store.Session, opts Options) DayRecord {
	rec := DayRecord{Date: date, TargetSeconds: opts.TargetSeconds}
	isToday := !opts.Now.IsZero() && store.DateOf(opts.Now) == date

	var work []store.Session
	var breaks []interval
	var breakSeconds int64

	for _, s := range sessions {
		if s.Date != date {
			continue
		}
		rec.SessionCount++
		if rec.FirstStart == nil || s.Start.Before(*rec.FirstStart) {
			start := s.Start
			rec.FirstStart = &start
		}
		if s.End != nil && (rec.LastEnd == nil || s.End.After(*rec.LastEnd)) {
			end := *s.End
			rec.LastEnd = &end
		}
		if s.IsBreak() {
			if s.End != nil {
				breakSeconds += seconds(s.Duration())
				breaks = append(breaks, interval{s.Start, *s.End})
			}
			continue
		}
		work = append(work, s)
	}

	sort.SliceStable(work, func(i, j int) bool { return work[i].Start.Before(work[j].Start) })
	breaks = merge(breaks)

	var workSeconds, gapSeconds int64
	var prevEnd time.Time
	var prevID string
	anchored := false
	for _, s := range work {
		end := s.Start
		switch {
		case s.End != nil:
			end = *s.End
		case isToday:
			if opts.Now.After(s.Start) {
				end = opts.Now
			}
		default:
			// Never closed: no work and no gap boundary until it is repaired.
			rec.Warnings = append(rec.Warnings, Warning{
				Kind:       OpenSessionPastDay,
				SessionIDs: []string{s.ID},
				Message:    fmt.Sprintf("session %s on %s was never closed", s.ID, date),
			})
			continue
		}
		workSeconds += seconds(end.Sub(s.Start))

		if anchored {
			if s.Start.Before(prevEnd) {
				rec.Warnings = append(rec.Warnings, Warning{
					Kind:       OverlappingSessions,
					SessionIDs: []string{prevID, s.ID},
					Message:    fmt.Sprintf("sessions %s and %s overlap on %s", prevID, s.ID, date),
				})
			} else {
				gap := interval{prevEnd, s.Start}
				gapSeconds += seconds(gap.end.Sub(gap.start) - covered(gap, breaks))
			}
		}
		if !anchored || end.After(prevEnd) {
			prevEnd = end
			prevID = s.ID
		}
		anchored = true
	}

	rec.WorkSeconds = workSeconds
	rec.BreakSeconds = breakSeconds + gapSeconds
	rec.TotalSeconds = rec.WorkSeconds + rec.BreakSeconds
	rec.DifferenceSeconds = rec.WorkSeconds - rec.TargetSeconds
	rec.Status = StatusBelow
	if rec.DifferenceSeconds >= 0 {
		rec.Status = StatusReached
	}
	return rec
}

// Days aggregates every date present in sessions, oldest first. target
// supplies the work target for each day.
func Days(sessions []store.Session, now time.Time, target func(day time.Time) int64) []DayRecord {
	seen := make(map[string]time.Time)
	for _, s := range sessions {
		if _, ok := seen[s.Date]; !ok {
			seen[s.Date] = s.Start
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]DayRecord, 0, len(dates))
	for _, d := range dates {
		var t int64
		if target != nil {
			t = target(seen[d])
		}
		out = append(out, Day(d, sessions, Options{Now: now, TargetSeconds: t}))
	}
	return out
}

func seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}

func merge(in []interval) []interval {
	if len(in) < 2 {
		return in
	}
	sort.Slice(in, func(i, j int) bool { return in[i].start.Before(in[j].start) })
	out := []interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if !iv.start.After(last.end) {
			if iv.end.After(last.end) {
				last.end = iv.end
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// covered is the part of gap overlapped by the merged break intervals.
func covered(gap interval, breaks []interval) time.Duration {
	var d time.Duration
	for _, b := range breaks {
		start, end := b.start, b.end
		if start.Before(gap.start) {
			start = gap.start
		}
		if end.After(gap.end) {
			end = gap.end
		}
		if end.After(start) {
			d += end.Sub(start)
		}
	}
	return d
}
