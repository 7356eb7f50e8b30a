package engine

import (
	"context"
	"time"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/store"
)

func (e *Engine) CurrentState() State {
	return e.state.clone()
}

// Now is the engine's clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}

// Sessions returns the sessions dated date, including writes not yet
// persisted. An empty date returns every session.
func (e *Engine) Sessions(ctx context.Context, date string) ([]store.Session, error) {
	return e.load(ctx, store.Filter{Date: date})
}

// DayRecord aggregates date, an open session counting up to now.
func (e *Engine) DayRecord(ctx context.Context, date string) (aggregate.DayRecord, error) {
	now := e.now()
	day, err := time.ParseInLocation(store.DateLayout, date, now.Location())
	if err != nil {
		return aggregate.DayRecord{}, apperrors.InvalidInput("invalid date " + date)
	}
	sessions, err := e.load(ctx, store.Filter{Date: date})
	if err != nil {
		return aggregate.DayRecord{}, err
	}
	rec := aggregate.Day(date, sessions, aggregate.Options{Now: now, TargetSeconds: e.settings.TargetSeconds(day)})
	rec.Finalized = e.registry.IsFinalized(date)
	return rec, nil
}

// Range aggregates every day in [from, to] that has sessions and returns
// those sessions too.
func (e *Engine) Range(ctx context.Context, from, to string) ([]aggregate.DayRecord, []store.Session, error) {
	if _, err := time.Parse(store.DateLayout, from); err != nil {
		return nil, nil, apperrors.InvalidInput("invalid date " + from)
	}
	if _, err := time.Parse(store.DateLayout, to); err != nil {
		return nil, nil, apperrors.InvalidInput("invalid date " + to)
	}
	if to < from {
		return nil, nil, apperrors.InvalidRange("from must not be after to")
	}
	all, err := e.load(ctx, store.Filter{})
	if err != nil {
		return nil, nil, err
	}
	var sessions []store.Session
	for _, s := range all {
		if s.Date >= from && s.Date <= to {
			sessions = append(sessions, s)
		}
	}
	days := aggregate.Days(sessions, e.now(), e.settings.TargetSeconds)
	for i := range days {
		days[i].Finalized = e.registry.IsFinalized(days[i].Date)
	}
	return days, sessions, nil
}

// RecentCombinations lists at most store.MaxRecent pairs, newest first.
func (e *Engine) RecentCombinations() []store.Combination {
	return append([]store.Combination{}, e.registry.RecentCombinations...)
}

func (e *Engine) Registry() store.Registry {
	return e.registry.Clone()
}

// Warnings lists data consistency problems found at startup that have not
// been repaired.
func (e *Engine) Warnings() []error {
	out := make([]error, 0, len(e.warnings))
	for _, w := range e.warnings {
		out = append(out, w.Err())
	}
	return out
}

// Pending counts writes waiting to be persisted.
func (e *Engine) Pending() int {
	n := len(e.queue)
	if e.registryDirty {
		n++
	}
	return n
}
