package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/store"
)

type writeOp int

const (
	opUpsert writeOp = iota
	opDelete
)

// write is one queued session store mutation.
type write struct {
	op      writeOp
	session store.Session
}

func (w write) id() string { return w.session.ID }

func (e *Engine) enqueue(op writeOp, s store.Session) {
	e.queue = append(e.queue, write{op: op, session: s.Clone()})
}

// flush writes the queue in order, then the registry if it changed. It stops
// at the first write that still fails after retries; that write and
// everything behind it stay queued.
func (e *Engine) flush(ctx context.Context) error {
	for len(e.queue) > 0 {
		w := e.queue[0]
		err := e.withRetry(ctx, "session", func(ctx context.Context) error {
			if w.op == opDelete {
				err := e.sessions.DeleteSession(ctx, w.id())
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return err
			}
			return e.sessions.AppendOrUpdateSession(ctx, w.session)
		})
		if err != nil {
			e.log.WithError(err).WithField("pending", e.Pending()).Error("session write failed, keeping it queued")
			return apperrors.PersistenceFailure(err, e.Pending())
		}
		e.queue = e.queue[1:]
	}

	if e.registryDirty {
		reg := e.registry.Clone()
		err := e.withRetry(ctx, "registry", func(ctx context.Context) error {
			return e.registryStore.SaveProjectRegistry(ctx, reg)
		})
		if err != nil {
			e.log.WithError(err).Error("registry save failed, keeping it queued")
			return apperrors.PersistenceFailure(err, e.Pending())
		}
		e.registryDirty = false
	}
	return nil
}

// withRetry runs fn with exponential backoff bounded by the retry policy.
func (e *Engine) withRetry(ctx context.Context, what string, fn func(context.Context) error) error {
	if e.retry.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.retry.Timeout)
		defer cancel()
	}

	attempts := e.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.retry.Initial
	if e.retry.Max > 0 {
		policy.MaxInterval = e.retry.Max
	}
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = e.retry.Timeout
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return fn(ctx)
	}, b, func(err error, delay time.Duration) {
		e.log.WithError(err).WithField("attempt", attempt).Warnf("%s write failed, retrying in %s", what, delay)
	})
}

// load reads sessions from the store and overlays writes that are still
// queued, so callers see every accepted mutation.
func (e *Engine) load(ctx context.Context, f store.Filter) ([]store.Session, error) {
	sessions, err := e.sessions.LoadSessions(ctx, f)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodePersistenceFailure, "could not load sessions")
	}
	for _, w := range e.queue {
		idx := -1
		for i := range sessions {
			if sessions[i].ID == w.id() {
				idx = i
				break
			}
		}
		switch {
		case w.op == opDelete || !f.Match(w.session):
			if idx >= 0 {
				sessions = append(sessions[:idx], sessions[idx+1:]...)
			}
		case idx >= 0:
			sessions[idx] = w.session.Clone()
		default:
			sessions = append(sessions, w.session.Clone())
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool { return sessions[i].Date < sessions[j].Date })
	return sessions, nil
}

func (e *Engine) find(ctx context.Context, id string) (store.Session, error) {
	all, err := e.load(ctx, store.Filter{})
	if err != nil {
		return store.Session{}, err
	}
	for _, s := range all {
		if s.ID == id {
			return s, nil
		}
	}
	return store.Session{}, apperrors.SessionNotFound(id)
}
