package engine

import (
	"context"
	"time"

	"github.com/sadopc/taskonaut/internal/store"
)

// Settings is read at operation time, so changes apply to the next call.
type Settings interface {
	AutoSplitThreshold() time.Duration
	TargetSeconds(day time.Time) int64
}

type SessionStore interface {
	LoadSessions(ctx context.Context, f store.Filter) ([]store.Session, error)
	AppendOrUpdateSession(ctx context.Context, s store.Session) error
	DeleteSession(ctx context.Context, id string) error
}

type RegistryStore interface {
	LoadProjectRegistry(ctx context.Context) (store.Registry, error)
	SaveProjectRegistry(ctx context.Context, r store.Registry) error
}

// RetryPolicy bounds the retries of a single store write.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
	// Timeout caps all attempts of one write together. Zero means none.
	Timeout time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 4,
		Initial:  100 * time.Millisecond,
		Max:      time.Second,
		Timeout:  5 * time.Second,
	}
}
