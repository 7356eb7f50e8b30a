package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const sessionColumns = `id, date, start_time, end_time, project, task, note`

// LoadSessions returns the sessions matching f ordered by date, then
// insertion order.
func (s *Store) LoadSessions(ctx context.Context, f Filter) ([]Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if f.Date != "" {
		query += ` WHERE date = ?`
		args = append(args, f.Date)
	}
	query += ` ORDER BY date, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// AppendOrUpdateSession inserts sess, or replaces the row with the same id
// keeping its position.
func (s *Store) AppendOrUpdateSession(ctx context.Context, sess Session) error {
	var end sql.NullString
	if sess.End != nil {
		end = sql.NullString{String: sess.End.Format(time.RFC3339), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, date, start_time, end_time, project, task, note, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			project = excluded.project,
			task = excluded.task,
			note = excluded.note,
			duration = excluded.duration`,
		sess.ID, sess.Date, sess.Start.Format(time.RFC3339), end,
		sess.Project, sess.Task, sess.Note, int64(sess.Duration().Seconds()),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var sess Session
	var start string
	var end sql.NullString
	if err := r.Scan(&sess.ID, &sess.Date, &start, &end, &sess.Project, &sess.Task, &sess.Note); err != nil {
		return Session{}, err
	}
	t, err := parseTime(start)
	if err != nil {
		return Session{}, fmt.Errorf("session %s start: %w", sess.ID, err)
	}
	sess.Start = t
	if end.Valid {
		t, err := parseTime(end.String)
		if err != nil {
			return Session{}, fmt.Errorf("session %s end: %w", sess.ID, err)
		}
		sess.End = &t
	}
	return sess, nil
}

// parseTime accepts RFC3339 and the zone-less ISO form older session files
// use, which is read as local time.
func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t.In(time.Local), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
}
