package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"
)

// sessionRecord is the on-disk shape of a session in sessions.json.
type sessionRecord struct {
	ID              string  `json:"id"`
	Date            string  `json:"date,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Project         string  `json:"project"`
	Task            string  `json:"task"`
	DurationSeconds int64   `json:"duration_seconds"`
	IsActive        bool    `json:"is_active"`
	SessionType     string  `json:"session_type"`
	Note            string  `json:"note"`
}

func toRecord(s Session) sessionRecord {
	r := sessionRecord{
		ID:              s.ID,
		Date:            s.Date,
		StartTime:       s.Start.Format(time.RFC3339),
		Project:         s.Project,
		Task:            s.Task,
		DurationSeconds: int64(s.Duration().Seconds()),
		IsActive:        s.IsOpen(),
		SessionType:     "work",
		Note:            s.Note,
	}
	if s.End != nil {
		end := s.End.Format(time.RFC3339)
		r.EndTime = &end
	}
	if s.IsBreak() {
		r.SessionType = "break"
	}
	return r
}

func (r sessionRecord) session() (Session, error) {
	start, err := parseTime(r.StartTime)
	if err != nil {
		return Session{}, fmt.Errorf("session %s start: %w", r.ID, err)
	}
	s := Session{
		ID:      r.ID,
		Date:    r.Date,
		Start:   start,
		Project: r.Project,
		Task:    r.Task,
		Note:    r.Note,
	}
	if s.Date == "" {
		s.Date = DateOf(start)
	}
	if r.EndTime != nil && *r.EndTime != "" {
		end, err := parseTime(*r.EndTime)
		if err != nil {
			return Session{}, fmt.Errorf("session %s end: %w", r.ID, err)
		}
		s.End = &end
	}
	return s, nil
}

// JSONStore keeps every session in a single JSON array file. Each write
// rewrites the file atomically.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) LoadSessions(ctx context.Context, f Filter) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	var out []Session
	for _, sess := range all {
		if f.Match(sess) {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *JSONStore) AppendOrUpdateSession(ctx context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].ID == sess.ID {
			all[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, sess)
	}
	return s.writeAll(all)
}

func (s *JSONStore) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return s.writeAll(all)
		}
	}
	return ErrNotFound
}

func (s *JSONStore) readAll() ([]Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sessions: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []sessionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	sessions := make([]Session, 0, len(records))
	for _, r := range records {
		sess, err := r.session()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func (s *JSONStore) writeAll(sessions []Session) error {
	records := make([]sessionRecord, 0, len(sessions))
	for _, sess := range sessions {
		records = append(records, toRecord(sess))
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write sessions: %w", err)
	}
	return nil
}
