package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	return NewJSONStore(filepath.Join(t.TempDir(), SessionsFile))
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	s := newTestJSONStore(t)
	got, err := s.LoadSessions(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONStoreRoundTripAndRecordShape(t *testing.T) {
	s := newTestJSONStore(t)
	ctx := context.Background()

	work := closedSession("w", day1, 9, 0, 90*time.Minute, "Acme", "API")
	work.Note = "review"
	brk := closedSession("b", day1, 12, 0, 30*time.Minute, BreakProject, "Lunch")
	openStart := time.Date(2024, 3, 4, 13, 0, 0, 0, time.Local)
	open := Session{ID: "o", Date: DateOf(openStart), Start: openStart, Project: "Acme", Task: "API"}

	for _, sess := range []Session{work, brk, open} {
		require.NoError(t, s.AppendOrUpdateSession(ctx, sess))
	}

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 3)

	assert.Equal(t, "w", records[0]["id"])
	assert.Equal(t, "2024-03-04", records[0]["date"])
	assert.Equal(t, float64(5400), records[0]["duration_seconds"])
	assert.Equal(t, false, records[0]["is_active"])
	assert.Equal(t, "work", records[0]["session_type"])
	assert.Equal(t, "review", records[0]["note"])
	assert.Equal(t, "break", records[1]["session_type"])
	assert.Nil(t, records[2]["end_time"])
	assert.Equal(t, true, records[2]["is_active"])

	got, err := s.LoadSessions(ctx, Filter{Date: "2024-03-04"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Start.Equal(work.Start))
	assert.True(t, got[0].End.Equal(*work.End))
	assert.Equal(t, "review", got[0].Note)
	assert.True(t, got[1].IsBreak())
	assert.True(t, got[2].IsOpen())
}

func TestJSONStoreUpdateInPlaceAndDelete(t *testing.T) {
	s := newTestJSONStore(t)
	ctx := context.Background()

	a := closedSession("a", day1, 9, 0, time.Hour, "P", "T")
	b := closedSession("b", day1, 11, 0, time.Hour, "P", "T")
	require.NoError(t, s.AppendOrUpdateSession(ctx, a))
	require.NoError(t, s.AppendOrUpdateSession(ctx, b))

	a.Task = "Other"
	require.NoError(t, s.AppendOrUpdateSession(ctx, a))

	got, err := s.LoadSessions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "Other", got[0].Task)

	require.NoError(t, s.DeleteSession(ctx, "a"))
	assert.ErrorIs(t, s.DeleteSession(ctx, "a"), ErrNotFound)

	got, err = s.LoadSessions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestJSONStoreOrdersByDateThenInsertion(t *testing.T) {
	s := newTestJSONStore(t)
	ctx := context.Background()
	require.NoError(t, s.AppendOrUpdateSession(ctx, closedSession("d2", day2, 8, 0, time.Hour, "P", "T")))
	require.NoError(t, s.AppendOrUpdateSession(ctx, closedSession("d1", day1, 8, 0, time.Hour, "P", "T")))

	got, err := s.LoadSessions(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d1", got[0].ID)
	assert.Equal(t, "d2", got[1].ID)
}

func TestJSONStoreReadsLegacyRecords(t *testing.T) {
	s := newTestJSONStore(t)
	legacy := `[{"id":"x","start_time":"2024-03-04T09:00:00.500000","end_time":"2024-03-04T10:00:00",
	"project":"P","task":"T","duration_seconds":3600,"is_active":false,"session_type":"work"}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	got, err := s.LoadSessions(context.Background(), Filter{Date: "2024-03-04"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-03-04", got[0].Date)
	assert.Equal(t, "", got[0].Note)
	require.NotNil(t, got[0].End)
}

func TestJSONStoreCorruptFile(t *testing.T) {
	s := newTestJSONStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))
	_, err := s.LoadSessions(context.Background(), Filter{})
	assert.Error(t, err)
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
