package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/store"
)

func at(day, hh, mm int) time.Time {
	return time.Date(2024, 3, day, hh, mm, 0, 0, time.UTC)
}

func closed(id string, from, to time.Time, project string) store.Session {
	return store.Session{ID: id, Date: store.DateOf(from), Start: from, End: &to, Project: project, Task: "T"}
}

func TestHoursRounding(t *testing.T) {
	tests := []struct {
		secs int64
		want float64
	}{
		{0, 0},
		{1800, 0.5},
		{3600, 1},
		{1234, 0.34},
		{29700, 8.25},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Hours(tt.secs), "Hours(%d)", tt.secs)
	}
}

func TestSessionRow(t *testing.T) {
	row := Session(closed("a", at(4, 9, 0), at(4, 10, 30), "Acme"))
	assert.Equal(t, "2024-03-04", row.Date)
	assert.Equal(t, "09:00:00", row.Start)
	assert.Equal(t, "10:30:00", row.End)
	assert.Equal(t, 1.5, row.DurationHours)
	assert.Equal(t, KindWork, row.Kind)

	brk := Session(closed("b", at(4, 12, 0), at(4, 12, 30), store.BreakProject))
	assert.Equal(t, KindBreak, brk.Kind)
	assert.Equal(t, 0.5, brk.DurationHours)

	open := Session(store.Session{ID: "o", Date: "2024-03-04", Start: at(4, 13, 0), Project: "P", Task: "T"})
	assert.Equal(t, "", open.End)
	assert.Equal(t, 0.0, open.DurationHours)
}

func TestSummaryLabels(t *testing.T) {
	none := Summary(aggregate.DayRecord{Date: "2024-03-04", TargetSeconds: 8 * 3600, DifferenceSeconds: -8 * 3600, Status: aggregate.StatusBelow})
	assert.Equal(t, LabelNoWork, none.Status)
	assert.Equal(t, "Monday", none.Weekday)
	assert.Equal(t, -8.0, none.DifferenceHours)

	below := Summary(aggregate.DayRecord{Date: "2024-03-05", WorkSeconds: 3600, Status: aggregate.StatusBelow})
	assert.Equal(t, LabelBelowTarget, below.Status)

	reached := Summary(aggregate.DayRecord{Date: "2024-03-05", WorkSeconds: 9 * 3600, TargetSeconds: 8 * 3600,
		DifferenceSeconds: 3600, Status: aggregate.StatusReached, Finalized: true})
	assert.Equal(t, LabelTargetReached, reached.Status)
	assert.Equal(t, 1.0, reached.DifferenceHours)
	assert.True(t, reached.Finalized)
}

func TestBuildPairsRowsByDate(t *testing.T) {
	sessions := []store.Session{
		closed("a", at(4, 9, 0), at(4, 12, 0), "Acme"),
		closed("b", at(5, 9, 0), at(5, 10, 0), "Acme"),
		closed("brk", at(4, 12, 0), at(4, 12, 30), store.BreakProject),
	}
	days := aggregate.Days(sessions, time.Time{}, nil)
	r := Build(days, sessions, aggregate.Projects(sessions))

	require.Len(t, r.Days, 2)
	assert.Equal(t, "2024-03-04", r.Days[0].Summary.Date)
	require.Len(t, r.Days[0].Sessions, 2)
	assert.Equal(t, "brk", r.Days[0].Sessions[1].ID)
	assert.Equal(t, 3.0, r.Days[0].Summary.WorkHours)
	assert.Equal(t, 0.5, r.Days[0].Summary.BreakHours)
	assert.Len(t, r.Days[1].Sessions, 1)

	assert.Len(t, r.SessionRows(), 3)
	assert.Len(t, r.SummaryRows(), 2)
	require.Len(t, r.Projects, 1)
	assert.Equal(t, 4.0, r.Projects[0].Hours)
}
