package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/config"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/store"
)

type cliHarness struct {
	t     *testing.T
	dir   string
	clock *clock.Fake
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	return &cliHarness{
		t:     t,
		dir:   t.TempDir(),
		clock: clock.NewFake(at(9, 0)),
	}
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 3, 4, hh, mm, 0, 0, time.Local)
}

type result struct {
	out  string
	err  string
	code int
}

func (h *cliHarness) run(args ...string) result {
	h.t.Helper()
	quiet := false
	o := &options{
		clock:     h.clock,
		retry:     engine.RetryPolicy{Attempts: 1, Initial: time.Millisecond, Max: time.Millisecond},
		logStderr: &quiet,
	}
	root := newRootCmd(o)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--data-dir", h.dir}, args...))
	code := run(context.Background(), root, o, &stderr)
	return result{out: stdout.String(), err: stderr.String(), code: code}
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	res := h.run(args...)
	require.Equal(h.t, 0, res.code, "taskonaut %v failed: %s", args, res.err)
	return res.out
}

var shortIDPattern = regexp.MustCompile(`session ([0-9a-f]{8})\)`)

func shortIDFrom(t *testing.T, out string) string {
	t.Helper()
	m := shortIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, "no session id in %q", out)
	return m[1]
}

func TestStartStatusPause(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("start")
	assert.Contains(t, out, "started General / Daily Work at 09:00:00")

	h.clock.Set(at(10, 30))
	out = h.mustRun("status")
	assert.Contains(t, out, "state:   running")
	assert.Contains(t, out, "ago (09:00)")
	assert.Contains(t, out, "work 1h 30m")
	assert.Contains(t, out, "remaining 6h 30m")

	out = h.mustRun("pause")
	assert.Contains(t, out, "paused General / Daily Work after 1h 30m")

	out = h.mustRun("status")
	assert.Contains(t, out, "state:   stopped")
	assert.Contains(t, out, "work 1h 30m")
}

func TestStartTwiceFails(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("start")

	res := h.run("start")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "error:")
}

func TestPauseWithoutSessionFails(t *testing.T) {
	h := newCLIHarness(t)
	res := h.run("pause")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "error:")
}

func TestSwitchSplitsAfterThreshold(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("project", "add", "Acme", "API", "Docs")
	h.mustRun("start")

	h.clock.Set(at(9, 2))
	out := h.mustRun("switch", "Acme", "API")
	assert.Contains(t, out, "switched")
	assert.Contains(t, out, "Acme / API")

	h.clock.Set(at(9, 30))
	out = h.mustRun("switch", "Acme", "Docs")
	assert.Contains(t, out, "split: closed")

	out = h.mustRun("sessions")
	assert.Contains(t, out, "API")
	assert.Contains(t, out, "Docs")
	assert.Contains(t, out, "running")

	out = h.mustRun("recent")
	assert.Contains(t, out, " 1. Acme - Docs")
	assert.Contains(t, out, " 2. Acme - API")
}

func TestSwitchUnknownProjectFails(t *testing.T) {
	h := newCLIHarness(t)
	res := h.run("switch", "Nope", "Task")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "Nope")
}

func TestProjectAndTaskCommands(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("project", "add", "Acme")
	h.mustRun("task", "add", "Acme", "Review")

	out := h.mustRun("project", "list")
	assert.Contains(t, out, "General\n")
	assert.Contains(t, out, "  * Daily Work")
	assert.Contains(t, out, "Acme\n")
	assert.Contains(t, out, "    Review")

	res := h.run("task", "add", "Missing", "Review")
	assert.Equal(t, 1, res.code)

	_, err := os.Stat(filepath.Join(h.dir, config.FileName))
	assert.NoError(t, err, "registry changes should create config.json")
}

func TestBreakNoteAndDelete(t *testing.T) {
	h := newCLIHarness(t)
	h.clock.Set(at(13, 0))

	out := h.mustRun("break", "--from", "12:00", "--to", "12:30", "--note", "lunch")
	assert.Contains(t, out, "break 12:00-12:30 recorded")
	id := shortIDFrom(t, out)

	h.mustRun("note", id, "long", "lunch")
	out = h.mustRun("sessions", "--date", "2024-03-04")
	assert.Contains(t, out, "long lunch")
	assert.Contains(t, out, store.BreakProject)

	out = h.mustRun("delete", id)
	assert.Contains(t, out, "deleted "+id)
	out = h.mustRun("sessions")
	assert.Contains(t, out, "no sessions")
}

func TestBreakValidation(t *testing.T) {
	h := newCLIHarness(t)

	res := h.run("break", "--from", "12:00")
	assert.Equal(t, 1, res.code)

	res = h.run("break", "--from", "12:30", "--to", "12:00")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "after its start")

	res = h.run("break", "--from", "noon", "--to", "12:30")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "invalid time")

	h.mustRun("start")
	h.clock.Set(at(13, 0))
	res = h.run("break", "--from", "12:00", "--to", "12:30")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "overlaps")
}

func TestFutureBreakIsRefusedWhileRunning(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("start")
	h.clock.Set(at(10, 0))

	res := h.run("break", "--from", "17:00", "--to", "17:30")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "overlaps")

	out := h.mustRun("status")
	assert.Contains(t, out, "state:   running")
	out = h.mustRun("pause")
	assert.Contains(t, out, "paused General / Daily Work after 1h 00m")
}

func TestAddSession(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("project", "add", "Acme", "API")
	h.clock.Set(at(12, 0))

	out := h.mustRun("add", "Acme", "API", "--from", "07:00", "--to", "08:30", "--note", "early start")
	assert.Contains(t, out, "Acme - API 07:00-08:30 recorded")
	shortIDFrom(t, out)

	out = h.mustRun("sessions")
	assert.Contains(t, out, "early start")
	assert.Contains(t, out, "Acme")

	res := h.run("add", "Nope", "API", "--from", "09:00", "--to", "10:00")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "Nope")

	res = h.run("add", "Acme", "API", "--from", "08:00", "--to", "09:00")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "overlaps")

	res = h.run("add", "Acme", "API", "--from", "09:00")
	assert.Equal(t, 1, res.code)

	out = h.mustRun("add", "Acme", "API", "--from", "09:00", "--to", "10:00", "--date", "2024-03-01")
	assert.Contains(t, out, "09:00-10:00 recorded")
	out = h.mustRun("sessions", "--date", "2024-03-01")
	assert.Contains(t, out, "Acme")
}

func TestProjectNameWithSeparatorIsRejected(t *testing.T) {
	h := newCLIHarness(t)
	res := h.run("project", "add", "Client - A", "Dev")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, `" - "`)

	out := h.mustRun("project", "list")
	assert.NotContains(t, out, "Client")
}

func TestCloseStaleSession(t *testing.T) {
	h := newCLIHarness(t)
	seed := `[{"id":"stale-0001","date":"2024-03-01","start_time":"2024-03-01T09:00:00","end_time":null,` +
		`"project":"General","task":"Daily Work","duration_seconds":0,"is_active":true,"session_type":"work","note":""}]`
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, store.SessionsFile), []byte(seed), 0o644))

	res := h.run("status")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.err, "warning:")
	assert.Contains(t, res.out, "state:   stopped")

	res = h.run("note", "stale", "forgot")
	assert.Equal(t, 1, res.code)

	out := h.mustRun("close", "stale", "--at", "17:00")
	assert.Contains(t, out, "closed stale-00 at 2024-03-01 17:00")

	res = h.run("status")
	require.Equal(t, 0, res.code)
	assert.NotContains(t, res.err, "warning:")
}

func TestUnknownSessionID(t *testing.T) {
	h := newCLIHarness(t)
	res := h.run("delete", "deadbeef")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "deadbeef")
}

func workDay(h *cliHarness) {
	h.mustRun("start")
	h.clock.Set(at(12, 0))
	h.mustRun("pause")
	h.clock.Set(at(12, 30))
	h.mustRun("start")
	h.clock.Set(at(17, 0))
}

func TestEndDayAndReport(t *testing.T) {
	h := newCLIHarness(t)
	workDay(h)

	out := h.mustRun("end-day")
	assert.Contains(t, out, "day ended")
	assert.Contains(t, out, "work 7h 30m, break 0h 30m")

	out = h.mustRun("report")
	assert.Contains(t, out, "2024-03-04")
	assert.Contains(t, out, "Below target")

	jsonPath := filepath.Join(h.dir, "out", "report.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(jsonPath), 0o755))
	out = h.mustRun("report", "--format", "json", "--out", jsonPath)
	assert.Contains(t, out, "wrote "+jsonPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc struct {
		Count int `json:"count"`
		Days  []struct {
			Date       string  `json:"date"`
			WorkHours  float64 `json:"work_hours"`
			BreakHours float64 `json:"break_hours"`
			Finalized  bool    `json:"finalized"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.Days, 1)
	assert.Equal(t, 7.5, doc.Days[0].WorkHours)
	assert.Equal(t, 0.5, doc.Days[0].BreakHours)
	assert.True(t, doc.Days[0].Finalized, "end-day is remembered by later invocations")
}

func TestReportCSVWritesSummary(t *testing.T) {
	h := newCLIHarness(t)
	workDay(h)

	csvPath := filepath.Join(h.dir, "week.csv")
	out := h.mustRun("report", "--from", "2024-03-01", "--to", "2024-03-04", "--format", "csv", "--out", csvPath)
	assert.Contains(t, out, "week-summary.csv")

	for _, p := range []string{csvPath, filepath.Join(h.dir, "week-summary.csv")} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
}

func TestReportToStdoutFormats(t *testing.T) {
	h := newCLIHarness(t)
	workDay(h)

	out := h.mustRun("report", "--format", "yaml")
	assert.Contains(t, out, "work_hours:")

	out = h.mustRun("report", "--format", "csv")
	assert.Contains(t, out, "General")

	res := h.run("report", "--format", "xlsx")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "unknown format")
}

func TestReportFlagValidation(t *testing.T) {
	h := newCLIHarness(t)

	res := h.run("report", "--date", "2024-03-04", "--from", "2024-03-01")
	assert.Equal(t, 1, res.code)

	res = h.run("report", "--to", "2024-03-04")
	assert.Equal(t, 1, res.code)

	res = h.run("report", "--from", "2024-03-05", "--to", "2024-03-04")
	assert.Equal(t, 1, res.code)

	res = h.run("report", "--date", "04/03/2024")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "invalid date")
}

func TestSQLiteBackend(t *testing.T) {
	h := newCLIHarness(t)
	h.mustRun("--backend", "sqlite", "start")
	h.clock.Set(at(10, 0))

	out := h.mustRun("--backend", "sqlite", "status")
	assert.Contains(t, out, "state:   running")

	_, err := os.Stat(filepath.Join(h.dir, store.DatabaseFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(h.dir, store.SessionsFile))
	assert.True(t, os.IsNotExist(err), "json store should be untouched")

	res := h.run("--backend", "postgres", "status")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "unknown backend")
}

func TestConfigCommands(t *testing.T) {
	h := newCLIHarness(t)

	out := h.mustRun("config", "show")
	assert.Contains(t, out, `"auto_split_minutes": 5`)

	out = h.mustRun("config", "schema")
	assert.Contains(t, out, "auto_split_minutes")

	out = h.mustRun("config", "path")
	assert.Equal(t, filepath.Join(h.dir, config.FileName)+"\n", out)

	require.NoError(t, os.WriteFile(filepath.Join(h.dir, config.FileName), []byte(`{"auto_split_minutes": "ten"}`), 0o644))
	res := h.run("config", "show")
	assert.Equal(t, 1, res.code)
}

func TestFormatSpan(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0h 00m"},
		{90 * time.Minute, "1h 30m"},
		{59*time.Second + 10*time.Hour, "10h 00m"},
		{-45 * time.Minute, "-0h 45m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSpan(tt.in), "formatSpan(%s)", tt.in)
	}
}

func TestSummaryPath(t *testing.T) {
	assert.Equal(t, "out/week-summary.csv", summaryPath("out/week.csv"))
	assert.Equal(t, "week-summary.csv", summaryPath("week"))
}
