package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

func sampleReport() report.Report {
	day := func(hh, mm int) time.Time { return time.Date(2024, 3, 4, hh, mm, 0, 0, time.UTC) }
	end1, end2 := day(10, 0), day(12, 30)
	sessions := []store.Session{
		{ID: "a", Date: "2024-03-04", Start: day(9, 0), End: &end1, Project: "Acme", Task: "API", Note: "worked on feature"},
		{ID: "b", Date: "2024-03-04", Start: day(12, 0), End: &end2, Project: store.BreakProject, Task: "Manual Break", Note: "lunch"},
		{ID: "c", Date: "2024-03-04", Start: day(13, 0), Project: "Acme", Task: "Docs"},
	}
	days := aggregate.Days(sessions, day(14, 0), func(time.Time) int64 { return 8 * 3600 })
	return report.Build(days, sessions, aggregate.Projects(sessions))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.csv")
	if err := ToCSV(sampleReport().SessionRows(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	for i, h := range sessionHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "a" || row[2] != "09:00:00" || row[3] != "10:00:00" {
		t.Fatalf("unexpected first row %v", row)
	}
	if row[4] != "1.00" {
		t.Fatalf("Duration (h) = %q, want 1.00", row[4])
	}
	if row[5] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[5])
	}
	if row[8] != "worked on feature" {
		t.Fatalf("Note = %q", row[8])
	}
	if records[2][9] != report.KindBreak {
		t.Fatalf("Kind = %q, want break", records[2][9])
	}

	running := records[3]
	if running[3] != "" || running[5] != "" {
		t.Fatalf("running session should have empty end and duration, got %v", running)
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	rows := []report.SessionRow{{ID: "x", Project: `Project "Special"`, Note: `notes with "quotes" and, commas`}}
	path := filepath.Join(t.TempDir(), "special.csv")
	if err := ToCSV(rows, path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if records[1][6] != `Project "Special"` {
		t.Fatalf("project = %q", records[1][6])
	}
	if records[1][8] != `notes with "quotes" and, commas` {
		t.Fatalf("note = %q", records[1][8])
	}
}

func TestSummaryToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	if err := SummaryToCSV(sampleReport().SummaryRows(), path); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, path)
	if len(records) != 2 {
		t.Fatalf("expected header + 1 day, got %d", len(records))
	}
	row := records[1]
	// 1h closed + 1h open up to 14:00; break is lunch plus the rest of the 10:00-13:00 gap.
	want := []string{"2024-03-04", "Monday", "2.00", "3.00", "5.00", "8.00", "-6.00", "02:00:00", "03:00:00", report.LabelBelowTarget, "false"}
	for i, v := range want {
		if row[i] != v {
			t.Fatalf("column %s = %q, want %q", summaryHeader[i], row[i], v)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int64]string{
		0:      "00:00:00",
		59:     "00:00:59",
		3661:   "01:01:01",
		36000:  "10:00:00",
		-5400:  "-01:30:00",
		360000: "100:00:00",
	}
	for secs, want := range tests {
		if got := formatDuration(secs); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", secs, got, want)
		}
	}
}

// ============================================================
// JSON / YAML
// ============================================================

func fixNow(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestToJSON(t *testing.T) {
	fixNow(t)
	path := filepath.Join(t.TempDir(), "report.json")
	if err := ToJSON(sampleReport(), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"") {
		t.Fatal("expected indented json")
	}

	var doc struct {
		ExportedAt string `json:"exported_at"`
		Count      int    `json:"count"`
		Days       []struct {
			Date      string  `json:"date"`
			WorkHours float64 `json:"work_hours"`
			Status    string  `json:"status"`
			Work      string  `json:"work"`
			Sessions  []struct {
				ID       string `json:"id"`
				End      string `json:"end"`
				Duration string `json:"duration"`
				Kind     string `json:"kind"`
			} `json:"sessions"`
		} `json:"days"`
		Projects []report.ProjectRow `json:"projects"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.ExportedAt != "2024-03-05T08:00:00Z" {
		t.Fatalf("exported_at = %q", doc.ExportedAt)
	}
	if doc.Count != 3 || len(doc.Days) != 1 {
		t.Fatalf("count = %d, days = %d", doc.Count, len(doc.Days))
	}
	d := doc.Days[0]
	if d.Date != "2024-03-04" || d.WorkHours != 2 || d.Work != "02:00:00" || d.Status != report.LabelBelowTarget {
		t.Fatalf("unexpected day %+v", d)
	}
	if d.Sessions[0].Duration != "01:00:00" || d.Sessions[2].End != "" || d.Sessions[2].Duration != "" {
		t.Fatalf("unexpected sessions %+v", d.Sessions)
	}
	if len(doc.Projects) != 1 || doc.Projects[0].Project != "Acme" {
		t.Fatalf("unexpected projects %+v", doc.Projects)
	}
}

func TestToYAML(t *testing.T) {
	fixNow(t)
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := ToYAML(sampleReport(), path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["count"] != 3 {
		t.Fatalf("count = %v", doc["count"])
	}
	days := doc["days"].([]any)
	day := days[0].(map[string]any)
	if day["date"] != "2024-03-04" || day["weekday"] != "Monday" {
		t.Fatalf("summary fields not inlined: %v", day)
	}
	sessions := day["sessions"].([]any)
	if sessions[1].(map[string]any)["note"] != "lunch" {
		t.Fatalf("unexpected session %v", sessions[1])
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2024-03-04", "Mon", "02:00:00", report.LabelBelowTarget, "running", "lunch"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSessionTable(t *testing.T) {
	var buf bytes.Buffer
	rows := []report.SessionRow{{ID: "0123456789abcdef", Date: "2024-03-04", Start: "09:00:00", Project: "Acme", Task: "API"}}
	if err := WriteSessionTable(&buf, rows); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "01234567") || strings.Contains(out, "0123456789") {
		t.Errorf("expected the short id only:\n%s", out)
	}
	if !strings.Contains(out, "running") {
		t.Errorf("open session should render as running:\n%s", out)
	}

	buf.Reset()
	if err := WriteSessionTable(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "no sessions" {
		t.Errorf("got %q", buf.String())
	}
}
