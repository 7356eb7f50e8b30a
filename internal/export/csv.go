package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sadopc/taskonaut/internal/report"
)

var sessionHeader = []string{"ID", "Date", "Start", "End", "Duration (h)", "Duration", "Project", "Task", "Note", "Kind"}

var summaryHeader = []string{"Date", "Weekday", "Work (h)", "Break (h)", "Total (h)", "Target (h)", "Difference (h)", "Work", "Break", "Status", "Finalized"}

// WriteCSV writes one row per session.
func WriteCSV(out io.Writer, rows []report.SessionRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(sessionHeader); err != nil {
		return err
	}
	for _, r := range rows {
		dur := ""
		if r.End != "" {
			dur = formatDuration(r.DurationSeconds)
		}
		record := []string{
			r.ID,
			r.Date,
			r.Start,
			r.End,
			formatHours(r.DurationHours),
			dur,
			r.Project,
			r.Task,
			r.Note,
			r.Kind,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSummaryCSV writes one row per day.
func WriteSummaryCSV(out io.Writer, rows []report.SummaryRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date,
			r.Weekday,
			formatHours(r.WorkHours),
			formatHours(r.BreakHours),
			formatHours(r.TotalHours),
			formatHours(r.TargetHours),
			formatHours(r.DifferenceHours),
			formatDuration(r.WorkSeconds),
			formatDuration(r.BreakSeconds),
			r.Status,
			strconv.FormatBool(r.Finalized),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ToCSV(rows []report.SessionRow, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteCSV(w, rows) })
}

func SummaryToCSV(rows []report.SummaryRow, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteSummaryCSV(w, rows) })
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatDuration(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 2, 64)
}
