package export

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sadopc/taskonaut/internal/report"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// WriteTable renders the report as terminal tables: one summary table and,
// when sessions are present, a session table.
func WriteTable(w io.Writer, r report.Report) error {
	summary := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Date", "Day", "Work", "Break", "Target", "Diff", "Status").
		StyleFunc(styleFor)
	for _, row := range r.SummaryRows() {
		summary.Row(
			row.Date,
			shortDay(row.Weekday),
			formatDuration(row.WorkSeconds),
			formatDuration(row.BreakSeconds),
			formatHours(row.TargetHours),
			formatDuration(row.DifferenceSeconds),
			row.Status,
		)
	}
	if _, err := fmt.Fprintln(w, summary.Render()); err != nil {
		return err
	}

	rows := r.SessionRows()
	if len(rows) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, sessionTable(rows, false).Render())
	return err
}

// ShortIDLen is how much of a session ID the session table shows.
const ShortIDLen = 8

// WriteSessionTable renders session rows with their short IDs.
func WriteSessionTable(w io.Writer, rows []report.SessionRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no sessions")
		return err
	}
	_, err := fmt.Fprintln(w, sessionTable(rows, true).Render())
	return err
}

func sessionTable(rows []report.SessionRow, withID bool) *table.Table {
	headers := []string{"Date", "Start", "End", "Hours", "Project", "Task", "Note"}
	if withID {
		headers = append([]string{"ID"}, headers...)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(styleFor)
	for _, s := range rows {
		end := s.End
		if end == "" {
			end = "running"
		}
		cells := []string{s.Date, s.Start, end, formatHours(s.DurationHours), s.Project, s.Task, s.Note}
		if withID {
			cells = append([]string{ShortID(s.ID)}, cells...)
		}
		t.Row(cells...)
	}
	return t
}

func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}

func styleFor(row, col int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func shortDay(weekday string) string {
	if len(weekday) < 3 {
		return weekday
	}
	return weekday[:3]
}
