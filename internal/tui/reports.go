package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

const reportDays = 7

type reportsModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	offset int // 7-day blocks back from today (0 = current)
	days   map[string]aggregate.DayRecord

	chart barchart.Model
}

func newReportsModel(ctx context.Context, eng *engine.Engine) reportsModel {
	return reportsModel{
		ctx:   ctx,
		eng:   eng,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

// dateRange is the window shown, as inclusive dates.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	today := startOfDay(r.eng.Now())
	to := today.AddDate(0, 0, -reportDays*r.offset)
	return to.AddDate(0, 0, 1-reportDays), to
}

func (r *reportsModel) reload() error {
	from, to := r.dateRange()
	records, _, err := r.eng.Range(r.ctx, store.DateOf(from), store.DateOf(to))
	if err != nil {
		return err
	}
	r.days = make(map[string]aggregate.DayRecord, len(records))
	for _, rec := range records {
		r.days[rec.Date] = rec
	}
	r.buildChart()
	return nil
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch {
	case key.Matches(km, keys.Left):
		r.offset++
	case key.Matches(km, keys.Right):
		if r.offset == 0 {
			return r, nil
		}
		r.offset--
	default:
		return r, nil
	}
	if err := r.reload(); err != nil {
		return r, errorCmd(err)
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	work := lipgloss.NewStyle().Foreground(colorWork)
	brk := lipgloss.NewStyle().Foreground(colorBreak)

	var bars []barchart.BarData
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rec := r.days[store.DateOf(d)]
		bars = append(bars, barchart.BarData{
			Label: d.Format("Mon 02"),
			Values: []barchart.BarValue{
				{Name: "Work", Value: float64(rec.WorkSeconds) / 3600, Style: work},
				{Name: "Break", Value: float64(rec.BreakSeconds) / 3600, Style: brk},
			},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s to %s", from.Format("Jan 02"), to.Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom, titleStyle.Render("Reports"), "  ", dateLabel)

	legend := "  " + workStyle.Render("● Work") + "  " + breakStyle.Render("● Break")
	nav := mutedStyle.Render("  ←/→: previous/next week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", legend, "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.days) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	rows := []string{
		mutedStyle.Render(fmt.Sprintf("  %-12s %-4s %9s %9s %9s  %s", "Date", "Day", "Work", "Break", "Target", "Status")),
		mutedStyle.Render("  " + strings.Repeat("─", min(w-6, 62))),
	}

	from, to := r.dateRange()
	var totalWork, totalBreak int64
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rec, ok := r.days[store.DateOf(d)]
		if !ok {
			continue
		}
		totalWork += rec.WorkSeconds
		totalBreak += rec.BreakSeconds
		status := report.StatusLabel(rec)
		style := warningStyle
		if rec.Status == aggregate.StatusReached {
			style = successStyle
		}
		if rec.Finalized {
			status += " ✓"
		}
		rows = append(rows, fmt.Sprintf("  %-12s %-4s %9s %9s %9s  %s",
			rec.Date, d.Format("Mon"),
			formatSeconds(rec.WorkSeconds), formatSeconds(rec.BreakSeconds), formatHours(rec.TargetSeconds),
			style.Render(status),
		))
		for _, warn := range rec.Warnings {
			rows = append(rows, errorStyle.Render("    ! "+warn.Message))
		}
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-17s %9s %9s", "Total", formatSeconds(totalWork), formatSeconds(totalBreak))))
	return strings.Join(rows, "\n")
}
