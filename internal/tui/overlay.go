package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskonaut/internal/aggregate"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/report"
	"github.com/sadopc/taskonaut/internal/store"
)

const overlayRecentLimit = 5

type overlayModel struct {
	ctx    context.Context
	eng    *engine.Engine
	timer  timerModel
	width  int
	height int

	today    aggregate.DayRecord
	loadedAt time.Time
	sessions []store.Session
}

func newOverlayModel(ctx context.Context, eng *engine.Engine, idleAfter time.Duration) overlayModel {
	return overlayModel{
		ctx:   ctx,
		eng:   eng,
		timer: newTimerModel(eng.CurrentState(), eng.Now(), idleAfter),
	}
}

func (o *overlayModel) setSize(w, h int) {
	o.width = w
	o.height = h
}

// reload takes a fresh engine snapshot and today's aggregate.
func (o *overlayModel) reload() error {
	now := o.eng.Now()
	o.timer.sync(o.eng.CurrentState(), now)

	date := store.DateOf(now)
	rec, err := o.eng.DayRecord(o.ctx, date)
	if err != nil {
		return err
	}
	sessions, err := o.eng.Sessions(o.ctx, date)
	if err != nil {
		return err
	}
	o.today = rec
	o.loadedAt = now
	o.sessions = sessions
	return nil
}

// stale reports whether the loaded aggregate belongs to an earlier day.
func (o overlayModel) stale() bool {
	return o.today.Date != "" && o.today.Date != store.DateOf(o.timer.now)
}

// liveWork extends the loaded work total by the running time since the load.
func (o overlayModel) liveWork() int64 {
	work := o.today.WorkSeconds
	if o.timer.running() && o.timer.now.After(o.loadedAt) {
		work += int64(o.timer.now.Sub(o.loadedAt) / time.Second)
	}
	return work
}

func (o overlayModel) view() string {
	if o.width < 20 {
		return "Terminal too small"
	}

	contentWidth := o.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		o.renderTimerPanel(contentWidth),
		o.renderTodayPanel(contentWidth),
		o.renderRecentPanel(contentWidth),
	)
}

func (o overlayModel) renderTimerPanel(w int) string {
	st := o.timer.state
	projectLine := highlightStyle.Render(st.ActiveProject) + mutedStyle.Render(" | "+st.ActiveTask)

	switch st.Phase {
	case engine.Running:
		timeDisplay := timerRunningStyle.Width(w - 6).Render(formatDuration(o.timer.currentElapsed()))
		indicator := successStyle.Render("●  RUNNING")
		if st.Current != nil {
			projectLine = highlightStyle.Render(st.Current.Project) + mutedStyle.Render(" | "+st.Current.Task)
		}
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, projectLine),
		)

	case engine.Paused:
		timeDisplay := timerPausedStyle.Width(w - 6).Render(formatDuration(o.timer.currentElapsed()))
		indicator := warningStyle.Render("⏸  PAUSED")
		if o.timer.isIdle {
			indicator = warningStyle.Render("⏸  IDLE")
		}
		hint := mutedStyle.Render("Press space to resume")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, projectLine, hint),
		)
	}

	timeDisplay := timerStyle.Width(w - 6).Render("00:00:00")
	indicator := mutedStyle.Render("■  STOPPED")
	hint := mutedStyle.Render("Press space to start tracking")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, projectLine, hint),
	)
}

func (o overlayModel) renderTodayPanel(w int) string {
	work := o.liveWork()
	remaining := o.today.TargetSeconds - work
	if remaining < 0 {
		remaining = 0
	}

	rec := o.today
	rec.WorkSeconds = work
	if work >= rec.TargetSeconds {
		rec.Status = aggregate.StatusReached
	}
	status := report.StatusLabel(rec)
	statusStyle := mutedStyle
	switch {
	case rec.WorkSeconds == 0:
	case rec.Status == aggregate.StatusReached:
		statusStyle = successStyle
	default:
		statusStyle = warningStyle
	}

	title := titleStyle.Render("Today")
	if o.today.Finalized {
		title += mutedStyle.Render("  (day ended)")
	}
	rows := []string{
		title,
		fmt.Sprintf("  %-10s %s", "Work", workStyle.Render(formatSeconds(work))),
		fmt.Sprintf("  %-10s %s", "Break", breakStyle.Render(formatSeconds(o.today.BreakSeconds))),
		fmt.Sprintf("  %-10s %s", "Remaining", highlightStyle.Render(formatSeconds(remaining))),
		fmt.Sprintf("  %-10s %s", "Status", statusStyle.Render(status)),
	}
	for _, warn := range o.eng.Warnings() {
		rows = append(rows, errorStyle.Render("  ! "+warn.Error()))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (o overlayModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(o.sessions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions today"),
		))
	}

	start := len(o.sessions) - overlayRecentLimit
	if start < 0 {
		start = 0
	}
	rows := []string{title}
	for _, s := range o.sessions[start:] {
		rows = append(rows, renderSessionLine(s, o.timer.now, false))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// renderSessionLine formats one session for the overlay and sessions lists.
func renderSessionLine(s store.Session, now time.Time, selected bool) string {
	marker := "✓"
	end := "     "
	dur := formatDuration(s.Duration())
	switch {
	case s.IsOpen():
		marker = "●"
		dur = "running"
		if store.DateOf(now) == s.Date {
			dur = formatDuration(now.Sub(s.Start)) + " ▸"
		}
	default:
		end = s.End.Format("15:04")
	}
	name := s.Project + " | " + s.Task
	style := normalItemStyle
	if s.IsBreak() {
		marker = "☕"
		name = "Break"
		style = breakStyle
	}
	cursor := "  "
	if selected {
		cursor = "> "
		style = selectedItemStyle
	}
	line := style.Render(fmt.Sprintf("%s%s %s-%s  %-28s %s", cursor, marker, s.Start.Format("15:04"), end, name, dur))
	if s.Note != "" {
		line += mutedStyle.Render("  " + s.Note)
	}
	return line
}
