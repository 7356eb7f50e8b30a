package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/taskonaut/internal/apperrors"
)

// viewState represents the currently active view.
type viewState int

const (
	viewOverlay viewState = iota
	viewSessions
	viewReports
	viewSettings
)

var viewNames = []string{"Overlay", "Sessions", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

// configReloadedMsg is sent by the config watcher after config.json changed
// on disk.
type configReloadedMsg struct{}

// sessionsChangedMsg asks every view to reload engine data.
type sessionsChangedMsg struct{}

func statusCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(err error) tea.Cmd {
	text := apperrors.Message(err)
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

func changedCmd() tea.Msg { return sessionsChangedMsg{} }

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + formatDuration(-d)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}
