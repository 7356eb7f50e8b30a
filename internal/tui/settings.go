package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskonaut/internal/config"
)

// settingsModel edits the tracking settings of config.json.
type settingsModel struct {
	config *config.File
	width  int
	height int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	autoSplit   *string
	targetHours *string
	autoPause   *string
}

func newSettingsModel(cfg *config.File) settingsModel {
	as, th, ap := "", "", ""
	return settingsModel{
		config:      cfg,
		autoSplit:   &as,
		targetHours: &th,
		autoPause:   &ap,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Enter) {
		return s.showForm()
	}
	return s, nil
}

func validMinutes(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return errors.New("enter a whole number of minutes, 0 or more")
	}
	return nil
}

func validHours(v string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || h < 0 || h > 24 {
		return errors.New("enter hours between 0 and 24")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	doc := s.config.Document()
	*s.autoSplit = strconv.Itoa(doc.AutoSplitMinutes)
	*s.targetHours = strconv.FormatFloat(doc.WorkSettings.TargetHoursPerDay, 'f', -1, 64)
	*s.autoPause = strconv.Itoa(doc.WorkSettings.AutoPauseAfterMinutes)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Auto-split after (min)").
				Description("Switching projects later than this starts a new session").
				Value(s.autoSplit).Validate(validMinutes),
			huh.NewInput().Title("Daily target (hours)").Value(s.targetHours).Validate(validHours),
			huh.NewInput().Title("Auto-pause when idle (min, 0 = off)").Value(s.autoPause).Validate(validMinutes),
		).Title("Tracking"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	s.formActive = false
	s.form = nil
	if err := s.save(); err != nil {
		return s, errorCmd(err)
	}
	return s, statusCmd("Settings saved")
}

// save writes the form values to config.json.
func (s settingsModel) save() error {
	split, err := strconv.Atoi(strings.TrimSpace(*s.autoSplit))
	if err != nil {
		return fmt.Errorf("auto-split minutes: %w", err)
	}
	target, err := strconv.ParseFloat(strings.TrimSpace(*s.targetHours), 64)
	if err != nil {
		return fmt.Errorf("target hours: %w", err)
	}
	pause, err := strconv.Atoi(strings.TrimSpace(*s.autoPause))
	if err != nil {
		return fmt.Errorf("auto-pause minutes: %w", err)
	}
	return s.config.Update(func(d *config.Document) {
		d.AutoSplitMinutes = split
		d.WorkSettings.TargetHoursPerDay = target
		d.WorkSettings.AutoPauseAfterMinutes = pause
	})
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	doc := s.config.Document()
	autoPause := "off"
	if doc.WorkSettings.AutoPauseAfterMinutes > 0 {
		autoPause = fmt.Sprintf("%d min", doc.WorkSettings.AutoPauseAfterMinutes)
	}
	settings := [][2]string{
		{"Auto-split after", fmt.Sprintf("%d min", doc.AutoSplitMinutes)},
		{"Daily target", fmt.Sprintf("%.1f hours", doc.WorkSettings.TargetHoursPerDay)},
		{"Auto-pause when idle", autoPause},
		{"Config file", s.config.Path()},
	}

	rows := []string{title, ""}
	for _, kv := range settings {
		label := lipgloss.NewStyle().Width(24).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
