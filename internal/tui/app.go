// Package tui is the bubbletea front-end. Engine operations run inside
// Update, so the engine keeps a single writer.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sadopc/taskonaut/internal/config"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/logging"
)

// App is the root Bubble Tea model.
type App struct {
	ctx    context.Context
	engine *engine.Engine
	config *config.File
	log    *logrus.Entry
	width  int
	height int

	activeView viewState
	showHelp   bool

	overlay  overlayModel
	sessions sessionsModel
	reports  reportsModel
	settings settingsModel
	picker   pickerModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(ctx context.Context, eng *engine.Engine, cfg *config.File) App {
	h := help.New()
	h.ShowAll = false

	return App{
		ctx:        ctx,
		engine:     eng,
		config:     cfg,
		log:        logging.NewLogger("tui"),
		activeView: viewOverlay,
		overlay:    newOverlayModel(ctx, eng, cfg.AutoPauseAfter()),
		sessions:   newSessionsModel(ctx, eng),
		reports:    newReportsModel(ctx, eng),
		settings:   newSettingsModel(cfg),
		picker:     newPickerModel(ctx, eng),
		help:       h,
	}
}

// Run shows the UI until the user quits or ctx is cancelled. config.json is
// watched while it runs.
func Run(ctx context.Context, eng *engine.Engine, cfg *config.File) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewApp(ctx, eng, cfg), tea.WithAltScreen(), tea.WithContext(ctx))

	w, err := config.NewWatcher(cfg, config.DefaultDebounce, func(*config.Document) {
		p.Send(configReloadedMsg{})
	})
	if err != nil {
		logging.NewLogger("tui").WithError(err).Warn("config watcher disabled")
	} else {
		defer w.Close()
		go w.Start(ctx)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		changedCmd,
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.overlay.setSize(a.width, contentHeight)
		a.sessions.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.reports.buildChart()
		return a, nil

	case tea.KeyMsg:
		a.overlay.timer.recordActivity(a.engine.Now())

		if a.picker.active {
			var cmd tea.Cmd
			a.picker, cmd = a.picker.update(msg)
			return a, cmd
		}

		// A child view capturing input (a form) gets keys first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewOverlay
			cmd := a.refreshCurrentView()
			return a, cmd
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewSessions
			cmd := a.refreshCurrentView()
			return a, cmd
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewReports
			cmd := a.refreshCurrentView()
			return a, cmd
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			cmd := a.refreshCurrentView()
			return a, cmd
		case key.Matches(msg, keys.Toggle):
			return a.toggle()
		case key.Matches(msg, keys.EndDay):
			return a.endDay()
		case key.Matches(msg, keys.Switch):
			a.picker = a.picker.open()
			return a, nil
		case key.Matches(msg, keys.Break) && a.activeView != viewSessions:
			a.activeView = viewSessions
			if err := a.sessions.reload(); err != nil {
				return a, errorCmd(err)
			}
			var cmd tea.Cmd
			a.sessions, cmd = a.sessions.showForm(formBreak)
			return a, cmd
		}

	case tickMsg:
		return a.tick()

	case sessionsChangedMsg:
		cmd := a.reloadAll()
		return a, cmd

	case configReloadedMsg:
		a.overlay.timer.idleAfter = a.config.AutoPauseAfter()
		a.status, a.statusErr = "Config reloaded", false
		cmd := a.reloadAll()
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil
	}

	return a.updateActiveView(msg)
}

// tick advances the clock display and runs the idle detector.
func (a App) tick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}
	now := a.engine.Now()
	a.overlay.timer.idleAfter = a.config.AutoPauseAfter()

	if a.overlay.timer.tick(now) {
		idle := a.overlay.timer.idleAfter
		a.log.WithField("idle", idle.String()).Info("auto-pausing idle session")
		_, err := a.engine.StopOrPause(a.ctx)
		if err != nil {
			cmds = append(cmds, errorCmd(err))
		} else {
			cmds = append(cmds, statusCmd("Paused after %s idle", formatDuration(idle)))
		}
		cmds = append(cmds, a.reloadAll())
	} else if a.overlay.stale() {
		cmds = append(cmds, a.reloadAll())
	}
	return a, tea.Batch(cmds...)
}

func (a App) toggle() (tea.Model, tea.Cmd) {
	var err error
	verb := "Started"
	if a.engine.CurrentState().Phase == engine.Running {
		verb = "Paused"
		_, err = a.engine.StopOrPause(a.ctx)
	} else {
		_, err = a.engine.StartWork(a.ctx)
	}
	if err != nil {
		return a, tea.Batch(errorCmd(err), changedCmd)
	}
	return a, tea.Batch(statusCmd("%s", verb), changedCmd)
}

func (a App) endDay() (tea.Model, tea.Cmd) {
	if _, err := a.engine.EndDay(a.ctx); err != nil {
		return a, tea.Batch(errorCmd(err), changedCmd)
	}
	return a, tea.Batch(statusCmd("Day ended"), changedCmd)
}

// reloadAll refreshes every view from the engine.
func (a *App) reloadAll() tea.Cmd {
	for _, reload := range []func() error{a.overlay.reload, a.sessions.reload, a.reports.reload} {
		if err := reload(); err != nil {
			return errorCmd(err)
		}
	}
	return nil
}

func (a *App) refreshCurrentView() tea.Cmd {
	var err error
	switch a.activeView {
	case viewOverlay:
		err = a.overlay.reload()
	case viewSessions:
		err = a.sessions.reload()
	case viewReports:
		err = a.reports.reload()
	}
	if err != nil {
		return errorCmd(err)
	}
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewSessions:
		a.sessions, cmd = a.sessions.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewSessions:
		return a.sessions.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewOverlay:
		content = a.overlay.view()
	case viewSessions:
		content = a.sessions.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}
	if a.picker.active {
		content = a.picker.view(a.width - 4)
	}

	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 1 {
		contentHeight = 1
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("taskonaut")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	timerInfo := ""
	switch {
	case a.overlay.timer.running():
		timerInfo = successStyle.Render(" ● " + formatDuration(a.overlay.timer.currentElapsed()))
	case a.overlay.timer.paused():
		timerInfo = warningStyle.Render(" ⏸ " + formatDuration(a.overlay.timer.currentElapsed()))
	}
	if n := a.engine.Pending(); n > 0 {
		timerInfo += errorStyle.Render(" ⚠ unsaved")
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
