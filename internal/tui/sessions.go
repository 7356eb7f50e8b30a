package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskonaut/internal/apperrors"
	"github.com/sadopc/taskonaut/internal/clock"
	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/store"
)

type sessionForm int

const (
	formNone sessionForm = iota
	formNote
	formBreak
	formClose
	formDelete
	formAdd
)

var sessionFormTitles = map[sessionForm]string{
	formNote:   "Edit Note",
	formBreak:  "Add Break",
	formClose:  "Close Session",
	formDelete: "Delete Session",
	formAdd:    "Add Session",
}

// sessionsModel lists the sessions of one day and applies the editor
// operations to them.
type sessionsModel struct {
	ctx    context.Context
	eng    *engine.Engine
	width  int
	height int

	day      time.Time
	sessions []store.Session
	cursor   int

	formActive bool
	form       *huh.Form
	formKind   sessionForm
	targetID   string

	// Form field pointers (survive value copies)
	formNote    *string
	formProject *string
	formTask    *string
	formFrom    *string
	formTo      *string
	formAt      *string
	formConfirm *bool
}

func newSessionsModel(ctx context.Context, eng *engine.Engine) sessionsModel {
	note, project, task, from, to, at, confirm := "", "", "", "", "", "", false
	return sessionsModel{
		ctx:         ctx,
		eng:         eng,
		day:         startOfDay(eng.Now()),
		formNote:    &note,
		formProject: &project,
		formTask:    &task,
		formFrom:    &from,
		formTo:      &to,
		formAt:      &at,
		formConfirm: &confirm,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *sessionsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *sessionsModel) reload() error {
	sessions, err := s.eng.Sessions(s.ctx, store.DateOf(s.day))
	if err != nil {
		return err
	}
	s.sessions = sessions
	if s.cursor >= len(s.sessions) {
		s.cursor = max(0, len(s.sessions)-1)
	}
	return nil
}

func (s sessionsModel) selected() (store.Session, bool) {
	if s.cursor < 0 || s.cursor >= len(s.sessions) {
		return store.Session{}, false
	}
	return s.sessions[s.cursor], true
}

func (s sessionsModel) update(msg tea.Msg) (sessionsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(km, keys.Down):
		if s.cursor < len(s.sessions)-1 {
			s.cursor++
		}
	case key.Matches(km, keys.Left):
		s.day = s.day.AddDate(0, 0, -1)
		s.cursor = 0
		cmd := s.reloadCmd()
		return s, cmd
	case key.Matches(km, keys.Right):
		if next := s.day.AddDate(0, 0, 1); !next.After(s.eng.Now()) {
			s.day = next
			s.cursor = 0
		}
		cmd := s.reloadCmd()
		return s, cmd
	case key.Matches(km, keys.Note):
		return s.showForm(formNote)
	case key.Matches(km, keys.Close):
		return s.showForm(formClose)
	case key.Matches(km, keys.Delete):
		return s.showForm(formDelete)
	case key.Matches(km, keys.Break):
		return s.showForm(formBreak)
	case key.Matches(km, keys.Add):
		return s.showForm(formAdd)
	}
	return s, nil
}

func (s *sessionsModel) reloadCmd() tea.Cmd {
	if err := s.reload(); err != nil {
		return errorCmd(err)
	}
	return nil
}

func validClock(v string) error {
	_, err := clock.OnDay(time.Time{}, v)
	return err
}

func (s sessionsModel) showForm(kind sessionForm) (sessionsModel, tea.Cmd) {
	var fields []huh.Field
	switch kind {
	case formBreak:
		*s.formFrom, *s.formTo, *s.formNote = "", "", ""
		fields = append(fields,
			huh.NewInput().Title("From (HH:MM)").Value(s.formFrom).Validate(validClock),
			huh.NewInput().Title("To (HH:MM)").Value(s.formTo).Validate(validClock),
			huh.NewInput().Title("Note").Value(s.formNote),
		)
	case formAdd:
		st := s.eng.CurrentState()
		*s.formProject, *s.formTask = st.ActiveProject, st.ActiveTask
		*s.formFrom, *s.formTo, *s.formNote = "", "", ""
		fields = append(fields,
			huh.NewInput().Title("Project").Value(s.formProject).Validate(notBlank("project")),
			huh.NewInput().Title("Task").Value(s.formTask).Validate(notBlank("task")),
			huh.NewInput().Title("From (HH:MM)").Value(s.formFrom).Validate(validClock),
			huh.NewInput().Title("To (HH:MM)").Value(s.formTo).Validate(validClock),
			huh.NewInput().Title("Note").Value(s.formNote),
		)
	default:
		sel, ok := s.selected()
		if !ok {
			return s, statusCmd("No session selected")
		}
		s.targetID = sel.ID
		switch kind {
		case formNote:
			if sel.IsOpen() {
				return s, errorCmd(apperrors.SessionStillOpen(sel.ID))
			}
			*s.formNote = sel.Note
			fields = append(fields, huh.NewInput().Title("Note").Value(s.formNote))
		case formClose:
			*s.formAt = ""
			fields = append(fields, huh.NewInput().Title("End time (HH:MM)").Value(s.formAt).Validate(validClock))
		case formDelete:
			*s.formConfirm = false
			fields = append(fields, huh.NewConfirm().
				Title("Delete "+sel.Project+" | "+sel.Task+" from "+sel.Start.Format("15:04")+"?").
				Value(s.formConfirm))
		}
	}

	s.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	s.formKind = kind
	s.formActive = true
	return s, s.form.Init()
}

func (s sessionsModel) updateForm(msg tea.Msg) (sessionsModel, tea.Cmd) {
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
	status, err := s.apply()
	if err != nil {
		return s, tea.Batch(errorCmd(err), changedCmd)
	}
	if status == "" {
		return s, nil
	}
	return s, tea.Batch(statusCmd("%s", status), changedCmd)
}

// apply runs the engine operation of the completed form.
func (s sessionsModel) apply() (string, error) {
	switch s.formKind {
	case formNote:
		if _, err := s.eng.EditNote(s.ctx, s.targetID, *s.formNote); err != nil {
			return "", err
		}
		return "Note saved", nil

	case formBreak:
		start, err := clock.OnDay(s.day, *s.formFrom)
		if err != nil {
			return "", apperrors.InvalidInput(err.Error())
		}
		end, err := clock.OnDay(s.day, *s.formTo)
		if err != nil {
			return "", apperrors.InvalidInput(err.Error())
		}
		if _, err := s.eng.AddManualBreak(s.ctx, start, end, *s.formNote); err != nil {
			return "", err
		}
		return "Break " + start.Format("15:04") + "-" + end.Format("15:04") + " added", nil

	case formAdd:
		start, err := clock.OnDay(s.day, *s.formFrom)
		if err != nil {
			return "", apperrors.InvalidInput(err.Error())
		}
		end, err := clock.OnDay(s.day, *s.formTo)
		if err != nil {
			return "", apperrors.InvalidInput(err.Error())
		}
		added, err := s.eng.AddSession(s.ctx, start, end, *s.formProject, *s.formTask, *s.formNote)
		if err != nil {
			return "", err
		}
		return "Session " + added.Project + " | " + added.Task + " " + start.Format("15:04") + "-" + end.Format("15:04") + " added", nil

	case formClose:
		sel, ok := s.find(s.targetID)
		if !ok {
			return "", apperrors.SessionNotFound(s.targetID)
		}
		day, err := time.ParseInLocation(store.DateLayout, sel.Date, s.day.Location())
		if err != nil {
			return "", apperrors.InvalidInput("invalid session date " + sel.Date)
		}
		end, err := clock.OnDay(day, *s.formAt)
		if err != nil {
			return "", apperrors.InvalidInput(err.Error())
		}
		if _, err := s.eng.CloseSession(s.ctx, s.targetID, end); err != nil {
			return "", err
		}
		return "Session closed at " + end.Format("15:04"), nil

	case formDelete:
		if !*s.formConfirm {
			return "", nil
		}
		if err := s.eng.DeleteSession(s.ctx, s.targetID); err != nil {
			return "", err
		}
		return "Session deleted", nil
	}
	return "", nil
}

func (s sessionsModel) find(id string) (store.Session, bool) {
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return store.Session{}, false
}

func (s sessionsModel) view() string {
	w := s.width - 4
	if s.formActive && s.form != nil {
		title := titleStyle.Render(sessionFormTitles[s.formKind])
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()))
	}

	title := titleStyle.Render("Sessions") + "  " + mutedStyle.Render(s.day.Format("Mon Jan 02, 2006"))
	if len(s.sessions) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No sessions on this day. Press a to add one or b to add a break."),
			"",
			mutedStyle.Render("  ←/→: day  a: add  b: break"),
		))
	}

	rows := []string{title, ""}
	now := s.eng.Now()
	for i, sess := range s.sessions {
		rows = append(rows, renderSessionLine(sess, now, i == s.cursor))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: day  a: add  n: note  b: break  c: close stale  x: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
