package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/taskonaut/internal/engine"
	"github.com/sadopc/taskonaut/internal/store"
)

type pickerItem struct {
	req    engine.SwitchRequest
	recent bool
}

// pickerModel selects the project and task to switch to: recent pairs first,
// then every registered pair.
type pickerModel struct {
	ctx context.Context
	eng *engine.Engine

	active bool
	items  []pickerItem
	cursor int

	formActive  bool
	form        *huh.Form
	formProject *string
	formTask    *string
}

func newPickerModel(ctx context.Context, eng *engine.Engine) pickerModel {
	project, task := "", ""
	return pickerModel{
		ctx:         ctx,
		eng:         eng,
		formProject: &project,
		formTask:    &task,
	}
}

func pickerItems(recent []store.Combination, reg store.Registry) []pickerItem {
	seen := make(map[store.Combination]bool)
	var items []pickerItem
	for _, c := range recent {
		if seen[c] || !reg.HasTask(c.Project, c.Task) {
			continue
		}
		seen[c] = true
		items = append(items, pickerItem{req: engine.SwitchRequest{Project: c.Project, Task: c.Task}, recent: true})
	}
	for _, p := range reg.ProjectNames() {
		for _, t := range reg.Tasks(p) {
			c := store.Combination{Project: p, Task: t}
			if seen[c] {
				continue
			}
			seen[c] = true
			items = append(items, pickerItem{req: engine.SwitchRequest{Project: p, Task: t}})
		}
	}
	return items
}

func (p pickerModel) open() pickerModel {
	p.items = pickerItems(p.eng.RecentCombinations(), p.eng.Registry())
	p.cursor = 0
	p.active = true
	return p
}

func (p pickerModel) update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch {
	case key.Matches(km, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(km, keys.Down):
		if p.cursor < len(p.items)-1 {
			p.cursor++
		}
	case key.Matches(km, keys.Enter):
		if len(p.items) == 0 {
			return p, nil
		}
		req := p.items[p.cursor].req
		p.active = false
		if _, err := p.eng.SwitchProject(p.ctx, req); err != nil {
			return p, tea.Batch(errorCmd(err), changedCmd)
		}
		return p, tea.Batch(statusCmd("Switched to %s | %s", req.Project, req.Task), changedCmd)
	case key.Matches(km, keys.Add):
		return p.showAddForm()
	case key.Matches(km, keys.Back):
		p.active = false
	}
	return p, nil
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(field + " is required")
		}
		return nil
	}
}

func (p pickerModel) showAddForm() (pickerModel, tea.Cmd) {
	*p.formProject = ""
	*p.formTask = ""
	if len(p.items) > 0 {
		*p.formProject = p.items[p.cursor].req.Project
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project").Value(p.formProject).Validate(notBlank("project")),
			huh.NewInput().Title("Task").Value(p.formTask).Validate(notBlank("task")),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p pickerModel) updateForm(msg tea.Msg) (pickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		p.formActive = false
		p.form = nil
		return p, nil
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}
	if p.form.State != huh.StateCompleted {
		return p, cmd
	}

	p.formActive = false
	p.form = nil
	if err := p.addPair(*p.formProject, *p.formTask); err != nil {
		return p.open(), errorCmd(err)
	}
	return p.open(), statusCmd("Added %s | %s", strings.TrimSpace(*p.formProject), strings.TrimSpace(*p.formTask))
}

// addPair registers task under project, creating the project if needed.
func (p pickerModel) addPair(project, task string) error {
	if p.eng.Registry().HasProject(strings.TrimSpace(project)) {
		return p.eng.AddTask(p.ctx, project, task)
	}
	return p.eng.AddProject(p.ctx, project, task)
}

func (p pickerModel) view(w int) string {
	if p.formActive && p.form != nil {
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Add Project / Task"), "", p.form.View()),
		)
	}

	rows := []string{titleStyle.Render("Switch Project")}
	section := ""
	for i, it := range p.items {
		heading := "Projects"
		if it.recent {
			heading = "Recent"
		}
		if heading != section {
			section = heading
			rows = append(rows, "", mutedStyle.Render(heading))
		}
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+it.req.Project+" | "+it.req.Task))
	}
	if len(p.items) == 0 {
		rows = append(rows, "", mutedStyle.Render("No projects. Press a to add one."))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: switch  a: add project/task  esc: cancel"))
	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
