package store

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MaxRecent bounds Registry.RecentCombinations.
const MaxRecent = 10

// MaxFinalized bounds Registry.FinalizedDays.
const MaxFinalized = 62

const (
	DefaultProject = "General"
	DefaultTask    = "Daily Work"
)

// Combination is a (project, task) pair. It serialises as "Project - Task".
type Combination struct {
	Project string
	Task    string
}

func (c Combination) String() string {
	return c.Project + " - " + c.Task
}

// ParseCombination splits "Project - Task" at the first separator.
func ParseCombination(s string) (Combination, bool) {
	project, task, ok := strings.Cut(s, " - ")
	if !ok || project == "" || task == "" {
		return Combination{}, false
	}
	return Combination{Project: project, Task: task}, true
}

func (c Combination) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both the string form and {"project":..,"task":..}.
func (c *Combination) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, ok := ParseCombination(s)
		if !ok {
			return fmt.Errorf("invalid combination %q", s)
		}
		*c = parsed
		return nil
	}
	var obj struct {
		Project string `json:"project"`
		Task    string `json:"task"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid combination: %w", err)
	}
	c.Project, c.Task = obj.Project, obj.Task
	return nil
}

// Registry holds the known projects with their tasks in menu order, the
// active selection and the most recently used pairs.
type Registry struct {
	ActiveProject      string                                  `json:"active_project"`
	ActiveTask         string                                  `json:"active_task"`
	Projects           *orderedmap.OrderedMap[string, []string] `json:"projects"`
	RecentCombinations []Combination                           `json:"recent_combinations"`
	// FinalizedDays lists the dates closed with end-day, newest first.
	FinalizedDays []string `json:"finalized_days,omitempty"`
}

// DefaultRegistry is the registry of a fresh install.
func DefaultRegistry() Registry {
	projects := orderedmap.New[string, []string]()
	projects.Set(DefaultProject, []string{DefaultTask})
	return Registry{
		ActiveProject:      DefaultProject,
		ActiveTask:         DefaultTask,
		Projects:           projects,
		RecentCombinations: []Combination{},
	}
}

// Normalize fills nil fields and trims recents to MaxRecent.
func (r *Registry) Normalize() {
	if r.Projects == nil {
		r.Projects = orderedmap.New[string, []string]()
	}
	if r.RecentCombinations == nil {
		r.RecentCombinations = []Combination{}
	}
	if len(r.RecentCombinations) > MaxRecent {
		r.RecentCombinations = r.RecentCombinations[:MaxRecent]
	}
	for i, c := range r.RecentCombinations {
		r.RecentCombinations[i] = r.resolve(c)
	}
	if len(r.FinalizedDays) > MaxFinalized {
		r.FinalizedDays = r.FinalizedDays[:MaxFinalized]
	}
	if r.ActiveProject == "" || r.ActiveTask == "" {
		r.ActiveProject, r.ActiveTask = DefaultProject, DefaultTask
		if oldest := r.Projects.Oldest(); oldest != nil && len(oldest.Value) > 0 {
			r.ActiveProject, r.ActiveTask = oldest.Key, oldest.Value[0]
		}
	}
}

// Clone returns a deep copy.
func (r Registry) Clone() Registry {
	out := Registry{
		ActiveProject:      r.ActiveProject,
		ActiveTask:         r.ActiveTask,
		Projects:           orderedmap.New[string, []string](),
		RecentCombinations: append([]Combination{}, r.RecentCombinations...),
	}
	if r.FinalizedDays != nil {
		out.FinalizedDays = append([]string{}, r.FinalizedDays...)
	}
	if r.Projects != nil {
		for pair := r.Projects.Oldest(); pair != nil; pair = pair.Next() {
			out.Projects.Set(pair.Key, append([]string{}, pair.Value...))
		}
	}
	return out
}

func (r Registry) ProjectNames() []string {
	var names []string
	if r.Projects == nil {
		return names
	}
	for pair := r.Projects.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (r Registry) Tasks(project string) []string {
	if r.Projects == nil {
		return nil
	}
	tasks, _ := r.Projects.Get(project)
	return tasks
}

func (r Registry) HasProject(project string) bool {
	if r.Projects == nil {
		return false
	}
	_, ok := r.Projects.Get(project)
	return ok
}

func (r Registry) HasTask(project, task string) bool {
	for _, t := range r.Tasks(project) {
		if t == task {
			return true
		}
	}
	return false
}

// AddProject registers project and any missing tasks. It reports whether the
// registry changed.
func (r *Registry) AddProject(project string, tasks ...string) bool {
	r.Normalize()
	existing, ok := r.Projects.Get(project)
	changed := !ok
	for _, t := range tasks {
		if !contains(existing, t) {
			existing = append(existing, t)
			changed = true
		}
	}
	if changed {
		if existing == nil {
			existing = []string{}
		}
		r.Projects.Set(project, existing)
	}
	return changed
}

// AddTask appends task to project, creating the project if needed.
func (r *Registry) AddTask(project, task string) bool {
	return r.AddProject(project, task)
}

// Touch moves c to the front of the recent list.
func (r *Registry) Touch(c Combination) {
	recent := make([]Combination, 0, MaxRecent)
	recent = append(recent, c)
	for _, existing := range r.RecentCombinations {
		if existing != c {
			recent = append(recent, existing)
		}
	}
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	r.RecentCombinations = recent
}

// resolve re-splits c against the registered projects when the first
// separator does not name one, so project names containing " - " survive
// the string form.
func (r Registry) resolve(c Combination) Combination {
	if r.HasTask(c.Project, c.Task) {
		return c
	}
	s := c.String()
	for from := 0; ; {
		i := strings.Index(s[from:], " - ")
		if i < 0 {
			return c
		}
		at := from + i
		candidate := Combination{Project: s[:at], Task: s[at+len(" - "):]}
		if candidate.Project != "" && candidate.Task != "" && r.HasTask(candidate.Project, candidate.Task) {
			return candidate
		}
		from = at + 1
	}
}

// IsFinalized reports whether date was closed with end-day.
func (r Registry) IsFinalized(date string) bool {
	return contains(r.FinalizedDays, date)
}

// Finalize records date as ended. It reports whether the registry changed.
func (r *Registry) Finalize(date string) bool {
	if r.IsFinalized(date) {
		return false
	}
	days := append([]string{date}, r.FinalizedDays...)
	if len(days) > MaxFinalized {
		days = days[:MaxFinalized]
	}
	r.FinalizedDays = days
	return true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
