package aggregate

import (
	"sort"

	"github.com/sadopc/taskonaut/internal/store"
)

// ProjectTotal is the closed work time of one project/task in one month.
type ProjectTotal struct {
	Month    string `json:"month"`
	Project  string `json:"project"`
	Task     string `json:"task"`
	Seconds  int64  `json:"seconds"`
	Sessions int    `json:"sessions"`
}

// Projects sums closed work sessions per month, project and task. Results are
// ordered by month, then by time spent.
func Projects(sessions []store.Session) []ProjectTotal {
	type key struct{ month, project, task string }
	totals := make(map[key]*ProjectTotal)

	for _, s := range sessions {
		if s.IsBreak() || s.IsOpen() {
			continue
		}
		k := key{s.Start.Format("2006-01"), s.Project, s.Task}
		t, ok := totals[k]
		if !ok {
			t = &ProjectTotal{Month: k.month, Project: k.project, Task: k.task}
			totals[k] = t
		}
		t.Seconds += seconds(s.Duration())
		t.Sessions++
	}

	out := make([]ProjectTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		return a.Task < b.Task
	})
	return out
}
