package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sadopc/taskonaut/internal/report"
)

type document struct {
	ExportedAt string              `json:"exported_at" yaml:"exported_at"`
	Count      int                 `json:"count" yaml:"count"`
	Days       []dayDocument       `json:"days" yaml:"days"`
	Projects   []report.ProjectRow `json:"projects,omitempty" yaml:"projects,omitempty"`
}

type dayDocument struct {
	report.SummaryRow `yaml:",inline"`
	Work              string             `json:"work" yaml:"work"`
	Break             string             `json:"break" yaml:"break"`
	Sessions          []sessionDocument `json:"sessions" yaml:"sessions"`
}

type sessionDocument struct {
	report.SessionRow `yaml:",inline"`
	Duration          string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// now is replaced in tests.
var now = time.Now

func newDocument(r report.Report) document {
	doc := document{
		ExportedAt: now().UTC().Format(time.RFC3339),
		Days:       make([]dayDocument, 0, len(r.Days)),
		Projects:   r.Projects,
	}
	for _, d := range r.Days {
		day := dayDocument{
			SummaryRow: d.Summary,
			Work:       formatDuration(d.Summary.WorkSeconds),
			Break:      formatDuration(d.Summary.BreakSeconds),
			Sessions:   make([]sessionDocument, 0, len(d.Sessions)),
		}
		for _, s := range d.Sessions {
			sd := sessionDocument{SessionRow: s}
			if s.End != "" {
				sd.Duration = formatDuration(s.DurationSeconds)
			}
			day.Sessions = append(day.Sessions, sd)
			doc.Count++
		}
		doc.Days = append(doc.Days, day)
	}
	return doc
}

func WriteJSON(w io.Writer, r report.Report) error {
	data, err := json.MarshalIndent(newDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func ToJSON(r report.Report, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, r) })
}
