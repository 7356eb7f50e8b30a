// Package config reads and writes the single JSON document holding overlay
// and work settings, the project registry and the auto-split threshold.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sadopc/taskonaut/internal/store"
)

const FileName = "config.json"

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OverlaySettings are kept for the overlay window; the engine ignores them.
type OverlaySettings struct {
	Position     Position `json:"position"`
	Transparency float64  `json:"transparency" jsonschema:"minimum=0,maximum=1"`
	FontSize     int      `json:"font_size" jsonschema:"minimum=1"`
	AlwaysOnTop  bool     `json:"always_on_top"`
	ShowSeconds  bool     `json:"show_seconds"`
}

type WorkSettings struct {
	TargetHoursPerDay     float64 `json:"target_hours_per_day" jsonschema:"minimum=0,maximum=24"`
	AutoPauseAfterMinutes int     `json:"auto_pause_after_minutes" jsonschema:"minimum=0"`
	BreakReminderEnabled  bool    `json:"break_reminder_enabled"`
	// WorkHours overrides TargetHoursPerDay per lower-case weekday name.
	WorkHours map[string]float64 `json:"work_hours,omitempty"`
}

// Document is the parsed config.json. Keys it does not know are kept and
// written back unchanged.
type Document struct {
	OverlaySettings  OverlaySettings `json:"overlay_settings"`
	WorkSettings     WorkSettings    `json:"work_settings"`
	ProjectsData     store.Registry  `json:"projects_data"`
	ExcelFile        string          `json:"excel_file"`
	AutoSplitMinutes int             `json:"auto_split_minutes" jsonschema:"minimum=0"`

	extra map[string]json.RawMessage
}

func Default() *Document {
	return &Document{
		OverlaySettings: OverlaySettings{
			Position:     Position{X: 100, Y: 100},
			Transparency: 0.9,
			FontSize:     11,
			AlwaysOnTop:  true,
		},
		WorkSettings: WorkSettings{
			TargetHoursPerDay:     8.0,
			AutoPauseAfterMinutes: 60,
			BreakReminderEnabled:  true,
		},
		ProjectsData:     store.DefaultRegistry(),
		ExcelFile:        "working_hours.xlsx",
		AutoSplitMinutes: 5,
	}
}

// AutoSplitThreshold is the elapsed time from which a project switch splits
// the open session.
func (d *Document) AutoSplitThreshold() time.Duration {
	return time.Duration(d.AutoSplitMinutes) * time.Minute
}

// TargetSeconds returns the work target for day's weekday.
func (d *Document) TargetSeconds(day time.Time) int64 {
	hours := d.WorkSettings.TargetHoursPerDay
	if h, ok := d.WorkSettings.WorkHours[strings.ToLower(day.Weekday().String())]; ok {
		hours = h
	}
	return int64(math.Round(hours * 3600))
}

// AutoPauseAfter is the idle period after which a running session is paused.
// Zero disables idle detection.
func (d *Document) AutoPauseAfter() time.Duration {
	return time.Duration(d.WorkSettings.AutoPauseAfterMinutes) * time.Minute
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := *d
	out.ProjectsData = d.ProjectsData.Clone()
	if d.WorkSettings.WorkHours != nil {
		out.WorkSettings.WorkHours = make(map[string]float64, len(d.WorkSettings.WorkHours))
		for k, v := range d.WorkSettings.WorkHours {
			out.WorkSettings.WorkHours[k] = v
		}
	}
	if d.extra != nil {
		out.extra = make(map[string]json.RawMessage, len(d.extra))
		for k, v := range d.extra {
			out.extra[k] = v
		}
	}
	return &out
}

// Parse validates data against the document schema and decodes it on top of
// the defaults.
func Parse(data []byte) (*Document, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	doc := Default()
	doc.ProjectsData = store.Registry{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if doc.ProjectsData.Projects == nil || doc.ProjectsData.Projects.Len() == 0 {
		doc.ProjectsData.AddProject(store.DefaultProject, store.DefaultTask)
	}
	doc.ProjectsData.Normalize()

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	for _, k := range knownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		doc.extra = raw
	}
	return doc, nil
}

var knownKeys = []string{"overlay_settings", "work_settings", "projects_data", "excel_file", "auto_split_minutes"}

// Encode renders the document, unknown keys included, as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	known, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	merged := make(map[string]json.RawMessage, len(d.extra)+len(knownKeys))
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	for k, v := range d.extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.MarshalIndent(merged, "", "  ")
}
