package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"castcut/internal/pipeline"
)

// writeJSON prints v as indented JSON on stdout; the views below keep field
// names stable for scripts that consume --json.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type sourceJSON struct {
	Index          int     `json:"index"`
	Path           string  `json:"path"`
	OffsetSeconds  float64 `json:"offset_seconds"`
	AlignedSeconds float64 `json:"aligned_seconds"`
	Excluded       string  `json:"excluded,omitempty"`
}

type segmentJSON struct {
	Source        int     `json:"source"`
	StartSeconds  float64 `json:"start_seconds"`
	Seconds       float64 `json:"seconds"`
	File          string  `json:"file"`
	FileStartSecs float64 `json:"file_start_seconds"`
	Rerouted      bool    `json:"rerouted,omitempty"`
}

type windowJSON struct {
	Source int    `json:"source"`
	Rule   string `json:"rule"`
}

type planJSON struct {
	RunID          string        `json:"run_id"`
	ProgramSeconds float64       `json:"program_seconds"`
	Sources        []sourceJSON  `json:"sources"`
	Segments       []segmentJSON `json:"segments"`
	Windows        []windowJSON  `json:"windows"`
	Warnings       []string      `json:"warnings,omitempty"`
}

type profileJSON struct {
	Source        int       `json:"source"`
	File          string    `json:"file"`
	WindowSeconds float64   `json:"window_seconds"`
	Values        []float64 `json:"values"`
}

func sourcesView(a *pipeline.Analysis) []sourceJSON {
	out := make([]sourceJSON, 0, len(a.Sources))
	for _, src := range a.Sources {
		view := sourceJSON{
			Index:          src.Index,
			Path:           src.Path,
			OffsetSeconds:  src.Offset.Seconds(),
			AlignedSeconds: src.AlignedDuration(a.Lead).Seconds(),
		}
		if err, bad := a.Profiles.Failed[src.Index]; bad {
			view.Excluded = err.Error()
		}
		out = append(out, view)
	}
	return out
}

func warningsView(warnings []error) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}

func planView(a *pipeline.Analysis) planJSON {
	view := planJSON{
		RunID:          a.RunID,
		ProgramSeconds: a.Plan.Total.Seconds(),
		Sources:        sourcesView(a),
		Segments:       make([]segmentJSON, 0, len(a.Instructions)),
		Windows:        make([]windowJSON, 0, len(a.Plan.Segments)),
		Warnings:       warningsView(a.Warnings),
	}
	for _, inst := range a.Instructions {
		view.Segments = append(view.Segments, segmentJSON{
			Source:        inst.Source,
			StartSeconds:  inst.Start.Seconds(),
			Seconds:       inst.Duration.Seconds(),
			File:          filepath.Base(inst.Path),
			FileStartSecs: inst.SourceStart.Seconds(),
			Rerouted:      inst.Rerouted,
		})
	}
	for i, seg := range a.Plan.Segments {
		view.Windows = append(view.Windows, windowJSON{Source: seg.Source, Rule: a.Plan.Rules[i].String()})
	}
	return view
}

func profileView(a *pipeline.Analysis) []profileJSON {
	out := make([]profileJSON, 0, len(a.Profiles.Profiles))
	for _, p := range a.Profiles.Profiles {
		values := p.Values
		if values == nil {
			values = []float64{}
		}
		out = append(out, profileJSON{
			Source:        p.Source,
			File:          filepath.Base(a.Sources[p.Source].Path),
			WindowSeconds: p.Window.Seconds(),
			Values:        values,
		})
	}
	return out
}
