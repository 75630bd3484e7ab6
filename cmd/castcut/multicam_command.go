package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"castcut/internal/pipeline"
	"castcut/internal/timeline"
)

type sourceFlags struct {
	screenshares []string
	offsets      []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&f.screenshares, "screenshare", "s", nil, "Screen-share recording whose span keeps the host camera (repeatable)")
	cmd.Flags().StringArrayVar(&f.offsets, "offset", nil, "Pin a source offset as name=seconds, bypassing the aligner (repeatable)")
}

func (f *sourceFlags) request(inputs []string) (pipeline.MulticamRequest, error) {
	offsets, err := parseOffsets(f.offsets)
	if err != nil {
		return pipeline.MulticamRequest{}, err
	}
	return pipeline.MulticamRequest{Inputs: inputs, Screenshares: f.screenshares, Offsets: offsets}, nil
}

func newMulticamCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var output string
	var jumpCut bool

	cmd := &cobra.Command{
		Use:   "multicam <reference> <camera>...",
		Short: "Render a program that cuts to whoever is speaking",
		Long: "Render a program that cuts to whoever is speaking.\n\n" +
			"The first file is the reference: it sets the program length and carries\n" +
			"the host camera. Every other file is a speaker camera with its own mic.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			req.Output = output
			req.JumpCut = jumpCut
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				res, err := p.Multicam(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				a := res.Analysis
				fmt.Fprintf(out, "Wrote %s (%s, %d segments, %d cuts)\n",
					res.Output, formatClock(timeline.Total(a.Segments)), len(a.Segments), a.Cuts())
				if res.JumpCut != "" {
					fmt.Fprintf(out, "Wrote %s\n", res.JumpCut)
				}
				printWarnings(cmd, a.Warnings)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: <output_dir>/<reference>.mp4)")
	cmd.Flags().BoolVar(&jumpCut, "jump-cut", false, "Also write a silence-trimmed copy with auto-editor")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var asJSON bool
	var windows bool

	cmd := &cobra.Command{
		Use:   "plan <reference> <camera>...",
		Short: "Print the camera plan without rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				a, err := p.Analyze(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, planView(a))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderSources(a))
				if windows {
					fmt.Fprintln(out, renderWindows(a))
				} else {
					fmt.Fprintln(out, renderSegments(a))
				}
				fmt.Fprintf(out, "Program %s, %d segments, %d cuts, %d rerouted\n",
					formatClock(a.Plan.Total), len(a.Segments), a.Cuts(), a.Rerouted())
				printWarnings(cmd, a.Warnings)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the plan as JSON")
	cmd.Flags().BoolVar(&windows, "windows", false, "Show every window with the rule that decided it instead of merged segments")
	return cmd
}

func newProfileCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "profile <reference> <camera>...",
		Short: "Print per-window loudness for every source",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				a, err := p.Profile(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, profileView(a))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderProfiles(a))
				printWarnings(cmd, a.Warnings)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the profiles as JSON")
	return cmd
}

func printWarnings(cmd *cobra.Command, warnings []error) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
	}
}

func renderSources(a *pipeline.Analysis) string {
	rows := make([][]string, 0, len(a.Sources))
	for _, src := range a.Sources {
		role := "camera"
		if src.IsReference() {
			role = "reference"
		}
		status := "ok"
		if err, bad := a.Profiles.Failed[src.Index]; bad {
			status = "excluded: " + err.Error()
		}
		rows = append(rows, []string{
			strconv.Itoa(src.Index),
			filepath.Base(src.Path),
			role,
			formatClock(src.Offset),
			formatClock(src.AlignedDuration(a.Lead)),
			status,
		})
	}
	return renderTable(
		[]string{"#", "File", "Role", "Offset", "Aligned", "Status"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	)
}

func renderSegments(a *pipeline.Analysis) string {
	rows := make([][]string, 0, len(a.Instructions))
	for _, inst := range a.Instructions {
		note := ""
		if inst.Rerouted {
			note = "rerouted to reference"
		}
		rows = append(rows, []string{
			formatClock(inst.Start),
			formatClock(inst.End()),
			strconv.Itoa(inst.Source),
			filepath.Base(inst.Path),
			formatClock(inst.SourceStart),
			note,
		})
	}
	var footer []string
	if n := len(a.Instructions); n > 0 {
		footer = []string{"", formatClock(a.Instructions[n-1].End()), "", fmt.Sprintf("%d segments", n), "", ""}
	}
	return renderTableWithFooter(
		[]string{"Start", "End", "Source", "File", "File Time", "Note"},
		rows,
		footer,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignRight, alignLeft},
	)
}

func renderWindows(a *pipeline.Analysis) string {
	rows := make([][]string, 0, len(a.Plan.Segments))
	for i, seg := range a.Plan.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i),
			formatClock(seg.Start),
			strconv.Itoa(seg.Source),
			a.Plan.Rules[i].String(),
		})
	}
	return renderTable(
		[]string{"Window", "Start", "Source", "Rule"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
	)
}

func renderProfiles(a *pipeline.Analysis) string {
	headers := []string{"Window", "Start"}
	aligns := []columnAlignment{alignRight, alignRight}
	windows := 0
	for _, p := range a.Profiles.Profiles {
		headers = append(headers, fmt.Sprintf("%d %s", p.Source, filepath.Base(a.Sources[p.Source].Path)))
		aligns = append(aligns, alignRight)
		windows = max(windows, len(p.Values))
	}
	window := a.Profiles.Profiles[0].Window
	rows := make([][]string, 0, windows)
	for i := 0; i < windows; i++ {
		row := []string{strconv.Itoa(i), formatClock(window * time.Duration(i))}
		for _, p := range a.Profiles.Profiles {
			if v, ok := p.At(i); ok {
				row = append(row, strconv.FormatFloat(v, 'f', 4, 64))
			} else {
				row = append(row, "-")
			}
		}
		rows = append(rows, row)
	}
	return renderTable(headers, rows, aligns)
}
