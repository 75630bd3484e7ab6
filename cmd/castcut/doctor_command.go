package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"castcut/internal/pipeline"
	"castcut/internal/preflight"
	"castcut/internal/staging"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, free space and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				switch {
				case !r.Passed && r.Optional:
					status = "optional"
				case !r.Passed:
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			runsDir := filepath.Join(cfg.Paths.WorkDir, pipeline.RunsDir)
			dirs, err := staging.ListDirectories(runsDir)
			if err != nil {
				return fmt.Errorf("list scratch directories: %w", err)
			}
			if len(dirs) > 0 {
				var total int64
				scratch := make([][]string, 0, len(dirs))
				for _, d := range dirs {
					total += d.Size
					scratch = append(scratch, []string{
						shortID(d.RunID),
						humanize.IBytes(uint64(max(d.Size, 0))),
						humanize.Time(d.ModTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Scratch", "Size", "Modified"},
					scratch,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "%d directories hold %s; failed runs are reclaimed after %s\n",
					len(dirs), humanize.IBytes(uint64(max(total, 0))), pipeline.StaleScratchAge.Round(time.Hour))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required checks failed", len(failed))
			}
			fmt.Fprintln(out, "Ready")
			return nil
		},
	}
}
