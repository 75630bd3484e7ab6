package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"castcut/internal/logging"
	"castcut/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var runID string
	var level string
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the castcut log file",
		Long: `Print the tail of the rotated castcut log.

Filter to a single run with --run (the full ID or the eight character prefix
printed by "runs list") and to a minimum severity with --level.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lines < 0 {
				return fmt.Errorf("--lines must be non-negative")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			filter := logs.All(logs.RunFilter(runID), logs.LevelFilter(level))

			result, err := logs.Tail(path, lines, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			if !follow {
				if len(result.Lines) == 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "No matching log lines in %s\n", path)
				}
				return nil
			}
			return logs.Follow(cmd.Context(), path, result.Offset, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run ID")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level to show (info, warn, error)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	return cmd
}
