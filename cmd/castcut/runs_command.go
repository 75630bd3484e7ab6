package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"castcut/internal/history"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect run history",
	}
	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))
	runsCmd.AddCommand(newRunsPruneCommand(ctx))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make([]history.Status, 0, len(statuses))
			for _, s := range statuses {
				status := history.Status(strings.ToLower(strings.TrimSpace(s)))
				switch status {
				case history.StatusRunning, history.StatusCompleted, history.StatusFailed:
					filter = append(filter, status)
				default:
					return fmt.Errorf("unknown status %q", s)
				}
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit, filter...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			now := time.Now()
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				detail := r.Stage
				if r.Status == history.StatusFailed {
					detail = r.FailureKind + " @ " + r.Stage
				}
				rows = append(rows, []string{
					shortID(r.ID),
					string(r.Kind),
					string(r.Status),
					detail,
					strconv.Itoa(r.Cuts),
					humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
					r.Elapsed(now).Round(time.Second).String(),
					r.Output,
				})
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			footer := []string{"", "", fmt.Sprintf("%d ok / %d failed", stats[history.StatusCompleted], stats[history.StatusFailed])}
			if n := stats[history.StatusRunning]; n > 0 {
				footer[3] = fmt.Sprintf("%d running", n)
			}
			fmt.Fprintln(out, renderTableWithFooter(
				[]string{"ID", "Kind", "Status", "Stage", "Cuts", "Started", "Elapsed", "Output"},
				rows,
				footer,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show runs with these statuses")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := findRun(cmd, store, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, run)
			}
			finished := "-"
			if run.FinishedAt != nil {
				finished = run.FinishedAt.Local().Format(time.DateTime)
			}
			rows := [][]string{
				{"ID", run.ID},
				{"Kind", string(run.Kind)},
				{"Status", string(run.Status)},
				{"Stage", run.Stage},
				{"Output", run.Output},
				{"Sources", strconv.Itoa(run.Sources)},
				{"Segments", strconv.Itoa(run.Segments)},
				{"Cuts", strconv.Itoa(run.Cuts)},
				{"Program", formatClock(run.Program)},
				{"Started", run.CreatedAt.Local().Format(time.DateTime)},
				{"Finished", finished},
			}
			if run.Status == history.StatusFailed {
				rows = append(rows, []string{"Failure", run.FailureKind}, []string{"Error", run.ErrorMessage})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

// findRun resolves a full id or a unique prefix of one.
func findRun(cmd *cobra.Command, store *history.Store, id string) (*history.Run, error) {
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	runs, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *history.Run
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run id %q is ambiguous", id)
		}
		match = r
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Mark abandoned runs failed and delete old finished runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			now := time.Now()
			reclaimed, err := store.ReclaimStale(cmd.Context(), now.Add(-staleAfter))
			if err != nil {
				return err
			}
			pruned, err := store.Prune(cmd.Context(), now.Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d abandoned runs failed, deleted %d finished runs\n", reclaimed, pruned)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete finished runs older than this")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 24*time.Hour, "Treat running rows not updated for this long as abandoned")
	return cmd
}
