package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"castcut/internal/pipeline"
)

func newShortCommand(ctx *commandContext) *cobra.Command {
	var flags sourceFlags
	var start, till, output string

	cmd := &cobra.Command{
		Use:   "short <reference> <camera>...",
		Short: "Render a vertical clip that stacks the loudest speakers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mreq, err := flags.request(args)
			if err != nil {
				return err
			}
			req := pipeline.ShortRequest{Inputs: mreq.Inputs, Offsets: mreq.Offsets, Output: output}
			if req.Start, err = parseTimestamp(start); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if strings.TrimSpace(till) != "" {
				if req.Till, err = parseTimestamp(till); err != nil {
					return fmt.Errorf("--till: %w", err)
				}
			}
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				res, err := p.Short(cmd.Context(), req)
				if err != nil {
					return err
				}
				split := 0
				for _, s := range res.Shots {
					if s.Split() {
						split++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s-%s, %d shots, %d split)\n",
					res.Output, formatClock(res.Start), formatClock(res.Till), len(res.Shots), split)
				printWarnings(cmd, res.Analysis.Warnings)
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&start, "start", "0", "Program time the clip starts at (seconds, 1m30s or 1:30)")
	cmd.Flags().StringVar(&till, "till", "", "Program time the clip ends at (default: start + short.default_seconds)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}
