package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"castcut/internal/pipeline"
	"castcut/internal/timeline"
)

func newCutCommand(ctx *commandContext) *cobra.Command {
	var ranges []string
	var output string

	cmd := &cobra.Command{
		Use:   "cut <input>",
		Short: "Remove time ranges from a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ranges) == 0 {
				return fmt.Errorf("at least one --remove range is required")
			}
			cuts := make([]timeline.Range, 0, len(ranges))
			for _, r := range ranges {
				parsed, err := parseRange(r)
				if err != nil {
					return err
				}
				cuts = append(cuts, parsed)
			}
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				res, err := p.Cut(cmd.Context(), pipeline.CutRequest{Input: args[0], Cuts: cuts, Output: output})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s kept in %d ranges)\n",
					res.Output, formatClock(res.Length), len(res.Kept))
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVarP(&ranges, "remove", "r", nil, "Range to remove as start-end (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}
