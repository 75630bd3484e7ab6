package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"castcut/internal/media/ffmpeg"
	"castcut/internal/pipeline"
)

func newEnhanceCommand(ctx *commandContext) *cobra.Command {
	var profile, output string

	cmd := &cobra.Command{
		Use:   "enhance <input>",
		Short: "Denoise and loudness-normalize a finished program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := pipeline.EnhanceRequest{
				Input:   args[0],
				Output:  output,
				Profile: ffmpeg.EnhanceProfile(strings.ToLower(strings.TrimSpace(profile))),
			}
			return ctx.withPipeline(cmd, func(p *pipeline.Pipeline) error {
				path, err := p.Enhance(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", string(ffmpeg.EnhancePodcast), "Filter profile: podcast or music")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file")
	return cmd
}
