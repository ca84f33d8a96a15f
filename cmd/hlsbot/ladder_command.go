package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"hlsbot/internal/rendition"
)

func newLadderCommand() *cobra.Command {
	var showArgs bool
	var noAudio bool
	var input string
	var outputDir string

	cmd := &cobra.Command{
		Use:         "ladder",
		Short:       "Show the rendition ladder and the ffmpeg invocation it produces",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ladder := rendition.DefaultLadder()
			plan, err := rendition.BuildPlan(ladder, rendition.Options{HasAudio: !noAudio})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(plan.Variants))
			for _, v := range plan.Variants {
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					v.Rendition.Name,
					fmt.Sprintf("%dx%d", v.Rendition.Width, v.Rendition.Height),
					v.Rendition.Bitrate(),
					rendition.VariantManifest(v.Index),
				})
			}
			writeTable(out, []string{"#", "Name", "Bounds", "Bitrate", "Playlist"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft})
			fmt.Fprintf(out, "var_stream_map: %s\n", plan.StreamMap())

			if showArgs {
				fmt.Fprintln(out, "ffmpeg "+strings.Join(plan.Args(input, outputDir, rendition.DefaultEncoding()), " "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showArgs, "args", false, "Print the full ffmpeg argument vector")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Plan for a source without an audio track")
	cmd.Flags().StringVar(&input, "input", "input.mp4", "Input path used in --args output")
	cmd.Flags().StringVar(&outputDir, "output", "out", "Output directory used in --args output")
	return cmd
}
