package main

import (
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/export"

	"github.com/spf13/cobra"
)

func newGifCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gif <images...>",
		Short: "Assemble images into an animated GIF",
		Long: `Encodes the given images, in order, into an infinitely looping GIF.
--output may name a .gif file or a directory receiving progress_<unix>.gif.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exportCfg := app.cfg.Export
			flags := cmd.Flags()
			if flags.Changed("output") {
				exportCfg.OutputDir, _ = flags.GetString("output")
			}
			if flags.Changed("delay-ms") {
				exportCfg.FrameDelayMs, _ = flags.GetInt("delay-ms")
			}
			if flags.Changed("max-dimension") {
				exportCfg.MaxDimension, _ = flags.GetInt("max-dimension")
			}
			if exportCfg.FrameDelayMs <= 0 {
				return fmt.Errorf("delay-ms must be > 0, got %d", exportCfg.FrameDelayMs)
			}

			target, err := export.GIF(cmd.Context(), args, export.Options{
				OutputPath:   exportCfg.OutputDir,
				FrameDelay:   exportCfg.FrameDelay(),
				MaxDimension: exportCfg.MaxDimension,
				Workers:      exportCfg.Workers,
				Logger:       app.logger,
				Now:          time.Now,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output .gif file or directory")
	cmd.Flags().Int("delay-ms", 0, "Delay between frames in milliseconds")
	cmd.Flags().Int("max-dimension", 0, "Fit frames into this many pixels per side")
	return cmd
}
