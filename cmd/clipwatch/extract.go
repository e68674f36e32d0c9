package main

import (
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/extract"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/notify"

	"github.com/spf13/cobra"
)

func newExtractCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <file.clip>",
		Short: "Extract the preview of a single project file",
		Long: `Runs one extraction and prints the result as JSON on stdout. The exit
status is non-zero when no preview could be produced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			watchCfg := app.cfg.Watch
			if cmd.Flags().Changed("output") {
				watchCfg.OutputDir, _ = cmd.Flags().GetString("output")
			}

			extractor := extract.NewExtractor(extractOptions(watchCfg), app.logger, app.metrics)
			result, extractErr := extractor.ExtractE(cmd.Context(), args[0])

			if err := notify.NewWriterSink(cmd.OutOrStdout()).Notify(cmd.Context(), result); err != nil {
				return err
			}
			return extractErr
		},
	}

	cmd.Flags().StringP("output", "o", "", "Thumbnail output directory")
	return cmd
}
