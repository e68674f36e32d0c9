package main

import (
	"fmt"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/extract"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/watcher"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/notify"

	"github.com/spf13/cobra"
)

func newScanCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [directories...]",
		Short: "Extract previews for every project file already on disk",
		Long: `Finds every .clip file below the given directories (or
watch.directories from the config) and extracts each one, printing one JSON
result per line. Ignore patterns from the config apply.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			watchCfg := app.cfg.Watch
			if len(args) > 0 {
				watchCfg.Directories = args
			}
			if cmd.Flags().Changed("output") {
				watchCfg.OutputDir, _ = cmd.Flags().GetString("output")
			}
			if len(watchCfg.Directories) == 0 {
				return fmt.Errorf("no directories to scan")
			}
			workers, _ := cmd.Flags().GetInt("workers")

			ignore := watcher.NewIgnoreMatcher(watchCfg.Directories, watchCfg.IgnorePatterns)
			traverser := filesystem.NewTraverser(workers, app.logger).WithSkip(ignore.Ignored)

			paths, stats, err := traverser.FindTracked(cmd.Context(), watchCfg.Directories)
			if err != nil {
				return err
			}

			extractor := extract.NewExtractor(extractOptions(watchCfg), app.logger, app.metrics)
			sink := notify.NewWriterSink(cmd.OutOrStdout())

			failed := 0
			for _, path := range paths {
				result := extractor.Extract(cmd.Context(), path)
				if !result.Succeeded() {
					failed++
				}
				if err := sink.Notify(cmd.Context(), result); err != nil {
					return err
				}
			}

			app.logger.Info().
				Int64("directories", stats.DirsProcessed).
				Int("files", len(paths)).
				Int("failed", failed).
				Msg("Scan complete")
			if failed > 0 {
				return fmt.Errorf("%d of %d files produced no preview", failed, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Thumbnail output directory")
	cmd.Flags().Int("workers", 0, "Directories read concurrently (0 picks from CPU count)")
	return cmd
}
