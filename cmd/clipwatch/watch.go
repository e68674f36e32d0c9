package main

import (
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ZanzyTHEbar/clipwatch/clipwatch/config"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/extract"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/watcher"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/notify"

	"github.com/spf13/cobra"
)

func newWatchCommand(app *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [directories...]",
		Short: "Watch directories and extract previews on change",
		Long: `Watches the given directories (or watch.directories from the config)
recursively. Every changed .clip file produces a thumbnail event, printed as
one JSON document per line on stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Arguments and flags win over the config file, also on reload.
			overrides := func(watchCfg config.WatchConfig) config.WatchConfig {
				if len(args) > 0 {
					watchCfg.Directories = args
				}
				if cmd.Flags().Changed("debounce") {
					watchCfg.DebounceSeconds, _ = cmd.Flags().GetFloat64("debounce")
				}
				if cmd.Flags().Changed("output") {
					watchCfg.OutputDir, _ = cmd.Flags().GetString("output")
				}
				return watchCfg
			}

			watchCfg := overrides(app.cfg.Watch)
			if len(watchCfg.Directories) == 0 {
				return errors.New("no directories to watch")
			}
			if watchCfg.DebounceSeconds < 0 {
				return errors.New("debounce must be >= 0")
			}

			extractor := extract.NewExtractor(extractOptions(watchCfg), app.logger, app.metrics)
			sink := notify.MultiSink{
				notify.NewWriterSink(cmd.OutOrStdout()),
				notify.NewLogSink(app.logger),
			}

			session := watcher.NewSession(extractor, sink,
				watcher.WithLogger(app.logger),
				watcher.WithIgnorePatterns(watchCfg.IgnorePatterns...),
			)
			if err := session.Reconfigure(watchCfg.Directories, watchCfg.DebounceInterval()); err != nil {
				return err
			}

			// viper keeps watching the file until exit, so reloads after
			// shutdown are dropped under mu.
			var (
				mu     sync.Mutex
				closed bool
			)
			closeSession := func() error {
				mu.Lock()
				defer mu.Unlock()
				closed = true
				return session.Close()
			}

			// Only directories and the debounce interval are applied live.
			_, err := config.WatchFile(app.configPath,
				func(cfg *config.Config) {
					next := overrides(cfg.Watch)
					mu.Lock()
					defer mu.Unlock()
					if closed {
						return
					}
					app.logger.Debug().
						Strs("directories", next.Directories).
						Float64("debounce_seconds", next.DebounceSeconds).
						Msg("Config reloaded")
					if err := session.Reconfigure(next.Directories, next.DebounceInterval()); err != nil {
						app.logger.Error().Err(err).Msg("Failed to apply config change")
					}
				},
				func(err error) {
					app.logger.Warn().Err(err).Msg("Invalid config change")
				},
			)
			if err != nil {
				_ = closeSession()
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			app.logger.Info().Msg("Shutting down")
			return closeSession()
		},
	}

	cmd.Flags().Float64("debounce", 0, "Seconds between extractions of the same file")
	cmd.Flags().StringP("output", "o", "", "Thumbnail output directory")
	return cmd
}

func extractOptions(cfg config.WatchConfig) extract.Options {
	opts := extract.DefaultOptions(cfg.OutputDir)
	opts.CandidateTables = cfg.CandidateTables
	opts.MinBlobSize = cfg.MinBlobSize
	opts.ThumbnailMaxDimension = cfg.ThumbnailMaxDimension
	return opts
}
