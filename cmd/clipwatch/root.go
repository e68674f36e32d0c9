package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/config"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	configFlagStr      = "config"
	logLevelFlagStr    = "log-level"
	prettyFlagStr      = "pretty"
	metricsAddrFlagStr = "metrics-addr"
)

// cli carries state shared by every subcommand once the root has run
type cli struct {
	configPath    string
	cfg           *config.Config
	logger        zerolog.Logger
	metrics       *common.ExtractionMetrics
	metricsServer *http.Server
}

func newRootCommand() *cobra.Command {
	app := &cli{}

	rootCmd := &cobra.Command{
		Use:          internal.DefaultAppCMDShortCut,
		Short:        "Extract previews from .clip project files",
		Long:         "Watches directories for .clip project changes, extracts the embedded preview image and publishes a thumbnail event per change.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.shutdown()
		},
	}

	rootCmd.PersistentFlags().StringP(configFlagStr, "c", "", "Config file path")
	rootCmd.PersistentFlags().String(logLevelFlagStr, "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool(prettyFlagStr, false, "Human readable console logs")
	rootCmd.PersistentFlags().String(metricsAddrFlagStr, "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(
		newWatchCommand(app),
		newExtractCommand(app),
		newScanCommand(app),
		newGifCommand(app),
	)
	return rootCmd
}

func (c *cli) initialize(cmd *cobra.Command) error {
	flags := cmd.Flags()
	configPath, _ := flags.GetString(configFlagStr)
	levelStr, _ := flags.GetString(logLevelFlagStr)
	pretty, _ := flags.GetBool(prettyFlagStr)
	metricsAddr, _ := flags.GetString(metricsAddrFlagStr)

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	zerolog.SetGlobalLevel(level)
	c.logger = internal.NewLogger(cmd.ErrOrStderr(), pretty)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	c.configPath = configPath
	c.cfg = cfg
	c.metrics = common.NewExtractionMetrics()

	if metricsAddr != "" {
		c.serveMetrics(metricsAddr)
	}
	return nil
}

func (c *cli) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.metrics.Registry(), promhttp.HandlerOpts{}))

	c.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	c.logger.Info().Str("addr", addr).Msg("Serving metrics")
}

func (c *cli) shutdown() error {
	if c.metrics != nil {
		logMetrics(c.logger, c.metrics)
	}
	if c.metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.metricsServer.Shutdown(ctx)
}

func logMetrics(logger zerolog.Logger, m common.PerformanceMetrics) {
	logger.Debug().Fields(m.GetMetrics()).Msg("Extraction metrics")
}
