package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Watch  WatchConfig  `mapstructure:"watch"`
	Export ExportConfig `mapstructure:"export"`
}

// WatchConfig stores the watch session and extraction settings.
type WatchConfig struct {
	Directories           []string `mapstructure:"directories"`
	DebounceSeconds       float64  `mapstructure:"debounceSeconds"`
	OutputDir             string   `mapstructure:"outputDir"`
	ThumbnailMaxDimension int      `mapstructure:"thumbnailMaxDimension"`
	MinBlobSize           int      `mapstructure:"minBlobSize"`
	CandidateTables       []string `mapstructure:"candidateTables"`
	IgnorePatterns        []string `mapstructure:"ignorePatterns"`
}

// ExportConfig stores animated export settings.
type ExportConfig struct {
	OutputDir    string `mapstructure:"outputDir"`
	FrameDelayMs int    `mapstructure:"frameDelayMs"`
	MaxDimension int    `mapstructure:"maxDimension"`
	Workers      int    `mapstructure:"workers"`
}

// DebounceInterval converts the configured seconds into a duration.
func (w WatchConfig) DebounceInterval() time.Duration {
	return time.Duration(w.DebounceSeconds * float64(time.Second))
}

// FrameDelay converts the configured milliseconds into a duration.
func (e ExportConfig) FrameDelay() time.Duration {
	return time.Duration(e.FrameDelayMs) * time.Millisecond
}

var errUtils = common.NewErrorUtils()

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := newViper(configPath)
	if _, err := readConfig(v); err != nil {
		return nil, err
	}
	return decode(v)
}

// WatchFile loads the configuration like LoadConfig and then calls onChange
// with the re-read configuration every time the config file is written.
// Edits that fail to decode or validate go to onError and are otherwise
// ignored. Nothing is watched when no config file was found.
func WatchFile(configPath string, onChange func(*Config), onError func(error)) (*Config, error) {
	v := newViper(configPath)
	found, err := readConfig(v)
	if err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil || !found {
		return cfg, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(errUtils.WrapError(err, "ignoring change to %s", e.Name))
			}
			return
		}
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()

	return cfg, nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(internal.DefaultEnvPrefix)
	v.AutomaticEnv()
	// watch.outputDir becomes CLIPWATCH_WATCH_OUTPUTDIR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readConfig reports whether a config file was read. A missing file in the
// search paths is not an error.
func readConfig(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, errUtils.WrapError(err, "failed to read config file")
	}
	return true, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errUtils.WrapError(err, "unable to decode into struct")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Watch: WatchConfig{
			DebounceSeconds:       internal.DefaultDebounceSeconds,
			OutputDir:             internal.DefaultThumbnailDir,
			ThumbnailMaxDimension: internal.DefaultThumbnailMaxDimension,
			MinBlobSize:           internal.DefaultMinBlobSize,
			CandidateTables:       append([]string(nil), internal.DefaultCandidateTables...),
		},
		Export: ExportConfig{
			OutputDir:    internal.DefaultGifDir,
			FrameDelayMs: internal.DefaultFrameDelayMs,
			Workers:      internal.DefaultExportWorkers,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("watch.directories", []string{})
	v.SetDefault("watch.debounceSeconds", d.Watch.DebounceSeconds)
	v.SetDefault("watch.outputDir", d.Watch.OutputDir)
	v.SetDefault("watch.thumbnailMaxDimension", d.Watch.ThumbnailMaxDimension)
	v.SetDefault("watch.minBlobSize", d.Watch.MinBlobSize)
	v.SetDefault("watch.candidateTables", d.Watch.CandidateTables)
	v.SetDefault("watch.ignorePatterns", []string{})
	v.SetDefault("export.outputDir", d.Export.OutputDir)
	v.SetDefault("export.frameDelayMs", d.Export.FrameDelayMs)
	v.SetDefault("export.maxDimension", d.Export.MaxDimension)
	v.SetDefault("export.workers", d.Export.Workers)
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Watch.DebounceSeconds < 0 {
		return fmt.Errorf("watch.debounceSeconds must be >= 0, got %v", c.Watch.DebounceSeconds)
	}
	if c.Watch.ThumbnailMaxDimension <= 0 {
		return fmt.Errorf("watch.thumbnailMaxDimension must be > 0, got %d", c.Watch.ThumbnailMaxDimension)
	}
	if c.Watch.MinBlobSize <= 0 {
		return fmt.Errorf("watch.minBlobSize must be > 0, got %d", c.Watch.MinBlobSize)
	}
	if len(c.Watch.CandidateTables) == 0 {
		return errors.New("watch.candidateTables cannot be empty")
	}
	if strings.TrimSpace(c.Watch.OutputDir) == "" {
		return errors.New("watch.outputDir cannot be empty")
	}
	if c.Export.FrameDelayMs <= 0 {
		return fmt.Errorf("export.frameDelayMs must be > 0, got %d", c.Export.FrameDelayMs)
	}
	if c.Export.MaxDimension < 0 {
		return fmt.Errorf("export.maxDimension must be >= 0, got %d", c.Export.MaxDimension)
	}
	if c.Export.Workers <= 0 {
		return fmt.Errorf("export.workers must be > 0, got %d", c.Export.Workers)
	}
	return nil
}
