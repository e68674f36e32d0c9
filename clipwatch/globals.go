package internal

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	DefaultAppName          = "clipwatch"
	DefaultAppCMDShortCut   = "clipwatch"
	DefaultConfigPath       = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")
	DefaultThumbnailDir     = filepath.Join(DefaultConfigPath, "thumbnails")
	DefaultGifDir           = filepath.Join(DefaultConfigPath, "gifs")
	DefaultEnvPrefix        = "CLIPWATCH"

	// Host project files carrying an embedded preview store
	TrackedExtension = ".clip"

	DefaultDebounceSeconds       = 5.0
	DefaultThumbnailMaxDimension = 300
	DefaultMinBlobSize           = 100
	DefaultCandidateTables       = []string{"CanvasPreview", "Thumbnail", "PreviewImage"}

	DefaultFrameDelayMs  = 500
	DefaultExportWorkers = 4
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current working directory if home directory is unavailable
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return NewLogger(os.Stderr, false)
}

// NewLogger builds a timestamped logger writing to w. Pretty output uses the
// console writer and is meant for interactive terminals.
func NewLogger(w io.Writer, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
