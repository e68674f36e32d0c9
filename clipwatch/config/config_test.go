package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()

	// Isolate from any config.yaml in the working directory
	err = os.Chdir(suite.tempDir)
	require.NoError(suite.T(), err)
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Empty(suite.T(), cfg.Watch.Directories)
	assert.Equal(suite.T(), internal.DefaultDebounceSeconds, cfg.Watch.DebounceSeconds)
	assert.Equal(suite.T(), 5*time.Second, cfg.Watch.DebounceInterval())
	assert.Equal(suite.T(), internal.DefaultThumbnailDir, cfg.Watch.OutputDir)
	assert.Equal(suite.T(), 300, cfg.Watch.ThumbnailMaxDimension)
	assert.Equal(suite.T(), 100, cfg.Watch.MinBlobSize)
	assert.Equal(suite.T(), []string{"CanvasPreview", "Thumbnail", "PreviewImage"}, cfg.Watch.CandidateTables)
	assert.Equal(suite.T(), 500*time.Millisecond, cfg.Export.FrameDelay())
	assert.Equal(suite.T(), internal.DefaultExportWorkers, cfg.Export.Workers)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
watch:
  directories:
    - /art/projects
    - /art/archive
  debounceSeconds: 2.5
  outputDir: /tmp/thumbs
  candidateTables:
    - CanvasPreview
    - LayerThumbnail
  ignorePatterns:
    - "backup/"
export:
  frameDelayMs: 250
  maxDimension: 800
`
	configPath := filepath.Join(suite.tempDir, "custom.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	require.NoError(suite.T(), err)

	cfg, err := LoadConfig(configPath)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), []string{"/art/projects", "/art/archive"}, cfg.Watch.Directories)
	assert.Equal(suite.T(), 2500*time.Millisecond, cfg.Watch.DebounceInterval())
	assert.Equal(suite.T(), "/tmp/thumbs", cfg.Watch.OutputDir)
	assert.Equal(suite.T(), []string{"CanvasPreview", "LayerThumbnail"}, cfg.Watch.CandidateTables)
	assert.Equal(suite.T(), []string{"backup/"}, cfg.Watch.IgnorePatterns)
	assert.Equal(suite.T(), 250*time.Millisecond, cfg.Export.FrameDelay())
	assert.Equal(suite.T(), 800, cfg.Export.MaxDimension)

	// Untouched keys keep their defaults
	assert.Equal(suite.T(), 300, cfg.Watch.ThumbnailMaxDimension)
}

func (suite *ConfigTestSuite) TestEnvironmentOverride() {
	suite.T().Setenv("CLIPWATCH_WATCH_OUTPUTDIR", "/env/thumbs")
	suite.T().Setenv("CLIPWATCH_WATCH_MINBLOBSIZE", "256")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "/env/thumbs", cfg.Watch.OutputDir)
	assert.Equal(suite.T(), 256, cfg.Watch.MinBlobSize)
}

func (suite *ConfigTestSuite) TestInvalidFileIsRejected() {
	configPath := filepath.Join(suite.tempDir, "bad.yaml")
	err := os.WriteFile(configPath, []byte("watch:\n  debounceSeconds: -1\n"), 0o644)
	require.NoError(suite.T(), err)

	_, err = LoadConfig(configPath)
	assert.Error(suite.T(), err)
}

func (suite *ConfigTestSuite) TestWatchConfigReportsEdits() {
	configPath := filepath.Join(suite.tempDir, "config.yaml")
	err := os.WriteFile(configPath, []byte("watch:\n  directories:\n    - /art/one\n"), 0o644)
	require.NoError(suite.T(), err)

	var (
		mu      sync.Mutex
		latest  *Config
		editErr error
	)
	cfg, err := WatchFile(configPath,
		func(c *Config) {
			mu.Lock()
			defer mu.Unlock()
			latest = c
		},
		func(err error) {
			mu.Lock()
			defer mu.Unlock()
			editErr = err
		},
	)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"/art/one"}, cfg.Watch.Directories)

	err = os.WriteFile(configPath, []byte("watch:\n  directories:\n    - /art/two\n  debounceSeconds: 1\n"), 0o644)
	require.NoError(suite.T(), err)

	require.Eventually(suite.T(), func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil &&
			assert.ObjectsAreEqual([]string{"/art/two"}, latest.Watch.Directories) &&
			latest.Watch.DebounceInterval() == time.Second
	}, 5*time.Second, 20*time.Millisecond)

	// An invalid edit is reported and never handed to onChange.
	err = os.WriteFile(configPath, []byte("watch:\n  debounceSeconds: -1\n"), 0o644)
	require.NoError(suite.T(), err)

	require.Eventually(suite.T(), func() bool {
		mu.Lock()
		defer mu.Unlock()
		return editErr != nil
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(suite.T(), latest.Watch.DebounceSeconds, 0.0)
}

func (suite *ConfigTestSuite) TestWatchConfigWithoutFile() {
	cfg, err := WatchFile("", func(*Config) {
		suite.T().Error("no file to watch")
	}, nil)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), internal.DefaultDebounceSeconds, cfg.Watch.DebounceSeconds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero debounce", mutate: func(c *Config) { c.Watch.DebounceSeconds = 0 }},
		{name: "negative debounce", mutate: func(c *Config) { c.Watch.DebounceSeconds = -0.5 }, wantErr: true},
		{name: "zero thumbnail bound", mutate: func(c *Config) { c.Watch.ThumbnailMaxDimension = 0 }, wantErr: true},
		{name: "zero min blob size", mutate: func(c *Config) { c.Watch.MinBlobSize = 0 }, wantErr: true},
		{name: "no candidate tables", mutate: func(c *Config) { c.Watch.CandidateTables = nil }, wantErr: true},
		{name: "blank output dir", mutate: func(c *Config) { c.Watch.OutputDir = " " }, wantErr: true},
		{name: "zero frame delay", mutate: func(c *Config) { c.Export.FrameDelayMs = 0 }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Export.Workers = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
