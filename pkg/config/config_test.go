package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Collection.MaxFollowers != 4000 {
		t.Errorf("Expected default max followers to be 4000, got %d", config.Collection.MaxFollowers)
	}

	if config.Collection.StagnationLimit != 6 {
		t.Errorf("Expected default stagnation limit to be 6, got %d", config.Collection.StagnationLimit)
	}

	assert.Equal(t, 1200*time.Millisecond, config.Collection.ScrollPauseMin)
	assert.Equal(t, 2400*time.Millisecond, config.Collection.ScrollPauseMax)
	assert.Equal(t, 500, config.Collection.ScrollDeltaMin)
	assert.Equal(t, 800, config.Collection.ScrollDeltaMax)
	assert.Equal(t, 30*time.Second, config.Browser.NavigationTimeout)
	assert.Equal(t, 1800*time.Millisecond, config.Resolution.SettleDelay)
	assert.Equal(t, time.Second, config.Resolution.PauseBetween)
	assert.Equal(t, 1, config.Resolution.Concurrency)
	assert.Equal(t, "instagram_followers.xlsx", config.Output.Path)
	assert.Equal(t, []string{"Not Now", "Ahora no"}, config.Instagram.DismissLabels)

	require.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IG_USER", "scraper")
	t.Setenv("IG_PASS", "hunter2")
	t.Setenv("HEADLESS", "1")
	t.Setenv("IGFOLLOWERS_TARGET", "natgeo")
	t.Setenv("IGFOLLOWERS_MAX_FOLLOWERS", "250")
	t.Setenv("IGFOLLOWERS_SCROLL_PAUSE_MIN", "0.5")
	t.Setenv("IGFOLLOWERS_SCROLL_PAUSE_MAX", "900ms")
	t.Setenv("IGFOLLOWERS_OUTPUT", "out.csv")
	t.Setenv("IGFOLLOWERS_CONCURRENCY", "2")
	t.Setenv("IGFOLLOWERS_LOG_LEVEL", "debug")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	assert.Equal(t, "scraper", config.Credentials.Username)
	assert.Equal(t, "hunter2", config.Credentials.Password)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, "natgeo", config.Instagram.Target)
	assert.Equal(t, 250, config.Collection.MaxFollowers)
	assert.Equal(t, 500*time.Millisecond, config.Collection.ScrollPauseMin)
	assert.Equal(t, 900*time.Millisecond, config.Collection.ScrollPauseMax)
	assert.Equal(t, "out.csv", config.Output.Path)
	assert.Equal(t, 2, config.Resolution.Concurrency)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvReportsAllBadValues(t *testing.T) {
	t.Setenv("IGFOLLOWERS_MAX_FOLLOWERS", "lots")
	t.Setenv("IGFOLLOWERS_CONCURRENCY", "two")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IGFOLLOWERS_MAX_FOLLOWERS")
	assert.Contains(t, err.Error(), "IGFOLLOWERS_CONCURRENCY")
	assert.Equal(t, 4000, config.Collection.MaxFollowers)
}

func TestHeadlessParsing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"0", false},
		{"no", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("HEADLESS", tt.value)
			config := DefaultConfig()
			config.Browser.Headless = !tt.want
			require.NoError(t, config.LoadFromEnv())
			assert.Equal(t, tt.want, config.Browser.Headless)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero max followers",
			modify:  func(c *Config) { c.Collection.MaxFollowers = 0 },
			wantErr: true,
		},
		{
			name: "inverted pause bounds",
			modify: func(c *Config) {
				c.Collection.ScrollPauseMin = 3 * time.Second
				c.Collection.ScrollPauseMax = time.Second
			},
			wantErr: true,
		},
		{
			name:    "zero scroll delta",
			modify:  func(c *Config) { c.Collection.ScrollDeltaMin = 0 },
			wantErr: true,
		},
		{
			name:    "zero stagnation limit",
			modify:  func(c *Config) { c.Collection.StagnationLimit = 0 },
			wantErr: true,
		},
		{
			name:    "too much concurrency",
			modify:  func(c *Config) { c.Resolution.Concurrency = 10 },
			wantErr: true,
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "pdf" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	config := DefaultConfig()
	assert.ErrorIs(t, config.RequireCredentials(), ErrMissingCredentials)

	config.Credentials.Username = "scraper"
	assert.ErrorIs(t, config.RequireCredentials(), ErrMissingCredentials)

	config.Credentials.Password = "hunter2"
	assert.NoError(t, config.RequireCredentials())
}

func TestSaveAndLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	config := DefaultConfig()
	config.Instagram.Target = "natgeo"
	config.Collection.MaxFollowers = 100
	config.Collection.ScrollPauseMin = 2 * time.Second
	config.Collection.ScrollPauseMax = 3 * time.Second

	require.NoError(t, config.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "natgeo", loaded.Instagram.Target)
	assert.Equal(t, 100, loaded.Collection.MaxFollowers)
	assert.Equal(t, 2*time.Second, loaded.Collection.ScrollPauseMin)
	assert.Equal(t, 3*time.Second, loaded.Collection.ScrollPauseMax)
}

func TestLoadFromFileHumanDurations(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
instagram:
  target: natgeo
collection:
  max_followers: 50
  scroll_pause_min: 1s
  scroll_pause_max: 1500ms
resolution:
  concurrency: 2
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(configPath))

	assert.Equal(t, 50, config.Collection.MaxFollowers)
	assert.Equal(t, time.Second, config.Collection.ScrollPauseMin)
	assert.Equal(t, 1500*time.Millisecond, config.Collection.ScrollPauseMax)
	assert.Equal(t, 2, config.Resolution.Concurrency)
	// untouched sections keep defaults
	assert.Equal(t, 6, config.Collection.StagnationLimit)
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"target":        "natgeo",
		"max-followers": 10,
		"output":        "followers.md",
		"format":        "md",
		"headless":      true,
		"concurrency":   3,
		"log-level":     "warn",
	}

	config.MergeCommandLineFlags(flags)

	assert.Equal(t, "natgeo", config.Instagram.Target)
	assert.Equal(t, 10, config.Collection.MaxFollowers)
	assert.Equal(t, "followers.md", config.Output.Path)
	assert.Equal(t, "md", config.Output.Format)
	assert.True(t, config.Browser.Headless)
	assert.Equal(t, 3, config.Resolution.Concurrency)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
collection:
  max_followers: 100
output:
  path: from-file.xlsx
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	t.Setenv("IGFOLLOWERS_MAX_FOLLOWERS", "200")

	config, err := Load(configPath, map[string]interface{}{
		"max-followers": 300,
	})
	require.NoError(t, err)

	// flag beats env beats file
	assert.Equal(t, 300, config.Collection.MaxFollowers)
	assert.Equal(t, "from-file.xlsx", config.Output.Path)
}
