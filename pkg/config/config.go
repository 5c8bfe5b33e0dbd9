package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG directories and default files
const AppName = "igfollowers"

// Config holds all configuration options for a follower collection run
type Config struct {
	// Target profile and site settings
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Login credential pair
	Credentials CredentialsConfig `yaml:"credentials" json:"credentials"`

	// Browser and session settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Followers panel collection
	Collection CollectionConfig `yaml:"collection" json:"collection"`

	// Per-follower count resolution
	Resolution ResolutionConfig `yaml:"resolution" json:"resolution"`

	// Export settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Resume support
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds Instagram-specific configuration
type InstagramConfig struct {
	Target        string   `yaml:"target" json:"target"`
	BaseURL       string   `yaml:"base_url" json:"base_url"`
	Locale        string   `yaml:"locale" json:"locale"`
	UserAgent     string   `yaml:"user_agent" json:"user_agent"`
	DismissLabels []string `yaml:"dismiss_labels" json:"dismiss_labels"`
}

// CredentialsConfig holds the login pair used when no session artifact exists
type CredentialsConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// BrowserConfig holds browser launch and session persistence configuration
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	UserDataDir       string        `yaml:"user_data_dir" json:"user_data_dir"`
	SessionFile       string        `yaml:"session_file" json:"session_file"`
	WindowWidth       int           `yaml:"window_width" json:"window_width"`
	WindowHeight      int           `yaml:"window_height" json:"window_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	LoginTimeout      time.Duration `yaml:"login_timeout" json:"login_timeout"`
}

// CollectionConfig holds the scroll and stagnation parameters of the followers panel
type CollectionConfig struct {
	MaxFollowers    int           `yaml:"max_followers" json:"max_followers"`
	ScrollPauseMin  time.Duration `yaml:"scroll_pause_min" json:"scroll_pause_min"`
	ScrollPauseMax  time.Duration `yaml:"scroll_pause_max" json:"scroll_pause_max"`
	ScrollDeltaMin  int           `yaml:"scroll_delta_min" json:"scroll_delta_min"`
	ScrollDeltaMax  int           `yaml:"scroll_delta_max" json:"scroll_delta_max"`
	StagnationLimit int           `yaml:"stagnation_limit" json:"stagnation_limit"`
	ProfileSettle   time.Duration `yaml:"profile_settle" json:"profile_settle"`
	DialogSettle    time.Duration `yaml:"dialog_settle" json:"dialog_settle"`
	DialogTimeout   time.Duration `yaml:"dialog_timeout" json:"dialog_timeout"`
	PanelTimeout    time.Duration `yaml:"panel_timeout" json:"panel_timeout"`
	OpenAttempts    int           `yaml:"open_attempts" json:"open_attempts"`
}

// ResolutionConfig holds follower count resolution configuration
type ResolutionConfig struct {
	SettleDelay       time.Duration `yaml:"settle_delay" json:"settle_delay"`
	PauseBetween      time.Duration `yaml:"pause_between" json:"pause_between"`
	Concurrency       int           `yaml:"concurrency" json:"concurrency"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds export configuration
type OutputConfig struct {
	Path    string `yaml:"path" json:"path"`
	Format  string `yaml:"format" json:"format"`
	Summary bool   `yaml:"summary" json:"summary"`
}

// CheckpointConfig holds resume configuration
type CheckpointConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Dir     string `yaml:"dir" json:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the values the scraper was tuned with
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:       "https://www.instagram.com",
			Locale:        "en-US",
			UserAgent:     "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0 Safari/537.36",
			DismissLabels: []string{"Not Now", "Ahora no"},
		},
		Browser: BrowserConfig{
			Headless:          false,
			SessionFile:       filepath.Join(DataDir(), "auth.json"),
			WindowWidth:       1280,
			WindowHeight:      900,
			NavigationTimeout: 30 * time.Second,
			LoginTimeout:      60 * time.Second,
		},
		Collection: CollectionConfig{
			MaxFollowers:    4000,
			ScrollPauseMin:  1200 * time.Millisecond,
			ScrollPauseMax:  2400 * time.Millisecond,
			ScrollDeltaMin:  500,
			ScrollDeltaMax:  800,
			StagnationLimit: 6,
			ProfileSettle:   4 * time.Second,
			DialogSettle:    3 * time.Second,
			DialogTimeout:   10 * time.Second,
			PanelTimeout:    30 * time.Second,
			OpenAttempts:    2,
		},
		Resolution: ResolutionConfig{
			SettleDelay:       1800 * time.Millisecond,
			PauseBetween:      time.Second,
			Concurrency:       1,
			RequestsPerMinute: 30,
		},
		Output: OutputConfig{
			Path:    "instagram_followers.xlsx",
			Format:  "",
			Summary: true,
		},
		Checkpoint: CheckpointConfig{
			Enabled: true,
			Dir:     filepath.Join(DataDir(), "checkpoints"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DataDir returns the per-user data directory
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ConfigDir returns the per-user configuration directory
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	// Names kept from the original script
	if user := os.Getenv("IG_USER"); user != "" {
		c.Credentials.Username = user
	}
	if pass := os.Getenv("IG_PASS"); pass != "" {
		c.Credentials.Password = pass
	}
	if headless := os.Getenv("HEADLESS"); headless != "" {
		c.Browser.Headless = parseBool(headless)
	}

	if target := os.Getenv("IGFOLLOWERS_TARGET"); target != "" {
		c.Instagram.Target = target
	}
	if max := os.Getenv("IGFOLLOWERS_MAX_FOLLOWERS"); max != "" {
		val, err := strconv.Atoi(max)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOWERS_MAX_FOLLOWERS: %w", err))
		} else {
			c.Collection.MaxFollowers = val
		}
	}
	if pause := os.Getenv("IGFOLLOWERS_SCROLL_PAUSE_MIN"); pause != "" {
		d, err := parseSeconds(pause)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOWERS_SCROLL_PAUSE_MIN: %w", err))
		} else {
			c.Collection.ScrollPauseMin = d
		}
	}
	if pause := os.Getenv("IGFOLLOWERS_SCROLL_PAUSE_MAX"); pause != "" {
		d, err := parseSeconds(pause)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOWERS_SCROLL_PAUSE_MAX: %w", err))
		} else {
			c.Collection.ScrollPauseMax = d
		}
	}
	if output := os.Getenv("IGFOLLOWERS_OUTPUT"); output != "" {
		c.Output.Path = output
	}
	if session := os.Getenv("IGFOLLOWERS_SESSION_FILE"); session != "" {
		c.Browser.SessionFile = session
	}
	if chrome := os.Getenv("IGFOLLOWERS_CHROME_PATH"); chrome != "" {
		c.Browser.ExecPath = chrome
	}
	if concurrency := os.Getenv("IGFOLLOWERS_CONCURRENCY"); concurrency != "" {
		val, err := strconv.Atoi(concurrency)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGFOLLOWERS_CONCURRENCY: %w", err))
		} else {
			c.Resolution.Concurrency = val
		}
	}
	if logLevel := os.Getenv("IGFOLLOWERS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// parseSeconds accepts either a Go duration ("1.5s") or plain seconds ("1.5")
func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igfollowers.yaml",
		".igfollowers.yml",
		filepath.Join(ConfigDir(), "config.yaml"),
		filepath.Join(ConfigDir(), "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid.
// Credentials are checked separately by RequireCredentials.
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}

	if c.Collection.MaxFollowers <= 0 {
		errs = append(errs, errors.New("max followers must be positive"))
	}
	if c.Collection.ScrollPauseMin < 0 || c.Collection.ScrollPauseMax < c.Collection.ScrollPauseMin {
		errs = append(errs, errors.New("scroll pause bounds must satisfy 0 <= min <= max"))
	}
	if c.Collection.ScrollDeltaMin <= 0 || c.Collection.ScrollDeltaMax < c.Collection.ScrollDeltaMin {
		errs = append(errs, errors.New("scroll delta bounds must satisfy 0 < min <= max"))
	}
	if c.Collection.StagnationLimit <= 0 {
		errs = append(errs, errors.New("stagnation limit must be positive"))
	}
	if c.Collection.OpenAttempts <= 0 {
		errs = append(errs, errors.New("open attempts must be positive"))
	}

	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}

	if c.Resolution.Concurrency <= 0 {
		errs = append(errs, errors.New("resolution concurrency must be positive"))
	}
	if c.Resolution.Concurrency > 4 {
		errs = append(errs, errors.New("resolution concurrency should not exceed 4"))
	}
	if c.Resolution.SettleDelay < 0 || c.Resolution.PauseBetween < 0 {
		errs = append(errs, errors.New("resolution delays cannot be negative"))
	}
	if c.Resolution.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	validFormats := map[string]bool{
		"": true, "xlsx": true, "csv": true, "md": true, "json": true,
	}
	if !validFormats[strings.ToLower(c.Output.Format)] {
		errs = append(errs, fmt.Errorf("invalid output format %q", c.Output.Format))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ErrMissingCredentials is returned when the login pair is incomplete
var ErrMissingCredentials = errors.New("missing credentials: set IG_USER and IG_PASS or run 'igfollowers auth login'")

// RequireCredentials checks that both halves of the login pair are present
func (c *Config) RequireCredentials() error {
	if c.Credentials.Username == "" || c.Credentials.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if target, ok := flags["target"].(string); ok && target != "" {
		c.Instagram.Target = target
	}
	if max, ok := flags["max-followers"].(int); ok && max > 0 {
		c.Collection.MaxFollowers = max
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.Path = output
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Output.Format = format
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if session, ok := flags["session-file"].(string); ok && session != "" {
		c.Browser.SessionFile = session
	}
	if concurrency, ok := flags["concurrency"].(int); ok && concurrency > 0 {
		c.Resolution.Concurrency = concurrency
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(ConfigDir(), ".env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
