package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igfollowers/pkg/config"
	"igfollowers/pkg/export"
	"igfollowers/pkg/ui"
)

var forceInit bool

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igfollowers configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IG_USER, IG_PASS, HEADLESS, IGFOLLOWERS_*)
  - .env file
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write a configuration file holding every option at its default value.

The file is created at $XDG_CONFIG_HOME/igfollowers/config.yaml unless a
different path is given with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The password is masked.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)

	initCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
}

func defaultConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return filepath.Join(config.ConfigDir(), "config.yaml")
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := defaultConfigPath()

	if _, err := os.Stat(configPath); err == nil && !forceInit {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite it, run:")
		fmt.Println("  igfollowers config init --force")
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your login with 'igfollowers auth login'")
	fmt.Println("2. Run 'igfollowers config validate' to check the configuration")
	fmt.Println("3. Start collecting with 'igfollowers collect <username>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	displayCfg := *cfg
	if displayCfg.Credentials.Password != "" {
		displayCfg.Credentials.Password = "********"
	}

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	var warnings, problems []string

	if err := cfg.RequireCredentials(); err != nil {
		warnings = append(warnings, "No credentials in configuration or environment; stored credentials will be tried")
	}
	if _, err := export.FormatFor(cfg.Output.Format, cfg.Output.Path); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	if cfg.Checkpoint.Enabled {
		if err := os.MkdirAll(cfg.Checkpoint.Dir, 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create checkpoint directory: %v", err))
		}
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Max followers: %d\n", cfg.Collection.MaxFollowers)
	fmt.Printf("  Stagnation limit: %d\n", cfg.Collection.StagnationLimit)
	fmt.Printf("  Scroll pause: %s - %s\n", cfg.Collection.ScrollPauseMin, cfg.Collection.ScrollPauseMax)
	fmt.Printf("  Output: %s\n", cfg.Output.Path)
	fmt.Printf("  Session file: %s\n", cfg.Browser.SessionFile)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
