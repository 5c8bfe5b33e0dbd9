package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"igfollowers/pkg/auth"
	"igfollowers/pkg/config"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/scraper"
	"igfollowers/pkg/ui"
)

var (
	// Collect command flags
	maxFollowers int
	outputPath   string
	outputFormat string
	headless     bool
	concurrency  int
	sessionFile  string
	resumeRun    bool
	forceRestart bool
	notify       bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [username]",
	Short: "Collect the followers of a profile and their follower counts",
	Long: `Open the followers panel of a profile, scroll it until enough accounts are
discovered or the list stops growing, then visit every discovered account to
read its follower count.

Logging in requires an Instagram account, taken from:
  - IG_USER and IG_PASS (environment or .env file)
  - The credentials section of the configuration file
  - Stored credentials (use 'igfollowers auth login' to store)

The target may also come from IGFOLLOWERS_TARGET or instagram.target in the
configuration file; a username argument overrides both.

A saved browser session is reused when present so the login form is only
filled on the first run.`,
	Example: `  # Collect up to 4000 followers into instagram_followers.xlsx
  igfollowers collect natgeo

  # The subcommand may be omitted
  igfollowers natgeo --max 200

  # CSV output from a headless browser
  igfollowers collect natgeo -o natgeo.csv --headless

  # Resume an interrupted run
  igfollowers collect natgeo --resume

  # Discard a stale checkpoint and start over
  igfollowers collect natgeo --force-restart`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVarP(&maxFollowers, "max", "m", 0, "maximum number of followers to collect (default 4000)")
	collectCmd.Flags().StringVarP(&outputPath, "output", "o", "", "export file (default instagram_followers.xlsx)")
	collectCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "export format: xlsx, csv, md or json (default from the file extension)")
	collectCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	collectCmd.Flags().IntVar(&concurrency, "concurrency", 0, "browser tabs used to resolve follower counts (1-4)")
	collectCmd.Flags().StringVar(&sessionFile, "session-file", "", "where the browser session is saved")
	collectCmd.Flags().BoolVar(&resumeRun, "resume", false, "resume from last checkpoint")
	collectCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "force restart, ignoring existing checkpoint")
	collectCmd.Flags().BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

// errNoTarget is returned when neither the arguments nor the configuration name a profile
var errNoTarget = errors.New("no target profile: pass a username or set IGFOLLOWERS_TARGET")

// collectFlags maps the flags the user actually set to configuration keys.
// An empty target leaves the configured one in place.
func collectFlags(cmd *cobra.Command, target string) map[string]interface{} {
	flags := make(map[string]interface{})
	if target != "" {
		flags["target"] = target
	}
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("max") {
		flags["max-followers"] = maxFollowers
	}
	if changed("output") {
		flags["output"] = outputPath
	}
	if changed("format") {
		flags["format"] = outputFormat
	}
	if changed("headless") {
		flags["headless"] = headless
	}
	if changed("concurrency") {
		flags["concurrency"] = concurrency
	}
	if changed("session-file") {
		flags["session-file"] = sessionFile
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	return flags
}

// loadCollectConfig loads the configuration for a collect run and checks
// that a target profile is known
func loadCollectConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var target string
	if len(args) > 0 {
		target = strings.TrimSpace(args[0])
	}

	cfg, err := config.Load(configFile, collectFlags(cmd, target))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if strings.TrimSpace(cfg.Instagram.Target) == "" {
		return nil, errNoTarget
	}
	return cfg, nil
}

func runCollect(cmd *cobra.Command, args []string) {
	if resumeRun && forceRestart {
		ui.PrintError("--resume and --force-restart cannot be used together")
		os.Exit(1)
	}

	cfg, err := loadCollectConfig(cmd, args)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("igfollowers starting")

	if err := loadStoredCredentials(cfg, log); err != nil {
		log.Error("No credentials found")
		ui.PrintError("No Instagram credentials found")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  igfollowers auth login")
		fmt.Println("\nOr set environment variables:")
		fmt.Println("  export IG_USER=your_username")
		fmt.Println("  export IG_PASS=your_password")
		os.Exit(1)
	}

	ui.PrintInfo("Target Profile", cfg.Instagram.Target)
	ui.PrintInfo("Max followers", fmt.Sprintf("%d", cfg.Collection.MaxFollowers))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	display := ui.NewProgressDisplay(cfg.Instagram.Target, os.Stdout)
	notifier := ui.NewNotifier(notify)

	s := scraper.New(cfg, scraper.ChromeLauncher(cfg), log, scraper.WithProgress(display))
	summary, err := s.Run(ctx, cfg.Instagram.Target, scraper.RunOptions{
		Resume:       resumeRun,
		ForceRestart: forceRestart,
	})
	if err != nil {
		log.WithError(err).WithField("target", cfg.Instagram.Target).Error("Run failed")
		if summary != nil && summary.Output != "" {
			ui.PrintWarning("Partial results saved", summary.Output)
		}
		if errors.Is(err, scraper.ErrCheckpointExists) {
			ui.PrintError("An unfinished run exists for this profile")
			fmt.Println("\nContinue it with:")
			fmt.Printf("  igfollowers collect %s --resume\n", cfg.Instagram.Target)
			fmt.Println("\nOr start over with:")
			fmt.Printf("  igfollowers collect %s --force-restart\n", cfg.Instagram.Target)
			os.Exit(1)
		}
		notifier.SendError("Collection failed", err.Error())
		os.Exit(1)
	}

	display.Complete(summary, summary.Output)
	notifier.SendSuccess("Collection complete",
		fmt.Sprintf("%d followers of @%s exported", summary.Collected, summary.Target))
}

// loadStoredCredentials fills in the login pair from the credential stores
// when neither the configuration nor the environment provided one
func loadStoredCredentials(cfg *config.Config, log logger.Logger) error {
	if cfg.RequireCredentials() == nil {
		log.Debug("Using credentials from configuration")
		return nil
	}

	manager, err := auth.NewManager(config.ConfigDir())
	if err != nil {
		log.WithError(err).Warn("Credential manager unavailable")
		return cfg.RequireCredentials()
	}

	account, err := manager.RetrieveDefault()
	if err != nil {
		return cfg.RequireCredentials()
	}

	cfg.Credentials.Username = account.Username
	cfg.Credentials.Password = account.Password
	log.WithField("account", account.Username).Info("Using stored credentials")
	ui.PrintInfo("Using account", account.Username)
	return cfg.RequireCredentials()
}
