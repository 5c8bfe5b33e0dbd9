package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"igfollowers/pkg/auth"
	"igfollowers/pkg/config"
	"igfollowers/pkg/session"
	"igfollowers/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Instagram credentials",
	Long: `Manage stored Instagram credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables IG_USER and IG_PASS (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Instagram credentials securely",
	Long: `Store the Instagram username and password used to log in when no saved
browser session exists. The password is read without echo.`,
	Example: `  # Interactive login
  igfollowers auth login

  # Login with username
  igfollowers auth login myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials and the saved browser session",
	Long: `Remove stored Instagram credentials and delete the saved browser session.

Without a username the default account is removed.`,
	Example: `  # Remove the default account
  igfollowers auth logout

  # Remove a specific account
  igfollowers auth logout myusername`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored accounts and session state",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func newCredentialManager() *auth.Manager {
	manager, err := auth.NewManager(config.ConfigDir())
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	return manager
}

func runLogin(cmd *cobra.Command, args []string) {
	manager := newCredentialManager()
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("Instagram username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read username", err.Error())
			os.Exit(1)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		ui.PrintError("Username is required")
		os.Exit(1)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Credentials for %s already exist. Overwrite? (y/N): ", username)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Keeping existing credentials.")
			return
		}
	}

	password, err := readPassword("Password: ", reader)
	if err != nil {
		ui.PrintError("Failed to read password", err.Error())
		os.Exit(1)
	}
	if password == "" {
		ui.PrintError("Password is required")
		os.Exit(1)
	}

	account := &auth.Account{
		Username:     username,
		Password:     password,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %s stored", username))
}

// readPassword reads without echo from a terminal, and a plain line otherwise
func readPassword(prompt string, reader *bufio.Reader) (string, error) {
	fmt.Print(prompt)
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		bytes, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runLogout(cmd *cobra.Command, args []string) {
	manager := newCredentialManager()

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	} else if account, err := manager.RetrieveDefault(); err == nil {
		username = account.Username
	}

	if username != "" {
		switch err := manager.Delete(username); {
		case err == nil:
			ui.PrintSuccess(fmt.Sprintf("Credentials for %s removed", username))
		case errors.Is(err, auth.ErrCredentialsNotFound):
			ui.PrintWarning("No stored credentials", username)
		default:
			ui.PrintError("Failed to remove credentials", err.Error())
			os.Exit(1)
		}
	} else {
		ui.PrintWarning("No stored credentials")
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if err := session.Clear(cfg.Browser.SessionFile); err != nil {
		ui.PrintError("Failed to delete saved session", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Saved browser session deleted")
}

func runStatus(cmd *cobra.Command, args []string) {
	manager := newCredentialManager()

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
	}
	for i, account := range accounts {
		safe := auth.SanitizeAccount(account)
		label := "Account"
		if i == 0 {
			label = "Default account"
		}
		ui.PrintInfo(label, fmt.Sprintf("%s (password %s, updated %s)",
			safe.Username, safe.Password, safe.LastModified.Format(time.DateTime)))
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	if _, err := os.Stat(cfg.Browser.SessionFile); err == nil {
		ui.PrintInfo("Saved session", cfg.Browser.SessionFile)
	} else {
		ui.PrintInfo("Saved session", "none")
	}
}
