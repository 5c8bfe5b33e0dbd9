// Package session establishes an authenticated Instagram browsing context,
// either by importing a saved cookie jar or by logging in through the web
// form and saving the resulting jar for the next run.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"igfollowers/pkg/browser"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/storage"
)

// Credentials is the account used for the interactive login
type Credentials struct {
	Username string
	Password string
}

// Options configures session acquisition
type Options struct {
	BaseURL     string
	SessionFile string
	// DismissLabels are button captions closing post-login interstitials
	DismissLabels []string
	LoginTimeout  time.Duration
	// FormTimeout bounds the wait for the login form to render
	FormTimeout time.Duration
	// LoginSettle is waited after submitting the form
	LoginSettle time.Duration
	// DismissSettle is waited after each dismissed interstitial
	DismissSettle time.Duration
}

// DefaultOptions returns the timings of the web login flow
func DefaultOptions() Options {
	return Options{
		BaseURL:       instagram.BaseURL,
		DismissLabels: []string{"Not Now", "Ahora no"},
		LoginTimeout:  60 * time.Second,
		FormTimeout:   30 * time.Second,
		LoginSettle:   4 * time.Second,
		DismissSettle: time.Second,
	}
}

// Provider hands out authenticated contexts
type Provider struct {
	opts   Options
	creds  Credentials
	logger logger.Logger
}

// NewProvider creates a Provider
func NewProvider(opts Options, creds Credentials, log logger.Logger) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = instagram.BaseURL
	}
	return &Provider{
		opts:   opts,
		creds:  creds,
		logger: log.WithField("component", "session"),
	}
}

// Acquire authenticates bctx. A readable session file is imported and the
// login form is skipped; otherwise page logs in and the jar is saved.
// reused reports whether the saved session was used.
func (p *Provider) Acquire(ctx context.Context, bctx browser.Context, page browser.Page) (reused bool, err error) {
	cookies, err := p.load()
	switch {
	case err == nil:
		if err := bctx.SetCookies(ctx, cookies); err != nil {
			return false, fmt.Errorf("failed to import session: %w", err)
		}
		p.logger.InfoWithFields("Using saved session", map[string]interface{}{
			"file":    p.opts.SessionFile,
			"cookies": len(cookies),
		})
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		p.logger.Debug("No saved session, logging in")
	default:
		p.logger.WithError(err).Warn("Ignoring unreadable session file")
	}

	if err := p.Login(ctx, page); err != nil {
		return false, err
	}
	if err := p.Save(ctx, bctx); err != nil {
		return false, err
	}
	return false, nil
}

// Login fills and submits the login form, then dismisses interstitials
func (p *Provider) Login(ctx context.Context, page browser.Page) error {
	if p.creds.Username == "" || p.creds.Password == "" {
		return errs.New(errs.KindMissingCredentials, "login", "", nil)
	}

	loginURL := instagram.LoginURL(p.opts.BaseURL)
	p.logger.WithField("user", p.creds.Username).Info("Logging in")

	if err := page.Goto(ctx, loginURL, p.opts.LoginTimeout); err != nil {
		return errs.New(errs.KindLogin, "goto", loginURL, err)
	}
	if err := page.WaitFor(ctx, instagram.UsernameInputSelector, p.opts.FormTimeout); err != nil {
		return errs.New(errs.KindLogin, "wait", instagram.UsernameInputSelector, err)
	}
	if err := page.Fill(ctx, instagram.UsernameInputSelector, p.creds.Username); err != nil {
		return errs.New(errs.KindLogin, "fill", instagram.UsernameInputSelector, err)
	}
	if err := page.Fill(ctx, instagram.PasswordInputSelector, p.creds.Password); err != nil {
		return errs.New(errs.KindLogin, "fill", instagram.PasswordInputSelector, err)
	}

	submit, err := page.Query(ctx, instagram.SubmitButtonSelector)
	if err != nil {
		return errs.New(errs.KindLogin, "query", instagram.SubmitButtonSelector, err)
	}
	if err := submit.Click(ctx); err != nil {
		return errs.New(errs.KindLogin, "submit", "", err)
	}

	if err := page.Sleep(ctx, p.opts.LoginSettle); err != nil {
		return err
	}

	// a form still asking for the password usually means a challenge page
	if _, err := page.Query(ctx, instagram.PasswordInputSelector); err == nil {
		p.logger.Warn("Login form still present after submit, continuing")
	}

	dismissed, err := p.dismissInterstitials(ctx, page)
	if err != nil {
		return err
	}
	if dismissed > 0 {
		p.logger.WithField("dismissed", dismissed).Debug("Closed post-login prompts")
	}
	return nil
}

// dismissInterstitials clicks every button captioned with a dismiss label.
// Failures on individual buttons are ignored.
func (p *Provider) dismissInterstitials(ctx context.Context, page browser.Page) (int, error) {
	buttons, err := page.QueryAll(ctx, instagram.ButtonSelector)
	if err != nil {
		return 0, nil
	}

	dismissed := 0
	for _, label := range p.opts.DismissLabels {
		for _, b := range buttons {
			text, err := b.Text(ctx)
			if err != nil || !strings.EqualFold(strings.TrimSpace(text), label) {
				continue
			}
			if err := b.Click(ctx); err != nil {
				p.logger.WithError(err).WithField("label", label).Debug("Dismiss click failed")
				continue
			}
			dismissed++
			if err := page.Sleep(ctx, p.opts.DismissSettle); err != nil {
				return dismissed, err
			}
			break
		}
	}
	return dismissed, nil
}

// Save writes bctx's cookie jar to the session file
func (p *Provider) Save(ctx context.Context, bctx browser.Context) error {
	if p.opts.SessionFile == "" {
		return nil
	}

	cookies, err := bctx.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := storage.WriteFileAtomic(p.opts.SessionFile, data, 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	p.logger.WithField("file", p.opts.SessionFile).Info("Session saved")
	return nil
}

func (p *Provider) load() ([]browser.Cookie, error) {
	if p.opts.SessionFile == "" {
		return nil, os.ErrNotExist
	}

	data, err := os.ReadFile(p.opts.SessionFile)
	if err != nil {
		return nil, err
	}

	var cookies []browser.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("session file has no cookies")
	}
	return cookies, nil
}

// Clear deletes the session file
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
