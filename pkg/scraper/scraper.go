package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/checkpoint"
	"igfollowers/pkg/collector"
	"igfollowers/pkg/config"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/export"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/metadata"
	"igfollowers/pkg/models"
	"igfollowers/pkg/ratelimit"
	"igfollowers/pkg/resolver"
	"igfollowers/pkg/retry"
	"igfollowers/pkg/session"
)

// ErrCheckpointExists is returned when an unfinished run exists for the
// target and neither resume nor restart was requested
var ErrCheckpointExists = errors.New("checkpoint exists - use --resume to continue or --force-restart to start fresh")

// Launcher starts a browsing context
type Launcher func(ctx context.Context) (browser.Context, error)

// Progress observes both phases of a run
type Progress interface {
	collector.Observer
	resolver.Observer
}

// RunOptions selects checkpoint behaviour for one run
type RunOptions struct {
	Resume       bool
	ForceRestart bool
}

// Scraper orchestrates a followers run: session, collection, resolution, export
type Scraper struct {
	config   *config.Config
	launch   Launcher
	logger   logger.Logger
	progress Progress

	// pacing, replaceable in tests
	delay   collector.DelayPolicy
	scroll  collector.ScrollPolicy
	sleep   func(ctx context.Context, d time.Duration) error
	backoff retry.BackoffStrategy
}

// Option customizes a Scraper
type Option func(*Scraper)

// WithProgress reports collection and resolution progress to p
func WithProgress(p Progress) Option {
	return func(s *Scraper) { s.progress = p }
}

// WithPacing replaces the randomized scroll pacing
func WithPacing(delay collector.DelayPolicy, scroll collector.ScrollPolicy, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Scraper) {
		s.delay = delay
		s.scroll = scroll
		s.sleep = sleep
	}
}

// WithRetryBackoff replaces the backoff between attempts to open the followers dialog
func WithRetryBackoff(b retry.BackoffStrategy) Option {
	return func(s *Scraper) { s.backoff = b }
}

// New creates a new Scraper
func New(cfg *config.Config, launch Launcher, log logger.Logger, opts ...Option) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	j := collector.NewJitter(uint64(time.Now().UnixNano()))
	s := &Scraper{
		config:  cfg,
		launch:  launch,
		logger:  log,
		delay:   collector.RandomDelay(cfg.Collection.ScrollPauseMin, cfg.Collection.ScrollPauseMax, j),
		scroll:  collector.RandomScroll(cfg.Collection.ScrollDeltaMin, cfg.Collection.ScrollDeltaMax, j),
		backoff: retry.DefaultExponentialBackoff(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChromeLauncher launches Chrome configured from cfg
func ChromeLauncher(cfg *config.Config) Launcher {
	return func(ctx context.Context) (browser.Context, error) {
		chrome, err := browser.Launch(ctx, browser.Options{
			Headless:     cfg.Browser.Headless,
			ExecPath:     cfg.Browser.ExecPath,
			UserDataDir:  cfg.Browser.UserDataDir,
			UserAgent:    cfg.Instagram.UserAgent,
			Locale:       cfg.Instagram.Locale,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
		})
		if err != nil {
			return nil, err
		}
		return chrome, nil
	}
}

// Run collects the followers of target, resolves their follower counts and
// writes the export. The summary is returned even when the run fails midway.
func (s *Scraper) Run(ctx context.Context, target string, opts RunOptions) (*metadata.RunSummary, error) {
	cfg := s.config
	target = instagram.SanitizeUsername(target)
	if !instagram.IsValidUsername(target) {
		return nil, fmt.Errorf("invalid target username %q", target)
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, errs.New(errs.KindMissingCredentials, "run", target, err)
	}

	runID := uuid.NewString()
	log := logger.WithRunID(s.logger, runID).WithField("target", target)
	summary := metadata.NewRunSummary(runID, target, cfg.Collection.MaxFollowers)

	logger.LogComponentStart(log, "scraper", map[string]interface{}{
		"max_followers": cfg.Collection.MaxFollowers,
		"concurrency":   cfg.Resolution.Concurrency,
		"output":        cfg.Output.Path,
	})

	mgr, cp, err := s.prepareCheckpoint(target, runID, opts, log)
	if err != nil {
		return summary, err
	}
	if cp != nil && len(cp.Identifiers) > 0 {
		summary.Resumed = true
	}

	bctx, err := s.launch(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer bctx.Close()

	page, err := bctx.NewPage(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to open tab: %w", err)
	}

	provider := session.NewProvider(session.Options{
		BaseURL:       cfg.Instagram.BaseURL,
		SessionFile:   cfg.Browser.SessionFile,
		DismissLabels: cfg.Instagram.DismissLabels,
		LoginTimeout:  cfg.Browser.LoginTimeout,
		FormTimeout:   cfg.Browser.NavigationTimeout,
		LoginSettle:   4 * time.Second,
		DismissSettle: time.Second,
	}, session.Credentials{
		Username: cfg.Credentials.Username,
		Password: cfg.Credentials.Password,
	}, log)
	if _, err := provider.Acquire(ctx, bctx, page); err != nil {
		return summary, err
	}

	// Phase 1: collection
	var identifiers []string
	if cp != nil && cp.CollectionDone {
		identifiers = cp.Identifiers
		summary.Collected = len(identifiers)
		summary.StopReason = cp.StopReason
		log.WithField("collected", len(identifiers)).Info("Collection restored from checkpoint")
	} else {
		coll, layout, err := s.collect(ctx, page, target, cp, log)
		if coll != nil {
			identifiers = coll.Identifiers
			summary.Collected = len(coll.Identifiers)
			summary.Cycles = coll.Cycles
			summary.StopReason = string(coll.Stop)
			summary.PanelLayout = layout
			if cp != nil {
				if cerr := mgr.RecordCollection(cp, coll.Identifiers, err == nil, string(coll.Stop)); cerr != nil {
					log.WithError(cerr).Warn("Failed to checkpoint collection")
				}
			}
		}
		if err != nil {
			summary.Interrupted = true
			return summary, err
		}
	}

	// Phase 2: resolution
	pending := identifiers
	var prior []models.AttributeResult
	if cp != nil {
		pending = cp.Pending()
		prior = cp.Results(cfg.Instagram.BaseURL)
	}

	results, resolveErr := s.resolve(ctx, bctx, page, pending, mgr, cp, log)
	all := append(prior, results...)

	// Phase 3: assembly and export
	records := models.Assemble(identifiers, all, cfg.Instagram.BaseURL)
	format, err := export.Save(cfg.Output.Path, cfg.Output.Format, records)
	if err != nil {
		return summary, err
	}
	summary.Output = cfg.Output.Path
	log.InfoWithFields("Export written", map[string]interface{}{
		"path":    cfg.Output.Path,
		"format":  string(format),
		"records": len(records),
	})

	summary.AddResults(all)
	summary.Unresolved = len(records) - summary.Resolved
	summary.Interrupted = resolveErr != nil
	summary.FinishedAt = time.Now()

	if cfg.Output.Summary {
		if path, err := summary.Save(cfg.Output.Path); err != nil {
			log.WithError(err).Warn("Failed to write run summary")
		} else {
			log.WithField("path", path).Debug("Run summary written")
		}
	}

	if resolveErr != nil {
		return summary, resolveErr
	}

	if mgr != nil {
		if err := mgr.Delete(); err != nil {
			log.WithError(err).Warn("Failed to delete checkpoint")
		}
	}

	logger.LogComponentStop(log, "scraper", "completed")
	return summary, nil
}

// prepareCheckpoint loads, discards or creates the checkpoint for target.
// Both return values are nil when checkpoints are disabled.
func (s *Scraper) prepareCheckpoint(target, runID string, opts RunOptions, log logger.Logger) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	if !s.config.Checkpoint.Enabled {
		return nil, nil, nil
	}

	mgr, err := checkpoint.NewManager(s.config.Checkpoint.Dir, target, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	switch {
	case opts.ForceRestart && mgr.Exists():
		if err := mgr.Delete(); err != nil {
			log.WithError(err).Warn("Failed to delete existing checkpoint")
		}
	case opts.Resume && mgr.Exists():
		cp, err := mgr.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			log.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"collected":       len(cp.Identifiers),
				"resolved":        len(cp.Resolved),
				"collection_done": cp.CollectionDone,
			})
			return mgr, cp, nil
		}
	case mgr.Exists():
		return nil, nil, ErrCheckpointExists
	}

	cp, err := mgr.Create(target, runID)
	if err != nil {
		return nil, nil, err
	}
	return mgr, cp, nil
}

// collect opens the followers dialog, locates its panel and scrolls it
func (s *Scraper) collect(ctx context.Context, page browser.Page, target string, cp *checkpoint.Checkpoint, log logger.Logger) (*collector.Collection, string, error) {
	cfg := s.config

	err := retry.Do(ctx, func(ctx context.Context) error {
		return s.openFollowers(ctx, page, target)
	}, &retry.Config{
		MaxAttempts: cfg.Collection.OpenAttempts,
		Backoff:     s.backoff,
		Logger:      log,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.WithError(err).WithField("attempt", attempt).Warn("Opening followers dialog failed, retrying")
		},
	})
	if err != nil {
		return nil, "", err
	}

	if err := page.WaitFor(ctx, instagram.DialogSelector, cfg.Collection.PanelTimeout); err != nil {
		return nil, "", errs.New(errs.KindPanelNotFound, "wait", instagram.DialogSelector, err)
	}

	panel, layout, err := collector.NewLocator(log).Locate(ctx, page)
	if err != nil {
		return nil, "", err
	}

	var known []string
	if cp != nil {
		known = cp.Identifiers
	}

	opts := collector.Options{
		StagnationLimit: cfg.Collection.StagnationLimit,
		Delay:           s.delay,
		Scroll:          s.scroll,
		Sleep:           s.sleep,
		Known:           known,
	}
	if s.progress != nil {
		opts.Observer = s.progress
	}

	coll, err := collector.New(opts, log).Collect(ctx, panel, cfg.Collection.MaxFollowers)
	return coll, layout, err
}

// openFollowers navigates to the profile and clicks through to the followers dialog
func (s *Scraper) openFollowers(ctx context.Context, page browser.Page, target string) error {
	cfg := s.config
	profileURL := instagram.ProfileURL(cfg.Instagram.BaseURL, target)

	if err := page.Goto(ctx, profileURL, cfg.Browser.NavigationTimeout); err != nil {
		return err
	}
	if err := page.Sleep(ctx, cfg.Collection.ProfileSettle); err != nil {
		return err
	}

	link, err := page.Query(ctx, instagram.FollowersLinkSelector)
	if err != nil {
		link, err = page.Query(ctx, instagram.FollowersLinkFallback)
		if err != nil {
			return errs.New(errs.KindDialogUnavailable, "open", profileURL, err)
		}
	}
	if err := link.Click(ctx); err != nil {
		return errs.New(errs.KindDialogUnavailable, "open", profileURL, err)
	}

	if err := page.WaitFor(ctx, instagram.DialogSelector, cfg.Collection.DialogTimeout); err != nil {
		return errs.New(errs.KindDialogUnavailable, "open", instagram.DialogSelector, err)
	}
	return page.Sleep(ctx, cfg.Collection.DialogSettle)
}

// resolve visits every pending profile over Concurrency tabs
func (s *Scraper) resolve(ctx context.Context, bctx browser.Context, first browser.Page, pending []string, mgr *checkpoint.Manager, cp *checkpoint.Checkpoint, log logger.Logger) ([]models.AttributeResult, error) {
	cfg := s.config
	if len(pending) == 0 {
		return nil, nil
	}

	pages := []browser.Page{first}
	for len(pages) < cfg.Resolution.Concurrency && len(pages) < len(pending) {
		p, err := bctx.NewPage(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to open extra tab, continuing with fewer workers")
			break
		}
		defer p.Close()
		pages = append(pages, p)
	}

	r := resolver.New(resolver.Options{
		BaseURL:           cfg.Instagram.BaseURL,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		SettleDelay:       cfg.Resolution.SettleDelay,
	}, log)

	pool, err := resolver.NewPool(r, pages, resolver.PoolOptions{
		PauseBetween: cfg.Resolution.PauseBetween,
		Limiter:      ratelimit.PerMinute(cfg.Resolution.RequestsPerMinute),
		Observer:     &recorder{mgr: mgr, cp: cp, next: s.progress, logger: log},
	}, log)
	if err != nil {
		return nil, err
	}

	return pool.ResolveAll(ctx, pending)
}

// recorder checkpoints each resolution before forwarding it
type recorder struct {
	mgr    *checkpoint.Manager
	cp     *checkpoint.Checkpoint
	next   resolver.Observer
	logger logger.Logger
}

func (r *recorder) ResolutionProgress(done, total int, result models.AttributeResult) {
	if r.mgr != nil && r.cp != nil {
		if err := r.mgr.RecordResolution(r.cp, result); err != nil {
			r.logger.WithError(err).Warn("Failed to checkpoint resolution")
		}
	}
	if r.next != nil {
		r.next.ResolutionProgress(done, total, result)
	}
}
