package resolver

import (
	"context"
	"time"

	"igfollowers/pkg/browser"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/models"
)

// Options configures a Resolver
type Options struct {
	BaseURL           string
	NavigationTimeout time.Duration
	// SettleDelay lets client-side rendering finish before extraction
	SettleDelay time.Duration
	Strategies  []Strategy
}

// DefaultOptions returns the resolver defaults
func DefaultOptions() Options {
	return Options{
		BaseURL:           instagram.BaseURL,
		NavigationTimeout: 30 * time.Second,
		SettleDelay:       1800 * time.Millisecond,
		Strategies:        DefaultStrategies(),
	}
}

// Resolver looks up the follower count shown on a profile page
type Resolver struct {
	opts   Options
	logger logger.Logger
}

// New creates a Resolver, filling unset options from DefaultOptions
func New(opts Options, log logger.Logger) *Resolver {
	def := DefaultOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = def.BaseURL
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = def.NavigationTimeout
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if len(opts.Strategies) == 0 {
		opts.Strategies = def.Strategies
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Resolver{opts: opts, logger: log}
}

// Resolve opens identifier's profile on page and tries each strategy in
// order. It never fails: navigation errors, timeouts and unknown layouts
// all produce a result with a nil count.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page, identifier string) models.AttributeResult {
	result := models.AttributeResult{
		Identifier: identifier,
		SourceURL:  instagram.ProfileURL(r.opts.BaseURL, identifier),
	}

	if err := page.Goto(ctx, result.SourceURL, r.opts.NavigationTimeout); err != nil {
		fields := map[string]interface{}{
			"identifier": identifier,
			"kind":       string(errs.KindOf(err)),
		}
		r.logger.WithError(err).WarnWithFields("Profile page did not load", fields)
		return result
	}

	if err := page.Sleep(ctx, r.opts.SettleDelay); err != nil {
		return result
	}

	src := &Source{Page: page}
	for _, s := range r.opts.Strategies {
		if ctx.Err() != nil {
			return result
		}
		if n, ok := s.Extract(ctx, src); ok {
			result.Followers = models.Count(n)
			result.Strategy = s.Name()
			break
		}
		r.logger.DebugWithFields("Strategy found no count", map[string]interface{}{
			"identifier": identifier,
			"strategy":   s.Name(),
		})
	}

	logger.LogResolution(r.logger, identifier, result.Followers, result.Strategy)
	return result
}
