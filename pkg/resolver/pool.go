package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
	"igfollowers/pkg/models"
	"igfollowers/pkg/ratelimit"
)

// Observer receives each result as soon as it is available
type Observer interface {
	ResolutionProgress(done, total int, result models.AttributeResult)
}

// PoolOptions configures a Pool
type PoolOptions struct {
	// PauseBetween is slept by a worker after every profile it visits
	PauseBetween time.Duration
	Limiter      ratelimit.Limiter
	Observer     Observer
}

// Pool resolves identifiers over a fixed set of pages, one worker per page.
// Each page is used by a single worker at a time, so navigations on a page
// never overlap.
type Pool struct {
	resolver *Resolver
	pages    chan browser.Page
	size     int
	opts     PoolOptions
	logger   logger.Logger
}

// NewPool creates a Pool over pages
func NewPool(r *Resolver, pages []browser.Page, opts PoolOptions, log logger.Logger) (*Pool, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("resolver pool needs at least one page")
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	ch := make(chan browser.Page, len(pages))
	for _, p := range pages {
		ch <- p
	}
	return &Pool{resolver: r, pages: ch, size: len(pages), opts: opts, logger: log}, nil
}

// ResolveAll resolves every identifier and returns results in input order.
// If ctx is cancelled, results for identifiers not yet visited carry a nil
// count and ctx.Err() is returned alongside them.
func (p *Pool) ResolveAll(ctx context.Context, identifiers []string) ([]models.AttributeResult, error) {
	results := make([]models.AttributeResult, len(identifiers))
	for i, id := range identifiers {
		results[i] = models.AttributeResult{
			Identifier: id,
			SourceURL:  instagram.ProfileURL(p.resolver.opts.BaseURL, id),
		}
	}

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i, id := range identifiers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			page := <-p.pages
			defer func() { p.pages <- page }()

			if err := p.opts.Limiter.Wait(gctx); err != nil {
				return err
			}

			res := p.resolver.Resolve(gctx, page, id)
			if err := gctx.Err(); err != nil {
				// a half-loaded page proves nothing about the count
				return err
			}

			mu.Lock()
			results[i] = res
			done++
			n := done
			if p.opts.Observer != nil {
				p.opts.Observer.ResolutionProgress(n, len(identifiers), res)
			}
			mu.Unlock()

			return page.Sleep(gctx, p.opts.PauseBetween)
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.WithError(err).Warn("Resolution interrupted")
		return results, err
	}
	return results, nil
}
