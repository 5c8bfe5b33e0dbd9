package collector

import (
	"context"
	"errors"

	"igfollowers/pkg/browser"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
)

// PanelStrategy finds the scrollable region of the followers dialog.
// Locate returns browser.ErrNotFound when its layout is not present.
type PanelStrategy interface {
	Name() string
	Locate(ctx context.Context, page browser.Page) (browser.Element, error)
}

// SelectorStrategy locates the panel with a single CSS selector
type SelectorStrategy struct {
	Label    string
	Selector string
}

func (s SelectorStrategy) Name() string {
	return s.Label
}

func (s SelectorStrategy) Locate(ctx context.Context, page browser.Page) (browser.Element, error) {
	return page.Query(ctx, s.Selector)
}

// DefaultStrategies returns the known dialog layouts, most stable first
func DefaultStrategies() []PanelStrategy {
	strategies := make([]PanelStrategy, 0, len(instagram.PanelSelectors))
	for _, layout := range instagram.PanelSelectors {
		strategies = append(strategies, SelectorStrategy{Label: layout.Name, Selector: layout.Selector})
	}
	return strategies
}

// Locator tries panel strategies in order; the first match wins
type Locator struct {
	strategies []PanelStrategy
	logger     logger.Logger
}

// NewLocator creates a Locator. With no strategies it uses DefaultStrategies.
func NewLocator(log logger.Logger, strategies ...PanelStrategy) *Locator {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Locator{strategies: strategies, logger: log}
}

// Locate returns the panel and the name of the strategy that found it.
// It fails with a PanelNotFound error when every strategy misses.
func (l *Locator) Locate(ctx context.Context, page browser.Page) (browser.Element, string, error) {
	for _, s := range l.strategies {
		panel, err := s.Locate(ctx, page)
		if err == nil && panel != nil {
			l.logger.InfoWithFields("Panel located", map[string]interface{}{
				"strategy": s.Name(),
			})
			return panel, s.Name(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		if err != nil && !errors.Is(err, browser.ErrNotFound) {
			l.logger.WithError(err).DebugWithFields("Panel strategy failed", map[string]interface{}{
				"strategy": s.Name(),
			})
		}
	}
	return nil, "", errs.New(errs.KindPanelNotFound, "locate", instagram.DialogSelector, nil)
}
