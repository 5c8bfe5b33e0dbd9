package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/browser/browsertest"
	errs "igfollowers/pkg/errors"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
)

func pageWith(elements map[string][]browser.Element) *browsertest.Page {
	page := browsertest.NewPage(browsertest.Site{
		"https://www.instagram.com/target/": {Elements: elements},
	})
	_ = page.Goto(context.Background(), "https://www.instagram.com/target/", 0)
	return page
}

func TestLocatePrefersEarlierStrategies(t *testing.T) {
	first := browsertest.NewElement("overflow")
	later := browsertest.NewElement("class")
	page := pageWith(map[string][]browser.Element{
		instagram.PanelSelectors[0].Selector: {first},
		instagram.PanelSelectors[3].Selector: {later},
	})

	panel, name, err := NewLocator(logger.NewNopLogger()).Locate(context.Background(), page)
	require.NoError(t, err)
	assert.Same(t, first, panel)
	assert.Equal(t, "dialog-overflow", name)
}

func TestLocateFallsBackThroughLayouts(t *testing.T) {
	last := browsertest.NewElement("full")
	page := pageWith(map[string][]browser.Element{
		instagram.PanelSelectors[4].Selector: {last},
	})

	tl := logger.NewTestLogger()
	panel, name, err := NewLocator(tl).Locate(context.Background(), page)
	require.NoError(t, err)
	assert.Same(t, last, panel)
	assert.Equal(t, "dialog-x6nl9eh-full", name)
	assert.True(t, tl.HasMessage("Panel located"))
}

func TestDefaultStrategiesFollowLayoutList(t *testing.T) {
	saved := instagram.PanelSelectors
	t.Cleanup(func() { instagram.PanelSelectors = saved })

	extra := instagram.PanelLayout{Name: "dialog-new", Selector: `div[role="dialog"] div.new-layout`}
	instagram.PanelSelectors = append(append([]instagram.PanelLayout{}, saved...), extra)

	strategies := DefaultStrategies()
	require.Len(t, strategies, len(saved)+1)
	assert.Equal(t, "dialog-new", strategies[len(saved)].Name())

	panel := browsertest.NewElement("new")
	page := pageWith(map[string][]browser.Element{extra.Selector: {panel}})
	found, name, err := NewLocator(nil).Locate(context.Background(), page)
	require.NoError(t, err)
	assert.Same(t, panel, found)
	assert.Equal(t, "dialog-new", name)
}

func TestLocateNotFound(t *testing.T) {
	page := pageWith(map[string][]browser.Element{})

	_, _, err := NewLocator(nil).Locate(context.Background(), page)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrPanelNotFound)
}

type failingStrategy struct{}

func (failingStrategy) Name() string { return "broken" }

func (failingStrategy) Locate(ctx context.Context, page browser.Page) (browser.Element, error) {
	return nil, errors.New("protocol error")
}

func TestLocateSkipsFailingStrategy(t *testing.T) {
	el := browsertest.NewElement("custom")
	page := pageWith(map[string][]browser.Element{"div.custom": {el}})

	loc := NewLocator(nil, failingStrategy{}, SelectorStrategy{Label: "custom", Selector: "div.custom"})
	panel, name, err := loc.Locate(context.Background(), page)
	require.NoError(t, err)
	assert.Same(t, el, panel)
	assert.Equal(t, "custom", name)
}

func TestLocateHonorsCancellation(t *testing.T) {
	page := pageWith(map[string][]browser.Element{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewLocator(nil).Locate(ctx, page)
	assert.ErrorIs(t, err, context.Canceled)
}
