package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	errs "igfollowers/pkg/errors"
)

// Options configures the Chrome process
type Options struct {
	Headless     bool
	ExecPath     string
	UserDataDir  string
	UserAgent    string
	Locale       string
	WindowWidth  int
	WindowHeight int
}

// BuildAllocatorOptions turns Options into chromedp allocator flags
func BuildAllocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Locale != "" {
		allocOpts = append(allocOpts, chromedp.Flag("lang", opts.Locale))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	return allocOpts
}

// Chrome is a running browser process driven over the DevTools protocol
type Chrome struct {
	opts          Options
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

// Launch starts Chrome. The returned Chrome must be closed.
func Launch(ctx context.Context, opts Options) (*Chrome, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, BuildAllocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// first Run starts the process and attaches to the initial tab
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &Chrome{
		opts:          opts,
		browserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
	}, nil
}

// NewPage opens a new tab sharing the browser's cookie jar
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(c.browserCtx)

	var setup []chromedp.Action
	if c.opts.Locale != "" {
		setup = append(setup, emulation.SetLocaleOverride().WithLocale(c.opts.Locale))
	}
	if err := runWith(ctx, tabCtx, 0, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	return &chromePage{tab: tabCtx, close: cancel}, nil
}

// Cookies returns every cookie the browser holds, whichever tab set it.
// Network.getCookies would only cover the first tab's URL.
func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := runWith(ctx, c.browserCtx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite.String(),
		})
	}
	return cookies, nil
}

// SetCookies loads cookies into the browser
func (c *Chrome) SetCookies(ctx context.Context, cookies []Cookie) error {
	return runWith(ctx, c.browserCtx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, ck := range cookies {
			params := network.SetCookie(ck.Name, ck.Value).
				WithDomain(ck.Domain).
				WithPath(ck.Path).
				WithSecure(ck.Secure).
				WithHTTPOnly(ck.HTTPOnly)
			if ck.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
				params = params.WithExpires(&expires)
			}
			if ck.SameSite != "" {
				params = params.WithSameSite(network.CookieSameSite(ck.SameSite))
			}
			if err := params.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", ck.Name, err)
			}
		}
		return nil
	}))
}

// Close terminates the browser process
func (c *Chrome) Close() error {
	c.browserCancel()
	c.allocCancel()
	return nil
}

// runWith executes actions on target while honoring the caller's ctx.
// chromedp needs its own context for target lookup, so the caller's
// cancellation is bridged onto a child of target.
func runWith(ctx, target context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(target, timeout)
	} else {
		runCtx, cancel = context.WithCancel(target)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

type chromePage struct {
	tab   context.Context
	close context.CancelFunc
}

func (p *chromePage) Goto(ctx context.Context, url string, timeout time.Duration) error {
	err := runWith(ctx, p.tab, timeout, chromedp.Navigate(url))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return errs.New(errs.KindNavigationTimeout, "goto", url, err)
	}
	if ctx.Err() != nil {
		return err
	}
	return errs.New(errs.KindNavigation, "goto", url, err)
}

func (p *chromePage) Query(ctx context.Context, selector string) (Element, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, ErrNotFound
	}
	return elements[0], nil
}

func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := runWith(ctx, p.tab, 0,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	return p.wrap(nodes), nil
}

func (p *chromePage) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	err := runWith(ctx, p.tab, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return errs.New(errs.KindNavigationTimeout, "wait", selector, err)
	}
	return err
}

func (p *chromePage) Markup(ctx context.Context) (string, error) {
	var html string
	if err := runWith(ctx, p.tab, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read markup: %w", err)
	}
	return html, nil
}

func (p *chromePage) Fill(ctx context.Context, selector, value string) error {
	return runWith(ctx, p.tab, 0, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (p *chromePage) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Close closes the tab
func (p *chromePage) Close() error {
	p.close()
	return nil
}

func (p *chromePage) wrap(nodes []*cdp.Node) []Element {
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{page: p, node: n})
	}
	return elements
}

type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := runWith(ctx, e.page.tab, 0,
		chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID),
	)
	if err != nil {
		return "", errs.New(errs.KindElementExtraction, "text", "", err)
	}
	return text, nil
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := runWith(ctx, e.page.tab, 0,
		chromedp.AttributeValue([]cdp.NodeID{e.node.NodeID}, name, &value, &ok, chromedp.ByNodeID),
	)
	if err != nil {
		return "", false, errs.New(errs.KindElementExtraction, "attribute", name, err)
	}
	return value, ok, nil
}

func (e *chromeElement) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	err := runWith(ctx, e.page.tab, 0,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", selector, err)
	}
	return e.page.wrap(nodes), nil
}

// ScrollBy moves the pointer to the element's center and spins the wheel
// there, the same gesture a person uses on a nested scroll region
func (e *chromeElement) ScrollBy(ctx context.Context, deltaY float64) error {
	err := runWith(ctx, e.page.tab, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		box, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return err
		}
		x, y := center(box.Content)
		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(0).
			WithDeltaY(deltaY).
			Do(ctx)
	}))
	if err != nil {
		return errs.New(errs.KindScrollGesture, "scroll", "", err)
	}
	return nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	return runWith(ctx, e.page.tab, 0, chromedp.MouseClickNode(e.node))
}

// center returns the midpoint of a content quad (x1,y1 .. x4,y4)
func center(q dom.Quad) (float64, float64) {
	if len(q) < 8 {
		return 0, 0
	}
	var x, y float64
	for i := 0; i < 8; i += 2 {
		x += q[i]
		y += q[i+1]
	}
	return x / 4, y / 4
}

var (
	_ Context = (*Chrome)(nil)
	_ Page    = (*chromePage)(nil)
	_ Element = (*chromeElement)(nil)
)
