// Package browsertest provides in-memory doubles for the browser interfaces.
// Pages never wait in real time: Sleep records the requested duration and
// returns immediately.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"igfollowers/pkg/browser"
	errs "igfollowers/pkg/errors"
)

// Element is a scripted DOM node
type Element struct {
	mu sync.Mutex

	TextValue string
	TextErr   error
	Attrs     map[string]string
	Children  map[string][]browser.Element
	ClickErr  error
	OnClick   func()
	ScrollErr error

	Clicks  int
	Scrolls []float64
}

// NewElement returns an element with the given text
func NewElement(text string) *Element {
	return &Element{TextValue: text}
}

// NewMeta returns a <meta> element carrying content
func NewMeta(content string) *Element {
	return &Element{Attrs: map[string]string{"content": content}}
}

func (e *Element) Text(ctx context.Context) (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.TextValue, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.Children[selector], nil
}

func (e *Element) ScrollBy(ctx context.Context, deltaY float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ScrollErr != nil {
		return e.ScrollErr
	}
	e.Scrolls = append(e.Scrolls, deltaY)
	return nil
}

func (e *Element) Click(ctx context.Context) error {
	e.mu.Lock()
	e.Clicks++
	e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

// Panel simulates a virtualized list: each scroll reveals the next frame
// of rows, and the last frame repeats once the script runs out
type Panel struct {
	mu sync.Mutex

	Frames [][]string
	// FailScrollAt makes the nth scroll (1-based) fail; 0 never fails
	FailScrollAt int
	// BrokenRows have unreadable text
	BrokenRows map[string]bool

	Scrolls int
	Deltas  []float64
	Queries int
}

// NewPanel returns a panel revealing frames in order
func NewPanel(frames ...[]string) *Panel {
	return &Panel{Frames: frames}
}

func (p *Panel) frame() []string {
	if len(p.Frames) == 0 {
		return nil
	}
	if p.Scrolls >= len(p.Frames) {
		return p.Frames[len(p.Frames)-1]
	}
	return p.Frames[p.Scrolls]
}

func (p *Panel) Text(ctx context.Context) (string, error) {
	return "", nil
}

func (p *Panel) Attribute(ctx context.Context, name string) (string, bool, error) {
	return "", false, nil
}

// QueryAll returns the rows of the current frame regardless of selector
func (p *Panel) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Queries++

	rows := p.frame()
	elements := make([]browser.Element, 0, len(rows))
	for _, row := range rows {
		el := &Element{TextValue: row}
		if p.BrokenRows[row] {
			el.TextErr = errs.New(errs.KindElementExtraction, "text", row, fmt.Errorf("node detached"))
		}
		elements = append(elements, el)
	}
	return elements, nil
}

func (p *Panel) ScrollBy(ctx context.Context, deltaY float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailScrollAt > 0 && len(p.Deltas)+1 == p.FailScrollAt {
		return errs.New(errs.KindScrollGesture, "scroll", "", fmt.Errorf("panel detached"))
	}
	p.Deltas = append(p.Deltas, deltaY)
	p.Scrolls++
	return nil
}

func (p *Panel) Click(ctx context.Context) error {
	return nil
}

// ScrollCount returns how many scrolls were dispatched successfully
func (p *Panel) ScrollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Deltas)
}

// Document is the scripted content served for one URL
type Document struct {
	// Elements maps a selector to the elements it matches
	Elements map[string][]browser.Element
	HTML     string
	// GotoErr is returned when navigating to this document
	GotoErr error
}

// Site maps URLs to documents
type Site map[string]*Document

// Page is a fake tab over a Site
type Page struct {
	mu sync.Mutex

	Site    Site
	Current *Document

	Visited []string
	Filled  map[string]string
	Slept   []time.Duration
	Closed  bool
}

// NewPage returns a page serving site
func NewPage(site Site) *Page {
	return &Page{Site: site, Filled: make(map[string]string)}
}

// Goto switches to the document registered for url. Unknown URLs behave
// like a navigation that never finishes.
func (p *Page) Goto(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Visited = append(p.Visited, url)

	doc, ok := p.Site[url]
	if !ok {
		p.Current = nil
		return errs.New(errs.KindNavigationTimeout, "goto", url, context.DeadlineExceeded)
	}
	if doc.GotoErr != nil {
		p.Current = nil
		return doc.GotoErr
	}
	p.Current = doc
	return nil
}

func (p *Page) Query(ctx context.Context, selector string) (browser.Element, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elements) == 0 {
		return nil, browser.ErrNotFound
	}
	return elements[0], nil
}

func (p *Page) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Current == nil {
		return nil, nil
	}
	return p.Current.Elements[selector], nil
}

// WaitFor succeeds at once when selector matches, otherwise it reports a timeout
func (p *Page) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	elements, _ := p.QueryAll(ctx, selector)
	if len(elements) == 0 {
		return errs.New(errs.KindNavigationTimeout, "wait", selector, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) Markup(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Current == nil {
		return "", nil
	}
	return p.Current.HTML, nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Current == nil || len(p.Current.Elements[selector]) == 0 {
		return fmt.Errorf("fill %q: %w", selector, browser.ErrNotFound)
	}
	p.Filled[selector] = value
	return nil
}

func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	p.mu.Lock()
	p.Slept = append(p.Slept, d)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// VisitedURLs returns a copy of the navigation history
func (p *Page) VisitedURLs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Visited...)
}

// Context is a fake browsing context handing out pages over one Site
type Context struct {
	mu sync.Mutex

	Site      Site
	Jar       []browser.Cookie
	CookieErr error
	Pages     []*Page
	Closed    bool
}

// NewContext returns a context serving site
func NewContext(site Site) *Context {
	return &Context{Site: site}
}

func (c *Context) NewPage(ctx context.Context) (browser.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page := NewPage(c.Site)
	c.Pages = append(c.Pages, page)
	return page, nil
}

func (c *Context) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CookieErr != nil {
		return nil, c.CookieErr
	}
	return append([]browser.Cookie(nil), c.Jar...), nil
}

func (c *Context) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CookieErr != nil {
		return c.CookieErr
	}
	c.Jar = append(c.Jar, cookies...)
	return nil
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

var (
	_ browser.Element = (*Element)(nil)
	_ browser.Element = (*Panel)(nil)
	_ browser.Page    = (*Page)(nil)
	_ browser.Context = (*Context)(nil)
)
