package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Query when no element matches the selector
var ErrNotFound = errors.New("no element matches selector")

// Page is a single rendered tab. Implementations serialize their own calls;
// callers must not share a Page between goroutines.
type Page interface {
	// Goto navigates and waits for the document to load within timeout
	Goto(ctx context.Context, url string, timeout time.Duration) error
	// Query returns the first element matching selector, or ErrNotFound
	Query(ctx context.Context, selector string) (Element, error)
	// QueryAll returns every element currently matching selector
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// WaitFor blocks until selector matches or timeout elapses
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Markup returns the serialized document
	Markup(ctx context.Context) (string, error)
	// Fill types value into the input matched by selector
	Fill(ctx context.Context, selector, value string) error
	// Sleep pauses for d or until ctx is done
	Sleep(ctx context.Context, d time.Duration) error
	// Close releases the tab
	Close() error
}

// Element is a node handle inside a Page
type Element interface {
	Text(ctx context.Context) (string, error)
	// Attribute returns the attribute value and whether it was present
	Attribute(ctx context.Context, name string) (string, bool, error)
	// QueryAll searches the element's subtree
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// ScrollBy hovers the element and dispatches a wheel gesture of deltaY pixels
	ScrollBy(ctx context.Context, deltaY float64) error
	Click(ctx context.Context) error
}

// Cookie is the persisted form of a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Context is an authenticated browsing context that can open tabs and
// export or import its cookie jar
type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Cookies(ctx context.Context) ([]Cookie, error)
	SetCookies(ctx context.Context, cookies []Cookie) error
	Close() error
}

// Sleep waits for d, returning early with ctx.Err() if ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
