package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures raised while driving the Instagram web UI
type Kind string

const (
	KindPanelNotFound      Kind = "panel_not_found"
	KindDialogUnavailable  Kind = "dialog_unavailable"
	KindElementExtraction  Kind = "element_extraction"
	KindNavigationTimeout  Kind = "navigation_timeout"
	KindNavigation         Kind = "navigation"
	KindScrollGesture      Kind = "scroll_gesture"
	KindLogin              Kind = "login"
	KindMissingCredentials Kind = "missing_credentials"
	KindExport             Kind = "export"
	KindUnknown            Kind = "unknown"
)

// Sentinels usable with errors.Is against any *Error of the same kind
var (
	ErrPanelNotFound      = &Error{Kind: KindPanelNotFound}
	ErrDialogUnavailable  = &Error{Kind: KindDialogUnavailable}
	ErrElementExtraction  = &Error{Kind: KindElementExtraction}
	ErrNavigationTimeout  = &Error{Kind: KindNavigationTimeout}
	ErrScrollGesture      = &Error{Kind: KindScrollGesture}
	ErrLogin              = &Error{Kind: KindLogin}
	ErrMissingCredentials = &Error{Kind: KindMissingCredentials}
)

// Error represents a classified failure with the operation and target it concerns
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Err    error
}

// New creates a classified error
func New(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Target != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Target)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind checks if err carries the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable checks if an error kind should be retried
func IsRetryable(kind Kind) bool {
	switch kind {
	case KindNavigationTimeout, KindNavigation, KindDialogUnavailable:
		return true
	case KindPanelNotFound, KindLogin, KindMissingCredentials, KindScrollGesture, KindElementExtraction, KindExport:
		return false
	default:
		return false
	}
}
