package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindNavigationTimeout, "goto", "https://www.instagram.com/alice/", context.DeadlineExceeded)
	assert.Equal(t, "goto: navigation_timeout (https://www.instagram.com/alice/): context deadline exceeded", err.Error())

	bare := &Error{Kind: KindPanelNotFound}
	assert.Equal(t, "panel_not_found", bare.Error())
}

func TestErrorsIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("collect: %w", New(KindPanelNotFound, "locate", "", nil))

	assert.True(t, errors.Is(wrapped, ErrPanelNotFound))
	assert.False(t, errors.Is(wrapped, ErrScrollGesture))
	assert.Equal(t, KindPanelNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindPanelNotFound))
}

func TestUnwrapReachesCause(t *testing.T) {
	err := New(KindNavigationTimeout, "goto", "x", context.DeadlineExceeded)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindUnknown))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindNavigationTimeout, true},
		{KindNavigation, true},
		{KindDialogUnavailable, true},
		{KindPanelNotFound, false},
		{KindLogin, false},
		{KindMissingCredentials, false},
		{KindScrollGesture, false},
		{KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.kind))
		})
	}
}
