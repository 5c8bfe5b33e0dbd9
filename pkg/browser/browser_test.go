package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/stretchr/testify/assert"
)

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepZero(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestCenter(t *testing.T) {
	x, y := center(dom.Quad{10, 20, 110, 20, 110, 220, 10, 220})
	assert.Equal(t, 60.0, x)
	assert.Equal(t, 120.0, y)

	x, y = center(dom.Quad{1, 2})
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestBuildAllocatorOptions(t *testing.T) {
	base := len(BuildAllocatorOptions(Options{}))

	full := BuildAllocatorOptions(Options{
		Headless:     true,
		ExecPath:     "/usr/bin/chromium",
		UserDataDir:  t.TempDir(),
		UserAgent:    "test-agent",
		Locale:       "en-US",
		WindowWidth:  1280,
		WindowHeight: 900,
	})

	assert.Equal(t, base+5, len(full))
}
