package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"igfollowers/pkg/metadata"
	"igfollowers/pkg/models"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetNoColor(true)
	t.Cleanup(func() {
		SetOutput(nil)
		SetNoColor(false)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintFunctions(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Target", "natgeo")
	PrintWarning("Slow down", "rate limited")
	PrintSuccess("done")
	PrintError("failed", "boom")

	assert.Equal(t, "Target: natgeo\nSlow down: rate limited\ndone\nfailed: boom\n", buf.String())
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := captureOutput(t)
	SetQuietMode(true)

	PrintInfo("Target", "natgeo")
	PrintHighlight("hello")
	PrintError("failed")

	assert.Equal(t, "failed\n", buf.String())
}

func TestColorize(t *testing.T) {
	SetNoColor(false)
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	SetNoColor(true)
	defer SetNoColor(false)
	assert.Equal(t, "ok", Green("ok"))
}

func TestResolutionProgressLines(t *testing.T) {
	buf := captureOutput(t)
	display := NewProgressDisplay("natgeo", buf)

	display.ResolutionProgress(1, 2, models.AttributeResult{Identifier: "alice", Followers: models.Count(42)})
	display.ResolutionProgress(2, 2, models.AttributeResult{Identifier: "bob"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "1/2 - alice: 42"))
	assert.True(t, strings.HasPrefix(lines[1], "2/2 - bob: none"))
}

func TestCollectionProgressThenResolution(t *testing.T) {
	buf := captureOutput(t)
	display := NewProgressDisplay("natgeo", buf)

	display.CollectionProgress(10, 100, 0)
	display.CollectionProgress(20, 100, 2)
	assert.Contains(t, buf.String(), "20/100 followers")
	assert.Contains(t, buf.String(), "2 idle scrolls")

	display.ResolutionProgress(1, 20, models.AttributeResult{Identifier: "alice", Followers: models.Count(1)})
	// the inline collection line is terminated before the first resolution line
	assert.Contains(t, buf.String(), "2 idle scrolls\n1/20 - alice: 1")
}

func TestComplete(t *testing.T) {
	buf := captureOutput(t)
	display := NewProgressDisplay("natgeo", buf)

	s := metadata.NewRunSummary("run", "natgeo", 100)
	s.Collected = 3
	s.Resolved = 2
	s.Unresolved = 1
	s.StopReason = "stagnated"
	s.FinishedAt = s.StartedAt.Add(90 * time.Second)

	display.Complete(s, "followers.xlsx")

	out := buf.String()
	assert.Contains(t, out, "Collected 3 followers of @natgeo (stagnated)")
	assert.Contains(t, out, "2 resolved, 1 without a count, in 1m30s")
	assert.Contains(t, out, "saved to followers.xlsx")
}

func TestStatusTracker(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker := &StatusTracker{Total: 10, StartTime: start, now: func() time.Time { return start.Add(time.Minute) }}

	assert.Equal(t, "calculating...", tracker.ETA())
	assert.Equal(t, strings.Repeat(ProgressEmpty, 10), tracker.Bar(10))

	tracker.Done = 5
	assert.Equal(t, strings.Repeat(ProgressBar, 5)+strings.Repeat(ProgressEmpty, 5), tracker.Bar(10))
	assert.InDelta(t, 5.0, tracker.Rate(), 0.001)
	assert.Equal(t, "1m0s", tracker.ETA())
}

type recordingSender struct {
	titles []string
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	sender := &recordingSender{}
	n := NewNotifierWithSender(sender)

	n.SendSuccess("Collection finished", "3 followers")
	n.SendError("Collection failed", "panel not found")

	assert.Equal(t, []string{"Collection finished", "Collection failed"}, sender.titles)
	assert.Contains(t, buf.String(), "Collection finished: 3 followers")

	// console only
	NewNotifier(false).SendSuccess("x", "y")
}
