package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
)

// StatusTracker measures progress of one phase against a total
type StatusTracker struct {
	Done      int
	Total     int
	StartTime time.Time
	now       func() time.Time
}

// NewStatusTracker creates a tracker for total items
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{Total: total, StartTime: time.Now(), now: time.Now}
}

// Bar renders a fixed width progress bar
func (st *StatusTracker) Bar(width int) string {
	filled := 0
	if st.Total > 0 {
		filled = st.Done * width / st.Total
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, width-filled)
}

// Elapsed returns the time since tracking started
func (st *StatusTracker) Elapsed() time.Duration {
	return st.now().Sub(st.StartTime)
}

// Rate returns items per minute
func (st *StatusTracker) Rate() float64 {
	elapsed := st.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Done) / elapsed
}

// ETA estimates time remaining
func (st *StatusTracker) ETA() string {
	if st.Done == 0 || st.Total <= st.Done {
		return "calculating..."
	}

	perItem := st.Elapsed() / time.Duration(st.Done)
	return formatDuration(perItem * time.Duration(st.Total-st.Done))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
