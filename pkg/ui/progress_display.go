package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"igfollowers/pkg/metadata"
	"igfollowers/pkg/models"
)

// ProgressDisplay prints collection and resolution progress. It satisfies
// the collector and resolver observer interfaces.
type ProgressDisplay struct {
	mu         sync.Mutex
	out        io.Writer
	target     string
	collection *StatusTracker
	resolution *StatusTracker
	unresolved int
	inline     bool
}

// NewProgressDisplay creates a display for target writing to w. A nil w
// uses the terminal output.
func NewProgressDisplay(target string, w io.Writer) *ProgressDisplay {
	if w == nil {
		mu.Lock()
		w = out
		mu.Unlock()
	}
	return &ProgressDisplay{out: w, target: target}
}

// CollectionProgress redraws the collection line after each scroll cycle
func (p *ProgressDisplay) CollectionProgress(discovered, max, stagnant int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.collection == nil {
		p.collection = NewStatusTracker(max)
	}
	p.collection.Done = discovered

	if IsQuiet() {
		return
	}

	line := fmt.Sprintf("%s [%s] %d/%d followers",
		Cyan("@"+p.target),
		p.collection.Bar(20),
		discovered,
		max,
	)
	if stagnant > 0 {
		line += " • " + Yellow(fmt.Sprintf("%d idle scrolls", stagnant))
	}

	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 100), line)
	p.inline = true
}

// ResolutionProgress prints one "i/n - user: count" line per identifier
func (p *ProgressDisplay) ResolutionProgress(done, total int, result models.AttributeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.resolution == nil {
		p.resolution = NewStatusTracker(total)
	}
	p.resolution.Done = done
	if !result.Resolved() {
		p.unresolved++
	}

	if IsQuiet() {
		return
	}
	p.endLine()

	count := Dim("none")
	if result.Resolved() {
		count = Green(strconv.FormatInt(*result.Followers, 10))
	}
	fmt.Fprintf(p.out, "%d/%d - %s: %s %s\n", done, total, result.Identifier, count, Dim("eta "+p.resolution.ETA()))
}

// Complete prints the end-of-run summary
func (p *ProgressDisplay) Complete(s *metadata.RunSummary, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if IsQuiet() {
		return
	}
	p.endLine()

	fmt.Fprintf(p.out, "\n%s Collected %d followers of @%s (%s)\n",
		Green("✓"), s.Collected, s.Target, s.StopReason)
	fmt.Fprintf(p.out, "  %s %d resolved, %d without a count, in %s\n",
		Dim("•"), s.Resolved, s.Unresolved, formatDuration(s.Duration()))
	if output != "" {
		fmt.Fprintf(p.out, "  %s saved to %s\n", Dim("•"), output)
	}
}

// endLine terminates a pending carriage-return line
func (p *ProgressDisplay) endLine() {
	if p.inline {
		fmt.Fprintln(p.out)
		p.inline = false
	}
}
