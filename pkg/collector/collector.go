package collector

import (
	"context"
	"strings"
	"time"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/instagram"
	"igfollowers/pkg/logger"
)

// DefaultStagnationLimit is the number of consecutive no-growth cycles
// after which the panel is considered exhausted
const DefaultStagnationLimit = 6

// StopReason tells why a collection ended
type StopReason string

const (
	StopMaxReached   StopReason = "max_reached"
	StopStagnated    StopReason = "stagnated"
	StopScrollFailed StopReason = "scroll_failed"
	StopCancelled    StopReason = "cancelled"
)

// Outcome classifies one rendered row
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicate
	OutcomeEmpty
	OutcomeReserved
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeEmpty:
		return "empty"
	case OutcomeReserved:
		return "reserved"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer receives progress after every cycle
type Observer interface {
	CollectionProgress(discovered, max, stagnant int)
}

// Options configures a Collector
type Options struct {
	StagnationLimit int
	RowSelector     string
	ReservedMarker  string
	Delay           DelayPolicy
	Scroll          ScrollPolicy
	// Sleep defaults to browser.Sleep
	Sleep func(ctx context.Context, d time.Duration) error
	// Known seeds the collection, in order, when resuming
	Known    []string
	Observer Observer
}

// DefaultOptions returns options tuned like a person browsing the list
func DefaultOptions() Options {
	j := NewJitter(uint64(time.Now().UnixNano()))
	return Options{
		StagnationLimit: DefaultStagnationLimit,
		RowSelector:     instagram.FollowerRowSelector,
		ReservedMarker:  instagram.ReservedMarker,
		Delay:           RandomDelay(1200*time.Millisecond, 2400*time.Millisecond, j),
		Scroll:          RandomScroll(500, 800, j),
	}
}

// Collection is the result of a collect run. Identifiers are in discovery order.
type Collection struct {
	Identifiers []string
	Cycles      int
	Stop        StopReason
	Outcomes    map[Outcome]int
}

// Collector drives scroll and extract cycles over a followers panel
type Collector struct {
	opts   Options
	logger logger.Logger
}

// New creates a Collector, filling unset options from DefaultOptions
func New(opts Options, log logger.Logger) *Collector {
	def := DefaultOptions()
	if opts.StagnationLimit <= 0 {
		opts.StagnationLimit = def.StagnationLimit
	}
	if opts.RowSelector == "" {
		opts.RowSelector = def.RowSelector
	}
	if opts.ReservedMarker == "" {
		opts.ReservedMarker = def.ReservedMarker
	}
	if opts.Delay == nil {
		opts.Delay = def.Delay
	}
	if opts.Scroll == nil {
		opts.Scroll = def.Scroll
	}
	if opts.Sleep == nil {
		opts.Sleep = browser.Sleep
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Collector{opts: opts, logger: log}
}

// Collect gathers up to max unique identifiers from panel.
//
// It stops when max is reached, when StagnationLimit consecutive cycles add
// nothing, or when a scroll gesture fails. A failed scroll is not an error:
// the identifiers found so far are returned. On cancellation the partial
// collection is returned together with ctx.Err().
func (c *Collector) Collect(ctx context.Context, panel browser.Element, max int) (*Collection, error) {
	capHint := min(max, 1024)
	if capHint < 0 {
		capHint = 0
	}
	coll := &Collection{
		Identifiers: make([]string, 0, capHint),
		Outcomes:    make(map[Outcome]int),
	}
	seen := make(map[string]struct{}, len(c.opts.Known))
	for _, id := range c.opts.Known {
		if len(coll.Identifiers) >= max {
			break
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		coll.Identifiers = append(coll.Identifiers, id)
	}

	stagnant := 0
	for len(coll.Identifiers) < max {
		if err := ctx.Err(); err != nil {
			coll.Stop = StopCancelled
			return coll, err
		}

		coll.Cycles++
		before := len(coll.Identifiers)

		rows, err := panel.QueryAll(ctx, c.opts.RowSelector)
		if err != nil {
			if ctx.Err() != nil {
				coll.Stop = StopCancelled
				return coll, ctx.Err()
			}
			// rows may be mid re-render; the cycle counts as stagnant
			c.logger.WithError(err).Debug("Row query failed")
		}

		for _, row := range rows {
			if len(coll.Identifiers) >= max {
				break
			}
			id, outcome := c.extract(ctx, row)
			if outcome == OutcomeAccepted {
				if _, dup := seen[id]; dup {
					outcome = OutcomeDuplicate
				} else {
					seen[id] = struct{}{}
					coll.Identifiers = append(coll.Identifiers, id)
				}
			}
			coll.Outcomes[outcome]++
		}

		state := CycleState{
			Cycle:     coll.Cycles,
			Collected: len(coll.Identifiers),
			Stagnant:  stagnant,
			Max:       max,
		}

		if len(coll.Identifiers) >= max {
			c.report(state)
			break
		}

		if err := panel.ScrollBy(ctx, c.opts.Scroll(state)); err != nil {
			if ctx.Err() != nil {
				coll.Stop = StopCancelled
				return coll, ctx.Err()
			}
			c.logger.WithError(err).WarnWithFields("Scroll failed, keeping partial collection", map[string]interface{}{
				"collected": len(coll.Identifiers),
				"cycle":     coll.Cycles,
			})
			coll.Stop = StopScrollFailed
			return coll, nil
		}

		if err := c.opts.Sleep(ctx, c.opts.Delay(state)); err != nil {
			coll.Stop = StopCancelled
			return coll, err
		}

		if len(coll.Identifiers) == before {
			stagnant++
		} else {
			stagnant = 0
		}
		state.Stagnant = stagnant
		c.report(state)

		if stagnant >= c.opts.StagnationLimit {
			coll.Stop = StopStagnated
			c.logger.InfoWithFields("Panel stopped yielding new entries", map[string]interface{}{
				"collected": len(coll.Identifiers),
				"cycles":    coll.Cycles,
			})
			return coll, nil
		}
	}

	coll.Stop = StopMaxReached
	return coll, nil
}

// extract reads one row and classifies it. Read failures skip the row.
func (c *Collector) extract(ctx context.Context, row browser.Element) (string, Outcome) {
	text, err := row.Text(ctx)
	if err != nil {
		c.logger.WithError(err).Debug("Skipping unreadable row")
		return "", OutcomeFailed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", OutcomeEmpty
	}
	if strings.HasPrefix(text, c.opts.ReservedMarker) {
		return "", OutcomeReserved
	}
	return text, OutcomeAccepted
}

func (c *Collector) report(state CycleState) {
	logger.LogCycle(c.logger, state.Cycle, state.Collected, state.Stagnant)
	if c.opts.Observer != nil {
		c.opts.Observer.CollectionProgress(state.Collected, state.Max, state.Stagnant)
	}
}
