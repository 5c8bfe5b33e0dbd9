// Package collector scrolls the followers panel and gathers unique account
// identifiers in the order they first appear.
//
// A Locator finds the scrollable panel inside the followers dialog by trying
// its strategies in order. A Collector then repeats one cycle at a time: read
// the visible rows, record new identifiers, wait a DelayPolicy duration and
// scroll by a ScrollPolicy delta. Collection ends on a StopReason, and the
// identifiers gathered so far are always returned.
//
// Usage:
//
//	panel, layout, err := collector.NewLocator(log).Locate(ctx, page)
//	c := collector.New(collector.DefaultOptions(), log)
//	result, err := c.Collect(ctx, panel, 500)
package collector
