// Package scraper runs a complete followers collection against one target.
//
// A run has three phases:
//
//   - Collection: the followers dialog is opened on the target's profile,
//     its scrollable panel is located and scrolled until the collector
//     reports a stop reason.
//   - Resolution: every collected account's profile is visited to read its
//     own follower count, over one or more tabs.
//   - Export: identifiers are paired with their counts in collection order
//     and written to the configured output, with a JSON run summary beside it.
//
// Progress is checkpointed after collection and after every resolved
// account, so an interrupted run can continue with RunOptions.Resume.
//
// Usage:
//
//	cfg, _ := config.Load("", nil)
//	s := scraper.New(cfg, scraper.ChromeLauncher(cfg), logger.GetLogger())
//	summary, err := s.Run(ctx, "natgeo", scraper.RunOptions{})
package scraper
