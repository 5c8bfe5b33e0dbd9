// Package logger provides the structured logging interface used across igfollowers.
//
// It wraps zerolog. Console output goes to stderr so that stdout stays free
// for command output, and an optional file receives JSON lines.
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.WithRunID(logger.GetLogger(), runID)
//	log.InfoWithFields("Panel located", map[string]interface{}{
//	    "strategy": "dialog-overflow",
//	})
//
// Tests use NewTestLogger to capture and assert on messages, or
// NewNopLogger to discard them.
package logger
