package logger

import (
	"context"

	"github.com/rs/zerolog"
)

// WithRunID tags every event of a collection run
func WithRunID(l Logger, runID string) Logger {
	return l.WithField("run_id", runID)
}

// LogCycle logs one extract/scroll/pause cycle of the followers panel
func LogCycle(l Logger, cycle, collected, stagnant int) {
	l.DebugWithFields("Collection cycle", map[string]interface{}{
		"cycle":     cycle,
		"collected": collected,
		"stagnant":  stagnant,
	})
}

// LogResolution logs the outcome of one follower count lookup
func LogResolution(l Logger, identifier string, followers *int64, strategy string) {
	fields := map[string]interface{}{
		"identifier": identifier,
		"strategy":   strategy,
	}
	if followers == nil {
		l.WarnWithFields("Follower count unavailable", fields)
		return
	}
	fields["followers"] = *followers
	l.InfoWithFields("Follower count resolved", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l = l.WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
