// Package storage writes output files atomically.
//
// Exports, run summaries, checkpoints and session files all go through
// WriteAtomic: data lands in a temporary file in the target directory and is
// renamed into place, so an interrupted run never leaves a truncated file.
package storage
