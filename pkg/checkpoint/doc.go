// Package checkpoint saves and resumes collection runs.
//
// A checkpoint records the identifiers collected from the followers panel,
// whether collection finished, and every follower count resolved so far. A
// resumed run skips a finished collection and only visits profiles that
// still lack a count.
//
// Checkpoints live under the XDG data directory
// (~/.local/share/igfollowers/checkpoints on Linux) and are written atomically.
package checkpoint
