// Package guard serializes destructive staging-directory resets across
// concurrently running packaging processes with a marker file. Each marker
// records its owner's PID; stale markers from crashed runs are reclaimed
// after the owner is confirmed gone.
package guard
