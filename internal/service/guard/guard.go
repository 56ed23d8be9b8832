package guard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/okravets/shipkit/internal/logger"
)

const (
	// markerSuffix is appended to the staging directory path to form the marker.
	// The marker lives next to the directory, not inside it, so the
	// reset-before-write step cannot destroy its own lock.
	markerSuffix = ".shipkit.lock"

	// markerLifetime is the period after which a marker is considered stale
	// and eligible for reclaim if its owning process is gone.
	markerLifetime = 30 * time.Minute
)

// ErrStagingBusy indicates another packaging process owns the staging directory.
var ErrStagingBusy = errors.New("staging directory is in use by another process")

// Acquire claims exclusive ownership of a staging directory before its
// destructive reset. It returns a release function that must be called when
// packaging finishes. A stale marker left by a crashed run is reclaimed once
// the owning process is confirmed dead.
func Acquire(ctx context.Context, dir string) (func(), error) {
	markerPath := dir + markerSuffix

	info, err := os.Stat(markerPath)
	if err == nil {
		if time.Since(info.ModTime()) <= markerLifetime && ownerAlive(markerPath) {
			return nil, fmt.Errorf("%s: %w", dir, ErrStagingBusy)
		}

		if ownerAlive(markerPath) {
			// Stale by age but the owner still runs; do not steal the lock.
			return nil, fmt.Errorf("%s: %w", dir, ErrStagingBusy)
		}

		logger.InfoKV(ctx, "Reclaiming stale staging marker", "path", markerPath)

		if err = os.Remove(markerPath); err != nil {
			return nil, fmt.Errorf("reclaim marker: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat marker: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(markerPath), 0o755); err != nil {
		return nil, fmt.Errorf("create marker directory: %w", err)
	}

	pid := strconv.Itoa(os.Getpid())
	if err = os.WriteFile(markerPath, []byte(pid), 0o600); err != nil {
		return nil, fmt.Errorf("write marker: %w", err)
	}

	release := func() {
		_ = os.Remove(markerPath)
	}

	return release, nil
}

// ownerAlive reports whether the process recorded in the marker still exists.
// Unreadable or malformed markers are treated as dead owners.
func ownerAlive(markerPath string) bool {
	contents, err := os.ReadFile(filepath.Clean(markerPath))
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return false
	}

	if pid == os.Getpid() {
		// Our own marker from an earlier phase of this invocation.
		return false
	}

	process, err := ps.FindProcess(pid)
	if err != nil {
		// Process listing failed; err on the safe side and treat as alive.
		return true
	}

	return process != nil
}
