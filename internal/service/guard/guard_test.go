package guard

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestAcquireRelease verifies the marker is created on acquire and removed on release.
func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "staging")
	ctx := context.Background()

	release, err := Acquire(ctx, dir)
	require.NoError(t, err)

	_, err = os.Stat(dir + markerSuffix)
	require.NoError(t, err)

	release()

	_, err = os.Stat(dir + markerSuffix)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestAcquireReclaimsDeadOwner verifies a marker owned by a nonexistent
// process is reclaimed instead of blocking the run.
func TestAcquireReclaimsDeadOwner(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "staging")
	markerPath := dir + markerSuffix

	require.NoError(t, os.MkdirAll(filepath.Dir(markerPath), 0o755))
	// PID 0 never matches a user process in the process list.
	require.NoError(t, os.WriteFile(markerPath, []byte("0"), 0o600))

	// Backdate the marker so it is stale.
	old := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, os.Chtimes(markerPath, old, old))

	release, err := Acquire(context.Background(), dir)
	require.NoError(t, err)

	release()
}

// TestAcquireOwnMarkerNotBusy verifies re-acquiring our own fresh marker succeeds.
func TestAcquireOwnMarkerNotBusy(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "staging")
	ctx := context.Background()

	release, err := Acquire(ctx, dir)
	require.NoError(t, err)

	defer release()

	// A second acquire in the same process sees its own PID and proceeds.
	releaseAgain, err := Acquire(ctx, dir)
	require.NoError(t, err)

	releaseAgain()
}
