package ident

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestLoad_NotFound(t *testing.T) {
	t.Parallel()

	repository := NewRepository(filepath.Join(t.TempDir(), "shipkit-project.yaml"))

	_, err := repository.Load()
	require.ErrorIs(t, err, ErrNotFound)
}

// TestAdvance_StableProjectID verifies the identifier is generated once and
// survives subsequent advances.
func TestAdvance_StableProjectID(t *testing.T) {
	t.Parallel()

	repository := NewRepository(filepath.Join(t.TempDir(), "shipkit-project.yaml"))

	first, err := repository.Advance("app", "1.0.0")
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(first.ProjectID))
	require.Equal(t, "app", first.App)
	require.Equal(t, "1.0.0", first.Version)
	require.False(t, first.UpdatedAt.IsZero())

	second, err := repository.Advance("app", "1.1.0")
	require.NoError(t, err)
	require.Equal(t, first.ProjectID, second.ProjectID)
	require.Equal(t, "1.1.0", second.Version)

	loaded, err := repository.Load()
	require.NoError(t, err)
	require.Equal(t, first.ProjectID, loaded.ProjectID)
	require.Equal(t, "1.1.0", loaded.Version)
}
