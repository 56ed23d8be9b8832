package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectActor verifies actor detection returns host and user information.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	actor, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, actor.Hostname)
	require.NotEmpty(t, actor.Username)
}
