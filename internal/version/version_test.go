package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())
}

// TestValidateSemver checks strict semver acceptance and rejection.
func TestValidateSemver(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSemver("1.0.0"))
	require.NoError(t, ValidateSemver("2.3.4-rc.1"))
	require.Error(t, ValidateSemver("1.0"))
	require.Error(t, ValidateSemver("v1.0.0"))
	require.Error(t, ValidateSemver("latest"))
}
