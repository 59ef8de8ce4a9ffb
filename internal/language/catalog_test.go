package language

import (
	"testing"

	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestMatchingPicksGreatestVersion(t *testing.T) {
	languages := []types.Language{
		{Name: "python", Version: "3.9.0"},
		{Name: "python", Version: "3.11.4"},
		{Name: "python", Version: "2.7.18"},
	}

	latest, err := LatestMatching(languages, "python", "")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "3.11.4", latest.Version)
}

func TestLatestMatchingAppliesConstraint(t *testing.T) {
	languages := []types.Language{
		{Name: "python", Version: "3.9.0"},
		{Name: "python", Version: "3.11.4"},
		{Name: "python", Version: "2.7.18"},
	}

	latest, err := LatestMatching(languages, "python", "^2.0.0")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2.7.18", latest.Version)
}

func TestLatestMatchingNoCandidates(t *testing.T) {
	languages := []types.Language{{Name: "python", Version: "3.11.4"}}
	latest, err := LatestMatching(languages, "ruby", "")
	require.NoError(t, err)
	assert.Nil(t, latest)
}
