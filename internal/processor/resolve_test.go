package processor

import (
	"testing"

	"github.com/coderunr/judge/internal/config"
	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestResolveLimitsUsesDefaultsWhenNil(t *testing.T) {
	defaults := config.SandboxDefaults{
		CPUTimeLimit:  5,
		MemoryLimit:   256000,
		NumberOfRuns:  1,
	}
	resolved := ResolveLimits(types.Limits{}, defaults)
	assert.Equal(t, 5.0, resolved.CPUTimeLimit)
	assert.Equal(t, int64(256000), resolved.MemoryLimit)
	assert.Equal(t, 1, resolved.NumberOfRuns)
}

func TestResolveLimitsPrefersSubmissionOverride(t *testing.T) {
	defaults := config.SandboxDefaults{CPUTimeLimit: 5, NumberOfRuns: 1}
	override := 9.5
	runs := 3
	resolved := ResolveLimits(types.Limits{CPUTimeLimit: &override, NumberOfRuns: &runs}, defaults)
	assert.Equal(t, 9.5, resolved.CPUTimeLimit)
	assert.Equal(t, 3, resolved.NumberOfRuns)
}

func TestResolveLimitsFloorsNumberOfRuns(t *testing.T) {
	defaults := config.SandboxDefaults{NumberOfRuns: 0}
	resolved := ResolveLimits(types.Limits{}, defaults)
	assert.Equal(t, 1, resolved.NumberOfRuns)
}
