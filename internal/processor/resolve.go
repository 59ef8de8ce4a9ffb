// Package processor is the Submission Processor (spec.md section 4.2):
// it claims a dequeued submission, resolves its execution limits, drives
// the Sandbox Driver through an optional compile stage and N execution
// runs, and persists the terminal result. Grounded on
// original_source/worker/app/services/submission_processing_service.py's
// process/_build_sandbox_config/_execute_multiple_runs and on
// hellobyte-dev-coderunr/api/internal/job/job.go's Execute.
package processor

import (
	"github.com/coderunr/judge/internal/config"
	"github.com/coderunr/judge/internal/types"
)

// ResolveLimits fills every nil field of limits from defaults — the
// three-valued config resolution in spec.md section 9, ported from
// _build_sandbox_config's `submission_data.get(...) or settings....`
// chain (Go has no falsy-int/float shortcut, so each field is checked
// for nil explicitly rather than relying on zero-value truthiness).
func ResolveLimits(limits types.Limits, defaults config.SandboxDefaults) types.ResolvedLimits {
	resolved := types.ResolvedLimits{
		CPUTimeLimit:                       defaults.CPUTimeLimit,
		CPUExtraTime:                       defaults.CPUExtraTime,
		WallTimeLimit:                      defaults.WallTimeLimit,
		MemoryLimit:                        defaults.MemoryLimit,
		MaxProcessesAndOrThreads:           defaults.MaxProcessesAndOrThreads,
		MaxFileSize:                        defaults.MaxFileSize,
		NumberOfRuns:                       defaults.NumberOfRuns,
		EnablePerProcessAndThreadTimeLimit: defaults.EnablePerProcessAndThreadTimeLimit,
		EnablePerProcessAndThreadMemory:    defaults.EnablePerProcessAndThreadMemory,
		RedirectStderrToStdout:             defaults.RedirectStderrToStdout,
		EnableNetwork:                      defaults.EnableNetwork,
	}

	if limits.CPUTimeLimit != nil {
		resolved.CPUTimeLimit = *limits.CPUTimeLimit
	}
	if limits.CPUExtraTime != nil {
		resolved.CPUExtraTime = *limits.CPUExtraTime
	}
	if limits.WallTimeLimit != nil {
		resolved.WallTimeLimit = *limits.WallTimeLimit
	}
	if limits.MemoryLimit != nil {
		resolved.MemoryLimit = *limits.MemoryLimit
	}
	if limits.MaxProcessesAndOrThreads != nil {
		resolved.MaxProcessesAndOrThreads = *limits.MaxProcessesAndOrThreads
	}
	if limits.MaxFileSize != nil {
		resolved.MaxFileSize = *limits.MaxFileSize
	}
	if limits.NumberOfRuns != nil {
		resolved.NumberOfRuns = *limits.NumberOfRuns
	}
	if limits.EnablePerProcessAndThreadTimeLimit != nil {
		resolved.EnablePerProcessAndThreadTimeLimit = *limits.EnablePerProcessAndThreadTimeLimit
	}
	if limits.EnablePerProcessAndThreadMemory != nil {
		resolved.EnablePerProcessAndThreadMemory = *limits.EnablePerProcessAndThreadMemory
	}
	if limits.RedirectStderrToStdout != nil {
		resolved.RedirectStderrToStdout = *limits.RedirectStderrToStdout
	}
	if limits.EnableNetwork != nil {
		resolved.EnableNetwork = *limits.EnableNetwork
	}
	if resolved.NumberOfRuns <= 0 {
		resolved.NumberOfRuns = 1
	}

	return resolved
}
