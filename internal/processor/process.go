package processor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coderunr/judge/internal/config"
	"github.com/coderunr/judge/internal/sandbox"
	"github.com/coderunr/judge/internal/submission"
	"github.com/coderunr/judge/internal/types"
	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Processor drives one submission through compile-then-run inside a
// Sandbox Driver box and persists the terminal result.
type Processor struct {
	driver   *sandbox.Driver
	repo     *submission.Repository
	defaults config.SandboxDefaults
	logger   *logrus.Entry
}

// New wires a Processor, mirroring SubmissionProcessingService's
// constructor (sandbox_service injected).
func New(driver *sandbox.Driver, repo *submission.Repository, defaults config.SandboxDefaults, logger *logrus.Logger) *Processor {
	return &Processor{
		driver:   driver,
		repo:     repo,
		defaults: defaults,
		logger:   logger.WithField("component", "processor"),
	}
}

// Process claims, executes and finalizes one dequeued Snapshot inside
// the box identified by boxID (assigned by the Worker Runtime via
// sandbox.AllocateSlot). Mirrors SubmissionProcessingService.process's
// try/except/finally shape: any failure after the PROCESSING claim is
// recorded as an ERROR result instead of propagated, and the box is
// always cleaned up.
func (p *Processor) Process(ctx context.Context, snapshot types.Snapshot, boxID int) error {
	sub := snapshot.Submission
	lang := snapshot.Language

	claimed, err := p.repo.ClaimForProcessing(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("claim submission %s: %w", sub.ID, err)
	}
	if !claimed {
		p.logger.WithField("submission_id", sub.ID).Debug("submission already claimed, skipping")
		return nil
	}

	box, err := p.driver.Init(boxID)
	if err != nil {
		return p.failUnexpected(ctx, sub.ID, err)
	}
	defer func() {
		if cleanupErr := p.driver.Cleanup(box); cleanupErr != nil {
			p.logger.WithError(cleanupErr).Warn("sandbox cleanup failed")
		}
	}()

	result, procErr := p.run(ctx, box, sub, lang)
	if procErr != nil {
		return p.failUnexpected(ctx, sub.ID, procErr)
	}
	return p.repo.Finish(ctx, sub.ID, *result)
}

func (p *Processor) run(ctx context.Context, box *sandbox.Box, sub types.Submission, lang types.Language) (*submission.FinishResult, error) {
	limits := ResolveLimits(sub.Limits, p.defaults)

	sourceFileName := lang.FileName
	if err := p.driver.PlaceFile(box, sourceFileName, []byte(sub.SourceCode)); err != nil {
		return nil, fmt.Errorf("place source file: %w", err)
	}
	for _, f := range sub.AdditionalFiles {
		if f.Name == sourceFileName {
			return &submission.FinishResult{
				Status: types.StatusError,
				Stderr: strPtr(fmt.Sprintf("additional file %q collides with the main source file", f.Name)),
				Meta:   map[string]string{"error": "additional_files_validation"},
			}, nil
		}
		if err := p.driver.PlaceFile(box, f.Name, []byte(f.Content)); err != nil {
			return &submission.FinishResult{
				Status: types.StatusError,
				Stderr: strPtr(err.Error()),
				Meta:   map[string]string{"error": "additional_files_validation"},
			}, nil
		}
	}

	var compileOutput *string
	if lang.Compiled() {
		compileResult, err := p.driver.Run(ctx, sandbox.RunRequest{
			Box:     box,
			Command: tokenize(*lang.CompileCommand),
			Limits:  limits,
		})
		if err != nil {
			return nil, fmt.Errorf("compile: %w", err)
		}
		combined := strings.TrimSpace(string(compileResult.Stdout) + "\n" + string(compileResult.Stderr))
		compileOutput = &combined

		if !compileSucceeded(compileResult) {
			return &submission.FinishResult{
				Status:        types.StatusError,
				Stdout:        strPtr(string(compileResult.Stdout)),
				Stderr:        strPtr(string(compileResult.Stderr)),
				CompileOutput: compileOutput,
				Meta:          compileResult.Meta,
			}, nil
		}
	}

	outcome, err := p.executeMultipleRuns(ctx, box, sub, lang, limits)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}

	stdout := string(outcome.Stdout)
	stderr := string(outcome.Stderr)
	if !limits.RedirectStderrToStdout {
		stderr = filterLanguageNoise(stderr, lang.Name)
	}

	if sub.ExpectedOutput != nil {
		matched := strings.TrimSpace(stdout) == strings.TrimSpace(*sub.ExpectedOutput)
		outcome.Meta["output_matched"] = strconv.FormatBool(matched)
	}

	return &submission.FinishResult{
		Status:        types.StatusFinished,
		Stdout:        &stdout,
		Stderr:        &stderr,
		CompileOutput: compileOutput,
		Meta:          outcome.Meta,
	}, nil
}

// executeMultipleRuns runs the submission's run command NumberOfRuns
// times, accumulating cpu-time ("time") and cgroup memory ("cg-mem")
// across runs. Mirrors _execute_multiple_runs, adapted to isolate's
// cgroup-backed "cg-mem" meta key in place of the non-cgroup "max-rss"
// the reference reads (this driver always runs isolate with --cg).
func (p *Processor) executeMultipleRuns(ctx context.Context, box *sandbox.Box, sub types.Submission, lang types.Language, limits types.ResolvedLimits) (*types.StageOutcome, error) {
	var totalTime, totalMemory float64
	var last *types.StageOutcome

	stdin := ""
	if sub.Stdin != nil {
		stdin = *sub.Stdin
	}

	for run := 0; run < limits.NumberOfRuns; run++ {
		p.logger.WithField("run", run+1).WithField("total_runs", limits.NumberOfRuns).Debug("execution run")

		outcome, err := p.driver.Run(ctx, sandbox.RunRequest{
			Box:     box,
			Command: tokenize(lang.RunCommand),
			Stdin:   stdin,
			Limits:  limits,
		})
		if err != nil {
			return nil, err
		}
		last = outcome

		if t, ok := parseFloatMeta(outcome.Meta, "time"); ok {
			totalTime += t
		}
		if m, ok := parseFloatMeta(outcome.Meta, "cg-mem"); ok {
			totalMemory += m
		}
	}

	if last != nil && limits.NumberOfRuns > 1 {
		last.Meta["avg_time"] = strconv.FormatFloat(totalTime/float64(limits.NumberOfRuns), 'f', -1, 64)
		last.Meta["avg_memory"] = strconv.FormatFloat(totalMemory/float64(limits.NumberOfRuns), 'f', -1, 64)
		last.Meta["total_runs"] = strconv.Itoa(limits.NumberOfRuns)
	}

	return last, nil
}

func (p *Processor) failUnexpected(ctx context.Context, id uuid.UUID, err error) error {
	p.logger.WithError(err).WithField("submission_id", id).Error("unexpected error processing submission")
	finishErr := p.repo.Finish(ctx, id, submission.FinishResult{
		Status: types.StatusError,
		Stdout: strPtr(""),
		Stderr: strPtr(err.Error()),
		Meta:   map[string]string{"error": "Worker exception"},
	})
	if finishErr != nil {
		return fmt.Errorf("record worker exception for %s (original error: %v): %w", id, err, finishErr)
	}
	return nil
}

func compileSucceeded(outcome *types.StageOutcome) bool {
	status, ok := outcome.Meta["status"]
	return !ok || status == ""
}

// filterLanguageNoise strips toolchain warnings that are not part of
// the program's actual output, mirroring execute()'s Node.js-specific
// stderr scrub.
func filterLanguageNoise(text, languageName string) string {
	if strings.EqualFold(languageName, "javascript") || strings.EqualFold(languageName, "node.js") {
		return strings.ReplaceAll(text, "Warning: disabling flag --expose_wasm due to conflicting flags\n", "")
	}
	return text
}

func parseFloatMeta(meta map[string]string, key string) (float64, bool) {
	raw, ok := meta[key]
	if !ok || raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// tokenize splits a compile/run command the way a shell would, mirroring
// the reference's shlex.split(compile_cmd); plain whitespace splitting
// would mis-tokenize any command containing quoted arguments.
func tokenize(command string) []string {
	tokens, err := shlex.Split(command)
	if err != nil {
		return strings.Fields(command)
	}
	return tokens
}

func strPtr(s string) *string { return &s }
