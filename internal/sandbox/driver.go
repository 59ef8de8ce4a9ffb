// Package sandbox is the Sandbox Driver (spec.md section 4.1): a thin,
// typed wrapper over the isolate(1) sandboxing tool. Grounded on
// hellobyte-dev-coderunr/api/internal/job/job.go's
// createIsolateBox/safeCall/parseMetadata, generalized from the
// teacher's fixed coderunr-package layout to the judge's per-submission
// source file + additional files + optional compile stage.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coderunr/judge/internal/types"
)

// Box is an initialized isolate sandbox directory.
type Box struct {
	ID           int
	Dir          string // host path to the box root, e.g. /var/local/lib/isolate/<id>/box
	MetadataPath string
}

// Driver invokes the isolate CLI to create boxes, place files, run
// compile/execute stages inside them, and tear them down.
type Driver struct {
	IsolatePath   string
	EnableNetwork bool
}

// NewDriver builds a Driver bound to an isolate binary path.
func NewDriver(isolatePath string, enableNetwork bool) *Driver {
	return &Driver{IsolatePath: isolatePath, EnableNetwork: enableNetwork}
}

// Init runs `isolate --init --cg --box-id=<id>` and records the
// returned box directory, mirroring createIsolateBox.
func (d *Driver) Init(boxID int) (*Box, error) {
	cmd := exec.Command(d.IsolatePath, "--init", "--cg", fmt.Sprintf("--box-id=%d", boxID))
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("isolate init failed for box %d: %w", boxID, err)
	}

	dir := strings.TrimSpace(string(output))
	if dir == "" {
		return nil, fmt.Errorf("isolate --init returned empty output for box %d", boxID)
	}

	return &Box{
		ID:           boxID,
		Dir:          filepath.Join(dir, "box"),
		MetadataPath: fmt.Sprintf("/tmp/isolate-%d-meta.txt", boxID),
	}, nil
}

// PlaceFile writes content at relativePath inside the box's submission
// directory, rejecting any path that would escape it — mirroring
// writeFile's path-traversal guard. relativePath must be a bare file
// name: any embedded separator is rejected outright, since the only
// files a submission may place are the main source file and its
// declared additional files, never nested paths.
func (d *Driver) PlaceFile(box *Box, relativePath string, content []byte) error {
	if relativePath == "" || strings.ContainsRune(relativePath, os.PathSeparator) || strings.Contains(relativePath, "/") || strings.Contains(relativePath, "..") {
		return fmt.Errorf("invalid file name: %s", relativePath)
	}

	submissionDir := filepath.Join(box.Dir, "submission")
	target := filepath.Join(submissionDir, relativePath)
	rel, err := filepath.Rel(submissionDir, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path traversal detected: %s", relativePath)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return fmt.Errorf("create directory for %s: %w", relativePath, err)
	}
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", relativePath, err)
	}
	return nil
}

// RunRequest is the full configuration for one compile-or-run
// invocation inside an initialized box.
type RunRequest struct {
	Box     *Box
	Command []string // e.g. {"/bin/bash", "compile"} or the language's run command, tokenized
	Stdin   string
	Limits  types.ResolvedLimits
}

// Run executes Command inside Box under the given resource limits,
// returning the process outcome plus parsed isolate metadata. Mirrors
// safeCall's isolate argument construction and output collection,
// generalized to the judge's ResolvedLimits instead of a fixed
// per-language runtime.
func (d *Driver) Run(ctx context.Context, req RunRequest) (*types.StageOutcome, error) {
	args := d.buildArgs(req)

	cmd := exec.CommandContext(ctx, d.IsolatePath, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start isolate: %w", err)
	}

	go func() {
		defer stdin.Close()
		if req.Stdin != "" {
			_, _ = stdin.Write([]byte(req.Stdin))
		}
	}()

	runErr := cmd.Wait()

	meta, parseErr := parseMetadata(req.Box.MetadataPath)
	if parseErr != nil {
		meta = map[string]string{}
	}

	outcome := &types.StageOutcome{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.Bytes(),
		Meta:   meta,
	}
	if cmd.ProcessState != nil {
		outcome.ExitStatus = cmd.ProcessState.ExitCode()
	}
	if runErr != nil && meta["status"] == "" {
		meta["status"] = "RE"
		meta["error"] = "Runtime error"
	}

	return outcome, nil
}

// buildArgs renders the isolate CLI flags described in spec.md section
// 4.1: box id, metadata path, full-env passthrough, a chdir into the
// submission subdirectory PlaceFile writes into (so run/compile commands
// can reference bare filenames), cpu/extra/wall time, memory, process
// count, file size, conditional cgroup accounting and network sharing,
// stdin/stdout/stderr redirection, and the terminal "--run --" command.
func (d *Driver) buildArgs(req RunRequest) []string {
	l := req.Limits
	args := []string{
		fmt.Sprintf("--box-id=%d", req.Box.ID),
		fmt.Sprintf("--meta=%s", req.Box.MetadataPath),
		"--cg",
		"--full-env",
		"--dir=/etc:noexec",
		"--chdir=/box/submission",
	}

	args = append(args, fmt.Sprintf("--processes=%d", l.MaxProcessesAndOrThreads))
	args = append(args, fmt.Sprintf("--fsize=%d", l.MaxFileSize))
	args = append(args, fmt.Sprintf("--time=%s", formatSeconds(l.CPUTimeLimit)))
	args = append(args, fmt.Sprintf("--extra-time=%s", formatSeconds(l.CPUExtraTime)))
	args = append(args, fmt.Sprintf("--wall-time=%s", formatSeconds(l.WallTimeLimit)))
	args = append(args, fmt.Sprintf("--mem=%d", l.MemoryLimit))

	if l.EnablePerProcessAndThreadTimeLimit {
		args = append(args, "--cg-timing")
	}
	if l.EnablePerProcessAndThreadMemory {
		args = append(args, fmt.Sprintf("--cg-mem=%d", l.MemoryLimit))
	}
	if l.EnableNetwork || d.EnableNetwork {
		args = append(args, "--share-net")
	}

	args = append(args, "--stdin=/dev/stdin", "--stdout=/dev/stdout")
	if l.RedirectStderrToStdout {
		args = append(args, "--stderr-to-stdout")
	} else {
		args = append(args, "--stderr=/dev/stderr")
	}

	args = append(args, "--run", "--")
	args = append(args, req.Command...)
	return args
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// Cleanup tears down an initialized box, mirroring the teacher's
// cleanup loop over dirtyBoxes.
func (d *Driver) Cleanup(box *Box) error {
	cmd := exec.Command(d.IsolatePath, "--cleanup", "--cg", fmt.Sprintf("--box-id=%d", box.ID))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("cleanup box %d: %w", box.ID, err)
	}
	return nil
}
