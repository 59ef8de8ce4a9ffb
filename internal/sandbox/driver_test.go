package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceFileWritesContent(t *testing.T) {
	tmp := t.TempDir()
	box := &Box{ID: 1, Dir: tmp}
	d := NewDriver("/usr/local/bin/isolate", false)

	err := d.PlaceFile(box, "main.py", []byte("print(1)"))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(tmp, "submission", "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "print(1)", string(content))
}

func TestPlaceFileRejectsTraversal(t *testing.T) {
	tmp := t.TempDir()
	box := &Box{ID: 1, Dir: tmp}
	d := NewDriver("/usr/local/bin/isolate", false)

	err := d.PlaceFile(box, "../../etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestPlaceFileRejectsEmbeddedSeparator(t *testing.T) {
	tmp := t.TempDir()
	box := &Box{ID: 1, Dir: tmp}
	d := NewDriver("/usr/local/bin/isolate", false)

	err := d.PlaceFile(box, "sub/a.txt", []byte("x"))
	assert.Error(t, err)
}

func TestBuildArgsIncludesLimitsAndTerminalRun(t *testing.T) {
	d := NewDriver("/usr/local/bin/isolate", false)
	box := &Box{ID: 7, MetadataPath: "/tmp/isolate-7-meta.txt"}
	req := RunRequest{
		Box:     box,
		Command: []string{"/bin/bash", "run"},
		Limits: types.ResolvedLimits{
			CPUTimeLimit:             2.5,
			WallTimeLimit:            5,
			MemoryLimit:              256000,
			MaxProcessesAndOrThreads: 60,
			MaxFileSize:              1024,
		},
	}

	args := d.buildArgs(req)
	assert.Contains(t, args, "--box-id=7")
	assert.Contains(t, args, "--meta=/tmp/isolate-7-meta.txt")
	assert.Contains(t, args, "--chdir=/box/submission")
	assert.Contains(t, args, "--time=2.5")
	assert.Contains(t, args, "--mem=256000")
	assert.Equal(t, "--run", args[len(args)-4])
	assert.Equal(t, "--", args[len(args)-3])
	assert.Equal(t, []string{"/bin/bash", "run"}, args[len(args)-2:])
}

func TestBuildArgsSharesNetWhenEnabled(t *testing.T) {
	d := NewDriver("/usr/local/bin/isolate", false)
	req := RunRequest{
		Box:     &Box{ID: 1, MetadataPath: "/tmp/m"},
		Command: []string{"run"},
		Limits:  types.ResolvedLimits{EnableNetwork: true},
	}
	args := d.buildArgs(req)
	assert.Contains(t, args, "--share-net")
}

func TestParseMetadata(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "meta.txt")
	require.NoError(t, os.WriteFile(path, []byte("status:RE\ntime:0.04\ncg-mem:1024\n"), 0o644))

	meta, err := parseMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "RE", meta["status"])
	assert.Equal(t, "0.04", meta["time"])
	assert.Equal(t, "1024", meta["cg-mem"])
}

func TestParseWorkerOrdinal(t *testing.T) {
	n, ok := parseWorkerOrdinal("worker-3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = parseWorkerOrdinal("not-a-worker")
	assert.False(t, ok)
}
