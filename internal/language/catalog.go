package language

import (
	"context"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/coderunr/judge/internal/types"
)

// Seed is the administrative catalog bootstrap (spec.md section 2 item 7
// calls language installation out of scope; this module only seeds the
// catalog table, it never builds toolchain packages). Grounded on the
// teacher's runtime.Manager.LoadPackages, generalized from a filesystem
// scan to an in-code table since package installation is out of scope.
func Seed(ctx context.Context, repo *Repository) error {
	for _, l := range defaultCatalog {
		if err := repo.Upsert(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

func compileCmd(cmd string) *string { return &cmd }

var defaultCatalog = []types.Language{
	{Name: "python", Version: "3.11.4", FileName: "main.py", FileExtension: "py", RunCommand: "python3 main.py"},
	{Name: "python", Version: "2.7.18", FileName: "main.py", FileExtension: "py", RunCommand: "python2 main.py"},
	{Name: "javascript", Version: "18.16.0", FileName: "main.js", FileExtension: "js", RunCommand: "node main.js"},
	{Name: "go", Version: "1.21.0", FileName: "main.go", FileExtension: "go",
		CompileCommand: compileCmd("go build -o main main.go"), RunCommand: "./main"},
	{Name: "c", Version: "11.4.0", FileName: "main.c", FileExtension: "c",
		CompileCommand: compileCmd("gcc -O2 -o main main.c"), RunCommand: "./main"},
	{Name: "cpp", Version: "11.4.0", FileName: "main.cpp", FileExtension: "cpp",
		CompileCommand: compileCmd("g++ -O2 -o main main.cpp"), RunCommand: "./main"},
	{Name: "java", Version: "17.0.7", FileName: "Main.java", FileExtension: "java",
		CompileCommand: compileCmd("javac Main.java"), RunCommand: "java Main"},
	{Name: "rust", Version: "1.70.0", FileName: "main.rs", FileExtension: "rs",
		CompileCommand: compileCmd("rustc -O -o main main.rs"), RunCommand: "./main"},
	{Name: "bash", Version: "5.2.15", FileName: "script.sh", FileExtension: "sh", RunCommand: "bash script.sh"},
}

// LatestMatching returns, among the given languages sharing a name, the
// one with the greatest semver version satisfying constraint (or the
// plain greatest if constraint is empty). Grounded on the teacher's
// GetLatestRuntimeMatchingLanguageVersion, adapted from a global
// runtimes slice to an explicit parameter.
func LatestMatching(languages []types.Language, name, constraint string) (*types.Language, error) {
	var check *semver.Constraints
	if constraint != "" {
		c, err := semver.NewConstraint(constraint)
		if err != nil {
			return nil, err
		}
		check = c
	}

	var candidates []types.Language
	for _, l := range languages {
		if l.Name != name {
			continue
		}
		v, err := semver.NewVersion(l.Version)
		if err != nil {
			continue
		}
		if check != nil && !check.Check(v) {
			continue
		}
		candidates = append(candidates, l)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		vi, _ := semver.NewVersion(candidates[i].Version)
		vj, _ := semver.NewVersion(candidates[j].Version)
		return vi.GreaterThan(vj)
	})
	return &candidates[0], nil
}
