// Package testutil provides golden-file comparison for this core's
// deterministic string renderings (term.Term.String(), diagnostic
// Reports), adapted from the teacher's internal/parser/testutil.go
// goldenCompare — same -update flag and testdata/<feature>/<name>.golden
// layout, generalized from AST-print strings to this core's Term/Def
// fixtures.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// update controls whether CompareWithGolden writes instead of compares.
// Usage: go test -update ./...
var update = flag.Bool("update", false, "update golden files")

// goldenPath returns the path to a golden file for feature/name.
func goldenPath(feature, name string) string {
	return filepath.Join("testdata", feature, name+".golden")
}

// CompareWithGolden compares got against testdata/<feature>/<name>.golden,
// writing the file instead when -update is passed.
func CompareWithGolden(t *testing.T, feature, name, got string) {
	t.Helper()

	path := goldenPath(feature, name)

	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("failed to write golden file: %v", err)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file %s: %v\nrun with -update to create it", path, err)
	}

	if diff := cmp.Diff(string(want), got); diff != "" {
		t.Errorf("golden mismatch for %s/%s (-want +got):\n%s", feature, name, diff)
	}
}

// LoadGolden reads a golden file's raw contents, for tests that need
// the fixture itself rather than a pass/fail comparison.
func LoadGolden(t *testing.T, feature, name string) string {
	t.Helper()

	data, err := os.ReadFile(goldenPath(feature, name))
	if err != nil {
		t.Fatalf("failed to load golden file %s/%s: %v", feature, name, err)
	}
	return string(data)
}
