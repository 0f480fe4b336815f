package sparse

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/quay/zlog"

	"github.com/quay/condakit"
)

// LoadSparseTest resolves the closure of the given roots over the noarch and
// linux-64 fixtures, mirroring how a solver frontend would call the loader.
func loadSparseTest(t *testing.T, patch func(*condakit.PackageRecord), names ...string) [][]condakit.RepoDataRecord {
	t.Helper()
	ctx := zlog.Test(context.Background(), t)
	ch := testChannel(t)
	roots := make([]condakit.PackageName, 0, len(names))
	for _, n := range names {
		pn, err := condakit.ParsePackageName(n)
		if err != nil {
			t.Fatal(err)
		}
		roots = append(roots, pn)
	}
	got, err := LoadRepoDataRecursively(ctx, []LoadSpec{
		{Channel: ch, Subdir: "noarch", Path: testRepodata(t, "noarch")},
		{Channel: ch, Subdir: "linux-64", Path: testRepodata(t, "linux-64")},
	}, roots, patch)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func countRecords(result [][]condakit.RepoDataRecord) int {
	var n int
	for _, records := range result {
		n += len(records)
	}
	return n
}

func TestLoadEmptyRoots(t *testing.T) {
	t.Parallel()
	got := loadSparseTest(t, nil)
	if len(got) != 2 {
		t.Fatalf("got %d lists, want 2", len(got))
	}
	if n := countRecords(got); n != 0 {
		t.Errorf("got %d records, want 0", n)
	}
}

func TestLoadSingle(t *testing.T) {
	t.Parallel()
	got := loadSparseTest(t, nil, "_libgcc_mutex")
	if n := countRecords(got); n != 3 {
		t.Errorf("got %d records, want 3", n)
	}
}

func TestLoadDuplicateRoots(t *testing.T) {
	t.Parallel()
	got := loadSparseTest(t, nil, "_libgcc_mutex", "_libgcc_mutex")
	// The duplicate root collapses; same result as the single-root load.
	if n := countRecords(got); n != 3 {
		t.Errorf("got %d records, want 3", n)
	}
}

func TestLoadTransitiveClosure(t *testing.T) {
	t.Parallel()
	got := loadSparseTest(t, nil, "jupyterlab")
	if n := countRecords(got); n != 9 {
		t.Errorf("got %d records, want 9", n)
	}
	// noarch contributes jupyterlab, _libgcc_mutex, and tzdata.
	if n := len(got[0]); n != 3 {
		t.Errorf("got %d noarch records, want 3", n)
	}
	// linux-64 contributes jupyter_core, two pythons, two _libgcc_mutexes,
	// and tzdata.
	if n := len(got[1]); n != 6 {
		t.Errorf("got %d linux-64 records, want 6", n)
	}
}

// TestLoadClosureClosed checks that the result really is a closure: every
// dependency name extracted from a returned record either shows up as a
// returned record itself or is absent from every loaded index.
func TestLoadClosureClosed(t *testing.T) {
	t.Parallel()
	got := loadSparseTest(t, nil, "jupyterlab", "clang-format")

	available := make(map[string]struct{})
	for _, subdir := range []string{"noarch", "linux-64"} {
		rd := openTestRepodata(t, subdir, nil)
		for n := range rd.PackageNames() {
			available[n] = struct{}{}
		}
	}
	returned := make(map[string]struct{})
	for _, records := range got {
		for i := range records {
			returned[records[i].PackageRecord.Name] = struct{}{}
		}
	}
	for _, records := range got {
		for i := range records {
			for _, dep := range records[i].PackageRecord.Depends {
				name, _, _ := strings.Cut(dep, " ")
				if _, ok := returned[name]; ok {
					continue
				}
				if _, ok := available[name]; ok {
					t.Errorf("dependency %q is available but was not returned", name)
				}
			}
		}
	}
}

func TestLoadPatchFunction(t *testing.T) {
	t.Parallel()
	addPip := func(r *condakit.PackageRecord) {
		if r.Name == "python" {
			r.Depends = append(r.Depends, "pip")
		}
	}

	// Without the hook pip is unreachable from python.
	got := loadSparseTest(t, nil, "python")
	if n := countRecords(got); n != 7 {
		t.Errorf("got %d records, want 7", n)
	}
	for _, records := range got {
		for i := range records {
			if records[i].PackageRecord.Name == "pip" {
				t.Error("pip record returned without the patch function")
			}
		}
	}

	// With the hook the injected dependency pulls pip into the closure.
	got = loadSparseTest(t, addPip, "python")
	if n := countRecords(got); n != 8 {
		t.Errorf("got %d records, want 8", n)
	}
	var foundPip bool
	for _, records := range got {
		for i := range records {
			switch records[i].PackageRecord.Name {
			case "python":
				if !slices.Contains(records[i].PackageRecord.Depends, "pip") {
					t.Errorf("python record %q missing injected dependency", records[i].FileName)
				}
			case "pip":
				foundPip = true
			}
		}
	}
	if !foundPip {
		t.Error("pip record not returned with the patch function")
	}
}

func TestLoadPropagatesConstructionError(t *testing.T) {
	t.Parallel()
	ctx := zlog.Test(context.Background(), t)
	ch := testChannel(t)
	_, err := LoadRepoDataRecursively(ctx, []LoadSpec{
		{Channel: ch, Subdir: "noarch", Path: testRepodata(t, "noarch")},
		{Channel: ch, Subdir: "linux-64", Path: filepath.Join(t.TempDir(), "absent.json")},
	}, []condakit.PackageName{condakit.NewPackageNameUnchecked("pip")}, nil)
	if !errors.Is(err, condakit.ErrIO) {
		t.Errorf("got %v, want %v", err, condakit.ErrIO)
	}
}
