package sparse

import (
	"context"
	"fmt"

	"github.com/quay/zlog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/quay/condakit"
)

// Maximum number of in-flight handle constructions during a recursive load.
const maxInflight = 50

// LoadSpec names one repodata document for [LoadRepoDataRecursively].
type LoadSpec struct {
	Channel condakit.Channel
	Subdir  string
	Path    string
}

// LoadRepoDataRecursively opens every named repodata document and resolves
// the transitive closure of the named packages across all of them in one
// call.
//
// Handle construction does file I/O and a full shallow parse, so the
// documents are opened in parallel, at most [maxInflight] at a time. The
// handles only live for the duration of the call; the returned records are
// owned. The first construction error fails the whole load, and a panicking
// worker is reported as a [condakit.ErrWorkerFailure] error.
func LoadRepoDataRecursively(ctx context.Context, specs []LoadSpec, names []condakit.PackageName, patch func(*condakit.PackageRecord)) ([][]condakit.RepoDataRecord, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "sparse/LoadRepoDataRecursively")

	repoData := make([]*RepoData, len(specs))
	defer func() {
		for _, rd := range repoData {
			if rd == nil {
				continue
			}
			if err := rd.Close(); err != nil {
				zlog.Warn(ctx).
					AnErr("close", err).
					Msg("errors encountered releasing repodata handle")
			}
		}
	}()

	sem := semaphore.NewWeighted(maxInflight)
	g, gctx := errgroup.WithContext(ctx)
	// Launch is a closure to capture the loop variables and call the
	// constructor under the semaphore.
	launch := func(i int, spec LoadSpec) func() error {
		return func() (err error) {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			defer func() {
				if p := recover(); p != nil {
					err = &condakit.Error{
						Kind:    condakit.ErrWorkerFailure,
						Op:      `sparse/LoadRepoDataRecursively`,
						Message: fmt.Sprintf("panic opening %q: %v", spec.Path, p),
					}
				}
			}()
			rd, err := New(gctx, spec.Channel, spec.Subdir, spec.Path, patch)
			if err != nil {
				return err
			}
			repoData[i] = rd
			return nil
		}
	}
	for i, spec := range specs {
		g.Go(launch(i, spec))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return LoadRecordsRecursive(ctx, repoData, names, patch)
}
