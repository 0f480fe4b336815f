package sparse

import (
	"context"
	"strings"

	"github.com/quay/zlog"

	"github.com/quay/condakit"
)

// LoadRecordsRecursive materializes, from every provided handle, the records
// for the named packages and everything they transitively depend on.
//
// The return value has one list per handle, in handle order; list i holds
// every record materialized from repoData[i] during the traversal. A package
// name is processed once across the whole traversal, but its records are
// fetched from every handle, since a dependency may be satisfied by any of
// them.
//
// Dependency names are taken from each record's depends list by splitting off
// everything after the first space. Version constraints are deliberately not
// parsed here: the traversal only needs the name graph, and an unparseable
// constraint must not stop closure expansion. Constraint resolution is the
// solver's job.
//
// If patch is non-nil it is applied to every record materialized during this
// traversal, overriding the handles' own patch functions.
func LoadRecordsRecursive(ctx context.Context, repoData []*RepoData, names []condakit.PackageName, patch func(*condakit.PackageRecord)) ([][]condakit.RepoDataRecord, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "sparse/LoadRecordsRecursive")

	result := make([][]condakit.RepoDataRecord, len(repoData))

	// Names that have been enqueued at some point; duplicate roots collapse
	// here.
	seen := make(map[condakit.PackageName]struct{}, len(names))
	var pending []condakit.PackageName
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		pending = append(pending, n)
	}

	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		for i, rd := range repoData {
			hook := patch
			if hook == nil {
				hook = rd.patch
			}
			records, err := rd.loadRecords(next, hook)
			if err != nil {
				return nil, err
			}
			for j := range records {
				for _, dep := range records[j].PackageRecord.Depends {
					bare, _, _ := strings.Cut(dep, " ")
					name := condakit.NewPackageNameUnchecked(bare)
					if _, ok := seen[name]; ok {
						continue
					}
					seen[name] = struct{}{}
					pending = append(pending, name)
				}
			}
			result[i] = append(result[i], records...)
		}
	}

	zlog.Debug(ctx).
		Int("names", len(seen)).
		Msg("closure resolved")
	return result, nil
}
