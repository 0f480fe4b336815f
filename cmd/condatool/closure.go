package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/quay/condakit"
	"github.com/quay/condakit/sparse"
)

// Closure resolves the transitive closure of the named root packages across
// the provided repodata files and prints the resulting records.
func Closure(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("closure", flag.ExitOnError)
	var roots []condakit.PackageName
	fs.Func("root", "root package name (repeatable)", func(v string) error {
		n, err := condakit.ParsePackageName(v)
		if err != nil {
			return err
		}
		roots = append(roots, n)
		return nil
	})
	countOnly := fs.Bool("count", false, "print record counts instead of record URLs and PURLs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("closure: need at least one subdir=path argument")
	}

	var specs []sparse.LoadSpec
	for _, arg := range fs.Args() {
		subdir, path, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("closure: malformed argument %q, want subdir=path", arg)
		}
		specs = append(specs, sparse.LoadSpec{
			Channel: cfg.Channel,
			Subdir:  subdir,
			Path:    path,
		})
	}

	result, err := sparse.LoadRepoDataRecursively(ctx, specs, roots, nil)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i, records := range result {
		if *countOnly {
			fmt.Fprintf(w, "%s\t%d\n", specs[i].Path, len(records))
			continue
		}
		for j := range records {
			fmt.Fprintf(w, "%s\t%s\n", records[j].URL, condakit.GeneratePURL(&records[j]).ToString())
		}
	}
	return nil
}
