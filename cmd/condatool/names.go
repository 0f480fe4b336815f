package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/quay/condakit/sparse"
)

// Names prints the package names indexed by one repodata file.
func Names(ctx context.Context, cfg *commonConfig, args []string) error {
	fs := flag.NewFlagSet("names", flag.ExitOnError)
	subdir := fs.String("subdir", "noarch", "subdirectory the repodata describes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("names: need exactly one repodata file")
	}

	rd, err := sparse.New(ctx, cfg.Channel, *subdir, fs.Arg(0), nil)
	if err != nil {
		return err
	}
	defer rd.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for n := range rd.PackageNames() {
		fmt.Fprintln(w, n)
	}
	return nil
}
