// Package sparse implements on-demand loading of records from repodata.json
// indexes.
//
// A repodata.json document routinely runs to hundreds of megabytes, while a
// typical resolution touches a small fraction of the records in it. The
// [RepoData] handle memory-maps the document and parses it shallowly: only
// the two filename keyspaces are decoded up front, every record value is kept
// as an un-interpreted byte range. Records are deep-parsed one package name
// at a time, so the cost of a load is proportional to the packages asked for,
// not to the size of the index.
package sparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/klauspost/compress/zstd"
	"github.com/quay/zlog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/quay/condakit"
	"github.com/quay/condakit/internal/mmap"
)

// RepoData is a handle to a single repodata.json document, opened for sparse
// loading.
//
// The handle owns the mapped file and the shallow index into it; the index's
// byte ranges never escape the handle, and materialized records are owned
// copies. [RepoData.Close] must be called to release the mapping, after which
// no method may be called.
type RepoData struct {
	closer  io.Closer
	repo    *lazyRepoData
	channel condakit.Channel
	subdir  string
	patch   func(*condakit.PackageRecord)
}

// Magic bytes of a zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// New opens the repodata document at path for sparse loading.
//
// The channel and subdir are recorded for URL computation and subdirectory
// repair during materialization. The optional patch function is applied to
// every record this handle materializes, after URL computation; it is how
// callers inject things like a synthetic "pip" dependency into "python"
// records. It must not mutate the fields the URL is derived from.
//
// Plain documents are memory-mapped read-only. A zstd-compressed document
// (detected by magic bytes, as conda mirrors serve "repodata.json.zst") is
// decompressed into an owned buffer instead.
func New(ctx context.Context, channel condakit.Channel, subdir, path string, patch func(*condakit.PackageRecord)) (*RepoData, error) {
	ctx = zlog.ContextWithValues(ctx, "component", "sparse/New")
	ctx, span := tracer.Start(ctx, "New")
	var (
		bail        = true
		compression = `none`
	)
	defer func() {
		attrs := []attribute.KeyValue{
			attribute.String("compression", compression),
			attribute.Bool("success", !bail),
		}
		span.SetAttributes(attrs...)
		if bail {
			span.SetStatus(codes.Error, "unsuccessful repodata open")
		} else {
			span.SetStatus(codes.Ok, "successful repodata open")
		}
		openCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.End()
	}()

	mf, err := mmap.Open(path)
	if err != nil {
		return nil, &condakit.Error{
			Kind:    condakit.ErrIO,
			Op:      `sparse/New`,
			Message: fmt.Sprintf("unable to map %q", path),
			Inner:   err,
		}
	}
	rd := RepoData{
		closer:  mf,
		channel: channel,
		subdir:  subdir,
		patch:   patch,
	}
	buf := mf.Bytes()
	if bytes.HasPrefix(buf, zstdMagic) {
		compression = `zstd`
		buf, err = decompress(buf)
		// The mapping is no longer needed either way.
		if cerr := mf.Close(); cerr != nil {
			zlog.Warn(ctx).
				Str("path", path).
				AnErr("close", cerr).
				Msg("errors encountered releasing mapping")
		}
		rd.closer = nil
		if err != nil {
			return nil, &condakit.Error{
				Kind:    condakit.ErrIO,
				Op:      `sparse/New`,
				Message: fmt.Sprintf("unable to decompress %q", path),
				Inner:   err,
			}
		}
	}
	rd.repo, err = parseLazy(buf)
	if err != nil {
		if rd.closer != nil {
			rd.closer.Close()
		}
		return nil, err
	}
	zlog.Debug(ctx).
		Str("path", path).
		Str("subdir", subdir).
		Int("records", rd.RecordCount()).
		Msg("opened repodata")
	bail = false
	return &rd, nil
}

func decompress(buf []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(buf, nil)
}

// Close releases the resources held by the handle.
func (r *RepoData) Close() error {
	r.repo = nil
	if r.closer == nil {
		return nil
	}
	c := r.closer
	r.closer = nil
	return c.Close()
}

// Subdir reports the subdirectory this handle was opened with.
func (r *RepoData) Subdir() string { return r.subdir }

// RecordCount reports the total number of records in the document, counting
// both archive formats.
func (r *RepoData) RecordCount() int {
	return len(r.repo.packages) + len(r.repo.condaPackages)
}

// PackageNames iterates over the package names in the document, legacy
// archives first, without deep-parsing anything.
//
// Each underlying keyspace is sorted by name, so collapsing adjacent
// duplicates yields each name once per keyspace; a name present in both
// keyspaces is reported twice unless the occurrences happen to be adjacent in
// the concatenation.
func (r *RepoData) PackageNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		prev := ""
		seen := false
		for _, es := range [2][]entry{r.repo.packages, r.repo.condaPackages} {
			for i := range es {
				n := es[i].fname.Package
				if seen && n == prev {
					continue
				}
				seen, prev = true, n
				if !yield(n) {
					return
				}
			}
		}
	}
}

// LoadRecords materializes all records for the named package.
//
// Records from legacy ".tar.bz2" archives come first, then ".conda" records;
// within each group the document order for the package is kept. Load cost is
// a binary search plus one JSON parse per matching record.
func (r *RepoData) LoadRecords(name condakit.PackageName) ([]condakit.RepoDataRecord, error) {
	return r.loadRecords(name, r.patch)
}

func (r *RepoData) loadRecords(name condakit.PackageName, patch func(*condakit.PackageRecord)) ([]condakit.RepoDataRecord, error) {
	var infoBase string
	if r.repo.info != nil {
		infoBase = r.repo.info.BaseURL
	}
	records, err := parseRecords(equalRange(r.repo.packages, name.Normalized()), infoBase, &r.channel, r.subdir, patch)
	if err != nil {
		return nil, err
	}
	condaRecords, err := parseRecords(equalRange(r.repo.condaPackages, name.Normalized()), infoBase, &r.channel, r.subdir, patch)
	if err != nil {
		return nil, err
	}
	return append(records, condaRecords...), nil
}

// ParseRecords deep-parses the provided entries into owned records.
func parseRecords(es []entry, infoBase string, channel *condakit.Channel, subdir string, patch func(*condakit.PackageRecord)) ([]condakit.RepoDataRecord, error) {
	if len(es) == 0 {
		return nil, nil
	}
	channelName := channel.CanonicalName()
	ret := make([]condakit.RepoDataRecord, 0, len(es))
	for i := range es {
		var rec condakit.PackageRecord
		if err := json.Unmarshal(es[i].raw, &rec); err != nil {
			return nil, &condakit.Error{
				Kind:    condakit.ErrInvalidRepodata,
				Op:      `sparse: load`,
				Message: fmt.Sprintf("malformed record %q", es[i].fname.Filename),
				Inner:   err,
			}
		}
		// Older repodata omits the subdir on records.
		if rec.Subdir == "" {
			rec.Subdir = subdir
		}
		u := condakit.ComputePackageURL(channel.SubdirURL(rec.Subdir), infoBase, es[i].fname.Filename)
		ret = append(ret, condakit.RepoDataRecord{
			URL:           u.String(),
			Channel:       channelName,
			PackageRecord: rec,
			FileName:      es[i].fname.Filename,
		})
	}
	if patch != nil {
		for i := range ret {
			patch(&ret[i].PackageRecord)
		}
	}
	return ret, nil
}
