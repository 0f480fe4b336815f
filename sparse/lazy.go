package sparse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/quay/condakit"
)

// Entry pairs a parsed archive filename with the raw, undecoded bytes of its
// record.
//
// The raw slice is a sub-slice of the mapped document; it must not be
// retained past the owning handle's Close.
type entry struct {
	fname condakit.PackageFilename
	raw   []byte
}

// LazyRepoData is a shallowly-parsed repodata document.
//
// Only the "info" block and the two filename keyspaces are decoded; every
// record value is kept as an opaque byte range for on-demand deep parsing.
// Both entry slices are sorted ascending by package name, which is what makes
// the equal-range lookup in [equalRange] possible.
type lazyRepoData struct {
	info          *condakit.ChannelInfo
	packages      []entry // .tar.bz2 archives, from the "packages" key
	condaPackages []entry // .conda archives, from the "packages.conda" key
}

// ParseLazy shallow-parses a repodata document.
//
// Top-level keys other than "info", "packages", and "packages.conda" are
// skipped without decoding.
func parseLazy(buf []byte) (*lazyRepoData, error) {
	dec := json.NewDecoder(bytes.NewReader(buf))
	tok, err := dec.Token()
	if err != nil {
		return nil, invalidRepodata("unable to read document", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, invalidRepodata("document is not a JSON object", nil)
	}
	var ld lazyRepoData
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalidRepodata("unable to read document", err)
		}
		switch key := tok.(string); key {
		case "info":
			if err := dec.Decode(&ld.info); err != nil {
				return nil, invalidRepodata(`malformed "info" block`, err)
			}
		case "packages":
			ld.packages, err = parseEntries(dec, buf, key)
		case "packages.conda":
			ld.condaPackages, err = parseEntries(dec, buf, key)
		default:
			err = skipValue(dec)
			if err != nil {
				err = invalidRepodata(fmt.Sprintf("malformed %q value", key), err)
			}
		}
		if err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalidRepodata("unable to read document", err)
	}
	return &ld, nil
}

// ParseEntries decodes one of the two filename→record maps, retaining each
// value as a sub-slice of buf.
//
// The entries are re-sorted by package name afterwards. Repodata is
// conventionally sorted by filename, but that does not imply package-name
// order:
//
//   - clang-format-12.0.1-default_he082bbe_4.tar.bz2 (package: clang-format)
//   - clang-format-13-13.0.0-default_he082bbe_0.tar.bz2 (package: clang-format-13)
//   - clang-format-13.0.0-default_he082bbe_0.tar.bz2 (package: clang-format)
//
// The sort is stable so that records for the same package keep their document
// order.
func parseEntries(dec *json.Decoder, buf []byte, key string) ([]entry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, invalidRepodata(fmt.Sprintf("unable to read %q", key), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, invalidRepodata(fmt.Sprintf("%q is not a map", key), nil)
	}
	var es []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, invalidRepodata(fmt.Sprintf("unable to read %q", key), err)
		}
		fn, err := condakit.ParsePackageFilename(tok.(string))
		if err != nil {
			return nil, invalidRepodata(fmt.Sprintf("bad filename in %q", key), err)
		}
		start := dec.InputOffset()
		if err := skipValue(dec); err != nil {
			return nil, invalidRepodata(fmt.Sprintf("malformed record %q", fn.Filename), err)
		}
		raw := bytes.TrimLeft(buf[start:dec.InputOffset()], ": \t\r\n")
		es = append(es, entry{fname: fn, raw: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, invalidRepodata(fmt.Sprintf("unable to read %q", key), err)
	}
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].fname.Package < es[j].fname.Package
	})
	return es, nil
}

// SkipValue advances dec past exactly one JSON value without decoding it.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	for depth := 1; depth > 0; {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
	return nil
}

// EqualRange reports the contiguous run of entries whose package name equals
// name. The slice must be sorted by package name.
func equalRange(es []entry, name string) []entry {
	lo := sort.Search(len(es), func(i int) bool { return es[i].fname.Package >= name })
	hi := lo + sort.Search(len(es)-lo, func(i int) bool { return es[lo+i].fname.Package > name })
	return es[lo:hi]
}

func invalidRepodata(msg string, inner error) error {
	return &condakit.Error{
		Kind:    condakit.ErrInvalidRepodata,
		Op:      `sparse: parse`,
		Message: msg,
		Inner:   inner,
	}
}
