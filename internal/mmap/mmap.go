// Package mmap provides a read-only memory mapping of a file.
//
// On systems without a usable mmap(2), the file contents are read into
// memory instead; callers see the same API either way.
package mmap

import (
	"fmt"
	"os"
)

// File is a read-only view of a file's contents.
//
// The byte slice returned by [File.Bytes] is only valid until [File.Close] is
// called.
type File struct {
	data   []byte
	mapped bool
}

// Open maps the named file read-only.
func Open(name string) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	sz := fi.Size()
	if sz == 0 {
		return &File{}, nil
	}
	if int64(int(sz)) != sz {
		return nil, fmt.Errorf("mmap: file %q too large to map", name)
	}
	return mapFile(f, int(sz))
}

// Bytes reports the mapped contents.
func (f *File) Bytes() []byte { return f.data }

// Close releases the mapping. The slice returned by [File.Bytes] must not be
// used afterwards.
func (f *File) Close() error {
	data := f.data
	f.data = nil
	if !f.mapped {
		return nil
	}
	f.mapped = false
	return unmap(data)
}
