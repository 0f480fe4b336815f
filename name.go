package condakit

import (
	"fmt"
	"strings"
)

// PackageName is the normalized identifier of a conda package.
//
// Two names are the same package iff their normalized forms are equal. The
// zero value is the empty name. PackageName is comparable and usable as a map
// key.
type PackageName struct {
	normalized string
}

// NewPackageNameUnchecked constructs a PackageName from a string that is
// assumed to already be in normalized form.
//
// No validation or case-folding is done. This is meant for strings pulled out
// of repodata, which are normalized by construction.
func NewPackageNameUnchecked(s string) PackageName {
	return PackageName{normalized: s}
}

// ParsePackageName normalizes and validates the provided string.
//
// Conda package names are case-insensitive ASCII made up of letters, digits,
// and the characters '-', '_', and '.'.
func ParsePackageName(s string) (PackageName, error) {
	n := strings.ToLower(s)
	for _, r := range n {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return PackageName{}, &Error{
				Kind:    ErrInvalid,
				Op:      `ParsePackageName`,
				Message: fmt.Sprintf("disallowed character %q in package name %q", r, s),
			}
		}
	}
	if n == "" {
		return PackageName{}, &Error{
			Kind:    ErrInvalid,
			Op:      `ParsePackageName`,
			Message: "empty package name",
		}
	}
	return PackageName{normalized: n}, nil
}

// Normalized reports the normalized form of the name.
func (n PackageName) Normalized() string { return n.normalized }

// String implements [fmt.Stringer].
func (n PackageName) String() string { return n.normalized }
