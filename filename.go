package condakit

import (
	"fmt"
	"strings"
)

// PackageFilename is an archive filename split into the package name and the
// full filename.
//
// Conda archive filenames follow `<name>-<version>-<build>.<ext>`, where
// `<name>` may itself contain '-'. Package is always a prefix of Filename.
type PackageFilename struct {
	Package  string
	Filename string
}

// ParsePackageFilename splits an archive filename such as
// "clang-format-13.0.1-h69bbbaa_1.conda" into its package name
// ("clang-format") and the filename itself.
//
// The split is done from the right: the last two '-'-separated fields are the
// version and build string, everything before them is the package name. A
// name like "clang-format-13-13.0.1-default_he082bbe_0.tar.bz2" therefore
// parses as "clang-format-13". Splitting from the right is the only reliable
// parse because the name may contain '-' itself.
func ParsePackageFilename(s string) (PackageFilename, error) {
	i := strings.LastIndexByte(s, '-')
	if i > 0 {
		if j := strings.LastIndexByte(s[:i], '-'); j >= 0 {
			return PackageFilename{Package: s[:j], Filename: s}, nil
		}
	}
	return PackageFilename{}, &Error{
		Kind:    ErrInvalidFilename,
		Op:      `ParsePackageFilename`,
		Message: fmt.Sprintf("%q is not in name-version-build form", s),
	}
}
