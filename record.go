// Package condakit holds the shared domain types for working with conda
// channels and their repodata indexes.
package condakit

// PackageRecord is the metadata for one build of one package, as recorded in
// a repodata.json document.
//
// Fields not listed here may appear in repodata; they are not needed for
// resolution and are dropped on deep parse.
type PackageRecord struct {
	// The lower-case name of the package.
	Name string `json:"name"`
	// The version of the package.
	Version string `json:"version"`
	// The build string of the package.
	Build string `json:"build"`
	// The build number of the package.
	BuildNumber uint64 `json:"build_number"`
	// The subdirectory this package is built for. May be empty in the raw
	// document; see [github.com/quay/condakit/sparse.RepoData.LoadRecords] for
	// how that is repaired.
	Subdir string `json:"subdir"`
	// Match specs this package depends on.
	Depends []string `json:"depends"`
	// Additional constraints on packages that are only applied when the
	// constrained package is installed.
	Constrains []string `json:"constrains,omitempty"`
	// Optional MD5 hash of the package archive.
	MD5 string `json:"md5,omitempty"`
	// Optional SHA256 hash of the package archive.
	SHA256 string `json:"sha256,omitempty"`
	// Size of the package archive in bytes.
	Size uint64 `json:"size,omitempty"`
	// Unix timestamp (milliseconds) the package was created at.
	Timestamp uint64 `json:"timestamp,omitempty"`
	// License of the package.
	License string `json:"license,omitempty"`
	// License family of the package.
	LicenseFamily string `json:"license_family,omitempty"`
	// If set, the package is architecture independent; "python" or "generic".
	Noarch string `json:"noarch,omitempty"`
	// Architecture the package was built for.
	Arch string `json:"arch,omitempty"`
	// Platform the package was built for.
	Platform string `json:"platform,omitempty"`
	// Track features, used to deprioritize packages in the solver.
	TrackFeatures string `json:"track_features,omitempty"`
}

// RepoDataRecord is a [PackageRecord] joined with the provenance needed to
// fetch it: the download URL, the canonical channel name, and the archive
// filename it was indexed under.
type RepoDataRecord struct {
	// Download URL of the package archive.
	URL string `json:"url"`
	// Canonical name of the channel the record came from.
	Channel string `json:"channel"`
	// The record itself.
	PackageRecord PackageRecord `json:"package_record"`
	// The archive filename, e.g. "python-3.11.0-h7a1cb2a_0.conda".
	FileName string `json:"fn"`
}
