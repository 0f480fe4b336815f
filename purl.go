package condakit

import (
	"github.com/package-url/packageurl-go"
)

// GeneratePURL generates a conda PURL for a materialized record.
// Example: pkg:conda/numpy@1.24.0?build=py311h64a7726_0&subdir=linux-64
func GeneratePURL(r *RepoDataRecord) packageurl.PackageURL {
	q := map[string]string{}
	if b := r.PackageRecord.Build; b != "" {
		q["build"] = b
	}
	if s := r.PackageRecord.Subdir; s != "" {
		q["subdir"] = s
	}
	return packageurl.PackageURL{
		Type:       packageurl.TypeConda,
		Name:       r.PackageRecord.Name,
		Version:    r.PackageRecord.Version,
		Qualifiers: packageurl.QualifiersFromMap(q),
	}
}
