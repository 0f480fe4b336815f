package condakit

import (
	"net/url"
	"strings"
)

// Channel is a named repository of conda packages, addressable by a base URL.
type Channel struct {
	// Name is the short name the channel was configured with, e.g.
	// "conda-forge".
	Name string
	// BaseURL is the root all subdirectory URLs are derived from.
	BaseURL *url.URL
}

// CanonicalName reports the canonical name of the channel: the base URL
// without a trailing slash, falling back to the configured name if no base
// URL is set.
func (c *Channel) CanonicalName() string {
	if c.BaseURL == nil {
		return c.Name
	}
	return strings.TrimSuffix(c.BaseURL.String(), "/")
}

// SubdirURL reports the URL of the named subdirectory, with the trailing
// slash needed for resolving filenames against it.
func (c *Channel) SubdirURL(subdir string) *url.URL {
	u := *c.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + subdir + "/"
	return &u
}

// ChannelInfo is the optional "info" block of a repodata document.
type ChannelInfo struct {
	// If set, the effective root for resolving package filenames, overriding
	// the repository base URL.
	BaseURL string `json:"base_url,omitempty"`
	// Subdir recorded in the document, if any.
	Subdir string `json:"subdir,omitempty"`
}

// ComputePackageURL resolves the download URL for an archive filename.
//
// If infoBase is non-empty it is resolved against repoBase and used as the
// effective root, otherwise repoBase is used directly. The filename is
// appended verbatim: archive filenames contain no characters needing escape,
// and percent-encoding here would corrupt mirrors that compare paths
// byte-wise.
func ComputePackageURL(repoBase *url.URL, infoBase string, filename string) *url.URL {
	base := repoBase
	if infoBase != "" {
		if ref, err := url.Parse(withTrailingSlash(infoBase)); err == nil {
			base = repoBase.ResolveReference(ref)
		}
	}
	u := *base
	u.Path = withTrailingSlash(u.Path) + filename
	return &u
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
