package transform

import (
	"net/url"
	"regexp"
	"strings"
)

// Identifier schemes recognized by DetectScheme.
const (
	SchemeDOI   = "doi"
	SchemeArXiv = "arxiv"
	SchemeURL   = "url"
)

var (
	doiPattern   = regexp.MustCompile(`^10\.\d{4,9}/\S+$`)
	arxivPattern = regexp.MustCompile(`^(?i:arxiv:)\d{4}\.\d{4,5}(v\d+)?$`)
)

// DetectScheme infers the identifier scheme of a free-text identifier string.
// Persistent-identifier schemes win over a plain URL reading: a doi.org link
// is reported as a DOI, not a URL. Returns ok=false when no scheme applies;
// such values are stored as opaque custom fields rather than metadata
// identifiers.
func DetectScheme(raw string) (scheme string, value string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", false
	}

	// Bare or prefixed DOI.
	if len(s) > 4 && strings.EqualFold(s[:4], "doi:") {
		s = strings.TrimSpace(s[4:])
	}
	if doiPattern.MatchString(s) {
		return SchemeDOI, s, true
	}

	if arxivPattern.MatchString(s) {
		return SchemeArXiv, s, true
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", false
	}
	// DOI expressed as a resolver URL.
	if host := strings.TrimPrefix(u.Host, "www."); host == "doi.org" || host == "dx.doi.org" {
		if d := strings.TrimPrefix(u.Path, "/"); doiPattern.MatchString(d) {
			return SchemeDOI, d, true
		}
	}
	return SchemeURL, s, true
}
