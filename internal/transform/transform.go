package transform

import (
	"github.com/jlab-mis/rdmsync/internal/record"
)

// Fallback records one classification that degraded to a sentinel during a
// transform. Transforms never fail on unclassifiable input; fallbacks are
// surfaced here so the driver can log them.
type Fallback struct {
	Field  string
	Code   string
	Reason string
}

// Report accumulates the non-fatal degradations of one transform.
type Report struct {
	Fallbacks []Fallback
}

// note records a resolution in the report when it fell back.
func (r *Report) note(field string, res Resolution) {
	if res.Fallback {
		r.Fallbacks = append(r.Fallbacks, Fallback{Field: field, Code: res.Code, Reason: res.Reason})
	}
}

// derivedFrom links the record back to its portal page.
func derivedFrom(u string) record.RelatedIdentifier {
	return record.RelatedIdentifier{
		Identifier: u,
		Scheme:     "url",
		RelationType: record.RelationType{
			ID:    "isderivedfrom",
			Title: map[string]string{"de": "Wird abgeleitet von", "en": "Is derived from"},
		},
	}
}

// documentedBy links the record to a source attachment.
func documentedBy(u string) record.RelatedIdentifier {
	return record.RelatedIdentifier{
		Identifier: u,
		Scheme:     "url",
		RelationType: record.RelationType{
			ID:    "isdocumentedby",
			Title: map[string]string{"de": "Wird dokumentiert von", "en": "Is documented by"},
		},
	}
}

// numberSet collects numeric identifiers extracted from free-text numbered
// fields, deduplicated in first-seen order. Identifiers stay strings; the
// concatenated digit runs of a field can exceed any machine integer.
type numberSet struct {
	seen  map[string]struct{}
	order []string
}

func newNumberSet() *numberSet {
	return &numberSet{seen: map[string]struct{}{}}
}

// add extracts the digit runs of s and records the resulting identifier.
// Fields without digits contribute nothing.
func (n *numberSet) add(s string) {
	id := ExtractNumber(s)
	if id == "" {
		return
	}
	if _, dup := n.seen[id]; dup {
		return
	}
	n.seen[id] = struct{}{}
	n.order = append(n.order, id)
}

// values returns the identifiers in first-seen order; nil when empty.
func (n *numberSet) values() []string {
	if len(n.order) == 0 {
		return nil
	}
	return n.order
}
