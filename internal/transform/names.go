// Package transform maps source records from the MIS portal into the target
// repository schema: people resolution, classification, identifier handling,
// and the per-kind field mapping. Every function here is total with respect
// to source data: missing or malformed optional fields degrade to sentinels
// or omissions, never to an error.
package transform

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jlab-mis/rdmsync/internal/record"
)

// SplitName splits a display name into given and family parts. The family
// name is the last whitespace-separated token; everything before it, middle
// names included, becomes the given name. A single-token name yields an
// empty given name.
func SplitName(full string) record.PersonOrOrg {
	tokens := strings.Fields(full)
	if len(tokens) == 0 {
		return record.PersonOrOrg{Type: "personal"}
	}
	return record.PersonOrOrg{
		Type:       "personal",
		GivenName:  strings.Join(tokens[:len(tokens)-1], " "),
		FamilyName: tokens[len(tokens)-1],
	}
}

// digitRun matches one maximal run of ASCII digits.
var digitRun = regexp.MustCompile(`\d+`)

// ExtractNumber concatenates every digit run in s into one identifier, so
// "EXP-12 34" and "EXP-1234" both yield "1234". Returns "" when s contains
// no digits.
func ExtractNumber(s string) string {
	runs := digitRun.FindAllString(s, -1)
	if len(runs) == 0 {
		return ""
	}
	return strings.Join(runs, "")
}

// identityKey is the deduplication identity of a person: the NFC-normalized
// (given, family) pair. Two people with the same pair are the same person;
// the first occurrence wins.
func identityKey(p record.PersonOrOrg) string {
	if p.Type == "organizational" {
		return "org\x1f" + norm.NFC.String(p.Name)
	}
	return norm.NFC.String(p.GivenName) + "\x1f" + norm.NFC.String(p.FamilyName)
}

// canonicalInstitution maps known aliases of the lab to its full name. All
// other institution strings pass through unchanged.
func canonicalInstitution(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jefferson lab", "jlab":
		return "Thomas Jefferson National Accelerator Facility"
	}
	return s
}
