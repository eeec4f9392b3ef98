package transform

import (
	"regexp"
	"strconv"
	"strings"
)

// Resolution is the outcome of a classification lookup. Resolutions never
// fail: when no table entry matches, Code carries the sentinel for the table
// and Fallback records why, so diagnostics can distinguish a real match from
// a degraded one.
type Resolution struct {
	Code     string
	Fallback bool
	Reason   string
}

func resolved(code string) Resolution {
	return Resolution{Code: code}
}

func fallback(code, reason string) Resolution {
	return Resolution{Code: code, Fallback: true, Reason: reason}
}

// StatusUnknown is the sentinel status code for unmatched status phrases.
const StatusUnknown = "U"

// proposalStatuses maps the PAC status phrase to its status code. Matching
// goes through normalizeStatus on both sides, so the "A- " label prefix and
// any trailing parenthetical never participate in the comparison.
var proposalStatuses = map[string]string{
	"A- Approved":                                      "A",
	"AT- Approved Test":                                "AT",
	"C1- Conditionally Approve w/Technical Review":     "C1",
	"C2- Conditionally Approve 2/PAC Review":           "C2",
	"C3- Conditionally Approve, based on availability": "C3",
	"C- Conditionally Approve":                         "C",
	"D- Deffered":                                      "D",
	"O- Dropped":                                       "O",
	"S- MPS Not yet funded":                            "S",
	"N- New":                                           "N",
	"P- Pass":                                          "P",
	"R- Rejected":                                      "R",
	"Q- Replaced":                                      "Q",
	"H- Run Group Proposals":                           "H",
	"G- Run Group Additions":                           "G",
	"U- Unknown":                                       "U",
	"W- Withdrawn":                                     "W",
}

// statusNoise matches the leading "X:"/"X-" code label and any trailing
// parenthetical of a status phrase.
var statusNoise = regexp.MustCompile(`^.*[:\-]\s*|\s*\(.+`)

// normalizeStatus strips the code label and trailing parenthetical, leaving
// only the bare phrase for comparison.
func normalizeStatus(s string) string {
	return strings.TrimSpace(statusNoise.ReplaceAllString(s, ""))
}

// ResolveStatus maps a free-text proposal status phrase to its status code.
// Total: any input, including the empty string, resolves to a valid code,
// with StatusUnknown as the no-match sentinel. Two synonyms used by the
// source but absent from the table are special-cased before lookup.
func ResolveStatus(status string) Resolution {
	phrase := normalizeStatus(status)
	if phrase == "" {
		return fallback(StatusUnknown, "empty status")
	}
	switch strings.ToLower(phrase) {
	case "deferred":
		return resolved("D")
	case "conditionally approved":
		return resolved("C")
	}
	for key, code := range proposalStatuses {
		if normalizeStatus(key) == phrase {
			return resolved(code)
		}
	}
	return fallback(StatusUnknown, "no status table entry for "+strconv.Quote(phrase))
}

// Division sentinels.
const (
	DivisionOther     = "OTHERS"
	DivisionENPHOther = "ENPH-OTHER"
)

// hallDivisions maps an experimental hall letter to its division id. The
// proposal source names halls by letter; the lookup matches on the division
// id value, case-insensitively.
var hallDivisions = map[string]string{
	"A": "ENPH-EH-HA",
	"B": "ENPH-EH-HB",
	"C": "ENPH-EH-HC",
	"D": "ENPH-EH-HD",
}

// ResolveHall maps a proposal's experimental hall string to its hall letter.
// The match is against the division id value, not the key, and is
// case-insensitive. Matching on the value looks backwards but is what the
// portal has always sent; changing it would reclassify every record synced to
// date.
func ResolveHall(hall string) Resolution {
	for letter, id := range hallDivisions {
		if strings.EqualFold(id, hall) {
			return resolved(letter)
		}
	}
	return fallback(DivisionOther, "no hall entry for "+strconv.Quote(hall))
}

// publicationDivisions maps the full division string of a publication record
// to its division id. Lookup is case-sensitive, unlike the proposal hall
// table.
var publicationDivisions = map[string]string{
	"12 Gev Director's Office":                                              "12DO",
	"Accelerator Ops, R&D":                                                  "AORD",
	"CFO Div Summary":                                                       "CFO",
	"Chief Operting Officr Off":                                             "COO",
	"Chief Scientist Office":                                                "CSO",
	"Directorate":                                                           "DIR",
	"EIC":                                                                   "EIC",
	"ES&H Division":                                                         "ESHD",
	"Comp Sci&Tech (CST) Div":                                               "CSDS",
	"Engineering Division":                                                  "ENG",
	"Exp Nuclear Physics / Technical Support Groups":                        "ENPTSG-CP",
	"Exp Nuclear Physics / Physics Division Office":                         "ENPH-PDO-ADMIN",
	"Exp Nuclear Physics / Experimental Halls / Physics Magnet":             "ENPH-EH-PM",
	"Exp Nuclear Physics / Experimental Halls / Hall A":                     "ENPH-EH-HA",
	"Exp Nuclear Physics / Experimental Halls / Hall B":                     "ENPH-EH-HB",
	"Exp Nuclear Physics / Experimental Halls / Hall C":                     "ENPH-EH-HC",
	"Exp Nuclear Physics / Experimental Halls / Hall D":                     "ENPH-EH-HD",
	"Exp Nuclear Physics / Experimental Halls / Physics EIC":                "ENPH-EHPH",
	"Exp Nuclear Physics / Experimental Halls / Hall B&D Technical Support": "ENPH-EHBDTS",
	"Exp Nuclear Physics / OTHERS":                                          "ENPH-OTHER",
	"FEL & CTO":                                                             "FEL-CTO",
	"Facilities & Logistcs Mgt":                                             "FLM",
	"Proj Mgmt & Integration":                                               "PMI",
	"SNS PPU":                                                               "SPPU",
	"Theory & Comp Physics":                                                 "TCP",
	"OTHERS":                                                                "OTHERS",
}

// ResolveDivision maps a publication's full division string to a division id.
// Experimental-physics divisions ("Exp ..." first segment) are matched on the
// full hierarchical string with ENPH-OTHER as their sentinel; everything else
// is matched on the first "/"-delimited segment with OTHERS as the sentinel.
// Always returns a non-empty code.
func ResolveDivision(division string) Resolution {
	if strings.TrimSpace(division) == "" {
		return fallback(DivisionOther, "empty division")
	}
	first := strings.TrimSpace(strings.SplitN(division, "/", 2)[0])
	if strings.HasPrefix(first, "Exp") {
		if id, ok := publicationDivisions[division]; ok {
			return resolved(id)
		}
		return fallback(DivisionENPHOther, "no division entry for "+strconv.Quote(division))
	}
	if id, ok := publicationDivisions[first]; ok {
		return resolved(id)
	}
	return fallback(DivisionOther, "no division entry for "+strconv.Quote(first))
}
