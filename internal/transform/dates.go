package transform

import (
	"strings"
	"time"
)

// PublicationDate normalizes a source publication date. The source emits a
// "Month Year" form ("December 2015"); that parses to "2006-01" precision.
// Anything else degrades to the trailing whitespace-separated token, which
// for the source data is the year. Never fails; an empty input stays empty.
func PublicationDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if t, err := time.Parse("January 2006", s); err == nil {
		return t.Format("2006-01")
	}
	tokens := strings.Fields(s)
	return tokens[len(tokens)-1]
}
