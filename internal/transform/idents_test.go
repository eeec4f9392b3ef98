package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectScheme(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		scheme string
		value  string
		ok     bool
	}{
		{"bare doi", "10.1103/PhysRevLett.127.262501", SchemeDOI, "10.1103/PhysRevLett.127.262501", true},
		{"doi prefix", "doi:10.1103/PhysRevC.104.065201", SchemeDOI, "10.1103/PhysRevC.104.065201", true},
		{"doi prefix uppercase", "DOI: 10.2172/1780263", SchemeDOI, "10.2172/1780263", true},
		{"resolver url", "https://doi.org/10.1088/1361-6471/abf3dc", SchemeDOI, "10.1088/1361-6471/abf3dc", true},
		{"dx resolver url", "http://dx.doi.org/10.1016/j.nima.2021.165123", SchemeDOI, "10.1016/j.nima.2021.165123", true},
		{"arxiv", "arXiv:2104.02031", SchemeArXiv, "arXiv:2104.02031", true},
		{"plain url", "https://misportal.jlab.org/sti/123", SchemeURL, "https://misportal.jlab.org/sti/123", true},
		{"report number is no scheme", "JLAB-PHY-21-3391", "", "", false},
		{"osti accession is no scheme", "1780263", "", "", false},
		{"empty", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheme, value, ok := DetectScheme(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.value, value)
		})
	}
}
