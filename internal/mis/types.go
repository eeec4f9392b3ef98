// Package mis is the client for the MIS portal source services: the PAC
// proposal database and the STI publication database. Both expose JSON over
// HTTP GET with query parameters selecting a date window.
//
// Source records are loosely typed: numeric fields arrive as numbers or
// strings depending on the record, and optional fields are frequently absent
// or null. Flexible absorbs that variance so the transform never has to.
package mis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Flexible is a string that unmarshals from a JSON string, number, or null.
type Flexible string

// UnmarshalJSON accepts "x", 42, 4.2, and null.
func (f *Flexible) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = Flexible(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = Flexible(n.String())
	return nil
}

// String returns the underlying value.
func (f Flexible) String() string { return string(f) }

// Int parses the value as an integer, tolerating a decimal suffix.
// Returns 0, false when the value is empty or not numeric.
func (f Flexible) Int() (int, bool) {
	s := string(f)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float parses the value as a float. Returns 0, false when empty or invalid.
func (f Flexible) Float() (float64, bool) {
	if f == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(f), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NamedPerson is an author entry with pre-split name parts (proposal lists).
type NamedPerson struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Institution string `json:"institution"`
}

// FullNamePerson is an author entry with a single display name (publication
// lists). InstitutionFullname, when present, is preferred over Institution.
type FullNamePerson struct {
	Name                string `json:"name"`
	Institution         string `json:"institution"`
	InstitutionFullname string `json:"institution_fullname"`
}

// Attachment is a supplementary file link on a source record.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Proposal is one entry from the PAC proposal database.
type Proposal struct {
	ID               Flexible      `json:"id"`
	Title            string        `json:"title"`
	SubmittedDate    string        `json:"submitted_date"`
	ModificationDate string        `json:"modification_date"`
	PACNumber        Flexible      `json:"pac_number"`
	ProposalNumber   string        `json:"proposal_number"`
	ExperimentNumber string        `json:"experiment_number"`
	ExperimentHall   string        `json:"experiment_hall"`
	Status           string        `json:"status"`
	Rating           string        `json:"rating"`
	BeamDays         Flexible      `json:"beam_days"`
	Authors          []NamedPerson `json:"authors"`
	Spokespersons    []NamedPerson `json:"spokespersons"`
	ContactPersons   []NamedPerson `json:"contactpersons"`
	Links            ProposalLinks `json:"links"`
	Attachments      []Attachment  `json:"attachments"`
}

// ProposalLinks carries the portal URLs for one proposal.
type ProposalLinks struct {
	ProposalHTMLURL string `json:"proposal_html_url"`
}

// Publication is the full record fetched per entry from the STI publication
// database. The search endpoint returns only a summary; the full body comes
// from a second GET against PublicationSummary.JSONRecordURL.
type Publication struct {
	PubID            Flexible         `json:"pub_id"`
	Title            string           `json:"title"`
	Abstract         string           `json:"abstract"`
	SubmitDate       string           `json:"submit_date"`
	ModificationDate string           `json:"modification_date"`
	PublicationDate  string           `json:"publication_date"`
	Affiliation      string           `json:"affiliation"`
	DOI              string           `json:"doi"`
	JLabNumber       Flexible         `json:"jlab_number"`
	OSTINumber       Flexible         `json:"osti_number"`
	LANLNumber       Flexible         `json:"lanl_number"`
	LDRDFunding      string           `json:"ldrd_funding"`
	Proposals        []LDRDProposal   `json:"proposals"`
	Experiments      []Experiment     `json:"experiments"`
	Authors          []FullNamePerson `json:"authors"`
	Attachments      []Attachment     `json:"attachments"`
	Links            PublicationLinks `json:"links"`

	DocumentType    string `json:"document_type"`
	DocumentSubtype string `json:"document_subtype"`

	JournalName        string      `json:"journal_name"`
	Volume             Flexible    `json:"volume"`
	Issue              Flexible    `json:"issue"`
	Pages              Flexible    `json:"pages"`
	PrimaryInstitution string      `json:"primary_institution"`
	Theses             []ThesisRef `json:"theses"`
	BookTitle          string      `json:"book_title"`
	MeetingName        string      `json:"meeting_name"`
	MeetingDate        string      `json:"meeting_date"`
	ProceedingTitle    string      `json:"proceeding_title"`
	Publisher          string      `json:"publisher"`
}

// LDRDProposal links a publication to an LDRD-funded proposal number.
type LDRDProposal struct {
	ProposalNum Flexible `json:"proposal_num"`
}

// Experiment links a publication to an experiment/paper identifier.
type Experiment struct {
	PaperID string `json:"paperid"`
}

// ThesisRef names a thesis advisor on a thesis publication.
type ThesisRef struct {
	Advisor     string `json:"advisor"`
	Institution string `json:"institution"`
}

// PublicationLinks carries the portal URLs for one publication.
type PublicationLinks struct {
	HTMLRecordURL string `json:"html_record_url"`
	JSONRecordURL string `json:"json_record_url"`
}

// PublicationSummary is one entry of the search endpoint's data array. Only
// the fields the driver needs for change detection and the follow-up fetch.
type PublicationSummary struct {
	PubID            Flexible         `json:"pub_id"`
	SubmitDate       string           `json:"submit_date"`
	ModificationDate string           `json:"modification_date"`
	JSONRecordURL    string           `json:"json_record_url"`
	Links            PublicationLinks `json:"links"`
}

// RecordURL returns the full-record JSON URL. The portal has carried it both
// at the top level and under links; the top-level form wins when both are
// present.
func (s PublicationSummary) RecordURL() string {
	if s.JSONRecordURL != "" {
		return s.JSONRecordURL
	}
	return s.Links.JSONRecordURL
}

// Unchanged reports whether a record's last modification coincides with its
// submission, meaning nothing changed since creation. Such records are
// excluded from the modify batch entirely.
func Unchanged(submitDate, modificationDate string) bool {
	return strings.TrimSpace(submitDate) == strings.TrimSpace(modificationDate)
}
