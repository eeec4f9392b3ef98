// Package record defines the target repository's record schema.
//
// A Record is the payload shape accepted by the InvenioRDM records API:
// standard metadata, namespaced custom fields, fixed access policy, and the
// community the record is submitted to. Records are built fresh for every
// source entry; the only identity that survives across runs is the natural
// key stamped into custom fields.
package record

// Record is one deposit payload for the target repository.
type Record struct {
	Access       Access       `json:"access"`
	Files        Files        `json:"files"`
	Metadata     Metadata     `json:"metadata"`
	CustomFields CustomFields `json:"custom_fields,omitempty"`
	Communities  *Communities `json:"communities,omitempty"`
}

// Metadata is the standard (non-namespaced) metadata section.
type Metadata struct {
	ResourceType       ResourceType        `json:"resource_type"`
	Title              string              `json:"title"`
	Description        string              `json:"description,omitempty"`
	PublicationDate    string              `json:"publication_date,omitempty"`
	Creators           []Contributor       `json:"creators"`
	Contributors       []Contributor       `json:"contributors,omitempty"`
	Identifiers        []Identifier        `json:"identifiers,omitempty"`
	RelatedIdentifiers []RelatedIdentifier `json:"related_identifiers,omitempty"`
	Rights             []Right             `json:"rights,omitempty"`
	Dates              []Date              `json:"dates,omitempty"`
}

// ResourceType classifies the record kind in the target vocabulary.
type ResourceType struct {
	ID string `json:"id"`
}

// Resource type ids used by the transform.
const (
	TypeProposal     = "publication-proposal"
	TypeArticle      = "publication-article"
	TypeThesis       = "publication-thesis"
	TypeBook         = "publication-book"
	TypeProceeding   = "publication-conferenceproceeding"
	TypePresentation = "presentation"
	TypePoster       = "poster"
	TypeOther        = "other"
)

// PersonOrOrg names a creator or contributor. Type is "personal" (given and
// family names set) or "organizational" (Name set).
type PersonOrOrg struct {
	Type       string `json:"type"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Name       string `json:"name,omitempty"`
}

// Role identifies the relation of a person to the record.
type Role struct {
	ID    string            `json:"id"`
	Title map[string]string `json:"title,omitempty"`
}

// Role ids in the target vocabulary.
const (
	RoleResearcher    = "researcher"
	RoleProjectLeader = "projectleader"
	RoleContactPerson = "contactperson"
	RoleSupervisor    = "supervisor"
	RoleOther         = "other"
)

// Affiliation is a free-text institution name.
type Affiliation struct {
	Name string `json:"name"`
}

// Contributor is one entry in metadata.creators or metadata.contributors.
type Contributor struct {
	PersonOrOrg  PersonOrOrg   `json:"person_or_org"`
	Role         *Role         `json:"role,omitempty"`
	Affiliations []Affiliation `json:"affiliations,omitempty"`
}

// Identifier is an external persistent identifier with a detected scheme.
type Identifier struct {
	Identifier string `json:"identifier"`
	Scheme     string `json:"scheme"`
}

// RelatedIdentifier links the record to an external resource.
type RelatedIdentifier struct {
	Identifier   string       `json:"identifier"`
	Scheme       string       `json:"scheme"`
	RelationType RelationType `json:"relation_type"`
}

// RelationType describes how a related identifier relates to the record.
type RelationType struct {
	ID    string            `json:"id"`
	Title map[string]string `json:"title,omitempty"`
}

// Date is a typed date entry in metadata.dates.
type Date struct {
	Date string   `json:"date"`
	Type DateType `json:"type"`
}

// DateType identifies the kind of a metadata date.
type DateType struct {
	ID string `json:"id"`
}

// Right is a license entry in metadata.rights.
type Right struct {
	ID          string            `json:"id"`
	Icon        string            `json:"icon,omitempty"`
	Props       map[string]string `json:"props,omitempty"`
	Title       map[string]string `json:"title,omitempty"`
	Description map[string]string `json:"description,omitempty"`
}

// Access is the record-level visibility policy.
type Access struct {
	Record  string  `json:"record"`
	Files   string  `json:"files"`
	Embargo Embargo `json:"embargo"`
}

// Embargo is carried for schema completeness; records are never embargoed.
type Embargo struct {
	Active bool `json:"active"`
}

// Files controls whether file uploads are enabled for the record.
type Files struct {
	Enabled bool `json:"enabled"`
}

// Communities requests membership in target collections.
type Communities struct {
	IDs []string `json:"ids"`
}

// CustomFields holds namespaced domain attributes outside the standard schema,
// e.g. "rdm:pubID", "pac:pac_status", "journal:journal".
type CustomFields map[string]any

// String returns the named field as a string, or "" when absent or non-string.
func (c CustomFields) String(key string) string {
	s, _ := c[key].(string)
	return s
}

// New returns a record with the fixed access and rights policy applied and
// community membership set. Every transformed record starts from here.
func New(communityID string) *Record {
	r := &Record{
		Access: Access{Record: "public", Files: "public"},
		Files:  Files{Enabled: false},
		Metadata: Metadata{
			Rights: DefaultRights(),
		},
		CustomFields: CustomFields{},
	}
	if communityID != "" {
		r.Communities = &Communities{IDs: []string{communityID}}
	}
	return r
}

// DefaultRights is the single fixed rights entry applied to every record.
func DefaultRights() []Right {
	return []Right{{
		ID:   "cc-by-4.0",
		Icon: "cc-by-icon",
		Props: map[string]string{
			"url":    "https://creativecommons.org/licenses/by/4.0/legalcode",
			"scheme": "spdx",
		},
		Title: map[string]string{"en": "Creative Commons Attribution 4.0 International"},
		Description: map[string]string{
			"en": "The Creative Commons Attribution license allows re-distribution and re-use of a licensed work on the condition that the creator is appropriately credited.",
		},
	}}
}

// OrganizationalCreator is the placeholder creator used when a source entry
// carries no author list. metadata.creators must never be empty.
func OrganizationalCreator(name string) Contributor {
	return Contributor{
		PersonOrOrg: PersonOrOrg{Type: "organizational", Name: name},
		Role:        &Role{ID: RoleOther, Title: map[string]string{"en": "Other"}},
	}
}
