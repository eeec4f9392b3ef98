package transform

import (
	"strings"

	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/record"
)

// PersonResolver builds the deduplicated creator and contributor lists of a
// record from the overlapping people lists of a source entry (authors,
// spokespersons, contact persons, advisors). Identity is the NFC-normalized
// (given, family) name pair; the first occurrence wins, so an author who is
// also a spokesperson appears once, as a creator.
type PersonResolver struct {
	seen         map[string]struct{}
	creators     []record.Contributor
	contributors []record.Contributor
}

// NewPersonResolver returns an empty resolver.
func NewPersonResolver() *PersonResolver {
	return &PersonResolver{seen: map[string]struct{}{}}
}

// AddCreator appends to metadata.creators unless the identity was already
// seen.
func (r *PersonResolver) AddCreator(c record.Contributor) {
	if r.mark(c) {
		r.creators = append(r.creators, c)
	}
}

// AddContributor appends to metadata.contributors unless the identity was
// already seen.
func (r *PersonResolver) AddContributor(c record.Contributor) {
	if r.mark(c) {
		r.contributors = append(r.contributors, c)
	}
}

func (r *PersonResolver) mark(c record.Contributor) bool {
	key := identityKey(c.PersonOrOrg)
	if _, dup := r.seen[key]; dup {
		return false
	}
	r.seen[key] = struct{}{}
	return true
}

// Creators returns the deduplicated creator list, falling back to the
// organizational placeholder when no personal creator was added.
// metadata.creators must never be empty.
func (r *PersonResolver) Creators() []record.Contributor {
	if len(r.creators) == 0 {
		return []record.Contributor{
			record.OrganizationalCreator("Thomas Jefferson National Accelerator Facility"),
		}
	}
	return r.creators
}

// Contributors returns the deduplicated contributor list; may be empty.
func (r *PersonResolver) Contributors() []record.Contributor {
	return r.contributors
}

// fromNamed builds a contributor from a pre-split proposal person with the
// given role. The institution, when present, becomes an affiliation after
// alias canonicalization.
func fromNamed(p mis.NamedPerson, roleID string) record.Contributor {
	c := record.Contributor{
		PersonOrOrg: record.PersonOrOrg{
			Type:       "personal",
			GivenName:  strings.TrimSpace(p.FirstName),
			FamilyName: strings.TrimSpace(p.LastName),
		},
		Role: &record.Role{ID: roleID},
	}
	if inst := strings.TrimSpace(p.Institution); inst != "" {
		c.Affiliations = []record.Affiliation{{Name: canonicalInstitution(inst)}}
	}
	return c
}

// fromFullName builds a researcher contributor from a publication author.
// The affiliation prefers the full institution name, truncated at its first
// comma; the short name is the fallback. Returns ok=false when the author
// has no name at all.
func fromFullName(p mis.FullNamePerson) (record.Contributor, bool) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return record.Contributor{}, false
	}
	c := record.Contributor{
		PersonOrOrg: SplitName(name),
		Role: &record.Role{
			ID:    record.RoleResearcher,
			Title: map[string]string{"de": "WissenschaftlerIn", "en": "Researcher"},
		},
	}
	inst := strings.TrimSpace(strings.SplitN(p.InstitutionFullname, ",", 2)[0])
	if inst == "" {
		inst = strings.TrimSpace(p.Institution)
	}
	if inst != "" {
		c.Affiliations = []record.Affiliation{{Name: canonicalInstitution(inst)}}
	}
	return c, true
}
