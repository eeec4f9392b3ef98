package transform

import (
	"strings"

	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/record"
)

// ProposalKeyField is the custom field carrying a proposal's natural key.
const ProposalKeyField = "pac:pacID"

// ProposalMapper transforms PAC proposal records into deposit payloads.
type ProposalMapper struct {
	CommunityID string
}

// Transform maps one proposal. Total: missing optional fields are omitted
// and unclassifiable values degrade to sentinels, reported but never fatal.
func (m ProposalMapper) Transform(p *mis.Proposal) (*record.Record, Report) {
	var rep Report
	r := record.New(m.CommunityID)

	r.Metadata.Title = p.Title
	r.Metadata.ResourceType = record.ResourceType{ID: record.TypeProposal}
	r.Metadata.PublicationDate = strings.TrimSpace(p.SubmittedDate)

	people := NewPersonResolver()
	for _, a := range p.Authors {
		people.AddCreator(fromNamed(a, record.RoleResearcher))
	}
	for _, s := range p.Spokespersons {
		people.AddContributor(fromNamed(s, record.RoleProjectLeader))
	}
	for _, c := range p.ContactPersons {
		people.AddContributor(fromNamed(c, record.RoleContactPerson))
	}
	r.Metadata.Creators = people.Creators()
	r.Metadata.Contributors = people.Contributors()

	if u := p.Links.ProposalHTMLURL; u != "" {
		r.Metadata.RelatedIdentifiers = append(r.Metadata.RelatedIdentifiers, derivedFrom(u))
	}
	for _, a := range p.Attachments {
		if a.URL != "" {
			r.Metadata.RelatedIdentifiers = append(r.Metadata.RelatedIdentifiers, documentedBy(a.URL))
		}
	}

	r.CustomFields[ProposalKeyField] = p.ID.String()
	if n, ok := p.PACNumber.Int(); ok {
		r.CustomFields["pac:pac_number"] = n
	}
	if p.ProposalNumber != "" {
		r.CustomFields["pac:proposal_number"] = p.ProposalNumber
	}
	if v, ok := p.BeamDays.Float(); ok {
		r.CustomFields["pac:beam_days"] = v
	}
	if p.Rating != "" {
		r.CustomFields["pac:pac_rating"] = map[string]string{"id": p.Rating}
	}
	if p.Status != "" {
		status := ResolveStatus(p.Status)
		rep.note("status", status)
		r.CustomFields["pac:pac_status"] = map[string]string{"id": status.Code}
	}
	if p.ExperimentNumber != "" {
		r.CustomFields["pac:experiment_number"] = p.ExperimentNumber
	}

	nums := newNumberSet()
	nums.add(p.ExperimentNumber)
	nums.add(p.ProposalNumber)
	if ids := nums.values(); ids != nil {
		r.CustomFields["rdm:expID"] = ids
	}

	if p.ExperimentHall != "" {
		hall := ResolveHall(p.ExperimentHall)
		rep.note("experiment_hall", hall)
		r.CustomFields["rdm:division"] = []map[string]string{{"id": hall.Code}}
	}

	return r, rep
}
