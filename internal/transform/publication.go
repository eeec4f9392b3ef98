package transform

import (
	"strconv"
	"strings"

	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/record"
)

// PublicationKeyField is the custom field carrying a publication's natural
// key.
const PublicationKeyField = "rdm:pubID"

// PublicationMapper transforms STI publication records into deposit payloads.
type PublicationMapper struct {
	CommunityID string
}

// Transform maps one publication. Total in the same sense as the proposal
// mapper: optional gaps are omissions, classification misses are sentinels.
func (m PublicationMapper) Transform(p *mis.Publication) (*record.Record, Report) {
	var rep Report
	r := record.New(m.CommunityID)

	r.Metadata.Title = p.Title
	r.Metadata.Description = p.Abstract
	r.Metadata.PublicationDate = PublicationDate(p.PublicationDate)
	if d := strings.TrimSpace(p.SubmitDate); d != "" {
		r.Metadata.Dates = []record.Date{{Date: d, Type: record.DateType{ID: "submitted"}}}
	}

	people := NewPersonResolver()
	for _, a := range p.Authors {
		if c, ok := fromFullName(a); ok {
			people.AddCreator(c)
		}
	}

	r.CustomFields[PublicationKeyField] = p.PubID.String()

	division := ResolveDivision(p.Affiliation)
	rep.note("affiliation", division)
	if strings.TrimSpace(p.Affiliation) != "" {
		r.CustomFields["rdm:full_division"] = p.Affiliation
	}
	r.CustomFields["rdm:division"] = []map[string]string{{"id": division.Code}}

	m.addReportNumber(r, "rdm:jlab_number", p.JLabNumber.String())
	m.addReportNumber(r, "rdm:osti_number", p.OSTINumber.String())
	m.addReportNumber(r, "rdm:lanl_number", p.LANLNumber.String())
	m.addReportNumber(r, "rdm:doi", p.DOI)

	if strings.EqualFold(strings.TrimSpace(p.LDRDFunding), "yes") {
		r.CustomFields["rdm:isldrd"] = true
	}
	for _, prop := range p.Proposals {
		if n := prop.ProposalNum.String(); n != "" {
			r.CustomFields["rdm:ldrd_number"] = n
		}
	}

	if len(p.Experiments) > 0 {
		numbers := make([]string, 0, len(p.Experiments))
		ids := newNumberSet()
		for _, e := range p.Experiments {
			numbers = append(numbers, e.PaperID)
			ids.add(e.PaperID)
		}
		r.CustomFields["rdm:experiment_number"] = numbers
		if v := ids.values(); v != nil {
			r.CustomFields["rdm:expID"] = v
		}
	}

	for _, a := range p.Attachments {
		if a.URL != "" {
			r.Metadata.RelatedIdentifiers = append(r.Metadata.RelatedIdentifiers, documentedBy(a.URL))
		}
	}
	if u := p.Links.HTMLRecordURL; u != "" {
		r.Metadata.RelatedIdentifiers = append(r.Metadata.RelatedIdentifiers, derivedFrom(u))
	}

	m.classifyDocument(p, r, people, &rep)

	r.Metadata.Creators = people.Creators()
	r.Metadata.Contributors = people.Contributors()

	return r, rep
}

// addReportNumber routes an external identifier field by detected scheme:
// persistent identifiers and URLs become metadata identifiers, everything
// else stays an opaque custom field under its source name.
func (m PublicationMapper) addReportNumber(r *record.Record, field, raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return
	}
	if scheme, value, ok := DetectScheme(raw); ok {
		r.Metadata.Identifiers = append(r.Metadata.Identifiers, record.Identifier{
			Identifier: value,
			Scheme:     scheme,
		})
		return
	}
	r.CustomFields[field] = raw
}

// classifyDocument branches on the source document type and fills in the
// resource type plus the type-specific custom field shape. Unrecognized
// types degrade to "other" with no shape.
func (m PublicationMapper) classifyDocument(p *mis.Publication, r *record.Record, people *PersonResolver, rep *Report) {
	docType := strings.ToLower(strings.TrimSpace(p.DocumentType))
	switch docType {
	case "journal article":
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeArticle}
		r.CustomFields["journal:journal"] = journalShape(p.JournalName, p.Issue.String(), p.Volume.String(), p.Pages.String())

	case "thesis":
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeThesis}
		if inst := strings.TrimSpace(strings.SplitN(p.PrimaryInstitution, ",", 2)[0]); inst != "" {
			r.CustomFields["thesis:university"] = inst
		}
		for _, t := range p.Theses {
			name := strings.TrimSpace(t.Advisor)
			if name == "" {
				continue
			}
			adv := record.Contributor{
				PersonOrOrg: SplitName(name),
				Role:        &record.Role{ID: record.RoleSupervisor, Title: map[string]string{"en": "Supervisor"}},
			}
			if inst := strings.TrimSpace(t.Institution); inst != "" {
				adv.Affiliations = []record.Affiliation{{Name: canonicalInstitution(inst)}}
			}
			people.AddContributor(adv)
		}

	case "book":
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeBook}
		if p.BookTitle != "" {
			r.CustomFields["imprint:imprint"] = map[string]string{"title": p.BookTitle}
		}

	case "meeting":
		subtype := strings.ToLower(p.DocumentSubtype)
		switch {
		case strings.Contains(subtype, "talk"):
			r.Metadata.ResourceType = record.ResourceType{ID: record.TypePresentation}
		case strings.Contains(subtype, "poster"):
			r.Metadata.ResourceType = record.ResourceType{ID: record.TypePoster}
		case strings.Contains(subtype, "paper"):
			r.Metadata.ResourceType = record.ResourceType{ID: record.TypeProceeding}
		default:
			r.Metadata.ResourceType = record.ResourceType{ID: record.TypeOther}
			rep.note("document_subtype", fallback(record.TypeOther, "unrecognized meeting subtype "+strconv.Quote(p.DocumentSubtype)))
		}
		r.CustomFields["meeting:meeting"] = map[string]string{
			"title": p.MeetingName,
			"dates": p.MeetingDate,
		}

	case "proceedings":
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeProceeding}
		if p.ProceedingTitle != "" {
			r.CustomFields["journal:journal"] = journalShape(p.Publisher, p.Issue.String(), p.Volume.String(), p.Pages.String())
		}

	case "other":
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeOther}

	default:
		r.Metadata.ResourceType = record.ResourceType{ID: record.TypeOther}
		rep.note("document_type", fallback(record.TypeOther, "unrecognized document type "+strconv.Quote(p.DocumentType)))
	}
}

// journalShape is the journal:journal custom field payload, shared by
// articles and proceedings.
func journalShape(title, issue, volume, pages string) map[string]string {
	return map[string]string{
		"title":  title,
		"issue":  issue,
		"volume": volume,
		"pages":  pages,
	}
}
