package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlab-mis/rdmsync/internal/mis"
	"github.com/jlab-mis/rdmsync/internal/record"
)

func TestPublicationDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"December 2015", "2015-12"},
		{"January 2022", "2022-01"},
		{"Fall 2015", "2015"},
		{"2019", "2019"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublicationDate(tt.input), "input %q", tt.input)
	}
}

func TestPersonResolverDedup(t *testing.T) {
	r := NewPersonResolver()
	author := fromNamed(mis.NamedPerson{FirstName: "Grace", LastName: "Hopper", Institution: "JLab"}, record.RoleResearcher)
	spokesperson := fromNamed(mis.NamedPerson{FirstName: "Grace", LastName: "Hopper"}, record.RoleProjectLeader)

	r.AddCreator(author)
	r.AddCreator(spokesperson)
	r.AddContributor(spokesperson)

	creators := r.Creators()
	require.Len(t, creators, 1)
	assert.Equal(t, record.RoleResearcher, creators[0].Role.ID)
	assert.Empty(t, r.Contributors())
}

func TestPersonResolverDedupAcrossLists(t *testing.T) {
	r := NewPersonResolver()
	p := fromNamed(mis.NamedPerson{FirstName: "Enrico", LastName: "Fermi"}, record.RoleContactPerson)
	r.AddContributor(p)
	r.AddCreator(p)

	// The contributor entry won; the later creator add is a no-op.
	assert.Empty(t, r.creators)
	require.Len(t, r.Contributors(), 1)
	require.Len(t, r.Creators(), 1)
	assert.Equal(t, "organizational", r.Creators()[0].PersonOrOrg.Type)
}

func TestPersonResolverOrganizationalFallback(t *testing.T) {
	creators := NewPersonResolver().Creators()
	require.Len(t, creators, 1)
	assert.Equal(t, "organizational", creators[0].PersonOrOrg.Type)
	assert.Equal(t, "Thomas Jefferson National Accelerator Facility", creators[0].PersonOrOrg.Name)
}

func TestFromNamed(t *testing.T) {
	c := fromNamed(mis.NamedPerson{FirstName: " Lise ", LastName: "Meitner", Institution: "jlab"}, record.RoleProjectLeader)
	assert.Equal(t, "Lise", c.PersonOrOrg.GivenName)
	assert.Equal(t, "Meitner", c.PersonOrOrg.FamilyName)
	require.Len(t, c.Affiliations, 1)
	assert.Equal(t, "Thomas Jefferson National Accelerator Facility", c.Affiliations[0].Name)
}

func TestFromFullName(t *testing.T) {
	t.Run("full institution truncated at comma", func(t *testing.T) {
		c, ok := fromFullName(mis.FullNamePerson{
			Name:                "Chien-Shiung Wu",
			Institution:         "CU",
			InstitutionFullname: "Columbia University, New York, NY",
		})
		require.True(t, ok)
		assert.Equal(t, "Chien-Shiung", c.PersonOrOrg.GivenName)
		assert.Equal(t, "Wu", c.PersonOrOrg.FamilyName)
		require.Len(t, c.Affiliations, 1)
		assert.Equal(t, "Columbia University", c.Affiliations[0].Name)
	})

	t.Run("short institution fallback", func(t *testing.T) {
		c, ok := fromFullName(mis.FullNamePerson{Name: "Paul Dirac", Institution: "Jefferson Lab"})
		require.True(t, ok)
		require.Len(t, c.Affiliations, 1)
		assert.Equal(t, "Thomas Jefferson National Accelerator Facility", c.Affiliations[0].Name)
	})

	t.Run("nameless author rejected", func(t *testing.T) {
		_, ok := fromFullName(mis.FullNamePerson{Institution: "JLab"})
		assert.False(t, ok)
	})
}
