package matching

import (
	"testing"
	"time"

	"skillbridge-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func opp(id string, ageHours int, title string, skills []string, location *string, status domain.OpportunityStatus) domain.Opportunity {
	return domain.Opportunity{
		ID:             id,
		NGOID:          "ngo-1",
		Title:          title,
		RequiredSkills: skills,
		Location:       location,
		Status:         status,
		CreatedAt:      base.Add(-time.Duration(ageHours) * time.Hour),
	}
}

func ids(list []domain.Opportunity) []string {
	out := make([]string, 0, len(list))
	for _, o := range list {
		out = append(out, o.ID)
	}
	return out
}

func scenarioPool() []domain.Opportunity {
	return []domain.Opportunity{
		opp("X", 1, "Translate brochures", []string{"translation"}, strPtr("Remote"), domain.OpportunityStatusOpen),
		opp("Y", 2, "Gala night", []string{"event planning"}, strPtr("Berlin"), domain.OpportunityStatusOpen),
		opp("Z", 3, "Translate website", []string{"translation"}, strPtr("Remote"), domain.OpportunityStatusClosed),
	}
}

func TestMatch_SkillAndStatusFilters(t *testing.T) {
	pool := scenarioPool()

	got := Match(nil, pool, Filters{RequiredSkills: []string{"Translation"}})
	assert.Equal(t, []string{"X"}, ids(got))

	got = Match(nil, pool, Filters{
		RequiredSkills: []string{"translation"},
		Statuses:       []domain.OpportunityStatus{domain.OpportunityStatusOpen, domain.OpportunityStatusClosed},
	})
	assert.Equal(t, []string{"X", "Z"}, ids(got))
}

func TestMatch_DefaultsToOpen(t *testing.T) {
	got := Match(nil, scenarioPool(), Filters{})
	assert.Equal(t, []string{"X", "Y"}, ids(got))

	got = Match(nil, scenarioPool(), Filters{Statuses: []domain.OpportunityStatus{"archived"}})
	assert.Equal(t, []string{"X", "Y"}, ids(got), "unknown statuses fall back to the default")
}

func TestMatch_SearchText(t *testing.T) {
	pool := scenarioPool()
	pool[1].Description = strPtr("Help us TRANSLATE the menu")

	got := Match(nil, pool, Filters{SearchText: "  translate "})
	assert.Equal(t, []string{"X", "Y"}, ids(got))
}

func TestMatch_NullFieldsNeverMatchText(t *testing.T) {
	pool := []domain.Opportunity{
		opp("A", 1, "Logo design", []string{"design"}, nil, domain.OpportunityStatusOpen),
	}
	assert.Empty(t, Match(nil, pool, Filters{Location: "remote"}))
	assert.Empty(t, Match(nil, pool, Filters{SearchText: "brochure"}))
	assert.Len(t, Match(nil, pool, Filters{SearchText: "LOGO"}), 1)
}

func TestMatch_MalformedSkillsIgnored(t *testing.T) {
	got := Match(nil, scenarioPool(), Filters{RequiredSkills: []string{"  ", ""}})
	assert.Equal(t, []string{"X", "Y"}, ids(got))
}

func TestMatch_OrderingTieBreak(t *testing.T) {
	pool := []domain.Opportunity{
		opp("b", 0, "One", nil, nil, domain.OpportunityStatusOpen),
		opp("a", 0, "Two", nil, nil, domain.OpportunityStatusOpen),
		opp("c", 5, "Three", nil, nil, domain.OpportunityStatusOpen),
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(Match(nil, pool, Filters{})))
}

func TestMatch_IsPureAndIdempotent(t *testing.T) {
	pool := scenarioPool()
	before := ids(pool)
	f := Filters{SearchText: "translate", Statuses: []domain.OpportunityStatus{domain.OpportunityStatusClosed, domain.OpportunityStatusOpen}}

	first := Match(nil, pool, f)
	second := Match(nil, pool, f)

	assert.Equal(t, first, second)
	assert.Equal(t, before, ids(pool), "input must not be reordered")
	require.NotEmpty(t, first)
	first[0].Title = "changed"
	assert.NotEqual(t, "changed", pool[0].Title)
}

func TestMatch_AddingAxisFilterNarrows(t *testing.T) {
	pool := scenarioPool()
	all := Match(nil, pool, Filters{})

	for _, f := range []Filters{
		{SearchText: "gala"},
		{Location: "berlin"},
		{RequiredSkills: []string{"translation"}},
	} {
		narrowed := Match(nil, pool, f)
		assert.Subset(t, ids(all), ids(narrowed))
	}
}

func TestMatch_UseProfileSkills(t *testing.T) {
	volunteer := &domain.Profile{ID: "v1", Role: domain.RoleVolunteer, Skills: []string{"event planning"}}

	got := Match(volunteer, scenarioPool(), Filters{UseProfileSkills: true})
	assert.Equal(t, []string{"Y"}, ids(got))

	got = Match(volunteer, scenarioPool(), Filters{UseProfileSkills: true, RequiredSkills: []string{"translation"}})
	assert.Equal(t, []string{"X"}, ids(got), "explicit skills win")
}

func TestFilters_StatusSet(t *testing.T) {
	assert.Equal(t, []domain.OpportunityStatus{domain.OpportunityStatusOpen}, Filters{}.StatusSet())
	assert.Equal(t,
		[]domain.OpportunityStatus{domain.OpportunityStatusOpen, domain.OpportunityStatusClosed},
		Filters{Statuses: []domain.OpportunityStatus{"closed", "open", "bogus"}}.StatusSet())
}

func TestMatchVolunteers(t *testing.T) {
	o := domain.Opportunity{ID: "o1", RequiredSkills: []string{"translation", "writing"}}
	pool := []domain.Profile{
		{ID: "v1", Role: domain.RoleVolunteer, Skills: []string{"translation"}, CreatedAt: base},
		{ID: "v2", Role: domain.RoleVolunteer, Skills: []string{"writing", "translation"}, CreatedAt: base.Add(-time.Hour)},
		{ID: "v3", Role: domain.RoleVolunteer, Skills: []string{"design"}, CreatedAt: base},
		{ID: "n1", Role: domain.RoleNGO, Skills: []string{"translation"}, CreatedAt: base},
		{ID: "v0", Role: domain.RoleVolunteer, Skills: []string{"writing"}, CreatedAt: base},
	}

	got := MatchVolunteers(o, pool)
	require.Len(t, got, 3)
	assert.Equal(t, "v2", got[0].Profile.ID)
	assert.Equal(t, []string{"writing", "translation"}, got[0].Overlap)
	assert.Equal(t, "v0", got[1].Profile.ID)
	assert.Equal(t, "v1", got[2].Profile.ID)
}

func TestMatch_SearchAndSkillCombined(t *testing.T) {
	pool := []domain.Opportunity{
		opp("teach", 1, "Teach English", []string{"writing", "teaching"}, nil, domain.OpportunityStatusOpen),
		opp("gala", 2, "Fundraising Gala", []string{"event planning"}, nil, domain.OpportunityStatusOpen),
	}
	got := Match(nil, pool, Filters{SearchText: "teach", RequiredSkills: []string{"writing"}})
	assert.Equal(t, []string{"teach"}, ids(got))
}
