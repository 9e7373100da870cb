// Package matching holds the single definition of which opportunities match
// a browse request and in what order. Everything here is pure: no I/O, no
// mutation of inputs, identical inputs give identical outputs.
package matching

import (
	"sort"
	"strings"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/skills"
)

// Filters narrows a pool of opportunities. Zero values mean "no filter",
// except Statuses which defaults to open only.
type Filters struct {
	SearchText     string
	RequiredSkills []string
	Location       string
	Statuses       []domain.OpportunityStatus
	// UseProfileSkills makes the volunteer's own skills the skill filter when
	// RequiredSkills is empty.
	UseProfileSkills bool
}

type normalized struct {
	search   string
	skills   map[string]struct{}
	location string
	statuses map[domain.OpportunityStatus]struct{}
}

// normalize never fails: malformed optional filters are treated as absent.
func (f Filters) normalize(volunteer *domain.Profile) normalized {
	n := normalized{
		search:   strings.ToLower(strings.TrimSpace(f.SearchText)),
		location: strings.ToLower(strings.TrimSpace(f.Location)),
		statuses: make(map[domain.OpportunityStatus]struct{}, 2),
	}

	raw := f.RequiredSkills
	if len(raw) == 0 && f.UseProfileSkills && volunteer != nil {
		raw = volunteer.Skills
	}
	if tags := skills.Lenient(raw); len(tags) > 0 {
		n.skills = make(map[string]struct{}, len(tags))
		for _, t := range tags {
			n.skills[t] = struct{}{}
		}
	}

	for _, s := range f.Statuses {
		if s.Valid() {
			n.statuses[s] = struct{}{}
		}
	}
	if len(n.statuses) == 0 {
		n.statuses[domain.OpportunityStatusOpen] = struct{}{}
	}
	return n
}

// StatusSet returns the effective status filter, useful for pushing the
// status predicate down to storage before calling Match.
func (f Filters) StatusSet() []domain.OpportunityStatus {
	n := f.normalize(nil)
	out := make([]domain.OpportunityStatus, 0, len(n.statuses))
	for _, s := range []domain.OpportunityStatus{domain.OpportunityStatusOpen, domain.OpportunityStatusClosed} {
		if _, ok := n.statuses[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (n normalized) includes(o *domain.Opportunity) bool {
	if _, ok := n.statuses[o.Status]; !ok {
		return false
	}
	if n.search != "" {
		inTitle := strings.Contains(strings.ToLower(o.Title), n.search)
		inDescription := o.Description != nil && strings.Contains(strings.ToLower(*o.Description), n.search)
		if !inTitle && !inDescription {
			return false
		}
	}
	if len(n.skills) > 0 && !sharesAny(o.RequiredSkills, n.skills) {
		return false
	}
	if n.location != "" {
		if o.Location == nil || !strings.Contains(strings.ToLower(*o.Location), n.location) {
			return false
		}
	}
	return true
}

func sharesAny(tags []string, set map[string]struct{}) bool {
	for _, t := range tags {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

// Match returns the opportunities of pool accepted by f, newest first with
// ties broken by ascending id. volunteer may be nil.
func Match(volunteer *domain.Profile, pool []domain.Opportunity, f Filters) []domain.Opportunity {
	n := f.normalize(volunteer)
	out := make([]domain.Opportunity, 0, len(pool))
	for i := range pool {
		if n.includes(&pool[i]) {
			out = append(out, pool[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Candidate is a volunteer matched to an opportunity with the tags they share.
type Candidate struct {
	Profile domain.Profile `json:"profile"`
	Overlap []string       `json:"overlap"`
}

// MatchVolunteers is the inverse query: volunteers of pool sharing at least
// one required skill with o, most overlapping first, then newest, then id.
func MatchVolunteers(o domain.Opportunity, pool []domain.Profile) []Candidate {
	required := make(map[string]struct{}, len(o.RequiredSkills))
	for _, t := range o.RequiredSkills {
		required[t] = struct{}{}
	}

	var out []Candidate
	for _, p := range pool {
		if p.Role != domain.RoleVolunteer {
			continue
		}
		var overlap []string
		for _, t := range p.Skills {
			if _, ok := required[t]; ok {
				overlap = append(overlap, t)
			}
		}
		if len(overlap) > 0 {
			out = append(out, Candidate{Profile: p, Overlap: overlap})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.Overlap) != len(b.Overlap) {
			return len(a.Overlap) > len(b.Overlap)
		}
		if !a.Profile.CreatedAt.Equal(b.Profile.CreatedAt) {
			return a.Profile.CreatedAt.After(b.Profile.CreatedAt)
		}
		return a.Profile.ID < b.Profile.ID
	})
	return out
}
