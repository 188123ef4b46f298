package models

import (
	"sort"
	"strings"
)

// Candidate is a profile listed on the find-buddy screen together with the
// viewer's relationship to it.
type Candidate struct {
	Profile Profile            `json:"profile"`
	Status  RelationshipStatus `json:"status"`
}

// FilterCandidates selects the profiles the viewer can browse: everyone except
// the viewer and profiles whose setup is incomplete. A non-empty query must
// match the name or one of the workout types, case-insensitively.
// Results are ordered by name.
func FilterCandidates(viewer *Profile, all []Profile, query string) []Candidate {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Candidate, 0, len(all))
	for _, p := range all {
		if viewer != nil && p.ID == viewer.ID {
			continue
		}
		if !p.IsComplete() || !matchesQuery(&p, q) {
			continue
		}
		out = append(out, Candidate{Profile: p, Status: StatusFor(viewer, p.ID)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Profile.Name) < strings.ToLower(out[j].Profile.Name)
	})
	return out
}

func matchesQuery(p *Profile, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), q) {
		return true
	}
	for _, t := range p.WorkoutTypes {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}
