package services

import (
	"fmt"
	"sort"

	"gym-buddy/internal/models"
)

// InconsistencyKind classifies a broken relationship between two profiles.
type InconsistencyKind string

const (
	AsymmetricBuddies InconsistencyKind = "asymmetric-buddies"
	OneSidedPending   InconsistencyKind = "one-sided-pending"
	MultipleStates    InconsistencyKind = "multiple-states"
	DanglingReference InconsistencyKind = "dangling-reference"
)

// Inconsistency 描述一对资料之间不一致的关系记录。
type Inconsistency struct {
	Kind   InconsistencyKind `json:"kind"`
	Pair   models.BuddyPair  `json:"pair"`
	Detail string            `json:"detail"`
}

func (i Inconsistency) String() string {
	return fmt.Sprintf("%s %s<->%s: %s", i.Kind, i.Pair.A, i.Pair.B, i.Detail)
}

// AuditRelationships checks the relationship sets of all profiles against each other.
// Each (kind, pair) is reported once; results are sorted by pair then kind.
func AuditRelationships(profiles []models.Profile) []Inconsistency {
	byID := make(map[string]*models.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}

	type key struct {
		kind InconsistencyKind
		pair models.BuddyPair
	}
	seen := map[key]bool{}
	var out []Inconsistency
	report := func(kind InconsistencyKind, a, b, detail string) {
		k := key{kind: kind, pair: models.NewBuddyPair(a, b)}
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Inconsistency{Kind: kind, Pair: k.pair, Detail: detail})
	}

	for i := range profiles {
		p := &profiles[i]
		check := func(set []string, name string, want func(other *models.Profile) bool, kind InconsistencyKind) {
			for _, otherID := range set {
				if p.MembershipCount(otherID) > 1 {
					report(MultipleStates, p.ID, otherID, fmt.Sprintf("%s lists %s in more than one set", p.ID, otherID))
				}
				other, ok := byID[otherID]
				if !ok {
					report(DanglingReference, p.ID, otherID, fmt.Sprintf("%s.%s references missing profile %s", p.ID, name, otherID))
					continue
				}
				if !want(other) {
					report(kind, p.ID, otherID, fmt.Sprintf("%s.%s has %s without a matching entry", p.ID, name, otherID))
				}
			}
		}

		check(p.Buddies, "buddies", func(o *models.Profile) bool { return models.InSet(o.Buddies, p.ID) }, AsymmetricBuddies)
		check(p.SentRequests, "sentRequests", func(o *models.Profile) bool { return models.InSet(o.ReceivedRequests, p.ID) }, OneSidedPending)
		check(p.ReceivedRequests, "receivedRequests", func(o *models.Profile) bool { return models.InSet(o.SentRequests, p.ID) }, OneSidedPending)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Pair != out[j].Pair {
			if out[i].Pair.A != out[j].Pair.A {
				return out[i].Pair.A < out[j].Pair.A
			}
			return out[i].Pair.B < out[j].Pair.B
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
