package models

// RelationshipStatus 是展示给用户的好友关系状态。
type RelationshipStatus string

const (
	RelationshipNone     RelationshipStatus = "none"
	RelationshipPending  RelationshipStatus = "pending"
	RelationshipAccepted RelationshipStatus = "accepted"
)

// Relationship is the full state between a viewer and one counterpart.
// Exactly one of these holds for any pair.
type Relationship int

const (
	RelationNone Relationship = iota
	RelationPendingOutgoing
	RelationPendingIncoming
	RelationAccepted
)

func (r Relationship) String() string {
	switch r {
	case RelationPendingOutgoing:
		return "pending-outgoing"
	case RelationPendingIncoming:
		return "pending-incoming"
	case RelationAccepted:
		return "accepted"
	default:
		return "none"
	}
}

// Status collapses both pending directions into "pending".
func (r Relationship) Status() RelationshipStatus {
	switch r {
	case RelationAccepted:
		return RelationshipAccepted
	case RelationPendingOutgoing, RelationPendingIncoming:
		return RelationshipPending
	default:
		return RelationshipNone
	}
}

// RelationshipWith derives the relationship to otherID from the profile's own sets.
// Buddies win over pending entries, outgoing over incoming.
func (p *Profile) RelationshipWith(otherID string) Relationship {
	if p == nil {
		return RelationNone
	}
	switch {
	case InSet(p.Buddies, otherID):
		return RelationAccepted
	case InSet(p.SentRequests, otherID):
		return RelationPendingOutgoing
	case InSet(p.ReceivedRequests, otherID):
		return RelationPendingIncoming
	default:
		return RelationNone
	}
}

// StatusFor returns the display status of candidateID as seen by viewer.
func StatusFor(viewer *Profile, candidateID string) RelationshipStatus {
	return viewer.RelationshipWith(candidateID).Status()
}

// MembershipCount counts in how many of the three sets otherID appears.
// Anything above one is an inconsistent relationship.
func (p *Profile) MembershipCount(otherID string) int {
	n := 0
	for _, set := range [][]string{p.SentRequests, p.ReceivedRequests, p.Buddies} {
		if InSet(set, otherID) {
			n++
		}
	}
	return n
}
