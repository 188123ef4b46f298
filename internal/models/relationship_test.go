package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	viewer := &Profile{
		BaseModel:        BaseModel{ID: "v"},
		SentRequests:     []string{"out"},
		ReceivedRequests: []string{"in"},
		Buddies:          []string{"buddy"},
	}

	tests := []struct {
		candidate string
		relation  Relationship
		status    RelationshipStatus
	}{
		{"buddy", RelationAccepted, RelationshipAccepted},
		{"out", RelationPendingOutgoing, RelationshipPending},
		{"in", RelationPendingIncoming, RelationshipPending},
		{"stranger", RelationNone, RelationshipNone},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.relation, viewer.RelationshipWith(tt.candidate))
			assert.Equal(t, tt.status, StatusFor(viewer, tt.candidate))
		})
	}
}

func TestStatusForNilViewer(t *testing.T) {
	assert.Equal(t, RelationshipNone, StatusFor(nil, "x"))
}

func TestAcceptedWinsOverPending(t *testing.T) {
	p := &Profile{Buddies: []string{"x"}, SentRequests: []string{"x"}}
	assert.Equal(t, RelationshipAccepted, StatusFor(p, "x"))
	assert.Equal(t, 2, p.MembershipCount("x"))
}

func TestSetHelpers(t *testing.T) {
	s := AddToSet(nil, "a")
	s = AddToSet(s, "b")
	s = AddToSet(s, "a")
	assert.Equal(t, []string{"a", "b"}, s)
	assert.True(t, InSet(s, "b"))

	s = RemoveFromSet(s, "a")
	assert.Equal(t, []string{"b"}, s)
	assert.Equal(t, []string{}, RemoveFromSet(nil, "a"))
}

func TestBuddyPairCanonical(t *testing.T) {
	assert.Equal(t, NewBuddyPair("a", "b"), NewBuddyPair("b", "a"))
	assert.Equal(t, "a", NewBuddyPair("b", "a").A)
}

func TestFilterCandidates(t *testing.T) {
	viewer := &Profile{BaseModel: BaseModel{ID: "me"}, Name: "Me", SentRequests: []string{"bob"}, Buddies: []string{"cara"}}
	all := []Profile{
		*viewer,
		{BaseModel: BaseModel{ID: "cara"}, Name: "Cara", WorkoutTypes: []string{"Yoga"}},
		{BaseModel: BaseModel{ID: "bob"}, Name: "Bob", WorkoutTypes: []string{"Running"}},
		{BaseModel: BaseModel{ID: "new"}, Name: ""},
		{BaseModel: BaseModel{ID: "al"}, Name: "al", WorkoutTypes: []string{"Cardio"}},
	}

	got := FilterCandidates(viewer, all, "")
	if assert.Len(t, got, 3) {
		assert.Equal(t, "al", got[0].Profile.ID)
		assert.Equal(t, RelationshipNone, got[0].Status)
		assert.Equal(t, "bob", got[1].Profile.ID)
		assert.Equal(t, RelationshipPending, got[1].Status)
		assert.Equal(t, "cara", got[2].Profile.ID)
		assert.Equal(t, RelationshipAccepted, got[2].Status)
	}

	got = FilterCandidates(viewer, all, "YOG")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "cara", got[0].Profile.ID)
	}

	got = FilterCandidates(viewer, all, "bo")
	if assert.Len(t, got, 1) {
		assert.Equal(t, "bob", got[0].Profile.ID)
	}
}
