package models

// BuddyPair identifies an unordered pair of profiles.
// To avoid duplicates, A is always the smaller ID.
type BuddyPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewBuddyPair builds the pair in canonical order.
func NewBuddyPair(id1, id2 string) BuddyPair {
	p := BuddyPair{A: id1, B: id2}
	p.EnsureCanonicalOrder()
	return p
}

// EnsureCanonicalOrder sets A to the smaller ID and B to the larger ID.
func (p *BuddyPair) EnsureCanonicalOrder() {
	if p.A > p.B {
		p.A, p.B = p.B, p.A
	}
}
