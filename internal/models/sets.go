package models

// InSet reports whether id is a member of set.
func InSet(set []string, id string) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

// AddToSet appends id unless it is already present.
func AddToSet(set []string, id string) []string {
	if InSet(set, id) {
		return set
	}
	return append(set, id)
}

// RemoveFromSet drops every occurrence of id and returns a new slice.
func RemoveFromSet(set []string, id string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
