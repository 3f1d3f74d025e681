// file: internal/models/likes.go
package models

// LikeSet holds the ids of users who liked an entity. It is a set with
// stable insertion order: each id appears at most once, and toggling the
// same id twice returns the set to its original state.
type LikeSet []string

// Has reports membership.
func (s LikeSet) Has(userID string) bool {
	for _, id := range s {
		if id == userID {
			return true
		}
	}
	return false
}

// Count returns the number of likes.
func (s LikeSet) Count() int { return len(s) }

// Clone returns an independent copy.
func (s LikeSet) Clone() LikeSet {
	if s == nil {
		return nil
	}
	out := make(LikeSet, len(s))
	copy(out, s)
	return out
}

// Toggle returns the set with the user's membership flipped: present gets
// removed, absent gets appended. The second return value reports whether
// the result is a like (true) or an unlike (false).
func (s LikeSet) Toggle(userID string) (LikeSet, bool) {
	if s.Has(userID) {
		out := make(LikeSet, 0, len(s)-1)
		for _, id := range s {
			if id != userID {
				out = append(out, id)
			}
		}
		return out, false
	}
	out := make(LikeSet, 0, len(s)+1)
	out = append(out, s...)
	out = append(out, userID)
	return out, true
}
