package input

import "github.com/luciancaetano/kephasview"

// ActionSet is a deduplicated set of active actions.
//
// The zero value is an empty set ready to use. It is not safe for concurrent
// use; the owning session serialises access.
type ActionSet struct {
	members map[kephasview.Action]struct{}
}

// Add inserts a and reports whether the set changed.
func (s *ActionSet) Add(a kephasview.Action) bool {
	if s.members == nil {
		s.members = make(map[kephasview.Action]struct{}, 6)
	}
	if _, ok := s.members[a]; ok {
		return false
	}
	s.members[a] = struct{}{}
	return true
}

// Remove deletes a and reports whether the set changed.
func (s *ActionSet) Remove(a kephasview.Action) bool {
	if _, ok := s.members[a]; !ok {
		return false
	}
	delete(s.members, a)
	return true
}

func (s *ActionSet) Has(a kephasview.Action) bool {
	_, ok := s.members[a]
	return ok
}

func (s *ActionSet) Len() int {
	return len(s.members)
}

// Each calls fn for every member in vocabulary order.
func (s *ActionSet) Each(fn func(kephasview.Action)) {
	if len(s.members) == 0 {
		return
	}
	for _, a := range kephasview.Actions() {
		if _, ok := s.members[a]; ok {
			fn(a)
		}
	}
}

// Slice returns a copy of the members in vocabulary order.
func (s *ActionSet) Slice() []kephasview.Action {
	out := make([]kephasview.Action, 0, len(s.members))
	s.Each(func(a kephasview.Action) {
		out = append(out, a)
	})
	return out
}
