package names

import "sort"

// CandidateSet is a set of normalized names gathered for one role.
type CandidateSet struct {
	m map[string]struct{}
}

// NewCandidateSet returns a set holding the normalized form of every name.
func NewCandidateSet(names ...string) *CandidateSet {
	s := &CandidateSet{m: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add normalizes name and inserts it. It reports whether the set grew;
// blank names are ignored.
func (s *CandidateSet) Add(name string) bool {
	key := Normalize(name)
	if key == "" {
		return false
	}
	if _, ok := s.m[key]; ok {
		return false
	}
	s.m[key] = struct{}{}
	return true
}

// Contains reports whether the normalized form of name is in the set.
func (s *CandidateSet) Contains(name string) bool {
	_, ok := s.m[Normalize(name)]
	return ok
}

// Len returns the number of unique names.
func (s *CandidateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.m)
}

// Sorted returns the names in ascending byte order.
func (s *CandidateSet) Sorted() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the number of names present in both sets.
func (s *CandidateSet) Intersect(other *CandidateSet) int {
	if s.Len() == 0 || other.Len() == 0 {
		return 0
	}
	small, large := s, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	n := 0
	for k := range small.m {
		if _, ok := large.m[k]; ok {
			n++
		}
	}
	return n
}
