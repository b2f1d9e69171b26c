package lexicon

import "github.com/japaniel/namelex/pkg/names"

// Build merges the candidate sets. Every first-name candidate is tagged
// FirstName; last-name candidates are added as LastName only when absent, so
// a name found in both sets stays FirstName. Both sets are enumerated in
// sorted order, which makes the insertion order deterministic.
func Build(first, last *names.CandidateSet) *Lexicon {
	lex := New()
	for _, name := range first.Sorted() {
		lex.Add(name, FirstName)
	}
	for _, name := range last.Sorted() {
		lex.Add(name, LastName)
	}
	return lex
}

// Stats summarizes one build.
type Stats struct {
	FirstCandidates int `yaml:"first_candidates"`
	LastCandidates  int `yaml:"last_candidates"`
	Ambiguous       int `yaml:"ambiguous"`
	Entries         int `yaml:"entries"`
	TaggedFirst     int `yaml:"tagged_first_name"`
	TaggedLast      int `yaml:"tagged_last_name"`
}

// Summarize computes Stats for a lexicon built from first and last.
func Summarize(first, last *names.CandidateSet, lex *Lexicon) Stats {
	return Stats{
		FirstCandidates: first.Len(),
		LastCandidates:  last.Len(),
		Ambiguous:       first.Intersect(last),
		Entries:         lex.Len(),
		TaggedFirst:     lex.Count(FirstName),
		TaggedLast:      lex.Count(LastName),
	}
}
