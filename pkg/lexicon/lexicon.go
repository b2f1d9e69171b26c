// Package lexicon merges first-name and last-name candidates into an
// insertion-ordered name → tag mapping and encodes it as JSON.
package lexicon

import (
	"iter"
	"unicode/utf8"
)

// Lexicon maps normalized names to their role tag and remembers insertion
// order. Keys are unique; an existing key is never overwritten.
type Lexicon struct {
	keys []string
	tags map[string]Tag
}

// New returns an empty Lexicon.
func New() *Lexicon {
	return &Lexicon{tags: make(map[string]Tag)}
}

// Add inserts name with tag unless name is already present, empty or not
// valid UTF-8. It reports whether the entry was inserted.
func (l *Lexicon) Add(name string, tag Tag) bool {
	if name == "" || !utf8.ValidString(name) || !tag.Valid() {
		return false
	}
	if _, ok := l.tags[name]; ok {
		return false
	}
	l.tags[name] = tag
	l.keys = append(l.keys, name)
	return true
}

// Lookup returns the tag for name.
func (l *Lexicon) Lookup(name string) (Tag, bool) {
	t, ok := l.tags[name]
	return t, ok
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	return len(l.keys)
}

// Keys returns the names in insertion order.
func (l *Lexicon) Keys() []string {
	out := make([]string, len(l.keys))
	copy(out, l.keys)
	return out
}

// All iterates entries in insertion order.
func (l *Lexicon) All() iter.Seq2[string, Tag] {
	return func(yield func(string, Tag) bool) {
		for _, k := range l.keys {
			if !yield(k, l.tags[k]) {
				return
			}
		}
	}
}

// Count returns how many entries carry tag.
func (l *Lexicon) Count(tag Tag) int {
	n := 0
	for _, t := range l.tags {
		if t == tag {
			n++
		}
	}
	return n
}

// Equal reports whether both lexicons hold the same (name, tag) pairs,
// regardless of order.
func (l *Lexicon) Equal(other *Lexicon) bool {
	if l.Len() != other.Len() {
		return false
	}
	for k, t := range l.tags {
		if ot, ok := other.tags[k]; !ok || ot != t {
			return false
		}
	}
	return true
}

// Map returns a copy of the entries as a plain map.
func (l *Lexicon) Map() map[string]Tag {
	out := make(map[string]Tag, len(l.tags))
	for k, t := range l.tags {
		out[k] = t
	}
	return out
}
