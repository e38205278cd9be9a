// Package suite holds the full set of tests discovered for a project,
// partitioned into matched and filtered subsets.
package suite

import (
	"sort"

	"github.com/typst-community/tytanic/internal/ident"
)

type entry struct {
	test    ident.Test
	matched bool
}

// Suite maps test identifiers to their Test record and whether the
// currently applied filter matched them. Every identifier appears at
// most once (invariant a); Matched always equals the number of entries
// whose matched flag is true (invariant b); iteration always yields
// entries in identifier order (invariant c).
type Suite struct {
	entries map[ident.Ident]entry
	matched int
}

// New returns an empty Suite.
func New() *Suite {
	return &Suite{entries: make(map[ident.Ident]entry)}
}

// FromTests builds a Suite from the matched and filtered test slices.
func FromTests(matched, filtered []ident.Test) *Suite {
	s := New()
	for _, t := range matched {
		s.Insert(t, true)
	}
	for _, t := range filtered {
		s.Insert(t, false)
	}
	return s
}

// Insert adds or replaces the entry for test.Ident, returning the
// previous entry if one existed.
func (s *Suite) Insert(test ident.Test, matched bool) (prevTest ident.Test, prevMatched bool, hadPrev bool) {
	old, existed := s.entries[test.Ident]
	if existed && old.matched {
		s.matched--
	}
	s.entries[test.Ident] = entry{test: test, matched: matched}
	if matched {
		s.matched++
	}
	if existed {
		return old.test, old.matched, true
	}
	return ident.Test{}, false, false
}

// Remove deletes the entry for id, if present.
func (s *Suite) Remove(id ident.Ident) (test ident.Test, matched bool, ok bool) {
	e, existed := s.entries[id]
	if !existed {
		return ident.Test{}, false, false
	}
	delete(s.entries, id)
	if e.matched {
		s.matched--
	}
	return e.test, e.matched, true
}

// Get looks up the entry for id.
func (s *Suite) Get(id ident.Ident) (test ident.Test, matched bool, ok bool) {
	e, existed := s.entries[id]
	return e.test, e.matched, existed
}

// Len returns the total number of entries.
func (s *Suite) Len() int { return len(s.entries) }

// MatchedLen returns the number of matched entries.
func (s *Suite) MatchedLen() int { return s.matched }

// FilteredLen returns the number of filtered (non-matched) entries.
func (s *Suite) FilteredLen() int { return len(s.entries) - s.matched }

// All returns every test in identifier order.
func (s *Suite) All() []ident.Test {
	return s.collect(func(entry) bool { return true })
}

// Matched returns the matched tests in identifier order.
func (s *Suite) Matched() []ident.Test {
	return s.collect(func(e entry) bool { return e.matched })
}

// Filtered returns the filtered tests in identifier order.
func (s *Suite) Filtered() []ident.Test {
	return s.collect(func(e entry) bool { return !e.matched })
}

// ByKind returns the matched tests whose identifier has the given kind,
// in identifier order.
func (s *Suite) ByKind(k ident.Kind) []ident.Test {
	return s.collect(func(e entry) bool { return e.matched && e.test.Ident.Kind() == k })
}

func (s *Suite) collect(keep func(entry) bool) []ident.Test {
	ids := make([]ident.Ident, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	var out []ident.Test
	for _, id := range ids {
		e := s.entries[id]
		if keep(e) {
			out = append(out, e.test)
		}
	}
	return out
}
