package progress

import (
	"slices"

	"github.com/p-n-ai/pai-course/internal/course"
)

// CompletedSet is the set of completed lecture IDs. It only grows.
type CompletedSet map[string]struct{}

// NewCompletedSet builds a set from lecture IDs.
func NewCompletedSet(ids ...string) CompletedSet {
	s := make(CompletedSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts a lecture ID and reports whether it was new.
func (s CompletedSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports whether the lecture is completed.
func (s CompletedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Union adds every ID in ids and returns how many were new.
func (s CompletedSet) Union(ids []string) int {
	added := 0
	for _, id := range ids {
		if s.Add(id) {
			added++
		}
	}
	return added
}

// CountIn returns how many outline lectures are in the set. IDs that are
// not part of the outline do not count toward course completion.
func (s CompletedSet) CountIn(o course.Outline) int {
	n := 0
	for _, e := range o.Entries {
		if s.Has(e.Lecture.ID) {
			n++
		}
	}
	return n
}

// Ordered returns the completed IDs, outline lectures first in traversal
// order followed by any IDs the outline does not know.
func (s CompletedSet) Ordered(o course.Outline) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]bool, len(s))
	for _, e := range o.Entries {
		if s.Has(e.Lecture.ID) {
			out = append(out, e.Lecture.ID)
			seen[e.Lecture.ID] = true
		}
	}
	var extra []string
	for id := range s {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func (s CompletedSet) clone() CompletedSet {
	cp := make(CompletedSet, len(s))
	for id := range s {
		cp[id] = struct{}{}
	}
	return cp
}
