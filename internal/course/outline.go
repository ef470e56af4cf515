// Package course builds ordered course outlines and serves them from a
// YAML catalog.
package course

import "sort"

// Outline is the ordered view of a course used for locking decisions.
// The traversal order is fixed once built.
type Outline struct {
	Chapters []Chapter `json:"chapters"`
	Entries  []Entry   `json:"entries"`

	index map[string]int
}

// Build orders raw chapter data into an Outline. Chapters keep their
// source position; lectures are sorted by order index (missing counts as 0)
// with source order breaking ties.
func Build(raw []RawChapter) Outline {
	o := Outline{
		Chapters: make([]Chapter, 0, len(raw)),
		index:    make(map[string]int),
	}

	for ci, rc := range raw {
		lectures := make([]Lecture, 0, len(rc.Lectures))
		for _, rl := range rc.Lectures {
			lectures = append(lectures, Lecture{
				ID:              rl.ID,
				Title:           rl.Title,
				ChapterID:       rc.ID,
				OrderIndex:      orderOf(rl.OrderIndex),
				DurationSeconds: rl.DurationSeconds,
				RequiresQuiz:    rl.RequiresQuiz,
				QuizIDs:         append([]string(nil), rl.QuizIDs...),
			})
		}
		sort.SliceStable(lectures, func(i, j int) bool {
			return lectures[i].OrderIndex < lectures[j].OrderIndex
		})

		ch := Chapter{
			ID:         rc.ID,
			Title:      rc.Title,
			OrderIndex: orderOf(rc.OrderIndex),
			Lectures:   lectures,
		}
		o.Chapters = append(o.Chapters, ch)

		for _, l := range lectures {
			if _, dup := o.index[l.ID]; dup {
				continue
			}
			o.index[l.ID] = len(o.Entries)
			o.Entries = append(o.Entries, Entry{
				Lecture:      l,
				ChapterID:    ch.ID,
				ChapterTitle: ch.Title,
				ChapterIndex: ci,
			})
		}
	}

	return o
}

func orderOf(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// Len returns the number of lectures in traversal order.
func (o Outline) Len() int {
	return len(o.Entries)
}

// Empty reports whether the outline has no lectures, which callers treat
// as "not loaded yet".
func (o Outline) Empty() bool {
	return len(o.Entries) == 0
}

// Index returns the traversal position of a lecture.
func (o Outline) Index(lectureID string) (int, bool) {
	if o.index != nil {
		i, ok := o.index[lectureID]
		return i, ok
	}
	for i, e := range o.Entries {
		if e.Lecture.ID == lectureID {
			return i, true
		}
	}
	return -1, false
}

// Lecture returns the lecture with the given ID.
func (o Outline) Lecture(lectureID string) (Lecture, bool) {
	i, ok := o.Index(lectureID)
	if !ok {
		return Lecture{}, false
	}
	return o.Entries[i].Lecture, true
}

// Next returns the lecture that follows lectureID in traversal order.
func (o Outline) Next(lectureID string) (Lecture, bool) {
	i, ok := o.Index(lectureID)
	if !ok || i+1 >= len(o.Entries) {
		return Lecture{}, false
	}
	return o.Entries[i+1].Lecture, true
}

// LectureIDs returns every lecture ID in traversal order.
func (o Outline) LectureIDs() []string {
	ids := make([]string, len(o.Entries))
	for i, e := range o.Entries {
		ids[i] = e.Lecture.ID
	}
	return ids
}
