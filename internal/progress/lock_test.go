package progress_test

import (
	"fmt"
	"testing"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
)

// linear builds a single-chapter outline from lecture IDs in order.
func linear(ids ...string) course.Outline {
	lectures := make([]course.RawLecture, len(ids))
	for i, id := range ids {
		idx := i
		lectures[i] = course.RawLecture{ID: id, Title: "Lecture " + id, OrderIndex: &idx}
	}
	return course.Build([]course.RawChapter{{ID: "ch1", Title: "Chapter 1", Lectures: lectures}})
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name       string
		outline    course.Outline
		completed  []string
		lecture    string
		accessible bool
		redirectTo string
		reason     progress.Reason
	}{
		{
			name:       "nothing completed deep link",
			outline:    linear("A", "B", "C"),
			lecture:    "C",
			redirectTo: "A",
			reason:     progress.ReasonLocked,
		},
		{
			name:       "predecessor completed",
			outline:    linear("A", "B", "C"),
			completed:  []string{"A"},
			lecture:    "B",
			accessible: true,
			reason:     progress.ReasonPredecessorCompleted,
		},
		{
			name:       "two ahead redirects to resume point",
			outline:    linear("A", "B", "C"),
			completed:  []string{"A"},
			lecture:    "C",
			redirectTo: "B",
			reason:     progress.ReasonLocked,
		},
		{
			name:       "deep link far ahead",
			outline:    linear("A", "B", "C", "D"),
			completed:  []string{"A"},
			lecture:    "D",
			redirectTo: "B",
			reason:     progress.ReasonLocked,
		},
		{
			name:       "first lecture",
			outline:    linear("A", "B"),
			lecture:    "A",
			accessible: true,
			reason:     progress.ReasonFirstLecture,
		},
		{
			name:       "completed out of order stays open",
			outline:    linear("A", "B", "C"),
			completed:  []string{"C"},
			lecture:    "C",
			accessible: true,
			reason:     progress.ReasonCompleted,
		},
		{
			name:       "unknown lecture defers",
			outline:    linear("A", "B"),
			lecture:    "Z",
			accessible: true,
			reason:     progress.ReasonOutlineNotReady,
		},
		{
			name:       "empty outline defers",
			outline:    course.Build(nil),
			lecture:    "A",
			accessible: true,
			reason:     progress.ReasonOutlineNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := progress.Evaluate(tt.outline, tt.lecture, progress.NewCompletedSet(tt.completed...))
			if d.Accessible != tt.accessible {
				t.Errorf("Accessible = %v, want %v", d.Accessible, tt.accessible)
			}
			if d.RedirectTo != tt.redirectTo {
				t.Errorf("RedirectTo = %q, want %q", d.RedirectTo, tt.redirectTo)
			}
			if d.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", d.Reason, tt.reason)
			}
		})
	}
}

func TestEvaluate_SpansChapters(t *testing.T) {
	outline := course.Build([]course.RawChapter{
		{ID: "ch1", Lectures: []course.RawLecture{{ID: "a1"}, {ID: "a2"}}},
		{ID: "ch2", Lectures: []course.RawLecture{{ID: "b1"}, {ID: "b2"}}},
	})

	d := progress.Evaluate(outline, "b1", progress.NewCompletedSet("a1", "a2"))
	if !d.Accessible {
		t.Fatalf("b1 should open once the last lecture of the previous chapter is done: %+v", d)
	}

	d = progress.Evaluate(outline, "b1", progress.NewCompletedSet("a1"))
	if d.Accessible || d.RedirectTo != "a2" {
		t.Fatalf("Evaluate(b1) = %+v, want locked redirecting to a2", d)
	}
}

// subsets enumerates every completed set over ids.
func subsets(ids []string) [][]string {
	var out [][]string
	for mask := 0; mask < 1<<len(ids); mask++ {
		var s []string
		for i, id := range ids {
			if mask&(1<<i) != 0 {
				s = append(s, id)
			}
		}
		out = append(out, s)
	}
	return out
}

func TestEvaluate_Properties(t *testing.T) {
	ids := []string{"A", "B", "C", "D", "E"}
	outline := linear(ids...)

	for _, sub := range subsets(ids) {
		completed := progress.NewCompletedSet(sub...)
		name := fmt.Sprint(sub)

		if d := progress.Evaluate(outline, ids[0], completed); !d.Accessible {
			t.Errorf("%s: first lecture locked", name)
		}

		for _, id := range sub {
			if d := progress.Evaluate(outline, id, completed); !d.Accessible {
				t.Errorf("%s: completed lecture %s locked", name, id)
			}
		}

		resume := ""
		for _, id := range ids {
			if !completed.Has(id) {
				resume = id
				break
			}
		}

		for i := 1; i < len(ids); i++ {
			d := progress.Evaluate(outline, ids[i], completed)
			want := completed.Has(ids[i-1]) || completed.Has(ids[i])
			if d.Accessible != want {
				t.Errorf("%s: Evaluate(%s).Accessible = %v, want %v", name, ids[i], d.Accessible, want)
			}
			if !d.Accessible && d.RedirectTo != resume {
				t.Errorf("%s: Evaluate(%s).RedirectTo = %q, want %q", name, ids[i], d.RedirectTo, resume)
			}
		}
	}
}

func TestResumePoint(t *testing.T) {
	outline := linear("A", "B", "C")

	if got := progress.ResumePoint(outline, progress.NewCompletedSet()); got != "A" {
		t.Errorf("ResumePoint(empty) = %q, want A", got)
	}
	if got := progress.ResumePoint(outline, progress.NewCompletedSet("A", "C")); got != "B" {
		t.Errorf("ResumePoint({A,C}) = %q, want B", got)
	}
	if got := progress.ResumePoint(outline, progress.NewCompletedSet("A", "B", "C")); got != "" {
		t.Errorf("ResumePoint(all) = %q, want empty", got)
	}
}

func TestCompletedSet(t *testing.T) {
	s := progress.NewCompletedSet("A")
	if s.Add("A") {
		t.Error("Add(existing) = true")
	}
	if s.Add("") {
		t.Error("Add(empty) = true")
	}
	if n := s.Union([]string{"A", "B", "Z"}); n != 2 {
		t.Errorf("Union added %d, want 2", n)
	}

	outline := linear("A", "B", "C")
	if n := s.CountIn(outline); n != 2 {
		t.Errorf("CountIn = %d, want 2 (Z is not in the outline)", n)
	}
	got := fmt.Sprint(s.Ordered(outline))
	if got != "[A B Z]" {
		t.Errorf("Ordered = %s, want [A B Z]", got)
	}
}
