package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/p-n-ai/pai-course/internal/progress"
)

const (
	lockedText          = "Lecture %s is locked. Continue with %s."
	lockedNoRedirect    = "Lecture %s is locked."
	lectureCompleteText = "Lecture complete: %d of %d lectures done (%.0f%%)."
	courseCompleteText  = "Course complete! You finished all %d lectures."
)

// Supported lists the languages notices are translated into. The first
// entry is the fallback.
var Supported = []language.Tag{language.English, language.Malay}

var matcher = language.NewMatcher(Supported)

func init() {
	ms := language.Malay
	for key, msg := range map[string]string{
		lockedText:          "Kuliah %s dikunci. Teruskan dengan %s.",
		lockedNoRedirect:    "Kuliah %s dikunci.",
		lectureCompleteText: "Kuliah selesai: %d daripada %d kuliah siap (%.0f%%).",
		courseCompleteText:  "Kursus selesai! Anda telah menamatkan kesemua %d kuliah.",
	} {
		if err := message.SetString(ms, key, msg); err != nil {
			panic(err)
		}
	}
}

// Match returns the supported language closest to tag.
func Match(tag language.Tag) language.Tag {
	_, i, _ := matcher.Match(tag)
	return Supported[i]
}

// MatchAcceptLanguage picks a supported language from an Accept-Language
// header value, falling back to the first supported language.
func MatchAcceptLanguage(header string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, i, _ := matcher.Match(tags...)
	return Supported[i]
}

// Format renders a notice as learner-facing text.
func Format(tag language.Tag, n progress.Notice) string {
	p := message.NewPrinter(Match(tag))
	switch n.Kind {
	case progress.NoticeLocked:
		if n.RedirectTo == "" {
			return p.Sprintf(lockedNoRedirect, n.LectureID)
		}
		return p.Sprintf(lockedText, n.LectureID, n.RedirectTo)
	case progress.NoticeLectureComplete:
		return p.Sprintf(lectureCompleteText, n.CompletedCount, n.TotalCount, n.ProgressPercent)
	case progress.NoticeCourseComplete:
		return p.Sprintf(courseCompleteText, n.TotalCount)
	default:
		return ""
	}
}
