package course

// RawChapter is a chapter as delivered by the outline source, before ordering.
type RawChapter struct {
	ID         string       `yaml:"id" json:"id"`
	Title      string       `yaml:"title" json:"title"`
	OrderIndex *int         `yaml:"order_index,omitempty" json:"order_index,omitempty"`
	Lectures   []RawLecture `yaml:"lectures" json:"lectures"`
}

// RawLecture is a lecture as delivered by the outline source.
type RawLecture struct {
	ID              string   `yaml:"id" json:"id"`
	Title           string   `yaml:"title" json:"title"`
	OrderIndex      *int     `yaml:"order_index,omitempty" json:"order_index,omitempty"`
	DurationSeconds int      `yaml:"duration_seconds" json:"duration_seconds"`
	RequiresQuiz    bool     `yaml:"requires_quiz" json:"requires_quiz"`
	QuizIDs         []string `yaml:"quizzes,omitempty" json:"quizzes,omitempty"`
}

// Course is a course document loaded from the catalog.
type Course struct {
	ID       string       `yaml:"id" json:"id"`
	Title    string       `yaml:"title" json:"title"`
	Chapters []RawChapter `yaml:"chapters" json:"chapters"`
}

// Chapter is an ordered group of lectures.
type Chapter struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	OrderIndex int       `json:"order_index"`
	Lectures   []Lecture `json:"lectures"`
}

// Lecture is a single unit of course content. Immutable once built.
type Lecture struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ChapterID       string   `json:"chapter_id"`
	OrderIndex      int      `json:"order_index"`
	DurationSeconds int      `json:"duration_seconds"`
	RequiresQuiz    bool     `json:"requires_quiz"`
	QuizIDs         []string `json:"quizzes,omitempty"`
}

// Entry is a lecture's position in the flattened traversal order.
type Entry struct {
	Lecture      Lecture `json:"lecture"`
	ChapterID    string  `json:"chapter_id"`
	ChapterTitle string  `json:"chapter_title"`
	ChapterIndex int     `json:"chapter_index"`
}
