// Package quiz records quiz attempts and answers whether every quiz bound
// to a lecture has been passed.
package quiz

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Attempt is one learner's graded submission of a quiz.
type Attempt struct {
	ID        string            `json:"id"`
	LearnerID string            `json:"learner_id"`
	QuizID    string            `json:"quiz_id"`
	Answers   map[string]string `json:"answers"`
	Passed    bool              `json:"passed"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists lecture/quiz bindings and attempts.
type Store interface {
	Bind(ctx context.Context, lectureID string, quizIDs ...string) error
	QuizzesFor(ctx context.Context, lectureID string) ([]string, error)
	RecordAttempt(ctx context.Context, a Attempt) (Attempt, error)
	// IsQuizPassed reports whether the learner passed every quiz bound to
	// the lecture at least once. A lecture with no bound quiz is never passed.
	IsQuizPassed(ctx context.Context, learnerID, lectureID string) (bool, error)
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	bindings map[string][]string        // lecture -> quizzes
	passed   map[string]map[string]bool // learner -> quiz -> passed once
	attempts []Attempt
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory quiz store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bindings: make(map[string][]string),
		passed:   make(map[string]map[string]bool),
	}
}

func (s *MemoryStore) Bind(_ context.Context, lectureID string, quizIDs ...string) error {
	if lectureID == "" {
		return fmt.Errorf("lecture_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range quizIDs {
		if q == "" || slices.Contains(s.bindings[lectureID], q) {
			continue
		}
		s.bindings[lectureID] = append(s.bindings[lectureID], q)
	}
	return nil
}

func (s *MemoryStore) QuizzesFor(_ context.Context, lectureID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.bindings[lectureID]...), nil
}

func (s *MemoryStore) RecordAttempt(_ context.Context, a Attempt) (Attempt, error) {
	if err := validateAttempt(a); err != nil {
		return Attempt{}, err
	}
	a = withDefaults(a)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts = append(s.attempts, a)
	if a.Passed {
		if s.passed[a.LearnerID] == nil {
			s.passed[a.LearnerID] = make(map[string]bool)
		}
		s.passed[a.LearnerID][a.QuizID] = true
	}
	return a, nil
}

func (s *MemoryStore) IsQuizPassed(_ context.Context, learnerID, lectureID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quizzes := s.bindings[lectureID]
	if len(quizzes) == 0 {
		return false, nil
	}
	for _, q := range quizzes {
		if !s.passed[learnerID][q] {
			return false, nil
		}
	}
	return true, nil
}

// Attempts returns all recorded attempts for a learner.
func (s *MemoryStore) Attempts(learnerID string) []Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Attempt
	for _, a := range s.attempts {
		if a.LearnerID == learnerID {
			out = append(out, a)
		}
	}
	return out
}

func validateAttempt(a Attempt) error {
	if a.LearnerID == "" {
		return fmt.Errorf("learner_id is required")
	}
	if a.QuizID == "" {
		return fmt.Errorf("quiz_id is required")
	}
	return nil
}

func withDefaults(a Attempt) Attempt {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Answers == nil {
		a.Answers = map[string]string{}
	}
	return a
}
