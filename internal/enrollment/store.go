// Package enrollment persists each learner's completed-lecture set per course.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no enrollment exists for a learner/course pair.
var ErrNotFound = errors.New("enrollment not found")

// Enrollment is one learner's relationship to one course.
type Enrollment struct {
	ID                  string    `json:"id"`
	LearnerID           string    `json:"learner_id"`
	CourseID            string    `json:"course_id"`
	CompletedLectureIDs []string  `json:"completed_lecture_ids"`
	ProgressPercent     float64   `json:"progress_percent"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Completion is a single lecture completion to persist.
type Completion struct {
	EnrollmentID    string
	LearnerID       string
	CourseID        string
	LectureID       string
	ProgressPercent float64
	CompletedAt     time.Time
}

// Store persists enrollments and their completed lectures. Completions are
// only ever added; nothing removes a lecture from an enrollment.
type Store interface {
	Create(ctx context.Context, learnerID, courseID string) (*Enrollment, error)
	Fetch(ctx context.Context, learnerID, courseID string) (*Enrollment, error)
	PersistCompletion(ctx context.Context, c Completion) error
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	byID  map[string]*Enrollment
	byKey map[string]string
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory enrollment store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*Enrollment),
		byKey: make(map[string]string),
	}
}

// Create returns the existing enrollment for the pair or creates a new one.
func (s *MemoryStore) Create(_ context.Context, learnerID, courseID string) (*Enrollment, error) {
	if learnerID == "" || courseID == "" {
		return nil, fmt.Errorf("learner_id and course_id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(learnerID, courseID)
	if id, ok := s.byKey[key]; ok {
		return clone(s.byID[id]), nil
	}

	now := time.Now()
	e := &Enrollment{
		ID:                  uuid.NewString(),
		LearnerID:           learnerID,
		CourseID:            courseID,
		CompletedLectureIDs: []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.byID[e.ID] = e
	s.byKey[key] = e.ID
	return clone(e), nil
}

func (s *MemoryStore) Fetch(_ context.Context, learnerID, courseID string) (*Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[pairKey(learnerID, courseID)]
	if !ok {
		return nil, fmt.Errorf("%w: learner %s course %s", ErrNotFound, learnerID, courseID)
	}
	return clone(s.byID[id]), nil
}

func (s *MemoryStore) PersistCompletion(_ context.Context, c Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[c.EnrollmentID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, c.EnrollmentID)
	}
	if !slices.Contains(e.CompletedLectureIDs, c.LectureID) {
		e.CompletedLectureIDs = append(e.CompletedLectureIDs, c.LectureID)
	}
	if c.ProgressPercent > e.ProgressPercent {
		e.ProgressPercent = c.ProgressPercent
	}
	e.UpdatedAt = time.Now()
	return nil
}

func pairKey(learnerID, courseID string) string {
	return learnerID + ":" + courseID
}

func clone(e *Enrollment) *Enrollment {
	cp := *e
	cp.CompletedLectureIDs = append([]string{}, e.CompletedLectureIDs...)
	return &cp
}
