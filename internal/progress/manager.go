package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/enrollment"
	"github.com/p-n-ai/pai-course/internal/events"
)

// OutlineService supplies raw chapter data for a course.
type OutlineService interface {
	FetchChapters(ctx context.Context, courseID string) ([]course.RawChapter, error)
}

// ManagerConfig holds dependencies shared by every session.
type ManagerConfig struct {
	Outlines       OutlineService
	Enrollments    EnrollmentService
	Quizzes        QuizService
	Navigator      Navigator
	Notifier       Notifier
	Events         events.Logger
	Scheduler      Scheduler
	AdvanceDelay   time.Duration
	PersistTimeout time.Duration
	SessionIdle    time.Duration    // evict sessions unused for this long (default 30m)
	Now            func() time.Time // clock for idle tracking (default time.Now)
}

const defaultSessionIdle = 30 * time.Minute

// Manager keeps one Coordinator per (learner, course) session. Sessions
// unused for SessionIdle are evicted by Sweep; the next Open reloads the
// outline and enrollment from scratch.
type Manager struct {
	cfg      ManagerConfig
	sessions map[string]*managedSession
	mu       sync.Mutex
}

type managedSession struct {
	coord    *Coordinator
	lastUsed time.Time
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SessionIdle <= 0 {
		cfg.SessionIdle = defaultSessionIdle
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*managedSession),
	}
}

// Open returns the learner's coordinator for the course, loading the
// outline and enrollment on first use. A missing enrollment is not an
// error: the session reports ErrEnrollmentMissing for its decisions.
func (m *Manager) Open(ctx context.Context, learnerID, courseID string) (*Coordinator, error) {
	if learnerID == "" || courseID == "" {
		return nil, fmt.Errorf("learner_id and course_id are required")
	}

	key := sessionKey(learnerID, courseID)
	if c := m.touch(key); c != nil {
		return c, nil
	}

	session, err := m.load(ctx, learnerID, courseID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have loaded the session meanwhile.
	if ms, ok := m.sessions[key]; ok && !ms.coord.Closed() {
		ms.lastUsed = m.cfg.Now()
		return ms.coord, nil
	}
	c := NewCoordinator(session, CoordinatorConfig{
		Enrollments:    m.cfg.Enrollments,
		Quizzes:        m.cfg.Quizzes,
		Navigator:      m.cfg.Navigator,
		Notifier:       m.cfg.Notifier,
		Events:         m.cfg.Events,
		Scheduler:      m.cfg.Scheduler,
		AdvanceDelay:   m.cfg.AdvanceDelay,
		PersistTimeout: m.cfg.PersistTimeout,
	})
	m.sessions[key] = &managedSession{coord: c, lastUsed: m.cfg.Now()}
	slog.Info("progress session opened",
		"learner_id", learnerID,
		"course_id", courseID,
		"lectures", session.Outline.Len(),
		"completed", session.completed.CountIn(session.Outline),
		"enrolled", session.Enrolled(),
	)
	return c, nil
}

// touch returns the cached coordinator for key and marks it used.
func (m *Manager) touch(key string) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[key]
	if !ok || ms.coord.Closed() {
		return nil
	}
	ms.lastUsed = m.cfg.Now()
	return ms.coord
}

func (m *Manager) load(ctx context.Context, learnerID, courseID string) (*Session, error) {
	if m.cfg.Outlines == nil {
		return nil, fmt.Errorf("outline service is not configured")
	}
	chapters, err := m.cfg.Outlines.FetchChapters(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("fetching outline: %w", err)
	}
	outline := course.Build(chapters)

	var e *enrollment.Enrollment
	if m.cfg.Enrollments != nil {
		e, err = m.cfg.Enrollments.Fetch(ctx, learnerID, courseID)
		if err != nil && !errors.Is(err, enrollment.ErrNotFound) {
			return nil, fmt.Errorf("fetching enrollment: %w", err)
		}
	}

	return NewSession(learnerID, courseID, outline, e), nil
}

// Close ends a session, abandoning its pending navigation.
func (m *Manager) Close(learnerID, courseID string) {
	key := sessionKey(learnerID, courseID)
	m.mu.Lock()
	ms, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()

	if ok {
		ms.coord.Close()
	}
}

// Sweep closes sessions unused for longer than SessionIdle and returns how
// many were evicted. A session waiting on an auto-advance is kept.
func (m *Manager) Sweep() int {
	cutoff := m.cfg.Now().Add(-m.cfg.SessionIdle)

	m.mu.Lock()
	var idle []*Coordinator
	for key, ms := range m.sessions {
		if !ms.lastUsed.Before(cutoff) {
			continue
		}
		if _, pending := ms.coord.PendingNavigation(); pending {
			continue
		}
		idle = append(idle, ms.coord)
		delete(m.sessions, key)
	}
	m.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		slog.Info("idle progress sessions evicted", "count", len(idle), "remaining", m.Len())
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.SessionIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Shutdown closes every session and waits for background writes.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*managedSession)
	m.mu.Unlock()

	for _, ms := range sessions {
		ms.coord.Close()
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func sessionKey(learnerID, courseID string) string {
	return learnerID + ":" + courseID
}
