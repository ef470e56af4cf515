package enrollment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed enrollment store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	if learnerID == "" || courseID == "" {
		return nil, fmt.Errorf("learner_id and course_id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrollments (id, learner_id, course_id)
		 VALUES ($1::uuid, $2, $3)
		 ON CONFLICT (learner_id, course_id) DO NOTHING`,
		uuid.NewString(),
		learnerID,
		courseID,
	)
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	return s.fetch(ctx, learnerID, courseID)
}

func (s *PostgresStore) Fetch(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return s.fetch(ctx, learnerID, courseID)
}

func (s *PostgresStore) fetch(ctx context.Context, learnerID, courseID string) (*Enrollment, error) {
	e := &Enrollment{CompletedLectureIDs: []string{}}
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, learner_id, course_id, progress_percent, created_at, updated_at
		 FROM enrollments
		 WHERE learner_id = $1 AND course_id = $2
		 LIMIT 1`,
		learnerID,
		courseID,
	).Scan(&e.ID, &e.LearnerID, &e.CourseID, &e.ProgressPercent, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: learner %s course %s", ErrNotFound, learnerID, courseID)
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT lecture_id
		 FROM enrollment_completions
		 WHERE enrollment_id = $1::uuid
		 ORDER BY completed_at ASC, lecture_id ASC`,
		e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan completions: %w", err)
	}
	e.CompletedLectureIDs = append(e.CompletedLectureIDs, ids...)

	return e, nil
}

func (s *PostgresStore) PersistCompletion(ctx context.Context, c Completion) error {
	if c.LectureID == "" {
		return fmt.Errorf("lecture_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	completedAt := c.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`UPDATE enrollments
			 SET progress_percent = GREATEST(progress_percent, $2),
			     updated_at = NOW()
			 WHERE id = $1::uuid`,
			c.EnrollmentID,
			c.ProgressPercent,
		)
		if err != nil {
			return fmt.Errorf("update enrollment progress: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, c.EnrollmentID)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO enrollment_completions (enrollment_id, lecture_id, completed_at)
			 VALUES ($1::uuid, $2, $3)
			 ON CONFLICT (enrollment_id, lecture_id) DO NOTHING`,
			c.EnrollmentID,
			c.LectureID,
			completedAt,
		); err != nil {
			return fmt.Errorf("insert completion: %w", err)
		}
		return nil
	})
}
