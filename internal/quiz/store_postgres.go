package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed quiz store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Bind(ctx context.Context, lectureID string, quizIDs ...string) error {
	if lectureID == "" {
		return fmt.Errorf("lecture_id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	batch := &pgx.Batch{}
	for _, q := range quizIDs {
		if q == "" {
			continue
		}
		batch.Queue(
			`INSERT INTO lecture_quizzes (lecture_id, quiz_id)
			 VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			lectureID, q,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("bind quizzes: %w", err)
	}
	return nil
}

func (s *PostgresStore) QuizzesFor(ctx context.Context, lectureID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT quiz_id FROM lecture_quizzes WHERE lecture_id = $1 ORDER BY quiz_id`,
		lectureID,
	)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan quizzes: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) RecordAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	if err := validateAttempt(a); err != nil {
		return Attempt{}, err
	}
	a = withDefaults(a)

	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, fmt.Errorf("marshal answers: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, learner_id, quiz_id, answers, passed, created_at)
		 VALUES ($1::uuid, $2, $3, $4::jsonb, $5, $6)`,
		a.ID,
		a.LearnerID,
		a.QuizID,
		string(answers),
		a.Passed,
		a.CreatedAt,
	); err != nil {
		return Attempt{}, fmt.Errorf("insert quiz attempt: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) IsQuizPassed(ctx context.Context, learnerID, lectureID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var bound, passed int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE EXISTS (
		            SELECT 1 FROM quiz_attempts a
		            WHERE a.learner_id = $1 AND a.quiz_id = lq.quiz_id AND a.passed
		        ))
		 FROM lecture_quizzes lq
		 WHERE lq.lecture_id = $2`,
		learnerID,
		lectureID,
	).Scan(&bound, &passed)
	if err != nil {
		return false, fmt.Errorf("aggregate quiz passes: %w", err)
	}
	return bound > 0 && passed == bound, nil
}
