package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/internal/types/user"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const submissionColumns = `id, user_id, date, submission_text, streak_count, created_at, updated_at`

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	s := &submission.Submission{}
	var date time.Time
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&date,
		&s.SubmissionText,
		&s.StreakCount,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Date = civil.DateOf(date)
	return s, nil
}

func (p *PostgresStore) ListSubmissions(ctx context.Context, userID string) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	FROM submissions
	WHERE user_id = $1
	ORDER BY date DESC
	`
	return p.querySubmissions(ctx, query, userID)
}

func (p *PostgresStore) ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*submission.Submission, error) {
	if limit <= 0 {
		return p.ListSubmissions(ctx, userID)
	}

	query := `SELECT ` + submissionColumns + `
	FROM submissions
	WHERE user_id = $1
	ORDER BY date DESC
	LIMIT $2
	`
	return p.querySubmissions(ctx, query, userID, limit)
}

func (p *PostgresStore) querySubmissions(ctx context.Context, query string, args ...any) ([]*submission.Submission, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	defer rows.Close()

	var subs []*submission.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return subs, nil
}

// UpsertSubmission relies on the (user_id, date) unique constraint. xmax = 0
// only for a freshly inserted row, which tells create from update.
func (p *PostgresStore) UpsertSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int) (*submission.Submission, bool, error) {
	return upsertSubmission(ctx, p.db, userID, date, text, streakCount)
}

// RecordSubmission writes the submission and the streak in one transaction.
func (p *PostgresStore) RecordSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int, next *streak.Streak) (*submission.Submission, bool, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sub, created, err := upsertSubmission(ctx, tx, userID, date, text, streakCount)
	if err != nil {
		return nil, false, err
	}

	if next != nil {
		if err := persistStreak(ctx, tx, next); err != nil {
			return nil, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit submission: %w", err)
	}
	return sub, created, nil
}

func upsertSubmission(ctx context.Context, q querier, userID string, date civil.Date, text string, streakCount int) (*submission.Submission, bool, error) {
	query := `
	INSERT INTO submissions (id, user_id, date, submission_text, streak_count, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id, date) DO UPDATE
		SET submission_text = EXCLUDED.submission_text,
		    updated_at = NOW()
	RETURNING ` + submissionColumns + `, (xmax = 0) AS created
	`

	s := &submission.Submission{}
	var (
		day     time.Time
		created bool
	)
	err := q.QueryRow(ctx, query, uuid.New(), userID, date.In(time.UTC), text, streakCount).Scan(
		&s.ID,
		&s.UserID,
		&day,
		&s.SubmissionText,
		&s.StreakCount,
		&s.CreatedAt,
		&s.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert submission: %w", err)
	}
	s.Date = civil.DateOf(day)
	return s, created, nil
}

func (p *PostgresStore) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	query := `
	SELECT id, user_id, current_streak, longest_streak, last_updated, created_at, updated_at
	FROM streaks
	WHERE user_id = $1
	`

	s := &streak.Streak{}
	var lastUpdated time.Time
	err := p.db.QueryRow(ctx, query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.CurrentStreak,
		&s.LongestStreak,
		&lastUpdated,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	s.LastUpdated = civil.DateOf(lastUpdated)
	return s, nil
}

// PersistStreak writes both counters in one statement; the latest writer wins.
func (p *PostgresStore) PersistStreak(ctx context.Context, s *streak.Streak) error {
	return persistStreak(ctx, p.db, s)
}

func persistStreak(ctx context.Context, q querier, s *streak.Streak) error {
	id := s.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
	INSERT INTO streaks (id, user_id, current_streak, longest_streak, last_updated, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (user_id) DO UPDATE
		SET current_streak = EXCLUDED.current_streak,
		    longest_streak = EXCLUDED.longest_streak,
		    last_updated = EXCLUDED.last_updated,
		    updated_at = NOW()
	`

	_, err := q.Exec(ctx, query, id, s.UserID, s.CurrentStreak, s.LongestStreak, s.LastUpdated.In(time.UTC))
	if err != nil {
		return fmt.Errorf("failed to persist streak: %w", err)
	}
	return nil
}

func (p *PostgresStore) ListStreakUserIDs(ctx context.Context) ([]string, error) {
	query := `
	SELECT user_id FROM streaks
	UNION
	SELECT DISTINCT user_id FROM submissions
	ORDER BY user_id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list streak users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgresStore) UpsertUser(ctx context.Context, userID, name string) (*user.User, error) {
	query := `
	INSERT INTO users (id, name, created_at, updated_at)
	VALUES ($1, $2, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE
		SET name = COALESCE(NULLIF(EXCLUDED.name, ''), users.name),
		    updated_at = NOW()
	RETURNING id, name, created_at, updated_at
	`

	u := &user.User{}
	err := p.db.QueryRow(ctx, query, userID, name).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

func (p *PostgresStore) GetUser(ctx context.Context, userID string) (*user.User, error) {
	query := `SELECT id, name, created_at, updated_at FROM users WHERE id = $1`

	u := &user.User{}
	err := p.db.QueryRow(ctx, query, userID).Scan(&u.ID, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *PostgresStore) Close() {
	p.db.Close()
}
