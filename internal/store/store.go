// Package store holds the record stores used by the submission service: a
// PostgreSQL implementation backed by pgx and an in-memory one for local runs
// and tests.
package store

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"

	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/internal/types/user"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInvalidStreak is returned for a streak whose counters break the
// 0 <= current <= longest constraint.
var ErrInvalidStreak = errors.New("invalid streak counters")

type SubmissionStore interface {
	// ListSubmissions returns every submission of the user, newest first.
	ListSubmissions(ctx context.Context, userID string) ([]*submission.Submission, error)
	// ListRecentSubmissions returns at most limit submissions, newest first.
	ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*submission.Submission, error)
	// UpsertSubmission creates the (userID, date) record, or updates only its
	// text and updated_at when it already exists. created reports which happened.
	UpsertSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int) (sub *submission.Submission, created bool, err error)
}

type StreakStore interface {
	GetStreak(ctx context.Context, userID string) (*streak.Streak, error)
	PersistStreak(ctx context.Context, s *streak.Streak) error
	ListStreakUserIDs(ctx context.Context) ([]string, error)
}

type UserStore interface {
	UpsertUser(ctx context.Context, userID, name string) (*user.User, error)
	GetUser(ctx context.Context, userID string) (*user.User, error)
}

// Store groups the three record stores; both implementations satisfy it.
type Store interface {
	SubmissionStore
	StreakStore
	UserStore
	// RecordSubmission upserts the (userID, date) submission and, when next is
	// non-nil, persists next as the user's streak. Both writes land or neither does.
	RecordSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int, next *streak.Streak) (sub *submission.Submission, created bool, err error)
	Ping(ctx context.Context) error
	Close()
}
