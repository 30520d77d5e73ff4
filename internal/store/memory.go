package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"dungeonStreakAPI/internal/types/streak"
	"dungeonStreakAPI/internal/types/submission"
	"dungeonStreakAPI/internal/types/user"
)

type submissionKey struct {
	userID string
	date   civil.Date
}

// MemoryStore keeps every record in process memory. Returned records are copies.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[submissionKey]*submission.Submission
	streaks     map[string]*streak.Streak
	users       map[string]*user.User
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[submissionKey]*submission.Submission),
		streaks:     make(map[string]*streak.Streak),
		users:       make(map[string]*user.User),
		now:         time.Now,
	}
}

func (m *MemoryStore) ListSubmissions(ctx context.Context, userID string) ([]*submission.Submission, error) {
	return m.ListRecentSubmissions(ctx, userID, 0)
}

func (m *MemoryStore) ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]*submission.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var subs []*submission.Submission
	for key, s := range m.submissions {
		if key.userID == userID {
			c := *s
			subs = append(subs, &c)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].Date.After(subs[j].Date) })

	if limit > 0 && len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}

func (m *MemoryStore) UpsertSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int) (*submission.Submission, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, created := m.upsertSubmissionLocked(userID, date, text, streakCount)
	return sub, created, nil
}

// RecordSubmission validates next before touching anything, then applies both
// writes under one lock.
func (m *MemoryStore) RecordSubmission(ctx context.Context, userID string, date civil.Date, text string, streakCount int, next *streak.Streak) (*submission.Submission, bool, error) {
	if next != nil {
		if err := validateStreak(next); err != nil {
			return nil, false, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sub, created := m.upsertSubmissionLocked(userID, date, text, streakCount)
	if next != nil {
		m.persistStreakLocked(next)
	}
	return sub, created, nil
}

func (m *MemoryStore) upsertSubmissionLocked(userID string, date civil.Date, text string, streakCount int) (*submission.Submission, bool) {
	now := m.now()
	key := submissionKey{userID: userID, date: date}

	if existing, ok := m.submissions[key]; ok {
		existing.SubmissionText = text
		existing.UpdatedAt = now
		c := *existing
		return &c, false
	}

	s := &submission.Submission{
		ID:             uuid.New(),
		UserID:         userID,
		Date:           date,
		SubmissionText: text,
		StreakCount:    streakCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.submissions[key] = s
	c := *s
	return &c, true
}

func (m *MemoryStore) GetStreak(ctx context.Context, userID string) (*streak.Streak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.streaks[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *s
	return &c, nil
}

// PersistStreak is last-write-wins, like the PostgreSQL upsert. Counters are
// checked the way the streaks table CHECK constraints check them.
func (m *MemoryStore) PersistStreak(ctx context.Context, s *streak.Streak) error {
	if err := validateStreak(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.persistStreakLocked(s)
	return nil
}

func (m *MemoryStore) persistStreakLocked(s *streak.Streak) {
	now := m.now()
	c := *s
	if existing, ok := m.streaks[s.UserID]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	m.streaks[s.UserID] = &c
}

func validateStreak(s *streak.Streak) error {
	if s.CurrentStreak < 0 || s.LongestStreak < s.CurrentStreak {
		return fmt.Errorf("%w: current=%d longest=%d", ErrInvalidStreak, s.CurrentStreak, s.LongestStreak)
	}
	return nil
}

func (m *MemoryStore) ListStreakUserIDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	for id := range m.streaks {
		seen[id] = struct{}{}
	}
	for key := range m.submissions {
		seen[key.userID] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) UpsertUser(ctx context.Context, userID, name string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	u, ok := m.users[userID]
	if !ok {
		u = &user.User{ID: userID, CreatedAt: now}
		m.users[userID] = u
	}
	if name != "" {
		u.Name = name
	}
	u.UpdatedAt = now
	c := *u
	return &c, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, userID string) (*user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() {}
