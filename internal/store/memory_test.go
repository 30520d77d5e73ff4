package store

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dungeonStreakAPI/internal/types/streak"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestMemoryStore_UpsertSubmissionSameDay(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.now = fixedClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	day := civil.Date{Year: 2024, Month: time.January, Day: 1}

	first, created, err := m.UpsertSubmission(ctx, "alice@example.com", day, "cleared floor 1", 3)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 3, first.StreakCount)

	second, created, err := m.UpsertSubmission(ctx, "alice@example.com", day, "cleared floor 2", 9)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, second.StreakCount, "streak count is fixed at creation")
	assert.Equal(t, "cleared floor 2", second.SubmissionText)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestMemoryStore_ListRecentSubmissions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	start := civil.Date{Year: 2024, Month: time.March, Day: 1}

	for i := 0; i < 5; i++ {
		_, _, err := m.UpsertSubmission(ctx, "bob", start.AddDays(i), "day", i+1)
		require.NoError(t, err)
	}
	_, _, err := m.UpsertSubmission(ctx, "carol", start, "other user", 1)
	require.NoError(t, err)

	all, err := m.ListSubmissions(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, start.AddDays(4), all[0].Date)
	assert.Equal(t, start, all[4].Date)

	recent, err := m.ListRecentSubmissions(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, start.AddDays(4), recent[0].Date)
	assert.Equal(t, start.AddDays(3), recent[1].Date)

	none, err := m.ListSubmissions(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	day := civil.Date{Year: 2024, Month: time.May, Day: 5}

	s, _, err := m.UpsertSubmission(ctx, "dave", day, "original", 1)
	require.NoError(t, err)
	s.SubmissionText = "mutated"

	subs, err := m.ListSubmissions(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "original", subs[0].SubmissionText)
}

func TestMemoryStore_Streaks(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.GetStreak(ctx, "erin")
	assert.ErrorIs(t, err, ErrNotFound)

	day := civil.Date{Year: 2024, Month: time.June, Day: 10}
	require.NoError(t, m.PersistStreak(ctx, &streak.Streak{UserID: "erin", CurrentStreak: 2, LongestStreak: 4, LastUpdated: day}))

	first, err := m.GetStreak(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, 2, first.CurrentStreak)
	assert.Equal(t, 4, first.LongestStreak)
	assert.Equal(t, day, first.LastUpdated)

	require.NoError(t, m.PersistStreak(ctx, &streak.Streak{UserID: "erin", CurrentStreak: 3, LongestStreak: 4, LastUpdated: day.AddDays(1)}))

	second, err := m.GetStreak(ctx, "erin")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, 3, second.CurrentStreak)
}

func TestMemoryStore_ListStreakUserIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	day := civil.Date{Year: 2024, Month: time.July, Day: 1}

	require.NoError(t, m.PersistStreak(ctx, &streak.Streak{UserID: "zed", LastUpdated: day}))
	_, _, err := m.UpsertSubmission(ctx, "amy", day, "x", 1)
	require.NoError(t, err)
	_, _, err = m.UpsertSubmission(ctx, "zed", day, "x", 1)
	require.NoError(t, err)

	ids, err := m.ListStreakUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"amy", "zed"}, ids)
}

func TestMemoryStore_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.GetUser(ctx, "frank@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := m.UpsertUser(ctx, "frank@example.com", "Frank")
	require.NoError(t, err)
	assert.Equal(t, "Frank", u.Name)

	u, err = m.UpsertUser(ctx, "frank@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "Frank", u.Name, "empty name keeps the stored one")

	got, err := m.GetUser(ctx, "frank@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestMemoryStore_RecordSubmission(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	day := civil.Date{Year: 2024, Month: time.April, Day: 2}

	sub, created, err := m.RecordSubmission(ctx, "fay", day, "floor 3", 2,
		&streak.Streak{UserID: "fay", CurrentStreak: 2, LongestStreak: 2, LastUpdated: day})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 2, sub.StreakCount)

	s, err := m.GetStreak(ctx, "fay")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)

	// Without a streak only the text changes.
	_, created, err = m.RecordSubmission(ctx, "fay", day, "floor 4", 9, nil)
	require.NoError(t, err)
	assert.False(t, created)

	s, err = m.GetStreak(ctx, "fay")
	require.NoError(t, err)
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestMemoryStore_RecordSubmissionRejectedWritesNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	day := civil.Date{Year: 2024, Month: time.April, Day: 2}

	_, _, err := m.RecordSubmission(ctx, "gil", day, "floor 1", 3,
		&streak.Streak{UserID: "gil", CurrentStreak: 3, LongestStreak: 1, LastUpdated: day})
	require.ErrorIs(t, err, ErrInvalidStreak)

	subs, err := m.ListSubmissions(ctx, "gil")
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = m.GetStreak(ctx, "gil")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_PersistStreakRejectsBadCounters(t *testing.T) {
	m := NewMemoryStore()

	err := m.PersistStreak(context.Background(), &streak.Streak{UserID: "hal", CurrentStreak: -1})
	assert.ErrorIs(t, err, ErrInvalidStreak)
}
