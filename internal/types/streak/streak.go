package streak

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Streak is the per-user streak record. LongestStreak >= CurrentStreak after every write.
type Streak struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        string     `json:"userId" db:"user_id"`
	CurrentStreak int        `json:"currentStreak" db:"current_streak"`
	LongestStreak int        `json:"longestStreak" db:"longest_streak"`
	LastUpdated   civil.Date `json:"lastUpdated" db:"last_updated"`
	CreatedAt     time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" db:"updated_at"`
}

// Empty returns the zero-valued state used when a user has no streak record yet.
func Empty(userID string) *Streak {
	return &Streak{UserID: userID}
}

type StreakResponse struct {
	UserID        string     `json:"userId"`
	CurrentStreak int        `json:"currentStreak"`
	LongestStreak int        `json:"longestStreak"`
	Heatmap       [4][7]*int `json:"heatmap"`
	Bosses        [4]string  `json:"bosses"`
	WeekStart     civil.Date `json:"weekStart"`
}
