package submission

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Submission is a user's progress note for one calendar day. (UserID, Date) is unique.
type Submission struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         string     `json:"userId" db:"user_id"`
	Date           civil.Date `json:"date" db:"date"`
	SubmissionText string     `json:"submissionText" db:"submission_text"`
	StreakCount    int        `json:"streakCount" db:"streak_count"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

type SubmitRequest struct {
	UserID         string `json:"userId"`
	Date           string `json:"date"`
	SubmissionText string `json:"submissionText"`
}

type SubmitResponse struct {
	Success     bool        `json:"success"`
	StreakCount int         `json:"streakCount"`
	IsNewDay    bool        `json:"isNewDay"`
	Submission  *Submission `json:"submission"`
}

// WebhookPayload is the body accepted by the notification webhook endpoint.
type WebhookPayload struct {
	UserID         string `json:"userId"`
	Date           string `json:"date"`
	SubmissionText string `json:"submissionText"`
	StreakCount    int    `json:"streakCount"`
}

// Dates extracts the calendar dates of subs, preserving order.
func Dates(subs []*Submission) []civil.Date {
	dates := make([]civil.Date, 0, len(subs))
	for _, s := range subs {
		dates = append(dates, s.Date)
	}
	return dates
}
