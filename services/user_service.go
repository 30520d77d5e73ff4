package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/internal/types/clerk"
	"dungeonStreakAPI/internal/types/user"
)

type UserService struct {
	users store.UserStore
}

func NewUserService(users store.UserStore) *UserService {
	return &UserService{users: users}
}

// SyncClerkUser stores the display name Clerk reports for a user so
// announcements can greet them by name.
func (s *UserService) SyncClerkUser(ctx context.Context, data *clerk.UserData) (*user.User, error) {
	if data.ID == "" {
		return nil, invalidField("id", "is required")
	}

	u, err := s.users.UpsertUser(ctx, data.ID, DisplayName(data))
	if err != nil {
		return nil, fmt.Errorf("failed to sync clerk user: %w", err)
	}

	log.WithFields(log.Fields{"user_id": u.ID, "name": u.Name}).Info("Synced user from Clerk")
	return u, nil
}

// DisplayName prefers the full name, then the username, then the email's local part.
func DisplayName(data *clerk.UserData) string {
	if name := strings.TrimSpace(data.FirstName + " " + data.LastName); name != "" {
		return name
	}
	if data.Username != "" {
		return data.Username
	}
	local, _, _ := strings.Cut(data.PrimaryEmail(), "@")
	return local
}
