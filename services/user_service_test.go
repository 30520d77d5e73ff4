package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dungeonStreakAPI/internal/store"
	"dungeonStreakAPI/internal/types/clerk"
)

func TestDisplayName(t *testing.T) {
	emails := []clerk.EmailAddress{
		{ID: "e1", EmailAddress: "other@example.com"},
		{ID: "e2", EmailAddress: "rogue@example.com"},
	}

	tests := []struct {
		name string
		data clerk.UserData
		want string
	}{
		{"full name", clerk.UserData{FirstName: "Ada", LastName: "Lovelace", Username: "ada"}, "Ada Lovelace"},
		{"first name only", clerk.UserData{FirstName: "Ada"}, "Ada"},
		{"username", clerk.UserData{Username: "ada"}, "ada"},
		{"primary email", clerk.UserData{PrimaryEmailAddressID: "e2", EmailAddresses: emails}, "rogue"},
		{"first email when primary missing", clerk.UserData{PrimaryEmailAddressID: "x", EmailAddresses: emails}, "other"},
		{"nothing", clerk.UserData{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(&tt.data))
		})
	}
}

func TestSyncClerkUser(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	svc := NewUserService(st)

	u, err := svc.SyncClerkUser(ctx, &clerk.UserData{ID: "user_1", Username: "thief"})
	require.NoError(t, err)
	assert.Equal(t, "thief", u.Name)

	_, err = svc.SyncClerkUser(ctx, &clerk.UserData{ID: "user_1", FirstName: "Sly", LastName: "Cooper"})
	require.NoError(t, err)

	stored, err := st.GetUser(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Sly Cooper", stored.Name)
}

func TestSyncClerkUserRequiresID(t *testing.T) {
	svc := NewUserService(store.NewMemoryStore())

	_, err := svc.SyncClerkUser(context.Background(), &clerk.UserData{Username: "ghost"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "id", verr.Field)
}
