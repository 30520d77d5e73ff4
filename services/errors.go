package services

import (
	"fmt"

	"dungeonStreakAPI/internal/store"
)

// ErrNotFound is returned when the requested user has no records.
var ErrNotFound = store.ErrNotFound

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
