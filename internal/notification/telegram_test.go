package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTelegramNotifier_RejectsMalformedToken(t *testing.T) {
	_, err := NewTelegramNotifier("not-a-token", 42)
	assert.Error(t, err)
}
