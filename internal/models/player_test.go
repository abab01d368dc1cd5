package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePlayerID(t *testing.T) {
	valid := []string{"p1", "player-42", "user@example.com", "_x_", "__", strings.Repeat("a", MaxPlayerIDLength)}
	for _, id := range valid {
		assert.NoError(t, ValidatePlayerID(id), id)
	}

	invalid := []string{"", "a/b", ".", "..", "__x__", "____", strings.Repeat("a", MaxPlayerIDLength+1)}
	for _, id := range invalid {
		assert.ErrorIs(t, ValidatePlayerID(id), ErrInvalidPlayerID, id)
	}
}
