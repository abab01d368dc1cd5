package interfaces

import (
	"context"

	"storyquest-server/internal/models"
)

// ProgressRepository reads and writes the single progress record of a player.
//
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
type ProgressRepository interface {
	// Get returns models.ErrNotFound when the player has no progress yet.
	Get(ctx context.Context, playerID string) (*models.Progress, error)

	// Save overwrites the whole record (no merge, last writer wins).
	Save(ctx context.Context, progress *models.Progress) error
}
