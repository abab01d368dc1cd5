package interfaces

import (
	"context"

	"storyquest-server/internal/models"
)

// StoryRepository defines the CRUD contract of the story document store.
//
//go:generate mockery --name StoryRepository --output ./mocks --outpkg mocks --case=underscore
type StoryRepository interface {
	// List returns all stories in creation order.
	List(ctx context.Context) ([]models.Story, error)

	// GetByID returns models.ErrStoryNotFound if the story does not exist.
	GetByID(ctx context.Context, id string) (*models.Story, error)

	// Create stores a new story and returns its generated ID.
	Create(ctx context.Context, story *models.Story) (string, error)

	// Update overwrites the story identified by story.ID.
	// Returns models.ErrStoryNotFound if it does not exist.
	Update(ctx context.Context, story *models.Story) error

	// Delete removes the story. Returns models.ErrStoryNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}
