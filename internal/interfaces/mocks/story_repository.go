package mocks

import (
	"context"

	"storyquest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// StoryRepository is a mock of interfaces.StoryRepository.
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) List(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}

func (m *StoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) (string, error) {
	args := m.Called(ctx, story)
	return args.String(0), args.Error(1)
}

func (m *StoryRepository) Update(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *StoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
