package mocks

import (
	"context"

	"storyquest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// StoryService is a mock of service.StoryService.
type StoryService struct {
	mock.Mock
}

func (m *StoryService) ListStories(ctx context.Context) ([]models.Story, error) {
	args := m.Called(ctx)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}

func (m *StoryService) GetStory(ctx context.Context, id string) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}

func (m *StoryService) CreateStory(ctx context.Context, draft models.StoryDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *StoryService) UpdateStory(ctx context.Context, id string, draft models.StoryDraft) error {
	args := m.Called(ctx, id, draft)
	return args.Error(0)
}

func (m *StoryService) DeleteStory(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StoryService) ImportStory(ctx context.Context, story *models.Story) (string, error) {
	args := m.Called(ctx, story)
	return args.String(0), args.Error(1)
}
