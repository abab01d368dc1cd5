package mocks

import (
	"context"

	"storyquest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// SessionService is a mock of service.SessionService.
type SessionService struct {
	mock.Mock
}

func (m *SessionService) ListStories(ctx context.Context, playerID string) (*models.StoryListing, error) {
	args := m.Called(ctx, playerID)
	listing, _ := args.Get(0).(*models.StoryListing)
	return listing, args.Error(1)
}

func (m *SessionService) SelectStory(ctx context.Context, playerID, storyID, mode string) (*models.GameView, error) {
	args := m.Called(ctx, playerID, storyID, mode)
	view, _ := args.Get(0).(*models.GameView)
	return view, args.Error(1)
}

func (m *SessionService) Choose(ctx context.Context, playerID, nextNodeID string) (*models.GameView, error) {
	args := m.Called(ctx, playerID, nextNodeID)
	view, _ := args.Get(0).(*models.GameView)
	return view, args.Error(1)
}

func (m *SessionService) Restart(ctx context.Context, playerID string) (*models.GameView, error) {
	args := m.Called(ctx, playerID)
	view, _ := args.Get(0).(*models.GameView)
	return view, args.Error(1)
}

func (m *SessionService) CurrentView(ctx context.Context, playerID string) (*models.GameView, error) {
	args := m.Called(ctx, playerID)
	view, _ := args.Get(0).(*models.GameView)
	return view, args.Error(1)
}
