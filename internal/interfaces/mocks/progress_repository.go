package mocks

import (
	"context"

	"storyquest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// ProgressRepository is a mock of interfaces.ProgressRepository.
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, playerID string) (*models.Progress, error) {
	args := m.Called(ctx, playerID)
	progress, _ := args.Get(0).(*models.Progress)
	return progress, args.Error(1)
}

func (m *ProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	args := m.Called(ctx, progress)
	return args.Error(0)
}
