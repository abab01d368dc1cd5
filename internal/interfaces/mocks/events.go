package mocks

import (
	"context"

	"storyquest-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// EndingEventPublisher is a mock of interfaces.EndingEventPublisher.
type EndingEventPublisher struct {
	mock.Mock
}

func (m *EndingEventPublisher) PublishEndingDiscovered(ctx context.Context, event models.EndingDiscoveredEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
