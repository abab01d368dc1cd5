package interfaces

import (
	"context"

	"storyquest-server/internal/models"
)

// EndingEventPublisher publishes gameplay events to the message broker.
//
//go:generate mockery --name EndingEventPublisher --output ./mocks --outpkg mocks --case=underscore
type EndingEventPublisher interface {
	PublishEndingDiscovered(ctx context.Context, event models.EndingDiscoveredEvent) error
}
