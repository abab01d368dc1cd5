package database

import (
	"context"
	"fmt"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.ProgressRepository = (*firestoreProgressRepository)(nil)

type firestoreProgressRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreProgressRepository keeps one "progress" document per player, keyed by player id.
func NewFirestoreProgressRepository(client *firestore.Client, logger *zap.Logger) interfaces.ProgressRepository {
	return &firestoreProgressRepository{
		client: client,
		logger: logger.Named("FirestoreProgressRepo"),
	}
}

func (r *firestoreProgressRepository) Get(ctx context.Context, playerID string) (*models.Progress, error) {
	if !isValidDocumentID(playerID) {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidPlayerID, playerID)
	}
	doc, err := r.client.Collection(progressCollection).Doc(playerID).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get player progress", zap.String("playerID", playerID), zap.Error(err))
		return nil, storageError(fmt.Sprintf("failed to get progress for player %s", playerID), err)
	}

	var progress models.Progress
	if err := doc.DataTo(&progress); err != nil {
		r.logger.Error("Failed to decode player progress", zap.String("playerID", playerID), zap.Error(err))
		return nil, fmt.Errorf("failed to decode progress for player %s: %w", playerID, err)
	}
	progress.PlayerID = playerID
	if progress.Path == nil {
		progress.Path = []string{}
	}
	if progress.DiscoveredEndings == nil {
		progress.DiscoveredEndings = make(map[string][]string)
	}
	return &progress, nil
}

// Save overwrites the document (last write wins).
func (r *firestoreProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	if !isValidDocumentID(progress.PlayerID) {
		return fmt.Errorf("%w: %q", models.ErrInvalidPlayerID, progress.PlayerID)
	}
	progress.UpdatedAt = time.Now().UTC()
	if _, err := r.client.Collection(progressCollection).Doc(progress.PlayerID).Set(ctx, progress); err != nil {
		r.logger.Error("Failed to save player progress",
			zap.String("playerID", progress.PlayerID),
			zap.String("storyID", progress.StoryID),
			zap.Error(err),
		)
		return storageError(fmt.Sprintf("failed to save progress for player %s", progress.PlayerID), err)
	}
	return nil
}
