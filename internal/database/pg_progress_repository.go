package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.ProgressRepository = (*pgProgressRepository)(nil)

const getProgressQuery = `
SELECT story_id, node_id, path, discovered_endings, updated_at
FROM player_progress
WHERE player_id = $1`

const upsertProgressQuery = `
INSERT INTO player_progress (player_id, story_id, node_id, path, discovered_endings, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (player_id) DO UPDATE SET
    story_id = EXCLUDED.story_id,
    node_id = EXCLUDED.node_id,
    path = EXCLUDED.path,
    discovered_endings = EXCLUDED.discovered_endings,
    updated_at = EXCLUDED.updated_at
`

type pgProgressRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProgressRepository creates a PostgreSQL backed ProgressRepository.
func NewPgProgressRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProgressRepository {
	return &pgProgressRepository{
		db:     db,
		logger: logger.Named("PgProgressRepo"),
	}
}

// Get returns models.ErrNotFound when the player has no record yet.
func (r *pgProgressRepository) Get(ctx context.Context, playerID string) (*models.Progress, error) {
	logFields := []zap.Field{zap.String("playerID", playerID)}
	progress := &models.Progress{PlayerID: playerID}
	var path pq.StringArray
	var endingsJSON []byte

	err := r.db.QueryRow(ctx, getProgressQuery, playerID).Scan(
		&progress.StoryID,
		&progress.NodeID,
		&path,
		&endingsJSON,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get player progress", append(logFields, zap.Error(err))...)
		return nil, storageError(fmt.Sprintf("failed to get progress for player %s", playerID), err)
	}

	progress.Path = []string(path)
	if progress.Path == nil {
		progress.Path = []string{}
	}
	if len(endingsJSON) > 0 {
		if err := json.Unmarshal(endingsJSON, &progress.DiscoveredEndings); err != nil {
			r.logger.Error("Failed to decode discovered endings", append(logFields, zap.Error(err))...)
			return nil, fmt.Errorf("failed to decode discovered endings: %w", err)
		}
	}
	if progress.DiscoveredEndings == nil {
		progress.DiscoveredEndings = make(map[string][]string)
	}
	r.logger.Debug("Retrieved player progress", logFields...)
	return progress, nil
}

// Save overwrites the whole record of the player.
func (r *pgProgressRepository) Save(ctx context.Context, progress *models.Progress) error {
	progress.UpdatedAt = time.Now().UTC()
	logFields := []zap.Field{
		zap.String("playerID", progress.PlayerID),
		zap.String("storyID", progress.StoryID),
		zap.String("nodeID", progress.NodeID),
	}

	endings := progress.DiscoveredEndings
	if endings == nil {
		endings = map[string][]string{}
	}
	endingsJSON, err := json.Marshal(endings)
	if err != nil {
		r.logger.Error("Failed to encode discovered endings", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to encode discovered endings: %w", err)
	}
	path := progress.Path
	if path == nil {
		path = []string{}
	}

	if _, err := r.db.Exec(ctx, upsertProgressQuery,
		progress.PlayerID,
		progress.StoryID,
		progress.NodeID,
		pq.Array(path),
		endingsJSON,
		progress.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to upsert player progress", append(logFields, zap.Error(err))...)
		return storageError(fmt.Sprintf("failed to save progress for player %s", progress.PlayerID), err)
	}
	r.logger.Debug("Player progress saved", logFields...)
	return nil
}
