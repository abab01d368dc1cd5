package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

const (
	listStoriesQuery = `
SELECT id, title, description, endings_count, nodes, created_at, updated_at
FROM stories
ORDER BY created_at, id`

	getStoryByIDQuery = `
SELECT id, title, description, endings_count, nodes, created_at, updated_at
FROM stories
WHERE id = $1`

	createStoryQuery = `
INSERT INTO stories (id, title, description, endings_count, nodes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateStoryQuery = `
UPDATE stories SET
    title = $2, description = $3, endings_count = $4, nodes = $5, updated_at = $6
WHERE id = $1`

	deleteStoryQuery = `DELETE FROM stories WHERE id = $1`
)

// storyRow - строка таблицы stories; nodes хранится как jsonb.
type storyRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	EndingsCount int       `db:"endings_count"`
	Nodes        []byte    `db:"nodes"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r storyRow) toModel() (models.Story, error) {
	story := models.Story{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		EndingsCount: r.EndingsCount,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if err := json.Unmarshal(r.Nodes, &story.Nodes); err != nil {
		return models.Story{}, fmt.Errorf("failed to decode nodes of story %s: %w", r.ID, err)
	}
	if story.Nodes == nil {
		story.Nodes = []models.Node{}
	}
	return story, nil
}

type pgStoryRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a PostgreSQL backed StoryRepository.
func NewPgStoryRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

func (r *pgStoryRepository) List(ctx context.Context) ([]models.Story, error) {
	var rows []storyRow
	if err := pgxscan.Select(ctx, r.db, &rows, listStoriesQuery); err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, storageError("failed to list stories", err)
	}

	stories := make([]models.Story, 0, len(rows))
	for _, row := range rows {
		story, err := row.toModel()
		if err != nil {
			r.logger.Error("Failed to decode story", zap.String("storyID", row.ID), zap.Error(err))
			return nil, err
		}
		stories = append(stories, story)
	}
	r.logger.Debug("Stories listed", zap.Int("count", len(stories)))
	return stories, nil
}

func (r *pgStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	logFields := []zap.Field{zap.String("storyID", id)}

	var row storyRow
	if err := pgxscan.Get(ctx, r.db, &row, getStoryByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story not found", logFields...)
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", append(logFields, zap.Error(err))...)
		return nil, storageError(fmt.Sprintf("failed to get story %s", id), err)
	}
	story, err := row.toModel()
	if err != nil {
		r.logger.Error("Failed to decode story", append(logFields, zap.Error(err))...)
		return nil, err
	}
	return &story, nil
}

// Create stores a new story under a generated id.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) (string, error) {
	nodesJSON, err := json.Marshal(story.Nodes)
	if err != nil {
		return "", fmt.Errorf("failed to encode nodes: %w", err)
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	logFields := []zap.Field{zap.String("storyID", id), zap.String("title", story.Title)}

	if _, err := r.db.Exec(ctx, createStoryQuery,
		id, story.Title, story.Description, story.EndingsCount, nodesJSON, now, now,
	); err != nil {
		r.logger.Error("Failed to create story", append(logFields, zap.Error(err))...)
		return "", storageError("failed to create story", err)
	}

	story.ID = id
	story.CreatedAt = now
	story.UpdatedAt = now
	r.logger.Info("Story created", logFields...)
	return id, nil
}

func (r *pgStoryRepository) Update(ctx context.Context, story *models.Story) error {
	nodesJSON, err := json.Marshal(story.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode nodes: %w", err)
	}
	now := time.Now().UTC()
	logFields := []zap.Field{zap.String("storyID", story.ID)}

	tag, err := r.db.Exec(ctx, updateStoryQuery,
		story.ID, story.Title, story.Description, story.EndingsCount, nodesJSON, now,
	)
	if err != nil {
		r.logger.Error("Failed to update story", append(logFields, zap.Error(err))...)
		return storageError(fmt.Sprintf("failed to update story %s", story.ID), err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update non-existent story", logFields...)
		return models.ErrStoryNotFound
	}
	story.UpdatedAt = now
	r.logger.Info("Story updated", logFields...)
	return nil
}

func (r *pgStoryRepository) Delete(ctx context.Context, id string) error {
	logFields := []zap.Field{zap.String("storyID", id)}

	tag, err := r.db.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", append(logFields, zap.Error(err))...)
		return storageError(fmt.Sprintf("failed to delete story %s", id), err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to delete non-existent story", logFields...)
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", logFields...)
	return nil
}
