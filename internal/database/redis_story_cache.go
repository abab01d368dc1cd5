package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.StoryRepository = (*cachedStoryRepository)(nil)

const (
	storyListCacheKey = "stories:all"
	storyCacheKeyFmt  = "story:%s"
)

// cachedStoryRepository is a read-through cache in front of another StoryRepository.
// Redis errors are logged and the call falls through to the wrapped repository.
type cachedStoryRepository struct {
	next   interfaces.StoryRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedStoryRepository wraps next with a Redis cache. Writes invalidate the list and the story key.
func NewCachedStoryRepository(next interfaces.StoryRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.StoryRepository {
	return &cachedStoryRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisStoryCache"),
	}
}

func storyCacheKey(id string) string {
	return fmt.Sprintf(storyCacheKeyFmt, id)
}

func (r *cachedStoryRepository) List(ctx context.Context) ([]models.Story, error) {
	var stories []models.Story
	if r.readCache(ctx, storyListCacheKey, &stories) {
		return stories, nil
	}
	stories, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}
	r.writeCache(ctx, storyListCacheKey, stories)
	return stories, nil
}

func (r *cachedStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	if r.readCache(ctx, storyCacheKey(id), &story) {
		return &story, nil
	}
	found, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.writeCache(ctx, storyCacheKey(id), found)
	return found, nil
}

func (r *cachedStoryRepository) Create(ctx context.Context, story *models.Story) (string, error) {
	id, err := r.next.Create(ctx, story)
	if err != nil {
		return "", err
	}
	r.invalidate(ctx, storyListCacheKey)
	return id, nil
}

func (r *cachedStoryRepository) Update(ctx context.Context, story *models.Story) error {
	if err := r.next.Update(ctx, story); err != nil {
		return err
	}
	r.invalidate(ctx, storyListCacheKey, storyCacheKey(story.ID))
	return nil
}

func (r *cachedStoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, storyListCacheKey, storyCacheKey(id))
	return nil
}

func (r *cachedStoryRepository) readCache(ctx context.Context, key string, dest any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Cache read failed, falling back to storage", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("Cached value is corrupted, dropping it", zap.String("key", key), zap.Error(err))
		r.invalidate(ctx, key)
		return false
	}
	r.logger.Debug("Cache hit", zap.String("key", key))
	return true
}

func (r *cachedStoryRepository) writeCache(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *cachedStoryRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
