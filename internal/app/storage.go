// Package app wires configured backends into the repositories the services use.
package app

import (
	"context"
	"fmt"
	"time"

	"storyquest-server/internal/config"
	"storyquest-server/internal/database"
	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/messaging"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Storage bundles the repositories of the selected backend. Close releases
// every connection opened by OpenStorage.
type Storage struct {
	Stories  interfaces.StoryRepository
	Progress interfaces.ProgressRepository
	// Redis is nil unless REDIS_ADDR is set.
	Redis   *redis.Client
	closers []func()
}

// Close закрывает соединения в обратном порядке.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStorage connects to the configured backend and, when REDIS_ADDR is set,
// puts the Redis cache in front of the story repository.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	storage := &Storage{}

	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, database.PoolConfig{
			DSN:             cfg.GetDSN(),
			MaxConns:        cfg.DBMaxConns,
			MaxConnIdleTime: cfg.DBIdleTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		storage.closers = append(storage.closers, pool.Close)

		if cfg.DBMigrationsEnabled {
			if err := database.ApplyMigrations(pool, logger); err != nil {
				storage.Close()
				return nil, err
			}
		}
		storage.Stories = database.NewPgStoryRepository(pool, logger)
		storage.Progress = database.NewPgProgressRepository(pool, logger)

	case config.BackendFirestore:
		client, err := database.NewFirestoreClient(ctx, database.FirestoreConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
		}, logger)
		if err != nil {
			return nil, err
		}
		storage.closers = append(storage.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close Firestore client", zap.Error(err))
			}
		})
		storage.Stories = database.NewFirestoreStoryRepository(client, logger)
		storage.Progress = database.NewFirestoreProgressRepository(client, logger)

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}

	if cfg.RedisAddr != "" {
		redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, logger)
		if err != nil {
			storage.Close()
			return nil, err
		}
		storage.Redis = redisClient
		storage.closers = append(storage.closers, func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("Failed to close Redis client", zap.Error(err))
			}
		})
		storage.Stories = database.NewCachedStoryRepository(storage.Stories, redisClient, cfg.StoryCacheTTL, logger)
		logger.Info("Story cache enabled", zap.Duration("ttl", cfg.StoryCacheTTL))
	}

	logger.Info("Storage initialized", zap.String("backend", cfg.StorageBackend))
	return storage, nil
}

// EventPublisher is the configured ending event publisher and its cleanup.
type EventPublisher struct {
	Publisher interfaces.EndingEventPublisher
	Close     func()
}

// OpenEventPublisher connects to RabbitMQ when RABBITMQ_URL is set, otherwise
// events are only logged.
func OpenEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*EventPublisher, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, ending events will only be logged")
		return &EventPublisher{Publisher: messaging.NewLoggingEndingPublisher(logger), Close: func() {}}, nil
	}

	conn, err := messaging.Connect(ctx, cfg.RabbitMQURL, 10, 3*time.Second, logger)
	if err != nil {
		return nil, err
	}
	publisher, err := messaging.NewEndingPublisher(conn, cfg.EndingEventsQueue, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &EventPublisher{
		Publisher: publisher,
		Close: func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close RabbitMQ channel", zap.Error(err))
			}
			if err := conn.Close(); err != nil {
				logger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
			}
		},
	}, nil
}
