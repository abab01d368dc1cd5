//go:build integration

package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storyquest-server/internal/database"
	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// StorageIntegrationSuite runs the repositories against real PostgreSQL and Redis containers.
type StorageIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pool        *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger

	stories  interfaces.StoryRepository
	progress interfaces.ProgressRepository
	cached   interfaces.StoryRepository
}

func (s *StorageIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err)

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("storyquest_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = database.NewPool(s.ctx, database.PoolConfig{DSN: dsn}, s.logger)
	require.NoError(s.T(), err, "Failed to connect to test postgres")
	require.NoError(s.T(), database.ApplyMigrations(s.pool, s.logger), "Failed to run migrations")
	// Повторный запуск не должен падать.
	require.NoError(s.T(), database.ApplyMigrations(s.pool, s.logger))

	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient, err = database.NewRedisClient(s.ctx, database.RedisConfig{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	}, s.logger)
	require.NoError(s.T(), err, "Failed to connect to test redis")

	s.stories = database.NewPgStoryRepository(s.pool, s.logger)
	s.progress = database.NewPgProgressRepository(s.pool, s.logger)
	s.cached = database.NewCachedStoryRepository(s.stories, s.redisClient, time.Minute, s.logger)
}

func (s *StorageIntegrationSuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.rdContainer != nil {
		_ = s.rdContainer.Terminate(s.ctx)
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *StorageIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE stories, player_progress")
	s.Require().NoError(err)
	s.Require().NoError(s.redisClient.FlushDB(s.ctx).Err())
}

func sampleStory(title string) *models.Story {
	return &models.Story{
		Title:        title,
		Description:  "Test story",
		EndingsCount: 2,
		Nodes: []models.Node{
			{ID: "start", Text: "Begin", Choices: []models.Choice{{Label: "Left", Next: "left"}, {Label: "Right", Next: "right"}}},
			{ID: "left", Text: "Left ending", Choices: []models.Choice{}, IsEnding: true},
			{ID: "right", Text: "Right ending", Choices: []models.Choice{}, IsEnding: true},
		},
	}
}

func (s *StorageIntegrationSuite) TestStoryLifecycle() {
	first := sampleStory("First")
	id, err := s.stories.Create(s.ctx, first)
	s.Require().NoError(err)
	s.NotEmpty(id)
	s.Equal(id, first.ID)

	_, err = s.stories.Create(s.ctx, sampleStory("Second"))
	s.Require().NoError(err)

	got, err := s.stories.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("First", got.Title)
	s.Equal(first.Nodes, got.Nodes)

	list, err := s.stories.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("First", list[0].Title)
	s.Equal("Second", list[1].Title)

	got.Title = "First (edited)"
	got.Nodes = got.Nodes[:1]
	got.Nodes[0].Choices = []models.Choice{}
	s.Require().NoError(s.stories.Update(s.ctx, got))

	edited, err := s.stories.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("First (edited)", edited.Title)
	s.Len(edited.Nodes, 1)

	s.Require().NoError(s.stories.Delete(s.ctx, id))
	_, err = s.stories.GetByID(s.ctx, id)
	s.ErrorIs(err, models.ErrStoryNotFound)
}

func (s *StorageIntegrationSuite) TestStoryNotFound() {
	missing := sampleStory("Ghost")
	missing.ID = "does-not-exist"

	s.ErrorIs(s.stories.Update(s.ctx, missing), models.ErrStoryNotFound)
	s.ErrorIs(s.stories.Delete(s.ctx, missing.ID), models.ErrStoryNotFound)
	_, err := s.stories.GetByID(s.ctx, missing.ID)
	s.ErrorIs(err, models.ErrStoryNotFound)
}

func (s *StorageIntegrationSuite) TestProgressRoundTrip() {
	_, err := s.progress.Get(s.ctx, "player-1")
	s.ErrorIs(err, models.ErrNotFound)

	progress := &models.Progress{
		PlayerID:          "player-1",
		StoryID:           "story-a",
		NodeID:            "left",
		Path:              []string{"start", "left"},
		DiscoveredEndings: map[string][]string{"story-a": {"left"}},
	}
	s.Require().NoError(s.progress.Save(s.ctx, progress))
	s.False(progress.UpdatedAt.IsZero())

	got, err := s.progress.Get(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("story-a", got.StoryID)
	s.Equal("left", got.NodeID)
	s.Equal([]string{"start", "left"}, got.Path)
	s.Equal(map[string][]string{"story-a": {"left"}}, got.DiscoveredEndings)

	// Полная перезапись записи.
	progress.StoryID = "story-b"
	progress.NodeID = "start"
	progress.Path = []string{"start"}
	progress.DiscoveredEndings["story-b"] = []string{"right"}
	s.Require().NoError(s.progress.Save(s.ctx, progress))

	got, err = s.progress.Get(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal("story-b", got.StoryID)
	s.Equal([]string{"start"}, got.Path)
	s.Len(got.DiscoveredEndings, 2)
}

func (s *StorageIntegrationSuite) TestCachedStoryRepository() {
	id, err := s.cached.Create(s.ctx, sampleStory("Cached"))
	s.Require().NoError(err)

	_, err = s.cached.GetByID(s.ctx, id)
	s.Require().NoError(err)
	exists, err := s.redisClient.Exists(s.ctx, "story:"+id).Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)

	_, err = s.cached.List(s.ctx)
	s.Require().NoError(err)
	exists, err = s.redisClient.Exists(s.ctx, "stories:all").Result()
	s.Require().NoError(err)
	s.EqualValues(1, exists)

	story, err := s.cached.GetByID(s.ctx, id)
	s.Require().NoError(err)
	story.Title = "Cached (edited)"
	s.Require().NoError(s.cached.Update(s.ctx, story))

	exists, err = s.redisClient.Exists(s.ctx, "story:"+id, "stories:all").Result()
	s.Require().NoError(err)
	s.EqualValues(0, exists)

	fresh, err := s.cached.GetByID(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Cached (edited)", fresh.Title)

	s.Require().NoError(s.cached.Delete(s.ctx, id))
	_, err = s.cached.GetByID(s.ctx, id)
	s.ErrorIs(err, models.ErrStoryNotFound)
}

func TestStorageIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(StorageIntegrationSuite))
}
