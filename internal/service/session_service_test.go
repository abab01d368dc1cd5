package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storyquest-server/internal/interfaces/mocks"
	"storyquest-server/internal/models"
	"storyquest-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	playerID   = "player-1"
	treasureID = "story-treasure"
	mazeID     = "story-maze"
)

func lostTreasure() *models.Story {
	return &models.Story{
		ID:           treasureID,
		Title:        "The Lost Treasure",
		EndingsCount: 4,
		Nodes: []models.Node{
			{ID: "start", Text: "You are at the beginning of your adventure.", Choices: []models.Choice{{Label: "Enter the forest", Next: "forest"}, {Label: "Climb the mountain", Next: "mountain"}}},
			{ID: "forest", Text: "In the forest...", Choices: []models.Choice{{Label: "Befriend them", Next: "befriend"}, {Label: "Run away", Next: "lost"}}},
			{ID: "mountain", Text: "On the mountain...", Choices: []models.Choice{{Label: "Explore the cave", Next: "cave"}, {Label: "Keep climbing", Next: "peak"}}},
			{ID: "befriend", Text: "You win!", Choices: []models.Choice{}},
			{ID: "lost", Text: "Lost.", Choices: []models.Choice{}},
			{ID: "cave", Text: "Artifacts.", Choices: []models.Choice{}},
			{ID: "peak", Text: "Game over.", Choices: []models.Choice{}},
		},
	}
}

func undergroundMaze() *models.Story {
	return &models.Story{
		ID:           mazeID,
		Title:        "Underground Maze",
		EndingsCount: 3,
		Nodes: []models.Node{
			{ID: "start", Choices: []models.Choice{{Label: "Light a torch", Next: "torch"}, {Label: "Rest here", Next: "rest"}}},
			{ID: "torch", Choices: []models.Choice{{Label: "Go down the stairs", Next: "lowerFloor"}}},
			{ID: "rest"},
			{ID: "lowerFloor"},
		},
	}
}

// memoryProgressRepo keeps progress in memory so multi-step scenarios can be played.
type memoryProgressRepo struct {
	mu      sync.Mutex
	records map[string]models.Progress
	saves   int
}

func newMemoryProgressRepo() *memoryProgressRepo {
	return &memoryProgressRepo{records: make(map[string]models.Progress)}
}

func (r *memoryProgressRepo) Get(_ context.Context, playerID string) (*models.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.records[playerID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (r *memoryProgressRepo) Save(_ context.Context, progress *models.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[progress.PlayerID] = *progress
	r.saves++
	return nil
}

type memoryStoryRepo struct {
	mocks.StoryRepository
	stories map[string]*models.Story
}

func (r *memoryStoryRepo) GetByID(_ context.Context, id string) (*models.Story, error) {
	s, ok := r.stories[id]
	if !ok {
		return nil, models.ErrStoryNotFound
	}
	return s, nil
}

func newScenario(stories ...*models.Story) (service.SessionService, *memoryProgressRepo) {
	repo := &memoryStoryRepo{stories: make(map[string]*models.Story)}
	for _, s := range stories {
		repo.stories[s.ID] = s
	}
	progress := newMemoryProgressRepo()
	return service.NewSessionService(repo, progress, nil, zap.NewNop()), progress
}

func TestSelectStory(t *testing.T) {
	ctx := context.Background()

	t.Run("new game seeds progress and keeps discovered endings", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

		stories.On("GetByID", mock.Anything, treasureID).Return(lostTreasure(), nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(&models.Progress{
			StoryID:           mazeID,
			NodeID:            "torch",
			Path:              []string{"start", "torch"},
			DiscoveredEndings: map[string][]string{mazeID: {"rest"}},
		}, nil).Once()
		progress.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Progress) bool {
			assert.Equal(t, playerID, p.PlayerID)
			assert.Equal(t, treasureID, p.StoryID)
			assert.Equal(t, "start", p.NodeID)
			assert.Equal(t, []string{"start"}, p.Path)
			assert.Equal(t, map[string][]string{mazeID: {"rest"}}, p.DiscoveredEndings)
			return true
		})).Return(nil).Once()

		view, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)
		assert.Equal(t, "The Lost Treasure", view.StoryTitle)
		assert.Equal(t, "start", view.Node.ID)
		assert.False(t, view.IsEnding)
		assert.Equal(t, []string{"start"}, view.Path)
		assert.Equal(t, 1, view.TotalEndingsDiscovered)
		assert.Equal(t, 1, view.DiscoveredCountByStory[mazeID])

		stories.AssertExpectations(t)
		progress.AssertExpectations(t)
	})

	t.Run("resume without progress behaves like new", func(t *testing.T) {
		svcNew, repoNew := newScenario(lostTreasure())
		svcResume, repoResume := newScenario(lostTreasure())

		viewNew, err := svcNew.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)
		viewResume, err := svcResume.SelectStory(ctx, playerID, treasureID, models.ModeResume)
		require.NoError(t, err)

		assert.Equal(t, viewNew, viewResume)
		assert.Equal(t, repoNew.records[playerID], repoResume.records[playerID])
	})

	t.Run("resume of a different story starts a new game", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure(), undergroundMaze())
		_, err := svc.SelectStory(ctx, playerID, mazeID, models.ModeNew)
		require.NoError(t, err)
		_, err = svc.Choose(ctx, playerID, "torch")
		require.NoError(t, err)

		view, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeResume)
		require.NoError(t, err)
		assert.Equal(t, "start", view.Node.ID)
		assert.Equal(t, []string{"start"}, view.Path)
		assert.Equal(t, treasureID, repo.records[playerID].StoryID)
	})

	t.Run("resume continues where the player stopped without writing", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

		stories.On("GetByID", mock.Anything, treasureID).Return(lostTreasure(), nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(&models.Progress{
			StoryID: treasureID,
			NodeID:  "forest",
			Path:    []string{"start", "forest"},
		}, nil).Once()

		view, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeResume)
		require.NoError(t, err)
		assert.Equal(t, "forest", view.Node.ID)
		assert.Equal(t, []string{"start", "forest"}, view.Path)
		progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("resume falls back to the first node when the saved node was removed", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

		edited := lostTreasure()
		stories.On("GetByID", mock.Anything, treasureID).Return(edited, nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(&models.Progress{
			StoryID:           treasureID,
			NodeID:            "deleted-node",
			Path:              []string{"start", "deleted-node"},
			DiscoveredEndings: map[string][]string{treasureID: {"lost"}},
		}, nil).Once()
		progress.On("Save", mock.Anything, mock.MatchedBy(func(p *models.Progress) bool {
			return p.NodeID == "start" && len(p.Path) == 1 && p.Path[0] == "start" &&
				len(p.DiscoveredEndings[treasureID]) == 1
		})).Return(nil).Once()

		view, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeResume)
		require.NoError(t, err)
		assert.Equal(t, "start", view.Node.ID)
		assert.Equal(t, []string{"start"}, view.Path)
		assert.Equal(t, 1, view.TotalEndingsDiscovered)
		progress.AssertExpectations(t)
	})

	t.Run("invalid mode", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

		_, err := svc.SelectStory(ctx, playerID, treasureID, "continue")
		assert.ErrorIs(t, err, models.ErrInvalidMode)
		stories.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown story", func(t *testing.T) {
		svc, repo := newScenario()
		_, err := svc.SelectStory(ctx, playerID, "nope", models.ModeNew)
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
		assert.Zero(t, repo.saves)
	})

	t.Run("empty story blocks the game start", func(t *testing.T) {
		svc, repo := newScenario(&models.Story{ID: "empty", Title: "Empty"})
		_, err := svc.SelectStory(ctx, playerID, "empty", models.ModeNew)
		assert.ErrorIs(t, err, models.ErrEmptyStory)
		assert.Zero(t, repo.saves)
	})

	t.Run("storage failure propagates", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

		storageErr := errors.Join(models.ErrStorageUnavailable, errors.New("connection refused"))
		stories.On("GetByID", mock.Anything, treasureID).Return(lostTreasure(), nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(nil, storageErr).Once()

		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		assert.ErrorIs(t, err, models.ErrStorageUnavailable)
		progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestChoose(t *testing.T) {
	ctx := context.Background()

	t.Run("lost treasure: forest then befriend", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure())
		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)

		view, err := svc.Choose(ctx, playerID, "forest")
		require.NoError(t, err)
		assert.False(t, view.IsEnding)

		view, err = svc.Choose(ctx, playerID, "befriend")
		require.NoError(t, err)
		assert.True(t, view.IsEnding)
		assert.Equal(t, []string{"start", "forest", "befriend"}, view.Path)
		assert.Equal(t, 1, view.DiscoveredCountByStory[treasureID])

		saved := repo.records[playerID]
		assert.Equal(t, []string{"start", "forest", "befriend"}, saved.Path)
		assert.Equal(t, "befriend", saved.NodeID)
		assert.Contains(t, saved.DiscoveredEndings[treasureID], "befriend")
		assert.Equal(t, 3, repo.saves)
	})

	t.Run("unknown node is rejected and nothing is written", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure())
		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)
		before := repo.records[playerID]

		_, err = svc.Choose(ctx, playerID, "dragon")
		assert.ErrorIs(t, err, models.ErrNodeNotFound)
		assert.Equal(t, before, repo.records[playerID])
		assert.Equal(t, 1, repo.saves)
	})

	t.Run("no active story", func(t *testing.T) {
		svc, _ := newScenario(lostTreasure())
		_, err := svc.Choose(ctx, playerID, "forest")
		assert.ErrorIs(t, err, models.ErrNoActiveStory)
	})

	t.Run("reaching an ending twice records it once", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure())
		for i := 0; i < 2; i++ {
			_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
			require.NoError(t, err)
			_, err = svc.Choose(ctx, playerID, "mountain")
			require.NoError(t, err)
			_, err = svc.Choose(ctx, playerID, "cave")
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"cave"}, repo.records[playerID].DiscoveredEndings[treasureID])
	})

	t.Run("publishes an event for a new ending only", func(t *testing.T) {
		stories := &memoryStoryRepo{stories: map[string]*models.Story{treasureID: lostTreasure()}}
		progress := newMemoryProgressRepo()
		events := new(mocks.EndingEventPublisher)
		svc := service.NewSessionService(stories, progress, events, zap.NewNop())

		events.On("PublishEndingDiscovered", mock.Anything, mock.MatchedBy(func(e models.EndingDiscoveredEvent) bool {
			return e.PlayerID == playerID && e.StoryID == treasureID && e.EndingNodeID == "lost" &&
				e.DiscoveredCount == 1 && e.EndingsCount == 4 && !e.OccurredAt.IsZero()
		})).Return(nil).Once()

		for i := 0; i < 2; i++ {
			_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
			require.NoError(t, err)
			_, err = svc.Choose(ctx, playerID, "forest")
			require.NoError(t, err)
			_, err = svc.Choose(ctx, playerID, "lost")
			require.NoError(t, err)
		}
		events.AssertExpectations(t)
		events.AssertNumberOfCalls(t, "PublishEndingDiscovered", 1)
	})

	t.Run("publish failure does not fail the transition", func(t *testing.T) {
		stories := &memoryStoryRepo{stories: map[string]*models.Story{treasureID: lostTreasure()}}
		progress := newMemoryProgressRepo()
		events := new(mocks.EndingEventPublisher)
		svc := service.NewSessionService(stories, progress, events, zap.NewNop())
		events.On("PublishEndingDiscovered", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)
		_, err = svc.Choose(ctx, playerID, "forest")
		require.NoError(t, err)
		view, err := svc.Choose(ctx, playerID, "befriend")
		require.NoError(t, err)
		assert.Equal(t, 1, view.TotalEndingsDiscovered)
		events.AssertExpectations(t)
	})

	t.Run("failed save surfaces and skips the event", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		events := new(mocks.EndingEventPublisher)
		svc := service.NewSessionService(stories, progress, events, zap.NewNop())

		stories.On("GetByID", mock.Anything, treasureID).Return(lostTreasure(), nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(&models.Progress{
			StoryID: treasureID, NodeID: "forest", Path: []string{"start", "forest"},
		}, nil).Once()
		progress.On("Save", mock.Anything, mock.Anything).Return(models.ErrStorageUnavailable).Once()

		_, err := svc.Choose(ctx, playerID, "befriend")
		assert.ErrorIs(t, err, models.ErrStorageUnavailable)
		events.AssertNotCalled(t, "PublishEndingDiscovered", mock.Anything, mock.Anything)
	})

	t.Run("active story deleted", func(t *testing.T) {
		svc, repo := newScenario()
		repo.records[playerID] = models.Progress{PlayerID: playerID, StoryID: "gone", NodeID: "start", Path: []string{"start"}}
		_, err := svc.Choose(ctx, playerID, "forest")
		assert.ErrorIs(t, err, models.ErrStoryNotFound)
	})
}

func TestRestart(t *testing.T) {
	ctx := context.Background()

	t.Run("resets path and keeps discovered endings", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure())
		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)
		_, err = svc.Choose(ctx, playerID, "mountain")
		require.NoError(t, err)
		_, err = svc.Choose(ctx, playerID, "peak")
		require.NoError(t, err)

		view, err := svc.Restart(ctx, playerID)
		require.NoError(t, err)
		assert.Equal(t, "start", view.Node.ID)
		assert.Equal(t, []string{"start"}, view.Path)
		assert.Equal(t, 1, view.DiscoveredCountByStory[treasureID])

		saved := repo.records[playerID]
		assert.Equal(t, []string{"start"}, saved.Path)
		assert.Equal(t, []string{"peak"}, saved.DiscoveredEndings[treasureID])
	})

	t.Run("discovered endings never shrink", func(t *testing.T) {
		svc, repo := newScenario(lostTreasure(), undergroundMaze())
		_, err := svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
		require.NoError(t, err)

		last := 0
		steps := []string{"forest", "lost", "RESTART", "forest", "befriend", "RESTART", "mountain", "cave", "RESTART", "forest", "lost"}
		for _, step := range steps {
			if step == "RESTART" {
				_, err = svc.Restart(ctx, playerID)
			} else {
				_, err = svc.Choose(ctx, playerID, step)
			}
			require.NoError(t, err)
			n := len(repo.records[playerID].DiscoveredEndings[treasureID])
			assert.GreaterOrEqual(t, n, last)
			last = n
		}
		assert.Equal(t, 3, last)

		// Switching stories keeps the other story's endings too.
		_, err = svc.SelectStory(ctx, playerID, mazeID, models.ModeNew)
		require.NoError(t, err)
		assert.Len(t, repo.records[playerID].DiscoveredEndings[treasureID], 3)
	})

	t.Run("no active story", func(t *testing.T) {
		svc, _ := newScenario(lostTreasure())
		_, err := svc.Restart(ctx, playerID)
		assert.ErrorIs(t, err, models.ErrNoActiveStory)
	})
}

func TestCurrentView(t *testing.T) {
	ctx := context.Background()
	svc, repo := newScenario(lostTreasure())

	_, err := svc.CurrentView(ctx, playerID)
	assert.ErrorIs(t, err, models.ErrNoActiveStory)

	_, err = svc.SelectStory(ctx, playerID, treasureID, models.ModeNew)
	require.NoError(t, err)
	_, err = svc.Choose(ctx, playerID, "forest")
	require.NoError(t, err)
	saves := repo.saves

	view, err := svc.CurrentView(ctx, playerID)
	require.NoError(t, err)
	assert.Equal(t, "forest", view.Node.ID)
	assert.Equal(t, []string{"start", "forest"}, view.Path)
	assert.Equal(t, saves, repo.saves)
}

func TestListStories(t *testing.T) {
	ctx := context.Background()
	stories := new(mocks.StoryRepository)
	progress := new(mocks.ProgressRepository)
	svc := service.NewSessionService(stories, progress, nil, zap.NewNop())

	stories.On("List", mock.Anything).Return([]models.Story{*lostTreasure(), *undergroundMaze()}, nil).Once()
	progress.On("Get", mock.Anything, playerID).Return(&models.Progress{
		DiscoveredEndings: map[string][]string{treasureID: {"befriend", "cave"}, mazeID: {"rest"}},
	}, nil).Once()

	listing, err := svc.ListStories(ctx, playerID)
	require.NoError(t, err)
	require.Len(t, listing.Stories, 2)
	assert.Equal(t, models.StorySummary{ID: treasureID, Title: "The Lost Treasure", EndingsCount: 4, DiscoveredCount: 2}, listing.Stories[0])
	assert.Equal(t, 1, listing.Stories[1].DiscoveredCount)
	assert.Equal(t, 3, listing.TotalEndingsDiscovered)

	t.Run("no progress yet", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())
		stories.On("List", mock.Anything).Return([]models.Story{*undergroundMaze()}, nil).Once()
		progress.On("Get", mock.Anything, "newcomer").Return(nil, models.ErrNotFound).Once()

		listing, err := svc.ListStories(ctx, "newcomer")
		require.NoError(t, err)
		assert.Zero(t, listing.TotalEndingsDiscovered)
		assert.Zero(t, listing.Stories[0].DiscoveredCount)
	})

	t.Run("untitled story", func(t *testing.T) {
		stories := new(mocks.StoryRepository)
		progress := new(mocks.ProgressRepository)
		svc := service.NewSessionService(stories, progress, nil, zap.NewNop())
		untitled := *undergroundMaze()
		untitled.Title = ""
		stories.On("List", mock.Anything).Return([]models.Story{untitled}, nil).Once()
		progress.On("Get", mock.Anything, playerID).Return(nil, models.ErrNotFound).Once()

		listing, err := svc.ListStories(ctx, playerID)
		require.NoError(t, err)
		assert.Equal(t, "Untitled", listing.Stories[0].Title)
	})
}
