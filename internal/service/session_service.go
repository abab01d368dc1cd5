package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"
	"storyquest-server/internal/traversal"

	"go.uber.org/zap"
)

const untitledStory = "Untitled"

// SessionService is the session controller: it loads the story and the
// player's progress, runs the traversal engine and flushes the resulting
// progress record after every transition.
type SessionService interface {
	ListStories(ctx context.Context, playerID string) (*models.StoryListing, error)
	SelectStory(ctx context.Context, playerID, storyID, mode string) (*models.GameView, error)
	Choose(ctx context.Context, playerID, nextNodeID string) (*models.GameView, error)
	Restart(ctx context.Context, playerID string) (*models.GameView, error)
	CurrentView(ctx context.Context, playerID string) (*models.GameView, error)
}

type sessionServiceImpl struct {
	stories  interfaces.StoryRepository
	progress interfaces.ProgressRepository
	events   interfaces.EndingEventPublisher
	logger   *zap.Logger
}

// NewSessionService creates a SessionService. events may be nil.
func NewSessionService(
	stories interfaces.StoryRepository,
	progress interfaces.ProgressRepository,
	events interfaces.EndingEventPublisher,
	logger *zap.Logger,
) SessionService {
	return &sessionServiceImpl{
		stories:  stories,
		progress: progress,
		events:   events,
		logger:   logger.Named("SessionService"),
	}
}

// ListStories returns the story picker with the player's discovered endings tally.
func (s *sessionServiceImpl) ListStories(ctx context.Context, playerID string) (*models.StoryListing, error) {
	stories, err := s.stories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	progress, err := s.loadProgress(ctx, playerID)
	if err != nil {
		return nil, err
	}

	byStory, total := traversal.CountDiscovered(progress.DiscoveredEndings)
	listing := &models.StoryListing{
		Stories:                make([]models.StorySummary, 0, len(stories)),
		TotalEndingsDiscovered: total,
	}
	for _, story := range stories {
		listing.Stories = append(listing.Stories, models.StorySummary{
			ID:              story.ID,
			Title:           displayTitle(story.Title),
			Description:     story.Description,
			EndingsCount:    story.EndingsCount,
			DiscoveredCount: byStory[story.ID],
		})
	}
	return listing, nil
}

// SelectStory starts ("new") or continues ("resume") a story.
func (s *sessionServiceImpl) SelectStory(ctx context.Context, playerID, storyID, mode string) (*models.GameView, error) {
	if mode != models.ModeNew && mode != models.ModeResume {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidMode, mode)
	}
	log := s.logger.With(zap.String("playerID", playerID), zap.String("storyID", storyID), zap.String("mode", mode))

	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load story %s: %w", storyID, err)
	}
	progress, err := s.loadProgress(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if mode == models.ModeResume {
		if progress.StoryID == story.ID {
			return s.resume(ctx, story, progress, log)
		}
		log.Info("No saved progress for this story, starting a new game", zap.String("activeStoryID", progress.StoryID))
	}
	return s.startOver(ctx, story, progress, transitionNew)
}

// Choose advances the active story to nextNodeID. A rejected choice writes nothing.
func (s *sessionServiceImpl) Choose(ctx context.Context, playerID, nextNodeID string) (*models.GameView, error) {
	log := s.logger.With(zap.String("playerID", playerID), zap.String("nextNodeID", nextNodeID))

	progress, story, err := s.loadActiveSession(ctx, playerID)
	if err != nil {
		return nil, err
	}

	node, path, err := traversal.Advance(story, nextNodeID, progress.Path)
	if err != nil {
		rejectedChoicesTotal.Inc()
		log.Warn("Choice rejected", zap.String("storyID", story.ID), zap.Error(err))
		return nil, err
	}
	discovered, recorded := traversal.RecordIfEnding(progress.DiscoveredEndings, story.ID, node)

	updated := cloneProgress(progress)
	updated.NodeID = node.ID
	updated.Path = path
	updated.DiscoveredEndings = discovered
	if err := s.save(ctx, updated, transitionChoice); err != nil {
		return nil, err
	}

	if recorded {
		endingsDiscoveredTotal.Inc()
		log.Info("Ending discovered", zap.String("storyID", story.ID), zap.String("endingNodeID", node.ID))
		s.publishEnding(ctx, story, updated, node)
	}
	return buildView(story, node, updated), nil
}

// Restart returns the active story to its first node; discovered endings are kept.
func (s *sessionServiceImpl) Restart(ctx context.Context, playerID string) (*models.GameView, error) {
	progress, story, err := s.loadActiveSession(ctx, playerID)
	if err != nil {
		return nil, err
	}
	return s.startOver(ctx, story, progress, transitionRestart)
}

// CurrentView renders the active session without writing anything.
func (s *sessionServiceImpl) CurrentView(ctx context.Context, playerID string) (*models.GameView, error) {
	progress, story, err := s.loadActiveSession(ctx, playerID)
	if err != nil {
		return nil, err
	}
	node, fellBack, err := traversal.Resume(story, progress.NodeID)
	if err != nil {
		return nil, err
	}
	view := cloneProgress(progress)
	if fellBack || len(view.Path) == 0 {
		view.Path = []string{node.ID}
	}
	return buildView(story, node, view), nil
}

func (s *sessionServiceImpl) resume(ctx context.Context, story *models.Story, progress *models.Progress, log *zap.Logger) (*models.GameView, error) {
	node, fellBack, err := traversal.Resume(story, progress.NodeID)
	if err != nil {
		return nil, err
	}
	if !fellBack {
		view := cloneProgress(progress)
		if len(view.Path) == 0 {
			view.Path = []string{node.ID}
		}
		sessionTransitionsTotal.WithLabelValues(transitionResume).Inc()
		return buildView(story, node, view), nil
	}

	// Сохранённый узел удалён из истории: молча начинаем с первого узла.
	log.Warn("Saved node no longer exists, resuming from the start node", zap.String("savedNodeID", progress.NodeID))
	updated := cloneProgress(progress)
	updated.NodeID = node.ID
	updated.Path = []string{node.ID}
	if err := s.save(ctx, updated, transitionResume); err != nil {
		return nil, err
	}
	return buildView(story, node, updated), nil
}

func (s *sessionServiceImpl) startOver(ctx context.Context, story *models.Story, progress *models.Progress, kind string) (*models.GameView, error) {
	node, path, err := traversal.Start(story)
	if err != nil {
		return nil, fmt.Errorf("cannot start story %s: %w", story.ID, err)
	}
	updated := cloneProgress(progress)
	updated.StoryID = story.ID
	updated.NodeID = node.ID
	updated.Path = path
	if err := s.save(ctx, updated, kind); err != nil {
		return nil, err
	}
	return buildView(story, node, updated), nil
}

func (s *sessionServiceImpl) loadProgress(ctx context.Context, playerID string) (*models.Progress, error) {
	progress, err := s.progress.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Debug("No progress yet, creating empty record", zap.String("playerID", playerID))
			return models.NewProgress(playerID), nil
		}
		return nil, fmt.Errorf("failed to load progress for player %s: %w", playerID, err)
	}
	progress.PlayerID = playerID
	if progress.DiscoveredEndings == nil {
		progress.DiscoveredEndings = make(map[string][]string)
	}
	return progress, nil
}

func (s *sessionServiceImpl) loadActiveSession(ctx context.Context, playerID string) (*models.Progress, *models.Story, error) {
	progress, err := s.loadProgress(ctx, playerID)
	if err != nil {
		return nil, nil, err
	}
	if !progress.HasActiveStory() {
		return nil, nil, models.ErrNoActiveStory
	}
	story, err := s.stories.GetByID(ctx, progress.StoryID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active story %s: %w", progress.StoryID, err)
	}
	return progress, story, nil
}

func (s *sessionServiceImpl) save(ctx context.Context, progress *models.Progress, kind string) error {
	if err := s.progress.Save(ctx, progress); err != nil {
		s.logger.Error("Failed to save progress",
			zap.String("playerID", progress.PlayerID),
			zap.String("storyID", progress.StoryID),
			zap.String("transition", kind),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save progress for player %s: %w", progress.PlayerID, err)
	}
	sessionTransitionsTotal.WithLabelValues(kind).Inc()
	return nil
}

func (s *sessionServiceImpl) publishEnding(ctx context.Context, story *models.Story, progress *models.Progress, node models.Node) {
	if s.events == nil {
		return
	}
	event := models.EndingDiscoveredEvent{
		PlayerID:        progress.PlayerID,
		StoryID:         story.ID,
		StoryTitle:      story.Title,
		EndingNodeID:    node.ID,
		DiscoveredCount: len(progress.DiscoveredEndings[story.ID]),
		EndingsCount:    story.EndingsCount,
		OccurredAt:      time.Now().UTC(),
	}
	if err := s.events.PublishEndingDiscovered(ctx, event); err != nil {
		// Прогресс уже сохранён, событие не критично.
		s.logger.Error("Failed to publish ending discovered event",
			zap.String("playerID", event.PlayerID),
			zap.String("storyID", event.StoryID),
			zap.String("endingNodeID", event.EndingNodeID),
			zap.Error(err),
		)
	}
}

// cloneProgress copies the record. The endings map is shared: traversal never mutates it.
func cloneProgress(p *models.Progress) *models.Progress {
	c := *p
	c.Path = append([]string(nil), p.Path...)
	return &c
}

func buildView(story *models.Story, node models.Node, progress *models.Progress) *models.GameView {
	byStory, total := traversal.CountDiscovered(progress.DiscoveredEndings)
	return &models.GameView{
		StoryID:                story.ID,
		StoryTitle:             displayTitle(story.Title),
		Node:                   node,
		IsEnding:               traversal.IsEnding(node),
		Path:                   progress.Path,
		DiscoveredCountByStory: byStory,
		TotalEndingsDiscovered: total,
	}
}

func displayTitle(title string) string {
	if title == "" {
		return untitledStory
	}
	return title
}
