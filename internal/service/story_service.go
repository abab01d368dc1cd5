package service

import (
	"context"
	"errors"
	"fmt"

	"storyquest-server/internal/interfaces"
	"storyquest-server/internal/models"
	"storyquest-server/internal/storyedit"

	"go.uber.org/zap"
)

// StoryService is the admin surface over the story store. Every write is
// validated before it reaches storage.
type StoryService interface {
	ListStories(ctx context.Context) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	CreateStory(ctx context.Context, draft models.StoryDraft) (string, error)
	UpdateStory(ctx context.Context, id string, draft models.StoryDraft) error
	DeleteStory(ctx context.Context, id string) error
	// ImportStory stores an already decoded story (seed data, storyctl).
	ImportStory(ctx context.Context, story *models.Story) (string, error)
}

type storyServiceImpl struct {
	repo   interfaces.StoryRepository
	logger *zap.Logger
}

// NewStoryService creates a StoryService.
func NewStoryService(repo interfaces.StoryRepository, logger *zap.Logger) StoryService {
	return &storyServiceImpl{
		repo:   repo,
		logger: logger.Named("StoryService"),
	}
}

func (s *storyServiceImpl) ListStories(ctx context.Context) ([]models.Story, error) {
	stories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, nil
}

func (s *storyServiceImpl) GetStory(ctx context.Context, id string) (*models.Story, error) {
	story, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return story, nil
}

// CreateStory parses the draft, validates the graph and stores it.
func (s *storyServiceImpl) CreateStory(ctx context.Context, draft models.StoryDraft) (string, error) {
	story, err := storyedit.FromDraft(draft)
	if err != nil {
		s.rejectEdit("create", err)
		return "", err
	}
	id, err := s.repo.Create(ctx, story)
	if err != nil {
		storyEditsTotal.WithLabelValues("create", "error").Inc()
		return "", fmt.Errorf("failed to create story: %w", err)
	}
	storyEditsTotal.WithLabelValues("create", "ok").Inc()
	s.logger.Info("Story created", zap.String("storyID", id), zap.String("title", story.Title), zap.Int("nodes", len(story.Nodes)))
	return id, nil
}

// UpdateStory replaces the content of an existing story.
func (s *storyServiceImpl) UpdateStory(ctx context.Context, id string, draft models.StoryDraft) error {
	story, err := storyedit.FromDraft(draft)
	if err != nil {
		s.rejectEdit("update", err)
		return err
	}
	story.ID = id
	if err := s.repo.Update(ctx, story); err != nil {
		storyEditsTotal.WithLabelValues("update", "error").Inc()
		return fmt.Errorf("failed to update story %s: %w", id, err)
	}
	storyEditsTotal.WithLabelValues("update", "ok").Inc()
	s.logger.Info("Story updated", zap.String("storyID", id), zap.Int("nodes", len(story.Nodes)))
	return nil
}

func (s *storyServiceImpl) DeleteStory(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		storyEditsTotal.WithLabelValues("delete", "error").Inc()
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	storyEditsTotal.WithLabelValues("delete", "ok").Inc()
	s.logger.Info("Story deleted", zap.String("storyID", id))
	return nil
}

func (s *storyServiceImpl) ImportStory(ctx context.Context, story *models.Story) (string, error) {
	storyedit.Normalize(story)
	if err := storyedit.Validate(story); err != nil {
		s.rejectEdit("import", err)
		return "", err
	}
	id, err := s.repo.Create(ctx, story)
	if err != nil {
		storyEditsTotal.WithLabelValues("import", "error").Inc()
		return "", fmt.Errorf("failed to import story %q: %w", story.Title, err)
	}
	storyEditsTotal.WithLabelValues("import", "ok").Inc()
	s.logger.Info("Story imported", zap.String("storyID", id), zap.String("title", story.Title))
	return id, nil
}

func (s *storyServiceImpl) rejectEdit(operation string, err error) {
	storyEditsTotal.WithLabelValues(operation, "invalid").Inc()
	var verr *storyedit.ValidationError
	if errors.As(err, &verr) {
		s.logger.Warn("Story edit rejected", zap.String("operation", operation), zap.Strings("problems", verr.Problems))
		return
	}
	s.logger.Warn("Story edit rejected", zap.String("operation", operation), zap.Error(err))
}
