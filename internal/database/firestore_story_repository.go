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
var _ interfaces.StoryRepository = (*firestoreStoryRepository)(nil)

type firestoreStoryRepository struct {
	client *firestore.Client
	logger *zap.Logger
}

// NewFirestoreStoryRepository stores stories as documents of the "stories" collection.
func NewFirestoreStoryRepository(client *firestore.Client, logger *zap.Logger) interfaces.StoryRepository {
	return &firestoreStoryRepository{
		client: client,
		logger: logger.Named("FirestoreStoryRepo"),
	}
}

func (r *firestoreStoryRepository) List(ctx context.Context) ([]models.Story, error) {
	docs, err := r.client.Collection(storiesCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, storageError("failed to list stories", err)
	}

	stories := make([]models.Story, 0, len(docs))
	for _, doc := range docs {
		story, err := decodeStory(doc)
		if err != nil {
			r.logger.Error("Failed to decode story", zap.String("storyID", doc.Ref.ID), zap.Error(err))
			return nil, err
		}
		stories = append(stories, *story)
	}
	return stories, nil
}

func (r *firestoreStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	if !isValidDocumentID(id) {
		return nil, models.ErrStoryNotFound
	}
	doc, err := r.client.Collection(storiesCollection).Doc(id).Get(ctx)
	if err != nil {
		if isFirestoreNotFound(err) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.String("storyID", id), zap.Error(err))
		return nil, storageError(fmt.Sprintf("failed to get story %s", id), err)
	}
	story, err := decodeStory(doc)
	if err != nil {
		r.logger.Error("Failed to decode story", zap.String("storyID", id), zap.Error(err))
		return nil, err
	}
	return story, nil
}

func (r *firestoreStoryRepository) Create(ctx context.Context, story *models.Story) (string, error) {
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now

	ref, _, err := r.client.Collection(storiesCollection).Add(ctx, story)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("title", story.Title), zap.Error(err))
		return "", storageError("failed to create story", err)
	}
	story.ID = ref.ID
	r.logger.Info("Story created", zap.String("storyID", ref.ID), zap.String("title", story.Title))
	return ref.ID, nil
}

// Update replaces the story content; createdAt is kept.
func (r *firestoreStoryRepository) Update(ctx context.Context, story *models.Story) error {
	if !isValidDocumentID(story.ID) {
		return models.ErrStoryNotFound
	}
	now := time.Now().UTC()
	_, err := r.client.Collection(storiesCollection).Doc(story.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: story.Title},
		{Path: "description", Value: story.Description},
		{Path: "endingsCount", Value: story.EndingsCount},
		{Path: "nodes", Value: story.Nodes},
		{Path: "updatedAt", Value: now},
	})
	if err != nil {
		if isFirestoreNotFound(err) {
			r.logger.Warn("Attempted to update non-existent story", zap.String("storyID", story.ID))
			return models.ErrStoryNotFound
		}
		r.logger.Error("Failed to update story", zap.String("storyID", story.ID), zap.Error(err))
		return storageError(fmt.Sprintf("failed to update story %s", story.ID), err)
	}
	story.UpdatedAt = now
	r.logger.Info("Story updated", zap.String("storyID", story.ID))
	return nil
}

func (r *firestoreStoryRepository) Delete(ctx context.Context, id string) error {
	if !isValidDocumentID(id) {
		return models.ErrStoryNotFound
	}
	_, err := r.client.Collection(storiesCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if isFirestoreNotFound(err) {
			r.logger.Warn("Attempted to delete non-existent story", zap.String("storyID", id))
			return models.ErrStoryNotFound
		}
		r.logger.Error("Failed to delete story", zap.String("storyID", id), zap.Error(err))
		return storageError(fmt.Sprintf("failed to delete story %s", id), err)
	}
	r.logger.Info("Story deleted", zap.String("storyID", id))
	return nil
}

func decodeStory(doc *firestore.DocumentSnapshot) (*models.Story, error) {
	var story models.Story
	if err := doc.DataTo(&story); err != nil {
		return nil, fmt.Errorf("failed to decode story %s: %w", doc.Ref.ID, err)
	}
	story.ID = doc.Ref.ID
	normalizeDecodedNodes(&story)
	return &story, nil
}

// normalizeDecodedNodes: пустые массивы из документа приходят как nil.
func normalizeDecodedNodes(story *models.Story) {
	if story.Nodes == nil {
		story.Nodes = []models.Node{}
	}
	for i := range story.Nodes {
		if story.Nodes[i].Choices == nil {
			story.Nodes[i].Choices = []models.Choice{}
		}
	}
}
