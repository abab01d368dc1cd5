package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"storyquest-server/internal/models"
	"storyquest-server/internal/seed"
	"storyquest-server/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validStory = `{
  "title": "Short Walk",
  "nodes": [
    {"id": "start", "text": "A fork.", "choices": [{"label": "Left", "next": "end"}]},
    {"id": "end", "text": "Home."}
  ]
}`

const brokenStory = `{
  "title": "Broken",
  "nodes": [
    {"id": "start", "text": "A fork.", "choices": [{"label": "Left", "next": "nowhere"}]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func executeCmd(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid story", func(t *testing.T) {
		out, err := executeCmd("validate", writeFile(t, "walk.json", validStory))
		require.NoError(t, err)
		assert.Contains(t, out, "ok Short Walk (2 nodes, 1 endings)")
	})

	t.Run("dangling choice fails", func(t *testing.T) {
		out, err := executeCmd("validate", writeFile(t, "broken.json", brokenStory))
		require.Error(t, err)
		assert.Contains(t, out, "invalid Broken")
		assert.Contains(t, out, `"nowhere" does not match any node id`)
	})

	t.Run("array of stories", func(t *testing.T) {
		path := writeFile(t, "all.json", "["+validStory+","+brokenStory+"]")
		out, err := executeCmd("validate", path)
		require.Error(t, err)
		assert.EqualError(t, err, "1 of 2 stories are invalid")
		assert.Contains(t, out, "ok Short Walk")
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := executeCmd("validate", writeFile(t, "bad.json", "{not json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := executeCmd("validate", filepath.Join(t.TempDir(), "nope.json"))
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("requires exactly one argument", func(t *testing.T) {
		_, err := executeCmd("validate")
		require.Error(t, err)
	})
}

func TestSeedDryRun(t *testing.T) {
	out, err := executeCmd("seed", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "ok The Lost Treasure")
	assert.Contains(t, out, "ok Underground Maze")
}

func TestRunSeed(t *testing.T) {
	ctx := context.Background()
	stories, err := seed.Stories()
	require.NoError(t, err)
	require.Len(t, stories, 2)

	t.Run("uploads every story", func(t *testing.T) {
		svc := &mocks.StoryService{}
		svc.On("ListStories", mock.Anything).Return([]models.Story{}, nil)
		svc.On("ImportStory", mock.Anything, stories[0]).Return("id-1", nil).Once()
		svc.On("ImportStory", mock.Anything, stories[1]).Return("id-2", nil).Once()

		var out bytes.Buffer
		require.NoError(t, runSeed(ctx, &out, svc, stories, seedOptions{skipExisting: true}))
		assert.Contains(t, out.String(), "uploaded The Lost Treasure (id-1)")
		assert.Contains(t, out.String(), "2 of 2 sample stories uploaded")
		svc.AssertExpectations(t)
	})

	t.Run("skips stored titles", func(t *testing.T) {
		svc := &mocks.StoryService{}
		svc.On("ListStories", mock.Anything).Return([]models.Story{{ID: "old", Title: stories[0].Title}}, nil)
		svc.On("ImportStory", mock.Anything, stories[1]).Return("id-2", nil).Once()

		var out bytes.Buffer
		require.NoError(t, runSeed(ctx, &out, svc, stories, seedOptions{skipExisting: true}))
		assert.Contains(t, out.String(), "1 of 2 sample stories uploaded")
		svc.AssertNotCalled(t, "ImportStory", mock.Anything, stories[0])
	})

	t.Run("stops on upload failure", func(t *testing.T) {
		svc := &mocks.StoryService{}
		svc.On("ImportStory", mock.Anything, stories[0]).Return("", models.ErrStorageUnavailable).Once()

		err := runSeed(ctx, &bytes.Buffer{}, svc, stories, seedOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrStorageUnavailable))
		svc.AssertNotCalled(t, "ListStories", mock.Anything)
	})
}
