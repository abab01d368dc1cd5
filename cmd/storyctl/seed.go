package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"storyquest-server/internal/app"
	"storyquest-server/internal/config"
	"storyquest-server/internal/logger"
	"storyquest-server/internal/models"
	"storyquest-server/internal/seed"
	"storyquest-server/internal/service"
	"storyquest-server/internal/storyedit"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type seedOptions struct {
	dryRun       bool
	skipExisting bool
}

func newSeedCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upload the bundled sample stories into the configured storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stories, err := seed.Stories()
			if err != nil {
				return err
			}
			if opts.dryRun {
				return validateStories(cmd.OutOrStdout(), stories)
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			// Хранилище логирует через zap; в CLI оставляем только предупреждения.
			storageLog, err := logger.New(logger.Config{Level: "warn", Encoding: "console", OutputPath: "stderr"})
			if err != nil {
				return err
			}
			defer func() { _ = storageLog.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			storage, err := app.OpenStorage(ctx, cfg, storageLog)
			if err != nil {
				return err
			}
			defer storage.Close()

			return runSeed(ctx, cmd.OutOrStdout(), service.NewStoryService(storage.Stories, zap.NewNop()), stories, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "only validate the sample stories")
	cmd.Flags().BoolVar(&opts.skipExisting, "skip-existing", true, "skip stories whose title is already stored")
	return cmd
}

func runSeed(ctx context.Context, out io.Writer, stories service.StoryService, seeds []*models.Story, opts seedOptions) error {
	existing := make(map[string]bool)
	if opts.skipExisting {
		stored, err := stories.ListStories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stored stories: %w", err)
		}
		for _, s := range stored {
			existing[s.Title] = true
		}
	}

	uploaded := 0
	for _, story := range seeds {
		if existing[story.Title] {
			log.Info().Str("title", story.Title).Msg("Story already stored, skipping")
			continue
		}
		id, err := stories.ImportStory(ctx, story)
		if err != nil {
			return fmt.Errorf("failed to upload %q: %w", story.Title, err)
		}
		uploaded++
		log.Info().Str("title", story.Title).Str("storyID", id).Msg("Story uploaded")
		_, _ = fmt.Fprintf(out, "uploaded %s (%s)\n", story.Title, id)
	}
	_, _ = fmt.Fprintf(out, "%d of %d sample stories uploaded\n", uploaded, len(seeds))
	return nil
}

func validateStories(out io.Writer, stories []*models.Story) error {
	failed := 0
	for _, story := range stories {
		storyedit.Normalize(story)
		if err := storyedit.Validate(story); err != nil {
			failed++
			printProblems(out, story.Title, err)
			continue
		}
		_, _ = fmt.Fprintf(out, "ok %s (%d nodes, %d endings)\n", story.Title, len(story.Nodes), story.EndingsCount)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d stories are invalid", failed, len(stories))
	}
	return nil
}
