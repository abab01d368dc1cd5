package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"storyquest-server/internal/models"
	"storyquest-server/internal/seed"
	"storyquest-server/internal/storyedit"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a story file (JSON object or array, or a YAML list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stories, err := loadStoryFile(args[0])
			if err != nil {
				return err
			}
			return validateStories(cmd.OutOrStdout(), stories)
		},
	}
}

func loadStoryFile(path string) ([]*models.Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return seed.Parse(data)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var stories []*models.Story
		if err := json.Unmarshal(trimmed, &stories); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return stories, nil
	}
	var story models.Story
	if err := json.Unmarshal(trimmed, &story); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []*models.Story{&story}, nil
}

func printProblems(out io.Writer, title string, err error) {
	if title == "" {
		title = "(untitled)"
	}
	_, _ = fmt.Fprintf(out, "invalid %s\n", title)
	var verr *storyedit.ValidationError
	if errors.As(err, &verr) {
		for _, problem := range verr.Problems {
			_, _ = fmt.Fprintf(out, "  - %s\n", problem)
		}
		return
	}
	_, _ = fmt.Fprintf(out, "  - %v\n", err)
}
