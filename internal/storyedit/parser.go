// Package storyedit turns admin story drafts into validated story graphs.
package storyedit

import (
	"encoding/json"
	"fmt"
	"strings"

	"storyquest-server/internal/models"
)

// editNode is the shape accepted from the admin form. Extra fields such as
// isEnding are tolerated and recomputed.
type editNode struct {
	ID      string          `json:"id"`
	Text    string          `json:"text"`
	Choices []models.Choice `json:"choices"`
}

// ParseNodes decodes the free-text node array and coerces every node to
// {id, text, choices, isEnding}.
func ParseNodes(raw string) ([]models.Node, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty payload", models.ErrInvalidEditPayload)
	}
	var parsed []editNode
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidEditPayload, err)
	}

	nodes := make([]models.Node, 0, len(parsed))
	for _, n := range parsed {
		nodes = append(nodes, NewNode(n.ID, n.Text, n.Choices))
	}
	return nodes, nil
}

// NewNode builds a node with a non-nil choice list and the ending flag set.
func NewNode(id, text string, choices []models.Choice) models.Node {
	if choices == nil {
		choices = []models.Choice{}
	}
	return models.Node{
		ID:       id,
		Text:     text,
		Choices:  choices,
		IsEnding: len(choices) == 0,
	}
}

// FromDraft parses and validates a draft. Nothing is returned unless the
// whole story passes validation.
func FromDraft(draft models.StoryDraft) (*models.Story, error) {
	nodes, err := ParseNodes(draft.NodesJSON)
	if err != nil {
		return nil, err
	}
	story := &models.Story{
		Title:        strings.TrimSpace(draft.Title),
		Description:  strings.TrimSpace(draft.Description),
		EndingsCount: draft.EndingsCount,
		Nodes:        nodes,
	}
	if story.EndingsCount <= 0 {
		story.EndingsCount = story.CountEndingNodes()
	}
	if err := Validate(story); err != nil {
		return nil, err
	}
	return story, nil
}

// Normalize re-coerces the nodes of an already decoded story (seed files,
// storyctl input) the same way the admin form does.
func Normalize(story *models.Story) {
	for i, n := range story.Nodes {
		story.Nodes[i] = NewNode(n.ID, n.Text, n.Choices)
	}
	if story.EndingsCount <= 0 {
		story.EndingsCount = story.CountEndingNodes()
	}
}
