// Package traversal moves a player through a story graph. It performs no I/O.
package traversal

import (
	"fmt"

	"storyquest-server/internal/models"
)

// Start returns the first node of the story and a fresh path containing it.
func Start(story *models.Story) (models.Node, []string, error) {
	if story == nil || len(story.Nodes) == 0 {
		return models.Node{}, nil, models.ErrEmptyStory
	}
	start := story.Nodes[0]
	return start, []string{start.ID}, nil
}

// Advance moves to nextID. The caller's path is never modified; on error
// the caller keeps its previous state.
func Advance(story *models.Story, nextID string, path []string) (models.Node, []string, error) {
	if story == nil {
		return models.Node{}, nil, models.ErrEmptyStory
	}
	node, ok := story.FindNode(nextID)
	if !ok {
		return models.Node{}, nil, fmt.Errorf("%w: %q", models.ErrNodeNotFound, nextID)
	}
	newPath := make([]string, 0, len(path)+1)
	newPath = append(newPath, path...)
	newPath = append(newPath, node.ID)
	return node, newPath, nil
}

// IsEnding reports whether the node has no outgoing choices.
func IsEnding(node models.Node) bool {
	return len(node.Choices) == 0
}

// RecordIfEnding adds node.ID to discovered[storyID] when the node is an ending
// that has not been recorded yet. The input map is not mutated: a copy is
// returned when something changes, the input itself otherwise.
func RecordIfEnding(discovered map[string][]string, storyID string, node models.Node) (map[string][]string, bool) {
	if !IsEnding(node) {
		return discovered, false
	}
	for _, id := range discovered[storyID] {
		if id == node.ID {
			return discovered, false
		}
	}

	updated := make(map[string][]string, len(discovered)+1)
	for k, v := range discovered {
		updated[k] = v
	}
	endings := make([]string, 0, len(discovered[storyID])+1)
	endings = append(endings, discovered[storyID]...)
	updated[storyID] = append(endings, node.ID)
	return updated, true
}

// Resume returns the node with nodeID, or the start node when the id no
// longer exists in the (possibly edited) story.
func Resume(story *models.Story, nodeID string) (models.Node, bool, error) {
	start, _, err := Start(story)
	if err != nil {
		return models.Node{}, false, err
	}
	if node, ok := story.FindNode(nodeID); ok {
		return node, false, nil
	}
	return start, true, nil
}

// CountDiscovered tallies discovered endings per story and in total.
func CountDiscovered(discovered map[string][]string) (map[string]int, int) {
	byStory := make(map[string]int, len(discovered))
	total := 0
	for storyID, endings := range discovered {
		byStory[storyID] = len(endings)
		total += len(endings)
	}
	return byStory, total
}
