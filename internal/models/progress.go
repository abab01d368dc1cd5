package models

import "time"

// Progress хранит состояние игрока: активную историю, текущий узел, путь текущего прохождения
// и все когда-либо открытые концовки по каждой истории.
type Progress struct {
	PlayerID          string              `json:"playerId" firestore:"-"`
	StoryID           string              `json:"storyId" firestore:"storyId"`
	NodeID            string              `json:"nodeId" firestore:"nodeId"`
	Path              []string            `json:"path" firestore:"path"`
	DiscoveredEndings map[string][]string `json:"discoveredEndings" firestore:"discoveredEndings"`
	UpdatedAt         time.Time           `json:"updatedAt" firestore:"updatedAt"`
}

// NewProgress returns the lazily created, empty progress record of a player.
func NewProgress(playerID string) *Progress {
	return &Progress{
		PlayerID:          playerID,
		Path:              []string{},
		DiscoveredEndings: make(map[string][]string),
	}
}

// HasActiveStory reports whether the record points at a story being played.
func (p *Progress) HasActiveStory() bool {
	return p != nil && p.StoryID != ""
}
