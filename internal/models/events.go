package models

import "time"

// EndingDiscoveredEvent публикуется, когда игрок впервые доходит до концовки.
type EndingDiscoveredEvent struct {
	PlayerID        string    `json:"playerId"`
	StoryID         string    `json:"storyId"`
	StoryTitle      string    `json:"storyTitle"`
	EndingNodeID    string    `json:"endingNodeId"`
	DiscoveredCount int       `json:"discoveredCount"`
	EndingsCount    int       `json:"endingsCount"`
	OccurredAt      time.Time `json:"occurredAt"`
}
