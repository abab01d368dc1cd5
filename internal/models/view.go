package models

// GameView is the view-model of a play session handed to the presentation layer.
type GameView struct {
	StoryID                string         `json:"storyId"`
	StoryTitle             string         `json:"storyTitle"`
	Node                   Node           `json:"node"`
	IsEnding               bool           `json:"isEnding"`
	Path                   []string       `json:"path"`
	DiscoveredCountByStory map[string]int `json:"discoveredCountByStory"`
	TotalEndingsDiscovered int            `json:"totalEndingsDiscovered"`
}

// StorySummary - строка списка историй с количеством открытых концовок.
type StorySummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	EndingsCount    int    `json:"endingsCount"`
	DiscoveredCount int    `json:"discoveredCount"`
}

// StoryListing is the story picker view.
type StoryListing struct {
	Stories                []StorySummary `json:"stories"`
	TotalEndingsDiscovered int            `json:"totalEndingsDiscovered"`
}

// StoryDraft is what the admin surface submits. NodesJSON is the free-text node array.
type StoryDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	EndingsCount int    `json:"endingsCount"`
	NodesJSON    string `json:"nodesJson"`
}
