package models

import "time"

// Choice - исходящее ребро узла истории.
type Choice struct {
	Label string `json:"label" firestore:"label" validate:"required"`
	Next  string `json:"next" firestore:"next" validate:"required"`
}

// Node is a unit of narrative text. A node without choices is an ending.
// IsEnding is denormalised on save; traversal always looks at Choices.
type Node struct {
	ID       string   `json:"id" firestore:"id" validate:"required"`
	Text     string   `json:"text" firestore:"text"`
	Choices  []Choice `json:"choices" firestore:"choices" validate:"dive"`
	IsEnding bool     `json:"isEnding" firestore:"isEnding"`
}

// Story is a directed graph of nodes. Nodes[0] is the start node.
type Story struct {
	ID           string    `json:"id" firestore:"-"`
	Title        string    `json:"title" firestore:"title" validate:"required"`
	Description  string    `json:"description" firestore:"description"`
	EndingsCount int       `json:"endingsCount" firestore:"endingsCount" validate:"gte=0"`
	Nodes        []Node    `json:"nodes" firestore:"nodes" validate:"min=1,dive"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// FindNode returns the node with the given id.
func (s *Story) FindNode(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// CountEndingNodes считает узлы без выборов.
func (s *Story) CountEndingNodes() int {
	count := 0
	for _, n := range s.Nodes {
		if len(n.Choices) == 0 {
			count++
		}
	}
	return count
}
