// Package seed holds the sample stories shipped with the server.
package seed

import (
	_ "embed"
	"fmt"

	"storyquest-server/internal/models"
	"storyquest-server/internal/storyedit"

	"gopkg.in/yaml.v3"
)

//go:embed stories.yaml
var storiesYAML []byte

type seedChoice struct {
	Label string `yaml:"label"`
	Next  string `yaml:"next"`
}

type seedNode struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Choices []seedChoice `yaml:"choices"`
}

type seedStory struct {
	Title        string     `yaml:"title"`
	Description  string     `yaml:"description"`
	EndingsCount int        `yaml:"endingsCount"`
	Nodes        []seedNode `yaml:"nodes"`
}

// Stories returns fresh copies of the embedded sample stories.
func Stories() ([]*models.Story, error) {
	return Parse(storiesYAML)
}

// Parse decodes a YAML list of stories.
func Parse(data []byte) ([]*models.Story, error) {
	var raw []seedStory
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode seed stories: %w", err)
	}

	stories := make([]*models.Story, 0, len(raw))
	for _, s := range raw {
		nodes := make([]models.Node, 0, len(s.Nodes))
		for _, n := range s.Nodes {
			choices := make([]models.Choice, 0, len(n.Choices))
			for _, c := range n.Choices {
				choices = append(choices, models.Choice{Label: c.Label, Next: c.Next})
			}
			nodes = append(nodes, storyedit.NewNode(n.ID, n.Text, choices))
		}
		stories = append(stories, &models.Story{
			Title:        s.Title,
			Description:  s.Description,
			EndingsCount: s.EndingsCount,
			Nodes:        nodes,
		})
	}
	return stories, nil
}
