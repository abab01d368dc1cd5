package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition kinds used as metric labels.
const (
	transitionNew     = "new"
	transitionResume  = "resume"
	transitionChoice  = "choice"
	transitionRestart = "restart"
)

var (
	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyquest_session_transitions_total",
			Help: "Total number of persisted session transitions by kind.",
		},
		[]string{"kind"},
	)

	endingsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyquest_endings_discovered_total",
		Help: "Total number of endings discovered for the first time by a player.",
	})

	rejectedChoicesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storyquest_rejected_choices_total",
		Help: "Total number of choices rejected because the target node does not exist.",
	})

	storyEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyquest_story_edits_total",
			Help: "Total number of admin story edits by operation and status.",
		},
		[]string{"operation", "status"},
	)
)
