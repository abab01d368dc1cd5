package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound           = errors.New("resource not found")
	ErrStoryNotFound      = errors.New("story not found")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Traversal Errors
	ErrEmptyStory    = errors.New("story has no nodes")
	ErrNodeNotFound  = errors.New("node not found")
	ErrNoActiveStory = errors.New("no story is being played")
	ErrInvalidMode   = errors.New("invalid session mode")

	// Player Errors
	ErrInvalidPlayerID = errors.New("invalid player id")

	// Story Editing Errors
	ErrInvalidEditPayload = errors.New("invalid JSON format in nodes")
	ErrInvalidStoryGraph  = errors.New("story graph is invalid")
)

// Session modes accepted by story selection.
const (
	ModeNew    = "new"
	ModeResume = "resume"
)
