package types

import "errors"

var (
	// ErrModelNotSet is returned when an agent is built without a language model
	ErrModelNotSet = errors.New("model not set")

	// ErrInvalidMessage is returned when a message is invalid
	ErrInvalidMessage = errors.New("invalid message")

	// ErrToolNotFound is returned when a model asks for a tool the agent does not own
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExecutionFailed is returned when tool execution fails
	ErrToolExecutionFailed = errors.New("tool execution failed")

	// ErrNoParticipants is returned when a team is built without participants
	ErrNoParticipants = errors.New("team has no participants")

	// ErrInvalidMaxTurns is returned when a team turn cap is not positive
	ErrInvalidMaxTurns = errors.New("max turns must be positive")

	// ErrContextCanceled is returned when the run context is done at a suspension point
	ErrContextCanceled = errors.New("context canceled")

	// ErrEmptyResponse is returned when the provider returns an empty response
	ErrEmptyResponse = errors.New("empty response from provider")
)
