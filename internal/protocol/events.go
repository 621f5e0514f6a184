package protocol

import (
	"time"
)

// EventType represents the type of engine event.
type EventType string

const (
	// EventProtocolLoaded indicates a protocol passed validation and entered
	// the registry.
	EventProtocolLoaded EventType = "protocol_loaded"
	// EventProtocolActivated indicates a protocol began an activation episode.
	EventProtocolActivated EventType = "protocol_activated"
	// EventProtocolDeactivated indicates a protocol's activation episode ended.
	EventProtocolDeactivated EventType = "protocol_deactivated"
	// EventStepExecuted indicates a step's action was dispatched successfully.
	EventStepExecuted EventType = "step_executed"
	// EventStepError indicates a step's action dispatch failed.
	EventStepError EventType = "step_error"
)

// Event represents a notification emitted by the engine. Subscribers receive
// copies; no event carries a reference to engine-owned state.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// ProtocolID is the ID of the related protocol.
	ProtocolID string
	// StepID is the ID of the related step, if applicable.
	StepID string
	// Complete reports whether the step satisfied its completion criteria
	// (step_executed events only).
	Complete bool
	// Message provides additional context about the event.
	Message string
	// Error contains error details for step_error events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
