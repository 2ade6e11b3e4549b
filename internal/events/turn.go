// Package events defines domain-specific event types for the pub/sub system.
package events

import "time"

// TurnEventType represents the stages of a conversation turn.
type TurnEventType string

// Turn event type constants.
const (
	TurnEventStarted   TurnEventType = "started"
	TurnEventChunk     TurnEventType = "chunk"
	TurnEventCompleted TurnEventType = "completed"
	TurnEventFailed    TurnEventType = "failed"
)

// TurnEvent reports progress of the turn streaming into a placeholder message.
type TurnEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	MessageID string
	Type      TurnEventType
	Timestamp time.Time

	Text      string // cumulative text, for Chunk and Completed
	Error     error  // for Failed
	ErrorKind string // for Failed
}

// NewTurnStartedEvent creates a turn started event.
func NewTurnStartedEvent(sessionID, messageID string) TurnEvent {
	return TurnEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      TurnEventStarted,
		Timestamp: time.Now(),
	}
}

// NewTurnChunkEvent creates a chunk event carrying the text so far.
func NewTurnChunkEvent(sessionID, messageID, text string) TurnEvent {
	return TurnEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      TurnEventChunk,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewTurnCompletedEvent creates a completion event.
func NewTurnCompletedEvent(sessionID, messageID, text string) TurnEvent {
	return TurnEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      TurnEventCompleted,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewTurnFailedEvent creates a failure event.
func NewTurnFailedEvent(sessionID, messageID, kind string, err error) TurnEvent {
	return TurnEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      TurnEventFailed,
		Error:     err,
		ErrorKind: kind,
		Timestamp: time.Now(),
	}
}
