package events

import "time"

// SessionEventType represents session-specific event types.
type SessionEventType string

// Session event type constants.
const (
	SessionEventCreated        SessionEventType = "created"
	SessionEventUpdated        SessionEventType = "updated"
	SessionEventDeleted        SessionEventType = "deleted"
	SessionEventSwitched       SessionEventType = "switched"
	SessionEventMessageAdded   SessionEventType = "message_added"
	SessionEventMessagePatched SessionEventType = "message_patched"
	SessionEventLoaded         SessionEventType = "loaded"
)

// SessionEvent announces that the session collection changed. Consumers
// re-read the latest snapshot from the store; the payload only says what
// moved.
type SessionEvent struct {
	SessionID string
	MessageID string // set for message events
	Title     string
	Type      SessionEventType
	Timestamp time.Time
}

// NewSessionCreatedEvent creates a session created event.
func NewSessionCreatedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventCreated,
		Timestamp: time.Now(),
	}
}

// NewSessionUpdatedEvent creates an event for a subject, title or feedback change.
func NewSessionUpdatedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventUpdated,
		Timestamp: time.Now(),
	}
}

// NewSessionSwitchedEvent creates a session switched event.
func NewSessionSwitchedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventSwitched,
		Timestamp: time.Now(),
	}
}

// NewSessionDeletedEvent creates a session deleted event.
func NewSessionDeletedEvent(id string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Type:      SessionEventDeleted,
		Timestamp: time.Now(),
	}
}

// NewSessionMessageAddedEvent creates a message added event.
func NewSessionMessageAddedEvent(sessionID, messageID string) SessionEvent {
	return SessionEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      SessionEventMessageAdded,
		Timestamp: time.Now(),
	}
}

// NewSessionMessagePatchedEvent creates an event for an in-place message edit.
func NewSessionMessagePatchedEvent(sessionID, messageID string) SessionEvent {
	return SessionEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      SessionEventMessagePatched,
		Timestamp: time.Now(),
	}
}

// NewSessionsLoadedEvent is published once the persisted collection has been
// installed at startup.
func NewSessionsLoadedEvent(activeID string) SessionEvent {
	return SessionEvent{
		SessionID: activeID,
		Type:      SessionEventLoaded,
		Timestamp: time.Now(),
	}
}
