// Package bridge provides the connection between the pub/sub system and Bubble Tea.
package bridge

import (
	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/pubsub"
)

// SessionEventMsg wraps a session event for the TUI.
type SessionEventMsg struct {
	Event pubsub.Event[events.SessionEvent]
}

// TurnEventMsg wraps a turn event for the TUI.
type TurnEventMsg struct {
	Event pubsub.Event[events.TurnEvent]
}
