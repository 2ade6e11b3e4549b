package pubsub

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/guilhermegouw/siaka/internal/events"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	if hub.Session == nil || hub.Turn == nil {
		t.Fatal("brokers should be initialized")
	}
	if got := hub.Registry().List(); len(got) != 2 || got[0] != "session" || got[1] != "turn" {
		t.Errorf("unexpected registry contents: %v", got)
	}
}

func TestHubShutdown(t *testing.T) {
	t.Run("shutdown closes all brokers", func(t *testing.T) {
		hub := NewHub()
		hub.Shutdown()

		if !hub.IsShutdown() {
			t.Error("hub should be shutdown")
		}
		if !hub.Session.IsShutdown() || !hub.Turn.IsShutdown() {
			t.Error("brokers should be shutdown")
		}
		select {
		case <-hub.Done():
		default:
			t.Error("Done should be closed")
		}
	})

	t.Run("double shutdown is safe", func(t *testing.T) {
		hub := NewHub()
		hub.Shutdown()
		hub.Shutdown()
	})
}

func TestHubRouting(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := hub.Session.Subscribe(ctx)
	turns := hub.Turn.Subscribe(ctx)

	hub.Session.Publish(EventCreated, events.NewSessionCreatedEvent("s1", "Nouveau Devoir"))
	hub.Turn.Publish(EventStarted, events.NewTurnStartedEvent("s1", "m1"))

	select {
	case e := <-sessions:
		if e.Payload.SessionID != "s1" || e.Payload.Type != events.SessionEventCreated {
			t.Errorf("unexpected session event: %+v", e.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for session event")
	}

	select {
	case e := <-turns:
		if e.Payload.MessageID != "m1" || e.Payload.Type != events.TurnEventStarted {
			t.Errorf("unexpected turn event: %+v", e.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for turn event")
	}

	if !strings.Contains(hub.DebugString(), "session: subs=1") {
		t.Errorf("debug string missing session line:\n%s", hub.DebugString())
	}
}
