package bridge

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/pubsub"
)

// Sender receives forwarded messages. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIBridge subscribes to the Hub brokers and forwards events to a Sender.
type TUIBridge struct { //nolint:govet // fieldalignment: preserving logical field order
	hub    *pubsub.Hub
	sender Sender

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	sessionFilter string // only forward turn events for this session
}

// TUIBridgeOption configures the TUIBridge.
type TUIBridgeOption func(*TUIBridge)

// WithSessionFilter only forwards turn events for the specified session.
func WithSessionFilter(sessionID string) TUIBridgeOption {
	return func(b *TUIBridge) {
		b.sessionFilter = sessionID
	}
}

// NewTUIBridge creates a new TUI bridge.
func NewTUIBridge(hub *pubsub.Hub, sender Sender, opts ...TUIBridgeOption) *TUIBridge {
	b := &TUIBridge{
		hub:    hub,
		sender: sender,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start begins forwarding events. Subscriptions are in place when Start
// returns. Call Stop to shut down.
func (b *TUIBridge) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	sessions := b.hub.Session.Subscribe(ctx)
	turns := b.hub.Turn.Subscribe(ctx)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		forward(ctx, sessions, func(ev pubsub.Event[events.SessionEvent]) {
			b.sender.Send(SessionEventMsg{Event: ev})
		})
	}()
	go func() {
		defer b.wg.Done()
		forward(ctx, turns, func(ev pubsub.Event[events.TurnEvent]) {
			if filter := b.filter(); filter != "" && ev.Payload.SessionID != filter {
				return
			}
			b.sender.Send(TurnEventMsg{Event: ev})
		})
	}()

	debug.Event("bridge", "start", "TUI bridge started")
}

func forward[T any](ctx context.Context, ch <-chan pubsub.Event[T], send func(pubsub.Event[T])) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			send(event)
		}
	}
}

// Stop shuts the bridge down. Safe to call more than once or before Start.
func (b *TUIBridge) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	debug.Event("bridge", "stop", "TUI bridge stopped")
}

func (b *TUIBridge) filter() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessionFilter
}

// SetSessionFilter updates the session filter at runtime.
func (b *TUIBridge) SetSessionFilter(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionFilter = sessionID
}

// ClearSessionFilter removes the session filter.
func (b *TUIBridge) ClearSessionFilter() {
	b.SetSessionFilter("")
}
