package pubsub

import (
	"sync"

	"github.com/guilhermegouw/siaka/internal/events"
)

// Hub holds the application's brokers and shuts them down together.
type Hub struct { //nolint:govet // fieldalignment: preserving logical field order
	Session *Broker[events.SessionEvent]
	Turn    *Broker[events.TurnEvent]

	registry *Registry
	done     chan struct{}
	once     sync.Once
}

// NewHub creates a Hub with every broker initialized and registered.
func NewHub() *Hub {
	h := &Hub{
		Session:  NewBroker[events.SessionEvent]("session"),
		Turn:     NewBroker[events.TurnEvent]("turn", WithBufferSize[events.TurnEvent](256)),
		registry: NewRegistry(),
		done:     make(chan struct{}),
	}

	h.registry.Register("session", h.Session)
	h.registry.Register("turn", h.Turn)

	return h
}

// Shutdown shuts down all brokers. It is safe to call more than once.
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.done)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); h.Session.Shutdown() }()
		go func() { defer wg.Done(); h.Turn.Shutdown() }()
		wg.Wait()
	})
}

// IsShutdown returns true if the hub has been shut down.
func (h *Hub) IsShutdown() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed when the hub is shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Registry returns the broker registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// AllMetrics returns metrics for all brokers.
func (h *Hub) AllMetrics() []BrokerMetrics {
	return []BrokerMetrics{
		h.Session.Metrics(),
		h.Turn.Metrics(),
	}
}

// DebugString returns a formatted summary of every broker.
func (h *Hub) DebugString() string {
	return h.registry.DebugString()
}
