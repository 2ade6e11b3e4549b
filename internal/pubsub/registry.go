package pubsub

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// BrokerInfo is the read-only view of a broker kept by the Registry.
type BrokerInfo interface {
	Name() string
	SubscriberCount() int
	IsShutdown() bool
	Metrics() BrokerMetrics
}

// Registry tracks brokers by name for the status command and debug log.
type Registry struct {
	brokers map[string]BrokerInfo
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		brokers: make(map[string]BrokerInfo),
	}
}

// Register adds or replaces a broker.
func (r *Registry) Register(name string, broker BrokerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brokers[name] = broker
}

// List returns the registered broker names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.brokers))
	for name := range r.brokers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DebugString renders one line per broker, sorted by name.
func (r *Registry) DebugString() string {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "brokers: %d\n", len(names))
	for _, name := range names {
		broker, ok := r.brokers[name]
		if !ok {
			continue
		}
		m := broker.Metrics()
		fmt.Fprintf(&sb, "  %s: subs=%d peak=%d published=%d dropped=%d shutdown=%v\n",
			name, m.SubscriberCount, m.SubscriberPeak, m.PublishCount, m.DropCount, broker.IsShutdown())
	}
	return sb.String()
}
