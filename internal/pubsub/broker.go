package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var _ PubSub[struct{}] = (*Broker[struct{}])(nil)

// DefaultBufferSize is the default channel buffer for subscribers.
const DefaultBufferSize = 64

// BrokerOption configures a Broker.
type BrokerOption[T any] func(*Broker[T])

// WithBufferSize sets the subscriber channel buffer size.
func WithBufferSize[T any](size int) BrokerOption[T] {
	return func(b *Broker[T]) {
		b.bufferSize = size
	}
}

// SubscribeOption configures a single subscription.
type SubscribeOption func(*subscription)

// Lossless makes the subscription block publishers instead of dropping
// events when its buffer is full. Use it for consumers that must observe
// every change, such as persistence.
func Lossless() SubscribeOption {
	return func(s *subscription) {
		s.lossless = true
	}
}

// WithSubscriberBuffer overrides the broker buffer size for one subscription.
func WithSubscriberBuffer(size int) SubscribeOption {
	return func(s *subscription) {
		s.buffer = size
	}
}

type subscription struct {
	gone     <-chan struct{}
	buffer   int
	lossless bool
}

// Broker is a type-safe pub/sub broker.
// Subscribers are lossy by default: a slow reader misses events instead of
// stalling the publisher.
type Broker[T any] struct { //nolint:govet // fieldalignment: preserving logical field order
	name       string
	subs       map[chan Event[T]]subscription
	mu         sync.RWMutex
	done       chan struct{}
	closeOnce  sync.Once
	bufferSize int

	publishCount   atomic.Int64
	dropCount      atomic.Int64
	subscriberPeak atomic.Int32
	subscriberCurr atomic.Int32
}

// NewBroker creates a new typed broker with optional configuration.
func NewBroker[T any](name string, opts ...BrokerOption[T]) *Broker[T] {
	b := &Broker[T]{
		name:       name,
		subs:       make(map[chan Event[T]]subscription),
		done:       make(chan struct{}),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the broker's name.
func (b *Broker[T]) Name() string {
	return b.name
}

// Subscribe returns a channel that receives events until ctx is done or the
// broker shuts down. The channel is closed on either.
func (b *Broker[T]) Subscribe(ctx context.Context, opts ...SubscribeOption) <-chan Event[T] {
	cfg := subscription{buffer: b.bufferSize, gone: ctx.Done()}
	for _, opt := range opts {
		opt(&cfg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.IsShutdown() {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := make(chan Event[T], cfg.buffer)
	b.subs[sub] = cfg

	curr := b.subscriberCurr.Add(1)
	for {
		peak := b.subscriberPeak.Load()
		if curr <= peak || b.subscriberPeak.CompareAndSwap(peak, curr) {
			break
		}
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.remove(sub)
	}()

	return sub
}

func (b *Broker[T]) remove(sub chan Event[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub)
	b.subscriberCurr.Add(-1)
}

// Publish delivers an event to every subscriber. Lossy subscribers with a
// full buffer miss the event; lossless ones block the call until they read.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	// The read lock is held for the whole fan-out so a concurrent
	// unsubscribe cannot close a channel we are about to send on.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.IsShutdown() || len(b.subs) == 0 {
		return
	}
	b.publishCount.Add(1)

	for sub, cfg := range b.subs {
		if cfg.lossless {
			select {
			case sub <- event:
			case <-cfg.gone:
			case <-b.done:
				return
			}
			continue
		}
		select {
		case sub <- event:
		default:
			b.dropCount.Add(1)
		}
	}
}

// PublishAsync publishes from a new goroutine and returns immediately.
func (b *Broker[T]) PublishAsync(eventType EventType, payload T) {
	go b.Publish(eventType, payload)
}

// Shutdown closes every subscriber channel. Pending events are dropped.
func (b *Broker[T]) Shutdown() {
	// done is closed before taking the lock so a publisher blocked on a
	// lossless subscriber can bail out and release its read lock.
	b.closeOnce.Do(func() { close(b.done) })

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	b.subscriberCurr.Store(0)
}

// IsShutdown reports whether Shutdown has been called.
func (b *Broker[T]) IsShutdown() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker[T]) SubscriberCount() int {
	return int(b.subscriberCurr.Load())
}

// Metrics returns the broker's counters.
func (b *Broker[T]) Metrics() BrokerMetrics {
	return BrokerMetrics{
		Name:            b.name,
		PublishCount:    b.publishCount.Load(),
		DropCount:       b.dropCount.Load(),
		SubscriberCount: int(b.subscriberCurr.Load()),
		SubscriberPeak:  int(b.subscriberPeak.Load()),
	}
}

// BrokerMetrics contains broker statistics.
type BrokerMetrics struct {
	Name            string
	PublishCount    int64
	DropCount       int64
	SubscriberCount int
	SubscriberPeak  int
}
