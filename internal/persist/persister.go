package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/session"
)

// DefaultSaveInterval spaces out saves while an answer is streaming.
const DefaultSaveInterval = 250 * time.Millisecond

// Persister saves the latest session snapshot whenever the collection
// changes. Bursts of changes are coalesced, and the last change is always
// written.
type Persister struct {
	store    Store
	sessions *session.Store
	broker   pubsub.Subscriber[events.SessionEvent]
	interval time.Duration
	limiter  *rate.Limiter

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool
	saves   atomic.Int64
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithSaveInterval sets the minimum time between two saves. Zero saves on
// every change.
func WithSaveInterval(d time.Duration) PersisterOption {
	return func(p *Persister) {
		p.interval = d
	}
}

// NewPersister creates a persister for the given collection.
func NewPersister(store Store, sessions *session.Store, broker pubsub.Subscriber[events.SessionEvent], opts ...PersisterOption) *Persister {
	p := &Persister{
		store:    store,
		sessions: sessions,
		broker:   broker,
		interval: DefaultSaveInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	limit := rate.Inf
	if p.interval > 0 {
		limit = rate.Every(p.interval)
	}
	p.limiter = rate.NewLimiter(limit, 1)
	return p
}

// Start saves once and then follows the collection until ctx is done or
// Close is called.
func (p *Persister) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	subCtx, cancel := context.WithCancel(ctx)
	ch := p.broker.Subscribe(subCtx, pubsub.Lossless())
	p.save(ctx)
	go p.run(ctx, ch, cancel)
}

// run owns the subscription: cancelling it on exit releases publishers
// blocked on the lossless channel.
func (p *Persister) run(ctx context.Context, ch <-chan pubsub.Event[events.SessionEvent], cancel context.CancelFunc) {
	defer close(p.done)
	defer cancel()

	var (
		dirty   bool
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	flush := func() {
		if !dirty {
			return
		}
		if !p.limiter.Allow() {
			if pending == nil {
				timer = time.NewTimer(p.interval)
				pending = timer.C
			}
			return
		}
		dirty = false
		p.save(ctx)
	}

	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
			dirty = true
			flush()
		case <-pending:
			pending = nil
			flush()
		case <-p.stop:
			return
		}
	}
}

func (p *Persister) save(ctx context.Context) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	p.store.Save(ctx, p.sessions.Snapshot().Sessions)
	p.saves.Add(1)
}

// Close stops following changes and writes the latest snapshot.
func (p *Persister) Close() {
	p.once.Do(func() {
		if p.started.Load() {
			close(p.stop)
			<-p.done
		}
		p.save(context.Background())
	})
}

// Saves returns how many times the collection was written.
func (p *Persister) Saves() int64 {
	return p.saves.Load()
}
