package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBrokerSubscribePublish(t *testing.T) {
	t.Run("single subscriber receives events", func(t *testing.T) {
		broker := NewBroker[string]("test")
		defer broker.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		events := broker.Subscribe(ctx)
		broker.Publish(EventCreated, "hello")

		select {
		case event := <-events:
			if event.Type != EventCreated || event.Payload != "hello" {
				t.Errorf("unexpected event: %+v", event)
			}
		case <-time.After(100 * time.Millisecond):
			t.Error("timeout waiting for event")
		}
	})

	t.Run("multiple subscribers receive same event", func(t *testing.T) {
		broker := NewBroker[int]("test")
		defer broker.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sub1 := broker.Subscribe(ctx)
		sub2 := broker.Subscribe(ctx, Lossless())

		broker.Publish(EventUpdated, 42)

		for i, sub := range []<-chan Event[int]{sub1, sub2} {
			select {
			case event := <-sub:
				if event.Payload != 42 {
					t.Errorf("subscriber %d: expected 42, got %d", i, event.Payload)
				}
			case <-time.After(100 * time.Millisecond):
				t.Errorf("subscriber %d: timeout", i)
			}
		}
	})

	t.Run("cancelled context unsubscribes", func(t *testing.T) {
		broker := NewBroker[string]("test")
		defer broker.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		events := broker.Subscribe(ctx)

		if broker.SubscriberCount() != 1 {
			t.Errorf("expected 1 subscriber, got %d", broker.SubscriberCount())
		}

		cancel()
		time.Sleep(50 * time.Millisecond)

		if broker.SubscriberCount() != 0 {
			t.Errorf("expected 0 subscribers after cancel, got %d", broker.SubscriberCount())
		}
		if _, ok := <-events; ok {
			t.Error("expected channel to be closed")
		}
	})

	t.Run("shutdown closes all subscribers", func(t *testing.T) {
		broker := NewBroker[string]("test")

		sub1 := broker.Subscribe(context.Background())
		sub2 := broker.Subscribe(context.Background(), Lossless())

		broker.Shutdown()

		if _, ok := <-sub1; ok {
			t.Error("sub1 should be closed")
		}
		if _, ok := <-sub2; ok {
			t.Error("sub2 should be closed")
		}
	})

	t.Run("publish after shutdown is no-op", func(t *testing.T) {
		broker := NewBroker[string]("test")
		broker.Shutdown()
		broker.Publish(EventCreated, "test")
	})

	t.Run("subscribe after shutdown returns closed channel", func(t *testing.T) {
		broker := NewBroker[string]("test")
		broker.Shutdown()

		if _, ok := <-broker.Subscribe(context.Background()); ok {
			t.Error("channel should be closed")
		}
	})
}

func TestBrokerLossySubscriber(t *testing.T) {
	broker := NewBroker[int]("test", WithBufferSize[int](2))
	defer broker.Shutdown()

	ch := broker.Subscribe(context.Background())

	broker.Publish(EventCreated, 1)
	broker.Publish(EventCreated, 2)
	broker.Publish(EventCreated, 3)

	if got := broker.Metrics().DropCount; got != 1 {
		t.Errorf("expected 1 drop, got %d", got)
	}
	if e := <-ch; e.Payload != 1 {
		t.Errorf("expected 1, got %d", e.Payload)
	}
	if e := <-ch; e.Payload != 2 {
		t.Errorf("expected 2, got %d", e.Payload)
	}
}

func TestBrokerLosslessSubscriber(t *testing.T) {
	t.Run("publish blocks until drained", func(t *testing.T) {
		broker := NewBroker[int]("test")
		defer broker.Shutdown()

		ch := broker.Subscribe(context.Background(), Lossless(), WithSubscriberBuffer(1))
		broker.Publish(EventCreated, 1)

		done := make(chan struct{})
		go func() {
			broker.Publish(EventCreated, 2)
			close(done)
		}()

		select {
		case <-done:
			t.Fatal("publish should have blocked")
		case <-time.After(50 * time.Millisecond):
		}

		<-ch
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			t.Fatal("publish should have completed")
		}
		if e := <-ch; e.Payload != 2 {
			t.Errorf("expected 2, got %d", e.Payload)
		}
	})

	t.Run("shutdown releases a blocked publisher", func(t *testing.T) {
		broker := NewBroker[int]("test")

		_ = broker.Subscribe(context.Background(), Lossless(), WithSubscriberBuffer(1))
		broker.Publish(EventCreated, 1)

		done := make(chan struct{})
		go func() {
			broker.Publish(EventCreated, 2)
			close(done)
		}()
		time.Sleep(20 * time.Millisecond)

		broker.Shutdown()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publisher still blocked after shutdown")
		}
	})

	t.Run("cancelled subscriber releases a blocked publisher", func(t *testing.T) {
		broker := NewBroker[int]("test")
		defer broker.Shutdown()

		ctx, cancel := context.WithCancel(context.Background())
		_ = broker.Subscribe(ctx, Lossless(), WithSubscriberBuffer(1))
		broker.Publish(EventCreated, 1)

		done := make(chan struct{})
		go func() {
			broker.Publish(EventCreated, 2)
			close(done)
		}()
		time.Sleep(20 * time.Millisecond)

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("publisher still blocked after cancel")
		}
	})
}

func TestBrokerConcurrency(t *testing.T) {
	broker := NewBroker[int]("test")
	defer broker.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const numSubscribers = 10
	const numPublishes = 100

	var wg sync.WaitGroup
	received := make([]int, numSubscribers)
	ready := make(chan struct{}, numSubscribers)

	for i := range numSubscribers {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			events := broker.Subscribe(ctx, Lossless())
			ready <- struct{}{}
			for range events {
				received[idx]++
			}
		}(i)
	}
	for range numSubscribers {
		<-ready
	}

	var pubWg sync.WaitGroup
	for i := range numPublishes {
		pubWg.Add(1)
		go func(n int) {
			defer pubWg.Done()
			broker.Publish(EventCreated, n)
		}(i)
	}
	pubWg.Wait()

	time.Sleep(50 * time.Millisecond)
	cancel()
	wg.Wait()

	for i, count := range received {
		if count != numPublishes {
			t.Errorf("subscriber %d received %d events, want %d", i, count, numPublishes)
		}
	}
}

func TestBrokerMetrics(t *testing.T) {
	broker := NewBroker[string]("test")
	defer broker.Shutdown()

	_ = broker.Subscribe(context.Background())
	_ = broker.Subscribe(context.Background())

	broker.Publish(EventCreated, "1")
	broker.Publish(EventCreated, "2")

	metrics := broker.Metrics()
	if metrics.Name != "test" {
		t.Errorf("expected name 'test', got %q", metrics.Name)
	}
	if metrics.SubscriberCount != 2 || metrics.SubscriberPeak != 2 {
		t.Errorf("expected 2 subscribers (peak 2), got %d (peak %d)", metrics.SubscriberCount, metrics.SubscriberPeak)
	}
	if metrics.PublishCount != 2 {
		t.Errorf("expected 2 publishes, got %d", metrics.PublishCount)
	}
}

func TestBrokerPublishAsync(t *testing.T) {
	broker := NewBroker[string]("test")
	defer broker.Shutdown()

	ch := broker.Subscribe(context.Background())
	broker.PublishAsync(EventCreated, "async")

	select {
	case event := <-ch:
		if event.Payload != "async" {
			t.Errorf("expected 'async', got %q", event.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for async event")
	}
}

func TestBrokerIsShutdown(t *testing.T) {
	broker := NewBroker[string]("test")
	if broker.IsShutdown() {
		t.Error("broker should not be shut down initially")
	}

	broker.Shutdown()
	broker.Shutdown()

	if !broker.IsShutdown() {
		t.Error("broker should be shut down after Shutdown()")
	}
}
