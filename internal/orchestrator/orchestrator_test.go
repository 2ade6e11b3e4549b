package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/gateway"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// fakeStreamer runs fn as the body of Stream.
type fakeStreamer struct {
	fn       func(ctx context.Context, req gateway.Request, onChunk func(string)) (string, error)
	requests []gateway.Request
}

func (f *fakeStreamer) Stream(ctx context.Context, req gateway.Request, onChunk func(string)) (string, error) {
	f.requests = append(f.requests, req)
	return f.fn(ctx, req, onChunk)
}

func chunks(parts ...string) *fakeStreamer {
	return &fakeStreamer{fn: func(_ context.Context, _ gateway.Request, onChunk func(string)) (string, error) {
		for _, p := range parts {
			onChunk(p)
		}
		return parts[len(parts)-1], nil
	}}
}

func newTestOrchestrator(gw Streamer) (*Orchestrator, *session.Store) {
	store := session.NewStore(nil)
	store.Load(nil)
	return New(store, gw, nil), store
}

func TestSendTurn_MathsScenario(t *testing.T) {
	store := session.NewStore(nil)
	store.Load(nil)
	sess, _ := store.Active()
	if err := store.SetSubject(sess.ID, subject.Maths); err != nil {
		t.Fatal(err)
	}

	var o *Orchestrator
	var seen []string
	gw := &fakeStreamer{fn: func(_ context.Context, req gateway.Request, onChunk func(string)) (string, error) {
		// placeholder exists, empty, and the gate is closed before any chunk
		got, _ := store.Get(sess.ID)
		if len(got.Messages) != 2 {
			t.Errorf("messages before streaming = %d, want 2", len(got.Messages))
		}
		if ph := got.Messages[1]; ph.Role != message.RoleModel || ph.Text != "" {
			t.Errorf("placeholder = %+v", ph)
		}
		if !o.Busy() {
			t.Error("Busy() = false while streaming")
		}

		for _, c := range []string{"2", "2+2=4"} {
			onChunk(c)
			got, _ := store.Get(sess.ID)
			seen = append(seen, got.Messages[1].Text)
		}
		return "2+2=4", nil
	}}
	o = New(store, gw, nil)

	turn, err := o.SendTurn(context.Background(), sess.ID, "2+2=?", nil)
	if err != nil {
		t.Fatalf("SendTurn() error = %v", err)
	}

	if turn.State != StateFinalized || turn.Err != nil || turn.Text != "2+2=4" {
		t.Errorf("turn = %+v", turn)
	}
	if o.Busy() {
		t.Error("Busy() = true after the turn")
	}
	if strings.Join(seen, "|") != "2|2+2=4" {
		t.Errorf("placeholder went through %v", seen)
	}

	got, _ := store.Get(sess.ID)
	if got.Title != "2+2=?" {
		t.Errorf("Title = %q, want %q", got.Title, "2+2=?")
	}
	if len(got.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(got.Messages))
	}
	if u := got.Messages[0]; u.Role != message.RoleUser || u.Text != "2+2=?" || u.ID != turn.UserMessageID {
		t.Errorf("user message = %+v", u)
	}
	if m := got.Messages[1]; m.Text != "2+2=4" || m.IsError || m.ID != turn.MessageID {
		t.Errorf("answer = %+v", m)
	}

	req := gw.requests[0]
	if req.Subject != subject.Maths || req.Text != "2+2=?" || len(req.History) != 0 {
		t.Errorf("request = %+v", req)
	}

	if err := o.SetFeedback(sess.ID, turn.MessageID, message.FeedbackLike); err != nil {
		t.Errorf("SetFeedback() error = %v", err)
	}
}

func TestSendTurn_RateLimit(t *testing.T) {
	gw := &fakeStreamer{fn: func(_ context.Context, _ gateway.Request, onChunk func(string)) (string, error) {
		onChunk("partial")
		return "", &gateway.Error{Kind: gateway.KindRateLimit, Message: "quota"}
	}}
	o, store := newTestOrchestrator(gw)
	sid := store.ActiveID()

	turn, err := o.SendTurn(context.Background(), sid, "question", nil)
	if err != nil {
		t.Fatalf("SendTurn() error = %v", err)
	}
	if turn.State != StateFailed || !gateway.IsRateLimit(turn.Err) {
		t.Errorf("turn = %+v", turn)
	}
	if o.Busy() {
		t.Error("Busy() = true after failure")
	}

	got, _ := store.Get(sid)
	m := got.Messages[1]
	if !m.IsError || m.Text != RateLimitErrorText {
		t.Errorf("answer = %+v, want rate-limit error text", m)
	}

	if store.PatchMessageText(sid, m.ID, "late") {
		t.Error("failed answer accepted a patch")
	}
}

func TestSendTurn_PreflightErrors(t *testing.T) {
	t.Run("empty text and no images", func(t *testing.T) {
		o, store := newTestOrchestrator(chunks("x"))
		if _, err := o.SendTurn(context.Background(), store.ActiveID(), "   ", nil); !errors.Is(err, ErrEmptyTurn) {
			t.Errorf("error = %v, want ErrEmptyTurn", err)
		}
		got, _ := store.Active()
		if len(got.Messages) != 0 {
			t.Error("empty send appended messages")
		}
	})

	t.Run("image without text is sent", func(t *testing.T) {
		o, store := newTestOrchestrator(chunks("une photo"))
		img := message.NewImage("image/png", []byte("x"))
		turn, err := o.SendTurn(context.Background(), store.ActiveID(), "", []message.Image{img})
		if err != nil || turn.State != StateFinalized {
			t.Fatalf("turn = %+v, err = %v", turn, err)
		}
		got, _ := store.Active()
		if got.Title != session.DefaultTitle {
			t.Errorf("Title = %q", got.Title)
		}
		if len(got.Messages[0].Images) != 1 {
			t.Error("image not stored on the user message")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		o, _ := newTestOrchestrator(chunks("x"))
		if _, err := o.SendTurn(context.Background(), "nope", "hi", nil); !errors.Is(err, session.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
		if o.Busy() {
			t.Error("Busy() left set")
		}
	})
}

func TestSendTurn_BusyGate(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &fakeStreamer{fn: func(_ context.Context, _ gateway.Request, onChunk func(string)) (string, error) {
		close(started)
		<-release
		onChunk("fini")
		return "fini", nil
	}}
	o, store := newTestOrchestrator(gw)
	first := store.ActiveID()
	other := store.Create().ID

	turn, err := o.SendTurnAsync(context.Background(), first, "un", nil)
	if err != nil {
		t.Fatalf("SendTurnAsync() error = %v", err)
	}
	if turn.MessageID == "" || turn.State != StatePlaceholderCreated {
		t.Errorf("async turn = %+v", turn)
	}
	<-started

	if _, err := o.SendTurn(context.Background(), first, "deux", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second send error = %v, want ErrBusy", err)
	}
	if _, err := o.SendTurn(context.Background(), other, "trois", nil); !errors.Is(err, ErrBusy) {
		t.Errorf("send to another session error = %v, want ErrBusy", err)
	}

	// reading, changing subject and deleting other sessions stay available
	if err := o.SetSubject(first, subject.Code); err != nil {
		t.Errorf("SetSubject during turn: %v", err)
	}
	if _, err := o.DeleteSession(other); err != nil {
		t.Errorf("DeleteSession during turn: %v", err)
	}

	close(release)
	o.Wait()

	if o.Busy() {
		t.Error("Busy() = true after the turn")
	}
	got, _ := store.Get(first)
	if len(got.Messages) != 2 || got.Messages[1].Text != "fini" {
		t.Errorf("messages = %+v", got.Messages)
	}
	if len(gw.requests) != 1 || gw.requests[0].Subject != subject.General {
		t.Errorf("request used subject %v, want the one at send time", gw.requests[0].Subject)
	}
}

func TestSendTurn_DeleteMidStream(t *testing.T) {
	var o *Orchestrator
	gw := &fakeStreamer{fn: func(_ context.Context, req gateway.Request, onChunk func(string)) (string, error) {
		onChunk("a")
		if _, err := o.DeleteSession(o.Store().ActiveID()); err != nil {
			t.Errorf("DeleteSession() error = %v", err)
		}
		onChunk("ab")
		return "ab", nil
	}}
	var store *session.Store
	o, store = newTestOrchestrator(gw)
	sid := store.ActiveID()

	turn, err := o.SendTurn(context.Background(), sid, "question", nil)
	if err != nil {
		t.Fatal(err)
	}
	if turn.State != StateFinalized {
		t.Errorf("State = %v", turn.State)
	}
	if _, ok := store.Get(sid); ok {
		t.Error("deleted session came back")
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want the fresh replacement only", store.Len())
	}
	active, _ := store.Active()
	if len(active.Messages) != 0 {
		t.Errorf("replacement session got %d messages", len(active.Messages))
	}
}

func TestSendTurn_History(t *testing.T) {
	o, store := newTestOrchestrator(chunks("réponse 1"))
	sid := store.ActiveID()
	if _, err := o.SendTurn(context.Background(), sid, "question 1", nil); err != nil {
		t.Fatal(err)
	}

	gw := chunks("réponse 2")
	o.SetGateway(gw)
	if _, err := o.SendTurn(context.Background(), sid, "question 2", nil); err != nil {
		t.Fatal(err)
	}

	req := gw.requests[0]
	if len(req.History) != 2 {
		t.Fatalf("history = %d messages, want 2", len(req.History))
	}
	if req.History[0].Text != "question 1" || req.History[1].Text != "réponse 1" {
		t.Errorf("history = %+v", req.History)
	}
	if req.Text != "question 2" {
		t.Errorf("Text = %q", req.Text)
	}
}

func TestSendTurn_GatewayMissing(t *testing.T) {
	t.Run("nil gateway", func(t *testing.T) {
		o, store := newTestOrchestrator(nil)
		turn, err := o.SendTurn(context.Background(), store.ActiveID(), "hi", nil)
		if err != nil {
			t.Fatal(err)
		}
		if !gateway.IsConfiguration(turn.Err) {
			t.Errorf("Err = %v, want configuration", turn.Err)
		}
		got, _ := store.Active()
		if got.Messages[1].Text != gateway.MissingKeyMessage {
			t.Errorf("answer text = %q", got.Messages[1].Text)
		}
	})

	t.Run("unavailable gateway", func(t *testing.T) {
		_, cfgErr := gateway.New(gateway.Config{LightModel: "a", HeavyModel: "b"})
		o, store := newTestOrchestrator(Unavailable(cfgErr))
		turn, _ := o.SendTurn(context.Background(), store.ActiveID(), "hi", nil)
		if turn.State != StateFailed {
			t.Errorf("State = %v", turn.State)
		}
		got, _ := store.Active()
		if !got.Messages[1].IsError || got.Messages[1].Text != gateway.MissingKeyMessage {
			t.Errorf("answer = %+v", got.Messages[1])
		}
	})
}

func TestSendTurn_PanickingStreamer(t *testing.T) {
	gw := &fakeStreamer{fn: func(context.Context, gateway.Request, func(string)) (string, error) {
		panic("boom")
	}}
	o, store := newTestOrchestrator(gw)
	turn, err := o.SendTurn(context.Background(), store.ActiveID(), "hi", nil)
	if err != nil {
		t.Fatal(err)
	}
	if turn.State != StateFailed || o.Busy() {
		t.Errorf("turn = %+v busy = %v", turn, o.Busy())
	}
}

func TestSendTurn_PublishesTurnEvents(t *testing.T) {
	hub := pubsub.NewHub()
	defer hub.Shutdown()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := hub.Turn.Subscribe(ctx, pubsub.Lossless())

	store := session.NewStore(hub.Session)
	store.Load(nil)
	o := New(store, chunks("a", "ab"), hub)

	done := make(chan []events.TurnEventType)
	go func() {
		var got []events.TurnEventType
		for ev := range ch {
			got = append(got, ev.Payload.Type)
			if ev.Payload.Type == events.TurnEventCompleted {
				done <- got
				return
			}
		}
	}()

	if _, err := o.SendTurn(context.Background(), store.ActiveID(), "hi", nil); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-done:
		want := []events.TurnEventType{events.TurnEventStarted, events.TurnEventChunk, events.TurnEventChunk, events.TurnEventCompleted}
		if len(got) != len(want) {
			t.Fatalf("events = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("event %d = %s, want %s", i, got[i], want[i])
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for turn events")
	}
}

func TestSetFeedback(t *testing.T) {
	o, store := newTestOrchestrator(chunks("4"))
	sid := store.ActiveID()
	turn, _ := o.SendTurn(context.Background(), sid, "2+2", nil)

	if err := o.SetFeedback(sid, turn.UserMessageID, message.FeedbackLike); err == nil {
		t.Error("rating a user message should fail")
	}
	if err := o.SetFeedback(sid, turn.MessageID, "love"); err == nil {
		t.Error("unknown feedback should fail")
	}
	if err := o.SetFeedback(sid, "missing", message.FeedbackLike); err == nil {
		t.Error("missing message should fail")
	}

	_ = o.SetFeedback(sid, turn.MessageID, message.FeedbackLike)
	_ = o.SetFeedback(sid, turn.MessageID, message.FeedbackLike)

	failing := &fakeStreamer{fn: func(context.Context, gateway.Request, func(string)) (string, error) {
		return "", errors.New("offline")
	}}
	o.SetGateway(failing)
	failed, _ := o.SendTurn(context.Background(), sid, "encore", nil)
	if err := o.SetFeedback(sid, failed.MessageID, message.FeedbackDislike); err == nil {
		t.Error("rating a failed answer should fail")
	}
	got, _ := store.Get(sid)
	if got.Messages[1].Feedback != message.FeedbackNone {
		t.Errorf("Feedback = %q after liking twice", got.Messages[1].Feedback)
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limit", err: &gateway.Error{Kind: gateway.KindRateLimit}, want: RateLimitErrorText},
		{name: "missing key", err: &gateway.Error{Kind: gateway.KindConfiguration, Message: gateway.MissingKeyMessage}, want: gateway.MissingKeyMessage},
		{name: "rejected key", err: &gateway.Error{Kind: gateway.KindConfiguration, Message: "API key not valid"}, want: RejectedKeyText},
		{name: "upstream detail", err: &gateway.Error{Kind: gateway.KindUpstream, Message: "overloaded"}, want: GenericErrorText + "\n\n(overloaded)"},
		{name: "plain error", err: errors.New("dial tcp"), want: GenericErrorText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorText(tt.err); got != tt.want {
				t.Errorf("ErrorText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPassthroughs(t *testing.T) {
	o, store := newTestOrchestrator(chunks("x"))
	first := store.ActiveID()
	created := o.NewSession()
	if store.ActiveID() != created.ID {
		t.Error("NewSession did not activate the new session")
	}
	if err := o.SetActive(first); err != nil {
		t.Fatal(err)
	}
	if err := o.SetSubject(first, "cuisine"); err == nil {
		t.Error("unknown subject accepted")
	}
	if _, err := o.DeleteSession("nope"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("DeleteSession(nope) = %v", err)
	}
	active, err := o.DeleteSession(first)
	if err != nil || active != created.ID {
		t.Errorf("DeleteSession() = %q, %v", active, err)
	}
	if StateFailed.String() != "failed" || StateIdle.String() != "idle" {
		t.Error("State.String mismatch")
	}
}
