// Package orchestrator runs conversation turns: it records the student's
// message, opens an empty answer, streams the model output into it and
// closes the turn as finished or failed.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/gateway"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/session"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// State is the stage a turn has reached.
type State int

// Turn states, in order. Finalized and Failed are terminal.
const (
	StateIdle State = iota
	StateUserAppended
	StatePlaceholderCreated
	StateStreaming
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUserAppended:
		return "user_appended"
	case StatePlaceholderCreated:
		return "placeholder_created"
	case StateStreaming:
		return "streaming"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Streamer produces an answer for a request.
type Streamer interface {
	Stream(ctx context.Context, req gateway.Request, onChunk func(text string)) (string, error)
}

// Unavailable returns a Streamer that fails every request with err. It
// stands in when the gateway could not be built, so the failure shows up in
// the conversation instead of blocking the application.
func Unavailable(err error) Streamer {
	return unavailable{err: err}
}

type unavailable struct{ err error }

func (u unavailable) Stream(context.Context, gateway.Request, func(string)) (string, error) {
	return "", u.err
}

// Turn describes one send, as far as it got.
type Turn struct {
	SessionID     string
	UserMessageID string
	MessageID     string
	State         State
	Text          string
	Err           error
}

// Orchestrator coordinates sends against the session store.
type Orchestrator struct {
	store *session.Store
	hub   *pubsub.Hub

	mu sync.RWMutex
	gw Streamer

	busy    atomic.Bool
	running sync.WaitGroup
}

// New creates an orchestrator. hub may be nil.
func New(store *session.Store, gw Streamer, hub *pubsub.Hub) *Orchestrator {
	return &Orchestrator{
		store: store,
		gw:    gw,
		hub:   hub,
	}
}

// SetGateway swaps the streamer used by later turns.
func (o *Orchestrator) SetGateway(gw Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gw = gw
}

func (o *Orchestrator) gateway() Streamer {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.gw
}

// Busy reports whether a turn is in flight.
func (o *Orchestrator) Busy() bool {
	return o.busy.Load()
}

// Store returns the session store.
func (o *Orchestrator) Store() *session.Store {
	return o.store
}

// SendTurn runs a whole turn and returns once it is finalized or failed.
// The error is only set when the turn could not start (ErrEmptyTurn,
// ErrBusy, session.ErrNotFound); a gateway failure is reported in
// Turn.Err and in the failed answer itself.
func (o *Orchestrator) SendTurn(ctx context.Context, sessionID, text string, images []message.Image) (Turn, error) {
	run, err := o.begin(sessionID, text, images)
	if err != nil {
		return Turn{}, err
	}
	return o.stream(ctx, run), nil
}

// SendTurnAsync starts a turn and streams it in the background. Progress is
// published as turn events; Wait blocks until background turns end.
func (o *Orchestrator) SendTurnAsync(ctx context.Context, sessionID, text string, images []message.Image) (Turn, error) {
	run, err := o.begin(sessionID, text, images)
	if err != nil {
		return Turn{}, err
	}
	o.running.Add(1)
	go func() {
		defer o.running.Done()
		o.stream(ctx, run)
	}()
	return run.turn, nil
}

// Wait blocks until every background turn has ended.
func (o *Orchestrator) Wait() {
	o.running.Wait()
}

type turnRun struct {
	turn    Turn
	request gateway.Request
}

// begin checks the send and performs the synchronous steps: user message,
// then placeholder. On success the busy flag is held until stream returns.
func (o *Orchestrator) begin(sessionID, text string, images []message.Image) (*turnRun, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(images) == 0 {
		return nil, ErrEmptyTurn
	}
	sess, ok := o.store.Get(sessionID)
	if !ok {
		return nil, session.ErrNotFound
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	user := message.NewUser(text, images)
	if !o.store.AppendMessage(sessionID, user) {
		o.busy.Store(false)
		return nil, session.ErrNotFound
	}
	run := &turnRun{
		turn: Turn{
			SessionID:     sessionID,
			UserMessageID: user.ID,
			State:         StateUserAppended,
		},
		request: gateway.Request{
			History: sess.Messages,
			Text:    user.Text,
			Images:  user.Images,
			Subject: sess.Subject,
		},
	}

	placeholder := message.NewPlaceholder()
	o.store.AppendMessage(sessionID, placeholder)
	run.turn.MessageID = placeholder.ID
	run.turn.State = StatePlaceholderCreated

	o.publish(pubsub.EventStarted, events.NewTurnStartedEvent(sessionID, placeholder.ID))
	return run, nil
}

// stream drives the gateway and settles the placeholder. The busy flag is
// released whatever happens.
func (o *Orchestrator) stream(ctx context.Context, run *turnRun) (turn Turn) {
	defer o.busy.Store(false)

	turn = run.turn
	sid, mid := turn.SessionID, turn.MessageID

	gw := o.gateway()
	if gw == nil {
		gw = Unavailable(&gateway.Error{Kind: gateway.KindConfiguration, Message: gateway.MissingKeyMessage})
	}

	turn.State = StateStreaming
	debug.Event("orchestrator", "streaming", fmt.Sprintf("session=%s message=%s subject=%s", sid, mid, run.request.Subject))

	text, err := o.safeStream(ctx, gw, run.request, func(text string) {
		if o.store.PatchMessageText(sid, mid, text) {
			o.publish(pubsub.EventProgress, events.NewTurnChunkEvent(sid, mid, text))
		}
	})
	if err != nil {
		o.store.MarkMessageError(sid, mid, ErrorText(err))
		turn.State = StateFailed
		turn.Err = err
		debug.Error("orchestrator", err, "turn failed")
		o.publish(pubsub.EventFailed, events.NewTurnFailedEvent(sid, mid, gateway.KindOf(err).String(), err))
		return turn
	}

	o.store.PatchMessageText(sid, mid, text)
	turn.State = StateFinalized
	turn.Text = text
	o.publish(pubsub.EventCompleted, events.NewTurnCompletedEvent(sid, mid, text))
	return turn
}

// safeStream turns a panicking streamer into an upstream failure so the
// placeholder is always settled.
func (o *Orchestrator) safeStream(ctx context.Context, gw Streamer, req gateway.Request, onChunk func(string)) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &gateway.Error{Kind: gateway.KindUpstream, Err: fmt.Errorf("streamer panic: %v", r)}
		}
	}()
	return gw.Stream(ctx, req, onChunk)
}

func (o *Orchestrator) publish(kind pubsub.EventType, ev events.TurnEvent) {
	if o.hub == nil {
		return
	}
	o.hub.Turn.Publish(kind, ev)
}

// NewSession creates an empty session and makes it active.
func (o *Orchestrator) NewSession() session.Session {
	return o.store.Create()
}

// DeleteSession removes a session and returns the active id afterwards.
// Deleting the session of an in-flight turn is allowed; the rest of that
// turn then changes nothing.
func (o *Orchestrator) DeleteSession(id string) (string, error) {
	if _, ok := o.store.Get(id); !ok {
		return o.store.ActiveID(), session.ErrNotFound
	}
	return o.store.Delete(id), nil
}

// SetActive switches the active session.
func (o *Orchestrator) SetActive(id string) error {
	return o.store.SetActive(id)
}

// SetSubject changes the subject of a session. Allowed during a turn; the
// in-flight request keeps the subject it started with.
func (o *Orchestrator) SetSubject(id string, s subject.Subject) error {
	if !s.Valid() {
		return fmt.Errorf("unknown subject %q", s)
	}
	return o.store.SetSubject(id, s)
}

// SetFeedback rates a model answer, toggling off a repeated rating. Failed
// answers cannot be rated.
func (o *Orchestrator) SetFeedback(sessionID, messageID string, fb message.Feedback) error {
	if !fb.Valid() {
		return fmt.Errorf("unknown feedback %q", fb)
	}
	sess, ok := o.store.Get(sessionID)
	if !ok {
		return session.ErrNotFound
	}
	for _, m := range sess.Messages {
		if m.ID != messageID {
			continue
		}
		if m.Role != message.RoleModel {
			return NewError("only answers can be rated")
		}
		if m.IsError {
			return NewError("failed answers cannot be rated")
		}
		o.store.SetFeedback(sessionID, messageID, fb)
		return nil
	}
	return NewError("message not found")
}
