package session

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/guilhermegouw/siaka/internal/events"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/pubsub"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// Snapshot is one immutable version of the session collection. Sessions are
// ordered by creation time, newest first. A published snapshot is never
// modified; callers must not modify it either.
type Snapshot struct {
	Sessions []Session
	ActiveID string
}

// Find returns the session with the given id.
func (s *Snapshot) Find(id string) (Session, bool) {
	if i := s.index(id); i >= 0 {
		return s.Sessions[i], true
	}
	return Session{}, false
}

// Active returns the active session.
func (s *Snapshot) Active() (Session, bool) {
	return s.Find(s.ActiveID)
}

func (s *Snapshot) index(id string) int {
	for i := range s.Sessions {
		if s.Sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// Store is the authoritative session collection. Writers are serialized;
// readers load the current snapshot without locking.
type Store struct {
	mu     sync.Mutex
	snap   atomic.Pointer[Snapshot]
	broker pubsub.Publisher[events.SessionEvent]
}

// NewStore creates an empty store. broker may be nil.
func NewStore(broker pubsub.Publisher[events.SessionEvent]) *Store {
	s := &Store{broker: broker}
	s.snap.Store(&Snapshot{})
	return s
}

// Snapshot returns the current collection.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// List returns copies of all sessions, newest first.
func (s *Store) List() []Session {
	cur := s.Snapshot()
	out := make([]Session, len(cur.Sessions))
	for i, sess := range cur.Sessions {
		out[i] = sess.Clone()
	}
	return out
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (Session, bool) {
	sess, ok := s.Snapshot().Find(id)
	if !ok {
		return Session{}, false
	}
	return sess.Clone(), true
}

// Active returns a copy of the active session.
func (s *Store) Active() (Session, bool) {
	return s.Get(s.ActiveID())
}

// ActiveID returns the id of the active session.
func (s *Store) ActiveID() string {
	return s.Snapshot().ActiveID
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	return len(s.Snapshot().Sessions)
}

// change is one pending event, published once the write lock is released.
type change struct {
	kind  pubsub.EventType
	event events.SessionEvent
}

// update runs fn against a private copy of the current snapshot. fn returns
// the changes to announce; none means nothing changed and the snapshot is
// left as it was.
func (s *Store) update(fn func(next *Snapshot) []change) {
	s.mu.Lock()
	cur := s.snap.Load()
	next := &Snapshot{
		Sessions: slices.Clone(cur.Sessions),
		ActiveID: cur.ActiveID,
	}
	changes := fn(next)
	if len(changes) > 0 {
		s.snap.Store(next)
	}
	s.mu.Unlock()

	if s.broker == nil {
		return
	}
	for _, c := range changes {
		s.broker.Publish(c.kind, c.event)
	}
}

// updateSession replaces the session at i with a version whose message slice
// is private to the new snapshot.
func (s *Snapshot) updateSession(i int, fn func(sess *Session)) {
	sess := s.Sessions[i]
	sess.Messages = slices.Clone(sess.Messages)
	fn(&sess)
	s.Sessions[i] = sess
}

func newSession() Session {
	return Session{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		Subject:   subject.Default,
		CreatedAt: time.UnixMilli(time.Now().UnixMilli()),
	}
}

// Create adds an empty session at the front of the collection and makes it
// active.
func (s *Store) Create() Session {
	var created Session
	s.update(func(next *Snapshot) []change {
		created = newSession()
		next.Sessions = append([]Session{created}, next.Sessions...)
		next.ActiveID = created.ID
		return []change{
			{pubsub.EventCreated, events.NewSessionCreatedEvent(created.ID, created.Title)},
			{pubsub.EventUpdated, events.NewSessionSwitchedEvent(created.ID, created.Title)},
		}
	})
	return created
}

// SetActive makes id the active session.
func (s *Store) SetActive(id string) error {
	err := ErrNotFound
	s.update(func(next *Snapshot) []change {
		sess, ok := next.Find(id)
		if !ok {
			return nil
		}
		err = nil
		if next.ActiveID == id {
			return nil
		}
		next.ActiveID = id
		return []change{{pubsub.EventUpdated, events.NewSessionSwitchedEvent(id, sess.Title)}}
	})
	return err
}

// SetSubject replaces the subject of a session. Messages are untouched.
func (s *Store) SetSubject(id string, subj subject.Subject) error {
	err := ErrNotFound
	s.update(func(next *Snapshot) []change {
		i := next.index(id)
		if i < 0 {
			return nil
		}
		err = nil
		if next.Sessions[i].Subject == subj {
			return nil
		}
		next.Sessions[i].Subject = subj
		return []change{{pubsub.EventUpdated, events.NewSessionUpdatedEvent(id, next.Sessions[i].Title)}}
	})
	return err
}

// SetTitle renames a session.
func (s *Store) SetTitle(id, title string) error {
	err := ErrNotFound
	s.update(func(next *Snapshot) []change {
		i := next.index(id)
		if i < 0 {
			return nil
		}
		err = nil
		next.Sessions[i].Title = title
		return []change{{pubsub.EventUpdated, events.NewSessionUpdatedEvent(id, title)}}
	})
	return err
}

// AppendMessage adds msg at the end of a session. The first user message of
// a session also sets its title. It reports false when the session does not
// exist.
func (s *Store) AppendMessage(sessionID string, msg message.Message) bool {
	applied := false
	msg = msg.Clone()
	s.update(func(next *Snapshot) []change {
		i := next.index(sessionID)
		if i < 0 {
			return nil
		}
		applied = true
		changes := []change{{pubsub.EventUpdated, events.NewSessionMessageAddedEvent(sessionID, msg.ID)}}
		next.updateSession(i, func(sess *Session) {
			if last, ok := sess.LastMessage(); ok && msg.Timestamp.Before(last.Timestamp) {
				msg.Timestamp = last.Timestamp
			}
			if len(sess.Messages) == 0 && msg.Role == message.RoleUser {
				sess.Title = DeriveTitle(msg.Text)
				changes = append(changes, change{pubsub.EventUpdated, events.NewSessionUpdatedEvent(sessionID, sess.Title)})
			}
			sess.Messages = append(sess.Messages, msg)
		})
		return changes
	})
	return applied
}

// PatchMessageText replaces the text of a message. Missing sessions or
// messages and error-flagged messages are left alone; it reports whether the
// patch landed.
func (s *Store) PatchMessageText(sessionID, messageID, text string) bool {
	return s.patchMessage(sessionID, messageID, func(m *message.Message) bool {
		if !m.Editable() {
			return false
		}
		m.Text = text
		return true
	})
}

// MarkMessageError flags a message as failed and replaces its text. A
// message is flagged at most once.
func (s *Store) MarkMessageError(sessionID, messageID, text string) bool {
	return s.patchMessage(sessionID, messageID, func(m *message.Message) bool {
		if m.IsError {
			return false
		}
		m.IsError = true
		m.Text = text
		return true
	})
}

// SetFeedback sets the feedback of a message, clearing it when fb is the
// current value.
func (s *Store) SetFeedback(sessionID, messageID string, fb message.Feedback) bool {
	return s.patchMessage(sessionID, messageID, func(m *message.Message) bool {
		m.Feedback = m.Feedback.Toggle(fb)
		return true
	})
}

func (s *Store) patchMessage(sessionID, messageID string, fn func(m *message.Message) bool) bool {
	applied := false
	s.update(func(next *Snapshot) []change {
		i := next.index(sessionID)
		if i < 0 {
			return nil
		}
		j := next.Sessions[i].indexOf(messageID)
		if j < 0 {
			return nil
		}
		m := next.Sessions[i].Messages[j].Clone()
		if !fn(&m) {
			return nil
		}
		applied = true
		next.updateSession(i, func(sess *Session) {
			sess.Messages[j] = m
		})
		return []change{{pubsub.EventUpdated, events.NewSessionMessagePatchedEvent(sessionID, messageID)}}
	})
	return applied
}

// Delete removes a session and returns the active id afterwards. Deleting the
// active session activates the most recently created remaining one, or a new
// empty session when none remain, in the same step.
func (s *Store) Delete(id string) string {
	var active string
	s.update(func(next *Snapshot) []change {
		active = next.ActiveID
		i := next.index(id)
		if i < 0 {
			return nil
		}
		next.Sessions = slices.Delete(next.Sessions, i, i+1)
		changes := []change{{pubsub.EventDeleted, events.NewSessionDeletedEvent(id)}}
		if next.ActiveID != id {
			return changes
		}

		if len(next.Sessions) == 0 {
			fresh := newSession()
			next.Sessions = []Session{fresh}
			changes = append(changes, change{pubsub.EventCreated, events.NewSessionCreatedEvent(fresh.ID, fresh.Title)})
		}
		newest := mostRecent(next.Sessions)
		next.ActiveID = newest.ID
		active = newest.ID
		return append(changes, change{pubsub.EventUpdated, events.NewSessionSwitchedEvent(newest.ID, newest.Title)})
	})
	return active
}

func mostRecent(sessions []Session) Session {
	best := sessions[0]
	for _, sess := range sessions[1:] {
		if sess.CreatedAt.After(best.CreatedAt) {
			best = sess
		}
	}
	return best
}

// Load replaces the whole collection, typically with what was persisted.
// The newest session becomes active; an empty collection gets one new
// session.
func (s *Store) Load(sessions []Session) {
	s.update(func(next *Snapshot) []change {
		loaded := make([]Session, len(sessions))
		for i, sess := range sessions {
			loaded[i] = sess.Clone()
		}
		slices.SortStableFunc(loaded, func(a, b Session) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
		if len(loaded) == 0 {
			loaded = []Session{newSession()}
		}
		next.Sessions = loaded
		next.ActiveID = loaded[0].ID
		return []change{{pubsub.EventUpdated, events.NewSessionsLoadedEvent(next.ActiveID)}}
	})
}
