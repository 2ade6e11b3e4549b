// Package session holds the authoritative in-memory collection of chat
// sessions. Every mutation swaps in a new immutable snapshot and publishes a
// change event, so renderers and the persister read without locking.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// DefaultTitle is the title of a session before its first message.
const DefaultTitle = "Nouveau Devoir"

// TitleLimit is the number of characters kept when a title is derived from
// the first message.
const TitleLimit = 30

const titleEllipsis = "..."

// ErrNotFound is returned when a session is not found.
var ErrNotFound = errors.New("session not found")

// Session represents one tutoring conversation.
type Session struct {
	ID        string
	Title     string
	Subject   subject.Subject
	Messages  []message.Message
	CreatedAt time.Time
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	if s.Messages != nil {
		msgs := make([]message.Message, len(s.Messages))
		for i, m := range s.Messages {
			msgs[i] = m.Clone()
		}
		s.Messages = msgs
	}
	return s
}

// LastMessage returns the last message, if any.
func (s Session) LastMessage() (message.Message, bool) {
	if len(s.Messages) == 0 {
		return message.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastModelMessage returns the most recent model message, if any.
func (s Session) LastModelMessage() (message.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == message.RoleModel {
			return s.Messages[i], true
		}
	}
	return message.Message{}, false
}

func (s Session) indexOf(messageID string) int {
	for i := range s.Messages {
		if s.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// Validate checks the fields a loaded session must carry.
func (s Session) Validate() error {
	if s.ID == "" {
		return errors.New("session has no id")
	}
	if !s.Subject.Valid() {
		return fmt.Errorf("session %s: unknown subject %q", s.ID, s.Subject)
	}
	for _, m := range s.Messages {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("session %s: %w", s.ID, err)
		}
	}
	return nil
}

// DeriveTitle builds a session title from the first user message: short
// texts are kept as is, longer ones are cut to TitleLimit characters and
// marked with an ellipsis. Whitespace runs collapse to single spaces.
func DeriveTitle(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return DefaultTitle
	}
	if uniseg.GraphemeClusterCount(text) <= TitleLimit {
		return text
	}

	var b strings.Builder
	g := uniseg.NewGraphemes(text)
	for n := 0; n < TitleLimit && g.Next(); n++ {
		b.WriteString(g.Str())
	}
	return b.String() + titleEllipsis
}

type wireSession struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Subject   subject.Subject   `json:"subject"`
	Messages  []message.Message `json:"messages"`
	CreatedAt int64             `json:"createdAt"`
}

// MarshalJSON writes the stored form with a millisecond creation time.
func (s Session) MarshalJSON() ([]byte, error) {
	msgs := s.Messages
	if msgs == nil {
		msgs = []message.Message{}
	}
	return json.Marshal(wireSession{
		ID:        s.ID,
		Title:     s.Title,
		Subject:   s.Subject,
		Messages:  msgs,
		CreatedAt: s.CreatedAt.UnixMilli(),
	})
}

// UnmarshalJSON reads the stored form.
func (s *Session) UnmarshalJSON(b []byte) error {
	var w wireSession
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*s = Session{
		ID:        w.ID,
		Title:     w.Title,
		Subject:   w.Subject,
		Messages:  w.Messages,
		CreatedAt: time.UnixMilli(w.CreatedAt),
	}
	return nil
}
