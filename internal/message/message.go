// Package message defines the chat message model shared by sessions, the
// gateway and the exporters.
package message

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the role of a message sender.
type Role string

// Role constants.
const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Feedback is the student's rating of a model answer.
type Feedback string

// Feedback constants. FeedbackNone is the zero value.
const (
	FeedbackNone    Feedback = ""
	FeedbackLike    Feedback = "like"
	FeedbackDislike Feedback = "dislike"
)

// Valid reports whether f is a known feedback value.
func (f Feedback) Valid() bool {
	switch f {
	case FeedbackNone, FeedbackLike, FeedbackDislike:
		return true
	}
	return false
}

// Toggle returns the feedback after the student picks next: picking the
// current value clears it.
func (f Feedback) Toggle(next Feedback) Feedback {
	if f == next {
		return FeedbackNone
	}
	return next
}

// DefaultImageType is assumed for stored images that carry no MIME type.
const DefaultImageType = "image/jpeg"

// Image is an inlined picture attached to a user message.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64, standard encoding
}

// NewImage encodes raw bytes into an Image.
func NewImage(mimeType string, raw []byte) Image {
	if mimeType == "" {
		mimeType = DefaultImageType
	}
	return Image{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(raw),
	}
}

// Bytes decodes the image payload.
func (i Image) Bytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(i.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return b, nil
}

// UnmarshalJSON accepts the object form as well as the older bare string
// form, which is either plain base64 or a data URL.
func (i *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*i = imageFromString(s)
		return nil
	}

	type plain Image
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	if p.Data == "" {
		return errors.New("image has no data")
	}
	if p.MIMEType == "" {
		p.MIMEType = DefaultImageType
	}
	*i = Image(p)
	return nil
}

func imageFromString(s string) Image {
	// data:image/png;base64,AAAA
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		if meta, data, found := strings.Cut(rest, ","); found {
			mimeType, _, _ := strings.Cut(meta, ";")
			if mimeType == "" {
				mimeType = DefaultImageType
			}
			return Image{MIMEType: mimeType, Data: data}
		}
	}
	return Image{MIMEType: DefaultImageType, Data: s}
}

// Message represents one chat message.
type Message struct {
	ID        string
	Role      Role
	Text      string
	Images    []Image
	Timestamp time.Time
	IsError   bool
	Feedback  Feedback
}

// now is truncated to milliseconds, the resolution of the stored format.
func now() time.Time {
	return time.UnixMilli(time.Now().UnixMilli())
}

// NewUser creates a user message. The images slice is copied.
func NewUser(text string, images []Image) Message {
	m := Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: now(),
	}
	if len(images) > 0 {
		m.Images = append([]Image(nil), images...)
	}
	return m
}

// NewPlaceholder creates the empty model message that a streamed answer
// is written into.
func NewPlaceholder() Message {
	return Message{
		ID:        uuid.New().String(),
		Role:      RoleModel,
		Timestamp: now(),
	}
}

// Clone returns a deep copy of m.
func (m Message) Clone() Message {
	if m.Images != nil {
		m.Images = append([]Image(nil), m.Images...)
	}
	return m
}

// Editable reports whether the text may still change.
func (m Message) Editable() bool {
	return !m.IsError
}

// IsPlaceholder reports whether m is a model message with nothing in it yet.
func (m Message) IsPlaceholder() bool {
	return m.Role == RoleModel && m.Text == "" && !m.IsError
}

type wireMessage struct {
	ID        string  `json:"id"`
	Role      Role    `json:"role"`
	Text      string  `json:"text"`
	Images    []Image `json:"images,omitempty"`
	Timestamp int64   `json:"timestamp"`
	IsError   bool    `json:"isError,omitempty"`
	Feedback  *string `json:"feedback,omitempty"`
}

// MarshalJSON writes the stored form: millisecond timestamp, optional
// images, error flag and feedback.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		ID:        m.ID,
		Role:      m.Role,
		Text:      m.Text,
		Images:    m.Images,
		Timestamp: m.Timestamp.UnixMilli(),
		IsError:   m.IsError,
	}
	if m.Feedback != FeedbackNone {
		fb := string(m.Feedback)
		w.Feedback = &fb
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the stored form. A null feedback means none.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*m = Message{
		ID:        w.ID,
		Role:      w.Role,
		Text:      w.Text,
		Images:    w.Images,
		Timestamp: time.UnixMilli(w.Timestamp),
		IsError:   w.IsError,
	}
	if w.Feedback != nil {
		m.Feedback = Feedback(*w.Feedback)
	}
	return nil
}

// Validate checks the fields a loaded message must carry.
func (m Message) Validate() error {
	if m.ID == "" {
		return errors.New("message has no id")
	}
	if !m.Role.Valid() {
		return fmt.Errorf("message %s: unknown role %q", m.ID, m.Role)
	}
	if !m.Feedback.Valid() {
		return fmt.Errorf("message %s: unknown feedback %q", m.ID, m.Feedback)
	}
	if m.Role != RoleUser && len(m.Images) > 0 {
		return fmt.Errorf("message %s: images on a %s message", m.ID, m.Role)
	}
	return nil
}
