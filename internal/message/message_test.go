package message

import (
	"encoding/json"
	"testing"
)

func TestFeedback_Toggle(t *testing.T) {
	tests := []struct {
		name    string
		current Feedback
		next    Feedback
		want    Feedback
	}{
		{name: "sets like from none", current: FeedbackNone, next: FeedbackLike, want: FeedbackLike},
		{name: "clears like when liked twice", current: FeedbackLike, next: FeedbackLike, want: FeedbackNone},
		{name: "switches like to dislike", current: FeedbackLike, next: FeedbackDislike, want: FeedbackDislike},
		{name: "clears dislike when disliked twice", current: FeedbackDislike, next: FeedbackDislike, want: FeedbackNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.current.Toggle(tt.next); got != tt.want {
				t.Errorf("Toggle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewUser(t *testing.T) {
	images := []Image{NewImage("image/png", []byte("png")), NewImage("", []byte("jpg"))}
	m := NewUser("2+2=?", images)

	if m.ID == "" {
		t.Error("ID is empty")
	}
	if m.Role != RoleUser {
		t.Errorf("Role = %q, want %q", m.Role, RoleUser)
	}
	if len(m.Images) != 2 || m.Images[0].MIMEType != "image/png" || m.Images[1].MIMEType != DefaultImageType {
		t.Errorf("Images = %+v, want png then jpeg in order", m.Images)
	}

	images[0].Data = "changed"
	if m.Images[0].Data == "changed" {
		t.Error("NewUser should copy the images slice")
	}
}

func TestNewPlaceholder(t *testing.T) {
	m := NewPlaceholder()
	if m.Role != RoleModel || m.Text != "" || !m.IsPlaceholder() {
		t.Errorf("NewPlaceholder() = %+v, want empty model message", m)
	}
	if !m.Editable() {
		t.Error("placeholder should be editable")
	}
	m.IsError = true
	if m.Editable() || m.IsPlaceholder() {
		t.Error("error-flagged message should be neither editable nor a placeholder")
	}
}

func TestMessage_Clone(t *testing.T) {
	m := NewUser("hi", []Image{NewImage("image/png", []byte("a"))})
	c := m.Clone()
	c.Images[0].Data = "other"
	if m.Images[0].Data == "other" {
		t.Error("Clone shares the images backing array")
	}
}

func TestImage_Bytes(t *testing.T) {
	img := NewImage("image/png", []byte{0x89, 'P', 'N', 'G'})
	b, err := img.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if string(b) != "\x89PNG" {
		t.Errorf("Bytes() = %q", b)
	}

	if _, err := (Image{Data: "%%%"}).Bytes(); err == nil {
		t.Error("Bytes() on invalid base64 should fail")
	}
}

func TestImage_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMIME string
		wantData string
		wantErr  bool
	}{
		{name: "object form", input: `{"mimeType":"image/png","data":"AAAA"}`, wantMIME: "image/png", wantData: "AAAA"},
		{name: "object without type", input: `{"data":"AAAA"}`, wantMIME: DefaultImageType, wantData: "AAAA"},
		{name: "bare base64", input: `"AAAA"`, wantMIME: DefaultImageType, wantData: "AAAA"},
		{name: "data url", input: `"data:image/webp;base64,BBBB"`, wantMIME: "image/webp", wantData: "BBBB"},
		{name: "object without data", input: `{"mimeType":"image/png"}`, wantErr: true},
		{name: "number", input: `12`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var img Image
			err := json.Unmarshal([]byte(tt.input), &img)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal error = %v", err)
			}
			if img.MIMEType != tt.wantMIME || img.Data != tt.wantData {
				t.Errorf("got %+v, want %s/%s", img, tt.wantMIME, tt.wantData)
			}
		})
	}
}

func TestMessage_JSON(t *testing.T) {
	t.Run("writes the stored field names", func(t *testing.T) {
		m := Message{ID: "m1", Role: RoleModel, Text: "4", Feedback: FeedbackLike}
		b, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(b, &raw); err != nil {
			t.Fatal(err)
		}
		for _, key := range []string{"id", "role", "text", "timestamp", "feedback"} {
			if _, ok := raw[key]; !ok {
				t.Errorf("missing key %q in %s", key, b)
			}
		}
		if _, ok := raw["images"]; ok {
			t.Errorf("images should be omitted when empty: %s", b)
		}
		if _, ok := raw["isError"]; ok {
			t.Errorf("isError should be omitted when false: %s", b)
		}
	})

	t.Run("reads null feedback as none", func(t *testing.T) {
		var m Message
		input := `{"id":"a","role":"model","text":"x","timestamp":1700000000000,"feedback":null}`
		if err := json.Unmarshal([]byte(input), &m); err != nil {
			t.Fatal(err)
		}
		if m.Feedback != FeedbackNone {
			t.Errorf("Feedback = %q, want none", m.Feedback)
		}
		if m.Timestamp.UnixMilli() != 1700000000000 {
			t.Errorf("Timestamp = %v", m.Timestamp)
		}
	})

	t.Run("keeps timestamp and images through a save", func(t *testing.T) {
		orig := NewUser("photo", []Image{NewImage("image/png", []byte("x"))})
		b, err := json.Marshal(orig)
		if err != nil {
			t.Fatal(err)
		}
		var got Message
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatal(err)
		}
		if !got.Timestamp.Equal(orig.Timestamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, orig.Timestamp)
		}
		if len(got.Images) != 1 || got.Images[0] != orig.Images[0] {
			t.Errorf("Images = %+v, want %+v", got.Images, orig.Images)
		}
	})
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{name: "valid user", msg: Message{ID: "1", Role: RoleUser}},
		{name: "valid model with feedback", msg: Message{ID: "1", Role: RoleModel, Feedback: FeedbackDislike}},
		{name: "missing id", msg: Message{Role: RoleUser}, wantErr: true},
		{name: "unknown role", msg: Message{ID: "1", Role: "assistant"}, wantErr: true},
		{name: "unknown feedback", msg: Message{ID: "1", Role: RoleModel, Feedback: "love"}, wantErr: true},
		{name: "images on model", msg: Message{ID: "1", Role: RoleModel, Images: []Image{{Data: "x"}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
