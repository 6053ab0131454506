package protocol

import (
	"errors"
	"testing"
)

func TestParseClientMessageChat(t *testing.T) {
	raw := []byte(`{"type":"chat_message","channel_id":100,"user_id":7,"content":"hello"}`)
	msg, err := ParseClientMessage(raw)
	if err != nil {
		t.Fatalf("ParseClientMessage() error = %v", err)
	}

	chat, ok := msg.(ChatMessage)
	if !ok {
		t.Fatalf("message type = %T, want ChatMessage", msg)
	}
	if chat.ChannelID != 100 || chat.UserID != 7 || chat.Content != "hello" {
		t.Fatalf("unexpected chat message: %+v", chat)
	}
}

func TestParseClientMessageRejectsUnknownType(t *testing.T) {
	_, err := ParseClientMessage([]byte(`{"type":"wat"}`))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("error = %v, want ErrUnsupportedType", err)
	}
}

func TestParseClientMessageRejectsMissingFields(t *testing.T) {
	cases := []string{
		`{"type":"chat_message","user_id":7,"content":"hi"}`,
		`{"type":"chat_message","channel_id":100,"content":"hi"}`,
		`{"type":"chat_message","channel_id":100,"user_id":7}`,
	}
	for _, raw := range cases {
		if _, err := ParseClientMessage([]byte(raw)); err == nil {
			t.Fatalf("ParseClientMessage(%s) accepted invalid message", raw)
		}
	}
}
