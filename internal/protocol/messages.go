package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatMessage MessageType = "chat_message"
	TypeChatReply   MessageType = "chat_reply"
	TypeErrorEvent  MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ChatMessage is an inbound user turn on the websocket.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	ChannelID int64       `json:"channel_id"`
	UserID    int64       `json:"user_id"`
	Content   string      `json:"content"`
}

// ChatReply carries the assistant reply for one turn.
type ChatReply struct {
	Type      MessageType `json:"type"`
	ChannelID int64       `json:"channel_id"`
	Content   string      `json:"content"`
}

// ErrorEvent reports a failed turn. Message is the user-facing reply;
// Code names the failure kind for programmatic clients.
type ErrorEvent struct {
	Type      MessageType `json:"type"`
	ChannelID int64       `json:"channel_id"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
}

func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.ChannelID == 0 || msg.UserID == 0 || msg.Content == "" {
			return nil, errors.New("invalid chat_message")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}
