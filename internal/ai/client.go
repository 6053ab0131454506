// Package ai abstracts the embedding and completion capability consumed
// by the chat pipeline. The pipeline depends only on Client; concrete
// backends (OpenAI-compatible APIs, the deterministic mock) are selected
// at startup.
package ai

import "context"

// ChatRole labels a chat message for the completion capability.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of the prompt history sent to the model.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: content}
}

func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleAssistant, Content: content}
}

// Client is the AI capability: text to vector, and prompt + history to a
// generated reply. Implementations must surface failures rather than
// hang; timeout policy belongs to the adapter.
type Client interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, prompt ChatMessage, history []ChatMessage) (string, error)
}
