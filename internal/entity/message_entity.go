package entity

import (
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleSystem, MessageRoleUser, MessageRoleAssistant:
		return true
	}
	return false
}

// TokenUsage counters are nil when the provider did not report them.
type TokenUsage struct {
	PromptTokens     *int
	CompletionTokens *int
	TotalTokens      *int
}

type Message struct {
	Id        uuid.UUID
	ThreadId  uuid.UUID
	Sequence  int
	Role      MessageRole
	Content   string
	Usage     TokenUsage
	CreatedAt time.Time
}
