package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	Prompt   string     `json:"prompt" validate:"required,notblank,max=4000"`
	ThreadId *uuid.UUID `json:"thread_id,omitempty"`
}

type MessageDTO struct {
	Id          uuid.UUID `json:"id"`
	Sequence    int       `json:"sequence"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	TotalTokens *int      `json:"total_tokens,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendChatResponse struct {
	ThreadId uuid.UUID    `json:"thread_id"`
	Title    string       `json:"title"`
	Messages []MessageDTO `json:"messages"`
}

type ThreadDTO struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RenameThreadRequest struct {
	ThreadId uuid.UUID `json:"thread_id" validate:"required"`
	Title    string    `json:"title" validate:"required,notblank,max=255"`
}

type DeleteThreadRequest struct {
	ThreadId uuid.UUID `json:"thread_id" validate:"required"`
}
