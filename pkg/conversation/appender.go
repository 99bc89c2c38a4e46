// Package conversation appends messages to threads while keeping sequence
// numbers ordered and unique.
package conversation

import (
	"context"
	"fmt"
	"strings"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/database"

	"github.com/google/uuid"
)

const DefaultMaxAttempts = 3

type Appender struct {
	systemPrompt string
	maxAttempts  int
}

func NewAppender(systemPrompt string) *Appender {
	return &Appender{
		systemPrompt: systemPrompt,
		maxAttempts:  DefaultMaxAttempts,
	}
}

// AddMessage stores a user or assistant message at the next sequence of the
// thread. The first message of a thread is preceded by the system prompt at
// sequence 0. AddMessage runs its own transaction on uow, so uow must not be
// inside one already.
//
// Sequence allocation reads MAX(sequence) and inserts; two concurrent
// appends can pick the same number. The unique (thread_id, sequence) index
// rejects the loser, which then retries with a fresh read.
func (a *Appender) AddMessage(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	threadID uuid.UUID,
	role entity.MessageRole,
	content string,
	usage entity.TokenUsage,
) (*entity.Message, error) {
	if err := validate(role, content); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		msg, err := a.append(ctx, uow, threadID, role, content, usage)
		if err == nil {
			return msg, nil
		}
		if !database.IsDuplicateKey(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperror.Internal(fmt.Errorf("append to thread %s: sequence conflict after %d attempts: %w", threadID, a.maxAttempts, lastErr))
}

func validate(role entity.MessageRole, content string) error {
	if role == entity.MessageRoleSystem {
		return apperror.Validation("system messages cannot be added").WithDetail("field", "role")
	}
	if !role.Valid() {
		return apperror.Validation("role must be user or assistant").WithDetail("field", "role")
	}
	if strings.TrimSpace(content) == "" {
		return apperror.MissingField("content")
	}
	return nil
}

func (a *Appender) append(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	threadID uuid.UUID,
	role entity.MessageRole,
	content string,
	usage entity.TokenUsage,
) (*entity.Message, error) {
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadID})
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperror.NotFound("thread")
	}

	messages := uow.MessageRepository()
	last, ok, err := messages.MaxSequence(ctx, threadID)
	if err != nil {
		return nil, err
	}

	next := last + 1
	if !ok {
		system := &entity.Message{
			ThreadId: threadID,
			Sequence: 0,
			Role:     entity.MessageRoleSystem,
			Content:  a.systemPrompt,
		}
		if err := messages.Create(ctx, system); err != nil {
			return nil, err
		}
		next = 1
	}

	msg := &entity.Message{
		ThreadId: threadID,
		Sequence: next,
		Role:     role,
		Content:  content,
		Usage:    usage,
	}
	if err := messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return msg, nil
}
