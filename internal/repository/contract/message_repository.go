package contract

import (
	"context"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxSequence returns the highest sequence in the thread; ok is false
	// when the thread has no messages.
	MaxSequence(ctx context.Context, threadId uuid.UUID) (last int, ok bool, err error)
	DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error
	DeleteAllByUserIds(ctx context.Context, userIds []uuid.UUID) error
	// SumAssistantTokens adds total_tokens (NULL as 0) of assistant messages
	// in the user's threads created in (from, to].
	SumAssistantTokens(ctx context.Context, userId uuid.UUID, from, to time.Time) (int64, error)
	// SumAssistantTokensByUser is SumAssistantTokens for every user at once.
	SumAssistantTokensByUser(ctx context.Context, from, to time.Time) (map[uuid.UUID]int64, error)
}
