package contract

import (
	"context"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAllByUserIds(ctx context.Context, userIds []uuid.UUID) error
}
