package contract

import (
	"context"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error)
	DeleteAllByUserIds(ctx context.Context, userIds []uuid.UUID) error
}
