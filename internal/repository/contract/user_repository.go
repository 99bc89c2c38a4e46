package contract

import (
	"context"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	Update(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindInactive returns users whose latest session update, or creation
	// time when they have no session, is before cutoff. Emails in
	// excludeEmails (lower-case) are never returned.
	FindInactive(ctx context.Context, cutoff time.Time, excludeEmails []string) ([]*entity.User, error)
	DeleteByIds(ctx context.Context, ids []uuid.UUID) (int64, error)
}
