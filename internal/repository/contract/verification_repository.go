package contract

import (
	"context"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
)

type VerificationRepository interface {
	Create(ctx context.Context, verification *entity.Verification) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Verification, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByIdentifier(ctx context.Context, identifier string) error
	// DeleteExpiredBefore removes rows that expired before cutoff and
	// returns how many were removed.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
