package implementation

import (
	"context"
	"errors"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/mapper"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/repository/contract"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewVerificationRepository(db *gorm.DB) contract.VerificationRepository {
	return &VerificationRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *VerificationRepositoryImpl) Create(ctx context.Context, verification *entity.Verification) error {
	m := r.mapper.VerificationToModel(verification)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*verification = *r.mapper.VerificationToEntity(m)
	return nil
}

func (r *VerificationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Verification, error) {
	var m model.Verification
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.VerificationToEntity(&m), nil
}

func (r *VerificationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Verification{}, "id = ?", id).Error
}

func (r *VerificationRepositoryImpl) DeleteByIdentifier(ctx context.Context, identifier string) error {
	return r.db.WithContext(ctx).Where("identifier = ?", identifier).Delete(&model.Verification{}).Error
}

func (r *VerificationRepositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", cutoff).Delete(&model.Verification{})
	return res.RowsAffected, res.Error
}
