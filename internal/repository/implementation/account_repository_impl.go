package implementation

import (
	"context"
	"errors"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/mapper"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/repository/contract"
	"littlesteps-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.UserMapper
}

func NewAccountRepository(db *gorm.DB) contract.AccountRepository {
	return &AccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewUserMapper(),
	}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entity.Account) error {
	m := r.mapper.AccountToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*account = *r.mapper.AccountToEntity(m)
	return nil
}

func (r *AccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	var m model.Account
	query := specification.Apply(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AccountToEntity(&m), nil
}

func (r *AccountRepositoryImpl) DeleteAllByUserIds(ctx context.Context, userIds []uuid.UUID) error {
	if len(userIds) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("user_id IN ?", userIds).Delete(&model.Account{}).Error
}
