package service

import (
	"context"
	"fmt"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/usage"

	"github.com/google/uuid"
)

type IUserService interface {
	GetProfile(ctx context.Context, auth access.Authenticated) (*dto.ProfileResponse, error)
	DeleteAccount(ctx context.Context, auth access.Authenticated) error
}

type userService struct {
	uowFactory unitofwork.RepositoryFactory
	limiter    *usage.Limiter
	admins     access.AdminList
	publisher  events.Publisher
	logger     logger.ILogger
}

func NewUserService(
	uowFactory unitofwork.RepositoryFactory,
	limiter *usage.Limiter,
	admins access.AdminList,
	publisher events.Publisher,
	log logger.ILogger,
) IUserService {
	return &userService{
		uowFactory: uowFactory,
		limiter:    limiter,
		admins:     admins,
		publisher:  publisher,
		logger:     log,
	}
}

func (s *userService) GetProfile(ctx context.Context, auth access.Authenticated) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: auth.UserID})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound("user")
	}

	used, err := s.limiter.WeeklyUsage(ctx, uow, user.Id)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	isAdmin := s.admins.IsAdmin(auth)
	return &dto.ProfileResponse{
		User:    toUserDTO(user),
		IsAdmin: isAdmin,
		WeeklyUsage: dto.WeeklyUsageDTO{
			Used:      used,
			Limit:     s.limiter.Cap(),
			Unlimited: isAdmin,
		},
	}, nil
}

// DeleteAccount removes the caller and everything they own. The session
// used for the request goes with them.
func (s *userService) DeleteAccount(ctx context.Context, auth access.Authenticated) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := deleteUsersCascade(ctx, uow, []uuid.UUID{auth.UserID})
	if err != nil {
		return apperror.Internal(err)
	}
	if deleted == 0 {
		return apperror.NotFound("user")
	}

	s.logger.Info("USER", "Account deleted", map[string]interface{}{"user_id": auth.UserID.String()})
	event := events.New(events.TypeUserDeleted, map[string]interface{}{
		"user_id": auth.UserID.String(),
		"reason":  "self_service",
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("USER", "Failed to publish deletion event", map[string]interface{}{"error": err.Error()})
	}
	return nil
}

// deleteUsersCascade removes the users and all rows that hang off them in
// one transaction on uow. It returns the number of users removed.
func deleteUsersCascade(ctx context.Context, uow unitofwork.UnitOfWork, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteAllByUserIds(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete messages: %w", err)
	}
	if err := uow.ThreadRepository().DeleteAllByUserIds(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete threads: %w", err)
	}
	if err := uow.SessionRepository().DeleteAllByUserIds(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	if err := uow.AccountRepository().DeleteAllByUserIds(ctx, ids); err != nil {
		return 0, fmt.Errorf("delete accounts: %w", err)
	}
	deleted, err := uow.UserRepository().DeleteByIds(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete users: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("commit user deletion: %w", err)
	}
	return deleted, nil
}
