package service

import (
	"context"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/usage"
)

const defaultLogPageSize = 50

type IAdminService interface {
	GetUsageReport(ctx context.Context) ([]dto.UserUsageResponse, error)
	GetLogs(ctx context.Context, req *dto.LogListRequest) ([]logger.LogEntry, error)
}

type adminService struct {
	uowFactory unitofwork.RepositoryFactory
	limiter    *usage.Limiter
	admins     access.AdminList
	logger     logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	limiter *usage.Limiter,
	admins access.AdminList,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory: uowFactory,
		limiter:    limiter,
		admins:     admins,
		logger:     log,
	}
}

// GetUsageReport lists every user, ordered by email, with the tokens used in
// the current weekly window.
func (s *adminService) GetUsageReport(ctx context.Context) ([]dto.UserUsageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	users, err := uow.UserRepository().FindAll(ctx, specification.OrderBy{Field: "email"})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	byUser, err := s.limiter.WeeklyUsageByUser(ctx, uow)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	report := make([]dto.UserUsageResponse, 0, len(users))
	for _, u := range users {
		report = append(report, dto.UserUsageResponse{
			UserId:  u.Id,
			Email:   u.Email,
			Used:    byUser[u.Id],
			Limit:   s.limiter.Cap(),
			IsAdmin: s.admins.Contains(u.Email),
		})
	}
	return report, nil
}

func (s *adminService) GetLogs(ctx context.Context, req *dto.LogListRequest) ([]logger.LogEntry, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	page, limit := req.Page, req.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLogPageSize
	}

	logs, err := s.logger.GetLogs(req.Level, limit, (page-1)*limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return logs, nil
}
