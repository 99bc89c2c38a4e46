package service

import (
	"context"
	"strings"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type IThreadService interface {
	ListThreads(ctx context.Context, userID uuid.UUID) ([]dto.ThreadDTO, error)
	RenameThread(ctx context.Context, userID uuid.UUID, req *dto.RenameThreadRequest) (*dto.ThreadDTO, error)
	DeleteThread(ctx context.Context, userID uuid.UUID, req *dto.DeleteThreadRequest) error
	GetMessages(ctx context.Context, userID, threadID uuid.UUID) ([]dto.MessageDTO, error)
}

type threadService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewThreadService(uowFactory unitofwork.RepositoryFactory) IThreadService {
	return &threadService{uowFactory: uowFactory}
}

func (s *threadService) ListThreads(ctx context.Context, userID uuid.UUID) ([]dto.ThreadDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	threads, err := uow.ThreadRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userID},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	out := make([]dto.ThreadDTO, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadDTO(t))
	}
	return out, nil
}

func (s *threadService) RenameThread(ctx context.Context, userID uuid.UUID, req *dto.RenameThreadRequest) (*dto.ThreadDTO, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	thread, err := ownedThread(ctx, uow, userID, req.ThreadId)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	thread.Title = &title
	if err := uow.ThreadRepository().Update(ctx, thread); err != nil {
		return nil, apperror.Internal(err)
	}

	out := toThreadDTO(thread)
	return &out, nil
}

func (s *threadService) DeleteThread(ctx context.Context, userID uuid.UUID, req *dto.DeleteThreadRequest) error {
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := ownedThread(ctx, uow, userID, req.ThreadId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal(err)
	}
	defer uow.Rollback()

	if err := uow.ThreadRepository().Delete(ctx, req.ThreadId); err != nil {
		return apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *threadService) GetMessages(ctx context.Context, userID, threadID uuid.UUID) ([]dto.MessageDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := ownedThread(ctx, uow, userID, threadID); err != nil {
		return nil, err
	}

	messages, err := visibleMessages(ctx, uow, threadID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return messages, nil
}

func ownedThread(ctx context.Context, uow unitofwork.UnitOfWork, userID, threadID uuid.UUID) (*entity.Thread, error) {
	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: threadID})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if thread == nil || !thread.OwnedBy(userID) {
		return nil, apperror.NotFound("thread")
	}
	return thread, nil
}

// visibleMessages lists a thread without its system prompt, in sequence
// order.
func visibleMessages(ctx context.Context, uow unitofwork.UnitOfWork, threadID uuid.UUID) ([]dto.MessageDTO, error) {
	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadID},
		specification.ExcludeRole{Role: string(entity.MessageRoleSystem)},
		specification.OrderBy{Field: "sequence"},
	)
	if err != nil {
		return nil, err
	}

	out := make([]dto.MessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.MessageDTO{
			Id:          m.Id,
			Sequence:    m.Sequence,
			Role:        string(m.Role),
			Content:     m.Content,
			TotalTokens: m.Usage.TotalTokens,
			CreatedAt:   m.CreatedAt,
		})
	}
	return out, nil
}

func toThreadDTO(t *entity.Thread) dto.ThreadDTO {
	return dto.ThreadDTO{
		Id:        t.Id,
		Title:     threadTitle(t),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func threadTitle(t *entity.Thread) string {
	if t.Title == nil {
		return ""
	}
	return *t.Title
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
