package service

import (
	"context"
	"fmt"
	"strings"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/conversation"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/llm"
	"littlesteps-be/pkg/metrics"
	"littlesteps-be/pkg/usage"

	"github.com/google/uuid"
)

type IChatService interface {
	SendChat(ctx context.Context, auth access.Authenticated, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	appender   *conversation.Appender
	limiter    *usage.Limiter
	provider   llm.LLMProvider
	admins     access.AdminList
	publisher  events.Publisher
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	appender *conversation.Appender,
	limiter *usage.Limiter,
	provider llm.LLMProvider,
	admins access.AdminList,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory: uowFactory,
		appender:   appender,
		limiter:    limiter,
		provider:   provider,
		admins:     admins,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
	}
}

func (s *chatService) SendChat(ctx context.Context, auth access.Authenticated, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := s.limiter.CheckWeeklyUsageLimit(ctx, uow, auth.UserID, s.admins.IsAdmin(auth)); err != nil {
		if apperror.IsKind(err, apperror.KindLimitExceeded) {
			s.metrics.UsageLimitRejections.Inc()
			return nil, err
		}
		return nil, apperror.Internal(err)
	}

	thread, err := s.resolveThread(ctx, uow, auth.UserID, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.appender.AddMessage(ctx, uow, thread.Id, entity.MessageRoleUser, req.Prompt, entity.TokenUsage{}); err != nil {
		return nil, asAppError(err)
	}

	history, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: thread.Id},
		specification.OrderBy{Field: "sequence"},
	)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	completion, err := s.provider.Chat(ctx, toLLMHistory(history))
	if err != nil {
		s.metrics.ChatCompletions.WithLabelValues("error").Inc()
		s.logger.Error("CHAT", "Completion request failed", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
		return nil, apperror.Upstream("the assistant is unavailable, please try again", err)
	}
	if strings.TrimSpace(completion.Content) == "" {
		s.metrics.ChatCompletions.WithLabelValues("empty").Inc()
		return nil, apperror.Upstream("the assistant returned an empty reply", fmt.Errorf("empty completion from model %q", completion.Model))
	}
	s.metrics.ChatCompletions.WithLabelValues("ok").Inc()

	tokenUsage := toTokenUsage(completion.Usage)
	if tokenUsage.TotalTokens != nil {
		s.metrics.ChatTokens.Add(float64(*tokenUsage.TotalTokens))
	}

	if _, err := s.appender.AddMessage(ctx, uow, thread.Id, entity.MessageRoleAssistant, completion.Content, tokenUsage); err != nil {
		return nil, asAppError(err)
	}
	if err := uow.ThreadRepository().Touch(ctx, thread.Id, nowUTC()); err != nil {
		s.logger.Warn("CHAT", "Failed to touch thread", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
	}

	messages, err := visibleMessages(ctx, uow, thread.Id)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	return &dto.SendChatResponse{
		ThreadId: thread.Id,
		Title:    threadTitle(thread),
		Messages: messages,
	}, nil
}

// resolveThread starts a new thread when the request names none, otherwise
// loads the caller's thread. Another user's thread is reported as missing.
func (s *chatService) resolveThread(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID, req *dto.SendChatRequest) (*entity.Thread, error) {
	if req.ThreadId == nil {
		title := truncateRunes(strings.TrimSpace(req.Prompt), constant.ThreadTitleLength)
		thread := &entity.Thread{UserId: userID, Title: &title}
		if err := uow.ThreadRepository().Create(ctx, thread); err != nil {
			return nil, apperror.Internal(fmt.Errorf("create thread: %w", err))
		}

		event := events.New(events.TypeThreadCreated, map[string]interface{}{
			"thread_id": thread.Id.String(),
			"user_id":   userID.String(),
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("CHAT", "Failed to publish thread event", map[string]interface{}{"error": err.Error()})
		}
		return thread, nil
	}

	thread, err := uow.ThreadRepository().FindOne(ctx, specification.ByID{ID: *req.ThreadId})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if thread == nil || !thread.OwnedBy(userID) {
		return nil, apperror.NotFound("thread")
	}
	return thread, nil
}

func toLLMHistory(messages []*entity.Message) []llm.Message {
	history := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		history = append(history, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return history
}

func toTokenUsage(u *llm.Usage) entity.TokenUsage {
	if u == nil {
		return entity.TokenUsage{}
	}
	prompt, completion, total := u.PromptTokens, u.CompletionTokens, u.TotalTokens
	return entity.TokenUsage{
		PromptTokens:     &prompt,
		CompletionTokens: &completion,
		TotalTokens:      &total,
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// asAppError keeps typed errors and hides everything else behind a 500.
func asAppError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(err)
}
