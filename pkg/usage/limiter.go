// Package usage enforces the rolling weekly token cap.
package usage

import (
	"context"
	"fmt"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const Window = constant.WeeklyUsageWindowDays * 24 * time.Hour

type Limiter struct {
	capTokens int64
	now       func() time.Time
}

// NewLimiter fails on a non-positive cap; callers must not fall back to a
// default.
func NewLimiter(capTokens int64) (*Limiter, error) {
	if capTokens <= 0 {
		return nil, apperror.Config(fmt.Sprintf("WEEKLY_TOKEN_CAP must be a positive integer, got %d", capTokens))
	}
	return &Limiter{
		capTokens: capTokens,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (l *Limiter) Cap() int64 {
	return l.capTokens
}

// WithClock replaces the time source. Used by tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// WeeklyUsage sums total_tokens of the user's assistant messages created in
// (now - 7d, now].
func (l *Limiter) WeeklyUsage(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID) (int64, error) {
	now := l.now()
	return uow.MessageRepository().SumAssistantTokens(ctx, userID, now.Add(-Window), now)
}

// WeeklyUsageByUser is WeeklyUsage for all users in one query.
func (l *Limiter) WeeklyUsageByUser(ctx context.Context, uow unitofwork.UnitOfWork) (map[uuid.UUID]int64, error) {
	now := l.now()
	return uow.MessageRepository().SumAssistantTokensByUser(ctx, now.Add(-Window), now)
}

// CheckWeeklyUsageLimit returns a limit_exceeded error once the weekly sum
// reaches the cap. Admins are never limited.
func (l *Limiter) CheckWeeklyUsageLimit(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID, isAdmin bool) error {
	if isAdmin {
		return nil
	}

	used, err := l.WeeklyUsage(ctx, uow, userID)
	if err != nil {
		return fmt.Errorf("weekly usage for %s: %w", userID, err)
	}
	if used >= l.capTokens {
		return apperror.LimitExceeded("weekly usage limit reached").
			WithDetail("used", used).
			WithDetail("limit", l.capTokens).
			WithDetail("window_days", constant.WeeklyUsageWindowDays)
	}
	return nil
}
