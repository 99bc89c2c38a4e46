package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/metrics"
	"littlesteps-be/pkg/oidc"

	"github.com/google/uuid"
)

const cleanupModule = "CLEANUP"

type cleanupPhase string

const (
	phaseIdle            cleanupPhase = "idle"
	phaseAuthenticating  cleanupPhase = "authenticating"
	phaseFindingInactive cleanupPhase = "finding_inactive"
	phaseDeleting        cleanupPhase = "deleting"
	phasePurging         cleanupPhase = "purging"
	phaseResponding      cleanupPhase = "responding"
)

type CleanupOptions struct {
	// DryRun stops after finding_inactive and deletes nothing.
	DryRun bool
}

type CleanupResult struct {
	Candidates   []*entity.User
	DeletedCount int64
	PurgedCount  int64
	PurgeFailed  bool
}

type ICleanupService interface {
	// HandleRequest runs the whole job for an HTTP caller presenting a CI
	// OIDC token in authorization.
	HandleRequest(ctx context.Context, authorization string) (*dto.CleanupResponse, error)
	// Run is the job without authentication, for trusted callers.
	Run(ctx context.Context, opts CleanupOptions) (*CleanupResult, error)
	PurgeVerifications(ctx context.Context) (int64, error)
}

type cleanupService struct {
	uowFactory   unitofwork.RepositoryFactory
	verifier     oidc.TokenVerifier
	admins       access.AdminList
	inactiveDays int
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       logger.ILogger
	now          func() time.Time
}

func NewCleanupService(
	uowFactory unitofwork.RepositoryFactory,
	verifier oidc.TokenVerifier,
	admins access.AdminList,
	inactiveDays int,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) ICleanupService {
	return &cleanupService{
		uowFactory:   uowFactory,
		verifier:     verifier,
		admins:       admins,
		inactiveDays: inactiveDays,
		publisher:    publisher,
		metrics:      m,
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *cleanupService) HandleRequest(ctx context.Context, authorization string) (*dto.CleanupResponse, error) {
	s.enter(phaseIdle, nil)

	if err := s.authenticate(ctx, authorization); err != nil {
		s.metrics.CleanupRuns.WithLabelValues("denied").Inc()
		return nil, err
	}

	result, err := s.Run(ctx, CleanupOptions{})
	if err != nil {
		return nil, err
	}

	s.enter(phaseResponding, map[string]interface{}{"deleted_count": result.DeletedCount})
	return &dto.CleanupResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d inactive users", result.DeletedCount),
		DeletedCount: result.DeletedCount,
	}, nil
}

func (s *cleanupService) authenticate(ctx context.Context, authorization string) error {
	s.enter(phaseAuthenticating, nil)

	token, err := oidc.BearerToken(authorization)
	if err != nil {
		s.logger.Warn(cleanupModule, "Cleanup request without bearer token", nil)
		return apperror.Unauthenticated("missing or malformed authorization header")
	}

	claims, err := s.verifier.Verify(ctx, token)
	switch {
	case errors.Is(err, oidc.ErrRepositoryMismatch):
		repository := ""
		if claims != nil {
			repository = claims.Repository
		}
		s.logger.Warn(cleanupModule, "Cleanup token from unexpected repository", map[string]interface{}{
			"repository": repository,
		})
		return apperror.Forbidden("repository is not allowed to run cleanup")
	case err != nil:
		s.logger.Warn(cleanupModule, "Cleanup token rejected", map[string]interface{}{"error": err.Error()})
		return apperror.Unauthenticated("invalid token")
	}

	s.logger.Info(cleanupModule, "Cleanup caller authenticated", map[string]interface{}{
		"repository": claims.Repository,
		"workflow":   claims.Workflow,
		"ref":        claims.Ref,
	})
	return nil
}

func (s *cleanupService) Run(ctx context.Context, opts CleanupOptions) (*CleanupResult, error) {
	now := s.now()
	cutoff := now.Add(-time.Duration(s.inactiveDays) * 24 * time.Hour)
	uow := s.uowFactory.NewUnitOfWork(ctx)

	s.enter(phaseFindingInactive, map[string]interface{}{"cutoff": cutoff.Format(time.RFC3339)})
	users, err := uow.UserRepository().FindInactive(ctx, cutoff, s.admins.Emails())
	if err != nil {
		return nil, s.fail(phaseFindingInactive, err)
	}

	result := &CleanupResult{Candidates: users}
	if opts.DryRun {
		s.logger.Info(cleanupModule, "Dry run, nothing deleted", map[string]interface{}{"candidates": len(users)})
		return result, nil
	}

	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.Id
	}

	s.enter(phaseDeleting, map[string]interface{}{"candidates": len(ids)})
	deleted, err := deleteUsersCascade(ctx, uow, ids)
	if err != nil {
		return nil, s.fail(phaseDeleting, err)
	}
	result.DeletedCount = deleted
	s.metrics.CleanupUsersDeleted.Add(float64(deleted))

	s.enter(phasePurging, nil)
	purged, err := s.purge(ctx, uow, now)
	if err != nil {
		// A failed purge does not undo the deletions.
		result.PurgeFailed = true
		s.logger.Error(cleanupModule, "Verification purge failed", map[string]interface{}{"error": err.Error()})
	}
	result.PurgedCount = purged

	outcome := "success"
	if result.PurgeFailed {
		outcome = "purge_failed"
	}
	s.metrics.CleanupRuns.WithLabelValues(outcome).Inc()
	s.logger.Info(cleanupModule, "Cleanup finished", map[string]interface{}{
		"deleted_count": result.DeletedCount,
		"purged_count":  result.PurgedCount,
		"purge_failed":  result.PurgeFailed,
	})

	event := events.New(events.TypeCleanupCompleted, map[string]interface{}{
		"deleted_count": result.DeletedCount,
		"purged_count":  result.PurgedCount,
		"purge_failed":  result.PurgeFailed,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(cleanupModule, "Failed to publish cleanup event", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

func (s *cleanupService) PurgeVerifications(ctx context.Context) (int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	purged, err := s.purge(ctx, uow, s.now())
	if err != nil {
		return 0, apperror.Internal(err)
	}
	return purged, nil
}

func (s *cleanupService) purge(ctx context.Context, uow unitofwork.UnitOfWork, now time.Time) (int64, error) {
	cutoff := now.Add(-constant.VerificationPurgeGraceHours * time.Hour)
	purged, err := uow.VerificationRepository().DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.VerificationsPurged.Add(float64(purged))
	return purged, nil
}

func (s *cleanupService) enter(phase cleanupPhase, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["phase"] = string(phase)
	s.logger.Info(cleanupModule, "Cleanup phase", details)
}

// fail logs the cause and returns an error whose public text is generic.
func (s *cleanupService) fail(phase cleanupPhase, err error) error {
	s.metrics.CleanupRuns.WithLabelValues("error").Inc()
	s.logger.Error(cleanupModule, "Cleanup failed", map[string]interface{}{
		"phase": string(phase),
		"error": err.Error(),
	})
	return apperror.Internal(fmt.Errorf("cleanup %s: %w", phase, err))
}
