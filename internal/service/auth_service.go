package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/pkg/mailer"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/throttle"

	"github.com/google/uuid"
)

const (
	verificationTTL = 24 * time.Hour
	// Session activity is written at most once per interval per session.
	sessionTouchInterval = 5 * time.Minute
)

type IAuthService interface {
	serverutils.SessionResolver
	CreateSession(ctx context.Context, user *entity.User, meta dto.SessionMeta) (*dto.SessionResponse, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	RequestEmailVerification(ctx context.Context, userID uuid.UUID) error
	VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	tokens       *serverutils.SessionTokens
	sessionTTL   time.Duration
	touch        throttle.Throttle
	emailService mailer.IEmailService
	logger       logger.ILogger
	now          func() time.Time
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	tokens *serverutils.SessionTokens,
	sessionTTL time.Duration,
	touch throttle.Throttle,
	emailService mailer.IEmailService,
	log logger.ILogger,
) IAuthService {
	if touch == nil {
		touch = throttle.NewMemory()
	}
	return &authService{
		uowFactory:   uowFactory,
		tokens:       tokens,
		sessionTTL:   sessionTTL,
		touch:        touch,
		emailService: emailService,
		logger:       log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ResolveSession maps a token to the signed-in user. Any token that does not
// lead to a live session resolves to Anonymous; only storage failures are
// returned as errors.
func (s *authService) ResolveSession(ctx context.Context, token string) (access.Auth, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return access.Anonymous{}, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return access.Anonymous{}, nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: claims.SessionID})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	now := s.now()
	if session == nil || session.UserId != userID || session.Expired(now) {
		return access.Anonymous{}, nil
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: session.UserId})
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if user == nil {
		return access.Anonymous{}, nil
	}

	if s.touch.Allow(ctx, session.Id.String(), sessionTouchInterval) {
		if err := uow.SessionRepository().Touch(ctx, session.Id, now); err != nil {
			s.logger.Warn("AUTH", "Failed to record session activity", map[string]interface{}{
				"session_id": session.Id.String(),
				"error":      err.Error(),
			})
		}
	}

	return access.Authenticated{UserID: user.Id, Email: user.Email, SessionID: session.Id}, nil
}

func (s *authService) CreateSession(ctx context.Context, user *entity.User, meta dto.SessionMeta) (*dto.SessionResponse, error) {
	now := s.now()
	session := &entity.Session{
		Id:        uuid.New(),
		UserId:    user.Id,
		ExpiresAt: now.Add(s.sessionTTL),
		IpAddress: meta.IpAddress,
		UserAgent: meta.UserAgent,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Create(ctx, session); err != nil {
		return nil, apperror.Internal(fmt.Errorf("create session: %w", err))
	}

	token, err := s.tokens.Issue(session.Id, user.Id, user.Email, session.ExpiresAt)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.Info("AUTH", "Session created", map[string]interface{}{
		"user_id":    user.Id.String(),
		"session_id": session.Id.String(),
	})

	return &dto.SessionResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      toUserDTO(user),
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SessionRepository().Delete(ctx, sessionID); err != nil {
		return apperror.Internal(fmt.Errorf("delete session: %w", err))
	}
	return nil
}

func (s *authService) RequestEmailVerification(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err != nil {
		return apperror.Internal(err)
	}
	if user == nil {
		return apperror.NotFound("user")
	}
	if user.EmailVerified {
		return apperror.Validation("email is already verified")
	}

	token, err := randomToken()
	if err != nil {
		return apperror.Internal(err)
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal(err)
	}
	defer uow.Rollback()

	// One pending token per address.
	if err := uow.VerificationRepository().DeleteByIdentifier(ctx, user.Email); err != nil {
		return apperror.Internal(err)
	}
	verification := &entity.Verification{
		Identifier: user.Email,
		Value:      token,
		ExpiresAt:  s.now().Add(verificationTTL),
	}
	if err := uow.VerificationRepository().Create(ctx, verification); err != nil {
		return apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal(err)
	}

	if err := s.emailService.SendVerificationLink(user.Email, token); err != nil {
		return apperror.Upstream("could not send verification email", err)
	}
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, req *dto.VerifyEmailRequest) error {
	if err := serverutils.RequireField("token", req.Token); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	verification, err := uow.VerificationRepository().FindOne(ctx,
		specification.ByValue{Value: req.Token},
		specification.NotExpired{Now: s.now()},
	)
	if err != nil {
		return apperror.Internal(err)
	}
	if verification == nil {
		return apperror.Validation("invalid or expired verification token")
	}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: verification.Identifier})
	if err != nil {
		return apperror.Internal(err)
	}
	if user == nil {
		return apperror.NotFound("user")
	}

	if err := uow.Begin(ctx); err != nil {
		return apperror.Internal(err)
	}
	defer uow.Rollback()

	user.EmailVerified = true
	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return apperror.Internal(err)
	}
	if err := uow.VerificationRepository().Delete(ctx, verification.Id); err != nil {
		return apperror.Internal(err)
	}
	if err := uow.Commit(); err != nil {
		return apperror.Internal(err)
	}

	s.logger.Info("AUTH", "Email verified", map[string]interface{}{"user_id": user.Id.String()})
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func toUserDTO(u *entity.User) dto.UserDTO {
	return dto.UserDTO{
		Id:            u.Id,
		Name:          u.Name,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Image:         u.Image,
		CreatedAt:     u.CreatedAt,
	}
}
