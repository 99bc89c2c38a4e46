package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/pkg/events"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleUser is the subset of the userinfo response we keep.
type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleIdentityProvider hides the OAuth round trip so sign-in can be tested
// without Google.
type GoogleIdentityProvider interface {
	AuthCodeURL(state string) string
	FetchUser(ctx context.Context, code string) (*GoogleUser, error)
}

type googleProvider struct {
	conf *oauth2.Config
}

func NewGoogleProvider(clientID, clientSecret, redirectURL string) GoogleIdentityProvider {
	return &googleProvider{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.conf.AuthCodeURL(state)
}

func (p *googleProvider) FetchUser(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.conf.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &user, nil
}

type IOAuthService interface {
	// GetLoginURL returns the consent URL and the state the caller must
	// hand back on the callback.
	GetLoginURL() (url string, state string, err error)
	HandleCallback(ctx context.Context, req *dto.GoogleCallbackRequest, expectedState string, meta dto.SessionMeta) (*dto.SessionResponse, error)
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	provider    GoogleIdentityProvider
	authService IAuthService
	publisher   events.Publisher
	logger      logger.ILogger
}

func NewOAuthService(
	uowFactory unitofwork.RepositoryFactory,
	provider GoogleIdentityProvider,
	authService IAuthService,
	publisher events.Publisher,
	log logger.ILogger,
) IOAuthService {
	return &oauthService{
		uowFactory:  uowFactory,
		provider:    provider,
		authService: authService,
		publisher:   publisher,
		logger:      log,
	}
}

func (s *oauthService) GetLoginURL() (string, string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", "", apperror.Internal(err)
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	return s.provider.AuthCodeURL(state), state, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, req *dto.GoogleCallbackRequest, expectedState string, meta dto.SessionMeta) (*dto.SessionResponse, error) {
	if expectedState == "" || req.State != expectedState {
		return nil, apperror.Unauthenticated("invalid oauth state")
	}

	googleUser, err := s.provider.FetchUser(ctx, req.Code)
	if err != nil {
		return nil, apperror.Upstream("google sign-in failed", err)
	}
	if strings.TrimSpace(googleUser.Email) == "" || googleUser.ID == "" {
		return nil, apperror.Validation("google account has no email address")
	}

	user, created, err := s.upsertUser(ctx, googleUser)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("OAUTH", "New user registered", map[string]interface{}{"user_id": user.Id.String()})
		event := events.New(events.TypeUserRegistered, map[string]interface{}{
			"user_id":  user.Id.String(),
			"provider": entity.ProviderGoogle,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("OAUTH", "Failed to publish registration event", map[string]interface{}{"error": err.Error()})
		}
	}

	return s.authService.CreateSession(ctx, user, meta)
}

// checkEmailLink allows attaching a new Google identity to an existing user
// only when Google vouches for the email and the user has no other Google
// identity.
func (s *oauthService) checkEmailLink(ctx context.Context, uow unitofwork.UnitOfWork, user *entity.User, g *GoogleUser) error {
	if !g.VerifiedEmail {
		s.logger.Warn("OAUTH", "Refused to link unverified Google email", map[string]interface{}{"user_id": user.Id.String()})
		return apperror.Forbidden("this email is registered; sign in with a verified Google account")
	}

	linked, err := uow.AccountRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: user.Id},
		specification.ByProvider{ProviderId: entity.ProviderGoogle},
	)
	if err != nil {
		return apperror.Internal(err)
	}
	if linked != nil && linked.ProviderAccountId != g.ID {
		s.logger.Warn("OAUTH", "Refused to link a second Google account", map[string]interface{}{"user_id": user.Id.String()})
		return apperror.Forbidden("this email is linked to another Google account")
	}
	return nil
}

// upsertUser links the Google account to a user, creating the user on first
// sign-in. A user who signed in before is found through the account row
// first and the email second.
func (s *oauthService) upsertUser(ctx context.Context, g *GoogleUser) (*entity.User, bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, false, apperror.Internal(err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().FindOne(ctx, specification.ByProviderAccount{
		ProviderId:        entity.ProviderGoogle,
		ProviderAccountId: g.ID,
	})
	if err != nil {
		return nil, false, apperror.Internal(err)
	}

	var user *entity.User
	if account != nil {
		user, err = uow.UserRepository().FindOne(ctx, specification.ByID{ID: account.UserId})
	} else {
		user, err = uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: g.Email})
	}
	if err != nil {
		return nil, false, apperror.Internal(err)
	}
	if account == nil && user != nil {
		if err := s.checkEmailLink(ctx, uow, user, g); err != nil {
			return nil, false, err
		}
	}

	created := false
	if user == nil {
		user = &entity.User{
			Name:          g.Name,
			Email:         g.Email,
			EmailVerified: g.VerifiedEmail,
		}
		if g.Picture != "" {
			picture := g.Picture
			user.Image = &picture
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			return nil, false, apperror.Internal(fmt.Errorf("create user: %w", err))
		}
		created = true
	} else if g.VerifiedEmail && !user.EmailVerified {
		user.EmailVerified = true
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, false, apperror.Internal(err)
		}
	}

	if account == nil {
		account = &entity.Account{
			UserId:            user.Id,
			ProviderId:        entity.ProviderGoogle,
			ProviderAccountId: g.ID,
		}
		if err := uow.AccountRepository().Create(ctx, account); err != nil {
			return nil, false, apperror.Internal(fmt.Errorf("link google account: %w", err))
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, false, apperror.Internal(err)
	}
	return user, created, nil
}
