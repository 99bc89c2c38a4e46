package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/throttle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newOAuthFixture(t *testing.T, google *fakeGoogle) (*gorm.DB, IOAuthService, *recordingPublisher) {
	t.Helper()
	db, factory := newTestFactory(t)
	tokens := serverutils.NewSessionTokens("test-secret", "littlesteps-test")
	auth := NewAuthService(factory, tokens, time.Hour, throttle.NewMemory(), &fakeMailer{}, nopLogger())
	publisher := &recordingPublisher{}
	return db, NewOAuthService(factory, google, auth, publisher, nopLogger()), publisher
}

func TestGetLoginURL(t *testing.T) {
	_, svc, _ := newOAuthFixture(t, &fakeGoogle{})

	url, state, err := svc.GetLoginURL()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.True(t, strings.HasSuffix(url, "state="+state))

	_, other, err := svc.GetLoginURL()
	require.NoError(t, err)
	assert.NotEqual(t, state, other)
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()
	google := &fakeGoogle{user: &GoogleUser{
		ID:            "google-123",
		Email:         "New.Parent@Example.com",
		VerifiedEmail: true,
		Name:          "New Parent",
		Picture:       "https://example.com/p.png",
	}}
	meta := dto.SessionMeta{IpAddress: "10.0.0.1", UserAgent: "test"}

	t.Run("state mismatch", func(t *testing.T) {
		_, svc, _ := newOAuthFixture(t, google)
		_, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "a"}, "b", meta)
		assert.True(t, apperror.IsKind(err, apperror.KindUnauthenticated))

		_, err = svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: ""}, "", meta)
		assert.True(t, apperror.IsKind(err, apperror.KindUnauthenticated))
	})

	t.Run("first and second sign-in", func(t *testing.T) {
		db, svc, publisher := newOAuthFixture(t, google)

		first, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		require.NoError(t, err)
		assert.NotEmpty(t, first.Token)
		assert.Equal(t, "new.parent@example.com", first.User.Email)
		assert.True(t, first.User.EmailVerified)

		second, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		require.NoError(t, err)
		assert.Equal(t, first.User.Id, second.User.Id)

		assert.Equal(t, int64(1), countRows(t, db, &model.User{}, ""))
		assert.Equal(t, int64(1), countRows(t, db, &model.Account{}, "provider_account_id = ?", "google-123"))
		assert.Equal(t, int64(2), countRows(t, db, &model.Session{}, ""))
		assert.Equal(t, []string{events.TypeUserRegistered}, publisher.types())
	})

	t.Run("links existing user by email", func(t *testing.T) {
		db, svc, publisher := newOAuthFixture(t, google)
		existing := &model.User{Name: "Existing", Email: "new.parent@example.com"}
		require.NoError(t, db.Create(existing).Error)

		resp, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		require.NoError(t, err)
		assert.Equal(t, existing.Id, resp.User.Id)
		assert.True(t, resp.User.EmailVerified)
		assert.Empty(t, publisher.types())
	})

	t.Run("unverified email does not link existing user", func(t *testing.T) {
		db, svc, _ := newOAuthFixture(t, &fakeGoogle{user: &GoogleUser{
			ID:            "google-999",
			Email:         "parent@example.com",
			VerifiedEmail: false,
			Name:          "Someone",
		}})
		existing := &model.User{Name: "Parent", Email: "parent@example.com"}
		require.NoError(t, db.Create(existing).Error)
		require.NoError(t, db.Create(&model.Account{UserId: existing.Id, ProviderId: "google", ProviderAccountId: "google-1"}).Error)

		resp, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		assert.Nil(t, resp)
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
		assert.Zero(t, countRows(t, db, &model.Account{}, "provider_account_id = ?", "google-999"))
		assert.Zero(t, countRows(t, db, &model.Session{}, ""))
	})

	t.Run("second google identity for a linked user", func(t *testing.T) {
		db, svc, _ := newOAuthFixture(t, &fakeGoogle{user: &GoogleUser{
			ID:            "google-999",
			Email:         "parent@example.com",
			VerifiedEmail: true,
			Name:          "Someone",
		}})
		existing := &model.User{Name: "Parent", Email: "parent@example.com"}
		require.NoError(t, db.Create(existing).Error)
		require.NoError(t, db.Create(&model.Account{UserId: existing.Id, ProviderId: "google", ProviderAccountId: "google-1"}).Error)

		resp, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		assert.Nil(t, resp)
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
		assert.Equal(t, int64(1), countRows(t, db, &model.Account{}, "user_id = ?", existing.Id))
		assert.Zero(t, countRows(t, db, &model.Session{}, ""))
	})

	t.Run("provider failure", func(t *testing.T) {
		_, svc, _ := newOAuthFixture(t, &fakeGoogle{err: errors.New("invalid_grant")})
		_, err := svc.HandleCallback(ctx, &dto.GoogleCallbackRequest{Code: "c", State: "s"}, "s", meta)
		assert.True(t, apperror.IsKind(err, apperror.KindUpstream))
	})
}
