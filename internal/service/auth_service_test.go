package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/pkg/serverutils"
	"littlesteps-be/internal/testutil"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/throttle"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	db     *gorm.DB
	svc    IAuthService
	tokens *serverutils.SessionTokens
	mailer *fakeMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db, factory := newTestFactory(t)
	f := &authFixture{
		db:     db,
		tokens: serverutils.NewSessionTokens("test-secret", "littlesteps-test"),
		mailer: &fakeMailer{},
	}
	f.svc = NewAuthService(factory, f.tokens, time.Hour, throttle.NewMemory(), f.mailer, nopLogger())
	return f
}

func (f *authFixture) signIn(t *testing.T, email string) (*entity.User, *dto.SessionResponse) {
	t.Helper()
	m := testutil.SeedUser(t, f.db, email, time.Now().UTC())
	user := &entity.User{Id: m.Id, Name: m.Name, Email: m.Email}
	session, err := f.svc.CreateSession(context.Background(), user, dto.SessionMeta{IpAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	return user, session
}

func TestResolveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("live session", func(t *testing.T) {
		f := newAuthFixture(t)
		user, session := f.signIn(t, "parent@example.com")

		auth, err := f.svc.ResolveSession(ctx, session.Token)
		require.NoError(t, err)
		got, ok := auth.(access.Authenticated)
		require.True(t, ok)
		assert.Equal(t, user.Id, got.UserID)
		assert.Equal(t, "parent@example.com", got.Email)
		assert.NotEqual(t, uuid.Nil, got.SessionID)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := newAuthFixture(t)
		auth, err := f.svc.ResolveSession(ctx, "not-a-token")
		require.NoError(t, err)
		assert.Equal(t, access.Anonymous{}, auth)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		f := newAuthFixture(t)
		other := serverutils.NewSessionTokens("other-secret", "littlesteps-test")
		raw, err := other.Issue(uuid.New(), uuid.New(), "x@example.com", time.Now().Add(time.Hour))
		require.NoError(t, err)

		auth, err := f.svc.ResolveSession(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, access.Anonymous{}, auth)
	})

	t.Run("revoked by logout", func(t *testing.T) {
		f := newAuthFixture(t)
		_, session := f.signIn(t, "parent@example.com")

		auth, err := f.svc.ResolveSession(ctx, session.Token)
		require.NoError(t, err)
		require.NoError(t, f.svc.Logout(ctx, auth.(access.Authenticated).SessionID))

		auth, err = f.svc.ResolveSession(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, access.Anonymous{}, auth)
	})

	t.Run("expired session row", func(t *testing.T) {
		f := newAuthFixture(t)
		_, session := f.signIn(t, "parent@example.com")
		require.NoError(t, f.db.Model(&model.Session{}).Where("1 = 1").
			Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

		auth, err := f.svc.ResolveSession(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, access.Anonymous{}, auth)
	})

	t.Run("touches session activity", func(t *testing.T) {
		f := newAuthFixture(t)
		_, session := f.signIn(t, "parent@example.com")
		stale := time.Now().UTC().Add(-48 * time.Hour)
		require.NoError(t, f.db.Model(&model.Session{}).Where("1 = 1").UpdateColumn("updated_at", stale).Error)

		_, err := f.svc.ResolveSession(ctx, session.Token)
		require.NoError(t, err)

		var s model.Session
		require.NoError(t, f.db.First(&s).Error)
		assert.True(t, s.UpdatedAt.After(stale.Add(time.Hour)))
	})
}

func TestEmailVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("request then verify", func(t *testing.T) {
		f := newAuthFixture(t)
		user, _ := f.signIn(t, "parent@example.com")

		require.NoError(t, f.svc.RequestEmailVerification(ctx, user.Id))
		// A second request replaces the first token.
		require.NoError(t, f.svc.RequestEmailVerification(ctx, user.Id))
		require.Len(t, f.mailer.sent, 2)
		assert.Equal(t, "parent@example.com", f.mailer.sent[1].to)
		assert.Equal(t, int64(1), countRows(t, f.db, &model.Verification{}, ""))

		err := f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: f.mailer.sent[0].token})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))

		require.NoError(t, f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: f.mailer.sent[1].token}))

		var stored model.User
		require.NoError(t, f.db.First(&stored, "id = ?", user.Id).Error)
		assert.True(t, stored.EmailVerified)
		assert.Zero(t, countRows(t, f.db, &model.Verification{}, ""))

		err = f.svc.RequestEmailVerification(ctx, user.Id)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture(t)
		f.signIn(t, "parent@example.com")
		v := testutil.SeedVerification(t, f.db, "parent@example.com", time.Now().UTC().Add(-time.Minute))

		err := f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: v.Value})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("blank token", func(t *testing.T) {
		f := newAuthFixture(t)
		err := f.svc.VerifyEmail(ctx, &dto.VerifyEmailRequest{Token: " "})
		assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	})

	t.Run("mail failure", func(t *testing.T) {
		f := newAuthFixture(t)
		user, _ := f.signIn(t, "parent@example.com")
		f.mailer.err = errors.New("smtp down")

		err := f.svc.RequestEmailVerification(ctx, user.Id)
		assert.True(t, apperror.IsKind(err, apperror.KindUpstream))
	})
}
