package service

import (
	"context"
	"testing"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/testutil"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/usage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetProfile(t *testing.T) {
	db, factory := newTestFactory(t)
	limiter, err := usage.NewLimiter(500)
	require.NoError(t, err)
	svc := NewUserService(factory, limiter, access.ParseAdminList("admin@example.com"), &recordingPublisher{}, nopLogger())

	now := time.Now().UTC()
	parent := testutil.SeedUser(t, db, "parent@example.com", now)
	thread := testutil.SeedThread(t, db, parent.Id)
	testutil.SeedMessage(t, db, thread.Id, 0, "assistant", testutil.IntPtr(30), now.Add(-time.Hour))
	testutil.SeedMessage(t, db, thread.Id, 1, "assistant", testutil.IntPtr(40), now.Add(-time.Hour))
	admin := testutil.SeedUser(t, db, "admin@example.com", now)

	profile, err := svc.GetProfile(context.Background(), access.Authenticated{UserID: parent.Id, Email: parent.Email})
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", profile.User.Email)
	assert.False(t, profile.IsAdmin)
	assert.Equal(t, int64(70), profile.WeeklyUsage.Used)
	assert.Equal(t, int64(500), profile.WeeklyUsage.Limit)
	assert.False(t, profile.WeeklyUsage.Unlimited)

	profile, err = svc.GetProfile(context.Background(), access.Authenticated{UserID: admin.Id, Email: admin.Email})
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)
	assert.True(t, profile.WeeklyUsage.Unlimited)

	_, err = svc.GetProfile(context.Background(), access.Authenticated{UserID: uuid.New()})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestDeleteAccount(t *testing.T) {
	db, factory := newTestFactory(t)
	limiter, err := usage.NewLimiter(500)
	require.NoError(t, err)
	publisher := &recordingPublisher{}
	svc := NewUserService(factory, limiter, access.AdminList{}, publisher, nopLogger())

	now := time.Now().UTC()
	parent := testutil.SeedUser(t, db, "parent@example.com", now)
	testutil.SeedSession(t, db, parent.Id, now)
	testutil.SeedAccount(t, db, parent.Id)
	thread := testutil.SeedThread(t, db, parent.Id)
	testutil.SeedMessage(t, db, thread.Id, 0, "system", nil, now)

	other := testutil.SeedUser(t, db, "other@example.com", now)
	otherThread := testutil.SeedThread(t, db, other.Id)
	testutil.SeedMessage(t, db, otherThread.Id, 0, "system", nil, now)

	require.NoError(t, svc.DeleteAccount(context.Background(), access.Authenticated{UserID: parent.Id, Email: parent.Email}))

	assert.Zero(t, countRows(t, db, &model.User{}, "id = ?", parent.Id))
	assert.Zero(t, countRows(t, db, &model.Session{}, "user_id = ?", parent.Id))
	assert.Zero(t, countRows(t, db, &model.Account{}, "user_id = ?", parent.Id))
	assert.Zero(t, countRows(t, db, &model.Thread{}, "user_id = ?", parent.Id))
	assert.Zero(t, countRows(t, db, &model.Message{}, "thread_id = ?", thread.Id))
	assert.Equal(t, int64(1), countRows(t, db, &model.Message{}, "thread_id = ?", otherThread.Id))
	assert.Equal(t, []string{events.TypeUserDeleted}, publisher.types())

	err = svc.DeleteAccount(context.Background(), access.Authenticated{UserID: parent.Id})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
