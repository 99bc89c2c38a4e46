package implementation

import (
	"context"
	"testing"
	"time"

	"littlesteps-be/internal/entity"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/repository/specification"
	"littlesteps-be/internal/testutil"
	"littlesteps-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_MaxSequence(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	user := testutil.SeedUser(t, db, "parent@example.com", time.Now().UTC())
	thread := testutil.SeedThread(t, db, user.Id)

	_, ok, err := repo.MaxSequence(ctx, thread.Id)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC()
	testutil.SeedMessage(t, db, thread.Id, 0, "system", nil, now)
	testutil.SeedMessage(t, db, thread.Id, 1, "user", nil, now)
	testutil.SeedMessage(t, db, thread.Id, 5, "assistant", nil, now)

	last, ok, err := repo.MaxSequence(ctx, thread.Id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, last)
}

func TestMessageRepository_DuplicateSequenceRejected(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)

	user := testutil.SeedUser(t, db, "parent@example.com", time.Now().UTC())
	thread := testutil.SeedThread(t, db, user.Id)

	first := &entity.Message{ThreadId: thread.Id, Sequence: 1, Role: entity.MessageRoleUser, Content: "a"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEqual(t, uuid.Nil, first.Id)

	dup := &entity.Message{ThreadId: thread.Id, Sequence: 1, Role: entity.MessageRoleUser, Content: "b"}
	assert.True(t, database.IsDuplicateKey(repo.Create(ctx, dup)))
}

func TestMessageRepository_SumAssistantTokens(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)
	now := time.Now().UTC()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	user := testutil.SeedUser(t, db, "parent@example.com", now)
	other := testutil.SeedUser(t, db, "other@example.com", now)

	t1 := testutil.SeedThread(t, db, user.Id)
	t2 := testutil.SeedThread(t, db, user.Id)
	t3 := testutil.SeedThread(t, db, user.Id)
	tOther := testutil.SeedThread(t, db, other.Id)

	recent := now.Add(-time.Hour)
	testutil.SeedMessage(t, db, t1.Id, 0, "assistant", testutil.IntPtr(30), recent)
	testutil.SeedMessage(t, db, t2.Id, 0, "assistant", testutil.IntPtr(40), recent)
	testutil.SeedMessage(t, db, t3.Id, 0, "assistant", testutil.IntPtr(15), recent)
	// Ignored: null tokens, user role, outside window, other user.
	testutil.SeedMessage(t, db, t1.Id, 1, "assistant", nil, recent)
	testutil.SeedMessage(t, db, t1.Id, 2, "user", testutil.IntPtr(1000), recent)
	testutil.SeedMessage(t, db, t2.Id, 1, "assistant", testutil.IntPtr(500), now.Add(-8*24*time.Hour))
	testutil.SeedMessage(t, db, tOther.Id, 0, "assistant", testutil.IntPtr(999), recent)

	total, err := repo.SumAssistantTokens(ctx, user.Id, weekAgo, now)
	require.NoError(t, err)
	assert.Equal(t, int64(85), total)

	byUser, err := repo.SumAssistantTokensByUser(ctx, weekAgo, now)
	require.NoError(t, err)
	assert.Equal(t, int64(85), byUser[user.Id])
	assert.Equal(t, int64(999), byUser[other.Id])

	empty, err := repo.SumAssistantTokens(ctx, uuid.New(), weekAgo, now)
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestUserRepository_FindInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	cutoff := now.Add(-90 * 24 * time.Hour)
	old := now.Add(-200 * 24 * time.Hour)

	staleNoSession := testutil.SeedUser(t, db, "stale@example.com", old)
	staleSession := testutil.SeedUser(t, db, "stale-session@example.com", old)
	testutil.SeedSession(t, db, staleSession.Id, old.Add(time.Hour))

	activeSession := testutil.SeedUser(t, db, "active@example.com", old)
	testutil.SeedSession(t, db, activeSession.Id, old)
	testutil.SeedSession(t, db, activeSession.Id, now.Add(-time.Hour))

	testutil.SeedUser(t, db, "new@example.com", now.Add(-24*time.Hour))
	testutil.SeedUser(t, db, "admin@example.com", old)

	t.Run("without exclusions", func(t *testing.T) {
		users, err := repo.FindInactive(ctx, cutoff, nil)
		require.NoError(t, err)

		emails := make([]string, len(users))
		for i, u := range users {
			emails[i] = u.Email
		}
		assert.ElementsMatch(t, []string{staleNoSession.Email, staleSession.Email, "admin@example.com"}, emails)
	})

	t.Run("admins excluded", func(t *testing.T) {
		users, err := repo.FindInactive(ctx, cutoff, []string{"admin@example.com"})
		require.NoError(t, err)
		for _, u := range users {
			assert.NotEqual(t, "admin@example.com", u.Email)
		}
		assert.Len(t, users, 2)
	})
}

func TestUserRepository_EmailNormalised(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)

	u := &entity.User{Name: "Sam", Email: "  Sam@Example.COM "}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "sam@example.com", u.Email)

	found, err := repo.FindOne(ctx, specification.ByEmail{Email: "SAM@example.com"})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, u.Id, found.Id)

	missing, err := repo.FindOne(ctx, specification.ByEmail{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestVerificationRepository_DeleteExpiredBefore(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewVerificationRepository(db)
	now := time.Now().UTC()

	testutil.SeedVerification(t, db, "a@example.com", now.Add(-3*time.Hour))
	testutil.SeedVerification(t, db, "b@example.com", now.Add(-30*time.Minute))
	testutil.SeedVerification(t, db, "c@example.com", now.Add(time.Hour))

	deleted, err := repo.DeleteExpiredBefore(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining int64
	require.NoError(t, db.Model(&model.Verification{}).Count(&remaining).Error)
	assert.Equal(t, int64(2), remaining)
}

func TestThreadRepository_DeleteRemovesMessages(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewThreadRepository(db)
	now := time.Now().UTC()

	user := testutil.SeedUser(t, db, "parent@example.com", now)
	keep := testutil.SeedThread(t, db, user.Id)
	drop := testutil.SeedThread(t, db, user.Id)
	testutil.SeedMessage(t, db, keep.Id, 0, "system", nil, now)
	testutil.SeedMessage(t, db, drop.Id, 0, "system", nil, now)
	testutil.SeedMessage(t, db, drop.Id, 1, "user", nil, now)

	require.NoError(t, repo.Delete(ctx, drop.Id))

	var count int64
	require.NoError(t, db.Model(&model.Message{}).Where("thread_id = ?", drop.Id).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&model.Message{}).Where("thread_id = ?", keep.Id).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	threads, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: user.Id})
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, keep.Id, threads[0].Id)
}
