// Package testutil builds throwaway databases and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"littlesteps-be/internal/model"
	"littlesteps-be/pkg/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every model
// migrated and foreign keys enforced.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive and serialises
	// transactions.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

func SeedUser(t *testing.T, db *gorm.DB, email string, createdAt time.Time) *model.User {
	t.Helper()
	u := &model.User{
		Name:      email,
		Email:     email,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func SeedSession(t *testing.T, db *gorm.DB, userId uuid.UUID, updatedAt time.Time) *model.Session {
	t.Helper()
	s := &model.Session{
		UserId:    userId,
		ExpiresAt: updatedAt.Add(30 * 24 * time.Hour),
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
	}
	require.NoError(t, db.Create(s).Error)
	return s
}

func SeedAccount(t *testing.T, db *gorm.DB, userId uuid.UUID) *model.Account {
	t.Helper()
	a := &model.Account{
		UserId:            userId,
		ProviderId:        "google",
		ProviderAccountId: uuid.NewString(),
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func SeedThread(t *testing.T, db *gorm.DB, userId uuid.UUID) *model.Thread {
	t.Helper()
	th := &model.Thread{UserId: userId}
	require.NoError(t, db.Create(th).Error)
	return th
}

// SeedMessage inserts a message directly, bypassing sequencing rules.
func SeedMessage(t *testing.T, db *gorm.DB, threadId uuid.UUID, seq int, role string, totalTokens *int, createdAt time.Time) *model.Message {
	t.Helper()
	m := &model.Message{
		ThreadId:    threadId,
		Sequence:    seq,
		Role:        role,
		Content:     fmt.Sprintf("%s message %d", role, seq),
		TotalTokens: totalTokens,
		CreatedAt:   createdAt,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

func SeedVerification(t *testing.T, db *gorm.DB, identifier string, expiresAt time.Time) *model.Verification {
	t.Helper()
	v := &model.Verification{
		Identifier: identifier,
		Value:      uuid.NewString(),
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

func IntPtr(v int) *int {
	return &v
}
