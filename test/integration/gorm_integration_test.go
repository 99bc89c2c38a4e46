package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"littlesteps-be/internal/model"
	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/internal/service"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/database"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/metrics"
	"littlesteps-be/pkg/oidc"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type trustedVerifier struct{}

func (trustedVerifier) Verify(context.Context, string) (*oidc.Claims, error) {
	return &oidc.Claims{Repository: "littlesteps/littlesteps-ai"}, nil
}

type noPublisher struct{}

func (noPublisher) Publish(context.Context, events.Event) error { return nil }

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func TestCleanupAgainstPostgres(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()
	suffix := uuid.NewString()[:8]
	stale := time.Now().UTC().Add(-400 * 24 * time.Hour)

	inactive := &model.User{Name: "Inactive", Email: "inactive-" + suffix + "@example.com", CreatedAt: stale, UpdatedAt: stale}
	active := &model.User{Name: "Active", Email: "active-" + suffix + "@example.com", CreatedAt: stale, UpdatedAt: stale}
	require.NoError(t, db.Create(inactive).Error)
	require.NoError(t, db.Create(active).Error)
	t.Cleanup(func() {
		db.Where("id IN ?", []uuid.UUID{inactive.Id, active.Id}).Delete(&model.User{})
	})

	require.NoError(t, db.Create(&model.Session{UserId: active.Id, ExpiresAt: time.Now().Add(time.Hour)}).Error)
	thread := &model.Thread{UserId: inactive.Id}
	require.NoError(t, db.Create(thread).Error)
	require.NoError(t, db.Create(&model.Message{ThreadId: thread.Id, Sequence: 0, Role: "system", Content: "prompt"}).Error)

	svc := service.NewCleanupService(
		unitofwork.NewRepositoryFactory(db),
		trustedVerifier{},
		access.AdminList{},
		365,
		noPublisher{},
		metrics.New(),
		logger.NewNopLogger(),
	)

	result, err := svc.Run(ctx, service.CleanupOptions{DryRun: true})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(result.Candidates))
	for _, u := range result.Candidates {
		ids = append(ids, u.Id)
	}
	assert.Contains(t, ids, inactive.Id)
	assert.NotContains(t, ids, active.Id)

	_, err = svc.Run(ctx, service.CleanupOptions{})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", inactive.Id).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.Message{}).Where("thread_id = ?", thread.Id).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", active.Id).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
