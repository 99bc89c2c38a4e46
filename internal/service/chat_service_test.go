package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"littlesteps-be/internal/apperror"
	"littlesteps-be/internal/constant"
	"littlesteps-be/internal/dto"
	"littlesteps-be/internal/model"
	"littlesteps-be/internal/testutil"
	"littlesteps-be/pkg/access"
	"littlesteps-be/pkg/conversation"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/llm"
	"littlesteps-be/pkg/metrics"
	"littlesteps-be/pkg/usage"

	"github.com/google/uuid"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db        *gorm.DB
	svc       IChatService
	provider  *fakeLLM
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	user      access.Authenticated
}

func newChatFixture(t *testing.T, tokenCap int64, admins string) *chatFixture {
	t.Helper()
	db, factory := newTestFactory(t)

	limiter, err := usage.NewLimiter(tokenCap)
	require.NoError(t, err)

	f := &chatFixture{
		db:        db,
		provider:  &fakeLLM{reply: completion("Try a consistent bedtime routine.", 30)},
		publisher: &recordingPublisher{},
		metrics:   metrics.New(),
	}
	f.svc = NewChatService(
		factory,
		conversation.NewAppender("You are a parenting assistant."),
		limiter,
		f.provider,
		access.ParseAdminList(admins),
		f.publisher,
		f.metrics,
		nopLogger(),
	)

	u := testutil.SeedUser(t, db, "parent@example.com", time.Now().UTC())
	f.user = access.Authenticated{UserID: u.Id, Email: u.Email, SessionID: uuid.New()}
	return f
}

func TestSendChat_NewThread(t *testing.T) {
	f := newChatFixture(t, 1000, "")
	prompt := strings.Repeat("ä", 70) + " sleep?"

	resp, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: prompt})
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("ä", constant.ThreadTitleLength), resp.Title)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, 1, resp.Messages[0].Sequence)
	assert.Equal(t, "assistant", resp.Messages[1].Role)
	assert.Equal(t, 2, resp.Messages[1].Sequence)
	require.NotNil(t, resp.Messages[1].TotalTokens)
	assert.Equal(t, 30, *resp.Messages[1].TotalTokens)

	// The model sees the system prompt first even though the client does not.
	require.Len(t, f.provider.history, 2)
	assert.Equal(t, llm.RoleSystem, f.provider.history[0].Role)
	assert.Equal(t, prompt, f.provider.history[1].Content)

	var stored []model.Message
	require.NoError(t, f.db.Where("thread_id = ?", resp.ThreadId).Order("sequence").Find(&stored).Error)
	require.Len(t, stored, 3)
	assert.Equal(t, "system", stored[0].Role)
	assert.Equal(t, 0, stored[0].Sequence)

	assert.Equal(t, []string{events.TypeThreadCreated}, f.publisher.types())
	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.ChatCompletions.WithLabelValues("ok")))
	assert.Equal(t, float64(30), promtest.ToFloat64(f.metrics.ChatTokens))
}

func TestSendChat_ContinuesThread(t *testing.T) {
	f := newChatFixture(t, 1000, "")
	ctx := context.Background()

	first, err := f.svc.SendChat(ctx, f.user, &dto.SendChatRequest{Prompt: "My baby won't nap"})
	require.NoError(t, err)

	second, err := f.svc.SendChat(ctx, f.user, &dto.SendChatRequest{Prompt: "Any other ideas?", ThreadId: &first.ThreadId})
	require.NoError(t, err)

	assert.Equal(t, first.ThreadId, second.ThreadId)
	require.Len(t, second.Messages, 4)
	for i, m := range second.Messages {
		assert.Equal(t, i+1, m.Sequence)
	}
	assert.Len(t, f.provider.history, 4)
	assert.Len(t, f.publisher.types(), 1)
}

func TestSendChat_OtherUsersThreadIsNotFound(t *testing.T) {
	f := newChatFixture(t, 1000, "")
	other := testutil.SeedUser(t, f.db, "other@example.com", time.Now().UTC())
	thread := testutil.SeedThread(t, f.db, other.Id)

	_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hi", ThreadId: &thread.Id})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Zero(t, f.provider.calls)

	missing := uuid.New()
	_, err = f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hi", ThreadId: &missing})
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}

func TestSendChat_WeeklyLimit(t *testing.T) {
	t.Run("rejects at the cap", func(t *testing.T) {
		f := newChatFixture(t, 100, "")
		thread := testutil.SeedThread(t, f.db, f.user.UserID)
		testutil.SeedMessage(t, f.db, thread.Id, 0, "assistant", testutil.IntPtr(100), time.Now().UTC().Add(-time.Hour))

		_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hello"})
		require.Error(t, err)

		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, 429, appErr.Status)
		assert.Equal(t, int64(100), appErr.Details["used"])
		assert.Zero(t, f.provider.calls)
		assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.UsageLimitRejections))
	})

	t.Run("admins bypass", func(t *testing.T) {
		f := newChatFixture(t, 100, "Parent@Example.com")
		thread := testutil.SeedThread(t, f.db, f.user.UserID)
		testutil.SeedMessage(t, f.db, thread.Id, 0, "assistant", testutil.IntPtr(5000), time.Now().UTC().Add(-time.Hour))

		_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hello"})
		require.NoError(t, err)
		assert.Equal(t, 1, f.provider.calls)
	})
}

func TestSendChat_InvalidPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
	}{
		{"empty", ""},
		{"blank", "  \n\t "},
		{"too long", strings.Repeat("a", constant.MaxPromptLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture(t, 1000, "")
			_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: tt.prompt})
			assert.True(t, apperror.IsKind(err, apperror.KindValidation))
			assert.Zero(t, f.provider.calls)
		})
	}
}

func TestSendChat_ProviderFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		f := newChatFixture(t, 1000, "")
		f.provider.err = errors.New("connection reset")

		_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hello"})
		assert.True(t, apperror.IsKind(err, apperror.KindUpstream))
		assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.ChatCompletions.WithLabelValues("error")))
	})

	t.Run("empty reply", func(t *testing.T) {
		f := newChatFixture(t, 1000, "")
		f.provider.reply = &llm.Completion{Content: "   "}

		_, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hello"})
		assert.True(t, apperror.IsKind(err, apperror.KindUpstream))

		var assistant int64
		require.NoError(t, f.db.Model(&model.Message{}).Where("role = ?", "assistant").Count(&assistant).Error)
		assert.Zero(t, assistant)
	})

	t.Run("usage not reported", func(t *testing.T) {
		f := newChatFixture(t, 1000, "")
		f.provider.reply = &llm.Completion{Content: "ok"}

		resp, err := f.svc.SendChat(context.Background(), f.user, &dto.SendChatRequest{Prompt: "hello"})
		require.NoError(t, err)
		assert.Nil(t, resp.Messages[1].TotalTokens)
	})
}
