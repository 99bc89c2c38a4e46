package service

import (
	"context"
	"sync"
	"testing"

	"littlesteps-be/internal/pkg/logger"
	"littlesteps-be/internal/repository/unitofwork"
	"littlesteps-be/internal/testutil"
	"littlesteps-be/pkg/events"
	"littlesteps-be/pkg/llm"
	"littlesteps-be/pkg/oidc"

	"gorm.io/gorm"
)

func newTestFactory(t *testing.T) (*gorm.DB, unitofwork.RepositoryFactory) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db, unitofwork.NewRepositoryFactory(db)
}

func nopLogger() logger.ILogger {
	return logger.NewNopLogger()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fakeLLM struct {
	reply   *llm.Completion
	err     error
	calls   int
	history []llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (*llm.Completion, error) {
	f.calls++
	f.history = append([]llm.Message(nil), history...)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func completion(content string, total int) *llm.Completion {
	return &llm.Completion{
		Content: content,
		Model:   "fake",
		Usage:   &llm.Usage{PromptTokens: total / 2, CompletionTokens: total - total/2, TotalTokens: total},
	}
}

type fakeVerifier struct {
	claims *oidc.Claims
	err    error
	tokens []string
}

func (f *fakeVerifier) Verify(_ context.Context, rawToken string) (*oidc.Claims, error) {
	f.tokens = append(f.tokens, rawToken)
	return f.claims, f.err
}

type sentMail struct {
	to    string
	token string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendVerificationLink(toEmail, token string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, token: token})
	return nil
}

type fakeGoogle struct {
	user *GoogleUser
	err  error
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (g *fakeGoogle) FetchUser(_ context.Context, _ string) (*GoogleUser, error) {
	return g.user, g.err
}
