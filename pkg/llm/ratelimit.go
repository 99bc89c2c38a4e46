package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited throttles outbound calls of the wrapped provider. Callers block
// until a token is free or ctx ends.
type RateLimited struct {
	next    LLMProvider
	limiter *rate.Limiter
}

var _ LLMProvider = (*RateLimited)(nil)

// NewRateLimited allows rps requests per second with a burst of one second's
// worth. A non-positive rps returns next unchanged.
func NewRateLimited(next LLMProvider, rps float64) LLMProvider {
	if rps <= 0 {
		return next
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm rate limit: %w", err)
	}
	return r.next.Chat(ctx, history, options...)
}

func (r *RateLimited) Generate(ctx context.Context, prompt string, options ...Option) (*Completion, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("llm rate limit: %w", err)
	}
	return r.next.Generate(ctx, prompt, options...)
}
