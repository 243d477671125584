package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket. The bucket
// holds at most rpm tokens and refills continuously.
type RateLimitedProvider struct {
	provider Provider
	rpm      float64
	now      func() time.Time

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// NewRateLimitedProvider wraps provider so that at most rpm requests per
// minute reach it. rpm <= 0 disables limiting.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      float64(rpm),
		now:      time.Now,
		tokens:   float64(rpm),
		lastFill: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// take consumes a token if one is available, otherwise it reports how long
// until the next one.
func (r *RateLimitedProvider) take() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.tokens += now.Sub(r.lastFill).Minutes() * r.rpm
	if r.tokens > r.rpm {
		r.tokens = r.rpm
	}
	r.lastFill = now

	if r.tokens >= 1 {
		r.tokens--
		return 0, true
	}
	missing := 1 - r.tokens
	return time.Duration(missing / r.rpm * float64(time.Minute)), false
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		delay, ok := r.take()
		if ok {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
