package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"healthmate-be/pkg/llm"
)

const (
	defaultMaxAttempts  = 5
	defaultInitialDelay = 1 * time.Second
)

// IsTransient reports whether an error is worth retrying: rate limiting and
// timeouts, not configuration or parse failures.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "throttl") ||
		strings.Contains(msg, "status 429") ||
		strings.Contains(msg, "too many requests")
}

// Provider wraps any LLMProvider with exponential backoff on transient
// failures: MaxAttempts tries, InitialDelay doubling between them.
type Provider struct {
	inner        llm.LLMProvider
	MaxAttempts  int
	InitialDelay time.Duration
	isTransient  func(error) bool
}

var _ llm.LLMProvider = &Provider{}

func Wrap(inner llm.LLMProvider) *Provider {
	return &Provider{
		inner:        inner,
		MaxAttempts:  defaultMaxAttempts,
		InitialDelay: defaultInitialDelay,
		isTransient:  IsTransient,
	}
}

// WrapWithPredicate allows a custom transient-failure predicate (tests, or
// providers with structured error codes).
func WrapWithPredicate(inner llm.LLMProvider, isTransient func(error) bool) *Provider {
	p := Wrap(inner)
	p.isTransient = isTransient
	return p
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	var lastErr error
	delay := p.InitialDelay

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		reply, err := p.inner.Chat(ctx, history, opts...)
		if err == nil {
			return reply, nil
		}
		lastErr = err

		if !p.isTransient(err) {
			return "", err
		}
		if attempt == p.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return "", fmt.Errorf("llm throttled: max retries exceeded: %w", lastErr)
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}
