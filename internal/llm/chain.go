// Package llm calls the external scoring model through an ordered list of
// model identifiers, falling through to the next one on any failure.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrDisabled = errors.New("scoring model not configured")
	ErrEmpty    = errors.New("empty response from model")
)

// Generator produces a text completion for prompt using the named model
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Chain tries each model in order with its own timeout until one answers
type Chain struct {
	gen     Generator
	models  []string
	timeout time.Duration
	log     *zap.Logger
}

// NewChain creates a model chain. A nil generator yields a chain whose calls
// always fail with ErrDisabled.
func NewChain(gen Generator, models []string, timeout time.Duration, log *zap.Logger) *Chain {
	return &Chain{
		gen:     gen,
		models:  append([]string(nil), models...),
		timeout: timeout,
		log:     log,
	}
}

// Enabled reports whether any model can be called
func (c *Chain) Enabled() bool {
	return c.gen != nil && len(c.models) > 0
}

// Complete returns the first successful completion and the model that produced it
func (c *Chain) Complete(ctx context.Context, prompt string) (string, string, error) {
	if !c.Enabled() {
		return "", "", ErrDisabled
	}

	var errs []error
	for _, model := range c.models {
		text, err := c.attempt(ctx, model, prompt)
		if err == nil {
			return text, model, nil
		}
		c.log.Warn("model attempt failed", zap.String("model", model), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", model, err))

		// The caller gave up; later models would fail the same way.
		if ctx.Err() != nil {
			break
		}
	}
	return "", "", errors.Join(errs...)
}

func (c *Chain) attempt(ctx context.Context, model, prompt string) (string, error) {
	attemptCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.gen.Generate(attemptCtx, model, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
