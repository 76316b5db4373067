package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedGenerator answers per model name and records the call order
type scriptedGenerator struct {
	mu      sync.Mutex
	calls   []string
	answers map[string]string
	errs    map[string]error
	block   map[string]bool
}

func (g *scriptedGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, model)
	g.mu.Unlock()

	if g.block[model] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := g.errs[model]; err != nil {
		return "", err
	}
	return g.answers[model], nil
}

func TestChainFallsBackToSecondaryModel(t *testing.T) {
	gen := &scriptedGenerator{
		errs:    map[string]error{"primary": errors.New("model deprecated")},
		answers: map[string]string{"secondary": `{"ok":true}`},
	}
	chain := NewChain(gen, []string{"primary", "secondary"}, time.Second, zap.NewNop())

	text, model, err := chain.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	assert.Equal(t, "secondary", model)
	assert.Equal(t, []string{"primary", "secondary"}, gen.calls)
}

func TestChainPrimarySuccessSkipsSecondary(t *testing.T) {
	gen := &scriptedGenerator{answers: map[string]string{"primary": "{}", "secondary": "{}"}}
	chain := NewChain(gen, []string{"primary", "secondary"}, time.Second, zap.NewNop())

	_, model, err := chain.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "primary", model)
	assert.Equal(t, []string{"primary"}, gen.calls)
}

func TestChainTimesOutEachAttempt(t *testing.T) {
	gen := &scriptedGenerator{
		block:   map[string]bool{"slow": true},
		answers: map[string]string{"fast": "{}"},
	}
	chain := NewChain(gen, []string{"slow", "fast"}, 20*time.Millisecond, zap.NewNop())

	_, model, err := chain.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "fast", model)
}

func TestChainAllModelsFail(t *testing.T) {
	gen := &scriptedGenerator{
		errs:    map[string]error{"a": errors.New("quota")},
		answers: map[string]string{"b": ""},
	}
	chain := NewChain(gen, []string{"a", "b"}, time.Second, zap.NewNop())

	_, _, err := chain.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Contains(t, err.Error(), "quota")
}

func TestChainDisabled(t *testing.T) {
	chain := NewChain(nil, []string{"a"}, time.Second, zap.NewNop())

	_, _, err := chain.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.False(t, chain.Enabled())
}
