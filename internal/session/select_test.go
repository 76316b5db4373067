package session

import (
	"math/rand/v2"
	"testing"

	"ssbprep/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDistinctItems(t *testing.T) {
	pool := wordItems("A", "B", "C", "D", "E", "F", "G", "H")
	rng := rand.New(rand.NewPCG(1, 2))

	for n := 1; n <= len(pool); n++ {
		got, err := Select(pool, n, rng)
		require.NoError(t, err)
		require.Len(t, got, n)

		seen := map[string]bool{}
		for _, it := range got {
			assert.False(t, seen[it.Ref()], "duplicate %s", it.Ref())
			seen[it.Ref()] = true
		}
	}
}

func TestSelectClampsToPoolSize(t *testing.T) {
	pool := imageItems(5)
	got, err := Select(pool, 12, nil)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	s := Next(New("s1", model.TestTypeWAT, DefaultTiming()), Start{Items: wordItems("A", "B", "C", "D", "E")})
	for i := 0; i < 12 && s.Phase == PhaseResponding; i++ {
		s = Next(s, Submit{})
	}
	assert.Len(t, s.Responses, 5)
}

func TestSelectRejectsBadInput(t *testing.T) {
	_, err := Select(wordItems("A"), 0, nil)
	assert.ErrorIs(t, err, ErrInvalidCount)

	_, err = Select(nil, 3, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestSelectCopiesItems(t *testing.T) {
	pool := imageItems(1)
	got, err := Select(pool, 1, nil)
	require.NoError(t, err)

	got[0].Image.Themes[0] = "changed"
	assert.Equal(t, "leadership", pool[0].Image.Themes[0])
}
