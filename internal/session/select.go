package session

import (
	"errors"
	"math/rand/v2"

	"ssbprep/internal/model"
)

var (
	ErrInvalidCount = errors.New("count must be at least 1")
	ErrEmptyPool    = errors.New("stimulus pool is empty")
)

// Select draws n distinct items from pool in random order. n larger than the
// pool is clamped to the pool size. The returned items are copies; the pool
// is not reordered. A nil rng uses the package-level source.
func Select(pool []model.Item, n int, rng *rand.Rand) ([]model.Item, error) {
	if n < 1 {
		return nil, ErrInvalidCount
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if n > len(pool) {
		n = len(pool)
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(pool))
	} else {
		perm = rand.Perm(len(pool))
	}

	out := make([]model.Item, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, copyItem(pool[idx]))
	}
	return out, nil
}

func copyItem(it model.Item) model.Item {
	switch {
	case it.Image != nil:
		return model.ImageItem(*it.Image)
	case it.Word != nil:
		return model.WordItem(*it.Word)
	}
	return model.Item{}
}
