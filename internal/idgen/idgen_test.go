package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorNextIsMonotonic(t *testing.T) {
	g := New(RunSeed(42), 3)

	first := g.Next()
	second := g.Next()

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, RunSeed(42).Tag()+"-3-"))
	assert.Equal(t, uint64(2), g.Issued())
}

func TestGeneratorsNeverCollideAcrossUsers(t *testing.T) {
	const (
		users = 64
		perVU = 2000
	)
	seed := NewRunSeed()

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, users*perVU)
		wg   sync.WaitGroup
	)
	for vu := 0; vu < users; vu++ {
		wg.Add(1)
		go func(vu int) {
			defer wg.Done()
			g := New(seed, vu)
			local := make([]string, 0, perVU)
			for i := 0; i < perVU; i++ {
				local = append(local, g.Next())
			}
			mu.Lock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}(vu)
	}
	wg.Wait()

	require.Len(t, seen, users*perVU)
}

func TestRunSeedsDiffer(t *testing.T) {
	assert.NotEqual(t, NewRunSeed(), NewRunSeed())
}

func TestRandStreamsAreIndependentPerUser(t *testing.T) {
	seed := RunSeed(7)

	a := seed.Rand(0)
	b := seed.Rand(1)
	again := seed.Rand(0)

	va, vb, vagain := a.Int63(), b.Int63(), again.Int63()
	assert.NotEqual(t, va, vb)
	assert.Equal(t, va, vagain)
}
