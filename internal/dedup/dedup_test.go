package dedup

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaim_DistinctPathsOnlyOnce(t *testing.T) {
	t.Parallel()

	s := New()
	assert.True(t, s.Claim("/out/a"))
	assert.False(t, s.Claim("/out/a"))
	assert.True(t, s.Claim("/out/b"))
	assert.Equal(t, 2, s.WrittenCount())
}

func TestClaim_HapShadowing(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetHapMode(true)
	assert.True(t, s.Claim("/out/rawfile/logo.png"))
	s.SetHapMode(false)

	// The module's own file shadows the HAP copy and proceeds.
	assert.True(t, s.Claim("/out/rawfile/logo.png"))
	// A third contributor is a duplicate.
	assert.False(t, s.Claim("/out/rawfile/logo.png"))
}

func TestClaim_ConcurrentCountMatchesDistinctPaths(t *testing.T) {
	t.Parallel()

	s := New()
	const paths = 50
	const claimers = 4
	var wins [claimers]int
	var wg sync.WaitGroup
	for c := 0; c < claimers; c++ {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < paths; i++ {
				if s.Claim(fmt.Sprintf("/out/%d", i)) {
					wins[c]++
				}
			}
		}()
	}
	wg.Wait()
	total := 0
	for _, w := range wins {
		total += w
	}
	assert.Equal(t, paths, total)
	assert.Equal(t, paths, s.WrittenCount())
}
