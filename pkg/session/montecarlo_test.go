package session

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleSubQueries(t *testing.T) {
	t.Run("no positive weight falls back to all candidates", func(t *testing.T) {
		candidates := []Candidate{
			{Query: "a", Weight: 0},
			{Query: "b", Weight: -0.2},
		}
		out := SampleSubQueries(candidates, 1, rand.New(rand.NewSource(1)))

		require.Len(t, out, 2)
		assert.False(t, out[0].Selected)
		assert.False(t, out[1].Selected)
	})

	t.Run("selected candidates are tagged", func(t *testing.T) {
		candidates := []Candidate{
			{Query: "a", Weight: 0.9},
			{Query: "b", Weight: 0.1},
		}
		out := SampleSubQueries(candidates, 2, rand.New(rand.NewSource(7)))

		require.NotEmpty(t, out)
		for _, c := range out {
			assert.True(t, c.Selected)
			assert.Positive(t, c.Weight)
		}
	})

	t.Run("returns at most k distinct candidates", func(t *testing.T) {
		candidates := []Candidate{
			{Query: "a", Weight: 1},
			{Query: "b", Weight: 1},
			{Query: "c", Weight: 1},
			{Query: "d", Weight: 1},
			{Query: "e", Weight: 1},
		}
		out := SampleSubQueries(candidates, 3, rand.New(rand.NewSource(3)))

		assert.LessOrEqual(t, len(out), 3)
		seen := make(map[string]bool)
		for _, c := range out {
			assert.False(t, seen[c.Query], "duplicate selection")
			seen[c.Query] = true
		}
	})

	t.Run("deterministic with a fixed seed", func(t *testing.T) {
		candidates := []Candidate{
			{Query: "a", Weight: 0.5},
			{Query: "b", Weight: 0.3},
			{Query: "c", Weight: 0.2},
		}
		first := SampleSubQueries(candidates, 2, rand.New(rand.NewSource(42)))
		second := SampleSubQueries(candidates, 2, rand.New(rand.NewSource(42)))
		assert.Equal(t, first, second)
	})

	t.Run("heavily weighted candidate dominates", func(t *testing.T) {
		candidates := []Candidate{
			{Query: "dominant", Weight: 1000},
			{Query: "rare", Weight: 0.001},
		}
		rng := rand.New(rand.NewSource(11))
		hits := 0
		for i := 0; i < 50; i++ {
			out := SampleSubQueries(candidates, 1, rng)
			require.Len(t, out, 1)
			if out[0].Query == "dominant" {
				hits++
			}
		}
		assert.Greater(t, hits, 45)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, SampleSubQueries(nil, 3, rand.New(rand.NewSource(1))))
	})
}
