package session

import (
	"math/rand"
)

// Candidate is one sub-query considered for expansion, weighted by its
// relevance to the enhanced query.
type Candidate struct {
	Query    string
	Weight   float64
	Selected bool
}

// SampleSubQueries draws up to k candidates by weighted random sampling
// with replacement, weights being the relevance scores. Draws of the same
// candidate collapse, so fewer than k may come back. When no candidate has
// positive weight, all candidates are returned unmodified. A nil rng is
// seeded from the global source.
func SampleSubQueries(candidates []Candidate, k int, rng *rand.Rand) []Candidate {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	var total float64
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return candidates
	}

	randFloat := rand.Float64
	if rng != nil {
		randFloat = rng.Float64
	}

	chosen := make(map[int]bool)
	var out []Candidate
	for draw := 0; draw < k; draw++ {
		target := randFloat() * total
		var acc float64
		for i, c := range candidates {
			if c.Weight <= 0 {
				continue
			}
			acc += c.Weight
			if target < acc {
				if !chosen[i] {
					chosen[i] = true
					c.Selected = true
					out = append(out, c)
				}
				break
			}
		}
	}
	return out
}
