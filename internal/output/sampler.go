// Package output truncates result lists for presentation.
package output

import (
	"math/rand/v2"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

// Sampler caps lists either by prefix or by a seeded random subset.
// Every call draws from a fresh generator seeded with Seed, so the same
// input always yields the same output.
type Sampler struct {
	Seed uint64
}

func NewSampler(seed uint64) Sampler {
	return Sampler{Seed: seed}
}

// Rand returns a new generator positioned at the start of the seeded stream.
func (s Sampler) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.Seed, s.Seed^0x9e3779b97f4a7c15))
}

// Apply samples with a fresh generator from s.
func Apply[T any](s Sampler, items []T, maxItems *int, mode model.Sample) []T {
	return Sample(s.Rand, items, maxItems, mode)
}

// Sample returns items unchanged when maxItems is nil or not exceeded, the
// first *maxItems items for SampleFirst, or a random subset drawn from
// newRand() for SampleRandom. Random subsets keep the input's relative order.
// newRand is only called when a random subset is actually needed.
func Sample[T any](newRand func() *rand.Rand, items []T, maxItems *int, mode model.Sample) []T {
	if maxItems == nil || len(items) <= *maxItems {
		return items
	}
	n := max(*maxItems, 0)
	if mode != model.SampleRandom {
		return items[:n]
	}
	idx := newRand().Perm(len(items))[:n]
	keep := make([]bool, len(items))
	for _, i := range idx {
		keep[i] = true
	}
	out := make([]T, 0, n)
	for i, v := range items {
		if keep[i] {
			out = append(out, v)
		}
	}
	return out
}

// List applies controls to items, returning nil unless controls select mode.
func List[T any](s Sampler, items []T, c model.ListControls, mode model.ReturnMode) []T {
	if !c.Wants(mode) {
		return nil
	}
	out := Apply(s, items, c.MaxItems, c.Sample)
	if out == nil {
		out = []T{}
	}
	return out
}
