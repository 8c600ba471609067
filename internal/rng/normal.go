// Package rng provides the value generators fed to farm workers.
package rng

import (
	"context"
	"math/rand"

	"github.com/utkarsh5026/farmout/farm"
)

// checkEvery bounds how many samples are drawn between context checks.
const checkEvery = 4096

// Normal returns a generator drawing samples from a normal distribution
// about the mean carried in each WorkUnit. Deterministic for a given seed.
// The generator owns a single rand source and is not safe for concurrent
// use; give each worker its own (see Factory).
func Normal(seed int64) farm.Generator[float64] {
	src := rand.New(rand.NewSource(seed))
	return func(ctx context.Context, mean float64, count int) ([]float64, error) {
		out := make([]float64, count)
		for i := range out {
			if i%checkEvery == 0 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				default:
				}
			}
			out[i] = src.NormFloat64() + mean
		}
		return out, nil
	}
}

// Factory builds one Normal generator per worker, deriving each worker's
// seed from the base seed and the worker id so concurrent workers draw from
// independent streams.
func Factory(baseSeed int64) farm.GeneratorFactory[float64] {
	return func(id farm.WorkerID) farm.Generator[float64] {
		return Normal(baseSeed + int64(id)*0x9E3779B9)
	}
}
