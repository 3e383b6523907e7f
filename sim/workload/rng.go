package workload

import (
	"hash/fnv"
	"math/rand"
)

// Random streams of the synthetic generator. Each draws from its own source so that
// changing one parameter (say, the user count) leaves the other draws untouched.
const (
	streamGaps     = "gaps"
	streamSizes    = "sizes"
	streamRunTimes = "runtimes"
	streamWaits    = "waits"
	streamUsers    = "users"
)

// streams hands out one deterministic *rand.Rand per stream name, seeded with
// seed XOR fnv1a64(name). Not safe for concurrent use.
type streams struct {
	seed int64
	rngs map[string]*rand.Rand
}

func newStreams(seed int64) *streams {
	return &streams{seed: seed, rngs: make(map[string]*rand.Rand)}
}

// get returns the cached source of name, creating it on first use.
func (s *streams) get(name string) *rand.Rand {
	if rng, ok := s.rngs[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(s.seed ^ fnv1a64(name)))
	s.rngs[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
