// Package randutil centralises how shoes and simulation workers get their
// random sources, so that every run can be replayed from one seed.
package randutil

import (
	crand "crypto/rand"
	"encoding/binary"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The two 64-bit PCG seeds are derived with splitmix so nearby seeds give
// unrelated streams.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns the seed for an independent sub-stream, e.g. one worker of
// one simulation batch. The same (seed, stream) always yields the same value.
func Derive(seed int64, stream uint64) int64 {
	return int64(mix(uint64(seed) ^ mix(stream+goldenRatio64)))
}

// NewSeed returns a fresh seed from crypto/rand
func NewSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("read random seed: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
