package idgen

import (
	"encoding/binary"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
)

// RunSeed is drawn once per run and shared read-only by every virtual user.
type RunSeed uint64

// NewRunSeed derives a seed from a random (v4) UUID.
func NewRunSeed() RunSeed {
	id := uuid.New()
	return RunSeed(binary.BigEndian.Uint64(id[:8]))
}

// Tag is the printable form of the seed that prefixes every id of the run.
func (s RunSeed) Tag() string {
	return strconv.FormatUint(uint64(s), 36)
}

// Rand returns an rng for one virtual user. Streams of different users are
// decorrelated by mixing the user index into the seed.
func (s RunSeed) Rand(vu int) *rand.Rand {
	return rand.New(rand.NewSource(int64(mix(uint64(s) ^ mix(uint64(vu)+1)))))
}

// Generator hands out identifiers for a single virtual user. It is not safe
// for concurrent use; each virtual user owns its own instance.
type Generator struct {
	prefix string
	n      uint64
}

// New builds the generator for virtual user vu. Ids are unique within the run
// because (vu, n) never repeats, and across runs because the seed tag differs.
func New(seed RunSeed, vu int) *Generator {
	return &Generator{
		prefix: seed.Tag() + "-" + strconv.FormatUint(uint64(vu), 36) + "-",
	}
}

// Next returns the next identifier.
func (g *Generator) Next() string {
	g.n++
	return g.prefix + strconv.FormatUint(g.n, 36)
}

// Issued reports how many ids this generator has produced.
func (g *Generator) Issued() uint64 {
	return g.n
}

// splitmix64 finalizer
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
