package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mathext/prng"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical inputs
// MUST produce bit-for-bit identical event sequences.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// ResolveSeed maps a user-facing seed to a SimulationKey.
// Seed 0 is the "pick one for me" sentinel: the key is derived from now().
// Callers should report the resolved key so the run can be replayed.
func ResolveSeed(seed int64, now func() time.Time) SimulationKey {
	if seed != 0 {
		return SimulationKey(seed)
	}
	derived := now().UnixNano()
	if derived == 0 {
		derived = 1
	}
	return SimulationKey(derived)
}

// === Source ===

// Source is the uniform randomness every sampling primitive draws from.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// IntN returns a uniform integer in [0, n). Panics if n <= 0.
	IntN(n int) int
}

// NewStream returns the per-run generator: an MT19937 bit source seeded with key.
// The stream is NOT safe for concurrent use; each replica owns its own.
func NewStream(key SimulationKey) *rand.Rand {
	src := prng.NewMT19937()
	src.Seed(uint64(key))
	return rand.New(src)
}

// === Subsystem Constants ===

const (
	// SubsystemEpidemic is the stream that drives the epidemic event loop.
	// Uses the master seed directly so --seed N reproduces a single run exactly.
	SubsystemEpidemic = "epidemic"

	// SubsystemNetwork is the stream used to generate initial contact networks.
	SubsystemNetwork = "network"
)

// SubsystemReplica returns the subsystem name for ensemble replica id.
func SubsystemReplica(id int) string {
	return fmt.Sprintf("replica_%d", id)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated streams per subsystem.
//
// Derivation formula:
//   - For SubsystemEpidemic: uses masterSeed directly
//   - For all other subsystems: masterSeed XOR fnv1a64(subsystemName)
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded stream for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := NewStream(p.KeyFor(name))
	p.subsystems[name] = rng
	return rng
}

// KeyFor returns the derived key for a subsystem without creating a stream.
// Ensembles use it to hand each replica a key before fanning out.
func (p *PartitionedRNG) KeyFor(name string) SimulationKey {
	if name == SubsystemEpidemic {
		return p.key
	}
	return SimulationKey(int64(p.key) ^ fnv1a64(name))
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
