package vfx

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/gekko3d/vfx/graph"
)

// Spawner describes how many particles an effect emits over time. Every
// Period seconds a burst of NumParticles particles is spread evenly over
// SpawnTime seconds. An infinite Period emits a single burst.
type Spawner struct {
	NumParticles      graph.CpuValue[float32] `yaml:"num_particles"`
	SpawnTime         graph.CpuValue[float32] `yaml:"spawn_time"`
	Period            graph.CpuValue[float32] `yaml:"period"`
	StartsActive      bool                    `yaml:"starts_active"`
	StartsImmediately bool                    `yaml:"starts_immediately"`
}

func NewSpawner(count, spawnTime, period graph.CpuValue[float32]) Spawner {
	return Spawner{
		NumParticles:      count,
		SpawnTime:         spawnTime,
		Period:            period,
		StartsActive:      true,
		StartsImmediately: true,
	}
}

// Rate emits rate particles per second, continuously.
func Rate(rate graph.CpuValue[float32]) Spawner {
	return NewSpawner(rate, graph.Single[float32](1), graph.Single[float32](1))
}

// Once emits count particles in a single frame. Without spawnImmediately
// nothing is emitted until the EffectSpawner is reset.
func Once(count graph.CpuValue[float32], spawnImmediately bool) Spawner {
	s := NewSpawner(count, graph.Single[float32](0), graph.Single(float32(math.Inf(1))))
	s.StartsImmediately = spawnImmediately
	return s
}

// Burst emits count particles in a single frame every period seconds.
func Burst(count, period graph.CpuValue[float32]) Spawner {
	return NewSpawner(count, graph.Single[float32](0), period)
}

func (s Spawner) WithStartsActive(active bool) Spawner {
	s.StartsActive = active
	return s
}

// Validate rejects negative counts or spawn times and non-positive periods.
func (s Spawner) Validate() error {
	if lo, _ := s.NumParticles.Range(); lo < 0 {
		return fmt.Errorf("spawner: negative particle count %v", lo)
	}
	if lo, _ := s.SpawnTime.Range(); lo < 0 {
		return fmt.Errorf("spawner: negative spawn time %v", lo)
	}
	if lo, _ := s.Period.Range(); !(lo > 0) {
		return fmt.Errorf("spawner: period must be positive, got %v", lo)
	}
	return nil
}

// EffectSpawner is the runtime state of a Spawner for one effect instance.
// Fractional particle counts carry over between ticks.
type EffectSpawner struct {
	spawner      Spawner
	rng          *rand.Rand
	active       bool
	time         float32
	limit        float32
	numParticles float32
	spawnTime    float32
	spawnAcc     float32
}

func NewEffectSpawner(s Spawner, seed int64) *EffectSpawner {
	e := &EffectSpawner{
		spawner: s,
		rng:     rand.New(rand.NewSource(seed)),
		active:  s.StartsActive,
	}
	e.resample()
	if !s.StartsImmediately {
		e.time = math.Nextafter32(e.spawnTime, float32(math.Inf(1)))
	}
	return e
}

func (e *EffectSpawner) IsActive() bool { return e.active }

func (e *EffectSpawner) SetActive(active bool) { e.active = active }

// Reset restarts the current cycle, emitting a new burst.
func (e *EffectSpawner) Reset() {
	e.time = 0
	e.spawnAcc = 0
	e.resample()
}

func (e *EffectSpawner) resample() {
	e.limit = e.spawner.Period.Sample(e.rng)
	if !(e.limit > 0) {
		e.limit = float32(math.Inf(1))
	}
	e.numParticles = e.spawner.NumParticles.Sample(e.rng)
	e.spawnTime = e.spawner.SpawnTime.Sample(e.rng)
}

// Tick advances by dt seconds and returns how many particles to spawn this
// frame.
func (e *EffectSpawner) Tick(dt float32) uint32 {
	if !e.active || !(dt >= 0) {
		return 0
	}
	for {
		next := e.time + dt
		if e.time <= e.spawnTime {
			if e.spawnTime < max(1e-5, dt/100) {
				e.spawnAcc += e.numParticles
				// Step past the burst so a zero dt cannot emit it twice.
				next = max(next, math.Nextafter32(e.spawnTime, float32(math.Inf(1))))
			} else {
				e.spawnAcc += e.numParticles * (min(next, e.spawnTime) - e.time) / e.spawnTime
			}
		}
		prev := e.time
		e.time = next
		if e.time < e.limit {
			break
		}
		// The cycle ended inside this frame; carry the rest of dt over.
		dt -= e.limit - prev
		e.time = 0
		e.resample()
	}
	n := uint32(e.spawnAcc)
	e.spawnAcc -= float32(n)
	return n
}
