package vfx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/vfx/graph"
)

func TestEffectSpawner_Rate(t *testing.T) {
	s := NewEffectSpawner(Rate(graph.Single[float32](2)), 1)
	assert.Equal(t, uint32(0), s.Tick(0.25))
	assert.Equal(t, uint32(1), s.Tick(0.25))
	assert.Equal(t, uint32(1), s.Tick(0.5))

	total := uint32(0)
	for range 40 {
		total += s.Tick(0.25)
	}
	assert.Equal(t, uint32(20), total)
}

func TestEffectSpawner_Once(t *testing.T) {
	s := NewEffectSpawner(Once(graph.Single[float32](5), true), 1)
	assert.Equal(t, uint32(5), s.Tick(0.1))
	assert.Equal(t, uint32(0), s.Tick(0.1))
	assert.Equal(t, uint32(0), s.Tick(100))

	deferred := NewEffectSpawner(Once(graph.Single[float32](5), false), 1)
	assert.Equal(t, uint32(0), deferred.Tick(0.1))
	deferred.Reset()
	assert.Equal(t, uint32(5), deferred.Tick(0.1))
	assert.Equal(t, uint32(0), deferred.Tick(0.1))
}

func TestEffectSpawner_Burst(t *testing.T) {
	s := NewEffectSpawner(Burst(graph.Single[float32](3), graph.Single[float32](1)), 1)
	assert.Equal(t, uint32(3), s.Tick(0.5))
	assert.Equal(t, uint32(3), s.Tick(0.5))
	assert.Equal(t, uint32(0), s.Tick(0.25))
	// Two cycles end inside one long frame.
	assert.Equal(t, uint32(6), s.Tick(2))
}

func TestEffectSpawner_Inactive(t *testing.T) {
	s := NewEffectSpawner(Rate(graph.Single[float32](10)).WithStartsActive(false), 1)
	assert.False(t, s.IsActive())
	assert.Equal(t, uint32(0), s.Tick(1))

	s.SetActive(true)
	assert.Equal(t, uint32(10), s.Tick(0.5)+s.Tick(0.5))
	assert.Equal(t, uint32(0), s.Tick(float32(math.NaN())))
	assert.Equal(t, uint32(0), s.Tick(-1))
}

func TestSpawner_Validate(t *testing.T) {
	assert.NoError(t, Rate(graph.Single[float32](1)).Validate())
	assert.NoError(t, Once(graph.Single[float32](1), true).Validate())
	assert.Error(t, Rate(graph.Single[float32](-1)).Validate())
	assert.Error(t, NewSpawner(graph.Single[float32](1), graph.Single[float32](-1), graph.Single[float32](1)).Validate())
	assert.Error(t, Burst(graph.Single[float32](1), graph.Single[float32](0)).Validate())
	assert.Error(t, Burst(graph.Single[float32](1), graph.Single(float32(math.NaN()))).Validate())
}
