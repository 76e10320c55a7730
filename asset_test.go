package vfx

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/modifier"
	"github.com/gekko3d/vfx/shader"
)

func newTestAsset(capacities ...uint32) *EffectAsset {
	if len(capacities) == 0 {
		capacities = []uint32{256}
	}
	return NewEffectAsset(capacities, Rate(graph.Single[float32](32)), graph.NewModule())
}

func TestNewEffectAsset_Capacities(t *testing.T) {
	require.PanicsWithValue(t, "vfx: effect needs at least one particle group", func() {
		NewEffectAsset(nil, Spawner{}, nil)
	})
	require.PanicsWithValue(t, "vfx: particle group 1 has zero capacity", func() {
		NewEffectAsset([]uint32{16, 0}, Spawner{}, nil)
	})

	caps := []uint32{16, 32}
	e := NewEffectAsset(caps, Spawner{}, nil)
	caps[0] = 99
	assert.Equal(t, []uint32{16, 32}, e.Capacities())
	assert.Equal(t, uint32(2), e.GroupCount())
	assert.NotNil(t, e.Module())
}

func TestEffectAsset_PropertyLayout(t *testing.T) {
	e := newTestAsset().
		WithProperty("my_prop", graph.Uint(3)).
		WithProperty("other_prop", graph.Vec3(mgl32.Vec3{1, 2, 3}))

	l := e.PropertyLayout()
	off, ok := l.Offset("my_prop")
	require.True(t, ok)
	assert.Equal(t, uint32(12), off)
	off, ok = l.Offset("other_prop")
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)
	assert.Equal(t, uint32(16), l.Size())
}

func TestEffectAsset_DuplicatePropertyPanics(t *testing.T) {
	e := newTestAsset().WithProperty("my_prop", graph.Float(1))
	require.PanicsWithValue(t, `vfx: property "my_prop" already exists`, func() {
		e.WithProperty("my_prop", graph.Vec2(mgl32.Vec2{}))
	})
	assert.Len(t, e.Properties(), 1)
}

func TestEffectAsset_WrongPhasePanics(t *testing.T) {
	e := newTestAsset()
	m := e.Module()
	center, radius := m.Lit(graph.Vec3(mgl32.Vec3{})), m.Lit(graph.Float(1))

	require.PanicsWithValue(t, "vfx: modifier.SetPositionSphereModifier does not support the Update phase", func() {
		e.Update(modifier.SetPositionSphereModifier{Center: center, Radius: radius})
	})
	require.PanicsWithValue(t, "vfx: modifier.AccelModifier does not support the Init phase", func() {
		e.Init(modifier.NewAccel(center))
	})
	require.PanicsWithValue(t, "vfx: render modifiers must be added with AddRenderModifier", func() {
		e.AddModifier(shader.ContextRender, modifier.SetSizeModifier{})
	})
	require.PanicsWithValue(t, "vfx: modifier context must be a single phase, got Init|Update", func() {
		e.AddModifier(shader.ContextInit|shader.ContextUpdate, modifier.NewSetAttribute(graph.AttrAge, radius))
	})
	assert.Empty(t, e.Modifiers())
}

func TestEffectAsset_Modifiers(t *testing.T) {
	e := newTestAsset(64, 64)
	m := e.Module()
	one := m.Lit(graph.Float(1))
	gravity := m.Lit(graph.Vec3(mgl32.Vec3{0, -1, 0}))

	e.Init(modifier.NewSetAttribute(graph.AttrLifetime, one)).
		Update(modifier.NewAccel(gravity)).
		UpdateGroups(modifier.NewClone(0.5, 1), shader.SingleGroup(0)).
		Render(modifier.SetSizeModifier{Size: graph.Single(mgl32.Vec2{1, 1})}).
		RenderGroups(modifier.ParticleTextureModifier{Texture: "spark"}, shader.SingleGroup(1))

	assert.Len(t, e.Modifiers(), 5)
	assert.Len(t, e.InitModifiers(), 1)
	assert.Equal(t, shader.SingleGroup(0), e.InitModifiers()[0].Groups)
	assert.Len(t, e.UpdateModifiersForGroup(0), 2)
	assert.Len(t, e.UpdateModifiersForGroup(1), 1)
	assert.Len(t, e.RenderModifiersForGroup(0), 1)
	assert.Len(t, e.RenderModifiersForGroup(1), 2)

	// SetAttribute supports Update too, so it can run there explicitly.
	e.AddModifier(shader.ContextUpdate, modifier.NewSetAttribute(graph.AttrAge, one))
	assert.Len(t, e.UpdateModifiers(), 3)
}

func TestEffectAsset_ParticleLayout(t *testing.T) {
	e := newTestAsset()
	m := e.Module()
	gravity := m.Lit(graph.Vec3(mgl32.Vec3{0, -1, 0}))
	m.Attr(graph.AttrF32_0)

	e.Update(modifier.NewAccel(gravity)).
		Render(modifier.ColorOverLifetimeModifier{Gradient: graph.Constant(mgl32.Vec4{1, 1, 1, 1})})

	l := e.ParticleLayout()
	for _, a := range []graph.Attribute{graph.AttrVelocity, graph.AttrAge, graph.AttrLifetime, graph.AttrF32_0} {
		assert.True(t, l.Contains(a), a.Name())
	}
	assert.False(t, l.Contains(graph.AttrPosition))
}

func TestAlphaMode(t *testing.T) {
	assert.Equal(t, AlphaBlend(), AlphaMode{})
	assert.Equal(t, "Blend", AlphaBlend().String())
	assert.Equal(t, "Mask(3)", AlphaMask(3).String())
	assert.True(t, AlphaMask(3).IsMask())
	assert.False(t, AlphaAdd().IsMask())
}
