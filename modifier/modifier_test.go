package modifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/shader"
)

func newUpdateWriter(attrs ...graph.Attribute) *shader.ShaderWriter {
	particles := layout.NewParticleLayout().Append(attrs...).Build()
	return shader.NewShaderWriter(shader.ContextUpdate, layout.NewPropertyLayout(nil), particles)
}

func TestDuplicationCount(t *testing.T) {
	assert.Equal(t, 0, DuplicationCount(2.5, 0.016, 1))
	assert.Equal(t, 1, DuplicationCount(3.0, 0.5, 1))
	assert.Equal(t, 3, DuplicationCount(3.0, 2.5, 1))
	assert.Equal(t, 1, DuplicationCount(3.0, 0.5, 0))
	assert.Equal(t, 1, DuplicationCount(3.0, 0.5, -1))
}

func TestCloneModifier_DedupAcrossGroups(t *testing.T) {
	w := newUpdateWriter(graph.AttrAge, graph.AttrPosition)
	m := graph.NewModule()
	g0, g1 := w.ForGroup(0), w.ForGroup(1)

	clone := NewClone(1, 2)
	require.NoError(t, clone.Apply(m, g0))
	require.NoError(t, NewClone(1, 2).Apply(m, g1))

	require.Equal(t, 1, w.Functions().Len())
	name := w.Functions().Names()[0]
	assert.Equal(t, clone.FuncID().Name(), name)
	assert.Equal(t, 1, strings.Count(w.Functions().Code(), "fn "+name+"("))
	assert.Contains(t, g0.MainCode(), name+"(&particle);")
	assert.Contains(t, g1.MainCode(), name+"(&particle);")

	require.NoError(t, NewClone(1, 3).Apply(m, g1))
	assert.Equal(t, 2, w.Functions().Len())
}

func TestCloneModifier_Code(t *testing.T) {
	w := newUpdateWriter(graph.AttrAge)
	m := graph.NewModule()

	require.NoError(t, NewClone(0.5, 1).Apply(m, w))
	code := w.MainCode()
	assert.Contains(t, code, "floor(sim_params.time / 0.5)")
	assert.Contains(t, code, "ceil((sim_params.time - sim_params.delta_time) / 0.5)")
	assert.Contains(t, code, "for (var i = 0; i < multiple_count; i += 1) {")

	fn := w.Functions().Code()
	assert.Contains(t, fn, "atomicSub(&render_group_indirect[1u].dead_count, 1u)")
	assert.Contains(t, fn, "particle_buffer.particles[index].age = 0.0;")
	assert.Contains(t, fn, "atomicAdd(&render_group_indirect[1u].instance_count, 1u)")

	every := newUpdateWriter()
	require.NoError(t, NewClone(0, 1).Apply(m, every))
	assert.Equal(t, NewClone(0, 1).FuncID().Name()+"(&particle);\n", every.MainCode())
	assert.NotContains(t, every.Functions().Code(), ".age = 0.0;")
}

func TestCloneModifier_FuncID(t *testing.T) {
	// Non-positive periods share one function per destination.
	assert.Equal(t, NewClone(0, 1).FuncID(), NewClone(-1, 1).FuncID())
	assert.NotEqual(t, NewClone(1, 1).FuncID(), NewClone(2, 1).FuncID())
	assert.NotEqual(t, NewClone(1, 1).FuncID(), NewClone(1, 2).FuncID())

	err := NewClone(1, 40).Apply(graph.NewModule(), newUpdateWriter())
	assert.Error(t, err)
}

func TestSetAttributeModifier(t *testing.T) {
	w := shader.NewShaderWriter(shader.ContextInit, layout.NewPropertyLayout(nil),
		layout.NewParticleLayout().Append(graph.AttrLifetime).Build())
	m := graph.NewModule()
	lifetime := m.Lit(graph.Float(5))

	mod := NewSetAttribute(graph.AttrLifetime, lifetime)
	assert.True(t, mod.Context().Contains(shader.ContextInit))
	assert.True(t, mod.Context().Contains(shader.ContextUpdate))
	assert.Equal(t, []graph.Attribute{graph.AttrLifetime}, mod.Attributes())

	require.NoError(t, mod.Apply(m, w))
	assert.Equal(t, "particle.lifetime = 5.0;\n", w.MainCode())

	bad := NewSetAttribute(graph.AttrLifetime, m.Lit(graph.Vec3(mgl32.Vec3{})))
	err := bad.Apply(m, w)
	assert.ErrorIs(t, err, graph.ErrTypeMismatch)
}

func TestUpdateModifiers_Code(t *testing.T) {
	w := newUpdateWriter(graph.AttrPosition, graph.AttrVelocity)
	m := graph.NewModule()
	gravity := m.Lit(graph.Vec3(mgl32.Vec3{0, -9.8, 0}))
	drag := m.Lit(graph.Float(0.5))
	origin := m.Lit(graph.Vec3(mgl32.Vec3{}))
	r2 := m.Lit(graph.Float(4))

	require.NoError(t, NewAccel(gravity).Apply(m, w))
	require.NoError(t, LinearDragModifier{Drag: drag}.Apply(m, w))
	require.NoError(t, KillSphereModifier{Center: origin, SqrRadius: r2}.Apply(m, w))

	code := w.MainCode()
	assert.Contains(t, code, "particle.velocity += vec3<f32>(0.0, -9.8, 0.0) * sim_params.delta_time;\n")
	assert.Contains(t, code, "particle.velocity *= max(0.0, 1.0 - (0.5) * sim_params.delta_time);\n")
	assert.Contains(t, code, "if (!inside) {")
	assert.Less(t, strings.Index(code, "+="), strings.Index(code, "*="), "code must keep registration order")

	err := NewAccel(drag).Apply(m, w)
	assert.ErrorIs(t, err, graph.ErrTypeMismatch)
}

func TestConformToSphere_DefinesOneFunction(t *testing.T) {
	w := newUpdateWriter(graph.AttrPosition, graph.AttrVelocity)
	m := graph.NewModule()
	origin := m.Lit(graph.Vec3(mgl32.Vec3{}))
	one := m.Lit(graph.Float(1))
	mod := ConformToSphereModifier{
		Origin: origin, Radius: one, InfluenceDist: one, AttractionAccel: one, MaxAttractionSpeed: one,
	}

	require.NoError(t, mod.Apply(m, w))
	mod.Radius = m.Lit(graph.Float(2))
	require.NoError(t, mod.Apply(m, w.ForGroup(1)))

	assert.Equal(t, 1, w.Functions().Len())
	assert.Contains(t, w.MainCode(), ", 0.0, 0.0);\n")
}

func TestKillAabbModifier_MissingAttribute(t *testing.T) {
	w := newUpdateWriter(graph.AttrVelocity)
	m := graph.NewModule()
	mod := KillAabbModifier{Center: m.Attr(graph.AttrPosition), HalfSize: m.Lit(graph.Vec3(mgl32.Vec3{1, 1, 1}))}
	err := mod.Apply(m, w)
	assert.ErrorIs(t, err, graph.ErrUnknownAttribute)
}

func TestRenderModifiers(t *testing.T) {
	particles := layout.NewParticleLayout().Append(graph.AttrAge, graph.AttrLifetime, graph.AttrPosition).Build()
	ctx := shader.NewRenderContext(layout.NewPropertyLayout(nil), particles)
	m := graph.NewModule()

	gradient := graph.NewGradient[mgl32.Vec4]().AddKey(0, mgl32.Vec4{1, 1, 1, 1}).AddKey(1, mgl32.Vec4{1, 1, 1, 0})
	a := ColorOverLifetimeModifier{Gradient: gradient}
	b := ColorOverLifetimeModifier{Gradient: graph.NewGradient[mgl32.Vec4]().AddKey(1, mgl32.Vec4{1, 1, 1, 0}).AddKey(0, mgl32.Vec4{1, 1, 1, 1})}

	require.NoError(t, a.ApplyRender(m, ctx))
	require.NoError(t, b.ApplyRender(m, ctx.ForGroup(1)))
	assert.Equal(t, 1, ctx.Functions().Len(), "equal gradients share one function")

	sizes := SizeOverLifetimeModifier{Gradient: graph.Constant(mgl32.Vec2{1, 1}), ScreenSpaceSize: true}
	require.NoError(t, sizes.ApplyRender(m, ctx))
	assert.True(t, ctx.ScreenSpaceSize())
	assert.Equal(t, 2, ctx.Functions().Len())

	require.NoError(t, ParticleTextureModifier{Texture: "smoke.png"}.ApplyRender(m, ctx))
	assert.Equal(t, "smoke.png", ctx.Texture())
	assert.Contains(t, ctx.FragmentCode(), "textureSample(particle_texture")

	require.NoError(t, OrientModifier{Mode: OrientFaceCameraPosition, Rotation: m.Lit(graph.Float(0.5))}.ApplyRender(m, ctx))
	assert.Contains(t, ctx.VertexCode(), "let c = cos(0.5);")

	assert.True(t, errors.Is(a.Apply(m, newUpdateWriter()), ErrRenderOnly))
	assert.Equal(t, shader.ContextRender, a.Context())
}

func TestRegistry_RoundTrip(t *testing.T) {
	mods := []GroupedModifier{
		{Modifier: NewSetAttribute(graph.AttrAge, 1), Groups: shader.SingleGroup(0)},
		{Modifier: SetPositionSphereModifier{Center: 1, Radius: 2, Dimension: ShapeSurface}, Groups: shader.SingleGroup(0)},
		{Modifier: NewClone(0.25, 1), Groups: shader.AllGroups()},
		{Modifier: ConformToSphereModifier{Origin: 1, Radius: 2, InfluenceDist: 3, AttractionAccel: 4, MaxAttractionSpeed: 5, StickyFactor: 6}, Groups: 3},
		{Modifier: SetColorModifier{Color: graph.Uniform(mgl32.Vec4{0, 0, 0, 1}, mgl32.Vec4{1, 1, 1, 1})}, Groups: 1},
		{Modifier: SizeOverLifetimeModifier{Gradient: graph.Constant(mgl32.Vec2{2, 2}), ScreenSpaceSize: true}, Groups: 1},
		{Modifier: OrientModifier{Mode: OrientAlongVelocity}, Groups: 1},
		{Modifier: ParticleTextureModifier{Texture: "spark"}, Groups: 1},
	}
	out, err := yaml.Marshal(mods)
	require.NoError(t, err)
	assert.Contains(t, string(out), "CloneModifier:")
	assert.Contains(t, string(out), "spawn_period: 0.25")

	var back []GroupedModifier
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, mods, back)
}

func TestRegistry_Errors(t *testing.T) {
	var g GroupedModifier
	err := yaml.Unmarshal([]byte("modifier: {NoSuchModifier: {}}\ngroups: 1\n"), &g)
	assert.Error(t, err)

	_, err = Encode(nil)
	assert.Error(t, err)

	assert.Contains(t, Registered(), "CloneModifier")
	require.PanicsWithValue(t, "modifier: CloneModifier is already registered", func() {
		Register[CloneModifier]()
	})
}
