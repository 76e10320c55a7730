package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/shader"
)

func testLayouts(textured bool) EffectLayouts {
	return EffectLayouts{
		Particles: layout.NewParticleLayout().Append(graph.AttrPosition, graph.AttrAge).Build(),
		Properties: layout.NewPropertyLayout([]layout.Property{
			layout.NewProperty("speed", graph.Float(2)),
			layout.NewProperty("dir", graph.Vec3(mgl32.Vec3{0, 1, 0})),
		}),
		Textured: textured,
	}
}

func TestBindGroupLayouts_Compute(t *testing.T) {
	initBGL, err := BindGroupLayouts(shader.ContextInit, testLayouts(false))
	require.NoError(t, err)
	require.Len(t, initBGL, 3)
	assert.Equal(t, "VfxInitSimParamsBGL", initBGL[0].Label)
	assert.Equal(t, uint64(SimParamsSize), initBGL[0].Entries[0].Buffer.MinBindingSize)

	particles := initBGL[1].Entries
	require.Len(t, particles, 4)
	assert.Equal(t, uint64(16), particles[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, particles[0].Buffer.Type)
	assert.Equal(t, uint32(3), particles[3].Binding)
	assert.Equal(t, uint64(16), particles[3].Buffer.MinBindingSize)

	require.Len(t, initBGL[2].Entries, 3)
	assert.Equal(t, uint64(SpawnerSize), initBGL[2].Entries[0].Buffer.MinBindingSize)

	update, err := BindGroupLayouts(shader.ContextUpdate, EffectLayouts{})
	require.NoError(t, err)
	assert.Equal(t, "VfxUpdateIndirectBGL", update[2].Label)
	require.Len(t, update[1].Entries, 3)
	assert.Equal(t, uint64(4), update[1].Entries[0].Buffer.MinBindingSize)
	require.Len(t, update[2].Entries, 2)
	assert.Equal(t, uint64(RenderEffectIndirectSize), update[2].Entries[0].Buffer.MinBindingSize)
	for _, e := range update[1].Entries {
		assert.Equal(t, wgpu.ShaderStageCompute, e.Visibility)
	}
}

func TestBindGroupLayouts_Render(t *testing.T) {
	plain, err := BindGroupLayouts(shader.ContextRender, testLayouts(false))
	require.NoError(t, err)
	require.Len(t, plain, 2)
	assert.Len(t, plain[0].Entries, 3)
	require.Len(t, plain[1].Entries, 5)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, plain[1].Entries[4].Visibility)

	textured, err := BindGroupLayouts(shader.ContextRender, testLayouts(true))
	require.NoError(t, err)
	require.Len(t, textured, 3)
	assert.Equal(t, "VfxRenderMaterialBGL", textured[2].Label)
	assert.Equal(t, wgpu.TextureViewDimension2D, textured[2].Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, textured[2].Entries[1].Sampler.Type)
}

func TestBindGroupLayouts_InvalidPhase(t *testing.T) {
	_, err := BindGroupLayouts(shader.ContextInit|shader.ContextUpdate, EffectLayouts{})
	assert.Error(t, err)
}
