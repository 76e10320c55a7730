// Package gpu describes the GPU resources generated effect shaders bind and
// encodes the host-written buffers.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/shader"
)

// Struct sizes of the fixed bindings, in bytes.
const (
	SimParamsSize            = 16
	ParticleGroupSize        = 16
	RenderEffectIndirectSize = 16
	RenderGroupIndirectSize  = 32
	SpawnerSize              = 112
	ViewSize                 = 160
	EffectMetadataSize       = 80
)

// EffectLayouts is what the bind group layouts of an effect depend on.
type EffectLayouts struct {
	Particles  *layout.ParticleLayout
	Properties *layout.PropertyLayout
	// Textured adds the particle texture and sampler to the render layouts.
	Textured bool
}

func (l EffectLayouts) particleStride() uint64 {
	if l.Particles == nil || l.Particles.Size() == 0 {
		// Placeholder member of the empty Particle struct.
		return 4
	}
	return uint64(l.Particles.Size())
}

func (l EffectLayouts) hasProperties() bool {
	return l.Properties != nil && !l.Properties.IsEmpty()
}

func bufferEntry(binding uint32, stage wgpu.ShaderStage, typ wgpu.BufferBindingType, minSize uint64) wgpu.BindGroupLayoutEntry {
	return wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: stage,
		Buffer: wgpu.BufferBindingLayout{
			Type:             typ,
			MinBindingSize:   minSize,
			HasDynamicOffset: false,
		},
	}
}

// BindGroupLayouts returns the layout descriptors of the shaders generated
// for phase, indexed by @group.
func BindGroupLayouts(phase shader.ModifierContext, l EffectLayouts) ([]wgpu.BindGroupLayoutDescriptor, error) {
	switch phase {
	case shader.ContextInit, shader.ContextUpdate:
		return computeLayouts(phase, l), nil
	case shader.ContextRender:
		return renderLayouts(l), nil
	}
	return nil, fmt.Errorf("gpu: no bind group layouts for phase %s", phase)
}

func computeLayouts(phase shader.ModifierContext, l EffectLayouts) []wgpu.BindGroupLayoutDescriptor {
	stage := wgpu.ShaderStageCompute
	name := "Vfx" + phase.String()

	particles := []wgpu.BindGroupLayoutEntry{
		bufferEntry(0, stage, wgpu.BufferBindingTypeStorage, l.particleStride()),
		bufferEntry(1, stage, wgpu.BufferBindingTypeStorage, 12),
		bufferEntry(2, stage, wgpu.BufferBindingTypeReadOnlyStorage, ParticleGroupSize),
	}
	if l.hasProperties() {
		particles = append(particles, bufferEntry(3, stage, wgpu.BufferBindingTypeReadOnlyStorage, uint64(l.Properties.Size())))
	}

	var indirect []wgpu.BindGroupLayoutEntry
	binding := uint32(0)
	if phase == shader.ContextInit {
		indirect = append(indirect, bufferEntry(binding, stage, wgpu.BufferBindingTypeStorage, SpawnerSize))
		binding++
	}
	indirect = append(indirect,
		bufferEntry(binding, stage, wgpu.BufferBindingTypeStorage, RenderEffectIndirectSize),
		bufferEntry(binding+1, stage, wgpu.BufferBindingTypeStorage, RenderGroupIndirectSize),
	)

	return []wgpu.BindGroupLayoutDescriptor{
		{
			Label:   name + "SimParamsBGL",
			Entries: []wgpu.BindGroupLayoutEntry{bufferEntry(0, stage, wgpu.BufferBindingTypeUniform, SimParamsSize)},
		},
		{Label: name + "ParticlesBGL", Entries: particles},
		{Label: name + "IndirectBGL", Entries: indirect},
	}
}

func renderLayouts(l EffectLayouts) []wgpu.BindGroupLayoutDescriptor {
	vertex := wgpu.ShaderStageVertex
	both := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

	particles := []wgpu.BindGroupLayoutEntry{
		bufferEntry(0, vertex, wgpu.BufferBindingTypeReadOnlyStorage, l.particleStride()),
		bufferEntry(1, vertex, wgpu.BufferBindingTypeReadOnlyStorage, 12),
		bufferEntry(2, vertex, wgpu.BufferBindingTypeReadOnlyStorage, ParticleGroupSize),
		bufferEntry(3, vertex, wgpu.BufferBindingTypeReadOnlyStorage, RenderEffectIndirectSize),
	}
	if l.hasProperties() {
		particles = append(particles, bufferEntry(4, both, wgpu.BufferBindingTypeReadOnlyStorage, uint64(l.Properties.Size())))
	}

	out := []wgpu.BindGroupLayoutDescriptor{
		{
			Label: "VfxRenderViewBGL",
			Entries: []wgpu.BindGroupLayoutEntry{
				bufferEntry(0, both, wgpu.BufferBindingTypeUniform, ViewSize),
				bufferEntry(1, both, wgpu.BufferBindingTypeUniform, SimParamsSize),
				bufferEntry(2, vertex, wgpu.BufferBindingTypeUniform, EffectMetadataSize),
			},
		},
		{Label: "VfxRenderParticlesBGL", Entries: particles},
	}
	if l.Textured {
		out = append(out, wgpu.BindGroupLayoutDescriptor{
			Label: "VfxRenderMaterialBGL",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageFragment,
					Texture: wgpu.TextureBindingLayout{
						SampleType:    wgpu.TextureSampleTypeFloat,
						ViewDimension: wgpu.TextureViewDimension2D,
						Multisampled:  false,
					},
				},
				{
					Binding:    1,
					Visibility: wgpu.ShaderStageFragment,
					Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
				},
			},
		})
	}
	return out
}
