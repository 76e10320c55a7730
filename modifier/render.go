package modifier

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/shader"
)

// renderOnly provides the Init/Update side of render modifiers.
type renderOnly struct{}

func (renderOnly) Context() shader.ModifierContext { return shader.ContextRender }

func (renderOnly) Apply(*graph.Module, *shader.ShaderWriter) error { return ErrRenderOnly }

// SetColorModifier sets the vertex color.
type SetColorModifier struct {
	renderOnly `yaml:"-"`
	Color      graph.CpuValue[mgl32.Vec4] `yaml:"color"`
}

func NewSetColor(color graph.CpuValue[mgl32.Vec4]) SetColorModifier {
	return SetColorModifier{Color: color}
}

func (SetColorModifier) Attributes() []graph.Attribute { return nil }

func (s SetColorModifier) ApplyRender(_ *graph.Module, ctx *shader.RenderContext) error {
	ctx.AppendVertexCode(fmt.Sprintf("color = %s;\n", s.Color.WGSL()))
	return nil
}

// ColorOverLifetimeModifier samples a color gradient by age / lifetime.
type ColorOverLifetimeModifier struct {
	renderOnly `yaml:"-"`
	Gradient   *graph.Gradient[mgl32.Vec4] `yaml:"gradient"`
}

func (ColorOverLifetimeModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrAge, graph.AttrLifetime}
}

func (c ColorOverLifetimeModifier) ApplyRender(_ *graph.Module, ctx *shader.RenderContext) error {
	if c.Gradient == nil {
		return fmt.Errorf("color over lifetime: missing gradient")
	}
	name, err := defineGradient(ctx, "color_gradient", c.Gradient)
	if err != nil {
		return err
	}
	ctx.AppendVertexCode(fmt.Sprintf("color = %s(particle.age / particle.lifetime);\n", name))
	return nil
}

// SetSizeModifier sets the quad size.
type SetSizeModifier struct {
	renderOnly `yaml:"-"`
	Size       graph.CpuValue[mgl32.Vec2] `yaml:"size"`
}

func (SetSizeModifier) Attributes() []graph.Attribute { return nil }

func (s SetSizeModifier) ApplyRender(_ *graph.Module, ctx *shader.RenderContext) error {
	ctx.AppendVertexCode(fmt.Sprintf("size = %s;\n", s.Size.WGSL()))
	return nil
}

// SizeOverLifetimeModifier samples a size gradient by age / lifetime. With
// ScreenSpaceSize the size is in pixels.
type SizeOverLifetimeModifier struct {
	renderOnly      `yaml:"-"`
	Gradient        *graph.Gradient[mgl32.Vec2] `yaml:"gradient"`
	ScreenSpaceSize bool                        `yaml:"screen_space_size"`
}

func (SizeOverLifetimeModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrAge, graph.AttrLifetime}
}

func (s SizeOverLifetimeModifier) ApplyRender(_ *graph.Module, ctx *shader.RenderContext) error {
	if s.Gradient == nil {
		return fmt.Errorf("size over lifetime: missing gradient")
	}
	name, err := defineGradient(ctx, "size_gradient", s.Gradient)
	if err != nil {
		return err
	}
	ctx.AppendVertexCode(fmt.Sprintf("size = %s(particle.age / particle.lifetime);\n", name))
	if s.ScreenSpaceSize {
		ctx.SetScreenSpaceSize(true)
	}
	return nil
}

func defineGradient[T graph.Vector](ctx *shader.RenderContext, prefix string, g *graph.Gradient[T]) (string, error) {
	return ctx.Functions().Define(shader.NewFuncID(prefix, g), func(name string) (string, error) {
		return g.WGSL(name), nil
	})
}

// OrientMode selects how the particle quad faces the camera.
type OrientMode uint8

const (
	// OrientParallelCameraDepthPlane aligns the quad with the camera plane.
	OrientParallelCameraDepthPlane OrientMode = iota
	// OrientFaceCameraPosition turns the quad toward the camera position.
	OrientFaceCameraPosition
	// OrientAlongVelocity stretches the quad along the particle velocity.
	OrientAlongVelocity
)

var orientModeNames = []string{"ParallelCameraDepthPlane", "FaceCameraPosition", "AlongVelocity"}

func (o OrientMode) String() string {
	if int(o) < len(orientModeNames) {
		return orientModeNames[o]
	}
	return fmt.Sprintf("OrientMode(%d)", uint8(o))
}

func (o OrientMode) MarshalYAML() (any, error) { return o.String(), nil }

func (o *OrientMode) UnmarshalYAML(node *yaml.Node) error {
	for i, n := range orientModeNames {
		if n == node.Value {
			*o = OrientMode(i)
			return nil
		}
	}
	return fmt.Errorf("line %d: unknown orient mode %q", node.Line, node.Value)
}

// OrientModifier sets the particle quad axes. Rotation, when set, is an f32
// angle in radians around the facing axis.
type OrientModifier struct {
	renderOnly `yaml:"-"`
	Mode       OrientMode       `yaml:"mode"`
	Rotation   graph.ExprHandle `yaml:"rotation,omitempty"`
}

func (o OrientModifier) Attributes() []graph.Attribute {
	if o.Mode == OrientAlongVelocity {
		return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
	}
	return []graph.Attribute{graph.AttrPosition}
}

func (o OrientModifier) ApplyRender(m *graph.Module, ctx *shader.RenderContext) error {
	switch o.Mode {
	case OrientParallelCameraDepthPlane:
		ctx.AppendVertexCode(`axis_z = normalize(view.world_from_view[2].xyz);
axis_x = normalize(cross(view.world_from_view[1].xyz, axis_z));
axis_y = cross(axis_z, axis_x);
`)
	case OrientFaceCameraPosition:
		ctx.AppendVertexCode(`axis_z = normalize(view.world_position - position);
axis_x = normalize(cross(vec3<f32>(0.0, 1.0, 0.0), axis_z));
axis_y = cross(axis_z, axis_x);
`)
	case OrientAlongVelocity:
		ctx.AppendVertexCode(`axis_x = normalize(particle.velocity);
axis_z = normalize(view.world_position - position);
axis_y = normalize(cross(axis_z, axis_x));
axis_z = cross(axis_x, axis_y);
`)
	default:
		return fmt.Errorf("orient: unknown mode %s", o.Mode)
	}
	if !o.Rotation.IsValid() {
		return nil
	}
	rot, err := evalTyped(m, ctx, o.Rotation, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("orient rotation: %w", err)
	}
	ctx.AppendVertexCode(fmt.Sprintf(`{
    let c = cos(%[1]s);
    let s = sin(%[1]s);
    let rx = c * axis_x + s * axis_y;
    let ry = c * axis_y - s * axis_x;
    axis_x = rx;
    axis_y = ry;
}
`, rot))
	return nil
}

// ParticleTextureModifier modulates the color by a texture. Texture names the
// image the host binds to the particle_texture slot.
type ParticleTextureModifier struct {
	renderOnly `yaml:"-"`
	Texture    string `yaml:"texture"`
}

func (ParticleTextureModifier) Attributes() []graph.Attribute { return nil }

func (p ParticleTextureModifier) ApplyRender(_ *graph.Module, ctx *shader.RenderContext) error {
	ctx.SetTexture(p.Texture)
	ctx.AppendFragmentCode("color = color * textureSample(particle_texture, particle_sampler, in.uv);\n")
	return nil
}
