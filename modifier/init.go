package modifier

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/shader"
)

// SetAttributeModifier assigns an expression to an attribute.
type SetAttributeModifier struct {
	Attribute graph.Attribute  `yaml:"attribute"`
	Value     graph.ExprHandle `yaml:"value"`
}

func NewSetAttribute(attr graph.Attribute, value graph.ExprHandle) SetAttributeModifier {
	return SetAttributeModifier{Attribute: attr, Value: value}
}

func (SetAttributeModifier) Context() shader.ModifierContext {
	return shader.ContextInit | shader.ContextUpdate
}

func (s SetAttributeModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{s.Attribute}
}

func (s SetAttributeModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	expr, err := evalTyped(m, w, s.Value, s.Attribute.Type())
	if err != nil {
		return fmt.Errorf("set %s: %w", s.Attribute.Name(), err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.%s = %s;\n", s.Attribute.Name(), expr))
	return nil
}

// ShapeDimension selects whether positions fill a shape or lie on its
// boundary.
type ShapeDimension uint8

const (
	ShapeVolume ShapeDimension = iota
	ShapeSurface
)

func (d ShapeDimension) String() string {
	if d == ShapeSurface {
		return "Surface"
	}
	return "Volume"
}

func (d ShapeDimension) MarshalYAML() (any, error) { return d.String(), nil }

func (d *ShapeDimension) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "Volume":
		*d = ShapeVolume
	case "Surface":
		*d = ShapeSurface
	default:
		return fmt.Errorf("line %d: unknown shape dimension %q", node.Line, node.Value)
	}
	return nil
}

// SetPositionSphereModifier spawns particles in or on a sphere.
type SetPositionSphereModifier struct {
	Center    graph.ExprHandle `yaml:"center"`
	Radius    graph.ExprHandle `yaml:"radius"`
	Dimension ShapeDimension   `yaml:"dimension"`
}

func (SetPositionSphereModifier) Context() shader.ModifierContext { return shader.ContextInit }

func (SetPositionSphereModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition}
}

func (s SetPositionSphereModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, s.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("position sphere center: %w", err)
	}
	radius, err := evalTyped(m, w, s.Radius, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("position sphere radius: %w", err)
	}
	r := radius
	if s.Dimension == ShapeVolume {
		// Cube root keeps the density uniform over the volume.
		r = fmt.Sprintf("pow(frand(), 1.0 / 3.0) * %s", radius)
	}
	w.AppendMainCode(fmt.Sprintf(`{
    let dir = normalize(frand3() * 2.0 - 1.0);
    particle.position = %s + dir * (%s);
}
`, center, r))
	return nil
}

// SetPositionCircleModifier spawns particles in or on a circle around Axis.
type SetPositionCircleModifier struct {
	Center    graph.ExprHandle `yaml:"center"`
	Axis      graph.ExprHandle `yaml:"axis"`
	Radius    graph.ExprHandle `yaml:"radius"`
	Dimension ShapeDimension   `yaml:"dimension"`
}

func (SetPositionCircleModifier) Context() shader.ModifierContext { return shader.ContextInit }

func (SetPositionCircleModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition}
}

func (s SetPositionCircleModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, s.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("position circle center: %w", err)
	}
	axis, err := evalTyped(m, w, s.Axis, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("position circle axis: %w", err)
	}
	radius, err := evalTyped(m, w, s.Radius, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("position circle radius: %w", err)
	}
	r := radius
	if s.Dimension == ShapeVolume {
		r = fmt.Sprintf("sqrt(frand()) * %s", radius)
	}
	w.AppendMainCode(fmt.Sprintf(`{
    let axis = normalize(%s);
    let tangent = normalize(select(cross(axis, vec3<f32>(1.0, 0.0, 0.0)), cross(axis, vec3<f32>(0.0, 1.0, 0.0)), abs(axis.x) > 0.9));
    let bitangent = cross(axis, tangent);
    let theta = frand() * 6.28318530718;
    particle.position = %s + (%s) * (cos(theta) * tangent + sin(theta) * bitangent);
}
`, axis, center, r))
	return nil
}

// SetVelocitySphereModifier sets a radial velocity away from Center.
type SetVelocitySphereModifier struct {
	Center graph.ExprHandle `yaml:"center"`
	Speed  graph.ExprHandle `yaml:"speed"`
}

func (SetVelocitySphereModifier) Context() shader.ModifierContext { return shader.ContextInit }

func (SetVelocitySphereModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
}

func (s SetVelocitySphereModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, s.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("velocity sphere center: %w", err)
	}
	speed, err := evalTyped(m, w, s.Speed, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("velocity sphere speed: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.velocity = normalize(particle.position - %s) * (%s);\n", center, speed))
	return nil
}

// SetVelocityCircleModifier sets a velocity away from Axis, in the plane
// perpendicular to it.
type SetVelocityCircleModifier struct {
	Center graph.ExprHandle `yaml:"center"`
	Axis   graph.ExprHandle `yaml:"axis"`
	Speed  graph.ExprHandle `yaml:"speed"`
}

func (SetVelocityCircleModifier) Context() shader.ModifierContext { return shader.ContextInit }

func (SetVelocityCircleModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
}

func (s SetVelocityCircleModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, s.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("velocity circle center: %w", err)
	}
	axis, err := evalTyped(m, w, s.Axis, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("velocity circle axis: %w", err)
	}
	speed, err := evalTyped(m, w, s.Speed, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("velocity circle speed: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf(`{
    let axis = normalize(%s);
    let delta = particle.position - %s;
    let radial = normalize(delta - dot(delta, axis) * axis);
    particle.velocity = radial * (%s);
}
`, axis, center, speed))
	return nil
}

// SetVelocityTangentModifier sets a velocity tangent to the circle around
// Axis passing through the particle.
type SetVelocityTangentModifier struct {
	Origin graph.ExprHandle `yaml:"origin"`
	Axis   graph.ExprHandle `yaml:"axis"`
	Speed  graph.ExprHandle `yaml:"speed"`
}

func (SetVelocityTangentModifier) Context() shader.ModifierContext {
	return shader.ContextInit | shader.ContextUpdate
}

func (SetVelocityTangentModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
}

func (s SetVelocityTangentModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	origin, err := evalTyped(m, w, s.Origin, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("velocity tangent origin: %w", err)
	}
	axis, err := evalTyped(m, w, s.Axis, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("velocity tangent axis: %w", err)
	}
	speed, err := evalTyped(m, w, s.Speed, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("velocity tangent speed: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.velocity = normalize(cross(%s, particle.position - %s)) * (%s);\n", axis, origin, speed))
	return nil
}
