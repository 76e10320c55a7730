package modifier

import (
	"fmt"
	"strings"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/shader"
)

// AccelModifier applies a constant acceleration.
type AccelModifier struct {
	Accel graph.ExprHandle `yaml:"accel"`
}

func NewAccel(accel graph.ExprHandle) AccelModifier { return AccelModifier{Accel: accel} }

func (AccelModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (AccelModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrVelocity}
}

func (a AccelModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	accel, err := evalTyped(m, w, a.Accel, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("accel: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.velocity += %s * sim_params.delta_time;\n", accel))
	return nil
}

// RadialAccelModifier accelerates particles away from Origin. A negative
// acceleration attracts.
type RadialAccelModifier struct {
	Origin graph.ExprHandle `yaml:"origin"`
	Accel  graph.ExprHandle `yaml:"accel"`
}

func (RadialAccelModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (RadialAccelModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
}

func (r RadialAccelModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	origin, err := evalTyped(m, w, r.Origin, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("radial accel origin: %w", err)
	}
	accel, err := evalTyped(m, w, r.Accel, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("radial accel: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.velocity += normalize(particle.position - %s) * (%s) * sim_params.delta_time;\n", origin, accel))
	return nil
}

// LinearDragModifier damps velocity proportionally to its magnitude.
type LinearDragModifier struct {
	Drag graph.ExprHandle `yaml:"drag"`
}

func (LinearDragModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (LinearDragModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrVelocity}
}

func (d LinearDragModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	drag, err := evalTyped(m, w, d.Drag, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("linear drag: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf("particle.velocity *= max(0.0, 1.0 - (%s) * sim_params.delta_time);\n", drag))
	return nil
}

// ConformToSphereModifier attracts particles within InfluenceDist of Origin
// onto the surface of a sphere and keeps them moving along it.
type ConformToSphereModifier struct {
	Origin             graph.ExprHandle `yaml:"origin"`
	Radius             graph.ExprHandle `yaml:"radius"`
	InfluenceDist      graph.ExprHandle `yaml:"influence_dist"`
	AttractionAccel    graph.ExprHandle `yaml:"attraction_accel"`
	MaxAttractionSpeed graph.ExprHandle `yaml:"max_attraction_speed"`
	// Optional; zero handles default to 0.
	ShellHalfThickness graph.ExprHandle `yaml:"shell_half_thickness,omitempty"`
	StickyFactor       graph.ExprHandle `yaml:"sticky_factor,omitempty"`
}

func (ConformToSphereModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (ConformToSphereModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition, graph.AttrVelocity}
}

const conformToSphereBody = `    let dir = origin - (*particle).position;
    let dist = length(dir);
    if (dist > influence_dist || dist == 0.0) {
        return;
    }
    let sphere_dist = dist - radius;
    if (abs(sphere_dist) <= shell_half_thickness) {
        (*particle).velocity *= max(0.0, 1.0 - sticky_factor * sim_params.delta_time);
    }
    let target_dir = sign(sphere_dist) * (dir / dist);
    var v = (*particle).velocity + target_dir * attraction_accel * sim_params.delta_time;
    let speed = length(v);
    if (speed > max_attraction_speed) {
        v *= max_attraction_speed / speed;
    }
    (*particle).velocity = v;
`

func (c ConformToSphereModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	args := make([]string, 0, 7)
	for _, in := range []struct {
		h   graph.ExprHandle
		typ graph.ValueType
	}{
		{c.Origin, graph.TypeVec3},
		{c.Radius, graph.TypeFloat},
		{c.InfluenceDist, graph.TypeFloat},
		{c.AttractionAccel, graph.TypeFloat},
		{c.MaxAttractionSpeed, graph.TypeFloat},
	} {
		s, err := evalTyped(m, w, in.h, in.typ)
		if err != nil {
			return fmt.Errorf("conform to sphere: %w", err)
		}
		args = append(args, s)
	}
	for _, h := range []graph.ExprHandle{c.ShellHalfThickness, c.StickyFactor} {
		s, err := evalOr(m, w, h, graph.Float(0))
		if err != nil {
			return fmt.Errorf("conform to sphere: %w", err)
		}
		args = append(args, s)
	}

	name, err := w.DefineFunctionOnce(
		shader.NewFuncID("conform_to_sphere"),
		"(particle: ptr<function, Particle>, origin: vec3<f32>, radius: f32, influence_dist: f32, "+
			"attraction_accel: f32, max_attraction_speed: f32, shell_half_thickness: f32, sticky_factor: f32)",
		m,
		func(*graph.Module, shader.EvalContext) (string, error) { return conformToSphereBody, nil },
	)
	if err != nil {
		return err
	}
	w.AppendMainCode(fmt.Sprintf("%s(&particle, %s);\n", name, strings.Join(args, ", ")))
	return nil
}

// KillAabbModifier kills particles inside, or outside, an axis-aligned box.
type KillAabbModifier struct {
	Center     graph.ExprHandle `yaml:"center"`
	HalfSize   graph.ExprHandle `yaml:"half_size"`
	KillInside bool             `yaml:"kill_inside"`
}

func (KillAabbModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (KillAabbModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition}
}

func (k KillAabbModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, k.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("kill aabb center: %w", err)
	}
	half, err := evalTyped(m, w, k.HalfSize, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("kill aabb half size: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf(`{
    let inside = all(abs(particle.position - %s) < %s);
    if (%s) {
        is_alive = false;
    }
}
`, center, half, killCondition(k.KillInside)))
	return nil
}

// KillSphereModifier kills particles inside, or outside, a sphere.
type KillSphereModifier struct {
	Center     graph.ExprHandle `yaml:"center"`
	SqrRadius  graph.ExprHandle `yaml:"sqr_radius"`
	KillInside bool             `yaml:"kill_inside"`
}

func (KillSphereModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (KillSphereModifier) Attributes() []graph.Attribute {
	return []graph.Attribute{graph.AttrPosition}
}

func (k KillSphereModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	center, err := evalTyped(m, w, k.Center, graph.TypeVec3)
	if err != nil {
		return fmt.Errorf("kill sphere center: %w", err)
	}
	sqrRadius, err := evalTyped(m, w, k.SqrRadius, graph.TypeFloat)
	if err != nil {
		return fmt.Errorf("kill sphere radius: %w", err)
	}
	w.AppendMainCode(fmt.Sprintf(`{
    let delta = particle.position - %s;
    let inside = dot(delta, delta) < %s;
    if (%s) {
        is_alive = false;
    }
}
`, center, sqrRadius, killCondition(k.KillInside)))
	return nil
}

func killCondition(inside bool) string {
	if inside {
		return "inside"
	}
	return "!inside"
}
