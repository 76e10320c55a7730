package modifier

import (
	"fmt"
	"math"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/shader"
)

// CloneModifier duplicates each particle into DestinationGroup every
// SpawnPeriod seconds, or every frame when SpawnPeriod <= 0. Spawners only
// emit into group 0, so this is how other groups get populated. The copy
// keeps every attribute except age, which restarts at zero.
type CloneModifier struct {
	SpawnPeriod      float32 `yaml:"spawn_period"`
	DestinationGroup uint32  `yaml:"destination_group"`
}

func NewClone(spawnPeriod float32, destinationGroup uint32) CloneModifier {
	return CloneModifier{SpawnPeriod: spawnPeriod, DestinationGroup: destinationGroup}
}

func (CloneModifier) Context() shader.ModifierContext { return shader.ContextUpdate }

func (CloneModifier) Attributes() []graph.Attribute { return nil }

// FuncID identifies the duplication function. The period only matters to the
// call site, but it is part of the id when positive.
func (c CloneModifier) FuncID() shader.FuncID {
	if c.SpawnPeriod <= 0 {
		return shader.NewFuncID("duplicate", c.DestinationGroup)
	}
	return shader.NewFuncID("duplicate", c.DestinationGroup, c.SpawnPeriod)
}

func (c CloneModifier) Apply(m *graph.Module, w *shader.ShaderWriter) error {
	if c.DestinationGroup >= shader.MaxGroups {
		return fmt.Errorf("clone: destination group %d out of range [0:%d)", c.DestinationGroup, shader.MaxGroups)
	}
	name, err := w.DefineFunctionOnce(c.FuncID(), "(particle: ptr<function, Particle>)", m,
		func(_ *graph.Module, ctx shader.EvalContext) (string, error) {
			return c.functionBody(ctx), nil
		})
	if err != nil {
		return err
	}

	if c.SpawnPeriod <= 0 {
		w.AppendMainCode(fmt.Sprintf("%s(&particle);\n", name))
		return nil
	}
	// Count the multiples of the period in (time - delta_time, time].
	period := graph.FormatFloat(c.SpawnPeriod)
	w.AppendMainCode(fmt.Sprintf(`{
    let multiple_count = max(0, i32(floor(sim_params.time / %[1]s)) - i32(ceil((sim_params.time - sim_params.delta_time) / %[1]s)) + 1);
    for (var i = 0; i < multiple_count; i += 1) {
        %[2]s(&particle);
    }
}
`, period, name))
	return nil
}

func (c CloneModifier) functionBody(ctx shader.EvalContext) string {
	ageReset := ""
	if ctx.ParticleLayout().Contains(graph.AttrAge) {
		ageReset = fmt.Sprintf("    particle_buffer.particles[index].%s = 0.0;\n", graph.AttrAge.Name())
	}
	return fmt.Sprintf(`    let base_index = particle_groups[%[1]du].indirect_index;

    // Recycle a dead particle.
    let dead_index = atomicSub(&render_group_indirect[%[1]du].dead_count, 1u) - 1u;
    let index = indirect_buffer.indices[3u * (base_index + dead_index) + 2u];

    // Copy particle in.
    particle_buffer.particles[index] = *particle;
%[2]s
    // Mark as alive.
    atomicAdd(&render_group_indirect[%[1]du].alive_count, 1u);

    // Add instance.
    let ping = render_effect_indirect.ping;
    let indirect_index = atomicAdd(&render_group_indirect[%[1]du].instance_count, 1u);
    indirect_buffer.indices[3u * (base_index + indirect_index) + ping] = index;
`, c.DestinationGroup, ageReset)
}

// DuplicationCount is the number of duplications a CloneModifier with period
// performs in the frame ending at time t and lasting deltaTime. It mirrors the
// generated shader code.
func DuplicationCount(t, deltaTime, period float32) int {
	if period <= 0 {
		return 1
	}
	n := int(math.Floor(float64(t/period))) - int(math.Ceil(float64((t-deltaTime)/period))) + 1
	return max(0, n)
}
