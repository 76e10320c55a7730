// Package vfx describes GPU particle effects and compiles them into WGSL
// shader source and GPU buffer layouts.
package vfx

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/modifier"
	"github.com/gekko3d/vfx/shader"
)

// SimulationSpace is the coordinate space particles are simulated in.
type SimulationSpace uint8

const (
	// SimulationSpaceGlobal simulates in world space; moving the emitter does
	// not move live particles.
	SimulationSpaceGlobal SimulationSpace = iota
	// SimulationSpaceLocal simulates relative to the emitter transform.
	SimulationSpaceLocal
)

var simulationSpaceNames = []string{"Global", "Local"}

func (s SimulationSpace) String() string {
	return enumName(simulationSpaceNames, uint8(s), "SimulationSpace")
}

func (s SimulationSpace) MarshalYAML() (any, error) {
	return marshalEnum(simulationSpaceNames, uint8(s), "simulation space")
}

func (s *SimulationSpace) UnmarshalYAML(node *yaml.Node) error {
	v, err := unmarshalEnum(node, simulationSpaceNames, "simulation space")
	*s = SimulationSpace(v)
	return err
}

// SimulationCondition tells the host when to run the simulation.
type SimulationCondition uint8

const (
	SimulationWhenVisible SimulationCondition = iota
	SimulationAlways
)

var simulationConditionNames = []string{"WhenVisible", "Always"}

func (c SimulationCondition) String() string {
	return enumName(simulationConditionNames, uint8(c), "SimulationCondition")
}

func (c SimulationCondition) MarshalYAML() (any, error) {
	return marshalEnum(simulationConditionNames, uint8(c), "simulation condition")
}

func (c *SimulationCondition) UnmarshalYAML(node *yaml.Node) error {
	v, err := unmarshalEnum(node, simulationConditionNames, "simulation condition")
	*c = SimulationCondition(v)
	return err
}

// MotionIntegration controls when position is advanced by velocity during the
// update phase.
type MotionIntegration uint8

const (
	// MotionPostUpdate integrates after the update modifiers ran.
	MotionPostUpdate MotionIntegration = iota
	// MotionPreUpdate integrates before the update modifiers run.
	MotionPreUpdate
	// MotionNone leaves position to the modifiers.
	MotionNone
)

var motionIntegrationNames = []string{"PostUpdate", "PreUpdate", "None"}

func (m MotionIntegration) String() string {
	return enumName(motionIntegrationNames, uint8(m), "MotionIntegration")
}

func (m MotionIntegration) MarshalYAML() (any, error) {
	return marshalEnum(motionIntegrationNames, uint8(m), "motion integration")
}

func (m *MotionIntegration) UnmarshalYAML(node *yaml.Node) error {
	v, err := unmarshalEnum(node, motionIntegrationNames, "motion integration")
	*m = MotionIntegration(v)
	return err
}

// AlphaModeKind selects how fragments are combined with the target.
type AlphaModeKind uint8

const (
	AlphaBlendKind AlphaModeKind = iota
	AlphaPremultiplyKind
	AlphaAddKind
	AlphaMultiplyKind
	AlphaMaskKind
)

var alphaModeNames = []string{"Blend", "Premultiply", "Add", "Multiply", "Mask"}

func (k AlphaModeKind) String() string { return enumName(alphaModeNames, uint8(k), "AlphaModeKind") }

// AlphaMode is a blend mode. Mask discards fragments whose alpha is below
// the f32 expression Cutoff.
type AlphaMode struct {
	Kind   AlphaModeKind
	Cutoff graph.ExprHandle
}

func AlphaBlend() AlphaMode       { return AlphaMode{Kind: AlphaBlendKind} }
func AlphaPremultiply() AlphaMode { return AlphaMode{Kind: AlphaPremultiplyKind} }
func AlphaAdd() AlphaMode         { return AlphaMode{Kind: AlphaAddKind} }
func AlphaMultiply() AlphaMode    { return AlphaMode{Kind: AlphaMultiplyKind} }

func AlphaMask(cutoff graph.ExprHandle) AlphaMode {
	return AlphaMode{Kind: AlphaMaskKind, Cutoff: cutoff}
}

func (a AlphaMode) IsMask() bool { return a.Kind == AlphaMaskKind }

func (a AlphaMode) String() string {
	if a.IsMask() {
		return fmt.Sprintf("Mask(%d)", a.Cutoff)
	}
	return a.Kind.String()
}

// MarshalYAML writes the plain modes as a name and Mask as {Mask: handle}.
func (a AlphaMode) MarshalYAML() (any, error) {
	if a.IsMask() {
		return map[string]graph.ExprHandle{"Mask": a.Cutoff}, nil
	}
	return marshalEnum(alphaModeNames, uint8(a.Kind), "alpha mode")
}

func (a *AlphaMode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var m map[string]graph.ExprHandle
		if err := node.Decode(&m); err != nil {
			return err
		}
		h, ok := m["Mask"]
		if !ok || len(m) != 1 {
			return fmt.Errorf("line %d: alpha mode mapping must be {Mask: <handle>}", node.Line)
		}
		*a = AlphaMask(h)
		return nil
	}
	v, err := unmarshalEnum(node, alphaModeNames, "alpha mode")
	if err != nil {
		return err
	}
	if AlphaModeKind(v) == AlphaMaskKind {
		return fmt.Errorf("line %d: alpha mode Mask needs a cutoff", node.Line)
	}
	*a = AlphaMode{Kind: AlphaModeKind(v)}
	return nil
}

func enumName(names []string, v uint8, typ string) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", typ, v)
}

func marshalEnum(names []string, v uint8, what string) (any, error) {
	if int(v) >= len(names) {
		return nil, fmt.Errorf("invalid %s %d", what, v)
	}
	return names[v], nil
}

func unmarshalEnum(node *yaml.Node, names []string, what string) (uint8, error) {
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: %s must be a name", node.Line, what)
	}
	for i, n := range names {
		if n == node.Value {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("line %d: unknown %s %q", node.Line, what, node.Value)
}

// EffectAsset is the authored description of an effect. It is built once with
// the With*, Init, Update and Render methods, then compiled. Capacities are
// fixed at construction, one per particle group.
type EffectAsset struct {
	name                string
	capacities          []uint32
	spawner             Spawner
	zLayer2D            float32
	simulationSpace     SimulationSpace
	simulationCondition SimulationCondition
	initModifiers       []modifier.GroupedModifier
	updateModifiers     []modifier.GroupedModifier
	renderModifiers     []modifier.GroupedModifier
	properties          []layout.Property
	motionIntegration   MotionIntegration
	module              *graph.Module
	alphaMode           AlphaMode
}

// NewEffectAsset panics when capacities is empty, longer than
// shader.MaxGroups, or holds a zero. A nil module gets an empty one.
func NewEffectAsset(capacities []uint32, spawner Spawner, module *graph.Module) *EffectAsset {
	if len(capacities) == 0 {
		panic("vfx: effect needs at least one particle group")
	}
	if len(capacities) > shader.MaxGroups {
		panic(fmt.Sprintf("vfx: effect has %d particle groups, at most %d are supported", len(capacities), shader.MaxGroups))
	}
	for i, c := range capacities {
		if c == 0 {
			panic(fmt.Sprintf("vfx: particle group %d has zero capacity", i))
		}
	}
	if module == nil {
		module = graph.NewModule()
	}
	return &EffectAsset{
		capacities: append([]uint32(nil), capacities...),
		spawner:    spawner,
		module:     module,
	}
}

func (e *EffectAsset) WithName(name string) *EffectAsset {
	e.name = name
	return e
}

func (e *EffectAsset) WithSimulationSpace(s SimulationSpace) *EffectAsset {
	e.simulationSpace = s
	return e
}

func (e *EffectAsset) WithSimulationCondition(c SimulationCondition) *EffectAsset {
	e.simulationCondition = c
	return e
}

func (e *EffectAsset) WithAlphaMode(a AlphaMode) *EffectAsset {
	e.alphaMode = a
	return e
}

func (e *EffectAsset) WithMotionIntegration(m MotionIntegration) *EffectAsset {
	e.motionIntegration = m
	return e
}

func (e *EffectAsset) WithZLayer2D(z float32) *EffectAsset {
	e.zLayer2D = z
	return e
}

func (e *EffectAsset) WithSpawner(s Spawner) *EffectAsset {
	e.spawner = s
	return e
}

// WithProperty declares a property. It panics if the name is taken.
func (e *EffectAsset) WithProperty(name string, defaultValue graph.Value) *EffectAsset {
	return e.AddProperty(layout.NewProperty(name, defaultValue))
}

func (e *EffectAsset) AddProperty(p layout.Property) *EffectAsset {
	for _, existing := range e.properties {
		if existing.Name == p.Name {
			panic(fmt.Sprintf("vfx: property %q already exists", p.Name))
		}
	}
	e.properties = append(e.properties, p)
	return e
}

// Init adds an init modifier. Spawners only emit into group 0, so init
// modifiers always target it.
func (e *EffectAsset) Init(m modifier.Modifier) *EffectAsset {
	return e.AddModifierToGroups(shader.ContextInit, m, shader.SingleGroup(0))
}

// Update adds an update modifier running on every group.
func (e *EffectAsset) Update(m modifier.Modifier) *EffectAsset {
	return e.UpdateGroups(m, shader.AllGroups())
}

func (e *EffectAsset) UpdateGroups(m modifier.Modifier, groups shader.ParticleGroupSet) *EffectAsset {
	return e.AddModifierToGroups(shader.ContextUpdate, m, groups)
}

func (e *EffectAsset) AddModifier(ctx shader.ModifierContext, m modifier.Modifier) *EffectAsset {
	groups := shader.AllGroups()
	if ctx == shader.ContextInit {
		groups = shader.SingleGroup(0)
	}
	return e.AddModifierToGroups(ctx, m, groups)
}

// AddModifierToGroups adds m to the Init or Update phase. It panics when ctx
// is not exactly one of those phases or when m does not support it. Render
// modifiers go through AddRenderModifier.
func (e *EffectAsset) AddModifierToGroups(ctx shader.ModifierContext, m modifier.Modifier, groups shader.ParticleGroupSet) *EffectAsset {
	if !ctx.IsSingle() {
		panic(fmt.Sprintf("vfx: modifier context must be a single phase, got %s", ctx))
	}
	if ctx == shader.ContextRender {
		panic("vfx: render modifiers must be added with AddRenderModifier")
	}
	if !m.Context().Contains(ctx) {
		panic(fmt.Sprintf("vfx: %T does not support the %s phase", m, ctx))
	}
	gm := modifier.GroupedModifier{Modifier: m, Groups: groups}
	if ctx == shader.ContextInit {
		e.initModifiers = append(e.initModifiers, gm)
	} else {
		e.updateModifiers = append(e.updateModifiers, gm)
	}
	return e
}

// Render adds a render modifier running on every group.
func (e *EffectAsset) Render(m modifier.RenderModifier) *EffectAsset {
	return e.RenderGroups(m, shader.AllGroups())
}

func (e *EffectAsset) RenderGroups(m modifier.RenderModifier, groups shader.ParticleGroupSet) *EffectAsset {
	return e.AddRenderModifierToGroups(m, groups)
}

func (e *EffectAsset) AddRenderModifier(m modifier.RenderModifier) *EffectAsset {
	return e.AddRenderModifierToGroups(m, shader.AllGroups())
}

func (e *EffectAsset) AddRenderModifierToGroups(m modifier.RenderModifier, groups shader.ParticleGroupSet) *EffectAsset {
	if !m.Context().Contains(shader.ContextRender) {
		panic(fmt.Sprintf("vfx: %T does not support the Render phase", m))
	}
	e.renderModifiers = append(e.renderModifiers, modifier.GroupedModifier{Modifier: m, Groups: groups})
	return e
}

func (e *EffectAsset) Name() string                             { return e.name }
func (e *EffectAsset) Spawner() Spawner                         { return e.spawner }
func (e *EffectAsset) ZLayer2D() float32                        { return e.zLayer2D }
func (e *EffectAsset) SimulationSpace() SimulationSpace         { return e.simulationSpace }
func (e *EffectAsset) SimulationCondition() SimulationCondition { return e.simulationCondition }
func (e *EffectAsset) MotionIntegration() MotionIntegration     { return e.motionIntegration }
func (e *EffectAsset) AlphaMode() AlphaMode                     { return e.alphaMode }
func (e *EffectAsset) Module() *graph.Module                    { return e.module }

// GroupCount is the number of particle groups.
func (e *EffectAsset) GroupCount() uint32 { return uint32(len(e.capacities)) }

func (e *EffectAsset) Capacities() []uint32 {
	return append([]uint32(nil), e.capacities...)
}

func (e *EffectAsset) Properties() []layout.Property {
	return append([]layout.Property(nil), e.properties...)
}

func (e *EffectAsset) InitModifiers() []modifier.GroupedModifier {
	return append([]modifier.GroupedModifier(nil), e.initModifiers...)
}

func (e *EffectAsset) UpdateModifiers() []modifier.GroupedModifier {
	return append([]modifier.GroupedModifier(nil), e.updateModifiers...)
}

func (e *EffectAsset) RenderModifiers() []modifier.GroupedModifier {
	return append([]modifier.GroupedModifier(nil), e.renderModifiers...)
}

// Modifiers lists every modifier in phase order: init, update, render.
func (e *EffectAsset) Modifiers() []modifier.Modifier {
	out := make([]modifier.Modifier, 0, len(e.initModifiers)+len(e.updateModifiers)+len(e.renderModifiers))
	for _, list := range [][]modifier.GroupedModifier{e.initModifiers, e.updateModifiers, e.renderModifiers} {
		for _, gm := range list {
			out = append(out, gm.Modifier)
		}
	}
	return out
}

func (e *EffectAsset) InitModifiersForGroup(group uint32) []modifier.Modifier {
	return forGroup(e.initModifiers, group)
}

func (e *EffectAsset) UpdateModifiersForGroup(group uint32) []modifier.Modifier {
	return forGroup(e.updateModifiers, group)
}

func (e *EffectAsset) RenderModifiersForGroup(group uint32) []modifier.RenderModifier {
	var out []modifier.RenderModifier
	for _, m := range forGroup(e.renderModifiers, group) {
		if rm, ok := m.(modifier.RenderModifier); ok {
			out = append(out, rm)
		}
	}
	return out
}

func forGroup(list []modifier.GroupedModifier, group uint32) []modifier.Modifier {
	var out []modifier.Modifier
	for _, gm := range list {
		if gm.Groups.Contains(group) {
			out = append(out, gm.Modifier)
		}
	}
	return out
}

// ParticleLayout packs every attribute a modifier touches or the module reads.
func (e *EffectAsset) ParticleLayout() *layout.ParticleLayout {
	b := layout.NewParticleLayout()
	for _, m := range e.Modifiers() {
		b.Append(m.Attributes()...)
	}
	b.Append(e.module.Attributes()...)
	return b.Build()
}

func (e *EffectAsset) PropertyLayout() *layout.PropertyLayout {
	return layout.NewPropertyLayout(e.properties)
}
