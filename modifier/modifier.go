// Package modifier provides the composable operations an effect is built
// from. Each modifier declares the phases it supports and the attributes it
// touches, and emits shader code into a phase context.
package modifier

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/shader"
)

// ErrRenderOnly is returned by Apply on modifiers that only run in the render
// phase.
var ErrRenderOnly = errors.New("modifier only supports the render phase")

type Modifier interface {
	Context() shader.ModifierContext
	Attributes() []graph.Attribute
	Apply(m *graph.Module, w *shader.ShaderWriter) error
}

type RenderModifier interface {
	Modifier
	ApplyRender(m *graph.Module, ctx *shader.RenderContext) error
}

// GroupedModifier applies a modifier to the particle groups in Groups.
type GroupedModifier struct {
	Modifier Modifier
	Groups   shader.ParticleGroupSet
}

type groupedModifierYAML struct {
	Modifier yaml.Node `yaml:"modifier"`
	Groups   uint32    `yaml:"groups"`
}

func (g GroupedModifier) MarshalYAML() (any, error) {
	encoded, err := Encode(g.Modifier)
	if err != nil {
		return nil, err
	}
	return struct {
		Modifier any    `yaml:"modifier"`
		Groups   uint32 `yaml:"groups"`
	}{encoded, uint32(g.Groups)}, nil
}

func (g *GroupedModifier) UnmarshalYAML(node *yaml.Node) error {
	var raw groupedModifierYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	m, err := Decode(&raw.Modifier)
	if err != nil {
		return err
	}
	*g = GroupedModifier{Modifier: m, Groups: shader.ParticleGroupSet(raw.Groups)}
	return nil
}

var (
	typesByName = make(map[string]reflect.Type)
	namesByType = make(map[reflect.Type]string)
)

// Register makes T encodable under its type name. It panics if the name is
// already taken.
func Register[T Modifier]() {
	t := reflect.TypeFor[T]()
	name := t.Name()
	if t.Kind() == reflect.Pointer {
		name = t.Elem().Name()
	}
	if _, ok := typesByName[name]; ok {
		panic(fmt.Sprintf("modifier: %s is already registered", name))
	}
	typesByName[name] = t
	namesByType[t] = name
}

// Registered returns the registered type names in sorted order.
func Registered() []string {
	names := make([]string, 0, len(typesByName))
	for name := range typesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Encode wraps m as a single-key mapping from its type name to its fields.
func Encode(m Modifier) (map[string]any, error) {
	if m == nil {
		return nil, errors.New("cannot encode nil modifier")
	}
	name, ok := namesByType[reflect.TypeOf(m)]
	if !ok {
		return nil, fmt.Errorf("modifier type %T is not registered", m)
	}
	return map[string]any{name: m}, nil
}

// Decode reads a modifier written by Encode.
func Decode(node *yaml.Node) (Modifier, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: modifier must be a single-key mapping", node.Line)
	}
	name := node.Content[0].Value
	t, ok := typesByName[name]
	if !ok {
		return nil, fmt.Errorf("line %d: unknown modifier %q", node.Line, name)
	}
	var ptr reflect.Value
	if t.Kind() == reflect.Pointer {
		ptr = reflect.New(t.Elem())
		if err := node.Content[1].Decode(ptr.Interface()); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return ptr.Interface().(Modifier), nil
	}
	ptr = reflect.New(t)
	if err := node.Content[1].Decode(ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return ptr.Elem().Interface().(Modifier), nil
}

func init() {
	Register[SetAttributeModifier]()
	Register[SetPositionSphereModifier]()
	Register[SetPositionCircleModifier]()
	Register[SetVelocitySphereModifier]()
	Register[SetVelocityCircleModifier]()
	Register[SetVelocityTangentModifier]()
	Register[AccelModifier]()
	Register[RadialAccelModifier]()
	Register[LinearDragModifier]()
	Register[ConformToSphereModifier]()
	Register[KillAabbModifier]()
	Register[KillSphereModifier]()
	Register[CloneModifier]()
	Register[SetColorModifier]()
	Register[ColorOverLifetimeModifier]()
	Register[SetSizeModifier]()
	Register[SizeOverLifetimeModifier]()
	Register[OrientModifier]()
	Register[ParticleTextureModifier]()
}

// evalTyped evaluates h and checks that it has type want.
func evalTyped(m *graph.Module, ctx shader.EvalContext, h graph.ExprHandle, want graph.ValueType) (string, error) {
	typ, err := m.TypeOf(h, ctx)
	if err != nil {
		return "", err
	}
	if typ != want {
		return "", &graph.ExprError{
			Handle: h,
			Err:    graph.ErrTypeMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", want, typ),
		}
	}
	return ctx.Eval(m, h)
}

// evalOr evaluates an optional handle, falling back to a literal.
func evalOr(m *graph.Module, ctx shader.EvalContext, h graph.ExprHandle, fallback graph.Value) (string, error) {
	if !h.IsValid() {
		return fallback.WGSL(), nil
	}
	return evalTyped(m, ctx, h, fallback.Type())
}
