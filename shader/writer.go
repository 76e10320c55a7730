package shader

import (
	"fmt"
	"strings"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
)

// EvalContext is what function builders see while generating code: the
// active layouts plus expression evaluation against them.
type EvalContext interface {
	graph.EvalContext
	Phase() ModifierContext
	Group() uint32
	ParticleLayout() *layout.ParticleLayout
	PropertyLayout() *layout.PropertyLayout
	Eval(m *graph.Module, h graph.ExprHandle) (string, error)
	MakeLocalVar() string
}

// FunctionBuilder returns the body of a function being defined. The body is
// placed verbatim between the braces.
type FunctionBuilder func(m *graph.Module, ctx EvalContext) (string, error)

type evalContext struct {
	phase          ModifierContext
	group          uint32
	particleLayout *layout.ParticleLayout
	propertyLayout *layout.PropertyLayout
	functions      *FunctionSet
	vars           *int
}

func newEvalContext(phase ModifierContext, props *layout.PropertyLayout, particles *layout.ParticleLayout) evalContext {
	if props == nil {
		props = layout.NewPropertyLayout(nil)
	}
	if particles == nil {
		particles = layout.EmptyParticleLayout()
	}
	return evalContext{
		phase:          phase,
		particleLayout: particles,
		propertyLayout: props,
		functions:      NewFunctionSet(),
		vars:           new(int),
	}
}

func (c *evalContext) sibling(group uint32) evalContext {
	s := *c
	s.group = group
	return s
}

func (c *evalContext) Phase() ModifierContext                 { return c.phase }
func (c *evalContext) Group() uint32                          { return c.group }
func (c *evalContext) ParticleLayout() *layout.ParticleLayout { return c.particleLayout }
func (c *evalContext) PropertyLayout() *layout.PropertyLayout { return c.propertyLayout }
func (c *evalContext) Functions() *FunctionSet                { return c.functions }

func (c *evalContext) HasAttribute(a graph.Attribute) bool {
	return c.particleLayout.Contains(a)
}

func (c *evalContext) PropertyType(name string) (graph.ValueType, bool) {
	return c.propertyLayout.Type(name)
}

func (c *evalContext) Eval(m *graph.Module, h graph.ExprHandle) (string, error) {
	return m.Eval(h, c)
}

// MakeLocalVar returns a fresh local variable name, unique within the phase.
func (c *evalContext) MakeLocalVar() string {
	name := fmt.Sprintf("var%d", *c.vars)
	*c.vars++
	return name
}

// DefineFunctionOnce emits "fn <name><signature> { <body> }" the first time
// id is seen in this phase and returns the function name. signature includes
// the parameter list and any return type.
func (c *evalContext) DefineFunctionOnce(id FuncID, signature string, m *graph.Module, builder FunctionBuilder) (string, error) {
	return c.functions.Define(id, func(name string) (string, error) {
		body, err := builder(m, c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("fn %s%s {\n%s}\n", name, signature, body), nil
	})
}

// ShaderWriter accumulates the generated code of the Init or Update phase for
// one particle group.
type ShaderWriter struct {
	evalContext
	main strings.Builder
}

// NewShaderWriter returns a writer for group 0. It panics for any phase other
// than Init or Update.
func NewShaderWriter(phase ModifierContext, props *layout.PropertyLayout, particles *layout.ParticleLayout) *ShaderWriter {
	if phase != ContextInit && phase != ContextUpdate {
		panic(fmt.Sprintf("shader: ShaderWriter needs the Init or Update phase, got %s", phase))
	}
	return &ShaderWriter{evalContext: newEvalContext(phase, props, particles)}
}

// ForGroup returns a writer for group with empty main code. It shares the
// function set and variable counter with w.
func (w *ShaderWriter) ForGroup(group uint32) *ShaderWriter {
	if group >= MaxGroups {
		panic(fmt.Sprintf("shader: group index %d out of range [0:%d)", group, MaxGroups))
	}
	return &ShaderWriter{evalContext: w.sibling(group)}
}

// AppendMainCode appends code verbatim.
func (w *ShaderWriter) AppendMainCode(code string) {
	w.main.WriteString(code)
}

func (w *ShaderWriter) MainCode() string { return w.main.String() }

// RenderContext accumulates the vertex and fragment code of the Render phase
// for one particle group.
type RenderContext struct {
	evalContext
	vertex          strings.Builder
	fragment        strings.Builder
	texture         string
	screenSpaceSize bool
	alphaCutoff     string
}

func NewRenderContext(props *layout.PropertyLayout, particles *layout.ParticleLayout) *RenderContext {
	return &RenderContext{evalContext: newEvalContext(ContextRender, props, particles)}
}

// ForGroup returns a render context for group sharing the function set of c.
func (c *RenderContext) ForGroup(group uint32) *RenderContext {
	if group >= MaxGroups {
		panic(fmt.Sprintf("shader: group index %d out of range [0:%d)", group, MaxGroups))
	}
	return &RenderContext{evalContext: c.sibling(group)}
}

func (c *RenderContext) AppendVertexCode(code string)   { c.vertex.WriteString(code) }
func (c *RenderContext) AppendFragmentCode(code string) { c.fragment.WriteString(code) }
func (c *RenderContext) VertexCode() string             { return c.vertex.String() }
func (c *RenderContext) FragmentCode() string           { return c.fragment.String() }

// SetTexture names the texture sampled by the fragment shader.
func (c *RenderContext) SetTexture(name string) { c.texture = name }
func (c *RenderContext) Texture() string        { return c.texture }

// SetScreenSpaceSize makes particle sizes count in pixels.
func (c *RenderContext) SetScreenSpaceSize(on bool) { c.screenSpaceSize = on }
func (c *RenderContext) ScreenSpaceSize() bool      { return c.screenSpaceSize }

// EvalFragment renders h for fragment code. The fragment stage reads the
// alpha mask cutoff but no particle attributes.
func (c *RenderContext) EvalFragment(m *graph.Module, h graph.ExprHandle) (string, error) {
	return m.Eval(h, fragmentScope{&c.evalContext})
}

type fragmentScope struct{ *evalContext }

func (fragmentScope) HasAttribute(graph.Attribute) bool { return false }

func (fragmentScope) HasBuiltIn(op graph.BuiltInOperator) bool {
	return op == graph.BuiltInAlphaCutoff
}

// SetAlphaCutoff stores the evaluated alpha mask cutoff expression.
func (c *RenderContext) SetAlphaCutoff(expr string) { c.alphaCutoff = expr }
func (c *RenderContext) AlphaCutoff() string        { return c.alphaCutoff }
