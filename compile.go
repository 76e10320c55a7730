package vfx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/shader"
	"github.com/gekko3d/vfx/shaders"
)

// Cache stores compiled output. Keys combine the asset fingerprint with a
// digest of the compiler templates.
type Cache interface {
	Load(key string) ([]byte, bool, error)
	Store(key string, data []byte) error
}

type CompileOptions struct {
	// Validate parses every generated source with naga.
	Validate bool
	Logger   Logger
	// Cache, when set, is consulted before compiling and filled after.
	Cache Cache
}

func DefaultCompileOptions() CompileOptions {
	return CompileOptions{Logger: NewNopLogger()}
}

// CompiledEffect is the output of Compile: the buffer layouts and one WGSL
// source per phase and group. Init only runs on group 0.
type CompiledEffect struct {
	Name           string
	Capacities     []uint32
	ParticleLayout *layout.ParticleLayout
	PropertyLayout *layout.PropertyLayout
	Init           string
	Update         []string
	Render         []string
	// Textures holds the texture name bound by each render group, or "".
	Textures []string
	// Function counts per phase, after deduplication.
	InitFunctions   int
	UpdateFunctions int
	RenderFunctions int
	fingerprint     string
}

// Source returns the source for phase and group, or false when there is none.
func (c *CompiledEffect) Source(phase shader.ModifierContext, group uint32) (string, bool) {
	switch phase {
	case shader.ContextInit:
		return c.Init, group == 0
	case shader.ContextUpdate:
		if int(group) < len(c.Update) {
			return c.Update[group], true
		}
	case shader.ContextRender:
		if int(group) < len(c.Render) {
			return c.Render[group], true
		}
	}
	return "", false
}

// Fingerprint identifies the asset the effect was compiled from. It is empty
// when the asset has no YAML encoding, e.g. with unregistered modifiers.
func (c *CompiledEffect) Fingerprint() string { return c.fingerprint }

// Fingerprint hashes the YAML encoding of an asset.
func Fingerprint(asset *EffectAsset) (string, error) {
	data, err := Encode(asset)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// compilerVersion is bumped when code generation changes outside the
// embedded templates.
const compilerVersion = "vfx-compiler/2"

// cacheSalt ties cache entries to the compiler that wrote them.
var cacheSalt = compilerDigest()

func compilerDigest() string {
	h := sha256.New()
	for _, part := range []string{compilerVersion, shaders.CommonWGSL, shaders.InitWGSL, shaders.UpdateWGSL, shaders.RenderWGSL} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cacheKey(fingerprint string) string {
	sum := sha256.Sum256([]byte(cacheSalt + ":" + fingerprint))
	return hex.EncodeToString(sum[:])
}

// compiledSources is the cached part of a CompiledEffect; layouts are cheap
// to rebuild from the asset.
type compiledSources struct {
	Init            string   `yaml:"init"`
	Update          []string `yaml:"update"`
	Render          []string `yaml:"render"`
	Textures        []string `yaml:"textures"`
	InitFunctions   int      `yaml:"init_functions"`
	UpdateFunctions int      `yaml:"update_functions"`
	RenderFunctions int      `yaml:"render_functions"`
}

// Compile generates the shader sources of asset. Output is deterministic:
// compiling the same asset twice yields identical sources.
func Compile(asset *EffectAsset, opts CompileOptions) (*CompiledEffect, error) {
	if asset == nil {
		return nil, errors.New("compile: nil asset")
	}
	log := loggerOrNop(opts.Logger)
	name := asset.Name()
	if name == "" {
		name = "<unnamed>"
	}
	if err := asset.Spawner().Validate(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}

	// Assets holding unregistered modifiers have no encoding; they still
	// compile, only uncached.
	fp, err := Fingerprint(asset)
	if err != nil && opts.Cache != nil {
		log.Warnf("effect %s: compiling without cache: %v", name, err)
	}
	out := &CompiledEffect{
		Name:           asset.Name(),
		Capacities:     asset.Capacities(),
		ParticleLayout: asset.ParticleLayout(),
		PropertyLayout: asset.PropertyLayout(),
		fingerprint:    fp,
	}

	var key string
	if opts.Cache != nil && fp != "" {
		key = cacheKey(fp)
		if out.loadCached(opts.Cache, key, name, log) {
			var err error
			if opts.Validate {
				err = out.validate()
			}
			if err == nil {
				log.Debugf("effect %s: cache hit %s", name, key[:12])
				return out, nil
			}
			log.Warnf("effect %s: recompiling invalid cache entry %s: %v", name, key[:12], err)
		}
	}

	c := &compiler{asset: asset, out: out, name: name}
	if err := c.compileInit(); err != nil {
		return nil, err
	}
	if err := c.compileUpdate(); err != nil {
		return nil, err
	}
	if err := c.compileRender(); err != nil {
		return nil, err
	}

	if opts.Validate {
		if err := out.validate(); err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
	}
	log.Infof("compiled effect %s: %d groups, particle %dB, properties %dB, functions %d/%d/%d",
		name, len(out.Capacities), out.ParticleLayout.Size(), out.PropertyLayout.Size(),
		out.InitFunctions, out.UpdateFunctions, out.RenderFunctions)

	if key != "" {
		data, err := yaml.Marshal(out.sources())
		if err == nil {
			err = opts.Cache.Store(key, data)
		}
		if err != nil {
			log.Warnf("effect %s: cache store: %v", name, err)
		}
	}
	return out, nil
}

// loadCached fills the sources from cache and reports whether it did.
func (c *CompiledEffect) loadCached(cache Cache, key, name string, log Logger) bool {
	data, ok, err := cache.Load(key)
	if err != nil {
		log.Warnf("effect %s: cache load: %v", name, err)
		return false
	}
	if !ok {
		return false
	}
	var src compiledSources
	if err := yaml.Unmarshal(data, &src); err != nil || len(src.Update) != len(c.Capacities) {
		log.Warnf("effect %s: ignoring malformed cache entry %s", name, key[:12])
		return false
	}
	c.setSources(src)
	return true
}

func (c *CompiledEffect) sources() compiledSources {
	return compiledSources{
		Init:            c.Init,
		Update:          c.Update,
		Render:          c.Render,
		Textures:        c.Textures,
		InitFunctions:   c.InitFunctions,
		UpdateFunctions: c.UpdateFunctions,
		RenderFunctions: c.RenderFunctions,
	}
}

func (c *CompiledEffect) setSources(s compiledSources) {
	c.Init = s.Init
	c.Update = s.Update
	c.Render = s.Render
	c.Textures = s.Textures
	c.InitFunctions = s.InitFunctions
	c.UpdateFunctions = s.UpdateFunctions
	c.RenderFunctions = s.RenderFunctions
}

func (c *CompiledEffect) validate() error {
	if err := shaders.Validate(c.Init); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	for g, src := range c.Update {
		if err := shaders.Validate(src); err != nil {
			return fmt.Errorf("update group %d: %w", g, err)
		}
	}
	for g, src := range c.Render {
		if err := shaders.Validate(src); err != nil {
			return fmt.Errorf("render group %d: %w", g, err)
		}
	}
	return nil
}

type compiler struct {
	asset *EffectAsset
	out   *CompiledEffect
	name  string
}

func (c *compiler) errorf(format string, args ...any) error {
	return fmt.Errorf("compile %s: "+format, append([]any{c.name}, args...)...)
}

// common fills the placeholders every stage shares.
func (c *compiler) common(group uint32, functions string) map[string]string {
	return map[string]string{
		"ATTRIBUTES":  c.out.ParticleLayout.GenerateCode(),
		"PROPERTIES":  c.out.PropertyLayout.GenerateCode(),
		"GROUP_INDEX": fmt.Sprint(group),
		"FUNCTIONS":   functions,
	}
}

func (c *compiler) propertiesBinding(group, binding int) string {
	if c.out.PropertyLayout.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("@group(%d) @binding(%d) var<storage, read> properties: Properties;", group, binding)
}

func (c *compiler) compileInit() error {
	w := shader.NewShaderWriter(shader.ContextInit, c.out.PropertyLayout, c.out.ParticleLayout)
	for _, e := range c.out.ParticleLayout.Entries() {
		a, ok := graph.AttributeFromName(e.Name)
		if !ok {
			continue
		}
		if def := a.DefaultValue(); def != graph.ZeroValue(a.Type()) {
			w.AppendMainCode(fmt.Sprintf("particle.%s = %s;\n", a.Name(), def.WGSL()))
		}
	}
	for i, m := range c.asset.InitModifiersForGroup(0) {
		if err := m.Apply(c.asset.Module(), w); err != nil {
			return c.errorf("init modifier %d (%T): %w", i, m, err)
		}
	}
	values := c.common(0, w.Functions().Code())
	values["PROPERTIES_BINDING"] = c.propertiesBinding(1, 3)
	values["INIT_CODE"] = indent(w.MainCode())
	values["SIMULATION_SPACE_INIT"] = c.simulationSpaceInit()
	src, err := shaders.Assemble(shaders.StageInit, values)
	if err != nil {
		return c.errorf("init: %w", err)
	}
	c.out.Init = src
	c.out.InitFunctions = w.Functions().Len()
	return nil
}

// simulationSpaceInit moves freshly spawned particles into world space when
// the effect simulates globally.
func (c *compiler) simulationSpaceInit() string {
	if c.asset.SimulationSpace() != SimulationSpaceGlobal {
		return ""
	}
	var b strings.Builder
	if c.out.ParticleLayout.Contains(graph.AttrPosition) {
		b.WriteString("    particle.position = vec4<f32>(particle.position, 1.0) * spawner.transform;\n")
	}
	if c.out.ParticleLayout.Contains(graph.AttrVelocity) {
		b.WriteString("    particle.velocity = vec4<f32>(particle.velocity, 0.0) * spawner.transform;\n")
	}
	return b.String()
}

func (c *compiler) compileUpdate() error {
	particles := c.out.ParticleLayout
	base := shader.NewShaderWriter(shader.ContextUpdate, c.out.PropertyLayout, particles)
	integrate := particles.Contains(graph.AttrPosition) && particles.Contains(graph.AttrVelocity)
	const integration = "particle.position += particle.velocity * sim_params.delta_time;\n"

	groups := c.asset.GroupCount()
	writers := make([]*shader.ShaderWriter, groups)
	for g := range groups {
		w := base.ForGroup(g)
		if particles.Contains(graph.AttrAge) {
			w.AppendMainCode("particle.age += sim_params.delta_time;\n")
			if particles.Contains(graph.AttrLifetime) {
				w.AppendMainCode("is_alive = is_alive && (particle.age < particle.lifetime);\n")
			}
		}
		if integrate && c.asset.MotionIntegration() == MotionPreUpdate {
			w.AppendMainCode(integration)
		}
		for i, m := range c.asset.UpdateModifiersForGroup(g) {
			if err := m.Apply(c.asset.Module(), w); err != nil {
				return c.errorf("update modifier %d (%T) group %d: %w", i, m, g, err)
			}
		}
		if integrate && c.asset.MotionIntegration() == MotionPostUpdate {
			w.AppendMainCode(integration)
		}
		writers[g] = w
	}

	// Functions are shared across groups, so sources are assembled once every
	// group has registered its own.
	functions := base.Functions().Code()
	c.out.Update = make([]string, groups)
	for g, w := range writers {
		values := c.common(uint32(g), functions)
		values["PROPERTIES_BINDING"] = c.propertiesBinding(1, 3)
		values["UPDATE_CODE"] = indent(w.MainCode())
		src, err := shaders.Assemble(shaders.StageUpdate, values)
		if err != nil {
			return c.errorf("update group %d: %w", g, err)
		}
		c.out.Update[g] = src
	}
	c.out.UpdateFunctions = base.Functions().Len()
	return nil
}

func (c *compiler) compileRender() error {
	particles := c.out.ParticleLayout
	base := shader.NewRenderContext(c.out.PropertyLayout, particles)
	alpha := c.asset.AlphaMode()

	groups := c.asset.GroupCount()
	contexts := make([]*shader.RenderContext, groups)
	for g := range groups {
		ctx := base.ForGroup(g)
		for i, m := range c.asset.RenderModifiersForGroup(g) {
			if err := m.ApplyRender(c.asset.Module(), ctx); err != nil {
				return c.errorf("render modifier %d (%T) group %d: %w", i, m, g, err)
			}
		}
		if alpha.IsMask() {
			cutoff, err := c.asset.Module().Eval(alpha.Cutoff, ctx)
			if err == nil {
				var typ graph.ValueType
				if typ, err = c.asset.Module().TypeOf(alpha.Cutoff, ctx); err == nil && typ != graph.TypeFloat {
					err = &graph.ExprError{Handle: alpha.Cutoff, Err: graph.ErrTypeMismatch, Detail: "alpha cutoff must be f32, got " + typ.String()}
				}
			}
			if err != nil {
				return c.errorf("alpha mask group %d: %w", g, err)
			}
			ctx.SetAlphaCutoff(cutoff)
		}
		contexts[g] = ctx
	}

	functions := base.Functions().Code()
	c.out.Render = make([]string, groups)
	c.out.Textures = make([]string, groups)
	for g, ctx := range contexts {
		values := c.common(uint32(g), functions)
		values["PROPERTIES_BINDING"] = c.propertiesBinding(1, 4)
		values["MATERIAL_BINDINGS"] = materialBindings(ctx)
		values["PARTICLE_POSITION"] = "vec3<f32>(0.0, 0.0, 0.0)"
		if particles.Contains(graph.AttrPosition) {
			values["PARTICLE_POSITION"] = "particle.position"
		}
		values["SIMULATION_SPACE_RENDER"] = ""
		if c.asset.SimulationSpace() == SimulationSpaceLocal {
			values["SIMULATION_SPACE_RENDER"] = "    position = (effect.world_from_local * vec4<f32>(position, 1.0)).xyz;\n"
		}
		values["VERTEX_INPUTS"] = vertexInputs(particles)
		values["VERTEX_CODE"] = indent(ctx.VertexCode())
		values["VERTEX_POSITION"] = vertexPosition(ctx.ScreenSpaceSize())
		values["ALPHA_CUTOFF"] = "0.0"
		if ctx.AlphaCutoff() != "" {
			values["ALPHA_CUTOFF"] = ctx.AlphaCutoff()
		}
		values["FRAGMENT_CODE"] = indent(ctx.FragmentCode())
		values["ALPHA_MODE"] = alphaModeCode(alpha)
		src, err := shaders.Assemble(shaders.StageRender, values)
		if err != nil {
			return c.errorf("render group %d: %w", g, err)
		}
		c.out.Render[g] = src
		c.out.Textures[g] = ctx.Texture()
	}
	c.out.RenderFunctions = base.Functions().Len()
	return nil
}

func materialBindings(ctx *shader.RenderContext) string {
	if ctx.Texture() == "" {
		return ""
	}
	return "@group(2) @binding(0) var particle_texture: texture_2d<f32>;\n" +
		"@group(2) @binding(1) var particle_sampler: sampler;\n"
}

// vertexInputs seeds the render locals from the attributes the particle
// carries.
func vertexInputs(particles *layout.ParticleLayout) string {
	var b strings.Builder
	for _, in := range []struct {
		attr graph.Attribute
		code string
	}{
		{graph.AttrColor, "color = unpack4x8unorm(particle.color);"},
		{graph.AttrHDRColor, "color = particle.hdr_color;"},
		{graph.AttrAlpha, "color.a = particle.alpha;"},
		{graph.AttrSize, "size = vec2<f32>(particle.size, particle.size);"},
		{graph.AttrSize2, "size = particle.size2;"},
		{graph.AttrAxisX, "axis_x = particle.axis_x;"},
		{graph.AttrAxisY, "axis_y = particle.axis_y;"},
		{graph.AttrAxisZ, "axis_z = particle.axis_z;"},
	} {
		if particles.Contains(in.attr) {
			b.WriteString("    " + in.code + "\n")
		}
	}
	return b.String()
}

func vertexPosition(screenSpace bool) string {
	if screenSpace {
		return `    let clip_center = view.clip_from_world * vec4<f32>(position, 1.0);
    out.position = clip_center + vec4<f32>(corner * size * 2.0 / view.viewport_size * clip_center.w, 0.0, 0.0);`
	}
	return `    let world_position = position + axis_x * (corner.x * size.x) + axis_y * (corner.y * size.y);
    out.position = view.clip_from_world * vec4<f32>(world_position, 1.0);`
}

func alphaModeCode(a AlphaMode) string {
	switch a.Kind {
	case AlphaMaskKind:
		return "    if (color.a < alpha_cutoff) {\n        discard;\n    }"
	case AlphaPremultiplyKind:
		return "    color = vec4<f32>(color.rgb * color.a, color.a);"
	}
	return ""
}

// indent shifts generated main code into a function body.
func indent(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.SplitAfter(code, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l == "" || l == "\n" {
			b.WriteString(l)
			continue
		}
		b.WriteString("    " + l)
	}
	return b.String()
}
