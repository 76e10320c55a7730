// Command effectc compiles .effect assets to WGSL.
//
// Usage:
//
//	effectc [options] <input.effect>
//
// Examples:
//
//	effectc fire.effect                 # Print every generated source
//	effectc -o out/ fire.effect         # Write one .wgsl file per phase and group
//	effectc -layouts fire.effect        # Print buffer layouts and bind groups
//	effectc -simulate 120 fire.effect   # Print per-frame spawn counts
//	effectc -example > fountain.effect  # Emit a sample asset
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/gekko3d/vfx"
	"github.com/gekko3d/vfx/cache"
	"github.com/gekko3d/vfx/gpu"
	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/modifier"
	"github.com/gekko3d/vfx/shader"
)

var (
	output      = flag.String("o", "", "output directory (default: stdout)")
	debug       = flag.Bool("debug", false, "enable debug logging")
	validate    = flag.Bool("validate", true, "parse generated WGSL with naga")
	useCache    = flag.Bool("cache", false, "reuse compiled output across runs")
	layouts     = flag.Bool("layouts", false, "print buffer layouts and bind group layouts")
	example     = flag.Bool("example", false, "print a sample .effect asset and exit")
	simulate    = flag.Int("simulate", 0, "tick the spawner for this many 60 Hz frames and print the buffers it feeds")
	profileMode = flag.String("profile", "", "write a cpu or mem profile to the current directory")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	os.Exit(realMain())
}

// realMain returns the exit code so deferred profile writers run before
// main exits.
func realMain() int {
	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown profile mode %q\n", *profileMode)
		return 2
	}

	logger := vfx.NewDefaultLogger("effectc", *debug)
	if err := run(logger); err != nil {
		logger.Errorf("%v", err)
		return 1
	}
	return 0
}

func run(logger vfx.Logger) error {
	if *example {
		data, err := vfx.Encode(exampleEffect())
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		return fmt.Errorf("no input file specified")
	}

	opts := vfx.DefaultCompileOptions()
	opts.Validate = *validate
	opts.Logger = logger
	// Inputs listed twice compile once; -cache adds the on-disk store behind.
	mem := cache.NewMemory()
	if *useCache {
		store, err := cache.Open("gekko-vfx")
		if err != nil {
			logger.Warnf("persistent cache disabled: %v", err)
		} else {
			mem = cache.NewMemoryOver(store)
		}
	}
	opts.Cache = mem
	defer func() { logger.Debugf("cache: %d entries, %d hits", mem.Len(), mem.Hits()) }()

	server := vfx.NewAssetServer(opts)
	for _, path := range args {
		id, err := server.Load(path)
		if err != nil {
			return err
		}
		compiled, err := server.Compiled(id)
		if err != nil {
			return err
		}
		if *simulate > 0 {
			asset, _ := server.Get(id)
			if err := printSpawns(asset, compiled, *simulate); err != nil {
				return err
			}
			continue
		}
		if *layouts {
			if err := printLayouts(compiled); err != nil {
				return err
			}
			continue
		}
		if err := emit(path, compiled, logger); err != nil {
			return err
		}
	}
	return nil
}

type source struct {
	name string
	code string
}

func sources(base string, c *vfx.CompiledEffect) []source {
	out := []source{{base + ".init.wgsl", c.Init}}
	for g, code := range c.Update {
		out = append(out, source{fmt.Sprintf("%s.update.%d.wgsl", base, g), code})
	}
	for g, code := range c.Render {
		out = append(out, source{fmt.Sprintf("%s.render.%d.wgsl", base, g), code})
	}
	return out
}

func emit(path string, c *vfx.CompiledEffect, logger vfx.Logger) error {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if *output == "" {
		for _, s := range sources(base, c) {
			fmt.Printf("// ---- %s ----\n%s\n", s.name, s.code)
		}
		return nil
	}
	if err := os.MkdirAll(*output, 0o755); err != nil {
		return err
	}
	for _, s := range sources(base, c) {
		dst := filepath.Join(*output, s.name)
		if err := os.WriteFile(dst, []byte(s.code), 0o644); err != nil {
			return err
		}
		logger.Infof("wrote %s (%d bytes)", dst, len(s.code))
	}
	return nil
}

func printLayouts(c *vfx.CompiledEffect) error {
	fmt.Printf("effect %q, capacities %v, fingerprint %s\n", c.Name, c.Capacities, c.Fingerprint())
	fmt.Printf("Particle: size %d, align %d\n", c.ParticleLayout.Size(), c.ParticleLayout.Align())
	for _, e := range c.ParticleLayout.Entries() {
		fmt.Printf("  %-10s %-10s offset %3d size %2d\n", e.Name, e.Type, e.Offset, e.Size)
	}
	fmt.Printf("Properties: size %d, align %d\n", c.PropertyLayout.Size(), c.PropertyLayout.Align())
	for _, e := range c.PropertyLayout.Entries() {
		fmt.Printf("  %-10s %-10s offset %3d size %2d default %s\n", e.Name, e.Type, e.Offset, e.Size, e.Default)
	}

	textured := false
	for _, t := range c.Textures {
		textured = textured || t != ""
	}
	l := gpu.EffectLayouts{Particles: c.ParticleLayout, Properties: c.PropertyLayout, Textured: textured}
	for _, phase := range []shader.ModifierContext{shader.ContextInit, shader.ContextUpdate, shader.ContextRender} {
		descs, err := gpu.BindGroupLayouts(phase, l)
		if err != nil {
			return err
		}
		fmt.Printf("%s bind groups:\n", phase)
		for g, d := range descs {
			fmt.Printf("  @group(%d) %s:", g, d.Label)
			for _, e := range d.Entries {
				fmt.Printf(" %d", e.Binding)
				if e.Buffer.MinBindingSize > 0 {
					fmt.Printf("(%dB)", e.Buffer.MinBindingSize)
				}
			}
			fmt.Println()
		}
	}
	return nil
}

func printSpawns(asset *vfx.EffectAsset, c *vfx.CompiledEffect, frames int) error {
	props, err := gpu.EncodeProperties(c.PropertyLayout, nil)
	if err != nil {
		return err
	}
	fmt.Printf("effect %q, properties buffer %d bytes: % x\n", c.Name, len(props), props)

	spawner := vfx.NewEffectSpawner(asset.Spawner(), 1)
	clock := gpu.NewClock()
	total := uint32(0)
	for range frames {
		sim := clock.Advance(1.0 / 60)
		n := spawner.Tick(sim.DeltaTime)
		total += n
		params := gpu.SpawnerParams{Transform: mgl32.Ident4(), Spawn: int32(n), Seed: sim.Frame}
		fmt.Printf("frame %4d t=%7.3fs spawn %4d total %6d (%d+%d bytes)\n",
			sim.Frame, sim.Time, n, total, len(sim.Bytes()), len(params.Bytes()))
	}
	return nil
}

// exampleEffect is a fountain with a spark trail cloned into a second group.
func exampleEffect() *vfx.EffectAsset {
	m := graph.NewModule()
	lifetime := m.Lit(graph.Float(2))
	center := m.Lit(graph.Vec3(mgl32.Vec3{}))
	radius := m.Lit(graph.Float(0.2))
	speed := m.Prop("speed")
	gravity := m.Lit(graph.Vec3(mgl32.Vec3{0, -9.8, 0}))
	drag := m.Lit(graph.Float(0.3))
	cutoff := m.Lit(graph.Float(0.1))

	gradient := graph.NewGradient[mgl32.Vec4]().
		AddKey(0, mgl32.Vec4{1, 0.8, 0.2, 1}).
		AddKey(1, mgl32.Vec4{1, 0.1, 0, 0})

	return vfx.NewEffectAsset([]uint32{4096, 4096}, vfx.Rate(graph.Single[float32](200)), m).
		WithName("fountain").
		WithProperty("speed", graph.Float(4)).
		WithAlphaMode(vfx.AlphaMask(cutoff)).
		Init(modifier.NewSetAttribute(graph.AttrLifetime, lifetime)).
		Init(modifier.SetPositionSphereModifier{Center: center, Radius: radius, Dimension: modifier.ShapeSurface}).
		Init(modifier.SetVelocitySphereModifier{Center: center, Speed: speed}).
		Update(modifier.NewAccel(gravity)).
		Update(modifier.LinearDragModifier{Drag: drag}).
		UpdateGroups(modifier.NewClone(0.1, 1), shader.SingleGroup(0)).
		Render(modifier.ColorOverLifetimeModifier{Gradient: gradient}).
		Render(modifier.SetSizeModifier{Size: graph.Uniform(mgl32.Vec2{0.05, 0.05}, mgl32.Vec2{0.1, 0.1})}).
		Render(modifier.OrientModifier{Mode: modifier.OrientFaceCameraPosition})
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: effectc [options] <input%s>...\n\nOptions:\n", vfx.EffectExtension)
	flag.PrintDefaults()
}
