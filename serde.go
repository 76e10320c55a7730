package vfx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
	"github.com/gekko3d/vfx/modifier"
	"github.com/gekko3d/vfx/shader"
)

type effectAssetYAML struct {
	Name                string                     `yaml:"name"`
	Capacities          []uint32                   `yaml:"capacities,flow"`
	Spawner             Spawner                    `yaml:"spawner"`
	ZLayer2D            float32                    `yaml:"z_layer_2d"`
	SimulationSpace     SimulationSpace            `yaml:"simulation_space"`
	SimulationCondition SimulationCondition        `yaml:"simulation_condition"`
	InitModifiers       []modifier.GroupedModifier `yaml:"init_modifiers,omitempty"`
	UpdateModifiers     []modifier.GroupedModifier `yaml:"update_modifiers,omitempty"`
	RenderModifiers     []modifier.GroupedModifier `yaml:"render_modifiers,omitempty"`
	Properties          []layout.Property          `yaml:"properties,omitempty"`
	MotionIntegration   MotionIntegration          `yaml:"motion_integration"`
	Module              *graph.Module              `yaml:"module"`
	AlphaMode           AlphaMode                  `yaml:"alpha_mode"`
}

func (e *EffectAsset) MarshalYAML() (any, error) {
	return effectAssetYAML{
		Name:                e.name,
		Capacities:          e.capacities,
		Spawner:             e.spawner,
		ZLayer2D:            e.zLayer2D,
		SimulationSpace:     e.simulationSpace,
		SimulationCondition: e.simulationCondition,
		InitModifiers:       e.initModifiers,
		UpdateModifiers:     e.updateModifiers,
		RenderModifiers:     e.renderModifiers,
		Properties:          e.properties,
		MotionIntegration:   e.motionIntegration,
		Module:              e.module,
		AlphaMode:           e.alphaMode,
	}, nil
}

// UnmarshalYAML decodes an asset and checks the invariants the builder
// methods enforce with panics.
func (e *EffectAsset) UnmarshalYAML(node *yaml.Node) error {
	var raw effectAssetYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if len(raw.Capacities) == 0 {
		return errors.New("effect needs at least one particle group")
	}
	if len(raw.Capacities) > shader.MaxGroups {
		return fmt.Errorf("effect has %d particle groups, at most %d are supported", len(raw.Capacities), shader.MaxGroups)
	}
	for i, c := range raw.Capacities {
		if c == 0 {
			return fmt.Errorf("particle group %d has zero capacity", i)
		}
	}
	if raw.Module == nil {
		raw.Module = graph.NewModule()
	}
	seen := make(map[string]bool, len(raw.Properties))
	for _, p := range raw.Properties {
		if seen[p.Name] {
			return fmt.Errorf("property %q already exists", p.Name)
		}
		seen[p.Name] = true
	}
	for _, phase := range []struct {
		ctx  shader.ModifierContext
		mods []modifier.GroupedModifier
	}{
		{shader.ContextInit, raw.InitModifiers},
		{shader.ContextUpdate, raw.UpdateModifiers},
		{shader.ContextRender, raw.RenderModifiers},
	} {
		for i, gm := range phase.mods {
			if !gm.Modifier.Context().Contains(phase.ctx) {
				return fmt.Errorf("%s modifier %d: %T does not support the %s phase", phase.ctx, i, gm.Modifier, phase.ctx)
			}
			if _, ok := gm.Modifier.(modifier.RenderModifier); phase.ctx == shader.ContextRender && !ok {
				return fmt.Errorf("render modifier %d: %T is not a render modifier", i, gm.Modifier)
			}
		}
	}

	*e = EffectAsset{
		name:                raw.Name,
		capacities:          raw.Capacities,
		spawner:             raw.Spawner,
		zLayer2D:            raw.ZLayer2D,
		simulationSpace:     raw.SimulationSpace,
		simulationCondition: raw.SimulationCondition,
		initModifiers:       nilIfEmpty(raw.InitModifiers),
		updateModifiers:     nilIfEmpty(raw.UpdateModifiers),
		renderModifiers:     nilIfEmpty(raw.RenderModifiers),
		properties:          nilIfEmpty(raw.Properties),
		motionIntegration:   raw.MotionIntegration,
		module:              raw.Module,
		alphaMode:           raw.AlphaMode,
	}
	return nil
}

func nilIfEmpty[T any](s []T) []T {
	if len(s) == 0 {
		return nil
	}
	return s
}

// Encode writes asset as an .effect YAML document.
func Encode(asset *EffectAsset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(asset); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses an .effect YAML document. An empty document is an error.
func Decode(data []byte) (*EffectAsset, error) {
	var asset EffectAsset
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&asset); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty effect document")
		}
		return nil, err
	}
	return &asset, nil
}
