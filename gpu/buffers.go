package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/vfx/graph"
	"github.com/gekko3d/vfx/layout"
)

// SimParams mirrors the WGSL SimParams uniform.
type SimParams struct {
	DeltaTime float32
	Time      float32
	Frame     uint32
}

func (p SimParams) Bytes() []byte {
	buf := make([]byte, SimParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(p.DeltaTime))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(p.Time))
	binary.LittleEndian.PutUint32(buf[8:], p.Frame)
	binary.LittleEndian.PutUint32(buf[12:], 0)
	return buf
}

// EncodeProperties lays out the properties buffer: each property at its
// layout offset, holding its override when one is given and its default
// otherwise.
func EncodeProperties(l *layout.PropertyLayout, overrides map[string]graph.Value) ([]byte, error) {
	for name, v := range overrides {
		typ, ok := l.Type(name)
		if !ok {
			return nil, fmt.Errorf("gpu: unknown property %q", name)
		}
		if v.Type() != typ {
			return nil, fmt.Errorf("gpu: property %q is %s, got %s", name, typ, v.Type())
		}
	}
	buf := make([]byte, l.Size())
	for _, e := range l.Entries() {
		v := e.Default
		if o, ok := overrides[e.Name]; ok {
			v = o
		}
		copy(buf[e.Offset:e.Offset+e.Size], v.Bytes())
	}
	return buf, nil
}

// SpawnerParams mirrors the WGSL Spawner struct the init pass reads.
type SpawnerParams struct {
	// Transform is the emitter's world transform.
	Transform   mgl32.Mat4
	Spawn       int32
	Seed        uint32
	EffectIndex uint32
}

// Bytes encodes the transform and its inverse as mat3x4 whose columns are
// the first three rows of the affine matrix.
func (p SpawnerParams) Bytes() []byte {
	buf := make([]byte, SpawnerSize)
	writeRows := func(offset int, m mgl32.Mat4) {
		for r := 0; r < 3; r++ {
			row := m.Row(r)
			for c := 0; c < 4; c++ {
				binary.LittleEndian.PutUint32(buf[offset+(r*4+c)*4:], math.Float32bits(row[c]))
			}
		}
	}
	writeRows(0, p.Transform)
	writeRows(48, p.Transform.Inv())
	binary.LittleEndian.PutUint32(buf[96:], uint32(p.Spawn))
	binary.LittleEndian.PutUint32(buf[100:], p.Seed)
	binary.LittleEndian.PutUint32(buf[104:], p.EffectIndex)
	binary.LittleEndian.PutUint32(buf[108:], 0)
	return buf
}
