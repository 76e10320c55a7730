package layout

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vfx/graph"
)

func checkInvariants(t *testing.T, entries []Entry, size, align uint32) {
	t.Helper()
	var cursor uint32
	for _, e := range entries {
		if e.Offset%e.Align != 0 {
			t.Errorf("%s: offset %d is not a multiple of %d", e.Name, e.Offset, e.Align)
		}
		if e.Offset < cursor {
			t.Errorf("%s: offset %d overlaps previous entry ending at %d", e.Name, e.Offset, cursor)
		}
		cursor = e.Offset + e.Size
		if e.Align > align {
			t.Errorf("%s: align %d exceeds layout align %d", e.Name, e.Align, align)
		}
	}
	if size%align != 0 {
		t.Errorf("size %d is not a multiple of align %d", size, align)
	}
	if size < cursor {
		t.Errorf("size %d smaller than last entry end %d", size, cursor)
	}
}

func TestParticleLayout_Packing(t *testing.T) {
	l := NewParticleLayout().Append(graph.AttrAge, graph.AttrPosition, graph.AttrVelocity, graph.AttrLifetime).Build()

	names := make([]string, 0, l.Len())
	for _, e := range l.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"position", "velocity", "age", "lifetime"}, names)

	off, ok := l.Offset("position")
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)
	off, _ = l.Offset("velocity")
	assert.Equal(t, uint32(16), off)
	off, _ = l.Offset("age")
	assert.Equal(t, uint32(28), off)
	off, _ = l.Offset("lifetime")
	assert.Equal(t, uint32(32), off)

	assert.Equal(t, uint32(48), l.Size())
	assert.Equal(t, uint32(16), l.Align())
	checkInvariants(t, l.Entries(), l.Size(), l.Align())

	_, ok = l.Offset("color")
	assert.False(t, ok)
	assert.True(t, l.Contains(graph.AttrAge))
	assert.False(t, l.Contains(graph.AttrColor))
}

func TestParticleLayout_PermutationInvariant(t *testing.T) {
	attrs := graph.AllAttributes()
	reference := NewParticleLayout().Append(attrs...).Build()
	checkInvariants(t, reference.Entries(), reference.Size(), reference.Align())

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]graph.Attribute(nil), attrs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		n := 1 + rng.Intn(len(shuffled))
		subset := shuffled[:n]

		l := NewParticleLayout().Append(subset...).Build()
		checkInvariants(t, l.Entries(), l.Size(), l.Align())

		reversed := make([]graph.Attribute, n)
		for j := range subset {
			reversed[n-1-j] = subset[j]
		}
		if !l.Equal(NewParticleLayout().Append(reversed...).Build()) {
			t.Errorf("layout depends on insertion order for %v", subset)
		}
	}
}

func TestParticleLayout_Duplicates(t *testing.T) {
	l := NewParticleLayout().Append(graph.AttrAge, graph.AttrAge).Append(graph.AttrAge).Build()
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, uint32(4), l.Size())
}

func TestParticleLayout_Empty(t *testing.T) {
	l := EmptyParticleLayout()
	assert.Equal(t, uint32(0), l.Size())
	assert.Equal(t, uint32(4), l.Align())
	assert.True(t, l.IsEmpty())
	assert.Contains(t, l.GenerateCode(), "struct Particle {")
}

func TestParticleLayout_GenerateCode(t *testing.T) {
	l := NewParticleLayout().Append(graph.AttrAge, graph.AttrPosition).Build()
	assert.Equal(t, "struct Particle {\n    position: vec3<f32>,\n    age: f32,\n}\n", l.GenerateCode())
}

func TestPropertyLayout(t *testing.T) {
	l := NewPropertyLayout([]Property{
		NewProperty("my_prop", graph.Uint(3)),
		NewProperty("other_prop", graph.Vec3(mgl32.Vec3{1, 2, 3})),
	})

	off, ok := l.Offset("my_prop")
	require.True(t, ok)
	assert.Equal(t, uint32(12), off)
	off, ok = l.Offset("other_prop")
	require.True(t, ok)
	assert.Equal(t, uint32(0), off)
	_, ok = l.Offset("missing")
	assert.False(t, ok)

	assert.Equal(t, uint32(16), l.Size())
	assert.Equal(t, uint32(16), l.Align())

	typ, ok := l.Type("other_prop")
	require.True(t, ok)
	assert.Equal(t, graph.TypeVec3, typ)

	p, ok := l.Property("my_prop")
	require.True(t, ok)
	assert.Equal(t, graph.Uint(3), p.DefaultValue)

	assert.Equal(t, "struct Properties {\n    other_prop: vec3<f32>,\n    my_prop: u32,\n}\n", l.GenerateCode())
}

func TestPropertyLayout_Empty(t *testing.T) {
	l := NewPropertyLayout(nil)
	assert.True(t, l.IsEmpty())
	assert.Equal(t, uint32(0), l.Size())
	assert.Equal(t, uint32(4), l.Align())
	assert.Equal(t, "", l.GenerateCode())
}
