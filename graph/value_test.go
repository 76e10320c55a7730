package graph

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueType_SizeAlign(t *testing.T) {
	cases := []struct {
		typ   ValueType
		size  uint32
		align uint32
		wgsl  string
	}{
		{TypeFloat, 4, 4, "f32"},
		{TypeUint, 4, 4, "u32"},
		{TypeVec2, 8, 8, "vec2<f32>"},
		{TypeVec3, 12, 16, "vec3<f32>"},
		{TypeVec4, 16, 16, "vec4<f32>"},
		{TypeIVec3, 12, 16, "vec3<i32>"},
		{TypeBVec2, 8, 8, "vec2<bool>"},
	}
	for _, c := range cases {
		if c.typ.Size() != c.size || c.typ.Align() != c.align {
			t.Errorf("%s: expected size/align %d/%d, got %d/%d", c.wgsl, c.size, c.align, c.typ.Size(), c.typ.Align())
		}
		assert.Equal(t, c.wgsl, c.typ.WGSL())
	}
}

func TestParseValueType(t *testing.T) {
	typ, ok := ParseValueType("Vec3")
	require.True(t, ok)
	assert.Equal(t, TypeVec3, typ)

	typ, ok = ParseValueType("vec2<u32>")
	require.True(t, ok)
	assert.Equal(t, TypeUVec2, typ)

	_, ok = ParseValueType("mat4x4<f32>")
	assert.False(t, ok)
}

func TestValue_WGSL(t *testing.T) {
	assert.Equal(t, "vec3<f32>(1.2, -3.45, 1.0)", Vec3(mgl32.Vec3{1.2, -3.45, 1}).WGSL())
	assert.Equal(t, "0.5", Float(0.5).WGSL())
	assert.Equal(t, "2.0", Float(2).WGSL())
	assert.Equal(t, "5u", Uint(5).WGSL())
	assert.Equal(t, "-2", Int(-2).WGSL())
	assert.Equal(t, "true", Bool(true).WGSL())
	assert.Equal(t, "vec2<u32>(1u, 2u)", UintVector(1, 2).WGSL())
	assert.Equal(t, "vec3<bool>(true, false, true)", BoolVector(true, false, true).WGSL())
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "1.0", FormatFloat(1))
	assert.Equal(t, "-0.25", FormatFloat(-0.25))
	assert.Equal(t, "1e+20", FormatFloat(1e20))
}

func TestValue_Bytes(t *testing.T) {
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, Float(1).Bytes())
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, UintVector(1, 2).Bytes())
	assert.Len(t, Vec3(mgl32.Vec3{}).Bytes(), 12)
}

func TestValue_Accessors(t *testing.T) {
	v := Vec4(mgl32.Vec4{1, 2, 3, 4})
	assert.Equal(t, TypeVec4, v.Type())
	assert.Equal(t, mgl32.Vec4{1, 2, 3, 4}, v.Vec4())
	assert.Equal(t, float32(1), v.Float())
	assert.Equal(t, int32(-7), Int(-7).Int())
	assert.True(t, Bool(true).Bool())
	assert.False(t, Value{}.IsValid())
}

func TestIntVector_PanicsOnBadCount(t *testing.T) {
	require.PanicsWithValue(t, "graph: vector must have 1 to 4 components, got 5", func() {
		IntVector(1, 2, 3, 4, 5)
	})
}

func TestAttribute_Registry(t *testing.T) {
	a, ok := AttributeFromName("position")
	require.True(t, ok)
	assert.Equal(t, AttrPosition, a)
	assert.Equal(t, TypeVec3, a.Type())

	_, ok = AttributeFromName("nope")
	assert.False(t, ok)

	seen := make(map[string]bool)
	for _, a := range AllAttributes() {
		if seen[a.Name()] {
			t.Errorf("attribute %s registered twice", a.Name())
		}
		seen[a.Name()] = true
	}
	assert.Len(t, seen, 24)
}

func TestAttribute_DefaultValue(t *testing.T) {
	assert.Equal(t, Uint(0xFFFFFFFF), AttrColor.DefaultValue())
	assert.Equal(t, Float(1), AttrSize.DefaultValue())
	assert.Equal(t, Vec3(mgl32.Vec3{0, 1, 0}), AttrAxisY.DefaultValue())
	assert.Equal(t, ZeroValue(TypeVec3), AttrPosition.DefaultValue())
}
