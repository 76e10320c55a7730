package graph

import "github.com/go-gl/mathgl/mgl32"

// Attribute is a named, typed per-particle field. The set of attributes is
// fixed; values outside the registry cannot be constructed.
type Attribute struct {
	name string
	typ  ValueType
}

var (
	AttrPosition = Attribute{"position", TypeVec3}
	AttrVelocity = Attribute{"velocity", TypeVec3}
	AttrAge      = Attribute{"age", TypeFloat}
	AttrLifetime = Attribute{"lifetime", TypeFloat}
	// AttrColor is an RGBA8 color packed into a u32.
	AttrColor    = Attribute{"color", TypeUint}
	AttrHDRColor = Attribute{"hdr_color", TypeVec4}
	AttrAlpha    = Attribute{"alpha", TypeFloat}
	AttrSize     = Attribute{"size", TypeFloat}
	AttrSize2    = Attribute{"size2", TypeVec2}
	AttrAxisX    = Attribute{"axis_x", TypeVec3}
	AttrAxisY    = Attribute{"axis_y", TypeVec3}
	AttrAxisZ    = Attribute{"axis_z", TypeVec3}
	AttrPrev     = Attribute{"prev", TypeUint}
	AttrNext     = Attribute{"next", TypeUint}

	AttrF32_0   = Attribute{"f32_0", TypeFloat}
	AttrF32_1   = Attribute{"f32_1", TypeFloat}
	AttrF32_2   = Attribute{"f32_2", TypeFloat}
	AttrF32_3   = Attribute{"f32_3", TypeFloat}
	AttrF32x2_0 = Attribute{"f32x2_0", TypeVec2}
	AttrF32x2_1 = Attribute{"f32x2_1", TypeVec2}
	AttrF32x3_0 = Attribute{"f32x3_0", TypeVec3}
	AttrF32x3_1 = Attribute{"f32x3_1", TypeVec3}
	AttrF32x4_0 = Attribute{"f32x4_0", TypeVec4}
	AttrF32x4_1 = Attribute{"f32x4_1", TypeVec4}
)

var allAttributes = []Attribute{
	AttrPosition, AttrVelocity, AttrAge, AttrLifetime, AttrColor, AttrHDRColor,
	AttrAlpha, AttrSize, AttrSize2, AttrAxisX, AttrAxisY, AttrAxisZ, AttrPrev,
	AttrNext, AttrF32_0, AttrF32_1, AttrF32_2, AttrF32_3, AttrF32x2_0,
	AttrF32x2_1, AttrF32x3_0, AttrF32x3_1, AttrF32x4_0, AttrF32x4_1,
}

var attributesByName = func() map[string]Attribute {
	m := make(map[string]Attribute, len(allAttributes))
	for _, a := range allAttributes {
		m[a.name] = a
	}
	return m
}()

// AllAttributes returns every registered attribute.
func AllAttributes() []Attribute {
	out := make([]Attribute, len(allAttributes))
	copy(out, allAttributes)
	return out
}

// AttributeFromName looks up a registered attribute.
func AttributeFromName(name string) (Attribute, bool) {
	a, ok := attributesByName[name]
	return a, ok
}

func (a Attribute) Name() string    { return a.name }
func (a Attribute) Type() ValueType { return a.typ }
func (a Attribute) Size() uint32    { return a.typ.Size() }
func (a Attribute) Align() uint32   { return a.typ.Align() }
func (a Attribute) IsValid() bool   { return a.name != "" }
func (a Attribute) String() string  { return a.name }

// DefaultValue is the value a freshly spawned particle holds when no init
// modifier writes the attribute.
func (a Attribute) DefaultValue() Value {
	switch a {
	case AttrColor:
		return Uint(0xFFFFFFFF)
	case AttrHDRColor:
		return Vec4(mgl32.Vec4{1, 1, 1, 1})
	case AttrAlpha, AttrSize:
		return Float(1)
	case AttrSize2:
		return Vec2(mgl32.Vec2{1, 1})
	case AttrAxisX:
		return Vec3(mgl32.Vec3{1, 0, 0})
	case AttrAxisY:
		return Vec3(mgl32.Vec3{0, 1, 0})
	case AttrAxisZ:
		return Vec3(mgl32.Vec3{0, 0, 1})
	}
	return ZeroValue(a.typ)
}
