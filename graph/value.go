package graph

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// ScalarKind is the component kind of a value type.
type ScalarKind uint8

const (
	ScalarBool ScalarKind = iota
	ScalarFloat
	ScalarInt
	ScalarUint
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBool:
		return "bool"
	case ScalarFloat:
		return "f32"
	case ScalarInt:
		return "i32"
	case ScalarUint:
		return "u32"
	}
	return fmt.Sprintf("ScalarKind(%d)", uint8(k))
}

// ValueType is a scalar (Count == 1) or vector (Count 2..4) type.
type ValueType struct {
	Kind  ScalarKind
	Count uint8
}

var (
	TypeBool  = ValueType{ScalarBool, 1}
	TypeFloat = ValueType{ScalarFloat, 1}
	TypeInt   = ValueType{ScalarInt, 1}
	TypeUint  = ValueType{ScalarUint, 1}

	TypeVec2 = ValueType{ScalarFloat, 2}
	TypeVec3 = ValueType{ScalarFloat, 3}
	TypeVec4 = ValueType{ScalarFloat, 4}

	TypeIVec2 = ValueType{ScalarInt, 2}
	TypeIVec3 = ValueType{ScalarInt, 3}
	TypeIVec4 = ValueType{ScalarInt, 4}

	TypeUVec2 = ValueType{ScalarUint, 2}
	TypeUVec3 = ValueType{ScalarUint, 3}
	TypeUVec4 = ValueType{ScalarUint, 4}

	TypeBVec2 = ValueType{ScalarBool, 2}
	TypeBVec3 = ValueType{ScalarBool, 3}
	TypeBVec4 = ValueType{ScalarBool, 4}
)

// VectorOf returns the vector type with count components of kind.
func VectorOf(kind ScalarKind, count uint8) ValueType {
	return ValueType{Kind: kind, Count: count}
}

func (t ValueType) IsValid() bool {
	return t.Kind <= ScalarUint && t.Count >= 1 && t.Count <= 4
}

func (t ValueType) IsScalar() bool  { return t.Count == 1 }
func (t ValueType) IsVector() bool  { return t.Count > 1 }
func (t ValueType) IsFloat() bool   { return t.Kind == ScalarFloat }
func (t ValueType) IsBool() bool    { return t.Kind == ScalarBool }
func (t ValueType) IsNumeric() bool { return t.IsValid() && t.Kind != ScalarBool }

// Scalar returns the component type.
func (t ValueType) Scalar() ValueType {
	return ValueType{Kind: t.Kind, Count: 1}
}

// Size is the byte size of the type in a host-shareable WGSL buffer.
// A vec3 is 12 bytes, so a 4-byte member may follow in its alignment tail.
func (t ValueType) Size() uint32 {
	return 4 * uint32(t.Count)
}

// Align is the WGSL alignment of the type: 4, 8, 16, 16 for 1..4 components.
func (t ValueType) Align() uint32 {
	switch t.Count {
	case 1:
		return 4
	case 2:
		return 8
	default:
		return 16
	}
}

// WGSL returns the type name as written in shader source.
func (t ValueType) WGSL() string {
	if t.Count <= 1 {
		return t.Kind.String()
	}
	return fmt.Sprintf("vec%d<%s>", t.Count, t.Kind)
}

func (t ValueType) String() string { return t.WGSL() }

var typeNames = map[ValueType]string{
	TypeBool: "Bool", TypeFloat: "Float", TypeInt: "Int", TypeUint: "Uint",
	TypeVec2: "Vec2", TypeVec3: "Vec3", TypeVec4: "Vec4",
	TypeIVec2: "IVec2", TypeIVec3: "IVec3", TypeIVec4: "IVec4",
	TypeUVec2: "UVec2", TypeUVec3: "UVec3", TypeUVec4: "UVec4",
	TypeBVec2: "BVec2", TypeBVec3: "BVec3", TypeBVec4: "BVec4",
}

// Name is the short serialized name of the type ("Float", "Vec3", ...).
func (t ValueType) Name() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return t.WGSL()
}

// ParseValueType accepts either the short name or the WGSL spelling.
func ParseValueType(s string) (ValueType, bool) {
	for t, n := range typeNames {
		if n == s || t.WGSL() == s {
			return t, true
		}
	}
	return ValueType{}, false
}

// Value is a typed constant. Components are stored as raw 32-bit patterns,
// which is also their GPU representation.
type Value struct {
	typ  ValueType
	bits [4]uint32
}

func Bool(b bool) Value   { return BoolVector(b) }
func Float(f float32) Value {
	return Value{typ: TypeFloat, bits: [4]uint32{math.Float32bits(f)}}
}
func Int(i int32) Value   { return Value{typ: TypeInt, bits: [4]uint32{uint32(i)}} }
func Uint(u uint32) Value { return Value{typ: TypeUint, bits: [4]uint32{u}} }

func Vec2(v mgl32.Vec2) Value { return floats(v[:]) }
func Vec3(v mgl32.Vec3) Value { return floats(v[:]) }
func Vec4(v mgl32.Vec4) Value { return floats(v[:]) }

func floats(v []float32) Value {
	out := Value{typ: ValueType{ScalarFloat, uint8(len(v))}}
	for i, f := range v {
		out.bits[i] = math.Float32bits(f)
	}
	return out
}

// IntVector builds an i32 scalar or vector from 1..4 components.
func IntVector(v ...int32) Value {
	checkCount(len(v))
	out := Value{typ: ValueType{ScalarInt, uint8(len(v))}}
	for i, x := range v {
		out.bits[i] = uint32(x)
	}
	return out
}

// UintVector builds a u32 scalar or vector from 1..4 components.
func UintVector(v ...uint32) Value {
	checkCount(len(v))
	out := Value{typ: ValueType{ScalarUint, uint8(len(v))}}
	copy(out.bits[:], v)
	return out
}

// BoolVector builds a bool scalar or vector from 1..4 components.
func BoolVector(v ...bool) Value {
	checkCount(len(v))
	out := Value{typ: ValueType{ScalarBool, uint8(len(v))}}
	for i, b := range v {
		if b {
			out.bits[i] = 1
		}
	}
	return out
}

func checkCount(n int) {
	if n < 1 || n > 4 {
		panic(fmt.Sprintf("graph: vector must have 1 to 4 components, got %d", n))
	}
}

// ZeroValue returns the zero value of t.
func ZeroValue(t ValueType) Value {
	return Value{typ: t}
}

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsValid() bool   { return v.typ.IsValid() }

// Bits returns the raw 32-bit pattern of component i.
func (v Value) Bits(i int) uint32 { return v.bits[i] }

func (v Value) Float() float32 { return math.Float32frombits(v.bits[0]) }
func (v Value) Int() int32     { return int32(v.bits[0]) }
func (v Value) Uint() uint32   { return v.bits[0] }
func (v Value) Bool() bool     { return v.bits[0] != 0 }

func (v Value) Vec2() mgl32.Vec2 {
	return mgl32.Vec2{v.floatAt(0), v.floatAt(1)}
}

func (v Value) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{v.floatAt(0), v.floatAt(1), v.floatAt(2)}
}

func (v Value) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{v.floatAt(0), v.floatAt(1), v.floatAt(2), v.floatAt(3)}
}

func (v Value) floatAt(i int) float32 { return math.Float32frombits(v.bits[i]) }

// WGSL renders the value as a shader literal.
func (v Value) WGSL() string {
	parts := make([]string, v.typ.Count)
	for i := range parts {
		parts[i] = v.componentWGSL(i)
	}
	if v.typ.Count == 1 {
		return parts[0]
	}
	return fmt.Sprintf("%s(%s)", v.typ.WGSL(), strings.Join(parts, ", "))
}

func (v Value) componentWGSL(i int) string {
	switch v.typ.Kind {
	case ScalarBool:
		return strconv.FormatBool(v.bits[i] != 0)
	case ScalarFloat:
		return FormatFloat(v.floatAt(i))
	case ScalarInt:
		return strconv.FormatInt(int64(int32(v.bits[i])), 10)
	default:
		return strconv.FormatUint(uint64(v.bits[i]), 10) + "u"
	}
}

func (v Value) String() string { return v.WGSL() }

// Bytes returns the little-endian GPU encoding of the value, Size() bytes long.
func (v Value) Bytes() []byte {
	buf := make([]byte, v.typ.Size())
	for i := 0; i < int(v.typ.Count); i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], v.bits[i])
	}
	return buf
}

// FormatFloat renders f as a WGSL float literal which always carries a
// decimal point or an exponent.
func FormatFloat(f float32) string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 32)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

// Fingerprint is a canonical text form of the value where -0 and 0 compare
// equal.
func (v Value) Fingerprint() string {
	if v.typ.Kind != ScalarFloat {
		return v.typ.Name() + ":" + v.WGSL()
	}
	parts := make([]string, v.typ.Count)
	for i := range parts {
		parts[i] = canonicalFloat(v.floatAt(i))
	}
	return v.typ.Name() + ":" + strings.Join(parts, ",")
}
