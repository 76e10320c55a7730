package graph

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Vector is the set of host types that map onto f32 shader values.
type Vector interface {
	float32 | mgl32.Vec2 | mgl32.Vec3 | mgl32.Vec4
}

func components[T Vector](v T) []float32 {
	switch v := any(v).(type) {
	case float32:
		return []float32{v}
	case mgl32.Vec2:
		return v[:]
	case mgl32.Vec3:
		return v[:]
	case mgl32.Vec4:
		return v[:]
	}
	return nil
}

func fromComponents[T Vector](c []float32) T {
	var out T
	switch p := any(&out).(type) {
	case *float32:
		*p = c[0]
	case *mgl32.Vec2:
		copy(p[:], c)
	case *mgl32.Vec3:
		copy(p[:], c)
	case *mgl32.Vec4:
		copy(p[:], c)
	}
	return out
}

// ValueOf converts a host vector into a typed shader value.
func ValueOf[T Vector](v T) Value {
	return floats(components(v))
}

// TypeOfVector returns the shader type matching T.
func TypeOfVector[T Vector]() ValueType {
	var zero T
	return VectorOf(ScalarFloat, uint8(len(components(zero))))
}

func lerp[T Vector](a, b T, t float32) T {
	ca, cb := components(a), components(b)
	out := make([]float32, len(ca))
	for i := range ca {
		out[i] = ca[i] + (cb[i]-ca[i])*t
	}
	return fromComponents[T](out)
}

// canonicalFloat formats f so that values comparing equal format equally.
func canonicalFloat(f float32) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(float64(f)):
		return "NaN"
	case math.IsInf(float64(f), 1):
		return "+Inf"
	case math.IsInf(float64(f), -1):
		return "-Inf"
	}
	return FormatFloat(f)
}

func fingerprint[T Vector](v T) string {
	c := components(v)
	parts := make([]string, len(c))
	for i, f := range c {
		parts[i] = canonicalFloat(f)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

type GradientKey[T Vector] struct {
	Ratio float32 `yaml:"ratio"`
	Value T       `yaml:"value"`
}

// Gradient is a piecewise-linear curve over [0:1] defined by keys sorted by
// ratio. Sampling before the first key or after the last one clamps.
type Gradient[T Vector] struct {
	Keys []GradientKey[T] `yaml:"keys"`
}

func NewGradient[T Vector]() *Gradient[T] {
	return &Gradient[T]{}
}

// Constant returns a gradient with a single key.
func Constant[T Vector](v T) *Gradient[T] {
	return NewGradient[T]().AddKey(0, v)
}

// AddKey inserts a key, clamping ratio to [0:1]. Keys with an equal ratio keep
// their insertion order, which produces a discontinuity.
func (g *Gradient[T]) AddKey(ratio float32, v T) *Gradient[T] {
	ratio = mgl32.Clamp(ratio, 0, 1)
	i := sort.Search(len(g.Keys), func(i int) bool { return g.Keys[i].Ratio > ratio })
	g.Keys = append(g.Keys, GradientKey[T]{})
	copy(g.Keys[i+1:], g.Keys[i:])
	g.Keys[i] = GradientKey[T]{Ratio: ratio, Value: v}
	return g
}

// Sample evaluates the gradient at ratio on the CPU.
func (g *Gradient[T]) Sample(ratio float32) T {
	var zero T
	if len(g.Keys) == 0 {
		return zero
	}
	if ratio <= g.Keys[0].Ratio {
		return g.Keys[0].Value
	}
	for i := 1; i < len(g.Keys); i++ {
		k0, k1 := g.Keys[i-1], g.Keys[i]
		if ratio <= k1.Ratio {
			if k1.Ratio <= k0.Ratio {
				return k1.Value
			}
			return lerp(k0.Value, k1.Value, (ratio-k0.Ratio)/(k1.Ratio-k0.Ratio))
		}
	}
	return g.Keys[len(g.Keys)-1].Value
}

func (g *Gradient[T]) Equal(o *Gradient[T]) bool {
	if len(g.Keys) != len(o.Keys) {
		return false
	}
	for i := range g.Keys {
		if g.Keys[i] != o.Keys[i] {
			return false
		}
	}
	return true
}

// Fingerprint is a canonical text form of the keys, used to deduplicate
// generated gradient functions.
func (g *Gradient[T]) Fingerprint() string {
	var b strings.Builder
	for _, k := range g.Keys {
		fmt.Fprintf(&b, "%s:%s;", canonicalFloat(k.Ratio), fingerprint(k.Value))
	}
	return b.String()
}

// WGSL returns a shader function named name that samples the gradient.
func (g *Gradient[T]) WGSL(name string) string {
	typ := TypeOfVector[T]()
	var b strings.Builder
	fmt.Fprintf(&b, "fn %s(key: f32) -> %s {\n", name, typ.WGSL())
	if len(g.Keys) == 0 {
		fmt.Fprintf(&b, "    return %s;\n}\n", ZeroValue(typ).WGSL())
		return b.String()
	}
	first := g.Keys[0]
	fmt.Fprintf(&b, "    if (key <= %s) {\n        return %s;\n    }\n",
		FormatFloat(first.Ratio), ValueOf(first.Value).WGSL())
	for i := 1; i < len(g.Keys); i++ {
		k0, k1 := g.Keys[i-1], g.Keys[i]
		if k1.Ratio <= k0.Ratio {
			continue
		}
		fmt.Fprintf(&b, "    if (key <= %s) {\n        return mix(%s, %s, (key - %s) / %s);\n    }\n",
			FormatFloat(k1.Ratio),
			ValueOf(k0.Value).WGSL(), ValueOf(k1.Value).WGSL(),
			FormatFloat(k0.Ratio), FormatFloat(k1.Ratio-k0.Ratio))
	}
	fmt.Fprintf(&b, "    return %s;\n}\n", ValueOf(g.Keys[len(g.Keys)-1].Value).WGSL())
	return b.String()
}
