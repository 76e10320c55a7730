package graph

import (
	"fmt"
	"math/rand"

	"gopkg.in/yaml.v3"
)

// CpuValue is either a single value or a uniform random range, sampled on the
// CPU or rendered as shader code.
type CpuValue[T Vector] struct {
	min, max T
	uniform  bool
}

func Single[T Vector](v T) CpuValue[T] {
	return CpuValue[T]{min: v, max: v}
}

// Uniform samples uniformly between a and b, component-wise.
func Uniform[T Vector](a, b T) CpuValue[T] {
	return CpuValue[T]{min: a, max: b, uniform: true}
}

func (c CpuValue[T]) IsUniform() bool { return c.uniform }

// Range returns the bounds; both are equal for a single value.
func (c CpuValue[T]) Range() (T, T) { return c.min, c.max }

// Sample draws a value. A single value never consumes randomness.
func (c CpuValue[T]) Sample(rng *rand.Rand) T {
	if !c.uniform {
		return c.min
	}
	lo, hi := components(c.min), components(c.max)
	out := make([]float32, len(lo))
	for i := range lo {
		out[i] = lo[i] + (hi[i]-lo[i])*rng.Float32()
	}
	return fromComponents[T](out)
}

// WGSL renders the value as a shader expression.
func (c CpuValue[T]) WGSL() string {
	if !c.uniform {
		return ValueOf(c.min).WGSL()
	}
	typ := TypeOfVector[T]()
	r := "frand()"
	if typ.IsVector() {
		r = fmt.Sprintf("frand%d()", typ.Count)
	}
	return fmt.Sprintf("mix(%s, %s, %s)", ValueOf(c.min).WGSL(), ValueOf(c.max).WGSL(), r)
}

func (c CpuValue[T]) Fingerprint() string {
	if !c.uniform {
		return "single" + fingerprint(c.min)
	}
	return "uniform" + fingerprint(c.min) + fingerprint(c.max)
}

type cpuValueYAML[T Vector] struct {
	Single  *T    `yaml:"Single,omitempty"`
	Uniform *[2]T `yaml:"Uniform,omitempty"`
}

func (c CpuValue[T]) MarshalYAML() (any, error) {
	if c.uniform {
		return cpuValueYAML[T]{Uniform: &[2]T{c.min, c.max}}, nil
	}
	v := c.min
	return cpuValueYAML[T]{Single: &v}, nil
}

func (c *CpuValue[T]) UnmarshalYAML(node *yaml.Node) error {
	var raw cpuValueYAML[T]
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.Single != nil && raw.Uniform == nil:
		*c = Single(*raw.Single)
	case raw.Uniform != nil && raw.Single == nil:
		*c = Uniform(raw.Uniform[0], raw.Uniform[1])
	default:
		return fmt.Errorf("line %d: expected exactly one of Single or Uniform", node.Line)
	}
	return nil
}
