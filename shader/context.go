// Package shader holds the code generation contexts modifiers write into.
package shader

import (
	"fmt"
	"math/bits"
	"strings"
)

// ModifierContext is the set of phases a modifier can run in.
type ModifierContext uint8

const (
	ContextInit ModifierContext = 1 << iota
	ContextUpdate
	ContextRender
)

// Contains reports whether every phase of o is in c. The empty set is never
// contained.
func (c ModifierContext) Contains(o ModifierContext) bool {
	return o != 0 && c&o == o
}

// IsSingle reports whether exactly one phase is set.
func (c ModifierContext) IsSingle() bool {
	return bits.OnesCount8(uint8(c)) == 1
}

func (c ModifierContext) String() string {
	if c == 0 {
		return "None"
	}
	var parts []string
	if c&ContextInit != 0 {
		parts = append(parts, "Init")
	}
	if c&ContextUpdate != 0 {
		parts = append(parts, "Update")
	}
	if c&ContextRender != 0 {
		parts = append(parts, "Render")
	}
	if rest := c &^ (ContextInit | ContextUpdate | ContextRender); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// MaxGroups is the number of particle groups a ParticleGroupSet can address.
const MaxGroups = 32

// ParticleGroupSet is a bit set over group indices 0..MaxGroups-1.
type ParticleGroupSet uint32

// SingleGroup returns the set containing only index. It panics when index is
// not addressable.
func SingleGroup(index uint32) ParticleGroupSet {
	if index >= MaxGroups {
		panic(fmt.Sprintf("shader: group index %d out of range [0:%d)", index, MaxGroups))
	}
	return ParticleGroupSet(1) << index
}

func AllGroups() ParticleGroupSet { return ^ParticleGroupSet(0) }

func (s ParticleGroupSet) Contains(index uint32) bool {
	return index < MaxGroups && s&(1<<index) != 0
}

func (s ParticleGroupSet) Union(o ParticleGroupSet) ParticleGroupSet { return s | o }

func (s ParticleGroupSet) IsEmpty() bool { return s == 0 }

// Groups lists the member indices below n in ascending order.
func (s ParticleGroupSet) Groups(n uint32) []uint32 {
	var out []uint32
	for i := uint32(0); i < n && i < MaxGroups; i++ {
		if s.Contains(i) {
			out = append(out, i)
		}
	}
	return out
}
