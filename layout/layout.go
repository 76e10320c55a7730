// Package layout packs particle attributes and effect properties into
// GPU-compatible struct layouts.
package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gekko3d/vfx/graph"
)

// Entry is one packed member of a layout.
type Entry struct {
	Name   string
	Type   graph.ValueType
	Offset uint32
	Size   uint32
	Align  uint32
}

type member struct {
	name string
	typ  graph.ValueType
}

// pack sorts members by alignment descending then name ascending and assigns
// greedy offsets. It returns the entries, the total size and the alignment.
func pack(members []member) ([]Entry, uint32, uint32) {
	sort.Slice(members, func(i, j int) bool {
		ai, aj := members[i].typ.Align(), members[j].typ.Align()
		if ai != aj {
			return ai > aj
		}
		return members[i].name < members[j].name
	})
	entries := make([]Entry, 0, len(members))
	var cursor uint32
	align := uint32(4)
	for _, m := range members {
		a := m.typ.Align()
		offset := roundUp(cursor, a)
		entries = append(entries, Entry{
			Name:   m.name,
			Type:   m.typ,
			Offset: offset,
			Size:   m.typ.Size(),
			Align:  a,
		})
		cursor = offset + m.typ.Size()
		if a > align {
			align = a
		}
	}
	return entries, roundUp(cursor, align), align
}

func roundUp(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}

func writeStruct(b *strings.Builder, name string, entries []Entry) {
	fmt.Fprintf(b, "struct %s {\n", name)
	for _, e := range entries {
		fmt.Fprintf(b, "    %s: %s,\n", e.Name, e.Type.WGSL())
	}
	b.WriteString("}\n")
}

func find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ParticleLayoutBuilder collects attributes; insertion order has no effect on
// the built layout.
type ParticleLayoutBuilder struct {
	attrs map[graph.Attribute]struct{}
}

func NewParticleLayout() *ParticleLayoutBuilder {
	return &ParticleLayoutBuilder{attrs: make(map[graph.Attribute]struct{})}
}

func (b *ParticleLayoutBuilder) Append(attrs ...graph.Attribute) *ParticleLayoutBuilder {
	for _, a := range attrs {
		if a.IsValid() {
			b.attrs[a] = struct{}{}
		}
	}
	return b
}

func (b *ParticleLayoutBuilder) Build() *ParticleLayout {
	members := make([]member, 0, len(b.attrs))
	for a := range b.attrs {
		members = append(members, member{name: a.Name(), typ: a.Type()})
	}
	entries, size, align := pack(members)
	l := &ParticleLayout{entries: entries, size: size, align: align}
	for _, e := range entries {
		a, _ := graph.AttributeFromName(e.Name)
		l.attrs = append(l.attrs, a)
	}
	return l
}

// ParticleLayout is the packed layout of the per-particle record.
type ParticleLayout struct {
	entries []Entry
	attrs   []graph.Attribute
	size    uint32
	align   uint32
}

// EmptyParticleLayout has no attributes, size 0 and alignment 4.
func EmptyParticleLayout() *ParticleLayout {
	return NewParticleLayout().Build()
}

func (l *ParticleLayout) Size() uint32  { return l.size }
func (l *ParticleLayout) Align() uint32 { return l.align }
func (l *ParticleLayout) Len() int      { return len(l.entries) }
func (l *ParticleLayout) IsEmpty() bool { return len(l.entries) == 0 }

// Entries returns the layout in packing order.
func (l *ParticleLayout) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Attributes returns the attributes in packing order.
func (l *ParticleLayout) Attributes() []graph.Attribute {
	out := make([]graph.Attribute, len(l.attrs))
	copy(out, l.attrs)
	return out
}

func (l *ParticleLayout) Contains(a graph.Attribute) bool {
	e, ok := find(l.entries, a.Name())
	return ok && e.Type == a.Type()
}

func (l *ParticleLayout) Offset(name string) (uint32, bool) {
	e, ok := find(l.entries, name)
	return e.Offset, ok
}

// Equal reports whether both layouts hold the same entries.
func (l *ParticleLayout) Equal(o *ParticleLayout) bool {
	if len(l.entries) != len(o.entries) || l.size != o.size {
		return false
	}
	for i := range l.entries {
		if l.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

// GenerateCode emits the WGSL Particle struct. WGSL forbids empty structs, so
// an empty layout gets a placeholder member.
func (l *ParticleLayout) GenerateCode() string {
	var b strings.Builder
	if len(l.entries) == 0 {
		b.WriteString("struct Particle {\n    _unused: u32,\n}\n")
		return b.String()
	}
	writeStruct(&b, "Particle", l.entries)
	return b.String()
}
