package layout

import (
	"strings"

	"github.com/gekko3d/vfx/graph"
)

// Property is a named effect-wide value with a default. The host may override
// it at runtime; shaders read it from the properties binding.
type Property struct {
	Name         string      `yaml:"name"`
	DefaultValue graph.Value `yaml:"default_value"`
}

func NewProperty(name string, defaultValue graph.Value) Property {
	return Property{Name: name, DefaultValue: defaultValue}
}

func (p Property) Type() graph.ValueType { return p.DefaultValue.Type() }

// PropertyEntry is a packed property with its default value.
type PropertyEntry struct {
	Entry
	Default graph.Value
}

// PropertyLayout is the packed layout of the properties uniform.
type PropertyLayout struct {
	entries []PropertyEntry
	size    uint32
	align   uint32
}

// NewPropertyLayout packs props with the same rules as particle layouts.
// Names are expected to be unique; later duplicates are ignored.
func NewPropertyLayout(props []Property) *PropertyLayout {
	defaults := make(map[string]graph.Value, len(props))
	members := make([]member, 0, len(props))
	for _, p := range props {
		if _, dup := defaults[p.Name]; dup {
			continue
		}
		defaults[p.Name] = p.DefaultValue
		members = append(members, member{name: p.Name, typ: p.Type()})
	}
	entries, size, align := pack(members)
	l := &PropertyLayout{size: size, align: align}
	for _, e := range entries {
		l.entries = append(l.entries, PropertyEntry{Entry: e, Default: defaults[e.Name]})
	}
	return l
}

func (l *PropertyLayout) Size() uint32  { return l.size }
func (l *PropertyLayout) Align() uint32 { return l.align }
func (l *PropertyLayout) IsEmpty() bool { return len(l.entries) == 0 }

func (l *PropertyLayout) Entries() []PropertyEntry {
	out := make([]PropertyEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *PropertyLayout) find(name string) (PropertyEntry, bool) {
	for _, e := range l.entries {
		if e.Name == name {
			return e, true
		}
	}
	return PropertyEntry{}, false
}

func (l *PropertyLayout) Offset(name string) (uint32, bool) {
	e, ok := l.find(name)
	return e.Offset, ok
}

func (l *PropertyLayout) Type(name string) (graph.ValueType, bool) {
	e, ok := l.find(name)
	return e.Type, ok
}

func (l *PropertyLayout) Property(name string) (Property, bool) {
	e, ok := l.find(name)
	if !ok {
		return Property{}, false
	}
	return NewProperty(e.Name, e.Default), true
}

// GenerateCode emits the WGSL Properties struct, or "" when there are no
// properties.
func (l *PropertyLayout) GenerateCode() string {
	if len(l.entries) == 0 {
		return ""
	}
	entries := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		entries[i] = e.Entry
	}
	var b strings.Builder
	writeStruct(&b, "Properties", entries)
	return b.String()
}
