package shader

import (
	"fmt"
	"strings"
)

// FunctionSet holds the function definitions emitted for one phase, keyed by
// content. It is shared by every group writer of that phase.
type FunctionSet struct {
	byKey map[string]string
	names map[string]bool
	order []string
	code  strings.Builder
}

func NewFunctionSet() *FunctionSet {
	return &FunctionSet{
		byKey: make(map[string]string),
		names: make(map[string]bool),
	}
}

// Lookup returns the name already assigned to id.
func (fs *FunctionSet) Lookup(id FuncID) (string, bool) {
	name, ok := fs.byKey[id.Key()]
	return name, ok
}

// Define runs build at most once per distinct id key and returns the function
// name. build receives the name to use and returns the full definition. If
// build fails nothing is registered.
func (fs *FunctionSet) Define(id FuncID, build func(name string) (string, error)) (string, error) {
	if name, ok := fs.byKey[id.Key()]; ok {
		return name, nil
	}
	name := id.Name()
	for i := 1; fs.names[name]; i++ {
		name = fmt.Sprintf("%s_%d", id.Name(), i)
	}
	code, err := build(name)
	if err != nil {
		return "", err
	}
	fs.byKey[id.Key()] = name
	fs.names[name] = true
	fs.order = append(fs.order, name)
	fs.code.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		fs.code.WriteByte('\n')
	}
	fs.code.WriteByte('\n')
	return name, nil
}

// Len is the number of distinct functions defined.
func (fs *FunctionSet) Len() int { return len(fs.order) }

// Names returns function names in definition order.
func (fs *FunctionSet) Names() []string {
	out := make([]string, len(fs.order))
	copy(out, fs.order)
	return out
}

// Code returns every definition in definition order.
func (fs *FunctionSet) Code() string { return fs.code.String() }
