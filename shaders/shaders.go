// Package shaders holds the WGSL templates generated effect code is spliced
// into.
package shaders

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gogpu/naga"
)

//go:embed vfx_common.wgsl
var CommonWGSL string

//go:embed vfx_init.wgsl
var InitWGSL string

//go:embed vfx_update.wgsl
var UpdateWGSL string

//go:embed vfx_render.wgsl
var RenderWGSL string

// Stage selects a template.
type Stage uint8

const (
	StageInit Stage = iota
	StageUpdate
	StageRender
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageUpdate:
		return "update"
	case StageRender:
		return "render"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

func (s Stage) template() string {
	switch s {
	case StageInit:
		return InitWGSL
	case StageUpdate:
		return UpdateWGSL
	case StageRender:
		return RenderWGSL
	}
	panic(fmt.Sprintf("shaders: unknown stage %d", uint8(s)))
}

var placeholder = regexp.MustCompile(`\{\{([A-Z_0-9]+)\}\}`)

// Placeholders lists the {{NAME}} keys a stage's source expects, including
// the common prelude, sorted.
func Placeholders(stage Stage) []string {
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(CommonWGSL+stage.template(), -1) {
		seen[m[1]] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Assemble prepends the common prelude to the stage template and fills every
// placeholder from values. A placeholder without a value is an error, as is
// a value no placeholder uses.
func Assemble(stage Stage, values map[string]string) (string, error) {
	expected := Placeholders(stage)
	var missing []string
	pairs := make([]string, 0, 2*len(expected))
	for _, k := range expected {
		v, ok := values[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("shaders: %s template is missing %s", stage, strings.Join(missing, ", "))
	}
	if len(values) != len(expected) {
		for k := range values {
			if !containsString(expected, k) {
				return "", fmt.Errorf("shaders: %s template has no placeholder %s", stage, k)
			}
		}
	}
	return strings.NewReplacer(pairs...).Replace(CommonWGSL + "\n" + stage.template()), nil
}

func containsString(sorted []string, s string) bool {
	i := sort.SearchStrings(sorted, s)
	return i < len(sorted) && sorted[i] == s
}

// Validate parses src with naga and returns the first syntax error.
func Validate(src string) error {
	if _, err := naga.Parse(src); err != nil {
		return fmt.Errorf("wgsl: %w", err)
	}
	return nil
}
