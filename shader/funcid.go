package shader

import (
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"

	"github.com/gekko3d/vfx/graph"
)

// Fingerprinter is implemented by configuration values with their own
// canonical text form.
type Fingerprinter interface {
	Fingerprint() string
}

// FuncID identifies generated function content. Two ids are the same function
// when their keys are equal; the hash only names it.
type FuncID struct {
	prefix string
	key    string
	hash   uint64
}

// NewFuncID builds an id from a name prefix and the configuration fields that
// affect the generated code.
func NewFuncID(prefix string, parts ...any) FuncID {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		b.WriteByte('|')
		writeCanonical(&b, p)
	}
	key := b.String()
	h := fnv.New64a()
	h.Write([]byte(key))
	return FuncID{prefix: prefix, key: key, hash: h.Sum64()}
}

func (id FuncID) Key() string  { return id.key }
func (id FuncID) Hash() uint64 { return id.hash }

// Name is the generated function name, "<prefix>_<HASH16>".
func (id FuncID) Name() string {
	return fmt.Sprintf("%s_%016X", id.prefix, id.hash)
}

func (id FuncID) String() string { return id.Name() }

func writeCanonical(b *strings.Builder, p any) {
	fmt.Fprintf(b, "%T:", p)
	switch v := p.(type) {
	case Fingerprinter:
		b.WriteString(v.Fingerprint())
	case float32:
		b.WriteString(canonicalFloat(float64(v)))
	case float64:
		b.WriteString(canonicalFloat(v))
	case string:
		b.WriteString(strconv.Quote(v))
	case graph.ExprHandle:
		fmt.Fprintf(b, "%d", uint32(v))
	default:
		fmt.Fprintf(b, "%v", v)
	}
}

func canonicalFloat(f float64) string {
	switch {
	case f == 0:
		return "0"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
