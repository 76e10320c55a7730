package graph

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes a value as a single-key mapping from its type name to
// its components, e.g. {Vec3: [1, 2, 3]} or {Float: 0.5}.
func (v Value) MarshalYAML() (any, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("cannot encode value of invalid type %v", v.typ)
	}
	comps := make([]any, v.typ.Count)
	for i := range comps {
		switch v.typ.Kind {
		case ScalarBool:
			comps[i] = v.bits[i] != 0
		case ScalarFloat:
			comps[i] = v.floatAt(i)
		case ScalarInt:
			comps[i] = int32(v.bits[i])
		default:
			comps[i] = v.bits[i]
		}
	}
	var body any = comps
	if v.typ.IsScalar() {
		body = comps[0]
	}
	return map[string]any{v.typ.Name(): body}, nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: value must be a single-key mapping", node.Line)
	}
	t, ok := ParseValueType(node.Content[0].Value)
	if !ok {
		return fmt.Errorf("line %d: unknown value type %q", node.Line, node.Content[0].Value)
	}
	body := node.Content[1]
	items := []*yaml.Node{body}
	if t.IsVector() {
		if body.Kind != yaml.SequenceNode || len(body.Content) != int(t.Count) {
			return fmt.Errorf("line %d: %s needs a sequence of %d components", body.Line, t.Name(), t.Count)
		}
		items = body.Content
	} else if body.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %s needs a scalar", body.Line, t.Name())
	}

	out := Value{typ: t}
	for i, item := range items {
		var err error
		switch t.Kind {
		case ScalarBool:
			var b bool
			if err = item.Decode(&b); b {
				out.bits[i] = 1
			}
		case ScalarFloat:
			var f float32
			err = item.Decode(&f)
			out.bits[i] = Float(f).bits[0]
		case ScalarInt:
			var n int32
			err = item.Decode(&n)
			out.bits[i] = uint32(n)
		default:
			err = item.Decode(&out.bits[i])
		}
		if err != nil {
			return err
		}
	}
	*v = out
	return nil
}

func (t ValueType) MarshalYAML() (any, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("cannot encode invalid value type")
	}
	return t.Name(), nil
}

func (t *ValueType) UnmarshalYAML(node *yaml.Node) error {
	parsed, ok := ParseValueType(node.Value)
	if !ok {
		return fmt.Errorf("line %d: unknown value type %q", node.Line, node.Value)
	}
	*t = parsed
	return nil
}

func (a Attribute) MarshalYAML() (any, error) {
	if !a.IsValid() {
		return nil, fmt.Errorf("cannot encode unregistered attribute")
	}
	return a.name, nil
}

func (a *Attribute) UnmarshalYAML(node *yaml.Node) error {
	found, ok := AttributeFromName(node.Value)
	if !ok {
		return fmt.Errorf("line %d: unknown attribute %q", node.Line, node.Value)
	}
	*a = found
	return nil
}

func (op BuiltInOperator) MarshalYAML() (any, error) { return op.String(), nil }
func (op UnaryOperator) MarshalYAML() (any, error)   { return op.String(), nil }
func (op BinaryOperator) MarshalYAML() (any, error)  { return op.String(), nil }
func (op TernaryOperator) MarshalYAML() (any, error) { return op.String(), nil }

func (op *BuiltInOperator) UnmarshalYAML(node *yaml.Node) error {
	i, err := decodeOperator(node, builtInNames, "built-in")
	*op = BuiltInOperator(i)
	return err
}

func (op *UnaryOperator) UnmarshalYAML(node *yaml.Node) error {
	i, err := decodeOperator(node, unaryNames, "unary operator")
	*op = UnaryOperator(i)
	return err
}

func (op *BinaryOperator) UnmarshalYAML(node *yaml.Node) error {
	i, err := decodeOperator(node, binaryNames, "binary operator")
	*op = BinaryOperator(i)
	return err
}

func (op *TernaryOperator) UnmarshalYAML(node *yaml.Node) error {
	i, err := decodeOperator(node, ternaryNames, "ternary operator")
	*op = TernaryOperator(i)
	return err
}

func decodeOperator(node *yaml.Node, names []string, what string) (uint8, error) {
	i, ok := lookupName(names, node.Value)
	if !ok {
		return 0, fmt.Errorf("line %d: unknown %s %q", node.Line, what, node.Value)
	}
	return uint8(i), nil
}

// exprNode is the serialized form of one expression. Exactly one field is set.
type exprNode struct {
	Literal   *Value       `yaml:"Literal,omitempty"`
	BuiltIn   *builtInNode `yaml:"BuiltIn,omitempty"`
	Attribute *Attribute   `yaml:"Attribute,omitempty"`
	Property  *string      `yaml:"Property,omitempty"`
	Unary     *unaryNode   `yaml:"Unary,omitempty"`
	Binary    *binaryNode  `yaml:"Binary,omitempty"`
	Ternary   *ternaryNode `yaml:"Ternary,omitempty"`
	Cast      *castNode    `yaml:"Cast,omitempty"`
}

type builtInNode struct {
	Op   BuiltInOperator `yaml:"op"`
	Type *ValueType      `yaml:"type,omitempty"`
}

type unaryNode struct {
	Op   UnaryOperator `yaml:"op"`
	Expr ExprHandle    `yaml:"expr"`
}

type binaryNode struct {
	Op    BinaryOperator `yaml:"op"`
	Left  ExprHandle     `yaml:"left"`
	Right ExprHandle     `yaml:"right"`
}

type ternaryNode struct {
	Op     TernaryOperator `yaml:"op"`
	First  ExprHandle      `yaml:"first"`
	Second ExprHandle      `yaml:"second"`
	Third  ExprHandle      `yaml:"third"`
}

type castNode struct {
	Expr   ExprHandle `yaml:"expr"`
	Target ValueType  `yaml:"target"`
}

func toNode(e Expr) exprNode {
	switch e := e.(type) {
	case LiteralExpr:
		v := e.Value
		return exprNode{Literal: &v}
	case BuiltInExpr:
		n := &builtInNode{Op: e.Op}
		if e.Op == BuiltInRand {
			t := e.Type
			n.Type = &t
		}
		return exprNode{BuiltIn: n}
	case AttributeExpr:
		a := e.Attr
		return exprNode{Attribute: &a}
	case PropertyExpr:
		name := e.Name
		return exprNode{Property: &name}
	case UnaryExpr:
		return exprNode{Unary: &unaryNode{Op: e.Op, Expr: e.Expr}}
	case BinaryExpr:
		return exprNode{Binary: &binaryNode{Op: e.Op, Left: e.Left, Right: e.Right}}
	case TernaryExpr:
		return exprNode{Ternary: &ternaryNode{Op: e.Op, First: e.First, Second: e.Second, Third: e.Third}}
	case CastExpr:
		return exprNode{Cast: &castNode{Expr: e.Expr, Target: e.Target}}
	}
	return exprNode{}
}

func (n exprNode) expr() (Expr, error) {
	var out []Expr
	if n.Literal != nil {
		out = append(out, LiteralExpr{Value: *n.Literal})
	}
	if n.BuiltIn != nil {
		e := BuiltInExpr{Op: n.BuiltIn.Op}
		if n.BuiltIn.Type != nil {
			e.Type = *n.BuiltIn.Type
		}
		out = append(out, e)
	}
	if n.Attribute != nil {
		out = append(out, AttributeExpr{Attr: *n.Attribute})
	}
	if n.Property != nil {
		out = append(out, PropertyExpr{Name: *n.Property})
	}
	if n.Unary != nil {
		out = append(out, UnaryExpr{Op: n.Unary.Op, Expr: n.Unary.Expr})
	}
	if n.Binary != nil {
		out = append(out, BinaryExpr{Op: n.Binary.Op, Left: n.Binary.Left, Right: n.Binary.Right})
	}
	if n.Ternary != nil {
		t := n.Ternary
		out = append(out, TernaryExpr{Op: t.Op, First: t.First, Second: t.Second, Third: t.Third})
	}
	if n.Cast != nil {
		out = append(out, CastExpr{Expr: n.Cast.Expr, Target: n.Cast.Target})
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("expression node must have exactly one kind, got %d", len(out))
	}
	return out[0], nil
}

func (m *Module) MarshalYAML() (any, error) {
	nodes := make([]exprNode, m.Len())
	for i, e := range m.Exprs() {
		nodes[i] = toNode(e)
	}
	return nodes, nil
}

func (m *Module) UnmarshalYAML(node *yaml.Node) error {
	var nodes []exprNode
	if err := node.Decode(&nodes); err != nil {
		return err
	}
	decoded := NewModule()
	for i, n := range nodes {
		e, err := n.expr()
		if err != nil {
			return fmt.Errorf("module node %d: %w", i+1, err)
		}
		decoded.Push(e)
	}
	if err := decoded.Validate(); err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// Validate checks that every operand refers to an earlier node of m.
func (m *Module) Validate() error {
	for i, e := range m.Exprs() {
		h := ExprHandle(i + 1)
		for _, op := range operands(e) {
			if !op.IsValid() || op >= h {
				return exprErrorf(h, ErrInvalidHandle, "operand %d does not precede its user", op)
			}
		}
	}
	return nil
}

func operands(e Expr) []ExprHandle {
	switch e := e.(type) {
	case UnaryExpr:
		return []ExprHandle{e.Expr}
	case BinaryExpr:
		return []ExprHandle{e.Left, e.Right}
	case TernaryExpr:
		return []ExprHandle{e.First, e.Second, e.Third}
	case CastExpr:
		return []ExprHandle{e.Expr}
	}
	return nil
}
