package graph

import "sort"

// Module is an append-only arena of expressions. Handles stay valid for the
// lifetime of the module.
type Module struct {
	exprs []Expr
}

func NewModule() *Module {
	return &Module{}
}

// Push appends e and returns its handle.
func (m *Module) Push(e Expr) ExprHandle {
	m.exprs = append(m.exprs, e)
	return ExprHandle(len(m.exprs))
}

// Get returns the expression behind h, or false if h was not issued by m.
func (m *Module) Get(h ExprHandle) (Expr, bool) {
	if m == nil || !h.IsValid() || h.index() >= len(m.exprs) {
		return nil, false
	}
	return m.exprs[h.index()], true
}

func (m *Module) Len() int {
	if m == nil {
		return 0
	}
	return len(m.exprs)
}

// Exprs returns a copy of the arena in handle order.
func (m *Module) Exprs() []Expr {
	if m == nil {
		return nil
	}
	out := make([]Expr, len(m.exprs))
	copy(out, m.exprs)
	return out
}

// Equal reports whether both modules hold the same nodes in the same order.
func (m *Module) Equal(o *Module) bool {
	if m.Len() != o.Len() {
		return false
	}
	for i := 0; i < m.Len(); i++ {
		if m.exprs[i] != o.exprs[i] {
			return false
		}
	}
	return true
}

// Attributes returns the attributes read by any node, sorted by name.
func (m *Module) Attributes() []Attribute {
	if m == nil {
		return nil
	}
	seen := make(map[Attribute]bool)
	var out []Attribute
	for _, e := range m.exprs {
		if a, ok := e.(AttributeExpr); ok && !seen[a.Attr] {
			seen[a.Attr] = true
			out = append(out, a.Attr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (m *Module) Lit(v Value) ExprHandle           { return m.Push(LiteralExpr{Value: v}) }
func (m *Module) Attr(a Attribute) ExprHandle      { return m.Push(AttributeExpr{Attr: a}) }
func (m *Module) Prop(name string) ExprHandle      { return m.Push(PropertyExpr{Name: name}) }
func (m *Module) Time() ExprHandle                 { return m.Push(BuiltInExpr{Op: BuiltInTime}) }
func (m *Module) DeltaTime() ExprHandle            { return m.Push(BuiltInExpr{Op: BuiltInDeltaTime}) }
func (m *Module) Rand(t ValueType) ExprHandle      { return m.Push(BuiltInExpr{Op: BuiltInRand, Type: t}) }
func (m *Module) Cast(h ExprHandle, t ValueType) ExprHandle {
	return m.Push(CastExpr{Expr: h, Target: t})
}

func (m *Module) Unary(op UnaryOperator, h ExprHandle) ExprHandle {
	return m.Push(UnaryExpr{Op: op, Expr: h})
}

func (m *Module) Binary(op BinaryOperator, l, r ExprHandle) ExprHandle {
	return m.Push(BinaryExpr{Op: op, Left: l, Right: r})
}

func (m *Module) Ternary(op TernaryOperator, a, b, c ExprHandle) ExprHandle {
	return m.Push(TernaryExpr{Op: op, First: a, Second: b, Third: c})
}

func (m *Module) Add(l, r ExprHandle) ExprHandle { return m.Binary(BinaryAdd, l, r) }
func (m *Module) Sub(l, r ExprHandle) ExprHandle { return m.Binary(BinarySub, l, r) }
func (m *Module) Mul(l, r ExprHandle) ExprHandle { return m.Binary(BinaryMul, l, r) }
func (m *Module) Div(l, r ExprHandle) ExprHandle { return m.Binary(BinaryDiv, l, r) }
func (m *Module) Min(l, r ExprHandle) ExprHandle { return m.Binary(BinaryMin, l, r) }
func (m *Module) Max(l, r ExprHandle) ExprHandle { return m.Binary(BinaryMax, l, r) }
func (m *Module) Dot(l, r ExprHandle) ExprHandle { return m.Binary(BinaryDot, l, r) }

func (m *Module) Abs(h ExprHandle) ExprHandle       { return m.Unary(UnaryAbs, h) }
func (m *Module) Neg(h ExprHandle) ExprHandle       { return m.Unary(UnaryNeg, h) }
func (m *Module) Length(h ExprHandle) ExprHandle    { return m.Unary(UnaryLength, h) }
func (m *Module) Normalize(h ExprHandle) ExprHandle { return m.Unary(UnaryNormalize, h) }

func (m *Module) Mix(a, b, t ExprHandle) ExprHandle { return m.Ternary(TernaryMix, a, b, t) }
