package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle is returned for a handle that is zero, out of range,
	// or does not precede the node referencing it.
	ErrInvalidHandle      = errors.New("invalid expression handle")
	ErrTypeMismatch       = errors.New("operand type mismatch")
	ErrUnknownProperty    = errors.New("unknown property")
	ErrUnknownAttribute   = errors.New("attribute not present in particle layout")
	// ErrUnavailableBuiltIn is returned for a built-in the shader stage does
	// not declare.
	ErrUnavailableBuiltIn = errors.New("built-in not available")
)

// ExprError reports an evaluation failure on a specific node.
type ExprError struct {
	Handle ExprHandle
	Err    error
	Detail string
}

func (e *ExprError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("expression %d: %v", e.Handle, e.Err)
	}
	return fmt.Sprintf("expression %d: %v: %s", e.Handle, e.Err, e.Detail)
}

func (e *ExprError) Unwrap() error { return e.Err }

func exprErrorf(h ExprHandle, err error, format string, args ...any) *ExprError {
	return &ExprError{Handle: h, Err: err, Detail: fmt.Sprintf(format, args...)}
}

// EvalContext answers the questions evaluation needs about the shader being
// generated.
type EvalContext interface {
	HasAttribute(a Attribute) bool
	PropertyType(name string) (ValueType, bool)
}

// BuiltInContext is implemented by contexts that declare stage-local
// built-ins. BuiltInAlphaCutoff only resolves when HasBuiltIn reports it.
type BuiltInContext interface {
	HasBuiltIn(op BuiltInOperator) bool
}

// Eval renders the expression behind h as WGSL source. Each node reachable
// from h is rendered once per call.
func (m *Module) Eval(h ExprHandle, ctx EvalContext) (string, error) {
	ev := newEvaluator(m, ctx)
	if _, err := ev.typeOf(h, 0); err != nil {
		return "", err
	}
	return ev.text(h)
}

// TypeOf resolves the value type of the expression behind h.
func (m *Module) TypeOf(h ExprHandle, ctx EvalContext) (ValueType, error) {
	return newEvaluator(m, ctx).typeOf(h, 0)
}

type evaluator struct {
	m     *Module
	ctx   EvalContext
	types map[ExprHandle]ValueType
	texts map[ExprHandle]string
}

func newEvaluator(m *Module, ctx EvalContext) *evaluator {
	return &evaluator{
		m:     m,
		ctx:   ctx,
		types: make(map[ExprHandle]ValueType),
		texts: make(map[ExprHandle]string),
	}
}

// operand checks that h is a node of the module preceding parent. Requiring
// operands to precede their user keeps the graph acyclic. A parent of 0 means
// a root lookup.
func (ev *evaluator) operand(h, parent ExprHandle) (Expr, error) {
	e, ok := ev.m.Get(h)
	if !ok {
		return nil, exprErrorf(h, ErrInvalidHandle, "module has %d expressions", ev.m.Len())
	}
	if parent.IsValid() && h >= parent {
		return nil, exprErrorf(parent, ErrInvalidHandle, "operand %d does not precede its user", h)
	}
	return e, nil
}

func (ev *evaluator) typeOf(h, parent ExprHandle) (ValueType, error) {
	e, err := ev.operand(h, parent)
	if err != nil {
		return ValueType{}, err
	}
	if t, ok := ev.types[h]; ok {
		return t, nil
	}
	t, err := ev.resolve(h, e)
	if err != nil {
		return ValueType{}, err
	}
	ev.types[h] = t
	return t, nil
}

func (ev *evaluator) resolve(h ExprHandle, e Expr) (ValueType, error) {
	switch e := e.(type) {
	case LiteralExpr:
		if !e.Value.IsValid() {
			return ValueType{}, exprErrorf(h, ErrTypeMismatch, "literal has no type")
		}
		return e.Value.Type(), nil

	case BuiltInExpr:
		switch e.Op {
		case BuiltInTime, BuiltInDeltaTime:
			return TypeFloat, nil
		case BuiltInAlphaCutoff:
			if bc, ok := ev.ctx.(BuiltInContext); !ok || !bc.HasBuiltIn(e.Op) {
				return ValueType{}, exprErrorf(h, ErrUnavailableBuiltIn, "%s is only declared by the fragment stage", e.Op)
			}
			return TypeFloat, nil
		case BuiltInRand:
			if !e.Type.IsValid() || !e.Type.IsFloat() {
				return ValueType{}, exprErrorf(h, ErrTypeMismatch, "rand supports float types only, got %s", e.Type)
			}
			return e.Type, nil
		}
		return ValueType{}, exprErrorf(h, ErrTypeMismatch, "unknown built-in %s", e.Op)

	case AttributeExpr:
		if !e.Attr.IsValid() {
			return ValueType{}, exprErrorf(h, ErrUnknownAttribute, "unregistered attribute")
		}
		if ev.ctx != nil && !ev.ctx.HasAttribute(e.Attr) {
			return ValueType{}, exprErrorf(h, ErrUnknownAttribute, "%s", e.Attr.Name())
		}
		return e.Attr.Type(), nil

	case PropertyExpr:
		if ev.ctx == nil {
			return ValueType{}, exprErrorf(h, ErrUnknownProperty, "%s", e.Name)
		}
		t, ok := ev.ctx.PropertyType(e.Name)
		if !ok {
			return ValueType{}, exprErrorf(h, ErrUnknownProperty, "%s", e.Name)
		}
		return t, nil

	case UnaryExpr:
		t, err := ev.typeOf(e.Expr, h)
		if err != nil {
			return ValueType{}, err
		}
		return unaryType(h, e.Op, t)

	case BinaryExpr:
		l, err := ev.typeOf(e.Left, h)
		if err != nil {
			return ValueType{}, err
		}
		r, err := ev.typeOf(e.Right, h)
		if err != nil {
			return ValueType{}, err
		}
		return binaryType(h, e.Op, l, r)

	case TernaryExpr:
		a, err := ev.typeOf(e.First, h)
		if err != nil {
			return ValueType{}, err
		}
		b, err := ev.typeOf(e.Second, h)
		if err != nil {
			return ValueType{}, err
		}
		c, err := ev.typeOf(e.Third, h)
		if err != nil {
			return ValueType{}, err
		}
		return ternaryType(h, e.Op, a, b, c)

	case CastExpr:
		src, err := ev.typeOf(e.Expr, h)
		if err != nil {
			return ValueType{}, err
		}
		if !e.Target.IsValid() || (src.Count != e.Target.Count && !src.IsScalar()) {
			return ValueType{}, exprErrorf(h, ErrTypeMismatch, "cannot cast %s to %s", src, e.Target)
		}
		return e.Target, nil
	}
	return ValueType{}, exprErrorf(h, ErrTypeMismatch, "unknown expression %T", e)
}

func unaryType(h ExprHandle, op UnaryOperator, t ValueType) (ValueType, error) {
	bad := func() (ValueType, error) {
		return ValueType{}, exprErrorf(h, ErrTypeMismatch, "%s does not accept %s", op, t)
	}
	switch op {
	case UnaryAbs:
		if !t.IsNumeric() {
			return bad()
		}
		return t, nil
	case UnaryNeg, UnarySign:
		if t.Kind != ScalarFloat && t.Kind != ScalarInt {
			return bad()
		}
		return t, nil
	case UnaryAll, UnaryAny:
		if !t.IsBool() {
			return bad()
		}
		return TypeBool, nil
	case UnaryNot:
		if !t.IsBool() {
			return bad()
		}
		return t, nil
	case UnaryCeil, UnaryCos, UnaryExp, UnaryFloor, UnaryFract, UnarySaturate, UnarySin, UnarySqrt:
		if !t.IsFloat() {
			return bad()
		}
		return t, nil
	case UnaryLength:
		if !t.IsFloat() {
			return bad()
		}
		return TypeFloat, nil
	case UnaryNormalize:
		if !t.IsFloat() || !t.IsVector() {
			return bad()
		}
		return t, nil
	case UnaryPack4x8Unorm:
		if t != TypeVec4 {
			return bad()
		}
		return TypeUint, nil
	}
	return bad()
}

func binaryType(h ExprHandle, op BinaryOperator, l, r ValueType) (ValueType, error) {
	bad := func() (ValueType, error) {
		return ValueType{}, exprErrorf(h, ErrTypeMismatch, "%s(%s, %s)", op, l, r)
	}
	switch op {
	case BinaryAdd, BinarySub, BinaryMul, BinaryDiv, BinaryRem:
		if !l.IsNumeric() || !r.IsNumeric() || l.Kind != r.Kind {
			return bad()
		}
		switch {
		case l.Count == r.Count:
			return l, nil
		case l.IsScalar():
			return r, nil
		case r.IsScalar():
			return l, nil
		}
		return bad()
	case BinaryMin, BinaryMax:
		if !l.IsNumeric() || l != r {
			return bad()
		}
		return l, nil
	case BinaryPow, BinaryStep:
		if !l.IsFloat() || l != r {
			return bad()
		}
		return l, nil
	case BinaryDot:
		if !l.IsNumeric() || !l.IsVector() || l != r {
			return bad()
		}
		return l.Scalar(), nil
	case BinaryCross:
		if l != TypeVec3 || r != TypeVec3 {
			return bad()
		}
		return TypeVec3, nil
	case BinaryDistance:
		if !l.IsFloat() || l != r {
			return bad()
		}
		return TypeFloat, nil
	case BinaryEqual, BinaryNotEqual:
		if l != r {
			return bad()
		}
		return VectorOf(ScalarBool, l.Count), nil
	case BinaryLessThan, BinaryLessThanOrEqual, BinaryGreaterThan, BinaryGreaterThanOrEqual:
		if !l.IsNumeric() || l != r {
			return bad()
		}
		return VectorOf(ScalarBool, l.Count), nil
	}
	return bad()
}

func ternaryType(h ExprHandle, op TernaryOperator, a, b, c ValueType) (ValueType, error) {
	bad := func() (ValueType, error) {
		return ValueType{}, exprErrorf(h, ErrTypeMismatch, "%s(%s, %s, %s)", op, a, b, c)
	}
	switch op {
	case TernaryMix:
		if !a.IsFloat() || a != b || (c != a && c != TypeFloat) {
			return bad()
		}
		return a, nil
	case TernarySmoothStep:
		if !c.IsFloat() || a != b || (a != c && a != TypeFloat) {
			return bad()
		}
		return c, nil
	case TernaryClamp:
		if !a.IsNumeric() || a != b || a != c {
			return bad()
		}
		return a, nil
	}
	return bad()
}

// text renders a node whose type was already resolved.
func (ev *evaluator) text(h ExprHandle) (string, error) {
	if s, ok := ev.texts[h]; ok {
		return s, nil
	}
	e, _ := ev.m.Get(h)
	var s string
	switch e := e.(type) {
	case LiteralExpr:
		s = e.Value.WGSL()
	case BuiltInExpr:
		switch e.Op {
		case BuiltInTime:
			s = "sim_params.time"
		case BuiltInDeltaTime:
			s = "sim_params.delta_time"
		case BuiltInAlphaCutoff:
			s = "alpha_cutoff"
		case BuiltInRand:
			if e.Type.IsScalar() {
				s = "frand()"
			} else {
				s = fmt.Sprintf("frand%d()", e.Type.Count)
			}
		}
	case AttributeExpr:
		s = "particle." + e.Attr.Name()
	case PropertyExpr:
		s = "properties." + e.Name
	case UnaryExpr:
		x, err := ev.text(e.Expr)
		if err != nil {
			return "", err
		}
		s = unaryText(e.Op, x)
	case BinaryExpr:
		l, err := ev.text(e.Left)
		if err != nil {
			return "", err
		}
		r, err := ev.text(e.Right)
		if err != nil {
			return "", err
		}
		if tok := e.Op.infix(); tok != "" {
			s = fmt.Sprintf("(%s %s %s)", l, tok, r)
		} else {
			s = fmt.Sprintf("%s(%s, %s)", binaryFuncs[e.Op], l, r)
		}
	case TernaryExpr:
		a, err := ev.text(e.First)
		if err != nil {
			return "", err
		}
		b, err := ev.text(e.Second)
		if err != nil {
			return "", err
		}
		c, err := ev.text(e.Third)
		if err != nil {
			return "", err
		}
		s = fmt.Sprintf("%s(%s, %s, %s)", ternaryFuncs[e.Op], a, b, c)
	case CastExpr:
		x, err := ev.text(e.Expr)
		if err != nil {
			return "", err
		}
		s = fmt.Sprintf("%s(%s)", e.Target.WGSL(), x)
	default:
		return "", exprErrorf(h, ErrInvalidHandle, "no expression")
	}
	ev.texts[h] = s
	return s, nil
}

var binaryFuncs = map[BinaryOperator]string{
	BinaryMin:      "min",
	BinaryMax:      "max",
	BinaryPow:      "pow",
	BinaryStep:     "step",
	BinaryDot:      "dot",
	BinaryCross:    "cross",
	BinaryDistance: "distance",
}

var ternaryFuncs = map[TernaryOperator]string{
	TernaryMix:        "mix",
	TernarySmoothStep: "smoothstep",
	TernaryClamp:      "clamp",
}

func unaryText(op UnaryOperator, x string) string {
	switch op {
	case UnaryNeg:
		return "-(" + x + ")"
	case UnaryNot:
		return "!(" + x + ")"
	case UnaryPack4x8Unorm:
		return "pack4x8unorm(" + x + ")"
	}
	fn := unaryNames[op]
	return toLowerFirst(fn) + "(" + x + ")"
}

func toLowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
