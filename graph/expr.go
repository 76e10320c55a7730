package graph

import "fmt"

// ExprHandle references an expression inside the Module that issued it.
// Handles are 1-based; the zero handle is never valid.
type ExprHandle uint32

func (h ExprHandle) IsValid() bool { return h != 0 }

func (h ExprHandle) index() int { return int(h) - 1 }

// Expr is one node of the expression graph.
type Expr interface {
	exprKind()
}

// LiteralExpr is a typed constant.
type LiteralExpr struct {
	Value Value
}

func (LiteralExpr) exprKind() {}

// BuiltInExpr reads a simulation built-in. Type is only used by BuiltInRand.
type BuiltInExpr struct {
	Op   BuiltInOperator
	Type ValueType
}

func (BuiltInExpr) exprKind() {}

// AttributeExpr reads an attribute of the current particle.
type AttributeExpr struct {
	Attr Attribute
}

func (AttributeExpr) exprKind() {}

// PropertyExpr reads an effect property.
type PropertyExpr struct {
	Name string
}

func (PropertyExpr) exprKind() {}

type UnaryExpr struct {
	Op   UnaryOperator
	Expr ExprHandle
}

func (UnaryExpr) exprKind() {}

type BinaryExpr struct {
	Op    BinaryOperator
	Left  ExprHandle
	Right ExprHandle
}

func (BinaryExpr) exprKind() {}

type TernaryExpr struct {
	Op     TernaryOperator
	First  ExprHandle
	Second ExprHandle
	Third  ExprHandle
}

func (TernaryExpr) exprKind() {}

// CastExpr converts a value to Target. A scalar may be splatted into a vector.
type CastExpr struct {
	Expr   ExprHandle
	Target ValueType
}

func (CastExpr) exprKind() {}

// BuiltInOperator selects a simulation built-in.
type BuiltInOperator uint8

const (
	BuiltInTime      BuiltInOperator = iota // absolute simulation time, seconds
	BuiltInDeltaTime                        // frame delta time, seconds
	BuiltInRand                             // uniform random value in [0:1)
	BuiltInAlphaCutoff                      // alpha mask cutoff, render phase only
)

var builtInNames = []string{"Time", "DeltaTime", "Rand", "AlphaCutoff"}

func (op BuiltInOperator) String() string {
	if int(op) < len(builtInNames) {
		return builtInNames[op]
	}
	return fmt.Sprintf("BuiltInOperator(%d)", uint8(op))
}

// UnaryOperator represents unary operations.
type UnaryOperator uint8

const (
	UnaryAbs UnaryOperator = iota
	UnaryAll
	UnaryAny
	UnaryCeil
	UnaryCos
	UnaryExp
	UnaryFloor
	UnaryFract
	UnaryLength
	UnaryNeg
	UnaryNormalize
	UnaryNot
	UnaryPack4x8Unorm
	UnarySaturate
	UnarySign
	UnarySin
	UnarySqrt
)

var unaryNames = []string{
	"Abs", "All", "Any", "Ceil", "Cos", "Exp", "Floor", "Fract", "Length", "Neg",
	"Normalize", "Not", "Pack4x8Unorm", "Saturate", "Sign", "Sin", "Sqrt",
}

func (op UnaryOperator) String() string {
	if int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("UnaryOperator(%d)", uint8(op))
}

// BinaryOperator represents binary operations.
type BinaryOperator uint8

const (
	BinaryAdd BinaryOperator = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryRem
	BinaryMin
	BinaryMax
	BinaryPow
	BinaryStep
	BinaryDot
	BinaryCross
	BinaryDistance
	BinaryLessThan
	BinaryLessThanOrEqual
	BinaryGreaterThan
	BinaryGreaterThanOrEqual
	BinaryEqual
	BinaryNotEqual
)

var binaryNames = []string{
	"Add", "Sub", "Mul", "Div", "Rem", "Min", "Max", "Pow", "Step", "Dot", "Cross",
	"Distance", "LessThan", "LessThanOrEqual", "GreaterThan", "GreaterThanOrEqual",
	"Equal", "NotEqual",
}

func (op BinaryOperator) String() string {
	if int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOperator(%d)", uint8(op))
}

// infix returns the WGSL infix token, or "" for function-style operators.
func (op BinaryOperator) infix() string {
	switch op {
	case BinaryAdd:
		return "+"
	case BinarySub:
		return "-"
	case BinaryMul:
		return "*"
	case BinaryDiv:
		return "/"
	case BinaryRem:
		return "%"
	case BinaryLessThan:
		return "<"
	case BinaryLessThanOrEqual:
		return "<="
	case BinaryGreaterThan:
		return ">"
	case BinaryGreaterThanOrEqual:
		return ">="
	case BinaryEqual:
		return "=="
	case BinaryNotEqual:
		return "!="
	}
	return ""
}

// TernaryOperator represents three-operand built-in functions.
type TernaryOperator uint8

const (
	TernaryMix TernaryOperator = iota
	TernarySmoothStep
	TernaryClamp
)

var ternaryNames = []string{"Mix", "SmoothStep", "Clamp"}

func (op TernaryOperator) String() string {
	if int(op) < len(ternaryNames) {
		return ternaryNames[op]
	}
	return fmt.Sprintf("TernaryOperator(%d)", uint8(op))
}

func lookupName(names []string, s string) (int, bool) {
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}
