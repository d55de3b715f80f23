package ast

import (
	"bytes"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// UnaryExpression represents a prefix operation: -x, !x, ~x, typeof x,
// void x, delete x.e, and prefix ++/--.
type UnaryExpression struct {
	Token    lexer.Token // The operator token
	Operator string
	Operand  Expression
}

func (ue *UnaryExpression) expressionNode()      {}
func (ue *UnaryExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UnaryExpression) Pos() lexer.Position  { return ue.Token.Pos }
func (ue *UnaryExpression) String() string {
	sep := ""
	if isWordOperator(ue.Operator) {
		sep = " "
	}
	return "(" + ue.Operator + sep + ue.Operand.String() + ")"
}

// UpdateExpression represents ++x, --x, x++ and x--.
type UpdateExpression struct {
	Token    lexer.Token
	Operator string // "++" or "--"
	Operand  Expression
	Prefix   bool
}

func (ue *UpdateExpression) expressionNode()      {}
func (ue *UpdateExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UpdateExpression) Pos() lexer.Position  { return ue.Token.Pos }
func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return "(" + ue.Operator + ue.Operand.String() + ")"
	}
	return "(" + ue.Operand.String() + ue.Operator + ")"
}

// BinaryExpression represents an arithmetic, comparison, bitwise, shift,
// 'in' or 'instanceof' operation.
type BinaryExpression struct {
	Token    lexer.Token // The operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (be *BinaryExpression) expressionNode()      {}
func (be *BinaryExpression) TokenLiteral() string { return be.Token.Literal }
func (be *BinaryExpression) Pos() lexer.Position  { return be.Token.Pos }
func (be *BinaryExpression) String() string {
	return "(" + be.Left.String() + " " + be.Operator + " " + be.Right.String() + ")"
}

// LogicalExpression represents the short-circuiting operators &&, || and ??.
// Distinct from BinaryExpression because the right operand may not evaluate.
type LogicalExpression struct {
	Token    lexer.Token
	Left     Expression
	Operator string // "&&", "||" or "??"
	Right    Expression
}

func (le *LogicalExpression) expressionNode()      {}
func (le *LogicalExpression) TokenLiteral() string { return le.Token.Literal }
func (le *LogicalExpression) Pos() lexer.Position  { return le.Token.Pos }
func (le *LogicalExpression) String() string {
	return "(" + le.Left.String() + " " + le.Operator + " " + le.Right.String() + ")"
}

// ConditionalExpression represents the ternary operator: cond ? a : b.
type ConditionalExpression struct {
	Token      lexer.Token // The '?' token
	Condition  Expression
	Consequent Expression
	Alternate  Expression
}

func (ce *ConditionalExpression) expressionNode()      {}
func (ce *ConditionalExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ConditionalExpression) Pos() lexer.Position  { return ce.Condition.Pos() }
func (ce *ConditionalExpression) String() string {
	return "(" + ce.Condition.String() + " ? " + ce.Consequent.String() + " : " + ce.Alternate.String() + ")"
}

// AssignmentExpression represents simple and compound assignment.
// Operator is "=", "+=", "&&=", etc.
type AssignmentExpression struct {
	Token    lexer.Token
	Target   Expression
	Operator string
	Value    Expression
}

func (ae *AssignmentExpression) expressionNode()      {}
func (ae *AssignmentExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignmentExpression) Pos() lexer.Position  { return ae.Target.Pos() }
func (ae *AssignmentExpression) String() string {
	return "(" + ae.Target.String() + " " + ae.Operator + " " + ae.Value.String() + ")"
}

// SequenceExpression represents the comma operator: (a, b, c).
type SequenceExpression struct {
	Token       lexer.Token
	Expressions []Expression
}

func (se *SequenceExpression) expressionNode()      {}
func (se *SequenceExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SequenceExpression) Pos() lexer.Position  { return se.Expressions[0].Pos() }
func (se *SequenceExpression) String() string {
	return "(" + joinStrings(se.Expressions, ", ") + ")"
}

// MemberExpression represents property access: obj.prop, obj[expr],
// obj?.prop and obj?.[expr].
type MemberExpression struct {
	Token    lexer.Token // The '.', '?.' or '[' token
	Object   Expression
	Property Expression // Identifier for dot access, arbitrary for computed
	Computed bool
	Optional bool
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) Pos() lexer.Position  { return me.Object.Pos() }
func (me *MemberExpression) String() string {
	op := "."
	if me.Optional {
		op = "?."
	}
	if me.Computed {
		if me.Optional {
			return "(" + me.Object.String() + "?.[" + me.Property.String() + "])"
		}
		return "(" + me.Object.String() + "[" + me.Property.String() + "])"
	}
	return "(" + me.Object.String() + op + me.Property.String() + ")"
}

// CallExpression represents a function or method call.
type CallExpression struct {
	Token     lexer.Token // The '(' token
	Callee    Expression
	TypeArgs  []TypeNode // explicit type arguments: f<number>(x)
	Arguments []Expression
	Optional  bool // obj?.f()
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Pos() lexer.Position  { return ce.Callee.Pos() }
func (ce *CallExpression) String() string {
	var out bytes.Buffer
	out.WriteString(ce.Callee.String())
	if len(ce.TypeArgs) > 0 {
		out.WriteString("<")
		out.WriteString(joinStrings(ce.TypeArgs, ", "))
		out.WriteString(">")
	}
	out.WriteString("(")
	out.WriteString(joinStrings(ce.Arguments, ", "))
	out.WriteString(")")
	return out.String()
}

// NewExpression represents object construction: new C(args).
type NewExpression struct {
	Token     lexer.Token // The 'new' token
	Callee    Expression
	TypeArgs  []TypeNode
	Arguments []Expression
}

func (ne *NewExpression) expressionNode()      {}
func (ne *NewExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NewExpression) Pos() lexer.Position  { return ne.Token.Pos }
func (ne *NewExpression) String() string {
	var out bytes.Buffer
	out.WriteString("new ")
	out.WriteString(ne.Callee.String())
	if len(ne.TypeArgs) > 0 {
		out.WriteString("<")
		out.WriteString(joinStrings(ne.TypeArgs, ", "))
		out.WriteString(">")
	}
	out.WriteString("(")
	out.WriteString(joinStrings(ne.Arguments, ", "))
	out.WriteString(")")
	return out.String()
}

// SpreadElement represents ...expr in call arguments and array literals.
type SpreadElement struct {
	Token    lexer.Token // The '...' token
	Argument Expression
}

func (se *SpreadElement) expressionNode()      {}
func (se *SpreadElement) TokenLiteral() string { return se.Token.Literal }
func (se *SpreadElement) Pos() lexer.Position  { return se.Token.Pos }
func (se *SpreadElement) String() string       { return "..." + se.Argument.String() }

// ArrayLiteral represents [a, b, ...c].
type ArrayLiteral struct {
	Token    lexer.Token // The '[' token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Pos() lexer.Position  { return al.Token.Pos }
func (al *ArrayLiteral) String() string {
	return "[" + joinStrings(al.Elements, ", ") + "]"
}

// PropertyKind distinguishes object literal property flavors.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyShorthand
	PropertyMethod
	PropertyGet
	PropertySet
	PropertySpread
)

// ObjectProperty is one entry of an object literal.
type ObjectProperty struct {
	Token    lexer.Token
	Key      Expression // Identifier, StringLiteral, NumberLiteral or computed expression
	Value    Expression // nil for PropertySpread (Argument carries it)
	Argument Expression // spread argument for PropertySpread
	Kind     PropertyKind
	Computed bool
}

func (op *ObjectProperty) String() string {
	switch op.Kind {
	case PropertySpread:
		return "..." + op.Argument.String()
	case PropertyShorthand:
		return op.Key.String()
	case PropertyGet:
		return "get " + op.Key.String() + op.Value.String()
	case PropertySet:
		return "set " + op.Key.String() + op.Value.String()
	case PropertyMethod:
		return op.Key.String() + op.Value.String()
	default:
		if op.Computed {
			return "[" + op.Key.String() + "]: " + op.Value.String()
		}
		return op.Key.String() + ": " + op.Value.String()
	}
}

// ObjectLiteral represents {a: 1, b, m() {}, get x() {}, ...rest}.
type ObjectLiteral struct {
	Token      lexer.Token // The '{' token
	Properties []*ObjectProperty
}

func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) Pos() lexer.Position  { return ol.Token.Pos }
func (ol *ObjectLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("{")
	for i, p := range ol.Properties {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString("}")
	return out.String()
}

// Parameter represents one function parameter.
// Rest parameters must be last; Optional and Default are mutually exclusive
// with Rest. Access/Readonly turn constructor parameters into fields.
type Parameter struct {
	Token    lexer.Token
	Name     *Identifier
	Type     TypeNode   // nil when unannotated
	Default  Expression // nil when absent
	Access   AccessModifier
	Optional bool
	Rest     bool
	Readonly bool
}

func (p *Parameter) String() string {
	var out bytes.Buffer
	if p.Access != AccessNone {
		out.WriteString(p.Access.String() + " ")
	}
	if p.Readonly {
		out.WriteString("readonly ")
	}
	if p.Rest {
		out.WriteString("...")
	}
	out.WriteString(p.Name.String())
	if p.Optional {
		out.WriteString("?")
	}
	if p.Type != nil {
		out.WriteString(": " + p.Type.String())
	}
	if p.Default != nil {
		out.WriteString(" = " + p.Default.String())
	}
	return out.String()
}

// TypeParameter represents one generic type parameter with an optional
// constraint and default: T extends U = D.
type TypeParameter struct {
	Token      lexer.Token
	Name       *Identifier
	Constraint TypeNode // nil when unconstrained
	Default    TypeNode // nil when absent
}

func (tp *TypeParameter) String() string {
	s := tp.Name.String()
	if tp.Constraint != nil {
		s += " extends " + tp.Constraint.String()
	}
	if tp.Default != nil {
		s += " = " + tp.Default.String()
	}
	return s
}

// FunctionExpression represents a function expression or method body.
type FunctionExpression struct {
	Token       lexer.Token // The 'function' token (or the name for methods)
	Name        *Identifier // nil for anonymous functions
	TypeParams  []*TypeParameter
	Params      []*Parameter
	ReturnType  TypeNode // nil when unannotated
	Body        *BlockStatement
	IsAsync     bool
	IsGenerator bool
}

func (fe *FunctionExpression) expressionNode()      {}
func (fe *FunctionExpression) TokenLiteral() string { return fe.Token.Literal }
func (fe *FunctionExpression) Pos() lexer.Position  { return fe.Token.Pos }
func (fe *FunctionExpression) String() string {
	var out bytes.Buffer
	if fe.IsAsync {
		out.WriteString("async ")
	}
	out.WriteString("function")
	if fe.IsGenerator {
		out.WriteString("*")
	}
	if fe.Name != nil {
		out.WriteString(" " + fe.Name.String())
	}
	writeSignature(&out, fe.TypeParams, fe.Params, fe.ReturnType)
	if fe.Body != nil {
		out.WriteString(" " + fe.Body.String())
	}
	return out.String()
}

// ArrowFunction represents (a, b) => expr and (a, b) => { ... }.
// Arrows capture 'this' lexically.
type ArrowFunction struct {
	Token      lexer.Token // The '(' or sole parameter token
	TypeParams []*TypeParameter
	Params     []*Parameter
	ReturnType TypeNode
	Body       *BlockStatement // nil when ExprBody is set
	ExprBody   Expression      // concise body form
	IsAsync    bool
}

func (af *ArrowFunction) expressionNode()      {}
func (af *ArrowFunction) TokenLiteral() string { return af.Token.Literal }
func (af *ArrowFunction) Pos() lexer.Position  { return af.Token.Pos }
func (af *ArrowFunction) String() string {
	var out bytes.Buffer
	if af.IsAsync {
		out.WriteString("async ")
	}
	writeSignature(&out, af.TypeParams, af.Params, af.ReturnType)
	out.WriteString(" => ")
	if af.Body != nil {
		out.WriteString(af.Body.String())
	} else {
		out.WriteString(af.ExprBody.String())
	}
	return out.String()
}

// AwaitExpression represents await expr inside an async function.
type AwaitExpression struct {
	Token    lexer.Token
	Argument Expression
}

func (ae *AwaitExpression) expressionNode()      {}
func (ae *AwaitExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AwaitExpression) Pos() lexer.Position  { return ae.Token.Pos }
func (ae *AwaitExpression) String() string       { return "(await " + ae.Argument.String() + ")" }

// YieldExpression represents yield and yield* inside a generator.
type YieldExpression struct {
	Token    lexer.Token
	Argument Expression // nil for bare yield
	Delegate bool       // yield*
}

func (ye *YieldExpression) expressionNode()      {}
func (ye *YieldExpression) TokenLiteral() string { return ye.Token.Literal }
func (ye *YieldExpression) Pos() lexer.Position  { return ye.Token.Pos }
func (ye *YieldExpression) String() string {
	var out bytes.Buffer
	out.WriteString("(yield")
	if ye.Delegate {
		out.WriteString("*")
	}
	if ye.Argument != nil {
		out.WriteString(" " + ye.Argument.String())
	}
	out.WriteString(")")
	return out.String()
}

// TypeAssertion represents expr as T.
type TypeAssertion struct {
	Token      lexer.Token // The 'as' token
	Expression Expression
	Type       TypeNode
}

func (ta *TypeAssertion) expressionNode()      {}
func (ta *TypeAssertion) TokenLiteral() string { return ta.Token.Literal }
func (ta *TypeAssertion) Pos() lexer.Position  { return ta.Expression.Pos() }
func (ta *TypeAssertion) String() string {
	return "(" + ta.Expression.String() + " as " + ta.Type.String() + ")"
}

// writeSignature renders <T>(params): ret.
func writeSignature(out *bytes.Buffer, typeParams []*TypeParameter, params []*Parameter, returnType TypeNode) {
	if len(typeParams) > 0 {
		out.WriteString("<")
		for i, tp := range typeParams {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(tp.String())
		}
		out.WriteString(">")
	}
	out.WriteString("(")
	for i, p := range params {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString(")")
	if returnType != nil {
		out.WriteString(": " + returnType.String())
	}
}

// isWordOperator reports whether an operator is spelled as a word and needs
// a space before its operand (typeof, void, delete).
func isWordOperator(op string) bool {
	return len(op) > 0 && op[0] >= 'a' && op[0] <= 'z'
}
