package ast

import (
	"bytes"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// TypeReference represents a named type, optionally instantiated:
// number, string, Foo, Array<T>, Map<string, V>.
// Primitive names are not special-cased in the AST; the checker resolves them.
type TypeReference struct {
	Token    lexer.Token
	Name     string
	TypeArgs []TypeNode
}

func (tr *TypeReference) typeNode()            {}
func (tr *TypeReference) TokenLiteral() string { return tr.Token.Literal }
func (tr *TypeReference) Pos() lexer.Position  { return tr.Token.Pos }
func (tr *TypeReference) String() string {
	if len(tr.TypeArgs) == 0 {
		return tr.Name
	}
	return tr.Name + "<" + joinStrings(tr.TypeArgs, ", ") + ">"
}

// LiteralTypeNode represents a literal type: "a", 42, true.
type LiteralTypeNode struct {
	Token lexer.Token
	// Exactly one of the literal expressions below is set.
	Str  *StringLiteral
	Num  *NumberLiteral
	Bool *BooleanLiteral
}

func (lt *LiteralTypeNode) typeNode()            {}
func (lt *LiteralTypeNode) TokenLiteral() string { return lt.Token.Literal }
func (lt *LiteralTypeNode) Pos() lexer.Position  { return lt.Token.Pos }
func (lt *LiteralTypeNode) String() string {
	switch {
	case lt.Str != nil:
		return lt.Str.String()
	case lt.Num != nil:
		return lt.Num.String()
	case lt.Bool != nil:
		return lt.Bool.String()
	}
	return "?"
}

// ArrayTypeNode represents T[].
type ArrayTypeNode struct {
	Token   lexer.Token
	Element TypeNode
}

func (at *ArrayTypeNode) typeNode()            {}
func (at *ArrayTypeNode) TokenLiteral() string { return at.Token.Literal }
func (at *ArrayTypeNode) Pos() lexer.Position  { return at.Element.Pos() }
func (at *ArrayTypeNode) String() string       { return at.Element.String() + "[]" }

// TupleElement is one slot of a tuple type; Optional marks T? slots and Rest
// marks a trailing ...T[] element.
type TupleElement struct {
	Type     TypeNode
	Optional bool
	Rest     bool
}

func (te *TupleElement) String() string {
	if te.Rest {
		return "..." + te.Type.String()
	}
	if te.Optional {
		return te.Type.String() + "?"
	}
	return te.Type.String()
}

// TupleTypeNode represents [A, B?, ...C[]].
type TupleTypeNode struct {
	Token    lexer.Token
	Elements []*TupleElement
}

func (tt *TupleTypeNode) typeNode()            {}
func (tt *TupleTypeNode) TokenLiteral() string { return tt.Token.Literal }
func (tt *TupleTypeNode) Pos() lexer.Position  { return tt.Token.Pos }
func (tt *TupleTypeNode) String() string {
	var out bytes.Buffer
	out.WriteString("[")
	for i, e := range tt.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(e.String())
	}
	out.WriteString("]")
	return out.String()
}

// UnionTypeNode represents A | B | C.
type UnionTypeNode struct {
	Token lexer.Token
	Types []TypeNode
}

func (ut *UnionTypeNode) typeNode()            {}
func (ut *UnionTypeNode) TokenLiteral() string { return ut.Token.Literal }
func (ut *UnionTypeNode) Pos() lexer.Position  { return ut.Types[0].Pos() }
func (ut *UnionTypeNode) String() string       { return joinStrings(ut.Types, " | ") }

// IntersectionTypeNode represents A & B & C.
type IntersectionTypeNode struct {
	Token lexer.Token
	Types []TypeNode
}

func (it *IntersectionTypeNode) typeNode()            {}
func (it *IntersectionTypeNode) TokenLiteral() string { return it.Token.Literal }
func (it *IntersectionTypeNode) Pos() lexer.Position  { return it.Types[0].Pos() }
func (it *IntersectionTypeNode) String() string       { return joinStrings(it.Types, " & ") }

// ObjectTypeMember is one member of an inline object type.
// Name nil + KeyType set encodes an index signature. Params non-nil encodes
// a method signature.
type ObjectTypeMember struct {
	Token    lexer.Token
	Name     *Identifier
	Type     TypeNode
	KeyType  TypeNode
	Params   []*Parameter
	Optional bool
	Readonly bool
	IsMethod bool
}

func (om *ObjectTypeMember) String() string {
	var out bytes.Buffer
	if om.Readonly {
		out.WriteString("readonly ")
	}
	if om.Name == nil {
		out.WriteString("[key: " + om.KeyType.String() + "]: " + om.Type.String())
		return out.String()
	}
	out.WriteString(om.Name.String())
	if om.Optional {
		out.WriteString("?")
	}
	if om.IsMethod {
		out.WriteString("(")
		for i, p := range om.Params {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(p.String())
		}
		out.WriteString("): " + om.Type.String())
		return out.String()
	}
	out.WriteString(": " + om.Type.String())
	return out.String()
}

// ObjectTypeNode represents an inline record type: { a: number; b?: string }.
type ObjectTypeNode struct {
	Token   lexer.Token
	Members []*ObjectTypeMember
}

func (ot *ObjectTypeNode) typeNode()            {}
func (ot *ObjectTypeNode) TokenLiteral() string { return ot.Token.Literal }
func (ot *ObjectTypeNode) Pos() lexer.Position  { return ot.Token.Pos }
func (ot *ObjectTypeNode) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, m := range ot.Members {
		out.WriteString(m.String() + "; ")
	}
	out.WriteString("}")
	return out.String()
}

// FunctionTypeNode represents (a: A, b?: B) => R.
type FunctionTypeNode struct {
	Token      lexer.Token
	TypeParams []*TypeParameter
	Params     []*Parameter
	ReturnType TypeNode
}

func (ft *FunctionTypeNode) typeNode()            {}
func (ft *FunctionTypeNode) TokenLiteral() string { return ft.Token.Literal }
func (ft *FunctionTypeNode) Pos() lexer.Position  { return ft.Token.Pos }
func (ft *FunctionTypeNode) String() string {
	var out bytes.Buffer
	if len(ft.TypeParams) > 0 {
		out.WriteString("<")
		for i, tp := range ft.TypeParams {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(tp.String())
		}
		out.WriteString(">")
	}
	out.WriteString("(")
	for i, p := range ft.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(p.String())
	}
	out.WriteString(") => " + ft.ReturnType.String())
	return out.String()
}

// KeyofTypeNode represents keyof T.
type KeyofTypeNode struct {
	Token lexer.Token
	Type  TypeNode
}

func (kt *KeyofTypeNode) typeNode()            {}
func (kt *KeyofTypeNode) TokenLiteral() string { return kt.Token.Literal }
func (kt *KeyofTypeNode) Pos() lexer.Position  { return kt.Token.Pos }
func (kt *KeyofTypeNode) String() string       { return "keyof " + kt.Type.String() }

// OptionalModifier encodes +?, -? or no modifier on a mapped type.
type OptionalModifier int

const (
	ModifierNone   OptionalModifier = iota
	ModifierAdd                     // +? (or plain ?)
	ModifierRemove                  // -?
)

// MappedTypeNode represents { [K in C as R]?: V }.
type MappedTypeNode struct {
	Token      lexer.Token
	ParamName  *Identifier
	Constraint TypeNode
	As         TypeNode // nil when no key remapping
	Value      TypeNode
	Optional   OptionalModifier
	Readonly   OptionalModifier
}

func (mt *MappedTypeNode) typeNode()            {}
func (mt *MappedTypeNode) TokenLiteral() string { return mt.Token.Literal }
func (mt *MappedTypeNode) Pos() lexer.Position  { return mt.Token.Pos }
func (mt *MappedTypeNode) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	switch mt.Readonly {
	case ModifierAdd:
		out.WriteString("readonly ")
	case ModifierRemove:
		out.WriteString("-readonly ")
	}
	out.WriteString("[" + mt.ParamName.String() + " in " + mt.Constraint.String())
	if mt.As != nil {
		out.WriteString(" as " + mt.As.String())
	}
	out.WriteString("]")
	switch mt.Optional {
	case ModifierAdd:
		out.WriteString("?")
	case ModifierRemove:
		out.WriteString("-?")
	}
	out.WriteString(": " + mt.Value.String() + " }")
	return out.String()
}

// IndexedAccessTypeNode represents T[K].
type IndexedAccessTypeNode struct {
	Token  lexer.Token
	Object TypeNode
	Index  TypeNode
}

func (ia *IndexedAccessTypeNode) typeNode()            {}
func (ia *IndexedAccessTypeNode) TokenLiteral() string { return ia.Token.Literal }
func (ia *IndexedAccessTypeNode) Pos() lexer.Position  { return ia.Object.Pos() }
func (ia *IndexedAccessTypeNode) String() string {
	return ia.Object.String() + "[" + ia.Index.String() + "]"
}

// TypePredicateNode represents a user-defined type guard return: x is T.
type TypePredicateNode struct {
	Token lexer.Token
	Param *Identifier
	Type  TypeNode
}

func (tp *TypePredicateNode) typeNode()            {}
func (tp *TypePredicateNode) TokenLiteral() string { return tp.Token.Literal }
func (tp *TypePredicateNode) Pos() lexer.Position  { return tp.Token.Pos }
func (tp *TypePredicateNode) String() string {
	return tp.Param.String() + " is " + tp.Type.String()
}

// ParenthesizedTypeNode preserves grouping for round-trip printing:
// (A | B)[].
type ParenthesizedTypeNode struct {
	Token lexer.Token
	Type  TypeNode
}

func (pt *ParenthesizedTypeNode) typeNode()            {}
func (pt *ParenthesizedTypeNode) TokenLiteral() string { return pt.Token.Literal }
func (pt *ParenthesizedTypeNode) Pos() lexer.Position  { return pt.Token.Pos }
func (pt *ParenthesizedTypeNode) String() string       { return "(" + pt.Type.String() + ")" }
