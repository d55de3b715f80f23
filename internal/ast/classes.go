package ast

import (
	"bytes"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// AccessModifier represents member visibility.
type AccessModifier int

const (
	AccessNone AccessModifier = iota
	AccessPublic
	AccessPrivate
	AccessProtected
)

func (am AccessModifier) String() string {
	switch am {
	case AccessPublic:
		return "public"
	case AccessPrivate:
		return "private"
	case AccessProtected:
		return "protected"
	}
	return ""
}

// MemberModifiers carries the modifier set of one class member.
type MemberModifiers struct {
	Access   AccessModifier
	Static   bool
	Readonly bool
	Abstract bool
	Override bool
	Async    bool
}

func (mm MemberModifiers) String() string {
	var out bytes.Buffer
	if mm.Access != AccessNone {
		out.WriteString(mm.Access.String() + " ")
	}
	if mm.Static {
		out.WriteString("static ")
	}
	if mm.Abstract {
		out.WriteString("abstract ")
	}
	if mm.Override {
		out.WriteString("override ")
	}
	if mm.Readonly {
		out.WriteString("readonly ")
	}
	if mm.Async {
		out.WriteString("async ")
	}
	return out.String()
}

// Decorator represents one decorator attached to a class or member.
// Legacy decorators precede the declaration; current-proposal decorators sit
// between modifiers and the member name. The parser records position only;
// application order is a back-end concern.
type Decorator struct {
	Token      lexer.Token // The '@' token
	Expression Expression
	Legacy     bool
}

func (d *Decorator) String() string {
	return "@" + d.Expression.String()
}

// ClassMember is implemented by field, method and index signature members.
type ClassMember interface {
	Node
	classMemberNode()
	MemberName() string
}

// FieldMember represents an instance or static field declaration.
type FieldMember struct {
	Token      lexer.Token
	Name       *Identifier
	Type       TypeNode   // nil when inferred from the initializer
	Init       Expression // nil when absent
	Modifiers  MemberModifiers
	Decorators []*Decorator
	Optional   bool
}

func (fm *FieldMember) classMemberNode()     {}
func (fm *FieldMember) MemberName() string   { return fm.Name.Value }
func (fm *FieldMember) TokenLiteral() string { return fm.Token.Literal }
func (fm *FieldMember) Pos() lexer.Position  { return fm.Token.Pos }
func (fm *FieldMember) String() string {
	var out bytes.Buffer
	for _, d := range fm.Decorators {
		out.WriteString(d.String() + " ")
	}
	out.WriteString(fm.Modifiers.String())
	out.WriteString(fm.Name.String())
	if fm.Optional {
		out.WriteString("?")
	}
	if fm.Type != nil {
		out.WriteString(": " + fm.Type.String())
	}
	if fm.Init != nil {
		out.WriteString(" = " + fm.Init.String())
	}
	out.WriteString(";")
	return out.String()
}

// MethodKind distinguishes constructors, plain methods and accessors.
type MethodKind int

const (
	MethodNormal MethodKind = iota
	MethodConstructor
	MethodGet
	MethodSet
)

// MethodMember represents a method, constructor, getter or setter.
// Abstract methods have a nil Function.Body.
type MethodMember struct {
	Token      lexer.Token
	Name       *Identifier
	Kind       MethodKind
	Function   *FunctionExpression
	Modifiers  MemberModifiers
	Decorators []*Decorator
}

func (mm *MethodMember) classMemberNode()     {}
func (mm *MethodMember) MemberName() string   { return mm.Name.Value }
func (mm *MethodMember) TokenLiteral() string { return mm.Token.Literal }
func (mm *MethodMember) Pos() lexer.Position  { return mm.Token.Pos }
func (mm *MethodMember) String() string {
	var out bytes.Buffer
	for _, d := range mm.Decorators {
		out.WriteString(d.String() + " ")
	}
	out.WriteString(mm.Modifiers.String())
	switch mm.Kind {
	case MethodGet:
		out.WriteString("get ")
	case MethodSet:
		out.WriteString("set ")
	}
	out.WriteString(mm.Name.String())
	writeSignature(&out, mm.Function.TypeParams, mm.Function.Params, mm.Function.ReturnType)
	if mm.Function.Body != nil {
		out.WriteString(" " + mm.Function.Body.String())
	} else {
		out.WriteString(";")
	}
	return out.String()
}

// IndexSignatureMember represents [key: string]: T inside a class or
// interface body.
type IndexSignatureMember struct {
	Token     lexer.Token
	KeyName   *Identifier
	KeyType   TypeNode
	ValueType TypeNode
	Readonly  bool
}

func (im *IndexSignatureMember) classMemberNode()     {}
func (im *IndexSignatureMember) MemberName() string   { return "[index]" }
func (im *IndexSignatureMember) TokenLiteral() string { return im.Token.Literal }
func (im *IndexSignatureMember) Pos() lexer.Position  { return im.Token.Pos }
func (im *IndexSignatureMember) String() string {
	s := ""
	if im.Readonly {
		s = "readonly "
	}
	return s + "[" + im.KeyName.String() + ": " + im.KeyType.String() + "]: " + im.ValueType.String() + ";"
}

// ClassDeclaration represents a class with optional inheritance, interface
// implementations, generics and decorators.
type ClassDeclaration struct {
	Token         lexer.Token
	Name          *Identifier
	TypeParams    []*TypeParameter
	SuperClass    Expression // nil when absent; usually an Identifier
	SuperTypeArgs []TypeNode
	Implements    []TypeNode
	Members       []ClassMember
	Decorators    []*Decorator
	IsAbstract    bool
	Exported      bool
	Default       bool
}

func (cd *ClassDeclaration) statementNode()       {}
func (cd *ClassDeclaration) TokenLiteral() string { return cd.Token.Literal }
func (cd *ClassDeclaration) Pos() lexer.Position  { return cd.Token.Pos }
func (cd *ClassDeclaration) String() string {
	var out bytes.Buffer
	for _, d := range cd.Decorators {
		out.WriteString(d.String() + " ")
	}
	if cd.Exported {
		out.WriteString("export ")
		if cd.Default {
			out.WriteString("default ")
		}
	}
	if cd.IsAbstract {
		out.WriteString("abstract ")
	}
	out.WriteString("class " + cd.Name.String())
	if len(cd.TypeParams) > 0 {
		out.WriteString("<")
		for i, tp := range cd.TypeParams {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(tp.String())
		}
		out.WriteString(">")
	}
	if cd.SuperClass != nil {
		out.WriteString(" extends " + cd.SuperClass.String())
		if len(cd.SuperTypeArgs) > 0 {
			out.WriteString("<" + joinStrings(cd.SuperTypeArgs, ", ") + ">")
		}
	}
	if len(cd.Implements) > 0 {
		out.WriteString(" implements " + joinStrings(cd.Implements, ", "))
	}
	out.WriteString(" { ")
	for _, m := range cd.Members {
		out.WriteString(m.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

// ClassExpression adapts a class declaration into expression position:
// const C = class { ... }, export default class { ... }.
type ClassExpression struct {
	Decl *ClassDeclaration
}

func (ce *ClassExpression) expressionNode()      {}
func (ce *ClassExpression) TokenLiteral() string { return ce.Decl.TokenLiteral() }
func (ce *ClassExpression) String() string       { return ce.Decl.String() }
func (ce *ClassExpression) Pos() lexer.Position  { return ce.Decl.Pos() }

// InterfaceMember is one member of an interface body.
type InterfaceMember struct {
	Token    lexer.Token
	Name     *Identifier // nil for index signatures
	Type     TypeNode    // property type or function type for methods
	KeyType  TypeNode    // set for index signatures
	Optional bool
	Readonly bool
}

func (im *InterfaceMember) String() string {
	var out bytes.Buffer
	if im.Readonly {
		out.WriteString("readonly ")
	}
	if im.Name == nil {
		out.WriteString("[key: " + im.KeyType.String() + "]")
	} else {
		out.WriteString(im.Name.String())
		if im.Optional {
			out.WriteString("?")
		}
	}
	out.WriteString(": " + im.Type.String() + ";")
	return out.String()
}

// InterfaceDeclaration represents an interface. Declarations with the same
// name within a module merge additively.
type InterfaceDeclaration struct {
	Token      lexer.Token
	Name       *Identifier
	TypeParams []*TypeParameter
	Extends    []TypeNode
	Members    []*InterfaceMember
	Exported   bool
}

func (id *InterfaceDeclaration) statementNode()       {}
func (id *InterfaceDeclaration) TokenLiteral() string { return id.Token.Literal }
func (id *InterfaceDeclaration) Pos() lexer.Position  { return id.Token.Pos }
func (id *InterfaceDeclaration) String() string {
	var out bytes.Buffer
	if id.Exported {
		out.WriteString("export ")
	}
	out.WriteString("interface " + id.Name.String())
	if len(id.TypeParams) > 0 {
		out.WriteString("<")
		for i, tp := range id.TypeParams {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(tp.String())
		}
		out.WriteString(">")
	}
	if len(id.Extends) > 0 {
		out.WriteString(" extends " + joinStrings(id.Extends, ", "))
	}
	out.WriteString(" { ")
	for _, m := range id.Members {
		out.WriteString(m.String() + " ")
	}
	out.WriteString("}")
	return out.String()
}

// TypeAliasDeclaration represents type X<T> = ...;
type TypeAliasDeclaration struct {
	Token      lexer.Token
	Name       *Identifier
	TypeParams []*TypeParameter
	Type       TypeNode
	Exported   bool
}

func (ta *TypeAliasDeclaration) statementNode()       {}
func (ta *TypeAliasDeclaration) TokenLiteral() string { return ta.Token.Literal }
func (ta *TypeAliasDeclaration) Pos() lexer.Position  { return ta.Token.Pos }
func (ta *TypeAliasDeclaration) String() string {
	var out bytes.Buffer
	if ta.Exported {
		out.WriteString("export ")
	}
	out.WriteString("type " + ta.Name.String())
	if len(ta.TypeParams) > 0 {
		out.WriteString("<")
		for i, tp := range ta.TypeParams {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(tp.String())
		}
		out.WriteString(">")
	}
	out.WriteString(" = " + ta.Type.String() + ";")
	return out.String()
}

// EnumMember is one name (with optional explicit initializer) of an enum.
type EnumMember struct {
	Token lexer.Token
	Name  *Identifier
	Init  Expression // nil for auto-incremented numeric members
}

func (em *EnumMember) String() string {
	if em.Init != nil {
		return em.Name.String() + " = " + em.Init.String()
	}
	return em.Name.String()
}

// EnumDeclaration represents enum E { A, B = 2, C = "c" }.
type EnumDeclaration struct {
	Token    lexer.Token
	Name     *Identifier
	Members  []*EnumMember
	Const    bool
	Exported bool
}

func (ed *EnumDeclaration) statementNode()       {}
func (ed *EnumDeclaration) TokenLiteral() string { return ed.Token.Literal }
func (ed *EnumDeclaration) Pos() lexer.Position  { return ed.Token.Pos }
func (ed *EnumDeclaration) String() string {
	var out bytes.Buffer
	if ed.Exported {
		out.WriteString("export ")
	}
	if ed.Const {
		out.WriteString("const ")
	}
	out.WriteString("enum " + ed.Name.String() + " { ")
	for i, m := range ed.Members {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(m.String())
	}
	out.WriteString(" }")
	return out.String()
}
