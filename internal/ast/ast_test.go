package ast

import (
	"strconv"
	"testing"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

func ident(name string) *Identifier {
	return &Identifier{Token: lexer.NewToken(lexer.IDENT, name, lexer.Position{Line: 1, Column: 1}), Value: name}
}

func num(v float64) *NumberLiteral {
	return &NumberLiteral{Token: lexer.NewToken(lexer.NUMBER, strconv.FormatFloat(v, 'g', -1, 64), lexer.Position{}), Value: v}
}

func TestExpressionStrings(t *testing.T) {
	add := &BinaryExpression{
		Left:     ident("a"),
		Operator: "+",
		Right:    num(2),
	}
	if got := add.String(); got != "(a + 2)" {
		t.Errorf("binary String() = %q", got)
	}

	cond := &ConditionalExpression{
		Condition:  ident("ok"),
		Consequent: ident("x"),
		Alternate:  ident("y"),
	}
	if got := cond.String(); got != "(ok ? x : y)" {
		t.Errorf("conditional String() = %q", got)
	}

	call := &CallExpression{
		Callee:    ident("f"),
		Arguments: []Expression{ident("a"), num(1)},
	}
	if got := call.String(); got != "f(a, 1)" {
		t.Errorf("call String() = %q", got)
	}

	un := &UnaryExpression{Operator: "typeof", Operand: ident("x")}
	if got := un.String(); got != "(typeof x)" {
		t.Errorf("unary String() = %q", got)
	}

	await := &AwaitExpression{Argument: call}
	if got := await.String(); got != "(await f(a, 1))" {
		t.Errorf("await String() = %q", got)
	}
}

func TestStatementStrings(t *testing.T) {
	ret := &ReturnStatement{Value: ident("x")}
	if got := ret.String(); got != "return x;" {
		t.Errorf("return String() = %q", got)
	}

	decl := &VariableStatement{
		Kind: DeclConst,
		Declarations: []*VariableDeclarator{
			{Name: ident("x"), Init: num(1)},
		},
	}
	if got := decl.String(); got != "const x = 1;" {
		t.Errorf("variable String() = %q", got)
	}

	brk := &BreakStatement{Label: ident("outer")}
	if got := brk.String(); got != "break outer;" {
		t.Errorf("break String() = %q", got)
	}
}

func TestModulePos(t *testing.T) {
	empty := &Module{}
	if pos := empty.Pos(); pos.Line != 1 || pos.Column != 1 {
		t.Errorf("empty module Pos() = %v", pos)
	}

	mod := &Module{Statements: []Statement{&ReturnStatement{
		Token: lexer.NewToken(lexer.RETURN, "return", lexer.Position{Line: 4, Column: 2}),
	}}}
	if pos := mod.Pos(); pos.Line != 4 {
		t.Errorf("module Pos() = %v", pos)
	}
}

func TestImportExportStrings(t *testing.T) {
	imp := &ImportDeclaration{
		Default:   ident("def"),
		Named:     []*ImportSpecifier{{Name: ident("a")}, {Name: ident("b"), Alias: ident("c")}},
		Specifier: "m",
	}
	want := `import def, { a, b as c } from "m";`
	if got := imp.String(); got != want {
		t.Errorf("import String() = %q, want %q", got, want)
	}

	eq := &ImportEqualsDeclaration{Name: ident("x"), Specifier: "m"}
	if got := eq.String(); got != `import x = require("m");` {
		t.Errorf("import equals String() = %q", got)
	}

	exp := &ExportAssignment{Expression: ident("handler")}
	if got := exp.String(); got != "export = handler;" {
		t.Errorf("export assignment String() = %q", got)
	}
}

func TestTypeNodeStrings(t *testing.T) {
	union := &UnionTypeNode{Types: []TypeNode{
		&TypeReference{Name: "string"},
		&TypeReference{Name: "number"},
	}}
	if got := union.String(); got != "string | number" {
		t.Errorf("union String() = %q", got)
	}

	mapped := &MappedTypeNode{
		ParamName:  ident("K"),
		Constraint: &KeyofTypeNode{Type: &TypeReference{Name: "T"}},
		Value: &IndexedAccessTypeNode{
			Object: &TypeReference{Name: "T"},
			Index:  &TypeReference{Name: "K"},
		},
		Optional: ModifierAdd,
	}
	if got := mapped.String(); got != "{ [K in keyof T]?: T[K] }" {
		t.Errorf("mapped String() = %q", got)
	}
}
