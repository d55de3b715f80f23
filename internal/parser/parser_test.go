package parser

import (
	"testing"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parse is a test helper that parses source as a module and fails the test
// on parse errors.
func parse(t *testing.T, input string) *ast.Module {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	mod := p.ParseModule("test")
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors for %q:\n%v", input, p.Errors()[0])
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("lexer errors for %q:\n%v", input, l.Errors()[0])
	}
	return mod
}

// parseExpr parses a single expression statement and returns the expression.
func parseExpr(t *testing.T, input string) ast.Expression {
	t.Helper()
	mod := parse(t, input)
	if len(mod.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(mod.Statements))
	}
	es, ok := mod.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected ExpressionStatement, got %T", mod.Statements[0])
	}
	return es.Expression
}

func TestVariableStatements(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.DeclarationKind
		name  string
	}{
		{"var x = 1;", ast.DeclVar, "x"},
		{"let y = 2;", ast.DeclLet, "y"},
		{"const z = 3;", ast.DeclConst, "z"},
		{"let typed: number = 4;", ast.DeclLet, "typed"},
		{"let untyped;", ast.DeclLet, "untyped"},
	}

	for _, tt := range tests {
		mod := parse(t, tt.input)
		stmt, ok := mod.Statements[0].(*ast.VariableStatement)
		if !ok {
			t.Fatalf("%q: expected VariableStatement, got %T", tt.input, mod.Statements[0])
		}
		if stmt.Kind != tt.kind {
			t.Errorf("%q: kind = %v, want %v", tt.input, stmt.Kind, tt.kind)
		}
		if stmt.Declarations[0].Name.Value != tt.name {
			t.Errorf("%q: name = %q, want %q", tt.input, stmt.Declarations[0].Name.Value, tt.name)
		}
	}
}

func TestConstRequiresInitializer(t *testing.T) {
	l := lexer.New("const x;")
	p := New(l)
	p.ParseModule("test")
	if len(p.Errors()) == 0 {
		t.Error("expected an error for uninitialized const")
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3;", "(1 + (2 * 3))"},
		{"(1 + 2) * 3;", "((1 + 2) * 3)"},
		{"a + b - c;", "((a + b) - c)"},
		{"-a * b;", "((-a) * b)"},
		{"!x == y;", "((!x) == y)"},
		{"a === b !== c;", "((a === b) !== c)"},
		{"a < b == c > d;", "((a < b) == (c > d))"},
		{"a << 2 + 1;", "(a << (2 + 1))"},
		{"16 >> 2;", "(16 >> 2)"},
		{"a >>> b >> c;", "((a >>> b) >> c)"},
		{"a && b || c;", "((a && b) || c)"},
		{"a ?? b;", "(a ?? b)"},
		{"a | b & c;", "(a | (b & c))"},
		{"a ** b ** c;", "(a ** (b ** c))"},
		{"x = y = z;", "(x = (y = z))"},
		{"a ? b : c;", "(a ? b : c)"},
		{"typeof x === \"string\";", "((typeof x) === \"string\")"},
		{"x instanceof C;", "(x instanceof C)"},
		{"\"a\" in obj;", "(\"a\" in obj)"},
	}

	for _, tt := range tests {
		expr := parseExpr(t, tt.input)
		if got := expr.String(); got != tt.expected {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestShiftVersusGenericMixing(t *testing.T) {
	// Both a shift and a nested generic close in one module.
	input := `let a = 16 >> 2;
let m: Partial<Readonly<T>> = x;
let b = v >>> 3;`

	mod := parse(t, input)
	if len(mod.Statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(mod.Statements))
	}

	shift := mod.Statements[0].(*ast.VariableStatement).Declarations[0].Init
	if shift.String() != "(16 >> 2)" {
		t.Errorf("shift = %q", shift.String())
	}

	typed := mod.Statements[1].(*ast.VariableStatement).Declarations[0]
	ref, ok := typed.Type.(*ast.TypeReference)
	if !ok || ref.Name != "Partial" {
		t.Fatalf("type = %T %s", typed.Type, typed.Type.String())
	}
	inner, ok := ref.TypeArgs[0].(*ast.TypeReference)
	if !ok || inner.Name != "Readonly" {
		t.Fatalf("inner type arg = %s", ref.TypeArgs[0].String())
	}
	if inner.TypeArgs[0].String() != "T" {
		t.Errorf("innermost type arg = %s", inner.TypeArgs[0].String())
	}

	ushr := mod.Statements[2].(*ast.VariableStatement).Declarations[0].Init
	if ushr.String() != "(v >>> 3)" {
		t.Errorf("unsigned shift = %q", ushr.String())
	}
}

func TestDeeplyNestedGenerics(t *testing.T) {
	mod := parse(t, "let m: Map<string, Array<Array<number>>> = x;")
	decl := mod.Statements[0].(*ast.VariableStatement).Declarations[0]
	ref := decl.Type.(*ast.TypeReference)
	if ref.Name != "Map" || len(ref.TypeArgs) != 2 {
		t.Fatalf("type = %s", decl.Type.String())
	}
	if decl.Type.String() != "Map<string, Array<Array<number>>>" {
		t.Errorf("round trip = %q", decl.Type.String())
	}
}

func TestArrowVersusParenthesized(t *testing.T) {
	// Parenthesized expression.
	expr := parseExpr(t, "(a + b) * c;")
	if expr.String() != "((a + b) * c)" {
		t.Errorf("paren expr = %q", expr.String())
	}

	// Arrow with parameters.
	arrow, ok := parseExpr(t, "(a, b) => a + b;").(*ast.ArrowFunction)
	if !ok {
		t.Fatal("expected ArrowFunction")
	}
	if len(arrow.Params) != 2 {
		t.Errorf("params = %d, want 2", len(arrow.Params))
	}
	if arrow.ExprBody == nil {
		t.Error("expected concise body")
	}

	// Single-parameter arrow without parens.
	simple, ok := parseExpr(t, "x => x * 2;").(*ast.ArrowFunction)
	if !ok {
		t.Fatal("expected ArrowFunction for single-param form")
	}
	if simple.Params[0].Name.Value != "x" {
		t.Errorf("param = %q", simple.Params[0].Name.Value)
	}

	// Typed arrow with block body.
	typed, ok := parseExpr(t, "(x: number): number => { return x; };").(*ast.ArrowFunction)
	if !ok {
		t.Fatal("expected typed ArrowFunction")
	}
	if typed.Params[0].Type == nil || typed.ReturnType == nil || typed.Body == nil {
		t.Error("typed arrow missing annotations or body")
	}

	// Empty parameter list.
	if _, ok := parseExpr(t, "() => 1;").(*ast.ArrowFunction); !ok {
		t.Error("expected ArrowFunction for ()")
	}

	// Async arrow.
	async, ok := parseExpr(t, "async (x) => x;").(*ast.ArrowFunction)
	if !ok || !async.IsAsync {
		t.Error("expected async ArrowFunction")
	}
}

func TestParameterFeatures(t *testing.T) {
	fn, ok := parseExpr(t, "(function f(a: number, b?: string, c = 3, ...rest: number[]) {});").(*ast.FunctionExpression)
	if !ok {
		t.Fatal("expected FunctionExpression")
	}
	if len(fn.Params) != 4 {
		t.Fatalf("params = %d, want 4", len(fn.Params))
	}
	if fn.Params[1].Optional != true {
		t.Error("b must be optional")
	}
	if fn.Params[2].Default == nil {
		t.Error("c must have a default")
	}
	if !fn.Params[3].Rest {
		t.Error("rest must be marked")
	}
}

func TestCallsAndMembers(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"f(1, 2);", "f(1, 2)"},
		{"obj.m(x);", "(obj.m)(x)"},
		{"a[0];", "(a[0])"},
		{"a?.b;", "(a?.b)"},
		{"a?.[0];", "(a?.[0])"},
		{"new C(1);", "new C(1)"},
		{"x as number;", "(x as number)"},
		{"i++;", "(i++)"},
		{"--i;", "(--i)"},
		{"f<number>(x);", "f<number>(x)"},
	}

	for _, tt := range tests {
		expr := parseExpr(t, tt.input)
		if got := expr.String(); got != tt.expected {
			t.Errorf("%q: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTypeArgumentCallVersusComparison(t *testing.T) {
	// A '<' with no closing '>' and argument list stays a comparison; a
	// complete type argument list followed by '(' is a type-argument call.
	expr := parseExpr(t, "a < b;")
	if expr.String() != "(a < b)" {
		t.Errorf("comparison = %q", expr.String())
	}

	call, ok := parseExpr(t, "id<string>(s);").(*ast.CallExpression)
	if !ok {
		t.Fatal("expected CallExpression with type arguments")
	}
	if len(call.TypeArgs) != 1 || call.TypeArgs[0].String() != "string" {
		t.Errorf("type args = %v", call.TypeArgs)
	}
}

func TestObjectAndArrayLiterals(t *testing.T) {
	obj, ok := parseExpr(t, "({a: 1, b, m() { return 1; }, get x() { return 2; }, ...rest});").(*ast.ObjectLiteral)
	if !ok {
		t.Fatal("expected ObjectLiteral")
	}
	if len(obj.Properties) != 5 {
		t.Fatalf("properties = %d, want 5", len(obj.Properties))
	}
	kinds := []ast.PropertyKind{
		ast.PropertyInit, ast.PropertyShorthand, ast.PropertyMethod,
		ast.PropertyGet, ast.PropertySpread,
	}
	for i, want := range kinds {
		if obj.Properties[i].Kind != want {
			t.Errorf("property %d kind = %v, want %v", i, obj.Properties[i].Kind, want)
		}
	}

	arr, ok := parseExpr(t, "[1, 2, ...xs];").(*ast.ArrayLiteral)
	if !ok {
		t.Fatal("expected ArrayLiteral")
	}
	if len(arr.Elements) != 3 {
		t.Fatalf("elements = %d", len(arr.Elements))
	}
	if _, ok := arr.Elements[2].(*ast.SpreadElement); !ok {
		t.Error("expected SpreadElement")
	}
}

func TestTemplateLiteralParsing(t *testing.T) {
	tmpl, ok := parseExpr(t, "`a${x}b${y + 1}c`;").(*ast.TemplateLiteral)
	if !ok {
		t.Fatal("expected TemplateLiteral")
	}
	if len(tmpl.Quasis) != 3 || len(tmpl.Expressions) != 2 {
		t.Fatalf("quasis=%d exprs=%d", len(tmpl.Quasis), len(tmpl.Expressions))
	}
	if tmpl.Expressions[1].String() != "(y + 1)" {
		t.Errorf("second substitution = %q", tmpl.Expressions[1].String())
	}
}

func TestControlFlowStatements(t *testing.T) {
	inputs := []string{
		"if (x) { f(); } else { g(); }",
		"while (x > 0) { x--; }",
		"do { x++; } while (x < 10);",
		"for (let i = 0; i < 10; i++) { f(i); }",
		"for (;;) { break; }",
		"for (let k in obj) { f(k); }",
		"for (const v of xs) { f(v); }",
		"for await (const v of gen()) { f(v); }",
		"switch (x) { case 1: f(); break; default: g(); }",
		"outer: for (let i = 0; i < 3; i++) { continue outer; }",
		"try { f(); } catch (e) { g(e); } finally { h(); }",
		"try { f(); } catch { g(); }",
		"throw new Error(\"boom\");",
	}
	for _, input := range inputs {
		parse(t, input)
	}
}

func TestForOfAwaitFlag(t *testing.T) {
	mod := parse(t, "for await (const v of xs) { f(v); }")
	stmt, ok := mod.Statements[0].(*ast.ForOfStatement)
	if !ok {
		t.Fatalf("expected ForOfStatement, got %T", mod.Statements[0])
	}
	if !stmt.Await {
		t.Error("Await flag not set")
	}
	if stmt.Kind != ast.DeclConst {
		t.Error("declaration kind must be const")
	}
}

func TestClassDeclaration(t *testing.T) {
	input := `class B extends A implements I {
	private count: number = 0;
	static total = 0;
	readonly id: string;
	constructor(public x: number, private y: string) { super(); }
	m(): number { return this.x; }
	get value(): number { return this.count; }
	set value(v: number) { this.count = v; }
	static create(): B { return new B(1, "a"); }
	async load(): Promise<void> {}
	*items(): Generator<number> { yield 1; }
	[key: string]: number;
}`

	mod := parse(t, input)
	decl, ok := mod.Statements[0].(*ast.ClassDeclaration)
	if !ok {
		t.Fatalf("expected ClassDeclaration, got %T", mod.Statements[0])
	}
	if decl.Name.Value != "B" {
		t.Errorf("name = %q", decl.Name.Value)
	}
	if decl.SuperClass == nil || decl.SuperClass.String() != "A" {
		t.Error("missing extends clause")
	}
	if len(decl.Implements) != 1 {
		t.Error("missing implements clause")
	}
	if len(decl.Members) != 11 {
		t.Fatalf("members = %d, want 11", len(decl.Members))
	}

	ctor := decl.Members[3].(*ast.MethodMember)
	if ctor.Kind != ast.MethodConstructor {
		t.Error("fourth member must be the constructor")
	}
	if ctor.Function.Params[0].Access != ast.AccessPublic {
		t.Error("parameter property modifier missing")
	}

	getter := decl.Members[5].(*ast.MethodMember)
	if getter.Kind != ast.MethodGet {
		t.Errorf("expected getter, got kind %v", getter.Kind)
	}

	static := decl.Members[7].(*ast.MethodMember)
	if !static.Modifiers.Static {
		t.Error("static modifier missing on create")
	}

	asyncM := decl.Members[8].(*ast.MethodMember)
	if !asyncM.Modifiers.Async || !asyncM.Function.IsAsync {
		t.Error("async modifier missing on load")
	}

	gen := decl.Members[9].(*ast.MethodMember)
	if !gen.Function.IsGenerator {
		t.Error("generator marker missing on items")
	}

	if _, ok := decl.Members[10].(*ast.IndexSignatureMember); !ok {
		t.Error("index signature missing")
	}
}

func TestAbstractClass(t *testing.T) {
	input := `abstract class Shape {
	abstract area(): number;
	describe(): string { return "shape"; }
}`

	mod := parse(t, input)
	decl := mod.Statements[0].(*ast.ClassDeclaration)
	if !decl.IsAbstract {
		t.Error("IsAbstract not set")
	}

	abstract := decl.Members[0].(*ast.MethodMember)
	if !abstract.Modifiers.Abstract {
		t.Error("abstract modifier missing")
	}
	if abstract.Function.Body != nil {
		t.Error("abstract method must have no body")
	}

	concrete := decl.Members[1].(*ast.MethodMember)
	if concrete.Function.Body == nil {
		t.Error("concrete method must have a body")
	}
}

func TestDecorators(t *testing.T) {
	input := `@sealed
@log("cls")
class C {
	@readonly2 m(): void {}
	@enumerable(false) f: number = 1;
}`

	mod := parse(t, input)
	decl := mod.Statements[0].(*ast.ClassDeclaration)
	if len(decl.Decorators) != 2 {
		t.Fatalf("class decorators = %d, want 2", len(decl.Decorators))
	}
	if decl.Decorators[0].Expression.String() != "sealed" {
		t.Errorf("first decorator = %q", decl.Decorators[0].Expression.String())
	}
	if decl.Decorators[1].Expression.String() != `log("cls")` {
		t.Errorf("second decorator = %q", decl.Decorators[1].Expression.String())
	}

	method := decl.Members[0].(*ast.MethodMember)
	if len(method.Decorators) != 1 {
		t.Error("method decorator missing")
	}
	field := decl.Members[1].(*ast.FieldMember)
	if len(field.Decorators) != 1 {
		t.Error("field decorator missing")
	}
}

func TestInterfaceDeclaration(t *testing.T) {
	input := `interface Shape extends Base {
	name: string;
	area?: number;
	readonly id: string;
	describe(prefix: string): string;
	[key: string]: any;
}`

	mod := parse(t, input)
	decl, ok := mod.Statements[0].(*ast.InterfaceDeclaration)
	if !ok {
		t.Fatalf("expected InterfaceDeclaration, got %T", mod.Statements[0])
	}
	if len(decl.Extends) != 1 {
		t.Error("extends clause missing")
	}
	if len(decl.Members) != 5 {
		t.Fatalf("members = %d, want 5", len(decl.Members))
	}
	if !decl.Members[1].Optional {
		t.Error("area must be optional")
	}
	if !decl.Members[2].Readonly {
		t.Error("id must be readonly")
	}
	if _, ok := decl.Members[3].Type.(*ast.FunctionTypeNode); !ok {
		t.Error("describe must carry a function type")
	}
	if decl.Members[4].KeyType == nil {
		t.Error("index signature must record its key type")
	}
}

func TestTypeAliasAndMappedType(t *testing.T) {
	mod := parse(t, "type P<T> = { [K in keyof T]?: T[K] };")
	decl := mod.Statements[0].(*ast.TypeAliasDeclaration)
	if decl.Name.Value != "P" || len(decl.TypeParams) != 1 {
		t.Fatalf("alias header wrong: %s", decl.String())
	}

	mt, ok := decl.Type.(*ast.MappedTypeNode)
	if !ok {
		t.Fatalf("expected MappedTypeNode, got %T", decl.Type)
	}
	if mt.ParamName.Value != "K" {
		t.Errorf("param = %q", mt.ParamName.Value)
	}
	if mt.Optional != ast.ModifierAdd {
		t.Error("optional modifier must be +?")
	}
	if _, ok := mt.Constraint.(*ast.KeyofTypeNode); !ok {
		t.Errorf("constraint = %T", mt.Constraint)
	}
	if _, ok := mt.Value.(*ast.IndexedAccessTypeNode); !ok {
		t.Errorf("value = %T", mt.Value)
	}
}

func TestMappedTypeWithAsClause(t *testing.T) {
	mod := parse(t, "type U<T> = { [K in keyof T as Uppercase<K>]: T[K] };")
	decl := mod.Statements[0].(*ast.TypeAliasDeclaration)
	mt := decl.Type.(*ast.MappedTypeNode)
	if mt.As == nil {
		t.Fatal("as clause missing")
	}
	ref, ok := mt.As.(*ast.TypeReference)
	if !ok || ref.Name != "Uppercase" {
		t.Errorf("as clause = %s", mt.As.String())
	}
}

func TestTypeAnnotationForms(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"let a: number[];", "number[]"},
		{"let b: string | number;", "string | number"},
		{"let c: A & B;", "A & B"},
		{"let d: [number, string];", "[number, string]"},
		{"let e: [number, string?];", "[number, string?]"},
		{"let f: (x: number) => string;", "(x: number) => string"},
		{"let g: { a: number; b?: string; };", "{ a: number; b?: string; }"},
		{"let h: keyof T;", "keyof T"},
		{"let i: T[\"a\"];", "T[\"a\"]"},
		{"let j: \"lit\";", "\"lit\""},
		{"let k: 42;", "42"},
		{"let l: (string | number)[];", "(string | number)[]"},
		{"let m: Promise<void>;", "Promise<void>"},
	}

	for _, tt := range tests {
		mod := parse(t, tt.input)
		decl := mod.Statements[0].(*ast.VariableStatement).Declarations[0]
		if got := decl.Type.String(); got != tt.expected {
			t.Errorf("%q: type = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestImportForms(t *testing.T) {
	tests := []struct {
		input string
		check func(t *testing.T, stmt ast.Statement)
	}{
		{`import "side";`, func(t *testing.T, stmt ast.Statement) {
			d := stmt.(*ast.ImportDeclaration)
			if d.Specifier != "side" || d.Default != nil || d.Named != nil {
				t.Errorf("side-effect import wrong: %s", d.String())
			}
		}},
		{`import def from "m";`, func(t *testing.T, stmt ast.Statement) {
			d := stmt.(*ast.ImportDeclaration)
			if d.Default == nil || d.Default.Value != "def" {
				t.Errorf("default import wrong: %s", d.String())
			}
		}},
		{`import * as ns from "m";`, func(t *testing.T, stmt ast.Statement) {
			d := stmt.(*ast.ImportDeclaration)
			if d.Namespace == nil || d.Namespace.Value != "ns" {
				t.Errorf("namespace import wrong: %s", d.String())
			}
		}},
		{`import { a, b as c } from "m";`, func(t *testing.T, stmt ast.Statement) {
			d := stmt.(*ast.ImportDeclaration)
			if len(d.Named) != 2 || d.Named[1].LocalName() != "c" {
				t.Errorf("named import wrong: %s", d.String())
			}
		}},
		{`import x = require("m");`, func(t *testing.T, stmt ast.Statement) {
			d, ok := stmt.(*ast.ImportEqualsDeclaration)
			if !ok || d.Name.Value != "x" || d.Specifier != "m" {
				t.Errorf("import equals wrong: %T", stmt)
			}
		}},
	}

	for _, tt := range tests {
		mod := parse(t, tt.input)
		tt.check(t, mod.Statements[0])
	}
}

func TestExportForms(t *testing.T) {
	mod := parse(t, `export { a, b as c };`)
	d := mod.Statements[0].(*ast.ExportDeclaration)
	if len(d.Named) != 2 || d.Named[1].ExportedName() != "c" {
		t.Errorf("named export wrong: %s", d.String())
	}

	mod = parse(t, `export { a } from "m";`)
	d = mod.Statements[0].(*ast.ExportDeclaration)
	if d.Source != "m" {
		t.Error("re-export source missing")
	}

	mod = parse(t, `export * from "m";`)
	d = mod.Statements[0].(*ast.ExportDeclaration)
	if !d.Star {
		t.Error("star export missing")
	}

	mod = parse(t, `export default f();`)
	d = mod.Statements[0].(*ast.ExportDeclaration)
	if d.Default == nil {
		t.Error("default export missing")
	}

	mod = parse(t, `export = handler;`)
	if _, ok := mod.Statements[0].(*ast.ExportAssignment); !ok {
		t.Errorf("export assignment wrong: %T", mod.Statements[0])
	}

	mod = parse(t, `export const x = 1;`)
	vs := mod.Statements[0].(*ast.VariableStatement)
	if !vs.Exported {
		t.Error("exported variable flag missing")
	}
}

func TestEnumDeclaration(t *testing.T) {
	mod := parse(t, `enum Color { Red, Green = 3, Blue, Name = "n" }`)
	decl := mod.Statements[0].(*ast.EnumDeclaration)
	if len(decl.Members) != 4 {
		t.Fatalf("members = %d", len(decl.Members))
	}
	if decl.Members[0].Init != nil {
		t.Error("Red must auto-increment")
	}
	if decl.Members[1].Init == nil {
		t.Error("Green must carry an initializer")
	}
}

func TestGeneratorAndAsyncFunctions(t *testing.T) {
	mod := parse(t, "function* g() { yield 1; yield* inner(); }")
	fd := mod.Statements[0].(*ast.FunctionDeclaration)
	if !fd.Function.IsGenerator {
		t.Error("IsGenerator not set")
	}

	body := fd.Function.Body.Statements
	y1 := body[0].(*ast.ExpressionStatement).Expression.(*ast.YieldExpression)
	if y1.Delegate {
		t.Error("first yield must not delegate")
	}
	y2 := body[1].(*ast.ExpressionStatement).Expression.(*ast.YieldExpression)
	if !y2.Delegate {
		t.Error("yield* must delegate")
	}

	mod = parse(t, "async function f() { return await g() + 1; }")
	fd = mod.Statements[0].(*ast.FunctionDeclaration)
	if !fd.Function.IsAsync {
		t.Error("IsAsync not set")
	}
	ret := fd.Function.Body.Statements[0].(*ast.ReturnStatement)
	if ret.Value.String() != "((await g()) + 1)" {
		t.Errorf("await precedence = %q", ret.Value.String())
	}
}

func TestErrorRecoveryProducesMultipleErrors(t *testing.T) {
	input := `let = 5;
let ok = 1;
let = 7;
let alsoOk = 2;`

	l := lexer.New(input)
	p := New(l)
	mod := p.ParseModule("test")

	if len(p.Errors()) < 2 {
		t.Errorf("expected at least 2 errors, got %d", len(p.Errors()))
	}
	// Recovery must still produce the valid statements.
	valid := 0
	for _, s := range mod.Statements {
		if vs, ok := s.(*ast.VariableStatement); ok && len(vs.Declarations) > 0 {
			valid++
		}
	}
	if valid < 2 {
		t.Errorf("expected the 2 valid statements to survive recovery, got %d", valid)
	}
}

func TestRoundTrip(t *testing.T) {
	// Parsing the String() output must yield a structurally equal tree
	// (compared via String() again).
	inputs := []string{
		"let x = (1 + 2) * 3;",
		"function add(x: number, y: number): number { return (x + y); }",
		"if (x) { f(); } else { g(); }",
		"for (let i = 0; (i < 10); (i++)) { f(i); }",
		"class A { m(): number { return 1; } }",
		"let u: string | number = s;",
	}

	for _, input := range inputs {
		first := parse(t, input)
		printed := first.String()
		second := parse(t, printed)
		if second.String() != printed {
			t.Errorf("round trip mismatch:\n first: %s\nsecond: %s", printed, second.String())
		}
	}
}
