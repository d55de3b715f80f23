package semantic

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/modules"
)

// check runs the full front end plus the analyzer over one module and
// returns the diagnostics.
func check(t *testing.T, source string) *errors.DiagnosticList {
	t.Helper()
	return checkModules(t, map[string]string{"main": source}, "main")
}

func checkModules(t *testing.T, sources map[string]string, entry string) *errors.DiagnosticList {
	t.Helper()
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(sources, nil, diags)
	order := r.Resolve(entry)
	if diags.HasErrors() {
		t.Fatalf("front end failed: %v", diags.Errors()[0])
	}
	a := NewAnalyzer(Options{StrictNullChecks: true}, diags)
	a.Analyze(order)
	return diags
}

func expectClean(t *testing.T, source string) {
	t.Helper()
	diags := check(t, source)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics:\n%v", diags.Errors()[0])
	}
}

func expectError(t *testing.T, source, code string) {
	t.Helper()
	diags := check(t, source)
	for _, d := range diags.Errors() {
		if d.Code == code {
			return
		}
	}
	if diags.HasErrors() {
		t.Fatalf("expected %s, got %v", code, diags.Errors()[0])
	}
	t.Fatalf("expected diagnostic %s, got none", code)
}

func TestWellTypedPrograms(t *testing.T) {
	programs := []string{
		`let x: number = 1; let y = x + 2;`,
		`const s: string = "a" + 1;`,
		`function add(x: number, y: number): number { return x + y; } add(1, 2);`,
		`function greet(name?: string, punct: string = "!"): string { return "hi"; } greet();`,
		`let xs: number[] = [1, 2, 3]; let n: number = xs.length;`,
		`let pair: [number, string] = [1, "a"];`,
		`let u: string | number = 1; u = "s";`,
		`function id<T>(x: T): T { return x; } id(7); id("s");`,
		`async function f(): Promise<number> { return 10; }
async function g(): Promise<number> { return (await f()) + 1; }`,
		`function* gen(): Generator<number> { yield 1; yield 2; }`,
		`interface Named { name: string; }
class Person implements Named { constructor(public name: string) {} }`,
		`class A { constructor(public x: number) {} m(): number { return this.x; } }
class B extends A { m(): number { return super.m() + 1; } }
let three: number = new B(2).m();`,
		`type P<T> = { [K in keyof T]?: T[K] };
const x: P<{ a: number; b: string }> = { a: 1 };`,
		`function f(x: string | number) {
	if (typeof x === "string") { let n: number = x.length; }
	else { let m: number = x + 1; }
}`,
		`enum Color { Red, Green, Blue }
let c = Color.Green;`,
		`let maybe: string | null = null;
if (maybe !== null) { let s: string = maybe; }`,
	}

	for _, src := range programs {
		src := src
		t.Run(firstLine(src), func(t *testing.T) {
			expectClean(t, src)
		})
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i > 0 {
		return s[:i]
	}
	return s
}

func TestTypeMismatch(t *testing.T) {
	expectError(t, `let x: number = "s";`, "TS2322")
	expectError(t, `let s: string = 1;`, "TS2322")
	expectError(t, `function f(): number { return "s"; }`, "TS2322")
	expectError(t, `function f(x: number) {} f("s");`, "TS2322")
}

func TestUndefinedName(t *testing.T) {
	expectError(t, `let x = missing;`, "TS2304")
	expectError(t, `let x: Missing = 1;`, "TS2304")
}

func TestArity(t *testing.T) {
	expectError(t, `function f(x: number) {} f();`, "TS2554")
	expectError(t, `function f(x: number) {} f(1, 2);`, "TS2554")
	expectClean(t, `function f(x: number, y?: number) {} f(1);`)
	expectClean(t, `function f(...xs: number[]) {} f(1, 2, 3);`)
}

func TestConstAssignment(t *testing.T) {
	expectError(t, `const c = 1; c = 2;`, "TS2588")
}

func TestStrictNullChecks(t *testing.T) {
	expectError(t, `let x: number = null;`, "TS2322")
	expectError(t, `let x: string = undefined;`, "TS2322")

	// Without strict nulls both are allowed.
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(map[string]string{"main": `let x: number = null;`}, nil, diags)
	order := r.Resolve("main")
	a := NewAnalyzer(Options{StrictNullChecks: false}, diags)
	a.Analyze(order)
	if diags.HasErrors() {
		t.Fatalf("non-strict mode must allow null: %v", diags.Errors()[0])
	}
}

func TestExcessPropertyChecking(t *testing.T) {
	// Fresh literal with an unknown member fails at the annotation site.
	expectError(t, `let p: { a: number } = { a: 1, b: 2 };`, "TS2353")

	// The same value aliased through an unannotated local widens and the
	// structural path accepts it.
	expectClean(t, `let tmp = { a: 1, b: 2 }; let p: { a: number } = tmp;`)
}

func TestNarrowing(t *testing.T) {
	// Without the guard, string methods on a union are errors.
	expectError(t, `function f(x: string | number) { let n = x.length; }`, "TS2339")

	// typeof narrows both branches.
	expectClean(t, `function f(x: string | number) {
	if (typeof x === "string") { let n: number = x.length; } else { let m: number = x + 1; }
}`)

	// Negated guard swaps the branches.
	expectClean(t, `function f(x: string | number) {
	if (typeof x !== "string") { let m: number = x + 1; } else { let n: number = x.length; }
}`)

	// instanceof narrows.
	expectClean(t, `class Cat { meow(): string { return "m"; } }
class Dog { bark(): string { return "w"; } }
function speak(pet: Cat | Dog) {
	if (pet instanceof Cat) { pet.meow(); } else { pet.bark(); }
}`)

	// in narrows.
	expectClean(t, `function area(s: { side: number } | { radius: number }): number {
	if ("side" in s) { return s.side * s.side; } else { return s.radius * 2; }
}`)

	// User-defined type predicate narrows.
	expectClean(t, `function isString(v: string | number): v is string { return typeof v === "string"; }
function f(v: string | number) {
	if (isString(v)) { let n: number = v.length; }
}`)
}

func TestAbstractClasses(t *testing.T) {
	expectError(t, `abstract class Shape { abstract area(): number; }
let s = new Shape();`, "TS2511")

	expectError(t, `class Shape { abstract area(): number; }`, "TS1244")

	expectClean(t, `abstract class Shape { abstract area(): number; }
class Square extends Shape { area(): number { return 4; } }
let s = new Square();`)
}

func TestImplementsChecking(t *testing.T) {
	expectError(t, `interface Named { name: string; }
class Broken implements Named { constructor(public other: number) {} }`, "TS2420")

	expectClean(t, `interface Named { name: string; }
class Ok implements Named { constructor(public name: string) {} }`)
}

func TestInterfaceMerging(t *testing.T) {
	expectClean(t, `interface Box { width: number; }
interface Box { height: number; }
let b: Box = { width: 1, height: 2 };`)

	// A merged member missing from the literal is an error.
	expectError(t, `interface Box { width: number; }
interface Box { height: number; }
let b: Box = { width: 1 };`, "TS2322")
}

func TestGenericConstraints(t *testing.T) {
	expectClean(t, `function len<T extends { length: number }>(x: T): number { return x.length; }
len("abc"); len([1, 2]);`)

	expectError(t, `function len<T extends { length: number }>(x: T): number { return x.length; }
len(42);`, "TS2344")
}

func TestGenericExplicitArguments(t *testing.T) {
	expectClean(t, `function id<T>(x: T): T { return x; } id<number>(7);`)
	expectError(t, `function id<T>(x: T): T { return x; } let s: string = id<number>(7);`, "TS2322")
}

func TestPrivateAndProtectedAccess(t *testing.T) {
	expectError(t, `class C { private secret: number = 1; }
let c = new C(); let s = c.secret;`, "TS2341")

	expectError(t, `class Base { protected x: number = 1; }
let b = new Base(); let v = b.x;`, "TS2445")

	expectClean(t, `class Base { protected x: number = 1; }
class Derived extends Base { read(): number { return this.x; } }`)
}

func TestReadonlyFields(t *testing.T) {
	expectError(t, `class C { readonly id: number = 1; }
let c = new C(); c.id = 2;`, "TS2540")
}

func TestEnumChecking(t *testing.T) {
	expectClean(t, `enum Direction { Up, Down }
let d: Direction = Direction.Up;
let n: number = Direction.Down;`)
}

func TestAwaitOutsideAsync(t *testing.T) {
	expectError(t, `function f() { let x = await g(); } function g() { return 1; }`, "TS1308")
}

func TestModuleImportTypes(t *testing.T) {
	sources := map[string]string{
		"main": `import { fortyTwo } from "./lib";
let n: number = fortyTwo;
let bad: string = fortyTwo;`,
		"lib": `export const fortyTwo = 42;`,
	}
	diags := checkModules(t, sources, "main")
	found := false
	for _, d := range diags.Errors() {
		if d.Code == "TS2322" {
			found = true
		}
	}
	if !found {
		t.Fatal("imported binding must carry the exporter's type")
	}
}

func TestCheckerContinuesAfterErrors(t *testing.T) {
	diags := check(t, `let a: number = "one";
let b: string = 2;
let c: boolean = 3;`)
	if len(diags.Errors()) < 3 {
		t.Errorf("expected 3 diagnostics, got %d", len(diags.Errors()))
	}
}

func TestMappedTypeUsage(t *testing.T) {
	expectClean(t, `type P<T> = { [K in keyof T]?: T[K] };
const x: P<{ a: number; b: string }> = { a: 1 };
const y: P<{ a: number }> = {};`)

	expectError(t, `type P<T> = { [K in keyof T]?: T[K] };
const x: P<{ a: number }> = { a: "s" };`, "TS2322")
}

func TestKeyofAnnotations(t *testing.T) {
	expectClean(t, `type Keys = keyof { a: number; b: string };
let k: Keys = "a";`)

	expectError(t, `type Keys = keyof { a: number; b: string };
let k: Keys = "c";`, "TS2322")
}

func TestIndexedAccessAnnotations(t *testing.T) {
	expectClean(t, `type T = { a: number; b: string };
let v: T["a"] = 1;`)

	expectError(t, `type T = { a: number; b: string };
let v: T["a"] = "s";`, "TS2322")
}
