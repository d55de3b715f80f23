package interp

import (
	"bytes"
	"testing"

	"github.com/cwbudde/go-tscript/internal/builtins"
	"github.com/cwbudde/go-tscript/internal/bytecode"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
	"github.com/cwbudde/go-tscript/internal/semantic"
	"github.com/gkampitakis/go-snaps/snaps"
)

// parityFixtures is the shared test matrix: every deterministic program
// runs under both execution strategies and must produce identical stdout
// byte streams. Snapshots pin the expected output.
var parityFixtures = []struct {
	name   string
	source string
}{
	{"Arithmetic", `console.log(1 + 2 * 3);
console.log(10 % 3);
console.log(2 ** 10);
console.log((1 + 2) * (3 + 4));
console.log(16 >> 2);
console.log(1 << 8);
console.log(5 & 3);
console.log(5 | 2);
console.log(5 ^ 1);`},

	{"StringsAndTemplates", `const name = "tscript";
console.log("hello " + name);
console.log(` + "`" + `len=${name.length} upper=${name.toUpperCase()}` + "`" + `);
console.log(name.slice(0, 2));
console.log(name.indexOf("script"));
console.log("a,b,c".split(",").length);`},

	{"Equality", `console.log(1 == "1");
console.log(1 === 1);
console.log(null == undefined);
console.log(null === undefined);
console.log("" == 0);`},

	{"ControlFlow", `let total = 0;
for (let i = 0; i < 10; i++) {
	if (i % 2 === 0) { continue; }
	if (i > 7) { break; }
	total += i;
}
console.log(total);
let n = 3;
while (n > 0) { console.log(n); n--; }
do { console.log("once"); } while (false);`},

	{"Switch", `function cat(n: number): string {
	switch (n) {
	case 1:
	case 2:
		return "small";
	case 3:
		return "medium";
	default:
		return "large";
	}
}
console.log(cat(1) + cat(2) + cat(3) + cat(4));`},

	{"FunctionsAndClosures", `function make(start: number): () => number {
	let n = start;
	return () => { n++; return n; };
}
const a = make(10);
const b = make(100);
a();
console.log(a());
console.log(b());
function f(x: number, y: number = 2, ...rest: number[]): number {
	return x + y + rest.length;
}
console.log(f(1));
console.log(f(1, 5, 9, 9, 9));`},

	{"ObjectsAndArrays", `const o = { a: 1, b: 2 };
console.log(o.a + o["b"]);
const xs = [3, 1, 2];
xs.push(4);
console.log(xs.join(","));
console.log(xs.map((x) => x * 10).join(","));
console.log(xs.filter((x) => x % 2 === 0).length);
console.log([...xs, 9].length);
for (let k in o) { console.log(k); }`},

	{"ClassesInheritance", `class A { constructor(public x: number) {} m(): number { return this.x; } }
class B extends A { m(): number { return super.m() + 1; } }
console.log(new B(2).m());
class Animal {
	name: string = "generic";
	speak(): string { return this.name; }
}
class Dog extends Animal { name: string = "dog"; }
console.log(new Dog().speak());
console.log(new Dog() instanceof Animal);`},

	{"Accessors", `class Box {
	private v: number = 0;
	get value(): number { return this.v; }
	set value(n: number) { this.v = n * 2; }
}
const box = new Box();
box.value = 21;
console.log(box.value);`},

	{"Exceptions", `function boom(): void { throw new Error("bang"); }
try {
	boom();
} catch (e) {
	console.log("caught");
} finally {
	console.log("finally");
}
function through(): string {
	try { return "try"; } finally { console.log("cleanup"); }
}
console.log(through());`},

	{"Generators", `function* g(): Generator<number> { yield 1; yield 2; yield 3; }
for (const v of g()) { console.log(v); }
function* inner(): Generator<number> { yield 20; return 99; }
function* outer(): Generator<number> {
	yield 10;
	const r: any = yield* inner();
	console.log("got " + r);
	yield 30;
}
console.log([...outer()].join(","));`},

	{"AsyncAwait", `async function f(): Promise<number> { return 10; }
async function g(): Promise<number> { return (await f()) + 1; }
g().then((v) => { console.log(v); });
console.log("sync");`},

	{"MicrotaskOrdering", `setTimeout(() => { console.log("timer"); }, 0);
async function micro(): Promise<void> { console.log("body"); }
micro().then(() => { console.log("then"); });
console.log("sync");`},

	{"TypeofNarrowing", `function f(x: string | number) {
	if (typeof x === "string") { console.log(x.length); } else { console.log(x + 1); }
}
f("hi");
f(10);`},

	{"Enums", `enum Color { Red, Green = 3, Blue }
console.log(Color.Red);
console.log(Color.Green);
console.log(Color.Blue);
console.log(Color[3]);`},

	{"MappedTypes", `type P<T> = { [K in keyof T]?: T[K] };
const x: P<{ a: number; b: string }> = { a: 1 };
console.log(x.a);`},

	{"OptionalChaining", `const o: any = { inner: { v: 7 } };
console.log(o.inner?.v);
console.log(o.missing?.v);
console.log(null ?? "fb");
console.log(0 ?? "no");`},
}

// runFixtureInterp executes a program under the tree walker.
func runFixtureInterp(t *testing.T, source string) (string, bool) {
	t.Helper()
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(map[string]string{"main": source}, nil, diags)
	order := r.Resolve("main")
	a := semantic.NewAnalyzer(semantic.Options{StrictNullChecks: true}, diags)
	for name, shape := range builtins.Shapes() {
		a.RegisterBuiltinModule(name, shape)
	}
	a.Analyze(order)
	if diags.HasErrors() {
		t.Errorf("front end failed: %v", diags.Errors()[0])
		return "", false
	}

	var out bytes.Buffer
	ip := New(&out, diags)
	reg := builtins.New(&builtins.Host{Out: &out, Sched: ip.Sched,
		Call: func(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return ip.callValue(fn, this, args)
		}})
	ip.SetGlobals(reg.Globals())
	ip.SetHostModules(reg.Module)
	ip.Run(order)
	if diags.HasErrors() {
		t.Errorf("interpreter failed: %v", diags.Errors()[0])
		return "", false
	}
	return out.String(), true
}

// runFixtureVM executes a program under the bytecode back end.
func runFixtureVM(t *testing.T, source string) (string, bool) {
	t.Helper()
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(map[string]string{"main": source}, nil, diags)
	order := r.Resolve("main")
	a := semantic.NewAnalyzer(semantic.Options{StrictNullChecks: true}, diags)
	for name, shape := range builtins.Shapes() {
		a.RegisterBuiltinModule(name, shape)
	}
	a.Analyze(order)
	if diags.HasErrors() {
		t.Errorf("front end failed: %v", diags.Errors()[0])
		return "", false
	}

	c := bytecode.NewCompiler(diags)
	mods := c.Compile(order)
	if diags.HasErrors() {
		t.Errorf("compile failed: %v", diags.Errors()[0])
		return "", false
	}

	var out bytes.Buffer
	vm := bytecode.NewVM(&out, diags)
	reg := builtins.New(&builtins.Host{Out: &out, Sched: vm.Sched, Call: vm.CallValue})
	vm.SetGlobals(reg.Globals())
	vm.SetHostModules(reg.Module)
	vm.Run(mods)
	if diags.HasErrors() {
		t.Errorf("vm failed: %v", diags.Errors()[0])
		return "", false
	}
	return out.String(), true
}

// TestExecutionParity runs every fixture under both strategies and demands
// identical stdout byte streams, snapshotting the output.
func TestExecutionParity(t *testing.T) {
	for _, fixture := range parityFixtures {
		fixture := fixture
		t.Run(fixture.name, func(t *testing.T) {
			interpOut, ok := runFixtureInterp(t, fixture.source)
			if !ok {
				return
			}
			vmOut, ok := runFixtureVM(t, fixture.source)
			if !ok {
				return
			}
			if interpOut != vmOut {
				t.Errorf("engines disagree\ninterp: %q\n    vm: %q", interpOut, vmOut)
			}
			snaps.MatchSnapshot(t, interpOut)
		})
	}
}
