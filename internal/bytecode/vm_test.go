package bytecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/go-tscript/internal/builtins"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
	"github.com/cwbudde/go-tscript/internal/semantic"
)

// compileSources runs the front end and the emitter over a source map.
func compileSources(t *testing.T, sources map[string]string, entry string) []*Module {
	t.Helper()
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(sources, nil, diags)
	order := r.Resolve(entry)
	if diags.HasErrors() {
		t.Fatalf("parse failed: %v", diags.Errors()[0])
	}
	a := semantic.NewAnalyzer(semantic.Options{StrictNullChecks: true}, diags)
	for name, shape := range builtins.Shapes() {
		a.RegisterBuiltinModule(name, shape)
	}
	a.Analyze(order)
	if diags.HasErrors() {
		t.Fatalf("check failed: %v", diags.Errors()[0])
	}

	c := NewCompiler(diags)
	mods := c.Compile(order)
	if diags.HasErrors() {
		t.Fatalf("compile failed: %v", diags.Errors()[0])
	}
	return mods
}

// runVM executes compiled modules and returns stdout.
func runVM(t *testing.T, mods []*Module) string {
	t.Helper()
	diags := errors.NewDiagnosticList()
	var out bytes.Buffer
	vm := NewVM(&out, diags)
	reg := builtins.New(&builtins.Host{
		Out:   &out,
		Sched: vm.Sched,
		Call:  vm.CallValue,
	})
	vm.SetGlobals(reg.Globals())
	vm.SetHostModules(reg.Module)
	vm.Run(mods)
	if diags.HasErrors() {
		t.Fatalf("vm failed: %v\noutput so far:\n%s", diags.Errors()[0], out.String())
	}
	return out.String()
}

func runProgram(t *testing.T, source string) string {
	t.Helper()
	return runVM(t, compileSources(t, map[string]string{"main": source}, "main"))
}

func expectVM(t *testing.T, source, want string) {
	t.Helper()
	got := runProgram(t, source)
	if got != want {
		t.Errorf("vm output mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestVMArithmetic(t *testing.T) {
	expectVM(t, `console.log(1 + 2 * 3);
console.log("a" + 1);
console.log(16 >> 2);
console.log(2 ** 8);`, "7\na1\n4\n256\n")
}

func TestVMControlFlow(t *testing.T) {
	expectVM(t, `let total = 0;
for (let i = 0; i < 10; i++) {
	if (i % 2 === 0) { continue; }
	if (i > 7) { break; }
	total += i;
}
console.log(total);`, "16\n")
}

func TestVMClosures(t *testing.T) {
	expectVM(t, `function counter(): () => number {
	let n = 0;
	return () => { n = n + 1; return n; };
}
const next = counter();
next();
console.log(next());`, "2\n")
}

func TestVMClassesAndSuper(t *testing.T) {
	expectVM(t, `class A { constructor(public x: number) {} m(): number { return this.x; } }
class B extends A { m(): number { return super.m() + 1; } }
console.log(new B(2).m());`, "3\n")
}

func TestVMGettersSetters(t *testing.T) {
	expectVM(t, `class Temp {
	private celsius: number = 0;
	get f(): number { return this.celsius * 9 / 5 + 32; }
	set f(v: number) { this.celsius = (v - 32) * 5 / 9; }
}
const tmp = new Temp();
tmp.f = 212;
console.log(tmp.f);`, "212\n")
}

func TestVMTryCatchFinally(t *testing.T) {
	expectVM(t, `function risky(fail: boolean): string {
	try {
		if (fail) { throw new Error("boom"); }
		return "ok";
	} catch (e) {
		return "caught";
	} finally {
		console.log("cleanup");
	}
}
console.log(risky(false));
console.log(risky(true));`, "cleanup\nok\ncleanup\ncaught\n")
}

func TestVMGenerator(t *testing.T) {
	expectVM(t, `function* g(): Generator<number> { yield 1; yield 2; yield 3; }
for (let v of g()) { console.log(v); }`, "1\n2\n3\n")
}

func TestVMGeneratorDelegation(t *testing.T) {
	expectVM(t, `function* inner(): Generator<number> { yield 2; return 9; }
function* outer(): Generator<number> {
	yield 1;
	const r: any = yield* inner();
	console.log("r=" + r);
	yield 3;
}
for (const v of outer()) { console.log(v); }`, "1\n2\nr=9\n3\n")
}

func TestVMAsyncAwait(t *testing.T) {
	expectVM(t, `async function f(): Promise<number> { return 10; }
async function g(): Promise<number> { return (await f()) + 1; }
g().then((v) => { console.log(v); });`, "11\n")
}

func TestVMAsyncTryCatch(t *testing.T) {
	expectVM(t, `async function fails(): Promise<number> { throw new Error("no"); return 0; }
async function main(): Promise<void> {
	try {
		await fails();
	} catch (e) {
		console.log("caught");
	}
}
main();`, "caught\n")
}

func TestVMModules(t *testing.T) {
	mods := compileSources(t, map[string]string{
		"main": `import { add } from "./lib"; console.log(add(2, 3));`,
		"lib":  `export function add(a: number, b: number): number { return a + b; }`,
	}, "main")
	got := runVM(t, mods)
	if got != "5\n" {
		t.Errorf("got %q", got)
	}
}

func TestVMEnums(t *testing.T) {
	expectVM(t, `enum Color { Red, Green = 3, Blue }
console.log(Color.Red);
console.log(Color.Blue);
console.log(Color[3]);`, "0\n4\nGreen\n")
}

func TestVMDecorators(t *testing.T) {
	expectVM(t, `function tag(target: any): any { target.tagged = true; return target; }
@tag
class Widget {}
console.log((Widget as any).tagged);`, "true\n")
}

func TestSerializerRoundTrip(t *testing.T) {
	mods := compileSources(t, map[string]string{
		"main": `export function twice(x: number): number { return x * 2; }
class Point { constructor(public x: number, public y: number) {} }
console.log(twice(21));`,
	}, "main")

	data := Serialize(mods[0])
	decoded, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if decoded.Name != mods[0].Name {
		t.Errorf("name = %q", decoded.Name)
	}
	if len(decoded.Functions) != len(mods[0].Functions) {
		t.Fatalf("functions = %d, want %d", len(decoded.Functions), len(mods[0].Functions))
	}
	if len(decoded.Classes) != 1 || decoded.Classes[0].Name != "Point" {
		t.Fatalf("classes = %v", decoded.Classes)
	}

	// The decoded module must execute identically.
	got := runVM(t, []*Module{decoded})
	if got != "42\n" {
		t.Errorf("decoded module output = %q", got)
	}
}

func TestSerializerRejectsCorruptData(t *testing.T) {
	if _, err := Deserialize([]byte("NOPE")); err == nil {
		t.Error("bad magic must fail")
	}
	mods := compileSources(t, map[string]string{"main": `console.log(1);`}, "main")
	data := Serialize(mods[0])
	if _, err := Deserialize(data[:len(data)/2]); err == nil {
		t.Error("truncated data must fail")
	}
}

func TestDisassemblerListsFunctions(t *testing.T) {
	mods := compileSources(t, map[string]string{
		"main": `function hello(): string { return "hi"; }
console.log(hello());`,
	}, "main")

	listing := Disassemble(mods[0])
	for _, want := range []string{"main$init", "hello", "CONST", "RETURN", "CALL"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing missing %q:\n%s", want, listing)
		}
	}
}

func TestVMRuntimeHelpersShared(t *testing.T) {
	// The iterator driver and promise machinery come from the shared
	// runtime, so VM promises are plain runtime promises.
	mods := compileSources(t, map[string]string{
		"main": `async function f(): Promise<number> { return 1; }
const p = f();
console.log(typeof p);`,
	}, "main")
	got := runVM(t, mods)
	if got != "object\n" {
		t.Errorf("got %q", got)
	}
	var _ runtime.Value = runtime.NewPromiseValue(runtime.NewScheduler())
}
