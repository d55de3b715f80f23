package interp

import (
	"bytes"
	"testing"

	"github.com/cwbudde/go-tscript/internal/builtins"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
	"github.com/cwbudde/go-tscript/internal/semantic"
)

// run executes one program end to end through the interpreter and returns
// its stdout.
func run(t *testing.T, source string) string {
	t.Helper()
	return runModules(t, map[string]string{"main": source}, "main")
}

func runModules(t *testing.T, sources map[string]string, entry string) string {
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

	var out bytes.Buffer
	ip := New(&out, diags)
	reg := builtins.New(&builtins.Host{
		Out:   &out,
		Sched: ip.Sched,
		Call: func(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return ip.callValue(fn, this, args)
		},
	})
	ip.SetGlobals(reg.Globals())
	ip.SetHostModules(reg.Module)
	ip.Run(order)
	if diags.HasErrors() {
		t.Fatalf("run failed: %v\noutput so far:\n%s", diags.Errors()[0], out.String())
	}
	return out.String()
}

func expectOutput(t *testing.T, source, want string) {
	t.Helper()
	got := run(t, source)
	if got != want {
		t.Errorf("output mismatch\n got: %q\nwant: %q", got, want)
	}
}

// The six fixed end-to-end scenarios.

func TestScenarioClassesAndInheritance(t *testing.T) {
	expectOutput(t, `class A { constructor(public x: number) {} m(): number { return this.x; } }
class B extends A { m(): number { return super.m() + 1; } }
console.log(new B(2).m());`, "3\n")
}

func TestScenarioGenericsAndInference(t *testing.T) {
	expectOutput(t, `function id<T>(x: T): T { return x; }
console.log(id(7));
console.log(id("s"));`, "7\ns\n")
}

func TestScenarioAsyncAwait(t *testing.T) {
	expectOutput(t, `async function f(): Promise<number> { return 10; }
async function g(): Promise<number> { return (await f()) + 1; }
g().then((v) => { console.log(v); });`, "11\n")
}

func TestScenarioGenerator(t *testing.T) {
	expectOutput(t, `function* g(): Generator<number> { yield 1; yield 2; yield 3; }
for (let v of g()) { console.log(v); }`, "1\n2\n3\n")
}

func TestScenarioMappedType(t *testing.T) {
	expectOutput(t, `type P<T> = { [K in keyof T]?: T[K] };
const x: P<{ a: number; b: string }> = { a: 1 };
console.log(x.a);`, "1\n")
}

func TestScenarioTypeofNarrowing(t *testing.T) {
	expectOutput(t, `function f(x: string | number) {
	if (typeof x === "string") { console.log(x.length); } else { console.log(x + 1); }
}
f("hi");
f(10);`, "2\n11\n")
}

// Language behavior coverage.

func TestArithmeticAndStrings(t *testing.T) {
	expectOutput(t, `console.log(1 + 2 * 3);
console.log("a" + 1);
console.log(10 / 4);
console.log(7 % 3);
console.log(2 ** 10);
console.log(16 >> 2);
console.log(1 << 4);
console.log(-5 >>> 0 === 4294967291);`,
		"7\na1\n2.5\n1\n1024\n4\n16\ntrue\n")
}

func TestEqualityTable(t *testing.T) {
	expectOutput(t, `console.log(1 == "1");
console.log(1 === 1);
console.log(null == undefined);
console.log(null === undefined);
console.log(NaN === NaN);`,
		"true\ntrue\ntrue\nfalse\nfalse\n")
}

func TestClosuresCaptureWrites(t *testing.T) {
	expectOutput(t, `function counter(): () => number {
	let n = 0;
	return () => { n = n + 1; return n; };
}
const next = counter();
next();
next();
console.log(next());`, "3\n")
}

func TestVarHoistingVersusLet(t *testing.T) {
	expectOutput(t, `function f(): number {
	if (true) { var v = 1; }
	return v;
}
console.log(f());`, "1\n")
}

func TestControlFlow(t *testing.T) {
	expectOutput(t, `let total = 0;
for (let i = 0; i < 10; i++) {
	if (i % 2 === 0) { continue; }
	if (i > 7) { break; }
	total += i;
}
console.log(total);`, "16\n")
}

func TestLabeledBreak(t *testing.T) {
	expectOutput(t, `outer: for (let i = 0; i < 3; i++) {
	for (let j = 0; j < 3; j++) {
		if (j === 1) { continue outer; }
		if (i === 2) { break outer; }
		console.log(i * 10 + j);
	}
}`, "0\n10\n")
}

func TestSwitchFallthrough(t *testing.T) {
	expectOutput(t, `function cat(n: number): string {
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
console.log(cat(1));
console.log(cat(2));
console.log(cat(3));
console.log(cat(9));`, "small\nsmall\nmedium\nlarge\n")
}

func TestTryCatchFinally(t *testing.T) {
	expectOutput(t, `function risky(fail: boolean): string {
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

func TestFinallyRunsOnBreak(t *testing.T) {
	expectOutput(t, `for (let i = 0; i < 3; i++) {
	try {
		if (i === 1) { break; }
		console.log(i);
	} finally {
		console.log("f" + i);
	}
}`, "0\nf0\nf1\n")
}

func TestExceptionUnwinding(t *testing.T) {
	expectOutput(t, `function inner() { throw new Error("deep"); }
function outer() { inner(); }
try { outer(); } catch (e) { console.log("handled"); }`, "handled\n")
}

func TestObjectsAndArrays(t *testing.T) {
	expectOutput(t, `const o = { a: 1, b: 2 };
console.log(o.a + o["b"]);
const xs = [1, 2, 3];
xs.push(4);
console.log(xs.length);
console.log(xs.map((x) => x * 2).join(","));
console.log([...xs, 5].length);
const merged = { ...o, c: 3 };
console.log(Object.keys(merged).join(","));`,
		"3\n4\n2,4,6,8\n5\na,b,c\n")
}

func TestForInInsertionOrder(t *testing.T) {
	expectOutput(t, `const o = { z: 1, a: 2, m: 3 };
for (let k in o) { console.log(k); }`, "z\na\nm\n")
}

func TestForOfStringAndMapSet(t *testing.T) {
	expectOutput(t, `for (const ch of "ab") { console.log(ch); }
const m = new Map([["k1", 1], ["k2", 2]]);
for (const entry of m) { console.log(entry[0]); }
const s = new Set([1, 1, 2]);
for (const v of s) { console.log(v); }`,
		"a\nb\nk1\nk2\n1\n2\n")
}

func TestGettersAndSetters(t *testing.T) {
	expectOutput(t, `class Temp {
	private celsius: number = 0;
	get fahrenheit(): number { return this.celsius * 9 / 5 + 32; }
	set fahrenheit(v: number) { this.celsius = (v - 32) * 5 / 9; }
}
const temp = new Temp();
temp.fahrenheit = 212;
console.log(temp.fahrenheit);`, "212\n")
}

func TestStaticMembers(t *testing.T) {
	expectOutput(t, `class Counter {
	static count: number = 0;
	static bump(): number { Counter.count++; return Counter.count; }
}
Counter.bump();
console.log(Counter.bump());`, "2\n")
}

func TestInstanceofAndFields(t *testing.T) {
	expectOutput(t, `class Animal { name: string = "generic"; }
class Dog extends Animal { name: string = "dog"; }
const d = new Dog();
console.log(d instanceof Dog);
console.log(d instanceof Animal);
console.log(d.name);`, "true\ntrue\ndog\n")
}

func TestEnumRuntime(t *testing.T) {
	expectOutput(t, `enum Color { Red, Green = 3, Blue }
console.log(Color.Red);
console.log(Color.Green);
console.log(Color.Blue);
console.log(Color[3]);`, "0\n3\n4\nGreen\n")
}

func TestDecoratorsApply(t *testing.T) {
	expectOutput(t, `function tag(target: any): any {
	target.tagged = true;
	return target;
}
@tag
class Widget {}
console.log((Widget as any).tagged);`, "true\n")
}

func TestTemplateLiterals(t *testing.T) {
	expectOutput(t, "const name = \"world\";\nconsole.log(`hello ${name} ${1 + 1}`);", "hello world 2\n")
}

func TestOptionalChainingAndNullish(t *testing.T) {
	expectOutput(t, `const o: any = { inner: { v: 1 } };
console.log(o.inner?.v);
console.log(o.missing?.v);
console.log(null ?? "fallback");
console.log(0 ?? "no");`,
		"1\nundefined\nfallback\n0\n")
}

func TestGeneratorProtocol(t *testing.T) {
	expectOutput(t, `function* g(): Generator<number> {
	const got: any = yield 1;
	console.log("received " + got);
	yield 2;
}
const it: any = g();
console.log(it.next().value);
console.log(it.next("x").value);
console.log(it.next().done);`,
		"1\nreceived x\n2\ntrue\n")
}

func TestGeneratorDelegation(t *testing.T) {
	expectOutput(t, `function* inner(): Generator<number> { yield 2; yield 3; return 99; }
function* outer(): Generator<number> {
	yield 1;
	const r: any = yield* inner();
	console.log("inner returned " + r);
	yield 4;
}
for (const v of outer()) { console.log(v); }`,
		"1\n2\n3\ninner returned 99\n4\n")
}

func TestGeneratorSpread(t *testing.T) {
	expectOutput(t, `function* g(): Generator<number> { yield 1; yield 2; }
const xs = [...g()];
console.log(xs.length);`, "2\n")
}

func TestAsyncTryCatch(t *testing.T) {
	expectOutput(t, `async function fails(): Promise<number> { throw new Error("nope"); return 0; }
async function main(): Promise<void> {
	try {
		await fails();
		console.log("unreachable");
	} catch (e) {
		console.log("caught rejection");
	}
}
main();`, "caught rejection\n")
}

func TestAsyncSequencing(t *testing.T) {
	expectOutput(t, `async function step(n: number): Promise<number> { return n; }
async function main(): Promise<void> {
	const a = await step(1);
	const b = await step(2);
	console.log(a + b);
}
main();
console.log("sync first");`, "sync first\n3\n")
}

func TestMicrotasksBeforeTimers(t *testing.T) {
	expectOutput(t, `setTimeout(() => { console.log("timer"); }, 0);
async function f(): Promise<void> { console.log("micro"); }
f().then(() => { console.log("then"); });
console.log("sync");`,
		"micro\nsync\nthen\ntimer\n")
}

func TestTimerOrdering(t *testing.T) {
	expectOutput(t, `setTimeout(() => { console.log("b"); }, 10);
setTimeout(() => { console.log("a"); }, 5);
const cancelled = setTimeout(() => { console.log("x"); }, 1);
clearTimeout(cancelled);
setTimeout(() => { console.log("c"); }, 10);`,
		"a\nb\nc\n")
}

func TestPromiseCombinators(t *testing.T) {
	expectOutput(t, `Promise.all([Promise.resolve(1), Promise.resolve(2), 3]).then((xs: any) => {
	console.log(xs.length);
});
Promise.race([Promise.resolve("first"), Promise.resolve("second")]).then((v: any) => {
	console.log(v);
});`,
		"3\nfirst\n")
}

func TestForAwaitOf(t *testing.T) {
	expectOutput(t, `async function main(): Promise<void> {
	const ps = [Promise.resolve(1), Promise.resolve(2)];
	for await (const v of ps) { console.log(v); }
}
main();`, "1\n2\n")
}

func TestModuleInitializationOrder(t *testing.T) {
	got := runModules(t, map[string]string{
		"main": `import { a } from "./a"; import { b } from "./b"; console.log("main " + (a + b));`,
		"a":    `export const a = 1; console.log("a");`,
		"b":    `export const b = 2; console.log("b");`,
	}, "main")
	want := "a\nb\nmain 3\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCyclicModuleCells(t *testing.T) {
	// A binding read before the exporter's body has run observes the
	// pre-initialization cell value (undefined); after the body, the final
	// value.
	got := runModules(t, map[string]string{
		"a": `import { late } from "./b";
export const early = 1;
console.log("during a: " + late);`,
		"b": `import { early } from "./a";
export const late = 42;
console.log("during b: " + early);`,
	}, "a")
	want := "during b: undefined\nduring a: 42\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestImportEqualsRequire(t *testing.T) {
	got := runModules(t, map[string]string{
		"main": `import handler = require("./lib");
console.log(handler(5));`,
		"lib": `function double(x: number): number { return x * 2; }
export = double;`,
	}, "main")
	if got != "10\n" {
		t.Errorf("got %q, want 10", got)
	}
}

func TestHostModules(t *testing.T) {
	got := runModules(t, map[string]string{
		"main": `import * as path from "path";
import * as crypto from "crypto";
console.log(path.join("a", "b", "c"));
console.log(path.extname("file.ts"));
const h = crypto.createHash("sha256");
h.update("abc");
console.log(h.digest().length);`,
	}, "main")
	want := "a/b/c\n.ts\n64\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConsoleFormatDirectives(t *testing.T) {
	expectOutput(t, `console.log("%s scored %d points", "alice", 42);
console.log("%d%% done", 50);`,
		"alice scored 42 points\n50% done\n")
}

func TestJSONRoundTrip(t *testing.T) {
	expectOutput(t, `const data = JSON.parse("{\"a\":1,\"xs\":[1,2]}");
console.log(data.a);
console.log(JSON.stringify({ b: 2, s: "t" }));`,
		"1\n{\"b\":2,\"s\":\"t\"}\n")
}

func TestRestAndDefaults(t *testing.T) {
	expectOutput(t, `function f(a: number, b: number = 10, ...rest: number[]): number {
	return a + b + rest.length;
}
console.log(f(1));
console.log(f(1, 2));
console.log(f(1, 2, 3, 4));`, "11\n3\n5\n")
}

func TestArrowThisLexical(t *testing.T) {
	expectOutput(t, `class Box {
	value: number = 7;
	read(): number {
		const get = () => this.value;
		return get();
	}
}
console.log(new Box().read());`, "7\n")
}

func TestUncaughtExceptionDiagnostic(t *testing.T) {
	diags := errors.NewDiagnosticList()
	r := modules.NewResolver(map[string]string{"main": `throw new Error("top");`}, nil, diags)
	order := r.Resolve("main")
	a := semantic.NewAnalyzer(semantic.Options{StrictNullChecks: true}, diags)
	a.Analyze(order)

	var out bytes.Buffer
	ip := New(&out, diags)
	reg := builtins.New(&builtins.Host{Out: &out, Sched: ip.Sched,
		Call: func(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return ip.callValue(fn, this, args)
		}})
	ip.SetGlobals(reg.Globals())
	ip.SetHostModules(reg.Module)
	ip.Run(order)

	found := false
	for _, d := range diags.Errors() {
		if d.Code == "TS9701" {
			found = true
		}
	}
	if !found {
		t.Fatal("uncaught exception must produce a TS9701 diagnostic")
	}
}
