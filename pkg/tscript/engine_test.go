package tscript

import (
	"bytes"
	"testing"
)

func TestEngineRun(t *testing.T) {
	var out bytes.Buffer
	engine := NewEngine(Options{StrictNullChecks: true, Entry: "main", Out: &out})

	diags := engine.Run(map[string]string{
		"main": `import { greet } from "./lib";
console.log(greet("world"));`,
		"lib": `export function greet(name: string): string { return "hello " + name; }`,
	})
	if diags.HasErrors() {
		t.Fatalf("run failed: %v", diags.Errors()[0])
	}
	if out.String() != "hello world\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestEngineCheckReportsErrors(t *testing.T) {
	engine := NewEngine(Options{StrictNullChecks: true})
	diags := engine.Check(map[string]string{
		"main": `let x: number = "not a number";`,
	})
	if !diags.HasErrors() {
		t.Fatal("expected a type error")
	}
}

func TestEngineCompileAndRunCompiled(t *testing.T) {
	var out bytes.Buffer
	engine := NewEngine(Options{StrictNullChecks: true, Entry: "main", Out: &out})

	encoded, diags := engine.Compile(map[string]string{
		"main": `function fib(n: number): number {
	if (n < 2) { return n; }
	return fib(n - 1) + fib(n - 2);
}
console.log(fib(10));`,
	})
	if diags.HasErrors() {
		t.Fatalf("compile failed: %v", diags.Errors()[0])
	}
	if len(encoded) != 1 {
		t.Fatalf("modules = %d", len(encoded))
	}

	diags = engine.RunCompiled(encoded)
	if diags.HasErrors() {
		t.Fatalf("run failed: %v", diags.Errors()[0])
	}
	if out.String() != "55\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestInterpreterAndVMAgree(t *testing.T) {
	source := map[string]string{
		"main": `let sum = 0;
for (let i = 1; i <= 5; i++) { sum += i; }
console.log(sum);`,
	}

	var interpOut bytes.Buffer
	e1 := NewEngine(Options{StrictNullChecks: true, Out: &interpOut})
	if diags := e1.Run(source); diags.HasErrors() {
		t.Fatalf("interp failed: %v", diags.Errors()[0])
	}

	var vmOut bytes.Buffer
	e2 := NewEngine(Options{StrictNullChecks: true, Out: &vmOut})
	encoded, diags := e2.Compile(source)
	if diags.HasErrors() {
		t.Fatalf("compile failed: %v", diags.Errors()[0])
	}
	if diags := e2.RunCompiled(encoded); diags.HasErrors() {
		t.Fatalf("vm failed: %v", diags.Errors()[0])
	}

	if interpOut.String() != vmOut.String() {
		t.Errorf("engines disagree: %q vs %q", interpOut.String(), vmOut.String())
	}
}

func TestOptionsFromJSON(t *testing.T) {
	opts := OptionsFromJSON([]byte(`{
		"compilerOptions": { "strictNullChecks": true, "methodBivariance": true },
		"entry": "src/app"
	}`))
	if !opts.StrictNullChecks || !opts.MethodBivariance {
		t.Error("compiler options not read")
	}
	if opts.Entry != "src/app" {
		t.Errorf("entry = %q", opts.Entry)
	}

	defaulted := OptionsFromJSON([]byte(`{}`))
	if defaulted.Entry != "main" {
		t.Errorf("default entry = %q", defaulted.Entry)
	}
}
