package modules

import (
	"testing"

	"github.com/cwbudde/go-tscript/internal/errors"
)

func resolve(t *testing.T, sources map[string]string, entry string) ([]*Descriptor, *errors.DiagnosticList) {
	t.Helper()
	diags := errors.NewDiagnosticList()
	r := NewResolver(sources, nil, diags)
	order := r.Resolve(entry)
	return order, diags
}

func names(order []*Descriptor) []string {
	out := make([]string, len(order))
	for i, d := range order {
		out[i] = d.Name
	}
	return out
}

func TestLeavesFirstOrdering(t *testing.T) {
	sources := map[string]string{
		"main": `import { a } from "./a"; import { b } from "./b"; console.log(a + b);`,
		"a":    `import { c } from "./c"; export const a = c + 1;`,
		"b":    `export const b = 2;`,
		"c":    `export const c = 3;`,
	}

	order, diags := resolve(t, sources, "main")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All()[0])
	}

	got := names(order)
	want := []string{"c", "a", "b", "main"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestCycleIsPermitted(t *testing.T) {
	sources := map[string]string{
		"a": `import { b } from "./b"; export const a = 1;`,
		"b": `import { a } from "./a"; export const b = 2;`,
	}

	order, diags := resolve(t, sources, "a")
	if diags.HasErrors() {
		t.Fatalf("cycles must not error: %v", diags.All()[0])
	}
	got := names(order)
	// Post-order from a: b finishes first.
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("order = %v, want [b a]", got)
	}
}

func TestMissingModule(t *testing.T) {
	sources := map[string]string{
		"main": `import { x } from "./missing";`,
	}
	_, diags := resolve(t, sources, "main")
	if !diags.HasErrors() {
		t.Fatal("expected a missing-module diagnostic")
	}
	if diags.Errors()[0].Code != "TS2307" {
		t.Errorf("code = %s, want TS2307", diags.Errors()[0].Code)
	}
}

func TestBuiltinModulesSkipParsing(t *testing.T) {
	sources := map[string]string{
		"main": `import * as fs from "fs"; import * as path from "path";`,
	}
	order, diags := resolve(t, sources, "main")
	if diags.HasErrors() {
		t.Fatalf("builtins must resolve: %v", diags.All()[0])
	}
	if len(order) != 1 {
		t.Fatalf("builtins must not join the init order: %v", names(order))
	}
	if len(order[0].Imports) != 2 {
		t.Errorf("imports = %v", order[0].Imports)
	}
}

func TestDuplicateDefaultExport(t *testing.T) {
	sources := map[string]string{
		"m": `export default 1;
export default 2;`,
	}
	_, diags := resolve(t, sources, "m")
	if !diags.HasErrors() {
		t.Fatal("expected duplicate default export diagnostic")
	}
	if diags.Errors()[0].Code != "TS2528" {
		t.Errorf("code = %s", diags.Errors()[0].Code)
	}
}

func TestCyclicExportEquals(t *testing.T) {
	sources := map[string]string{
		"a": `import b = require("./b"); export = b;`,
		"b": `import a = require("./a"); export = a;`,
	}
	_, diags := resolve(t, sources, "a")
	if !diags.HasErrors() {
		t.Fatal("expected cyclic export= diagnostic")
	}
	found := false
	for _, d := range diags.Errors() {
		if d.Code == "TS2440" {
			found = true
		}
	}
	if !found {
		t.Error("missing TS2440 diagnostic")
	}
}

func TestExportShape(t *testing.T) {
	sources := map[string]string{
		"m": `export const a = 1;
export function f() { return 1; }
export class C {}
export default f;
export { a as alias };
export { b } from "./other";
export * from "./other";`,
		"other": `export const b = 2;`,
	}
	order, diags := resolve(t, sources, "m")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All()[0])
	}

	var m *Descriptor
	for _, d := range order {
		if d.Name == "m" {
			m = d
		}
	}
	if m == nil {
		t.Fatal("module m missing from order")
	}

	ex := m.Exports
	for _, name := range []string{"a", "f", "C", "alias"} {
		if !ex.Named[name] {
			t.Errorf("named export %q missing", name)
		}
	}
	if !ex.HasDefault {
		t.Error("default export missing")
	}
	if ex.ReExports["b"] != "./other" {
		t.Errorf("re-export b = %q, want ./other", ex.ReExports["b"])
	}
	if len(ex.StarSources) != 1 {
		t.Error("star re-export missing")
	}
}

func TestRelativeResolution(t *testing.T) {
	sources := map[string]string{
		"lib/a": `import { b } from "./b"; import { c } from "../c"; export const a = 1;`,
		"lib/b": `export const b = 2;`,
		"c":     `export const c = 3;`,
	}
	order, diags := resolve(t, sources, "lib/a")
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.All()[0])
	}
	got := names(order)
	if len(got) != 3 || got[2] != "lib/a" {
		t.Fatalf("order = %v", got)
	}
}
