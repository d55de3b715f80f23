// Package tscript provides the embedding API for the TScript compiler and
// its two execution back ends: check a source tree, run it through the
// tree-walking interpreter, or compile it to bytecode modules and execute
// those. The error channel is a diagnostic list throughout.
package tscript

import (
	"io"
	"os"

	"github.com/tidwall/gjson"

	"github.com/cwbudde/go-tscript/internal/builtins"
	"github.com/cwbudde/go-tscript/internal/bytecode"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/interp"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
	"github.com/cwbudde/go-tscript/internal/semantic"
)

// Options configures an Engine.
type Options struct {
	// StrictNullChecks removes null/undefined from other types' domains.
	StrictNullChecks bool
	// MethodBivariance relaxes parameter variance in method positions.
	MethodBivariance bool
	// Entry is the module name execution starts from.
	Entry string
	// Out receives console output; defaults to os.Stdout.
	Out io.Writer
	// Resolve handles bare specifiers not in the source map or the builtin
	// module table.
	Resolve modules.ResolveFunc
}

// OptionsFromJSON reads a tsconfig-style JSON document:
//
//	{ "compilerOptions": { "strictNullChecks": true, "methodBivariance": false },
//	  "entry": "main" }
func OptionsFromJSON(data []byte) Options {
	doc := string(data)
	opts := Options{
		StrictNullChecks: gjson.Get(doc, "compilerOptions.strictNullChecks").Bool(),
		MethodBivariance: gjson.Get(doc, "compilerOptions.methodBivariance").Bool(),
		Entry:            gjson.Get(doc, "entry").String(),
	}
	if opts.Entry == "" {
		opts.Entry = "main"
	}
	return opts
}

// Engine ties the front end, checker and back ends together for one
// configuration.
type Engine struct {
	opts Options
}

// NewEngine creates an engine.
func NewEngine(opts Options) *Engine {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Entry == "" {
		opts.Entry = "main"
	}
	return &Engine{opts: opts}
}

// resolveAndCheck runs lexing, parsing, module resolution and the checker.
func (e *Engine) resolveAndCheck(sources map[string]string, diags *errors.DiagnosticList) []*modules.Descriptor {
	r := modules.NewResolver(sources, e.opts.Resolve, diags)
	order := r.Resolve(e.opts.Entry)

	a := semantic.NewAnalyzer(semantic.Options{
		StrictNullChecks: e.opts.StrictNullChecks,
		MethodBivariance: e.opts.MethodBivariance,
	}, diags)
	for name, shape := range builtins.Shapes() {
		a.RegisterBuiltinModule(name, shape)
	}
	a.Analyze(order)
	return order
}

// Check type-checks a source tree and returns its diagnostics.
func (e *Engine) Check(sources map[string]string) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()
	e.resolveAndCheck(sources, diags)
	return diags
}

// Run checks and interprets a source tree. Runtime console output goes to
// Options.Out; compile-time and fatal runtime problems come back as
// diagnostics.
func (e *Engine) Run(sources map[string]string) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()
	order := e.resolveAndCheck(sources, diags)
	if diags.HasErrors() {
		return diags
	}

	ip := interp.New(e.opts.Out, diags)
	reg := builtins.New(&builtins.Host{
		Out:   e.opts.Out,
		Sched: ip.Sched,
		Call: func(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return ip.CallValue(fn, this, args)
		},
	})
	ip.SetGlobals(reg.Globals())
	ip.SetHostModules(reg.Module)
	ip.Run(order)
	return diags
}

// Compile checks and lowers a source tree into serialized bytecode
// modules, in initialization order.
func (e *Engine) Compile(sources map[string]string) ([][]byte, *errors.DiagnosticList) {
	diags := errors.NewDiagnosticList()
	order := e.resolveAndCheck(sources, diags)
	if diags.HasErrors() {
		return nil, diags
	}

	c := bytecode.NewCompiler(diags)
	mods := c.Compile(order)
	if diags.HasErrors() {
		return nil, diags
	}

	out := make([][]byte, len(mods))
	for i, m := range mods {
		out[i] = bytecode.Serialize(m)
	}
	return out, diags
}

// CompileModules checks and lowers a source tree, returning the in-memory
// module objects (for disassembly or direct execution).
func (e *Engine) CompileModules(sources map[string]string) ([]*bytecode.Module, *errors.DiagnosticList) {
	diags := errors.NewDiagnosticList()
	order := e.resolveAndCheck(sources, diags)
	if diags.HasErrors() {
		return nil, diags
	}
	c := bytecode.NewCompiler(diags)
	mods := c.Compile(order)
	return mods, diags
}

// RunCompiled loads serialized bytecode modules and executes them on the
// VM. The modules must arrive in initialization order.
func (e *Engine) RunCompiled(encoded [][]byte) *errors.DiagnosticList {
	diags := errors.NewDiagnosticList()

	mods := make([]*bytecode.Module, 0, len(encoded))
	for _, data := range encoded {
		m, err := bytecode.Deserialize(data)
		if err != nil {
			diags.AddError(lexer.Position{Line: 1, Column: 1}, "TS9600", err.Error())
			return diags
		}
		mods = append(mods, m)
	}

	vm := bytecode.NewVM(e.opts.Out, diags)
	reg := builtins.New(&builtins.Host{
		Out:   e.opts.Out,
		Sched: vm.Sched,
		Call:  vm.CallValue,
	})
	vm.SetGlobals(reg.Globals())
	vm.SetHostModules(reg.Module)
	vm.Run(mods)
	return diags
}
