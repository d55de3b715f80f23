// Package interp provides the tree-walking evaluator for TScript. It shares
// the value model, scheduler and promise machinery in internal/runtime with
// the bytecode back end; for the subset both implement, observable behavior
// is identical by construction and verified by a shared fixture matrix.
package interp

import (
	"fmt"
	"io"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// control-flow signals travel as errors through evaluation; finally blocks
// observe them on every exit path.
type returnSignal struct {
	value runtime.Value
}

func (r *returnSignal) Error() string { return "return" }

type breakSignal struct {
	label string
}

func (b *breakSignal) Error() string { return "break" }

type continueSignal struct {
	label string
}

func (c *continueSignal) Error() string { return "continue" }

// moduleInstance is one initialized module: its environment and export
// cells. Cells are written as the body executes so cyclic imports observe
// undefined before initialization and the final value after.
type moduleInstance struct {
	name    string
	env     *runtime.Environment
	exports map[string]*runtime.Cell
	def     *runtime.Cell // default export
	equals  *runtime.Cell // export = value
}

// Interpreter evaluates checked modules directly.
type Interpreter struct {
	Sched   *runtime.Scheduler
	Out     io.Writer
	diags   *errors.DiagnosticList
	globals map[string]runtime.Value
	hostMod func(name string) (runtime.Value, bool)

	mods    map[string]*moduleInstance
	curCoro *coro
	depth   int
}

// MaxCallDepth bounds recursion; exceeding it is a fatal error.
const MaxCallDepth = 10000

// New creates an interpreter writing console output to out.
func New(out io.Writer, diags *errors.DiagnosticList) *Interpreter {
	return &Interpreter{
		Sched: runtime.NewScheduler(),
		Out:   out,
		diags: diags,
		mods:  make(map[string]*moduleInstance),
	}
}

// SetGlobals installs ambient global bindings (console, Math, timers, ...).
func (i *Interpreter) SetGlobals(globals map[string]runtime.Value) {
	i.globals = globals
}

// SetHostModules installs the host module lookup for bare-name imports.
func (i *Interpreter) SetHostModules(lookup func(name string) (runtime.Value, bool)) {
	i.hostMod = lookup
}

// CallValue invokes a language-level callable; exposed so the builtin
// registry can run user callbacks (timers, promise handlers).
func (i *Interpreter) CallValue(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return i.callValue(fn, this, args)
}

// Run executes modules in initialization order, then drains the scheduler.
// Uncaught exceptions surface as diagnostics; no stack trace is attached.
func (i *Interpreter) Run(order []*modules.Descriptor) {
	i.Sched.OnUnhandledRejection = func(reason runtime.Value) {
		i.fatal(lexer.Position{}, "TS9702", "unhandled promise rejection: %s", runtime.Display(reason))
	}

	for _, desc := range order {
		// A cyclic importer may have pre-created this instance's shell; the
		// cells it bound must stay live.
		inst := i.moduleFor(desc.Name)

		i.installGlobals(inst.env)
		// Pre-create export cells so cyclic importers can bind them before
		// this body runs.
		for name := range desc.Exports.Named {
			inst.exportCell(name)
		}

		i.runModuleBody(desc, inst)
	}

	i.Sched.RunToCompletion()
}

func (i *Interpreter) installGlobals(env *runtime.Environment) {
	for name, v := range i.globals {
		env.DefineConst(name, v)
	}
}

// moduleFor returns an already-initialized (or pre-created) module instance,
// creating a shell for cycle back edges.
func (i *Interpreter) moduleFor(name string) *moduleInstance {
	if inst, ok := i.mods[name]; ok {
		return inst
	}
	inst := &moduleInstance{
		name:    name,
		env:     runtime.NewEnvironment(),
		exports: make(map[string]*runtime.Cell),
		def:     runtime.NewCell(),
		equals:  runtime.NewCell(),
	}
	i.mods[name] = inst
	return inst
}

// exportCell fetches (or lazily creates) a named export cell.
func (m *moduleInstance) exportCell(name string) *runtime.Cell {
	if c, ok := m.exports[name]; ok {
		return c
	}
	c := runtime.NewCell()
	m.exports[name] = c
	return c
}

// runModuleBody hoists declarations, binds imports and executes statements.
func (i *Interpreter) runModuleBody(desc *modules.Descriptor, inst *moduleInstance) {
	env := inst.env

	// Hoist function and class declarations so forward references work.
	for _, stmt := range desc.AST.Statements {
		if fd, ok := stmt.(*ast.FunctionDeclaration); ok && fd.Function.Name != nil {
			fn := i.makeFunction(fd.Function, env)
			env.Define(fd.Function.Name.Value, fn)
			if fd.Exported && !fd.Default {
				cell := inst.exportCell(fd.Function.Name.Value)
				cell.Set(fn)
			}
			if fd.Default {
				inst.def.Set(fn)
			}
		}
	}

	for _, stmt := range desc.AST.Statements {
		if err := i.execStatement(stmt, env, inst); err != nil {
			i.reportUncaught(err, stmt.Pos())
			return
		}
	}
}

// reportUncaught converts an escaped error into a fatal diagnostic placed
// at the top-level statement it escaped from; no stack trace is attached.
func (i *Interpreter) reportUncaught(err error, pos lexer.Position) {
	switch e := err.(type) {
	case *runtime.ThrownError:
		i.fatal(pos, "TS9701", "uncaught exception: %s", runtime.Display(e.Value))
	case *returnSignal:
		// return at module top level is ignored.
	case *breakSignal, *continueSignal:
		i.fatal(pos, "TS9703", "illegal loop control at module top level")
	default:
		i.fatal(pos, "TS9700", "%s", err.Error())
	}
}

func (i *Interpreter) fatal(pos lexer.Position, code, format string, args ...any) {
	i.diags.Add(&errors.Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: errors.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

// makeFunction builds a function value capturing the defining environment.
func (i *Interpreter) makeFunction(fn *ast.FunctionExpression, env *runtime.Environment) *runtime.FunctionValue {
	name := ""
	if fn.Name != nil {
		name = fn.Name.Value
	}
	return &runtime.FunctionValue{
		Name:        name,
		Params:      fn.Params,
		Body:        fn.Body,
		Env:         env,
		IsAsync:     fn.IsAsync,
		IsGenerator: fn.IsGenerator,
	}
}

// makeArrow builds an arrow function value; `this` is captured lexically
// from the defining site.
func (i *Interpreter) makeArrow(fn *ast.ArrowFunction, env *runtime.Environment, this runtime.Value) *runtime.FunctionValue {
	return &runtime.FunctionValue{
		Params:    fn.Params,
		Body:      fn.Body,
		ExprBody:  fn.ExprBody,
		Env:       env,
		BoundThis: this,
		HasThis:   true,
		IsArrow:   true,
		IsAsync:   fn.IsAsync,
	}
}

// lexicalThis resolves the lexical `this` at an arrow's definition site.
func (i *Interpreter) lexicalThis(env *runtime.Environment) runtime.Value {
	if v, ok := env.Get("this"); ok {
		return v
	}
	return runtime.UNDEFINED
}
