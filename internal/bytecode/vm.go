package bytecode

import (
	"fmt"
	"io"

	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Closure is a compiled function bound to its captured environment (the
// heap frame of the defining scope, so captured-variable writes stay
// visible across frames).
type Closure struct {
	Fn      *Function
	Env     *runtime.Environment
	This    runtime.Value
	HasThis bool
}

func (cl *Closure) Type() string { return "FUNCTION" }
func (cl *Closure) String() string {
	name := cl.Fn.Name
	if name == "" {
		name = "anonymous"
	}
	return "[Function: " + name + "]"
}

// Bind fixes the receiver.
func (cl *Closure) Bind(this runtime.Value) *Closure {
	clone := *cl
	clone.This = this
	clone.HasThis = true
	return &clone
}

// Class is the VM's materialized class object.
type Class struct {
	Name     string
	Super    *Class
	Methods  map[string]*Closure
	Getters  map[string]*Closure
	Setters  map[string]*Closure
	Ctor     *Closure
	Statics  *runtime.ObjectValue
	Fields   []FieldDef
	FieldEnv *runtime.Environment
	InitFns  map[string]*Closure
	Readonly map[string]bool
	Abstract bool
}

func (c *Class) Type() string   { return "CLASS" }
func (c *Class) String() string { return "[class " + c.Name + "]" }

// DerivesFrom reports whether c inherits from (or is) other.
func (c *Class) DerivesFrom(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}

func (c *Class) lookupMethod(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

func (c *Class) lookupGetter(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if g, ok := cls.Getters[name]; ok {
			return g, true
		}
	}
	return nil, false
}

func (c *Class) lookupSetter(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if s, ok := cls.Setters[name]; ok {
			return s, true
		}
	}
	return nil, false
}

func (c *Class) lookupCtor() (*Closure, *Class) {
	for cls := c; cls != nil; cls = cls.Super {
		if cls.Ctor != nil {
			return cls.Ctor, cls
		}
	}
	return nil, nil
}

// Instance is a VM class instance.
type Instance struct {
	Class  *Class
	Fields *runtime.ObjectValue
}

func (i *Instance) Type() string   { return "INSTANCE" }
func (i *Instance) String() string { return i.Class.Name + " " + i.Fields.String() }

// tryFrame records one active handler range: the target state for
// resumption on an exception, plus the depths to restore.
type tryFrame struct {
	handlerPC  int
	stackDepth int
	envDepth   int
}

// frame is one activation record. For async functions and generators the
// frame IS the state machine: ip is the integer state and the operand
// stack, scope chain and try table are the fields live across suspensions.
type frame struct {
	fn       *Function
	chunk    *Chunk
	ip       int
	stack    []runtime.Value
	env      *runtime.Environment
	envStack []*runtime.Environment
	tries    []tryFrame
	module   *loadedModule
}

func (f *frame) push(v runtime.Value) { f.stack = append(f.stack, v) }
func (f *frame) pop() runtime.Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}
func (f *frame) peek() runtime.Value { return f.stack[len(f.stack)-1] }

// resultKind tags how a frame left the run loop.
type resultKind int

const (
	resDone resultKind = iota
	resAwait
	resYield
)

// execResult is the outcome of running a frame until completion or
// suspension.
type execResult struct {
	kind    resultKind
	value   runtime.Value
	awaited *runtime.PromiseValue
}

// loadedModule is one module's runtime state: environment plus export
// cells (lazily written, so cyclic imports observe undefined first).
type loadedModule struct {
	name    string
	mod     *Module
	env     *runtime.Environment
	exports map[string]*runtime.Cell
	def     *runtime.Cell
	equals  *runtime.Cell
}

func (m *loadedModule) exportCell(name string) *runtime.Cell {
	if name == "default" {
		return m.def
	}
	if c, ok := m.exports[name]; ok {
		return c
	}
	c := runtime.NewCell()
	m.exports[name] = c
	return c
}

// VM executes compiled modules over the shared runtime value model.
type VM struct {
	Sched   *runtime.Scheduler
	Out     io.Writer
	diags   *errors.DiagnosticList
	globals map[string]runtime.Value
	hostMod func(name string) (runtime.Value, bool)

	loaded map[string]*loadedModule
	depth  int
}

// MaxCallDepth bounds VM recursion.
const MaxCallDepth = 10000

// NewVM creates a VM writing console output through the builtin registry.
func NewVM(out io.Writer, diags *errors.DiagnosticList) *VM {
	return &VM{
		Sched:  runtime.NewScheduler(),
		Out:    out,
		diags:  diags,
		loaded: make(map[string]*loadedModule),
	}
}

// SetGlobals installs the ambient globals.
func (vm *VM) SetGlobals(globals map[string]runtime.Value) {
	vm.globals = globals
}

// SetHostModules installs the host module lookup.
func (vm *VM) SetHostModules(lookup func(name string) (runtime.Value, bool)) {
	vm.hostMod = lookup
}

// CallValue is the CallFn the builtin registry and runtime helpers use to
// re-enter the VM.
func (vm *VM) CallValue(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return vm.callValue(fn, this, args)
}

// Run loads and executes modules in initialization order, then drains the
// scheduler.
func (vm *VM) Run(mods []*Module) {
	vm.Sched.OnUnhandledRejection = func(reason runtime.Value) {
		vm.fatal("TS9702", "unhandled promise rejection: %s", runtime.Display(reason))
	}

	for _, m := range mods {
		lm := vm.moduleFor(m.Name)
		lm.mod = m
		for _, fn := range m.Functions {
			fn.owner = lm
		}
		for k, v := range vm.globals {
			lm.env.DefineConst(k, v)
		}
		vm.bindImports(lm)

		init := m.Functions[m.Init]
		f := &frame{
			fn:     init,
			chunk:  init.Chunk,
			env:    lm.env,
			module: lm,
		}
		if _, err := vm.runToCompletion(f); err != nil {
			vm.reportUncaught(err)
			return
		}
		vm.bindReExports(lm)
	}

	vm.Sched.RunToCompletion()
}

func (vm *VM) moduleFor(name string) *loadedModule {
	if lm, ok := vm.loaded[name]; ok {
		return lm
	}
	lm := &loadedModule{
		name:    name,
		env:     runtime.NewEnvironment(),
		exports: make(map[string]*runtime.Cell),
		def:     runtime.NewCell(),
		equals:  runtime.NewCell(),
	}
	vm.loaded[name] = lm
	return lm
}

// bindImports wires a module's import table to exporter cells or host
// modules.
func (vm *VM) bindImports(lm *loadedModule) {
	for _, imp := range lm.mod.Imports {
		if vm.hostMod != nil {
			if hm, ok := vm.hostMod(imp.Specifier); ok {
				vm.bindHostImport(lm, imp, hm)
				continue
			}
		}
		from := vm.moduleFor(resolveRelative(imp.Specifier, lm.name))
		if imp.Equals != "" {
			cell := from.equals
			lm.env.DefineCell(imp.Equals, cell)
			continue
		}
		if imp.Default != "" {
			lm.env.DefineCell(imp.Default, from.def)
		}
		if imp.Namespace != "" {
			lm.env.DefineConst(imp.Namespace, &runtime.NamespaceValue{
				Module: from.name,
				Cells:  from.exports,
			})
		}
		for _, pair := range imp.Named {
			lm.env.DefineCell(pair[1], from.exportCell(pair[0]))
		}
	}
}

func (vm *VM) bindHostImport(lm *loadedModule, imp ImportDef, hm runtime.Value) {
	if imp.Equals != "" {
		lm.env.DefineConst(imp.Equals, hm)
		return
	}
	if imp.Default != "" {
		lm.env.DefineConst(imp.Default, hm)
	}
	if imp.Namespace != "" {
		lm.env.DefineConst(imp.Namespace, hm)
	}
	for _, pair := range imp.Named {
		if obj, ok := hm.(*runtime.ObjectValue); ok {
			if v, found := obj.Get(pair[0]); found {
				lm.env.DefineConst(pair[1], v)
				continue
			}
		}
		lm.env.DefineConst(pair[1], runtime.UNDEFINED)
	}
}

// bindReExports links re-export edges after the module body ran.
func (vm *VM) bindReExports(lm *loadedModule) {
	for _, re := range lm.mod.ReExports {
		src := vm.moduleFor(resolveRelative(re.Source, lm.name))
		if re.Name == "" {
			for name, cell := range src.exports {
				lm.exports[name] = cell
			}
			continue
		}
		if src.equals.Get() != runtime.UNDEFINED {
			// Re-export of an export= module exposes the value itself.
			lm.exports[re.Alias] = src.equals
			continue
		}
		lm.exports[re.Alias] = src.exportCell(re.Name)
	}
}

func (vm *VM) fatal(code, format string, args ...any) {
	vm.diags.Add(&errors.Diagnostic{
		Pos:      lexer.Position{},
		Severity: errors.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (vm *VM) reportUncaught(err error) {
	if thrown, ok := err.(*runtime.ThrownError); ok {
		vm.fatal("TS9701", "uncaught exception: %s", runtime.Display(thrown.Value))
		return
	}
	vm.fatal("TS9700", "%s", err.Error())
}

// resolveRelative mirrors the resolver's relative-specifier rule.
func resolveRelative(spec, importer string) string {
	if !(len(spec) >= 2 && spec[:2] == "./") && !(len(spec) >= 3 && spec[:3] == "../") {
		return spec
	}
	base := ""
	for idx := len(importer) - 1; idx >= 0; idx-- {
		if importer[idx] == '/' {
			base = importer[:idx]
			break
		}
	}
	split := func(p string) []string {
		var out []string
		start := 0
		for idx := 0; idx <= len(p); idx++ {
			if idx == len(p) || p[idx] == '/' {
				out = append(out, p[start:idx])
				start = idx + 1
			}
		}
		return out
	}
	var segs []string
	if base != "" {
		segs = append(segs, split(base)...)
	}
	for _, s := range split(spec) {
		switch s {
		case ".", "":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}
	out := ""
	for idx, s := range segs {
		if idx > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

// newFrame binds a call: parameters with rest collection, `this` for
// non-arrow closures, and the closure's captured environment as parent.
func (vm *VM) newFrame(cl *Closure, this runtime.Value, args []runtime.Value, module *loadedModule) *frame {
	env := runtime.NewFunctionEnvironment(cl.Env)
	if !cl.Fn.IsArrow {
		if cl.HasThis {
			this = cl.This
		}
		if this == nil {
			this = runtime.UNDEFINED
		}
		env.DefineConst("this", this)
	}
	for idx, p := range cl.Fn.Params {
		if p.Rest {
			rest := &runtime.ArrayValue{}
			if idx < len(args) {
				rest.Elements = append(rest.Elements, args[idx:]...)
			}
			env.Define(p.Name, rest)
			break
		}
		var v runtime.Value = runtime.UNDEFINED
		if idx < len(args) {
			v = args[idx]
		}
		env.Define(p.Name, v)
	}
	return &frame{fn: cl.Fn, chunk: cl.Fn.Chunk, env: env, module: module}
}

// callValue dispatches a call over VM value kinds.
func (vm *VM) callValue(callee, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *Closure:
		if fn.HasThis {
			this = fn.This
		}
		return vm.applyClosure(fn, this, args)
	case *runtime.BuiltinValue:
		return fn.Fn(this, args)
	case *Class:
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"class constructor "+fn.Name+" cannot be invoked without 'new'", ""))
	}
	return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
		runtime.Display(callee)+" is not a function", ""))
}

// applyClosure runs a closure: synchronous calls complete inline; async
// and generator closures instantiate their state machines.
func (vm *VM) applyClosure(cl *Closure, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if vm.depth >= MaxCallDepth {
		return nil, runtime.Throw(runtime.NewErrorObject("RangeError",
			"maximum call stack size exceeded", ""))
	}

	if cl.Fn.IsAsync {
		return vm.callAsync(cl, this, args), nil
	}
	if cl.Fn.IsGenerator {
		return vm.callGenerator(cl, this, args), nil
	}

	f := vm.newFrame(cl, this, args, vm.currentModuleOf(cl))
	vm.depth++
	defer func() { vm.depth-- }()
	return vm.runToCompletion(f)
}

// currentModuleOf supplies the module for a closure call's frame. It always
// returns nil; function-table lookups fall back to the function's owner.
func (vm *VM) currentModuleOf(cl *Closure) *loadedModule {
	// Export ops only occur in module initializers, which are invoked with
	// their module set explicitly in Run; nested closures never emit them.
	return nil
}

// runToCompletion drives a frame, asserting it never suspends (used for
// synchronous calls and module initializers).
func (vm *VM) runToCompletion(f *frame) (runtime.Value, error) {
	res, err := vm.resume(f, runtime.UNDEFINED, false, true)
	if err != nil {
		return nil, err
	}
	if res.kind != resDone {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"await or yield outside of an async function or generator", ""))
	}
	return res.value, nil
}
