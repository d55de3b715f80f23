// Package builtins provides the host platform surface: ambient globals
// (console, Math, JSON, Promise, timers, ...) and the bare-name importable
// host modules (fs, path, crypto, url, zlib, http, ...). Each module is a
// data-driven table: a value object consumed by both execution strategies
// and a type shape consumed by the checker. Host failures surface as
// language-level exceptions carrying the conventional code taxonomy
// (ENOENT, EACCES, EEXIST, ...).
package builtins

import (
	"io"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// CallFunc invokes a language-level callable; supplied by the executor so
// builtins can run user callbacks (promise executors, timer callbacks).
type CallFunc func(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error)

// Host carries the capabilities a builtin needs: console output, the
// scheduler for timers and promise settlements, and a way to call back into
// user code.
type Host struct {
	Out   io.Writer
	Sched *runtime.Scheduler
	Call  CallFunc
}

// Registry holds the constructed globals and host modules for one run.
type Registry struct {
	host    *Host
	globals map[string]runtime.Value
	modules map[string]runtime.Value
}

// New builds the full builtin surface over a host.
func New(host *Host) *Registry {
	r := &Registry{
		host:    host,
		globals: make(map[string]runtime.Value),
		modules: make(map[string]runtime.Value),
	}

	r.globals["console"] = r.consoleObject()
	r.installCoreGlobals()
	r.installTimerGlobals()

	r.modules["console"] = r.globals["console"]
	r.modules["fs"] = r.fsModule()
	r.modules["path"] = r.pathModule()
	r.modules["crypto"] = r.cryptoModule()
	r.modules["url"] = r.urlModule()
	r.modules["querystring"] = r.querystringModule()
	r.modules["zlib"] = r.zlibModule()
	r.modules["http"] = r.httpModule()
	r.modules["child_process"] = r.childProcessModule()
	r.modules["dns"] = r.dnsModule()
	r.modules["perf_hooks"] = r.perfHooksModule()
	r.modules["readline"] = r.readlineModule()
	r.modules["stream"] = r.streamModule()
	r.modules["timers"] = r.timersModule()

	return r
}

// Globals returns the ambient bindings installed into every module scope.
func (r *Registry) Globals() map[string]runtime.Value {
	return r.globals
}

// Module returns a host module's value object by bare name.
func (r *Registry) Module(name string) (runtime.Value, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// fn wraps a Go function as a builtin value.
func fn(name string, f runtime.BuiltinFunc) *runtime.BuiltinValue {
	return &runtime.BuiltinValue{Name: name, Fn: f}
}

// arg returns the nth argument or undefined.
func arg(args []runtime.Value, n int) runtime.Value {
	if n < len(args) {
		return args[n]
	}
	return runtime.UNDEFINED
}

// hostError packages a host failure as a catchable exception with a code.
func hostError(name, message, code string) error {
	return runtime.Throw(runtime.NewErrorObject(name, message, code))
}
