package interp

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Async functions and generators execute on a paired-channel coroutine: the
// body runs on its own goroutine, but exactly one side runs at any moment —
// the driver blocks while the body runs and the body blocks while suspended
// — so the cooperative single-threaded model is preserved. Suspensions
// occur only at await and yield; the scheduler resumes the coroutine from
// promise continuations on the main thread. The bytecode back end lowers
// the same semantics into explicit state machines.

type coroEventKind int

const (
	coroSuspended coroEventKind = iota // awaited; a continuation will resume
	coroYielded                        // generator produced a value
	coroDone                           // body returned
	coroFailed                         // body threw
)

type coroEvent struct {
	kind  coroEventKind
	value runtime.Value
	err   error
}

type coroResume struct {
	value    runtime.Value
	throw    bool
	finished bool // generator return(): unwind with a return signal
}

type coro struct {
	resume  chan coroResume
	out     chan coroEvent
	promise *runtime.PromiseValue // result promise for async functions
	done    bool
}

// drive hands control to the coroutine and blocks until it suspends,
// yields or finishes. The current-coroutine pointer nests so synchronous
// calls made from inside a coroutine behave normally.
func (i *Interpreter) drive(co *coro, msg coroResume) coroEvent {
	prev := i.curCoro
	i.curCoro = co
	co.resume <- msg
	ev := <-co.out
	i.curCoro = prev
	if ev.kind == coroDone || ev.kind == coroFailed {
		co.done = true
	}
	return ev
}

// spawnCoro starts a coroutine goroutine that waits for its first resume
// before executing body.
func (i *Interpreter) spawnCoro(body func(first coroResume) (runtime.Value, error)) *coro {
	co := &coro{
		resume: make(chan coroResume),
		out:    make(chan coroEvent),
	}
	go func() {
		first := <-co.resume
		v, err := body(first)
		if err != nil {
			co.out <- coroEvent{kind: coroFailed, err: err}
			return
		}
		co.out <- coroEvent{kind: coroDone, value: v}
	}()
	return co
}

// callAsync invokes an async function: the call returns a promise
// immediately; the body runs cooperatively and settles it.
func (i *Interpreter) callAsync(fn *runtime.FunctionValue, this runtime.Value, args []runtime.Value) *runtime.PromiseValue {
	p := runtime.NewPromiseValue(i.Sched)

	env, err := i.bindCallEnvironment(fn, this, args)
	if err != nil {
		i.rejectWith(p, err)
		return p
	}

	co := i.spawnCoro(func(coroResume) (runtime.Value, error) {
		if fn.Body == nil && fn.ExprBody != nil {
			return i.eval(fn.ExprBody, env)
		}
		if fn.Body == nil {
			return runtime.UNDEFINED, nil
		}
		bodyErr := i.execBlock(fn.Body, env)
		switch sig := bodyErr.(type) {
		case nil:
			return runtime.UNDEFINED, nil
		case *returnSignal:
			return sig.value, nil
		default:
			return nil, bodyErr
		}
	})
	co.promise = p

	i.pump(co, coroResume{})
	return p
}

// pump resumes a coroutine and settles its promise when it finishes.
// Suspensions are no-ops here: the await continuation registered inside the
// coroutine will pump again when its promise settles.
func (i *Interpreter) pump(co *coro, msg coroResume) {
	ev := i.drive(co, msg)
	switch ev.kind {
	case coroSuspended:
		// Resumption is owned by the registered continuation.
	case coroDone:
		if co.promise != nil {
			co.promise.Resolve(ev.value)
		}
	case coroFailed:
		if co.promise != nil {
			i.rejectWith(co.promise, ev.err)
		}
	}
}

func (i *Interpreter) rejectWith(p *runtime.PromiseValue, err error) {
	if thrown, ok := err.(*runtime.ThrownError); ok {
		p.Reject(thrown.Value)
		return
	}
	p.Reject(runtime.NewString(err.Error()))
}

// awaitValue implements await: promises suspend the current coroutine and
// resume with the settlement; non-promise values pass through after a
// microtask-equivalent (immediately, since ordering is preserved by the
// scheduler's drain discipline).
func (i *Interpreter) awaitValue(v runtime.Value) (runtime.Value, error) {
	p, ok := v.(*runtime.PromiseValue)
	if !ok {
		return v, nil
	}
	co := i.curCoro
	if co == nil {
		// Top-level await is outside the language subset; the checker
		// reports it, but fail soft if reached.
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"await outside of an async function", ""))
	}

	p.OnSettled(func(state runtime.PromiseState, result runtime.Value) {
		i.pump(co, coroResume{value: result, throw: state == runtime.PromiseRejected})
	})

	// Tell the driver we suspended, then block until the continuation
	// resumes us. A rejection rethrows at the await point, catchable by the
	// surrounding try.
	co.out <- coroEvent{kind: coroSuspended}
	msg := <-co.resume
	if msg.throw {
		return nil, runtime.Throw(msg.value)
	}
	return msg.value, nil
}

// callGenerator invokes a generator function: the body does not run until
// the iterator's first next(); next(value) drives one step to the next
// yield.
func (i *Interpreter) callGenerator(fn *runtime.FunctionValue, this runtime.Value, args []runtime.Value) *runtime.IteratorValue {
	env, bindErr := i.bindCallEnvironment(fn, this, args)

	var co *coro
	started := false
	finished := false
	var finalValue runtime.Value = runtime.UNDEFINED

	ensure := func() {
		if started {
			return
		}
		started = true
		co = i.spawnCoro(func(coroResume) (runtime.Value, error) {
			if fn.Body == nil {
				return runtime.UNDEFINED, nil
			}
			bodyErr := i.execBlock(fn.Body, env)
			switch sig := bodyErr.(type) {
			case nil:
				return runtime.UNDEFINED, nil
			case *returnSignal:
				return sig.value, nil
			default:
				return nil, bodyErr
			}
		})
	}

	step := func(msg coroResume) (runtime.Value, bool, error) {
		if bindErr != nil {
			return nil, true, bindErr
		}
		if finished {
			return runtime.UNDEFINED, true, nil
		}
		ensure()
		ev := i.drive(co, msg)
		switch ev.kind {
		case coroYielded:
			return ev.value, false, nil
		case coroDone:
			finished = true
			finalValue = ev.value
			return finalValue, true, nil
		case coroFailed:
			finished = true
			return nil, true, ev.err
		}
		return runtime.UNDEFINED, true, nil
	}

	return &runtime.IteratorValue{
		NextFn: func(sent runtime.Value) (runtime.Value, bool, error) {
			return step(coroResume{value: sent})
		},
		ReturnFn: func(v runtime.Value) (runtime.Value, error) {
			if !started || finished {
				finished = true
				return v, nil
			}
			out, _, err := step(coroResume{value: v, finished: true})
			if err != nil {
				return nil, err
			}
			return out, nil
		},
		ThrowFn: func(reason runtime.Value) (runtime.Value, bool, error) {
			if !started || finished {
				finished = true
				return nil, true, runtime.Throw(reason)
			}
			return step(coroResume{value: reason, throw: true})
		},
	}
}

// evalYield suspends the generator coroutine with a value and resumes with
// the value sent into next(). yield* delegates to an inner iterable,
// passing sent values through and completing with the delegate's final
// value.
func (i *Interpreter) evalYield(e *ast.YieldExpression, env *runtime.Environment) (runtime.Value, error) {
	co := i.curCoro
	if co == nil {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"yield outside of a generator", ""))
	}

	if e.Delegate {
		src, err := i.eval(e.Argument, env)
		if err != nil {
			return nil, err
		}
		inner, ok := runtime.GetIterator(src)
		if !ok {
			return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
				"yield* target is not iterable", ""))
		}
		var sent runtime.Value = runtime.UNDEFINED
		for {
			v, done, err := inner.Next(sent)
			if err != nil {
				return nil, err
			}
			if done {
				// The delegate's final return value is the expression value.
				return v, nil
			}
			resumed, err := i.suspendYield(co, v)
			if err != nil {
				return nil, err
			}
			sent = resumed
		}
	}

	var v runtime.Value = runtime.UNDEFINED
	if e.Argument != nil {
		val, err := i.eval(e.Argument, env)
		if err != nil {
			return nil, err
		}
		v = val
	}
	return i.suspendYield(co, v)
}

// suspendYield emits one yielded value and blocks for the next resume.
func (i *Interpreter) suspendYield(co *coro, v runtime.Value) (runtime.Value, error) {
	co.out <- coroEvent{kind: coroYielded, value: v}
	msg := <-co.resume
	if msg.throw {
		return nil, runtime.Throw(msg.value)
	}
	if msg.finished {
		return nil, &returnSignal{value: msg.value}
	}
	return msg.value, nil
}
