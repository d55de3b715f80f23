package bytecode

import (
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// stateMachine drives a suspended frame. The frame's instruction pointer is
// the monotonically advancing integer state; its operand stack and scope
// chain are the fields holding every value live across suspension points;
// its try table records the handler target states used when a rejection
// resumes the machine with a throw.
type stateMachine struct {
	vm      *VM
	frame   *frame
	promise *runtime.PromiseValue
	started bool
	done    bool
	final   runtime.Value
}

// Step resumes the machine with a value (or a throw) and processes the
// next suspension or completion. Async machines settle their promise on
// completion and chain awaited promises back into Step.
func (m *stateMachine) Step(value runtime.Value, isThrow bool) {
	res, err := m.vm.resume(m.frame, value, isThrow, !m.started)
	m.started = true
	if err != nil {
		m.done = true
		if m.promise != nil {
			if thrown, ok := err.(*runtime.ThrownError); ok {
				m.promise.Reject(thrown.Value)
			} else {
				m.promise.Reject(runtime.NewString(err.Error()))
			}
		}
		return
	}
	switch res.kind {
	case resDone:
		m.done = true
		m.final = res.value
		if m.promise != nil {
			m.promise.Resolve(res.value)
		}
	case resAwait:
		res.awaited.OnSettled(func(state runtime.PromiseState, result runtime.Value) {
			m.Step(result, state == runtime.PromiseRejected)
		})
	case resYield:
		// Only generators yield; the generator driver reads res through
		// stepYield, so an async machine reaching here is an internal error.
		m.done = true
		if m.promise != nil {
			m.promise.Reject(runtime.NewString("yield in async function"))
		}
	}
}

// callAsync instantiates the async state machine: the call returns its
// promise immediately; the machine runs until the first await, suspends,
// and the scheduler re-enters Step when the awaited promise settles.
func (vm *VM) callAsync(cl *Closure, this runtime.Value, args []runtime.Value) *runtime.PromiseValue {
	f := vm.newFrame(cl, this, args, nil)
	m := &stateMachine{
		vm:      vm,
		frame:   f,
		promise: runtime.NewPromiseValue(vm.Sched),
	}
	m.Step(runtime.UNDEFINED, false)
	return m.promise
}

// generatorMachine exposes next/return/throw over a suspended frame.
type generatorMachine struct {
	vm      *VM
	frame   *frame
	started bool
	done    bool
	final   runtime.Value
}

// step drives one resumption and reports (value, done).
func (g *generatorMachine) step(value runtime.Value, isThrow bool) (runtime.Value, bool, error) {
	if g.done {
		if isThrow {
			return nil, true, runtime.Throw(value)
		}
		return runtime.UNDEFINED, true, nil
	}
	res, err := g.vm.resume(g.frame, value, isThrow, !g.started)
	g.started = true
	if err != nil {
		g.done = true
		return nil, true, err
	}
	switch res.kind {
	case resYield:
		return res.value, false, nil
	case resDone:
		g.done = true
		g.final = res.value
		return res.value, true, nil
	case resAwait:
		g.done = true
		return nil, true, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"await inside a generator", ""))
	}
	return runtime.UNDEFINED, true, nil
}

// callGenerator instantiates the generator state machine. The body does
// not run until the iterator's first next(value).
func (vm *VM) callGenerator(cl *Closure, this runtime.Value, args []runtime.Value) *runtime.IteratorValue {
	f := vm.newFrame(cl, this, args, nil)
	g := &generatorMachine{vm: vm, frame: f}

	return &runtime.IteratorValue{
		NextFn: func(sent runtime.Value) (runtime.Value, bool, error) {
			return g.step(sent, false)
		},
		ReturnFn: func(v runtime.Value) (runtime.Value, error) {
			// return() before the first next leaves the body unentered.
			if !g.started || g.done {
				g.done = true
				return v, nil
			}
			// Finish the machine without resuming the suspended frame;
			// finally blocks pending in the body do not run.
			g.done = true
			return v, nil
		},
		ThrowFn: func(reason runtime.Value) (runtime.Value, bool, error) {
			if !g.started || g.done {
				g.done = true
				return nil, true, runtime.Throw(reason)
			}
			return g.step(reason, true)
		},
	}
}
