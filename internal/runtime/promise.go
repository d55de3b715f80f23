package runtime

// PromiseState enumerates the three promise states. Transitions are one-way
// and idempotent: the first settle wins, later calls are ignored.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

func (s PromiseState) String() string {
	switch s {
	case PromiseFulfilled:
		return "fulfilled"
	case PromiseRejected:
		return "rejected"
	}
	return "pending"
}

// PromiseValue is the three-state cell with a continuation list shared by
// both execution strategies. Continuations run as microtasks.
type PromiseValue struct {
	State     PromiseState
	Result    Value
	sched     *Scheduler
	callbacks []func(PromiseState, Value)
	handled   bool
}

// NewPromiseValue creates a pending promise on the given scheduler.
func NewPromiseValue(sched *Scheduler) *PromiseValue {
	return &PromiseValue{sched: sched}
}

func (p *PromiseValue) Type() string { return "PROMISE" }
func (p *PromiseValue) String() string {
	switch p.State {
	case PromiseFulfilled:
		return "Promise { " + Display(p.Result) + " }"
	case PromiseRejected:
		return "Promise { <rejected> " + Display(p.Result) + " }"
	}
	return "Promise { <pending> }"
}

// Resolve fulfills the promise. Resolving with another promise adopts its
// eventual state instead of fulfilling with the promise object.
func (p *PromiseValue) Resolve(v Value) {
	if p.State != PromisePending {
		return
	}
	if inner, ok := v.(*PromiseValue); ok {
		inner.OnSettled(func(state PromiseState, result Value) {
			if state == PromiseFulfilled {
				p.Resolve(result)
			} else {
				p.Reject(result)
			}
		})
		return
	}
	p.settle(PromiseFulfilled, v)
}

// Reject rejects the promise.
func (p *PromiseValue) Reject(reason Value) {
	if p.State != PromisePending {
		return
	}
	p.settle(PromiseRejected, reason)
}

func (p *PromiseValue) settle(state PromiseState, result Value) {
	p.State = state
	p.Result = result
	callbacks := p.callbacks
	p.callbacks = nil
	for _, cb := range callbacks {
		cb := cb
		p.sched.EnqueueMicrotask(func() { cb(state, result) })
	}
	if state == PromiseRejected && len(callbacks) == 0 && !p.handled {
		// Report only if no handler is attached by the time this
		// microtask runs.
		p.sched.EnqueueMicrotask(func() {
			if !p.handled && p.sched.OnUnhandledRejection != nil {
				p.sched.OnUnhandledRejection(p.Result)
			}
		})
	}
}

// OnSettled registers a continuation. Settled promises schedule it as a
// microtask immediately; pending promises run it on settlement.
func (p *PromiseValue) OnSettled(cb func(PromiseState, Value)) {
	p.handled = true
	if p.State != PromisePending {
		state, result := p.State, p.Result
		p.sched.EnqueueMicrotask(func() { cb(state, result) })
		return
	}
	p.callbacks = append(p.callbacks, cb)
}

// ResolvedPromise returns a promise already fulfilled with v.
func ResolvedPromise(sched *Scheduler, v Value) *PromiseValue {
	p := NewPromiseValue(sched)
	p.Resolve(v)
	return p
}

// RejectedPromise returns a promise already rejected with reason.
func RejectedPromise(sched *Scheduler, reason Value) *PromiseValue {
	p := NewPromiseValue(sched)
	p.Reject(reason)
	return p
}

// toPromise adopts plain values into resolved promises for the combinators.
func toPromise(sched *Scheduler, v Value) *PromiseValue {
	if p, ok := v.(*PromiseValue); ok {
		return p
	}
	return ResolvedPromise(sched, v)
}

// PromiseAll fulfills with an array of results in input order, or rejects
// with the first rejection.
func PromiseAll(sched *Scheduler, values []Value) *PromiseValue {
	out := NewPromiseValue(sched)
	n := len(values)
	if n == 0 {
		out.Resolve(&ArrayValue{})
		return out
	}
	results := make([]Value, n)
	remaining := n
	for i, v := range values {
		i := i
		toPromise(sched, v).OnSettled(func(state PromiseState, result Value) {
			if state == PromiseRejected {
				out.Reject(result)
				return
			}
			results[i] = result
			remaining--
			if remaining == 0 {
				out.Resolve(&ArrayValue{Elements: results})
			}
		})
	}
	return out
}

// PromiseAllSettled fulfills with {status, value|reason} records for every
// input, never rejecting.
func PromiseAllSettled(sched *Scheduler, values []Value) *PromiseValue {
	out := NewPromiseValue(sched)
	n := len(values)
	if n == 0 {
		out.Resolve(&ArrayValue{})
		return out
	}
	results := make([]Value, n)
	remaining := n
	for i, v := range values {
		i := i
		toPromise(sched, v).OnSettled(func(state PromiseState, result Value) {
			rec := NewObject()
			if state == PromiseFulfilled {
				rec.Set("status", NewString("fulfilled"))
				rec.Set("value", result)
			} else {
				rec.Set("status", NewString("rejected"))
				rec.Set("reason", result)
			}
			results[i] = rec
			remaining--
			if remaining == 0 {
				out.Resolve(&ArrayValue{Elements: results})
			}
		})
	}
	return out
}

// PromiseRace settles with the first input to settle, either way.
func PromiseRace(sched *Scheduler, values []Value) *PromiseValue {
	out := NewPromiseValue(sched)
	for _, v := range values {
		toPromise(sched, v).OnSettled(func(state PromiseState, result Value) {
			if state == PromiseFulfilled {
				out.Resolve(result)
			} else {
				out.Reject(result)
			}
		})
	}
	return out
}

// PromiseAny fulfills with the first fulfillment, or rejects with an
// AggregateError-shaped object when every input rejects.
func PromiseAny(sched *Scheduler, values []Value) *PromiseValue {
	out := NewPromiseValue(sched)
	n := len(values)
	if n == 0 {
		out.Reject(NewErrorObject("AggregateError", "all promises were rejected", ""))
		return out
	}
	errs := make([]Value, n)
	remaining := n
	for i, v := range values {
		i := i
		toPromise(sched, v).OnSettled(func(state PromiseState, result Value) {
			if state == PromiseFulfilled {
				out.Resolve(result)
				return
			}
			errs[i] = result
			remaining--
			if remaining == 0 {
				agg := NewErrorObject("AggregateError", "all promises were rejected", "")
				agg.Set("errors", &ArrayValue{Elements: errs})
				out.Reject(agg)
			}
		})
	}
	return out
}
