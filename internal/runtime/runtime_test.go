package runtime

import (
	"math"
	"testing"
)

func TestTruthy(t *testing.T) {
	truthy := []Value{NewNumber(1), NewString("x"), TRUE, &ArrayValue{}, NewObject()}
	falsy := []Value{NewNumber(0), NewNumber(math.NaN()), NewString(""), FALSE, NULL, UNDEFINED}

	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("%s must be truthy", Display(v))
		}
	}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("%s must be falsy", Display(v))
		}
	}
}

func TestTypeofString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewNumber(1), "number"},
		{NewString("s"), "string"},
		{TRUE, "boolean"},
		{UNDEFINED, "undefined"},
		{NULL, "object"},
		{&FunctionValue{}, "function"},
		{&ArrayValue{}, "object"},
		{NewObject(), "object"},
	}
	for _, tt := range tests {
		if got := TypeofString(tt.v); got != tt.want {
			t.Errorf("typeof %s = %q, want %q", Display(tt.v), got, tt.want)
		}
	}
}

func TestStrictEquals(t *testing.T) {
	if !StrictEquals(NewNumber(1), NewNumber(1)) {
		t.Error("1 === 1")
	}
	if StrictEquals(NewNumber(1), NewString("1")) {
		t.Error("1 === '1' must be false")
	}
	obj := NewObject()
	if !StrictEquals(obj, obj) {
		t.Error("object identity")
	}
	if StrictEquals(NewObject(), NewObject()) {
		t.Error("distinct objects must differ")
	}
}

func TestLooseEqualsCoercionTable(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NULL, UNDEFINED, true},
		{NULL, NewNumber(0), false},
		{UNDEFINED, NewNumber(0), false},
		{NewNumber(1), NewString("1"), true},
		{NewNumber(1), NewString("2"), false},
		{TRUE, NewNumber(1), true},
		{FALSE, NewNumber(0), true},
		{TRUE, NewString("1"), true},
		{NewString(""), NewNumber(0), true},
	}
	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("%s == %s = %v, want %v", Display(tt.a), Display(tt.b), got, tt.want)
		}
	}
}

func TestAddStringCoercion(t *testing.T) {
	if got := Add(NewNumber(1), NewNumber(2)); got.(*NumberValue).Value != 3 {
		t.Error("1 + 2 must be 3")
	}
	if got := Add(NewString("a"), NewNumber(1)); got.(*StringValue).Value != "a1" {
		t.Error("'a' + 1 must be 'a1'")
	}
	if got := Add(NewNumber(1), NewString("a")); got.(*StringValue).Value != "1a" {
		t.Error("1 + 'a' must be '1a'")
	}
}

func TestNumberFormatting(t *testing.T) {
	if got := NewNumber(3).String(); got != "3" {
		t.Errorf("3 prints %q", got)
	}
	if got := NewNumber(3.5).String(); got != "3.5" {
		t.Errorf("3.5 prints %q", got)
	}
	if got := NewNumber(math.NaN()).String(); got != "NaN" {
		t.Errorf("NaN prints %q", got)
	}
}

func TestObjectInsertionOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("b", NewNumber(1))
	obj.Set("a", NewNumber(2))
	obj.Set("b", NewNumber(3)) // overwrite keeps position

	keys := obj.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("keys = %v, want [b a]", keys)
	}

	obj.Delete("b")
	if obj.Len() != 1 || obj.Keys()[0] != "a" {
		t.Errorf("after delete: %v", obj.Keys())
	}
}

func TestEnvironmentScoping(t *testing.T) {
	global := NewEnvironment()
	global.Define("x", NewNumber(1))

	block := NewEnclosedEnvironment(global)
	block.Define("y", NewNumber(2))

	if v, ok := block.Get("x"); !ok || v.(*NumberValue).Value != 1 {
		t.Error("outer binding must be visible")
	}
	if _, ok := global.Get("y"); ok {
		t.Error("inner binding must not leak out")
	}
}

func TestVarHoistsToFunctionScope(t *testing.T) {
	fn := NewFunctionEnvironment(NewEnvironment())
	block := NewEnclosedEnvironment(NewEnclosedEnvironment(fn))

	block.DefineVar("v", NewNumber(42))
	if _, ok := fn.store["v"]; !ok {
		t.Error("var must hoist to the function scope")
	}
}

func TestConstRejectsWrites(t *testing.T) {
	env := NewEnvironment()
	env.DefineConst("c", NewNumber(1))
	if err := env.Set("c", NewNumber(2)); err == nil {
		t.Error("const assignment must error")
	}
}

func TestCellReadsBeforeInitialization(t *testing.T) {
	cell := NewCell()
	env := NewEnvironment()
	env.DefineCell("imported", cell)

	// A cyclic import reads undefined before the exporter's body runs.
	if v, _ := env.Get("imported"); v != UNDEFINED {
		t.Errorf("pre-init cell read = %s, want undefined", Display(v))
	}
	cell.Set(NewNumber(7))
	if v, _ := env.Get("imported"); v.(*NumberValue).Value != 7 {
		t.Error("post-init cell read must see the final value")
	}
}

func TestPromiseTransitionsAreOneWay(t *testing.T) {
	s := NewScheduler()
	p := NewPromiseValue(s)

	p.Resolve(NewNumber(1))
	p.Reject(NewString("late"))
	p.Resolve(NewNumber(2))

	if p.State != PromiseFulfilled {
		t.Errorf("state = %v, want fulfilled", p.State)
	}
	if p.Result.(*NumberValue).Value != 1 {
		t.Error("first settle must win")
	}
}

func TestPromiseResolveAdoptsInner(t *testing.T) {
	s := NewScheduler()
	inner := NewPromiseValue(s)
	outer := NewPromiseValue(s)

	outer.Resolve(inner)
	if outer.State != PromisePending {
		t.Fatal("outer must stay pending until inner settles")
	}
	inner.Resolve(NewNumber(5))
	s.RunToCompletion()

	if outer.State != PromiseFulfilled || outer.Result.(*NumberValue).Value != 5 {
		t.Errorf("outer = %s", outer.String())
	}
}

func TestMicrotasksDrainBeforeTimers(t *testing.T) {
	s := NewScheduler()
	var order []string

	s.SetTimeout(func() { order = append(order, "timer") }, 0)
	p := ResolvedPromise(s, NewNumber(1))
	p.OnSettled(func(PromiseState, Value) { order = append(order, "micro") })

	s.RunToCompletion()

	if len(order) != 2 || order[0] != "micro" || order[1] != "timer" {
		t.Errorf("order = %v, want [micro timer]", order)
	}
}

func TestTimerOrderingAndTombstones(t *testing.T) {
	s := NewScheduler()
	var order []string

	s.SetTimeout(func() { order = append(order, "b") }, 10)
	a := s.SetTimeout(func() { order = append(order, "a") }, 5)
	s.SetTimeout(func() { order = append(order, "c") }, 10)
	cancelled := s.SetTimeout(func() { order = append(order, "x") }, 1)

	s.ClearTimer(cancelled)
	_ = a
	s.RunToCompletion()

	want := []string{"a", "b", "c"}
	if len(order) != 3 {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestIntervalReArmsUntilCleared(t *testing.T) {
	s := NewScheduler()
	count := 0
	var id int
	id = s.SetInterval(func() {
		count++
		if count == 3 {
			s.ClearTimer(id)
		}
	}, 1)

	s.RunToCompletion()
	if count != 3 {
		t.Errorf("interval ran %d times, want 3", count)
	}
}

func TestPromiseAll(t *testing.T) {
	s := NewScheduler()
	a := ResolvedPromise(s, NewNumber(1))
	b := ResolvedPromise(s, NewNumber(2))

	all := PromiseAll(s, []Value{a, b, NewNumber(3)})
	s.RunToCompletion()

	if all.State != PromiseFulfilled {
		t.Fatalf("state = %v", all.State)
	}
	arr := all.Result.(*ArrayValue)
	if len(arr.Elements) != 3 || arr.Elements[2].(*NumberValue).Value != 3 {
		t.Errorf("result = %s", arr.String())
	}
}

func TestPromiseAllRejectsOnFirstFailure(t *testing.T) {
	s := NewScheduler()
	all := PromiseAll(s, []Value{
		ResolvedPromise(s, NewNumber(1)),
		RejectedPromise(s, NewString("boom")),
	})
	s.RunToCompletion()

	if all.State != PromiseRejected || all.Result.(*StringValue).Value != "boom" {
		t.Errorf("all = %s", all.String())
	}
}

func TestPromiseRaceAndAny(t *testing.T) {
	s := NewScheduler()

	race := PromiseRace(s, []Value{
		RejectedPromise(s, NewString("first")),
		ResolvedPromise(s, NewNumber(2)),
	})
	s.RunToCompletion()
	if race.State != PromiseRejected {
		t.Error("race must settle with the first settlement")
	}

	anyP := PromiseAny(s, []Value{
		RejectedPromise(s, NewString("e1")),
		ResolvedPromise(s, NewNumber(7)),
	})
	s.RunToCompletion()
	if anyP.State != PromiseFulfilled || anyP.Result.(*NumberValue).Value != 7 {
		t.Errorf("any = %s", anyP.String())
	}
}

func TestPromiseAllSettled(t *testing.T) {
	s := NewScheduler()
	settled := PromiseAllSettled(s, []Value{
		ResolvedPromise(s, NewNumber(1)),
		RejectedPromise(s, NewString("no")),
	})
	s.RunToCompletion()

	arr := settled.Result.(*ArrayValue)
	first := arr.Elements[0].(*ObjectValue)
	second := arr.Elements[1].(*ObjectValue)
	if v, _ := first.Get("status"); v.(*StringValue).Value != "fulfilled" {
		t.Error("first record must be fulfilled")
	}
	if v, _ := second.Get("status"); v.(*StringValue).Value != "rejected" {
		t.Error("second record must be rejected")
	}
}

func TestUnhandledRejectionReported(t *testing.T) {
	s := NewScheduler()
	var reported Value
	s.OnUnhandledRejection = func(reason Value) { reported = reason }

	RejectedPromise(s, NewString("lost"))
	s.RunToCompletion()

	if reported == nil || reported.(*StringValue).Value != "lost" {
		t.Errorf("unhandled rejection not reported: %v", reported)
	}
}

func TestHandledRejectionNotReported(t *testing.T) {
	s := NewScheduler()
	reported := false
	s.OnUnhandledRejection = func(Value) { reported = true }

	p := RejectedPromise(s, NewString("caught"))
	p.OnSettled(func(PromiseState, Value) {})
	s.RunToCompletion()

	if reported {
		t.Error("handled rejection must not be reported")
	}
}

func TestIteratorProtocol(t *testing.T) {
	arr := &ArrayValue{Elements: []Value{NewNumber(1), NewNumber(2)}}
	it, ok := GetIterator(arr)
	if !ok {
		t.Fatal("arrays are iterable")
	}
	got, err := IterateAll(it)
	if err != nil || len(got) != 2 {
		t.Fatalf("array iteration = %v, %v", got, err)
	}

	strIt, _ := GetIterator(NewString("ab"))
	units, _ := IterateAll(strIt)
	if len(units) != 2 || units[0].(*StringValue).Value != "a" {
		t.Errorf("string iteration = %v", units)
	}

	m := NewMap()
	m.Set(NewString("k"), NewNumber(1))
	mIt, _ := GetIterator(m)
	entries, _ := IterateAll(mIt)
	if len(entries) != 1 {
		t.Fatal("map iteration must yield entries")
	}
	entry := entries[0].(*ArrayValue)
	if entry.Elements[0].(*StringValue).Value != "k" {
		t.Error("map entry must be [key, value]")
	}

	set := NewSet()
	set.Add(NewNumber(1))
	set.Add(NewNumber(1))
	sIt, _ := GetIterator(set)
	vals, _ := IterateAll(sIt)
	if len(vals) != 1 {
		t.Error("set iteration must yield deduplicated values")
	}

	if _, ok := GetIterator(NewNumber(1)); ok {
		t.Error("numbers are not iterable")
	}
}

func TestHandleClosesExactlyOnce(t *testing.T) {
	closes := 0
	h := NewHandle("file", nil, func() error { closes++; return nil })

	if err := h.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := h.Close(); err == nil {
		t.Fatal("second close must error")
	}
	if closes != 1 {
		t.Errorf("close ran %d times, want 1", closes)
	}
}
