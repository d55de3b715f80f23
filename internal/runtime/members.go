package runtime

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// CallFn invokes a language-level callable. Both execution strategies
// supply their own implementation so the shared member tables can run user
// callbacks (array mappers, promise handlers, comparators).
type CallFn func(fn Value, this Value, args []Value) (Value, error)

// builtinOf wraps a Go closure as a builtin method value.
func builtinOf(name string, f BuiltinFunc) *BuiltinValue {
	return &BuiltinValue{Name: name, Fn: f}
}

func nthArg(args []Value, n int) Value {
	if n < len(args) {
		return args[n]
	}
	return UNDEFINED
}

// IntrinsicMember resolves the built-in members of arrays, strings,
// numbers, maps, sets, iterators, promises and handles. It is the single
// member table shared by the interpreter and the bytecode runtime helpers.
// Returns false when the receiver kind or key has no intrinsic member.
func IntrinsicMember(obj Value, key string, call CallFn, sched *Scheduler) (Value, bool, error) {
	switch o := obj.(type) {
	case *ArrayValue:
		return arrayIntrinsic(o, key, call)
	case *StringValue:
		return stringIntrinsic(o, key)
	case *NumberValue:
		return numberIntrinsic(o, key)
	case *MapValue:
		return mapIntrinsic(o, key, call)
	case *SetValue:
		return setIntrinsic(o, key, call)
	case *IteratorValue:
		return iteratorIntrinsic(o, key)
	case *PromiseValue:
		return promiseIntrinsic(o, key, call, sched)
	case *HandleValue:
		return handleIntrinsic(o, key)
	}
	return nil, false, nil
}

func arrayIntrinsic(arr *ArrayValue, key string, call CallFn) (Value, bool, error) {
	switch key {
	case "length":
		return NewNumber(float64(len(arr.Elements))), true, nil
	case "push":
		return builtinOf("push", func(_ Value, args []Value) (Value, error) {
			arr.Elements = append(arr.Elements, args...)
			return NewNumber(float64(len(arr.Elements))), nil
		}), true, nil
	case "pop":
		return builtinOf("pop", func(_ Value, args []Value) (Value, error) {
			if len(arr.Elements) == 0 {
				return UNDEFINED, nil
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last, nil
		}), true, nil
	case "shift":
		return builtinOf("shift", func(_ Value, args []Value) (Value, error) {
			if len(arr.Elements) == 0 {
				return UNDEFINED, nil
			}
			first := arr.Elements[0]
			arr.Elements = arr.Elements[1:]
			return first, nil
		}), true, nil
	case "unshift":
		return builtinOf("unshift", func(_ Value, args []Value) (Value, error) {
			arr.Elements = append(append([]Value{}, args...), arr.Elements...)
			return NewNumber(float64(len(arr.Elements))), nil
		}), true, nil
	case "slice":
		return builtinOf("slice", func(_ Value, args []Value) (Value, error) {
			start, end := sliceBounds(len(arr.Elements), args)
			out := &ArrayValue{}
			out.Elements = append(out.Elements, arr.Elements[start:end]...)
			return out, nil
		}), true, nil
	case "indexOf":
		return builtinOf("indexOf", func(_ Value, args []Value) (Value, error) {
			for idx, e := range arr.Elements {
				if StrictEquals(e, nthArg(args, 0)) {
					return NewNumber(float64(idx)), nil
				}
			}
			return NewNumber(-1), nil
		}), true, nil
	case "includes":
		return builtinOf("includes", func(_ Value, args []Value) (Value, error) {
			for _, e := range arr.Elements {
				if StrictEquals(e, nthArg(args, 0)) {
					return TRUE, nil
				}
			}
			return FALSE, nil
		}), true, nil
	case "join":
		return builtinOf("join", func(_ Value, args []Value) (Value, error) {
			sep := ","
			if len(args) > 0 {
				sep = ToStringValue(args[0])
			}
			parts := make([]string, len(arr.Elements))
			for idx, e := range arr.Elements {
				parts[idx] = ToStringValue(e)
			}
			return NewString(strings.Join(parts, sep)), nil
		}), true, nil
	case "concat":
		return builtinOf("concat", func(_ Value, args []Value) (Value, error) {
			out := &ArrayValue{}
			out.Elements = append(out.Elements, arr.Elements...)
			for _, a := range args {
				if other, ok := a.(*ArrayValue); ok {
					out.Elements = append(out.Elements, other.Elements...)
				} else {
					out.Elements = append(out.Elements, a)
				}
			}
			return out, nil
		}), true, nil
	case "reverse":
		return builtinOf("reverse", func(_ Value, args []Value) (Value, error) {
			for a, b := 0, len(arr.Elements)-1; a < b; a, b = a+1, b-1 {
				arr.Elements[a], arr.Elements[b] = arr.Elements[b], arr.Elements[a]
			}
			return arr, nil
		}), true, nil
	case "splice":
		return builtinOf("splice", func(_ Value, args []Value) (Value, error) {
			start := normalizeIndex(len(arr.Elements), nthArg(args, 0))
			count := len(arr.Elements) - start
			if len(args) > 1 {
				count = int(ToNumber(args[1]))
			}
			if count < 0 {
				count = 0
			}
			if start+count > len(arr.Elements) {
				count = len(arr.Elements) - start
			}
			removed := &ArrayValue{}
			removed.Elements = append(removed.Elements, arr.Elements[start:start+count]...)
			var inserted []Value
			if len(args) > 2 {
				inserted = args[2:]
			}
			rest := append([]Value{}, arr.Elements[start+count:]...)
			arr.Elements = append(arr.Elements[:start], append(inserted, rest...)...)
			return removed, nil
		}), true, nil
	case "map":
		return builtinOf("map", func(_ Value, args []Value) (Value, error) {
			out := &ArrayValue{}
			for idx, e := range arr.Elements {
				v, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{e, NewNumber(float64(idx)), arr})
				if err != nil {
					return nil, err
				}
				out.Elements = append(out.Elements, v)
			}
			return out, nil
		}), true, nil
	case "filter":
		return builtinOf("filter", func(_ Value, args []Value) (Value, error) {
			out := &ArrayValue{}
			for idx, e := range arr.Elements {
				keep, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{e, NewNumber(float64(idx)), arr})
				if err != nil {
					return nil, err
				}
				if Truthy(keep) {
					out.Elements = append(out.Elements, e)
				}
			}
			return out, nil
		}), true, nil
	case "forEach":
		return builtinOf("forEach", func(_ Value, args []Value) (Value, error) {
			for idx, e := range arr.Elements {
				if _, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{e, NewNumber(float64(idx)), arr}); err != nil {
					return nil, err
				}
			}
			return UNDEFINED, nil
		}), true, nil
	case "reduce":
		return builtinOf("reduce", func(_ Value, args []Value) (Value, error) {
			var acc Value
			start := 0
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(arr.Elements) == 0 {
					return nil, Throw(NewErrorObject("TypeError",
						"reduce of empty array with no initial value", ""))
				}
				acc = arr.Elements[0]
				start = 1
			}
			for idx := start; idx < len(arr.Elements); idx++ {
				v, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{acc, arr.Elements[idx], NewNumber(float64(idx)), arr})
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		}), true, nil
	case "find", "findIndex":
		wantIndex := key == "findIndex"
		return builtinOf(key, func(_ Value, args []Value) (Value, error) {
			for idx, e := range arr.Elements {
				hit, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{e, NewNumber(float64(idx)), arr})
				if err != nil {
					return nil, err
				}
				if Truthy(hit) {
					if wantIndex {
						return NewNumber(float64(idx)), nil
					}
					return e, nil
				}
			}
			if wantIndex {
				return NewNumber(-1), nil
			}
			return UNDEFINED, nil
		}), true, nil
	case "some", "every":
		wantAll := key == "every"
		return builtinOf(key, func(_ Value, args []Value) (Value, error) {
			for idx, e := range arr.Elements {
				hit, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{e, NewNumber(float64(idx)), arr})
				if err != nil {
					return nil, err
				}
				if wantAll && !Truthy(hit) {
					return FALSE, nil
				}
				if !wantAll && Truthy(hit) {
					return TRUE, nil
				}
			}
			return NewBoolean(wantAll), nil
		}), true, nil
	case "sort":
		return builtinOf("sort", func(_ Value, args []Value) (Value, error) {
			var sortErr error
			cmp := nthArg(args, 0)
			sort.SliceStable(arr.Elements, func(a, b int) bool {
				if sortErr != nil {
					return false
				}
				if _, none := cmp.(*UndefinedValue); none {
					return ToStringValue(arr.Elements[a]) < ToStringValue(arr.Elements[b])
				}
				v, err := call(cmp, UNDEFINED, []Value{arr.Elements[a], arr.Elements[b]})
				if err != nil {
					sortErr = err
					return false
				}
				return ToNumber(v) < 0
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return arr, nil
		}), true, nil
	}

	if idx, ok := parseArrayIndex(key); ok {
		if idx >= 0 && idx < len(arr.Elements) {
			return arr.Elements[idx], true, nil
		}
		return UNDEFINED, true, nil
	}
	return nil, false, nil
}

func parseArrayIndex(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	n := 0
	for _, ch := range key {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}

func normalizeIndex(length int, v Value) int {
	idx := int(ToNumber(v))
	if idx < 0 {
		idx += length
	}
	if idx < 0 {
		idx = 0
	}
	if idx > length {
		idx = length
	}
	return idx
}

func sliceBounds(length int, args []Value) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		if _, u := args[0].(*UndefinedValue); !u {
			start = normalizeIndex(length, args[0])
		}
	}
	if len(args) > 1 {
		if _, u := args[1].(*UndefinedValue); !u {
			end = normalizeIndex(length, args[1])
		}
	}
	if end < start {
		end = start
	}
	return start, end
}

func stringIntrinsic(s *StringValue, key string) (Value, bool, error) {
	runes := []rune(s.Value)
	switch key {
	case "length":
		return NewNumber(float64(len(runes))), true, nil
	case "charAt":
		return builtinOf("charAt", func(_ Value, args []Value) (Value, error) {
			idx := int(ToNumber(nthArg(args, 0)))
			if idx < 0 || idx >= len(runes) {
				return NewString(""), nil
			}
			return NewString(string(runes[idx])), nil
		}), true, nil
	case "charCodeAt":
		return builtinOf("charCodeAt", func(_ Value, args []Value) (Value, error) {
			idx := int(ToNumber(nthArg(args, 0)))
			if idx < 0 || idx >= len(runes) {
				return NewNumber(math.NaN()), nil
			}
			return NewNumber(float64(runes[idx])), nil
		}), true, nil
	case "indexOf":
		return builtinOf("indexOf", func(_ Value, args []Value) (Value, error) {
			return NewNumber(float64(strings.Index(s.Value, ToStringValue(nthArg(args, 0))))), nil
		}), true, nil
	case "lastIndexOf":
		return builtinOf("lastIndexOf", func(_ Value, args []Value) (Value, error) {
			return NewNumber(float64(strings.LastIndex(s.Value, ToStringValue(nthArg(args, 0))))), nil
		}), true, nil
	case "includes":
		return builtinOf("includes", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(strings.Contains(s.Value, ToStringValue(nthArg(args, 0)))), nil
		}), true, nil
	case "startsWith":
		return builtinOf("startsWith", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(strings.HasPrefix(s.Value, ToStringValue(nthArg(args, 0)))), nil
		}), true, nil
	case "endsWith":
		return builtinOf("endsWith", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(strings.HasSuffix(s.Value, ToStringValue(nthArg(args, 0)))), nil
		}), true, nil
	case "slice", "substring":
		return builtinOf(key, func(_ Value, args []Value) (Value, error) {
			start, end := sliceBounds(len(runes), args)
			return NewString(string(runes[start:end])), nil
		}), true, nil
	case "toUpperCase":
		return builtinOf("toUpperCase", func(_ Value, args []Value) (Value, error) {
			return NewString(strings.ToUpper(s.Value)), nil
		}), true, nil
	case "toLowerCase":
		return builtinOf("toLowerCase", func(_ Value, args []Value) (Value, error) {
			return NewString(strings.ToLower(s.Value)), nil
		}), true, nil
	case "trim":
		return builtinOf("trim", func(_ Value, args []Value) (Value, error) {
			return NewString(strings.TrimSpace(s.Value)), nil
		}), true, nil
	case "split":
		return builtinOf("split", func(_ Value, args []Value) (Value, error) {
			sep := ToStringValue(nthArg(args, 0))
			out := &ArrayValue{}
			for _, part := range strings.Split(s.Value, sep) {
				out.Elements = append(out.Elements, NewString(part))
			}
			return out, nil
		}), true, nil
	case "repeat":
		return builtinOf("repeat", func(_ Value, args []Value) (Value, error) {
			n := int(ToNumber(nthArg(args, 0)))
			if n < 0 {
				return nil, Throw(NewErrorObject("RangeError", "invalid count value", ""))
			}
			return NewString(strings.Repeat(s.Value, n)), nil
		}), true, nil
	case "padStart", "padEnd":
		atStart := key == "padStart"
		return builtinOf(key, func(_ Value, args []Value) (Value, error) {
			width := int(ToNumber(nthArg(args, 0)))
			pad := " "
			if len(args) > 1 {
				pad = ToStringValue(args[1])
			}
			out := s.Value
			for len([]rune(out)) < width && pad != "" {
				if atStart {
					out = pad + out
				} else {
					out = out + pad
				}
			}
			r := []rune(out)
			if len(r) > width && width >= len(runes) {
				if atStart {
					r = r[len(r)-width:]
				} else {
					r = r[:width]
				}
			}
			return NewString(string(r)), nil
		}), true, nil
	case "replace":
		return builtinOf("replace", func(_ Value, args []Value) (Value, error) {
			from := ToStringValue(nthArg(args, 0))
			to := ToStringValue(nthArg(args, 1))
			return NewString(strings.Replace(s.Value, from, to, 1)), nil
		}), true, nil
	case "concat":
		return builtinOf("concat", func(_ Value, args []Value) (Value, error) {
			out := s.Value
			for _, a := range args {
				out += ToStringValue(a)
			}
			return NewString(out), nil
		}), true, nil
	}

	if idx, ok := parseArrayIndex(key); ok {
		if idx >= 0 && idx < len(runes) {
			return NewString(string(runes[idx])), true, nil
		}
		return UNDEFINED, true, nil
	}
	return nil, false, nil
}

func numberIntrinsic(n *NumberValue, key string) (Value, bool, error) {
	switch key {
	case "toFixed":
		return builtinOf("toFixed", func(_ Value, args []Value) (Value, error) {
			digits := int(ToNumber(nthArg(args, 0)))
			if digits < 0 {
				digits = 0
			}
			return NewString(strconv.FormatFloat(n.Value, 'f', digits, 64)), nil
		}), true, nil
	case "toString":
		return builtinOf("toString", func(_ Value, args []Value) (Value, error) {
			return NewString(n.String()), nil
		}), true, nil
	}
	return nil, false, nil
}

func mapIntrinsic(m *MapValue, key string, call CallFn) (Value, bool, error) {
	switch key {
	case "size":
		return NewNumber(float64(m.Size())), true, nil
	case "get":
		return builtinOf("get", func(_ Value, args []Value) (Value, error) {
			if v, ok := m.Get(nthArg(args, 0)); ok {
				return v, nil
			}
			return UNDEFINED, nil
		}), true, nil
	case "set":
		return builtinOf("set", func(_ Value, args []Value) (Value, error) {
			m.Set(nthArg(args, 0), nthArg(args, 1))
			return m, nil
		}), true, nil
	case "has":
		return builtinOf("has", func(_ Value, args []Value) (Value, error) {
			_, ok := m.Get(nthArg(args, 0))
			return NewBoolean(ok), nil
		}), true, nil
	case "delete":
		return builtinOf("delete", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(m.Delete(nthArg(args, 0))), nil
		}), true, nil
	case "keys":
		return builtinOf("keys", func(_ Value, args []Value) (Value, error) {
			keys, _ := m.Entries()
			it, _ := GetIterator(&ArrayValue{Elements: append([]Value{}, keys...)})
			return it, nil
		}), true, nil
	case "values":
		return builtinOf("values", func(_ Value, args []Value) (Value, error) {
			_, values := m.Entries()
			it, _ := GetIterator(&ArrayValue{Elements: append([]Value{}, values...)})
			return it, nil
		}), true, nil
	case "entries":
		return builtinOf("entries", func(_ Value, args []Value) (Value, error) {
			it, _ := GetIterator(m)
			return it, nil
		}), true, nil
	case "forEach":
		return builtinOf("forEach", func(_ Value, args []Value) (Value, error) {
			keys, values := m.Entries()
			for idx := range keys {
				if _, err := call(nthArg(args, 0), UNDEFINED,
					[]Value{values[idx], keys[idx], m}); err != nil {
					return nil, err
				}
			}
			return UNDEFINED, nil
		}), true, nil
	case "clear":
		return builtinOf("clear", func(_ Value, args []Value) (Value, error) {
			keys, _ := m.Entries()
			for _, k := range append([]Value{}, keys...) {
				m.Delete(k)
			}
			return UNDEFINED, nil
		}), true, nil
	}
	return nil, false, nil
}

func setIntrinsic(s *SetValue, key string, call CallFn) (Value, bool, error) {
	switch key {
	case "size":
		return NewNumber(float64(s.Size())), true, nil
	case "add":
		return builtinOf("add", func(_ Value, args []Value) (Value, error) {
			s.Add(nthArg(args, 0))
			return s, nil
		}), true, nil
	case "has":
		return builtinOf("has", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(s.Has(nthArg(args, 0))), nil
		}), true, nil
	case "delete":
		return builtinOf("delete", func(_ Value, args []Value) (Value, error) {
			return NewBoolean(s.Delete(nthArg(args, 0))), nil
		}), true, nil
	case "forEach":
		return builtinOf("forEach", func(_ Value, args []Value) (Value, error) {
			for _, e := range s.Values() {
				if _, err := call(nthArg(args, 0), UNDEFINED, []Value{e, e, s}); err != nil {
					return nil, err
				}
			}
			return UNDEFINED, nil
		}), true, nil
	case "values", "keys":
		return builtinOf(key, func(_ Value, args []Value) (Value, error) {
			it, _ := GetIterator(s)
			return it, nil
		}), true, nil
	}
	return nil, false, nil
}

func iteratorIntrinsic(it *IteratorValue, key string) (Value, bool, error) {
	switch key {
	case "next":
		return builtinOf("next", func(_ Value, args []Value) (Value, error) {
			v, done, err := it.Next(nthArg(args, 0))
			if err != nil {
				return nil, err
			}
			rec := NewObject()
			rec.Set("value", v)
			rec.Set("done", NewBoolean(done))
			return rec, nil
		}), true, nil
	case "return":
		return builtinOf("return", func(_ Value, args []Value) (Value, error) {
			v := nthArg(args, 0)
			if it.ReturnFn != nil {
				rv, err := it.ReturnFn(v)
				if err != nil {
					return nil, err
				}
				v = rv
			}
			rec := NewObject()
			rec.Set("value", v)
			rec.Set("done", TRUE)
			return rec, nil
		}), true, nil
	case "throw":
		return builtinOf("throw", func(_ Value, args []Value) (Value, error) {
			if it.ThrowFn == nil {
				return nil, Throw(nthArg(args, 0))
			}
			v, done, err := it.ThrowFn(nthArg(args, 0))
			if err != nil {
				return nil, err
			}
			rec := NewObject()
			rec.Set("value", v)
			rec.Set("done", NewBoolean(done))
			return rec, nil
		}), true, nil
	}
	return nil, false, nil
}

func promiseIntrinsic(p *PromiseValue, key string, call CallFn, sched *Scheduler) (Value, bool, error) {
	switch key {
	case "then":
		return builtinOf("then", func(_ Value, args []Value) (Value, error) {
			return PromiseThen(p, sched, call, nthArg(args, 0), nthArg(args, 1)), nil
		}), true, nil
	case "catch":
		return builtinOf("catch", func(_ Value, args []Value) (Value, error) {
			return PromiseThen(p, sched, call, UNDEFINED, nthArg(args, 0)), nil
		}), true, nil
	case "finally":
		return builtinOf("finally", func(_ Value, args []Value) (Value, error) {
			cb := nthArg(args, 0)
			out := NewPromiseValue(sched)
			p.OnSettled(func(state PromiseState, result Value) {
				if _, none := cb.(*UndefinedValue); !none {
					if _, err := call(cb, UNDEFINED, nil); err != nil {
						if thrown, ok := err.(*ThrownError); ok {
							out.Reject(thrown.Value)
							return
						}
					}
				}
				if state == PromiseFulfilled {
					out.Resolve(result)
				} else {
					out.Reject(result)
				}
			})
			return out, nil
		}), true, nil
	}
	return nil, false, nil
}

// PromiseThen chains handlers over a settled or pending promise, returning
// the derived promise.
func PromiseThen(p *PromiseValue, sched *Scheduler, call CallFn, onFulfilled, onRejected Value) *PromiseValue {
	out := NewPromiseValue(sched)
	p.OnSettled(func(state PromiseState, result Value) {
		var handler Value
		if state == PromiseFulfilled {
			handler = onFulfilled
		} else {
			handler = onRejected
		}
		if handler == nil {
			handler = UNDEFINED
		}
		if _, none := handler.(*UndefinedValue); none {
			if state == PromiseFulfilled {
				out.Resolve(result)
			} else {
				out.Reject(result)
			}
			return
		}
		v, err := call(handler, UNDEFINED, []Value{result})
		if err != nil {
			if thrown, ok := err.(*ThrownError); ok {
				out.Reject(thrown.Value)
				return
			}
			out.Reject(NewString(err.Error()))
			return
		}
		out.Resolve(v)
	})
	return out
}

func handleIntrinsic(h *HandleValue, key string) (Value, bool, error) {
	if key == "close" {
		return builtinOf("close", func(_ Value, args []Value) (Value, error) {
			if err := h.Close(); err != nil {
				return nil, Throw(NewErrorObject("Error", err.Error(), "EBADF"))
			}
			return UNDEFINED, nil
		}), true, nil
	}
	return nil, false, nil
}
