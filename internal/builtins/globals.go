package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// installCoreGlobals wires the ambient value globals shared by every module.
func (r *Registry) installCoreGlobals() {
	r.globals["NaN"] = runtime.NewNumber(math.NaN())
	r.globals["Infinity"] = runtime.NewNumber(math.Inf(1))
	r.globals["Math"] = mathObject()
	r.globals["JSON"] = r.jsonObject()
	r.globals["Object"] = r.objectNamespace()
	r.globals["Array"] = r.arrayNamespace()
	r.globals["Number"] = r.numberNamespace()
	r.globals["String"] = fn("String", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(runtime.ToStringValue(arg(args, 0))), nil
	})
	r.globals["Boolean"] = fn("Boolean", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBoolean(runtime.Truthy(arg(args, 0))), nil
	})
	r.globals["parseInt"] = fn("parseInt", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return parseIntValue(args), nil
	})
	r.globals["parseFloat"] = fn("parseFloat", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := strings.TrimSpace(runtime.ToStringValue(arg(args, 0)))
		end := 0
		seenDot, seenExp := false, false
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !seenDot && !seenExp {
				seenDot = true
				end++
				continue
			}
			if (c == 'e' || c == 'E') && !seenExp && end > 0 {
				seenExp = true
				end++
				continue
			}
			if (c == '+' || c == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E') {
				end++
				continue
			}
			break
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return runtime.NewNumber(math.NaN()), nil
		}
		return runtime.NewNumber(f), nil
	})
	r.globals["isNaN"] = fn("isNaN", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBoolean(math.IsNaN(runtime.ToNumber(arg(args, 0)))), nil
	})
	r.globals["isFinite"] = fn("isFinite", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := runtime.ToNumber(arg(args, 0))
		return runtime.NewBoolean(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	for _, name := range []string{"Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError"} {
		name := name
		r.globals[name] = fn(name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			msg := ""
			if len(args) > 0 {
				msg = runtime.ToStringValue(args[0])
			}
			return runtime.NewErrorObject(name, msg, ""), nil
		})
	}

	r.globals["Promise"] = r.promiseNamespace()
	r.globals["Map"] = fn("Map", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		m := runtime.NewMap()
		if entries, ok := arg(args, 0).(*runtime.ArrayValue); ok {
			for _, e := range entries.Elements {
				if pair, isPair := e.(*runtime.ArrayValue); isPair && len(pair.Elements) >= 2 {
					m.Set(pair.Elements[0], pair.Elements[1])
				}
			}
		}
		return m, nil
	})
	r.globals["Set"] = fn("Set", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		s := runtime.NewSet()
		if it, ok := runtime.GetIterator(arg(args, 0)); ok {
			vals, err := runtime.IterateAll(it)
			if err != nil {
				return nil, err
			}
			for _, v := range vals {
				s.Add(v)
			}
		}
		return s, nil
	})
	r.globals["globalThis"] = runtime.NewObject()
}

func parseIntValue(args []runtime.Value) runtime.Value {
	s := strings.TrimSpace(runtime.ToStringValue(arg(args, 0)))
	base := 10
	if b := runtime.ToNumber(arg(args, 1)); b != 0 && !math.IsNaN(b) {
		base = int(b)
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if base == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	} else if base == 10 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		base = 16
		s = s[2:]
	}
	end := 0
	for end < len(s) {
		d := digitValue(s[end])
		if d < 0 || d >= base {
			break
		}
		end++
	}
	if end == 0 {
		return runtime.NewNumber(math.NaN())
	}
	v, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return runtime.NewNumber(math.NaN())
	}
	if neg {
		v = -v
	}
	return runtime.NewNumber(float64(v))
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}

// mathObject is the Math namespace table.
func mathObject() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("PI", runtime.NewNumber(math.Pi))
	m.Set("E", runtime.NewNumber(math.E))

	unary := map[string]func(float64) float64{
		"abs": math.Abs, "floor": math.Floor, "ceil": math.Ceil,
		"round": math.Round, "trunc": math.Trunc, "sqrt": math.Sqrt,
		"cbrt": math.Cbrt, "sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
		"log": math.Log, "log2": math.Log2, "log10": math.Log10,
		"exp": math.Exp, "sign": func(v float64) float64 {
			if v > 0 {
				return 1
			}
			if v < 0 {
				return -1
			}
			return v
		},
	}
	for name, f := range unary {
		f := f
		m.Set(name, fn("Math."+name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.NewNumber(f(runtime.ToNumber(arg(args, 0)))), nil
		}))
	}
	m.Set("pow", fn("Math.pow", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(math.Pow(runtime.ToNumber(arg(args, 0)), runtime.ToNumber(arg(args, 1)))), nil
	}))
	m.Set("atan2", fn("Math.atan2", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(math.Atan2(runtime.ToNumber(arg(args, 0)), runtime.ToNumber(arg(args, 1)))), nil
	}))
	m.Set("hypot", fn("Math.hypot", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(math.Hypot(runtime.ToNumber(arg(args, 0)), runtime.ToNumber(arg(args, 1)))), nil
	}))
	m.Set("min", fn("Math.min", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := math.Inf(1)
		for _, a := range args {
			out = math.Min(out, runtime.ToNumber(a))
		}
		return runtime.NewNumber(out), nil
	}))
	m.Set("max", fn("Math.max", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := math.Inf(-1)
		for _, a := range args {
			out = math.Max(out, runtime.ToNumber(a))
		}
		return runtime.NewNumber(out), nil
	}))
	// Math.random is a fixed-seed xorshift generator, so every run sees the
	// same sequence.
	seed := uint64(0x9E3779B97F4A7C15)
	m.Set("random", fn("Math.random", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		return runtime.NewNumber(float64(seed%1_000_000) / 1_000_000), nil
	}))
	return m
}

// objectNamespace is the Object namespace: keys/values/entries/assign/freeze.
func (r *Registry) objectNamespace() *runtime.ObjectValue {
	o := runtime.NewObject()
	o.Set("keys", fn("Object.keys", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := &runtime.ArrayValue{}
		for _, k := range ownKeys(arg(args, 0)) {
			out.Elements = append(out.Elements, runtime.NewString(k))
		}
		return out, nil
	}))
	o.Set("values", fn("Object.values", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := &runtime.ArrayValue{}
		src := arg(args, 0)
		for _, k := range ownKeys(src) {
			v, _ := ownGet(src, k)
			out.Elements = append(out.Elements, v)
		}
		return out, nil
	}))
	o.Set("entries", fn("Object.entries", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		out := &runtime.ArrayValue{}
		src := arg(args, 0)
		for _, k := range ownKeys(src) {
			v, _ := ownGet(src, k)
			out.Elements = append(out.Elements, &runtime.ArrayValue{
				Elements: []runtime.Value{runtime.NewString(k), v},
			})
		}
		return out, nil
	}))
	o.Set("assign", fn("Object.assign", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target, ok := arg(args, 0).(*runtime.ObjectValue)
		if !ok {
			return arg(args, 0), nil
		}
		for _, src := range args[1:] {
			for _, k := range ownKeys(src) {
				v, _ := ownGet(src, k)
				target.Set(k, v)
			}
		}
		return target, nil
	}))
	o.Set("freeze", fn("Object.freeze", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return arg(args, 0), nil
	}))
	return o
}

func ownKeys(v runtime.Value) []string {
	switch o := v.(type) {
	case *runtime.ObjectValue:
		return o.Keys()
	case *runtime.InstanceValue:
		return o.Fields.Keys()
	}
	return nil
}

func ownGet(v runtime.Value, key string) (runtime.Value, bool) {
	switch o := v.(type) {
	case *runtime.ObjectValue:
		return o.GetOwn(key)
	case *runtime.InstanceValue:
		return o.Fields.GetOwn(key)
	}
	return runtime.UNDEFINED, false
}

// arrayNamespace is the Array namespace: isArray and from.
func (r *Registry) arrayNamespace() *runtime.ObjectValue {
	a := runtime.NewObject()
	a.Set("isArray", fn("Array.isArray", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		_, ok := arg(args, 0).(*runtime.ArrayValue)
		return runtime.NewBoolean(ok), nil
	}))
	a.Set("from", fn("Array.from", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		it, ok := runtime.GetIterator(arg(args, 0))
		if !ok {
			return &runtime.ArrayValue{}, nil
		}
		vals, err := runtime.IterateAll(it)
		if err != nil {
			return nil, err
		}
		out := &runtime.ArrayValue{Elements: vals}
		if mapper := arg(args, 1); mapper != runtime.Value(runtime.UNDEFINED) {
			if _, isU := mapper.(*runtime.UndefinedValue); !isU && r.host.Call != nil {
				for i, v := range out.Elements {
					mv, err := r.host.Call(mapper, runtime.UNDEFINED, []runtime.Value{v, runtime.NewNumber(float64(i))})
					if err != nil {
						return nil, err
					}
					out.Elements[i] = mv
				}
			}
		}
		return out, nil
	}))
	a.Set("of", fn("Array.of", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return &runtime.ArrayValue{Elements: append([]runtime.Value{}, args...)}, nil
	}))
	return a
}

// numberNamespace is the Number namespace.
func (r *Registry) numberNamespace() *runtime.ObjectValue {
	n := runtime.NewObject()
	n.Set("MAX_SAFE_INTEGER", runtime.NewNumber(9007199254740991))
	n.Set("MIN_SAFE_INTEGER", runtime.NewNumber(-9007199254740991))
	n.Set("EPSILON", runtime.NewNumber(2.220446049250313e-16))
	n.Set("isInteger", fn("Number.isInteger", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := arg(args, 0).(*runtime.NumberValue)
		return runtime.NewBoolean(ok && num.Value == math.Trunc(num.Value) && !math.IsInf(num.Value, 0)), nil
	}))
	n.Set("isNaN", fn("Number.isNaN", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := arg(args, 0).(*runtime.NumberValue)
		return runtime.NewBoolean(ok && math.IsNaN(num.Value)), nil
	}))
	n.Set("isFinite", fn("Number.isFinite", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		num, ok := arg(args, 0).(*runtime.NumberValue)
		return runtime.NewBoolean(ok && !math.IsNaN(num.Value) && !math.IsInf(num.Value, 0)), nil
	}))
	return n
}

// promiseNamespace is the Promise constructor-and-statics table over the
// shared promise primitive.
func (r *Registry) promiseNamespace() *runtime.ObjectValue {
	p := runtime.NewObject()
	p.Set("resolve", fn("Promise.resolve", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.ResolvedPromise(r.host.Sched, arg(args, 0)), nil
	}))
	p.Set("reject", fn("Promise.reject", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.RejectedPromise(r.host.Sched, arg(args, 0)), nil
	}))
	combinator := func(name string, run func(*runtime.Scheduler, []runtime.Value) *runtime.PromiseValue) {
		p.Set(name, fn("Promise."+name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			list, ok := arg(args, 0).(*runtime.ArrayValue)
			if !ok {
				return nil, hostError("TypeError", "Promise."+name+" expects an array", "")
			}
			return run(r.host.Sched, list.Elements), nil
		}))
	}
	combinator("all", runtime.PromiseAll)
	combinator("allSettled", runtime.PromiseAllSettled)
	combinator("race", runtime.PromiseRace)
	combinator("any", runtime.PromiseAny)
	return p
}

// installTimerGlobals wires setTimeout/setInterval/clearTimeout/
// clearInterval onto the scheduler's macrotask queue.
func (r *Registry) installTimerGlobals() {
	r.globals["setTimeout"] = fn("setTimeout", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb := arg(args, 0)
		delay := runtime.ToNumber(arg(args, 1))
		extra := append([]runtime.Value{}, args[min(2, len(args)):]...)
		id := r.host.Sched.SetTimeout(func() {
			_, _ = r.host.Call(cb, runtime.UNDEFINED, extra)
		}, delay)
		return runtime.NewNumber(float64(id)), nil
	})
	r.globals["setInterval"] = fn("setInterval", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cb := arg(args, 0)
		delay := runtime.ToNumber(arg(args, 1))
		id := r.host.Sched.SetInterval(func() {
			_, _ = r.host.Call(cb, runtime.UNDEFINED, nil)
		}, delay)
		return runtime.NewNumber(float64(id)), nil
	})
	clear := fn("clearTimeout", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		r.host.Sched.ClearTimer(int(runtime.ToNumber(arg(args, 0))))
		return runtime.UNDEFINED, nil
	})
	r.globals["clearTimeout"] = clear
	r.globals["clearInterval"] = clear
}

// timersModule re-exports the timer globals as an importable module.
func (r *Registry) timersModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		m.Set(name, r.globals[name])
	}
	return m
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
