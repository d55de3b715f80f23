package interp

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// getMember reads a property from any receiver kind. Objects, instances,
// classes and namespaces resolve here; the intrinsic members of arrays,
// strings, numbers, maps, sets, iterators, promises and handles come from
// the shared runtime member tables.
func (i *Interpreter) getMember(obj runtime.Value, key string, env *runtime.Environment) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.NullValue, *runtime.UndefinedValue:
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"cannot read properties of "+obj.String()+" (reading '"+key+"')", ""))
	case *runtime.ObjectValue:
		if v, ok := o.Get(key); ok {
			if fn, isFn := v.(*runtime.FunctionValue); isFn && !fn.HasThis {
				return fn.Bind(o), nil
			}
			return v, nil
		}
		return runtime.UNDEFINED, nil
	case *runtime.InstanceValue:
		return i.instanceMember(o, key)
	case *runtime.ClassValue:
		if v, ok := o.Statics.Get(key); ok {
			if fn, isFn := v.(*runtime.FunctionValue); isFn && !fn.HasThis {
				return fn.Bind(o), nil
			}
			return v, nil
		}
		if o.Super != nil {
			return i.getMember(o.Super, key, env)
		}
		if key == "name" {
			return runtime.NewString(o.Name), nil
		}
		return runtime.UNDEFINED, nil
	case *runtime.NamespaceValue:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
		return runtime.UNDEFINED, nil
	}

	v, found, err := runtime.IntrinsicMember(obj, key, i.callValue, i.Sched)
	if err != nil {
		return nil, err
	}
	if found {
		return v, nil
	}
	return runtime.UNDEFINED, nil
}

// instanceMember resolves fields, accessors and methods of an instance.
func (i *Interpreter) instanceMember(o *runtime.InstanceValue, key string) (runtime.Value, error) {
	if acc, ok := o.Class.LookupAccessor(key); ok && acc.Getter != nil {
		return i.applyFunction(acc.Getter, o, nil)
	}
	if v, ok := o.Fields.Get(key); ok {
		if fn, isFn := v.(*runtime.FunctionValue); isFn && !fn.HasThis {
			return fn.Bind(o), nil
		}
		return v, nil
	}
	if m, _, ok := o.Class.LookupMethod(key); ok {
		return m.Bind(o), nil
	}
	return runtime.UNDEFINED, nil
}

// evalSuperMember resolves super.m against the superclass of the method's
// defining class, bound to the current receiver.
func (i *Interpreter) evalSuperMember(e *ast.MemberExpression, env *runtime.Environment) (runtime.Value, error) {
	this, _ := env.Get("this")
	superV, ok := env.Get("__super__")
	if !ok {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' outside of a method", ""))
	}
	super := superV.(*runtime.ClassValue)

	key, err := i.memberKey(e, env)
	if err != nil {
		return nil, err
	}
	if acc, ok := super.LookupAccessor(key); ok && acc.Getter != nil {
		return i.applyFunction(acc.Getter, this, nil)
	}
	if m, _, ok := super.LookupMethod(key); ok {
		return m.Bind(this), nil
	}
	return runtime.UNDEFINED, nil
}

// evalCall evaluates a call expression, including super(...) constructor
// calls and optional calls.
func (i *Interpreter) evalCall(e *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	if _, isSuper := e.Callee.(*ast.SuperExpression); isSuper {
		return i.evalSuperCall(e, env)
	}

	callee, err := i.eval(e.Callee, env)
	if err != nil {
		return nil, err
	}
	if e.Optional && isNullish(callee) {
		return runtime.UNDEFINED, nil
	}

	args, err := i.evalArguments(e.Arguments, env)
	if err != nil {
		return nil, err
	}
	return i.callValue(callee, runtime.UNDEFINED, args)
}

// evalArguments evaluates an argument list, expanding spreads.
func (i *Interpreter) evalArguments(exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	var args []runtime.Value
	for _, a := range exprs {
		if spread, ok := a.(*ast.SpreadElement); ok {
			v, err := i.eval(spread.Argument, env)
			if err != nil {
				return nil, err
			}
			it, iterable := runtime.GetIterator(v)
			if !iterable {
				return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
					"spread target is not iterable", ""))
			}
			vals, err := runtime.IterateAll(it)
			if err != nil {
				return nil, err
			}
			args = append(args, vals...)
			continue
		}
		v, err := i.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// callValue dispatches a call over callable value kinds. A plain call binds
// `this` to undefined (strict flavor); dot calls pre-bind the receiver.
func (i *Interpreter) callValue(callee, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		if fn.HasThis {
			this = fn.BoundThis
		}
		return i.applyFunction(fn, this, args)
	case *runtime.BuiltinValue:
		return fn.Fn(this, args)
	case *runtime.ClassValue:
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"class constructor "+fn.Name+" cannot be invoked without 'new'", ""))
	}
	return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
		runtime.Display(callee)+" is not a function", ""))
}

// applyFunction runs a user function: a new environment extends the
// captured one, parameters bind with defaults and rest collection, and the
// body executes until a return unwinds.
func (i *Interpreter) applyFunction(fn *runtime.FunctionValue, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if i.depth >= MaxCallDepth {
		return nil, runtime.Throw(runtime.NewErrorObject("RangeError",
			"maximum call stack size exceeded", ""))
	}

	if fn.IsAsync {
		return i.callAsync(fn, this, args), nil
	}
	if fn.IsGenerator {
		return i.callGenerator(fn, this, args), nil
	}

	env, err := i.bindCallEnvironment(fn, this, args)
	if err != nil {
		return nil, err
	}

	i.depth++
	defer func() { i.depth-- }()

	if fn.Body == nil && fn.ExprBody != nil {
		return i.eval(fn.ExprBody, env)
	}
	if fn.Body == nil {
		return runtime.UNDEFINED, nil
	}

	err = i.execBlock(fn.Body, env)
	switch sig := err.(type) {
	case nil:
		return runtime.UNDEFINED, nil
	case *returnSignal:
		return sig.value, nil
	default:
		return nil, err
	}
}

// bindCallEnvironment creates the call scope: parameters with defaults and
// rest, plus `this` for non-arrow functions.
func (i *Interpreter) bindCallEnvironment(fn *runtime.FunctionValue, this runtime.Value, args []runtime.Value) (*runtime.Environment, error) {
	env := runtime.NewFunctionEnvironment(fn.Env)

	if !fn.IsArrow {
		if this == nil {
			this = runtime.UNDEFINED
		}
		env.DefineConst("this", this)
	}

	for idx, p := range fn.Params {
		if p.Rest {
			rest := &runtime.ArrayValue{}
			if idx < len(args) {
				rest.Elements = append(rest.Elements, args[idx:]...)
			}
			env.Define(p.Name.Value, rest)
			break
		}
		var v runtime.Value = runtime.UNDEFINED
		if idx < len(args) {
			v = args[idx]
		}
		if _, absent := v.(*runtime.UndefinedValue); absent && p.Default != nil {
			dv, err := i.eval(p.Default, env)
			if err != nil {
				return nil, err
			}
			v = dv
		}
		env.Define(p.Name.Value, v)
	}
	return env, nil
}

// evalNew constructs a class instance.
func (i *Interpreter) evalNew(e *ast.NewExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.eval(e.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evalArguments(e.Arguments, env)
	if err != nil {
		return nil, err
	}

	switch c := callee.(type) {
	case *runtime.ClassValue:
		return i.construct(c, args)
	case *runtime.BuiltinValue:
		// Built-in constructors (Error, Map, Set, ...) construct via call.
		return c.Fn(runtime.UNDEFINED, args)
	}
	return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
		runtime.Display(callee)+" is not a constructor", ""))
}
