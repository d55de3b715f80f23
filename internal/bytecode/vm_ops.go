package bytecode

import (
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// getMember reads a property over VM value kinds, delegating the intrinsic
// member tables (arrays, strings, promises, maps, sets, iterators,
// handles) to the shared runtime helpers.
func (vm *VM) getMember(obj runtime.Value, key string) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.NullValue, *runtime.UndefinedValue:
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"cannot read properties of "+obj.String()+" (reading '"+key+"')", ""))
	case *runtime.ObjectValue:
		if v, ok := o.Get(key); ok {
			if cl, isCl := v.(*Closure); isCl && !cl.HasThis {
				return cl.Bind(o), nil
			}
			return v, nil
		}
		return runtime.UNDEFINED, nil
	case *Instance:
		if g, ok := o.Class.lookupGetter(key); ok {
			return vm.applyClosure(g, o, nil)
		}
		if v, ok := o.Fields.Get(key); ok {
			if cl, isCl := v.(*Closure); isCl && !cl.HasThis {
				return cl.Bind(o), nil
			}
			return v, nil
		}
		if m, ok := o.Class.lookupMethod(key); ok {
			return m.Bind(o), nil
		}
		return runtime.UNDEFINED, nil
	case *Class:
		for cls := o; cls != nil; cls = cls.Super {
			if v, ok := cls.Statics.Get(key); ok {
				if cl, isCl := v.(*Closure); isCl && !cl.HasThis {
					return cl.Bind(o), nil
				}
				return v, nil
			}
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

	v, found, err := runtime.IntrinsicMember(obj, key, vm.CallValue, vm.Sched)
	if err != nil {
		return nil, err
	}
	if found {
		return v, nil
	}
	return runtime.UNDEFINED, nil
}

// setMember writes a property, honoring setters and readonly fields.
func (vm *VM) setMember(obj runtime.Value, key string, value runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		o.Set(key, value)
		return nil
	case *runtime.ArrayValue:
		if idx, ok := arrayIndexOf(key); ok {
			for len(o.Elements) <= idx {
				o.Elements = append(o.Elements, runtime.UNDEFINED)
			}
			o.Elements[idx] = value
			return nil
		}
		return nil
	case *Instance:
		if s, ok := o.Class.lookupSetter(key); ok {
			_, err := vm.applyClosure(s, o, []runtime.Value{value})
			return err
		}
		if o.Class.Readonly[key] {
			if _, initialized := o.Fields.GetOwn(key); initialized {
				return runtime.Throw(runtime.NewErrorObject("TypeError",
					"cannot assign to read-only property "+key, ""))
			}
		}
		o.Fields.Set(key, value)
		return nil
	case *Class:
		o.Statics.Set(key, value)
		return nil
	}
	return runtime.Throw(runtime.NewErrorObject("TypeError",
		"cannot set property "+key+" on "+vm.typeofString(obj), ""))
}

func arrayIndexOf(key string) (int, bool) {
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

// getSuperMember resolves super.name: the superclass method or accessor
// bound to the current receiver.
func (vm *VM) getSuperMember(f *frame, name string) (runtime.Value, error) {
	this, _ := f.env.Get("this")
	superV, ok := f.env.Get("__super__")
	if !ok {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' outside of a method", ""))
	}
	super := superV.(*Class)

	if g, ok := super.lookupGetter(name); ok {
		return vm.applyClosure(g, this, nil)
	}
	if m, ok := super.lookupMethod(name); ok {
		return m.Bind(this), nil
	}
	return runtime.UNDEFINED, nil
}

func (vm *VM) deleteMember(obj runtime.Value, key string) runtime.Value {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		return runtime.NewBoolean(o.Delete(key))
	case *Instance:
		return runtime.NewBoolean(o.Fields.Delete(key))
	}
	return runtime.TRUE
}

// binary evaluates a binary operator; instanceof and in see the VM's class
// model, everything else delegates to the shared numeric/coercion helpers.
func (vm *VM) binary(op string, a, b runtime.Value) (runtime.Value, error) {
	switch op {
	case "instanceof":
		cls, ok := b.(*Class)
		if !ok {
			return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
				"right-hand side of 'instanceof' is not a class", ""))
		}
		inst, ok := a.(*Instance)
		if !ok {
			return runtime.FALSE, nil
		}
		return runtime.NewBoolean(inst.Class.DerivesFrom(cls)), nil
	case "in":
		key := runtime.ToStringValue(a)
		switch o := b.(type) {
		case *runtime.ObjectValue:
			_, found := o.Get(key)
			return runtime.NewBoolean(found), nil
		case *Instance:
			_, found := o.Fields.Get(key)
			if !found {
				_, found = o.Class.lookupMethod(key)
			}
			return runtime.NewBoolean(found), nil
		case *runtime.ArrayValue:
			idx := int(runtime.ToNumber(a))
			return runtime.NewBoolean(idx >= 0 && idx < len(o.Elements)), nil
		}
		return runtime.FALSE, nil
	}
	return runtime.BinaryNumeric(op, a, b), nil
}

func (vm *VM) unary(op string, a runtime.Value) runtime.Value {
	switch op {
	case "-":
		return runtime.NewNumber(-runtime.ToNumber(a))
	case "+":
		return runtime.NewNumber(runtime.ToNumber(a))
	case "!":
		return runtime.NewBoolean(!runtime.Truthy(a))
	case "~":
		return runtime.NewNumber(float64(^runtime.ToInt32(runtime.ToNumber(a))))
	case "typeof":
		return runtime.NewString(vm.typeofString(a))
	case "void":
		return runtime.UNDEFINED
	}
	return runtime.UNDEFINED
}

// typeofString extends the shared typeof table with the VM's own callable
// and class kinds.
func (vm *VM) typeofString(v runtime.Value) string {
	switch v.(type) {
	case *Closure, *Class:
		return "function"
	}
	return runtime.TypeofString(v)
}

// enumerableKeys lists for-in keys: own fields for instances, insertion
// order throughout.
func (vm *VM) enumerableKeys(v runtime.Value) *runtime.ArrayValue {
	out := &runtime.ArrayValue{}
	switch o := v.(type) {
	case *runtime.ObjectValue:
		for _, k := range o.Keys() {
			out.Elements = append(out.Elements, runtime.NewString(k))
		}
	case *Instance:
		for _, k := range o.Fields.Keys() {
			out.Elements = append(out.Elements, runtime.NewString(k))
		}
	case *runtime.ArrayValue:
		for idx := range o.Elements {
			out.Elements = append(out.Elements, runtime.NewString(runtime.NewNumber(float64(idx)).String()))
		}
	}
	return out
}

// materializeClass instantiates a ClassDef into a class object. Methods
// close over a class environment carrying __super__ so super dispatch works.
func (vm *VM) materializeClass(f *frame, defIdx int, super *Class) (*Class, error) {
	lm := vm.moduleOfFrame(f)
	def := lm.mod.Classes[defIdx]

	classEnv := runtime.NewEnclosedEnvironment(f.env)
	cls := &Class{
		Name:     def.Name,
		Super:    super,
		Methods:  make(map[string]*Closure),
		Getters:  make(map[string]*Closure),
		Setters:  make(map[string]*Closure),
		Statics:  runtime.NewObject(),
		FieldEnv: classEnv,
		InitFns:  make(map[string]*Closure),
		Readonly: make(map[string]bool),
		Abstract: def.Abstract,
	}
	if super != nil {
		classEnv.DefineConst("__super__", super)
	}

	for _, field := range def.Fields {
		if field.Static {
			var v runtime.Value = runtime.UNDEFINED
			if field.InitFn >= 0 {
				thunk := &Closure{Fn: lm.mod.Functions[field.InitFn], Env: classEnv}
				value, err := vm.applyClosure(thunk, runtime.UNDEFINED, nil)
				if err != nil {
					return nil, err
				}
				v = value
			}
			cls.Statics.Set(field.Name, v)
			continue
		}
		cls.Fields = append(cls.Fields, field)
		if field.InitFn >= 0 {
			cls.InitFns[field.Name] = &Closure{Fn: lm.mod.Functions[field.InitFn], Env: classEnv}
		}
		if field.Readonly {
			cls.Readonly[field.Name] = true
		}
	}

	for _, m := range def.Methods {
		cl := &Closure{Fn: lm.mod.Functions[m.Fn], Env: classEnv}
		switch {
		case m.Kind == MethodCtor:
			cls.Ctor = cl
		case m.Kind == MethodGetter:
			cls.Getters[m.Name] = cl
		case m.Kind == MethodSetter:
			cls.Setters[m.Name] = cl
		case m.Static:
			cls.Statics.Set(m.Name, cl)
		default:
			cls.Methods[m.Name] = cl
		}
	}
	return cls, nil
}

// construct creates an instance: field initializers run base-first in
// declaration order, then the nearest declared constructor executes
// (undeclared constructors forward to the superclass implicitly).
func (vm *VM) construct(callee runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch c := callee.(type) {
	case *Class:
		if c.Abstract {
			return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
				"cannot instantiate abstract class "+c.Name, ""))
		}
		inst := &Instance{Class: c, Fields: runtime.NewObject()}
		if err := vm.initFields(c, inst); err != nil {
			return nil, err
		}
		ctor, _ := c.lookupCtor()
		if ctor != nil {
			if _, err := vm.applyClosure(ctor, inst, args); err != nil {
				return nil, err
			}
		}
		return inst, nil
	case *runtime.BuiltinValue:
		return c.Fn(runtime.UNDEFINED, args)
	}
	return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
		runtime.Display(callee)+" is not a constructor", ""))
}

func (vm *VM) initFields(cls *Class, inst *Instance) error {
	if cls == nil {
		return nil
	}
	if err := vm.initFields(cls.Super, inst); err != nil {
		return err
	}
	for _, field := range cls.Fields {
		thunk, ok := cls.InitFns[field.Name]
		if !ok {
			inst.Fields.Set(field.Name, runtime.UNDEFINED)
			continue
		}
		v, err := vm.applyClosure(thunk, inst, nil)
		if err != nil {
			return err
		}
		inst.Fields.Set(field.Name, v)
	}
	return nil
}

// superCall invokes the superclass constructor chain on the current
// receiver.
func (vm *VM) superCall(f *frame, args []runtime.Value) error {
	thisV, ok := f.env.Get("this")
	if !ok {
		return runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call outside of a constructor", ""))
	}
	inst, ok := thisV.(*Instance)
	if !ok {
		return runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call outside of a constructor", ""))
	}
	superV, ok := f.env.Get("__super__")
	if !ok {
		return runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call in a class without a base", ""))
	}
	super := superV.(*Class)

	ctor, _ := super.lookupCtor()
	if ctor == nil {
		return nil
	}
	_, err := vm.applyClosure(ctor, inst, args)
	return err
}
