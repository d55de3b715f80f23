package interp

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// evalClassDeclaration builds a class value: constructor, method tables,
// accessors, statics and superclass link. Method environments carry a
// __super__ binding so super.m dispatches against the defining class's
// superclass. Decorators apply after the class and members are established:
// legacy decorators outside-in over the finished class.
func (i *Interpreter) evalClassDeclaration(decl *ast.ClassDeclaration, env *runtime.Environment) (runtime.Value, error) {
	cls := runtime.NewClassValue(decl.Name.Value)
	cls.Abstract = decl.IsAbstract

	if decl.SuperClass != nil {
		superV, err := i.eval(decl.SuperClass, env)
		if err != nil {
			return nil, err
		}
		super, ok := superV.(*runtime.ClassValue)
		if !ok {
			return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
				"class extends value is not a constructor", ""))
		}
		cls.Super = super
	}

	// Method closures see the class scope plus __super__.
	classEnv := runtime.NewEnclosedEnvironment(env)
	if cls.Super != nil {
		classEnv.DefineConst("__super__", cls.Super)
	}
	cls.FieldEnv = classEnv

	for _, member := range decl.Members {
		switch m := member.(type) {
		case *ast.FieldMember:
			if m.Modifiers.Static {
				val := runtime.Value(runtime.UNDEFINED)
				if m.Init != nil {
					v, err := i.eval(m.Init, classEnv)
					if err != nil {
						return nil, err
					}
					val = v
				}
				cls.Statics.Set(m.Name.Value, val)
				continue
			}
			cls.FieldNames = append(cls.FieldNames, m.Name.Value)
			if m.Init != nil {
				cls.FieldInits[m.Name.Value] = m.Init
			}
			if m.Modifiers.Readonly {
				cls.Readonly[m.Name.Value] = true
			}

		case *ast.MethodMember:
			if m.Function.Body == nil {
				continue // abstract members are not materialized
			}
			fn := i.makeFunction(m.Function, classEnv)
			fn.Name = m.Name.Value
			fn.IsAsync = m.Function.IsAsync || m.Modifiers.Async

			switch m.Kind {
			case ast.MethodConstructor:
				cls.Constructor = fn
			case ast.MethodGet:
				acc := cls.Accessors[m.Name.Value]
				if acc == nil {
					acc = &runtime.PropertyAccessor{}
					cls.Accessors[m.Name.Value] = acc
				}
				acc.Getter = fn
			case ast.MethodSet:
				acc := cls.Accessors[m.Name.Value]
				if acc == nil {
					acc = &runtime.PropertyAccessor{}
					cls.Accessors[m.Name.Value] = acc
				}
				acc.Setter = fn
			default:
				if m.Modifiers.Static {
					cls.Statics.Set(m.Name.Value, fn)
				} else {
					cls.Methods[m.Name.Value] = fn
				}
			}

			// Member decorators rewrite the stored method (legacy form) or
			// observe a context record (current proposal form).
			for idx := len(m.Decorators) - 1; idx >= 0; idx-- {
				if err := i.applyMemberDecorator(m.Decorators[idx], cls, m, env); err != nil {
					return nil, err
				}
			}

		case *ast.IndexSignatureMember:
			// Index signatures are a checking construct with no runtime
			// representation.
		}
	}

	// Field decorators (evaluated for effect; initializer installation).
	for _, member := range decl.Members {
		if f, ok := member.(*ast.FieldMember); ok {
			for idx := len(f.Decorators) - 1; idx >= 0; idx-- {
				if err := i.applyMemberDecorator(f.Decorators[idx], cls, f, env); err != nil {
					return nil, err
				}
			}
		}
	}

	// Class decorators: legacy receive the class and may replace it;
	// current-proposal receive (class, context) and may also replace.
	result := runtime.Value(cls)
	for idx := len(decl.Decorators) - 1; idx >= 0; idx-- {
		d := decl.Decorators[idx]
		decorator, err := i.eval(d.Expression, env)
		if err != nil {
			return nil, err
		}
		var out runtime.Value
		if d.Legacy {
			out, err = i.callValue(decorator, runtime.UNDEFINED, []runtime.Value{result})
		} else {
			ctx := runtime.NewObject()
			ctx.Set("kind", runtime.NewString("class"))
			ctx.Set("name", runtime.NewString(cls.Name))
			out, err = i.callValue(decorator, runtime.UNDEFINED, []runtime.Value{result, ctx})
		}
		if err != nil {
			return nil, err
		}
		if replacement, ok := out.(*runtime.ClassValue); ok {
			result = replacement
		}
	}
	return result, nil
}

// applyMemberDecorator invokes a member decorator. Legacy decorators
// receive (target, name, descriptor-like) and may return a replacement
// function; current-proposal decorators receive (value, context).
func (i *Interpreter) applyMemberDecorator(d *ast.Decorator, cls *runtime.ClassValue, member ast.ClassMember, env *runtime.Environment) error {
	decorator, err := i.eval(d.Expression, env)
	if err != nil {
		return err
	}

	name := member.MemberName()
	var current runtime.Value = runtime.UNDEFINED
	if m, ok := cls.Methods[name]; ok {
		current = m
	}

	var out runtime.Value
	if d.Legacy {
		out, err = i.callValue(decorator, runtime.UNDEFINED,
			[]runtime.Value{cls, runtime.NewString(name), current})
	} else {
		ctx := runtime.NewObject()
		kind := "field"
		if _, isMethod := member.(*ast.MethodMember); isMethod {
			kind = "method"
		}
		ctx.Set("kind", runtime.NewString(kind))
		ctx.Set("name", runtime.NewString(name))
		out, err = i.callValue(decorator, runtime.UNDEFINED, []runtime.Value{current, ctx})
	}
	if err != nil {
		return err
	}
	if replacement, ok := out.(*runtime.FunctionValue); ok {
		if _, exists := cls.Methods[name]; exists {
			cls.Methods[name] = replacement
		}
	}
	return nil
}

// construct creates an instance: field initializers of the whole class
// chain run base-first in declaration order before any constructor body,
// then the nearest declared constructor executes. Classes
// without a declared constructor forward to the superclass implicitly.
func (i *Interpreter) construct(cls *runtime.ClassValue, args []runtime.Value) (runtime.Value, error) {
	if cls.Abstract {
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"cannot instantiate abstract class "+cls.Name, ""))
	}

	inst := runtime.NewInstance(cls)
	if err := i.initializeFields(cls, inst); err != nil {
		return nil, err
	}

	ctor, owner := cls.LookupConstructor()
	if ctor == nil {
		return inst, nil
	}
	if err := i.invokeConstructor(ctor, owner, inst, args); err != nil {
		return nil, err
	}
	return inst, nil
}

// initializeFields runs instance field initializers base-first so derived
// initializers observe inherited fields, each in declaration order.
func (i *Interpreter) initializeFields(cls *runtime.ClassValue, inst *runtime.InstanceValue) error {
	if cls == nil {
		return nil
	}
	if err := i.initializeFields(cls.Super, inst); err != nil {
		return err
	}
	for _, name := range cls.FieldNames {
		init, ok := cls.FieldInits[name]
		if !ok {
			inst.Fields.Set(name, runtime.UNDEFINED)
			continue
		}
		fieldEnv := runtime.NewEnclosedEnvironment(cls.FieldEnv)
		fieldEnv.DefineConst("this", inst)
		v, err := i.eval(init, fieldEnv)
		if err != nil {
			return err
		}
		inst.Fields.Set(name, v)
	}
	return nil
}

// invokeConstructor runs a constructor body with parameter properties
// copied onto the instance.
func (i *Interpreter) invokeConstructor(ctor *runtime.FunctionValue, owner *runtime.ClassValue, inst *runtime.InstanceValue, args []runtime.Value) error {
	env, err := i.bindCallEnvironment(ctor, inst, args)
	if err != nil {
		return err
	}

	// Parameter properties: constructor(public x: number) assigns this.x.
	for idx, p := range ctor.Params {
		if p.Access != ast.AccessNone || p.Readonly {
			var v runtime.Value = runtime.UNDEFINED
			if idx < len(args) {
				v = args[idx]
			} else if p.Default != nil {
				if dv, derr := i.eval(p.Default, env); derr == nil {
					v = dv
				}
			}
			inst.Fields.Set(p.Name.Value, v)
			if p.Readonly {
				owner.Readonly[p.Name.Value] = true
			}
		}
	}

	if ctor.Body == nil {
		return nil
	}
	i.depth++
	defer func() { i.depth-- }()
	err = i.execBlock(ctor.Body, env)
	if _, isReturn := err.(*returnSignal); isReturn {
		return nil
	}
	return err
}

// evalSuperCall invokes the superclass constructor chain on the current
// receiver.
func (i *Interpreter) evalSuperCall(e *ast.CallExpression, env *runtime.Environment) (runtime.Value, error) {
	thisV, ok := env.Get("this")
	if !ok {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call outside of a constructor", ""))
	}
	inst, ok := thisV.(*runtime.InstanceValue)
	if !ok {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call outside of a constructor", ""))
	}
	superV, ok := env.Get("__super__")
	if !ok {
		return nil, runtime.Throw(runtime.NewErrorObject("SyntaxError",
			"'super' call in a class without a base", ""))
	}
	super := superV.(*runtime.ClassValue)

	args, err := i.evalArguments(e.Arguments, env)
	if err != nil {
		return nil, err
	}

	ctor, owner := super.LookupConstructor()
	if ctor == nil {
		return runtime.UNDEFINED, nil
	}
	if err := i.invokeConstructor(ctor, owner, inst, args); err != nil {
		return nil, err
	}
	return runtime.UNDEFINED, nil
}
