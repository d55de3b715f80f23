package interp

import (
	"strings"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// eval evaluates one expression.
func (i *Interpreter) eval(expr ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.NewNumber(e.Value), nil
	case *ast.StringLiteral:
		return runtime.NewString(e.Value), nil
	case *ast.BooleanLiteral:
		return runtime.NewBoolean(e.Value), nil
	case *ast.NullLiteral:
		return runtime.NULL, nil
	case *ast.UndefinedLiteral:
		return runtime.UNDEFINED, nil
	case *ast.BigIntLiteral:
		return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
			"bigint values are not supported by this runtime", ""))
	case *ast.RegexLiteral:
		obj := runtime.NewObject()
		obj.Set("source", runtime.NewString(e.Pattern))
		obj.Set("flags", runtime.NewString(e.Flags))
		return obj, nil
	case *ast.TemplateLiteral:
		return i.evalTemplate(e, env)
	case *ast.Identifier:
		if v, ok := env.Get(e.Value); ok {
			return v, nil
		}
		return nil, runtime.Throw(runtime.NewErrorObject("ReferenceError",
			e.Value+" is not defined", ""))
	case *ast.ThisExpression:
		if v, ok := env.Get("this"); ok {
			return v, nil
		}
		return runtime.UNDEFINED, nil
	case *ast.SuperExpression:
		// Bare 'super' only appears under call/member nodes handled there.
		return runtime.UNDEFINED, nil
	case *ast.UnaryExpression:
		return i.evalUnary(e, env)
	case *ast.UpdateExpression:
		return i.evalUpdate(e, env)
	case *ast.BinaryExpression:
		return i.evalBinary(e, env)
	case *ast.LogicalExpression:
		return i.evalLogical(e, env)
	case *ast.ConditionalExpression:
		cond, err := i.eval(e.Condition, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(cond) {
			return i.eval(e.Consequent, env)
		}
		return i.eval(e.Alternate, env)
	case *ast.AssignmentExpression:
		return i.evalAssignment(e, env)
	case *ast.SequenceExpression:
		var last runtime.Value = runtime.UNDEFINED
		for _, sub := range e.Expressions {
			v, err := i.eval(sub, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.MemberExpression:
		return i.evalMember(e, env)
	case *ast.CallExpression:
		return i.evalCall(e, env)
	case *ast.NewExpression:
		return i.evalNew(e, env)
	case *ast.ArrayLiteral:
		return i.evalArrayLiteral(e, env)
	case *ast.ObjectLiteral:
		return i.evalObjectLiteral(e, env)
	case *ast.FunctionExpression:
		return i.makeFunction(e, env), nil
	case *ast.ArrowFunction:
		return i.makeArrow(e, env, i.lexicalThis(env)), nil
	case *ast.AwaitExpression:
		v, err := i.eval(e.Argument, env)
		if err != nil {
			return nil, err
		}
		return i.awaitValue(v)
	case *ast.YieldExpression:
		return i.evalYield(e, env)
	case *ast.TypeAssertion:
		return i.eval(e.Expression, env)
	case *ast.SpreadElement:
		return i.eval(e.Argument, env)
	case *ast.ClassExpression:
		return i.evalClassDeclaration(e.Decl, env)
	}
	return runtime.UNDEFINED, nil
}

func (i *Interpreter) evalTemplate(e *ast.TemplateLiteral, env *runtime.Environment) (runtime.Value, error) {
	var sb strings.Builder
	for idx, quasi := range e.Quasis {
		sb.WriteString(quasi)
		if idx < len(e.Expressions) {
			v, err := i.eval(e.Expressions[idx], env)
			if err != nil {
				return nil, err
			}
			sb.WriteString(runtime.ToStringValue(v))
		}
	}
	return runtime.NewString(sb.String()), nil
}

func (i *Interpreter) evalUnary(e *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, error) {
	if e.Operator == "delete" {
		if member, ok := e.Operand.(*ast.MemberExpression); ok {
			return i.evalDelete(member, env)
		}
		return runtime.TRUE, nil
	}
	if e.Operator == "typeof" {
		// typeof tolerates unresolved names.
		if ident, ok := e.Operand.(*ast.Identifier); ok {
			if v, found := env.Get(ident.Value); found {
				return runtime.NewString(runtime.TypeofString(v)), nil
			}
			return runtime.NewString("undefined"), nil
		}
	}

	v, err := i.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "-":
		return runtime.NewNumber(-runtime.ToNumber(v)), nil
	case "+":
		return runtime.NewNumber(runtime.ToNumber(v)), nil
	case "!":
		return runtime.NewBoolean(!runtime.Truthy(v)), nil
	case "~":
		return runtime.NewNumber(float64(^runtime.ToInt32(runtime.ToNumber(v)))), nil
	case "typeof":
		return runtime.NewString(runtime.TypeofString(v)), nil
	case "void":
		return runtime.UNDEFINED, nil
	}
	return runtime.UNDEFINED, nil
}

func (i *Interpreter) evalDelete(member *ast.MemberExpression, env *runtime.Environment) (runtime.Value, error) {
	obj, err := i.eval(member.Object, env)
	if err != nil {
		return nil, err
	}
	key, err := i.memberKey(member, env)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		return runtime.NewBoolean(o.Delete(key)), nil
	case *runtime.InstanceValue:
		return runtime.NewBoolean(o.Fields.Delete(key)), nil
	}
	return runtime.TRUE, nil
}

func (i *Interpreter) evalUpdate(e *ast.UpdateExpression, env *runtime.Environment) (runtime.Value, error) {
	old, err := i.eval(e.Operand, env)
	if err != nil {
		return nil, err
	}
	oldNum := runtime.ToNumber(old)
	delta := 1.0
	if e.Operator == "--" {
		delta = -1.0
	}
	updated := runtime.NewNumber(oldNum + delta)
	if err := i.assignTo(e.Operand, updated, env); err != nil {
		return nil, err
	}
	if e.Prefix {
		return updated, nil
	}
	return runtime.NewNumber(oldNum), nil
}

func (i *Interpreter) evalBinary(e *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(e.Right, env)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case "instanceof":
		cls, ok := right.(*runtime.ClassValue)
		if !ok {
			return nil, runtime.Throw(runtime.NewErrorObject("TypeError",
				"right-hand side of 'instanceof' is not a class", ""))
		}
		inst, ok := left.(*runtime.InstanceValue)
		if !ok {
			return runtime.FALSE, nil
		}
		return runtime.NewBoolean(inst.Class.DerivesFrom(cls)), nil
	case "in":
		key := runtime.ToStringValue(left)
		switch o := right.(type) {
		case *runtime.ObjectValue:
			_, found := o.Get(key)
			return runtime.NewBoolean(found), nil
		case *runtime.InstanceValue:
			_, found := o.Fields.Get(key)
			if !found {
				_, _, found = o.Class.LookupMethod(key)
			}
			return runtime.NewBoolean(found), nil
		case *runtime.ArrayValue:
			idx := int(runtime.ToNumber(left))
			return runtime.NewBoolean(idx >= 0 && idx < len(o.Elements)), nil
		}
		return runtime.FALSE, nil
	}
	return runtime.BinaryNumeric(e.Operator, left, right), nil
}

func (i *Interpreter) evalLogical(e *ast.LogicalExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.eval(e.Left, env)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !runtime.Truthy(left) {
			return left, nil
		}
		return i.eval(e.Right, env)
	case "||":
		if runtime.Truthy(left) {
			return left, nil
		}
		return i.eval(e.Right, env)
	case "??":
		if !isNullish(left) {
			return left, nil
		}
		return i.eval(e.Right, env)
	}
	return runtime.UNDEFINED, nil
}

func isNullish(v runtime.Value) bool {
	switch v.(type) {
	case *runtime.NullValue, *runtime.UndefinedValue:
		return true
	}
	return false
}

func (i *Interpreter) evalAssignment(e *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	// Short-circuiting compound assignments evaluate the right side only
	// when needed.
	switch e.Operator {
	case "&&=", "||=", "??=":
		cur, err := i.eval(e.Target, env)
		if err != nil {
			return nil, err
		}
		need := false
		switch e.Operator {
		case "&&=":
			need = runtime.Truthy(cur)
		case "||=":
			need = !runtime.Truthy(cur)
		case "??=":
			need = isNullish(cur)
		}
		if !need {
			return cur, nil
		}
		v, err := i.eval(e.Value, env)
		if err != nil {
			return nil, err
		}
		if err := i.assignTo(e.Target, v, env); err != nil {
			return nil, err
		}
		return v, nil
	}

	val, err := i.eval(e.Value, env)
	if err != nil {
		return nil, err
	}

	if e.Operator != "=" {
		cur, err := i.eval(e.Target, env)
		if err != nil {
			return nil, err
		}
		op := strings.TrimSuffix(e.Operator, "=")
		val = runtime.BinaryNumeric(op, cur, val)
	}

	if fn, ok := val.(*runtime.FunctionValue); ok && fn.Name == "" {
		if ident, isIdent := e.Target.(*ast.Identifier); isIdent {
			fn.Name = ident.Value
		}
	}
	if err := i.assignTo(e.Target, val, env); err != nil {
		return nil, err
	}
	return val, nil
}

// assignTo writes a value into an identifier or member target.
func (i *Interpreter) assignTo(target ast.Expression, val runtime.Value, env *runtime.Environment) error {
	switch t := target.(type) {
	case *ast.Identifier:
		if err := env.Set(t.Value, val); err != nil {
			return runtime.Throw(runtime.NewErrorObject("TypeError", err.Error(), ""))
		}
		return nil
	case *ast.MemberExpression:
		obj, err := i.eval(t.Object, env)
		if err != nil {
			return err
		}
		key, err := i.memberKey(t, env)
		if err != nil {
			return err
		}
		return i.setMember(obj, key, t, val, env)
	}
	return runtime.Throw(runtime.NewErrorObject("SyntaxError", "invalid assignment target", ""))
}

// memberKey computes the property key string (or index) of a member access.
func (i *Interpreter) memberKey(e *ast.MemberExpression, env *runtime.Environment) (string, error) {
	if !e.Computed {
		return e.Property.(*ast.Identifier).Value, nil
	}
	k, err := i.eval(e.Property, env)
	if err != nil {
		return "", err
	}
	return runtime.ToStringValue(k), nil
}

// setMember writes a property, honoring setters and readonly fields.
func (i *Interpreter) setMember(obj runtime.Value, key string, node ast.Node, val runtime.Value, env *runtime.Environment) error {
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		o.Set(key, val)
		return nil
	case *runtime.ArrayValue:
		idx := int(runtime.ToNumber(runtime.NewString(key)))
		if idx >= 0 {
			for len(o.Elements) <= idx {
				o.Elements = append(o.Elements, runtime.UNDEFINED)
			}
			o.Elements[idx] = val
			return nil
		}
		return nil
	case *runtime.InstanceValue:
		if acc, ok := o.Class.LookupAccessor(key); ok && acc.Setter != nil {
			_, err := i.applyFunction(acc.Setter, o, []runtime.Value{val})
			return err
		}
		if o.Class.Readonly[key] {
			if _, initialized := o.Fields.GetOwn(key); initialized {
				// Readonly fields accept their constructor write only.
				if this, ok := env.Get("this"); !ok || this != runtime.Value(o) {
					return runtime.Throw(runtime.NewErrorObject("TypeError",
						"cannot assign to read-only property "+key, ""))
				}
			}
		}
		o.Fields.Set(key, val)
		return nil
	case *runtime.ClassValue:
		o.Statics.Set(key, val)
		return nil
	}
	return runtime.Throw(runtime.NewErrorObject("TypeError",
		"cannot set property "+key+" on "+runtime.TypeofString(obj), ""))
}

func (i *Interpreter) evalArrayLiteral(e *ast.ArrayLiteral, env *runtime.Environment) (runtime.Value, error) {
	arr := &runtime.ArrayValue{}
	for _, el := range e.Elements {
		if spread, ok := el.(*ast.SpreadElement); ok {
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
			arr.Elements = append(arr.Elements, vals...)
			continue
		}
		v, err := i.eval(el, env)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, v)
	}
	return arr, nil
}

func (i *Interpreter) evalObjectLiteral(e *ast.ObjectLiteral, env *runtime.Environment) (runtime.Value, error) {
	obj := runtime.NewObject()
	for _, p := range e.Properties {
		switch p.Kind {
		case ast.PropertySpread:
			v, err := i.eval(p.Argument, env)
			if err != nil {
				return nil, err
			}
			if src, ok := v.(*runtime.ObjectValue); ok {
				for _, k := range src.Keys() {
					val, _ := src.Get(k)
					obj.Set(k, val)
				}
			}
			continue
		case ast.PropertyGet, ast.PropertySet:
			// Accessors on plain object literals evaluate eagerly into
			// plain properties; the class path carries real accessors.
			fn := p.Value.(*ast.FunctionExpression)
			if p.Kind == ast.PropertyGet {
				v, err := i.applyFunction(i.makeFunction(fn, env), obj, nil)
				if err != nil {
					return nil, err
				}
				obj.Set(i.literalKeyName(p, env), v)
			}
			continue
		}

		key := i.literalKeyName(p, env)
		var val runtime.Value
		var err error
		switch p.Kind {
		case ast.PropertyShorthand:
			val, err = i.eval(p.Value, env)
		case ast.PropertyMethod:
			fn := i.makeFunction(p.Value.(*ast.FunctionExpression), env)
			fn.Name = key
			val = fn
		default:
			val, err = i.eval(p.Value, env)
		}
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	return obj, nil
}

func (i *Interpreter) literalKeyName(p *ast.ObjectProperty, env *runtime.Environment) string {
	if p.Computed {
		v, err := i.eval(p.Key, env)
		if err != nil {
			return ""
		}
		return runtime.ToStringValue(v)
	}
	switch k := p.Key.(type) {
	case *ast.Identifier:
		return k.Value
	case *ast.StringLiteral:
		return k.Value
	case *ast.NumberLiteral:
		return runtime.NewNumber(k.Value).String()
	}
	return ""
}

// evalMember reads a property: dot, index and optional chains.
func (i *Interpreter) evalMember(e *ast.MemberExpression, env *runtime.Environment) (runtime.Value, error) {
	// super.m resolves against the superclass method table with the current
	// `this` receiver.
	if _, isSuper := e.Object.(*ast.SuperExpression); isSuper {
		return i.evalSuperMember(e, env)
	}

	obj, err := i.eval(e.Object, env)
	if err != nil {
		return nil, err
	}
	if e.Optional && isNullish(obj) {
		return runtime.UNDEFINED, nil
	}

	key, err := i.memberKey(e, env)
	if err != nil {
		return nil, err
	}
	return i.getMember(obj, key, env)
}
