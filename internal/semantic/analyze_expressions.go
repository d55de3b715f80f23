package semantic

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// analyzeExpression computes and records the type of an expression.
func (a *Analyzer) analyzeExpression(expr ast.Expression) types.Type {
	if expr == nil {
		return types.ANY
	}
	t := a.expressionType(expr)
	return a.setType(expr, t)
}

func (a *Analyzer) expressionType(expr ast.Expression) types.Type {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		return types.NewNumberLiteral(e.Value)
	case *ast.StringLiteral:
		return types.NewStringLiteral(e.Value)
	case *ast.BooleanLiteral:
		return types.NewBooleanLiteral(e.Value)
	case *ast.NullLiteral:
		return types.NULL
	case *ast.UndefinedLiteral:
		return types.UNDEFINED
	case *ast.BigIntLiteral:
		return types.BIGINT
	case *ast.RegexLiteral:
		return types.ANY
	case *ast.TemplateLiteral:
		for _, sub := range e.Expressions {
			a.analyzeExpression(sub)
		}
		return types.STRING
	case *ast.Identifier:
		if t, _, ok := a.scope.lookupValue(e.Value); ok {
			return t
		}
		a.errorAt(e, "TS2304", "cannot find name %q", e.Value)
		return types.ANY
	case *ast.ThisExpression:
		if t, _, ok := a.scope.lookupValue("this"); ok {
			return t
		}
		if a.currentClass != nil {
			return types.NewInstance(a.currentClass)
		}
		return types.ANY
	case *ast.SuperExpression:
		if a.currentClass != nil && a.currentClass.Super != nil {
			return types.NewInstance(a.currentClass.Super)
		}
		a.errorAt(e, "TS2335", "'super' can only be referenced in a derived class")
		return types.ANY
	case *ast.UnaryExpression:
		return a.analyzeUnary(e)
	case *ast.UpdateExpression:
		t := a.analyzeExpression(e.Operand)
		if !a.compat.Assignable(t, types.NUMBER) && t != types.ANY {
			a.errorAt(e, "TS2356", "operand of %s must be a number", e.Operator)
		}
		return types.NUMBER
	case *ast.BinaryExpression:
		return a.analyzeBinary(e)
	case *ast.LogicalExpression:
		return a.analyzeLogical(e)
	case *ast.ConditionalExpression:
		a.analyzeExpression(e.Condition)
		var cons, alt types.Type
		a.inScope(func() {
			a.applyNarrowing(e.Condition, true)
			cons = a.analyzeExpression(e.Consequent)
		})
		a.inScope(func() {
			a.applyNarrowing(e.Condition, false)
			alt = a.analyzeExpression(e.Alternate)
		})
		return types.NewUnion(cons, alt)
	case *ast.AssignmentExpression:
		return a.analyzeAssignment(e)
	case *ast.SequenceExpression:
		var last types.Type = types.ANY
		for _, sub := range e.Expressions {
			last = a.analyzeExpression(sub)
		}
		return last
	case *ast.MemberExpression:
		return a.analyzeMember(e)
	case *ast.CallExpression:
		return a.analyzeCall(e)
	case *ast.NewExpression:
		return a.analyzeNew(e)
	case *ast.ArrayLiteral:
		return a.analyzeArrayLiteral(e)
	case *ast.ObjectLiteral:
		return a.analyzeObjectLiteral(e)
	case *ast.SpreadElement:
		return a.analyzeExpression(e.Argument)
	case *ast.FunctionExpression:
		sig := a.functionSignature(e)
		a.analyzeFunctionBody(e, nil, false)
		return sig
	case *ast.ArrowFunction:
		return a.analyzeArrow(e)
	case *ast.AwaitExpression:
		if !a.inAsync {
			a.errorAt(e, "TS1308", "'await' is only allowed within async functions")
		}
		t := a.analyzeExpression(e.Argument)
		return types.Awaited(t)
	case *ast.YieldExpression:
		if !a.inGenerator {
			a.errorAt(e, "TS1163", "'yield' is only allowed within generators")
		}
		if e.Argument != nil {
			got := a.analyzeExpression(e.Argument)
			if e.Delegate {
				got = a.elementTypeOf(got)
			}
			if a.yieldType != nil && a.yieldType != types.ANY {
				a.checkAssignment(e.Argument, got, a.yieldType)
			}
		}
		return types.ANY
	case *ast.TypeAssertion:
		a.analyzeExpression(e.Expression)
		return a.resolveTypeNode(e.Type)
	case *ast.ClassExpression:
		a.declareClassShell(e.Decl)
		a.populateClass(e.Decl)
		a.analyzeClassBodies(e.Decl)
		if t, ok := a.scope.lookupType(e.Decl.Name.Value); ok {
			return t
		}
		return types.ANY
	}
	return types.ANY
}

func (a *Analyzer) analyzeUnary(e *ast.UnaryExpression) types.Type {
	t := a.analyzeExpression(e.Operand)
	switch e.Operator {
	case "-", "+", "~":
		if !a.compat.Assignable(t, types.NUMBER) && t != types.ANY {
			if lit, ok := t.(*types.LiteralType); !ok || lit.Kind != types.LiteralNumber {
				a.errorAt(e, "TS2362", "operand of %q must be a number", e.Operator)
			}
		}
		if e.Operator == "-" {
			if lit, ok := t.(*types.LiteralType); ok && lit.Kind == types.LiteralNumber {
				return types.NewNumberLiteral(-lit.NumVal)
			}
		}
		return types.NUMBER
	case "!":
		return types.BOOLEAN
	case "typeof":
		return types.NewUnion(
			types.NewStringLiteral("string"), types.NewStringLiteral("number"),
			types.NewStringLiteral("boolean"), types.NewStringLiteral("symbol"),
			types.NewStringLiteral("undefined"), types.NewStringLiteral("object"),
			types.NewStringLiteral("function"), types.NewStringLiteral("bigint"),
		)
	case "void":
		return types.UNDEFINED
	case "delete":
		return types.BOOLEAN
	}
	return types.ANY
}

func (a *Analyzer) analyzeBinary(e *ast.BinaryExpression) types.Type {
	left := a.analyzeExpression(e.Left)
	right := a.analyzeExpression(e.Right)

	switch e.Operator {
	case "+":
		if isStringLike(left) || isStringLike(right) {
			return types.STRING
		}
		if left == types.ANY || right == types.ANY {
			return types.ANY
		}
		a.requireNumeric(e, left)
		a.requireNumeric(e, right)
		return types.NUMBER
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		a.requireNumeric(e, left)
		a.requireNumeric(e, right)
		return types.NUMBER
	case "<", ">", "<=", ">=":
		return types.BOOLEAN
	case "==", "!=":
		a.flagHostHandleEquality(e, left, right)
		return types.BOOLEAN
	case "===", "!==":
		if !a.comparable(left, right) && left != types.ANY && right != types.ANY &&
			!types.IsNullish(left) && !types.IsNullish(right) {
			a.errorAt(e, "TS2367", "this comparison appears unintentional: %s and %s have no overlap",
				left.String(), right.String())
		}
		return types.BOOLEAN
	case "instanceof":
		return types.BOOLEAN
	case "in":
		return types.BOOLEAN
	}
	return types.ANY
}

// flagHostHandleEquality reports loose equality over host handles, whose
// coercion semantics are deliberately unspecified (identity only).
func (a *Analyzer) flagHostHandleEquality(e ast.Node, left, right types.Type) {
	isHandle := func(t types.Type) bool {
		r, ok := t.(*types.RecordType)
		if !ok {
			return false
		}
		f, found := r.Lookup("__handle")
		return found && f.Type == types.STRING
	}
	if isHandle(left) || isHandle(right) {
		a.errorAt(e, "TS7301", "loose equality on host handles compares identity only")
	}
}

func (a *Analyzer) requireNumeric(node ast.Node, t types.Type) {
	if t == types.ANY || t == types.NUMBER {
		return
	}
	if lit, ok := t.(*types.LiteralType); ok && lit.Kind == types.LiteralNumber {
		return
	}
	if t == types.BIGINT {
		a.errorAt(node, "TS2365", "bigint operands cannot mix with number arithmetic")
		return
	}
	if e, ok := t.(*types.EnumType); ok {
		if a.compat.Assignable(e, types.NUMBER) {
			return
		}
	}
	if a.compat.Assignable(t, types.NUMBER) {
		return
	}
	a.errorAt(node, "TS2362", "arithmetic operand must be of type number, got %s", t.String())
}

func isStringLike(t types.Type) bool {
	if t == types.STRING {
		return true
	}
	lit, ok := t.(*types.LiteralType)
	return ok && lit.Kind == types.LiteralString
}

func (a *Analyzer) analyzeLogical(e *ast.LogicalExpression) types.Type {
	left := a.analyzeExpression(e.Left)

	var right types.Type
	a.inScope(func() {
		// && narrows its right operand by the guard; || by its negation.
		switch e.Operator {
		case "&&":
			a.applyNarrowing(e.Left, true)
		case "||":
			a.applyNarrowing(e.Left, false)
		}
		right = a.analyzeExpression(e.Right)
	})

	switch e.Operator {
	case "&&":
		return types.NewUnion(right, types.Widen(left))
	case "||":
		return types.NewUnion(types.Widen(left), right)
	case "??":
		return types.NewUnion(stripNullish(left), right)
	}
	return types.ANY
}

// stripNullish removes null and undefined from a union.
func stripNullish(t types.Type) types.Type {
	u, ok := t.(*types.UnionType)
	if !ok {
		if types.IsNullish(t) {
			return types.NEVER
		}
		return t
	}
	var rest []types.Type
	for _, m := range u.Members {
		if !types.IsNullish(m) {
			rest = append(rest, m)
		}
	}
	return types.NewUnion(rest...)
}

func (a *Analyzer) analyzeAssignment(e *ast.AssignmentExpression) types.Type {
	target := a.analyzeExpression(e.Target)
	value := a.analyzeExpression(e.Value)

	if ident, ok := e.Target.(*ast.Identifier); ok {
		if _, sym, found := a.scope.lookupDeclared(ident.Value); found && sym.constant {
			a.errorAt(e, "TS2588", "cannot assign to %q because it is a constant", ident.Value)
		}
	}
	if member, ok := e.Target.(*ast.MemberExpression); ok {
		a.checkReadonlyWrite(member)
	}

	if e.Operator == "=" {
		a.checkAssignment(e.Value, value, target)
		return target
	}
	// Compound assignments: +=, -=, ...; += allows string concatenation.
	if e.Operator == "+=" && (isStringLike(target) || target == types.STRING) {
		return types.STRING
	}
	if e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??=" {
		return types.NewUnion(target, value)
	}
	a.requireNumeric(e, target)
	a.requireNumeric(e, value)
	return types.NUMBER
}

// checkReadonlyWrite rejects writes to readonly fields outside the
// declaring constructor.
func (a *Analyzer) checkReadonlyWrite(member *ast.MemberExpression) {
	obj := a.typeTable[member.Object]
	prop, ok := member.Property.(*ast.Identifier)
	if !ok || obj == nil {
		return
	}
	switch o := obj.(type) {
	case *types.InstanceType:
		if m, found := o.Class.LookupInstance(prop.Value); found {
			if m.Readonly {
				if _, isThis := member.Object.(*ast.ThisExpression); !isThis || a.currentClass == nil {
					a.errorAt(member, "TS2540", "cannot assign to %q because it is a read-only property", prop.Value)
				}
			}
			if m.Getter != nil && m.Setter == nil {
				a.errorAt(member, "TS2540", "cannot assign to %q because it only has a getter", prop.Value)
			}
		}
	case *types.RecordType:
		if f, found := o.Lookup(prop.Value); found && f.Readonly {
			a.errorAt(member, "TS2540", "cannot assign to %q because it is a read-only property", prop.Value)
		}
	}
}

func (a *Analyzer) analyzeMember(e *ast.MemberExpression) types.Type {
	obj := a.analyzeExpression(e.Object)

	if e.Computed {
		idx := a.analyzeExpression(e.Property)
		result := types.IndexedAccess(obj, idx)
		if result == types.NEVER && obj != types.ANY {
			a.errorAt(e, "TS7053", "element access on type %s with index %s has no matching signature",
				obj.String(), idx.String())
			return types.ANY
		}
		return a.optionalize(result, obj, e.Optional)
	}

	prop, ok := e.Property.(*ast.Identifier)
	if !ok {
		return types.ANY
	}

	base := obj
	if e.Optional {
		base = stripNullish(obj)
	} else if a.opts.StrictNullChecks && hasNullish(obj) {
		a.errorAt(e, "TS2531", "object is possibly null or undefined")
		base = stripNullish(obj)
	}

	t, found := a.memberTypeOf(base, prop.Value, e)
	if !found {
		if base != types.ANY {
			a.errorAt(e, "TS2339", "property %q does not exist on type %s", prop.Value, base.String())
		}
		return types.ANY
	}
	return a.optionalize(t, obj, e.Optional)
}

// optionalize re-adds undefined to optional-chain results when the receiver
// may be nullish.
func (a *Analyzer) optionalize(t, receiver types.Type, optional bool) types.Type {
	if optional && hasNullish(receiver) {
		return types.NewUnion(t, types.UNDEFINED)
	}
	return t
}

func hasNullish(t types.Type) bool {
	if types.IsNullish(t) {
		return true
	}
	u, ok := t.(*types.UnionType)
	if !ok {
		return false
	}
	for _, m := range u.Members {
		if types.IsNullish(m) {
			return true
		}
	}
	return false
}

// memberTypeOf resolves property access over the full value-type zoo,
// including intrinsic members of strings and arrays.
func (a *Analyzer) memberTypeOf(obj types.Type, name string, node ast.Node) (types.Type, bool) {
	switch o := obj.(type) {
	case *types.PrimitiveType:
		if o == types.ANY {
			return types.ANY, true
		}
		if o == types.STRING {
			return stringMemberType(name)
		}
	case *types.LiteralType:
		if o.Kind == types.LiteralString {
			return stringMemberType(name)
		}
	case *types.ArrayType:
		return arrayMemberType(o, name)
	case *types.TupleType:
		if name == "length" {
			return types.NUMBER, true
		}
	case *types.RecordType:
		if f, ok := o.Lookup(name); ok {
			t := f.Type
			if f.Optional && a.opts.StrictNullChecks {
				t = types.NewUnion(t, types.UNDEFINED)
			}
			return t, true
		}
		if o.StringIndex != nil {
			return o.StringIndex, true
		}
	case *types.InterfaceType:
		for _, f := range o.AllMembers() {
			if f.Name == name {
				t := f.Type
				if f.Optional && a.opts.StrictNullChecks {
					t = types.NewUnion(t, types.UNDEFINED)
				}
				return t, true
			}
		}
		if m, ok := o.AllMethods()[name]; ok {
			return m, true
		}
		if o.StringIndex != nil {
			return o.StringIndex, true
		}
	case *types.InstanceType:
		if m, ok := o.Class.LookupInstance(name); ok {
			a.checkMemberAccess(node, o.Class, m)
			if m.Getter != nil {
				return m.Getter.Return, true
			}
			return m.Type, true
		}
	case *types.ClassType:
		if m, ok := o.LookupStatic(name); ok {
			return m.Type, true
		}
	case *types.EnumType:
		for _, m := range o.Members {
			if m.Name == name {
				return m.Type, true
			}
		}
	case *types.PromiseType:
		switch name {
		case "then", "catch", "finally":
			return types.ANY, true
		}
	case *types.GeneratorType:
		switch name {
		case "next", "return", "throw":
			return types.ANY, true
		}
	case *types.UnionType:
		var out []types.Type
		for _, m := range o.Members {
			t, ok := a.memberTypeOf(m, name, node)
			if !ok {
				return nil, false
			}
			out = append(out, t)
		}
		return types.NewUnion(out...), true
	case *types.IntersectionType:
		for _, m := range o.Members {
			if t, ok := a.memberTypeOf(m, name, node); ok {
				return t, true
			}
		}
	case *types.InstantiatedType:
		if o.Expanded != nil {
			return a.memberTypeOf(o.Expanded, name, node)
		}
	case *types.TypeParameterType:
		if o.Constraint != nil {
			return a.memberTypeOf(o.Constraint, name, node)
		}
	}
	return nil, false
}

// checkMemberAccess enforces private/protected visibility.
func (a *Analyzer) checkMemberAccess(node ast.Node, cls *types.ClassType, m *types.ClassMemberInfo) {
	switch m.Access {
	case types.AccessPrivate:
		if a.currentClass == nil || a.currentClass.Key() != cls.Key() {
			a.errorAt(node, "TS2341", "property %q is private and only accessible within class %q", m.Name, cls.Name)
		}
	case types.AccessProtected:
		if a.currentClass == nil || !a.currentClass.DerivesFrom(cls) {
			a.errorAt(node, "TS2445", "property %q is protected and only accessible within class %q and its subclasses", m.Name, cls.Name)
		}
	}
}

// stringMemberType is the intrinsic member table for strings.
func stringMemberType(name string) (types.Type, bool) {
	switch name {
	case "length":
		return types.NUMBER, true
	case "charAt", "slice", "substring", "toUpperCase", "toLowerCase",
		"trim", "repeat", "padStart", "padEnd", "replace", "concat", "charCodeAt":
		return types.ANY, true
	case "split":
		return &types.FunctionType{
			Params:   []types.Param{{Name: "sep", Type: types.STRING}},
			Required: 1,
			Return:   types.NewArray(types.STRING),
		}, true
	case "indexOf", "lastIndexOf":
		return &types.FunctionType{
			Params:   []types.Param{{Name: "search", Type: types.STRING}},
			Required: 1,
			Return:   types.NUMBER,
		}, true
	case "startsWith", "endsWith", "includes":
		return &types.FunctionType{
			Params:   []types.Param{{Name: "search", Type: types.STRING}},
			Required: 1,
			Return:   types.BOOLEAN,
		}, true
	}
	return nil, false
}

// arrayMemberType is the intrinsic member table for arrays.
func arrayMemberType(arr *types.ArrayType, name string) (types.Type, bool) {
	switch name {
	case "length":
		return types.NUMBER, true
	case "push", "unshift":
		return &types.FunctionType{
			HasRest: true, RestType: arr.Element, Return: types.NUMBER,
		}, true
	case "pop", "shift":
		return &types.FunctionType{Return: types.NewUnion(arr.Element, types.UNDEFINED)}, true
	case "slice", "concat", "reverse", "filter":
		return types.ANY, true
	case "map", "reduce", "forEach", "find", "findIndex", "some", "every",
		"join", "indexOf", "includes", "sort", "flat", "splice":
		return types.ANY, true
	}
	return nil, false
}

func (a *Analyzer) analyzeArrayLiteral(e *ast.ArrayLiteral) types.Type {
	var elems []types.Type
	for _, el := range e.Elements {
		if spread, ok := el.(*ast.SpreadElement); ok {
			t := a.analyzeExpression(spread.Argument)
			elems = append(elems, a.elementTypeOf(t))
			continue
		}
		elems = append(elems, types.Widen(a.analyzeExpression(el)))
	}
	if len(elems) == 0 {
		return types.NewArray(types.ANY)
	}
	return types.NewArray(types.NewUnion(elems...))
}

// analyzeObjectLiteral computes a fresh record type that tracks its origin
// so excess-property checking fires only at this literal's own annotation
// site.
func (a *Analyzer) analyzeObjectLiteral(e *ast.ObjectLiteral) types.Type {
	rec := &types.RecordType{Fresh: true, Origin: e}

	for _, p := range e.Properties {
		switch p.Kind {
		case ast.PropertySpread:
			t := a.analyzeExpression(p.Argument)
			if src, ok := t.(*types.RecordType); ok {
				rec.Fields = append(rec.Fields, src.Fields...)
			}
		case ast.PropertyShorthand:
			t := a.analyzeExpression(p.Value)
			rec.Fields = append(rec.Fields, types.Field{Name: keyName(p.Key), Type: types.Widen(t)})
		case ast.PropertyGet:
			fn := p.Value.(*ast.FunctionExpression)
			sig := a.functionSignature(fn)
			a.analyzeFunctionBody(fn, nil, false)
			rec.Fields = append(rec.Fields, types.Field{Name: keyName(p.Key), Type: sig.Return, Readonly: true})
		case ast.PropertySet:
			fn := p.Value.(*ast.FunctionExpression)
			a.analyzeFunctionBody(fn, nil, false)
		case ast.PropertyMethod:
			fn := p.Value.(*ast.FunctionExpression)
			sig := a.functionSignature(fn)
			sig.IsMethod = true
			a.analyzeFunctionBody(fn, nil, false)
			rec.Fields = append(rec.Fields, types.Field{Name: keyName(p.Key), Type: sig})
		default:
			t := a.analyzeExpression(p.Value)
			if p.Computed {
				a.analyzeExpression(p.Key)
				if rec.StringIndex == nil {
					rec.StringIndex = types.Widen(t)
				}
				continue
			}
			rec.Fields = append(rec.Fields, types.Field{Name: keyName(p.Key), Type: types.Widen(t)})
		}
	}

	a.freshLiterals[e] = rec
	return rec
}

func keyName(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Value
	case *ast.StringLiteral:
		return k.Value
	case *ast.NumberLiteral:
		return types.FormatNumber(k.Value)
	}
	return key.String()
}

func (a *Analyzer) analyzeArrow(e *ast.ArrowFunction) types.Type {
	sig := a.signatureOf(e.TypeParams, e.Params, e.ReturnType, e.IsAsync, false)

	prevReturn, prevAsync := a.returnType, a.inAsync
	a.returnType = sig.Return
	a.inAsync = e.IsAsync
	defer func() { a.returnType, a.inAsync = prevReturn, prevAsync }()

	a.inScope(func() {
		for i, tp := range e.TypeParams {
			if i < len(sig.TypeParams) {
				a.scope.defineType(tp.Name.Value, sig.TypeParams[i])
			}
		}
		for i, p := range e.Params {
			var pt types.Type = types.ANY
			if i < len(sig.Params) {
				pt = sig.Params[i].Type
			}
			if p.Rest && sig.HasRest {
				pt = types.NewArray(sig.RestType)
			}
			a.scope.defineValue(p.Name.Value, pt, false, p.Name.Pos())
		}
		if e.Body != nil {
			for _, stmt := range e.Body.Statements {
				a.analyzeStatement(stmt)
			}
		} else if e.ExprBody != nil {
			got := a.analyzeExpression(e.ExprBody)
			if e.ReturnType == nil {
				// Infer the concise body's type as the return type.
				ret := types.Widen(got)
				if e.IsAsync {
					sig.Return = types.NewPromise(types.Awaited(ret))
				} else {
					sig.Return = ret
				}
			} else if !e.IsAsync {
				a.checkAssignment(e.ExprBody, got, sig.Return)
			}
		}
	})
	return sig
}

// analyzeCall types a call expression: resolves the callee signature,
// infers generic arguments, checks arity and argument assignability.
func (a *Analyzer) analyzeCall(e *ast.CallExpression) types.Type {
	// super(...) invokes the superclass constructor.
	if _, isSuper := e.Callee.(*ast.SuperExpression); isSuper {
		if a.currentClass == nil || a.currentClass.Super == nil {
			a.errorAt(e, "TS2337", "'super' calls are only permitted in derived class constructors")
		}
		for _, arg := range e.Arguments {
			a.analyzeExpression(arg)
		}
		return a.setType(e.Callee, types.VOID)
	}

	callee := a.analyzeExpression(e.Callee)

	// Calls through any produce any.
	if callee == types.ANY {
		for _, arg := range e.Arguments {
			a.analyzeExpression(arg)
		}
		return types.ANY
	}

	fn, ok := callee.(*types.FunctionType)
	if !ok {
		for _, arg := range e.Arguments {
			a.analyzeExpression(arg)
		}
		a.errorAt(e, "TS2349", "this expression is not callable: type %s", callee.String())
		return types.ANY
	}

	argTypes := make([]types.Type, len(e.Arguments))
	hasSpread := false
	for i, arg := range e.Arguments {
		if _, isSpread := arg.(*ast.SpreadElement); isSpread {
			hasSpread = true
		}
		argTypes[i] = a.analyzeExpression(arg)
	}

	// Generic calls: explicit arguments, or inference from parameter and
	// argument pairs.
	if len(fn.TypeParams) > 0 {
		sub := make(types.Substitution)
		if len(e.TypeArgs) > 0 {
			for i, tp := range fn.TypeParams {
				arg := types.Type(types.ANY)
				if i < len(e.TypeArgs) {
					arg = a.resolveTypeNode(e.TypeArgs[i])
				} else if tp.Constraint != nil {
					arg = tp.Constraint
				}
				if tp.Constraint != nil && !a.compat.Assignable(arg, tp.Constraint) {
					a.errorAt(e, "TS2344", "type %s does not satisfy the constraint %s",
						arg.String(), tp.Constraint.String())
				}
				sub.Bind(tp, arg)
			}
		} else {
			ic := types.NewInferenceContext(a.compat, fn.TypeParams)
			for i, at := range argTypes {
				if i < len(fn.Params) {
					ic.Observe(fn.Params[i].Type, at)
				} else if fn.HasRest {
					ic.Observe(fn.RestType, at)
				}
			}
			var violations []*types.TypeParameterType
			sub, violations = ic.Solve()
			for _, v := range violations {
				a.errorAt(e, "TS2344", "inferred type for %q does not satisfy its constraint %s",
					v.Name, v.Constraint.String())
			}
		}
		fn = types.Substitute(fn, sub).(*types.FunctionType)
	}

	// Arity.
	if !hasSpread {
		if len(argTypes) < fn.Required {
			a.errorAt(e, "TS2554", "expected at least %d arguments, got %d", fn.Required, len(argTypes))
		} else if len(argTypes) > len(fn.Params) && !fn.HasRest {
			a.errorAt(e, "TS2554", "expected at most %d arguments, got %d", len(fn.Params), len(argTypes))
		}
	}

	// Argument compatibility.
	for i, at := range argTypes {
		if _, isSpread := e.Arguments[i].(*ast.SpreadElement); isSpread {
			continue
		}
		var want types.Type
		if i < len(fn.Params) {
			want = fn.Params[i].Type
		} else if fn.HasRest {
			want = fn.RestType
		} else {
			break
		}
		a.checkAssignment(e.Arguments[i], at, want)
	}

	// User-defined type predicates narrow at the call site's guard.
	if fn.Return == nil {
		return types.VOID
	}
	return fn.Return
}

// analyzeNew types object construction.
func (a *Analyzer) analyzeNew(e *ast.NewExpression) types.Type {
	callee := a.analyzeExpression(e.Callee)

	argTypes := make([]types.Type, len(e.Arguments))
	for i, arg := range e.Arguments {
		argTypes[i] = a.analyzeExpression(arg)
	}

	cls, ok := callee.(*types.ClassType)
	if !ok {
		if callee == types.ANY {
			return types.ANY
		}
		a.errorAt(e, "TS2351", "this expression is not constructable: type %s", callee.String())
		return types.ANY
	}

	a.checkAbstractInstantiation(e, cls)

	ctor, _ := func() (*types.FunctionType, bool) {
		for c := cls; c != nil; c = c.Super {
			if c.Constructor != nil {
				return c.Constructor, true
			}
		}
		return nil, false
	}()
	if ctor != nil {
		if len(argTypes) < ctor.Required {
			a.errorAt(e, "TS2554", "expected at least %d arguments, got %d", ctor.Required, len(argTypes))
		} else if len(argTypes) > len(ctor.Params) && !ctor.HasRest {
			a.errorAt(e, "TS2554", "expected at most %d arguments, got %d", len(ctor.Params), len(argTypes))
		}
		for i, at := range argTypes {
			if i < len(ctor.Params) {
				a.checkAssignment(e.Arguments[i], at, ctor.Params[i].Type)
			}
		}
	}
	return types.NewInstance(cls)
}
