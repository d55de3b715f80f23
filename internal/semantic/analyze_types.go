package semantic

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// resolveTypeNode converts a type annotation into a semantic type.
// Unresolvable names produce a diagnostic and any.
func (a *Analyzer) resolveTypeNode(node ast.TypeNode) types.Type {
	if node == nil {
		return types.ANY
	}

	switch n := node.(type) {
	case *ast.TypeReference:
		return a.resolveTypeReference(n)
	case *ast.LiteralTypeNode:
		switch {
		case n.Str != nil:
			return types.NewStringLiteral(n.Str.Value)
		case n.Num != nil:
			return types.NewNumberLiteral(n.Num.Value)
		case n.Bool != nil:
			return types.NewBooleanLiteral(n.Bool.Value)
		}
		return types.ANY
	case *ast.ArrayTypeNode:
		return types.NewArray(a.resolveTypeNode(n.Element))
	case *ast.TupleTypeNode:
		return a.resolveTupleType(n)
	case *ast.UnionTypeNode:
		members := make([]types.Type, len(n.Types))
		for i, m := range n.Types {
			members[i] = a.resolveTypeNode(m)
		}
		return types.NewUnion(members...)
	case *ast.IntersectionTypeNode:
		members := make([]types.Type, len(n.Types))
		for i, m := range n.Types {
			members[i] = a.resolveTypeNode(m)
		}
		return types.NewIntersection(members...)
	case *ast.ObjectTypeNode:
		return a.resolveObjectType(n)
	case *ast.FunctionTypeNode:
		return a.resolveFunctionType(n)
	case *ast.KeyofTypeNode:
		return types.Keyof(a.resolveTypeNode(n.Type))
	case *ast.MappedTypeNode:
		return a.resolveMappedType(n)
	case *ast.IndexedAccessTypeNode:
		obj := a.resolveTypeNode(n.Object)
		idx := a.resolveTypeNode(n.Index)
		result := types.IndexedAccess(obj, idx)
		if result == types.NEVER && !types.Equals(idx, types.NEVER) {
			a.errorAt(n, "TS2536", "type %s cannot be used to index type %s", idx.String(), obj.String())
		}
		return result
	case *ast.TypePredicateNode:
		return types.BOOLEAN
	case *ast.ParenthesizedTypeNode:
		return a.resolveTypeNode(n.Type)
	}
	return types.ANY
}

// primitiveTypeNames maps annotation spellings to primitive types.
var primitiveTypeNames = map[string]types.Type{
	"number":    types.NUMBER,
	"string":    types.STRING,
	"boolean":   types.BOOLEAN,
	"null":      types.NULL,
	"undefined": types.UNDEFINED,
	"any":       types.ANY,
	"unknown":   types.UNKNOWN,
	"void":      types.VOID,
	"never":     types.NEVER,
	"symbol":    types.SYMBOL,
	"bigint":    types.BIGINT,
	"object":    types.UNKNOWN,
}

// resolveTypeReference handles named types: primitives, built-in generics,
// string intrinsics, utility types and user declarations.
func (a *Analyzer) resolveTypeReference(n *ast.TypeReference) types.Type {
	if t, ok := primitiveTypeNames[n.Name]; ok {
		return t
	}

	args := make([]types.Type, len(n.TypeArgs))
	for i, arg := range n.TypeArgs {
		args[i] = a.resolveTypeNode(arg)
	}
	argOr := func(i int, dflt types.Type) types.Type {
		if i < len(args) {
			return args[i]
		}
		return dflt
	}

	switch n.Name {
	case "Array":
		return types.NewArray(argOr(0, types.ANY))
	case "Promise":
		return types.NewPromise(argOr(0, types.ANY))
	case "Generator", "Iterable", "IterableIterator":
		return types.NewGenerator(argOr(0, types.ANY))
	case "Uppercase", "Lowercase", "Capitalize", "Uncapitalize":
		if len(args) == 1 {
			if t, ok := types.ApplyStringIntrinsic(n.Name, args[0]); ok {
				return t
			}
			// Still mentioning a parameter: keep symbolic for remapping.
			return &types.IndexedAccessType{Object: types.NewStringLiteral(n.Name), Index: args[0]}
		}
	case "Partial":
		return a.mapOver(argOr(0, types.ANY), 1, false)
	case "Required":
		return a.mapOver(argOr(0, types.ANY), -1, false)
	case "Readonly":
		return a.mapOver(argOr(0, types.ANY), 0, true)
	case "Record":
		key := argOr(0, types.STRING)
		val := argOr(1, types.ANY)
		return a.recordOf(key, val)
	case "Pick":
		return a.pickOmit(argOr(0, types.ANY), argOr(1, types.NEVER), true)
	case "Omit":
		return a.pickOmit(argOr(0, types.ANY), argOr(1, types.NEVER), false)
	}

	if t, ok := a.scope.lookupType(n.Name); ok {
		switch decl := t.(type) {
		case *types.GenericAlias:
			if len(decl.TypeParams) > 0 {
				return types.InstantiateAlias(decl, args)
			}
			return decl.Body
		case *types.ClassType:
			return types.NewInstance(decl)
		case *types.InterfaceType:
			if len(decl.TypeParams) > 0 && len(args) > 0 {
				return a.instantiateInterface(decl, args)
			}
			return decl
		default:
			return t
		}
	}

	a.errorAt(n, "TS2304", "cannot find type %q", n.Name)
	return types.ANY
}

// instantiateInterface applies type arguments to a generic interface,
// expanding its member shape under the substitution.
func (a *Analyzer) instantiateInterface(decl *types.InterfaceType, args []types.Type) types.Type {
	sub := make(types.Substitution, len(decl.TypeParams))
	full := make([]types.Type, len(decl.TypeParams))
	for i, p := range decl.TypeParams {
		var arg types.Type = types.ANY
		if i < len(args) {
			arg = args[i]
		} else if p.Constraint != nil {
			arg = p.Constraint
		}
		full[i] = arg
		sub.Bind(p, arg)
	}

	fields := make([]types.Field, 0, len(decl.Members))
	for _, f := range decl.AllMembers() {
		fields = append(fields, types.Field{
			Name: f.Name, Type: types.Substitute(f.Type, sub),
			Optional: f.Optional, Readonly: f.Readonly,
		})
	}
	for name, m := range decl.AllMethods() {
		fields = append(fields, types.Field{Name: name, Type: types.Substitute(m, sub)})
	}
	expanded := types.NewRecord(fields)
	if decl.StringIndex != nil {
		expanded.StringIndex = types.Substitute(decl.StringIndex, sub)
	}
	if decl.NumberIndex != nil {
		expanded.NumberIndex = types.Substitute(decl.NumberIndex, sub)
	}
	return &types.InstantiatedType{Definition: decl, Args: full, Expanded: expanded}
}

// mapOver builds { [K in keyof T] ±? : T[K] } for the Partial/Required/
// Readonly utilities.
func (a *Analyzer) mapOver(t types.Type, optional int, readonly bool) types.Type {
	param := types.NewTypeParameter("K", nil)
	ro := 0
	if readonly {
		ro = 1
	}
	m := &types.MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: types.Keyof(t),
		Value:      &types.IndexedAccessType{Object: t, Index: param},
		Optional:   optional,
		Readonly:   ro,
	}
	return types.ExpandMapped(m)
}

// recordOf builds { [K in Keys]: V }.
func (a *Analyzer) recordOf(keys, value types.Type) types.Type {
	param := types.NewTypeParameter("K", nil)
	m := &types.MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: keys,
		Value:      value,
	}
	return types.ExpandMapped(m)
}

// pickOmit builds Pick<T, K> / Omit<T, K> via key filtering.
func (a *Analyzer) pickOmit(t, keys types.Type, keep bool) types.Type {
	selected := make(map[string]bool)
	collect := func(k types.Type) {
		if lit, ok := k.(*types.LiteralType); ok && lit.Kind == types.LiteralString {
			selected[lit.StrVal] = true
		}
	}
	if u, ok := keys.(*types.UnionType); ok {
		for _, m := range u.Members {
			collect(m)
		}
	} else {
		collect(keys)
	}

	var fields []types.Field
	switch src := t.(type) {
	case *types.RecordType:
		for _, f := range src.Fields {
			if selected[f.Name] == keep {
				fields = append(fields, f)
			}
		}
	case *types.InterfaceType:
		for _, f := range src.AllMembers() {
			if selected[f.Name] == keep {
				fields = append(fields, f)
			}
		}
		for name, m := range src.AllMethods() {
			if selected[name] == keep {
				fields = append(fields, types.Field{Name: name, Type: m})
			}
		}
	default:
		return t
	}
	return types.NewRecord(fields)
}

// resolveTupleType computes elements, required count and rest element.
func (a *Analyzer) resolveTupleType(n *ast.TupleTypeNode) types.Type {
	var elems []types.Type
	var rest types.Type
	required := 0
	sawOptional := false

	for _, e := range n.Elements {
		if e.Rest {
			rest = a.resolveTypeNode(e.Type)
			// A rest element's annotation is the array form; unwrap it.
			if arr, ok := rest.(*types.ArrayType); ok {
				rest = arr.Element
			}
			continue
		}
		elems = append(elems, a.resolveTypeNode(e.Type))
		if e.Optional {
			sawOptional = true
		} else {
			if sawOptional {
				a.errorAt(n, "TS1257", "a required element cannot follow an optional element")
			}
			required++
		}
	}
	return types.NewTuple(elems, required, rest)
}

// resolveObjectType converts an inline object type into a record.
func (a *Analyzer) resolveObjectType(n *ast.ObjectTypeNode) types.Type {
	rec := &types.RecordType{}
	for _, m := range n.Members {
		if m.Name == nil {
			key := a.resolveTypeNode(m.KeyType)
			val := a.resolveTypeNode(m.Type)
			switch key {
			case types.NUMBER:
				rec.NumberIndex = val
			default:
				rec.StringIndex = val
			}
			continue
		}
		var t types.Type
		if m.IsMethod {
			t = a.methodSignature(m.Params, m.Type)
		} else {
			t = a.resolveTypeNode(m.Type)
		}
		rec.Fields = append(rec.Fields, types.Field{
			Name:     m.Name.Value,
			Type:     t,
			Optional: m.Optional,
			Readonly: m.Readonly,
		})
	}
	return rec
}

// methodSignature builds a method-position function type from an inline
// object-type member.
func (a *Analyzer) methodSignature(params []*ast.Parameter, ret ast.TypeNode) *types.FunctionType {
	ft := a.signatureOf(nil, params, ret, false, false)
	ft.IsMethod = true
	return ft
}

// resolveFunctionType converts a function type annotation.
func (a *Analyzer) resolveFunctionType(n *ast.FunctionTypeNode) types.Type {
	return a.signatureOf(n.TypeParams, n.Params, n.ReturnType, false, false)
}

// resolveMappedType builds and expands a mapped type, binding the key
// parameter while resolving the value and as-clause.
func (a *Analyzer) resolveMappedType(n *ast.MappedTypeNode) types.Type {
	param := types.NewTypeParameter(n.ParamName.Value, nil)

	inner := newScope(a.scope)
	inner.defineType(n.ParamName.Value, param)
	prev := a.scope
	a.scope = inner
	constraint := a.resolveTypeNode(n.Constraint)
	value := a.resolveTypeNode(n.Value)
	var asClause types.Type
	if n.As != nil {
		asClause = a.resolveTypeNode(n.As)
	}
	a.scope = prev

	m := &types.MappedType{
		ParamName:  n.ParamName.Value,
		Param:      param,
		Constraint: constraint,
		Value:      value,
		As:         asClause,
		Optional:   modifierInt(n.Optional),
		Readonly:   modifierInt(n.Readonly),
	}
	return types.ExpandMapped(m)
}

func modifierInt(m ast.OptionalModifier) int {
	switch m {
	case ast.ModifierAdd:
		return 1
	case ast.ModifierRemove:
		return -1
	}
	return 0
}

// declareTypeParams binds type parameters into a fresh scope and returns
// the parameter types in declaration order.
func (a *Analyzer) declareTypeParams(params []*ast.TypeParameter) []*types.TypeParameterType {
	out := make([]*types.TypeParameterType, 0, len(params))
	for _, p := range params {
		var constraint types.Type
		if p.Constraint != nil {
			constraint = a.resolveTypeNode(p.Constraint)
		}
		tp := types.NewTypeParameter(p.Name.Value, constraint)
		a.scope.defineType(p.Name.Value, tp)
		out = append(out, tp)
	}
	return out
}

// signatureOf builds a function type from syntax: parameter list, optional
// type parameters and return annotation. Async signatures return promises;
// generator signatures return generators.
func (a *Analyzer) signatureOf(typeParams []*ast.TypeParameter, params []*ast.Parameter, ret ast.TypeNode, isAsync, isGenerator bool) *types.FunctionType {
	// Type parameters scope over parameter and return annotations.
	inner := newScope(a.scope)
	prev := a.scope
	a.scope = inner
	defer func() { a.scope = prev }()

	tps := a.declareTypeParams(typeParams)

	ft := &types.FunctionType{TypeParams: tps, IsAsync: isAsync}
	for _, p := range params {
		if p.Rest {
			ft.HasRest = true
			rt := a.resolveTypeNode(p.Type)
			if arr, ok := rt.(*types.ArrayType); ok {
				rt = arr.Element
			}
			ft.RestType = rt
			continue
		}
		pt := types.Type(types.ANY)
		if p.Type != nil {
			pt = a.resolveTypeNode(p.Type)
		}
		optional := p.Optional || p.Default != nil
		if !optional {
			ft.Required++
		}
		ft.Params = append(ft.Params, types.Param{Name: p.Name.Value, Type: pt, Optional: optional})
	}

	var retType types.Type
	if pred, ok := ret.(*ast.TypePredicateNode); ok {
		retType = types.BOOLEAN
		ft.Predicate = &types.Predicate{
			ParamName: pred.Param.Value,
			Type:      a.resolveTypeNode(pred.Type),
		}
	} else if ret != nil {
		retType = a.resolveTypeNode(ret)
	}

	switch {
	case isGenerator:
		y := types.Type(types.ANY)
		if g, ok := retType.(*types.GeneratorType); ok {
			y = g.Yield
		}
		ft.Return = types.NewGenerator(y)
	case isAsync:
		if retType == nil {
			ft.Return = types.NewPromise(types.ANY)
		} else {
			ft.Return = types.NewPromise(types.Awaited(retType))
		}
	case retType == nil:
		ft.Return = types.ANY
	default:
		ft.Return = retType
	}
	return ft
}

// functionSignature computes the declared signature of a function
// expression or declaration.
func (a *Analyzer) functionSignature(fn *ast.FunctionExpression) *types.FunctionType {
	return a.signatureOf(fn.TypeParams, fn.Params, fn.ReturnType, fn.IsAsync, fn.IsGenerator)
}
