package types

import (
	"strings"
)

// ============================================================================
// Substitution and instantiation
// ============================================================================

// Substitution maps type parameters to concrete arguments by identity key.
type Substitution map[string]Type

// Bind records a type parameter solution.
func (s Substitution) Bind(param *TypeParameterType, arg Type) {
	s[param.Key()] = arg
}

// Substitute replaces type parameters throughout a type. Unmapped parameters
// are left in place so partial instantiation composes.
func Substitute(t Type, sub Substitution) Type {
	if t == nil || len(sub) == 0 {
		return t
	}
	switch tt := t.(type) {
	case *TypeParameterType:
		if repl, ok := sub[tt.Key()]; ok {
			return repl
		}
		return tt
	case *ArrayType:
		return NewArray(Substitute(tt.Element, sub))
	case *TupleType:
		elems := make([]Type, len(tt.Elements))
		for i, e := range tt.Elements {
			elems[i] = Substitute(e, sub)
		}
		var rest Type
		if tt.Rest != nil {
			rest = Substitute(tt.Rest, sub)
		}
		return NewTuple(elems, tt.Required, rest)
	case *UnionType:
		members := make([]Type, len(tt.Members))
		for i, m := range tt.Members {
			members[i] = Substitute(m, sub)
		}
		return NewUnion(members...)
	case *IntersectionType:
		members := make([]Type, len(tt.Members))
		for i, m := range tt.Members {
			members[i] = Substitute(m, sub)
		}
		return NewIntersection(members...)
	case *RecordType:
		fields := make([]Field, len(tt.Fields))
		for i, f := range tt.Fields {
			fields[i] = Field{Name: f.Name, Type: Substitute(f.Type, sub), Optional: f.Optional, Readonly: f.Readonly}
		}
		out := &RecordType{Fields: fields}
		if tt.StringIndex != nil {
			out.StringIndex = Substitute(tt.StringIndex, sub)
		}
		if tt.NumberIndex != nil {
			out.NumberIndex = Substitute(tt.NumberIndex, sub)
		}
		return out
	case *FunctionType:
		params := make([]Param, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = Param{Name: p.Name, Type: Substitute(p.Type, sub), Optional: p.Optional}
		}
		out := &FunctionType{
			Params:     params,
			Required:   tt.Required,
			HasRest:    tt.HasRest,
			TypeParams: tt.TypeParams,
			IsMethod:   tt.IsMethod,
			IsAsync:    tt.IsAsync,
		}
		if tt.RestType != nil {
			out.RestType = Substitute(tt.RestType, sub)
		}
		if tt.Return != nil {
			out.Return = Substitute(tt.Return, sub)
		}
		if tt.Predicate != nil {
			out.Predicate = &Predicate{ParamName: tt.Predicate.ParamName, Type: Substitute(tt.Predicate.Type, sub)}
		}
		return out
	case *PromiseType:
		return NewPromise(Substitute(tt.Awaited, sub))
	case *GeneratorType:
		return NewGenerator(Substitute(tt.Yield, sub))
	case *KeyofType:
		return Keyof(Substitute(tt.Operand, sub))
	case *IndexedAccessType:
		return IndexedAccess(Substitute(tt.Object, sub), Substitute(tt.Index, sub))
	case *MappedType:
		// Substituting into a mapped type must not capture its own parameter.
		inner := make(Substitution, len(sub))
		for k, v := range sub {
			if k != tt.Param.Key() {
				inner[k] = v
			}
		}
		out := &MappedType{
			ParamName:  tt.ParamName,
			Param:      tt.Param,
			Constraint: Substitute(tt.Constraint, inner),
			Value:      Substitute(tt.Value, inner),
			Optional:   tt.Optional,
			Readonly:   tt.Readonly,
		}
		if tt.As != nil {
			out.As = Substitute(tt.As, inner)
		}
		return ExpandMapped(out)
	case *InstantiatedType:
		args := make([]Type, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = Substitute(a, sub)
		}
		var expanded Type
		if tt.Expanded != nil {
			expanded = Substitute(tt.Expanded, sub)
		}
		return &InstantiatedType{Definition: tt.Definition, Args: args, Expanded: expanded}
	}
	return t
}

// InstantiateAlias applies concrete arguments to a generic alias, producing
// an InstantiatedType whose Expanded shape has the parameters substituted.
// Missing arguments default to the parameter constraint, or any.
func InstantiateAlias(alias *GenericAlias, args []Type) *InstantiatedType {
	sub := make(Substitution, len(alias.TypeParams))
	full := make([]Type, len(alias.TypeParams))
	for i, p := range alias.TypeParams {
		var arg Type
		if i < len(args) {
			arg = args[i]
		} else if p.Constraint != nil {
			arg = p.Constraint
		} else {
			arg = ANY
		}
		full[i] = arg
		sub.Bind(p, arg)
	}
	return &InstantiatedType{
		Definition: alias,
		Args:       full,
		Expanded:   Substitute(alias.Body, sub),
	}
}

// ============================================================================
// keyof
// ============================================================================

// Keyof computes keyof T. Unions intersect their key sets; intersections
// union them; any yields string | number | symbol; unresolved operands stay
// symbolic until substitution.
func Keyof(t Type) Type {
	switch tt := t.(type) {
	case *PrimitiveType:
		if tt == ANY {
			return NewUnion(STRING, NUMBER, SYMBOL)
		}
		return NEVER
	case *RecordType:
		var keys []Type
		for _, f := range tt.Fields {
			keys = append(keys, NewStringLiteral(f.Name))
		}
		if tt.StringIndex != nil {
			keys = append(keys, STRING)
		}
		if tt.NumberIndex != nil {
			keys = append(keys, NUMBER)
		}
		return NewUnion(keys...)
	case *InterfaceType:
		var keys []Type
		for _, f := range tt.AllMembers() {
			keys = append(keys, NewStringLiteral(f.Name))
		}
		for name := range tt.AllMethods() {
			keys = append(keys, NewStringLiteral(name))
		}
		if tt.StringIndex != nil {
			keys = append(keys, STRING)
		}
		if tt.NumberIndex != nil {
			keys = append(keys, NUMBER)
		}
		return NewUnion(keys...)
	case *InstanceType:
		var keys []Type
		for cls := tt.Class; cls != nil; cls = cls.Super {
			for _, m := range cls.Instance {
				if m.Access == AccessPublic {
					keys = append(keys, NewStringLiteral(m.Name))
				}
			}
		}
		return NewUnion(keys...)
	case *UnionType:
		// keyof (A | B) is the intersection of the key sets.
		var common map[string]Type
		for _, m := range tt.Members {
			keys := keySet(Keyof(m))
			if common == nil {
				common = keys
				continue
			}
			for k := range common {
				if _, ok := keys[k]; !ok {
					delete(common, k)
				}
			}
		}
		var out []Type
		for _, v := range common {
			out = append(out, v)
		}
		return NewUnion(out...)
	case *IntersectionType:
		// keyof (A & B) is the union of the key sets.
		var out []Type
		for _, m := range tt.Members {
			out = append(out, Keyof(m))
		}
		return NewUnion(out...)
	case *TupleType, *ArrayType:
		return NUMBER
	case *InstantiatedType:
		if tt.Expanded != nil {
			return Keyof(tt.Expanded)
		}
	case *TypeParameterType, *MappedType, *IndexedAccessType, *KeyofType:
		return &KeyofType{Operand: t}
	}
	return NEVER
}

// keySet flattens a keyof result into key → type entries.
func keySet(t Type) map[string]Type {
	out := make(map[string]Type)
	switch tt := t.(type) {
	case *UnionType:
		for _, m := range tt.Members {
			for k, v := range keySet(m) {
				out[k] = v
			}
		}
	default:
		if t != NEVER {
			out[t.Key()] = t
		}
	}
	return out
}

// ============================================================================
// Indexed access
// ============================================================================

// IndexedAccess computes T[K]. Literal keys select member types; unions of
// literal keys produce the union of member types; string selects the string
// index signature; number selects the number signature or element type.
func IndexedAccess(obj, index Type) Type {
	switch idx := index.(type) {
	case *UnionType:
		var out []Type
		for _, m := range idx.Members {
			out = append(out, IndexedAccess(obj, m))
		}
		return NewUnion(out...)
	case *LiteralType:
		if idx.Kind == LiteralString {
			if t, ok := memberType(obj, idx.StrVal); ok {
				return t
			}
			return unresolvedIndex(obj, index)
		}
		if idx.Kind == LiteralNumber {
			switch o := obj.(type) {
			case *TupleType:
				i := int(idx.NumVal)
				if i >= 0 && i < len(o.Elements) {
					return o.Elements[i]
				}
				if o.Rest != nil {
					return o.Rest
				}
				return UNDEFINED
			case *ArrayType:
				return o.Element
			case *RecordType:
				if o.NumberIndex != nil {
					return o.NumberIndex
				}
			}
			return unresolvedIndex(obj, index)
		}
	case *PrimitiveType:
		if idx == STRING {
			switch o := obj.(type) {
			case *RecordType:
				if o.StringIndex != nil {
					return o.StringIndex
				}
			case *InterfaceType:
				if o.StringIndex != nil {
					return o.StringIndex
				}
			}
			return unresolvedIndex(obj, index)
		}
		if idx == NUMBER {
			switch o := obj.(type) {
			case *ArrayType:
				return o.Element
			case *TupleType:
				all := make([]Type, len(o.Elements))
				copy(all, o.Elements)
				if o.Rest != nil {
					all = append(all, o.Rest)
				}
				return NewUnion(all...)
			case *RecordType:
				if o.NumberIndex != nil {
					return o.NumberIndex
				}
			case *InterfaceType:
				if o.NumberIndex != nil {
					return o.NumberIndex
				}
			}
			return unresolvedIndex(obj, index)
		}
	}
	return unresolvedIndex(obj, index)
}

func unresolvedIndex(obj, index Type) Type {
	// Keep the access symbolic when either side still mentions parameters;
	// otherwise the access is simply invalid and reduces to never (the
	// checker reports the diagnostic).
	if containsTypeParameter(obj) || containsTypeParameter(index) {
		return &IndexedAccessType{Object: obj, Index: index}
	}
	return NEVER
}

// memberType resolves a named member's type on obj.
func memberType(obj Type, name string) (Type, bool) {
	switch o := obj.(type) {
	case *RecordType:
		if f, ok := o.Lookup(name); ok {
			return f.Type, true
		}
		if o.StringIndex != nil {
			return o.StringIndex, true
		}
	case *InterfaceType:
		for _, f := range o.AllMembers() {
			if f.Name == name {
				return f.Type, true
			}
		}
		if m, ok := o.AllMethods()[name]; ok {
			return m, true
		}
		if o.StringIndex != nil {
			return o.StringIndex, true
		}
	case *InstanceType:
		if m, ok := o.Class.LookupInstance(name); ok {
			if m.Getter != nil {
				return m.Getter.Return, true
			}
			return m.Type, true
		}
	case *UnionType:
		var out []Type
		for _, member := range o.Members {
			t, ok := memberType(member, name)
			if !ok {
				return nil, false
			}
			out = append(out, t)
		}
		return NewUnion(out...), true
	case *IntersectionType:
		for _, member := range o.Members {
			if t, ok := memberType(member, name); ok {
				return t, true
			}
		}
	case *InstantiatedType:
		if o.Expanded != nil {
			return memberType(o.Expanded, name)
		}
	}
	return nil, false
}

// containsTypeParameter reports whether a type still mentions an unresolved
// type parameter anywhere in its structure.
func containsTypeParameter(t Type) bool {
	switch tt := t.(type) {
	case *TypeParameterType:
		return true
	case *ArrayType:
		return containsTypeParameter(tt.Element)
	case *TupleType:
		for _, e := range tt.Elements {
			if containsTypeParameter(e) {
				return true
			}
		}
		return tt.Rest != nil && containsTypeParameter(tt.Rest)
	case *UnionType:
		for _, m := range tt.Members {
			if containsTypeParameter(m) {
				return true
			}
		}
	case *IntersectionType:
		for _, m := range tt.Members {
			if containsTypeParameter(m) {
				return true
			}
		}
	case *RecordType:
		for _, f := range tt.Fields {
			if containsTypeParameter(f.Type) {
				return true
			}
		}
	case *FunctionType:
		for _, p := range tt.Params {
			if containsTypeParameter(p.Type) {
				return true
			}
		}
		return tt.Return != nil && containsTypeParameter(tt.Return)
	case *PromiseType:
		return containsTypeParameter(tt.Awaited)
	case *GeneratorType:
		return containsTypeParameter(tt.Yield)
	case *KeyofType:
		return true
	case *IndexedAccessType:
		return true
	case *MappedType:
		return true
	}
	return false
}

// ============================================================================
// Mapped types
// ============================================================================

var mappedCache = make(map[string]Type)

// ExpandMapped expands a mapped type over the keys of its evaluated
// constraint. Expansion is lazy (callers expand at use sites) and memoized
// under the mapped type's canonical key, so expanding twice yields equal
// types. An 'as' clause that reduces to never drops the key; a string
// literal result renames it.
func ExpandMapped(m *MappedType) Type {
	if containsTypeParameter(m.Constraint) {
		return m
	}
	cacheKey := m.Key()
	if cached, ok := mappedCache[cacheKey]; ok {
		return cached
	}

	keys := literalKeys(m.Constraint)
	if keys == nil {
		return m
	}

	var fields []Field
	var stringIndex Type
	for _, key := range keys {
		if prim, ok := key.(*PrimitiveType); ok && prim == STRING {
			sub := make(Substitution)
			sub.Bind(m.Param, STRING)
			stringIndex = Substitute(m.Value, sub)
			continue
		}
		lit, ok := key.(*LiteralType)
		if !ok || lit.Kind != LiteralString {
			continue
		}

		sub := make(Substitution)
		sub.Bind(m.Param, lit)

		name := lit.StrVal
		if m.As != nil {
			remapped := Substitute(m.As, sub)
			remapped = reduceIntrinsics(remapped)
			if remapped == NEVER {
				continue
			}
			if rl, ok := remapped.(*LiteralType); ok && rl.Kind == LiteralString {
				name = rl.StrVal
			}
		}

		value := Substitute(m.Value, sub)
		optional := m.Optional == 1
		readonly := m.Readonly == 1
		fields = append(fields, Field{Name: name, Type: value, Optional: optional, Readonly: readonly})
	}

	result := &RecordType{Fields: fields, StringIndex: stringIndex}
	mappedCache[cacheKey] = result
	return result
}

// literalKeys flattens a constraint into its key constituents, or nil when
// it is not a key-like type.
func literalKeys(t Type) []Type {
	switch tt := t.(type) {
	case *LiteralType:
		return []Type{tt}
	case *UnionType:
		var out []Type
		for _, m := range tt.Members {
			ks := literalKeys(m)
			if ks == nil {
				return nil
			}
			out = append(out, ks...)
		}
		return out
	case *PrimitiveType:
		if tt == STRING || tt == NUMBER || tt == SYMBOL {
			return []Type{tt}
		}
		if tt == NEVER {
			return []Type{}
		}
	}
	return nil
}

// ============================================================================
// String-manipulation intrinsics
// ============================================================================

// ApplyStringIntrinsic reduces Uppercase/Lowercase/Capitalize/Uncapitalize
// over a string-literal argument. Returns false for other names.
func ApplyStringIntrinsic(name string, arg Type) (Type, bool) {
	var fn func(string) string
	switch name {
	case "Uppercase":
		fn = strings.ToUpper
	case "Lowercase":
		fn = strings.ToLower
	case "Capitalize":
		fn = capitalize
	case "Uncapitalize":
		fn = uncapitalize
	default:
		return nil, false
	}

	switch a := arg.(type) {
	case *LiteralType:
		if a.Kind == LiteralString {
			return NewStringLiteral(fn(a.StrVal)), true
		}
	case *UnionType:
		var out []Type
		for _, m := range a.Members {
			r, ok := ApplyStringIntrinsic(name, m)
			if !ok {
				return nil, false
			}
			out = append(out, r)
		}
		return NewUnion(out...), true
	case *PrimitiveType:
		if a == STRING {
			return STRING, true
		}
	}
	return nil, false
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func uncapitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// reduceIntrinsics reduces any instantiated intrinsic markers left in a
// remapped key position. The checker resolves intrinsic references eagerly,
// so by the time expansion runs the only remaining work is unwrapping.
func reduceIntrinsics(t Type) Type {
	if inst, ok := t.(*InstantiatedType); ok && inst.Expanded != nil {
		return inst.Expanded
	}
	return t
}

// ============================================================================
// Widening, joins and inference
// ============================================================================

// Widen converts literal types to their widened primitives and drops
// freshness from records. Used for mutable binding initialization.
func Widen(t Type) Type {
	switch tt := t.(type) {
	case *LiteralType:
		return tt.Widened()
	case *RecordType:
		return tt.Widened()
	case *UnionType:
		members := make([]Type, len(tt.Members))
		for i, m := range tt.Members {
			members[i] = Widen(m)
		}
		return NewUnion(members...)
	}
	return t
}

// LUB computes the least upper bound of two observed types for inference:
// equal types join to themselves, literals of one kind join to their widened
// primitive, everything else joins to a union.
func (c *Compat) LUB(a, b Type) Type {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if Equals(a, b) {
		return a
	}
	if c.Assignable(a, b) {
		return b
	}
	if c.Assignable(b, a) {
		return a
	}
	la, aIsLit := a.(*LiteralType)
	lb, bIsLit := b.(*LiteralType)
	if aIsLit && bIsLit && la.Kind == lb.Kind {
		return la.Widened()
	}
	return NewUnion(a, b)
}

// InferenceContext accumulates type parameter solutions while walking
// parameter/argument type pairs of a generic call.
type InferenceContext struct {
	compat *Compat
	params map[string]*TypeParameterType
	sols   map[string]Type
}

// NewInferenceContext creates an inference context for the given parameters.
func NewInferenceContext(compat *Compat, params []*TypeParameterType) *InferenceContext {
	m := make(map[string]*TypeParameterType, len(params))
	for _, p := range params {
		m[p.Key()] = p
	}
	return &InferenceContext{
		compat: compat,
		params: m,
		sols:   make(map[string]Type),
	}
}

// Observe walks a parameter-type/argument-type pair and records solutions.
// Each parameter's final solution is the least upper bound of its
// observations.
func (ic *InferenceContext) Observe(paramType, argType Type) {
	if paramType == nil || argType == nil {
		return
	}
	switch p := paramType.(type) {
	case *TypeParameterType:
		if _, ours := ic.params[p.Key()]; ours {
			ic.sols[p.Key()] = ic.compat.LUB(ic.sols[p.Key()], argType)
		}
	case *ArrayType:
		switch a := argType.(type) {
		case *ArrayType:
			ic.Observe(p.Element, a.Element)
		case *TupleType:
			for _, e := range a.Elements {
				ic.Observe(p.Element, e)
			}
		}
	case *TupleType:
		if a, ok := argType.(*TupleType); ok {
			for i, e := range p.Elements {
				if i < len(a.Elements) {
					ic.Observe(e, a.Elements[i])
				}
			}
		}
	case *PromiseType:
		if a, ok := argType.(*PromiseType); ok {
			ic.Observe(p.Awaited, a.Awaited)
		}
	case *GeneratorType:
		if a, ok := argType.(*GeneratorType); ok {
			ic.Observe(p.Yield, a.Yield)
		}
	case *FunctionType:
		if a, ok := argType.(*FunctionType); ok {
			for i, pp := range p.Params {
				if i < len(a.Params) {
					ic.Observe(pp.Type, a.Params[i].Type)
				}
			}
			if p.Return != nil && a.Return != nil {
				ic.Observe(p.Return, a.Return)
			}
		}
	case *RecordType:
		for _, f := range p.Fields {
			if at, ok := memberType(argType, f.Name); ok {
				ic.Observe(f.Type, at)
			}
		}
	case *UnionType:
		// Match the argument against the sole parameter-bearing member.
		var paramMember Type
		count := 0
		for _, m := range p.Members {
			if containsTypeParameter(m) {
				paramMember = m
				count++
			}
		}
		if count == 1 {
			ic.Observe(paramMember, argType)
		}
	case *InstantiatedType:
		if a, ok := argType.(*InstantiatedType); ok && p.Definition.Key() == a.Definition.Key() {
			for i := range p.Args {
				if i < len(a.Args) {
					ic.Observe(p.Args[i], a.Args[i])
				}
			}
		} else if p.Expanded != nil {
			ic.Observe(p.Expanded, argType)
		}
	}
}

// Solve finalizes the substitution: unsolved parameters default to their
// constraint, or any. The returned violations list parameters whose solution
// does not satisfy its declared constraint.
func (ic *InferenceContext) Solve() (Substitution, []*TypeParameterType) {
	sub := make(Substitution, len(ic.params))
	var violations []*TypeParameterType
	for key, p := range ic.params {
		sol, ok := ic.sols[key]
		if !ok {
			if p.Constraint != nil {
				sol = p.Constraint
			} else {
				sol = ANY
			}
		}
		if p.Constraint != nil && !ic.compat.Assignable(sol, p.Constraint) {
			violations = append(violations, p)
		}
		sub[key] = sol
	}
	return sub, violations
}

// Awaited unwraps one promise layer: Awaited(Promise<T>) is T, everything
// else passes through.
func Awaited(t Type) Type {
	if p, ok := t.(*PromiseType); ok {
		return p.Awaited
	}
	return t
}
