package types

// CompatOptions carries the strictness flags that drive assignability.
// StrictNullChecks removes null/undefined from every other type's domain;
// MethodBivariance relaxes parameter checking for method positions. Both are
// explicit choices surfaced in configuration, never implicit behavior.
type CompatOptions struct {
	StrictNullChecks bool
	MethodBivariance bool
}

// Compat decides structural assignability T <: U with memoization.
// Results are cached on pairs of canonical keys; in-progress pairs assume
// success so recursive types converge.
type Compat struct {
	opts CompatOptions
	memo map[string]bool
}

// NewCompat creates an assignability checker.
func NewCompat(opts CompatOptions) *Compat {
	return &Compat{
		opts: opts,
		memo: make(map[string]bool),
	}
}

// Assignable reports whether a value of type source may be used where target
// is expected.
func (c *Compat) Assignable(source, target Type) bool {
	if source == nil || target == nil {
		return false
	}
	if source == target {
		return true
	}

	key := source.Key() + "→" + target.Key()
	if cached, ok := c.memo[key]; ok {
		return cached
	}
	// Assume success while the pair is being decided so recursive member
	// references terminate.
	c.memo[key] = true
	result := c.assignable(source, target)
	c.memo[key] = result
	return result
}

func (c *Compat) assignable(source, target Type) bool {
	// Universal sinks and sources.
	if target == ANY || target == UNKNOWN || source == ANY {
		return true
	}
	if source == NEVER {
		return true
	}
	if target == NEVER {
		return false
	}
	if Equals(source, target) {
		return true
	}

	// Unresolved instantiations compare by shape when available.
	if inst, ok := source.(*InstantiatedType); ok {
		return c.assignInstantiated(inst, target)
	}
	if inst, ok := target.(*InstantiatedType); ok {
		if sInst, ok2 := source.(*InstantiatedType); ok2 {
			return c.assignInstantiated(sInst, inst)
		}
		if inst.Expanded != nil {
			return c.Assignable(source, inst.Expanded)
		}
		return false
	}

	// null/undefined policy: when strict null checks are off, they are
	// assignable to everything except never.
	if !c.opts.StrictNullChecks && (source == NULL || source == UNDEFINED) {
		return true
	}

	// void accepts undefined.
	if target == VOID {
		return source == UNDEFINED || source == VOID
	}

	// Union source: every member must go to target.
	if su, ok := source.(*UnionType); ok {
		for _, m := range su.Members {
			if !c.Assignable(m, target) {
				return false
			}
		}
		return true
	}

	// Union target: some member must accept source.
	if tu, ok := target.(*UnionType); ok {
		for _, m := range tu.Members {
			if c.Assignable(source, m) {
				return true
			}
		}
		return false
	}

	// Intersection target: source must go to all members.
	if ti, ok := target.(*IntersectionType); ok {
		for _, m := range ti.Members {
			if !c.Assignable(source, m) {
				return false
			}
		}
		return true
	}

	// Intersection source: any member reaching the target suffices; shape
	// targets additionally see the merged member set.
	if si, ok := source.(*IntersectionType); ok {
		for _, m := range si.Members {
			if c.Assignable(m, target) {
				return true
			}
		}
		return c.assignShape(si, target)
	}

	switch t := target.(type) {
	case *PrimitiveType:
		return c.assignToPrimitive(source, t)
	case *LiteralType:
		if s, ok := source.(*LiteralType); ok {
			return Equals(s, t)
		}
		return false
	case *ArrayType:
		switch s := source.(type) {
		case *ArrayType:
			// Arrays are covariant in their element type.
			return c.Assignable(s.Element, t.Element)
		case *TupleType:
			for _, e := range s.Elements {
				if !c.Assignable(e, t.Element) {
					return false
				}
			}
			if s.Rest != nil && !c.Assignable(s.Rest, t.Element) {
				return false
			}
			return true
		}
		return false
	case *TupleType:
		s, ok := source.(*TupleType)
		if !ok {
			return false
		}
		return c.assignTuple(s, t)
	case *PromiseType:
		s, ok := source.(*PromiseType)
		if !ok {
			return false
		}
		// Promise is covariant as a special case.
		return c.Assignable(s.Awaited, t.Awaited)
	case *GeneratorType:
		s, ok := source.(*GeneratorType)
		if !ok {
			return false
		}
		return c.Assignable(s.Yield, t.Yield)
	case *FunctionType:
		s, ok := source.(*FunctionType)
		if !ok {
			return false
		}
		return c.assignFunction(s, t)
	case *RecordType, *InterfaceType:
		return c.assignShape(source, target)
	case *InstanceType:
		s, ok := source.(*InstanceType)
		if !ok {
			return false
		}
		// Instances are nominal: the source class must be the target class
		// or one of its descendants.
		return s.Class.DerivesFrom(t.Class)
	case *ClassType:
		s, ok := source.(*ClassType)
		if !ok {
			return false
		}
		return s.DerivesFrom(t)
	case *EnumType:
		if s, ok := source.(*EnumType); ok {
			return s.Key() == t.Key()
		}
		// A member literal re-enters its enum.
		if s, ok := source.(*LiteralType); ok {
			for _, m := range t.Members {
				if Equals(m.Type, s) {
					return true
				}
			}
		}
		return false
	case *TypeParameterType:
		// Only the parameter itself (or never/any, handled above) reaches a
		// bare type parameter.
		return false
	}

	return false
}

// assignToPrimitive handles primitive targets, literal widening and the
// strict-null policy.
func (c *Compat) assignToPrimitive(source Type, target *PrimitiveType) bool {
	switch s := source.(type) {
	case *PrimitiveType:
		if s == target {
			return true
		}
		return false
	case *LiteralType:
		// Literal types are assignable to their widened primitive.
		return s.Widened() == target
	case *EnumType:
		if target == NUMBER {
			for _, m := range s.Members {
				lit, ok := m.Type.(*LiteralType)
				if !ok || lit.Kind != LiteralNumber {
					return false
				}
			}
			return true
		}
		return false
	case *TypeParameterType:
		if s.Constraint != nil {
			return c.Assignable(s.Constraint, target)
		}
		return false
	}
	return false
}

// assignTuple checks element-wise tuple compatibility. The source must
// guarantee at least the target's required count and must not carry elements
// the target has no slot for.
func (c *Compat) assignTuple(s, t *TupleType) bool {
	if s.Required < t.Required {
		return false
	}
	for i, e := range s.Elements {
		if i < len(t.Elements) {
			if !c.Assignable(e, t.Elements[i]) {
				return false
			}
			continue
		}
		if t.Rest == nil {
			return false
		}
		if !c.Assignable(e, t.Rest) {
			return false
		}
	}
	if s.Rest != nil {
		if t.Rest == nil {
			return false
		}
		if !c.Assignable(s.Rest, t.Rest) {
			return false
		}
	}
	return true
}

// assignFunction checks callable compatibility: contravariant parameters,
// covariant return, and a required-count rule that lets a source accept
// fewer arguments than the target supplies.
func (c *Compat) assignFunction(s, t *FunctionType) bool {
	// The source must not require more arguments than the target can supply.
	supplied := len(t.Params)
	if t.HasRest {
		supplied = s.Required // rest target supplies arbitrarily many
	}
	if s.Required > supplied {
		return false
	}

	bivariant := c.opts.MethodBivariance && (s.IsMethod || t.IsMethod)

	limit := len(s.Params)
	if len(t.Params) < limit {
		limit = len(t.Params)
	}
	for i := 0; i < limit; i++ {
		sp, tp := s.Params[i].Type, t.Params[i].Type
		if bivariant {
			// Bivariance is an explicit compatibility mode, not an accident:
			// either direction satisfies the check.
			if !c.Assignable(tp, sp) && !c.Assignable(sp, tp) {
				return false
			}
			continue
		}
		// Contravariant: the target's parameter flows into the source's.
		if !c.Assignable(tp, sp) {
			return false
		}
	}

	// Source rest parameter must accept the target's remaining parameters.
	if s.HasRest {
		for i := limit; i < len(t.Params); i++ {
			if !c.Assignable(t.Params[i].Type, s.RestType) {
				return false
			}
		}
	}

	// Covariant return; a void target ignores the source's return value.
	if t.Return == VOID || t.Return == nil {
		return true
	}
	if s.Return == nil {
		return t.Return == VOID
	}
	return c.Assignable(s.Return, t.Return)
}

// shapeMember is a member view used for structural shape checks.
type shapeMember struct {
	typ       Type
	optional  bool
	readonly  bool
	hasSetter bool
}

// assignShape checks a source against a record or interface target:
// every required member of the target must exist in the source with a
// compatible type. Fresh object literals additionally reject excess
// properties; that check lives in ExcessProperties and is consulted by the
// semantic layer at the annotation site.
func (c *Compat) assignShape(source, target Type) bool {
	members, sIdx, nIdx := shapeMembers(target)
	if members == nil {
		return false
	}

	for name, tm := range members {
		sm, ok := c.memberOf(source, name)
		if !ok {
			if tm.optional {
				continue
			}
			return false
		}
		if !c.Assignable(sm.typ, tm.typ) {
			return false
		}
		// A readonly source member satisfies a mutable target member only
		// when the target member has no setter (interface properties).
		if sm.readonly && !tm.readonly && tm.hasSetter {
			return false
		}
	}

	// Index signatures on the target constrain all source members.
	if sIdx != nil {
		for _, f := range sourceFields(source) {
			if !c.Assignable(f.Type, sIdx) {
				return false
			}
		}
	}
	if nIdx != nil {
		if sArr, ok := source.(*ArrayType); ok {
			return c.Assignable(sArr.Element, nIdx)
		}
	}

	return true
}

// ExcessProperties returns the property names of a fresh object literal that
// have no counterpart in the target shape. Only fresh records report excess;
// the same value aliased through a non-annotated binding widens first and
// passes structurally.
func (c *Compat) ExcessProperties(source *RecordType, target Type) []string {
	if !source.Fresh {
		return nil
	}
	targets := collectShapeTargets(target)
	if len(targets) == 0 {
		return nil
	}

	var excess []string
	for _, f := range source.Fields {
		found := false
		for _, t := range targets {
			members, sIdx, nIdx := shapeMembers(t)
			if members == nil {
				continue
			}
			if _, ok := members[f.Name]; ok {
				found = true
				break
			}
			if sIdx != nil || nIdx != nil {
				found = true
				break
			}
		}
		if !found {
			excess = append(excess, f.Name)
		}
	}
	return excess
}

// collectShapeTargets gathers the record/interface constituents of a target
// type for excess-property checking. Union targets accept a property when any
// constituent declares it.
func collectShapeTargets(target Type) []Type {
	switch t := target.(type) {
	case *RecordType, *InterfaceType:
		return []Type{t}
	case *UnionType:
		var out []Type
		for _, m := range t.Members {
			out = append(out, collectShapeTargets(m)...)
		}
		return out
	case *IntersectionType:
		var out []Type
		for _, m := range t.Members {
			out = append(out, collectShapeTargets(m)...)
		}
		return out
	case *InstantiatedType:
		if t.Expanded != nil {
			return collectShapeTargets(t.Expanded)
		}
	}
	return nil
}

// shapeMembers returns the member table of a record or interface target
// along with its index signatures.
func shapeMembers(target Type) (map[string]shapeMember, Type, Type) {
	switch t := target.(type) {
	case *RecordType:
		out := make(map[string]shapeMember, len(t.Fields))
		for _, f := range t.Fields {
			out[f.Name] = shapeMember{typ: f.Type, optional: f.Optional, readonly: f.Readonly}
		}
		return out, t.StringIndex, t.NumberIndex
	case *InterfaceType:
		out := make(map[string]shapeMember)
		for _, f := range t.AllMembers() {
			out[f.Name] = shapeMember{typ: f.Type, optional: f.Optional, readonly: f.Readonly}
		}
		for name, m := range t.AllMethods() {
			out[name] = shapeMember{typ: m}
		}
		return out, t.StringIndex, t.NumberIndex
	}
	return nil, nil, nil
}

// sourceFields lists the named fields of a source for index-signature checks.
func sourceFields(source Type) []Field {
	switch s := source.(type) {
	case *RecordType:
		return s.Fields
	case *InterfaceType:
		return s.AllMembers()
	}
	return nil
}

// memberOf resolves a named member on an arbitrary source type.
// Class instances expose public members only; a getter satisfies a property
// via its return type.
func (c *Compat) memberOf(source Type, name string) (shapeMember, bool) {
	switch s := source.(type) {
	case *PrimitiveType:
		if s == STRING && name == "length" {
			return shapeMember{typ: NUMBER, readonly: true}, true
		}
	case *LiteralType:
		if s.Kind == LiteralString && name == "length" {
			return shapeMember{typ: NewNumberLiteral(float64(len(s.StrVal))), readonly: true}, true
		}
	case *ArrayType, *TupleType:
		if name == "length" {
			return shapeMember{typ: NUMBER, readonly: true}, true
		}
	}
	switch s := source.(type) {
	case *RecordType:
		if f, ok := s.Lookup(name); ok {
			return shapeMember{typ: f.Type, optional: f.Optional, readonly: f.Readonly}, true
		}
		if s.StringIndex != nil {
			return shapeMember{typ: s.StringIndex, optional: true}, true
		}
	case *InterfaceType:
		for _, f := range s.AllMembers() {
			if f.Name == name {
				return shapeMember{typ: f.Type, optional: f.Optional, readonly: f.Readonly}, true
			}
		}
		if m, ok := s.AllMethods()[name]; ok {
			return shapeMember{typ: m}, true
		}
	case *InstanceType:
		if m, ok := s.Class.LookupInstance(name); ok {
			if m.Access != AccessPublic {
				return shapeMember{}, false
			}
			if m.Getter != nil {
				// A getter with a matching return type satisfies a property.
				return shapeMember{typ: m.Getter.Return, readonly: m.Setter == nil, hasSetter: m.Setter != nil}, true
			}
			return shapeMember{typ: m.Type, readonly: m.Readonly}, true
		}
	case *IntersectionType:
		for _, member := range s.Members {
			if sm, ok := c.memberOf(member, name); ok {
				return sm, true
			}
		}
	case *InstantiatedType:
		if s.Expanded != nil {
			return c.memberOf(s.Expanded, name)
		}
	}
	return shapeMember{}, false
}

// assignInstantiated compares generic instances: the same definition is
// invariant in its type arguments; different definitions fall back to the
// expanded structural shapes.
func (c *Compat) assignInstantiated(source *InstantiatedType, target Type) bool {
	if t, ok := target.(*InstantiatedType); ok {
		if source.Definition.Key() == t.Definition.Key() {
			if len(source.Args) != len(t.Args) {
				return false
			}
			for i := range source.Args {
				if !Equals(source.Args[i], t.Args[i]) {
					return false
				}
			}
			return true
		}
		if source.Expanded != nil && t.Expanded != nil {
			return c.Assignable(source.Expanded, t.Expanded)
		}
		return false
	}
	if source.Expanded != nil {
		return c.Assignable(source.Expanded, target)
	}
	return false
}
