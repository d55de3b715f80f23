package types

import (
	"strings"
	"testing"
)

// ============================================================================
// Construction invariants
// ============================================================================

func TestUnionFlattensAndDeduplicates(t *testing.T) {
	inner := NewUnion(STRING, NUMBER)
	u := NewUnion(inner, NUMBER, BOOLEAN)

	union, ok := u.(*UnionType)
	if !ok {
		t.Fatalf("expected UnionType, got %T", u)
	}
	if len(union.Members) != 3 {
		t.Fatalf("expected 3 members, got %d: %s", len(union.Members), u.String())
	}
}

func TestUnionCollapsesSingleMember(t *testing.T) {
	if u := NewUnion(STRING, STRING); u != STRING {
		t.Errorf("expected string, got %s", u.String())
	}
	if u := NewUnion(); u != NEVER {
		t.Errorf("empty union must be never, got %s", u.String())
	}
	if u := NewUnion(STRING, NEVER); u != STRING {
		t.Errorf("never must vanish from unions, got %s", u.String())
	}
	if u := NewUnion(STRING, ANY); u != ANY {
		t.Errorf("any must absorb unions, got %s", u.String())
	}
}

func TestUnionKeyIsOrderIndependent(t *testing.T) {
	a := NewUnion(STRING, NUMBER, BOOLEAN)
	b := NewUnion(BOOLEAN, STRING, NUMBER)
	if !Equals(a, b) {
		t.Errorf("member order must not affect identity: %s vs %s", a.Key(), b.Key())
	}
}

func TestPromiseNeverNests(t *testing.T) {
	inner := NewPromise(NUMBER)
	outer := NewPromise(inner)

	if outer != inner {
		t.Errorf("Promise<Promise<T>> must normalize to Promise<T>, got %s", outer.String())
	}
	if outer.Awaited != NUMBER {
		t.Errorf("awaited type = %s, want number", outer.Awaited.String())
	}
}

func TestTupleRequiredInvariant(t *testing.T) {
	tup := NewTuple([]Type{NUMBER, STRING}, 5, nil)
	if tup.Required > len(tup.Elements) {
		t.Errorf("required %d exceeds element count %d", tup.Required, len(tup.Elements))
	}
}

func TestIntersectionNeverShortCircuits(t *testing.T) {
	if i := NewIntersection(STRING, NEVER); i != NEVER {
		t.Errorf("intersection with never must be never, got %s", i.String())
	}
}

// ============================================================================
// Assignability
// ============================================================================

func compat() *Compat {
	return NewCompat(CompatOptions{StrictNullChecks: true})
}

func TestPrimitiveAssignability(t *testing.T) {
	c := compat()

	tests := []struct {
		source Type
		target Type
		want   bool
	}{
		{NUMBER, NUMBER, true},
		{NUMBER, STRING, false},
		{NewStringLiteral("a"), STRING, true},
		{NewNumberLiteral(1), NUMBER, true},
		{NewStringLiteral("a"), NUMBER, false},
		{NEVER, NUMBER, true},
		{NUMBER, ANY, true},
		{NUMBER, UNKNOWN, true},
		{ANY, NUMBER, true},
		{NUMBER, NEVER, false},
		{UNDEFINED, NUMBER, false}, // strict null checks
		{NULL, STRING, false},
		{UNDEFINED, VOID, true},
	}

	for _, tt := range tests {
		if got := c.Assignable(tt.source, tt.target); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.source.String(), tt.target.String(), got, tt.want)
		}
	}
}

func TestNonStrictNullAssignability(t *testing.T) {
	c := NewCompat(CompatOptions{StrictNullChecks: false})
	if !c.Assignable(NULL, NUMBER) {
		t.Error("null -> number must hold without strict null checks")
	}
	if !c.Assignable(UNDEFINED, STRING) {
		t.Error("undefined -> string must hold without strict null checks")
	}
}

func TestUnionAssignability(t *testing.T) {
	c := compat()
	strOrNum := NewUnion(STRING, NUMBER)

	if !c.Assignable(STRING, strOrNum) {
		t.Error("string -> string|number must hold")
	}
	if !c.Assignable(strOrNum, NewUnion(STRING, NUMBER, BOOLEAN)) {
		t.Error("subset union must be assignable to superset")
	}
	if c.Assignable(strOrNum, STRING) {
		t.Error("string|number -> string must fail")
	}
}

func TestIntersectionAssignability(t *testing.T) {
	c := compat()
	a := NewRecord([]Field{{Name: "a", Type: NUMBER}})
	b := NewRecord([]Field{{Name: "b", Type: STRING}})
	both := NewIntersection(a, b)

	if !c.Assignable(both, a) {
		t.Error("A & B -> A must hold")
	}
	if !c.Assignable(both, b) {
		t.Error("A & B -> B must hold")
	}
	ab := NewRecord([]Field{{Name: "a", Type: NUMBER}, {Name: "b", Type: STRING}})
	if !c.Assignable(ab, both) {
		t.Error("{a, b} -> A & B must hold")
	}
}

func TestArrayCovariance(t *testing.T) {
	c := compat()
	lits := NewArray(NewNumberLiteral(1))
	nums := NewArray(NUMBER)

	if !c.Assignable(lits, nums) {
		t.Error("1[] -> number[] must hold (covariant)")
	}
	if c.Assignable(nums, lits) {
		t.Error("number[] -> 1[] must fail")
	}
}

func TestRecordStructuralAssignability(t *testing.T) {
	c := compat()
	target := NewRecord([]Field{{Name: "x", Type: NUMBER}})
	wider := NewRecord([]Field{{Name: "x", Type: NUMBER}, {Name: "y", Type: STRING}})
	missing := NewRecord([]Field{{Name: "y", Type: STRING}})

	if !c.Assignable(wider, target) {
		t.Error("extra members on a non-fresh source are ignored")
	}
	if c.Assignable(missing, target) {
		t.Error("missing required member must fail")
	}

	optTarget := NewRecord([]Field{{Name: "x", Type: NUMBER, Optional: true}})
	empty := NewRecord(nil)
	if !c.Assignable(empty, optTarget) {
		t.Error("optional members may be absent")
	}
}

func TestExcessPropertyOnFreshLiteral(t *testing.T) {
	c := compat()
	target := NewRecord([]Field{{Name: "a", Type: NUMBER}})

	fresh := NewRecord([]Field{{Name: "a", Type: NUMBER}, {Name: "b", Type: STRING}})
	fresh.Fresh = true

	excess := c.ExcessProperties(fresh, target)
	if len(excess) != 1 || excess[0] != "b" {
		t.Fatalf("excess = %v, want [b]", excess)
	}

	// Widening (rebinding) clears freshness; the structural path accepts it.
	widened := fresh.Widened()
	if widened.Fresh {
		t.Fatal("Widened must clear freshness")
	}
	if got := c.ExcessProperties(widened, target); got != nil {
		t.Errorf("widened literal must not report excess, got %v", got)
	}
	if !c.Assignable(widened, target) {
		t.Error("widened literal must remain structurally assignable")
	}
}

func TestFunctionVariance(t *testing.T) {
	c := compat()

	animal := NewRecord([]Field{{Name: "name", Type: STRING}})
	dog := NewRecord([]Field{{Name: "name", Type: STRING}, {Name: "breed", Type: STRING}})

	takesAnimal := &FunctionType{Params: []Param{{Name: "a", Type: animal}}, Required: 1, Return: VOID}
	takesDog := &FunctionType{Params: []Param{{Name: "d", Type: dog}}, Required: 1, Return: VOID}

	// Parameters are contravariant: (Animal) => void -> (Dog) => void.
	if !c.Assignable(takesAnimal, takesDog) {
		t.Error("(animal) => void -> (dog) => void must hold")
	}
	if c.Assignable(takesDog, takesAnimal) {
		t.Error("(dog) => void -> (animal) => void must fail")
	}

	// Returns are covariant.
	retDog := &FunctionType{Return: dog}
	retAnimal := &FunctionType{Return: animal}
	if !c.Assignable(retDog, retAnimal) {
		t.Error("() => dog -> () => animal must hold")
	}
	if c.Assignable(retAnimal, retDog) {
		t.Error("() => animal -> () => dog must fail")
	}

	// Fewer required parameters are acceptable.
	noArgs := &FunctionType{Return: VOID}
	if !c.Assignable(noArgs, takesAnimal) {
		t.Error("() => void -> (animal) => void must hold")
	}
}

func TestMethodBivariance(t *testing.T) {
	animal := NewRecord([]Field{{Name: "name", Type: STRING}})
	dog := NewRecord([]Field{{Name: "name", Type: STRING}, {Name: "breed", Type: STRING}})

	takesAnimal := &FunctionType{Params: []Param{{Type: animal}}, Required: 1, Return: VOID, IsMethod: true}
	takesDog := &FunctionType{Params: []Param{{Type: dog}}, Required: 1, Return: VOID, IsMethod: true}

	strict := NewCompat(CompatOptions{StrictNullChecks: true})
	if strict.Assignable(takesDog, takesAnimal) {
		t.Error("method positions stay contravariant without the bivariance flag")
	}

	biv := NewCompat(CompatOptions{StrictNullChecks: true, MethodBivariance: true})
	if !biv.Assignable(takesDog, takesAnimal) {
		t.Error("bivariant mode must accept the narrower method parameter")
	}
}

func TestClassNominalIdentity(t *testing.T) {
	c := compat()

	// Same source name in distinct modules: distinct identities.
	a := NewClass("Point", "modA")
	b := NewClass("Point", "modB")
	ia, ib := NewInstance(a), NewInstance(b)

	if c.Assignable(ia, ib) {
		t.Error("identically named classes in distinct modules must be distinct")
	}

	base := NewClass("Base", "m")
	derived := NewClass("Derived", "m")
	derived.Super = base

	if !c.Assignable(NewInstance(derived), NewInstance(base)) {
		t.Error("derived instance -> base instance must hold")
	}
	if c.Assignable(NewInstance(base), NewInstance(derived)) {
		t.Error("base instance -> derived instance must fail")
	}
}

func TestClassStructuralAgainstInterface(t *testing.T) {
	c := compat()

	iface := NewInterface("Named", "m")
	iface.Members = []Field{{Name: "name", Type: STRING}}

	cls := NewClass("Person", "m")
	cls.Instance = []*ClassMemberInfo{{Name: "name", Type: STRING, Access: AccessPublic}}

	if !c.Assignable(NewInstance(cls), iface) {
		t.Error("class with matching public members must satisfy the interface")
	}

	hidden := NewClass("Secret", "m")
	hidden.Instance = []*ClassMemberInfo{{Name: "name", Type: STRING, Access: AccessPrivate}}
	if c.Assignable(NewInstance(hidden), iface) {
		t.Error("private members must not satisfy interface requirements")
	}
}

func TestGetterSatisfiesProperty(t *testing.T) {
	c := compat()

	iface := NewInterface("HasX", "m")
	iface.Members = []Field{{Name: "x", Type: NUMBER}}

	cls := NewClass("C", "m")
	cls.Instance = []*ClassMemberInfo{{
		Name:   "x",
		Access: AccessPublic,
		Getter: &FunctionType{Return: NUMBER},
	}}

	if !c.Assignable(NewInstance(cls), iface) {
		t.Error("getter with matching return type must satisfy the property")
	}
}

func TestTupleAssignability(t *testing.T) {
	c := compat()

	pair := NewTuple([]Type{NUMBER, STRING}, 2, nil)
	same := NewTuple([]Type{NUMBER, STRING}, 2, nil)
	shorter := NewTuple([]Type{NUMBER}, 1, nil)
	withOpt := NewTuple([]Type{NUMBER, STRING}, 1, nil)

	if !c.Assignable(pair, same) {
		t.Error("identical tuples must be assignable")
	}
	if c.Assignable(shorter, pair) {
		t.Error("shorter tuple must not satisfy a longer required tuple")
	}
	if !c.Assignable(pair, withOpt) {
		t.Error("tuple with met optional slot must accept a full tuple")
	}
	if !c.Assignable(pair, NewArray(NewUnion(NUMBER, STRING))) {
		t.Error("tuple -> compatible array must hold")
	}
}

// ============================================================================
// keyof / mapped / indexed access
// ============================================================================

func TestKeyofRecord(t *testing.T) {
	rec := NewRecord([]Field{{Name: "a", Type: NUMBER}, {Name: "b", Type: STRING}})
	k := Keyof(rec)

	u, ok := k.(*UnionType)
	if !ok {
		t.Fatalf("keyof must yield a union, got %s", k.String())
	}
	if len(u.Members) != 2 {
		t.Fatalf("expected 2 keys, got %s", k.String())
	}
}

func TestKeyofUnionIntersectsKeys(t *testing.T) {
	a := NewRecord([]Field{{Name: "shared", Type: NUMBER}, {Name: "onlyA", Type: NUMBER}})
	b := NewRecord([]Field{{Name: "shared", Type: STRING}, {Name: "onlyB", Type: STRING}})

	k := Keyof(NewUnion(a, b))
	if !Equals(k, NewStringLiteral("shared")) {
		t.Errorf("keyof (A | B) = %s, want \"shared\"", k.String())
	}

	// keyof (A | B) ⊆ keyof A and ⊆ keyof B.
	c := compat()
	if !c.Assignable(k, Keyof(a)) || !c.Assignable(k, Keyof(b)) {
		t.Error("keyof (A|B) must be a subset of both keyof A and keyof B")
	}
}

func TestKeyofIntersectionUnionsKeys(t *testing.T) {
	a := NewRecord([]Field{{Name: "x", Type: NUMBER}})
	b := NewRecord([]Field{{Name: "y", Type: STRING}})

	k := Keyof(NewIntersection(a, b))
	u, ok := k.(*UnionType)
	if !ok || len(u.Members) != 2 {
		t.Errorf("keyof (A & B) = %s, want the union of both key sets", k.String())
	}
}

func TestKeyofAny(t *testing.T) {
	k := Keyof(ANY)
	want := NewUnion(STRING, NUMBER, SYMBOL)
	if !Equals(k, want) {
		t.Errorf("keyof any = %s, want string | number | symbol", k.String())
	}
}

func TestKeyofIndexSignatureWidens(t *testing.T) {
	rec := &RecordType{
		Fields:      []Field{{Name: "a", Type: NUMBER}},
		StringIndex: BOOLEAN,
	}
	k := Keyof(rec)
	c := compat()
	if !c.Assignable(STRING, k) {
		t.Errorf("string index signature must widen keyof to include string, got %s", k.String())
	}
}

func TestIndexedAccess(t *testing.T) {
	rec := NewRecord([]Field{{Name: "a", Type: NUMBER}, {Name: "b", Type: STRING}})

	if got := IndexedAccess(rec, NewStringLiteral("a")); got != NUMBER {
		t.Errorf("T[\"a\"] = %s, want number", got.String())
	}

	union := IndexedAccess(rec, NewUnion(NewStringLiteral("a"), NewStringLiteral("b")))
	if !Equals(union, NewUnion(NUMBER, STRING)) {
		t.Errorf("T[\"a\" | \"b\"] = %s, want number | string", union.String())
	}

	idx := &RecordType{StringIndex: BOOLEAN}
	if got := IndexedAccess(idx, STRING); got != BOOLEAN {
		t.Errorf("T[string] = %s, want boolean (string index signature)", got.String())
	}

	arr := NewArray(NUMBER)
	if got := IndexedAccess(arr, NUMBER); got != NUMBER {
		t.Errorf("number[][number] = %s, want number", got.String())
	}
}

func TestMappedTypeExpansion(t *testing.T) {
	src := NewRecord([]Field{{Name: "a", Type: NUMBER}, {Name: "b", Type: STRING}})
	param := NewTypeParameter("K", nil)

	// { [K in keyof T]?: T[K] } over T = {a: number; b: string}
	m := &MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: Keyof(src),
		Value:      &IndexedAccessType{Object: src, Index: param},
		Optional:   1,
	}

	expanded := ExpandMapped(m)
	rec, ok := expanded.(*RecordType)
	if !ok {
		t.Fatalf("expansion must yield a record, got %T", expanded)
	}
	if len(rec.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %s", rec.String())
	}
	for _, f := range rec.Fields {
		if !f.Optional {
			t.Errorf("field %s must be optional under +?", f.Name)
		}
	}
	a, _ := rec.Lookup("a")
	if a.Type != NUMBER {
		t.Errorf("a: %s, want number", a.Type.String())
	}
}

func TestMappedTypeIdempotence(t *testing.T) {
	src := NewRecord([]Field{{Name: "a", Type: NUMBER}})
	param := NewTypeParameter("K", nil)
	m := &MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: Keyof(src),
		Value:      &IndexedAccessType{Object: src, Index: param},
		Optional:   1,
	}

	first := ExpandMapped(m)
	second := ExpandMapped(m)
	if !Equals(first, second) {
		t.Errorf("expanding twice must produce equal types: %s vs %s", first.String(), second.String())
	}
}

func TestMappedTypeKeyRemapping(t *testing.T) {
	param := NewTypeParameter("K", nil)

	// { [K in keyof T as Uppercase<K>]: T[K] } — the checker reduces the
	// intrinsic; model the reduced result here.
	up, ok := ApplyStringIntrinsic("Uppercase", NewStringLiteral("a"))
	if !ok {
		t.Fatal("Uppercase must reduce a string literal")
	}
	m := &MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: NewStringLiteral("a"),
		Value:      NUMBER,
		As:         up,
	}

	expanded := ExpandMapped(m)
	rec := expanded.(*RecordType)
	if _, ok := rec.Lookup("A"); !ok {
		t.Errorf("remapped key A missing: %s", rec.String())
	}
}

func TestMappedTypeNeverDropsKey(t *testing.T) {
	param := NewTypeParameter("K", nil)
	m := &MappedType{
		ParamName:  "K",
		Param:      param,
		Constraint: NewStringLiteral("gone"),
		Value:      NUMBER,
		As:         NEVER,
	}
	expanded := ExpandMapped(m)
	rec := expanded.(*RecordType)
	if len(rec.Fields) != 0 {
		t.Errorf("as-clause never must drop the key: %s", rec.String())
	}
}

func TestStringIntrinsics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Uppercase", "abc", "ABC"},
		{"Lowercase", "ABC", "abc"},
		{"Capitalize", "abc", "Abc"},
		{"Uncapitalize", "Abc", "abc"},
	}
	for _, tt := range tests {
		got, ok := ApplyStringIntrinsic(tt.name, NewStringLiteral(tt.in))
		if !ok {
			t.Errorf("%s must apply", tt.name)
			continue
		}
		lit := got.(*LiteralType)
		if lit.StrVal != tt.want {
			t.Errorf("%s<%q> = %q, want %q", tt.name, tt.in, lit.StrVal, tt.want)
		}
	}

	if _, ok := ApplyStringIntrinsic("Reverse", NewStringLiteral("x")); ok {
		t.Error("unknown intrinsic must not apply")
	}
}

// ============================================================================
// Generics
// ============================================================================

func TestSubstitute(t *testing.T) {
	tp := NewTypeParameter("T", nil)
	sub := make(Substitution)
	sub.Bind(tp, NUMBER)

	arr := NewArray(tp)
	if got := Substitute(arr, sub); got.Key() != NewArray(NUMBER).Key() {
		t.Errorf("T[] with T=number = %s", got.String())
	}

	fn := &FunctionType{Params: []Param{{Name: "x", Type: tp}}, Required: 1, Return: tp}
	got := Substitute(fn, sub).(*FunctionType)
	if got.Params[0].Type != NUMBER || got.Return != NUMBER {
		t.Errorf("substituted function = %s", got.String())
	}
}

func TestInstantiateAlias(t *testing.T) {
	tp := NewTypeParameter("T", nil)
	alias := NewGenericAlias("Box", "m", []*TypeParameterType{tp},
		NewRecord([]Field{{Name: "value", Type: tp}}))

	inst := InstantiateAlias(alias, []Type{STRING})
	rec := inst.Expanded.(*RecordType)
	v, _ := rec.Lookup("value")
	if v.Type != STRING {
		t.Errorf("Box<string>.value = %s, want string", v.Type.String())
	}
	if inst.String() != "Box<string>" {
		t.Errorf("String() = %q", inst.String())
	}
}

func TestInstantiatedInvariance(t *testing.T) {
	c := compat()
	tp := NewTypeParameter("T", nil)
	alias := NewGenericAlias("Box", "m", []*TypeParameterType{tp},
		NewRecord([]Field{{Name: "value", Type: tp}}))

	boxLit := InstantiateAlias(alias, []Type{NewNumberLiteral(1)})
	boxNum := InstantiateAlias(alias, []Type{NUMBER})

	// Generic instances are invariant in their arguments by default.
	if c.Assignable(boxLit, boxNum) {
		t.Error("Box<1> -> Box<number> must fail (invariant)")
	}
	if !c.Assignable(boxNum, InstantiateAlias(alias, []Type{NUMBER})) {
		t.Error("Box<number> -> Box<number> must hold")
	}
}

func TestInference(t *testing.T) {
	c := compat()
	tp := NewTypeParameter("T", nil)
	ic := NewInferenceContext(c, []*TypeParameterType{tp})

	// f<T>(x: T, y: T) called with (1, "s"): T = 1 | "s" via LUB.
	ic.Observe(tp, NewNumberLiteral(1))
	ic.Observe(tp, NewStringLiteral("s"))

	sub, violations := ic.Solve()
	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	sol := sub[tp.Key()]
	if _, ok := sol.(*UnionType); !ok {
		t.Errorf("T = %s, want a union", sol.String())
	}
}

func TestInferenceThroughStructure(t *testing.T) {
	c := compat()
	tp := NewTypeParameter("T", nil)
	ic := NewInferenceContext(c, []*TypeParameterType{tp})

	// f<T>(xs: T[]) called with number[]: T = number.
	ic.Observe(NewArray(tp), NewArray(NUMBER))
	sub, _ := ic.Solve()
	if sub[tp.Key()] != NUMBER {
		t.Errorf("T = %s, want number", sub[tp.Key()].String())
	}
}

func TestInferenceDefaultsToConstraint(t *testing.T) {
	c := compat()
	constrained := NewTypeParameter("T", STRING)
	ic := NewInferenceContext(c, []*TypeParameterType{constrained})

	sub, violations := ic.Solve()
	if len(violations) != 0 {
		t.Fatalf("unexpected violations")
	}
	if sub[constrained.Key()] != STRING {
		t.Errorf("unobserved T must default to its constraint, got %s", sub[constrained.Key()].String())
	}
}

func TestInferenceConstraintViolation(t *testing.T) {
	c := compat()
	constrained := NewTypeParameter("T", STRING)
	ic := NewInferenceContext(c, []*TypeParameterType{constrained})

	ic.Observe(constrained, NUMBER)
	_, violations := ic.Solve()
	if len(violations) != 1 {
		t.Fatalf("expected one constraint violation, got %d", len(violations))
	}
}

// ============================================================================
// Misc
// ============================================================================

func TestWiden(t *testing.T) {
	if Widen(NewNumberLiteral(3)) != NUMBER {
		t.Error("number literal must widen to number")
	}
	if Widen(NewStringLiteral("a")) != STRING {
		t.Error("string literal must widen to string")
	}

	fresh := NewRecord([]Field{{Name: "a", Type: NUMBER}})
	fresh.Fresh = true
	if Widen(fresh).(*RecordType).Fresh {
		t.Error("widening must clear record freshness")
	}
}

func TestAwaited(t *testing.T) {
	if Awaited(NewPromise(NUMBER)) != NUMBER {
		t.Error("Awaited(Promise<number>) must be number")
	}
	if Awaited(STRING) != STRING {
		t.Error("Awaited must pass non-promises through")
	}
}

func TestTypeStrings(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{NUMBER, "number"},
		{NewArray(NUMBER), "number[]"},
		{NewArray(NewUnion(STRING, NUMBER)), "(string | number)[]"},
		{NewPromise(VOID), "Promise<void>"},
		{NewTuple([]Type{NUMBER, STRING}, 2, nil), "[number, string]"},
		{NewStringLiteral("hi"), `"hi"`},
		{NewNumberLiteral(4), "4"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsNullish(t *testing.T) {
	if !IsNullish(NULL) || !IsNullish(UNDEFINED) {
		t.Error("null and undefined are nullish")
	}
	if !IsNullish(NewUnion(NULL, UNDEFINED)) {
		t.Error("null | undefined is nullish")
	}
	if IsNullish(NewUnion(NULL, NUMBER)) {
		t.Error("null | number is not wholly nullish")
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{1.5, "1.5"},
		{-3, "-3"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if !strings.Contains(FormatNumber(0.1), "0.1") {
		t.Error("0.1 must render as 0.1")
	}
}
