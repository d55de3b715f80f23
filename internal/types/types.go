// Package types implements the TScript structural type system: primitives,
// literal types, unions, intersections, tuples, records, interfaces, classes,
// functions, promises, generators, generics, and the keyof/mapped/indexed
// type operators. Types are immutable after construction; constructors
// normalize (unions flatten and deduplicate, promises never nest) so that
// structural equality can be decided on canonical keys.
package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type is the interface implemented by all TScript types.
type Type interface {
	// String returns the source-shaped name of the type.
	String() string
	// TypeKind returns the kind tag, e.g. "NUMBER", "UNION", "CLASS".
	TypeKind() string
	// Key returns a canonical identity string. Structural types derive the
	// key from their shape; classes, interfaces and enums use a nominal
	// identity under their declaring module.
	Key() string
}

// ============================================================================
// Primitives and special types
// ============================================================================

// PrimitiveKind enumerates the built-in primitive and special types.
type PrimitiveKind int

const (
	KindNumber PrimitiveKind = iota
	KindString
	KindBoolean
	KindNull
	KindUndefined
	KindAny
	KindUnknown
	KindVoid
	KindNever
	KindSymbol
	KindBigInt
)

// PrimitiveType represents a built-in primitive or special type.
type PrimitiveType struct {
	Kind PrimitiveKind
	name string
	kind string
}

func (p *PrimitiveType) String() string   { return p.name }
func (p *PrimitiveType) TypeKind() string { return p.kind }
func (p *PrimitiveType) Key() string      { return p.name }

// Singleton primitive types. Pointer equality is safe for these.
var (
	NUMBER    = &PrimitiveType{Kind: KindNumber, name: "number", kind: "NUMBER"}
	STRING    = &PrimitiveType{Kind: KindString, name: "string", kind: "STRING"}
	BOOLEAN   = &PrimitiveType{Kind: KindBoolean, name: "boolean", kind: "BOOLEAN"}
	NULL      = &PrimitiveType{Kind: KindNull, name: "null", kind: "NULL"}
	UNDEFINED = &PrimitiveType{Kind: KindUndefined, name: "undefined", kind: "UNDEFINED"}
	ANY       = &PrimitiveType{Kind: KindAny, name: "any", kind: "ANY"}
	UNKNOWN   = &PrimitiveType{Kind: KindUnknown, name: "unknown", kind: "UNKNOWN"}
	VOID      = &PrimitiveType{Kind: KindVoid, name: "void", kind: "VOID"}
	NEVER     = &PrimitiveType{Kind: KindNever, name: "never", kind: "NEVER"}
	SYMBOL    = &PrimitiveType{Kind: KindSymbol, name: "symbol", kind: "SYMBOL"}
	BIGINT    = &PrimitiveType{Kind: KindBigInt, name: "bigint", kind: "BIGINT"}
)

// ============================================================================
// Literal types
// ============================================================================

// LiteralKind enumerates literal type flavors.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
)

// LiteralType represents a string, number or boolean literal type.
type LiteralType struct {
	Kind    LiteralKind
	StrVal  string
	NumVal  float64
	BoolVal bool
}

// NewStringLiteral creates the literal type for a string value.
func NewStringLiteral(v string) *LiteralType {
	return &LiteralType{Kind: LiteralString, StrVal: v}
}

// NewNumberLiteral creates the literal type for a number value.
func NewNumberLiteral(v float64) *LiteralType {
	return &LiteralType{Kind: LiteralNumber, NumVal: v}
}

// NewBooleanLiteral creates the literal type for a boolean value.
func NewBooleanLiteral(v bool) *LiteralType {
	return &LiteralType{Kind: LiteralBoolean, BoolVal: v}
}

func (l *LiteralType) String() string {
	switch l.Kind {
	case LiteralString:
		return strconv.Quote(l.StrVal)
	case LiteralNumber:
		return FormatNumber(l.NumVal)
	default:
		return strconv.FormatBool(l.BoolVal)
	}
}

func (l *LiteralType) TypeKind() string { return "LITERAL" }

func (l *LiteralType) Key() string { return "lit:" + l.String() }

// Widened returns the primitive type a literal widens to.
func (l *LiteralType) Widened() *PrimitiveType {
	switch l.Kind {
	case LiteralString:
		return STRING
	case LiteralNumber:
		return NUMBER
	default:
		return BOOLEAN
	}
}

// FormatNumber renders a float the way the runtime prints numbers: integral
// values without a decimal point, everything else in shortest form.
func FormatNumber(v float64) string {
	if v == float64(int64(v)) && v < 1e15 && v > -1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ============================================================================
// Array, tuple
// ============================================================================

// ArrayType represents T[]. Covariant in its element type.
type ArrayType struct {
	Element Type
}

// NewArray creates an array type.
func NewArray(elem Type) *ArrayType {
	return &ArrayType{Element: elem}
}

func (a *ArrayType) String() string {
	if needsParens(a.Element) {
		return "(" + a.Element.String() + ")[]"
	}
	return a.Element.String() + "[]"
}
func (a *ArrayType) TypeKind() string { return "ARRAY" }
func (a *ArrayType) Key() string      { return "arr:" + a.Element.Key() }

// TupleType represents [A, B?, ...C[]]. Required is the count of leading
// non-optional elements; Rest is nil when no rest element is declared.
// Invariant: len(Elements) >= Required.
type TupleType struct {
	Elements []Type
	Required int
	Rest     Type
}

// NewTuple creates a tuple type.
func NewTuple(elems []Type, required int, rest Type) *TupleType {
	if required > len(elems) {
		required = len(elems)
	}
	return &TupleType{Elements: elems, Required: required, Rest: rest}
}

func (t *TupleType) String() string {
	parts := make([]string, 0, len(t.Elements)+1)
	for i, e := range t.Elements {
		s := e.String()
		if i >= t.Required {
			s += "?"
		}
		parts = append(parts, s)
	}
	if t.Rest != nil {
		parts = append(parts, "..."+t.Rest.String()+"[]")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (t *TupleType) TypeKind() string { return "TUPLE" }
func (t *TupleType) Key() string {
	parts := make([]string, 0, len(t.Elements)+2)
	for _, e := range t.Elements {
		parts = append(parts, e.Key())
	}
	parts = append(parts, fmt.Sprintf("req=%d", t.Required))
	if t.Rest != nil {
		parts = append(parts, "rest="+t.Rest.Key())
	}
	return "tup:[" + strings.Join(parts, ",") + "]"
}

// ============================================================================
// Union, intersection
// ============================================================================

// UnionType represents A | B. Always flattened and deduplicated; never holds
// fewer than two members (constructors collapse smaller cases).
type UnionType struct {
	Members []Type
}

// NewUnion constructs a union, flattening nested unions and deduplicating
// members by canonical key. A single surviving member is returned unwrapped;
// an empty union is never. Literals absorbed by their widened primitive are
// kept (they matter for narrowing); `any` absorbs everything.
func NewUnion(members ...Type) Type {
	var flat []Type
	seen := make(map[string]bool)

	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		if t == NEVER {
			return
		}
		k := t.Key()
		if !seen[k] {
			seen[k] = true
			flat = append(flat, t)
		}
	}
	for _, m := range members {
		add(m)
	}

	for _, m := range flat {
		if m == ANY {
			return ANY
		}
	}

	switch len(flat) {
	case 0:
		return NEVER
	case 1:
		return flat[0]
	}
	return &UnionType{Members: flat}
}

func (u *UnionType) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (u *UnionType) TypeKind() string { return "UNION" }
func (u *UnionType) Key() string {
	keys := make([]string, len(u.Members))
	for i, m := range u.Members {
		keys[i] = m.Key()
	}
	sort.Strings(keys)
	return "uni:(" + strings.Join(keys, "|") + ")"
}

// IntersectionType represents A & B.
type IntersectionType struct {
	Members []Type
}

// NewIntersection constructs an intersection, flattening and deduplicating.
func NewIntersection(members ...Type) Type {
	var flat []Type
	seen := make(map[string]bool)

	var add func(t Type)
	add = func(t Type) {
		if i, ok := t.(*IntersectionType); ok {
			for _, m := range i.Members {
				add(m)
			}
			return
		}
		if t == UNKNOWN {
			return
		}
		k := t.Key()
		if !seen[k] {
			seen[k] = true
			flat = append(flat, t)
		}
	}
	for _, m := range members {
		add(m)
	}

	for _, m := range flat {
		if m == NEVER {
			return NEVER
		}
	}

	switch len(flat) {
	case 0:
		return UNKNOWN
	case 1:
		return flat[0]
	}
	return &IntersectionType{Members: flat}
}

func (i *IntersectionType) String() string {
	parts := make([]string, len(i.Members))
	for j, m := range i.Members {
		parts[j] = m.String()
	}
	return strings.Join(parts, " & ")
}
func (i *IntersectionType) TypeKind() string { return "INTERSECTION" }
func (i *IntersectionType) Key() string {
	keys := make([]string, len(i.Members))
	for j, m := range i.Members {
		keys[j] = m.Key()
	}
	sort.Strings(keys)
	return "int:(" + strings.Join(keys, "&") + ")"
}

// ============================================================================
// Record (object shape)
// ============================================================================

// Field is one named member of a record, interface or class shape.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
}

// RecordType represents an object shape: named fields plus optional index
// signatures. Fresh records come from object literal expressions and carry
// their origin so excess-property checks fire only at the literal's own
// assignment or argument site.
type RecordType struct {
	Fields      []Field
	StringIndex Type // nil when absent
	NumberIndex Type // nil when absent
	Fresh       bool
	Origin      any // the originating AST node for fresh literals
}

// NewRecord creates a record type from an ordered field list.
func NewRecord(fields []Field) *RecordType {
	return &RecordType{Fields: fields}
}

// Widened returns a non-fresh copy of a fresh record; non-fresh records
// return themselves. Rebinding a literal loses freshness.
func (r *RecordType) Widened() *RecordType {
	if !r.Fresh {
		return r
	}
	return &RecordType{
		Fields:      r.Fields,
		StringIndex: r.StringIndex,
		NumberIndex: r.NumberIndex,
	}
}

// Lookup returns the field with the given name.
func (r *RecordType) Lookup(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (r *RecordType) String() string {
	parts := make([]string, 0, len(r.Fields)+2)
	for _, f := range r.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		ro := ""
		if f.Readonly {
			ro = "readonly "
		}
		parts = append(parts, ro+f.Name+opt+": "+f.Type.String())
	}
	if r.StringIndex != nil {
		parts = append(parts, "[key: string]: "+r.StringIndex.String())
	}
	if r.NumberIndex != nil {
		parts = append(parts, "[key: number]: "+r.NumberIndex.String())
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
func (r *RecordType) TypeKind() string { return "RECORD" }
func (r *RecordType) Key() string {
	parts := make([]string, 0, len(r.Fields)+2)
	for _, f := range r.Fields {
		k := f.Name + ":" + f.Type.Key()
		if f.Optional {
			k += "?"
		}
		if f.Readonly {
			k = "ro!" + k
		}
		parts = append(parts, k)
	}
	if r.StringIndex != nil {
		parts = append(parts, "[s]:"+r.StringIndex.Key())
	}
	if r.NumberIndex != nil {
		parts = append(parts, "[n]:"+r.NumberIndex.Key())
	}
	return "rec:{" + strings.Join(parts, ";") + "}"
}

// ============================================================================
// Function
// ============================================================================

// Param is one parameter of a function type.
type Param struct {
	Name     string
	Type     Type
	Optional bool
}

// Predicate is a user-defined type guard return annotation: param is T.
type Predicate struct {
	ParamName string
	Type      Type
}

// FunctionType represents a callable signature. Required counts parameters
// without optional flag or default; HasRest marks a trailing rest parameter
// whose Type is the rest element type (not the array).
type FunctionType struct {
	Params     []Param
	Return     Type
	Required   int
	HasRest    bool
	RestType   Type
	TypeParams []*TypeParameterType // non-empty for generic functions
	Predicate  *Predicate           // non-nil for type guards
	IsMethod   bool                 // method positions may check bivariantly
	IsAsync    bool
}

func (f *FunctionType) String() string {
	parts := make([]string, 0, len(f.Params)+1)
	for i, p := range f.Params {
		s := p.Name
		if s == "" {
			s = "arg" + strconv.Itoa(i)
		}
		if p.Optional {
			s += "?"
		}
		parts = append(parts, s+": "+p.Type.String())
	}
	if f.HasRest {
		parts = append(parts, "..."+"rest: "+f.RestType.String()+"[]")
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.String()
	}
	tp := ""
	if len(f.TypeParams) > 0 {
		names := make([]string, len(f.TypeParams))
		for i, t := range f.TypeParams {
			names[i] = t.Name
		}
		tp = "<" + strings.Join(names, ", ") + ">"
	}
	return tp + "(" + strings.Join(parts, ", ") + ") => " + ret
}
func (f *FunctionType) TypeKind() string { return "FUNCTION" }
func (f *FunctionType) Key() string {
	parts := make([]string, 0, len(f.Params)+2)
	for _, p := range f.Params {
		k := p.Type.Key()
		if p.Optional {
			k += "?"
		}
		parts = append(parts, k)
	}
	if f.HasRest {
		parts = append(parts, "..."+f.RestType.Key())
	}
	ret := "void"
	if f.Return != nil {
		ret = f.Return.Key()
	}
	return fmt.Sprintf("fn:(%s)=>%s req=%d", strings.Join(parts, ","), ret, f.Required)
}

// ============================================================================
// Promise, generator
// ============================================================================

// PromiseType represents Promise<T>. Construction collapses nested promises:
// Promise<Promise<T>> is Promise<T>.
type PromiseType struct {
	Awaited Type
}

// NewPromise creates a promise type, unwrapping a nested promise argument.
func NewPromise(awaited Type) *PromiseType {
	if p, ok := awaited.(*PromiseType); ok {
		return p
	}
	return &PromiseType{Awaited: awaited}
}

func (p *PromiseType) String() string   { return "Promise<" + p.Awaited.String() + ">" }
func (p *PromiseType) TypeKind() string { return "PROMISE" }
func (p *PromiseType) Key() string      { return "prom:" + p.Awaited.Key() }

// GeneratorType represents Generator<Y>.
type GeneratorType struct {
	Yield Type
}

// NewGenerator creates a generator type.
func NewGenerator(yield Type) *GeneratorType {
	return &GeneratorType{Yield: yield}
}

func (g *GeneratorType) String() string   { return "Generator<" + g.Yield.String() + ">" }
func (g *GeneratorType) TypeKind() string { return "GENERATOR" }
func (g *GeneratorType) Key() string      { return "gen:" + g.Yield.Key() }

// ============================================================================
// Nominal types: interface, class, enum
// ============================================================================

var nominalCounter int

func nextNominalID() int {
	nominalCounter++
	return nominalCounter
}

// InterfaceType represents a named interface. Identity is nominal under the
// declaring module; compatibility checks remain structural over Members.
type InterfaceType struct {
	Name        string
	Module      string
	Members     []Field
	Methods     map[string]*FunctionType
	StringIndex Type
	NumberIndex Type
	TypeParams  []*TypeParameterType
	Extends     []*InterfaceType
	id          int
}

// NewInterface creates an interface type with a fresh nominal identity.
func NewInterface(name, module string) *InterfaceType {
	return &InterfaceType{
		Name:    name,
		Module:  module,
		Methods: make(map[string]*FunctionType),
		id:      nextNominalID(),
	}
}

func (i *InterfaceType) String() string   { return i.Name }
func (i *InterfaceType) TypeKind() string { return "INTERFACE" }
func (i *InterfaceType) Key() string      { return fmt.Sprintf("ifc:%s/%s#%d", i.Module, i.Name, i.id) }

// AllMembers returns the interface's own and inherited members, own first.
func (i *InterfaceType) AllMembers() []Field {
	fields := append([]Field{}, i.Members...)
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Name] = true
	}
	for _, ext := range i.Extends {
		for _, f := range ext.AllMembers() {
			if !seen[f.Name] {
				seen[f.Name] = true
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// AllMethods returns the interface's own and inherited method signatures.
func (i *InterfaceType) AllMethods() map[string]*FunctionType {
	out := make(map[string]*FunctionType)
	for _, ext := range i.Extends {
		for name, m := range ext.AllMethods() {
			out[name] = m
		}
	}
	for name, m := range i.Methods {
		out[name] = m
	}
	return out
}

// ClassMemberInfo describes one class member for compatibility checks.
type ClassMemberInfo struct {
	Name     string
	Type     Type
	Access   int // 0 public, 1 protected, 2 private
	Readonly bool
	Static   bool
	Abstract bool
	IsMethod bool
	Getter   *FunctionType // non-nil when an accessor pair exists
	Setter   *FunctionType
}

// Access levels for class members.
const (
	AccessPublic = iota
	AccessProtected
	AccessPrivate
)

// ClassType represents a class declaration. Classes are nominally identified
// under their declaring module: two classes with the same source name in
// distinct modules are distinct types.
type ClassType struct {
	Name        string
	Module      string
	Super       *ClassType
	Instance    []*ClassMemberInfo
	Static      []*ClassMemberInfo
	Constructor *FunctionType
	Implements  []*InterfaceType
	TypeParams  []*TypeParameterType
	Abstract    bool
	id          int
}

// NewClass creates a class type with a fresh nominal identity.
func NewClass(name, module string) *ClassType {
	return &ClassType{Name: name, Module: module, id: nextNominalID()}
}

func (c *ClassType) String() string   { return "typeof " + c.Name }
func (c *ClassType) TypeKind() string { return "CLASS" }
func (c *ClassType) Key() string      { return fmt.Sprintf("cls:%s/%s#%d", c.Module, c.Name, c.id) }

// LookupInstance finds an instance member by name, walking the superclass
// chain.
func (c *ClassType) LookupInstance(name string) (*ClassMemberInfo, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		for _, m := range cls.Instance {
			if m.Name == name {
				return m, true
			}
		}
	}
	return nil, false
}

// LookupStatic finds a static member by name, walking the superclass chain.
func (c *ClassType) LookupStatic(name string) (*ClassMemberInfo, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		for _, m := range cls.Static {
			if m.Name == name {
				return m, true
			}
		}
	}
	return nil, false
}

// DerivesFrom reports whether c is other or inherits from other.
func (c *ClassType) DerivesFrom(other *ClassType) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls.id == other.id {
			return true
		}
	}
	return false
}

// InstanceType is the type of values constructed from a class.
type InstanceType struct {
	Class *ClassType
}

// NewInstance creates the instance type of a class.
func NewInstance(class *ClassType) *InstanceType {
	return &InstanceType{Class: class}
}

func (i *InstanceType) String() string   { return i.Class.Name }
func (i *InstanceType) TypeKind() string { return "INSTANCE" }
func (i *InstanceType) Key() string      { return "ins:" + i.Class.Key() }

// EnumType represents an enum declaration. Members are literal types.
type EnumType struct {
	Name    string
	Module  string
	Members []Field // field types are *LiteralType
	id      int
}

// NewEnum creates an enum type with a fresh nominal identity.
func NewEnum(name, module string) *EnumType {
	return &EnumType{Name: name, Module: module, id: nextNominalID()}
}

func (e *EnumType) String() string   { return e.Name }
func (e *EnumType) TypeKind() string { return "ENUM" }
func (e *EnumType) Key() string      { return fmt.Sprintf("enu:%s/%s#%d", e.Module, e.Name, e.id) }

// MemberUnion returns the union of all member literal types.
func (e *EnumType) MemberUnion() Type {
	members := make([]Type, len(e.Members))
	for i, m := range e.Members {
		members[i] = m.Type
	}
	return NewUnion(members...)
}

// ============================================================================
// Generics
// ============================================================================

// TypeParameterType represents an unresolved type parameter T, optionally
// constrained: T extends C.
type TypeParameterType struct {
	Name       string
	Constraint Type // nil when unconstrained
	id         int
}

// NewTypeParameter creates a type parameter.
func NewTypeParameter(name string, constraint Type) *TypeParameterType {
	return &TypeParameterType{Name: name, Constraint: constraint, id: nextNominalID()}
}

func (t *TypeParameterType) String() string   { return t.Name }
func (t *TypeParameterType) TypeKind() string { return "TYPE_PARAMETER" }
func (t *TypeParameterType) Key() string      { return fmt.Sprintf("tp:%s#%d", t.Name, t.id) }

// GenericAlias represents an uninstantiated generic type alias: its body
// still mentions the type parameters.
type GenericAlias struct {
	Name       string
	Module     string
	TypeParams []*TypeParameterType
	Body       Type
	id         int
}

// NewGenericAlias creates a generic alias definition.
func NewGenericAlias(name, module string, params []*TypeParameterType, body Type) *GenericAlias {
	return &GenericAlias{Name: name, Module: module, TypeParams: params, Body: body, id: nextNominalID()}
}

func (g *GenericAlias) String() string   { return g.Name }
func (g *GenericAlias) TypeKind() string { return "GENERIC_ALIAS" }
func (g *GenericAlias) Key() string      { return fmt.Sprintf("gal:%s/%s#%d", g.Module, g.Name, g.id) }

// InstantiatedType records a generic definition applied to concrete
// arguments. Expanded holds the substituted shape; the definition identity
// and arguments drive invariance checks for generic instances.
type InstantiatedType struct {
	Definition Type // *GenericAlias, *ClassType or *InterfaceType
	Args       []Type
	Expanded   Type
}

func (i *InstantiatedType) String() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.String()
	}
	name := ""
	switch d := i.Definition.(type) {
	case *GenericAlias:
		name = d.Name
	case *ClassType:
		name = d.Name
	case *InterfaceType:
		name = d.Name
	default:
		name = d.String()
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}
func (i *InstantiatedType) TypeKind() string { return "INSTANTIATED" }
func (i *InstantiatedType) Key() string {
	args := make([]string, len(i.Args))
	for j, a := range i.Args {
		args[j] = a.Key()
	}
	return "inst:" + i.Definition.Key() + "<" + strings.Join(args, ",") + ">"
}

// ============================================================================
// Type operators: keyof, mapped, indexed access
// ============================================================================

// KeyofType represents keyof T for an operand that is not yet resolvable
// (mentions type parameters). Resolvable operands reduce eagerly via Keyof.
type KeyofType struct {
	Operand Type
}

func (k *KeyofType) String() string   { return "keyof " + k.Operand.String() }
func (k *KeyofType) TypeKind() string { return "KEYOF" }
func (k *KeyofType) Key() string      { return "keyof:" + k.Operand.Key() }

// MappedType represents { [K in C as R]?: V }, expanded lazily when used.
type MappedType struct {
	ParamName  string
	Param      *TypeParameterType
	Constraint Type
	Value      Type
	As         Type // nil when no key remapping
	Optional   int  // +1 add, -1 remove, 0 keep
	Readonly   int
}

func (m *MappedType) String() string {
	opt := ""
	switch m.Optional {
	case 1:
		opt = "?"
	case -1:
		opt = "-?"
	}
	as := ""
	if m.As != nil {
		as = " as " + m.As.String()
	}
	return "{ [" + m.ParamName + " in " + m.Constraint.String() + as + "]" + opt + ": " + m.Value.String() + " }"
}
func (m *MappedType) TypeKind() string { return "MAPPED" }
func (m *MappedType) Key() string {
	return fmt.Sprintf("map:[%s in %s as %s]%d:%s",
		m.ParamName, m.Constraint.Key(), keyOrEmpty(m.As), m.Optional, m.Value.Key())
}

// IndexedAccessType represents T[K] for operands that are not yet
// resolvable. Resolvable forms reduce eagerly via IndexedAccess.
type IndexedAccessType struct {
	Object Type
	Index  Type
}

func (i *IndexedAccessType) String() string   { return i.Object.String() + "[" + i.Index.String() + "]" }
func (i *IndexedAccessType) TypeKind() string { return "INDEXED_ACCESS" }
func (i *IndexedAccessType) Key() string      { return "idx:" + i.Object.Key() + "[" + i.Index.Key() + "]" }

// ============================================================================
// Helpers
// ============================================================================

func keyOrEmpty(t Type) string {
	if t == nil {
		return ""
	}
	return t.Key()
}

func needsParens(t Type) bool {
	switch t.(type) {
	case *UnionType, *IntersectionType, *FunctionType:
		return true
	}
	return false
}

// Equals reports structural equality of two types via canonical keys.
func Equals(a, b Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Key() == b.Key()
}

// IsNullish reports whether a type is null, undefined or their union.
func IsNullish(t Type) bool {
	switch tt := t.(type) {
	case *PrimitiveType:
		return tt == NULL || tt == UNDEFINED
	case *UnionType:
		for _, m := range tt.Members {
			if !IsNullish(m) {
				return false
			}
		}
		return true
	}
	return false
}
