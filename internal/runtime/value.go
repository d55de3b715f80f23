// Package runtime provides the shared value model, environments, coercion
// rules, promises and the cooperative scheduler used by both execution
// strategies: the tree-walking interpreter and the bytecode VM.
package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// Value represents a runtime value. All runtime values implement this
// interface; the tag returned by Type() drives the dynamic helpers.
type Value interface {
	// Type returns the tag of the value, e.g. "NUMBER", "STRING".
	Type() string
	// String returns the display representation used by string conversion.
	String() string
}

// NumberValue represents a number (IEEE-754 double).
type NumberValue struct {
	Value float64
}

func (n *NumberValue) Type() string { return "NUMBER" }
func (n *NumberValue) String() string {
	return types.FormatNumber(n.Value)
}

// StringValue represents a string value.
type StringValue struct {
	Value string
}

func (s *StringValue) Type() string   { return "STRING" }
func (s *StringValue) String() string { return s.Value }

// BooleanValue represents a boolean value.
type BooleanValue struct {
	Value bool
}

func (b *BooleanValue) Type() string { return "BOOLEAN" }
func (b *BooleanValue) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// NullValue represents null.
type NullValue struct{}

func (n *NullValue) Type() string   { return "NULL" }
func (n *NullValue) String() string { return "null" }

// UndefinedValue represents undefined.
type UndefinedValue struct{}

func (u *UndefinedValue) Type() string   { return "UNDEFINED" }
func (u *UndefinedValue) String() string { return "undefined" }

// Shared singletons for the unit-like values.
var (
	NULL      = &NullValue{}
	UNDEFINED = &UndefinedValue{}
	TRUE      = &BooleanValue{Value: true}
	FALSE     = &BooleanValue{Value: false}
)

// NewNumber boxes a float as a value.
func NewNumber(v float64) *NumberValue { return &NumberValue{Value: v} }

// NewString boxes a string as a value.
func NewString(v string) *StringValue { return &StringValue{Value: v} }

// NewBoolean returns the shared boolean singleton.
func NewBoolean(v bool) *BooleanValue {
	if v {
		return TRUE
	}
	return FALSE
}

// ArrayValue represents an ordered sequence of values.
type ArrayValue struct {
	Elements []Value
}

func (a *ArrayValue) Type() string { return "ARRAY" }
func (a *ArrayValue) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = Display(e)
	}
	return "[ " + strings.Join(parts, ", ") + " ]"
}

// ObjectValue represents an insertion-ordered map of string keys to values,
// with an optional prototype reference.
type ObjectValue struct {
	keys   []string
	values map[string]Value
	Proto  *ObjectValue
}

// NewObject creates an empty object.
func NewObject() *ObjectValue {
	return &ObjectValue{values: make(map[string]Value)}
}

func (o *ObjectValue) Type() string { return "OBJECT" }
func (o *ObjectValue) String() string {
	parts := make([]string, 0, len(o.keys))
	for _, k := range o.keys {
		parts = append(parts, k+": "+Display(o.values[k]))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// Get looks up a key, walking the prototype chain.
func (o *ObjectValue) Get(key string) (Value, bool) {
	if v, ok := o.values[key]; ok {
		return v, true
	}
	if o.Proto != nil {
		return o.Proto.Get(key)
	}
	return nil, false
}

// GetOwn looks up a key without consulting the prototype.
func (o *ObjectValue) GetOwn(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set writes a key, preserving first-insertion order.
func (o *ObjectValue) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes a key. Reports whether it existed.
func (o *ObjectValue) Delete(key string) bool {
	if _, exists := o.values[key]; !exists {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the own keys in insertion order.
func (o *ObjectValue) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of own keys.
func (o *ObjectValue) Len() int { return len(o.keys) }

// FunctionValue represents a user function: parameters, body and captured
// environment. Arrow functions capture `this` lexically via BoundThis.
type FunctionValue struct {
	Name        string
	Params      []*ast.Parameter
	Body        *ast.BlockStatement
	ExprBody    ast.Expression // concise arrow body
	Env         *Environment
	BoundThis   Value // non-nil for arrows and bound methods
	HasThis     bool  // true when BoundThis participates even if undefined
	IsArrow     bool
	IsAsync     bool
	IsGenerator bool
}

func (f *FunctionValue) Type() string { return "FUNCTION" }
func (f *FunctionValue) String() string {
	name := f.Name
	if name == "" {
		name = "anonymous"
	}
	return "[Function: " + name + "]"
}

// Bind returns a copy of the function with `this` fixed.
func (f *FunctionValue) Bind(this Value) *FunctionValue {
	clone := *f
	clone.BoundThis = this
	clone.HasThis = true
	return &clone
}

// PropertyAccessor is a getter/setter pair installed on a class.
type PropertyAccessor struct {
	Getter *FunctionValue
	Setter *FunctionValue
}

// ClassValue represents a class: constructor, method tables, accessors,
// static side and superclass reference.
type ClassValue struct {
	Name        string
	Constructor *FunctionValue
	Methods     map[string]*FunctionValue
	Accessors   map[string]*PropertyAccessor
	Statics     *ObjectValue
	Super       *ClassValue
	FieldNames  []string // declaration order for initializer execution
	FieldInits  map[string]ast.Expression
	FieldEnv    *Environment
	Readonly    map[string]bool
	Abstract    bool
}

// NewClassValue creates an empty class shell.
func NewClassValue(name string) *ClassValue {
	return &ClassValue{
		Name:       name,
		Methods:    make(map[string]*FunctionValue),
		Accessors:  make(map[string]*PropertyAccessor),
		Statics:    NewObject(),
		FieldInits: make(map[string]ast.Expression),
		Readonly:   make(map[string]bool),
	}
}

func (c *ClassValue) Type() string   { return "CLASS" }
func (c *ClassValue) String() string { return "[class " + c.Name + "]" }

// LookupMethod finds a method along the superclass chain.
func (c *ClassValue) LookupMethod(name string) (*FunctionValue, *ClassValue, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if m, ok := cls.Methods[name]; ok {
			return m, cls, true
		}
	}
	return nil, nil, false
}

// LookupAccessor finds a getter/setter pair along the superclass chain.
func (c *ClassValue) LookupAccessor(name string) (*PropertyAccessor, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if a, ok := cls.Accessors[name]; ok {
			return a, true
		}
	}
	return nil, false
}

// LookupConstructor finds the nearest declared constructor up the chain.
// Inherited constructors forward to the superclass implicitly.
func (c *ClassValue) LookupConstructor() (*FunctionValue, *ClassValue) {
	for cls := c; cls != nil; cls = cls.Super {
		if cls.Constructor != nil {
			return cls.Constructor, cls
		}
	}
	return nil, nil
}

// DerivesFrom reports whether c is other or inherits from it.
func (c *ClassValue) DerivesFrom(other *ClassValue) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}

// InstanceValue represents an object constructed from a class.
type InstanceValue struct {
	Class  *ClassValue
	Fields *ObjectValue
}

// NewInstance creates an instance with an empty field map.
func NewInstance(class *ClassValue) *InstanceValue {
	return &InstanceValue{Class: class, Fields: NewObject()}
}

func (i *InstanceValue) Type() string { return "INSTANCE" }
func (i *InstanceValue) String() string {
	return i.Class.Name + " " + i.Fields.String()
}

// IteratorValue is a next-producing handle implementing the iterator
// protocol. Next receives the value sent into the iterator; Return and
// Throw may be nil when the underlying iterator does not support them.
type IteratorValue struct {
	NextFn   func(sent Value) (Value, bool, error)
	ReturnFn func(v Value) (Value, error)
	ThrowFn  func(err Value) (Value, bool, error)
}

func (it *IteratorValue) Type() string   { return "ITERATOR" }
func (it *IteratorValue) String() string { return "[object Iterator]" }

// Next drives one step of the iterator.
func (it *IteratorValue) Next(sent Value) (Value, bool, error) {
	return it.NextFn(sent)
}

// BuiltinFunc is the host-provided callable signature. Errors returned as
// *ThrownError become catchable language-level exceptions.
type BuiltinFunc func(this Value, args []Value) (Value, error)

// BuiltinValue represents a host-provided callable.
type BuiltinValue struct {
	Name string
	Fn   BuiltinFunc
}

func (b *BuiltinValue) Type() string   { return "BUILTIN" }
func (b *BuiltinValue) String() string { return "[Function: " + b.Name + "]" }

// HandleValue is an opaque handle for host resources: file descriptors,
// streams, hashers. A handle is closed exactly once; Close is idempotent at
// the host layer and the second call reports an error.
type HandleValue struct {
	Kind     string
	Resource any
	closed   bool
	closeFn  func() error
}

// NewHandle wraps a host resource.
func NewHandle(kind string, resource any, closeFn func() error) *HandleValue {
	return &HandleValue{Kind: kind, Resource: resource, closeFn: closeFn}
}

func (h *HandleValue) Type() string   { return "HANDLE" }
func (h *HandleValue) String() string { return "[object " + h.Kind + "]" }

// Close releases the resource. The first call wins; later calls error.
func (h *HandleValue) Close() error {
	if h.closed {
		return fmt.Errorf("handle %s already closed", h.Kind)
	}
	h.closed = true
	if h.closeFn != nil {
		return h.closeFn()
	}
	return nil
}

// Closed reports whether the handle has been released.
func (h *HandleValue) Closed() bool { return h.closed }

// MapValue backs the Map runtime class with insertion-ordered entries.
type MapValue struct {
	keys   []Value
	values []Value
}

// NewMap creates an empty map value.
func NewMap() *MapValue { return &MapValue{} }

func (m *MapValue) Type() string { return "MAP" }
func (m *MapValue) String() string {
	parts := make([]string, len(m.keys))
	for i := range m.keys {
		parts[i] = Display(m.keys[i]) + " => " + Display(m.values[i])
	}
	return "Map(" + fmt.Sprint(len(m.keys)) + ") { " + strings.Join(parts, ", ") + " }"
}

func (m *MapValue) indexOf(key Value) int {
	for i, k := range m.keys {
		if StrictEquals(k, key) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under key.
func (m *MapValue) Get(key Value) (Value, bool) {
	if i := m.indexOf(key); i >= 0 {
		return m.values[i], true
	}
	return nil, false
}

// Set stores key → value, preserving insertion order.
func (m *MapValue) Set(key, value Value) {
	if i := m.indexOf(key); i >= 0 {
		m.values[i] = value
		return
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Delete removes an entry.
func (m *MapValue) Delete(key Value) bool {
	i := m.indexOf(key)
	if i < 0 {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return true
}

// Size returns the entry count.
func (m *MapValue) Size() int { return len(m.keys) }

// Entries returns key/value pairs in insertion order.
func (m *MapValue) Entries() ([]Value, []Value) { return m.keys, m.values }

// SetValue backs the Set runtime class.
type SetValue struct {
	elements []Value
}

// NewSet creates an empty set value.
func NewSet() *SetValue { return &SetValue{} }

func (s *SetValue) Type() string { return "SET" }
func (s *SetValue) String() string {
	parts := make([]string, len(s.elements))
	for i, e := range s.elements {
		parts[i] = Display(e)
	}
	return "Set(" + fmt.Sprint(len(s.elements)) + ") { " + strings.Join(parts, ", ") + " }"
}

// Has reports membership under strict equality.
func (s *SetValue) Has(v Value) bool {
	for _, e := range s.elements {
		if StrictEquals(e, v) {
			return true
		}
	}
	return false
}

// Add inserts a value if not already present.
func (s *SetValue) Add(v Value) {
	if !s.Has(v) {
		s.elements = append(s.elements, v)
	}
}

// Delete removes a value.
func (s *SetValue) Delete(v Value) bool {
	for i, e := range s.elements {
		if StrictEquals(e, v) {
			s.elements = append(s.elements[:i], s.elements[i+1:]...)
			return true
		}
	}
	return false
}

// Size returns the element count.
func (s *SetValue) Size() int { return len(s.elements) }

// Values returns the elements in insertion order.
func (s *SetValue) Values() []Value { return s.elements }

// NamespaceValue represents `import * as ns` bindings: a read-only view over
// a module's export cells.
type NamespaceValue struct {
	Module string
	Cells  map[string]*Cell
}

func (n *NamespaceValue) Type() string { return "NAMESPACE" }
func (n *NamespaceValue) String() string {
	names := make([]string, 0, len(n.Cells))
	for name := range n.Cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return "[Module: " + n.Module + " (" + strings.Join(names, ", ") + ")]"
}

// Get reads one export cell.
func (n *NamespaceValue) Get(name string) (Value, bool) {
	cell, ok := n.Cells[name]
	if !ok {
		return nil, false
	}
	return cell.Get(), true
}

// Cell is a lazily written binding slot used for cyclic module imports:
// reads before the exporting module's body has run observe undefined.
type Cell struct {
	value Value
	set   bool
}

// NewCell creates an unset cell.
func NewCell() *Cell { return &Cell{} }

// Get returns the cell's value, or undefined before initialization.
func (c *Cell) Get() Value {
	if !c.set {
		return UNDEFINED
	}
	return c.value
}

// Set writes the cell.
func (c *Cell) Set(v Value) {
	c.value = v
	c.set = true
}

// ThrownError wraps a language-level thrown value as a Go error so it can
// unwind through evaluation. Host errors carry a Code field on the thrown
// object mirroring the conventional taxonomy (ENOENT, EACCES, ...).
type ThrownError struct {
	Value Value
}

func (t *ThrownError) Error() string {
	return Display(t.Value)
}

// Throw packages a value as a thrown error.
func Throw(v Value) *ThrownError {
	return &ThrownError{Value: v}
}

// NewErrorObject builds a standard error object: { name, message, code? }.
func NewErrorObject(name, message, code string) *ObjectValue {
	obj := NewObject()
	obj.Set("name", NewString(name))
	obj.Set("message", NewString(message))
	if code != "" {
		obj.Set("code", NewString(code))
	}
	obj.Set("stack", NewString(name+": "+message))
	return obj
}
