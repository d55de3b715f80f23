// Package bytecode implements the TScript code generator and its virtual
// machine. The emitter lowers the checked AST into a managed Module: one
// static-initializer function per module, a function table, and class
// definitions with field and method tables. Async functions and generators
// lower into explicit state machines: the saved instruction pointer is the
// integer state, the saved operand stack and scope chain are the state
// object's fields, and Step(value, isThrow) resumes execution. The runtime
// helpers (dynamic comparison, truthiness, typeof, the iterator driver and
// the promise scheduler) come from internal/runtime, shared with the
// tree-walking interpreter so both strategies observe identical semantics.
package bytecode

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Param describes one compiled parameter. Default values compile into the
// function preamble; Rest collects trailing arguments into an array.
type Param struct {
	Name string
	Rest bool
}

// Function is one compiled callable: a chunk plus parameter metadata.
type Function struct {
	Name        string
	Params      []Param
	Chunk       *Chunk
	IsAsync     bool
	IsGenerator bool
	IsArrow     bool

	// owner is set by the loader; it never serializes.
	owner any
}

// Chunk is a linear instruction sequence with its constant pool.
type Chunk struct {
	Code      []Instruction
	Constants []runtime.Value
}

// AddConstant interns a constant and returns its index.
func (c *Chunk) AddConstant(v runtime.Value) int {
	for i, existing := range c.Constants {
		if runtime.StrictEquals(existing, v) {
			switch v.(type) {
			case *runtime.NumberValue, *runtime.StringValue, *runtime.BooleanValue:
				return i
			}
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Emit appends an instruction and returns its index.
func (c *Chunk) Emit(in Instruction) int {
	c.Code = append(c.Code, in)
	return len(c.Code) - 1
}

// Patch rewrites a jump target after the destination is known.
func (c *Chunk) Patch(at, target int) {
	c.Code[at].A = target
}

// FieldDef is one declared field of a class definition.
type FieldDef struct {
	Name     string
	InitFn   int // function index of the initializer thunk; -1 when absent
	Readonly bool
	Static   bool
}

// MethodKind distinguishes constructors, methods and accessors in a class
// definition.
type MethodKind int

const (
	MethodNormal MethodKind = iota
	MethodCtor
	MethodGetter
	MethodSetter
)

// MethodDef is one method entry of a class definition.
type MethodDef struct {
	Name   string
	Fn     int
	Kind   MethodKind
	Static bool
}

// ClassDef is the blueprint the VM instantiates into a class object.
// Inherited constructors are not redeclared: construction walks the
// superclass chain, so an undeclared constructor forwards implicitly.
type ClassDef struct {
	Name     string
	Fields   []FieldDef
	Methods  []MethodDef
	Abstract bool
}

// ImportDef records one import statement for the loader.
type ImportDef struct {
	Specifier string
	Default   string
	Namespace string
	Named     [][2]string // source name, local name
	Equals    string      // import x = require(...) binding name
}

// ReExportDef records one re-export edge for the loader.
type ReExportDef struct {
	Source string
	Name   string // empty for star re-exports
	Alias  string
}

// Module is the compiled form of one source module: its import/export
// wiring tables, the function table (free functions become entries here —
// static methods of the module), class definitions, and the index of the
// static initializer whose body runs at module load and populates the
// export cells.
type Module struct {
	Name      string
	Imports   []ImportDef
	ReExports []ReExportDef
	Functions []*Function
	Classes   []*ClassDef
	Init      int
}

// String renders a short summary.
func (m *Module) String() string {
	return fmt.Sprintf("module %s (functions=%d classes=%d)", m.Name, len(m.Functions), len(m.Classes))
}
