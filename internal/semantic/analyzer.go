// Package semantic implements the TScript type checker: a single pass over
// the AST in module initialization order that binds names in a lexical
// environment, computes a type for every expression, enforces structural
// compatibility, instantiates generics and narrows bindings by control-flow
// guards. The analyzer never aborts on the first error; diagnostics
// accumulate and checking continues.
package semantic

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/types"
)

// Options carries the strictness configuration.
type Options struct {
	StrictNullChecks bool
	MethodBivariance bool
}

// symbol is one value binding in a scope.
type symbol struct {
	typ      types.Type
	constant bool
	declared lexer.Position
}

// Scope is a lexical environment with value bindings, type bindings and a
// narrowing overlay. Scopes form a persistent chain.
type Scope struct {
	parent   *Scope
	values   map[string]*symbol
	types    map[string]types.Type
	narrowed map[string]types.Type
}

func newScope(parent *Scope) *Scope {
	return &Scope{
		parent:   parent,
		values:   make(map[string]*symbol),
		types:    make(map[string]types.Type),
		narrowed: make(map[string]types.Type),
	}
}

func (s *Scope) defineValue(name string, typ types.Type, constant bool, pos lexer.Position) {
	s.values[name] = &symbol{typ: typ, constant: constant, declared: pos}
}

func (s *Scope) defineType(name string, typ types.Type) {
	s.types[name] = typ
}

// lookupValue resolves a value binding, applying the innermost narrowing.
func (s *Scope) lookupValue(name string) (types.Type, *symbol, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if t, ok := scope.narrowed[name]; ok {
			_, sym, _ := s.lookupDeclared(name)
			return t, sym, true
		}
		if sym, ok := scope.values[name]; ok {
			return sym.typ, sym, true
		}
	}
	return nil, nil, false
}

func (s *Scope) lookupDeclared(name string) (types.Type, *symbol, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if sym, ok := scope.values[name]; ok {
			return sym.typ, sym, true
		}
	}
	return nil, nil, false
}

func (s *Scope) lookupType(name string) (types.Type, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if t, ok := scope.types[name]; ok {
			return t, true
		}
	}
	return nil, false
}

// ModuleExports records the typed export surface of a checked module.
type ModuleExports struct {
	Values  map[string]types.Type
	Types   map[string]types.Type
	Default types.Type
	Equals  types.Type
}

// Analyzer performs semantic analysis over a resolved module list.
type Analyzer struct {
	opts   Options
	compat *types.Compat
	diags  *errors.DiagnosticList

	typeTable map[ast.Node]types.Type
	exports   map[string]*ModuleExports
	builtins  map[string]types.Type // builtin module name → namespace shape

	scope         *Scope
	currentModule string
	returnType    types.Type
	yieldType     types.Type
	currentClass  *types.ClassType
	inAsync       bool
	inGenerator   bool
	inLoop        bool
	inSwitch      bool
	labels        map[string]bool

	// freshLiterals maps object-literal nodes to their fresh record type so
	// the annotation site can run the excess-property check.
	freshLiterals map[ast.Node]*types.RecordType
}

// NewAnalyzer creates an analyzer with the given strictness options.
func NewAnalyzer(opts Options, diags *errors.DiagnosticList) *Analyzer {
	a := &Analyzer{
		opts: opts,
		compat: types.NewCompat(types.CompatOptions{
			StrictNullChecks: opts.StrictNullChecks,
			MethodBivariance: opts.MethodBivariance,
		}),
		diags:         diags,
		typeTable:     make(map[ast.Node]types.Type),
		exports:       make(map[string]*ModuleExports),
		builtins:      make(map[string]types.Type),
		labels:        make(map[string]bool),
		freshLiterals: make(map[ast.Node]*types.RecordType),
	}
	return a
}

// RegisterBuiltinModule installs the typed shape of a host module so import
// statements can bind it. Shapes are data tables provided by the builtins
// package.
func (a *Analyzer) RegisterBuiltinModule(name string, shape types.Type) {
	a.builtins[name] = shape
}

// TypeTable returns the node → type mapping; read-only after Analyze.
func (a *Analyzer) TypeTable() map[ast.Node]types.Type {
	return a.typeTable
}

// Compat exposes the assignability engine (shared with consumers that need
// the same strictness flags).
func (a *Analyzer) Compat() *types.Compat {
	return a.compat
}

// Analyze checks every module in initialization order.
func (a *Analyzer) Analyze(mods []*modules.Descriptor) {
	for _, mod := range mods {
		a.analyzeModule(mod)
	}
}

func (a *Analyzer) analyzeModule(mod *modules.Descriptor) {
	a.currentModule = mod.Name
	a.scope = newScope(nil)
	a.installGlobals()

	exports := &ModuleExports{
		Values: make(map[string]types.Type),
		Types:  make(map[string]types.Type),
	}
	a.exports[mod.Name] = exports

	// Declaration pre-pass: hoist functions, class shells, interfaces,
	// aliases, enums and var bindings so forward references and cycles bind.
	a.collectDeclarations(mod.AST.Statements)
	a.hoistVars(mod.AST.Statements)

	for _, stmt := range mod.AST.Statements {
		a.analyzeStatement(stmt)
	}

	// Record the export surface after the module body has been checked.
	a.collectExportTypes(mod, exports)
}

// errorAt records an error diagnostic at a node.
func (a *Analyzer) errorAt(node ast.Node, code, format string, args ...any) {
	pos := lexer.Position{Line: 1, Column: 1}
	if node != nil {
		pos = node.Pos()
	}
	a.diags.Add(&errors.Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: errors.SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		File:     a.currentModule,
	})
}

// setType records a node's computed type in the type table.
func (a *Analyzer) setType(node ast.Node, t types.Type) types.Type {
	if t == nil {
		t = types.ANY
	}
	a.typeTable[node] = t
	return t
}

// installGlobals binds the ambient globals every module sees.
func (a *Analyzer) installGlobals() {
	pos := lexer.Position{}
	// console is import-free in scripts.
	if shape, ok := a.builtins["console"]; ok {
		a.scope.defineValue("console", shape, true, pos)
	} else {
		a.scope.defineValue("console", types.ANY, true, pos)
	}
	for _, name := range []string{
		"Math", "JSON", "Object", "Array", "Number", "String", "Boolean",
		"Promise", "Map", "Set", "Error", "TypeError", "RangeError",
		"setTimeout", "setInterval", "clearTimeout", "clearInterval",
		"parseInt", "parseFloat", "isNaN", "isFinite", "NaN", "Infinity",
		"globalThis",
	} {
		a.scope.defineValue(name, types.ANY, true, pos)
	}
}

// collectDeclarations hoists declarations so bodies can reference them in
// any order. Interfaces with the same name merge additively.
func (a *Analyzer) collectDeclarations(stmts []ast.Statement) {
	// Interfaces and aliases first: classes and signatures reference them.
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.InterfaceDeclaration:
			a.declareInterface(s)
		case *ast.TypeAliasDeclaration:
			a.declareTypeAlias(s)
		case *ast.EnumDeclaration:
			a.declareEnum(s)
		}
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.ClassDeclaration:
			a.declareClassShell(s)
		case *ast.ImportDeclaration:
			a.bindImport(s)
		case *ast.ImportEqualsDeclaration:
			a.bindImportEquals(s)
		}
	}
	// Class bodies after every shell exists (mutual references).
	for _, stmt := range stmts {
		if s, ok := stmt.(*ast.ClassDeclaration); ok {
			a.populateClass(s)
		}
	}
	for _, stmt := range stmts {
		if s, ok := stmt.(*ast.FunctionDeclaration); ok {
			sig := a.functionSignature(s.Function)
			a.scope.defineValue(s.Function.Name.Value, sig, false, s.Pos())
			a.setType(s.Function, sig)
		}
	}
}

// bindImport binds imported names to the exporter's recorded types.
func (a *Analyzer) bindImport(s *ast.ImportDeclaration) {
	// Builtin host module.
	if shape, ok := a.builtins[s.Specifier]; ok {
		if s.Namespace != nil {
			a.scope.defineValue(s.Namespace.Value, shape, true, s.Pos())
		}
		if s.Default != nil {
			a.scope.defineValue(s.Default.Value, shape, true, s.Pos())
		}
		for _, spec := range s.Named {
			var t types.Type = types.ANY
			if mt := types.IndexedAccess(shape, types.NewStringLiteral(spec.Name.Value)); mt != types.NEVER {
				t = mt
			}
			a.scope.defineValue(spec.LocalName(), t, true, s.Pos())
		}
		return
	}

	exports := a.exportsFor(s.Specifier)
	if exports == nil {
		// The resolver already reported the missing module; bind any.
		a.bindImportAsAny(s)
		return
	}

	if s.Default != nil {
		t := exports.Default
		if t == nil {
			t = exports.Equals
		}
		if t == nil {
			a.errorAt(s, "TS2613", "module %q has no default export", s.Specifier)
			t = types.ANY
		}
		a.scope.defineValue(s.Default.Value, t, true, s.Pos())
	}
	if s.Namespace != nil {
		fields := make([]types.Field, 0, len(exports.Values))
		for name, t := range exports.Values {
			fields = append(fields, types.Field{Name: name, Type: t})
		}
		a.scope.defineValue(s.Namespace.Value, types.NewRecord(fields), true, s.Pos())
	}
	for _, spec := range s.Named {
		if t, ok := exports.Values[spec.Name.Value]; ok {
			a.scope.defineValue(spec.LocalName(), t, true, s.Pos())
		} else if t, ok := exports.Types[spec.Name.Value]; ok {
			a.scope.defineType(spec.LocalName(), t)
		} else {
			// Cycle-broken module: the exporter runs later; bind loosely.
			a.scope.defineValue(spec.LocalName(), types.ANY, true, s.Pos())
		}
		// Named type exports travel alongside values with the same name.
		if t, ok := exports.Types[spec.Name.Value]; ok {
			a.scope.defineType(spec.LocalName(), t)
		}
	}
}

func (a *Analyzer) bindImportAsAny(s *ast.ImportDeclaration) {
	if s.Default != nil {
		a.scope.defineValue(s.Default.Value, types.ANY, true, s.Pos())
	}
	if s.Namespace != nil {
		a.scope.defineValue(s.Namespace.Value, types.ANY, true, s.Pos())
	}
	for _, spec := range s.Named {
		a.scope.defineValue(spec.LocalName(), types.ANY, true, s.Pos())
	}
}

// bindImportEquals binds import x = require("m"): the exporter's export=
// value, or its default, or its namespace shape.
func (a *Analyzer) bindImportEquals(s *ast.ImportEqualsDeclaration) {
	if shape, ok := a.builtins[s.Specifier]; ok {
		a.scope.defineValue(s.Name.Value, shape, true, s.Pos())
		return
	}
	exports := a.exportsFor(s.Specifier)
	if exports == nil {
		a.scope.defineValue(s.Name.Value, types.ANY, true, s.Pos())
		return
	}
	t := exports.Equals
	if t == nil {
		t = exports.Default
	}
	if t == nil {
		fields := make([]types.Field, 0, len(exports.Values))
		for name, vt := range exports.Values {
			fields = append(fields, types.Field{Name: name, Type: vt})
		}
		t = types.NewRecord(fields)
	}
	a.scope.defineValue(s.Name.Value, t, true, s.Pos())
}

// exportsFor resolves a specifier relative to the current module and
// returns the exporter's typed surface, if already checked.
func (a *Analyzer) exportsFor(spec string) *ModuleExports {
	name := resolveRelative(spec, a.currentModule)
	return a.exports[name]
}

// collectExportTypes records the module's export surface from its scope.
func (a *Analyzer) collectExportTypes(mod *modules.Descriptor, exports *ModuleExports) {
	for _, stmt := range mod.AST.Statements {
		switch s := stmt.(type) {
		case *ast.VariableStatement:
			if s.Exported {
				for _, d := range s.Declarations {
					if t, _, ok := a.scope.lookupDeclared(d.Name.Value); ok {
						exports.Values[d.Name.Value] = t
					}
				}
			}
		case *ast.FunctionDeclaration:
			if s.Function.Name == nil {
				continue
			}
			t, _, ok := a.scope.lookupDeclared(s.Function.Name.Value)
			if !ok {
				continue
			}
			if s.Default {
				exports.Default = t
			} else if s.Exported {
				exports.Values[s.Function.Name.Value] = t
			}
		case *ast.ClassDeclaration:
			t, _, ok := a.scope.lookupDeclared(s.Name.Value)
			if !ok {
				continue
			}
			if s.Default {
				exports.Default = t
			} else if s.Exported {
				exports.Values[s.Name.Value] = t
				if nt, ok := a.scope.lookupType(s.Name.Value); ok {
					exports.Types[s.Name.Value] = nt
				}
			}
		case *ast.InterfaceDeclaration:
			if s.Exported {
				if t, ok := a.scope.lookupType(s.Name.Value); ok {
					exports.Types[s.Name.Value] = t
				}
			}
		case *ast.TypeAliasDeclaration:
			if s.Exported {
				if t, ok := a.scope.lookupType(s.Name.Value); ok {
					exports.Types[s.Name.Value] = t
				}
			}
		case *ast.EnumDeclaration:
			if s.Exported {
				if t, _, ok := a.scope.lookupDeclared(s.Name.Value); ok {
					exports.Values[s.Name.Value] = t
				}
				if nt, ok := a.scope.lookupType(s.Name.Value); ok {
					exports.Types[s.Name.Value] = nt
				}
			}
		case *ast.ExportDeclaration:
			switch {
			case s.Default != nil:
				exports.Default = a.typeTable[s.Default]
			case s.Source != "":
				src := a.exportsFor(s.Source)
				if src == nil {
					continue
				}
				if s.Star {
					for name, t := range src.Values {
						exports.Values[name] = t
					}
					continue
				}
				for _, spec := range s.Named {
					if t, ok := src.Values[spec.Name.Value]; ok {
						exports.Values[spec.ExportedName()] = t
					} else if src.Equals != nil {
						// Re-export of an export= module exposes the value
						// itself.
						exports.Values[spec.ExportedName()] = src.Equals
					}
				}
			default:
				for _, spec := range s.Named {
					if t, _, ok := a.scope.lookupDeclared(spec.Name.Value); ok {
						exports.Values[spec.ExportedName()] = t
					} else if t, ok := a.scope.lookupType(spec.Name.Value); ok {
						exports.Types[spec.ExportedName()] = t
					} else {
						a.errorAt(s, "TS2304", "cannot find exported name %q", spec.Name.Value)
					}
				}
			}
		case *ast.ExportAssignment:
			exports.Equals = a.typeTable[s.Expression]
		}
	}
}

// resolveRelative resolves ./ and ../ specifiers against an importer module
// name, mirroring the module resolver's rule.
func resolveRelative(spec, importer string) string {
	if len(spec) >= 2 && spec[:2] == "./" || len(spec) >= 3 && spec[:3] == "../" {
		return joinModulePath(dirOf(importer), spec)
	}
	return spec
}

func dirOf(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return ""
}

func joinModulePath(base, rel string) string {
	segments := []string{}
	if base != "" {
		for _, s := range splitPath(base) {
			segments = append(segments, s)
		}
	}
	for _, s := range splitPath(rel) {
		switch s {
		case ".", "":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, s)
		}
	}
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			out = append(out, p[start:i])
			start = i + 1
		}
	}
	return out
}
