// Package modules resolves import specifiers, builds the module dependency
// graph and orders modules for initialization. Cycles are permitted: a
// cycle-broken module publishes its bindings through lazily written cells,
// so a binding read before the exporter's body has run observes undefined.
package modules

import (
	"fmt"
	gopath "path"
	"strings"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/lexer"
	"github.com/cwbudde/go-tscript/internal/parser"
)

// ExportShape describes what a module exports, for binding resolution
// before the module body has executed.
type ExportShape struct {
	Named        map[string]bool
	ReExports    map[string]string // exported name → source module
	StarSources  []string
	HasDefault   bool
	ExportEquals bool
}

// Descriptor is one resolved module: its parsed statements, the specifiers
// it imports (already resolved to module names) and its export shape.
type Descriptor struct {
	Name    string
	AST     *ast.Module
	Imports []string
	Exports *ExportShape
}

// ResolveFunc resolves a non-relative, non-builtin specifier to source text.
type ResolveFunc func(specifier string) (string, bool)

// BuiltinModules is the table of host modules importable by bare name.
// Their signatures are data tables consumed by the checker and both
// execution back ends; they never appear in the initialization order.
var BuiltinModules = map[string]bool{
	"console":       true,
	"fs":            true,
	"path":          true,
	"crypto":        true,
	"url":           true,
	"querystring":   true,
	"zlib":          true,
	"http":          true,
	"child_process": true,
	"dns":           true,
	"perf_hooks":    true,
	"readline":      true,
	"stream":        true,
	"timers":        true,
}

// Resolver builds the module graph for one program.
type Resolver struct {
	sources map[string]string
	resolve ResolveFunc
	diags   *errors.DiagnosticList

	modules  map[string]*Descriptor
	visiting map[string]bool
	order    []*Descriptor
}

// NewResolver creates a resolver over a specifier → source mapping.
// A user resolver may be nil.
func NewResolver(sources map[string]string, resolve ResolveFunc, diags *errors.DiagnosticList) *Resolver {
	return &Resolver{
		sources:  sources,
		resolve:  resolve,
		diags:    diags,
		modules:  make(map[string]*Descriptor),
		visiting: make(map[string]bool),
	}
}

// Resolve runs the DFS from the entry module and returns the descriptors in
// initialization order: post-order of the DFS, which yields leaves first
// with ties broken by first-seen order. The checker and both executors walk
// modules in exactly this order.
func (r *Resolver) Resolve(entry string) []*Descriptor {
	r.visit(entry, "", lexer.Position{Line: 1, Column: 1})
	return r.order
}

// Lookup returns a resolved descriptor by name.
func (r *Resolver) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.modules[name]
	return d, ok
}

// visit parses one module, recurses into its imports and appends the module
// to the initialization order on the way out.
func (r *Resolver) visit(name, importer string, pos lexer.Position) {
	if r.visiting[name] {
		// Back edge: the cycle is permitted, bindings resolve through cells.
		return
	}
	if _, done := r.modules[name]; done {
		return
	}

	source, ok := r.sources[name]
	if !ok {
		r.diags.Add(&errors.Diagnostic{
			Pos:      pos,
			EndPos:   pos,
			Severity: errors.SeverityError,
			Code:     "TS2307",
			Message:  fmt.Sprintf("cannot find module %q", name),
			File:     importer,
		})
		return
	}

	r.visiting[name] = true
	defer delete(r.visiting, name)

	l := lexer.New(source)
	p := parser.New(l)
	mod := p.ParseModule(name)
	p.CollectDiagnostics(name, r.diags)

	desc := &Descriptor{
		Name:    name,
		AST:     mod,
		Exports: collectExports(mod, r.diags, name),
	}
	r.modules[name] = desc

	for _, stmt := range mod.Statements {
		spec, specPos, ok := importSpecifier(stmt)
		if !ok {
			continue
		}
		resolved, isBuiltin := r.resolveSpecifier(spec, name, specPos)
		if resolved == "" {
			continue
		}
		desc.Imports = append(desc.Imports, resolved)
		if isBuiltin {
			continue
		}

		if _, isEquals := stmt.(*ast.ImportEqualsDeclaration); isEquals && r.visiting[resolved] {
			// import x = require(...) needs the exporter's value; inside a
			// cycle initialization cannot converge.
			r.diags.Add(&errors.Diagnostic{
				Pos:      specPos,
				EndPos:   specPos,
				Severity: errors.SeverityError,
				Code:     "TS2440",
				Message:  fmt.Sprintf("cyclic 'export =' dependency through module %q cannot be initialized", resolved),
				File:     name,
			})
			continue
		}
		r.visit(resolved, name, specPos)
	}

	r.order = append(r.order, desc)
}

// resolveSpecifier maps a specifier to a module name. Relative specifiers
// resolve against the importer; bare names consult the builtin table first,
// then the user resolver.
func (r *Resolver) resolveSpecifier(spec, importer string, pos lexer.Position) (string, bool) {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		base := gopath.Dir(importer)
		resolved := gopath.Join(base, spec)
		return resolved, false
	}
	if BuiltinModules[spec] {
		return spec, true
	}
	if _, ok := r.sources[spec]; ok {
		return spec, false
	}
	if r.resolve != nil {
		if text, ok := r.resolve(spec); ok {
			if _, seen := r.sources[spec]; !seen {
				r.sources[spec] = text
			}
			return spec, false
		}
	}
	r.diags.Add(&errors.Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: errors.SeverityError,
		Code:     "TS2307",
		Message:  fmt.Sprintf("cannot find module %q", spec),
		File:     importer,
	})
	return "", false
}

// importSpecifier extracts the specifier of an import-bearing statement.
func importSpecifier(stmt ast.Statement) (string, lexer.Position, bool) {
	switch s := stmt.(type) {
	case *ast.ImportDeclaration:
		return s.Specifier, s.Pos(), true
	case *ast.ImportEqualsDeclaration:
		return s.Specifier, s.Pos(), true
	case *ast.ExportDeclaration:
		if s.Source != "" {
			return s.Source, s.Pos(), true
		}
	}
	return "", lexer.Position{}, false
}

// collectExports scans a module's statements for its export surface and
// reports duplicate default exports and export= conflicts.
func collectExports(mod *ast.Module, diags *errors.DiagnosticList, name string) *ExportShape {
	shape := &ExportShape{
		Named:     make(map[string]bool),
		ReExports: make(map[string]string),
	}

	addDefault := func(pos lexer.Position) {
		if shape.HasDefault {
			diags.Add(&errors.Diagnostic{
				Pos:      pos,
				EndPos:   pos,
				Severity: errors.SeverityError,
				Code:     "TS2528",
				Message:  "a module cannot have multiple default exports",
				File:     name,
			})
			return
		}
		shape.HasDefault = true
	}

	for _, stmt := range mod.Statements {
		switch s := stmt.(type) {
		case *ast.VariableStatement:
			if s.Exported {
				for _, d := range s.Declarations {
					shape.Named[d.Name.Value] = true
				}
			}
		case *ast.FunctionDeclaration:
			if s.Default {
				addDefault(s.Pos())
			} else if s.Exported && s.Function.Name != nil {
				shape.Named[s.Function.Name.Value] = true
			}
		case *ast.ClassDeclaration:
			if s.Default {
				addDefault(s.Pos())
			} else if s.Exported {
				shape.Named[s.Name.Value] = true
			}
		case *ast.InterfaceDeclaration:
			if s.Exported {
				shape.Named[s.Name.Value] = true
			}
		case *ast.TypeAliasDeclaration:
			if s.Exported {
				shape.Named[s.Name.Value] = true
			}
		case *ast.EnumDeclaration:
			if s.Exported {
				shape.Named[s.Name.Value] = true
			}
		case *ast.ExportDeclaration:
			switch {
			case s.Default != nil:
				addDefault(s.Pos())
			case s.Star:
				shape.StarSources = append(shape.StarSources, s.Source)
			default:
				for _, spec := range s.Named {
					if s.Source != "" {
						shape.ReExports[spec.ExportedName()] = s.Source
					} else {
						shape.Named[spec.ExportedName()] = true
					}
				}
			}
		case *ast.ExportAssignment:
			shape.ExportEquals = true
		}
	}
	return shape
}
