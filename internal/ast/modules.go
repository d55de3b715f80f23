package ast

import (
	"bytes"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// ImportSpecifier is one name of a named import clause, with optional alias:
// { a, b as c }.
type ImportSpecifier struct {
	Name  *Identifier // exported name in the source module
	Alias *Identifier // nil when unaliased
}

func (is *ImportSpecifier) LocalName() string {
	if is.Alias != nil {
		return is.Alias.Value
	}
	return is.Name.Value
}

func (is *ImportSpecifier) String() string {
	if is.Alias != nil {
		return is.Name.String() + " as " + is.Alias.String()
	}
	return is.Name.String()
}

// ImportDeclaration represents every import statement form except
// import x = require(...):
//
//	import "side-effect";
//	import def from "m";
//	import * as ns from "m";
//	import { a, b as c } from "m";
//	import def, { a } from "m";
type ImportDeclaration struct {
	Token     lexer.Token
	Default   *Identifier // nil when no default clause
	Namespace *Identifier // nil when no * as ns clause
	Named     []*ImportSpecifier
	Specifier string // the module specifier string
}

func (id *ImportDeclaration) statementNode()       {}
func (id *ImportDeclaration) TokenLiteral() string { return id.Token.Literal }
func (id *ImportDeclaration) Pos() lexer.Position  { return id.Token.Pos }
func (id *ImportDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("import ")
	wrote := false
	if id.Default != nil {
		out.WriteString(id.Default.String())
		wrote = true
	}
	if id.Namespace != nil {
		if wrote {
			out.WriteString(", ")
		}
		out.WriteString("* as " + id.Namespace.String())
		wrote = true
	}
	if len(id.Named) > 0 {
		if wrote {
			out.WriteString(", ")
		}
		out.WriteString("{ ")
		for i, s := range id.Named {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(s.String())
		}
		out.WriteString(" }")
		wrote = true
	}
	if wrote {
		out.WriteString(" from ")
	}
	out.WriteString("\"" + id.Specifier + "\";")
	return out.String()
}

// ImportEqualsDeclaration represents import x = require("m").
// Parsed as a distinct statement, not desugared; it binds the target
// module's export= value (or its default-shaped exports).
type ImportEqualsDeclaration struct {
	Token     lexer.Token
	Name      *Identifier
	Specifier string
}

func (ie *ImportEqualsDeclaration) statementNode()       {}
func (ie *ImportEqualsDeclaration) TokenLiteral() string { return ie.Token.Literal }
func (ie *ImportEqualsDeclaration) Pos() lexer.Position  { return ie.Token.Pos }
func (ie *ImportEqualsDeclaration) String() string {
	return "import " + ie.Name.String() + " = require(\"" + ie.Specifier + "\");"
}

// ExportSpecifier is one name of an export list, with optional alias.
type ExportSpecifier struct {
	Name  *Identifier
	Alias *Identifier
}

func (es *ExportSpecifier) ExportedName() string {
	if es.Alias != nil {
		return es.Alias.Value
	}
	return es.Name.Value
}

func (es *ExportSpecifier) String() string {
	if es.Alias != nil {
		return es.Name.String() + " as " + es.Alias.String()
	}
	return es.Name.String()
}

// ExportDeclaration represents export lists, default exports and re-exports:
//
//	export { a, b as c };
//	export { a } from "m";
//	export * from "m";
//	export default expr;
type ExportDeclaration struct {
	Token   lexer.Token
	Named   []*ExportSpecifier
	Source  string // non-empty for re-exports
	Star    bool   // export * from "m"
	Default Expression
}

func (ed *ExportDeclaration) statementNode()       {}
func (ed *ExportDeclaration) TokenLiteral() string { return ed.Token.Literal }
func (ed *ExportDeclaration) Pos() lexer.Position  { return ed.Token.Pos }
func (ed *ExportDeclaration) String() string {
	var out bytes.Buffer
	out.WriteString("export ")
	switch {
	case ed.Default != nil:
		out.WriteString("default " + ed.Default.String() + ";")
	case ed.Star:
		out.WriteString("* from \"" + ed.Source + "\";")
	default:
		out.WriteString("{ ")
		for i, s := range ed.Named {
			if i > 0 {
				out.WriteString(", ")
			}
			out.WriteString(s.String())
		}
		out.WriteString(" }")
		if ed.Source != "" {
			out.WriteString(" from \"" + ed.Source + "\"")
		}
		out.WriteString(";")
	}
	return out.String()
}

// ExportAssignment represents export = expr.
type ExportAssignment struct {
	Token      lexer.Token
	Expression Expression
}

func (ea *ExportAssignment) statementNode()       {}
func (ea *ExportAssignment) TokenLiteral() string { return ea.Token.Literal }
func (ea *ExportAssignment) Pos() lexer.Position  { return ea.Token.Pos }
func (ea *ExportAssignment) String() string {
	return "export = " + ea.Expression.String() + ";"
}
