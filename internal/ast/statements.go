package ast

import (
	"bytes"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// DeclarationKind distinguishes var, let and const declarations.
type DeclarationKind int

const (
	DeclVar DeclarationKind = iota
	DeclLet
	DeclConst
)

func (dk DeclarationKind) String() string {
	switch dk {
	case DeclVar:
		return "var"
	case DeclLet:
		return "let"
	case DeclConst:
		return "const"
	}
	return "?"
}

// VariableDeclarator is one name = value pair of a declaration statement.
type VariableDeclarator struct {
	Name *Identifier
	Type TypeNode   // nil when inferred
	Init Expression // nil when uninitialized
}

func (vd *VariableDeclarator) String() string {
	s := vd.Name.String()
	if vd.Type != nil {
		s += ": " + vd.Type.String()
	}
	if vd.Init != nil {
		s += " = " + vd.Init.String()
	}
	return s
}

// VariableStatement represents var/let/const declarations.
// 'var' hoists to the enclosing function scope; let/const are block scoped.
type VariableStatement struct {
	Token        lexer.Token // The var/let/const token
	Kind         DeclarationKind
	Declarations []*VariableDeclarator
	Exported     bool
}

func (vs *VariableStatement) statementNode()       {}
func (vs *VariableStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VariableStatement) Pos() lexer.Position  { return vs.Token.Pos }
func (vs *VariableStatement) String() string {
	var out bytes.Buffer
	if vs.Exported {
		out.WriteString("export ")
	}
	out.WriteString(vs.Kind.String())
	out.WriteString(" ")
	for i, d := range vs.Declarations {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(d.String())
	}
	out.WriteString(";")
	return out.String()
}

// BlockStatement represents { stmt* }.
type BlockStatement struct {
	Token      lexer.Token // The '{' token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Pos() lexer.Position  { return bs.Token.Pos }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range bs.Statements {
		out.WriteString(s.String())
	}
	out.WriteString(" }")
	return out.String()
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      lexer.Token
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Pos() lexer.Position  { return es.Token.Pos }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String() + ";"
	}
	return ";"
}

// IfStatement represents if/else.
type IfStatement struct {
	Token      lexer.Token
	Condition  Expression
	Consequent Statement
	Alternate  Statement // nil when absent
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Pos() lexer.Position  { return is.Token.Pos }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (" + is.Condition.String() + ") ")
	out.WriteString(is.Consequent.String())
	if is.Alternate != nil {
		out.WriteString(" else " + is.Alternate.String())
	}
	return out.String()
}

// WhileStatement represents while (cond) body.
type WhileStatement struct {
	Token     lexer.Token
	Condition Expression
	Body      Statement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Pos() lexer.Position  { return ws.Token.Pos }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ") " + ws.Body.String()
}

// DoWhileStatement represents do body while (cond);
type DoWhileStatement struct {
	Token     lexer.Token
	Body      Statement
	Condition Expression
}

func (ds *DoWhileStatement) statementNode()       {}
func (ds *DoWhileStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DoWhileStatement) Pos() lexer.Position  { return ds.Token.Pos }
func (ds *DoWhileStatement) String() string {
	return "do " + ds.Body.String() + " while (" + ds.Condition.String() + ");"
}

// ForStatement represents the C-style for loop.
// Init is either a VariableStatement or an ExpressionStatement; any of the
// three slots may be nil.
type ForStatement struct {
	Token     lexer.Token
	Init      Statement
	Condition Expression
	Update    Expression
	Body      Statement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Pos() lexer.Position  { return fs.Token.Pos }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if fs.Init != nil {
		out.WriteString(fs.Init.String())
	} else {
		out.WriteString(";")
	}
	out.WriteString(" ")
	if fs.Condition != nil {
		out.WriteString(fs.Condition.String())
	}
	out.WriteString("; ")
	if fs.Update != nil {
		out.WriteString(fs.Update.String())
	}
	out.WriteString(") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// ForInStatement represents for (x in obj) body.
type ForInStatement struct {
	Token lexer.Token
	Kind  DeclarationKind // declaration kind for the loop variable
	Decl  bool            // true when the loop variable is declared here
	Left  *Identifier
	Right Expression
	Body  Statement
}

func (fs *ForInStatement) statementNode()       {}
func (fs *ForInStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStatement) Pos() lexer.Position  { return fs.Token.Pos }
func (fs *ForInStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	if fs.Decl {
		out.WriteString(fs.Kind.String() + " ")
	}
	out.WriteString(fs.Left.String() + " in " + fs.Right.String() + ") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// ForOfStatement represents for (x of iterable) and for await (x of iterable).
type ForOfStatement struct {
	Token lexer.Token
	Kind  DeclarationKind
	Decl  bool
	Await bool
	Left  *Identifier
	Right Expression
	Body  Statement
}

func (fs *ForOfStatement) statementNode()       {}
func (fs *ForOfStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForOfStatement) Pos() lexer.Position  { return fs.Token.Pos }
func (fs *ForOfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for ")
	if fs.Await {
		out.WriteString("await ")
	}
	out.WriteString("(")
	if fs.Decl {
		out.WriteString(fs.Kind.String() + " ")
	}
	out.WriteString(fs.Left.String() + " of " + fs.Right.String() + ") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

// SwitchCase is one case (or default, when Test is nil) of a switch.
type SwitchCase struct {
	Token lexer.Token
	Test  Expression // nil for default
	Body  []Statement
}

func (sc *SwitchCase) String() string {
	var out bytes.Buffer
	if sc.Test != nil {
		out.WriteString("case " + sc.Test.String() + ": ")
	} else {
		out.WriteString("default: ")
	}
	for _, s := range sc.Body {
		out.WriteString(s.String())
	}
	return out.String()
}

// SwitchStatement represents switch (disc) { case* }.
type SwitchStatement struct {
	Token        lexer.Token
	Discriminant Expression
	Cases        []*SwitchCase
}

func (ss *SwitchStatement) statementNode()       {}
func (ss *SwitchStatement) TokenLiteral() string { return ss.Token.Literal }
func (ss *SwitchStatement) Pos() lexer.Position  { return ss.Token.Pos }
func (ss *SwitchStatement) String() string {
	var out bytes.Buffer
	out.WriteString("switch (" + ss.Discriminant.String() + ") { ")
	for _, c := range ss.Cases {
		out.WriteString(c.String())
	}
	out.WriteString(" }")
	return out.String()
}

// LabeledStatement represents label: stmt.
type LabeledStatement struct {
	Token lexer.Token
	Label *Identifier
	Body  Statement
}

func (ls *LabeledStatement) statementNode()       {}
func (ls *LabeledStatement) TokenLiteral() string { return ls.Token.Literal }
func (ls *LabeledStatement) Pos() lexer.Position  { return ls.Token.Pos }
func (ls *LabeledStatement) String() string {
	return ls.Label.String() + ": " + ls.Body.String()
}

// BreakStatement represents break and break label.
type BreakStatement struct {
	Token lexer.Token
	Label *Identifier // nil when unlabeled
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Pos() lexer.Position  { return bs.Token.Pos }
func (bs *BreakStatement) String() string {
	if bs.Label != nil {
		return "break " + bs.Label.String() + ";"
	}
	return "break;"
}

// ContinueStatement represents continue and continue label.
type ContinueStatement struct {
	Token lexer.Token
	Label *Identifier
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Pos() lexer.Position  { return cs.Token.Pos }
func (cs *ContinueStatement) String() string {
	if cs.Label != nil {
		return "continue " + cs.Label.String() + ";"
	}
	return "continue;"
}

// ReturnStatement represents return and return expr.
type ReturnStatement struct {
	Token lexer.Token
	Value Expression // nil for bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Pos() lexer.Position  { return rs.Token.Pos }
func (rs *ReturnStatement) String() string {
	if rs.Value != nil {
		return "return " + rs.Value.String() + ";"
	}
	return "return;"
}

// ThrowStatement represents throw expr.
type ThrowStatement struct {
	Token lexer.Token
	Value Expression
}

func (ts *ThrowStatement) statementNode()       {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) Pos() lexer.Position  { return ts.Token.Pos }
func (ts *ThrowStatement) String() string {
	return "throw " + ts.Value.String() + ";"
}

// CatchClause is the catch part of a try statement.
type CatchClause struct {
	Token lexer.Token
	Param *Identifier // nil for catch {}
	Body  *BlockStatement
}

func (cc *CatchClause) String() string {
	if cc.Param != nil {
		return "catch (" + cc.Param.String() + ") " + cc.Body.String()
	}
	return "catch " + cc.Body.String()
}

// TryStatement represents try/catch/finally. At least one of Handler and
// Finalizer is present; finally runs on every exit path.
type TryStatement struct {
	Token     lexer.Token
	Block     *BlockStatement
	Handler   *CatchClause    // nil when absent
	Finalizer *BlockStatement // nil when absent
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Pos() lexer.Position  { return ts.Token.Pos }
func (ts *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("try " + ts.Block.String())
	if ts.Handler != nil {
		out.WriteString(" " + ts.Handler.String())
	}
	if ts.Finalizer != nil {
		out.WriteString(" finally " + ts.Finalizer.String())
	}
	return out.String()
}

// FunctionDeclaration represents a named function statement.
type FunctionDeclaration struct {
	Token    lexer.Token
	Function *FunctionExpression // carries name, signature and body
	Exported bool
	Default  bool // export default function ...
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclaration) Pos() lexer.Position  { return fd.Token.Pos }
func (fd *FunctionDeclaration) String() string {
	prefix := ""
	if fd.Exported {
		prefix = "export "
		if fd.Default {
			prefix = "export default "
		}
	}
	return prefix + fd.Function.String()
}
