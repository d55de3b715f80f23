// Package parser implements the TScript parser using Pratt parsing.
//
// Key patterns:
//   - Token cursor: curToken/peekToken windows over the lexer, with an
//     injection slot for synthetic tokens produced by '>>' resplitting
//   - Speculative parsing: saveState()/restoreState() snapshot both the
//     parser window and the lexer, used for arrow-parameter lookahead
//   - Error recovery: synchronize() panic-mode recovery to the next
//     statement boundary so one parse surfaces many diagnostics
package parser

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// Precedence levels for operators (lowest to highest).
const (
	_ int = iota
	LOWEST
	ASSIGNMENT  // = += -= ...
	CONDITIONAL // ?:
	NULLISH     // ??
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	BITWISE_OR  // |
	BITWISE_XOR // ^
	BITWISE_AND // &
	EQUALITY    // == != === !==
	RELATIONAL  // < > <= >= in instanceof as
	SHIFT       // << >> >>>
	SUM         // + -
	PRODUCT     // * / %
	EXPONENT    // ** (right associative)
	PREFIX      // -x !x typeof x await x
	POSTFIX     // x++ x--
	CALL        // f(x) a[i] obj.m
)

// precedences maps token types to their precedence levels.
var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:          ASSIGNMENT,
	lexer.PLUS_ASSIGN:     ASSIGNMENT,
	lexer.MINUS_ASSIGN:    ASSIGNMENT,
	lexer.ASTERISK_ASSIGN: ASSIGNMENT,
	lexer.SLASH_ASSIGN:    ASSIGNMENT,
	lexer.PERCENT_ASSIGN:  ASSIGNMENT,
	lexer.POWER_ASSIGN:    ASSIGNMENT,
	lexer.AMP_ASSIGN:      ASSIGNMENT,
	lexer.PIPE_ASSIGN:     ASSIGNMENT,
	lexer.CARET_ASSIGN:    ASSIGNMENT,
	lexer.SHL_ASSIGN:      ASSIGNMENT,
	lexer.SHR_ASSIGN:      ASSIGNMENT,
	lexer.USHR_ASSIGN:     ASSIGNMENT,
	lexer.AND_ASSIGN:      ASSIGNMENT,
	lexer.OR_ASSIGN:       ASSIGNMENT,
	lexer.NULLISH_ASSIGN:  ASSIGNMENT,

	lexer.QUESTION: CONDITIONAL,

	lexer.NULLISH:   NULLISH,
	lexer.PIPE_PIPE: LOGICAL_OR,
	lexer.AMP_AMP:   LOGICAL_AND,

	lexer.PIPE:  BITWISE_OR,
	lexer.CARET: BITWISE_XOR,
	lexer.AMP:   BITWISE_AND,

	lexer.EQ:         EQUALITY,
	lexer.NOT_EQ:     EQUALITY,
	lexer.EQ_STRICT:  EQUALITY,
	lexer.NEQ_STRICT: EQUALITY,

	lexer.LESS:       RELATIONAL,
	lexer.GREATER:    RELATIONAL,
	lexer.LESS_EQ:    RELATIONAL,
	lexer.GREATER_EQ: RELATIONAL,
	lexer.IN:         RELATIONAL,
	lexer.INSTANCEOF: RELATIONAL,
	lexer.AS:         RELATIONAL,

	lexer.SHL:  SHIFT,
	lexer.SHR:  SHIFT,
	lexer.USHR: SHIFT,

	lexer.PLUS:  SUM,
	lexer.MINUS: SUM,

	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,

	lexer.POWER: EXPONENT,

	lexer.INC: POSTFIX,
	lexer.DEC: POSTFIX,

	lexer.LPAREN:       CALL,
	lexer.LBRACK:       CALL,
	lexer.DOT:          CALL,
	lexer.QUESTION_DOT: CALL,
}

// prefixParseFn parses prefix expressions (literals, unary ops, grouping).
type prefixParseFn func() ast.Expression

// infixParseFn parses infix expressions (binary ops, calls, member access).
type infixParseFn func(ast.Expression) ast.Expression

// ParserError represents a single parse error with position information.
type ParserError struct {
	Message string
	Pos     lexer.Position
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// Parser represents the TScript parser.
type Parser struct {
	l              *lexer.Lexer
	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
	errors         []*ParserError

	curToken  lexer.Token
	peekToken lexer.Token

	// typeArgDepth tracks nesting inside type argument lists so the '>' of
	// a '>>' token can be consumed one at a time via resplitting.
	typeArgDepth int
}

// parserState is a snapshot for speculative parsing with full backtracking.
type parserState struct {
	lexerState lexer.LexerState
	curToken   lexer.Token
	peekToken  lexer.Token
	errorCount int
}

// New creates a new Parser reading from the given lexer.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifierOrArrow)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.BIGINT, p.parseBigIntLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.REGEX, p.parseRegexLiteral)
	p.registerPrefix(lexer.TEMPLATE_STRING, p.parseTemplateLiteral)
	p.registerPrefix(lexer.TEMPLATE_HEAD, p.parseTemplateLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.UNDEFINED, p.parseUndefinedLiteral)
	p.registerPrefix(lexer.THIS, p.parseThisExpression)
	p.registerPrefix(lexer.SUPER, p.parseSuperExpression)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.TILDE, p.parsePrefixExpression)
	p.registerPrefix(lexer.TYPEOF, p.parsePrefixExpression)
	p.registerPrefix(lexer.VOID, p.parsePrefixExpression)
	p.registerPrefix(lexer.DELETE, p.parsePrefixExpression)
	p.registerPrefix(lexer.INC, p.parseUpdatePrefix)
	p.registerPrefix(lexer.DEC, p.parseUpdatePrefix)
	p.registerPrefix(lexer.LPAREN, p.parseParenOrArrow)
	p.registerPrefix(lexer.LBRACK, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionExpression)
	p.registerPrefix(lexer.CLASS, p.parseClassExpression)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.AWAIT, p.parseAwaitExpression)
	p.registerPrefix(lexer.YIELD, p.parseYieldExpression)
	p.registerPrefix(lexer.ASYNC, p.parseAsyncExpression)
	p.registerPrefix(lexer.DOTDOTDOT, p.parseSpreadElement)
	// Contextual keywords usable as plain identifiers in expressions.
	for _, tt := range []lexer.TokenType{
		lexer.GET, lexer.SET, lexer.STATIC, lexer.READONLY, lexer.ABSTRACT,
		lexer.OVERRIDE, lexer.FROM, lexer.AS, lexer.OF, lexer.TYPE,
		lexer.NAMESPACE, lexer.DECLARE, lexer.IS, lexer.KEYOF, lexer.INFER,
		lexer.REQUIRE,
	} {
		p.registerPrefix(tt, p.parseIdentifierOrArrow)
	}

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, tt := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.POWER, lexer.EQ, lexer.NOT_EQ, lexer.EQ_STRICT, lexer.NEQ_STRICT,
		lexer.LESS, lexer.GREATER, lexer.LESS_EQ, lexer.GREATER_EQ,
		lexer.SHL, lexer.SHR, lexer.USHR, lexer.AMP, lexer.PIPE, lexer.CARET,
		lexer.IN, lexer.INSTANCEOF,
	} {
		p.registerInfix(tt, p.parseBinaryExpression)
	}
	for _, tt := range []lexer.TokenType{
		lexer.AMP_AMP, lexer.PIPE_PIPE, lexer.NULLISH,
	} {
		p.registerInfix(tt, p.parseLogicalExpression)
	}
	for _, tt := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN,
		lexer.ASTERISK_ASSIGN, lexer.SLASH_ASSIGN, lexer.PERCENT_ASSIGN,
		lexer.POWER_ASSIGN, lexer.AMP_ASSIGN, lexer.PIPE_ASSIGN,
		lexer.CARET_ASSIGN, lexer.SHL_ASSIGN, lexer.SHR_ASSIGN,
		lexer.USHR_ASSIGN, lexer.AND_ASSIGN, lexer.OR_ASSIGN,
		lexer.NULLISH_ASSIGN,
	} {
		p.registerInfix(tt, p.parseAssignmentExpression)
	}
	p.registerInfix(lexer.QUESTION, p.parseConditionalExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.LBRACK, p.parseIndexExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)
	p.registerInfix(lexer.QUESTION_DOT, p.parseOptionalChain)
	p.registerInfix(lexer.INC, p.parseUpdatePostfix)
	p.registerInfix(lexer.DEC, p.parseUpdatePostfix)
	p.registerInfix(lexer.AS, p.parseTypeAssertion)

	// Prime the two-token window.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// Errors returns the list of parsing errors.
func (p *Parser) Errors() []*ParserError {
	return p.errors
}

// CollectDiagnostics copies lexer and parser errors into a diagnostic list.
func (p *Parser) CollectDiagnostics(file string, diags *errors.DiagnosticList) {
	for i := range p.l.Errors() {
		le := &p.l.Errors()[i]
		diags.Add(&errors.Diagnostic{
			Pos:      le.Pos,
			EndPos:   le.Pos,
			Severity: errors.SeverityError,
			Code:     "TS1127",
			Message:  le.Message,
			File:     file,
		})
	}
	for _, pe := range p.errors {
		diags.Add(&errors.Diagnostic{
			Pos:      pe.Pos,
			EndPos:   pe.Pos,
			Severity: errors.SeverityError,
			Code:     "TS1005",
			Message:  pe.Message,
			File:     file,
		})
	}
}

// nextToken advances the token window by one.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// saveState snapshots the parser and lexer for speculative parsing.
func (p *Parser) saveState() parserState {
	return parserState{
		lexerState: p.l.SaveState(),
		curToken:   p.curToken,
		peekToken:  p.peekToken,
		errorCount: len(p.errors),
	}
}

// restoreState rewinds the parser and lexer to a snapshot, discarding any
// errors accumulated during the speculative attempt.
func (p *Parser) restoreState(s parserState) {
	p.l.RestoreState(s.lexerState)
	p.curToken = s.curToken
	p.peekToken = s.peekToken
	p.errors = p.errors[:s.errorCount]
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances if the peek token matches, otherwise records an error.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

// expectCur consumes the current token if it matches, otherwise records an
// error and leaves the position unchanged.
func (p *Parser) expectCur(t lexer.TokenType) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf("expected %q, got %q", t.String(), p.curToken.Literal), p.curToken.Pos)
	return false
}

func (p *Parser) addError(msg string, pos lexer.Position) {
	p.errors = append(p.errors, &ParserError{Message: msg, Pos: pos})
}

func (p *Parser) peekError(t lexer.TokenType) {
	p.addError(fmt.Sprintf("expected %q, got %q", t.String(), p.peekToken.Literal), p.peekToken.Pos)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// curIsIdentLike reports whether the current token can serve as an
// identifier (plain identifier or contextual keyword).
func (p *Parser) curIsIdentLike() bool {
	return p.curToken.Type.IsIdentLike()
}

func (p *Parser) peekIsIdentLike() bool {
	return p.peekToken.Type.IsIdentLike()
}

// parseIdentName consumes the current token as an identifier, accepting
// contextual keywords. Keyword tokens like 'get' remain usable as names.
func (p *Parser) parseIdentName() *ast.Identifier {
	if !p.curIsIdentLike() {
		p.addError(fmt.Sprintf("expected identifier, got %q", p.curToken.Literal), p.curToken.Pos)
		return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

// ParseModule parses the whole input as one module.
func (p *Parser) ParseModule(name string) *ast.Module {
	mod := &ast.Module{Name: name}

	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			mod.Statements = append(mod.Statements, stmt)
			p.nextToken()
		} else {
			// Ensure progress before recovering so a stuck boundary token
			// cannot loop forever.
			p.nextToken()
			p.synchronize()
		}
	}
	return mod
}

// synchronize performs panic-mode recovery: skip tokens until a plausible
// statement boundary so one parse surfaces the maximum number of useful
// diagnostics.
func (p *Parser) synchronize() {
	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
			return
		}
		switch p.curToken.Type {
		case lexer.VAR, lexer.LET, lexer.CONST, lexer.FUNCTION, lexer.CLASS,
			lexer.INTERFACE, lexer.TYPE, lexer.ENUM, lexer.IF, lexer.WHILE,
			lexer.DO, lexer.FOR, lexer.SWITCH, lexer.RETURN, lexer.THROW,
			lexer.TRY, lexer.IMPORT, lexer.EXPORT, lexer.RBRACE:
			return
		}
		p.nextToken()
	}
}
