package parser

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parseStatement dispatches on the current token to the statement parsers.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		if stmt := p.parseVariableStatement(false); stmt != nil {
			return stmt
		}
		return nil
	case lexer.LBRACE:
		return p.parseBlockStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.DO:
		return p.parseDoWhileStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.SWITCH:
		return p.parseSwitchStatement()
	case lexer.BREAK:
		return p.parseBreakStatement()
	case lexer.CONTINUE:
		return p.parseContinueStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.FUNCTION:
		return p.parseFunctionDeclaration(false, false)
	case lexer.ASYNC:
		if p.peekTokenIs(lexer.FUNCTION) {
			p.nextToken()
			return p.parseFunctionDeclaration(false, true)
		}
		return p.parseExpressionStatement()
	case lexer.CLASS, lexer.ABSTRACT:
		return p.parseClassStatement(nil, false, false)
	case lexer.AT:
		return p.parseDecoratedStatement()
	case lexer.INTERFACE:
		return p.parseInterfaceDeclaration(false)
	case lexer.TYPE:
		if p.peekIsIdentLike() {
			return p.parseTypeAliasDeclaration(false)
		}
		return p.parseExpressionStatement()
	case lexer.ENUM:
		return p.parseEnumDeclaration(false, false)
	case lexer.IMPORT:
		return p.parseImportDeclaration()
	case lexer.EXPORT:
		return p.parseExportDeclaration()
	case lexer.SEMICOLON:
		return &ast.ExpressionStatement{Token: p.curToken}
	case lexer.IDENT:
		if p.peekTokenIs(lexer.COLON) {
			return p.parseLabeledStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// parseVariableStatement parses var/let/const declarations.
func (p *Parser) parseVariableStatement(exported bool) *ast.VariableStatement {
	stmt := &ast.VariableStatement{Token: p.curToken, Exported: exported}
	switch p.curToken.Type {
	case lexer.VAR:
		stmt.Kind = ast.DeclVar
	case lexer.LET:
		stmt.Kind = ast.DeclLet
	case lexer.CONST:
		stmt.Kind = ast.DeclConst
	}

	for {
		if !p.peekIsIdentLike() {
			p.peekError(lexer.IDENT)
			return nil
		}
		p.nextToken()
		decl := &ast.VariableDeclarator{Name: p.parseIdentName()}

		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			decl.Type = p.parseType()
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			decl.Init = p.parseExpression(ASSIGNMENT - 1)
		} else if stmt.Kind == ast.DeclConst {
			p.addError(fmt.Sprintf("const declaration %q must be initialized", decl.Name.Value), decl.Name.Pos())
		}
		stmt.Declarations = append(stmt.Declarations, decl)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.consumeSemicolon()
	return stmt
}

// parseBlockStatement parses { stmt* }; the parser sits on '{'.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
			p.nextToken()
		} else {
			p.nextToken()
			p.synchronize()
		}
		if p.curTokenIs(lexer.SEMICOLON) {
			p.nextToken()
		}
	}
	if !p.curTokenIs(lexer.RBRACE) {
		p.addError("expected '}'", p.curToken.Pos)
	}
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpressionOrSequence()
	if stmt.Expression == nil {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// consumeSemicolon expects the statement terminator. Semicolons are required
// except before '}' and EOF.
func (p *Parser) consumeSemicolon() {
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		return
	}
	if p.peekTokenIs(lexer.RBRACE) || p.peekTokenIs(lexer.EOF) {
		return
	}
	p.addError("';' expected", p.peekToken.Pos)
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Consequent = p.parseStatement()

	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken()
		p.nextToken()
		stmt.Alternate = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	return stmt
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Body = p.parseStatement()
	if !p.expectPeek(lexer.WHILE) {
		return nil
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// parseForStatement disambiguates the three for-loop forms: C-style,
// for-in, for-of and for-await-of.
func (p *Parser) parseForStatement() ast.Statement {
	forTok := p.curToken
	isAwait := false
	if p.peekTokenIs(lexer.AWAIT) {
		isAwait = true
		p.nextToken()
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}

	// Detect for-in / for-of with or without a declaration keyword.
	var kind ast.DeclarationKind
	decl := false
	switch p.peekToken.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		decl = true
		switch p.peekToken.Type {
		case lexer.VAR:
			kind = ast.DeclVar
		case lexer.LET:
			kind = ast.DeclLet
		case lexer.CONST:
			kind = ast.DeclConst
		}
		third := p.l.Peek(1) // token after the loop variable
		if third.Type == lexer.IN || third.Type == lexer.OF {
			p.nextToken() // onto var/let/const
			p.nextToken() // onto the name
			return p.parseForInOf(forTok, kind, decl, isAwait)
		}
	default:
		if p.peekIsIdentLike() {
			third := p.l.Peek(0)
			if third.Type == lexer.IN || third.Type == lexer.OF {
				p.nextToken() // onto the name
				return p.parseForInOf(forTok, kind, decl, isAwait)
			}
		}
	}

	if isAwait {
		p.addError("'for await' is only valid with 'of'", forTok.Pos)
	}

	// C-style for.
	stmt := &ast.ForStatement{Token: forTok}
	if !p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		switch p.curToken.Type {
		case lexer.VAR, lexer.LET, lexer.CONST:
			stmt.Init = p.parseForInit()
		default:
			es := &ast.ExpressionStatement{Token: p.curToken}
			es.Expression = p.parseExpressionOrSequence()
			stmt.Init = es
			if !p.expectPeek(lexer.SEMICOLON) {
				return nil
			}
		}
	} else {
		p.nextToken() // onto ;
	}

	if !p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		stmt.Condition = p.parseExpression(LOWEST)
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}

	if !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		stmt.Update = p.parseExpressionOrSequence()
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Body = p.parseStatement()
	return stmt
}

// parseForInit parses the declaration clause of a C-style for header,
// leaving the parser on the ';'.
func (p *Parser) parseForInit() ast.Statement {
	stmt := &ast.VariableStatement{Token: p.curToken}
	switch p.curToken.Type {
	case lexer.VAR:
		stmt.Kind = ast.DeclVar
	case lexer.LET:
		stmt.Kind = ast.DeclLet
	case lexer.CONST:
		stmt.Kind = ast.DeclConst
	}

	for {
		if !p.peekIsIdentLike() {
			p.peekError(lexer.IDENT)
			return nil
		}
		p.nextToken()
		decl := &ast.VariableDeclarator{Name: p.parseIdentName()}
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			decl.Type = p.parseType()
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			decl.Init = p.parseExpression(ASSIGNMENT - 1)
		}
		stmt.Declarations = append(stmt.Declarations, decl)
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseForInOf finishes a for-in or for-of loop; the parser sits on the
// loop variable.
func (p *Parser) parseForInOf(forTok lexer.Token, kind ast.DeclarationKind, decl, isAwait bool) ast.Statement {
	name := p.parseIdentName()

	isOf := p.peekTokenIs(lexer.OF)
	p.nextToken() // onto in/of
	p.nextToken()
	right := p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.nextToken()
	body := p.parseStatement()

	if isOf {
		return &ast.ForOfStatement{
			Token: forTok, Kind: kind, Decl: decl, Await: isAwait,
			Left: name, Right: right, Body: body,
		}
	}
	if isAwait {
		p.addError("'for await' is only valid with 'of'", forTok.Pos)
	}
	return &ast.ForInStatement{
		Token: forTok, Kind: kind, Decl: decl,
		Left: name, Right: right, Body: body,
	}
}

func (p *Parser) parseSwitchStatement() ast.Statement {
	stmt := &ast.SwitchStatement{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Discriminant = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	for p.peekTokenIs(lexer.CASE) || p.peekTokenIs(lexer.DEFAULT) {
		p.nextToken()
		c := &ast.SwitchCase{Token: p.curToken}
		if p.curTokenIs(lexer.CASE) {
			p.nextToken()
			c.Test = p.parseExpression(LOWEST)
		}
		if !p.expectPeek(lexer.COLON) {
			return nil
		}

		for !p.peekTokenIs(lexer.CASE) && !p.peekTokenIs(lexer.DEFAULT) &&
			!p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
			p.nextToken()
			if s := p.parseStatement(); s != nil {
				c.Body = append(c.Body, s)
			} else {
				p.synchronize()
			}
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return stmt
}

func (p *Parser) parseLabeledStatement() ast.Statement {
	label := p.parseIdentName()
	p.nextToken() // onto :
	p.nextToken()
	body := p.parseStatement()
	return &ast.LabeledStatement{Token: label.Token, Label: label, Body: body}
}

func (p *Parser) parseBreakStatement() ast.Statement {
	stmt := &ast.BreakStatement{Token: p.curToken}
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		stmt.Label = p.parseIdentName()
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseContinueStatement() ast.Statement {
	stmt := &ast.ContinueStatement{Token: p.curToken}
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		stmt.Label = p.parseIdentName()
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if p.peekTokenIs(lexer.SEMICOLON) || p.peekTokenIs(lexer.RBRACE) || p.peekTokenIs(lexer.EOF) {
		p.consumeSemicolon()
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpressionOrSequence()
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseThrowStatement() ast.Statement {
	stmt := &ast.ThrowStatement{Token: p.curToken}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseTryStatement() ast.Statement {
	stmt := &ast.TryStatement{Token: p.curToken}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	stmt.Block = p.parseBlockStatement()

	if p.peekTokenIs(lexer.CATCH) {
		p.nextToken()
		clause := &ast.CatchClause{Token: p.curToken}
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			p.nextToken()
			clause.Param = p.parseIdentName()
			if !p.expectPeek(lexer.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		clause.Body = p.parseBlockStatement()
		stmt.Handler = clause
	}

	if p.peekTokenIs(lexer.FINALLY) {
		p.nextToken()
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		stmt.Finalizer = p.parseBlockStatement()
	}

	if stmt.Handler == nil && stmt.Finalizer == nil {
		p.addError("'try' requires 'catch' or 'finally'", stmt.Token.Pos)
	}
	return stmt
}

// parseFunctionDeclaration parses a named function statement.
func (p *Parser) parseFunctionDeclaration(exported, isAsync bool) ast.Statement {
	tok := p.curToken
	fn := p.parseFunctionFrom(isAsync)
	fe, ok := fn.(*ast.FunctionExpression)
	if !ok || fe == nil {
		return nil
	}
	if fe.Name == nil {
		p.addError("function declaration requires a name", tok.Pos)
	}
	return &ast.FunctionDeclaration{Token: tok, Function: fe, Exported: exported}
}
