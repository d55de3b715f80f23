package parser

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parseImportDeclaration parses every import statement form:
//
//	import "m";
//	import def from "m";
//	import * as ns from "m";
//	import { a, b as c } from "m";
//	import def, { a } from "m";
//	import x = require("m");
func (p *Parser) parseImportDeclaration() ast.Statement {
	tok := p.curToken

	// Side-effect import: import "m";
	if p.peekTokenIs(lexer.STRING) {
		p.nextToken()
		decl := &ast.ImportDeclaration{Token: tok, Specifier: p.curToken.Literal}
		p.consumeSemicolon()
		return decl
	}

	// import x = require("m");
	if p.peekIsIdentLike() && p.l.Peek(0).Type == lexer.ASSIGN {
		p.nextToken()
		name := p.parseIdentName()
		p.nextToken() // onto =
		if !p.expectPeek(lexer.REQUIRE) {
			return nil
		}
		if !p.expectPeek(lexer.LPAREN) {
			return nil
		}
		if !p.expectPeek(lexer.STRING) {
			return nil
		}
		spec := p.curToken.Literal
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		p.consumeSemicolon()
		return &ast.ImportEqualsDeclaration{Token: tok, Name: name, Specifier: spec}
	}

	decl := &ast.ImportDeclaration{Token: tok}

	// Default import clause.
	if p.peekIsIdentLike() {
		p.nextToken()
		decl.Default = p.parseIdentName()
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}

	switch p.peekToken.Type {
	case lexer.ASTERISK:
		p.nextToken()
		if !p.expectPeek(lexer.AS) {
			return nil
		}
		p.nextToken()
		decl.Namespace = p.parseIdentName()
	case lexer.LBRACE:
		p.nextToken()
		named, ok := p.parseImportSpecifiers()
		if !ok {
			return nil
		}
		decl.Named = named
	}

	if decl.Default == nil && decl.Namespace == nil && decl.Named == nil {
		p.addError("expected import clause", p.peekToken.Pos)
		return nil
	}

	if !p.expectPeek(lexer.FROM) {
		return nil
	}
	if !p.expectPeek(lexer.STRING) {
		return nil
	}
	decl.Specifier = p.curToken.Literal
	p.consumeSemicolon()
	return decl
}

// parseImportSpecifiers parses { a, b as c }; the parser sits on '{'.
func (p *Parser) parseImportSpecifiers() ([]*ast.ImportSpecifier, bool) {
	var named []*ast.ImportSpecifier

	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		if !p.curIsIdentLike() {
			p.addError(fmt.Sprintf("expected import name, got %q", p.curToken.Literal), p.curToken.Pos)
			return nil, false
		}
		spec := &ast.ImportSpecifier{Name: p.parseIdentName()}
		if p.peekTokenIs(lexer.AS) {
			p.nextToken()
			p.nextToken()
			spec.Alias = p.parseIdentName()
		}
		named = append(named, spec)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil, false
	}
	return named, true
}

// parseExportDeclaration parses every export statement form:
//
//	export { a, b as c };
//	export { a } from "m";
//	export * from "m";
//	export default expr;
//	export = expr;
//	export <declaration>;
func (p *Parser) parseExportDeclaration() ast.Statement {
	tok := p.curToken

	switch p.peekToken.Type {
	case lexer.ASSIGN:
		// export = expr;
		p.nextToken()
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		p.consumeSemicolon()
		return &ast.ExportAssignment{Token: tok, Expression: expr}

	case lexer.DEFAULT:
		p.nextToken()
		p.nextToken()
		switch p.curToken.Type {
		case lexer.FUNCTION:
			stmt := p.parseFunctionDeclaration(true, false)
			if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
				fd.Default = true
				return fd
			}
			return stmt
		case lexer.ASYNC:
			if p.peekTokenIs(lexer.FUNCTION) {
				p.nextToken()
				stmt := p.parseFunctionDeclaration(true, true)
				if fd, ok := stmt.(*ast.FunctionDeclaration); ok {
					fd.Default = true
					return fd
				}
				return stmt
			}
		case lexer.CLASS, lexer.ABSTRACT:
			return p.parseClassStatement(nil, true, true)
		}
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		p.consumeSemicolon()
		return &ast.ExportDeclaration{Token: tok, Default: expr}

	case lexer.ASTERISK:
		// export * from "m";
		p.nextToken()
		if !p.expectPeek(lexer.FROM) {
			return nil
		}
		if !p.expectPeek(lexer.STRING) {
			return nil
		}
		decl := &ast.ExportDeclaration{Token: tok, Star: true, Source: p.curToken.Literal}
		p.consumeSemicolon()
		return decl

	case lexer.LBRACE:
		p.nextToken()
		decl := &ast.ExportDeclaration{Token: tok}
		for !p.peekTokenIs(lexer.RBRACE) {
			p.nextToken()
			if !p.curIsIdentLike() {
				p.addError(fmt.Sprintf("expected export name, got %q", p.curToken.Literal), p.curToken.Pos)
				return nil
			}
			spec := &ast.ExportSpecifier{Name: p.parseIdentName()}
			if p.peekTokenIs(lexer.AS) {
				p.nextToken()
				p.nextToken()
				spec.Alias = p.parseIdentName()
			}
			decl.Named = append(decl.Named, spec)
			if p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		if !p.expectPeek(lexer.RBRACE) {
			return nil
		}
		if p.peekTokenIs(lexer.FROM) {
			p.nextToken()
			if !p.expectPeek(lexer.STRING) {
				return nil
			}
			decl.Source = p.curToken.Literal
		}
		p.consumeSemicolon()
		return decl

	case lexer.VAR, lexer.LET, lexer.CONST:
		p.nextToken()
		return p.parseVariableStatement(true)
	case lexer.FUNCTION:
		p.nextToken()
		return p.parseFunctionDeclaration(true, false)
	case lexer.ASYNC:
		p.nextToken()
		if p.peekTokenIs(lexer.FUNCTION) {
			p.nextToken()
			return p.parseFunctionDeclaration(true, true)
		}
		p.addError("expected 'function' after 'export async'", p.peekToken.Pos)
		return nil
	case lexer.CLASS, lexer.ABSTRACT:
		p.nextToken()
		return p.parseClassStatement(nil, true, false)
	case lexer.INTERFACE:
		p.nextToken()
		return p.parseInterfaceDeclaration(true)
	case lexer.TYPE:
		p.nextToken()
		return p.parseTypeAliasDeclaration(true)
	case lexer.ENUM:
		p.nextToken()
		return p.parseEnumDeclaration(true, false)
	case lexer.AT:
		p.nextToken()
		decorators := p.parseDecorators(true)
		return p.parseClassStatement(decorators, true, false)
	}

	p.addError(fmt.Sprintf("unexpected token %q after 'export'", p.peekToken.Literal), p.peekToken.Pos)
	return nil
}
