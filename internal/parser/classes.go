package parser

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parseDecoratedStatement parses legacy-position decorators followed by the
// class they decorate: @dec class C { ... }.
func (p *Parser) parseDecoratedStatement() ast.Statement {
	decorators := p.parseDecorators(true)
	switch p.curToken.Type {
	case lexer.CLASS, lexer.ABSTRACT:
		return p.parseClassStatement(decorators, false, false)
	case lexer.EXPORT:
		p.nextToken()
		isDefault := false
		if p.curTokenIs(lexer.DEFAULT) {
			isDefault = true
			p.nextToken()
		}
		return p.parseClassStatement(decorators, true, isDefault)
	}
	p.addError("decorators are only valid on classes and class members", p.curToken.Pos)
	return nil
}

// parseDecorators parses a run of @expr decorators, leaving the parser on
// the decorated declaration.
func (p *Parser) parseDecorators(legacy bool) []*ast.Decorator {
	var decorators []*ast.Decorator
	for p.curTokenIs(lexer.AT) {
		dec := &ast.Decorator{Token: p.curToken, Legacy: legacy}
		p.nextToken()
		// A decorator is an expression: identifier, member chain or call.
		dec.Expression = p.parseExpression(CALL - 1)
		decorators = append(decorators, dec)
		p.nextToken()
	}
	return decorators
}

// parseClassStatement parses an optionally abstract class declaration.
func (p *Parser) parseClassStatement(decorators []*ast.Decorator, exported, isDefault bool) ast.Statement {
	decl := p.parseClassDeclaration(decorators, exported, isDefault)
	if decl == nil {
		return nil
	}
	return decl
}

// parseClassDeclaration parses class <name> <typeparams>? extends? implements?
// { members }. The parser sits on 'class' or 'abstract'.
func (p *Parser) parseClassDeclaration(decorators []*ast.Decorator, exported, isDefault bool) *ast.ClassDeclaration {
	decl := &ast.ClassDeclaration{
		Token:      p.curToken,
		Decorators: decorators,
		Exported:   exported,
		Default:    isDefault,
	}

	if p.curTokenIs(lexer.ABSTRACT) {
		decl.IsAbstract = true
		if !p.expectPeek(lexer.CLASS) {
			return nil
		}
	}

	if p.peekIsIdentLike() {
		p.nextToken()
		decl.Name = p.parseIdentName()
	} else if !isDefault {
		p.peekError(lexer.IDENT)
		return nil
	} else {
		// export default class { ... } is anonymous.
		decl.Name = &ast.Identifier{Token: decl.Token, Value: "default"}
	}

	if p.peekTokenIs(lexer.LESS) {
		p.nextToken()
		decl.TypeParams = p.parseTypeParameters()
	}

	if p.peekTokenIs(lexer.EXTENDS) {
		p.nextToken()
		p.nextToken()
		decl.SuperClass = p.parseExpression(CALL)
		if p.peekTokenIs(lexer.LESS) {
			p.nextToken()
			if args, ok := p.tryParseTypeArgumentList(); ok {
				decl.SuperTypeArgs = args
			}
		}
	}

	if p.peekTokenIs(lexer.IMPLEMENTS) {
		p.nextToken()
		for {
			p.nextToken()
			t := p.parseType()
			if t == nil {
				return nil
			}
			decl.Implements = append(decl.Implements, t)
			if p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		if p.curTokenIs(lexer.SEMICOLON) {
			continue
		}
		member := p.parseClassMember()
		if member != nil {
			decl.Members = append(decl.Members, member)
		} else {
			p.synchronize()
			if p.curTokenIs(lexer.SEMICOLON) || p.curTokenIs(lexer.RBRACE) {
				continue
			}
		}
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return decl
}

// parseClassMember parses one member: field, method, constructor, accessor,
// index signature or parameter-property-bearing constructor. Decorators are
// accepted both before the modifiers (legacy) and between modifiers and the
// member name (current proposal).
func (p *Parser) parseClassMember() ast.ClassMember {
	var decorators []*ast.Decorator
	if p.curTokenIs(lexer.AT) {
		decorators = append(decorators, p.parseDecorators(true)...)
	}

	mods := ast.MemberModifiers{}
	for {
		switch p.curToken.Type {
		case lexer.PUBLIC:
			mods.Access = ast.AccessPublic
		case lexer.PRIVATE:
			mods.Access = ast.AccessPrivate
		case lexer.PROTECTED:
			mods.Access = ast.AccessProtected
		case lexer.STATIC:
			// 'static' used as a field name: static = 1.
			if p.peekTokenIs(lexer.ASSIGN) || p.peekTokenIs(lexer.COLON) || p.peekTokenIs(lexer.LPAREN) {
				return p.parseFieldOrMethod(decorators, mods)
			}
			mods.Static = true
		case lexer.ABSTRACT:
			if p.peekTokenIs(lexer.ASSIGN) || p.peekTokenIs(lexer.COLON) || p.peekTokenIs(lexer.LPAREN) {
				return p.parseFieldOrMethod(decorators, mods)
			}
			mods.Abstract = true
		case lexer.OVERRIDE:
			if p.peekTokenIs(lexer.ASSIGN) || p.peekTokenIs(lexer.COLON) || p.peekTokenIs(lexer.LPAREN) {
				return p.parseFieldOrMethod(decorators, mods)
			}
			mods.Override = true
		case lexer.READONLY:
			if p.peekTokenIs(lexer.ASSIGN) || p.peekTokenIs(lexer.COLON) || p.peekTokenIs(lexer.LPAREN) {
				return p.parseFieldOrMethod(decorators, mods)
			}
			mods.Readonly = true
		case lexer.ASYNC:
			if p.peekTokenIs(lexer.ASSIGN) || p.peekTokenIs(lexer.COLON) {
				return p.parseFieldOrMethod(decorators, mods)
			}
			mods.Async = true
		case lexer.AT:
			// Current-proposal position: between modifiers and the name.
			decorators = append(decorators, p.parseDecorators(false)...)
			continue
		default:
			goto modifiersDone
		}
		p.nextToken()
	}
modifiersDone:

	// Index signature: [key: string]: T
	if p.curTokenIs(lexer.LBRACK) && p.peekIsIdentLike() && p.l.Peek(0).Type == lexer.COLON {
		return p.parseIndexSignature(mods)
	}

	// Accessors.
	if (p.curTokenIs(lexer.GET) || p.curTokenIs(lexer.SET)) && p.peekIsIdentLike() {
		kind := ast.MethodGet
		if p.curTokenIs(lexer.SET) {
			kind = ast.MethodSet
		}
		p.nextToken()
		name := p.parseIdentName()
		fn := p.parseMethodSignatureAndBody(mods)
		if fn == nil {
			return nil
		}
		return &ast.MethodMember{
			Token: name.Token, Name: name, Kind: kind,
			Function: fn, Modifiers: mods, Decorators: decorators,
		}
	}

	// Generator method: *gen() { }
	isGenerator := false
	if p.curTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}

	if !p.curIsIdentLike() && !p.curToken.Type.IsKeyword() {
		p.addError(fmt.Sprintf("unexpected token %q in class body", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	// Method (constructor included) when a signature follows.
	if p.peekTokenIs(lexer.LPAREN) || p.peekTokenIs(lexer.LESS) {
		fn := p.parseMethodSignatureAndBody(mods)
		if fn == nil {
			return nil
		}
		fn.IsAsync = mods.Async
		fn.IsGenerator = isGenerator
		kind := ast.MethodNormal
		if name.Value == "constructor" {
			kind = ast.MethodConstructor
		}
		return &ast.MethodMember{
			Token: name.Token, Name: name, Kind: kind,
			Function: fn, Modifiers: mods, Decorators: decorators,
		}
	}

	// Field.
	field := &ast.FieldMember{Token: name.Token, Name: name, Modifiers: mods, Decorators: decorators}
	if p.peekTokenIs(lexer.QUESTION) {
		field.Optional = true
		p.nextToken()
	}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		field.Type = p.parseType()
	}
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		field.Init = p.parseExpression(ASSIGNMENT - 1)
	}
	p.consumeClassMemberTerminator()
	return field
}

// parseFieldOrMethod handles modifier keywords used as member names
// ('static', 'readonly' etc. as fields).
func (p *Parser) parseFieldOrMethod(decorators []*ast.Decorator, mods ast.MemberModifiers) ast.ClassMember {
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.LPAREN) {
		fn := p.parseMethodSignatureAndBody(mods)
		if fn == nil {
			return nil
		}
		return &ast.MethodMember{
			Token: name.Token, Name: name, Kind: ast.MethodNormal,
			Function: fn, Modifiers: mods, Decorators: decorators,
		}
	}

	field := &ast.FieldMember{Token: name.Token, Name: name, Modifiers: mods, Decorators: decorators}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		field.Type = p.parseType()
	}
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken()
		p.nextToken()
		field.Init = p.parseExpression(ASSIGNMENT - 1)
	}
	p.consumeClassMemberTerminator()
	return field
}

// parseMethodSignatureAndBody parses <T>?(params): ret? and a body unless
// the member is abstract (declaration without body).
func (p *Parser) parseMethodSignatureAndBody(mods ast.MemberModifiers) *ast.FunctionExpression {
	fn := &ast.FunctionExpression{Token: p.curToken}

	if p.peekTokenIs(lexer.LESS) {
		p.nextToken()
		fn.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	params, ok := p.tryParseParameterList()
	if !ok {
		p.addError("invalid parameter list", p.curToken.Pos)
		return nil
	}
	fn.Params = params

	if p.peekTokenIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		fn.ReturnType = p.parseReturnType()
	}

	if mods.Abstract {
		// Abstract members are declarations without a body.
		p.consumeClassMemberTerminator()
		return fn
	}
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockStatement()
	return fn
}

// parseIndexSignature parses [key: string]: T; the parser sits on '['.
func (p *Parser) parseIndexSignature(mods ast.MemberModifiers) ast.ClassMember {
	sig := &ast.IndexSignatureMember{Token: p.curToken, Readonly: mods.Readonly}
	p.nextToken()
	sig.KeyName = p.parseIdentName()
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	sig.KeyType = p.parseType()
	if !p.expectPeek(lexer.RBRACK) {
		return nil
	}
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	sig.ValueType = p.parseType()
	p.consumeClassMemberTerminator()
	return sig
}

// consumeClassMemberTerminator accepts the optional ';' after a member.
func (p *Parser) consumeClassMemberTerminator() {
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

// parseInterfaceDeclaration parses interface I<T> extends A, B { members }.
func (p *Parser) parseInterfaceDeclaration(exported bool) ast.Statement {
	decl := &ast.InterfaceDeclaration{Token: p.curToken, Exported: exported}

	if !p.peekIsIdentLike() {
		p.peekError(lexer.IDENT)
		return nil
	}
	p.nextToken()
	decl.Name = p.parseIdentName()

	if p.peekTokenIs(lexer.LESS) {
		p.nextToken()
		decl.TypeParams = p.parseTypeParameters()
	}

	if p.peekTokenIs(lexer.EXTENDS) {
		p.nextToken()
		for {
			p.nextToken()
			t := p.parseType()
			if t == nil {
				return nil
			}
			decl.Extends = append(decl.Extends, t)
			if p.peekTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		if p.curTokenIs(lexer.SEMICOLON) || p.curTokenIs(lexer.COMMA) {
			continue
		}
		member := p.parseInterfaceMember()
		if member != nil {
			decl.Members = append(decl.Members, member)
		} else {
			p.synchronize()
		}
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return decl
}

// parseInterfaceMember parses one interface member: property, method
// signature or index signature.
func (p *Parser) parseInterfaceMember() *ast.InterfaceMember {
	member := &ast.InterfaceMember{Token: p.curToken}

	if p.curTokenIs(lexer.READONLY) && (p.peekIsIdentLike() || p.peekTokenIs(lexer.LBRACK)) {
		member.Readonly = true
		p.nextToken()
	}

	// Index signature.
	if p.curTokenIs(lexer.LBRACK) {
		p.nextToken()
		p.parseIdentName() // key name, unused beyond syntax
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		member.KeyType = p.parseType()
		if !p.expectPeek(lexer.RBRACK) {
			return nil
		}
		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()
		member.Type = p.parseType()
		return member
	}

	if !p.curIsIdentLike() && !p.curToken.Type.IsKeyword() {
		p.addError(fmt.Sprintf("unexpected token %q in interface body", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	member.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.QUESTION) {
		member.Optional = true
		p.nextToken()
	}

	// Method signature: name(params): ret — recorded as a function type.
	if p.peekTokenIs(lexer.LPAREN) || p.peekTokenIs(lexer.LESS) {
		ft := &ast.FunctionTypeNode{Token: p.curToken}
		if p.peekTokenIs(lexer.LESS) {
			p.nextToken()
			ft.TypeParams = p.parseTypeParameters()
		}
		if !p.expectPeek(lexer.LPAREN) {
			return nil
		}
		params, ok := p.tryParseParameterList()
		if !ok {
			p.addError("invalid parameter list", p.curToken.Pos)
			return nil
		}
		ft.Params = params
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			ft.ReturnType = p.parseReturnType()
		} else {
			ft.ReturnType = &ast.TypeReference{Token: p.curToken, Name: "void"}
		}
		member.Type = ft
		return member
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	member.Type = p.parseType()
	return member
}

// parseTypeAliasDeclaration parses type X<T> = T | U;
func (p *Parser) parseTypeAliasDeclaration(exported bool) ast.Statement {
	decl := &ast.TypeAliasDeclaration{Token: p.curToken, Exported: exported}

	p.nextToken()
	decl.Name = p.parseIdentName()

	if p.peekTokenIs(lexer.LESS) {
		p.nextToken()
		decl.TypeParams = p.parseTypeParameters()
	}
	if !p.expectPeek(lexer.ASSIGN) {
		return nil
	}
	p.nextToken()
	decl.Type = p.parseType()
	if decl.Type == nil {
		return nil
	}
	p.consumeSemicolon()
	return decl
}

// parseEnumDeclaration parses enum E { A, B = 2, C = "c" }.
func (p *Parser) parseEnumDeclaration(exported, isConst bool) ast.Statement {
	decl := &ast.EnumDeclaration{Token: p.curToken, Exported: exported, Const: isConst}

	if !p.peekIsIdentLike() {
		p.peekError(lexer.IDENT)
		return nil
	}
	p.nextToken()
	decl.Name = p.parseIdentName()

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		if !p.curIsIdentLike() && !p.curTokenIs(lexer.STRING) {
			p.addError(fmt.Sprintf("invalid enum member %q", p.curToken.Literal), p.curToken.Pos)
			return nil
		}
		member := &ast.EnumMember{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			member.Init = p.parseExpression(ASSIGNMENT - 1)
		}
		decl.Members = append(decl.Members, member)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return decl
}

// parseTypeParameters parses <T, U extends C = D>; the parser sits on '<'.
func (p *Parser) parseTypeParameters() []*ast.TypeParameter {
	var params []*ast.TypeParameter

	for {
		p.nextToken()
		if !p.curIsIdentLike() {
			p.addError(fmt.Sprintf("expected type parameter name, got %q", p.curToken.Literal), p.curToken.Pos)
			return params
		}
		tp := &ast.TypeParameter{Token: p.curToken, Name: p.parseIdentName()}

		if p.peekTokenIs(lexer.EXTENDS) {
			p.nextToken()
			p.nextToken()
			tp.Constraint = p.parseType()
		}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			tp.Default = p.parseType()
		}
		params = append(params, tp)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expectGenericClose()
	return params
}
