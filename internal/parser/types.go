package parser

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parseType parses a type annotation: unions, intersections, postfix array
// and indexed-access forms over a primary type.
func (p *Parser) parseType() ast.TypeNode {
	return p.parseUnionType()
}

// parseReturnType parses a return annotation, which may also be a type
// predicate: x is T.
func (p *Parser) parseReturnType() ast.TypeNode {
	if p.curIsIdentLike() && p.peekTokenIs(lexer.IS) {
		param := p.parseIdentName()
		tok := p.peekToken
		p.nextToken() // onto is
		p.nextToken()
		t := p.parseType()
		if t == nil {
			return nil
		}
		return &ast.TypePredicateNode{Token: tok, Param: param, Type: t}
	}
	return p.parseType()
}

// parseUnionType parses T | U | V.
func (p *Parser) parseUnionType() ast.TypeNode {
	// Allow a leading '|' for multi-line union declarations.
	if p.curTokenIs(lexer.PIPE) {
		p.nextToken()
	}
	first := p.parseIntersectionType()
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(lexer.PIPE) {
		return first
	}

	union := &ast.UnionTypeNode{Token: p.curToken, Types: []ast.TypeNode{first}}
	for p.peekTokenIs(lexer.PIPE) {
		p.nextToken() // onto |
		p.nextToken()
		next := p.parseIntersectionType()
		if next == nil {
			return nil
		}
		union.Types = append(union.Types, next)
	}
	return union
}

// parseIntersectionType parses T & U & V.
func (p *Parser) parseIntersectionType() ast.TypeNode {
	first := p.parsePostfixType()
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(lexer.AMP) {
		return first
	}

	inter := &ast.IntersectionTypeNode{Token: p.curToken, Types: []ast.TypeNode{first}}
	for p.peekTokenIs(lexer.AMP) {
		p.nextToken() // onto &
		p.nextToken()
		next := p.parsePostfixType()
		if next == nil {
			return nil
		}
		inter.Types = append(inter.Types, next)
	}
	return inter
}

// parsePostfixType parses a primary type followed by any number of []
// (array) and [K] (indexed access) suffixes.
func (p *Parser) parsePostfixType() ast.TypeNode {
	t := p.parsePrimaryType()
	if t == nil {
		return nil
	}

	for p.peekTokenIs(lexer.LBRACK) {
		p.nextToken() // onto [
		if p.peekTokenIs(lexer.RBRACK) {
			p.nextToken()
			t = &ast.ArrayTypeNode{Token: p.curToken, Element: t}
			continue
		}
		p.nextToken()
		index := p.parseType()
		if index == nil {
			return nil
		}
		if !p.expectPeek(lexer.RBRACK) {
			return nil
		}
		t = &ast.IndexedAccessTypeNode{Token: p.curToken, Object: t, Index: index}
	}
	return t
}

// parsePrimaryType parses one type atom.
func (p *Parser) parsePrimaryType() ast.TypeNode {
	switch p.curToken.Type {
	case lexer.STRING:
		return &ast.LiteralTypeNode{
			Token: p.curToken,
			Str:   &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal},
		}
	case lexer.NUMBER:
		num, ok := p.parseNumberLiteral().(*ast.NumberLiteral)
		if !ok {
			return nil
		}
		return &ast.LiteralTypeNode{Token: p.curToken, Num: num}
	case lexer.MINUS:
		tok := p.curToken
		if !p.expectPeek(lexer.NUMBER) {
			return nil
		}
		num, ok := p.parseNumberLiteral().(*ast.NumberLiteral)
		if !ok {
			return nil
		}
		num.Value = -num.Value
		return &ast.LiteralTypeNode{Token: tok, Num: num}
	case lexer.TRUE, lexer.FALSE:
		return &ast.LiteralTypeNode{
			Token: p.curToken,
			Bool:  &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TRUE)},
		}
	case lexer.NULL:
		return &ast.TypeReference{Token: p.curToken, Name: "null"}
	case lexer.UNDEFINED:
		return &ast.TypeReference{Token: p.curToken, Name: "undefined"}
	case lexer.VOID:
		return &ast.TypeReference{Token: p.curToken, Name: "void"}
	case lexer.KEYOF:
		tok := p.curToken
		p.nextToken()
		operand := p.parsePostfixType()
		if operand == nil {
			return nil
		}
		return &ast.KeyofTypeNode{Token: tok, Type: operand}
	case lexer.LPAREN:
		return p.parseParenOrFunctionType()
	case lexer.LESS:
		// Generic function type: <T>(x: T) => T
		return p.parseFunctionTypeNode()
	case lexer.LBRACK:
		return p.parseTupleType()
	case lexer.LBRACE:
		return p.parseObjectOrMappedType()
	case lexer.NEW:
		// Constructor type: new (args) => T — treated as a function type.
		p.nextToken()
		return p.parseFunctionTypeNode()
	}

	if p.curIsIdentLike() {
		ref := &ast.TypeReference{Token: p.curToken, Name: p.curToken.Literal}
		// Qualified names: ns.Type
		for p.peekTokenIs(lexer.DOT) {
			p.nextToken()
			p.nextToken()
			if !p.curIsIdentLike() {
				p.addError(fmt.Sprintf("expected type name, got %q", p.curToken.Literal), p.curToken.Pos)
				return nil
			}
			ref.Name = ref.Name + "." + p.curToken.Literal
		}
		if p.peekTokenIs(lexer.LESS) {
			p.nextToken() // onto <
			args, ok := p.tryParseTypeArgumentList()
			if !ok {
				p.addError("invalid type argument list", p.curToken.Pos)
				return nil
			}
			ref.TypeArgs = args
		}
		return ref
	}

	p.addError(fmt.Sprintf("unexpected token %q in type", p.curToken.Literal), p.curToken.Pos)
	return nil
}

// tryParseTypeArgumentList parses <T, U> in type-argument context; the
// parser sits on '<'. The closing angle bracket may be part of a '>>' or
// '>>>' token left by the lexer's maximal munch; expectGenericClose consumes
// exactly one '>' via resplitting.
func (p *Parser) tryParseTypeArgumentList() ([]ast.TypeNode, bool) {
	if !p.curTokenIs(lexer.LESS) {
		return nil, false
	}
	p.typeArgDepth++
	defer func() { p.typeArgDepth-- }()

	var args []ast.TypeNode
	for {
		p.nextToken()
		t := p.parseType()
		if t == nil {
			return nil, false
		}
		args = append(args, t)
		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectGenericClose() {
		return nil, false
	}
	return args, true
}

// expectGenericClose consumes one '>' closing a type argument or type
// parameter list. When the pending token is '>>', '>>>' (or their compound
// assignment forms), one '>' is consumed semantically and a synthetic
// remainder token produced by lexer.ResplitGreater takes its place, so
// nested lists like Partial<Readonly<T>> close without source spaces.
func (p *Parser) expectGenericClose() bool {
	switch p.peekToken.Type {
	case lexer.GREATER:
		p.nextToken()
		return true
	case lexer.SHR, lexer.USHR, lexer.SHR_ASSIGN, lexer.USHR_ASSIGN:
		rest, ok := lexer.ResplitGreater(p.peekToken)
		if !ok {
			p.peekError(lexer.GREATER)
			return false
		}
		// Consume one '>': the remainder replaces the peek token in place.
		p.peekToken = rest
		return true
	default:
		p.peekError(lexer.GREATER)
		return false
	}
}

// parseParenOrFunctionType disambiguates '(' between a parenthesized type
// and a function type's parameter list by speculative parsing.
func (p *Parser) parseParenOrFunctionType() ast.TypeNode {
	state := p.saveState()
	if ft := p.tryParseFunctionType(); ft != nil {
		return ft
	}
	p.restoreState(state)

	// Parenthesized type.
	tok := p.curToken
	p.nextToken()
	inner := p.parseType()
	if inner == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return &ast.ParenthesizedTypeNode{Token: tok, Type: inner}
}

// parseFunctionTypeNode parses <T>?(params) => R with the parser on '<' or
// '('.
func (p *Parser) parseFunctionTypeNode() ast.TypeNode {
	ft := &ast.FunctionTypeNode{Token: p.curToken}
	if p.curTokenIs(lexer.LESS) {
		ft.TypeParams = p.parseTypeParameters()
		if !p.expectPeek(lexer.LPAREN) {
			return nil
		}
	}
	params, ok := p.tryParseParameterList()
	if !ok {
		p.addError("invalid parameter list in function type", p.curToken.Pos)
		return nil
	}
	ft.Params = params
	if !p.expectPeek(lexer.ARROW) {
		return nil
	}
	p.nextToken()
	ft.ReturnType = p.parseType()
	if ft.ReturnType == nil {
		return nil
	}
	return ft
}

// tryParseFunctionType attempts (params) => R; returns nil when the shape
// does not match.
func (p *Parser) tryParseFunctionType() ast.TypeNode {
	ft := &ast.FunctionTypeNode{Token: p.curToken}
	params, ok := p.tryParseParameterList()
	if !ok {
		return nil
	}
	ft.Params = params
	if !p.peekTokenIs(lexer.ARROW) {
		return nil
	}
	p.nextToken() // onto =>
	p.nextToken()
	ft.ReturnType = p.parseType()
	if ft.ReturnType == nil {
		return nil
	}
	return ft
}

// parseTupleType parses [A, B?, ...C[]]; the parser sits on '['.
func (p *Parser) parseTupleType() ast.TypeNode {
	tuple := &ast.TupleTypeNode{Token: p.curToken}

	if p.peekTokenIs(lexer.RBRACK) {
		p.nextToken()
		return tuple
	}

	for {
		p.nextToken()
		elem := &ast.TupleElement{}
		if p.curTokenIs(lexer.DOTDOTDOT) {
			elem.Rest = true
			p.nextToken()
		}
		elem.Type = p.parseType()
		if elem.Type == nil {
			return nil
		}
		if p.peekTokenIs(lexer.QUESTION) {
			elem.Optional = true
			p.nextToken()
		}
		tuple.Elements = append(tuple.Elements, elem)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACK) {
		return nil
	}
	return tuple
}

// parseObjectOrMappedType disambiguates '{' between an inline object type
// and a mapped type ({ [K in C]: V }).
func (p *Parser) parseObjectOrMappedType() ast.TypeNode {
	// Mapped type markers: '{' then optional +/-readonly then '[' IDENT 'in'.
	if p.isMappedTypeAhead() {
		return p.parseMappedType()
	}
	return p.parseObjectType()
}

// isMappedTypeAhead looks ahead from '{' for the [K in pattern.
func (p *Parser) isMappedTypeAhead() bool {
	// peek is '[' or a readonly modifier, then ident, then 'in'.
	if p.peekTokenIs(lexer.LBRACK) {
		return p.l.Peek(0).Type.IsIdentLike() && p.l.Peek(1).Type == lexer.IN
	}
	if p.peekTokenIs(lexer.READONLY) || p.peekTokenIs(lexer.MINUS) || p.peekTokenIs(lexer.PLUS) {
		// { readonly [K in C] ... } and { -readonly [K in C] ... }
		i := 0
		if p.peekTokenIs(lexer.MINUS) || p.peekTokenIs(lexer.PLUS) {
			if p.l.Peek(0).Type != lexer.READONLY {
				return false
			}
			i = 1
		}
		return p.l.Peek(i).Type == lexer.LBRACK &&
			p.l.Peek(i+1).Type.IsIdentLike() &&
			p.l.Peek(i+2).Type == lexer.IN
	}
	return false
}

// parseMappedType parses { [K in C as R]?: V } with optional +/- modifiers;
// the parser sits on '{'.
func (p *Parser) parseMappedType() ast.TypeNode {
	mt := &ast.MappedTypeNode{Token: p.curToken}

	// readonly modifier before the bracket.
	if p.peekTokenIs(lexer.MINUS) {
		p.nextToken()
		if !p.expectPeek(lexer.READONLY) {
			return nil
		}
		mt.Readonly = ast.ModifierRemove
	} else if p.peekTokenIs(lexer.PLUS) {
		p.nextToken()
		if !p.expectPeek(lexer.READONLY) {
			return nil
		}
		mt.Readonly = ast.ModifierAdd
	} else if p.peekTokenIs(lexer.READONLY) {
		p.nextToken()
		mt.Readonly = ast.ModifierAdd
	}

	if !p.expectPeek(lexer.LBRACK) {
		return nil
	}
	p.nextToken()
	mt.ParamName = p.parseIdentName()
	if !p.expectPeek(lexer.IN) {
		return nil
	}
	p.nextToken()
	mt.Constraint = p.parseType()
	if mt.Constraint == nil {
		return nil
	}

	if p.peekTokenIs(lexer.AS) {
		p.nextToken()
		p.nextToken()
		mt.As = p.parseType()
		if mt.As == nil {
			return nil
		}
	}
	if !p.expectPeek(lexer.RBRACK) {
		return nil
	}

	// Optional modifier after the bracket.
	switch {
	case p.peekTokenIs(lexer.QUESTION):
		p.nextToken()
		mt.Optional = ast.ModifierAdd
	case p.peekTokenIs(lexer.MINUS):
		p.nextToken()
		if !p.expectPeek(lexer.QUESTION) {
			return nil
		}
		mt.Optional = ast.ModifierRemove
	case p.peekTokenIs(lexer.PLUS):
		p.nextToken()
		if !p.expectPeek(lexer.QUESTION) {
			return nil
		}
		mt.Optional = ast.ModifierAdd
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	mt.Value = p.parseType()
	if mt.Value == nil {
		return nil
	}

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return mt
}

// parseObjectType parses { a: T; b?: U; [key: string]: V; m(): R }.
func (p *Parser) parseObjectType() ast.TypeNode {
	obj := &ast.ObjectTypeNode{Token: p.curToken}

	for !p.peekTokenIs(lexer.RBRACE) && !p.peekTokenIs(lexer.EOF) {
		p.nextToken()
		if p.curTokenIs(lexer.SEMICOLON) || p.curTokenIs(lexer.COMMA) {
			continue
		}
		member := p.parseObjectTypeMember()
		if member == nil {
			return nil
		}
		obj.Members = append(obj.Members, member)
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return obj
}

// parseObjectTypeMember parses one member of an inline object type.
func (p *Parser) parseObjectTypeMember() *ast.ObjectTypeMember {
	member := &ast.ObjectTypeMember{Token: p.curToken}

	if p.curTokenIs(lexer.READONLY) && (p.peekIsIdentLike() || p.peekTokenIs(lexer.LBRACK)) {
		member.Readonly = true
		p.nextToken()
	}

	// Index signature.
	if p.curTokenIs(lexer.LBRACK) {
		p.nextToken()
		p.parseIdentName()
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

	if !p.curIsIdentLike() && !p.curToken.Type.IsKeyword() && !p.curTokenIs(lexer.STRING) {
		p.addError(fmt.Sprintf("unexpected token %q in object type", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	member.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if p.peekTokenIs(lexer.QUESTION) {
		member.Optional = true
		p.nextToken()
	}

	// Method signature.
	if p.peekTokenIs(lexer.LPAREN) {
		member.IsMethod = true
		p.nextToken()
		params, ok := p.tryParseParameterList()
		if !ok {
			p.addError("invalid parameter list", p.curToken.Pos)
			return nil
		}
		member.Params = params
		if p.peekTokenIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			member.Type = p.parseType()
		} else {
			member.Type = &ast.TypeReference{Token: p.curToken, Name: "void"}
		}
		return member
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	member.Type = p.parseType()
	return member
}
