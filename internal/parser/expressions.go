package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/lexer"
)

// parseExpression parses an expression with Pratt precedence climbing.
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.addError(fmt.Sprintf("unexpected token %q in expression", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

// parseExpressionOrSequence parses one expression, extending it into a
// SequenceExpression when followed by commas (the comma operator).
func (p *Parser) parseExpressionOrSequence() ast.Expression {
	first := p.parseExpression(LOWEST)
	if first == nil || !p.peekTokenIs(lexer.COMMA) {
		return first
	}
	seq := &ast.SequenceExpression{Token: p.curToken, Expressions: []ast.Expression{first}}
	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // comma
		p.nextToken()
		next := p.parseExpression(LOWEST)
		if next == nil {
			break
		}
		seq.Expressions = append(seq.Expressions, next)
	}
	return seq
}

// ============================================================================
// Prefix parsers
// ============================================================================

// parseIdentifierOrArrow parses an identifier, or a single-parameter arrow
// function when the identifier is immediately followed by '=>'.
func (p *Parser) parseIdentifierOrArrow() ast.Expression {
	ident := p.parseIdentName()
	if p.peekTokenIs(lexer.ARROW) {
		param := &ast.Parameter{Token: p.curToken, Name: ident}
		arrow := &ast.ArrowFunction{Token: p.curToken, Params: []*ast.Parameter{param}}
		p.nextToken() // onto =>
		p.parseArrowBody(arrow)
		return arrow
	}
	return ident
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	lit := &ast.NumberLiteral{Token: p.curToken}
	text := strings.ReplaceAll(p.curToken.Literal, "_", "")

	var value float64
	var err error
	switch {
	case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
		var i int64
		i, err = strconv.ParseInt(text[2:], 16, 64)
		value = float64(i)
	case strings.HasPrefix(text, "0b"), strings.HasPrefix(text, "0B"):
		var i int64
		i, err = strconv.ParseInt(text[2:], 2, 64)
		value = float64(i)
	case strings.HasPrefix(text, "0o"), strings.HasPrefix(text, "0O"):
		var i int64
		i, err = strconv.ParseInt(text[2:], 8, 64)
		value = float64(i)
	default:
		value, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as number", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	lit.Value = value
	return lit
}

func (p *Parser) parseBigIntLiteral() ast.Expression {
	text := strings.TrimSuffix(p.curToken.Literal, "n")
	return &ast.BigIntLiteral{Token: p.curToken, Text: text}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseRegexLiteral() ast.Expression {
	lit := p.curToken.Literal
	// Split /pattern/flags on the final slash.
	end := strings.LastIndex(lit, "/")
	pattern, flags := "", ""
	if end > 0 {
		pattern = lit[1:end]
		flags = lit[end+1:]
	}
	return &ast.RegexLiteral{Token: p.curToken, Pattern: pattern, Flags: flags}
}

func (p *Parser) parseTemplateLiteral() ast.Expression {
	tmpl := &ast.TemplateLiteral{Token: p.curToken}

	if p.curTokenIs(lexer.TEMPLATE_STRING) {
		tmpl.Quasis = []string{p.curToken.Literal}
		return tmpl
	}

	// TEMPLATE_HEAD expr (TEMPLATE_MIDDLE expr)* TEMPLATE_TAIL
	tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
	for {
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		tmpl.Expressions = append(tmpl.Expressions, expr)

		p.nextToken()
		switch p.curToken.Type {
		case lexer.TEMPLATE_MIDDLE:
			tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
		case lexer.TEMPLATE_TAIL:
			tmpl.Quasis = append(tmpl.Quasis, p.curToken.Literal)
			return tmpl
		default:
			p.addError("unterminated template substitution", p.curToken.Pos)
			return nil
		}
	}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TRUE)}
}

func (p *Parser) parseNullLiteral() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parseUndefinedLiteral() ast.Expression {
	return &ast.UndefinedLiteral{Token: p.curToken}
}

func (p *Parser) parseThisExpression() ast.Expression {
	return &ast.ThisExpression{Token: p.curToken}
}

func (p *Parser) parseSuperExpression() ast.Expression {
	return &ast.SuperExpression{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.UnaryExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}
	p.nextToken()
	expr.Operand = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseUpdatePrefix() ast.Expression {
	expr := &ast.UpdateExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Prefix:   true,
	}
	p.nextToken()
	expr.Operand = p.parseExpression(PREFIX)
	return expr
}

func (p *Parser) parseUpdatePostfix(left ast.Expression) ast.Expression {
	return &ast.UpdateExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Operand:  left,
	}
}

func (p *Parser) parseSpreadElement() ast.Expression {
	tok := p.curToken
	p.nextToken()
	arg := p.parseExpression(LOWEST)
	return &ast.SpreadElement{Token: tok, Argument: arg}
}

// parseParenOrArrow disambiguates '(' between an arrow parameter list and a
// parenthesized expression by speculative parsing: attempt the arrow
// parameter list; on failure rewind and parse the parenthesized form.
func (p *Parser) parseParenOrArrow() ast.Expression {
	state := p.saveState()
	if arrow, ok := p.tryParseArrowFunction(false); ok {
		return arrow
	}
	p.restoreState(state)

	// Parenthesized expression (possibly a comma sequence).
	p.nextToken() // past (
	expr := p.parseExpressionOrSequence()
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return expr
}

// tryParseArrowFunction attempts to parse an arrow function starting at '('.
// Returns false when the token stream is not an arrow parameter list.
func (p *Parser) tryParseArrowFunction(isAsync bool) (ast.Expression, bool) {
	arrow := &ast.ArrowFunction{Token: p.curToken, IsAsync: isAsync}

	params, ok := p.tryParseParameterList()
	if !ok {
		return nil, false
	}
	arrow.Params = params

	if p.peekTokenIs(lexer.COLON) {
		p.nextToken() // onto :
		p.nextToken()
		rt := p.parseType()
		if rt == nil {
			return nil, false
		}
		arrow.ReturnType = rt
	}

	if !p.peekTokenIs(lexer.ARROW) {
		return nil, false
	}
	p.nextToken() // onto =>
	p.parseArrowBody(arrow)
	return arrow, true
}

// parseArrowBody parses the body after '=>': a block or a concise expression.
func (p *Parser) parseArrowBody(arrow *ast.ArrowFunction) {
	p.nextToken()
	if p.curTokenIs(lexer.LBRACE) {
		arrow.Body = p.parseBlockStatement()
		return
	}
	arrow.ExprBody = p.parseExpression(ASSIGNMENT - 1)
}

// tryParseParameterList parses '(' param* ')'. Returns false on any shape
// that cannot be a parameter list, leaving error state for the caller to
// rewind.
func (p *Parser) tryParseParameterList() ([]*ast.Parameter, bool) {
	if !p.curTokenIs(lexer.LPAREN) {
		return nil, false
	}
	var params []*ast.Parameter

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		p.nextToken()
		param, ok := p.tryParseParameter()
		if !ok {
			return nil, false
		}
		params = append(params, param)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if !p.peekTokenIs(lexer.RPAREN) {
		return nil, false
	}
	p.nextToken()
	return params, true
}

// tryParseParameter parses one parameter: modifiers, name, optional marker,
// type annotation, default value, rest marker.
func (p *Parser) tryParseParameter() (*ast.Parameter, bool) {
	param := &ast.Parameter{Token: p.curToken}

	// Parameter properties: an access modifier or readonly on a constructor
	// parameter declares a field.
	switch p.curToken.Type {
	case lexer.PUBLIC:
		param.Access = ast.AccessPublic
		p.nextToken()
	case lexer.PRIVATE:
		param.Access = ast.AccessPrivate
		p.nextToken()
	case lexer.PROTECTED:
		param.Access = ast.AccessProtected
		p.nextToken()
	}
	if p.curTokenIs(lexer.READONLY) && p.peekIsIdentLike() {
		param.Readonly = true
		p.nextToken()
	}

	if p.curTokenIs(lexer.DOTDOTDOT) {
		param.Rest = true
		p.nextToken()
	}

	if !p.curIsIdentLike() {
		return nil, false
	}
	param.Name = p.parseIdentName()

	if p.peekTokenIs(lexer.QUESTION) {
		param.Optional = true
		p.nextToken()
	}
	if p.peekTokenIs(lexer.COLON) {
		p.nextToken() // onto :
		p.nextToken()
		t := p.parseType()
		if t == nil {
			return nil, false
		}
		param.Type = t
	}
	if p.peekTokenIs(lexer.ASSIGN) {
		p.nextToken() // onto =
		p.nextToken()
		def := p.parseExpression(ASSIGNMENT - 1)
		if def == nil {
			return nil, false
		}
		param.Default = def
	}
	return param, true
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.RBRACK) {
		p.nextToken()
		return arr
	}

	for {
		p.nextToken()
		elem := p.parseExpression(LOWEST)
		if elem == nil {
			return nil
		}
		arr.Elements = append(arr.Elements, elem)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			if p.peekTokenIs(lexer.RBRACK) {
				break // trailing comma
			}
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACK) {
		return nil
	}
	return arr
}

func (p *Parser) parseObjectLiteral() ast.Expression {
	obj := &ast.ObjectLiteral{Token: p.curToken}

	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		prop := p.parseObjectProperty()
		if prop == nil {
			return nil
		}
		obj.Properties = append(obj.Properties, prop)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}
	return obj
}

// parseObjectProperty parses one object literal entry: init, shorthand,
// method shorthand, get/set accessor, computed key or spread.
func (p *Parser) parseObjectProperty() *ast.ObjectProperty {
	prop := &ast.ObjectProperty{Token: p.curToken}

	if p.curTokenIs(lexer.DOTDOTDOT) {
		prop.Kind = ast.PropertySpread
		p.nextToken()
		prop.Argument = p.parseExpression(ASSIGNMENT - 1)
		return prop
	}

	// get/set accessors, unless 'get'/'set' is itself the property name.
	if (p.curTokenIs(lexer.GET) || p.curTokenIs(lexer.SET)) &&
		(p.peekIsIdentLike() || p.peekTokenIs(lexer.STRING) || p.peekTokenIs(lexer.LBRACK)) {
		kind := ast.PropertyGet
		if p.curTokenIs(lexer.SET) {
			kind = ast.PropertySet
		}
		p.nextToken()
		prop.Kind = kind
		prop.Key = p.parsePropertyKey(prop)
		fn := p.parseMethodShorthand(false, false)
		if fn == nil {
			return nil
		}
		prop.Value = fn
		return prop
	}

	isAsync := false
	isGenerator := false
	if p.curTokenIs(lexer.ASYNC) && (p.peekIsIdentLike() || p.peekTokenIs(lexer.ASTERISK)) {
		isAsync = true
		p.nextToken()
	}
	if p.curTokenIs(lexer.ASTERISK) {
		isGenerator = true
		p.nextToken()
	}

	prop.Key = p.parsePropertyKey(prop)
	if prop.Key == nil {
		return nil
	}

	switch {
	case p.peekTokenIs(lexer.LPAREN):
		// Method shorthand.
		prop.Kind = ast.PropertyMethod
		fn := p.parseMethodShorthand(isAsync, isGenerator)
		if fn == nil {
			return nil
		}
		prop.Value = fn
	case p.peekTokenIs(lexer.COLON):
		prop.Kind = ast.PropertyInit
		p.nextToken() // onto :
		p.nextToken()
		prop.Value = p.parseExpression(ASSIGNMENT - 1)
	default:
		// Property shorthand: {a}.
		prop.Kind = ast.PropertyShorthand
		if ident, ok := prop.Key.(*ast.Identifier); ok {
			prop.Value = ident
		} else {
			p.addError("shorthand property must be an identifier", p.curToken.Pos)
			return nil
		}
	}
	return prop
}

// parsePropertyKey parses an identifier, string, number or computed key.
func (p *Parser) parsePropertyKey(prop *ast.ObjectProperty) ast.Expression {
	switch {
	case p.curTokenIs(lexer.LBRACK):
		prop.Computed = true
		p.nextToken()
		key := p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.RBRACK) {
			return nil
		}
		return key
	case p.curTokenIs(lexer.STRING):
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	case p.curTokenIs(lexer.NUMBER):
		return p.parseNumberLiteral()
	case p.curIsIdentLike() || p.curToken.Type.IsKeyword():
		// Any keyword is a valid property name.
		return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	p.addError(fmt.Sprintf("invalid property key %q", p.curToken.Literal), p.curToken.Pos)
	return nil
}

// parseMethodShorthand parses the signature and body of a shorthand method,
// positioned on the method name (peek is '(' or '<').
func (p *Parser) parseMethodShorthand(isAsync, isGenerator bool) *ast.FunctionExpression {
	fn := &ast.FunctionExpression{Token: p.curToken, IsAsync: isAsync, IsGenerator: isGenerator}

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
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockStatement()
	return fn
}

// parseFunctionExpression parses function (name)? (params) { body }.
func (p *Parser) parseFunctionExpression() ast.Expression {
	return p.parseFunctionFrom(false)
}

// parseFunctionFrom parses a function expression; the caller has consumed
// any 'async' prefix.
func (p *Parser) parseFunctionFrom(isAsync bool) ast.Expression {
	fn := &ast.FunctionExpression{Token: p.curToken, IsAsync: isAsync}

	if p.peekTokenIs(lexer.ASTERISK) {
		fn.IsGenerator = true
		p.nextToken()
	}
	if p.peekIsIdentLike() {
		p.nextToken()
		fn.Name = p.parseIdentName()
	}
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
	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlockStatement()
	return fn
}

// parseAsyncExpression handles the 'async' contextual keyword in expression
// position: async function, async arrow, or the plain identifier 'async'.
func (p *Parser) parseAsyncExpression() ast.Expression {
	if p.peekTokenIs(lexer.FUNCTION) {
		p.nextToken()
		return p.parseFunctionFrom(true)
	}
	if p.peekTokenIs(lexer.LPAREN) {
		state := p.saveState()
		p.nextToken()
		if arrow, ok := p.tryParseArrowFunction(true); ok {
			return arrow
		}
		p.restoreState(state)
		return p.parseIdentifierOrArrow()
	}
	if p.peekIsIdentLike() && p.l.Peek(0).Type == lexer.ARROW {
		// async x => ...
		p.nextToken()
		ident := p.parseIdentName()
		arrow := &ast.ArrowFunction{
			Token:   p.curToken,
			IsAsync: true,
			Params:  []*ast.Parameter{{Token: p.curToken, Name: ident}},
		}
		p.nextToken() // onto =>
		p.parseArrowBody(arrow)
		return arrow
	}
	return p.parseIdentifierOrArrow()
}

func (p *Parser) parseAwaitExpression() ast.Expression {
	tok := p.curToken
	p.nextToken()
	arg := p.parseExpression(PREFIX)
	return &ast.AwaitExpression{Token: tok, Argument: arg}
}

func (p *Parser) parseYieldExpression() ast.Expression {
	expr := &ast.YieldExpression{Token: p.curToken}
	if p.peekTokenIs(lexer.ASTERISK) {
		expr.Delegate = true
		p.nextToken()
	}
	// Bare yield: the argument is absent before a terminator.
	switch p.peekToken.Type {
	case lexer.SEMICOLON, lexer.RPAREN, lexer.RBRACK, lexer.RBRACE,
		lexer.COMMA, lexer.EOF:
		return expr
	}
	p.nextToken()
	expr.Argument = p.parseExpression(ASSIGNMENT - 1)
	return expr
}

func (p *Parser) parseNewExpression() ast.Expression {
	expr := &ast.NewExpression{Token: p.curToken}
	p.nextToken()

	// The callee is a member chain without call expressions.
	callee := p.parseExpression(CALL)
	for callee != nil && (p.peekTokenIs(lexer.DOT) || p.peekTokenIs(lexer.LBRACK)) {
		p.nextToken()
		if p.curToken.Type == lexer.DOT {
			callee = p.parseMemberExpression(callee)
		} else {
			callee = p.parseIndexExpression(callee)
		}
	}
	expr.Callee = callee
	// A following argument list belongs to the new expression.
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		expr.Arguments = p.parseCallArguments()
	}
	return expr
}

func (p *Parser) parseClassExpression() ast.Expression {
	// A class expression reuses the declaration parser and wraps it.
	decl := p.parseClassDeclaration(nil, false, false)
	if decl == nil {
		return nil
	}
	return &ast.ClassExpression{Decl: decl}
}

// ============================================================================
// Infix parsers
// ============================================================================

func (p *Parser) parseBinaryExpression(left ast.Expression) ast.Expression {
	// '<' may open an explicit type argument list on a call: f<number>(x).
	if p.curTokenIs(lexer.LESS) {
		if call, ok := p.tryParseTypeArgumentCall(left); ok {
			return call
		}
	}

	expr := &ast.BinaryExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	precedence := p.curPrecedence()
	if p.curTokenIs(lexer.POWER) {
		precedence-- // right associative
	}
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

// tryParseTypeArgumentCall speculatively parses <T, U>(args) after an
// expression. Rewinds and reports false when the angle bracket is a
// comparison.
func (p *Parser) tryParseTypeArgumentCall(left ast.Expression) (ast.Expression, bool) {
	state := p.saveState()

	typeArgs, ok := p.tryParseTypeArgumentList()
	if !ok || !p.peekTokenIs(lexer.LPAREN) {
		p.restoreState(state)
		return nil, false
	}
	p.nextToken() // onto (
	call := &ast.CallExpression{Token: p.curToken, Callee: left, TypeArgs: typeArgs}
	call.Arguments = p.parseCallArguments()
	return call, true
}

func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	expr := &ast.LogicalExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	return expr
}

func (p *Parser) parseAssignmentExpression(left ast.Expression) ast.Expression {
	expr := &ast.AssignmentExpression{
		Token:    p.curToken,
		Target:   left,
		Operator: p.curToken.Literal,
	}
	switch left.(type) {
	case *ast.Identifier, *ast.MemberExpression:
	default:
		p.addError("invalid assignment target", left.Pos())
	}
	p.nextToken()
	// Right associative: a = b = c.
	expr.Value = p.parseExpression(ASSIGNMENT - 1)
	return expr
}

func (p *Parser) parseConditionalExpression(cond ast.Expression) ast.Expression {
	expr := &ast.ConditionalExpression{Token: p.curToken, Condition: cond}
	p.nextToken()
	expr.Consequent = p.parseExpression(ASSIGNMENT - 1)
	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	expr.Alternate = p.parseExpression(ASSIGNMENT - 1)
	return expr
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Callee: callee}
	call.Arguments = p.parseCallArguments()
	return call
}

// parseCallArguments parses the argument list; the parser sits on '('.
func (p *Parser) parseCallArguments() []ast.Expression {
	var args []ast.Expression

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return args
	}

	for {
		p.nextToken()
		arg := p.parseExpression(ASSIGNMENT - 1)
		if arg == nil {
			return args
		}
		args = append(args, arg)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expectPeek(lexer.RPAREN)
	return args
}

func (p *Parser) parseIndexExpression(obj ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{Token: p.curToken, Object: obj, Computed: true}
	p.nextToken()
	expr.Property = p.parseExpression(LOWEST)
	if !p.expectPeek(lexer.RBRACK) {
		return nil
	}
	return expr
}

func (p *Parser) parseMemberExpression(obj ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{Token: p.curToken, Object: obj}
	p.nextToken()
	if !p.curIsIdentLike() && !p.curToken.Type.IsKeyword() {
		p.addError(fmt.Sprintf("expected property name, got %q", p.curToken.Literal), p.curToken.Pos)
		return nil
	}
	expr.Property = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return expr
}

// parseOptionalChain parses ?.prop, ?.[expr] and ?.(args).
func (p *Parser) parseOptionalChain(obj ast.Expression) ast.Expression {
	tok := p.curToken
	switch p.peekToken.Type {
	case lexer.LBRACK:
		p.nextToken()
		expr := &ast.MemberExpression{Token: tok, Object: obj, Computed: true, Optional: true}
		p.nextToken()
		expr.Property = p.parseExpression(LOWEST)
		if !p.expectPeek(lexer.RBRACK) {
			return nil
		}
		return expr
	case lexer.LPAREN:
		p.nextToken()
		call := &ast.CallExpression{Token: p.curToken, Callee: obj, Optional: true}
		call.Arguments = p.parseCallArguments()
		return call
	default:
		p.nextToken()
		if !p.curIsIdentLike() && !p.curToken.Type.IsKeyword() {
			p.addError(fmt.Sprintf("expected property name, got %q", p.curToken.Literal), p.curToken.Pos)
			return nil
		}
		return &ast.MemberExpression{
			Token:    tok,
			Object:   obj,
			Property: &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
			Optional: true,
		}
	}
}

func (p *Parser) parseTypeAssertion(left ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	t := p.parseType()
	if t == nil {
		return nil
	}
	return &ast.TypeAssertion{Token: tok, Expression: left, Type: t}
}
