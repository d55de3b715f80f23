package bytecode

import (
	"strings"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// compileExpression lowers one expression; the result lands on the stack.
func (c *Compiler) compileExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitConst(runtime.NewNumber(e.Value))
	case *ast.StringLiteral:
		c.emitConst(runtime.NewString(e.Value))
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(Instruction{Op: OpTrue})
		} else {
			c.emit(Instruction{Op: OpFalse})
		}
	case *ast.NullLiteral:
		c.emit(Instruction{Op: OpNull})
	case *ast.UndefinedLiteral:
		c.emit(Instruction{Op: OpUndefined})
	case *ast.BigIntLiteral:
		c.errorAt(e, "bigint values are not supported by the bytecode back end")
		c.emit(Instruction{Op: OpUndefined})
	case *ast.RegexLiteral:
		c.emit(Instruction{Op: OpObject})
		c.emitConst(runtime.NewString(e.Pattern))
		c.emit(Instruction{Op: OpSetProp, S: "source"})
		c.emitConst(runtime.NewString(e.Flags))
		c.emit(Instruction{Op: OpSetProp, S: "flags"})
	case *ast.TemplateLiteral:
		c.compileTemplate(e)
	case *ast.Identifier:
		c.emit(Instruction{Op: OpLoad, S: e.Value})
	case *ast.ThisExpression:
		c.emit(Instruction{Op: OpLoad, S: "this"})
	case *ast.SuperExpression:
		// Only reachable through call/member forms, handled there.
		c.emit(Instruction{Op: OpUndefined})
	case *ast.UnaryExpression:
		c.compileUnary(e)
	case *ast.UpdateExpression:
		c.compileUpdate(e)
	case *ast.BinaryExpression:
		c.compileExpression(e.Left)
		c.compileExpression(e.Right)
		c.emit(Instruction{Op: OpBinary, S: e.Operator})
	case *ast.LogicalExpression:
		c.compileLogical(e)
	case *ast.ConditionalExpression:
		c.compileExpression(e.Condition)
		elseJump := c.emit(Instruction{Op: OpJumpIfFalse})
		c.compileExpression(e.Consequent)
		endJump := c.emit(Instruction{Op: OpJump})
		c.chunk.Patch(elseJump, len(c.chunk.Code))
		c.compileExpression(e.Alternate)
		c.chunk.Patch(endJump, len(c.chunk.Code))
	case *ast.AssignmentExpression:
		c.compileAssignment(e)
	case *ast.SequenceExpression:
		for i, sub := range e.Expressions {
			c.compileExpression(sub)
			if i < len(e.Expressions)-1 {
				c.emit(Instruction{Op: OpPop})
			}
		}
	case *ast.MemberExpression:
		c.compileMember(e)
	case *ast.CallExpression:
		c.compileCall(e)
	case *ast.NewExpression:
		c.compileNew(e)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(e)
	case *ast.SpreadElement:
		c.compileExpression(e.Argument)
	case *ast.FunctionExpression:
		name := ""
		if e.Name != nil {
			name = e.Name.Value
		}
		idx := c.compileFunction(name, e.Params, e.Body, nil, e.IsAsync, e.IsGenerator, false)
		c.emit(Instruction{Op: OpClosure, A: idx})
	case *ast.ArrowFunction:
		idx := c.compileFunction("", e.Params, e.Body, e.ExprBody, e.IsAsync, false, true)
		c.emit(Instruction{Op: OpClosure, A: idx})
	case *ast.AwaitExpression:
		c.compileExpression(e.Argument)
		c.emit(Instruction{Op: OpAwait})
	case *ast.YieldExpression:
		c.compileYield(e)
	case *ast.TypeAssertion:
		c.compileExpression(e.Expression)
	case *ast.ClassExpression:
		c.compileClassDeclaration(e.Decl)
	default:
		c.emit(Instruction{Op: OpUndefined})
	}
}

func (c *Compiler) compileTemplate(e *ast.TemplateLiteral) {
	// The leading string chunk keeps every '+' in string-concatenation mode.
	c.emitConst(runtime.NewString(e.Quasis[0]))
	for i, sub := range e.Expressions {
		c.compileExpression(sub)
		c.emit(Instruction{Op: OpBinary, S: "+"})
		if i+1 < len(e.Quasis) && e.Quasis[i+1] != "" {
			c.emitConst(runtime.NewString(e.Quasis[i+1]))
			c.emit(Instruction{Op: OpBinary, S: "+"})
		}
	}
}

func (c *Compiler) compileUnary(e *ast.UnaryExpression) {
	if e.Operator == "typeof" {
		if ident, ok := e.Operand.(*ast.Identifier); ok {
			c.emit(Instruction{Op: OpTypeofName, S: ident.Value})
			return
		}
	}
	if e.Operator == "delete" {
		if member, ok := e.Operand.(*ast.MemberExpression); ok {
			c.compileExpression(member.Object)
			if member.Computed {
				c.compileExpression(member.Property)
				c.emit(Instruction{Op: OpDeleteIndex})
			} else {
				c.emit(Instruction{Op: OpDelete, S: member.Property.(*ast.Identifier).Value})
			}
			return
		}
		c.emit(Instruction{Op: OpTrue})
		return
	}
	c.compileExpression(e.Operand)
	c.emit(Instruction{Op: OpUnary, S: e.Operator})
}

func (c *Compiler) compileUpdate(e *ast.UpdateExpression) {
	switch t := e.Operand.(type) {
	case *ast.Identifier:
		c.emit(Instruction{Op: OpLoad, S: t.Value})
		c.emit(Instruction{Op: OpUnary, S: "+"}) // numeric coercion
		if !e.Prefix {
			c.emit(Instruction{Op: OpDup})
		}
		c.emitConst(runtime.NewNumber(1))
		c.emit(Instruction{Op: OpBinary, S: updateOp(e.Operator)})
		if e.Prefix {
			c.emit(Instruction{Op: OpDup})
		}
		// stack (postfix): old new; (prefix): new new
		c.emit(Instruction{Op: OpStore, S: t.Value})
		c.emit(Instruction{Op: OpPop})
	case *ast.MemberExpression:
		// Receiver (and key) evaluate once into synthetic locals.
		c.emit(Instruction{Op: OpPushScope})
		c.compileExpression(t.Object)
		c.emit(Instruction{Op: OpDefine, S: "%obj"})
		if t.Computed {
			c.compileExpression(t.Property)
			c.emit(Instruction{Op: OpDefine, S: "%key"})
		}
		c.loadMemberTemp(t)
		c.emit(Instruction{Op: OpUnary, S: "+"})
		if !e.Prefix {
			c.emit(Instruction{Op: OpDup})
		}
		c.emitConst(runtime.NewNumber(1))
		c.emit(Instruction{Op: OpBinary, S: updateOp(e.Operator)})
		if e.Prefix {
			c.emit(Instruction{Op: OpDup})
		}
		// stack: result value-to-store
		c.storeMemberTemp(t)
		c.emit(Instruction{Op: OpPop})
		c.emit(Instruction{Op: OpPopScope})
	default:
		c.errorAt(e, "invalid update target")
		c.emit(Instruction{Op: OpUndefined})
	}
}

func updateOp(op string) string {
	if op == "++" {
		return "+"
	}
	return "-"
}

// loadMemberTemp reads %obj(.%key | .name) onto the stack.
func (c *Compiler) loadMemberTemp(t *ast.MemberExpression) {
	c.emit(Instruction{Op: OpLoad, S: "%obj"})
	if t.Computed {
		c.emit(Instruction{Op: OpLoad, S: "%key"})
		c.emit(Instruction{Op: OpGetIndex})
		return
	}
	c.emit(Instruction{Op: OpGetMember, S: t.Property.(*ast.Identifier).Value})
}

// storeMemberTemp writes the stack top into %obj(.%key | .name), leaving
// the written value.
func (c *Compiler) storeMemberTemp(t *ast.MemberExpression) {
	c.emit(Instruction{Op: OpLoad, S: "%obj"})
	c.emit(Instruction{Op: OpSwap})
	if t.Computed {
		c.emit(Instruction{Op: OpLoad, S: "%key"})
		c.emit(Instruction{Op: OpSwap})
		c.emit(Instruction{Op: OpSetIndex})
		return
	}
	c.emit(Instruction{Op: OpSetMember, S: t.Property.(*ast.Identifier).Value})
}

func (c *Compiler) compileLogical(e *ast.LogicalExpression) {
	c.compileExpression(e.Left)
	var jump int
	switch e.Operator {
	case "&&":
		jump = c.emit(Instruction{Op: OpJumpIfFalseKeep})
	case "||":
		jump = c.emit(Instruction{Op: OpJumpIfTruthyKeep})
	default: // ??
		jump = c.emit(Instruction{Op: OpJumpIfNotNullishKeep})
	}
	c.emit(Instruction{Op: OpPop})
	c.compileExpression(e.Right)
	c.chunk.Patch(jump, len(c.chunk.Code))
}

func (c *Compiler) compileAssignment(e *ast.AssignmentExpression) {
	if e.Operator == "=" {
		switch t := e.Target.(type) {
		case *ast.Identifier:
			c.compileExpression(e.Value)
			c.emit(Instruction{Op: OpStore, S: t.Value})
		case *ast.MemberExpression:
			c.compileExpression(t.Object)
			if t.Computed {
				c.compileExpression(t.Property)
				c.compileExpression(e.Value)
				c.emit(Instruction{Op: OpSetIndex})
			} else {
				c.compileExpression(e.Value)
				c.emit(Instruction{Op: OpSetMember, S: t.Property.(*ast.Identifier).Value})
			}
		default:
			c.errorAt(e, "invalid assignment target")
			c.emit(Instruction{Op: OpUndefined})
		}
		return
	}

	logical := e.Operator == "&&=" || e.Operator == "||=" || e.Operator == "??="

	switch t := e.Target.(type) {
	case *ast.Identifier:
		c.emit(Instruction{Op: OpLoad, S: t.Value})
		if logical {
			jump := c.emitLogicalKeep(e.Operator)
			c.emit(Instruction{Op: OpPop})
			c.compileExpression(e.Value)
			c.emit(Instruction{Op: OpStore, S: t.Value})
			c.chunk.Patch(jump, len(c.chunk.Code))
			return
		}
		c.compileExpression(e.Value)
		c.emit(Instruction{Op: OpBinary, S: strings.TrimSuffix(e.Operator, "=")})
		c.emit(Instruction{Op: OpStore, S: t.Value})
	case *ast.MemberExpression:
		c.emit(Instruction{Op: OpPushScope})
		c.compileExpression(t.Object)
		c.emit(Instruction{Op: OpDefine, S: "%obj"})
		if t.Computed {
			c.compileExpression(t.Property)
			c.emit(Instruction{Op: OpDefine, S: "%key"})
		}
		c.loadMemberTemp(t)
		if logical {
			jump := c.emitLogicalKeep(e.Operator)
			c.emit(Instruction{Op: OpPop})
			c.compileExpression(e.Value)
			c.storeMemberTemp(t)
			c.chunk.Patch(jump, len(c.chunk.Code))
			c.emit(Instruction{Op: OpPopScope})
			return
		}
		c.compileExpression(e.Value)
		c.emit(Instruction{Op: OpBinary, S: strings.TrimSuffix(e.Operator, "=")})
		c.storeMemberTemp(t)
		c.emit(Instruction{Op: OpPopScope})
	default:
		c.errorAt(e, "invalid assignment target")
		c.emit(Instruction{Op: OpUndefined})
	}
}

func (c *Compiler) emitLogicalKeep(op string) int {
	switch op {
	case "&&=":
		return c.emit(Instruction{Op: OpJumpIfFalseKeep})
	case "||=":
		return c.emit(Instruction{Op: OpJumpIfTruthyKeep})
	default:
		return c.emit(Instruction{Op: OpJumpIfNotNullishKeep})
	}
}

func (c *Compiler) compileMember(e *ast.MemberExpression) {
	if _, isSuper := e.Object.(*ast.SuperExpression); isSuper {
		if !e.Computed {
			c.emit(Instruction{Op: OpGetSuper, S: e.Property.(*ast.Identifier).Value})
			return
		}
		c.errorAt(e, "computed access on 'super' is not supported")
		c.emit(Instruction{Op: OpUndefined})
		return
	}

	c.compileExpression(e.Object)
	if e.Optional {
		// obj?.x: undefined when the receiver is nullish.
		skip := c.emit(Instruction{Op: OpJumpIfNotNullishKeep, B: 1})
		c.emit(Instruction{Op: OpPop})
		c.emit(Instruction{Op: OpUndefined})
		end := c.emit(Instruction{Op: OpJump})
		c.chunk.Patch(skip, len(c.chunk.Code))
		if e.Computed {
			c.compileExpression(e.Property)
			c.emit(Instruction{Op: OpGetIndex})
		} else {
			c.emit(Instruction{Op: OpGetMember, S: e.Property.(*ast.Identifier).Value})
		}
		c.chunk.Patch(end, len(c.chunk.Code))
		return
	}
	if e.Computed {
		c.compileExpression(e.Property)
		c.emit(Instruction{Op: OpGetIndex})
		return
	}
	c.emit(Instruction{Op: OpGetMember, S: e.Property.(*ast.Identifier).Value})
}

func (c *Compiler) compileCall(e *ast.CallExpression) {
	if _, isSuper := e.Callee.(*ast.SuperExpression); isSuper {
		for _, a := range e.Arguments {
			c.compileExpression(a)
		}
		c.emit(Instruction{Op: OpSuperCall, A: len(e.Arguments)})
		return
	}

	hasSpread := false
	for _, a := range e.Arguments {
		if _, ok := a.(*ast.SpreadElement); ok {
			hasSpread = true
			break
		}
	}

	c.compileExpression(e.Callee)
	if hasSpread {
		c.compileArgsArray(e.Arguments)
		c.emit(Instruction{Op: OpCallApply})
		return
	}
	for _, a := range e.Arguments {
		c.compileExpression(a)
	}
	c.emit(Instruction{Op: OpCall, A: len(e.Arguments)})
}

func (c *Compiler) compileArgsArray(args []ast.Expression) {
	c.emit(Instruction{Op: OpArray, A: 0})
	for _, a := range args {
		if spread, ok := a.(*ast.SpreadElement); ok {
			c.compileExpression(spread.Argument)
			c.emit(Instruction{Op: OpSpreadAppend})
			continue
		}
		c.compileExpression(a)
		c.emit(Instruction{Op: OpAppend})
	}
}

func (c *Compiler) compileNew(e *ast.NewExpression) {
	c.compileExpression(e.Callee)
	for _, a := range e.Arguments {
		c.compileExpression(a)
	}
	c.emit(Instruction{Op: OpNew, A: len(e.Arguments)})
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) {
	c.emit(Instruction{Op: OpArray, A: 0})
	for _, el := range e.Elements {
		if spread, ok := el.(*ast.SpreadElement); ok {
			c.compileExpression(spread.Argument)
			c.emit(Instruction{Op: OpSpreadAppend})
			continue
		}
		c.compileExpression(el)
		c.emit(Instruction{Op: OpAppend})
	}
}

func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) {
	c.emit(Instruction{Op: OpObject})
	for _, p := range e.Properties {
		switch p.Kind {
		case ast.PropertySpread:
			c.compileExpression(p.Argument)
			c.emit(Instruction{Op: OpObjectSpread})
		case ast.PropertyGet:
			// Object-literal accessors evaluate eagerly into plain
			// properties, mirroring the interpreter.
			fn := p.Value.(*ast.FunctionExpression)
			idx := c.compileFunction("", fn.Params, fn.Body, nil, false, false, false)
			c.emit(Instruction{Op: OpClosure, A: idx})
			c.emit(Instruction{Op: OpCall, A: 0})
			c.setPropKey(p)
		case ast.PropertySet:
			// No runtime representation on plain literals.
		case ast.PropertyMethod:
			fn := p.Value.(*ast.FunctionExpression)
			idx := c.compileFunction(keyText(p.Key), fn.Params, fn.Body, nil, fn.IsAsync, fn.IsGenerator, false)
			c.emit(Instruction{Op: OpClosure, A: idx})
			c.setPropKey(p)
		default:
			c.compileExpression(p.Value)
			c.setPropKey(p)
		}
	}
}

func (c *Compiler) setPropKey(p *ast.ObjectProperty) {
	if p.Computed {
		c.compileExpression(p.Key)
		c.emit(Instruction{Op: OpSetPropComputed})
		return
	}
	c.emit(Instruction{Op: OpSetProp, S: keyText(p.Key)})
}

func keyText(key ast.Expression) string {
	switch k := key.(type) {
	case *ast.Identifier:
		return k.Value
	case *ast.StringLiteral:
		return k.Value
	case *ast.NumberLiteral:
		return runtime.NewNumber(k.Value).String()
	}
	return key.String()
}

// compileYield lowers yield and yield*. Delegation loops over the inner
// iterator, forwarding sent values and finishing with the delegate's final
// value.
func (c *Compiler) compileYield(e *ast.YieldExpression) {
	if !e.Delegate {
		if e.Argument != nil {
			c.compileExpression(e.Argument)
		} else {
			c.emit(Instruction{Op: OpUndefined})
		}
		c.emit(Instruction{Op: OpYield})
		return
	}

	// yield* src
	c.emit(Instruction{Op: OpPushScope})
	c.compileExpression(e.Argument)
	c.emit(Instruction{Op: OpIterInit})
	c.emit(Instruction{Op: OpDefine, S: "%dele"})
	c.emit(Instruction{Op: OpUndefined})
	c.emit(Instruction{Op: OpDefine, S: "%sent"})

	loop := len(c.chunk.Code)
	c.emit(Instruction{Op: OpLoad, S: "%dele"})
	c.emit(Instruction{Op: OpLoad, S: "%sent"})
	c.emit(Instruction{Op: OpIterNextSend})
	// stack: value doneBool
	done := c.emit(Instruction{Op: OpJumpIfTrue})
	c.emit(Instruction{Op: OpYield})
	c.emit(Instruction{Op: OpStore, S: "%sent"})
	c.emit(Instruction{Op: OpPop})
	c.emit(Instruction{Op: OpJump, A: loop})

	c.chunk.Patch(done, len(c.chunk.Code))
	// stack: final value of the delegate
	c.emit(Instruction{Op: OpPopScope})
}
