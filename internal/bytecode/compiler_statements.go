package bytecode

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// compileStatement lowers one statement into the current chunk.
func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VariableStatement:
		c.compileVariableStatement(s)
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			c.compileExpression(s.Expression)
			c.emit(Instruction{Op: OpPop})
		}
	case *ast.BlockStatement:
		c.emit(Instruction{Op: OpPushScope})
		for _, inner := range s.Statements {
			c.compileStatement(inner)
		}
		c.emit(Instruction{Op: OpPopScope})
	case *ast.IfStatement:
		c.compileExpression(s.Condition)
		elseJump := c.emit(Instruction{Op: OpJumpIfFalse})
		c.compileStatement(s.Consequent)
		if s.Alternate != nil {
			endJump := c.emit(Instruction{Op: OpJump})
			c.chunk.Patch(elseJump, len(c.chunk.Code))
			c.compileStatement(s.Alternate)
			c.chunk.Patch(endJump, len(c.chunk.Code))
		} else {
			c.chunk.Patch(elseJump, len(c.chunk.Code))
		}
	case *ast.WhileStatement:
		c.compileWhile(s, "")
	case *ast.DoWhileStatement:
		c.compileDoWhile(s, "")
	case *ast.ForStatement:
		c.compileFor(s, "")
	case *ast.ForInStatement:
		c.compileForIn(s, "")
	case *ast.ForOfStatement:
		c.compileForOf(s, "")
	case *ast.SwitchStatement:
		c.compileSwitch(s)
	case *ast.LabeledStatement:
		c.compileLabeled(s)
	case *ast.BreakStatement:
		c.compileBreak(s)
	case *ast.ContinueStatement:
		c.compileContinue(s)
	case *ast.ReturnStatement:
		if s.Value != nil {
			c.compileExpression(s.Value)
		} else {
			c.emit(Instruction{Op: OpUndefined})
		}
		// A return leaving try regions runs their finally blocks first.
		c.unwindTries(0)
		c.emit(Instruction{Op: OpReturn})
	case *ast.ThrowStatement:
		c.compileExpression(s.Value)
		c.emit(Instruction{Op: OpThrow})
	case *ast.TryStatement:
		c.compileTry(s)
	case *ast.FunctionDeclaration:
		fn := s.Function
		idx := c.compileFunction(fn.Name.Value, fn.Params, fn.Body, nil, fn.IsAsync, fn.IsGenerator, false)
		c.emit(Instruction{Op: OpClosure, A: idx})
		c.emit(Instruction{Op: OpDefine, S: fn.Name.Value})
		if c.inModuleInit && s.Exported {
			c.emit(Instruction{Op: OpLoad, S: fn.Name.Value})
			if s.Default {
				c.emit(Instruction{Op: OpExportSet, S: "default"})
			} else {
				c.emit(Instruction{Op: OpExportSet, S: fn.Name.Value})
			}
			c.emit(Instruction{Op: OpPop})
		}
	case *ast.ClassDeclaration:
		c.compileClassDeclaration(s)
		c.emit(Instruction{Op: OpDefine, S: s.Name.Value})
		if c.inModuleInit && (s.Exported || s.Default) {
			c.emit(Instruction{Op: OpLoad, S: s.Name.Value})
			if s.Default {
				c.emit(Instruction{Op: OpExportSet, S: "default"})
			} else {
				c.emit(Instruction{Op: OpExportSet, S: s.Name.Value})
			}
			c.emit(Instruction{Op: OpPop})
		}
	case *ast.EnumDeclaration:
		c.compileEnum(s)
	case *ast.InterfaceDeclaration, *ast.TypeAliasDeclaration:
		// Erased at runtime.
	case *ast.ImportDeclaration:
		c.module.Imports = append(c.module.Imports, ImportDef{
			Specifier: s.Specifier,
			Default:   nameOrEmpty(s.Default),
			Namespace: nameOrEmpty(s.Namespace),
			Named:     namedPairs(s.Named),
		})
	case *ast.ImportEqualsDeclaration:
		c.module.Imports = append(c.module.Imports, ImportDef{
			Specifier: s.Specifier,
			Equals:    s.Name.Value,
		})
	case *ast.ExportDeclaration:
		c.compileExportDeclaration(s)
	case *ast.ExportAssignment:
		c.compileExpression(s.Expression)
		c.emit(Instruction{Op: OpExportEquals})
	}
}

func nameOrEmpty(id *ast.Identifier) string {
	if id == nil {
		return ""
	}
	return id.Value
}

func namedPairs(specs []*ast.ImportSpecifier) [][2]string {
	out := make([][2]string, len(specs))
	for i, s := range specs {
		out[i] = [2]string{s.Name.Value, s.LocalName()}
	}
	return out
}

func (c *Compiler) compileVariableStatement(s *ast.VariableStatement) {
	for _, d := range s.Declarations {
		if d.Init != nil {
			c.compileExpression(d.Init)
		} else {
			c.emit(Instruction{Op: OpUndefined})
		}
		switch s.Kind {
		case ast.DeclVar:
			c.emit(Instruction{Op: OpDefineVar, S: d.Name.Value})
		case ast.DeclConst:
			c.emit(Instruction{Op: OpDefineConst, S: d.Name.Value})
		default:
			c.emit(Instruction{Op: OpDefine, S: d.Name.Value})
		}
		if c.inModuleInit && s.Exported {
			c.emit(Instruction{Op: OpLoad, S: d.Name.Value})
			c.emit(Instruction{Op: OpExportSet, S: d.Name.Value})
			c.emit(Instruction{Op: OpPop})
		}
	}
}

func (c *Compiler) compileExportDeclaration(s *ast.ExportDeclaration) {
	switch {
	case s.Default != nil:
		c.compileExpression(s.Default)
		c.emit(Instruction{Op: OpExportSet, S: "default"})
		c.emit(Instruction{Op: OpPop})
	case s.Star:
		c.module.ReExports = append(c.module.ReExports, ReExportDef{Source: s.Source})
	case s.Source != "":
		for _, spec := range s.Named {
			c.module.ReExports = append(c.module.ReExports, ReExportDef{
				Source: s.Source,
				Name:   spec.Name.Value,
				Alias:  spec.ExportedName(),
			})
		}
	default:
		for _, spec := range s.Named {
			c.emit(Instruction{Op: OpLoad, S: spec.Name.Value})
			c.emit(Instruction{Op: OpExportSet, S: spec.ExportedName()})
			c.emit(Instruction{Op: OpPop})
		}
	}
}

// pushLoop opens a loop context; closeLoop patches its jumps.
func (c *Compiler) pushLoop(label string) *loopContext {
	loop := &loopContext{label: label, tryDepth: len(c.tryBlocks)}
	c.loops = append(c.loops, loop)
	return loop
}

func (c *Compiler) closeLoop(loop *loopContext, breakTarget, continueTarget int) {
	for _, at := range loop.breakJumps {
		c.chunk.Patch(at, breakTarget)
	}
	for _, at := range loop.continueJumps {
		c.chunk.Patch(at, continueTarget)
	}
	c.loops = c.loops[:len(c.loops)-1]
}

// findLoop resolves break/continue to the innermost (or labeled) context;
// continue skips switch contexts, which only break can target.
func (c *Compiler) findLoop(label string, forContinue bool) *loopContext {
	for i := len(c.loops) - 1; i >= 0; i-- {
		loop := c.loops[i]
		if forContinue && loop.isSwitch {
			continue
		}
		if label == "" || loop.label == label {
			return loop
		}
	}
	return nil
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) {
	label := ""
	if s.Label != nil {
		label = s.Label.Value
	}
	loop := c.findLoop(label, false)
	if loop == nil {
		c.errorAt(s, "'break' outside of a loop or switch")
		return
	}
	c.unwindTries(loop.tryDepth)
	at := c.emit(Instruction{Op: OpJump})
	loop.breakJumps = append(loop.breakJumps, at)
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) {
	label := ""
	if s.Label != nil {
		label = s.Label.Value
	}
	loop := c.findLoop(label, true)
	if loop == nil {
		c.errorAt(s, "'continue' outside of a loop")
		return
	}
	c.unwindTries(loop.tryDepth)
	at := c.emit(Instruction{Op: OpJump})
	loop.continueJumps = append(loop.continueJumps, at)
}

func (c *Compiler) compileLabeled(s *ast.LabeledStatement) {
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		c.compileWhile(body, s.Label.Value)
	case *ast.DoWhileStatement:
		c.compileDoWhile(body, s.Label.Value)
	case *ast.ForStatement:
		c.compileFor(body, s.Label.Value)
	case *ast.ForInStatement:
		c.compileForIn(body, s.Label.Value)
	case *ast.ForOfStatement:
		c.compileForOf(body, s.Label.Value)
	default:
		c.compileStatement(s.Body)
	}
}

func (c *Compiler) compileWhile(s *ast.WhileStatement, label string) {
	loop := c.pushLoop(label)
	start := len(c.chunk.Code)
	c.compileExpression(s.Condition)
	exit := c.emit(Instruction{Op: OpJumpIfFalse})
	c.compileStatement(s.Body)
	c.emit(Instruction{Op: OpJump, A: start})
	end := len(c.chunk.Code)
	c.chunk.Patch(exit, end)
	c.closeLoop(loop, end, start)
}

func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement, label string) {
	loop := c.pushLoop(label)
	start := len(c.chunk.Code)
	c.compileStatement(s.Body)
	condAt := len(c.chunk.Code)
	c.compileExpression(s.Condition)
	c.emit(Instruction{Op: OpJumpIfTrue, A: start})
	end := len(c.chunk.Code)
	c.closeLoop(loop, end, condAt)
}

func (c *Compiler) compileFor(s *ast.ForStatement, label string) {
	c.emit(Instruction{Op: OpPushScope})
	if s.Init != nil {
		c.compileStatement(s.Init)
	}
	loop := c.pushLoop(label)

	start := len(c.chunk.Code)
	var exit int = -1
	if s.Condition != nil {
		c.compileExpression(s.Condition)
		exit = c.emit(Instruction{Op: OpJumpIfFalse})
	}
	c.compileStatement(s.Body)

	updateAt := len(c.chunk.Code)
	if s.Update != nil {
		c.compileExpression(s.Update)
		c.emit(Instruction{Op: OpPop})
	}
	c.emit(Instruction{Op: OpJump, A: start})
	end := len(c.chunk.Code)
	if exit >= 0 {
		c.chunk.Patch(exit, end)
	}
	c.closeLoop(loop, end, updateAt)
	c.emit(Instruction{Op: OpPopScope})
}

// compileForIn lowers for-in into key-array iteration.
func (c *Compiler) compileForIn(s *ast.ForInStatement, label string) {
	c.emit(Instruction{Op: OpPushScope})
	c.compileExpression(s.Right)
	c.emit(Instruction{Op: OpKeys})
	c.emit(Instruction{Op: OpIterInit})
	c.emit(Instruction{Op: OpDefine, S: "%iter"})

	loop := c.pushLoop(label)
	start := len(c.chunk.Code)
	c.emit(Instruction{Op: OpLoad, S: "%iter"})
	done := c.emit(Instruction{Op: OpIterNext})
	c.emit(Instruction{Op: OpPushScope})
	c.bindLoopVar(s.Decl, s.Kind, s.Left.Value)
	c.compileStatement(s.Body)
	c.emit(Instruction{Op: OpPopScope})
	c.emit(Instruction{Op: OpJump, A: start})
	end := len(c.chunk.Code)
	c.chunk.Patch(done, end)
	c.closeLoop(loop, end, start)
	c.emit(Instruction{Op: OpPopScope})
}

// compileForOf lowers for-of (and for-await-of) over the iterator driver.
func (c *Compiler) compileForOf(s *ast.ForOfStatement, label string) {
	c.emit(Instruction{Op: OpPushScope})
	c.compileExpression(s.Right)
	c.emit(Instruction{Op: OpIterInit})
	c.emit(Instruction{Op: OpDefine, S: "%iter"})

	loop := c.pushLoop(label)
	start := len(c.chunk.Code)
	c.emit(Instruction{Op: OpLoad, S: "%iter"})
	done := c.emit(Instruction{Op: OpIterNext})
	if s.Await {
		c.emit(Instruction{Op: OpAwait})
	}
	c.emit(Instruction{Op: OpPushScope})
	c.bindLoopVar(s.Decl, s.Kind, s.Left.Value)
	c.compileStatement(s.Body)
	c.emit(Instruction{Op: OpPopScope})
	c.emit(Instruction{Op: OpJump, A: start})
	end := len(c.chunk.Code)
	c.chunk.Patch(done, end)
	c.closeLoop(loop, end, start)
	c.emit(Instruction{Op: OpPopScope})
}

// bindLoopVar defines or stores the loop variable from the value on top of
// the stack.
func (c *Compiler) bindLoopVar(decl bool, kind ast.DeclarationKind, name string) {
	if !decl {
		c.emit(Instruction{Op: OpStore, S: name})
		c.emit(Instruction{Op: OpPop})
		return
	}
	if kind == ast.DeclConst {
		c.emit(Instruction{Op: OpDefineConst, S: name})
	} else {
		c.emit(Instruction{Op: OpDefine, S: name})
	}
}

// compileSwitch lowers switch with === matching and fallthrough.
func (c *Compiler) compileSwitch(s *ast.SwitchStatement) {
	c.emit(Instruction{Op: OpPushScope})
	c.compileExpression(s.Discriminant)
	c.emit(Instruction{Op: OpDefine, S: "%disc"})

	// Switch participates in break resolution but never in continue.
	loop := c.pushLoop("")
	loop.isSwitch = true

	var bodyJumps []int
	var defaultJump = -1
	for _, cs := range s.Cases {
		if cs.Test == nil {
			continue
		}
		c.emit(Instruction{Op: OpLoad, S: "%disc"})
		c.compileExpression(cs.Test)
		c.emit(Instruction{Op: OpBinary, S: "==="})
		bodyJumps = append(bodyJumps, c.emit(Instruction{Op: OpJumpIfTrue}))
	}
	defaultJump = c.emit(Instruction{Op: OpJump})

	testIdx := 0
	defaultTarget := -1
	for _, cs := range s.Cases {
		target := len(c.chunk.Code)
		if cs.Test == nil {
			defaultTarget = target
		} else {
			c.chunk.Patch(bodyJumps[testIdx], target)
			testIdx++
		}
		for _, stmt := range cs.Body {
			c.compileStatement(stmt)
		}
	}
	end := len(c.chunk.Code)
	if defaultTarget >= 0 {
		c.chunk.Patch(defaultJump, defaultTarget)
	} else {
		c.chunk.Patch(defaultJump, end)
	}
	c.closeLoop(loop, end, end)
	c.emit(Instruction{Op: OpPopScope})
}

// compileTry lowers try/catch/finally. The handler target is recorded on
// the frame (surviving suspensions); finally code is inlined on the normal
// path, the handler path and every early exit.
func (c *Compiler) compileTry(s *ast.TryStatement) {
	tryAt := c.emit(Instruction{Op: OpTryPush})
	c.tryBlocks = append(c.tryBlocks, tryInfo{finalizer: s.Finalizer})

	c.emit(Instruction{Op: OpPushScope})
	for _, stmt := range s.Block.Statements {
		c.compileStatement(stmt)
	}
	c.emit(Instruction{Op: OpPopScope})

	// Normal completion: pop the handler, run finally, skip the handler.
	c.tryBlocks = c.tryBlocks[:len(c.tryBlocks)-1]
	c.emit(Instruction{Op: OpTryPop})
	c.compileFinalizer(s.Finalizer)
	endJump := c.emit(Instruction{Op: OpJump})

	// Handler path: the thrown value is on the stack.
	handlerTarget := len(c.chunk.Code)
	c.chunk.Patch(tryAt, handlerTarget)

	if s.Handler != nil {
		c.emit(Instruction{Op: OpPushScope})
		if s.Handler.Param != nil {
			c.emit(Instruction{Op: OpDefine, S: s.Handler.Param.Value})
		} else {
			c.emit(Instruction{Op: OpPop})
		}
		// A throw inside the catch block still runs this try's finally.
		if s.Finalizer != nil {
			c.tryBlocks = append(c.tryBlocks, tryInfo{finalizer: s.Finalizer})
			rethrowAt := c.emit(Instruction{Op: OpTryPush})
			for _, stmt := range s.Handler.Body.Statements {
				c.compileStatement(stmt)
			}
			c.tryBlocks = c.tryBlocks[:len(c.tryBlocks)-1]
			c.emit(Instruction{Op: OpTryPop})
			c.emit(Instruction{Op: OpPopScope})
			c.compileFinalizer(s.Finalizer)
			catchEnd := c.emit(Instruction{Op: OpJump})

			// Exception during catch: run finally, rethrow.
			c.chunk.Patch(rethrowAt, len(c.chunk.Code))
			c.compileFinalizer(s.Finalizer)
			c.emit(Instruction{Op: OpThrow})
			c.chunk.Patch(catchEnd, len(c.chunk.Code))
		} else {
			for _, stmt := range s.Handler.Body.Statements {
				c.compileStatement(stmt)
			}
			c.emit(Instruction{Op: OpPopScope})
		}
	} else {
		// try/finally without catch: run finally, rethrow.
		c.compileFinalizer(s.Finalizer)
		c.emit(Instruction{Op: OpThrow})
	}

	c.chunk.Patch(endJump, len(c.chunk.Code))
}

func (c *Compiler) compileFinalizer(fin *ast.BlockStatement) {
	if fin == nil {
		return
	}
	c.emit(Instruction{Op: OpPushScope})
	for _, stmt := range fin.Statements {
		c.compileStatement(stmt)
	}
	c.emit(Instruction{Op: OpPopScope})
}

// compileEnum materializes the enum object with its reverse numeric
// mapping at load time.
func (c *Compiler) compileEnum(s *ast.EnumDeclaration) {
	c.emit(Instruction{Op: OpObject})
	next := 0.0
	for _, m := range s.Members {
		var known *float64
		if m.Init != nil {
			c.compileExpression(m.Init)
			if num, ok := m.Init.(*ast.NumberLiteral); ok {
				v := num.Value
				known = &v
				next = v + 1
			}
		} else {
			v := next
			known = &v
			c.emitConst(runtime.NewNumber(v))
			next++
		}
		c.emit(Instruction{Op: OpSetProp, S: m.Name.Value})
		if known != nil {
			c.emitConst(runtime.NewString(m.Name.Value))
			c.emit(Instruction{Op: OpSetProp, S: runtime.NewNumber(*known).String()})
		}
	}
	c.emit(Instruction{Op: OpDefineConst, S: s.Name.Value})
	if c.inModuleInit && s.Exported {
		c.emit(Instruction{Op: OpLoad, S: s.Name.Value})
		c.emit(Instruction{Op: OpExportSet, S: s.Name.Value})
		c.emit(Instruction{Op: OpPop})
	}
}

// compileClassDeclaration lowers a class and leaves the class object on
// the stack. Decorators apply after the definition is established,
// outside-in for the legacy position.
func (c *Compiler) compileClassDeclaration(s *ast.ClassDeclaration) {
	def := &ClassDef{Name: s.Name.Value, Abstract: s.IsAbstract}

	for _, member := range s.Members {
		switch m := member.(type) {
		case *ast.FieldMember:
			fd := FieldDef{
				Name:     m.Name.Value,
				InitFn:   -1,
				Readonly: m.Modifiers.Readonly,
				Static:   m.Modifiers.Static,
			}
			if m.Init != nil {
				fd.InitFn = c.compileFunction(s.Name.Value+"."+m.Name.Value+"$init",
					nil, nil, m.Init, false, false, false)
			}
			def.Fields = append(def.Fields, fd)
		case *ast.MethodMember:
			if m.Function.Body == nil {
				continue // abstract methods are not emitted
			}
			kind := MethodNormal
			switch m.Kind {
			case ast.MethodConstructor:
				kind = MethodCtor
			case ast.MethodGet:
				kind = MethodGetter
			case ast.MethodSet:
				kind = MethodSetter
			}
			fnIdx := c.compileFunction(s.Name.Value+"."+m.Name.Value,
				m.Function.Params, m.Function.Body, nil,
				m.Function.IsAsync || m.Modifiers.Async, m.Function.IsGenerator, false)
			def.Methods = append(def.Methods, MethodDef{
				Name: m.Name.Value, Fn: fnIdx, Kind: kind, Static: m.Modifiers.Static,
			})
		}
	}

	c.module.Classes = append(c.module.Classes, def)
	classIdx := len(c.module.Classes) - 1

	hasSuper := 0
	if s.SuperClass != nil {
		c.compileExpression(s.SuperClass)
		hasSuper = 1
	}
	c.emit(Instruction{Op: OpClass, A: classIdx, B: hasSuper})

	// Legacy decorators apply outside-in over the finished class and may
	// replace it: result = d1(d2(cls)). A decorator returning a non-class
	// leaves the original in place.
	for idx := len(s.Decorators) - 1; idx >= 0; idx-- {
		c.compileExpression(s.Decorators[idx].Expression)
		c.emit(Instruction{Op: OpDecorate})
	}
}
