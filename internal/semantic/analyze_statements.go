package semantic

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// analyzeStatement checks one statement.
func (a *Analyzer) analyzeStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VariableStatement:
		a.analyzeVariableStatement(s)
	case *ast.ExpressionStatement:
		if s.Expression != nil {
			a.analyzeExpression(s.Expression)
		}
	case *ast.BlockStatement:
		a.analyzeBlock(s)
	case *ast.IfStatement:
		a.analyzeIfStatement(s)
	case *ast.WhileStatement:
		a.analyzeExpression(s.Condition)
		a.inScope(func() {
			a.applyNarrowing(s.Condition, true)
			a.withLoop(func() { a.analyzeStatement(s.Body) })
		})
	case *ast.DoWhileStatement:
		a.inScope(func() {
			a.withLoop(func() { a.analyzeStatement(s.Body) })
		})
		a.analyzeExpression(s.Condition)
	case *ast.ForStatement:
		a.inScope(func() {
			if s.Init != nil {
				a.analyzeStatement(s.Init)
			}
			if s.Condition != nil {
				a.analyzeExpression(s.Condition)
			}
			if s.Update != nil {
				a.analyzeExpression(s.Update)
			}
			a.withLoop(func() { a.analyzeStatement(s.Body) })
		})
	case *ast.ForInStatement:
		a.analyzeForIn(s)
	case *ast.ForOfStatement:
		a.analyzeForOf(s)
	case *ast.SwitchStatement:
		a.analyzeSwitch(s)
	case *ast.LabeledStatement:
		a.labels[s.Label.Value] = true
		a.analyzeStatement(s.Body)
		delete(a.labels, s.Label.Value)
	case *ast.BreakStatement:
		if s.Label != nil && !a.labels[s.Label.Value] {
			a.errorAt(s, "TS1116", "cannot find label %q", s.Label.Value)
		} else if s.Label == nil && !a.inLoop && !a.inSwitch {
			a.errorAt(s, "TS1105", "a 'break' statement can only be used within a loop or switch")
		}
	case *ast.ContinueStatement:
		if s.Label != nil && !a.labels[s.Label.Value] {
			a.errorAt(s, "TS1116", "cannot find label %q", s.Label.Value)
		} else if s.Label == nil && !a.inLoop {
			a.errorAt(s, "TS1104", "a 'continue' statement can only be used within a loop")
		}
	case *ast.ReturnStatement:
		a.analyzeReturn(s)
	case *ast.ThrowStatement:
		a.analyzeExpression(s.Value)
	case *ast.TryStatement:
		a.analyzeBlock(s.Block)
		if s.Handler != nil {
			a.inScope(func() {
				if s.Handler.Param != nil {
					// Catch parameters are unknown under strict rules.
					a.scope.defineValue(s.Handler.Param.Value, types.UNKNOWN, false, s.Handler.Param.Pos())
				}
				a.analyzeBlock(s.Handler.Body)
			})
		}
		if s.Finalizer != nil {
			a.analyzeBlock(s.Finalizer)
		}
	case *ast.FunctionDeclaration:
		// Signature was hoisted; check the body now.
		a.analyzeFunctionBody(s.Function, nil, false)
	case *ast.ClassDeclaration:
		a.analyzeClassBodies(s)
	case *ast.InterfaceDeclaration, *ast.TypeAliasDeclaration:
		// Fully handled in the declaration pre-pass.
	case *ast.EnumDeclaration:
		// Fully handled in the declaration pre-pass.
	case *ast.ImportDeclaration, *ast.ImportEqualsDeclaration:
		// Bound in the declaration pre-pass.
	case *ast.ExportDeclaration:
		if s.Default != nil {
			a.analyzeExpression(s.Default)
		}
	case *ast.ExportAssignment:
		a.analyzeExpression(s.Expression)
	}
}

// analyzeVariableStatement checks declarators: annotated declarations check
// the initializer against the annotation (with excess-property reporting at
// this exact site); unannotated ones infer and widen.
func (a *Analyzer) analyzeVariableStatement(s *ast.VariableStatement) {
	for _, d := range s.Declarations {
		var declared types.Type

		if d.Type != nil {
			declared = a.resolveTypeNode(d.Type)
			if d.Init != nil {
				got := a.analyzeExpression(d.Init)
				a.checkAssignment(d.Init, got, declared)
			}
		} else if d.Init != nil {
			got := a.analyzeExpression(d.Init)
			if s.Kind == ast.DeclConst {
				declared = got
				if rec, ok := got.(*types.RecordType); ok {
					declared = rec.Widened()
				}
			} else {
				declared = types.Widen(got)
			}
		} else {
			declared = types.ANY
			if s.Kind != ast.DeclVar && a.opts.StrictNullChecks {
				declared = types.UNDEFINED
			}
		}

		if a.scope.values[d.Name.Value] != nil {
			if s.Kind != ast.DeclVar {
				a.errorAt(d.Name, "TS2451", "cannot redeclare block-scoped variable %q", d.Name.Value)
			}
		}
		a.scope.defineValue(d.Name.Value, declared, s.Kind == ast.DeclConst, d.Name.Pos())
		a.setType(d.Name, declared)
	}
}

// checkAssignment verifies got <: want at a node, with excess-property
// reporting for fresh object literals at this exact annotation site.
func (a *Analyzer) checkAssignment(node ast.Node, got, want types.Type) {
	// An array literal checks element-wise against a tuple annotation.
	if tup, ok := want.(*types.TupleType); ok {
		if lit, isLit := node.(*ast.ArrayLiteral); isLit {
			a.checkTupleLiteral(lit, tup)
			return
		}
	}
	if fresh, ok := got.(*types.RecordType); ok && fresh.Fresh {
		if excess := a.compat.ExcessProperties(fresh, want); len(excess) > 0 {
			a.errorAt(node, "TS2353", "object literal may only specify known properties, and %q does not exist in type %s",
				excess[0], want.String())
			return
		}
		// The structural check runs on the widened form so the freshness
		// marker never leaks past its annotation site.
		if !a.compat.Assignable(fresh.Widened(), want) {
			a.errorAt(node, "TS2322", "type %s is not assignable to type %s", got.String(), want.String())
		}
		return
	}
	if !a.compat.Assignable(got, want) {
		a.errorAt(node, "TS2322", "type %s is not assignable to type %s", got.String(), want.String())
	}
}

// hoistVars predeclares 'var' bindings at function level so reads before
// the declaration statement resolve. The walk stops at nested functions.
func (a *Analyzer) hoistVars(stmts []ast.Statement) {
	var walk func(stmt ast.Statement)
	walk = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.VariableStatement:
			if s.Kind == ast.DeclVar {
				for _, d := range s.Declarations {
					if _, exists := a.scope.values[d.Name.Value]; !exists {
						a.scope.defineValue(d.Name.Value, types.ANY, false, d.Name.Pos())
					}
				}
			}
		case *ast.BlockStatement:
			a.hoistVars(s.Statements)
		case *ast.IfStatement:
			walk(s.Consequent)
			if s.Alternate != nil {
				walk(s.Alternate)
			}
		case *ast.WhileStatement:
			walk(s.Body)
		case *ast.DoWhileStatement:
			walk(s.Body)
		case *ast.ForStatement:
			if s.Init != nil {
				walk(s.Init)
			}
			walk(s.Body)
		case *ast.ForInStatement:
			walk(s.Body)
		case *ast.ForOfStatement:
			walk(s.Body)
		case *ast.SwitchStatement:
			for _, c := range s.Cases {
				a.hoistVars(c.Body)
			}
		case *ast.TryStatement:
			a.hoistVars(s.Block.Statements)
			if s.Handler != nil {
				a.hoistVars(s.Handler.Body.Statements)
			}
			if s.Finalizer != nil {
				a.hoistVars(s.Finalizer.Statements)
			}
		case *ast.LabeledStatement:
			walk(s.Body)
		}
	}
	for _, stmt := range stmts {
		walk(stmt)
	}
}

// checkTupleLiteral checks an array literal element-wise against a tuple.
func (a *Analyzer) checkTupleLiteral(lit *ast.ArrayLiteral, tup *types.TupleType) {
	if len(lit.Elements) < tup.Required {
		a.errorAt(lit, "TS2322", "tuple requires at least %d elements, got %d", tup.Required, len(lit.Elements))
		return
	}
	for i, el := range lit.Elements {
		et := a.typeTable[el]
		if et == nil {
			et = a.analyzeExpression(el)
		}
		var want types.Type
		if i < len(tup.Elements) {
			want = tup.Elements[i]
		} else if tup.Rest != nil {
			want = tup.Rest
		} else {
			a.errorAt(el, "TS2322", "tuple of length %d has no element at index %d", len(tup.Elements), i)
			return
		}
		if !a.compat.Assignable(et, want) {
			a.errorAt(el, "TS2322", "type %s is not assignable to type %s", et.String(), want.String())
		}
	}
}

// analyzeBlock checks a block in a nested scope.
func (a *Analyzer) analyzeBlock(block *ast.BlockStatement) {
	a.inScope(func() {
		for _, stmt := range block.Statements {
			a.analyzeStatement(stmt)
		}
	})
}

// inScope runs fn in a child scope.
func (a *Analyzer) inScope(fn func()) {
	prev := a.scope
	a.scope = newScope(prev)
	fn()
	a.scope = prev
}

func (a *Analyzer) withLoop(fn func()) {
	prev := a.inLoop
	a.inLoop = true
	fn()
	a.inLoop = prev
}

// analyzeIfStatement applies the guard's narrowing to the then branch and
// its negation to the else branch; narrowings merge back by union at the
// join point (handled by scope discard).
func (a *Analyzer) analyzeIfStatement(s *ast.IfStatement) {
	a.analyzeExpression(s.Condition)

	a.inScope(func() {
		a.applyNarrowing(s.Condition, true)
		a.analyzeStatement(s.Consequent)
	})
	if s.Alternate != nil {
		a.inScope(func() {
			a.applyNarrowing(s.Condition, false)
			a.analyzeStatement(s.Alternate)
		})
	}
}

func (a *Analyzer) analyzeForIn(s *ast.ForInStatement) {
	a.analyzeExpression(s.Right)
	a.inScope(func() {
		// for-in enumerates string keys.
		a.scope.defineValue(s.Left.Value, types.STRING, s.Kind == ast.DeclConst, s.Left.Pos())
		a.withLoop(func() { a.analyzeStatement(s.Body) })
	})
}

func (a *Analyzer) analyzeForOf(s *ast.ForOfStatement) {
	iterable := a.analyzeExpression(s.Right)
	elem := a.elementTypeOf(iterable)
	if s.Await {
		if !a.inAsync {
			a.errorAt(s, "TS1103", "'for await' is only allowed within async functions")
		}
		elem = types.Awaited(elem)
	}
	a.inScope(func() {
		a.scope.defineValue(s.Left.Value, elem, s.Kind == ast.DeclConst, s.Left.Pos())
		a.withLoop(func() { a.analyzeStatement(s.Body) })
	})
}

// elementTypeOf computes the iteration element type of an iterable.
func (a *Analyzer) elementTypeOf(t types.Type) types.Type {
	switch it := t.(type) {
	case *types.ArrayType:
		return it.Element
	case *types.TupleType:
		all := make([]types.Type, len(it.Elements))
		copy(all, it.Elements)
		if it.Rest != nil {
			all = append(all, it.Rest)
		}
		return types.NewUnion(all...)
	case *types.GeneratorType:
		return it.Yield
	case *types.PrimitiveType:
		if it == types.STRING || it == types.ANY {
			if it == types.STRING {
				return types.STRING
			}
			return types.ANY
		}
	case *types.LiteralType:
		if it.Kind == types.LiteralString {
			return types.STRING
		}
	case *types.UnionType:
		members := make([]types.Type, len(it.Members))
		for i, m := range it.Members {
			members[i] = a.elementTypeOf(m)
		}
		return types.NewUnion(members...)
	case *types.InstantiatedType:
		if it.Expanded != nil {
			return a.elementTypeOf(it.Expanded)
		}
	}
	return types.ANY
}

func (a *Analyzer) analyzeSwitch(s *ast.SwitchStatement) {
	disc := a.analyzeExpression(s.Discriminant)
	prevSwitch := a.inSwitch
	a.inSwitch = true
	defer func() { a.inSwitch = prevSwitch }()

	seenDefault := false
	for _, c := range s.Cases {
		if c.Test == nil {
			if seenDefault {
				a.errorAt(s, "TS8020", "duplicate default clause")
			}
			seenDefault = true
		} else {
			tt := a.analyzeExpression(c.Test)
			// Cases compare with ===; flag impossible comparisons.
			if !a.comparable(disc, tt) {
				a.errorAt(c.Test, "TS2678", "type %s is not comparable to type %s", tt.String(), disc.String())
			}
		}
		a.inScope(func() {
			for _, stmt := range c.Body {
				a.analyzeStatement(stmt)
			}
		})
	}
}

// comparable reports whether two types can meaningfully compare with ===.
func (a *Analyzer) comparable(x, y types.Type) bool {
	return a.compat.Assignable(x, y) || a.compat.Assignable(y, x)
}

func (a *Analyzer) analyzeReturn(s *ast.ReturnStatement) {
	var got types.Type = types.UNDEFINED
	if s.Value != nil {
		got = a.analyzeExpression(s.Value)
	}
	if a.returnType == nil {
		return
	}

	want := a.returnType
	if a.inGenerator {
		return // generator returns feed the iterator's final value
	}
	if a.inAsync {
		want = types.Awaited(want)
		got = types.Awaited(got)
	}
	if want == types.VOID || want == types.ANY {
		return
	}
	if s.Value == nil {
		if a.opts.StrictNullChecks {
			a.errorAt(s, "TS2322", "function whose declared type is %s must return a value", want.String())
		}
		return
	}
	a.checkAssignment(s.Value, got, want)
}

// analyzeFunctionBody checks a function's body under its declared
// signature. thisType is the instance type for methods; nil elsewhere.
func (a *Analyzer) analyzeFunctionBody(fn *ast.FunctionExpression, thisType types.Type, isCtor bool) {
	sig := a.functionSignature(fn)
	a.setType(fn, sig)

	prevReturn, prevAsync, prevGen, prevYield := a.returnType, a.inAsync, a.inGenerator, a.yieldType
	a.returnType = sig.Return
	a.inAsync = fn.IsAsync
	a.inGenerator = fn.IsGenerator
	if g, ok := sig.Return.(*types.GeneratorType); ok {
		a.yieldType = g.Yield
	}
	defer func() {
		a.returnType, a.inAsync, a.inGenerator, a.yieldType = prevReturn, prevAsync, prevGen, prevYield
	}()

	a.inScope(func() {
		for i, tp := range fn.TypeParams {
			if i < len(sig.TypeParams) {
				a.scope.defineType(tp.Name.Value, sig.TypeParams[i])
			}
		}
		if thisType != nil {
			a.scope.defineValue("this", thisType, true, fn.Pos())
		}
		if fn.Body != nil {
			a.hoistVars(fn.Body.Statements)
		}
		for _, p := range fn.Params {
			pt := types.Type(types.ANY)
			if p.Type != nil {
				pt = a.resolveTypeNode(p.Type)
			}
			if p.Rest {
				// A rest parameter binds as an array of its element type.
				if _, isArr := pt.(*types.ArrayType); !isArr {
					pt = types.NewArray(pt)
				}
			}
			if p.Default != nil {
				got := a.analyzeExpression(p.Default)
				if p.Type != nil {
					a.checkAssignment(p.Default, got, pt)
				}
			}
			a.scope.defineValue(p.Name.Value, pt, false, p.Name.Pos())
		}
		if fn.Body != nil {
			for _, stmt := range fn.Body.Statements {
				a.analyzeStatement(stmt)
			}
		}
	})
	_ = isCtor
}
