package semantic

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/types"
)

// applyNarrowing refines bindings in the current scope's overlay according
// to a guard condition. positive selects the then-branch effect; the
// else-branch applies the negation. Narrowings are scoped to the branch and
// merge back by union when the branch scope is discarded.
func (a *Analyzer) applyNarrowing(cond ast.Expression, positive bool) {
	switch c := cond.(type) {
	case *ast.Identifier:
		// Truthiness guard: if (x) removes null/undefined in the positive
		// branch; the negative branch keeps only the nullish members.
		if declared, _, ok := a.scope.lookupValue(c.Value); ok {
			if positive {
				a.narrow(c.Value, stripNullish(declared))
			} else {
				a.narrow(c.Value, nullishPart(declared))
			}
		}
	case *ast.UnaryExpression:
		if c.Operator == "!" {
			a.applyNarrowing(c.Operand, !positive)
		}
	case *ast.LogicalExpression:
		switch c.Operator {
		case "&&":
			if positive {
				a.applyNarrowing(c.Left, true)
				a.applyNarrowing(c.Right, true)
			}
		case "||":
			if !positive {
				a.applyNarrowing(c.Left, false)
				a.applyNarrowing(c.Right, false)
			}
		}
	case *ast.BinaryExpression:
		a.narrowByComparison(c, positive)
	case *ast.CallExpression:
		a.narrowByPredicate(c, positive)
	}
}

// narrow writes one overlay entry.
func (a *Analyzer) narrow(name string, t types.Type) {
	a.scope.narrowed[name] = t
}

// narrowByComparison handles typeof guards, null/undefined comparisons,
// instanceof and the in operator.
func (a *Analyzer) narrowByComparison(e *ast.BinaryExpression, positive bool) {
	eq := e.Operator == "===" || e.Operator == "=="
	neq := e.Operator == "!==" || e.Operator == "!="

	if eq || neq {
		if neq {
			positive = !positive
		}

		// typeof x === "kind"
		if name, kind, ok := typeofComparison(e); ok {
			if declared, _, found := a.scope.lookupValue(name); found {
				a.narrow(name, narrowByTypeof(declared, kind, positive))
			}
			return
		}

		// x === null / x === undefined
		if name, null, undef, ok := nullishComparison(e); ok {
			if declared, _, found := a.scope.lookupValue(name); found {
				var target types.Type
				switch {
				case null:
					target = types.NULL
				case undef:
					target = types.UNDEFINED
				}
				if positive {
					a.narrow(name, intersectWith(declared, target))
				} else {
					a.narrow(name, removeFrom(declared, target))
				}
			}
			return
		}

		// x === <literal> narrows unions of literal types.
		if ident, ok := e.Left.(*ast.Identifier); ok {
			if lit := literalTypeOf(e.Right); lit != nil {
				if declared, _, found := a.scope.lookupValue(ident.Value); found {
					if positive {
						a.narrow(ident.Value, intersectWith(declared, lit))
					} else {
						a.narrow(ident.Value, removeFrom(declared, lit))
					}
				}
			}
		}
		return
	}

	switch e.Operator {
	case "instanceof":
		ident, ok := e.Left.(*ast.Identifier)
		if !ok {
			return
		}
		clsT := a.typeTable[e.Right]
		cls, ok := clsT.(*types.ClassType)
		if !ok {
			if cident, isIdent := e.Right.(*ast.Identifier); isIdent {
				if t, found := a.scope.lookupType(cident.Value); found {
					cls, ok = t.(*types.ClassType)
					if !ok {
						return
					}
				} else {
					return
				}
			} else {
				return
			}
		}
		instance := types.NewInstance(cls)
		if declared, _, found := a.scope.lookupValue(ident.Value); found {
			if positive {
				a.narrow(ident.Value, intersectWith(declared, instance))
			} else {
				a.narrow(ident.Value, removeFrom(declared, instance))
			}
		}
	case "in":
		// "k" in x keeps only union members declaring k.
		key, ok := e.Left.(*ast.StringLiteral)
		if !ok {
			return
		}
		ident, ok := e.Right.(*ast.Identifier)
		if !ok {
			return
		}
		declared, _, found := a.scope.lookupValue(ident.Value)
		if !found {
			return
		}
		u, isUnion := declared.(*types.UnionType)
		if !isUnion {
			return
		}
		var kept []types.Type
		for _, m := range u.Members {
			has := memberExists(m, key.Value)
			if has == positive {
				kept = append(kept, m)
			}
		}
		a.narrow(ident.Value, types.NewUnion(kept...))
	}
}

// narrowByPredicate applies user-defined type guards: a call to a function
// whose return annotation is `arg is T`.
func (a *Analyzer) narrowByPredicate(call *ast.CallExpression, positive bool) {
	calleeType := a.typeTable[call.Callee]
	fn, ok := calleeType.(*types.FunctionType)
	if !ok || fn.Predicate == nil {
		return
	}
	// Find the argument bound to the predicate's parameter.
	idx := -1
	for i, p := range fn.Params {
		if p.Name == fn.Predicate.ParamName {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(call.Arguments) {
		return
	}
	ident, ok := call.Arguments[idx].(*ast.Identifier)
	if !ok {
		return
	}
	declared, _, found := a.scope.lookupValue(ident.Value)
	if !found {
		return
	}
	if positive {
		a.narrow(ident.Value, intersectWith(declared, fn.Predicate.Type))
	} else {
		a.narrow(ident.Value, removeFrom(declared, fn.Predicate.Type))
	}
}

// typeofComparison matches typeof x === "kind" in either operand order.
func typeofComparison(e *ast.BinaryExpression) (name, kind string, ok bool) {
	try := func(l, r ast.Expression) (string, string, bool) {
		un, isUn := l.(*ast.UnaryExpression)
		if !isUn || un.Operator != "typeof" {
			return "", "", false
		}
		ident, isIdent := un.Operand.(*ast.Identifier)
		if !isIdent {
			return "", "", false
		}
		str, isStr := r.(*ast.StringLiteral)
		if !isStr {
			return "", "", false
		}
		return ident.Value, str.Value, true
	}
	if n, k, match := try(e.Left, e.Right); match {
		return n, k, true
	}
	return try(e.Right, e.Left)
}

// nullishComparison matches x === null / x === undefined.
func nullishComparison(e *ast.BinaryExpression) (name string, null, undef, ok bool) {
	try := func(l, r ast.Expression) (string, bool, bool, bool) {
		ident, isIdent := l.(*ast.Identifier)
		if !isIdent {
			return "", false, false, false
		}
		switch r.(type) {
		case *ast.NullLiteral:
			return ident.Value, true, false, true
		case *ast.UndefinedLiteral:
			return ident.Value, false, true, true
		}
		return "", false, false, false
	}
	if n, nl, ud, match := try(e.Left, e.Right); match {
		return n, nl, ud, true
	}
	return try(e.Right, e.Left)
}

func literalTypeOf(e ast.Expression) types.Type {
	switch lit := e.(type) {
	case *ast.StringLiteral:
		return types.NewStringLiteral(lit.Value)
	case *ast.NumberLiteral:
		return types.NewNumberLiteral(lit.Value)
	case *ast.BooleanLiteral:
		return types.NewBooleanLiteral(lit.Value)
	}
	return nil
}

// narrowByTypeof filters a type by a typeof result string.
func narrowByTypeof(declared types.Type, kind string, positive bool) types.Type {
	matches := func(t types.Type) bool {
		switch kind {
		case "string":
			if t == types.STRING {
				return true
			}
			lit, ok := t.(*types.LiteralType)
			return ok && lit.Kind == types.LiteralString
		case "number":
			if t == types.NUMBER {
				return true
			}
			lit, ok := t.(*types.LiteralType)
			return ok && lit.Kind == types.LiteralNumber
		case "boolean":
			if t == types.BOOLEAN {
				return true
			}
			lit, ok := t.(*types.LiteralType)
			return ok && lit.Kind == types.LiteralBoolean
		case "undefined":
			return t == types.UNDEFINED
		case "symbol":
			return t == types.SYMBOL
		case "bigint":
			return t == types.BIGINT
		case "function":
			_, isFn := t.(*types.FunctionType)
			if isFn {
				return true
			}
			_, isCls := t.(*types.ClassType)
			return isCls
		case "object":
			switch t.(type) {
			case *types.RecordType, *types.InterfaceType, *types.ArrayType,
				*types.TupleType, *types.InstanceType:
				return true
			}
			return t == types.NULL
		}
		return false
	}

	if declared == types.ANY || declared == types.UNKNOWN {
		if !positive {
			return declared
		}
		switch kind {
		case "string":
			return types.STRING
		case "number":
			return types.NUMBER
		case "boolean":
			return types.BOOLEAN
		case "undefined":
			return types.UNDEFINED
		case "symbol":
			return types.SYMBOL
		case "bigint":
			return types.BIGINT
		}
		return declared
	}

	u, isUnion := declared.(*types.UnionType)
	if !isUnion {
		if matches(declared) == positive {
			return declared
		}
		return types.NEVER
	}
	var kept []types.Type
	for _, m := range u.Members {
		if matches(m) == positive {
			kept = append(kept, m)
		}
	}
	return types.NewUnion(kept...)
}

// intersectWith keeps the parts of declared assignable to target.
func intersectWith(declared, target types.Type) types.Type {
	u, isUnion := declared.(*types.UnionType)
	if !isUnion {
		if declared == types.ANY || declared == types.UNKNOWN {
			return target
		}
		return declared
	}
	var kept []types.Type
	for _, m := range u.Members {
		if types.Equals(m, target) || assignableUnchecked(m, target) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return target
	}
	return types.NewUnion(kept...)
}

// removeFrom drops the parts of declared matching target.
func removeFrom(declared, target types.Type) types.Type {
	u, isUnion := declared.(*types.UnionType)
	if !isUnion {
		if types.Equals(declared, target) {
			return types.NEVER
		}
		return declared
	}
	var kept []types.Type
	for _, m := range u.Members {
		if !types.Equals(m, target) && !assignableUnchecked(m, target) {
			kept = append(kept, m)
		}
	}
	return types.NewUnion(kept...)
}

// assignableUnchecked is a lightweight membership probe for narrowing that
// avoids threading the memoized checker through pure helpers.
func assignableUnchecked(m, target types.Type) bool {
	if inst, ok := m.(*types.InstanceType); ok {
		if ti, ok2 := target.(*types.InstanceType); ok2 {
			return inst.Class.DerivesFrom(ti.Class)
		}
	}
	if lit, ok := m.(*types.LiteralType); ok {
		if prim, ok2 := target.(*types.PrimitiveType); ok2 {
			return lit.Widened() == prim
		}
	}
	return false
}

// nullishPart keeps only the nullish members (for else branches of
// truthiness guards over nullable unions).
func nullishPart(declared types.Type) types.Type {
	u, isUnion := declared.(*types.UnionType)
	if !isUnion {
		return declared
	}
	var kept []types.Type
	for _, m := range u.Members {
		if types.IsNullish(m) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return declared
	}
	return types.NewUnion(kept...)
}

// memberExists reports whether a shape declares a member name.
func memberExists(t types.Type, name string) bool {
	switch o := t.(type) {
	case *types.RecordType:
		_, ok := o.Lookup(name)
		return ok
	case *types.InterfaceType:
		for _, f := range o.AllMembers() {
			if f.Name == name {
				return true
			}
		}
		_, ok := o.AllMethods()[name]
		return ok
	case *types.InstanceType:
		_, ok := o.Class.LookupInstance(name)
		return ok
	}
	return false
}
