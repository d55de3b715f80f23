package interp

import (
	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// execStatement executes one statement. inst is non-nil only at module top
// level, where exported bindings also write their export cells.
func (i *Interpreter) execStatement(stmt ast.Statement, env *runtime.Environment, inst *moduleInstance) error {
	switch s := stmt.(type) {
	case *ast.VariableStatement:
		return i.execVariableStatement(s, env, inst)
	case *ast.ExpressionStatement:
		if s.Expression == nil {
			return nil
		}
		_, err := i.eval(s.Expression, env)
		return err
	case *ast.BlockStatement:
		return i.execBlock(s, runtime.NewEnclosedEnvironment(env))
	case *ast.IfStatement:
		cond, err := i.eval(s.Condition, env)
		if err != nil {
			return err
		}
		if runtime.Truthy(cond) {
			return i.execStatement(s.Consequent, runtime.NewEnclosedEnvironment(env), nil)
		}
		if s.Alternate != nil {
			return i.execStatement(s.Alternate, runtime.NewEnclosedEnvironment(env), nil)
		}
		return nil
	case *ast.WhileStatement:
		return i.execWhile(s, env, "")
	case *ast.DoWhileStatement:
		return i.execDoWhile(s, env, "")
	case *ast.ForStatement:
		return i.execFor(s, env, "")
	case *ast.ForInStatement:
		return i.execForIn(s, env, "")
	case *ast.ForOfStatement:
		return i.execForOf(s, env, "")
	case *ast.SwitchStatement:
		return i.execSwitch(s, env)
	case *ast.LabeledStatement:
		return i.execLabeled(s, env)
	case *ast.BreakStatement:
		label := ""
		if s.Label != nil {
			label = s.Label.Value
		}
		return &breakSignal{label: label}
	case *ast.ContinueStatement:
		label := ""
		if s.Label != nil {
			label = s.Label.Value
		}
		return &continueSignal{label: label}
	case *ast.ReturnStatement:
		val := runtime.Value(runtime.UNDEFINED)
		if s.Value != nil {
			v, err := i.eval(s.Value, env)
			if err != nil {
				return err
			}
			val = v
		}
		return &returnSignal{value: val}
	case *ast.ThrowStatement:
		v, err := i.eval(s.Value, env)
		if err != nil {
			return err
		}
		return runtime.Throw(v)
	case *ast.TryStatement:
		return i.execTry(s, env)
	case *ast.FunctionDeclaration:
		if inst == nil && s.Function.Name != nil {
			// Nested function declarations define at execution point;
			// module-level ones were hoisted.
			env.Define(s.Function.Name.Value, i.makeFunction(s.Function, env))
		}
		return nil
	case *ast.ClassDeclaration:
		cls, err := i.evalClassDeclaration(s, env)
		if err != nil {
			return err
		}
		env.Define(s.Name.Value, cls)
		if inst != nil {
			if s.Default {
				inst.def.Set(cls)
			} else if s.Exported {
				inst.exportCell(s.Name.Value).Set(cls)
			}
		}
		return nil
	case *ast.EnumDeclaration:
		return i.execEnumDeclaration(s, env, inst)
	case *ast.InterfaceDeclaration, *ast.TypeAliasDeclaration:
		return nil // types are erased at runtime
	case *ast.ImportDeclaration:
		return i.execImport(s, env, inst)
	case *ast.ImportEqualsDeclaration:
		return i.execImportEquals(s, env, inst)
	case *ast.ExportDeclaration:
		return i.execExport(s, env, inst)
	case *ast.ExportAssignment:
		v, err := i.eval(s.Expression, env)
		if err != nil {
			return err
		}
		if inst != nil {
			inst.equals.Set(v)
		}
		return nil
	}
	return nil
}

func (i *Interpreter) execVariableStatement(s *ast.VariableStatement, env *runtime.Environment, inst *moduleInstance) error {
	for _, d := range s.Declarations {
		val := runtime.Value(runtime.UNDEFINED)
		if d.Init != nil {
			v, err := i.eval(d.Init, env)
			if err != nil {
				return err
			}
			val = v
			if fn, ok := val.(*runtime.FunctionValue); ok && fn.Name == "" {
				fn.Name = d.Name.Value
			}
		}
		switch s.Kind {
		case ast.DeclVar:
			env.DefineVar(d.Name.Value, val)
		case ast.DeclConst:
			env.DefineConst(d.Name.Value, val)
		default:
			env.Define(d.Name.Value, val)
		}
		if inst != nil && s.Exported {
			inst.exportCell(d.Name.Value).Set(val)
		}
	}
	return nil
}

// execBlock runs statements in an already-created scope.
func (i *Interpreter) execBlock(block *ast.BlockStatement, env *runtime.Environment) error {
	for _, stmt := range block.Statements {
		if err := i.execStatement(stmt, env, nil); err != nil {
			return err
		}
	}
	return nil
}

// execLabeled runs a labeled statement. Loops receive the label directly so
// 'continue label' re-enters the labeled loop and 'break label' exits it.
func (i *Interpreter) execLabeled(s *ast.LabeledStatement, env *runtime.Environment) error {
	label := s.Label.Value
	var err error
	switch body := s.Body.(type) {
	case *ast.WhileStatement:
		err = i.execWhile(body, env, label)
	case *ast.DoWhileStatement:
		err = i.execDoWhile(body, env, label)
	case *ast.ForStatement:
		err = i.execFor(body, env, label)
	case *ast.ForInStatement:
		err = i.execForIn(body, env, label)
	case *ast.ForOfStatement:
		err = i.execForOf(body, env, label)
	default:
		err = i.execStatement(s.Body, env, nil)
	}
	if br, ok := err.(*breakSignal); ok && br.label == label {
		return nil
	}
	return err
}

// loopControl folds a loop-body error: break consumes, continue proceeds,
// everything else propagates. Signals labeled with this loop's own label
// are consumed here; other labels propagate outward.
func loopControl(err error, label string) (stop bool, out error) {
	switch sig := err.(type) {
	case nil:
		return false, nil
	case *breakSignal:
		if sig.label == "" || sig.label == label {
			return true, nil
		}
		return true, sig
	case *continueSignal:
		if sig.label == "" || sig.label == label {
			return false, nil
		}
		return true, sig
	default:
		return true, err
	}
}

func (i *Interpreter) execWhile(s *ast.WhileStatement, env *runtime.Environment, label string) error {
	for {
		cond, err := i.eval(s.Condition, env)
		if err != nil {
			return err
		}
		if !runtime.Truthy(cond) {
			return nil
		}
		stop, err := loopControl(i.execStatement(s.Body, runtime.NewEnclosedEnvironment(env), nil), label)
		if stop {
			return err
		}
	}
}

func (i *Interpreter) execDoWhile(s *ast.DoWhileStatement, env *runtime.Environment, label string) error {
	for {
		stop, err := loopControl(i.execStatement(s.Body, runtime.NewEnclosedEnvironment(env), nil), label)
		if stop {
			return err
		}
		cond, err := i.eval(s.Condition, env)
		if err != nil {
			return err
		}
		if !runtime.Truthy(cond) {
			return nil
		}
	}
}

func (i *Interpreter) execFor(s *ast.ForStatement, env *runtime.Environment, label string) error {
	loopEnv := runtime.NewEnclosedEnvironment(env)
	if s.Init != nil {
		if err := i.execStatement(s.Init, loopEnv, nil); err != nil {
			return err
		}
	}
	for {
		if s.Condition != nil {
			cond, err := i.eval(s.Condition, loopEnv)
			if err != nil {
				return err
			}
			if !runtime.Truthy(cond) {
				return nil
			}
		}
		stop, err := loopControl(i.execStatement(s.Body, runtime.NewEnclosedEnvironment(loopEnv), nil), label)
		if stop {
			return err
		}
		if s.Update != nil {
			if _, err := i.eval(s.Update, loopEnv); err != nil {
				return err
			}
		}
	}
}

// execForIn enumerates enumerable string keys in insertion order. Class
// instances expose their own fields; built-in members are filtered.
func (i *Interpreter) execForIn(s *ast.ForInStatement, env *runtime.Environment, label string) error {
	obj, err := i.eval(s.Right, env)
	if err != nil {
		return err
	}

	var keys []string
	switch o := obj.(type) {
	case *runtime.ObjectValue:
		keys = o.Keys()
	case *runtime.InstanceValue:
		keys = o.Fields.Keys()
	case *runtime.ArrayValue:
		for idx := range o.Elements {
			keys = append(keys, runtime.NewNumber(float64(idx)).String())
		}
	}

	for _, key := range keys {
		iterEnv := runtime.NewEnclosedEnvironment(env)
		i.bindLoopVar(s.Decl, s.Kind, s.Left.Value, runtime.NewString(key), iterEnv)
		stop, err := loopControl(i.execStatement(s.Body, iterEnv, nil), label)
		if stop {
			return err
		}
	}
	return nil
}

// execForOf consumes the iterator protocol; for await additionally awaits
// each value between steps.
func (i *Interpreter) execForOf(s *ast.ForOfStatement, env *runtime.Environment, label string) error {
	iterable, err := i.eval(s.Right, env)
	if err != nil {
		return err
	}
	it, ok := runtime.GetIterator(iterable)
	if !ok {
		return runtime.Throw(runtime.NewErrorObject("TypeError",
			runtime.Display(iterable)+" is not iterable", ""))
	}

	for {
		v, done, err := it.Next(runtime.UNDEFINED)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if s.Await {
			v, err = i.awaitValue(v)
			if err != nil {
				return err
			}
		}
		iterEnv := runtime.NewEnclosedEnvironment(env)
		i.bindLoopVar(s.Decl, s.Kind, s.Left.Value, v, iterEnv)
		stop, err := loopControl(i.execStatement(s.Body, iterEnv, nil), label)
		if stop {
			if it.ReturnFn != nil {
				_, _ = it.ReturnFn(runtime.UNDEFINED)
			}
			return err
		}
	}
}

func (i *Interpreter) bindLoopVar(decl bool, kind ast.DeclarationKind, name string, v runtime.Value, env *runtime.Environment) {
	if !decl {
		if err := env.Set(name, v); err != nil {
			env.Define(name, v)
		}
		return
	}
	if kind == ast.DeclConst {
		env.DefineConst(name, v)
	} else {
		env.Define(name, v)
	}
}

// execSwitch matches cases with === and falls through until break.
func (i *Interpreter) execSwitch(s *ast.SwitchStatement, env *runtime.Environment) error {
	disc, err := i.eval(s.Discriminant, env)
	if err != nil {
		return err
	}

	switchEnv := runtime.NewEnclosedEnvironment(env)
	matched := -1
	for idx, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		test, err := i.eval(c.Test, switchEnv)
		if err != nil {
			return err
		}
		if runtime.StrictEquals(disc, test) {
			matched = idx
			break
		}
	}
	if matched < 0 {
		for idx, c := range s.Cases {
			if c.Test == nil {
				matched = idx
				break
			}
		}
	}
	if matched < 0 {
		return nil
	}

	for idx := matched; idx < len(s.Cases); idx++ {
		for _, stmt := range s.Cases[idx].Body {
			err := i.execStatement(stmt, switchEnv, nil)
			if br, ok := err.(*breakSignal); ok && br.label == "" {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// execTry implements try/catch/finally: the handler catches thrown values;
// finally runs on every exit path (normal, throw, return, break, continue)
// and its own abrupt completion supersedes the pending one.
func (i *Interpreter) execTry(s *ast.TryStatement, env *runtime.Environment) error {
	result := i.execBlock(s.Block, runtime.NewEnclosedEnvironment(env))

	if thrown, ok := result.(*runtime.ThrownError); ok && s.Handler != nil {
		catchEnv := runtime.NewEnclosedEnvironment(env)
		if s.Handler.Param != nil {
			catchEnv.Define(s.Handler.Param.Value, thrown.Value)
		}
		result = i.execBlock(s.Handler.Body, catchEnv)
	}

	if s.Finalizer != nil {
		if err := i.execBlock(s.Finalizer, runtime.NewEnclosedEnvironment(env)); err != nil {
			return err
		}
	}
	return result
}

// execEnumDeclaration materializes an enum object with a reverse mapping
// for numeric members.
func (i *Interpreter) execEnumDeclaration(s *ast.EnumDeclaration, env *runtime.Environment, inst *moduleInstance) error {
	obj := runtime.NewObject()
	next := 0.0
	for _, m := range s.Members {
		var val runtime.Value
		if m.Init != nil {
			v, err := i.eval(m.Init, env)
			if err != nil {
				return err
			}
			val = v
			if n, ok := v.(*runtime.NumberValue); ok {
				next = n.Value + 1
			}
		} else {
			val = runtime.NewNumber(next)
			next++
		}
		obj.Set(m.Name.Value, val)
		if n, ok := val.(*runtime.NumberValue); ok {
			obj.Set(n.String(), runtime.NewString(m.Name.Value))
		}
	}
	env.DefineConst(s.Name.Value, obj)
	if inst != nil && s.Exported {
		inst.exportCell(s.Name.Value).Set(obj)
	}
	return nil
}

// execImport binds imported names to the exporter's cells so cyclic reads
// observe late initialization.
func (i *Interpreter) execImport(s *ast.ImportDeclaration, env *runtime.Environment, inst *moduleInstance) error {
	if inst == nil {
		return nil // imports only bind at module top level
	}
	if i.hostMod != nil {
		if mod, ok := i.hostMod(s.Specifier); ok {
			if s.Namespace != nil {
				env.DefineConst(s.Namespace.Value, mod)
			}
			if s.Default != nil {
				env.DefineConst(s.Default.Value, mod)
			}
			for _, spec := range s.Named {
				if obj, isObj := mod.(*runtime.ObjectValue); isObj {
					if v, found := obj.Get(spec.Name.Value); found {
						env.DefineConst(spec.LocalName(), v)
						continue
					}
				}
				env.DefineConst(spec.LocalName(), runtime.UNDEFINED)
			}
			return nil
		}
	}

	from := i.moduleFor(resolveRelative(s.Specifier, inst.name))
	if s.Default != nil {
		env.DefineCell(s.Default.Value, from.def)
	}
	if s.Namespace != nil {
		env.DefineConst(s.Namespace.Value, &runtime.NamespaceValue{
			Module: from.name,
			Cells:  from.exports,
		})
	}
	for _, spec := range s.Named {
		env.DefineCell(spec.LocalName(), from.exportCell(spec.Name.Value))
	}
	return nil
}

// execImportEquals binds import x = require("m") to the exporter's export=
// value (or default).
func (i *Interpreter) execImportEquals(s *ast.ImportEqualsDeclaration, env *runtime.Environment, inst *moduleInstance) error {
	if inst == nil {
		return nil
	}
	if i.hostMod != nil {
		if mod, ok := i.hostMod(s.Specifier); ok {
			env.DefineConst(s.Name.Value, mod)
			return nil
		}
	}
	from := i.moduleFor(resolveRelative(s.Specifier, inst.name))
	cell := from.equals
	if v := cell.Get(); v == runtime.UNDEFINED {
		if d := from.def.Get(); d != runtime.UNDEFINED {
			cell = from.def
		}
	}
	env.DefineCell(s.Name.Value, cell)
	return nil
}

// execExport handles export lists and re-exports; declaration exports are
// handled by their declaration statements.
func (i *Interpreter) execExport(s *ast.ExportDeclaration, env *runtime.Environment, inst *moduleInstance) error {
	if inst == nil {
		return nil
	}
	switch {
	case s.Default != nil:
		v, err := i.eval(s.Default, env)
		if err != nil {
			return err
		}
		inst.def.Set(v)
	case s.Star:
		src := i.moduleFor(resolveRelative(s.Source, inst.name))
		for name, cell := range src.exports {
			inst.exports[name] = cell
		}
	case s.Source != "":
		src := i.moduleFor(resolveRelative(s.Source, inst.name))
		for _, spec := range s.Named {
			if src.equals.Get() != runtime.UNDEFINED {
				// Re-export of an export= module exposes the value itself.
				inst.exports[spec.ExportedName()] = src.equals
				continue
			}
			inst.exports[spec.ExportedName()] = src.exportCell(spec.Name.Value)
		}
	default:
		for _, spec := range s.Named {
			cell := inst.exportCell(spec.ExportedName())
			if v, ok := env.Get(spec.Name.Value); ok {
				cell.Set(v)
			}
		}
	}
	return nil
}

// resolveRelative resolves ./ and ../ against the importing module name.
func resolveRelative(spec, importer string) string {
	if len(spec) >= 2 && spec[:2] == "./" || len(spec) >= 3 && spec[:3] == "../" {
		base := ""
		for idx := len(importer) - 1; idx >= 0; idx-- {
			if importer[idx] == '/' {
				base = importer[:idx]
				break
			}
		}
		segs := []string{}
		split := func(p string) []string {
			var out []string
			start := 0
			for idx := 0; idx <= len(p); idx++ {
				if idx == len(p) || p[idx] == '/' {
					out = append(out, p[start:idx])
					start = idx + 1
				}
			}
			return out
		}
		if base != "" {
			segs = append(segs, split(base)...)
		}
		for _, s := range split(spec) {
			switch s {
			case ".", "":
			case "..":
				if len(segs) > 0 {
					segs = segs[:len(segs)-1]
				}
			default:
				segs = append(segs, s)
			}
		}
		out := ""
		for idx, s := range segs {
			if idx > 0 {
				out += "/"
			}
			out += s
		}
		return out
	}
	return spec
}
