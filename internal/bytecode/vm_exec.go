package bytecode

import (
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// resume enters (or re-enters) a frame's run loop. On first entry nothing
// is injected; on resumption the value is pushed (await/yield result) or
// raised as an exception (promise rejection, generator throw), which
// unwinds through the frame's recorded handler ranges.
func (vm *VM) resume(f *frame, value runtime.Value, isThrow, first bool) (execResult, error) {
	if !first {
		if isThrow {
			if !vm.unwind(f, value) {
				return execResult{}, runtime.Throw(value)
			}
		} else {
			f.push(value)
		}
	}
	return vm.run(f)
}

// unwind routes a thrown value to the innermost handler. Returns false
// when the frame has no handler and the exception escapes.
func (vm *VM) unwind(f *frame, thrown runtime.Value) bool {
	if len(f.tries) == 0 {
		return false
	}
	t := f.tries[len(f.tries)-1]
	f.tries = f.tries[:len(f.tries)-1]
	f.stack = f.stack[:t.stackDepth]
	for len(f.envStack) > t.envDepth {
		f.env = f.envStack[len(f.envStack)-1]
		f.envStack = f.envStack[:len(f.envStack)-1]
	}
	f.push(thrown)
	f.ip = t.handlerPC
	return true
}

// throwInto raises an error inside the run loop, unwinding or propagating.
func (vm *VM) throwInto(f *frame, err error) error {
	thrown, ok := err.(*runtime.ThrownError)
	if !ok {
		return err
	}
	if vm.unwind(f, thrown.Value) {
		return nil
	}
	return err
}

// run executes instructions until return, throw-without-handler, await or
// yield.
func (vm *VM) run(f *frame) (execResult, error) {
	for f.ip < len(f.chunk.Code) {
		in := f.chunk.Code[f.ip]
		f.ip++

		switch in.Op {
		case OpNop:
		case OpConst:
			f.push(f.chunk.Constants[in.A])
		case OpPop:
			f.pop()
		case OpDup:
			f.push(f.peek())
		case OpSwap:
			n := len(f.stack)
			f.stack[n-1], f.stack[n-2] = f.stack[n-2], f.stack[n-1]
		case OpUndefined:
			f.push(runtime.UNDEFINED)
		case OpNull:
			f.push(runtime.NULL)
		case OpTrue:
			f.push(runtime.TRUE)
		case OpFalse:
			f.push(runtime.FALSE)

		case OpDefine:
			f.env.Define(in.S, f.pop())
		case OpDefineConst:
			f.env.DefineConst(in.S, f.pop())
		case OpDefineVar:
			f.env.DefineVar(in.S, f.pop())
		case OpLoad:
			v, ok := f.env.Get(in.S)
			if !ok {
				if err := vm.throwInto(f, runtime.Throw(runtime.NewErrorObject(
					"ReferenceError", in.S+" is not defined", ""))); err != nil {
					return execResult{}, err
				}
				continue
			}
			f.push(v)
		case OpStore:
			if err := f.env.Set(in.S, f.peek()); err != nil {
				if werr := vm.throwInto(f, runtime.Throw(runtime.NewErrorObject(
					"TypeError", err.Error(), ""))); werr != nil {
					return execResult{}, werr
				}
			}
		case OpPushScope:
			f.envStack = append(f.envStack, f.env)
			f.env = runtime.NewEnclosedEnvironment(f.env)
		case OpPopScope:
			f.env = f.envStack[len(f.envStack)-1]
			f.envStack = f.envStack[:len(f.envStack)-1]

		case OpGetMember:
			obj := f.pop()
			v, err := vm.getMember(obj, in.S)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpSetMember:
			value := f.pop()
			obj := f.pop()
			if err := vm.setMember(obj, in.S, value); err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(value)
		case OpGetIndex:
			key := f.pop()
			obj := f.pop()
			v, err := vm.getMember(obj, runtime.ToStringValue(key))
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpSetIndex:
			value := f.pop()
			key := f.pop()
			obj := f.pop()
			if err := vm.setMember(obj, runtime.ToStringValue(key), value); err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(value)
		case OpGetSuper:
			v, err := vm.getSuperMember(f, in.S)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpDelete:
			obj := f.pop()
			f.push(vm.deleteMember(obj, in.S))
		case OpDeleteIndex:
			key := f.pop()
			obj := f.pop()
			f.push(vm.deleteMember(obj, runtime.ToStringValue(key)))

		case OpArray:
			arr := &runtime.ArrayValue{}
			if in.A > 0 {
				arr.Elements = make([]runtime.Value, in.A)
				for idx := in.A - 1; idx >= 0; idx-- {
					arr.Elements[idx] = f.pop()
				}
			}
			f.push(arr)
		case OpAppend:
			v := f.pop()
			arr := f.peek().(*runtime.ArrayValue)
			arr.Elements = append(arr.Elements, v)
		case OpSpreadAppend:
			v := f.pop()
			arr := f.peek().(*runtime.ArrayValue)
			it, ok := runtime.GetIterator(v)
			if !ok {
				if werr := vm.throwInto(f, runtime.Throw(runtime.NewErrorObject(
					"TypeError", "spread target is not iterable", ""))); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			vals, err := runtime.IterateAll(it)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			arr.Elements = append(arr.Elements, vals...)
		case OpObject:
			f.push(runtime.NewObject())
		case OpSetProp:
			v := f.pop()
			obj := f.peek().(*runtime.ObjectValue)
			obj.Set(in.S, v)
		case OpSetPropComputed:
			key := f.pop()
			v := f.pop()
			obj := f.peek().(*runtime.ObjectValue)
			obj.Set(runtime.ToStringValue(key), v)
		case OpObjectSpread:
			src := f.pop()
			obj := f.peek().(*runtime.ObjectValue)
			switch s := src.(type) {
			case *runtime.ObjectValue:
				for _, k := range s.Keys() {
					v, _ := s.Get(k)
					obj.Set(k, v)
				}
			case *Instance:
				for _, k := range s.Fields.Keys() {
					v, _ := s.Fields.Get(k)
					obj.Set(k, v)
				}
			}

		case OpBinary:
			b := f.pop()
			a := f.pop()
			v, err := vm.binary(in.S, a, b)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpUnary:
			a := f.pop()
			f.push(vm.unary(in.S, a))
		case OpTypeofName:
			if v, ok := f.env.Get(in.S); ok {
				f.push(runtime.NewString(vm.typeofString(v)))
			} else {
				f.push(runtime.NewString("undefined"))
			}

		case OpJump:
			f.ip = in.A
		case OpJumpIfFalse:
			if !runtime.Truthy(f.pop()) {
				f.ip = in.A
			}
		case OpJumpIfTrue:
			if runtime.Truthy(f.pop()) {
				f.ip = in.A
			}
		case OpJumpIfFalseKeep:
			if !runtime.Truthy(f.peek()) {
				f.ip = in.A
			}
		case OpJumpIfTruthyKeep:
			if runtime.Truthy(f.peek()) {
				f.ip = in.A
			}
		case OpJumpIfNotNullishKeep:
			switch f.peek().(type) {
			case *runtime.NullValue, *runtime.UndefinedValue:
			default:
				f.ip = in.A
			}

		case OpCall:
			args := make([]runtime.Value, in.A)
			for idx := in.A - 1; idx >= 0; idx-- {
				args[idx] = f.pop()
			}
			callee := f.pop()
			v, err := vm.callValue(callee, runtime.UNDEFINED, args)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpCallApply:
			argsArr := f.pop().(*runtime.ArrayValue)
			callee := f.pop()
			v, err := vm.callValue(callee, runtime.UNDEFINED, argsArr.Elements)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpNew:
			args := make([]runtime.Value, in.A)
			for idx := in.A - 1; idx >= 0; idx-- {
				args[idx] = f.pop()
			}
			callee := f.pop()
			v, err := vm.construct(callee, args)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
		case OpSuperCall:
			args := make([]runtime.Value, in.A)
			for idx := in.A - 1; idx >= 0; idx-- {
				args[idx] = f.pop()
			}
			if err := vm.superCall(f, args); err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(runtime.UNDEFINED)
		case OpClosure:
			fnDef := vm.moduleOfFrame(f).mod.Functions[in.A]
			cl := &Closure{Fn: fnDef, Env: f.env}
			if fnDef.IsArrow {
				if this, ok := f.env.Get("this"); ok {
					cl.This = this
					cl.HasThis = true
				}
			}
			f.push(cl)
		case OpReturn:
			return execResult{kind: resDone, value: f.pop()}, nil
		case OpThrow:
			thrown := f.pop()
			if !vm.unwind(f, thrown) {
				return execResult{}, runtime.Throw(thrown)
			}

		case OpTryPush:
			f.tries = append(f.tries, tryFrame{
				handlerPC:  in.A,
				stackDepth: len(f.stack),
				envDepth:   len(f.envStack),
			})
		case OpTryPop:
			if len(f.tries) > 0 {
				f.tries = f.tries[:len(f.tries)-1]
			}

		case OpIterInit:
			v := f.pop()
			it, ok := runtime.GetIterator(v)
			if !ok {
				if werr := vm.throwInto(f, runtime.Throw(runtime.NewErrorObject(
					"TypeError", runtime.Display(v)+" is not iterable", ""))); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(it)
		case OpIterNext:
			it := f.pop().(*runtime.IteratorValue)
			v, done, err := it.Next(runtime.UNDEFINED)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			if done {
				f.ip = in.A
				continue
			}
			f.push(v)
		case OpIterNextSend:
			sent := f.pop()
			it := f.pop().(*runtime.IteratorValue)
			v, done, err := it.Next(sent)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(v)
			f.push(runtime.NewBoolean(done))
		case OpKeys:
			v := f.pop()
			f.push(vm.enumerableKeys(v))

		case OpAwait:
			v := f.pop()
			if p, ok := v.(*runtime.PromiseValue); ok {
				return execResult{kind: resAwait, awaited: p}, nil
			}
			f.push(v)
		case OpYield:
			return execResult{kind: resYield, value: f.pop()}, nil

		case OpClass:
			var super *Class
			if in.B == 1 {
				sv := f.pop()
				sc, ok := sv.(*Class)
				if !ok {
					if werr := vm.throwInto(f, runtime.Throw(runtime.NewErrorObject(
						"TypeError", "class extends value is not a constructor", ""))); werr != nil {
						return execResult{}, werr
					}
					continue
				}
				super = sc
			}
			cls, err := vm.materializeClass(f, in.A, super)
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			f.push(cls)
		case OpDecorate:
			decorator := f.pop()
			cls := f.pop()
			out, err := vm.callValue(decorator, runtime.UNDEFINED, []runtime.Value{cls})
			if err != nil {
				if werr := vm.throwInto(f, err); werr != nil {
					return execResult{}, werr
				}
				continue
			}
			switch out.(type) {
			case *Class, *Closure:
				f.push(out)
			default:
				f.push(cls)
			}

		case OpExportSet:
			if f.module != nil {
				f.module.exportCell(in.S).Set(f.peek())
			}
		case OpExportEquals:
			v := f.pop()
			if f.module != nil {
				f.module.equals.Set(v)
			}
		}
	}
	return execResult{kind: resDone, value: runtime.UNDEFINED}, nil
}

// moduleOfFrame resolves the owning module for function-table lookups.
// The loader stamps every function with its module before execution.
func (vm *VM) moduleOfFrame(f *frame) *loadedModule {
	if f.module != nil {
		return f.module
	}
	if lm, ok := f.fn.owner.(*loadedModule); ok {
		return lm
	}
	return nil
}
