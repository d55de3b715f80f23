package bytecode

import (
	"fmt"

	"github.com/cwbudde/go-tscript/internal/ast"
	"github.com/cwbudde/go-tscript/internal/errors"
	"github.com/cwbudde/go-tscript/internal/modules"
	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Compiler lowers checked modules into bytecode Modules.
type Compiler struct {
	diags *errors.DiagnosticList

	module *Module
	chunk  *Chunk

	// loops tracks enclosing loop contexts for break/continue patching.
	loops []*loopContext
	// tryBlocks tracks enclosing try regions; jumps that leave one pop its
	// handler and inline its pending finally code first.
	tryBlocks []tryInfo

	inModuleInit bool
}

type tryInfo struct {
	finalizer *ast.BlockStatement // nil when the try has no finally
}

type loopContext struct {
	label         string
	breakJumps    []int
	continueJumps []int
	// tryDepth records how many try regions enclosed the loop at entry, so
	// break/continue unwind only the ones opened inside the loop body.
	tryDepth int
	// isSwitch marks a switch context: a break target, never a continue
	// target.
	isSwitch bool
}

// NewCompiler creates a compiler reporting into diags.
func NewCompiler(diags *errors.DiagnosticList) *Compiler {
	return &Compiler{diags: diags}
}

// Compile lowers every module in initialization order.
func (c *Compiler) Compile(order []*modules.Descriptor) []*Module {
	out := make([]*Module, 0, len(order))
	for _, desc := range order {
		out = append(out, c.compileModule(desc))
	}
	return out
}

// compileModule builds one Module: import/export tables plus the static
// initializer holding the module body.
func (c *Compiler) compileModule(desc *modules.Descriptor) *Module {
	c.module = &Module{Name: desc.Name}

	initFn := &Function{Name: desc.Name + "$init"}
	initIdx := c.addFunction(initFn)
	c.module.Init = initIdx

	prevChunk := c.chunk
	c.chunk = &Chunk{}
	initFn.Chunk = c.chunk
	c.inModuleInit = true

	for _, stmt := range desc.AST.Statements {
		c.compileStatement(stmt)
	}
	c.emit(Instruction{Op: OpUndefined})
	c.emit(Instruction{Op: OpReturn})

	c.inModuleInit = false
	c.chunk = prevChunk
	return c.module
}

func (c *Compiler) addFunction(fn *Function) int {
	c.module.Functions = append(c.module.Functions, fn)
	return len(c.module.Functions) - 1
}

func (c *Compiler) emit(in Instruction) int {
	return c.chunk.Emit(in)
}

func (c *Compiler) emitConst(v runtime.Value) {
	idx := c.chunk.AddConstant(v)
	c.emit(Instruction{Op: OpConst, A: idx})
}

func (c *Compiler) errorAt(node ast.Node, format string, args ...any) {
	pos := node.Pos()
	c.diags.Add(&errors.Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: errors.SeverityError,
		Code:     "TS9500",
		Message:  fmt.Sprintf(format, args...),
		File:     c.module.Name,
	})
}

// compileFunction lowers a function expression into a Function entry and
// returns its index. The preamble binds defaults; the scope chain created
// at call time is the closure's heap frame, so captured-variable writes
// stay visible across frames.
func (c *Compiler) compileFunction(name string, params []*ast.Parameter, body *ast.BlockStatement, exprBody ast.Expression, isAsync, isGenerator, isArrow bool) int {
	fn := &Function{
		Name:        name,
		IsAsync:     isAsync,
		IsGenerator: isGenerator,
		IsArrow:     isArrow,
	}
	idx := c.addFunction(fn)

	prevChunk := c.chunk
	prevLoops := c.loops
	prevTries := c.tryBlocks
	c.chunk = &Chunk{}
	fn.Chunk = c.chunk
	c.loops = nil
	c.tryBlocks = nil

	for _, p := range params {
		fn.Params = append(fn.Params, Param{Name: p.Name.Value, Rest: p.Rest})
		if p.Default != nil {
			// if (param === undefined) param = <default>
			c.emit(Instruction{Op: OpLoad, S: p.Name.Value})
			c.emit(Instruction{Op: OpUndefined})
			c.emit(Instruction{Op: OpBinary, S: "==="})
			skip := c.emit(Instruction{Op: OpJumpIfFalse})
			c.compileExpression(p.Default)
			c.emit(Instruction{Op: OpStore, S: p.Name.Value})
			c.emit(Instruction{Op: OpPop})
			c.chunk.Patch(skip, len(c.chunk.Code))
		}
	}

	// Constructor parameter properties assign this.<name> up front.
	for _, p := range params {
		if p.Access != ast.AccessNone || p.Readonly {
			c.emit(Instruction{Op: OpLoad, S: "this"})
			c.emit(Instruction{Op: OpLoad, S: p.Name.Value})
			c.emit(Instruction{Op: OpSetMember, S: p.Name.Value})
			c.emit(Instruction{Op: OpPop})
		}
	}

	if body != nil {
		for _, stmt := range body.Statements {
			c.compileStatement(stmt)
		}
		c.emit(Instruction{Op: OpUndefined})
		c.emit(Instruction{Op: OpReturn})
	} else if exprBody != nil {
		c.compileExpression(exprBody)
		c.emit(Instruction{Op: OpReturn})
	} else {
		c.emit(Instruction{Op: OpUndefined})
		c.emit(Instruction{Op: OpReturn})
	}

	c.chunk = prevChunk
	c.loops = prevLoops
	c.tryBlocks = prevTries
	return idx
}

// unwindTries pops enclosing try handlers and inlines pending finally
// bodies innermost-first, used before a jump that leaves their try regions
// (break, continue, return). Finally runs on every exit path.
func (c *Compiler) unwindTries(downTo int) {
	for i := len(c.tryBlocks) - 1; i >= downTo; i-- {
		info := c.tryBlocks[i]
		c.emit(Instruction{Op: OpTryPop})
		if info.finalizer == nil {
			continue
		}
		c.emit(Instruction{Op: OpPushScope})
		saved := c.tryBlocks
		c.tryBlocks = c.tryBlocks[:i]
		for _, stmt := range info.finalizer.Statements {
			c.compileStatement(stmt)
		}
		c.tryBlocks = saved
		c.emit(Instruction{Op: OpPopScope})
	}
}
