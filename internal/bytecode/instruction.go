package bytecode

import "fmt"

// Opcode identifies one VM instruction.
type Opcode int

const (
	OpNop Opcode = iota

	// Stack and constants
	OpConst     // A: constant index → push
	OpPop       // pop
	OpDup       // duplicate top
	OpSwap      // exchange the two top stack values
	OpUndefined // push undefined
	OpNull      // push null
	OpTrue      // push true
	OpFalse     // push false

	// Bindings and scopes
	OpDefine      // S: name; pop value, define let binding
	OpDefineConst // S: name; pop value, define const binding
	OpDefineVar   // S: name; pop value, define var binding (function hoisted)
	OpLoad        // S: name → push
	OpStore       // S: name; peek value, assign existing binding
	OpPushScope   // enter block scope
	OpPopScope    // leave block scope

	// Members and indexing
	OpGetMember // S: name; pop obj → push member (methods arrive bound)
	OpSetMember // S: name; pop value, pop obj → push value
	OpGetIndex  // pop key, pop obj → push element
	OpSetIndex  // pop value, pop key, pop obj → push value
	OpGetSuper  // S: name; resolve super.name against __super__ with this
	OpDelete    // S: name; pop obj → push bool (computed form uses OpDeleteIndex)
	OpDeleteIndex

	// Literals
	OpArray        // A: element count; pop N → push array
	OpAppend       // pop value; append to array at top-1... stack: arr value → arr
	OpSpreadAppend // pop iterable; append all elements to array under it
	OpObject       // push empty object
	OpSetProp      // S: key; pop value; set on object at top-1
	OpSetPropComputed
	OpObjectSpread // pop source; copy own keys onto object under it

	// Operators
	OpBinary     // S: operator; pop b, a → push a op b
	OpUnary      // S: operator; pop a → push op a
	OpTypeofName // S: name; push typeof of binding (tolerates unresolved)

	// Control flow
	OpJump                 // A: target
	OpJumpIfFalse          // A: target; pop cond
	OpJumpIfTrue           // A: target; pop cond
	OpJumpIfFalseKeep      // A: target; keep cond when jumping (&&)
	OpJumpIfTruthyKeep     // A: target; keep cond when jumping (||)
	OpJumpIfNotNullishKeep // A: target; keep value when jumping (??)

	// Calls
	OpCall      // A: argc; stack: callee a1..aN → push result
	OpCallApply // stack: callee argsArray → push result (spread calls)
	OpNew       // A: argc; stack: class a1..aN → push instance
	OpSuperCall // A: argc; invoke superclass constructor on this
	OpClosure   // A: function index → push closure capturing current env
	OpReturn    // pop value, finish frame
	OpThrow     // pop value, unwind

	// Exception handling; handler ranges live on the frame and survive
	// suspensions, so rejections resume into the recorded handler.
	OpTryPush // A: handler target
	OpTryPop

	// Iteration
	OpIterInit     // pop iterable → push iterator handle
	OpIterNext     // A: done-target; pop iterator; push next value or jump
	OpIterNextSend // pop sent, pop iterator → push value, push done-bool
	OpKeys         // pop value → push array of enumerable string keys

	// Coroutines (async and generator state machines)
	OpAwait // pop value; suspend on promises, pass through otherwise
	OpYield // pop value; suspend yielding it; resume pushes the sent value

	// Classes and modules
	OpClass        // A: class def index; B: 1 when a super value is on the stack
	OpDecorate     // pop decorator, pop class; push decorator(class) or class
	OpExportSet    // S: exported name; peek value into the module's cell
	OpExportEquals // pop value into the module's export= cell
)

var opcodeNames = map[Opcode]string{
	OpNop: "NOP", OpConst: "CONST", OpPop: "POP", OpDup: "DUP", OpSwap: "SWAP",
	OpUndefined: "UNDEFINED", OpNull: "NULL", OpTrue: "TRUE", OpFalse: "FALSE",
	OpDefine: "DEFINE", OpDefineConst: "DEFINE_CONST", OpDefineVar: "DEFINE_VAR",
	OpLoad: "LOAD", OpStore: "STORE",
	OpPushScope: "PUSH_SCOPE", OpPopScope: "POP_SCOPE",
	OpGetMember: "GET_MEMBER", OpSetMember: "SET_MEMBER",
	OpGetIndex: "GET_INDEX", OpSetIndex: "SET_INDEX", OpGetSuper: "GET_SUPER",
	OpDelete: "DELETE", OpDeleteIndex: "DELETE_INDEX",
	OpArray: "ARRAY", OpAppend: "APPEND", OpSpreadAppend: "SPREAD_APPEND",
	OpObject: "OBJECT", OpSetProp: "SET_PROP", OpSetPropComputed: "SET_PROP_COMPUTED",
	OpObjectSpread: "OBJECT_SPREAD",
	OpBinary:       "BINARY", OpUnary: "UNARY", OpTypeofName: "TYPEOF_NAME",
	OpJump: "JUMP", OpJumpIfFalse: "JUMP_IF_FALSE", OpJumpIfTrue: "JUMP_IF_TRUE",
	OpJumpIfFalseKeep: "JUMP_IF_FALSE_KEEP", OpJumpIfTruthyKeep: "JUMP_IF_TRUTHY_KEEP",
	OpJumpIfNotNullishKeep: "JUMP_IF_NOT_NULLISH_KEEP",
	OpCall:                 "CALL", OpCallApply: "CALL_APPLY", OpNew: "NEW", OpSuperCall: "SUPER_CALL",
	OpClosure: "CLOSURE", OpReturn: "RETURN", OpThrow: "THROW",
	OpTryPush: "TRY_PUSH", OpTryPop: "TRY_POP",
	OpIterInit: "ITER_INIT", OpIterNext: "ITER_NEXT", OpIterNextSend: "ITER_NEXT_SEND",
	OpKeys:  "KEYS",
	OpAwait: "AWAIT", OpYield: "YIELD",
	OpClass: "CLASS", OpDecorate: "DECORATE",
	OpExportSet: "EXPORT_SET", OpExportEquals: "EXPORT_EQUALS",
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP(%d)", int(op))
}

// Instruction is one decoded VM instruction. The managed-module layout
// favors explicit operands over byte packing; the serializer owns the
// binary form.
type Instruction struct {
	Op Opcode
	A  int
	B  int
	S  string
}

// String renders one instruction for the disassembler.
func (in Instruction) String() string {
	switch {
	case in.S != "" && (in.A != 0 || in.B != 0):
		return fmt.Sprintf("%-24s %d %d %q", in.Op, in.A, in.B, in.S)
	case in.S != "":
		return fmt.Sprintf("%-24s %q", in.Op, in.S)
	case in.A != 0 || in.B != 0 || hasOperand(in.Op):
		return fmt.Sprintf("%-24s %d", in.Op, in.A)
	default:
		return in.Op.String()
	}
}

func hasOperand(op Opcode) bool {
	switch op {
	case OpConst, OpArray, OpCall, OpNew, OpSuperCall, OpClosure, OpClass,
		OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfFalseKeep,
		OpJumpIfTruthyKeep, OpJumpIfNotNullishKeep, OpTryPush, OpIterNext:
		return true
	}
	return false
}
