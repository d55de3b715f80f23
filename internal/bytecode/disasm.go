package bytecode

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Disassemble renders a compiled module in a readable listing, one
// function per section with constants inlined in comments.
func Disassemble(m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s\n", m.String())

	for _, imp := range m.Imports {
		fmt.Fprintf(&sb, "; import %q", imp.Specifier)
		if imp.Equals != "" {
			fmt.Fprintf(&sb, " = %s", imp.Equals)
		}
		sb.WriteString("\n")
	}

	for i, cls := range m.Classes {
		fmt.Fprintf(&sb, "\nclass %d: %s", i, cls.Name)
		if cls.Abstract {
			sb.WriteString(" (abstract)")
		}
		sb.WriteString("\n")
		for _, f := range cls.Fields {
			fmt.Fprintf(&sb, "  field %s initFn=%d\n", f.Name, f.InitFn)
		}
		for _, mm := range cls.Methods {
			fmt.Fprintf(&sb, "  method %s fn=%d kind=%d static=%v\n", mm.Name, mm.Fn, mm.Kind, mm.Static)
		}
	}

	for i, fn := range m.Functions {
		fmt.Fprintf(&sb, "\nfn %d: %s", i, fn.Name)
		var flags []string
		if fn.IsAsync {
			flags = append(flags, "async")
		}
		if fn.IsGenerator {
			flags = append(flags, "generator")
		}
		if fn.IsArrow {
			flags = append(flags, "arrow")
		}
		if len(flags) > 0 {
			fmt.Fprintf(&sb, " [%s]", strings.Join(flags, " "))
		}
		sb.WriteString("\n")
		disassembleChunk(&sb, fn.Chunk)
	}
	return sb.String()
}

func disassembleChunk(sb *strings.Builder, chunk *Chunk) {
	for i, in := range chunk.Code {
		fmt.Fprintf(sb, "  %04d  %s", i, in.String())
		if in.Op == OpConst && in.A < len(chunk.Constants) {
			fmt.Fprintf(sb, "  ; %s", runtime.Display(chunk.Constants[in.A]))
		}
		sb.WriteString("\n")
	}
}
