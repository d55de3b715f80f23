package builtins

import (
	"fmt"
	"strings"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// consoleObject builds the console global: log/error/warn/info/debug with
// printf-like format expansion on a leading format string.
func (r *Registry) consoleObject() *runtime.ObjectValue {
	console := runtime.NewObject()
	for _, name := range []string{"log", "error", "warn", "info", "debug"} {
		name := name
		console.Set(name, fn("console."+name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			fmt.Fprintln(r.host.Out, consoleFormat(args))
			return runtime.UNDEFINED, nil
		}))
	}
	return console
}

// consoleFormat renders console arguments: a leading format string expands
// %s, %d, %i, %f, %j and %% directives; remaining arguments append
// space-separated in display form.
func consoleFormat(args []runtime.Value) string {
	if len(args) == 0 {
		return ""
	}

	var sb strings.Builder
	rest := args[1:]

	if format, ok := args[0].(*runtime.StringValue); ok && strings.ContainsRune(format.Value, '%') {
		text := format.Value
		argIdx := 0
		for i := 0; i < len(text); i++ {
			if text[i] != '%' || i+1 >= len(text) {
				sb.WriteByte(text[i])
				continue
			}
			verb := text[i+1]
			i++
			switch verb {
			case '%':
				sb.WriteByte('%')
			case 's':
				sb.WriteString(runtime.ToStringValue(consumeArg(rest, &argIdx)))
			case 'd', 'i':
				n := runtime.ToNumber(consumeArg(rest, &argIdx))
				sb.WriteString(runtime.NewNumber(float64(int64(n))).String())
			case 'f':
				sb.WriteString(runtime.NewNumber(runtime.ToNumber(consumeArg(rest, &argIdx))).String())
			case 'j', 'o', 'O':
				sb.WriteString(jsonStringify(consumeArg(rest, &argIdx), ""))
			default:
				sb.WriteByte('%')
				sb.WriteByte(verb)
			}
		}
		for ; argIdx < len(rest); argIdx++ {
			sb.WriteByte(' ')
			sb.WriteString(runtime.Display(rest[argIdx]))
		}
		return sb.String()
	}

	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = runtime.Display(a)
	}
	return strings.Join(parts, " ")
}

func consumeArg(args []runtime.Value, idx *int) runtime.Value {
	if *idx < len(args) {
		v := args[*idx]
		*idx++
		return v
	}
	return runtime.UNDEFINED
}
