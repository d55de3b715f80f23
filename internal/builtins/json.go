package builtins

import (
	"math"
	"strconv"
	"strings"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// jsonObject builds the JSON global over the shared value model.
func (r *Registry) jsonObject() *runtime.ObjectValue {
	j := runtime.NewObject()
	j.Set("stringify", fn("JSON.stringify", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		indent := ""
		if n, ok := arg(args, 2).(*runtime.NumberValue); ok {
			indent = strings.Repeat(" ", int(n.Value))
		}
		if s, ok := arg(args, 2).(*runtime.StringValue); ok {
			indent = s.Value
		}
		out := jsonStringify(arg(args, 0), indent)
		if out == "" {
			return runtime.UNDEFINED, nil
		}
		return runtime.NewString(out), nil
	}))
	j.Set("parse", fn("JSON.parse", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		p := &jsonParser{input: runtime.ToStringValue(arg(args, 0))}
		v, err := p.parseValue()
		if err != nil {
			return nil, hostError("SyntaxError", err.Error(), "")
		}
		p.skipSpace()
		if p.pos != len(p.input) {
			return nil, hostError("SyntaxError", "unexpected trailing characters in JSON", "")
		}
		return v, nil
	}))
	return j
}

// jsonStringify serializes a value; functions and undefined vanish
// (returning "" at the top level) as in the source language.
func jsonStringify(v runtime.Value, indent string) string {
	var render func(v runtime.Value, depth int) (string, bool)
	pad := func(depth int) string {
		if indent == "" {
			return ""
		}
		return "\n" + strings.Repeat(indent, depth)
	}

	render = func(v runtime.Value, depth int) (string, bool) {
		switch val := v.(type) {
		case *runtime.NullValue:
			return "null", true
		case *runtime.UndefinedValue, *runtime.FunctionValue, *runtime.BuiltinValue:
			return "", false
		case *runtime.BooleanValue:
			return val.String(), true
		case *runtime.NumberValue:
			if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
				return "null", true
			}
			return val.String(), true
		case *runtime.StringValue:
			return strconv.Quote(val.Value), true
		case *runtime.ArrayValue:
			parts := make([]string, len(val.Elements))
			for i, e := range val.Elements {
				s, ok := render(e, depth+1)
				if !ok {
					s = "null"
				}
				parts[i] = pad(depth+1) + s
			}
			if len(parts) == 0 {
				return "[]", true
			}
			return "[" + strings.Join(parts, ",") + pad(depth) + "]", true
		case *runtime.ObjectValue:
			var parts []string
			for _, k := range val.Keys() {
				e, _ := val.GetOwn(k)
				s, ok := render(e, depth+1)
				if !ok {
					continue
				}
				sep := ":"
				if indent != "" {
					sep = ": "
				}
				parts = append(parts, pad(depth+1)+strconv.Quote(k)+sep+s)
			}
			if len(parts) == 0 {
				return "{}", true
			}
			return "{" + strings.Join(parts, ",") + pad(depth) + "}", true
		case *runtime.InstanceValue:
			return render(val.Fields, depth)
		}
		return "", false
	}

	out, ok := render(v, 0)
	if !ok {
		return ""
	}
	return out
}

// jsonParser is a recursive-descent JSON reader producing runtime values.
type jsonParser struct {
	input string
	pos   int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue() (runtime.Value, error) {
	p.skipSpace()
	if p.pos >= len(p.input) {
		return nil, errUnexpectedEnd
	}
	switch c := p.input[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return runtime.NewString(s), nil
	case c == 't':
		return p.parseKeyword("true", runtime.TRUE)
	case c == 'f':
		return p.parseKeyword("false", runtime.FALSE)
	case c == 'n':
		return p.parseKeyword("null", runtime.NULL)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	}
	return nil, errInvalidJSON
}

var (
	errUnexpectedEnd = jsonError("unexpected end of JSON input")
	errInvalidJSON   = jsonError("invalid JSON")
)

type jsonError string

func (e jsonError) Error() string { return string(e) }

func (p *jsonParser) parseKeyword(word string, v runtime.Value) (runtime.Value, error) {
	if strings.HasPrefix(p.input[p.pos:], word) {
		p.pos += len(word)
		return v, nil
	}
	return nil, errInvalidJSON
}

func (p *jsonParser) parseNumber() (runtime.Value, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	f, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return nil, errInvalidJSON
	}
	return runtime.NewNumber(f), nil
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // skip opening quote
	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '"':
			p.pos++
			return sb.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				return "", errUnexpectedEnd
			}
			switch p.input[p.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case '/':
				sb.WriteByte('/')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'u':
				if p.pos+4 >= len(p.input) {
					return "", errUnexpectedEnd
				}
				code, err := strconv.ParseInt(p.input[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", errInvalidJSON
				}
				sb.WriteRune(rune(code))
				p.pos += 4
			default:
				return "", errInvalidJSON
			}
			p.pos++
		default:
			sb.WriteByte(c)
			p.pos++
		}
	}
	return "", errUnexpectedEnd
}

func (p *jsonParser) parseArray() (runtime.Value, error) {
	p.pos++ // skip [
	arr := &runtime.ArrayValue{}
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == ']' {
		p.pos++
		return arr, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, v)
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, errUnexpectedEnd
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return arr, nil
		default:
			return nil, errInvalidJSON
		}
	}
}

func (p *jsonParser) parseObject() (runtime.Value, error) {
	p.pos++ // skip {
	obj := runtime.NewObject()
	p.skipSpace()
	if p.pos < len(p.input) && p.input[p.pos] == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != '"' {
			return nil, errInvalidJSON
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.input) || p.input[p.pos] != ':' {
			return nil, errInvalidJSON
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
		p.skipSpace()
		if p.pos >= len(p.input) {
			return nil, errUnexpectedEnd
		}
		switch p.input[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			return obj, nil
		default:
			return nil, errInvalidJSON
		}
	}
}
