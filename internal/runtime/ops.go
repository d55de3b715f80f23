package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Truthy implements the language's truthiness test: false, 0, NaN, "",
// null and undefined are falsy; every other value is truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case *BooleanValue:
		return val.Value
	case *NumberValue:
		return val.Value != 0 && !math.IsNaN(val.Value)
	case *StringValue:
		return val.Value != ""
	case *NullValue, *UndefinedValue:
		return false
	case nil:
		return false
	}
	return true
}

// TypeofString computes the typeof operator's result.
func TypeofString(v Value) string {
	switch v.(type) {
	case *NumberValue:
		return "number"
	case *StringValue:
		return "string"
	case *BooleanValue:
		return "boolean"
	case *UndefinedValue:
		return "undefined"
	case *NullValue:
		return "object" // typeof null is "object", faithfully
	case *FunctionValue, *BuiltinValue, *ClassValue:
		return "function"
	default:
		return "object"
	}
}

// ToNumber implements numeric coercion.
func ToNumber(v Value) float64 {
	switch val := v.(type) {
	case *NumberValue:
		return val.Value
	case *BooleanValue:
		if val.Value {
			return 1
		}
		return 0
	case *StringValue:
		s := strings.TrimSpace(val.Value)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case *NullValue:
		return 0
	case *UndefinedValue:
		return math.NaN()
	case *ArrayValue:
		if len(val.Elements) == 0 {
			return 0
		}
		if len(val.Elements) == 1 {
			return ToNumber(val.Elements[0])
		}
	}
	return math.NaN()
}

// ToStringValue implements string coercion for concatenation.
func ToStringValue(v Value) string {
	switch val := v.(type) {
	case *ArrayValue:
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			switch e.(type) {
			case *NullValue, *UndefinedValue:
				parts[i] = ""
			default:
				parts[i] = ToStringValue(e)
			}
		}
		return strings.Join(parts, ",")
	case *ObjectValue:
		return "[object Object]"
	default:
		return v.String()
	}
}

// Display renders a value for console output: strings bare at the top
// level, arrays and objects in inspected form.
func Display(v Value) string {
	if v == nil {
		return "undefined"
	}
	return v.String()
}

// StrictEquals implements ===: same type, same value; objects by identity.
func StrictEquals(a, b Value) bool {
	switch av := a.(type) {
	case *NumberValue:
		bv, ok := b.(*NumberValue)
		return ok && av.Value == bv.Value
	case *StringValue:
		bv, ok := b.(*StringValue)
		return ok && av.Value == bv.Value
	case *BooleanValue:
		bv, ok := b.(*BooleanValue)
		return ok && av.Value == bv.Value
	case *NullValue:
		_, ok := b.(*NullValue)
		return ok
	case *UndefinedValue:
		_, ok := b.(*UndefinedValue)
		return ok
	}
	return a == b // reference identity for objects, arrays, functions
}

// LooseEquals implements == with the defined coercion table:
//
//	null == undefined (and nothing else)
//	number == string  after string → number
//	boolean == x      after boolean → number
//	object == primitive via ToPrimitive (string/number contents)
//
// Host handles compare by identity only.
func LooseEquals(a, b Value) bool {
	if StrictEquals(a, b) {
		return true
	}

	_, aNull := a.(*NullValue)
	_, aUndef := a.(*UndefinedValue)
	_, bNull := b.(*NullValue)
	_, bUndef := b.(*UndefinedValue)
	if (aNull || aUndef) && (bNull || bUndef) {
		return true
	}
	if aNull || aUndef || bNull || bUndef {
		return false
	}

	if _, ok := a.(*HandleValue); ok {
		return a == b
	}
	if _, ok := b.(*HandleValue); ok {
		return a == b
	}

	switch av := a.(type) {
	case *NumberValue:
		switch bv := b.(type) {
		case *StringValue:
			return av.Value == ToNumber(bv)
		case *BooleanValue:
			return av.Value == ToNumber(bv)
		case *ArrayValue, *ObjectValue:
			return av.Value == ToNumber(b)
		}
	case *StringValue:
		switch b.(type) {
		case *NumberValue, *BooleanValue:
			return ToNumber(av) == ToNumber(b)
		case *ArrayValue, *ObjectValue:
			return av.Value == ToStringValue(b)
		}
	case *BooleanValue:
		return LooseEquals(NewNumber(ToNumber(av)), b)
	case *ArrayValue, *ObjectValue:
		switch b.(type) {
		case *NumberValue, *StringValue, *BooleanValue:
			return LooseEquals(b, a)
		}
	}
	return false
}

// Add implements the + operator: string concatenation when either operand
// is a string, numeric addition otherwise.
func Add(a, b Value) Value {
	_, aStr := a.(*StringValue)
	_, bStr := b.(*StringValue)
	if aStr || bStr || isStringish(a) || isStringish(b) {
		return NewString(ToStringValue(a) + ToStringValue(b))
	}
	return NewNumber(ToNumber(a) + ToNumber(b))
}

// isStringish reports whether + coerces the operand through its string
// form (arrays, plain objects and class instances).
func isStringish(v Value) bool {
	switch v.(type) {
	case *ArrayValue, *ObjectValue, *InstanceValue:
		return true
	}
	return false
}

// Compare implements <, <=, > and >=: string/string comparisons are
// lexicographic, everything else numeric.
func Compare(a, b Value, op string) Value {
	as, aIsStr := a.(*StringValue)
	bs, bIsStr := b.(*StringValue)
	if aIsStr && bIsStr {
		switch op {
		case "<":
			return NewBoolean(as.Value < bs.Value)
		case "<=":
			return NewBoolean(as.Value <= bs.Value)
		case ">":
			return NewBoolean(as.Value > bs.Value)
		case ">=":
			return NewBoolean(as.Value >= bs.Value)
		}
	}

	an, bn := ToNumber(a), ToNumber(b)
	if math.IsNaN(an) || math.IsNaN(bn) {
		return FALSE
	}
	switch op {
	case "<":
		return NewBoolean(an < bn)
	case "<=":
		return NewBoolean(an <= bn)
	case ">":
		return NewBoolean(an > bn)
	case ">=":
		return NewBoolean(an >= bn)
	}
	return FALSE
}

// ToInt32 truncates a double to a 32-bit integer for the bitwise operators.
func ToInt32(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int32(int64(v))
}

// ToUint32 truncates a double to an unsigned 32-bit integer.
func ToUint32(v float64) uint32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return uint32(int64(v))
}

// BinaryNumeric implements the arithmetic, bitwise and shift operators over
// already-evaluated operands.
func BinaryNumeric(op string, a, b Value) Value {
	switch op {
	case "+":
		return Add(a, b)
	case "-":
		return NewNumber(ToNumber(a) - ToNumber(b))
	case "*":
		return NewNumber(ToNumber(a) * ToNumber(b))
	case "/":
		return NewNumber(ToNumber(a) / ToNumber(b))
	case "%":
		return NewNumber(math.Mod(ToNumber(a), ToNumber(b)))
	case "**":
		return NewNumber(math.Pow(ToNumber(a), ToNumber(b)))
	case "&":
		return NewNumber(float64(ToInt32(ToNumber(a)) & ToInt32(ToNumber(b))))
	case "|":
		return NewNumber(float64(ToInt32(ToNumber(a)) | ToInt32(ToNumber(b))))
	case "^":
		return NewNumber(float64(ToInt32(ToNumber(a)) ^ ToInt32(ToNumber(b))))
	case "<<":
		return NewNumber(float64(ToInt32(ToNumber(a)) << (ToUint32(ToNumber(b)) & 31)))
	case ">>":
		return NewNumber(float64(ToInt32(ToNumber(a)) >> (ToUint32(ToNumber(b)) & 31)))
	case ">>>":
		return NewNumber(float64(ToUint32(ToNumber(a)) >> (ToUint32(ToNumber(b)) & 31)))
	case "<", "<=", ">", ">=":
		return Compare(a, b, op)
	case "==":
		return NewBoolean(LooseEquals(a, b))
	case "!=":
		return NewBoolean(!LooseEquals(a, b))
	case "===":
		return NewBoolean(StrictEquals(a, b))
	case "!==":
		return NewBoolean(!StrictEquals(a, b))
	}
	return UNDEFINED
}
