package runtime

// GetIterator returns a step handle for any iterable value. Arrays iterate
// by index, strings by code point (rune), maps over entries, sets over
// values; iterator handles pass through. Generator objects are iterator
// handles created by the executor, so they also pass through. Returns false
// for non-iterable values.
func GetIterator(v Value) (*IteratorValue, bool) {
	switch val := v.(type) {
	case *IteratorValue:
		return val, true
	case *ArrayValue:
		i := 0
		return &IteratorValue{
			NextFn: func(Value) (Value, bool, error) {
				if i >= len(val.Elements) {
					return UNDEFINED, true, nil
				}
				elem := val.Elements[i]
				i++
				return elem, false, nil
			},
		}, true
	case *StringValue:
		units := []rune(val.Value)
		i := 0
		return &IteratorValue{
			NextFn: func(Value) (Value, bool, error) {
				if i >= len(units) {
					return UNDEFINED, true, nil
				}
				ch := string(units[i])
				i++
				return NewString(ch), false, nil
			},
		}, true
	case *MapValue:
		keys, values := val.Entries()
		i := 0
		return &IteratorValue{
			NextFn: func(Value) (Value, bool, error) {
				if i >= len(keys) {
					return UNDEFINED, true, nil
				}
				entry := &ArrayValue{Elements: []Value{keys[i], values[i]}}
				i++
				return entry, false, nil
			},
		}, true
	case *SetValue:
		elems := val.Values()
		i := 0
		return &IteratorValue{
			NextFn: func(Value) (Value, bool, error) {
				if i >= len(elems) {
					return UNDEFINED, true, nil
				}
				elem := elems[i]
				i++
				return elem, false, nil
			},
		}, true
	}
	return nil, false
}

// IterateAll drains an iterator into a slice; used by spread and
// Array.from.
func IterateAll(it *IteratorValue) ([]Value, error) {
	var out []Value
	for {
		v, done, err := it.Next(UNDEFINED)
		if err != nil {
			return out, err
		}
		if done {
			return out, nil
		}
		out = append(out, v)
	}
}
