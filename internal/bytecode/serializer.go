package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// Serialized module layout, little endian:
//
//	magic "TSBC", version u32
//	module name, import table, re-export table
//	function table (params, flags, chunk), class table, init index
//
// Strings are u32-length-prefixed UTF-8. Constants carry a one-byte tag.
const (
	serializerMagic   = "TSBC"
	serializerVersion = uint32(1)
)

const (
	constTagUndefined = byte(iota)
	constTagNull
	constTagBool
	constTagNumber
	constTagString
)

// Serialize encodes a compiled module into its binary form.
func Serialize(m *Module) []byte {
	var buf bytes.Buffer
	buf.WriteString(serializerMagic)
	writeU32(&buf, serializerVersion)

	writeString(&buf, m.Name)

	writeU32(&buf, uint32(len(m.Imports)))
	for _, imp := range m.Imports {
		writeString(&buf, imp.Specifier)
		writeString(&buf, imp.Default)
		writeString(&buf, imp.Namespace)
		writeString(&buf, imp.Equals)
		writeU32(&buf, uint32(len(imp.Named)))
		for _, pair := range imp.Named {
			writeString(&buf, pair[0])
			writeString(&buf, pair[1])
		}
	}

	writeU32(&buf, uint32(len(m.ReExports)))
	for _, re := range m.ReExports {
		writeString(&buf, re.Source)
		writeString(&buf, re.Name)
		writeString(&buf, re.Alias)
	}

	writeU32(&buf, uint32(len(m.Functions)))
	for _, fn := range m.Functions {
		writeString(&buf, fn.Name)
		flags := byte(0)
		if fn.IsAsync {
			flags |= 1
		}
		if fn.IsGenerator {
			flags |= 2
		}
		if fn.IsArrow {
			flags |= 4
		}
		buf.WriteByte(flags)
		writeU32(&buf, uint32(len(fn.Params)))
		for _, p := range fn.Params {
			writeString(&buf, p.Name)
			writeBool(&buf, p.Rest)
		}
		writeChunk(&buf, fn.Chunk)
	}

	writeU32(&buf, uint32(len(m.Classes)))
	for _, cls := range m.Classes {
		writeString(&buf, cls.Name)
		writeBool(&buf, cls.Abstract)
		writeU32(&buf, uint32(len(cls.Fields)))
		for _, f := range cls.Fields {
			writeString(&buf, f.Name)
			writeU32(&buf, uint32(int32(f.InitFn)))
			writeBool(&buf, f.Readonly)
			writeBool(&buf, f.Static)
		}
		writeU32(&buf, uint32(len(cls.Methods)))
		for _, mm := range cls.Methods {
			writeString(&buf, mm.Name)
			writeU32(&buf, uint32(mm.Fn))
			writeU32(&buf, uint32(mm.Kind))
			writeBool(&buf, mm.Static)
		}
	}

	writeU32(&buf, uint32(m.Init))
	return buf.Bytes()
}

// Deserialize decodes a binary module. The version must match exactly.
func Deserialize(data []byte) (*Module, error) {
	r := &reader{data: data}

	if string(r.bytes(4)) != serializerMagic {
		return nil, fmt.Errorf("bad module magic")
	}
	if v := r.u32(); v != serializerVersion {
		return nil, fmt.Errorf("unsupported module version %d", v)
	}

	m := &Module{Name: r.str()}

	for n := r.u32(); n > 0; n-- {
		imp := ImportDef{
			Specifier: r.str(),
			Default:   r.str(),
			Namespace: r.str(),
			Equals:    r.str(),
		}
		for k := r.u32(); k > 0; k-- {
			imp.Named = append(imp.Named, [2]string{r.str(), r.str()})
		}
		m.Imports = append(m.Imports, imp)
	}

	for n := r.u32(); n > 0; n-- {
		m.ReExports = append(m.ReExports, ReExportDef{
			Source: r.str(), Name: r.str(), Alias: r.str(),
		})
	}

	for n := r.u32(); n > 0; n-- {
		fn := &Function{Name: r.str()}
		flags := r.byte()
		fn.IsAsync = flags&1 != 0
		fn.IsGenerator = flags&2 != 0
		fn.IsArrow = flags&4 != 0
		for k := r.u32(); k > 0; k-- {
			fn.Params = append(fn.Params, Param{Name: r.str(), Rest: r.bool()})
		}
		fn.Chunk = r.chunk()
		m.Functions = append(m.Functions, fn)
	}

	for n := r.u32(); n > 0; n-- {
		cls := &ClassDef{Name: r.str(), Abstract: r.bool()}
		for k := r.u32(); k > 0; k-- {
			cls.Fields = append(cls.Fields, FieldDef{
				Name:     r.str(),
				InitFn:   int(int32(r.u32())),
				Readonly: r.bool(),
				Static:   r.bool(),
			})
		}
		for k := r.u32(); k > 0; k-- {
			cls.Methods = append(cls.Methods, MethodDef{
				Name:   r.str(),
				Fn:     int(r.u32()),
				Kind:   MethodKind(r.u32()),
				Static: r.bool(),
			})
		}
		m.Classes = append(m.Classes, cls)
	}

	m.Init = int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeChunk(buf *bytes.Buffer, chunk *Chunk) {
	writeU32(buf, uint32(len(chunk.Constants)))
	for _, c := range chunk.Constants {
		switch v := c.(type) {
		case *runtime.UndefinedValue:
			buf.WriteByte(constTagUndefined)
		case *runtime.NullValue:
			buf.WriteByte(constTagNull)
		case *runtime.BooleanValue:
			buf.WriteByte(constTagBool)
			writeBool(buf, v.Value)
		case *runtime.NumberValue:
			buf.WriteByte(constTagNumber)
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(v.Value))
			buf.Write(b[:])
		case *runtime.StringValue:
			buf.WriteByte(constTagString)
			writeString(buf, v.Value)
		default:
			// Non-primitive constants never reach the pool.
			buf.WriteByte(constTagUndefined)
		}
	}

	writeU32(buf, uint32(len(chunk.Code)))
	for _, in := range chunk.Code {
		writeU32(buf, uint32(in.Op))
		writeU32(buf, uint32(int32(in.A)))
		writeU32(buf, uint32(int32(in.B)))
		writeString(buf, in.S)
	}
}

type reader struct {
	data []byte
	pos  int
	err  error
}

func (r *reader) bytes(n int) []byte {
	if r.err != nil || r.pos+n > len(r.data) {
		if r.err == nil {
			r.err = fmt.Errorf("truncated module data")
		}
		return make([]byte, n)
	}
	out := r.data[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) byte() byte  { return r.bytes(1)[0] }
func (r *reader) bool() bool  { return r.byte() != 0 }
func (r *reader) u32() uint32 { return binary.LittleEndian.Uint32(r.bytes(4)) }
func (r *reader) str() string { return string(r.bytes(int(r.u32()))) }

func (r *reader) chunk() *Chunk {
	chunk := &Chunk{}
	for n := r.u32(); n > 0; n-- {
		switch r.byte() {
		case constTagUndefined:
			chunk.Constants = append(chunk.Constants, runtime.UNDEFINED)
		case constTagNull:
			chunk.Constants = append(chunk.Constants, runtime.NULL)
		case constTagBool:
			chunk.Constants = append(chunk.Constants, runtime.NewBoolean(r.bool()))
		case constTagNumber:
			bits := binary.LittleEndian.Uint64(r.bytes(8))
			chunk.Constants = append(chunk.Constants, runtime.NewNumber(math.Float64frombits(bits)))
		case constTagString:
			chunk.Constants = append(chunk.Constants, runtime.NewString(r.str()))
		}
	}
	for n := r.u32(); n > 0; n-- {
		chunk.Code = append(chunk.Code, Instruction{
			Op: Opcode(r.u32()),
			A:  int(int32(r.u32())),
			B:  int(int32(r.u32())),
			S:  r.str(),
		})
	}
	return chunk
}
