package builtins

import (
	"github.com/cwbudde/go-tscript/internal/types"
)

// Shapes returns the typed surface of each host module, consumed by the
// checker when binding bare-name imports. Like the value tables, these are
// data-driven signature tables, not checked code.
func Shapes() map[string]types.Type {
	variadicVoid := func() *types.FunctionType {
		return &types.FunctionType{HasRest: true, RestType: types.ANY, Return: types.VOID}
	}
	sig := func(ret types.Type, params ...types.Type) *types.FunctionType {
		ps := make([]types.Param, len(params))
		for i, p := range params {
			ps[i] = types.Param{Type: p}
		}
		return &types.FunctionType{Params: ps, Required: len(params), Return: ret}
	}
	record := func(fields ...types.Field) *types.RecordType {
		return types.NewRecord(fields)
	}

	console := record(
		types.Field{Name: "log", Type: variadicVoid()},
		types.Field{Name: "error", Type: variadicVoid()},
		types.Field{Name: "warn", Type: variadicVoid()},
		types.Field{Name: "info", Type: variadicVoid()},
		types.Field{Name: "debug", Type: variadicVoid()},
	)

	statShape := record(
		types.Field{Name: "size", Type: types.NUMBER},
		types.Field{Name: "isFile", Type: sig(types.BOOLEAN)},
		types.Field{Name: "isDirectory", Type: sig(types.BOOLEAN)},
	)

	fs := record(
		types.Field{Name: "readFileSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "writeFileSync", Type: sig(types.VOID, types.STRING, types.STRING)},
		types.Field{Name: "appendFileSync", Type: sig(types.VOID, types.STRING, types.STRING)},
		types.Field{Name: "existsSync", Type: sig(types.BOOLEAN, types.STRING)},
		types.Field{Name: "mkdirSync", Type: &types.FunctionType{
			Params:   []types.Param{{Type: types.STRING}, {Type: types.ANY, Optional: true}},
			Required: 1, Return: types.VOID,
		}},
		types.Field{Name: "readdirSync", Type: sig(types.NewArray(types.STRING), types.STRING)},
		types.Field{Name: "unlinkSync", Type: sig(types.VOID, types.STRING)},
		types.Field{Name: "renameSync", Type: sig(types.VOID, types.STRING, types.STRING)},
		types.Field{Name: "statSync", Type: sig(statShape, types.STRING)},
		types.Field{Name: "openSync", Type: sig(types.ANY, types.STRING)},
		types.Field{Name: "closeSync", Type: sig(types.VOID, types.ANY)},
	)

	pathShape := record(
		types.Field{Name: "join", Type: &types.FunctionType{HasRest: true, RestType: types.STRING, Return: types.STRING}},
		types.Field{Name: "dirname", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "basename", Type: &types.FunctionType{
			Params:   []types.Param{{Type: types.STRING}, {Type: types.STRING, Optional: true}},
			Required: 1, Return: types.STRING,
		}},
		types.Field{Name: "extname", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "normalize", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "isAbsolute", Type: sig(types.BOOLEAN, types.STRING)},
		types.Field{Name: "sep", Type: types.STRING},
	)
	path := record(append(pathShape.Fields,
		types.Field{Name: "posix", Type: pathShape},
		types.Field{Name: "platform", Type: types.ANY},
	)...)

	hasher := record(
		types.Field{Name: "update", Type: sig(types.ANY, types.STRING)},
		types.Field{Name: "digest", Type: sig(types.STRING)},
		types.Field{Name: "__handle", Type: types.STRING},
	)
	crypto := record(
		types.Field{Name: "createHash", Type: sig(hasher, types.STRING)},
		types.Field{Name: "hashAsync", Type: sig(types.NewPromise(types.STRING), types.STRING, types.STRING)},
		types.Field{Name: "randomBytes", Type: sig(types.STRING, types.NUMBER)},
		types.Field{Name: "randomUUID", Type: sig(types.STRING)},
		types.Field{Name: "randomInt", Type: sig(types.NUMBER, types.NUMBER)},
	)

	urlShape := record(
		types.Field{Name: "protocol", Type: types.STRING},
		types.Field{Name: "host", Type: types.STRING},
		types.Field{Name: "hostname", Type: types.STRING},
		types.Field{Name: "port", Type: types.STRING},
		types.Field{Name: "pathname", Type: types.STRING},
		types.Field{Name: "search", Type: types.STRING},
		types.Field{Name: "hash", Type: types.STRING},
		types.Field{Name: "href", Type: types.STRING},
	)
	urlMod := record(
		types.Field{Name: "parse", Type: sig(urlShape, types.STRING)},
		types.Field{Name: "format", Type: sig(types.STRING, types.ANY)},
	)

	querystring := record(
		types.Field{Name: "parse", Type: sig(types.ANY, types.STRING)},
		types.Field{Name: "stringify", Type: sig(types.STRING, types.ANY)},
	)

	zlibMod := record(
		types.Field{Name: "gzipSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "gunzipSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "deflateSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "inflateSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "deflateRawSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "gzipAsync", Type: sig(types.NewPromise(types.STRING), types.STRING)},
	)

	httpMod := record(
		types.Field{Name: "STATUS_CODES", Type: &types.RecordType{StringIndex: types.STRING}},
		types.Field{Name: "get", Type: sig(types.NewPromise(types.ANY), types.STRING)},
	)

	childProcess := record(
		types.Field{Name: "execSync", Type: sig(types.STRING, types.STRING)},
		types.Field{Name: "spawnSync", Type: &types.FunctionType{
			Params:   []types.Param{{Type: types.STRING}, {Type: types.NewArray(types.STRING), Optional: true}},
			Required: 1, Return: types.ANY,
		}},
	)

	dns := record(
		types.Field{Name: "lookup", Type: sig(types.NewPromise(types.STRING), types.STRING)},
	)

	perfHooks := record(
		types.Field{Name: "performance", Type: record(
			types.Field{Name: "now", Type: sig(types.NUMBER)},
		)},
	)

	readline := record(
		types.Field{Name: "createInterface", Type: sig(types.ANY)},
	)

	stream := record(
		types.Field{Name: "Readable", Type: sig(types.ANY, types.ANY)},
		types.Field{Name: "Writable", Type: sig(types.ANY)},
	)

	timerSig := &types.FunctionType{
		Params:   []types.Param{{Type: types.ANY}, {Type: types.NUMBER, Optional: true}},
		Required: 1, HasRest: true, RestType: types.ANY, Return: types.NUMBER,
	}
	timers := record(
		types.Field{Name: "setTimeout", Type: timerSig},
		types.Field{Name: "setInterval", Type: timerSig},
		types.Field{Name: "clearTimeout", Type: sig(types.VOID, types.NUMBER)},
		types.Field{Name: "clearInterval", Type: sig(types.VOID, types.NUMBER)},
	)

	return map[string]types.Type{
		"console":       console,
		"fs":            fs,
		"path":          path,
		"crypto":        crypto,
		"url":           urlMod,
		"querystring":   querystring,
		"zlib":          zlibMod,
		"http":          httpMod,
		"child_process": childProcess,
		"dns":           dns,
		"perf_hooks":    perfHooks,
		"readline":      readline,
		"stream":        stream,
		"timers":        timers,
	}
}
