package builtins

import (
	"errors"
	"os"
	"syscall"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// fsModule is the synchronous file-system surface. Failures become
// catchable exceptions carrying the conventional code taxonomy.
func (r *Registry) fsModule() *runtime.ObjectValue {
	m := runtime.NewObject()

	m.Set("readFileSync", fn("fs.readFileSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fsError(err, path)
		}
		return runtime.NewString(string(data)), nil
	}))
	m.Set("writeFileSync", fn("fs.writeFileSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		data := runtime.ToStringValue(arg(args, 1))
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			return nil, fsError(err, path)
		}
		return runtime.UNDEFINED, nil
	}))
	m.Set("appendFileSync", fn("fs.appendFileSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fsError(err, path)
		}
		defer f.Close()
		if _, err := f.WriteString(runtime.ToStringValue(arg(args, 1))); err != nil {
			return nil, fsError(err, path)
		}
		return runtime.UNDEFINED, nil
	}))
	m.Set("existsSync", fn("fs.existsSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		_, err := os.Stat(runtime.ToStringValue(arg(args, 0)))
		return runtime.NewBoolean(err == nil), nil
	}))
	m.Set("mkdirSync", fn("fs.mkdirSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		recursive := false
		if opts, ok := arg(args, 1).(*runtime.ObjectValue); ok {
			if rv, found := opts.Get("recursive"); found {
				recursive = runtime.Truthy(rv)
			}
		}
		var err error
		if recursive {
			err = os.MkdirAll(path, 0o755)
		} else {
			err = os.Mkdir(path, 0o755)
		}
		if err != nil {
			return nil, fsError(err, path)
		}
		return runtime.UNDEFINED, nil
	}))
	m.Set("readdirSync", fn("fs.readdirSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fsError(err, path)
		}
		out := &runtime.ArrayValue{}
		for _, e := range entries {
			out.Elements = append(out.Elements, runtime.NewString(e.Name()))
		}
		return out, nil
	}))
	m.Set("unlinkSync", fn("fs.unlinkSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		if err := os.Remove(path); err != nil {
			return nil, fsError(err, path)
		}
		return runtime.UNDEFINED, nil
	}))
	m.Set("renameSync", fn("fs.renameSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		from := runtime.ToStringValue(arg(args, 0))
		to := runtime.ToStringValue(arg(args, 1))
		if err := os.Rename(from, to); err != nil {
			return nil, fsError(err, from)
		}
		return runtime.UNDEFINED, nil
	}))
	m.Set("statSync", fn("fs.statSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		info, err := os.Stat(path)
		if err != nil {
			return nil, fsError(err, path)
		}
		stat := runtime.NewObject()
		stat.Set("size", runtime.NewNumber(float64(info.Size())))
		isDir := info.IsDir()
		stat.Set("isFile", fn("isFile", func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			return runtime.NewBoolean(!isDir), nil
		}))
		stat.Set("isDirectory", fn("isDirectory", func(_ runtime.Value, _ []runtime.Value) (runtime.Value, error) {
			return runtime.NewBoolean(isDir), nil
		}))
		return stat, nil
	}))
	m.Set("openSync", fn("fs.openSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		path := runtime.ToStringValue(arg(args, 0))
		f, err := os.Open(path)
		if err != nil {
			return nil, fsError(err, path)
		}
		return runtime.NewHandle("FileHandle", f, f.Close), nil
	}))
	m.Set("closeSync", fn("fs.closeSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		h, ok := arg(args, 0).(*runtime.HandleValue)
		if !ok {
			return nil, hostError("TypeError", "closeSync expects a file handle", "EBADF")
		}
		if err := h.Close(); err != nil {
			return nil, hostError("Error", err.Error(), "EBADF")
		}
		return runtime.UNDEFINED, nil
	}))
	return m
}

// fsError maps Go filesystem errors to the conventional code taxonomy.
func fsError(err error, path string) error {
	code := "EIO"
	switch {
	case errors.Is(err, syscall.EPERM):
		code = "EPERM"
	case errors.Is(err, syscall.EISDIR):
		code = "EISDIR"
	case errors.Is(err, syscall.ENOTDIR):
		code = "ENOTDIR"
	case os.IsNotExist(err):
		code = "ENOENT"
	case os.IsPermission(err):
		code = "EACCES"
	case os.IsExist(err):
		code = "EEXIST"
	}
	return hostError("Error", code+": "+err.Error()+", '"+path+"'", code)
}
