package builtins

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"crypto/md5"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	gopath "path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/go-tscript/internal/runtime"
)

// pathModule exposes POSIX path helpers, with a platform-specific variant
// as a sub-namespace (mirroring the posix/win32 split of the host surface).
func (r *Registry) pathModule() *runtime.ObjectValue {
	posix := runtime.NewObject()
	posix.Set("join", fn("path.join", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = runtime.ToStringValue(a)
		}
		return runtime.NewString(gopath.Join(parts...)), nil
	}))
	posix.Set("dirname", fn("path.dirname", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(gopath.Dir(runtime.ToStringValue(arg(args, 0)))), nil
	}))
	posix.Set("basename", fn("path.basename", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		base := gopath.Base(runtime.ToStringValue(arg(args, 0)))
		if ext := runtime.ToStringValue(arg(args, 1)); ext != "undefined" && ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		return runtime.NewString(base), nil
	}))
	posix.Set("extname", fn("path.extname", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(gopath.Ext(runtime.ToStringValue(arg(args, 0)))), nil
	}))
	posix.Set("normalize", fn("path.normalize", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(gopath.Clean(runtime.ToStringValue(arg(args, 0)))), nil
	}))
	posix.Set("isAbsolute", fn("path.isAbsolute", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewBoolean(gopath.IsAbs(runtime.ToStringValue(arg(args, 0)))), nil
	}))
	posix.Set("sep", runtime.NewString("/"))

	platform := runtime.NewObject()
	platform.Set("join", fn("path.join", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = runtime.ToStringValue(a)
		}
		return runtime.NewString(filepath.Join(parts...)), nil
	}))
	platform.Set("sep", runtime.NewString(string(filepath.Separator)))

	// The top-level module is the POSIX variant with both sub-namespaces
	// attached.
	m := runtime.NewObject()
	for _, k := range posix.Keys() {
		v, _ := posix.GetOwn(k)
		m.Set(k, v)
	}
	m.Set("posix", posix)
	m.Set("platform", platform)
	return m
}

// cryptoModule exposes hashing and randomness. createHash hashes
// synchronously; hashAsync hashes on a worker goroutine and delivers the
// digest as a promise settlement.
func (r *Registry) cryptoModule() *runtime.ObjectValue {
	m := runtime.NewObject()

	m.Set("createHash", fn("crypto.createHash", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		algo := runtime.ToStringValue(arg(args, 0))
		h, err := newHash(algo)
		if err != nil {
			return nil, err
		}
		handle := runtime.NewHandle("Hash", h, nil)

		obj := runtime.NewObject()
		obj.Set("update", fn("update", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			h.Write([]byte(runtime.ToStringValue(arg(args, 0))))
			return obj, nil
		}))
		obj.Set("digest", fn("digest", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.NewString(hex.EncodeToString(h.Sum(nil))), nil
		}))
		obj.Set("__handle", handle)
		return obj, nil
	}))

	m.Set("hashAsync", fn("crypto.hashAsync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		algo := runtime.ToStringValue(arg(args, 0))
		data := runtime.ToStringValue(arg(args, 1))
		return r.offload(func() (runtime.Value, error) {
			h, err := newHash(algo)
			if err != nil {
				return nil, err
			}
			h.Write([]byte(data))
			return runtime.NewString(hex.EncodeToString(h.Sum(nil))), nil
		}), nil
	}))

	m.Set("randomBytes", fn("crypto.randomBytes", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		n := int(runtime.ToNumber(arg(args, 0)))
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			return nil, hostError("Error", err.Error(), "EIO")
		}
		return runtime.NewString(hex.EncodeToString(buf)), nil
	}))
	m.Set("randomUUID", fn("crypto.randomUUID", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return nil, hostError("Error", err.Error(), "EIO")
		}
		buf[6] = (buf[6] & 0x0F) | 0x40
		buf[8] = (buf[8] & 0x3F) | 0x80
		u := hex.EncodeToString(buf)
		return runtime.NewString(u[0:8] + "-" + u[8:12] + "-" + u[12:16] + "-" + u[16:20] + "-" + u[20:]), nil
	}))
	m.Set("randomInt", fn("crypto.randomInt", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		maxV := int64(runtime.ToNumber(arg(args, 0)))
		if maxV <= 0 {
			return nil, hostError("RangeError", "max must be positive", "ERR_OUT_OF_RANGE")
		}
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return nil, hostError("Error", err.Error(), "EIO")
		}
		var v uint64
		for _, b := range buf {
			v = v<<8 | uint64(b)
		}
		return runtime.NewNumber(float64(v % uint64(maxV))), nil
	}))
	return m
}

func newHash(algo string) (hash.Hash, error) {
	switch algo {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	}
	return nil, hostError("Error", "unsupported digest: "+algo, "ERR_CRYPTO_INVALID_DIGEST")
}

// offload runs CPU-bound work on a worker goroutine; the result appears as
// a promise settlement on the main scheduler, preserving the cooperative
// model.
func (r *Registry) offload(work func() (runtime.Value, error)) *runtime.PromiseValue {
	p := runtime.NewPromiseValue(r.host.Sched)

	var g errgroup.Group
	var result runtime.Value
	var workErr error
	g.Go(func() error {
		result, workErr = work()
		return nil
	})

	// The settlement lands on the scheduler as a timer-tick boundary task;
	// Wait blocks the worker handoff, not the language thread mid-frame.
	r.host.Sched.SetTimeout(func() {
		_ = g.Wait()
		if workErr != nil {
			if thrown, ok := workErr.(*runtime.ThrownError); ok {
				p.Reject(thrown.Value)
				return
			}
			p.Reject(runtime.NewString(workErr.Error()))
			return
		}
		p.Resolve(result)
	}, 0)
	return p
}

// zlibModule exposes synchronous gzip/deflate codecs, plus async variants
// offloaded to workers.
func (r *Registry) zlibModule() *runtime.ObjectValue {
	m := runtime.NewObject()

	m.Set("gzipSync", fn("zlib.gzipSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write([]byte(runtime.ToStringValue(arg(args, 0)))); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		if err := w.Close(); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		return runtime.NewString(hex.EncodeToString(buf.Bytes())), nil
	}))
	m.Set("gunzipSync", fn("zlib.gunzipSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		data, err := hex.DecodeString(runtime.ToStringValue(arg(args, 0)))
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		return runtime.NewString(string(out)), nil
	}))
	m.Set("deflateSync", fn("zlib.deflateSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write([]byte(runtime.ToStringValue(arg(args, 0)))); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		if err := w.Close(); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		return runtime.NewString(hex.EncodeToString(buf.Bytes())), nil
	}))
	m.Set("inflateSync", fn("zlib.inflateSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		data, err := hex.DecodeString(runtime.ToStringValue(arg(args, 0)))
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, hostError("Error", err.Error(), "Z_DATA_ERROR")
		}
		return runtime.NewString(string(out)), nil
	}))
	m.Set("deflateRawSync", fn("zlib.deflateRawSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		var buf bytes.Buffer
		w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		if _, err := w.Write([]byte(runtime.ToStringValue(arg(args, 0)))); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		if err := w.Close(); err != nil {
			return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
		}
		return runtime.NewString(hex.EncodeToString(buf.Bytes())), nil
	}))
	m.Set("gzipAsync", fn("zlib.gzipAsync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		data := runtime.ToStringValue(arg(args, 0))
		return r.offload(func() (runtime.Value, error) {
			var buf bytes.Buffer
			w := gzip.NewWriter(&buf)
			if _, err := w.Write([]byte(data)); err != nil {
				return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
			}
			if err := w.Close(); err != nil {
				return nil, hostError("Error", err.Error(), "Z_STREAM_ERROR")
			}
			return runtime.NewString(hex.EncodeToString(buf.Bytes())), nil
		}), nil
	}))
	return m
}

// urlModule wraps URL parsing and formatting.
func (r *Registry) urlModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("parse", fn("url.parse", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		u, err := url.Parse(runtime.ToStringValue(arg(args, 0)))
		if err != nil {
			return nil, hostError("TypeError", "invalid URL", "ERR_INVALID_URL")
		}
		obj := runtime.NewObject()
		obj.Set("protocol", runtime.NewString(u.Scheme+":"))
		obj.Set("host", runtime.NewString(u.Host))
		obj.Set("hostname", runtime.NewString(u.Hostname()))
		obj.Set("port", runtime.NewString(u.Port()))
		obj.Set("pathname", runtime.NewString(u.Path))
		obj.Set("search", runtime.NewString(queryString(u)))
		obj.Set("hash", runtime.NewString(fragmentString(u)))
		obj.Set("href", runtime.NewString(u.String()))
		return obj, nil
	}))
	m.Set("format", fn("url.format", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		obj, ok := arg(args, 0).(*runtime.ObjectValue)
		if !ok {
			return runtime.NewString(""), nil
		}
		get := func(key string) string {
			if v, found := obj.Get(key); found {
				return runtime.ToStringValue(v)
			}
			return ""
		}
		u := &url.URL{
			Scheme: strings.TrimSuffix(get("protocol"), ":"),
			Host:   get("host"),
			Path:   get("pathname"),
		}
		return runtime.NewString(u.String()), nil
	}))
	return m
}

func queryString(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	return "?" + u.RawQuery
}

func fragmentString(u *url.URL) string {
	if u.Fragment == "" {
		return ""
	}
	return "#" + u.Fragment
}

// querystringModule wraps query-string codecs.
func (r *Registry) querystringModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("parse", fn("querystring.parse", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		values, err := url.ParseQuery(runtime.ToStringValue(arg(args, 0)))
		if err != nil {
			return runtime.NewObject(), nil
		}
		obj := runtime.NewObject()
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			obj.Set(k, runtime.NewString(values.Get(k)))
		}
		return obj, nil
	}))
	m.Set("stringify", fn("querystring.stringify", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		obj, ok := arg(args, 0).(*runtime.ObjectValue)
		if !ok {
			return runtime.NewString(""), nil
		}
		values := url.Values{}
		for _, k := range obj.Keys() {
			v, _ := obj.GetOwn(k)
			values.Set(k, runtime.ToStringValue(v))
		}
		return runtime.NewString(values.Encode()), nil
	}))
	return m
}

// httpModule exposes a minimal client plus the status table.
func (r *Registry) httpModule() *runtime.ObjectValue {
	m := runtime.NewObject()

	statuses := runtime.NewObject()
	for _, code := range []int{200, 201, 204, 301, 302, 304, 400, 401, 403, 404, 409, 500, 502, 503} {
		statuses.Set(fmt.Sprintf("%d", code), runtime.NewString(http.StatusText(code)))
	}
	m.Set("STATUS_CODES", statuses)

	m.Set("get", fn("http.get", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		target := runtime.ToStringValue(arg(args, 0))
		p := runtime.NewPromiseValue(r.host.Sched)
		r.host.Sched.SetTimeout(func() {
			resp, err := http.Get(target)
			if err != nil {
				p.Reject(runtime.NewErrorObject("Error", err.Error(), "ECONNREFUSED"))
				return
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				p.Reject(runtime.NewErrorObject("Error", err.Error(), "ECONNRESET"))
				return
			}
			out := runtime.NewObject()
			out.Set("statusCode", runtime.NewNumber(float64(resp.StatusCode)))
			out.Set("body", runtime.NewString(string(body)))
			p.Resolve(out)
		}, 0)
		return p, nil
	}))
	return m
}

// childProcessModule exposes execSync and spawnSync.
func (r *Registry) childProcessModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("execSync", fn("child_process.execSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		cmd := exec.Command("sh", "-c", runtime.ToStringValue(arg(args, 0)))
		out, err := cmd.Output()
		if err != nil {
			return nil, hostError("Error", err.Error(), "ENOENT")
		}
		return runtime.NewString(string(out)), nil
	}))
	m.Set("spawnSync", fn("child_process.spawnSync", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		name := runtime.ToStringValue(arg(args, 0))
		var argv []string
		if list, ok := arg(args, 1).(*runtime.ArrayValue); ok {
			for _, a := range list.Elements {
				argv = append(argv, runtime.ToStringValue(a))
			}
		}
		cmd := exec.Command(name, argv...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		runErr := cmd.Run()
		obj := runtime.NewObject()
		obj.Set("stdout", runtime.NewString(stdout.String()))
		obj.Set("stderr", runtime.NewString(stderr.String()))
		status := 0
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else if runErr != nil {
			return nil, hostError("Error", runErr.Error(), "ENOENT")
		}
		obj.Set("status", runtime.NewNumber(float64(status)))
		return obj, nil
	}))
	return m
}

// dnsModule exposes lookup as a promise-returning call.
func (r *Registry) dnsModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("lookup", fn("dns.lookup", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		host := runtime.ToStringValue(arg(args, 0))
		p := runtime.NewPromiseValue(r.host.Sched)
		r.host.Sched.SetTimeout(func() {
			addrs, err := net.LookupHost(host)
			if err != nil || len(addrs) == 0 {
				p.Reject(runtime.NewErrorObject("Error", "getaddrinfo ENOTFOUND "+host, "ENOTFOUND"))
				return
			}
			p.Resolve(runtime.NewString(addrs[0]))
		}, 0)
		return p, nil
	}))
	return m
}

// perfHooksModule exposes performance.now over a monotonic origin.
func (r *Registry) perfHooksModule() *runtime.ObjectValue {
	origin := time.Now()
	perf := runtime.NewObject()
	perf.Set("now", fn("performance.now", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewNumber(float64(time.Since(origin).Microseconds()) / 1000), nil
	}))
	m := runtime.NewObject()
	m.Set("performance", perf)
	return m
}

// readlineModule exposes a line-based stdin reader.
func (r *Registry) readlineModule() *runtime.ObjectValue {
	m := runtime.NewObject()
	m.Set("createInterface", fn("readline.createInterface", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		reader := bufio.NewReader(os.Stdin)
		handle := runtime.NewHandle("ReadlineInterface", reader, nil)

		iface := runtime.NewObject()
		iface.Set("readLine", fn("readLine", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return runtime.NULL, nil
			}
			return runtime.NewString(strings.TrimRight(line, "\r\n")), nil
		}))
		iface.Set("close", fn("close", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			if err := handle.Close(); err != nil {
				return nil, hostError("Error", err.Error(), "EBADF")
			}
			return runtime.UNDEFINED, nil
		}))
		return iface, nil
	}))
	return m
}

// streamModule provides in-memory Readable/Writable primitives with event
// emission and high-water-mark back-pressure.
func (r *Registry) streamModule() *runtime.ObjectValue {
	m := runtime.NewObject()

	m.Set("Readable", fn("stream.Readable", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.newReadable(arg(args, 0)), nil
	}))
	m.Set("Writable", fn("stream.Writable", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return r.newWritable(16 * 1024), nil
	}))
	return m
}

// newReadable builds a readable stream over an initial chunk list.
func (r *Registry) newReadable(source runtime.Value) *runtime.ObjectValue {
	var chunks []runtime.Value
	if arr, ok := source.(*runtime.ArrayValue); ok {
		chunks = append(chunks, arr.Elements...)
	}
	listeners := map[string][]runtime.Value{}

	stream := runtime.NewObject()
	stream.Set("on", fn("on", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		event := runtime.ToStringValue(arg(args, 0))
		listeners[event] = append(listeners[event], arg(args, 1))
		return stream, nil
	}))
	stream.Set("resume", fn("resume", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		// Emission happens on the task queue, after the current frame.
		r.host.Sched.SetTimeout(func() {
			for _, chunk := range chunks {
				for _, l := range listeners["data"] {
					_, _ = r.host.Call(l, runtime.UNDEFINED, []runtime.Value{chunk})
				}
			}
			for _, l := range listeners["end"] {
				_, _ = r.host.Call(l, runtime.UNDEFINED, nil)
			}
		}, 0)
		return stream, nil
	}))
	stream.Set("read", fn("read", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(chunks) == 0 {
			return runtime.NULL, nil
		}
		chunk := chunks[0]
		chunks = chunks[1:]
		return chunk, nil
	}))
	return stream
}

// newWritable builds a writable stream buffering into memory; write
// returns false once the high-water mark is exceeded and 'drain' fires
// after the buffer empties on the task queue.
func (r *Registry) newWritable(highWaterMark int) *runtime.ObjectValue {
	var buf bytes.Buffer
	listeners := map[string][]runtime.Value{}

	stream := runtime.NewObject()
	stream.Set("on", fn("on", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		event := runtime.ToStringValue(arg(args, 0))
		listeners[event] = append(listeners[event], arg(args, 1))
		return stream, nil
	}))
	stream.Set("write", fn("write", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		buf.WriteString(runtime.ToStringValue(arg(args, 0)))
		if buf.Len() > highWaterMark {
			r.host.Sched.SetTimeout(func() {
				buf.Reset()
				for _, l := range listeners["drain"] {
					_, _ = r.host.Call(l, runtime.UNDEFINED, nil)
				}
			}, 0)
			return runtime.FALSE, nil
		}
		return runtime.TRUE, nil
	}))
	stream.Set("end", fn("end", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) > 0 {
			buf.WriteString(runtime.ToStringValue(args[0]))
		}
		for _, l := range listeners["finish"] {
			_, _ = r.host.Call(l, runtime.UNDEFINED, nil)
		}
		return runtime.UNDEFINED, nil
	}))
	stream.Set("contents", fn("contents", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.NewString(buf.String()), nil
	}))
	return stream
}
