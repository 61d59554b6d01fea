package vm

import (
	"os"
	"path/filepath"
)

// ---------------------------------------------------------------------------
// File Primitives
// ---------------------------------------------------------------------------

// fileModes maps open modes to os flags and stream capabilities.
var fileModes = map[string]struct {
	flag     int
	readable bool
	writable bool
}{
	"r":  {os.O_RDONLY, true, false},
	"w":  {os.O_WRONLY | os.O_CREATE | os.O_TRUNC, false, true},
	"a":  {os.O_WRONLY | os.O_CREATE | os.O_APPEND, false, true},
	"r+": {os.O_RDWR, true, true},
	"w+": {os.O_RDWR | os.O_CREATE | os.O_TRUNC, true, true},
}

// registerFilePrimitives adds the File class. Sandboxed interpreters do
// not get it.
func (interp *Interpreter) registerFilePrimitives() {
	c := interp.createValueClass("File", interp.ObjectClass)
	interp.FileClass = c

	ioError := func(interp *Interpreter, err error) Value {
		interp.Throw(interp.IOErrorClass, err.Error())
		return ErrorValue()
	}

	// open(path, mode) - a Stream; mode defaults to "r"
	c.AddStaticMethod(interp, "open", -2, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		mode := "r"
		if len(args) > 1 {
			if mode, ok = interp.ToStr(args[1]); !ok {
				return ErrorValue()
			}
		}
		m, known := fileModes[mode]
		if !known {
			interp.Throw(interp.ValueErrorClass, "Invalid file mode '"+mode+"'")
			return ErrorValue()
		}
		f, err := os.OpenFile(path, m.flag, 0644)
		if err != nil {
			return ioError(interp, err)
		}
		interp.log.Debug("opened file", "path", path, "mode", mode)
		return interp.NewStream(NewFileStream(f, m.readable, m.writable))
	})

	c.AddStaticMethod(interp, "exists", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		_, err := os.Stat(path)
		return NewBool(err == nil)
	})

	c.AddStaticMethod(interp, "is_dir", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		info, err := os.Stat(path)
		return NewBool(err == nil && info.IsDir())
	})

	c.AddStaticMethod(interp, "size", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		info, err := os.Stat(path)
		if err != nil {
			return ioError(interp, err)
		}
		return NewInt(info.Size())
	})

	// read(path) - whole file as text
	c.AddStaticMethod(interp, "read", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ioError(interp, err)
		}
		return NewString(string(data))
	})

	c.AddStaticMethod(interp, "read_bytes", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ioError(interp, err)
		}
		return interp.NewBinary(data)
	})

	// write(path, content) - replace the file; Binary is written raw
	c.AddStaticMethod(interp, "write", 2, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		var data []byte
		if b, isBinary := ObjectAs[*BinaryObject](args[1]); isBinary {
			data = b.data
		} else {
			text, ok := args[1].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			data = []byte(text)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return ioError(interp, err)
		}
		return NewInt(int64(len(data)))
	})

	c.AddStaticMethod(interp, "remove", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		if err := os.Remove(path); err != nil {
			return ioError(interp, err)
		}
		return NullValue()
	})

	c.AddStaticMethod(interp, "mkdir", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return ioError(interp, err)
		}
		return NullValue()
	})

	// list(path) - iterator over entry names, sorted
	c.AddStaticMethod(interp, "list", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return ioError(interp, err)
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return interp.NewIterator(&directoryGenerator{names: names})
	})

	c.AddStaticMethod(interp, "join", -2, func(interp *Interpreter, args []Value) Value {
		parts := make([]string, len(args))
		for i, arg := range args {
			part, ok := interp.ToStr(arg)
			if !ok {
				return ErrorValue()
			}
			parts[i] = part
		}
		return NewString(filepath.Join(parts...))
	})

	c.AddStaticMethod(interp, "basename", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		return NewString(filepath.Base(path))
	})

	c.AddStaticMethod(interp, "dirname", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		return NewString(filepath.Dir(path))
	})

	c.AddStaticMethod(interp, "extension", 1, func(interp *Interpreter, args []Value) Value {
		path, ok := interp.ToStr(args[0])
		if !ok {
			return ErrorValue()
		}
		return NewString(filepath.Ext(path))
	})
}

// directoryGenerator yields precomputed directory entry names.
type directoryGenerator struct {
	names []string
	index int
}

func (g *directoryGenerator) Generate(interp *Interpreter) Result {
	if g.index >= len(g.names) {
		return BreakResult()
	}
	name := g.names[g.index]
	g.index++
	return SuccessResult(NewString(name))
}

func (g *directoryGenerator) Mark()    {}
func (g *directoryGenerator) Dispose() {}
