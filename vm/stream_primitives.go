package vm

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// Streams
// ---------------------------------------------------------------------------

// Stream is a byte stream exposed to scripts.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
	IsReadable() bool
	IsWritable() bool
}

var errStreamMode = errors.New("operation not supported by stream")

type fileStream struct {
	f        *os.File
	readable bool
	writable bool
}

// NewFileStream wraps an open file.
func NewFileStream(f *os.File, readable, writable bool) Stream {
	return &fileStream{f: f, readable: readable, writable: writable}
}

func (s *fileStream) Read(p []byte) (int, error)  { return s.f.Read(p) }
func (s *fileStream) Write(p []byte) (int, error) { return s.f.Write(p) }
func (s *fileStream) Close() error                { return s.f.Close() }
func (s *fileStream) IsReadable() bool            { return s.readable }
func (s *fileStream) IsWritable() bool            { return s.writable }

type readerStream struct{ r io.Reader }

// NewReaderStream wraps a reader. Closing the stream closes r when it is
// an io.Closer.
func NewReaderStream(r io.Reader) Stream { return &readerStream{r: r} }

func (s *readerStream) Read(p []byte) (int, error)  { return s.r.Read(p) }
func (s *readerStream) Write(p []byte) (int, error) { return 0, errStreamMode }
func (s *readerStream) IsReadable() bool            { return true }
func (s *readerStream) IsWritable() bool            { return false }
func (s *readerStream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type writerStream struct{ w io.Writer }

// NewWriterStream wraps a writer. Closing the stream closes w when it is
// an io.Closer.
func NewWriterStream(w io.Writer) Stream { return &writerStream{w: w} }

func (s *writerStream) Read(p []byte) (int, error)  { return 0, errStreamMode }
func (s *writerStream) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *writerStream) IsReadable() bool            { return false }
func (s *writerStream) IsWritable() bool            { return true }
func (s *writerStream) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// StreamObject is the script side of a Stream. Disposing it closes the
// stream.
type StreamObject struct {
	BaseObject
	stream Stream
	reader *bufio.Reader
	closed bool
}

// NewStream wraps s for scripts.
func (interp *Interpreter) NewStream(s Stream) Value {
	obj := &StreamObject{stream: s}
	obj.initObject(interp, interp.StreamClass, obj)
	return NewObject(obj)
}

func (s *StreamObject) bufferedReader() *bufio.Reader {
	if s.reader == nil {
		s.reader = bufio.NewReader(s.stream)
	}
	return s.reader
}

// Close closes the underlying stream once.
func (s *StreamObject) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

// Dispose closes the stream.
func (s *StreamObject) Dispose() {
	s.BaseObject.Dispose()
	s.Close()
}

func (s *StreamObject) checkReadable(interp *Interpreter) bool {
	switch {
	case s.closed:
		interp.Throw(interp.IOErrorClass, "Stream is closed")
	case !s.stream.IsReadable():
		interp.Throw(interp.IOErrorClass, "Stream is not readable")
	default:
		return true
	}
	return false
}

func (s *StreamObject) checkWritable(interp *Interpreter) bool {
	switch {
	case s.closed:
		interp.Throw(interp.IOErrorClass, "Stream is closed")
	case !s.stream.IsWritable():
		interp.Throw(interp.IOErrorClass, "Stream is not writable")
	default:
		return true
	}
	return false
}

// read reads n bytes, or everything when n is negative.
func (s *StreamObject) read(interp *Interpreter, n int64) ([]byte, bool) {
	if !s.checkReadable(interp) {
		return nil, false
	}
	r := s.bufferedReader()
	var data []byte
	var err error
	if n < 0 {
		data, err = io.ReadAll(r)
	} else {
		data = make([]byte, n)
		var got int
		got, err = io.ReadFull(r, data)
		data = data[:got]
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		interp.Throw(interp.IOErrorClass, err.Error())
		return nil, false
	}
	return data, true
}

// readLine returns the next line without its terminator. eof is true when
// nothing was left to read.
func (s *StreamObject) readLine(interp *Interpreter) (line string, eof, ok bool) {
	if !s.checkReadable(interp) {
		return "", false, false
	}
	text, err := s.bufferedReader().ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		interp.Throw(interp.IOErrorClass, err.Error())
		return "", false, false
	}
	if text == "" && err != nil {
		return "", true, true
	}
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	return text, false, true
}

// ---------------------------------------------------------------------------
// Stream Primitives
// ---------------------------------------------------------------------------

func (interp *Interpreter) registerStreamPrimitives() {
	c := interp.StreamClass
	streamOf := func(v Value) *StreamObject { return v.AsObject().(*StreamObject) }
	count := func(args []Value) (int64, bool) {
		if len(args) < 2 || args[1].IsNull() {
			return -1, true
		}
		return interp.ToInt(args[1])
	}

	// read(n) - text of up to n bytes, everything when n is omitted
	c.AddMethod(interp, "read", -1, func(interp *Interpreter, args []Value) Value {
		n, ok := count(args)
		if !ok {
			return ErrorValue()
		}
		data, ok := streamOf(args[0]).read(interp, n)
		if !ok {
			return ErrorValue()
		}
		return NewString(string(data))
	})

	c.AddMethod(interp, "read_bytes", -1, func(interp *Interpreter, args []Value) Value {
		n, ok := count(args)
		if !ok {
			return ErrorValue()
		}
		data, ok := streamOf(args[0]).read(interp, n)
		if !ok {
			return ErrorValue()
		}
		return interp.NewBinary(data)
	})

	// read_line - null at end of stream
	c.AddMethod(interp, "read_line", 0, func(interp *Interpreter, args []Value) Value {
		line, eof, ok := streamOf(args[0]).readLine(interp)
		if !ok {
			return ErrorValue()
		}
		if eof {
			return NullValue()
		}
		return NewString(line)
	})

	// write(value) - Binary is written raw, anything else as text
	c.AddMethod(interp, "write", 1, func(interp *Interpreter, args []Value) Value {
		s := streamOf(args[0])
		if !s.checkWritable(interp) {
			return ErrorValue()
		}
		var data []byte
		if b, ok := ObjectAs[*BinaryObject](args[1]); ok {
			data = b.data
		} else {
			text, ok := args[1].ToString(interp)
			if !ok {
				return ErrorValue()
			}
			data = []byte(text)
		}
		n, err := s.stream.Write(data)
		if err != nil {
			interp.Throw(interp.IOErrorClass, err.Error())
			return ErrorValue()
		}
		return NewInt(int64(n))
	})

	c.AddMethod(interp, "close", 0, func(interp *Interpreter, args []Value) Value {
		if err := streamOf(args[0]).Close(); err != nil {
			interp.Throw(interp.IOErrorClass, err.Error())
			return ErrorValue()
		}
		return NullValue()
	})

	c.AddMethod(interp, "is_closed", 0, func(interp *Interpreter, args []Value) Value {
		return NewBool(streamOf(args[0]).closed)
	})

	c.AddMethod(interp, "is_readable", 0, func(interp *Interpreter, args []Value) Value {
		s := streamOf(args[0])
		return NewBool(!s.closed && s.stream.IsReadable())
	})

	c.AddMethod(interp, "is_writable", 0, func(interp *Interpreter, args []Value) Value {
		s := streamOf(args[0])
		return NewBool(!s.closed && s.stream.IsWritable())
	})

	// lines - iterator over the remaining lines
	c.AddMethod(interp, "lines", 0, func(interp *Interpreter, args []Value) Value {
		if !streamOf(args[0]).checkReadable(interp) {
			return ErrorValue()
		}
		return interp.NewIterator(&lineGenerator{stream: args[0].Copy()})
	})
	c.AddMethodAlias("__iter__", "lines")
}

// lineGenerator yields the lines of a stream.
type lineGenerator struct {
	stream Value
}

func (g *lineGenerator) Generate(interp *Interpreter) Result {
	s, ok := ObjectAs[*StreamObject](g.stream)
	if !ok {
		return BreakResult()
	}
	line, eof, ok := s.readLine(interp)
	if !ok {
		return ErrorResult()
	}
	if eof {
		return BreakResult()
	}
	return SuccessResult(NewString(line))
}

func (g *lineGenerator) Mark()    { g.stream.Mark() }
func (g *lineGenerator) Dispose() { g.stream.Release() }
