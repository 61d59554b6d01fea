package vm

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileReadWrite(t *testing.T) {
	interp := newTestInterpreter(t)
	file := classValue(t, interp, "File")
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	if v := call(t, interp, file, "write", NewString(path), NewString("hello\n")); v.AsInt() != 6 {
		t.Errorf("write = %v, want 6 bytes", v)
	}
	if v := call(t, interp, file, "exists", NewString(path)); !v.AsBool() {
		t.Error("written file does not exist")
	}
	if v := call(t, interp, file, "size", NewString(path)); v.AsInt() != 6 {
		t.Errorf("size = %v", v)
	}
	if got := str(t, interp, call(t, interp, file, "read", NewString(path))); got != "hello\n" {
		t.Errorf("read = %q", got)
	}

	bin := interp.NewBinary([]byte{1, 2})
	defer bin.Release()
	call(t, interp, file, "write", NewString(path), bin)
	raw := call(t, interp, file, "read_bytes", NewString(path))
	defer raw.Release()
	if eq, _ := raw.Equals(interp, bin); !eq {
		t.Error("read_bytes does not return what was written")
	}

	call(t, interp, file, "remove", NewString(path))
	if v := call(t, interp, file, "exists", NewString(path)); v.AsBool() {
		t.Error("removed file still exists")
	}
	callFails(t, interp, interp.IOErrorClass, file, "read", NewString(path))
	callFails(t, interp, interp.IOErrorClass, file, "remove", NewString(path))
}

func TestFileDirectories(t *testing.T) {
	interp := newTestInterpreter(t)
	file := classValue(t, interp, "File")
	dir := t.TempDir()

	nested := filepath.Join(dir, "a", "b")
	call(t, interp, file, "mkdir", NewString(nested))
	if v := call(t, interp, file, "is_dir", NewString(nested)); !v.AsBool() {
		t.Fatal("mkdir did not create nested directories")
	}
	for _, name := range []string{"z.txt", "m.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	entries := call(t, interp, file, "list", NewString(dir))
	defer entries.Release()
	if got := str(t, interp, call(t, interp, entries, "to_list")); got != "[a, m.txt, z.txt]" {
		t.Errorf("list = %s", got)
	}
	callFails(t, interp, interp.IOErrorClass, file, "list", NewString(filepath.Join(dir, "missing")))
}

func TestFilePaths(t *testing.T) {
	interp := newTestInterpreter(t)
	file := classValue(t, interp, "File")

	tests := []struct {
		id   string
		args []Value
		want string
	}{
		{"join", []Value{NewString("a"), NewString("b"), NewString("c.txt")}, filepath.Join("a", "b", "c.txt")},
		{"basename", []Value{NewString("/x/y/z.tar.gz")}, "z.tar.gz"},
		{"dirname", []Value{NewString("/x/y/z.tar.gz")}, "/x/y"},
		{"extension", []Value{NewString("/x/y/z.tar.gz")}, ".gz"},
		{"extension", []Value{NewString("README")}, ""},
	}
	for _, tt := range tests {
		if got := str(t, interp, call(t, interp, file, tt.id, tt.args...)); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestFileOpenModes(t *testing.T) {
	interp := newTestInterpreter(t)
	file := classValue(t, interp, "File")
	path := filepath.Join(t.TempDir(), "log.txt")

	w := call(t, interp, file, "open", NewString(path), NewString("w"))
	call(t, interp, w, "write", NewString("one\n"))
	if v := call(t, interp, w, "is_readable"); v.AsBool() {
		t.Error("stream opened with 'w' is readable")
	}
	callFails(t, interp, interp.IOErrorClass, w, "read")
	call(t, interp, w, "close")
	w.Release()

	a := call(t, interp, file, "open", NewString(path), NewString("a"))
	call(t, interp, a, "write", NewInt(2))
	a.Release() // disposing the stream closes the file

	r := call(t, interp, file, "open", NewString(path))
	defer r.Release()
	if got := str(t, interp, call(t, interp, r, "read")); got != "one\n2" {
		t.Errorf("contents = %q", got)
	}

	ex := callFails(t, interp, interp.ValueErrorClass, file, "open", NewString(path), NewString("x"))
	if ex.Message() != "Invalid file mode 'x'" {
		t.Errorf("message = %q", ex.Message())
	}
	callFails(t, interp, interp.IOErrorClass, file, "open", NewString(filepath.Join(path, "nope")))
}

// ---------------------------------------------------------------------------
// Streams
// ---------------------------------------------------------------------------

func TestStreamReadLine(t *testing.T) {
	interp := newTestInterpreter(t)
	s := interp.NewStream(NewReaderStream(strings.NewReader("a\r\nb\n\nc")))
	defer s.Release()

	var lines []string
	for {
		v := call(t, interp, s, "read_line")
		if v.IsNull() {
			break
		}
		lines = append(lines, v.AsString())
	}
	if strings.Join(lines, "|") != "a|b||c" {
		t.Errorf("lines = %q", lines)
	}
}

func TestStreamLinesIterator(t *testing.T) {
	interp := newTestInterpreter(t)
	s := interp.NewStream(NewReaderStream(strings.NewReader("x\ny\n")))
	defer s.Release()

	// The first line goes through read_line; the iterator picks up after it.
	if got := str(t, interp, call(t, interp, s, "read_line")); got != "x" {
		t.Errorf("read_line = %q", got)
	}
	lines := call(t, interp, s, "lines")
	defer lines.Release()
	if got := str(t, interp, call(t, interp, lines, "to_list")); got != "[y]" {
		t.Errorf("lines = %s", got)
	}
}

func TestStreamReadCounts(t *testing.T) {
	interp := newTestInterpreter(t)
	s := interp.NewStream(NewReaderStream(strings.NewReader("abcdef")))
	defer s.Release()

	if got := str(t, interp, call(t, interp, s, "read", NewInt(4))); got != "abcd" {
		t.Errorf("read(4) = %q", got)
	}
	b := call(t, interp, s, "read_bytes", NewInt(10))
	defer b.Release()
	if v := call(t, interp, b, "length"); v.AsInt() != 2 {
		t.Errorf("short read returned %v bytes", v)
	}
	if got := str(t, interp, call(t, interp, s, "read")); got != "" {
		t.Errorf("read at end = %q", got)
	}
}

type closeRecorder struct {
	bytes.Buffer
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

var _ io.WriteCloser = (*closeRecorder)(nil)

func TestStreamWriteAndClose(t *testing.T) {
	interp := newTestInterpreter(t)
	var sink closeRecorder
	s := interp.NewStream(NewWriterStream(&sink))
	defer s.Release()

	call(t, interp, s, "write", NewString("n="))
	call(t, interp, s, "write", NewFloat(1.5))
	if sink.String() != "n=1.5" {
		t.Errorf("written = %q", sink.String())
	}
	if v := call(t, interp, s, "is_writable"); !v.AsBool() {
		t.Error("writer stream is not writable")
	}
	callFails(t, interp, interp.IOErrorClass, s, "read_line")

	call(t, interp, s, "close")
	call(t, interp, s, "close")
	if !sink.closed {
		t.Error("close did not reach the writer")
	}
	if v := call(t, interp, s, "is_closed"); !v.AsBool() {
		t.Error("is_closed is false after close")
	}
	ex := callFails(t, interp, interp.IOErrorClass, s, "write", NewString("late"))
	if ex.Message() != "Stream is closed" {
		t.Errorf("message = %q", ex.Message())
	}
}
