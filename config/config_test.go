package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/quill/vm"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[interpreter]
max-depth = 64
gc-threshold = 10
sandbox = true
profile = true

[output]
escape = false

[log]
verbosity = 2
file = "quill.log"
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Interpreter.MaxDepth != 64 {
		t.Errorf("max-depth = %d, want 64", c.Interpreter.MaxDepth)
	}
	if c.Interpreter.GCThreshold != 10 {
		t.Errorf("gc-threshold = %d, want 10", c.Interpreter.GCThreshold)
	}
	if !c.Interpreter.Sandbox || !c.Interpreter.Profile {
		t.Errorf("interpreter = %+v, want sandbox and profile", c.Interpreter)
	}
	if c.Output.Escape {
		t.Error("escape = true, want false")
	}
	if c.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", c.Log.Verbosity)
	}
	abs, _ := filepath.Abs(dir)
	if c.Dir != abs {
		t.Errorf("Dir = %q, want %q", c.Dir, abs)
	}
	if p := c.LogPath(); p == nil || *p != filepath.Join(abs, "quill.log") {
		t.Errorf("LogPath() = %v", p)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte("[log]\nverbosity = 1\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Interpreter.MaxDepth != vm.DefaultMaxDepth || c.Interpreter.GCThreshold != vm.DefaultGCThreshold {
		t.Errorf("interpreter = %+v, want defaults", c.Interpreter)
	}
	if !c.Output.Escape {
		t.Error("escape default lost")
	}
	if c.LogPath() != nil {
		t.Error("LogPath() without a file should log to stderr")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[interpreter\n", ""},
		{"unknown key", "[interpreter]\ndepth = 3\n", "interpreter.depth"},
		{"negative depth", "[interpreter]\nmax-depth = -1\n", "max-depth"},
		{"negative threshold", "[interpreter]\ngc-threshold = -5\n", "gc-threshold"},
		{"wrong type", "[output]\nescape = \"yes\"\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want a wrapped not-exist error", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", FileName), []byte("[interpreter]\nmax-depth = 9\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Interpreter.MaxDepth != 9 {
		t.Errorf("max-depth = %d, want the file's 9", c.Interpreter.MaxDepth)
	}
	if c.Dir != filepath.Join(root, "a") {
		t.Errorf("Dir = %q", c.Dir)
	}
}

func TestOptions(t *testing.T) {
	c := Default()
	c.Interpreter.Sandbox = true
	opts := c.Options()

	if opts.MaxDepth != vm.DefaultMaxDepth || !opts.EscapeOutput || !opts.Sandbox {
		t.Errorf("Options() = %+v", opts)
	}

	interp := vm.NewInterpreter(opts)
	defer interp.Shutdown()
	if interp.FileClass != nil {
		t.Error("sandbox option did not reach the interpreter")
	}
	if interp.Profiler() != nil {
		t.Error("profiling is on by default")
	}
}
