// Package config handles quill.toml interpreter configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/quill/vm"
)

// FileName is the name of the configuration file.
const FileName = "quill.toml"

// Config represents a quill.toml file.
type Config struct {
	Interpreter Interpreter `toml:"interpreter"`
	Output      Output      `toml:"output"`
	Log         Log         `toml:"log"`

	// Dir is the directory containing the quill.toml file (set at load time).
	Dir string `toml:"-"`
}

// Interpreter configures the limits of each interpreter.
type Interpreter struct {
	MaxDepth    int  `toml:"max-depth"`
	GCThreshold int  `toml:"gc-threshold"`
	Sandbox     bool `toml:"sandbox"`
	Profile     bool `toml:"profile"`
}

// Output configures template output.
type Output struct {
	Escape bool `toml:"escape"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no quill.toml exists.
func Default() *Config {
	return &Config{
		Interpreter: Interpreter{
			MaxDepth:    vm.DefaultMaxDepth,
			GCThreshold: vm.DefaultGCThreshold,
		},
		Output: Output{Escape: true},
	}
}

// Parse decodes quill.toml content over the defaults.
func Parse(data []byte) (*Config, error) {
	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	if c.Interpreter.MaxDepth < 0 {
		return nil, fmt.Errorf("max-depth must not be negative, got %d", c.Interpreter.MaxDepth)
	}
	if c.Interpreter.GCThreshold < 0 {
		return nil, fmt.Errorf("gc-threshold must not be negative, got %d", c.Interpreter.GCThreshold)
	}
	return c, nil
}

// Load parses the quill.toml file in dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find a quill.toml file and loads
// it. It returns the defaults if there is none.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Options converts the configuration into interpreter options.
func (c *Config) Options() vm.Options {
	return vm.Options{
		MaxDepth:     c.Interpreter.MaxDepth,
		GCThreshold:  c.Interpreter.GCThreshold,
		EscapeOutput: c.Output.Escape,
		Sandbox:      c.Interpreter.Sandbox,
		Profile:      c.Interpreter.Profile,
	}
}

// LogPath returns the log file path, resolved against Dir, or nil to log
// to stderr.
func (c *Config) LogPath() *string {
	if c.Log.File == "" {
		return nil
	}
	path := c.Log.File
	if !filepath.IsAbs(path) && c.Dir != "" {
		path = filepath.Join(c.Dir, path)
	}
	return &path
}
