// Package engine runs quill templates for a host program. Each run gets a
// fresh interpreter configured from a quill.toml file, so nothing a
// template does survives into the next run.
package engine

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/quill/ast"
	"github.com/chazu/quill/config"
	"github.com/chazu/quill/vm"
)

// Engine runs scripts one at a time.
type Engine struct {
	mu      sync.Mutex
	cfg     *config.Config
	modules []vm.Module
	log     commonlog.Logger
	runs    int
}

// New creates an engine. Modules are registered into every interpreter
// after the builtins. A nil cfg means config.Default().
func New(cfg *config.Config, modules ...vm.Module) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	commonlog.Configure(cfg.Log.Verbosity, cfg.LogPath())
	e := &Engine{
		cfg:     cfg,
		modules: modules,
		log:     commonlog.GetLogger("quill.engine"),
	}
	e.log.Debug("engine created",
		"max-depth", cfg.Interpreter.MaxDepth, "sandbox", cfg.Interpreter.Sandbox, "modules", len(modules))
	return e
}

// Open finds the quill.toml governing dir and creates an engine from it.
func Open(dir string, modules ...vm.Module) (*Engine, error) {
	cfg, err := config.FindAndLoad(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot load configuration: %w", err)
	}
	return New(cfg, modules...), nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Run executes script, writing template output to out.
func (e *Engine) Run(script ast.Node, out io.Writer) error {
	return e.RunWith(script, out, nil)
}

// RunWith executes script with vars bound as globals. Values in vars must
// be plain data: nil, booleans, numbers, strings, []byte, []any and maps.
// An uncaught exception is returned as a *ScriptError.
func (e *Engine) RunWith(script ast.Node, out io.Writer, vars map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs++

	opts := e.cfg.Options()
	opts.Output = out
	opts.Modules = e.modules
	interp := vm.NewInterpreter(opts)
	defer interp.Shutdown()

	log := commonlog.NewKeyValueLogger(e.log, "session", interp.Session(), "run", e.runs)
	start := time.Now()

	if err := bindGlobals(interp, vars); err != nil {
		return err
	}

	result := interp.Run(script)
	if result.Kind == vm.ResultError {
		err := newScriptError(interp)
		interp.ClearException()
		log.Info("script failed", "error", err.Error(), "duration", time.Since(start))
		logProfile(log, interp.Profiler())
		return err
	}
	result.Release()
	log.Debug("script finished", "duration", time.Since(start), "objects", interp.Heap().Len())
	logProfile(log, interp.Profiler())
	return nil
}

// hotFunctions is how many profile entries a run logs.
const hotFunctions = 10

func logProfile(log commonlog.Logger, p *vm.Profiler) {
	if p == nil {
		return
	}
	for _, fp := range p.Hot(hotFunctions) {
		log.Info("profile", "function", fp.Name, "calls", fp.Calls, "total", fp.Total)
	}
}

// bindGlobals converts vars in name order so conversion errors are
// reported deterministically.
func bindGlobals(interp *vm.Interpreter, vars map[string]any) error {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := interp.FromNative(vars[name])
		if v.IsError() {
			err := newScriptError(interp)
			interp.ClearException()
			return fmt.Errorf("cannot bind variable %q: %w", name, err)
		}
		interp.SetGlobal(name, v)
		v.Release()
	}
	return nil
}
