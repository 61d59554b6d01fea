package vm

import (
	"io"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// ---------------------------------------------------------------------------
// Interpreter: state of one script execution environment
// ---------------------------------------------------------------------------

const (
	// DefaultMaxDepth bounds nested calls.
	DefaultMaxDepth = 256

	// DefaultGCThreshold is the number of allocations between automatic
	// collections.
	DefaultGCThreshold = 1024
)

// Module installs classes or globals into a fresh interpreter. Builtin
// classes are modules too.
type Module func(interp *Interpreter)

// Options configures an Interpreter. Zero fields take defaults.
type Options struct {
	MaxDepth    int
	GCThreshold int

	// Output receives template text and print output. Defaults to
	// io.Discard.
	Output io.Writer

	// EscapeOutput makes expression output XML-escaped unless the node
	// says otherwise.
	EscapeOutput bool

	// Sandbox leaves out the File class.
	Sandbox bool

	// Profile records call counts and timings per function.
	Profile bool

	// Logger overrides the "quill.vm" logger.
	Logger commonlog.Logger

	// Modules run after the builtins, in order.
	Modules []Module
}

// Interpreter holds the heap, the class table, the scope and frame chains
// and the pending exception. It is not safe for concurrent use; run one
// interpreter per goroutine.
type Interpreter struct {
	Classes *ClassTable

	heap      *Heap
	globals   *Scope
	scope     *Scope
	frame     *Frame
	depth     int
	scripts   int
	exception Value
	pinned    []Value
	output    io.Writer
	opts      Options
	session   string
	log       commonlog.Logger
	profiler  *Profiler

	// Well-known classes
	ObjectClass   *Class
	ClassClass    *Class
	NullClass     *Class
	BoolClass     *Class
	NumClass      *Class
	IntClass      *Class
	FloatClass    *Class
	StringClass   *Class
	BinaryClass   *Class
	ListClass     *Class
	MapClass      *Class
	RangeClass    *Class
	IteratorClass *Class
	FunctionClass *Class
	StreamClass   *Class
	FileClass     *Class

	// Exception hierarchy
	ExceptionClass         *Class
	TypeErrorClass         *Class
	ValueErrorClass        *Class
	NameErrorClass         *Class
	AttributeErrorClass    *Class
	StateErrorClass        *Class
	IOErrorClass           *Class
	SyntaxErrorClass       *Class
	StopIterationClass     *Class
	ArithmeticErrorClass   *Class
	ZeroDivisionErrorClass *Class
	LookupErrorClass       *Class
	IndexErrorClass        *Class
	KeyErrorClass          *Class
}

// NewInterpreter creates and bootstraps an interpreter.
func NewInterpreter(opts Options) *Interpreter {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.GCThreshold <= 0 {
		opts.GCThreshold = DefaultGCThreshold
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	log := opts.Logger
	if log == nil {
		log = commonlog.GetLogger("quill.vm")
	}

	interp := &Interpreter{
		Classes: NewClassTable(),
		heap:    NewHeap(),
		output:  opts.Output,
		opts:    opts,
		session: uuid.NewString(),
	}
	interp.log = commonlog.NewKeyValueLogger(log, "session", interp.session)
	if opts.Profile {
		interp.profiler = NewProfiler()
	}
	interp.globals = interp.NewScope(nil)
	interp.scope = interp.globals

	interp.bootstrap()

	for _, module := range opts.Modules {
		module(interp)
	}
	interp.log.Debug("interpreter ready",
		"classes", interp.Classes.Len(), "objects", interp.heap.Len())
	return interp
}

// ---------------------------------------------------------------------------
// Bootstrap: Create core classes
// ---------------------------------------------------------------------------

func (interp *Interpreter) bootstrap() {
	// Phase 1: Object and Class refer to each other
	interp.ObjectClass = interp.createBootstrapClass("Object", nil)
	interp.ClassClass = interp.createBootstrapClass("Class", interp.ObjectClass)
	interp.ObjectClass.cls = interp.ClassClass
	interp.ClassClass.cls = interp.ClassClass
	interp.ClassClass.Retain()
	interp.ClassClass.Retain()
	interp.ObjectClass.SetAllocator(allocateCustomObject)

	// Phase 2: Function must exist before any method is added
	interp.FunctionClass = interp.createValueClass("Function", interp.ObjectClass)

	// Phase 3: Primitive value classes
	interp.NullClass = interp.createValueClass("Null", interp.ObjectClass)
	interp.BoolClass = interp.createValueClass("Bool", interp.ObjectClass)
	interp.NumClass = interp.createValueClass("Num", interp.ObjectClass)
	interp.IntClass = interp.createValueClass("Int", interp.NumClass)
	interp.FloatClass = interp.createValueClass("Float", interp.NumClass)
	interp.StringClass = interp.createValueClass("String", interp.ObjectClass)

	// Phase 4: Boxed builtin classes
	interp.BinaryClass = interp.createClass("Binary", interp.ObjectClass, allocateBinary)
	interp.ListClass = interp.createClass("List", interp.ObjectClass, allocateList)
	interp.MapClass = interp.createClass("Map", interp.ObjectClass, allocateMap)
	interp.RangeClass = interp.createClass("Range", interp.ObjectClass, allocateRange)
	interp.IteratorClass = interp.createClass("Iterator", interp.ObjectClass, allocateIterator)
	interp.StreamClass = interp.createValueClass("Stream", interp.ObjectClass)

	// Phase 5: Exception hierarchy
	interp.bootstrapExceptionClasses()

	// Phase 6: Register primitives on core classes
	interp.registerObjectPrimitives()
	interp.registerClassPrimitives()
	interp.registerFunctionPrimitives()
	interp.registerNullPrimitives()
	interp.registerBoolPrimitives()
	interp.registerNumPrimitives()
	interp.registerIntPrimitives()
	interp.registerFloatPrimitives()
	interp.registerStringPrimitives()
	interp.registerBinaryPrimitives()
	interp.registerListPrimitives()
	interp.registerMapPrimitives()
	interp.registerRangePrimitives()
	interp.registerIteratorPrimitives()
	interp.registerExceptionPrimitives()
	interp.registerStreamPrimitives()

	// Phase 7: Optional modules
	if !interp.opts.Sandbox {
		interp.registerFilePrimitives()
	}
	interp.registerCodecPrimitives()
	interp.registerUuidPrimitives()
	interp.registerGlobalFunctions()
}

// createBootstrapClass creates a class before Class itself exists.
func (interp *Interpreter) createBootstrapClass(name string, parent *Class) *Class {
	c := &Class{name: name, parent: parent}
	if parent != nil {
		parent.Retain()
	}
	c.initObject(interp, nil, c)
	interp.registerClass(c)
	return c
}

// createClass creates and registers a class with the given allocator.
func (interp *Interpreter) createClass(name string, parent *Class, allocator Allocator) *Class {
	c := NewClass(interp, name, parent)
	c.SetAllocator(allocator)
	interp.registerClass(c)
	return c
}

// createValueClass creates a class whose instances are never allocated by
// calling the class.
func (interp *Interpreter) createValueClass(name string, parent *Class) *Class {
	return interp.createClass(name, parent, nil)
}

// DefineClass creates a class, registers it and binds it as a global.
// Modules use it to add builtin classes.
func (interp *Interpreter) DefineClass(name string, parent *Class, allocator Allocator) *Class {
	if parent == nil {
		parent = interp.ObjectClass
	}
	return interp.createClass(name, parent, allocator)
}

func (interp *Interpreter) registerClass(c *Class) {
	interp.Classes.Register(c)
	v := NewObject(c)
	interp.globals.SetVariable(c.name, v)
	v.Release()
}

// DefineFunction binds a native function as a global.
func (interp *Interpreter) DefineFunction(name string, arity int, fn NativeFunc) {
	m := newNativeMethod(interp, nil, name, arity, true, fn)
	v := NewObject(m)
	interp.globals.SetVariable(name, v)
	v.Release()
}

// SetGlobal binds a copy of value in the global scope.
func (interp *Interpreter) SetGlobal(name string, value Value) {
	interp.globals.SetVariable(name, value)
}

// LookupClass finds a builtin class by name.
func (interp *Interpreter) LookupClass(name string) *Class {
	return interp.Classes.Lookup(name)
}

// Session returns the unique id of this interpreter, used in log lines.
func (interp *Interpreter) Session() string { return interp.session }

// Logger returns the interpreter's logger.
func (interp *Interpreter) Logger() commonlog.Logger { return interp.log }

// Heap returns the object heap.
func (interp *Interpreter) Heap() *Heap { return interp.heap }

// Options returns the options the interpreter was created with.
func (interp *Interpreter) Options() Options { return interp.opts }

// ---------------------------------------------------------------------------
// Garbage collection
// ---------------------------------------------------------------------------

// Collect runs the tracing collector. It must only be called between
// statements, when no temporaries are held by Go code.
func (interp *Interpreter) Collect() HeapStats {
	stats := interp.heap.Collect(interp.markRoots)
	interp.log.Debug("collected garbage",
		"live", stats.Live, "marked", stats.Marked, "swept", stats.Swept,
		"collections", stats.Collections, "duration", stats.Duration)
	return stats
}

// EnterScript marks the start of a statement list. Lists nest when a
// script is used as the body of a compound statement.
func (interp *Interpreter) EnterScript() { interp.scripts++ }

// LeaveScript marks the end of the statement list begun by EnterScript.
func (interp *Interpreter) LeaveScript() { interp.scripts-- }

// MaybeCollect collects when enough objects were allocated since the
// previous collection. Only the outermost statement list at template level
// collects, since enclosing statements hold temporaries in Go locals.
func (interp *Interpreter) MaybeCollect() {
	if interp.depth > 1 || interp.scripts > 1 {
		return
	}
	if interp.heap.Allocations() >= interp.opts.GCThreshold {
		interp.Collect()
	}
}

func (interp *Interpreter) markRoots() {
	interp.Classes.mark()
	if interp.globals != nil {
		markCounted(interp.globals)
	}
	if interp.scope != nil {
		markCounted(interp.scope)
	}
	if interp.frame != nil {
		markCounted(interp.frame)
	}
	interp.exception.Mark()
	for _, v := range interp.pinned {
		v.Mark()
	}
}

// Pin keeps a copy of v alive across collections. Hosts pin values they
// hold between runs of the collector.
func (interp *Interpreter) Pin(v Value) {
	interp.pinned = append(interp.pinned, v.Copy())
}

// Unpin drops one pin taken on v.
func (interp *Interpreter) Unpin(v Value) {
	for i := range interp.pinned {
		if interp.pinned[i].Identical(v) {
			interp.pinned[i].Release()
			interp.pinned = append(interp.pinned[:i], interp.pinned[i+1:]...)
			return
		}
	}
}

// Shutdown unwinds every frame and destroys all objects. Open streams are
// closed as their objects are disposed.
func (interp *Interpreter) Shutdown() {
	for interp.frame != nil {
		interp.PopFrame()
	}
	for interp.scope != nil && interp.scope != interp.globals {
		interp.PopScope()
	}
	interp.ClearException()
	releaseAll(interp.pinned)
	interp.pinned = nil
	if interp.globals != nil {
		g := interp.globals
		interp.globals = nil
		interp.scope = nil
		g.Release()
	}
	interp.Classes.clear()
	interp.heap.Collect(func() {})
	interp.log.Debug("interpreter shut down")
}
