package vm

// ---------------------------------------------------------------------------
// Result: outcome of executing a node
// ---------------------------------------------------------------------------

// ResultKind classifies how a node finished.
type ResultKind uint8

const (
	// ResultError means an exception is pending on the interpreter.
	ResultError ResultKind = iota
	ResultSuccess
	ResultReturn
	ResultBreak
	ResultContinue
)

func (k ResultKind) String() string {
	switch k {
	case ResultError:
		return "error"
	case ResultSuccess:
		return "success"
	case ResultReturn:
		return "return"
	case ResultBreak:
		return "break"
	case ResultContinue:
		return "continue"
	}
	return "unknown"
}

// Result is returned by every node. Value is set for successful
// expressions and for returns carrying a value; it is owned by whoever
// receives the Result.
type Result struct {
	Kind  ResultKind
	Value Value
}

// SuccessResult wraps an owned value.
func SuccessResult(v Value) Result { return Result{Kind: ResultSuccess, Value: v} }

// EmptyResult is a success without a value.
func EmptyResult() Result { return Result{Kind: ResultSuccess} }

// ErrorResult signals a pending exception.
func ErrorResult() Result { return Result{Kind: ResultError} }

// ReturnResult leaves the current function with v, which may be the Error
// variant for a bare return.
func ReturnResult(v Value) Result { return Result{Kind: ResultReturn, Value: v} }

// BreakResult leaves the innermost loop.
func BreakResult() Result { return Result{Kind: ResultBreak} }

// ContinueResult starts the next iteration of the innermost loop.
func ContinueResult() Result { return Result{Kind: ResultContinue} }

// ValueResult converts a call outcome: the Error variant becomes an error
// result, anything else a success.
func ValueResult(v Value) Result {
	if v.IsError() {
		return ErrorResult()
	}
	return SuccessResult(v)
}

// Is reports whether the result has the given kind.
func (r Result) Is(kind ResultKind) bool { return r.Kind == kind }

// HasValue reports whether the result carries a value.
func (r Result) HasValue() bool { return !r.Value.IsError() }

// Release drops the carried value.
func (r *Result) Release() {
	r.Value.Release()
}
