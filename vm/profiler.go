package vm

import (
	"sort"
	"time"
)

// FunctionProfile holds the profiling data of one function name.
type FunctionProfile struct {
	Name  string
	Calls uint64
	Total time.Duration // wall time including callees
}

// Profiler counts function invocations and the time spent in them. It is
// enabled with Options.Profile; the template frame is not recorded.
type Profiler struct {
	profiles map[string]*FunctionProfile
}

// NewProfiler creates an empty profiler.
func NewProfiler() *Profiler {
	return &Profiler{profiles: make(map[string]*FunctionProfile)}
}

// Record adds one invocation of name that took elapsed.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	fp, ok := p.profiles[name]
	if !ok {
		fp = &FunctionProfile{Name: name}
		p.profiles[name] = fp
	}
	fp.Calls++
	fp.Total += elapsed
}

// Len returns the number of distinct functions recorded.
func (p *Profiler) Len() int { return len(p.profiles) }

// Hot returns up to n profiles, most called first. Ties are broken by
// total time, then by name. n <= 0 returns all of them.
func (p *Profiler) Hot(n int) []FunctionProfile {
	out := make([]FunctionProfile, 0, len(p.profiles))
	for _, fp := range p.profiles {
		out = append(out, *fp)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Calls != b.Calls {
			return a.Calls > b.Calls
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.Name < b.Name
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Reset forgets everything recorded.
func (p *Profiler) Reset() {
	clear(p.profiles)
}

// Profiler returns the interpreter's profiler, or nil when profiling is
// off.
func (interp *Interpreter) Profiler() *Profiler { return interp.profiler }
