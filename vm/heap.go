package vm

import "time"

// ---------------------------------------------------------------------------
// Heap: object tracking and the tracing collector
// ---------------------------------------------------------------------------

// HeapStats holds statistics from a single collection.
type HeapStats struct {
	Live        int
	Marked      int
	Swept       int
	Collections uint64
	Duration    time.Duration
	Timestamp   time.Time
}

// Heap tracks every object allocated by one interpreter. Reference counting
// reclaims most objects as soon as their last Value is released; Collect
// reclaims the cycles that counting cannot see.
//
// A Heap is not safe for concurrent use.
type Heap struct {
	objects     map[*CoreObject]Counted
	nextID      uint64
	marks       int
	allocations int
	collections uint64
	lastStats   HeapStats
}

// NewHeap creates an empty heap.
func NewHeap() *Heap {
	return &Heap{
		objects: make(map[*CoreObject]Counted),
	}
}

func (h *Heap) track(obj Counted) {
	core := obj.Core()
	h.nextID++
	core.id = h.nextID
	h.objects[core] = obj
	h.allocations++
}

func (h *Heap) untrack(core *CoreObject) {
	delete(h.objects, core)
}

// Len returns the number of objects currently alive.
func (h *Heap) Len() int {
	return len(h.objects)
}

// Allocations returns the number of objects allocated since the previous
// collection.
func (h *Heap) Allocations() int {
	return h.allocations
}

// Contains reports whether obj is tracked by the heap and not destroyed.
func (h *Heap) Contains(obj Counted) bool {
	_, ok := h.objects[obj.Core()]
	return ok
}

// Collect runs a full mark and sweep. markRoots must mark every root; any
// tracked object left unmarked afterwards is destroyed.
func (h *Heap) Collect(markRoots func()) HeapStats {
	start := time.Now()

	for core := range h.objects {
		core.marked = false
	}
	h.marks = 0
	markRoots()
	marked := h.marks

	var garbage []Counted
	for core, obj := range h.objects {
		if !core.marked {
			garbage = append(garbage, obj)
		}
	}
	// Destroying one object can release another that is also garbage, so
	// the sweep works from a snapshot and destroy tolerates repeats.
	for _, obj := range garbage {
		obj.Core().destroy()
	}

	h.allocations = 0
	h.collections++
	h.lastStats = HeapStats{
		Live:        len(h.objects),
		Marked:      marked,
		Swept:       len(garbage),
		Collections: h.collections,
		Duration:    time.Since(start),
		Timestamp:   start,
	}
	return h.lastStats
}

// LastStats returns the statistics of the most recent collection.
func (h *Heap) LastStats() HeapStats {
	return h.lastStats
}

// markCounted marks obj unless it is nil or already marked.
func markCounted(obj Counted) {
	if obj == nil {
		return
	}
	if core := obj.Core(); core != nil && !core.marked {
		obj.Mark()
	}
}
