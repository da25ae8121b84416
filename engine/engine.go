// Package engine is the orchestration façade: it owns one instance of each
// allocator variant, the benchmark runner, and the concurrency benchmark,
// and exposes the external interface the CLI and any future caller drive.
package engine

import (
	"github.com/memlab/memengine/alloc"
	"github.com/memlab/memengine/bench"
	"github.com/memlab/memengine/concurrency"
	"github.com/memlab/memengine/internal/diagnostics"
)

// AllocatorType selects which owned allocator instance is active.
type AllocatorType int

const (
	Standard AllocatorType = iota
	Pool
	Stack
	FreeList
)

func (t AllocatorType) String() string {
	switch t {
	case Standard:
		return "standard"
	case Pool:
		return "pool"
	case Stack:
		return "stack"
	case FreeList:
		return "freelist"
	default:
		return "unknown"
	}
}

// ConcurrencyTest selects which micro-benchmark RunConcurrencyTest runs.
type ConcurrencyTest int

const (
	MutexContention ConcurrencyTest = iota
	AtomicPerformance
	ProducerConsumer
	ThreadCreation
)

// Default sizing for the owned allocator instances, matching the documented
// external-interface defaults.
const (
	DefaultPoolBlockSize  uintptr = 4096
	DefaultPoolBlockCount uintptr = 10000
	DefaultBackingSize    uintptr = 16 * alloc.MB
)

// Engine owns one instance per AllocatorType, created once and never
// recreated: SetAllocator only switches which instance is active, so state
// (stats, history, live allocations) persists across switches exactly as
// the source engine does.
type Engine struct {
	allocators       map[AllocatorType]alloc.Allocator
	current          AllocatorType
	runner           *bench.Runner
	concurrencyBench *concurrency.Benchmark
}

func New() *Engine {
	e := &Engine{
		allocators:       make(map[AllocatorType]alloc.Allocator),
		current:          Standard,
		runner:           bench.NewRunner(),
		concurrencyBench: concurrency.NewBenchmark(),
	}
	e.allocators[Standard] = alloc.NewStandardAllocator()
	e.allocators[Pool] = alloc.NewPoolAllocator(DefaultPoolBlockSize, DefaultPoolBlockCount, alloc.DefaultAlignment)
	e.allocators[Stack] = alloc.NewStackAllocator(DefaultBackingSize, alloc.DefaultAlignment)
	e.allocators[FreeList] = alloc.NewFreeListAllocator(DefaultBackingSize, alloc.FitBest)
	return e
}

// SetAllocator switches the active allocator. It does not reset or recreate
// the target - its accumulated state from any prior activity is still there.
func (e *Engine) SetAllocator(t AllocatorType) {
	diagnostics.L().Debug("switching allocator", "type", t.String())
	e.current = t
}

// Allocator returns the currently active allocator.
func (e *Engine) Allocator() alloc.Allocator { return e.allocators[e.current] }

func (e *Engine) RunBenchmark(cfg bench.Config) bench.Metrics {
	diagnostics.L().Debug("running benchmark", "allocator", e.current.String(), "iterations", cfg.Iterations)
	return e.runner.Run(e.Allocator(), cfg)
}

func (e *Engine) SetProgressCallback(fn bench.ProgressFunc) {
	e.runner.SetProgressCallback(fn)
}

func (e *Engine) RunConcurrencyTest(test ConcurrencyTest, cfg concurrency.Config) concurrency.Metrics {
	switch test {
	case MutexContention:
		return e.concurrencyBench.RunMutexContention(cfg)
	case AtomicPerformance:
		return e.concurrencyBench.RunAtomicPerformance(cfg)
	case ProducerConsumer:
		return e.concurrencyBench.RunProducerConsumer(cfg)
	case ThreadCreation:
		return e.concurrencyBench.RunThreadCreation(cfg)
	default:
		return concurrency.Metrics{}
	}
}

func (e *Engine) GetStats() alloc.AllocationStats {
	return e.Allocator().Stats()
}

// GetMemoryGrid is only non-empty when the pool allocator is active - every
// other variant has no fixed-slot layout to render as a bitmap.
func (e *Engine) GetMemoryGrid() []bool {
	if e.current != Pool {
		return nil
	}
	if p, ok := e.Allocator().(*alloc.PoolAllocator); ok {
		return p.AllocationGrid()
	}
	return nil
}

func (e *Engine) ResetCurrentAllocator() {
	e.Allocator().Reset()
}
