// Command memengine is the native demo for the memory allocator
// diagnostics suite: run with no flags it reproduces the original demo's
// behavior exactly - all four allocators benchmarked once, then the
// mutex-contention and atomic-performance concurrency tests.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/memlab/memengine/bench"
	"github.com/memlab/memengine/concurrency"
	"github.com/memlab/memengine/engine"
	"github.com/memlab/memengine/internal/diagnostics"
)

var (
	objectSize  int
	objectCount int
	iterations  int
	alignment   int
	threadCount int
	workSize    int
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:     "memengine",
	Short:   "Memory allocator diagnostics suite",
	Version: "0.1.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			diagnostics.Init(os.Stderr, slog.LevelDebug)
		}
		runDemo()
		return nil
	},
}

func init() {
	rootCmd.Flags().IntVar(&objectSize, "object-size", 256, "object size in bytes")
	rootCmd.Flags().IntVar(&objectCount, "object-count", 10000, "objects allocated per benchmark iteration")
	rootCmd.Flags().IntVar(&iterations, "iterations", 5, "allocator benchmark iterations")
	rootCmd.Flags().IntVar(&alignment, "alignment", 16, "allocation alignment in bytes")
	rootCmd.Flags().IntVar(&threadCount, "thread-count", 4, "concurrency benchmark goroutine count")
	rootCmd.Flags().IntVar(&workSize, "work-size", 100, "per-iteration dummy work units")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runDemo() {
	p := message.NewPrinter(language.English)

	fmt.Println()
	fmt.Println("Memory Engine Diagnostics Suite")
	printSeparator()

	eng := engine.New()
	cfg := bench.Config{
		ObjectSize:  uintptr(objectSize),
		ObjectCount: objectCount,
		Iterations:  iterations,
		Alignment:   uintptr(alignment),
	}

	fmt.Println("\n=== Allocator Benchmarks ===")
	for _, t := range []engine.AllocatorType{engine.Standard, engine.Pool, engine.Stack, engine.FreeList} {
		eng.SetAllocator(t)
		metrics := eng.RunBenchmark(cfg)
		printBenchmarkResults(p, metrics)
	}

	fmt.Println("\n=== Concurrency Benchmarks ===")
	ccfg := concurrency.Config{ThreadCount: threadCount, Iterations: 1000, WorkSize: workSize}
	for _, t := range []engine.ConcurrencyTest{engine.MutexContention, engine.AtomicPerformance} {
		result := eng.RunConcurrencyTest(t, ccfg)
		printConcurrencyResults(p, result)
	}

	printSeparator()
	fmt.Println("Diagnostics complete.")
}

func printSeparator() {
	fmt.Println(strings.Repeat("=", 60))
}

func printBenchmarkResults(p *message.Printer, m bench.Metrics) {
	fmt.Printf("\n%s:\n", m.AllocatorName)
	p.Printf("  Allocation (mean):    %.2f ns\n", m.AllocationTime.Mean)
	p.Printf("  Deallocation (mean):  %.2f ns\n", m.DeallocationTime.Mean)
	p.Printf("  Throughput:           %v ops/sec\n", number.Decimal(int64(m.Throughput)))
	p.Printf("  Peak memory:          %v bytes\n", number.Decimal(m.PeakMemory))
	fmt.Printf("  Fragmentation:        %.2f%%\n", m.Fragmentation)
}

func printConcurrencyResults(p *message.Printer, m concurrency.Metrics) {
	fmt.Printf("\n%s:\n", m.TestName)
	fmt.Printf("  Total time:        %.2f ms\n", m.TotalTimeMs)
	fmt.Printf("  Contention time:   %.2f ms\n", m.ContentionTimeMs)
	p.Printf("  Throughput:        %v ops/sec\n", number.Decimal(int64(m.Throughput)))
	if m.ThreadEfficiency > 0 {
		fmt.Printf("  Thread efficiency: %.4f\n", m.ThreadEfficiency)
	}
}
