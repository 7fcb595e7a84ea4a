package parser

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// AccelerationAvailable reports whether the host CPU has the feature set a
// real SIMD backend would require (AVX2 + CLMUL on amd64). Our scalar
// scanner never uses these features, and nothing in this module calls
// AccelerationAvailable or logs its result.
func AccelerationAvailable() bool {
	return cpuid.CPU.Supports(cpuid.AVX2, cpuid.CLMUL)
}

// PerformanceCoreCount estimates the number of performance (non-efficiency)
// cores available for CPU-bound work. On hybrid architectures (P+E core),
// cpuid reports a single logical core count with no cluster split visible
// from Go, so the best available signal is GOMAXPROCS; we trim one core to
// leave headroom for the window-refill goroutine feeding the worker pool.
func PerformanceCoreCount() int {
	n := runtime.GOMAXPROCS(0)
	if n > 1 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}

// BrandName returns the CPU brand string for diagnostic logging.
func BrandName() string {
	if cpuid.CPU.BrandName == "" {
		return "unknown"
	}
	return cpuid.CPU.BrandName
}
