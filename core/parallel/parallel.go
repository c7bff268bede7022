// Package parallel provides a worker-split helper used for kernel-matrix
// assembly. The training harness itself is sequential; parallelism is
// confined to filling independent matrix entries.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which ParallelizeWithThreshold
// runs serially. Spawning goroutines for tiny kernel matrices costs more
// than the fill itself.
const DefaultThreshold = 64

// Parallelize splits [0, items) across one worker per CPU core and calls
// fn(start, end) on each chunk, blocking until all chunks complete.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold behaves like Parallelize but runs serially when
// items is below the threshold. A threshold <= 0 uses DefaultThreshold.
func ParallelizeWithThreshold(items, threshold int, fn func(start, end int)) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if items < threshold {
		if items > 0 {
			fn(0, items)
		}
		return
	}
	Parallelize(items, fn)
}
