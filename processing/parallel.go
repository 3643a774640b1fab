package processing

import (
	"runtime"
	"sync"
)

// forEachRowChunk splits rows [0, height) into contiguous chunks, one per
// worker, and runs fn on each chunk concurrently. Chunks never overlap,
// so fn may write freely within its own rows.
func forEachRowChunk(height int, fn func(startRow, endRow int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	rowsPerWorker := height / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := start + rowsPerWorker
		if w == workers-1 {
			end = height
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
