package divik

import "sync"

// forEachChunk splits [0, n) into contiguous ranges and runs fn on each range
// from its own goroutine. With numWorkers <= 1 it degrades to a single
// sequential call covering the whole range, with identical semantics.
//
// Ranges don't overlap, so fn may write to per-index slots of a shared slice
// without synchronization.
func forEachChunk(n, numWorkers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if numWorkers <= 1 || n == 1 {
		fn(0, n)
		return
	}

	var wg sync.WaitGroup
	perWorker := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * perWorker
		end := min(start+perWorker, n)
		if start >= n {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}

	wg.Wait()
}

// forEachIndex runs fn(i) for every i in [0, n), fanning the calls out over
// numWorkers goroutines. Unlike forEachChunk it hands out single indices, so
// it suits few units of uneven cost (e.g. one candidate clustering each).
// With numWorkers <= 1 it runs strictly sequentially in-process.
func forEachIndex(n, numWorkers int, fn func(i int)) {
	if n <= 0 {
		return
	}
	if numWorkers <= 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	next := make(chan int)

	workers := min(numWorkers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		next <- i
	}
	close(next)
	wg.Wait()
}
