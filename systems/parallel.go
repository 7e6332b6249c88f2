package systems

import (
	"runtime"
	"sync"
)

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	slot       int
	start, end int
}

// workerPool runs chunked work on persistent goroutines.
type workerPool struct {
	numWorkers int
	results    []StepStats // one slot per dispatched chunk

	// fn is replaced before each dispatch; the channel send orders the write
	// before any worker reads it.
	fn func(start, end int) StepStats

	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &workerPool{
		numWorkers: numWorkers,
		results:    make([]StepStats, numWorkers),
	}
}

// start launches the worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.results[chunk.slot] = p.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run splits [0, n) into one chunk per worker, waits for all of them and
// sums the results.
func (p *workerPool) run(n int, fn func(start, end int) StepStats) StepStats {
	if !p.running {
		p.start()
	}
	p.fn = fn

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{slot: dispatched, start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}

	var total StepStats
	for i := 0; i < dispatched; i++ {
		total.add(p.results[i])
	}
	return total
}
