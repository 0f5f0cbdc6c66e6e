package engine

import (
	"runtime"
	"sync"
)

// Pool runs batches of tasks on a fixed set of persistent worker goroutines.
// The goroutine calling Run takes one task itself, so a pool of T workers
// executes T+1 tasks concurrently.
type Pool struct {
	numWorkers int

	// Worker pool channels
	workChan chan func()    // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewPool creates a pool with the given number of workers.
// workers <= 0 selects GOMAXPROCS-1, leaving one slot for the caller.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) - 1
	}
	return &Pool{numWorkers: workers}
}

// Workers returns the number of background workers.
func (p *Pool) Workers() int {
	return p.numWorkers
}

// Chunks returns the number of tasks the pool runs at once (workers plus caller).
func (p *Pool) Chunks() int {
	return p.numWorkers + 1
}

// startWorkers launches persistent worker goroutines.
func (p *Pool) startWorkers() {
	if p.running || p.numWorkers == 0 {
		return
	}

	p.workChan = make(chan func(), p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs in a goroutine, processing tasks until stopped.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case task, ok := <-p.workChan:
			if !ok {
				return
			}
			task()
			p.doneChan <- struct{}{}
		}
	}
}

// Run executes every task and returns once all of them have finished.
// The last task runs on the calling goroutine. Tasks must not call Run.
func (p *Pool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if p.numWorkers == 0 || len(tasks) == 1 {
		for _, task := range tasks {
			task()
		}
		return
	}

	// Ensure workers are running
	if !p.running {
		p.startWorkers()
	}

	remote := tasks[:len(tasks)-1]
	sent, done := 0, 0
	for sent < len(remote) {
		// Drain completions while sending so workers never block on doneChan.
		select {
		case p.workChan <- remote[sent]:
			sent++
		case <-p.doneChan:
			done++
		}
	}

	tasks[len(tasks)-1]()

	// Wait for all tasks to complete
	for ; done < sent; done++ {
		<-p.doneChan
	}
}

// Close signals all workers to exit and waits for them.
func (p *Pool) Close() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}
