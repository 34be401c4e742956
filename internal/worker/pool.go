package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Pool runs a fixed number of delivery workers over a buffered job channel.
// Each worker executes one full delivery (all retry attempts for one
// subscription) at a time, so a slow subscriber occupies exactly one worker.
type Pool struct {
	numWorkers int
	jobs       chan DeliveryJob
	deliverer  *Deliverer
	logger     *slog.Logger
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, deliverer *Deliverer, logger *slog.Logger) *Pool {
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan DeliveryJob, numWorkers*2),
		deliverer:  deliverer,
		logger:     logger,
	}
}

// Start launches the worker goroutines. Workers drain the job channel until
// it is closed; the context bounds in-flight deliveries during shutdown.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.logger.Info("worker pool started", "num_workers", p.numWorkers)
}

// Submit queues a delivery job. Blocks when the buffer is full, which
// backpressures dispatch rather than dropping deliveries.
func (p *Pool) Submit(job DeliveryJob) {
	p.jobs <- job
}

// QueueDepth returns the number of jobs waiting in the buffer.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}

// Stop closes the job channel and waits for workers to finish their current
// deliveries.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-ctx.Done():
			return
		default:
			p.deliverer.Deliver(ctx, job)
		}
	}
}
