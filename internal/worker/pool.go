package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// PoolConfig holds configuration options for the worker pool
type PoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start.
	// If zero or negative, defaults to 1.
	WorkerCount int
}

// Pool runs jobs from a queue on a fixed number of goroutines.
type Pool struct {
	queue        *Queue
	workerCount  int
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	logger       *slog.Logger
	errorHandler func(job Job, err error)
	startOnce    sync.Once
}

// NewPool creates a pool consuming queue. Call Start to launch the workers.
func NewPool(queue *Queue, config PoolConfig, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "worker_pool")

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		queue:       queue,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler sets a function called for every failed job. Must be called
// before Start.
func (p *Pool) SetErrorHandler(handler func(job Job, err error)) {
	p.errorHandler = handler
}

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info("starting worker pool", "worker_count", p.workerCount)
		for i := 0; i < p.workerCount; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Stop closes the queue and waits for the workers to finish the jobs still
// queued. If ctx expires first, running jobs are cancelled and ctx's error is
// returned once the workers have exited.
func (p *Pool) Stop(ctx context.Context) error {
	p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("worker pool stopped before draining the queue",
			"remaining", p.queue.Len())
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-p.queue.Jobs():
			if !ok {
				p.logger.Debug("job channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(job, id)
		}
	}
}

func (p *Pool) process(job Job, workerID int) {
	log := p.logger.With(
		"job_id", job.ID(),
		"job_type", job.Type(),
		"worker_id", workerID,
	)

	err := p.execute(job)
	if err != nil {
		log.Error("job execution failed", "error", err)
		if p.errorHandler != nil {
			p.errorHandler(job, err)
		}
		return
	}
	log.Debug("job completed")
}

func (p *Pool) execute(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job.Execute(p.ctx)
}
