// Package worker provides an asynchronous worker pool that runs chat sessions
// in the background, so several messages can stream at once while the caller
// keeps submitting.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/ssechat/pkg/chat"
	"github.com/papercomputeco/ssechat/pkg/logger"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute.
type Job struct {
	Session *chat.Session
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Context bounds every session run by the pool. Defaults to
	// context.Background().
	Context context.Context

	// NumWorkers is the number of background workers in the pool, and so the
	// number of sessions streaming at once.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger defaults to a no-op logger.
	Logger *slog.Logger
}

// Pool runs chat sessions asynchronously via a worker pool.
type Pool struct {
	ctx    context.Context
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	if c.Context == nil {
		c.Context = context.Background()
	}

	if c.Logger == nil {
		c.Logger = logger.Nop()
	}

	wp := &Pool{
		ctx:    c.Context,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"message_id", job.Session.ID(),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"message_id", job.Session.ID(),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight sessions to finish.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

// processJob runs the job's session to completion. Failures have already been
// reported to the session's sink, so they are only logged here.
func (p *Pool) processJob(job Job) {
	if err := job.Session.Run(p.ctx); err != nil {
		p.logger.Debug("session ended with error",
			"message_id", job.Session.ID(),
			"error", err,
		)
		return
	}

	p.logger.Debug("session completed",
		"message_id", job.Session.ID(),
		"tokens", job.Session.Tokens(),
	)
}
