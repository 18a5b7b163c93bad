// Package worker persists catalog search results in the background.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ewilliams-labs/shelfsound/internal/core/domain"
	"github.com/ewilliams-labs/shelfsound/internal/core/ports"
	"github.com/ewilliams-labs/shelfsound/internal/logging"
)

const defaultJobTimeout = 5 * time.Second

// Job is a catalog record to upsert.
type Job struct {
	Book domain.Book
}

// Pool manages background workers for async upserts.
type Pool struct {
	repo    ports.BookRepository
	jobs    chan Job
	wg      sync.WaitGroup
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a worker pool with the given queue size.
func NewPool(repo ports.BookRepository, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{repo: repo, jobs: make(chan Job, queueSize), timeout: defaultJobTimeout}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop closes the queue and waits for queued jobs to drain.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit queues a book without blocking. It reports false when the book was
// dropped because the queue is full or the pool has stopped.
func (p *Pool) Submit(b domain.Book) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- Job{Book: b}:
		return true
	default:
		logging.With("worker").Warn().Str("book", b.ExternalID).Msg("queue full, dropping upsert")
		return false
	}
}

func (p *Pool) processJob(job Job) {
	if job.Book.ExternalID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if _, err := p.repo.UpsertCatalog(ctx, job.Book); err != nil {
		logging.With("worker").Warn().Err(err).Str("book", job.Book.ExternalID).Msg("background upsert failed")
	}
}
