// Package worker runs complaint resolution off the request path. Submission
// is fire-and-forget from the caller's point of view; every accepted job is
// driven to a terminal complaint status or logged for retry.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/models"
)

// Resolver is the part of the complaint service the pool needs.
type Resolver interface {
	Resolve(ctx context.Context, complaintRef string) (*models.ResolutionResult, error)
}

// Pool is a bounded worker pool over complaint refs.
type Pool struct {
	jobs     chan string
	resolver Resolver
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewPool(bufferSize int, resolver Resolver, log *zap.Logger) *Pool {
	return &Pool{
		jobs:     make(chan string, bufferSize),
		resolver: resolver,
		log:      log,
	}
}

func (p *Pool) Start(workerCount int) {
	for i := 0; i < workerCount; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for ref := range p.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		res, err := p.resolver.Resolve(ctx, ref)
		cancel()
		if err != nil {
			p.log.Error("complaint resolution failed", zap.String("complaint_id", ref), zap.Error(err))
			continue
		}
		p.log.Info("complaint processed",
			zap.String("complaint_id", ref),
			zap.String("status", string(res.Status)))
	}
}

// Submit enqueues a complaint for resolution. Returns false when the queue
// is full so the caller can surface backpressure instead of blocking.
func (p *Pool) Submit(complaintRef string) bool {
	select {
	case p.jobs <- complaintRef:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting work and waits for in-flight resolutions.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
}
