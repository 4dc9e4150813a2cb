package packet

import (
	"context"
	"errors"
	"sync"

	"github.com/taxintake/intakeengine/internal/logging"
)

var (
	ErrQueueFull        = errors.New("packet queue is full")
	ErrDispatcherClosed = errors.New("packet dispatcher is closed")
)

// Handler runs one packet request.
type Handler func(ctx context.Context, requestID string)

// Dispatcher hands a request to a worker without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, requestID string) error
}

type job struct {
	ctx       context.Context
	requestID string
}

// PoolDispatcher runs handlers on a fixed set of goroutines fed by a
// bounded queue. Jobs inherit the dispatch context's values but not its
// cancellation.
type PoolDispatcher struct {
	handler Handler
	log     logging.Logger
	jobs    chan job
	workers int

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

func NewPoolDispatcher(workers, queueSize int, h Handler, log logging.Logger) *PoolDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &PoolDispatcher{
		handler: h,
		log:     log.With("module", "packet_pool"),
		jobs:    make(chan job, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *PoolDispatcher) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
}

func (p *PoolDispatcher) loop() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *PoolDispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error(j.ctx, "packet handler panicked", "request_id", j.requestID, "panic", r)
		}
	}()
	p.handler(j.ctx, j.requestID)
}

// Dispatch queues the request, failing with ErrQueueFull rather than
// blocking the caller.
func (p *PoolDispatcher) Dispatch(ctx context.Context, requestID string) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrDispatcherClosed
	}
	select {
	case p.jobs <- job{ctx: context.WithoutCancel(ctx), requestID: requestID}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop refuses new jobs, lets queued ones finish, and waits for the workers
// or ctx, whichever comes first.
func (p *PoolDispatcher) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
