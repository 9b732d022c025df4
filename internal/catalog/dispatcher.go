package catalog

import (
	"context"
	"sync"
)

// Dispatcher runs posted functions one at a time on the goroutine that called Run.
// Everything that mutates catalog state is posted here, so that state needs no lock of its own.
type Dispatcher struct {
	queue  chan func()
	closed chan struct{}
	once   sync.Once
}

// NewDispatcher creates a dispatcher with a bounded queue.
func NewDispatcher(size int) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	return &Dispatcher{
		queue:  make(chan func(), size),
		closed: make(chan struct{}),
	}
}

// Post queues fn. It reports false when the dispatcher has stopped or ctx ends first.
func (d *Dispatcher) Post(ctx context.Context, fn func()) bool {
	select {
	case <-d.closed:
		return false
	default:
	}

	select {
	case d.queue <- fn:
		return true
	case <-d.closed:
		return false
	case <-ctx.Done():
		return false
	}
}

// Run executes posted functions until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.once.Do(func() { close(d.closed) })

	for {
		select {
		case fn := <-d.queue:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once Run returns.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.closed
}
