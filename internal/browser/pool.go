package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrPoolClosed = errors.New("browser pool is closed")

// Instance is the slice of Browser the pool cares about. Tests substitute
// fakes; production uses *Browser.
type Instance interface {
	Close() error
}

// Factory creates a fresh browser instance for a pool slot.
type Factory func() (Instance, error)

// Handle is an exclusively-owned pool slot between Acquire and Release.
type Handle struct {
	inst Instance
	uses int
}

// Instance returns the browser held by this handle.
func (h *Handle) Instance() Instance {
	return h.inst
}

// Pool is a fixed-size pool of browser instances. Acquire blocks when all
// slots are in use; that is backpressure, not an error. An instance is
// torn down and replaced after pagesPerRecycle uses to bound memory growth
// from long browser-process lifetimes.
type Pool struct {
	factory         Factory
	slots           chan *Handle
	pagesPerRecycle int
	logger          *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewPool(size, pagesPerRecycle int, factory Factory) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	if pagesPerRecycle < 1 {
		return nil, fmt.Errorf("pages per recycle must be at least 1, got %d", pagesPerRecycle)
	}

	p := &Pool{
		factory:         factory,
		slots:           make(chan *Handle, size),
		pagesPerRecycle: pagesPerRecycle,
		logger:          slog.Default().With("component", "browser_pool"),
	}

	// Slots start empty; instances are created on first acquire so a pool
	// can be constructed before any browser process exists.
	for i := 0; i < size; i++ {
		p.slots <- &Handle{}
	}

	return p, nil
}

// Acquire blocks until a slot is free or ctx is done. The returned handle
// must be released on every exit path.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case h, ok := <-p.slots:
		if !ok {
			return nil, ErrPoolClosed
		}
		if h.inst == nil {
			inst, err := p.factory()
			if err != nil {
				// Return the empty slot so the pool does not shrink.
				p.put(h)
				return nil, fmt.Errorf("failed to create browser instance: %w", err)
			}
			h.inst = inst
		}
		return h, nil
	}
}

// Release returns a handle to the pool, recycling the underlying instance
// once it has served pagesPerRecycle pages.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}

	h.uses++
	if h.uses >= p.pagesPerRecycle && h.inst != nil {
		p.logger.Debug("recycling browser instance", "uses", h.uses)
		if err := h.inst.Close(); err != nil {
			p.logger.Warn("failed to close recycled instance", "error", err)
		}
		h.inst = nil
		h.uses = 0
	}

	p.put(h)
}

// Discard closes a handle's instance without waiting for the recycle
// threshold, then frees the slot. Used after driver-level failures.
func (p *Pool) Discard(h *Handle) {
	if h == nil {
		return
	}

	if h.inst != nil {
		if err := h.inst.Close(); err != nil {
			p.logger.Warn("failed to close discarded instance", "error", err)
		}
		h.inst = nil
	}
	h.uses = 0

	p.put(h)
}

func (p *Pool) put(h *Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		if h.inst != nil {
			h.inst.Close()
		}
		return
	}

	p.slots <- h
}

// Close tears down every idle instance. In-flight handles are closed as
// they are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case h := <-p.slots:
			if h.inst != nil {
				if err := h.inst.Close(); err != nil {
					errs = append(errs, err)
				}
			}
		default:
			if len(errs) > 0 {
				return fmt.Errorf("errors during pool close: %v", errs)
			}
			return nil
		}
	}
}
