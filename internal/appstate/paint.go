package appstate

import (
	"context"
	"sync"
)

// painter draws frames on its own goroutine. A newer frame cancels the one
// in flight, up to frameDropThreshold times in a row.
type painter struct {
	ctx    context.Context
	cancel context.CancelFunc
	draw   func(context.Context, paintState)
	frames chan paintState
	done   chan struct{}

	mu        sync.Mutex
	inflight  context.CancelFunc
	dropCount int
	closed    bool
}

func newPainter(ctx context.Context, draw func(context.Context, paintState)) *painter {
	ctx, cancel := context.WithCancel(ctx)
	p := &painter{
		ctx:    ctx,
		cancel: cancel,
		draw:   draw,
		frames: make(chan paintState, 1),
		done:   make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *painter) loop() {
	defer close(p.done)
	for st := range p.frames {
		if p.ctx.Err() != nil {
			continue
		}
		fctx, fcancel := context.WithCancel(p.ctx)
		p.mu.Lock()
		p.inflight = fcancel
		p.mu.Unlock()
		p.draw(fctx, st)
		p.mu.Lock()
		p.inflight = nil
		if fctx.Err() == nil {
			p.dropCount = 0
		}
		p.mu.Unlock()
		fcancel()
	}
}

// submit queues st, replacing any frame that has not started yet.
func (p *painter) submit(st paintState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.inflight != nil && p.dropCount < frameDropThreshold {
		p.inflight()
		p.dropCount++
	}
	select {
	case p.frames <- st:
	default:
		select {
		case <-p.frames:
		default:
		}
		p.frames <- st
	}
}

// close stops painting and waits for a frame in flight to return, so the
// window can be released afterwards.
func (p *painter) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cancel()
	close(p.frames)
	p.mu.Unlock()
	<-p.done
}
