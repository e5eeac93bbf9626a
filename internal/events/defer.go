package events

import (
	"context"
	"sync"
)

type pendingKey struct{}

type pendingEvent struct {
	publisher Publisher
	event     Event
}

type pending struct {
	mu    sync.Mutex
	items []pendingEvent
}

func (p *pending) add(pub Publisher, e Event) {
	p.mu.Lock()
	p.items = append(p.items, pendingEvent{publisher: pub, event: e})
	p.mu.Unlock()
}

func (p *pending) flush() {
	p.mu.Lock()
	items := p.items
	p.items = nil
	p.mu.Unlock()

	for _, it := range items {
		it.publisher.Publish(it.event)
	}
}

// Hold binds an event buffer to the context. Emit calls made with the
// returned context are held until flush runs; a buffer that is never flushed
// publishes nothing. The transaction manager holds a buffer for the lifetime
// of each transaction and flushes it only after a successful commit, so no
// event ever announces a transition that was rolled back.
//
// A context that already carries a buffer is returned unchanged with a no-op
// flush: nested units of work publish through the outermost one.
func Hold(ctx context.Context) (context.Context, func()) {
	if _, ok := ctx.Value(pendingKey{}).(*pending); ok {
		return ctx, func() {}
	}

	p := &pending{}
	return context.WithValue(ctx, pendingKey{}, p), p.flush
}

// Emit publishes e through pub, unless ctx carries a held buffer; then the
// event is queued for the buffer's flush instead.
func Emit(ctx context.Context, pub Publisher, e Event) {
	if p, ok := ctx.Value(pendingKey{}).(*pending); ok {
		p.add(pub, e)
		return
	}
	pub.Publish(e)
}
