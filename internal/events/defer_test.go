package events

import (
	"context"
	"sync"
	"testing"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func TestEmitWithoutHoldPublishesImmediately(t *testing.T) {
	pub := &recordingPublisher{}

	Emit(context.Background(), pub, Event{Type: EventInvoiceIssued})

	if got := pub.published(); len(got) != 1 || got[0].Type != EventInvoiceIssued {
		t.Fatalf("published = %+v, want one invoice-issued event", got)
	}
}

func TestHoldBuffersUntilFlush(t *testing.T) {
	pub := &recordingPublisher{}
	ctx, flush := Hold(context.Background())

	Emit(ctx, pub, Event{Type: EventAppointmentScheduled})
	Emit(ctx, pub, Event{Type: EventRequestApproved})

	if got := pub.published(); len(got) != 0 {
		t.Fatalf("events published before flush: %+v", got)
	}

	flush()

	got := pub.published()
	if len(got) != 2 {
		t.Fatalf("published %d events after flush, want 2", len(got))
	}
	if got[0].Type != EventAppointmentScheduled || got[1].Type != EventRequestApproved {
		t.Fatalf("events out of order: %+v", got)
	}
}

func TestHeldEventsVanishWithoutFlush(t *testing.T) {
	pub := &recordingPublisher{}
	ctx, _ := Hold(context.Background())

	Emit(ctx, pub, Event{Type: EventAppointmentCancelled})

	// The buffer is simply abandoned, as the transaction manager does on
	// rollback. Nothing may reach the publisher.
	if got := pub.published(); len(got) != 0 {
		t.Fatalf("abandoned buffer still published: %+v", got)
	}
}

func TestNestedHoldJoinsOuterBuffer(t *testing.T) {
	pub := &recordingPublisher{}
	outerCtx, outerFlush := Hold(context.Background())
	innerCtx, innerFlush := Hold(outerCtx)

	Emit(innerCtx, pub, Event{Type: EventServiceExecuted})

	innerFlush()
	if got := pub.published(); len(got) != 0 {
		t.Fatalf("inner flush published ahead of the outer buffer: %+v", got)
	}

	outerFlush()
	if got := pub.published(); len(got) != 1 || got[0].Type != EventServiceExecuted {
		t.Fatalf("published = %+v, want one service-executed event", got)
	}
}

func TestFlushTwicePublishesOnce(t *testing.T) {
	pub := &recordingPublisher{}
	ctx, flush := Hold(context.Background())

	Emit(ctx, pub, Event{Type: EventInvoicePaid})

	flush()
	flush()

	if got := pub.published(); len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
}
