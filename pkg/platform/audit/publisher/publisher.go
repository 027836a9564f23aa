// Package publisher emits audit events either synchronously or through a
// buffered channel drained by a background goroutine.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "worldpass/pkg/platform/audit"
)

// Publisher writes audit events to a store. In sync mode Emit appends
// directly; with WithAsyncBuffer events go through a channel and Close
// drains what remains.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	inbox     chan audit.Event
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(p *Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records an event. In async mode a full buffer falls back to a
// synchronous append rather than dropping the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		return p.store.Append(ctx, event)
	}
}

// ListByVC exposes the underlying store's per-credential trail.
func (p *Publisher) ListByVC(ctx context.Context, vcID string) ([]audit.Event, error) {
	return p.store.ListByVC(ctx, vcID)
}

// Close stops the background drain, flushing buffered events first.
// Safe to call more than once.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		if p.inbox == nil {
			return
		}
		close(p.inbox)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.inbox {
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("audit append failed",
				slog.String("action", string(event.Action)),
				slog.String("error", err.Error()))
		}
	}
}
