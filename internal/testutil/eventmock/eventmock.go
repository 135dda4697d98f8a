package eventmock

import (
	"checksheet-backend/internal/domain/event"
	"context"
	"sync"
)

var _ event.Publisher = (*Publisher)(nil)

type Publisher struct {
	mu     sync.Mutex
	Events []event.Event
	Err    error
}

func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	return p.Err
}

func (p *Publisher) Types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}
