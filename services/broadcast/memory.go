package broadcast

import (
	"context"
	"sync"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/progress"
)

const subscriberBuffer = 16

// Bus fans progress events out to every subscriber.
type Bus interface {
	Publish(ctx context.Context, ev progress.Event) error
	// Subscribe returns the events channel and the func releasing it.
	Subscribe() (<-chan progress.Event, func())
}

// Memory is the in-process bus. A subscriber too slow to drain its buffer misses events.
type Memory struct {
	logger core.Logger

	mu     sync.RWMutex
	subs   map[int]chan progress.Event
	nextID int
	closed bool
}

var (
	_ Bus                = (*Memory)(nil)
	_ progress.Publisher = (*Memory)(nil)
)

func NewMemory(logger core.Logger) *Memory {
	return &Memory{logger: logger, subs: make(map[int]chan progress.Event)}
}

func (b *Memory) Publish(_ context.Context, ev progress.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("dropping progress event for slow subscriber", map[string]interface{}{"subscriber": id, "student": ev.StudentID})
		}
	}
	return nil
}

func (b *Memory) Subscribe() (<-chan progress.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan progress.Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
}

// Close releases every subscriber.
func (b *Memory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
	b.closed = true
	return nil
}
