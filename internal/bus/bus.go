package bus

import (
	"sync"

	"github.com/ccastromar/cgs-code-generation-system/internal/metrics"
)

type Message struct {
	Type    string
	Payload map[string]any
}

type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan Message
}

func New() *Bus {
	return &Bus{
		subs: make(map[string]chan Message),
	}
}

func (b *Bus) Subscribe(name string, ch chan Message) {
	b.mu.Lock()
	b.subs[name] = ch
	b.mu.Unlock()
}

// HasSubscriber reports whether an inbox is registered under name.
func (b *Bus) HasSubscriber(name string) bool {
	b.mu.RLock()
	_, ok := b.subs[name]
	b.mu.RUnlock()
	return ok
}

// Send delivers msg to the named subscriber without blocking the caller.
// Messages to unknown subscribers or full inboxes are counted as dropped.
func (b *Bus) Send(target string, msg Message) {
	b.mu.RLock()
	ch, ok := b.subs[target]
	b.mu.RUnlock()

	if !ok {
		metrics.BusMessages.Inc(map[string]string{"target": target, "result": "dropped"})
		return
	}

	select {
	case ch <- msg:
		metrics.BusMessages.Inc(map[string]string{"target": target, "result": "sent"})
	default:
		metrics.BusMessages.Inc(map[string]string{"target": target, "result": "dropped"})
	}
}
