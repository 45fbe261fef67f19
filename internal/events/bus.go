package events

import (
	"log/slog"
	"sync"

	"github.com/alejandrodnm/bottrack/internal/domain"
)

// Handler recibe un evento emitido por el bus.
type Handler func(domain.Event)

// Bus es el distribuidor de eventos in-process. Entrega best-effort a los
// subscribers registrados en el momento del Emit: sin buffering ni replay —
// un dashboard que reconecta debe re-fetchear su estado.
//
// Se construye una vez en main y se inyecta donde haga falta; vive lo que
// vive el proceso y no tiene teardown.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

// NewBus crea un bus sin subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registra un handler y devuelve su función de baja.
// La baja es idempotente y segura tras cualquier número de emits.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Emit invoca síncronamente a todos los subscribers actuales. Un handler
// que entra en pánico no impide la entrega al resto.
func (b *Bus) Emit(ev domain.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, ev)
	}
}

func (b *Bus) deliver(h Handler, ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked", "type", ev.Type, "panic", r)
		}
	}()
	h(ev)
}

// Subscribers devuelve cuántos handlers están registrados.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
