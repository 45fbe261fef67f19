package events_test

import (
	"testing"

	"github.com/alejandrodnm/bottrack/internal/domain"
	"github.com/alejandrodnm/bottrack/internal/events"
	"github.com/stretchr/testify/assert"
)

func TestBus_EmitReachesAllSubscribers(t *testing.T) {
	bus := events.NewBus()

	var got1, got2 []domain.Event
	bus.Subscribe(func(ev domain.Event) { got1 = append(got1, ev) })
	bus.Subscribe(func(ev domain.Event) { got2 = append(got2, ev) })

	bus.Emit(domain.Event{Type: domain.EventTradeCreated})

	assert.Len(t, got1, 1)
	assert.Len(t, got2, 1)
	assert.Equal(t, domain.EventTradeCreated, got1[0].Type)
}

func TestBus_PanickingHandlerIsIsolated(t *testing.T) {
	bus := events.NewBus()

	bus.Subscribe(func(domain.Event) { panic("boom") })

	var got []domain.Event
	bus.Subscribe(func(ev domain.Event) { got = append(got, ev) })

	bus.Emit(domain.Event{Type: domain.EventBalanceUpdated})

	// El segundo subscriber recibe el evento aunque el primero reviente.
	assert.Len(t, got, 1)
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := events.NewBus()

	var got []domain.Event
	unsub := bus.Subscribe(func(ev domain.Event) { got = append(got, ev) })

	bus.Emit(domain.Event{Type: domain.EventTradeUpdated})
	unsub()
	unsub() // segunda baja no debe hacer nada
	bus.Emit(domain.Event{Type: domain.EventTradeUpdated})

	assert.Len(t, got, 1)
	assert.Equal(t, 0, bus.Subscribers())
}

func TestBus_NoReplayForLateSubscribers(t *testing.T) {
	bus := events.NewBus()

	bus.Emit(domain.Event{Type: domain.EventTradeCreated})

	var got []domain.Event
	bus.Subscribe(func(ev domain.Event) { got = append(got, ev) })

	assert.Empty(t, got)
}
