package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	require.NotNil(t, hub)
	assert.NotNil(t, hub.subscribers)
	assert.False(t, hub.closed)
}

func TestHub_PublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsub := hub.Subscribe()
	defer unsub()

	hub.Publish(Event{
		Type:   EventStepAppended,
		FlowID: "flow-01j",
		Data:   map[string]any{"mode": "navigation"},
	})

	select {
	case received := <-ch:
		assert.Equal(t, EventStepAppended, received.Type)
		assert.Equal(t, "flow-01j", received.FlowID)
		assert.False(t, received.Timestamp.IsZero())
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
}

func TestHub_MultipleSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch1, unsub1 := hub.Subscribe()
	defer unsub1()
	ch2, unsub2 := hub.Subscribe()
	defer unsub2()

	hub.Publish(Event{Type: EventTimespanEnded})

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case received := <-ch:
			assert.Equal(t, EventTimespanEnded, received.Type)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout waiting for event")
		}
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsub := hub.Subscribe()
	unsub()

	hub.Publish(Event{Type: EventSnapshotCaptured})

	if _, open := <-ch; open {
		t.Fatal("channel should be closed after unsubscribe")
	}

	// Unsubscribing twice must not panic.
	unsub()
}

func TestHub_PublishAfterCloseIsNoop(t *testing.T) {
	hub := NewHub()
	ch, _ := hub.Subscribe()

	hub.Close()
	hub.Publish(Event{Type: EventFlowAudited})

	if _, open := <-ch; open {
		t.Fatal("subscriber channel should be closed by Close")
	}

	emptyCh, unsub := hub.Subscribe()
	defer unsub()
	if _, open := <-emptyCh; open {
		t.Fatal("subscribing after close should yield a closed channel")
	}
}

func TestHub_NilSafePublish(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: EventNavigationStarted})
	hub.Close()
}

func TestHub_DropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsub := hub.Subscribe()
	defer unsub()

	for i := 0; i < subscriberBuffer+16; i++ {
		hub.Publish(Event{Type: EventStepAppended, Data: map[string]any{"i": i}})
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
		default:
			require.Equal(t, subscriberBuffer, received, "overflow should be dropped, not queued")
			return
		}
	}
}
