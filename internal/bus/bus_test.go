package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 10)
	defer unsub()

	b.Emit(KindSendAck, "tok-1")

	select {
	case evt := <-ch:
		if evt.Kind != KindSendAck {
			t.Errorf("got kind %q, want %q", evt.Kind, KindSendAck)
		}
		if evt.Timestamp.IsZero() {
			t.Error("timestamp not set")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("conversation.", 10)
	defer unsub()

	b.Emit(KindTranscriptUpdated, nil)
	b.Emit(KindPhaseChanged, nil)

	select {
	case evt := <-ch:
		if evt.Kind != KindPhaseChanged {
			t.Errorf("got kind %q, want %q", evt.Kind, KindPhaseChanged)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt := <-ch:
		t.Errorf("unexpected event: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 10)
	unsub()
	unsub()

	b.Emit(KindSendFailed, nil)

	select {
	case evt := <-ch:
		t.Errorf("received event after unsubscribe: %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("chat.", 1)
	defer unsub()

	b.Emit(KindSendAck, 1)
	b.Emit(KindSendAck, 2)

	evt := <-ch
	if evt.Payload != 1 {
		t.Errorf("got payload %v, want 1", evt.Payload)
	}
	if got := b.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestNilBusDiscards(t *testing.T) {
	var b *Bus
	b.Emit(KindSendAck, nil)
	if b.Dropped() != 0 {
		t.Error("nil bus should report no drops")
	}
}

