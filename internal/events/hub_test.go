package events

import (
	"encoding/json"
	"testing"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()

	h.Publish("one")
	if got := <-a; got != "one" {
		t.Fatalf("subscriber a got %q, want %q", got, "one")
	}
	if got := <-b; got != "one" {
		t.Fatalf("subscriber b got %q, want %q", got, "one")
	}

	h.Unsubscribe(b)
	h.Publish("two")
	if got := <-a; got != "two" {
		t.Fatalf("subscriber a got %q, want %q", got, "two")
	}
	if _, ok := <-b; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
}

func TestHubDropsWhenSlow(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	// fill the buffer and then some; Publish must never block
	for i := 0; i < 40; i++ {
		h.Publish("evt")
	}
	if n := len(ch); n != cap(ch) {
		t.Fatalf("buffered %d events, want %d", n, cap(ch))
	}
}

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("job_progress", map[string]int{"processed": 3})

	var evt Event
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if evt.Type != "job_progress" {
		t.Fatalf("type = %q, want job_progress", evt.Type)
	}
	if evt.At.IsZero() {
		t.Fatal("timestamp not set")
	}
	var data map[string]int
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data["processed"] != 3 {
		t.Fatalf("data = %v", data)
	}

	var empty Event
	if err := json.Unmarshal([]byte(MakeEvent("ping", nil)), &empty); err != nil {
		t.Fatalf("unmarshal ping: %v", err)
	}
	if len(empty.Data) != 0 {
		t.Fatalf("ping data = %q, want empty", empty.Data)
	}
}
