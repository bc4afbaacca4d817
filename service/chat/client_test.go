package chat

import (
	"testing"
)

func TestEnqueueAfterCloseFails(t *testing.T) {
	c := newTestClient(1)
	if err := c.Enqueue([]byte("a")); err != nil {
		t.Fatalf("enqueue on open client: %v", err)
	}
	c.CloseWith(1000, "bye")
	if err := c.Enqueue([]byte("b")); err == nil {
		t.Fatal("enqueue after close should fail")
	}
}

func TestEnqueueFullQueueDoesNotBlock(t *testing.T) {
	c := NewClient("c", 1, nil, 2)
	if err := c.Enqueue([]byte("a")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := c.Enqueue([]byte("b")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	// The queue is full; the call must return an error immediately.
	if err := c.Enqueue([]byte("c")); err == nil {
		t.Fatal("enqueue on full queue should fail")
	}
}

func TestCloseWithFirstCallerWins(t *testing.T) {
	c := newTestClient(1)
	c.CloseWith(1008, "replaced")
	c.CloseWith(1000, "normal")

	c.mu.Lock()
	code, text := c.closeCode, c.closeText
	c.mu.Unlock()
	if code != 1008 || text != "replaced" {
		t.Fatalf("close = %d %q", code, text)
	}
	if !isClosed(c) {
		t.Fatal("done channel should be closed")
	}
}
