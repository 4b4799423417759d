package model

import (
	"errors"
	"testing"
	"time"
)

func TestQueue(t *testing.T) {
	q := NewQueue()

	if _, _, ok := q.GetNextPair(); ok {
		t.Fatalf("expected no pair from an empty queue")
	}
	for _, id := range []string{"a", "b", "c"} {
		if err := q.AddPlayer(Player{ID: id}); err != nil {
			t.Fatalf("AddPlayer(%s) failed: %v", id, err)
		}
	}
	if err := q.AddPlayer(Player{ID: "b"}); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("expected ErrAlreadyQueued, got %v", err)
	}

	p1, p2, ok := q.GetNextPair()
	if !ok || p1.ID != "a" || p2.ID != "b" {
		t.Fatalf("expected a and b, got %s %s %v", p1.ID, p2.ID, ok)
	}
	if q.Size() != 1 {
		t.Errorf("expected 1 waiting, got %d", q.Size())
	}
	q.Remove("c")
	if q.Size() != 0 {
		t.Errorf("expected empty queue after Remove, got %d", q.Size())
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	if c.GetTimeUsed() != 0 || c.IsRunning() {
		t.Fatalf("expected a stopped, unused clock")
	}
	c.Start()
	time.Sleep(5 * time.Millisecond)
	c.Stop()
	used := c.GetTimeUsed()
	if used < 5*time.Millisecond {
		t.Errorf("expected at least 5ms used, got %s", used)
	}
	time.Sleep(2 * time.Millisecond)
	if c.GetTimeUsed() != used {
		t.Errorf("stopped clock kept running")
	}
}
