// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"errors"
	"sync"
	"testing"

	"github.com/danielhkuo/poll-rooms/poll"
)

type recorder struct {
	mu    sync.Mutex
	got   []poll.Snapshot
	fail  bool
	calls int
}

func (r *recorder) Deliver(_ string, snap poll.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.fail {
		return errors.New("connection closed")
	}
	r.got = append(r.got, snap)
	return nil
}

func (r *recorder) snapshots() []poll.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]poll.Snapshot(nil), r.got...)
}

func snapshot(total int) poll.Snapshot {
	return poll.Snapshot{
		Options:    []poll.Option{{Text: "A", Votes: total}, {Text: "B"}},
		TotalVotes: total,
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	h := NewHub()
	sub := &recorder{}

	h.Subscribe("p1", sub)
	h.Subscribe("p1", sub)

	if h.RoomSize("p1") != 1 {
		t.Errorf("Expected room size 1, got %d", h.RoomSize("p1"))
	}

	h.Publish("p1", snapshot(1))
	if n := len(sub.snapshots()); n != 1 {
		t.Errorf("Expected exactly one delivery, got %d", n)
	}
}

func TestPublishOnlyReachesRoom(t *testing.T) {
	h := NewHub()
	a, b := &recorder{}, &recorder{}
	h.Subscribe("p1", a)
	h.Subscribe("p2", b)

	if n := h.Publish("p1", snapshot(1)); n != 1 {
		t.Errorf("Expected 1 delivery, got %d", n)
	}
	if len(b.snapshots()) != 0 {
		t.Error("Subscriber of another poll received a snapshot")
	}
	if n := h.Publish("empty", snapshot(1)); n != 0 {
		t.Errorf("Publishing to an empty room delivered %d", n)
	}
}

func TestPublishOrder(t *testing.T) {
	h := NewHub()
	sub := &recorder{}
	h.Subscribe("p1", sub)

	for i := 1; i <= 5; i++ {
		h.Publish("p1", snapshot(i))
	}

	got := sub.snapshots()
	if len(got) != 5 {
		t.Fatalf("Expected 5 snapshots, got %d", len(got))
	}
	for i, s := range got {
		if s.TotalVotes != i+1 {
			t.Errorf("Snapshot %d out of order: total %d", i, s.TotalVotes)
		}
	}
}

func TestLateSubscriberGetsNoReplay(t *testing.T) {
	h := NewHub()
	early := &recorder{}
	h.Subscribe("p1", early)

	h.Publish("p1", snapshot(1))

	late := &recorder{}
	h.Subscribe("p1", late)
	if len(late.snapshots()) != 0 {
		t.Error("Late subscriber received an already published snapshot")
	}

	h.Publish("p1", snapshot(2))
	if got := late.snapshots(); len(got) != 1 || got[0].TotalVotes != 2 {
		t.Errorf("Late subscriber should see only the next snapshot, got %+v", got)
	}
	if len(early.snapshots()) != 2 {
		t.Errorf("Early subscriber should see both snapshots, got %d", len(early.snapshots()))
	}
}

func TestFailingSubscriberIsDropped(t *testing.T) {
	h := NewHub()
	good, bad := &recorder{}, &recorder{fail: true}
	h.Subscribe("p1", good)
	h.Subscribe("p1", bad)
	h.Subscribe("p2", bad)

	if n := h.Publish("p1", snapshot(1)); n != 1 {
		t.Errorf("Expected 1 successful delivery, got %d", n)
	}
	if len(good.snapshots()) != 1 {
		t.Error("Healthy subscriber missed a snapshot")
	}
	if len(h.Rooms(bad)) != 0 {
		t.Errorf("Failed subscriber should leave every room, still in %v", h.Rooms(bad))
	}

	// No retry against later snapshots
	h.Publish("p1", snapshot(2))
	h.Publish("p2", snapshot(2))
	if bad.calls != 1 {
		t.Errorf("Dropped subscriber was called %d times", bad.calls)
	}
}

func TestUnsubscribeAndDrop(t *testing.T) {
	h := NewHub()
	sub := &recorder{}
	h.Subscribe("p1", sub)
	h.Subscribe("p2", sub)

	h.Unsubscribe("p1", sub)
	if h.RoomSize("p1") != 0 || h.RoomSize("p2") != 1 {
		t.Errorf("Unsubscribe touched the wrong room: p1=%d p2=%d", h.RoomSize("p1"), h.RoomSize("p2"))
	}

	// Unsubscribing again is harmless
	h.Unsubscribe("p1", sub)

	h.Drop(sub)
	if h.RoomSize("p2") != 0 || len(h.Rooms(sub)) != 0 {
		t.Error("Drop should remove the subscriber everywhere")
	}
}

func TestConcurrentChurn(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		sub := &recorder{}
		go func() {
			defer wg.Done()
			h.Subscribe("p1", sub)
			h.Unsubscribe("p1", sub)
			h.Subscribe("p1", sub)
		}()
		go func() {
			defer wg.Done()
			h.Publish("p1", snapshot(1))
		}()
	}
	wg.Wait()

	if h.RoomSize("p1") != 50 {
		t.Errorf("Expected 50 subscribers after churn, got %d", h.RoomSize("p1"))
	}
}
