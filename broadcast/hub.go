// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package broadcast

import (
	"log/slog"
	"sync"

	"github.com/danielhkuo/poll-rooms/poll"
)

// Subscriber receives snapshots for the rooms it joined. Deliver must not
// block: it either hands the snapshot off or returns an error, after which
// the hub drops the subscriber from every room.
type Subscriber interface {
	Deliver(pollID string, snap poll.Snapshot) error
}

// Hub maps poll IDs to rooms of subscribers. Its lock is independent of
// any poll's vote coordination.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[Subscriber]struct{}
	joined map[Subscriber]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[Subscriber]struct{}),
		joined: make(map[Subscriber]map[string]struct{}),
	}
}

// Subscribe adds sub to the room for pollID. Subscribing twice is a no-op.
func (h *Hub) Subscribe(pollID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[pollID]
	if !ok {
		room = make(map[Subscriber]struct{})
		h.rooms[pollID] = room
	}
	room[sub] = struct{}{}

	polls, ok := h.joined[sub]
	if !ok {
		polls = make(map[string]struct{})
		h.joined[sub] = polls
	}
	polls[pollID] = struct{}{}
}

// Unsubscribe removes sub from one room
func (h *Hub) Unsubscribe(pollID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leave(pollID, sub)
}

// Drop removes sub from every room, used when its connection goes away
func (h *Hub) Drop(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for pollID := range h.joined[sub] {
		h.leave(pollID, sub)
	}
}

// leave requires h.mu held for writing
func (h *Hub) leave(pollID string, sub Subscriber) {
	if room, ok := h.rooms[pollID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, pollID)
		}
	}
	if polls, ok := h.joined[sub]; ok {
		delete(polls, pollID)
		if len(polls) == 0 {
			delete(h.joined, sub)
		}
	}
}

// Publish hands snap to every current subscriber of pollID and returns how
// many accepted it. A subscriber that fails is dropped and not retried.
func (h *Hub) Publish(pollID string, snap poll.Snapshot) int {
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[pollID]))
	for sub := range h.rooms[pollID] {
		members = append(members, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range members {
		if err := sub.Deliver(pollID, snap); err != nil {
			slog.Warn("dropping subscriber", "poll_id", pollID, "error", err)
			h.Drop(sub)
			continue
		}
		delivered++
	}
	return delivered
}

// RoomSize returns the number of subscribers for pollID
func (h *Hub) RoomSize(pollID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[pollID])
}

// Rooms returns the poll IDs sub is subscribed to
func (h *Hub) Rooms(sub Subscriber) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.joined[sub]))
	for pollID := range h.joined[sub] {
		out = append(out, pollID)
	}
	return out
}
