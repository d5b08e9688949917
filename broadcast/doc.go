// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast fans vote tallies out to live viewers.

A Hub keeps one room per poll. Connections join and leave rooms
explicitly:

	hub.Subscribe(pollID, conn)
	hub.Unsubscribe(pollID, conn)
	hub.Drop(conn) // connection lost

Publish delivers a snapshot to everyone in the room at that moment:

	hub.Publish(pollID, snapshot)

Delivery is best effort per subscriber. A subscriber whose Deliver fails
is removed from all rooms and never sees that snapshot again; a client
that reconnects fetches the poll instead. Nothing is queued for replay,
so a late subscriber only sees snapshots published after it joined.
*/
package broadcast
