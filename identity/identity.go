// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"net"
	"net/http"
	"strings"

	"github.com/danielhkuo/poll-rooms/auth"
)

// Identity is the pair of weak signals attached to a vote
type Identity struct {
	Origin      string
	Fingerprint string
}

// Values returns the non-empty identity values
func (id Identity) Values() []string {
	if id.Fingerprint == "" {
		return []string{id.Origin}
	}
	return []string{id.Origin, id.Fingerprint}
}

// Resolver derives identities from requests. It holds no state besides
// the hashing salt.
type Resolver struct {
	Salt string
}

func NewResolver(salt string) *Resolver {
	return &Resolver{Salt: salt}
}

// Resolve always returns an origin identity. The fingerprint is whatever
// the client computed, hashed, or empty if none was sent.
func (res *Resolver) Resolve(r *http.Request, fingerprint string) Identity {
	id := Identity{Origin: auth.HashIdentity(ClientIP(r), res.Salt)}
	if fp := strings.TrimSpace(fingerprint); fp != "" {
		id.Fingerprint = auth.HashIdentity(fp, res.Salt)
	}
	return id
}

// ClientIP extracts the client address. Proxy headers are checked in
// order: X-Forwarded-For (first hop), X-Real-IP, CF-Connecting-IP, then
// the connection address without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
