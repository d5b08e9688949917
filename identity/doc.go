// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity derives the weak voter identities used for duplicate vote
detection.

Every request has an origin (the client address, taken from proxy headers
when present) and may carry a client computed fingerprint. Both are hashed
with a server secret before they are compared or stored:

	res := identity.NewResolver(cfg.IdentitySalt)
	id := res.Resolve(r, req.Fingerprint)

These are not authentication; two people behind one NAT share an origin.
*/
package identity
