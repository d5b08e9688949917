// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides key derivation and hashing utilities.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(pollID, salt)
	err := auth.ValidateAdminKey(pollID, adminKey, salt)

The key is URL-safe base64 encoded without padding. It is returned once
when a poll is created and lets the owner deactivate the poll. Nothing is
stored in the database.

# Share Tokens

Share tokens are the public part of a poll link:

	token := auth.GenerateShareToken(pollID, salt)

Tokens are base62 encoded (alphanumeric only), at most 11 characters.

# Identity Hashing

Vote ledger entries never hold raw IP addresses or fingerprints:

	value := auth.HashIdentity(rawIP, salt)

Returns the first 16 bytes (32 hex chars) of HMAC-SHA256.
*/
package auth
