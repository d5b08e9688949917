// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// GenerateAdminKey derives the owner key for a poll. Nothing is stored;
// ValidateAdminKey recomputes it.
func GenerateAdminKey(pollID, salt string) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(mac(salt, pollID)), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the poll
func ValidateAdminKey(pollID, adminKey, salt string) error {
	expected := GenerateAdminKey(pollID, salt)
	if adminKey == "" || !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// GenerateShareToken creates the short public token for a poll link.
// It is derived from the poll ID, so a collision is resolved by picking a
// new poll ID.
func GenerateShareToken(pollID, salt string) string {
	// 8 bytes keeps links short; base62 keeps them URL-safe
	return base62Encode(mac(salt, pollID)[:8])
}

// base62Encode converts up to 8 bytes to base62 (0-9, a-z, A-Z)
func base62Encode(data []byte) string {
	const base62Chars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	var num uint64
	for i := 0; i < len(data) && i < 8; i++ {
		num = num<<8 | uint64(data[i])
	}

	if num == 0 {
		return "0"
	}

	result := make([]byte, 0, 11) // max length for uint64
	for num > 0 {
		result = append(result, base62Chars[num%62])
		num /= 62
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return string(result)
}

// HashIdentity turns a raw identity signal (IP address, device
// fingerprint) into an opaque value so raw signals never reach storage
func HashIdentity(raw, salt string) string {
	return hex.EncodeToString(mac(salt, raw)[:16])
}

func mac(key, msg string) []byte {
	h := hmac.New(sha256.New, []byte(key))
	h.Write([]byte(msg))
	return h.Sum(nil)
}
