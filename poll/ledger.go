// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poll

import "time"

// IdentityKind says which signal produced an identity value.
type IdentityKind string

const (
	KindOrigin      IdentityKind = "origin"
	KindFingerprint IdentityKind = "fingerprint"
)

// Valid reports whether k is a known kind
func (k IdentityKind) Valid() bool {
	return k == KindOrigin || k == KindFingerprint
}

// VoteRecord is one ledger entry
type VoteRecord struct {
	Kind        IdentityKind `json:"identity_kind"`
	Value       string       `json:"-"`
	OptionIndex int          `json:"option_index"`
	VotedAt     time.Time    `json:"voted_at"`
}

type ledgerKey struct {
	kind  IdentityKind
	value string
}

// Ledger records which identities voted on a poll. At most one record
// exists per (kind, value); lookups by value ignore the kind.
type Ledger struct {
	records []VoteRecord
	byKey   map[ledgerKey]int
	byValue map[string]int
}

func newLedger() *Ledger {
	return &Ledger{
		byKey:   make(map[ledgerKey]int),
		byValue: make(map[string]int),
	}
}

func (l *Ledger) contains(value string) bool {
	return l.byValue[value] > 0
}

func (l *Ledger) add(rec VoteRecord) bool {
	k := ledgerKey{rec.Kind, rec.Value}
	if _, ok := l.byKey[k]; ok {
		return false
	}
	l.byKey[k] = len(l.records)
	l.byValue[rec.Value]++
	l.records = append(l.records, rec)
	return true
}

// remove drops the record for (kind, value). Records after it shift down.
func (l *Ledger) remove(kind IdentityKind, value string) {
	k := ledgerKey{kind, value}
	idx, ok := l.byKey[k]
	if !ok {
		return
	}
	l.records = append(l.records[:idx], l.records[idx+1:]...)
	delete(l.byKey, k)
	if l.byValue[value]--; l.byValue[value] <= 0 {
		delete(l.byValue, value)
	}
	for i := idx; i < len(l.records); i++ {
		l.byKey[ledgerKey{l.records[i].Kind, l.records[i].Value}] = i
	}
}

// Len returns the number of records
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a copy of all records in insertion order
func (l *Ledger) Records() []VoteRecord {
	out := make([]VoteRecord, len(l.records))
	copy(out, l.records)
	return out
}
