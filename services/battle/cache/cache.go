// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache holds per-rapper enrichment data gathered for verse
// generation so round one of a second battle against the same artist does
// not hit Wikipedia or the vector store again.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/AleutianAI/RageRaps/services/battle/observability"
)

// DefaultTTL is how long a cached rapper profile stays fresh.
const DefaultTTL = 24 * time.Hour

// Clock abstracts time.Now so tests can step expiry forward.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// RealClock returns a Clock backed by time.Now.
func RealClock() Clock { return realClock{} }

// Profile is the cached enrichment for one rapper.
type Profile struct {
	Bio      string
	Snippets []string
}

// Fields is a partial profile for merge puts. Nil fields leave the existing
// cached value untouched, so the Wikipedia fetcher and the lyric searcher
// can each write their half without clobbering the other.
type Fields struct {
	Bio      *string
	Snippets []string
}

type entry struct {
	profile  Profile
	cachedAt time.Time
}

// RapperCache is a TTL cache keyed by normalized rapper name. Expiry is
// lazy: stale entries are dropped on the Get that finds them.
type RapperCache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	clock   Clock
}

// NewRapperCache creates a cache with the given TTL. A non-positive ttl
// falls back to DefaultTTL.
func NewRapperCache(ttl time.Duration, clock Clock) *RapperCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	return &RapperCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		clock:   clock,
	}
}

// normalizeKey folds case and trims whitespace so "  Kendrick " and
// "kendrick" share an entry.
func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the cached profile for name if present and fresh.
func (c *RapperCache) Get(name string) (Profile, bool) {
	key := normalizeKey(name)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		observability.RecordCacheLookup(false)
		return Profile{}, false
	}
	if c.clock.Now().Sub(e.cachedAt) >= c.ttl {
		delete(c.entries, key)
		observability.RecordCacheLookup(false)
		return Profile{}, false
	}
	observability.RecordCacheLookup(true)
	return e.profile, true
}

// Put merges fields into the entry for name and refreshes its TTL. An
// expired entry is treated as absent, so stale halves never resurface
// through a later merge.
func (c *RapperCache) Put(name string, fields Fields) {
	key := normalizeKey(name)
	now := c.clock.Now()
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || now.Sub(e.cachedAt) >= c.ttl {
		e = entry{}
	}
	if fields.Bio != nil {
		e.profile.Bio = *fields.Bio
	}
	if fields.Snippets != nil {
		e.profile.Snippets = append([]string(nil), fields.Snippets...)
	}
	e.cachedAt = now
	c.entries[key] = e
}

// Len reports the number of entries currently held, including any that
// have expired but not yet been swept by a Get.
func (c *RapperCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
