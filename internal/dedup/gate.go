// Punchsync - Biometric Attendance Sync for HR Systems
// Copyright 2026 Punchkit Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/punchkit/punchsync

// Package dedup suppresses duplicate checkin events before they reach the
// store. A badger key cache answers the common case without touching DuckDB;
// the store's (employee, punch time) existence check stays authoritative for
// keys the cache has never seen or has already expired.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/punchkit/punchsync/internal/logging"
	"github.com/punchkit/punchsync/internal/metrics"
	"github.com/punchkit/punchsync/internal/models"
)

// ExistenceChecker is the authoritative duplicate check, answered by the
// checkin store.
type ExistenceChecker interface {
	CheckinExists(ctx context.Context, employeeID string, punchTime time.Time) (bool, error)
}

// Gate decides whether a normalized checkin event is new or a duplicate.
type Gate struct {
	cache   *badger.DB
	store   ExistenceChecker
	keyTTL  time.Duration
	ownsDir bool
}

// Options configure a Gate.
type Options struct {
	// Path is the badger directory. Empty opens an in-memory cache, which
	// tests and single-shot imports use.
	Path string
	// TTL bounds how long a seen key stays cached. Zero means keys never
	// expire.
	TTL time.Duration
}

// NewGate opens the badger cache and wires it in front of the authoritative
// store check.
func NewGate(opts Options, store ExistenceChecker) (*Gate, error) {
	bopts := badger.DefaultOptions(opts.Path).
		WithLogger(badgerLogger{}).
		WithCompactL0OnClose(true)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	}

	cache, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup cache: %w", err)
	}

	return &Gate{
		cache:  cache,
		store:  store,
		keyTTL: opts.TTL,
	}, nil
}

// Close releases the badger cache.
func (g *Gate) Close() error {
	return g.cache.Close()
}

// Seen reports whether the event's (employee, punch time) identity already
// has a persisted checkin. A cache hit answers immediately; a miss falls
// through to the store, and a confirmed-new key is remembered so the next
// window overlap does not hit the store again.
func (g *Gate) Seen(ctx context.Context, event *models.CheckinEvent) (bool, error) {
	key := []byte(event.DedupKey())

	cached, err := g.cacheHas(key)
	if err != nil {
		// A broken cache degrades to store-only checks.
		logging.Warn().Err(err).Msg("Dedup cache read failed")
	} else if cached {
		metrics.DedupCacheHits.Inc()
		return true, nil
	}
	metrics.DedupCacheMisses.Inc()

	exists, err := g.store.CheckinExists(ctx, event.EmployeeID, event.Time)
	if err != nil {
		return false, fmt.Errorf("failed to check checkin existence: %w", err)
	}
	if exists {
		g.remember(key)
	}
	return exists, nil
}

// Record marks the event's identity as persisted. Called after a successful
// insert so re-fetched records within the TTL short-circuit at the cache.
func (g *Gate) Record(event *models.CheckinEvent) {
	g.remember([]byte(event.DedupKey()))
}

func (g *Gate) cacheHas(key []byte) (bool, error) {
	err := g.cache.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (g *Gate) remember(key []byte) {
	err := g.cache.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(key, nil)
		if g.keyTTL > 0 {
			entry = entry.WithTTL(g.keyTTL)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		// Cache writes are best effort; the store index still holds.
		logging.Warn().Err(err).Msg("Dedup cache write failed")
	}
}

// badgerLogger routes badger's internal logging through zerolog at
// debug level.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
