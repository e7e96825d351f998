// Package cache memoises tag suggestions in Badger.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const suggestPrefix = "suggest:" // suggest:{sha256(text)}:{count} → JSON []string

// SuggestionCache stores suggestion results keyed by text and count.
type SuggestionCache interface {
	Get(ctx context.Context, text string, count int) ([]string, bool)
	Put(ctx context.Context, text string, count int, tags []string) error
	Close() error
}

// Options configures the Badger cache.
type Options struct {
	Path     string        // Directory for Badger files, ignored when InMemory
	InMemory bool          // Keep everything in memory (tests)
	TTL      time.Duration // Entry lifetime; zero keeps entries forever
	Logger   *slog.Logger
}

// BadgerCache is a SuggestionCache backed by Badger with per-entry TTL.
type BadgerCache struct {
	db     *badger.DB
	ttl    time.Duration
	logger *slog.Logger
}

var _ SuggestionCache = (*BadgerCache)(nil)

// Open opens (or creates) the cache database.
func Open(opts Options) (*BadgerCache, error) {
	bopts := badger.DefaultOptions(opts.Path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Info("suggestion cache opened", "path", opts.Path, "in_memory", opts.InMemory, "ttl", opts.TTL)

	return &BadgerCache{db: db, ttl: opts.TTL, logger: logger}, nil
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

// RunGC rewrites value log files until Badger finds nothing worth
// reclaiming. Expired suggestions only free disk space through this.
func (c *BadgerCache) RunGC() error {
	for {
		err := c.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite),
			errors.Is(err, badger.ErrRejected),
			errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return err
		}
	}
}

func suggestKey(text string, count int) []byte {
	sum := sha256.Sum256([]byte(text))
	return []byte(suggestPrefix + hex.EncodeToString(sum[:]) + ":" + strconv.Itoa(count))
}

// Get returns the cached tags. Misses, expired entries and decode failures
// all report false.
func (c *BadgerCache) Get(ctx context.Context, text string, count int) ([]string, bool) {
	if ctx.Err() != nil {
		return nil, false
	}

	var tags []string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(suggestKey(text, count))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &tags)
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn("suggestion cache read failed", "error", err)
		}
		return nil, false
	}
	return tags, true
}

// Put stores tags for (text, count).
func (c *BadgerCache) Put(ctx context.Context, text string, count int, tags []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(suggestKey(text, count), data)
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Noop is a SuggestionCache that never stores anything.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string, int) ([]string, bool) { return nil, false }

// Put discards the value.
func (Noop) Put(context.Context, string, int, []string) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
