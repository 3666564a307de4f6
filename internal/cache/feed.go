// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// feed.go provides a Valkey-backed cache for rendered catalog documents
// (sitemap.xml). Entries hold no counters and are dropped whenever a post or
// the taxonomy changes.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// feedKeyPrefix is the Valkey key prefix for cached feeds.
	feedKeyPrefix = "feed:"

	// DefaultFeedTTL bounds staleness if an invalidation is ever missed.
	DefaultFeedTTL = time.Hour

	// SitemapKey is the cache key of the rendered sitemap.
	SitemapKey = "sitemap.xml"
)

// FeedCache stores rendered feed documents in Valkey.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a feed cache backed by the given Valkey client.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl == 0 {
		ttl = DefaultFeedTTL
	}
	return &FeedCache{client: client, ttl: ttl}
}

// Get returns the cached document for key. Errors count as a miss.
func (fc *FeedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := fc.client.Get(ctx, feedKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("feed cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("feed cache hit", "key", key)
	return val, true
}

// Set stores a rendered document with the configured TTL.
func (fc *FeedCache) Set(ctx context.Context, key string, body []byte) {
	if err := fc.client.Set(ctx, feedKeyPrefix+key, body, fc.ttl).Err(); err != nil {
		slog.Warn("feed cache set error", "key", key, "error", err)
	}
}

// Invalidate drops every cached feed. Called after any mutation that can
// change the set of public pages.
func (fc *FeedCache) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := fc.client.Scan(ctx, cursor, feedKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("feed cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := fc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("feed cache delete error", "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("feed cache invalidated")
}
