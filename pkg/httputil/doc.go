// Package httputil fetches remote template assets.
//
// # Overview
//
//   - [Fetcher]: GET with retry and an optional disk cache
//   - [Cache]: file-based body cache with a TTL
//   - [Retry]: exponential backoff for transient failures
//
// # Caching
//
// [Cache] keeps one file per key under ~/.cache/invitekit/ (or a configured
// directory). Background images rarely change, so a long TTL is typical:
//
//	cache, err := httputil.NewCache(dir, 7*24*time.Hour)
//	f := httputil.NewFetcher(cache.Namespace("assets:"))
//	data, err := f.Get(ctx, "https://cdn.example.com/palms.jpg")
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried: network failures,
// 429 responses and 5xx responses. The delay doubles after each attempt.
package httputil
