// Package redis provides a Redis-backed delivery store for multi-instance
// deployments.
//
// Each (token, format) entry is a hash. Two sorted sets index entries by
// expiry and purge time so Sweep can release payloads and drop tombstones
// without scanning the keyspace. Hashes also carry a Redis expiry at their
// purge time, so a store nobody sweeps still forgets old entries.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Truthmedia123/weddingreplit-sub000/pkg/delivery"
)

// DefaultPrefix namespaces every key the store writes.
const DefaultPrefix = "invitekit:"

// Config holds connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Prefix is prepended to every key. Empty means DefaultPrefix.
	Prefix string
}

// Store persists delivery entries in Redis.
type Store struct {
	client *goredis.Client
	prefix string
}

var _ delivery.Store = (*Store)(nil)

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewStoreFromClient(client, cfg.Prefix), nil
}

// NewStoreFromClient wraps an existing client.
func NewStoreFromClient(client *goredis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Store) tokenKey(token string) string  { return s.prefix + "token:" + token }
func (s *Store) entryKey(member string) string { return s.prefix + "entry:" + member }
func (s *Store) expiryIndex() string           { return s.prefix + "index:expires" }
func (s *Store) purgeIndex() string            { return s.prefix + "index:purge" }

func member(token, format string) string { return token + "/" + format }

func (s *Store) Put(ctx context.Context, token string, entries []delivery.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	purge := entries[0].PurgeAt
	for _, e := range entries[1:] {
		if e.PurgeAt.After(purge) {
			purge = e.PurgeAt
		}
	}

	ok, err := s.client.SetArgs(ctx, s.tokenKey(token), "1", goredis.SetArgs{Mode: "NX", ExpireAt: purge}).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("reserve token: %w", err)
	}
	if ok != "OK" {
		return delivery.ErrDuplicate
	}

	pipe := s.client.TxPipeline()
	for _, e := range entries {
		m := member(token, e.Format)
		key := s.entryKey(m)
		pipe.HSet(ctx, key,
			"content_type", e.ContentType,
			"filename", e.Filename,
			"template_id", e.TemplateID,
			"generation_id", e.GenerationID,
			"data", e.Data,
			"expires_at", e.ExpiresAt.UnixMilli(),
			"consumed", "0",
		)
		pipe.PExpireAt(ctx, key, e.PurgeAt)
		pipe.ZAdd(ctx, s.expiryIndex(), goredis.Z{Score: float64(e.ExpiresAt.UnixMilli()), Member: m})
		pipe.ZAdd(ctx, s.purgeIndex(), goredis.Z{Score: float64(e.PurgeAt.UnixMilli()), Member: m})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		// Release the reservation so the token is not left claimed with no
		// entries behind it.
		if derr := s.client.Del(context.WithoutCancel(ctx), s.tokenKey(token)).Err(); derr != nil {
			err = errors.Join(err, fmt.Errorf("release token: %w", derr))
		}
		return fmt.Errorf("store entries: %w", err)
	}
	return nil
}

// redeemScript returns {status, content_type, filename, template_id,
// generation_id, data}; status is 0 missing, 1 consumed, 2 expired, 3 served.
var redeemScript = goredis.NewScript(`
local k = KEYS[1]
if redis.call('EXISTS', k) == 0 then
  return {0}
end
if redis.call('HGET', k, 'consumed') == '1' then
  return {1}
end
if tonumber(ARGV[1]) >= tonumber(redis.call('HGET', k, 'expires_at')) then
  redis.call('HDEL', k, 'data')
  return {2}
end
local v = redis.call('HMGET', k, 'content_type', 'filename', 'template_id', 'generation_id', 'data')
redis.call('HSET', k, 'consumed', '1')
redis.call('HDEL', k, 'data')
return {3, v[1], v[2], v[3], v[4], v[5]}
`)

const (
	statusMissing = iota
	statusConsumed
	statusExpired
	statusServed
)

func (s *Store) Redeem(ctx context.Context, token, format string, now time.Time) (delivery.Artifact, error) {
	key := s.entryKey(member(token, format))
	res, err := redeemScript.Run(ctx, s.client, []string{key}, now.UnixMilli()).Slice()
	if err != nil {
		return delivery.Artifact{}, fmt.Errorf("redeem: %w", err)
	}
	if len(res) == 0 {
		return delivery.Artifact{}, fmt.Errorf("redeem: empty reply")
	}
	status, _ := res[0].(int64)
	switch status {
	case statusMissing:
		return delivery.Artifact{}, delivery.ErrNotFound
	case statusConsumed:
		return delivery.Artifact{}, delivery.ErrConsumed
	case statusExpired:
		return delivery.Artifact{}, delivery.ErrExpired
	case statusServed:
	default:
		return delivery.Artifact{}, fmt.Errorf("redeem: unexpected status %d", status)
	}
	if len(res) != 6 {
		return delivery.Artifact{}, fmt.Errorf("redeem: malformed reply")
	}
	str := func(v any) string { s, _ := v.(string); return s }
	return delivery.Artifact{
		Format:       format,
		ContentType:  str(res[1]),
		Filename:     str(res[2]),
		TemplateID:   str(res[3]),
		GenerationID: str(res[4]),
		Data:         []byte(str(res[5])),
	}, nil
}

func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	upper := strconv.FormatInt(now.UnixMilli(), 10)
	rng := &goredis.ZRangeBy{Min: "-inf", Max: upper}
	n := 0

	purged, err := s.client.ZRangeByScore(ctx, s.purgeIndex(), rng).Result()
	if err != nil {
		return 0, fmt.Errorf("purge index: %w", err)
	}
	for _, m := range purged {
		removed, err := s.client.Del(ctx, s.entryKey(m)).Result()
		if err != nil {
			return n, fmt.Errorf("purge %s: %w", m, err)
		}
		n += int(removed)
		token, _, _ := strings.Cut(m, "/")
		_ = s.client.Del(ctx, s.tokenKey(token)).Err()
	}
	if len(purged) > 0 {
		if err := s.client.ZRemRangeByScore(ctx, s.purgeIndex(), "-inf", upper).Err(); err != nil {
			return n, fmt.Errorf("trim purge index: %w", err)
		}
	}

	expired, err := s.client.ZRangeByScore(ctx, s.expiryIndex(), rng).Result()
	if err != nil {
		return n, fmt.Errorf("expiry index: %w", err)
	}
	for _, m := range expired {
		released, err := s.client.HDel(ctx, s.entryKey(m), "data").Result()
		if err != nil {
			return n, fmt.Errorf("release %s: %w", m, err)
		}
		n += int(released)
	}
	if len(expired) > 0 {
		if err := s.client.ZRemRangeByScore(ctx, s.expiryIndex(), "-inf", upper).Err(); err != nil {
			return n, fmt.Errorf("trim expiry index: %w", err)
		}
	}
	return n, nil
}
